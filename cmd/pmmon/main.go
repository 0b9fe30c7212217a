package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/sps30.go/pkg/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/sps30/"
	format  = string(mqtt.FormatJSON)
)

func init() {
	if val := os.Getenv("SPS30_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&format, "format", format, "Payload format: json or proto.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	f, err := mqtt.ParseFormat(format)
	if err != nil {
		log.Fatalln(err)
	}
	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}
	defer q.Close()

	err = q.Sub("+/+", mqtt.Handler(func(topic string, payload []byte) {
		switch {
		case strings.HasSuffix(topic, "/"+mqtt.TopicMeta):
			if len(payload) == 0 {
				log.Printf("%s: offline", topic)
			} else {
				log.Printf("%s: %s", topic, string(payload))
			}
		case strings.HasSuffix(topic, "/"+mqtt.TopicSample):
			m, err := mqtt.DecodeSample(payload, f)
			if err != nil {
				log.Printf("%s: bad sample: %v", topic, err)
				return
			}
			log.Printf("%s: PM1.0 %v PM2.5 %v PM4.0 %v PM10 %v %s, typical size %v %s", topic,
				pick(m, "mass_density", "pm1.0"), pick(m, "mass_density", "pm2.5"),
				pick(m, "mass_density", "pm4.0"), pick(m, "mass_density", "pm10"),
				m["mass_density_unit"], m["particle_size"], m["particle_size_unit"])
		}
	}))
	if err != nil {
		log.Fatalln(err)
	}
	select {}
}

func pick(m map[string]interface{}, group, key string) interface{} {
	if sub, ok := m[group].(map[string]interface{}); ok {
		return sub[key]
	}
	return nil
}
