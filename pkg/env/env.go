// Package env sets up the publishing environment of the sensor daemon.
package env

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	fx "github.com/robotalks/sps30.go/pkg/framework"
	"github.com/robotalks/sps30.go/pkg/mqtt"
	"github.com/robotalks/sps30.go/pkg/stream"
)

// AppID scopes the machine ID so it can't be correlated with other apps.
const AppID = "sps30"

// MachineID retrieves the unique ID identifying the machine.
func MachineID() (string, error) {
	id, err := machineid.ProtectedID(AppID)
	if err != nil {
		return "", err
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id, nil
}

// Config provides options of where samples are published.
type Config struct {
	// DeviceID identifies the sensor in topics, defaults to machine ID.
	DeviceID string
	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	Format        string
	// WebsocketAddr is the listen address of the sample stream.
	WebsocketAddr   string
	PublishInterval time.Duration
}

var defaultConfig = Config{
	MQTTBrokerURL:   "mqtt://localhost:1883/sps30/",
	Format:          string(mqtt.FormatJSON),
	PublishInterval: 200 * time.Millisecond,
}

func init() {
	if val := os.Getenv("SPS30_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("SPS30_DEVICE_ID"); val != "" {
		defaultConfig.DeviceID = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.DeviceID, "id", defaultConfig.DeviceID, "Device ID, default is derived from machine ID.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable.")
	flag.StringVar(&defaultConfig.Format, "format", defaultConfig.Format, "Payload format: json or proto.")
	flag.StringVar(&defaultConfig.WebsocketAddr, "ws", defaultConfig.WebsocketAddr, "Websocket listen address, empty to disable.")
	flag.DurationVar(&defaultConfig.PublishInterval, "publish-interval", defaultConfig.PublishInterval, "Interval checking for new samples.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Env connects a sample source to publishing endpoints.
type Env struct {
	Config    *Config
	Info      mqtt.DeviceInfo
	Publisher *mqtt.Publisher
	Stream    *stream.Server
}

// NewEnv creates Env from config. info.ID and info.Format are filled from config.
func (c *Config) NewEnv(source mqtt.SampleSource, info mqtt.DeviceInfo) (*Env, error) {
	format, err := mqtt.ParseFormat(c.Format)
	if err != nil {
		return nil, err
	}
	if info.ID = c.DeviceID; info.ID == "" {
		if info.ID, err = MachineID(); err != nil {
			return nil, fmt.Errorf("device ID not specified and machine ID unavailable: %w", err)
		}
	}
	info.Format = format
	env := &Env{Config: c, Info: info}
	if c.MQTTBrokerURL != "" {
		if env.Publisher, err = mqtt.NewPublisher(c.MQTTBrokerURL, source, info); err != nil {
			return nil, fmt.Errorf("create MQTT publisher error: %w", err)
		}
	}
	if c.WebsocketAddr != "" {
		env.Stream = stream.NewServer(c.WebsocketAddr, source)
	}
	if env.Publisher == nil && env.Stream == nil {
		glog.Warning("neither MQTT nor websocket is enabled, samples are only logged")
	}
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv(source mqtt.SampleSource, info mqtt.DeviceInfo) *Env {
	env, err := c.NewEnv(source, info)
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

// AddToLoop adds publishers to loop.
func (e *Env) AddToLoop(loop *fx.Loop) {
	if e.Config.PublishInterval > 0 {
		loop.Interval = e.Config.PublishInterval
	}
	if e.Publisher != nil {
		loop.Add(e.Publisher)
	}
	if e.Stream != nil {
		loop.AddRunnable(fx.NamedRun("websocket", e.Stream))
	}
}
