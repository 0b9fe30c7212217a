package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/sps30.go/pkg/framework"
	"github.com/robotalks/sps30.go/pkg/sps30"
)

// Sink delivers payloads to topics.
type Sink interface {
	Publish(topic string, payload []byte, retain bool) error
}

// SampleSource provides the latest sample.
type SampleSource interface {
	GetMeasurement() sps30.Sample
}

// DeviceInfo is published retained on the meta topic.
type DeviceInfo struct {
	ID              string `json:"id"`
	FirmwareVersion string `json:"firmware_version,omitempty"`
	ProductType     string `json:"product_type,omitempty"`
	SerialNumber    string `json:"serial_number,omitempty"`
	Format          Format `json:"format"`
}

// Topic names under <prefix><device-id>/.
const (
	TopicSample = "sample"
	TopicMeta   = "meta"
)

// Publisher publishes new samples from a SampleSource on every loop
// iteration. A sample is published once.
type Publisher struct {
	Sink   Sink
	Source SampleSource
	Info   DeviceInfo

	queue *Queue
	last  time.Time
}

// NewPublisher creates a Publisher connecting to an MQTT broker.
// The meta topic is cleared by the will when the connection is lost.
func NewPublisher(brokerURL string, source SampleSource, info DeviceInfo) (*Publisher, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+info.ID+"/"+TopicMeta, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("sps30:" + info.ID)
	}
	p := &Publisher{Source: source, Info: info}
	p.queue = NewQueue(opts, topicPrefix)
	p.queue.OnConnect = func(*Queue) { p.publishMeta() }
	p.Sink = p.queue
	return p, nil
}

// Topic returns the full topic of kind, without prefix.
func (p *Publisher) Topic(kind string) string {
	return p.Info.ID + "/" + kind
}

// AddToLoop implements LoopAdder. As a Runnable, it's also started by the loop.
func (p *Publisher) AddToLoop(loop *fx.Loop) {
	loop.AddController(p)
}

// Run implements Runnable. It keeps the broker connection till ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	if p.queue == nil {
		<-ctx.Done()
		return nil
	}
	if err := p.queue.Connect(); err != nil {
		glog.Errorf("MQTT connect error: %v", err)
	}
	<-ctx.Done()
	if err := p.Sink.Publish(p.Topic(TopicMeta), nil, true); err != nil {
		glog.Warningf("clear meta error: %v", err)
	}
	return p.queue.Close()
}

// Control implements Controller.
func (p *Publisher) Control(cc fx.ControlContext) error {
	s := p.Source.GetMeasurement()
	if s.IsEmpty() || !s.Timestamp.After(p.last) {
		return nil
	}
	payload, err := EncodeSample(s, p.Info.Format)
	if err != nil {
		return err
	}
	if err := p.Sink.Publish(p.Topic(TopicSample), payload, false); err != nil {
		return err
	}
	p.last = s.Timestamp
	return nil
}

func (p *Publisher) publishMeta() {
	meta, err := json.Marshal(&p.Info)
	if err != nil {
		panic(err)
	}
	if err := p.Sink.Publish(p.Topic(TopicMeta), meta, true); err != nil {
		glog.Warningf("publish meta error: %v", err)
	}
}
