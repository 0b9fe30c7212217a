package sps30

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/sps30.go/pkg/framework"
)

// State is the state of a Sampler.
type State int32

// Sampler states.
const (
	StateIdle State = iota
	StatePolling
	StateStopped
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Default timings.
const (
	DefaultPeriod      = time.Second
	DefaultSettleDelay = 50 * time.Millisecond
)

// Sampler polls measured values in the background and publishes samples
// into a Ring. It runs once: after Run returns, the transport is closed
// and the Sampler can't be started again.
type Sampler struct {
	Period      time.Duration
	SettleDelay time.Duration
	Logger      Logger

	bus       *bus
	ring      *Ring
	state     int32
	measuring bool
	published uint64
}

func newSampler(b *bus, ring *Ring) *Sampler {
	return &Sampler{
		Period:      DefaultPeriod,
		SettleDelay: DefaultSettleDelay,
		Logger:      GlogLogger{},
		bus:         b,
		ring:        ring,
	}
}

// Ring returns the handoff buffer.
func (s *Sampler) Ring() *Ring {
	return s.ring
}

// State returns the current state.
func (s *Sampler) State() State {
	return State(atomic.LoadInt32(&s.state))
}

// Published returns the number of samples pushed into the Ring.
func (s *Sampler) Published() uint64 {
	return atomic.LoadUint64(&s.published)
}

// Run implements Runnable.
func (s *Sampler) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.state, int32(StateIdle), int32(StatePolling)) {
		return ErrAlreadyStarted
	}
	defer atomic.StoreInt32(&s.state, int32(StateStopped))
	for {
		if err := s.cycle(ctx); err != nil && ctx.Err() == nil {
			glog.Errorf("sampling error: %v", err)
		}
		if !sleepCtx(ctx, s.Period) {
			break
		}
	}
	return s.stop()
}

func (s *Sampler) cycle(ctx context.Context) error {
	if !s.measuring {
		if err := s.start(ctx); err != nil {
			return err
		}
		s.measuring = true
	}
	return s.poll(ctx)
}

func (s *Sampler) start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.bus.send(CmdStartMeasurement, OutputFormatFloat, 0x00); err != nil {
		return err
	}
	glog.V(2).Info("measurement started")
	if !sleepCtx(ctx, s.SettleDelay) {
		return ctx.Err()
	}
	return nil
}

// poll checks data-ready until set, then reads and publishes one sample.
func (s *Sampler) poll(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ready, err := readDataReady(s.bus)
		if err != nil {
			return err
		}
		if ready {
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	resp, err := s.bus.read(CmdReadMeasuredValues, MeasuredValuesLen)
	if err != nil {
		return err
	}
	sample := ParseMeasurement(resp, s.Logger).Sample()
	if s.ring.Push(sample) {
		glog.V(3).Info("handoff buffer full, oldest sample dropped")
	}
	atomic.AddUint64(&s.published, 1)
	return nil
}

func (s *Sampler) stop() error {
	var errs fx.AggregatedError
	errs.Add(s.bus.send(CmdStopMeasurement))
	errs.Add(s.bus.close())
	s.measuring = false
	glog.V(2).Info("measurement stopped")
	return errs.Aggregate()
}

func readDataReady(b *bus) (bool, error) {
	ts, err := b.query(CmdReadDataReady, DataReadyLen)
	if err != nil {
		return false, err
	}
	return ts[0].Data[1] == 0x01, nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
