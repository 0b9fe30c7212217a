package sps30

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

func newTestDriver(sensor *testSensor) *Driver {
	d := New(sensor)
	d.Period, d.SettleDelay = time.Millisecond, 0
	d.Logger = &testLogger{}
	return d
}

func TestSamplerPublishes(t *testing.T) {
	sensor := newTestSensor()
	sensor.readyEvery = 3
	d := newTestDriver(sensor)

	require.True(t, d.GetMeasurement().IsEmpty())
	require.NoError(t, d.StartMeasurement(context.Background()))
	require.Eventually(t, func() bool {
		return !d.GetMeasurement().IsEmpty()
	}, waitTimeout, time.Millisecond)

	s := d.GetMeasurement()
	require.Equal(t, MassDensity{PM1_0: 1.5, PM2_5: 2.25, PM4_0: 3, PM10: 4.75}, s.MassDensity)
	require.Equal(t, float32(0.625), s.ParticleSize)
	require.Equal(t, StatePolling, d.Sampler().State())
	require.Equal(t, 1, sensor.wrote(CmdStartMeasurement))
	require.Equal(t, encodeFrame(CmdStartMeasurement, 0x03, 0x00), sensor.firstWrite())

	sampler := d.Sampler()
	require.NoError(t, d.StopMeasurement())
	require.Equal(t, StateStopped, sampler.State())
	require.Equal(t, []byte{0x01, 0x04}, sensor.lastWrite())
	require.Equal(t, 1, sensor.closeCount())
	require.Nil(t, d.Sampler())
	require.True(t, d.GetMeasurement().IsEmpty())
}

func TestSamplerLatestIsStable(t *testing.T) {
	sensor := newTestSensor()
	ring := NewRing(RingDepth)
	s := newSampler(newBus(sensor), ring)
	s.Period, s.SettleDelay = time.Hour, 0

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()
	require.Eventually(t, func() bool {
		return s.Published() == 1
	}, waitTimeout, time.Millisecond)
	first := ring.Latest()
	require.False(t, first.IsEmpty())
	require.Equal(t, first, ring.Latest())
	require.Equal(t, 1, ring.Len())

	cancel()
	require.NoError(t, <-errCh)
	require.Equal(t, StateStopped, s.State())
	require.Equal(t, 1, sensor.wrote(CmdStopMeasurement))
}

func TestSamplerPollsNotReadyWithoutPeriod(t *testing.T) {
	sensor := newTestSensor()
	sensor.readyEvery = 3
	ring := NewRing(RingDepth)
	s := newSampler(newBus(sensor), ring)
	s.Period, s.SettleDelay, s.Logger = time.Hour, 0, &testLogger{}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()
	require.Eventually(t, func() bool {
		return s.Published() == 1
	}, waitTimeout, time.Millisecond)
	require.False(t, ring.Latest().IsEmpty())
	sensor.update(func(ts *testSensor) {
		require.Equal(t, 3, ts.readyCount)
	})

	cancel()
	require.NoError(t, <-errCh)
}

func TestSamplerRecoversFromTransportError(t *testing.T) {
	sensor := newTestSensor()
	sensor.writeErrs = 2
	d := newTestDriver(sensor)

	require.NoError(t, d.StartMeasurement(context.Background()))
	require.Eventually(t, func() bool {
		return !d.GetMeasurement().IsEmpty()
	}, waitTimeout, time.Millisecond)

	sensor.update(func(s *testSensor) { s.readErrs = 3 })
	before := d.Sampler().Published()
	require.Eventually(t, func() bool {
		return d.Sampler().Published() > before+2
	}, waitTimeout, time.Millisecond)
	require.NoError(t, d.StopMeasurement())
}

func TestSamplerPublishesEmptyOnPartialFailure(t *testing.T) {
	sensor := newTestSensor()
	sensor.corrupt[CmdReadMeasuredValues] = 24 + 2
	d := newTestDriver(sensor)
	log := &testLogger{}
	d.Logger = log

	require.NoError(t, d.StartMeasurement(context.Background()))
	require.Eventually(t, func() bool {
		return d.Sampler().Published() > 0
	}, waitTimeout, time.Millisecond)
	require.True(t, d.GetMeasurement().IsEmpty())
	require.NoError(t, d.StopMeasurement())
	require.NotEmpty(t, log.messages)
	require.Contains(t, log.messages[0], "particle_count.pm0.5")
}

func TestSamplerStopsOnCancel(t *testing.T) {
	sensor := newTestSensor()
	sensor.readyEvery = 0
	d := newTestDriver(sensor)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.StartMeasurement(ctx))
	sampler := d.Sampler()
	require.Eventually(t, func() bool {
		return sensor.wrote(CmdStartMeasurement) == 1
	}, waitTimeout, time.Millisecond)
	cancel()
	require.Eventually(t, func() bool {
		return sampler.State() == StateStopped
	}, waitTimeout, time.Millisecond)
	require.Equal(t, []byte{0x01, 0x04}, sensor.lastWrite())
	require.Equal(t, 1, sensor.closeCount())
	require.Zero(t, sampler.Published())
	require.NoError(t, d.StopMeasurement())
	require.Equal(t, 1, sensor.closeCount())
}

func TestSamplerRunsOnce(t *testing.T) {
	sensor := newTestSensor()
	s := newSampler(newBus(sensor), NewRing(RingDepth))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.Run(ctx))
	require.Equal(t, StateStopped, s.State())
	require.Equal(t, ErrAlreadyStarted, s.Run(context.Background()))
	require.Equal(t, 0, sensor.wrote(CmdStartMeasurement))
	require.Equal(t, 1, sensor.wrote(CmdStopMeasurement))
}
