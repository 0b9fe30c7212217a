package sps30

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	fx "github.com/robotalks/sps30.go/pkg/framework"
)

// SecondsPerDay converts auto-clean interval days into seconds.
const SecondsPerDay = 86400

// Driver talks to one sensor over a Transport.
// Command methods must not be called while measurement is started.
type Driver struct {
	Period      time.Duration
	SettleDelay time.Duration
	RingDepth   int
	Logger      Logger

	bus     *bus
	sampler *Sampler
	runner  *fx.Runner
	lock    sync.Mutex
}

// New creates a Driver owning the Transport.
func New(t Transport) *Driver {
	return &Driver{
		Period:      DefaultPeriod,
		SettleDelay: DefaultSettleDelay,
		RingDepth:   RingDepth,
		Logger:      GlogLogger{},
		bus:         newBus(t),
	}
}

// FirmwareVersion reads firmware version as "major.minor".
func (d *Driver) FirmwareVersion() (string, error) {
	ts, err := d.bus.query(CmdReadFirmwareVersion, FirmwareVersionLen)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d.%d", ts[0].Data[0], ts[0].Data[1]), nil
}

// ProductType reads the product type string.
func (d *Driver) ProductType() (string, error) {
	return d.readString(CmdReadProductType, ProductTypeLen)
}

// SerialNumber reads the serial number string.
func (d *Driver) SerialNumber() (string, error) {
	return d.readString(CmdReadSerialNumber, SerialNumberLen)
}

func (d *Driver) readString(cmd Command, n int) (string, error) {
	ts, err := d.bus.query(cmd, n)
	if err != nil {
		return "", err
	}
	str := ts.Data()
	if pos := bytes.IndexByte(str, 0); pos >= 0 {
		str = str[:pos]
	}
	return string(str), nil
}

func (d *Driver) readUint32(cmd Command, n int) (uint32, error) {
	ts, err := d.bus.query(cmd, n)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(ts.Data()), nil
}

// ReadStatusRegister reads and decodes the status register.
func (d *Driver) ReadStatusRegister() (StatusRegister, error) {
	raw, err := d.readUint32(CmdReadStatusRegister, StatusRegisterLen)
	if err != nil {
		return StatusRegister{}, err
	}
	return DecodeStatusRegister(raw), nil
}

// ClearStatusRegister clears the status register.
func (d *Driver) ClearStatusRegister() error {
	return d.bus.send(CmdClearStatusRegister)
}

// AutoCleanInterval reads the auto-clean interval in seconds.
func (d *Driver) AutoCleanInterval() (uint32, error) {
	return d.readUint32(CmdAutoCleanInterval, AutoCleanLen)
}

// MaxAutoCleanDays is the longest interval in days which fits in 32-bit seconds.
const MaxAutoCleanDays = math.MaxUint32 / SecondsPerDay

// SetAutoCleanInterval sets the auto-clean interval in days.
func (d *Driver) SetAutoCleanInterval(days uint32) error {
	if days > MaxAutoCleanDays {
		return fmt.Errorf("%d days: %w", days, ErrIntervalRange)
	}
	payload := make([]byte, 4)
	binary.BigEndian.PutUint32(payload, days*SecondsPerDay)
	return d.bus.send(CmdAutoCleanInterval, payload...)
}

// StartFanCleaning starts fan cleaning manually.
func (d *Driver) StartFanCleaning() error {
	return d.bus.send(CmdStartFanCleaning)
}

// Sleep puts the sensor into sleep mode.
func (d *Driver) Sleep() error {
	return d.bus.send(CmdSleep)
}

// WakeUp wakes the sensor from sleep mode.
func (d *Driver) WakeUp() error {
	return d.bus.send(CmdWakeUp)
}

// Reset performs a device reset.
func (d *Driver) Reset() error {
	return d.bus.send(CmdReset)
}

// DataReady reads the data-ready flag.
func (d *Driver) DataReady() (bool, error) {
	return readDataReady(d.bus)
}

// StartMeasurement starts sampling in the background. Sampling stops when
// ctx is canceled or StopMeasurement is called.
func (d *Driver) StartMeasurement(ctx context.Context) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.sampler != nil {
		return ErrAlreadyStarted
	}
	s := newSampler(d.bus, NewRing(d.RingDepth))
	s.Period, s.SettleDelay, s.Logger = d.Period, d.SettleDelay, d.Logger
	d.sampler = s
	d.runner = fx.NewRunnerWith(ctx).Go(fx.NamedRun("sps30-sampler", s))
	return nil
}

// Sampler returns the running Sampler, or nil.
func (d *Driver) Sampler() *Sampler {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.sampler
}

// GetMeasurement returns the latest sample without waiting. The empty
// sample is returned if nothing has been published.
func (d *Driver) GetMeasurement() Sample {
	if s := d.Sampler(); s != nil {
		return s.Ring().Latest()
	}
	return Sample{}
}

// StopMeasurement stops sampling, and waits until the stop command is sent
// and the transport is closed. The sampler is detached first so
// GetMeasurement never waits on the bus.
func (d *Driver) StopMeasurement() error {
	d.lock.Lock()
	runner := d.runner
	if d.sampler == nil {
		d.lock.Unlock()
		return ErrNotStarted
	}
	d.sampler, d.runner = nil, nil
	d.lock.Unlock()
	return runner.Stop()
}

// Close stops measurement if started and releases the transport.
func (d *Driver) Close() error {
	if err := d.StopMeasurement(); err != ErrNotStarted {
		return err
	}
	return d.bus.close()
}
