// Package i2c provides the I2C Transport for the sensor using periph.
package i2c

import (
	"fmt"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// DefaultAddress is the fixed I2C address of the sensor.
const DefaultAddress uint16 = 0x69

// Transport reads/writes raw bytes to a device on an I2C bus.
type Transport struct {
	Dev *i2c.Dev

	closer i2c.BusCloser
}

// New wraps an opened bus.
func New(bus i2c.Bus, addr uint16) *Transport {
	return &Transport{Dev: &i2c.Dev{Bus: bus, Addr: addr}}
}

// Open initializes host drivers and opens the named bus. An empty name
// opens the first available bus.
func Open(busName string, addr uint16) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init error: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open I2C bus %q error: %w", busName, err)
	}
	glog.V(1).Infof("opened I2C bus %s, device 0x%02x", bus, addr)
	t := New(bus, addr)
	t.closer = bus
	return t, nil
}

// Write implements sps30.Transport.
func (t *Transport) Write(p []byte) error {
	return t.Dev.Tx(p, nil)
}

// Read implements sps30.Transport.
func (t *Transport) Read(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := t.Dev.Tx(nil, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close implements sps30.Transport. Only a bus opened by Open is closed.
func (t *Transport) Close() error {
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}
