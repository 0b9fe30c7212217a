package sps30

import (
	"fmt"
	"sync"

	"github.com/golang/glog"
)

// Transport is the byte channel to the sensor.
// Read blocks until n bytes are available or fails.
type Transport interface {
	Write(p []byte) error
	Read(n int) ([]byte, error)
	Close() error
}

// bus runs commands over a Transport. Close is only forwarded once.
type bus struct {
	transport Transport
	closeOnce sync.Once
	closeErr  error
}

func newBus(t Transport) *bus {
	return &bus{transport: t}
}

// send writes a command without expecting response.
func (b *bus) send(cmd Command, payload ...byte) error {
	frame, err := BuildFrame(cmd, payload...)
	if err != nil {
		return err
	}
	if glog.V(4) {
		glog.Infof("WR % x", frame)
	}
	if err := b.transport.Write(frame); err != nil {
		return fmt.Errorf("command %s: write error: %w", cmd, err)
	}
	return nil
}

// read writes a command and reads n bytes as response without validation.
func (b *bus) read(cmd Command, n int) ([]byte, error) {
	if err := b.send(cmd); err != nil {
		return nil, err
	}
	resp, err := b.transport.Read(n)
	if err != nil {
		return nil, fmt.Errorf("command %s: read error: %w", cmd, err)
	}
	if glog.V(4) {
		glog.Infof("RD % x", resp)
	}
	if len(resp) < n {
		return nil, fmt.Errorf("command %s: %w: %d of %d bytes", cmd, ErrShortResponse, len(resp), n)
	}
	return resp, nil
}

// query reads the response and validates all triplets.
func (b *bus) query(cmd Command, n int) (Triplets, error) {
	resp, err := b.read(cmd, n)
	if err != nil {
		return nil, err
	}
	ts := ParseTriplets(resp)
	if err := ts.Check(cmd); err != nil {
		return nil, err
	}
	return ts, nil
}

func (b *bus) close() error {
	b.closeOnce.Do(func() {
		b.closeErr = b.transport.Close()
	})
	return b.closeErr
}
