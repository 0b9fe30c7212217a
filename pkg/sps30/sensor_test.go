package sps30

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
)

var errBus = errors.New("bus error")

// testSensor simulates the sensor at byte level.
type testSensor struct {
	lock sync.Mutex

	writes     [][]byte
	pending    []byte
	closed     int
	measuring  bool
	readyEvery int
	readyCount int
	writeErrs  int
	readErrs   int
	corrupt    map[Command]int

	firmware    [2]byte
	productType string
	serial      string
	interval    uint32
	status      uint32
	values      []float32
}

func newTestSensor() *testSensor {
	return &testSensor{
		readyEvery:  1,
		corrupt:     make(map[Command]int),
		firmware:    [2]byte{2, 2},
		productType: "00080000",
		serial:      "8F8B3A9E1C8E4E5B",
		interval:    4 * SecondsPerDay,
		values:      testValues,
	}
}

var testValues = []float32{
	1.5, 2.25, 3, 4.75,
	10.5, 11.25, 12, 13.5, 14,
	0.625,
}

func encodeTriplets(data []byte) []byte {
	frame, err := BuildFrame(0, data...)
	if err != nil {
		panic(err)
	}
	return frame[2:]
}

func encodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return encodeTriplets(b)
}

func encodeFloats(vals ...float32) []byte {
	var b []byte
	for _, v := range vals {
		b = append(b, encodeUint32(math.Float32bits(v))...)
	}
	return b
}

func encodeString(str string, size int) []byte {
	b := make([]byte, size)
	copy(b, str)
	return encodeTriplets(b)
}

func (s *testSensor) Write(p []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.writeErrs > 0 {
		s.writeErrs--
		return errBus
	}
	if len(p) < 2 {
		return fmt.Errorf("bad frame % x", p)
	}
	cmd := Command(binary.BigEndian.Uint16(p))
	// data-ready is polled without delay, keep it out of the log.
	if cmd != CmdReadDataReady {
		s.writes = append(s.writes, append([]byte(nil), p...))
	}
	s.pending = nil
	switch cmd {
	case CmdStartMeasurement:
		s.measuring = true
	case CmdStopMeasurement:
		s.measuring = false
	case CmdReadDataReady:
		s.readyCount++
		var ready byte
		if s.measuring && s.readyEvery > 0 && s.readyCount%s.readyEvery == 0 {
			ready = 1
		}
		s.pending = encodeTriplets([]byte{0, ready})
	case CmdReadMeasuredValues:
		s.pending = encodeFloats(s.values...)
	case CmdAutoCleanInterval:
		if len(p) == 8 {
			s.interval = binary.BigEndian.Uint32([]byte{p[2], p[3], p[5], p[6]})
		} else {
			s.pending = encodeUint32(s.interval)
		}
	case CmdReadProductType:
		s.pending = encodeString(s.productType, 8)
	case CmdReadSerialNumber:
		s.pending = encodeString(s.serial, 32)
	case CmdReadFirmwareVersion:
		s.pending = encodeTriplets(s.firmware[:])
	case CmdReadStatusRegister:
		s.pending = encodeUint32(s.status)
	case CmdClearStatusRegister:
		s.status = 0
	}
	if off, ok := s.corrupt[cmd]; ok && off < len(s.pending) {
		s.pending[off] ^= 0xff
	}
	return nil
}

func (s *testSensor) Read(n int) ([]byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.readErrs > 0 {
		s.readErrs--
		return nil, errBus
	}
	resp := s.pending
	s.pending = nil
	if len(resp) > n {
		resp = resp[:n]
	}
	return resp, nil
}

func (s *testSensor) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.closed++
	return nil
}

func (s *testSensor) lastWrite() []byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(s.writes) == 0 {
		return nil
	}
	return s.writes[len(s.writes)-1]
}

func (s *testSensor) firstWrite() []byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(s.writes) == 0 {
		return nil
	}
	return s.writes[0]
}

func (s *testSensor) closeCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.closed
}

func (s *testSensor) wrote(cmd Command) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	var count int
	for _, w := range s.writes {
		if Command(binary.BigEndian.Uint16(w)) == cmd {
			count++
		}
	}
	return count
}

func (s *testSensor) update(fn func(*testSensor)) {
	s.lock.Lock()
	defer s.lock.Unlock()
	fn(s)
}

type testLogger struct {
	lock     sync.Mutex
	messages []string
}

func (l *testLogger) Warningf(format string, args ...interface{}) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.messages = append(l.messages, fmt.Sprintf(format, args...))
}
