package sps30

import "fmt"

// Command is the 16-bit command (register address) sent to the sensor.
type Command uint16

// Commands supported by the sensor.
const (
	CmdStartMeasurement    Command = 0xd010
	CmdStopMeasurement     Command = 0x0104
	CmdReadDataReady       Command = 0x0202
	CmdReadMeasuredValues  Command = 0x0300
	CmdSleep               Command = 0x1001
	CmdWakeUp              Command = 0x1103
	CmdStartFanCleaning    Command = 0x5607
	CmdAutoCleanInterval   Command = 0x8004
	CmdReadProductType     Command = 0xd002
	CmdReadSerialNumber    Command = 0xd033
	CmdReadFirmwareVersion Command = 0xd100
	CmdReadStatusRegister  Command = 0xd206
	CmdClearStatusRegister Command = 0xd210
	CmdReset               Command = 0xd304
)

// Response sizes in bytes.
const (
	DataReadyLen       = 3
	MeasuredValuesLen  = 60
	AutoCleanLen       = 6
	ProductTypeLen     = 12
	SerialNumberLen    = 48
	FirmwareVersionLen = 3
	StatusRegisterLen  = 6
)

// OutputFormatFloat selects IEEE-754 float output in start measurement.
const OutputFormatFloat byte = 0x03

// TripletSize is the size of the atomic framing unit.
const TripletSize = 3

// String implements fmt.Stringer.
func (c Command) String() string {
	return fmt.Sprintf("0x%04x", uint16(c))
}

// Bytes returns the big-endian command bytes.
func (c Command) Bytes() []byte {
	return []byte{byte(c >> 8), byte(c)}
}

// BuildFrame encodes a command with optional payload. Each 2-byte block of
// the payload is followed by its CRC.
func BuildFrame(cmd Command, payload ...byte) ([]byte, error) {
	if len(payload)%2 != 0 {
		return nil, ErrOddPayload
	}
	b := make([]byte, 2, 2+len(payload)/2*TripletSize)
	b[0], b[1] = byte(cmd>>8), byte(cmd)
	for i := 0; i < len(payload); i += 2 {
		b = append(b, payload[i], payload[i+1], CRC8(payload[i], payload[i+1]))
	}
	return b, nil
}

// Triplet is a decoded (data, data, crc) unit.
type Triplet struct {
	Data  [2]byte
	CRC   byte
	Valid bool
}

// Expected returns the CRC calculated from data.
func (t Triplet) Expected() byte {
	return CRC8(t.Data[0], t.Data[1])
}

// Triplets is the parsed form of a response.
type Triplets []Triplet

// ParseTriplets splits a response into triplets and validates each of them.
// Trailing bytes which don't form a full triplet are ignored.
func ParseTriplets(resp []byte) Triplets {
	ts := make(Triplets, len(resp)/TripletSize)
	for n := range ts {
		p := resp[n*TripletSize:]
		ts[n] = Triplet{
			Data:  [2]byte{p[0], p[1]},
			CRC:   p[2],
			Valid: ValidCRC(p[0], p[1], p[2]),
		}
	}
	return ts
}

// FirstInvalid returns the index of the first invalid triplet, or -1.
func (ts Triplets) FirstInvalid() int {
	for n, t := range ts {
		if !t.Valid {
			return n
		}
	}
	return -1
}

// Valid indicates all triplets passed CRC check.
func (ts Triplets) Valid() bool {
	return ts.FirstInvalid() < 0
}

// Data concatenates the data bytes of all triplets.
func (ts Triplets) Data() []byte {
	b := make([]byte, 0, len(ts)*2)
	for _, t := range ts {
		b = append(b, t.Data[0], t.Data[1])
	}
	return b
}

// Check returns a ChecksumError for the first invalid triplet.
func (ts Triplets) Check(cmd Command) error {
	if n := ts.FirstInvalid(); n >= 0 {
		return &ChecksumError{
			Command:  cmd,
			Offset:   n * TripletSize,
			Expected: ts[n].Expected(),
			Actual:   ts[n].CRC,
		}
	}
	return nil
}
