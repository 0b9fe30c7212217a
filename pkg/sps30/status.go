package sps30

import "fmt"

// Status register bits.
const (
	StatusBitFan   = 4
	StatusBitLaser = 5
	StatusBitSpeed = 10
)

// StatusOK is reported for a flag which is clear.
const StatusOK = "ok"

// Fault descriptions.
const (
	StatusSpeedFault = "fan speed out of range"
	StatusLaserFault = "laser current out of range"
	StatusFanFault   = "fan failure, fan is mechanically blocked or broken"
)

// StatusRegister is the decoded device status register.
type StatusRegister struct {
	Raw   uint32
	Speed string
	Laser string
	Fan   string
}

// DecodeStatusRegister extracts the fault flags from the raw register.
func DecodeStatusRegister(raw uint32) StatusRegister {
	flag := func(bit uint, fault string) string {
		if raw&(1<<bit) != 0 {
			return fault
		}
		return StatusOK
	}
	return StatusRegister{
		Raw:   raw,
		Speed: flag(StatusBitSpeed, StatusSpeedFault),
		Laser: flag(StatusBitLaser, StatusLaserFault),
		Fan:   flag(StatusBitFan, StatusFanFault),
	}
}

// OK indicates no fault flag is set.
func (s StatusRegister) OK() bool {
	return s.Speed == StatusOK && s.Laser == StatusOK && s.Fan == StatusOK
}

// String implements fmt.Stringer.
func (s StatusRegister) String() string {
	return fmt.Sprintf("speed: %s, laser: %s, fan: %s", s.Speed, s.Laser, s.Fan)
}
