package sps30

import (
	"errors"
	"fmt"
)

var (
	// ErrChecksumMismatch indicates a triplet in the response failed CRC check.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrOddPayload indicates a command payload can't be split into 2-byte blocks.
	ErrOddPayload = errors.New("payload length must be even")
	// ErrShortResponse indicates fewer bytes than expected were received.
	ErrShortResponse = errors.New("short response")
	// ErrAlreadyStarted indicates measurement is already running.
	ErrAlreadyStarted = errors.New("measurement already started")
	// ErrNotStarted indicates measurement is not running.
	ErrNotStarted = errors.New("measurement not started")
	// ErrIntervalRange indicates the auto-clean interval overflows 32-bit seconds.
	ErrIntervalRange = errors.New("auto-clean interval out of range")
)

// ChecksumError reports the triplet which failed CRC check.
type ChecksumError struct {
	Command  Command
	Offset   int
	Expected byte
	Actual   byte
}

// Error implements error.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("command %s: checksum mismatch at offset %d: expected 0x%02x, got 0x%02x",
		e.Command, e.Offset, e.Expected, e.Actual)
}

// Is allows errors.Is(err, ErrChecksumMismatch).
func (e *ChecksumError) Is(target error) bool {
	return target == ErrChecksumMismatch
}
