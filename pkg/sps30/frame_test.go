package sps30

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildFrame(t *testing.T) {
	testCases := []struct {
		name    string
		cmd     Command
		payload []byte
		expect  []byte
	}{
		{"no payload", CmdReadFirmwareVersion, nil, []byte{0xd1, 0x00}},
		{"stop", CmdStopMeasurement, nil, []byte{0x01, 0x04}},
		{"start float", CmdStartMeasurement, []byte{OutputFormatFloat, 0x00}, []byte{0xd0, 0x10, 0x03, 0x00, 0xac}},
		{"two blocks", CmdAutoCleanInterval, []byte{0xbe, 0xef, 0x00, 0x00},
			[]byte{0x80, 0x04, 0xbe, 0xef, 0x92, 0x00, 0x00, 0x81}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := BuildFrame(tc.cmd, tc.payload...)
			require.NoError(t, err)
			require.Equal(t, tc.expect, frame)
		})
	}
}

func TestBuildFrameOddPayload(t *testing.T) {
	_, err := BuildFrame(CmdAutoCleanInterval, 1, 2, 3)
	require.Equal(t, ErrOddPayload, err)
}

func TestParseTriplets(t *testing.T) {
	resp := []byte{
		0xbe, 0xef, 0x92,
		0x00, 0x00, 0x00,
		0x03, 0x00, 0xac,
		0x01,
	}
	ts := ParseTriplets(resp)
	require.Len(t, ts, 3)
	require.True(t, ts[0].Valid)
	require.False(t, ts[1].Valid)
	require.True(t, ts[2].Valid)
	require.Equal(t, byte(0x81), ts[1].Expected())
	require.Equal(t, 1, ts.FirstInvalid())
	require.False(t, ts.Valid())
	require.Equal(t, []byte{0xbe, 0xef, 0x00, 0x00, 0x03, 0x00}, ts.Data())

	err := ts.Check(CmdReadStatusRegister)
	require.True(t, errors.Is(err, ErrChecksumMismatch))
	var csErr *ChecksumError
	require.True(t, errors.As(err, &csErr))
	require.Equal(t, 3, csErr.Offset)
	require.Equal(t, byte(0x81), csErr.Expected)
	require.Equal(t, byte(0x00), csErr.Actual)
	require.Equal(t, CmdReadStatusRegister, csErr.Command)
}

func TestParseTripletsValid(t *testing.T) {
	ts := ParseTriplets(encodeTriplets([]byte{1, 2, 3, 4}))
	require.True(t, ts.Valid())
	require.Equal(t, -1, ts.FirstInvalid())
	require.NoError(t, ts.Check(CmdReadStatusRegister))
	require.Empty(t, ParseTriplets(nil))
}
