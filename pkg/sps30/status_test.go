package sps30

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeStatusRegister(t *testing.T) {
	s := DecodeStatusRegister(1 << 10)
	require.Equal(t, StatusSpeedFault, s.Speed)
	require.Equal(t, StatusOK, s.Laser)
	require.Equal(t, StatusOK, s.Fan)
	require.False(t, s.OK())

	s = DecodeStatusRegister(1<<StatusBitLaser | 1<<StatusBitFan)
	require.Equal(t, StatusOK, s.Speed)
	require.Equal(t, StatusLaserFault, s.Laser)
	require.Equal(t, StatusFanFault, s.Fan)

	s = DecodeStatusRegister(0)
	require.True(t, s.OK())
	require.Equal(t, "speed: ok, laser: ok, fan: ok", s.String())
}
