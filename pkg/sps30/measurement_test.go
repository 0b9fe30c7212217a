package sps30

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseMeasurement(t *testing.T) {
	var log testLogger
	m := ParseMeasurement(encodeFloats(testValues...), &log)
	require.True(t, m.MassDensityValid)
	require.True(t, m.ParticleCountValid)
	require.True(t, m.ParticleSizeValid)
	require.True(t, m.Complete())
	require.Empty(t, log.messages)

	s := m.Sample()
	require.False(t, s.IsEmpty())
	require.Equal(t, MassDensity{PM1_0: 1.5, PM2_5: 2.25, PM4_0: 3, PM10: 4.75}, s.MassDensity)
	require.Equal(t, ParticleCount{PM0_5: 10.5, PM1_0: 11.25, PM2_5: 12, PM4_0: 13.5, PM10: 14}, s.ParticleCount)
	require.Equal(t, float32(0.625), s.ParticleSize)
}

func TestParseMeasurementCorruptParticleCount(t *testing.T) {
	var log testLogger
	resp := encodeFloats(testValues...)
	// CRC of first triplet of particle_count.pm2.5
	resp[24+2*6+2] ^= 0x5a
	m := ParseMeasurement(resp, &log)
	require.True(t, m.MassDensityValid)
	require.False(t, m.ParticleCountValid)
	require.True(t, m.ParticleSizeValid)
	require.False(t, m.Complete())
	require.Equal(t, MassDensity{PM1_0: 1.5, PM2_5: 2.25, PM4_0: 3, PM10: 4.75}, m.MassDensity)
	require.Equal(t, ParticleCount{}, m.ParticleCount)
	require.Equal(t, float32(0.625), m.ParticleSize)
	require.True(t, m.Sample().IsEmpty())

	require.Len(t, log.messages, 1)
	require.Contains(t, log.messages[0], "particle_count.pm2.5")
	require.Contains(t, log.messages[0], "checksum mismatch")
}

func TestParseMeasurementShort(t *testing.T) {
	var log testLogger
	m := ParseMeasurement(encodeFloats(testValues...)[:30], &log)
	require.True(t, m.MassDensityValid)
	require.False(t, m.ParticleCountValid)
	require.False(t, m.ParticleSizeValid)
	require.Len(t, log.messages, 2)
}

func TestSampleMap(t *testing.T) {
	require.Nil(t, Sample{}.Map())
	out, err := json.Marshal(Sample{})
	require.NoError(t, err)
	require.Equal(t, "{}", string(out))

	s := ParseMeasurement(encodeFloats(testValues...), &testLogger{}).Sample()
	s.Timestamp = time.Unix(1700000000, 0)
	m := s.Map()
	require.Equal(t, int64(1700000000), m["timestamp"])
	require.Equal(t, "ug/m3", m["mass_density_unit"])
	require.Equal(t, "#/cm3", m["particle_count_unit"])
	require.Equal(t, "um", m["particle_size_unit"])
	require.Equal(t, float32(2.25), m["mass_density"].(map[string]interface{})["pm2.5"])
	require.Equal(t, float32(10.5), m["particle_count"].(map[string]interface{})["pm0.5"])
	require.Equal(t, float32(0.625), m["particle_size"])

	out, err = json.Marshal(s)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Equal(t, 4.75, decoded["mass_density"].(map[string]interface{})["pm10"])
}
