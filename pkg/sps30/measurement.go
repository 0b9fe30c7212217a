package sps30

import (
	"encoding/binary"
	"encoding/json"
	"time"
)

// Units of measured values.
const (
	MassDensityUnit   = "ug/m3"
	ParticleCountUnit = "#/cm3"
	ParticleSizeUnit  = "um"
)

// MassDensity contains mass concentrations in ug/m3.
type MassDensity struct {
	PM1_0 float32
	PM2_5 float32
	PM4_0 float32
	PM10  float32
}

// ParticleCount contains number concentrations in #/cm3.
type ParticleCount struct {
	PM0_5 float32
	PM1_0 float32
	PM2_5 float32
	PM4_0 float32
	PM10  float32
}

// Sample is a complete measurement. The zero value is the empty sample.
type Sample struct {
	MassDensity   MassDensity
	ParticleCount ParticleCount
	ParticleSize  float32
	Timestamp     time.Time
}

// IsEmpty indicates no measurement is contained.
func (s Sample) IsEmpty() bool {
	return s.Timestamp.IsZero()
}

// Map returns the consumer facing representation. Empty sample gives nil.
func (s Sample) Map() map[string]interface{} {
	if s.IsEmpty() {
		return nil
	}
	md, pc := s.MassDensity, s.ParticleCount
	return map[string]interface{}{
		"mass_density": map[string]interface{}{
			"pm1.0": md.PM1_0,
			"pm2.5": md.PM2_5,
			"pm4.0": md.PM4_0,
			"pm10":  md.PM10,
		},
		"particle_count": map[string]interface{}{
			"pm0.5": pc.PM0_5,
			"pm1.0": pc.PM1_0,
			"pm2.5": pc.PM2_5,
			"pm4.0": pc.PM4_0,
			"pm10":  pc.PM10,
		},
		"particle_size":       s.ParticleSize,
		"mass_density_unit":   MassDensityUnit,
		"particle_count_unit": ParticleCountUnit,
		"particle_size_unit":  ParticleSizeUnit,
		"timestamp":           s.Timestamp.Unix(),
	}
}

// MarshalJSON implements json.Marshaler.
func (s Sample) MarshalJSON() ([]byte, error) {
	m := s.Map()
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Measurement is the result of parsing a measured values response.
// Each sub-block carries its own validity.
type Measurement struct {
	MassDensity        MassDensity
	MassDensityValid   bool
	ParticleCount      ParticleCount
	ParticleCountValid bool
	ParticleSize       float32
	ParticleSizeValid  bool
	Timestamp          time.Time
}

// Complete indicates all sub-blocks are valid.
func (m *Measurement) Complete() bool {
	return m.MassDensityValid && m.ParticleCountValid && m.ParticleSizeValid
}

// Sample returns the sample if complete, otherwise the empty sample.
func (m *Measurement) Sample() Sample {
	if !m.Complete() {
		return Sample{}
	}
	return Sample{
		MassDensity:   m.MassDensity,
		ParticleCount: m.ParticleCount,
		ParticleSize:  m.ParticleSize,
		Timestamp:     m.Timestamp,
	}
}

const fieldSize = 2 * TripletSize

type subBlock struct {
	name   string
	fields []string
}

var (
	massDensityBlock   = subBlock{"mass_density", []string{"pm1.0", "pm2.5", "pm4.0", "pm10"}}
	particleCountBlock = subBlock{"particle_count", []string{"pm0.5", "pm1.0", "pm2.5", "pm4.0", "pm10"}}
	particleSizeBlock  = subBlock{"particle_size", []string{"typical"}}
)

func (b subBlock) size() int {
	return len(b.fields) * fieldSize
}

// decode decodes all fields of the sub-block, or nothing if any triplet
// fails the check.
func (b subBlock) decode(resp []byte, log Logger) ([]float32, bool) {
	if len(resp) < b.size() {
		log.Warningf("%s: short response, %d of %d bytes", b.name, len(resp), b.size())
		return nil, false
	}
	vals := make([]float32, len(b.fields))
	for n, field := range b.fields {
		ts := ParseTriplets(resp[n*fieldSize : (n+1)*fieldSize])
		if i := ts.FirstInvalid(); i >= 0 {
			log.Warningf("%s.%s: checksum mismatch in triplet %d: expected 0x%02x, got 0x%02x",
				b.name, field, i, ts[i].Expected(), ts[i].CRC)
			return nil, false
		}
		vals[n] = DecodeFloat(binary.BigEndian.Uint32(ts.Data()))
	}
	return vals, true
}

// ParseMeasurement parses the response of CmdReadMeasuredValues.
func ParseMeasurement(resp []byte, log Logger) *Measurement {
	if log == nil {
		log = GlogLogger{}
	}
	m := &Measurement{Timestamp: time.Now()}
	offset := 0
	next := func(b subBlock) []byte {
		start := offset
		offset += b.size()
		if start >= len(resp) {
			return nil
		}
		if offset > len(resp) {
			return resp[start:]
		}
		return resp[start:offset]
	}

	if vals, ok := massDensityBlock.decode(next(massDensityBlock), log); ok {
		m.MassDensity = MassDensity{PM1_0: vals[0], PM2_5: vals[1], PM4_0: vals[2], PM10: vals[3]}
		m.MassDensityValid = true
	}
	if vals, ok := particleCountBlock.decode(next(particleCountBlock), log); ok {
		m.ParticleCount = ParticleCount{PM0_5: vals[0], PM1_0: vals[1], PM2_5: vals[2], PM4_0: vals[3], PM10: vals[4]}
		m.ParticleCountValid = true
	}
	if vals, ok := particleSizeBlock.decode(next(particleSizeBlock), log); ok {
		m.ParticleSize = vals[0]
		m.ParticleSizeValid = true
	}
	return m
}
