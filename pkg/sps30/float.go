package sps30

import "math"

// DecodeFloat converts the big-endian word received from the sensor into
// a float, rounded to 3 decimal places.
//
// A zero exponent field is decoded with an effective exponent of 0, the
// way the sensor does, instead of as a denormal. Such values are far below
// the rounding precision so they all end up as signed zero.
func DecodeFloat(word uint32) float32 {
	if word&0x7f800000 == 0 {
		return float32(math.Copysign(0, float64(int32(word))))
	}
	return round3(math.Float32frombits(word))
}

func round3(f float32) float32 {
	if math.IsInf(float64(f), 0) || math.IsNaN(float64(f)) {
		return f
	}
	return float32(math.Round(float64(f)*1000) / 1000)
}
