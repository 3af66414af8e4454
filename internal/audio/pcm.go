package audio

import "encoding/binary"

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	putSamples(buf, samples)
	return buf
}

func putSamples(dst []byte, samples []int16) {
	for i, s := range samples {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(s))
	}
}

// Clip16 converts a float sample in [-1, 1] to int16, clipping overs.
func Clip16(v float64) int16 {
	mixed := v * 32767
	if mixed > 32767 {
		mixed = 32767
	} else if mixed < -32768 {
		mixed = -32768
	}
	return int16(mixed)
}
