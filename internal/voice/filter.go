package voice

import "math"

// biquad is a direct form I second-order filter with RBJ cookbook
// coefficients normalised by a0.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

// bandpass has constant 0 dB peak gain at freq.
func bandpass(freq, q, sampleRate float64) *biquad {
	w0 := 2 * math.Pi * freq / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cos := math.Cos(w0)
	a0 := 1 + alpha
	return &biquad{
		b0: alpha / a0,
		b1: 0,
		b2: -alpha / a0,
		a1: -2 * cos / a0,
		a2: (1 - alpha) / a0,
	}
}

// highpass takes its resonance in dB at the cutoff.
func highpass(freq, resonanceDB, sampleRate float64) *biquad {
	w0 := 2 * math.Pi * freq / sampleRate
	q := math.Pow(10, resonanceDB/20)
	alpha := math.Sin(w0) / (2 * q)
	cos := math.Cos(w0)
	a0 := 1 + alpha
	return &biquad{
		b0: (1 + cos) / 2 / a0,
		b1: -(1 + cos) / a0,
		b2: (1 + cos) / 2 / a0,
		a1: -2 * cos / a0,
		a2: (1 - alpha) / a0,
	}
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// response returns the filter's magnitude at freq.
func (f *biquad) response(freq, sampleRate float64) float64 {
	w := 2 * math.Pi * freq / sampleRate
	z1 := complex(math.Cos(-w), math.Sin(-w))
	z2 := z1 * z1
	num := complex(f.b0, 0) + complex(f.b1, 0)*z1 + complex(f.b2, 0)*z2
	den := 1 + complex(f.a1, 0)*z1 + complex(f.a2, 0)*z2
	r := num / den
	return math.Hypot(real(r), imag(r))
}
