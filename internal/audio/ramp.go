package audio

import "math"

// ExpRamp evaluates an exponential ramp from v0 to v1 over dur seconds at
// time t after the ramp starts. Before the ramp it holds v0, after it holds
// v1. Both endpoints must be non-zero and share a sign.
func ExpRamp(v0, v1, t, dur float64) float64 {
	if t <= 0 || dur <= 0 {
		if dur <= 0 && t > 0 {
			return v1
		}
		return v0
	}
	if t >= dur {
		return v1
	}
	return v0 * math.Pow(v1/v0, t/dur)
}
