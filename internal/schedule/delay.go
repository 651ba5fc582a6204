package schedule

import (
	"math/rand/v2"
	"time"
)

// Profile bounds the artificial latency of one kind of character event.
type Profile struct {
	Min    time.Duration
	Max    time.Duration
	Jitter time.Duration
}

// CalculateDelay interpolates between max (trust 0) and min (trust 100),
// adds jitter and clamps the result to [min, max].
func CalculateDelay(trust float64, min, max, jitter time.Duration) time.Duration {
	if max < min {
		min, max = max, min
	}
	trust = clamp(trust, 0, 100)

	span := float64(max - min)
	delay := float64(max) - trust/100*span + float64(jitter)
	return time.Duration(clamp(delay, float64(min), float64(max)))
}

// Compute draws a jitter uniformly from [-Jitter/2, +Jitter/2] and returns
// the resulting delay for the given trust.
func (p Profile) Compute(trust float64, rng *rand.Rand) time.Duration {
	var jitter time.Duration
	if p.Jitter > 0 && rng != nil {
		jitter = time.Duration((rng.Float64() - 0.5) * float64(p.Jitter))
	}
	return CalculateDelay(trust, p.Min, p.Max, jitter)
}

// Scale multiplies every bound of the profile. A zero factor makes every
// delay instant.
func (p Profile) Scale(factor float64) Profile {
	if factor < 0 {
		factor = 0
	}
	return Profile{
		Min:    time.Duration(float64(p.Min) * factor),
		Max:    time.Duration(float64(p.Max) * factor),
		Jitter: time.Duration(float64(p.Jitter) * factor),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
