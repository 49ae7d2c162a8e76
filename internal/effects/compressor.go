package effects

import "math"

// Compressor is a feed-forward peak compressor. It keeps a busy mix of
// channels from slamming into the output clamp.
type Compressor struct {
	threshold float32
	ratio     float32
	attack    float32 // coefficient
	release   float32 // coefficient
	makeup    float32
	env       float32
}

// NewCompressor creates a compressor effect.
// thresholdDB: threshold in dB (e.g., -12)
// ratio: compression ratio (e.g., 4 for 4:1), at least 1
// attackMs, releaseMs: envelope follower times
// makeupDB: makeup gain in dB
func NewCompressor(sampleRate int, thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) *Compressor {
	if ratio < 1 {
		ratio = 1
	}
	return &Compressor{
		threshold: float32(math.Pow(10, float64(thresholdDB)/20)),
		ratio:     ratio,
		attack:    coefficient(sampleRate, attackMs),
		release:   coefficient(sampleRate, releaseMs),
		makeup:    float32(math.Pow(10, float64(makeupDB)/20)),
	}
}

// coefficient converts a time constant to a one-pole smoothing factor. A
// non-positive time follows the input immediately.
func coefficient(sampleRate int, ms float32) float32 {
	n := float64(ms) * float64(sampleRate) / 1000.0
	if n <= 0 {
		return 1
	}
	return float32(1.0 - math.Exp(-1.0/n))
}

func (c *Compressor) Process(s float32) float32 {
	abs := s
	if abs < 0 {
		abs = -abs
	}
	// Envelope follower
	if abs > c.env {
		c.env += c.attack * (abs - c.env)
	} else {
		c.env += c.release * (abs - c.env)
	}
	return s * c.gain() * c.makeup
}

func (c *Compressor) gain() float32 {
	if c.env <= c.threshold || c.threshold <= 0 {
		return 1.0
	}
	over := c.env / c.threshold
	return float32(math.Pow(float64(over), float64(1.0/c.ratio-1)))
}

func (c *Compressor) Reset() {
	c.env = 0
}
