// Package mixer sums the channels of a Source into mono PCM.
package mixer

import (
	"errors"
	"fmt"
)

// DefaultBlockSize is the number of frames the audio callback asks for.
const DefaultBlockSize = 512

// Source renders channels. Render writes len(dst) samples for channel ch and
// reports false, leaving dst untouched, when the channel is idle.
type Source interface {
	Len() int
	Render(ch int, dst []float32) bool
}

// Processor transforms the mixed signal one sample at a time.
type Processor interface {
	Process(s float32) float32
}

type Option func(*Mixer)

// WithProcessor installs a master-bus processor that runs on the summed
// signal before clamping. It runs on the audio goroutine.
func WithProcessor(p Processor) Option {
	return func(m *Mixer) {
		m.bus = p
	}
}

type Mixer struct {
	src      Source
	maxBlock int
	scratch  []float32
	sum      []float32
	bus      Processor
}

// New allocates every buffer the mixer will ever use. Process never
// allocates.
func New(src Source, maxBlock int, opts ...Option) (*Mixer, error) {
	if src == nil {
		return nil, errors.New("mixer: nil source")
	}
	if maxBlock < 1 {
		return nil, fmt.Errorf("mixer: block size %d must be positive", maxBlock)
	}
	m := &Mixer{
		src:      src,
		maxBlock: maxBlock,
		scratch:  make([]float32, maxBlock),
		sum:      make([]float32, maxBlock),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

func (m *Mixer) BlockSize() int { return m.maxBlock }

// Process fills dst with mixed 16-bit samples. dst may be any length; it is
// rendered in chunks of at most BlockSize frames.
func (m *Mixer) Process(dst []int16) {
	for len(dst) > 0 {
		n := min(len(dst), m.maxBlock)
		mixed := m.mix(n)
		for i, s := range mixed {
			dst[i] = ToPCM16(s)
		}
		dst = dst[n:]
	}
}

// ProcessFloat is Process without the integer conversion. Samples are
// clamped to [-1, 1].
func (m *Mixer) ProcessFloat(dst []float32) {
	for len(dst) > 0 {
		n := min(len(dst), m.maxBlock)
		copy(dst, m.mix(n))
		dst = dst[n:]
	}
}

func (m *Mixer) mix(n int) []float32 {
	sum := m.sum[:n]
	scratch := m.scratch[:n]
	clear(sum)
	for ch := 0; ch < m.src.Len(); ch++ {
		if !m.src.Render(ch, scratch) {
			continue
		}
		for i, s := range scratch {
			sum[i] += s
		}
	}
	if m.bus != nil {
		for i, s := range sum {
			sum[i] = m.bus.Process(s)
		}
	}
	for i, s := range sum {
		sum[i] = clamp(s)
	}
	return sum
}

// ToPCM16 converts a sample in [-1, 1] to a signed 16-bit value.
func ToPCM16(s float32) int16 {
	return int16(clamp(s) * 32767)
}

func clamp(s float32) float32 {
	if s != s {
		return 0
	}
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
