// Package pool holds a fixed set of sfxd channels shared between a control
// goroutine (the sequencer) and the audio goroutine (the mixer).
//
// The control side owns each channel's params. Play publishes an immutable
// copy through an atomic pointer; the audio side swaps it out at the next
// block boundary and hard-resets the voice from it. No lock is taken and
// nothing is allocated on the audio side.
package pool

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/cbegin/arcadesfx/internal/sfxd"
)

// MaxChannels bounds the number of channels a pool can hold.
const MaxChannels = 12

var ErrChannelCount = errors.New("pool: channel count out of range")

type Option func(*options)

type options struct {
	seed      int64
	masterVol float32
	logger    *log.Logger
}

// WithSeed seeds the mutation RNG. Channel noise generators are seeded with
// seed+channel.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

func WithMasterVolume(v float32) Option {
	return func(o *options) {
		o.masterVol = v
	}
}

// WithLogger routes diagnostics for rejected calls. A nil logger discards.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

type slot struct {
	params  sfxd.Params // control side
	pending atomic.Pointer[sfxd.Params]
	playing atomic.Bool
	voice   sfxd.Voice // audio side
}

type Pool struct {
	slots     []slot
	rng       *rand.Rand
	masterVol atomic.Uint32
	logger    *log.Logger
}

// New returns a pool of n idle channels, each loaded with sfxd.DefaultParams.
func New(n int, opts ...Option) (*Pool, error) {
	if n < 1 || n > MaxChannels {
		return nil, fmt.Errorf("%w: %d (want 1..%d)", ErrChannelCount, n, MaxChannels)
	}
	o := options{seed: 1, masterVol: sfxd.DefaultMasterVolume}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard, "", 0)
	}
	p := &Pool{
		slots:  make([]slot, n),
		rng:    rand.New(rand.NewSource(o.seed)),
		logger: o.logger,
	}
	for i := range p.slots {
		s := &p.slots[i]
		s.params = sfxd.DefaultParams()
		s.voice.Init(o.seed + int64(i))
	}
	p.SetMasterVolume(o.masterVol)
	return p, nil
}

func (p *Pool) Len() int { return len(p.slots) }

func (p *Pool) slot(ch int, op string) *slot {
	if ch < 0 || ch >= len(p.slots) {
		p.logger.Printf("pool: %s: channel %d out of range", op, ch)
		return nil
	}
	return &p.slots[ch]
}

// SetParams replaces the params of ch. A sound already playing is not
// affected; the change is heard on the next Play.
func (p *Pool) SetParams(ch int, params sfxd.Params) bool {
	s := p.slot(ch, "set params")
	if s == nil {
		return false
	}
	s.params = params
	return true
}

// Params returns the control-side params of ch.
func (p *Pool) Params(ch int) (sfxd.Params, bool) {
	s := p.slot(ch, "params")
	if s == nil {
		return sfxd.Params{}, false
	}
	return s.params, true
}

// Play requests a restart of ch from its current params. Several calls
// between two audio blocks collapse into the last one.
func (p *Pool) Play(ch int) bool {
	s := p.slot(ch, "play")
	if s == nil {
		return false
	}
	snapshot := s.params
	s.pending.Store(&snapshot)
	return true
}

// Mutate perturbs the params of ch in place. It does not trigger the channel.
func (p *Pool) Mutate(ch int) bool {
	s := p.slot(ch, "mutate")
	if s == nil {
		return false
	}
	sfxd.Mutate(&s.params, p.rng)
	return true
}

// Active reports whether ch is sounding or about to.
func (p *Pool) Active(ch int) bool {
	if ch < 0 || ch >= len(p.slots) {
		return false
	}
	s := &p.slots[ch]
	return s.pending.Load() != nil || s.playing.Load()
}

func (p *Pool) SetMasterVolume(v float32) {
	if v != v || v < 0 {
		v = 0
	}
	p.masterVol.Store(math.Float32bits(v))
}

func (p *Pool) MasterVolume() float32 {
	return math.Float32frombits(p.masterVol.Load())
}

// Render synthesizes the next len(dst) samples of ch. It must only be called
// from the audio goroutine. When the channel is idle it returns false and
// leaves dst untouched.
func (p *Pool) Render(ch int, dst []float32) bool {
	if ch < 0 || ch >= len(p.slots) {
		return false
	}
	s := &p.slots[ch]
	if next := s.pending.Swap(nil); next != nil {
		s.voice.SetParams(*next)
		s.voice.Trigger()
		s.playing.Store(true)
	}
	if !s.voice.Playing() {
		s.playing.Store(false)
		return false
	}
	s.voice.Synthesize(dst, p.MasterVolume())
	s.playing.Store(s.voice.Playing())
	return true
}
