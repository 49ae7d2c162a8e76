// Package sequencer turns game events and player metrics into notes on a
// fixed set of instrument channels.
package sequencer

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"

	"github.com/cbegin/arcadesfx/internal/game"
	"github.com/cbegin/arcadesfx/internal/scale"
	"github.com/cbegin/arcadesfx/internal/sfxd"
)

const (
	DefaultBaseNote = 0.05
	DefaultMinBPM   = 40
	DefaultOctaves  = 4
	MaxBPM          = 300

	baseBPM = 120
	// Leading is the leading-tone degree accent parts descend from.
	Leading = 6
)

// Controller is the channel control API the sequencer drives. It is only
// called from the goroutine that calls Update.
type Controller interface {
	Len() int
	SetParams(ch int, p sfxd.Params) bool
	Params(ch int) (sfxd.Params, bool)
	Play(ch int) bool
	Mutate(ch int) bool
}

type Options struct {
	Mode     scale.Mode
	BaseNote float64 // tonic as a base_freq value; 0 = DefaultBaseNote
	MinBPM   float64 // tempo floor; 0 = DefaultMinBPM
	Octaves  int     // octave steps the enemy line climbs before wrapping; 0 = DefaultOctaves
	Seed     int64   // drives bell decisions

	// Instruments replaces the template patch of the listed roles.
	Instruments map[Role]sfxd.Params

	Logger *log.Logger
}

// beat is a role retriggered on a subdivision of the tempo.
type beat struct {
	role   Role
	factor float64 // beats per quarter note
	next   float64 // ms
}

type Sequencer struct {
	ctl      Controller
	table    scale.Table
	baseNote float64
	minBPM   float64
	octaves  int
	rng      *rand.Rand
	logger   *log.Logger

	degree   int
	bellStep int
	consumed int
	fired    int
	novas    int
	bpm      float64
	beats    [4]beat
}

func New(ctl Controller, opts Options) (*Sequencer, error) {
	if ctl == nil {
		return nil, errors.New("sequencer: nil controller")
	}
	if n := ctl.Len(); n < NumRoles {
		return nil, fmt.Errorf("sequencer: controller has %d channels, need %d", n, NumRoles)
	}
	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("sequencer: invalid mode %d", int(opts.Mode))
	}
	if opts.BaseNote == 0 {
		opts.BaseNote = DefaultBaseNote
	}
	if !(opts.BaseNote > 0) || math.IsInf(opts.BaseNote, 0) {
		return nil, fmt.Errorf("sequencer: base note %v must be positive", opts.BaseNote)
	}
	if opts.MinBPM == 0 {
		opts.MinBPM = DefaultMinBPM
	}
	if !(opts.MinBPM > 0 && opts.MinBPM <= MaxBPM) {
		return nil, fmt.Errorf("sequencer: min bpm %v outside (0, %d]", opts.MinBPM, MaxBPM)
	}
	if opts.Octaves == 0 {
		opts.Octaves = DefaultOctaves
	}
	if opts.Octaves < 0 {
		return nil, fmt.Errorf("sequencer: octaves %d must be positive", opts.Octaves)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}

	instruments := DefaultInstruments()
	for r, p := range opts.Instruments {
		if !r.Valid() {
			return nil, fmt.Errorf("sequencer: instrument for %v", r)
		}
		instruments[r] = p
	}

	s := &Sequencer{
		ctl:      ctl,
		table:    opts.Mode.Table(),
		baseNote: opts.BaseNote,
		minBPM:   opts.MinBPM,
		octaves:  opts.Octaves,
		rng:      rand.New(rand.NewSource(opts.Seed)),
		logger:   opts.Logger,
		bpm:      baseBPM,
		beats: [4]beat{
			{role: Hat, factor: 4},
			{role: Percussion, factor: 1},
			{role: Bass, factor: 0.5},
			{role: Bell, factor: 0.25},
		},
	}
	for _, r := range Roles() {
		ctl.SetParams(r.Channel(), instruments[r])
	}
	s.retune(0)
	return s, nil
}

// Tempo returns the bpm computed by the last Update.
func (s *Sequencer) Tempo() float64 { return s.bpm }

// Update reacts to the events of one tick and fires any beats that are due.
// tick is the game clock in milliseconds.
func (s *Sequencer) Update(state *game.State, tick uint32) {
	if state == nil {
		return
	}
	for _, ev := range state.EventList() {
		s.react(ev, state)
	}
	s.bpm = s.tempo(state)
	if state.Over || !(state.Life > 0) {
		return
	}
	s.advanceBeats(state, float64(tick))
}

func (s *Sequencer) react(ev game.Event, state *game.State) {
	if !ev.Type.Valid() || !ev.Entity.Valid() {
		s.logger.Printf("sequencer: ignoring %v", ev)
		return
	}
	switch ev.Type {
	case game.Destroyed:
		switch ev.Entity {
		case game.Enemy:
			s.retune(state.KillCount)
			s.play(Enemy)
			s.ctl.Mutate(Enemy.Channel())
		case game.XPChunk:
			s.consumed++
			s.accent(Xylophone, s.consumed, 2)
		case game.Bullet, game.Rocket, game.Turd, game.Nova:
		}
	case game.Created:
		switch ev.Entity {
		case game.XPChunk:
			s.play(Pickup)
		case game.Bullet:
			s.fired++
			s.accent(Clink, s.fired, 4)
		case game.Nova:
			s.novas++
			s.accent(Moog, s.novas, 0.5)
		case game.Rocket, game.Turd, game.Enemy:
		}
	case game.Hit:
		s.setNote(Percussion, int(ev.Entity), s.baseNote)
		s.play(Percussion)
	}
}

// retune moves the harmony to the scale degree of the kill count. Every
// seven kills the enemy line climbs an octave, wrapping after s.octaves.
func (s *Sequencer) retune(kills int) {
	if kills < 0 {
		kills = 0
	}
	degree := kills % scale.Degrees
	octave := (kills / scale.Degrees) % s.octaves
	s.degree = degree
	s.bellStep = 0
	s.setNote(Enemy, degree+scale.Degrees*octave, s.baseNote)
	s.setNote(Bass, degree, s.baseNote/4)
	s.setNote(Bell, degree+2, s.baseNote*2)
	s.setNote(Pickup, degree+4, s.baseNote*2)
}

// accent plays a role on a note that walks down from the leading tone as
// count grows.
func (s *Sequencer) accent(r Role, count int, octaveMul float64) {
	if count < 0 {
		count = -count
	}
	s.setNote(r, Leading-count%scale.Degrees, s.baseNote*octaveMul)
	s.play(r)
}

func (s *Sequencer) setNote(r Role, degree int, tonic float64) {
	p, ok := s.ctl.Params(r.Channel())
	if !ok {
		return
	}
	p.BaseFreq = float32(scale.Frequency(s.table, degree, tonic))
	s.ctl.SetParams(r.Channel(), p)
}

func (s *Sequencer) play(r Role) {
	s.ctl.Play(r.Channel())
}

func (s *Sequencer) tempo(state *game.State) float64 {
	size := math.Min(float64(state.PlayerSize), 1)
	bpm := baseBPM - 2*float64(state.KillCount)*size
	if math.IsNaN(bpm) {
		return baseBPM
	}
	return math.Max(s.minBPM, math.Min(MaxBPM, bpm))
}

func (s *Sequencer) advanceBeats(state *game.State, now float64) {
	for i := range s.beats {
		b := &s.beats[i]
		if now < b.next {
			continue
		}
		interval := 60000 / (s.bpm * b.factor)
		b.next += interval
		if b.next <= now {
			b.next = now + interval
		}
		if b.role == Bell {
			s.ringBell(state.Combo)
			continue
		}
		s.play(b.role)
	}
}

// ringBell rings with probability combo/(combo+4), stepping up the chord by
// a root, third or fifth each time it does.
func (s *Sequencer) ringBell(combo int) {
	chance := 0.0
	if combo > 0 {
		chance = float64(combo) / float64(combo+4)
	}
	if s.rng.Float64() >= chance {
		return
	}
	s.bellStep = (s.bellStep + 2*s.rng.Intn(3)) % scale.Degrees
	s.setNote(Bell, s.degree+2+s.bellStep, s.baseNote*2)
	s.play(Bell)
}
