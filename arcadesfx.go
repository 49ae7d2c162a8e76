// Package arcadesfx plays procedural sfxr-style sound effects driven by game
// events. A System owns a fixed pool of synth channels, a mixer running on
// the audio device and a sequencer that turns each game tick into notes.
//
//	sys, err := arcadesfx.Open()
//	if err != nil && !errors.Is(err, arcadesfx.ErrAudioDeviceUnavailable) {
//		return err
//	}
//	defer sys.Close()
//	for tick := range ticks {
//		sys.Update(&state, tick)
//	}
package arcadesfx

import (
	"github.com/cbegin/arcadesfx/internal/audio"
	"github.com/cbegin/arcadesfx/internal/effects"
	"github.com/cbegin/arcadesfx/internal/game"
	"github.com/cbegin/arcadesfx/internal/mixer"
	"github.com/cbegin/arcadesfx/internal/scale"
	"github.com/cbegin/arcadesfx/internal/sequencer"
	"github.com/cbegin/arcadesfx/internal/sfxd"
)

// ErrAudioDeviceUnavailable is returned alongside a usable, muted System when
// the output device cannot be opened.
var ErrAudioDeviceUnavailable = audio.ErrDeviceUnavailable

type (
	Params   = sfxd.Params
	WaveType = sfxd.WaveType

	GameState  = game.State
	Event      = game.Event
	EventType  = game.EventType
	EntityType = game.EntityType

	Mode      = scale.Mode
	Role      = sequencer.Role
	Backend   = audio.Backend
	Processor = mixer.Processor
)

const (
	Square   = sfxd.Square
	Sawtooth = sfxd.Sawtooth
	Sine     = sfxd.Sine
	Noise    = sfxd.Noise

	Created   = game.Created
	Destroyed = game.Destroyed
	Hit       = game.Hit

	Bullet  = game.Bullet
	Rocket  = game.Rocket
	Turd    = game.Turd
	Nova    = game.Nova
	Enemy   = game.Enemy
	XPChunk = game.XPChunk

	MaxEvents = game.MaxEvents

	RoleBass       = sequencer.Bass
	RoleBell       = sequencer.Bell
	RoleEnemy      = sequencer.Enemy
	RolePickup     = sequencer.Pickup
	RolePercussion = sequencer.Percussion
	RoleHat        = sequencer.Hat
	RoleXylophone  = sequencer.Xylophone
	RoleClink      = sequencer.Clink
	RoleMoog       = sequencer.Moog

	ModeIonian     = scale.ModeIonian
	ModeDorian     = scale.ModeDorian
	ModePhrygian   = scale.ModePhrygian
	ModeLydian     = scale.ModeLydian
	ModeMixolydian = scale.ModeMixolydian
	ModeAeolian    = scale.ModeAeolian
	ModeLocrian    = scale.ModeLocrian

	BackendEbiten = audio.BackendEbiten
	BackendOto    = audio.BackendOto
	BackendNull   = audio.BackendNull
)

func DefaultParams() Params { return sfxd.DefaultParams() }

// ParseSettings decodes an sfxr settings string.
func ParseSettings(s string) (Params, error) { return sfxd.ParseSettings(s) }

// ParseBackend accepts ebiten, oto or null. Empty means ebiten.
func ParseBackend(s string) (Backend, error) { return audio.ParseBackend(s) }

// NewCompressor returns a master-bus compressor for WithMasterBus.
func NewCompressor(sampleRate int, thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) Processor {
	return effects.NewCompressor(sampleRate, thresholdDB, ratio, attackMs, releaseMs, makeupDB)
}

// NewDelay returns a master-bus echo for WithMasterBus.
func NewDelay(sampleRate int, delayMs float64, feedback, wet float32) Processor {
	return effects.NewDelay(sampleRate, delayMs, feedback, wet)
}

// Chain runs processors in order. Nil entries are skipped.
func Chain(ps ...Processor) Processor {
	c := effects.NewChain()
	for _, p := range ps {
		if e, ok := p.(effects.Effector); ok {
			c.Add(e)
		} else if p != nil {
			c.Add(processorEffector{p})
		}
	}
	return c
}

type processorEffector struct{ Processor }

func (processorEffector) Reset() {}
