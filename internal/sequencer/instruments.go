package sequencer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cbegin/arcadesfx/internal/sfxd"
)

// Role is a musical part. Each role owns the channel with the same index.
type Role int

const (
	Bass Role = iota
	Bell
	Enemy
	Pickup
	Percussion
	Hat
	Xylophone
	Clink
	Moog

	NumRoles = int(Moog) + 1
)

var roleNames = [...]string{"bass", "bell", "enemy", "pickup", "percussion", "hat", "xylophone", "clink", "moog"}

func (r Role) String() string {
	if r.Valid() {
		return roleNames[r]
	}
	return "role(" + strconv.Itoa(int(r)) + ")"
}

func (r Role) Valid() bool { return r >= Bass && r <= Moog }

// Channel is the pool channel the role plays on.
func (r Role) Channel() int { return int(r) }

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for i, name := range roleNames {
		if s == name {
			*r = Role(i)
			return nil
		}
	}
	return fmt.Errorf("unknown role %q", s)
}

// Roles lists every role in channel order.
func Roles() []Role {
	out := make([]Role, NumRoles)
	for i := range out {
		out[i] = Role(i)
	}
	return out
}

// DefaultInstruments returns the template patch of every role. Base
// frequencies of tuned roles are overwritten as the game progresses.
func DefaultInstruments() map[Role]sfxd.Params {
	bass := sfxd.DefaultParams()
	bass.Duty = 0.3
	bass.EnvSustain = 0.2
	bass.EnvDecay = 0.3
	bass.LPFFreq = 0.4
	bass.LPFResonance = 0.3

	bell := sfxd.DefaultParams()
	bell.WaveType = sfxd.Sine
	bell.EnvSustain = 0.05
	bell.EnvDecay = 0.5
	bell.EnvPunch = 0.4
	bell.SoundVol = 0.4

	enemy := sfxd.DefaultParams()
	enemy.WaveType = sfxd.Sine
	enemy.FreqDRamp = 0.1

	pickup := sfxd.DefaultParams()
	pickup.WaveType = sfxd.Sawtooth
	pickup.BaseFreq = 0.45
	pickup.FreqDRamp = 0.1
	pickup.EnvAttack = 0.1
	pickup.EnvSustain = 0.2
	pickup.EnvDecay = 0.1

	perc := sfxd.DefaultParams()
	perc.WaveType = sfxd.Noise
	perc.BaseFreq = 0.08
	perc.FreqRamp = -0.2
	perc.EnvSustain = 0.05
	perc.EnvDecay = 0.25
	perc.EnvPunch = 0.5
	perc.SoundVol = 0.6

	hat := sfxd.DefaultParams()
	hat.WaveType = sfxd.Noise
	hat.BaseFreq = 0.9
	hat.EnvSustain = 0.02
	hat.EnvDecay = 0.08
	hat.HPFFreq = 0.6
	hat.SoundVol = 0.3

	xylo := sfxd.DefaultParams()
	xylo.WaveType = sfxd.Sine
	xylo.EnvSustain = 0.04
	xylo.EnvDecay = 0.3
	xylo.EnvPunch = 0.6
	xylo.SoundVol = 0.4

	clink := sfxd.DefaultParams()
	clink.Duty = 0.6
	clink.EnvSustain = 0.02
	clink.EnvDecay = 0.12
	clink.EnvPunch = 0.3
	clink.HPFFreq = 0.2
	clink.SoundVol = 0.25

	moog := sfxd.DefaultParams()
	moog.WaveType = sfxd.Sawtooth
	moog.EnvAttack = 0.05
	moog.EnvSustain = 0.25
	moog.EnvDecay = 0.35
	moog.LPFFreq = 0.35
	moog.LPFResonance = 0.6
	moog.LPFRamp = 0.2
	moog.VibStrength = 0.1
	moog.VibSpeed = 0.3

	out := map[Role]sfxd.Params{
		Bass:       bass,
		Bell:       bell,
		Enemy:      enemy,
		Pickup:     pickup,
		Percussion: perc,
		Hat:        hat,
		Xylophone:  xylo,
		Clink:      clink,
		Moog:       moog,
	}
	for r, p := range out {
		p.FilterOn = p.LPFFreq != 1 || p.HPFFreq != 0
		out[r] = p
	}
	return out
}
