package sfxd

import (
	"fmt"
	"strconv"
	"strings"
)

// WaveType selects the base oscillator.
type WaveType int

const (
	Square WaveType = iota
	Sawtooth
	Sine
	Noise
)

var waveNames = [...]string{"square", "sawtooth", "sine", "noise"}

func (w WaveType) String() string {
	if w >= 0 && int(w) < len(waveNames) {
		return waveNames[w]
	}
	return "wave(" + strconv.Itoa(int(w)) + ")"
}

func (w WaveType) Valid() bool {
	return w >= Square && w <= Noise
}

func (w WaveType) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("invalid wave type %d", int(w))
	}
	return []byte(w.String()), nil
}

// UnmarshalText accepts a wave name or its numeric value.
func (w *WaveType) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for i, name := range waveNames {
		if s == name {
			*w = WaveType(i)
			return nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || !WaveType(n).Valid() {
		return fmt.Errorf("invalid wave type %q (expected square|sawtooth|sine|noise)", s)
	}
	*w = WaveType(n)
	return nil
}

// Params describes one sound. Values are knobs in the sfxr convention and
// are not validated; Voice clamps whatever it derives from them.
type Params struct {
	WaveType WaveType `yaml:"wave_type"`

	BaseFreq  float32 `yaml:"base_freq"`
	FreqLimit float32 `yaml:"freq_limit"`
	FreqRamp  float32 `yaml:"freq_ramp"`
	FreqDRamp float32 `yaml:"freq_dramp"`
	Duty      float32 `yaml:"duty"`
	DutyRamp  float32 `yaml:"duty_ramp"`

	VibStrength float32 `yaml:"vib_strength"`
	VibSpeed    float32 `yaml:"vib_speed"`
	VibDelay    float32 `yaml:"vib_delay"`

	EnvAttack  float32 `yaml:"env_attack"`
	EnvSustain float32 `yaml:"env_sustain"`
	EnvDecay   float32 `yaml:"env_decay"`
	EnvPunch   float32 `yaml:"env_punch"`

	FilterOn     bool    `yaml:"filter_on"`
	LPFResonance float32 `yaml:"lpf_resonance"`
	LPFFreq      float32 `yaml:"lpf_freq"`
	LPFRamp      float32 `yaml:"lpf_ramp"`
	HPFFreq      float32 `yaml:"hpf_freq"`
	HPFRamp      float32 `yaml:"hpf_ramp"`

	PhaOffset float32 `yaml:"pha_offset"`
	PhaRamp   float32 `yaml:"pha_ramp"`

	RepeatSpeed float32 `yaml:"repeat_speed"`

	ArpSpeed float32 `yaml:"arp_speed"`
	ArpMod   float32 `yaml:"arp_mod"`

	SoundVol float32 `yaml:"sound_vol"`
}

// DefaultParams returns a plain square blip with the filters open.
func DefaultParams() Params {
	return Params{
		WaveType:   Square,
		BaseFreq:   0.3,
		EnvSustain: 0.3,
		EnvDecay:   0.4,
		LPFFreq:    1.0,
		SoundVol:   0.5,
	}
}

// settingsFields lists the sfxr settings string layout (jsfxr order).
// Index 0 is the wave type and is handled separately.
func (p *Params) settingsFields() []*float32 {
	return []*float32{
		nil,
		&p.EnvAttack,
		&p.EnvSustain,
		&p.EnvPunch,
		&p.EnvDecay,
		&p.BaseFreq,
		&p.FreqLimit,
		&p.FreqRamp,
		&p.FreqDRamp,
		&p.VibStrength,
		&p.VibSpeed,
		&p.ArpMod,
		&p.ArpSpeed,
		&p.Duty,
		&p.DutyRamp,
		&p.RepeatSpeed,
		&p.PhaOffset,
		&p.PhaRamp,
		&p.LPFFreq,
		&p.LPFRamp,
		&p.LPFResonance,
		&p.HPFFreq,
		&p.HPFRamp,
		&p.SoundVol,
	}
}

// ParseSettings decodes a comma-separated sfxr settings string. Missing or
// empty trailing fields read as zero.
func ParseSettings(s string) (Params, error) {
	var p Params
	values := strings.Split(strings.TrimSpace(s), ",")
	fields := p.settingsFields()
	if len(values) > len(fields) {
		return Params{}, fmt.Errorf("settings: %d fields, at most %d allowed", len(values), len(fields))
	}
	for i, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if i == 0 {
			if err := p.WaveType.UnmarshalText([]byte(raw)); err != nil {
				return Params{}, fmt.Errorf("settings field 0: %w", err)
			}
			continue
		}
		f, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return Params{}, fmt.Errorf("settings field %d: %w", i, err)
		}
		*fields[i] = float32(f)
	}
	p.FilterOn = p.LPFFreq != 1 || p.HPFFreq != 0
	return p, nil
}

// Settings encodes p in the format read by ParseSettings.
func (p Params) Settings() string {
	fields := p.settingsFields()
	var b strings.Builder
	b.WriteString(strconv.Itoa(int(p.WaveType)))
	for _, f := range fields[1:] {
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(float64(*f), 'g', -1, 32))
	}
	return b.String()
}
