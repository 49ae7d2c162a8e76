// Package config loads arcadesfx settings from YAML.
//
// A file only needs the keys it changes; everything else keeps the value
// from Default. Unknown keys are rejected so typos do not pass silently.
//
//	backend: oto
//	master_volume: 0.08
//	mode: dorian
//	master_bus:
//	  compressor: {threshold_db: -12, ratio: 4}
//	instruments:
//	  hat: {hpf_freq: 0.7, env_decay: 0.05}
//	  enemy: "2,0,.3,0,.4,.3,0,0,.1,0,0,0,0,0,0,0,0,0,1,0,0,0,0,.5"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cbegin/arcadesfx"
	"github.com/cbegin/arcadesfx/internal/audio"
	"github.com/cbegin/arcadesfx/internal/effects"
	"github.com/cbegin/arcadesfx/internal/pool"
	"github.com/cbegin/arcadesfx/internal/scale"
	"github.com/cbegin/arcadesfx/internal/sequencer"
	"github.com/cbegin/arcadesfx/internal/sfxd"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	SampleRate   int        `yaml:"sample_rate"`
	BlockSize    int        `yaml:"block_size"`
	Channels     int        `yaml:"channels"`
	Backend      string     `yaml:"backend"`
	MasterVolume float32    `yaml:"master_volume"`
	Mute         bool       `yaml:"mute"`
	Seed         int64      `yaml:"seed"`
	Mode         scale.Mode `yaml:"mode"`
	BaseNote     float64    `yaml:"base_note"`
	MinBPM       float64    `yaml:"min_bpm"`
	Octaves      int        `yaml:"octaves"`
	MasterBus    MasterBus  `yaml:"master_bus"`

	// Instruments maps a role name to either a partial patch or an sfxr
	// settings string. Missing fields keep the role's default patch.
	Instruments map[string]yaml.Node `yaml:"instruments"`
}

type MasterBus struct {
	Compressor *Compressor `yaml:"compressor"`
	Delay      *Delay      `yaml:"delay"`
}

type Compressor struct {
	ThresholdDB float32 `yaml:"threshold_db"`
	Ratio       float32 `yaml:"ratio"`
	AttackMs    float32 `yaml:"attack_ms"`
	ReleaseMs   float32 `yaml:"release_ms"`
	MakeupDB    float32 `yaml:"makeup_db"`
}

type Delay struct {
	TimeMs   float64 `yaml:"time_ms"`
	Feedback float32 `yaml:"feedback"`
	Wet      float32 `yaml:"wet"`
}

func (c *Compressor) UnmarshalYAML(node *yaml.Node) error {
	type plain Compressor
	v := plain{ThresholdDB: -12, Ratio: 4, AttackMs: 5, ReleaseMs: 80}
	if err := node.Decode(&v); err != nil {
		return err
	}
	*c = Compressor(v)
	return nil
}

func (d *Delay) UnmarshalYAML(node *yaml.Node) error {
	type plain Delay
	v := plain{TimeMs: 180, Feedback: 0.3, Wet: 0.2}
	if err := node.Decode(&v); err != nil {
		return err
	}
	*d = Delay(v)
	return nil
}

func Default() Config {
	return Config{
		SampleRate:   44100,
		BlockSize:    512,
		Channels:     pool.MaxChannels,
		Backend:      string(audio.BackendEbiten),
		MasterVolume: sfxd.DefaultMasterVolume,
		Seed:         1,
		Mode:         scale.ModeIonian,
		BaseNote:     sequencer.DefaultBaseNote,
		MinBPM:       sequencer.DefaultMinBPM,
		Octaves:      sequencer.DefaultOctaves,
	}
}

// Load reads and validates the YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over Default and validates the result. Empty input
// yields the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every out-of-range setting at once.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		bad("sample_rate %d outside [8000, 192000]", c.SampleRate)
	}
	if c.BlockSize < 16 || c.BlockSize > 8192 {
		bad("block_size %d outside [16, 8192]", c.BlockSize)
	}
	if c.Channels < sequencer.NumRoles || c.Channels > pool.MaxChannels {
		bad("channels %d outside [%d, %d]", c.Channels, sequencer.NumRoles, pool.MaxChannels)
	}
	if _, err := audio.ParseBackend(c.Backend); err != nil {
		bad("%v", err)
	}
	if !(c.MasterVolume >= 0 && c.MasterVolume <= 1) {
		bad("master_volume %v outside [0, 1]", c.MasterVolume)
	}
	if !c.Mode.Valid() {
		bad("mode %d", int(c.Mode))
	}
	if !(c.BaseNote > 0 && c.BaseNote <= 10) {
		bad("base_note %v outside (0, 10]", c.BaseNote)
	}
	if !(c.MinBPM > 0 && c.MinBPM <= sequencer.MaxBPM) {
		bad("min_bpm %v outside (0, %d]", c.MinBPM, sequencer.MaxBPM)
	}
	if c.Octaves < 1 || c.Octaves > 8 {
		bad("octaves %d outside [1, 8]", c.Octaves)
	}
	if cp := c.MasterBus.Compressor; cp != nil {
		if cp.Ratio < 1 {
			bad("compressor ratio %v below 1", cp.Ratio)
		}
		if cp.AttackMs < 0 || cp.ReleaseMs < 0 {
			bad("compressor times must not be negative")
		}
	}
	if d := c.MasterBus.Delay; d != nil {
		if !(d.TimeMs > 0 && d.TimeMs <= 2000) {
			bad("delay time_ms %v outside (0, 2000]", d.TimeMs)
		}
		if d.Feedback < 0 || d.Feedback > 0.95 {
			bad("delay feedback %v outside [0, 0.95]", d.Feedback)
		}
		if d.Wet < 0 || d.Wet > 1 {
			bad("delay wet %v outside [0, 1]", d.Wet)
		}
	}
	if _, err := c.InstrumentParams(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// InstrumentParams resolves the instruments section against the default
// patches. Only roles named in the file are returned.
func (c Config) InstrumentParams() (map[sequencer.Role]sfxd.Params, error) {
	if len(c.Instruments) == 0 {
		return nil, nil
	}
	defaults := sequencer.DefaultInstruments()
	out := make(map[sequencer.Role]sfxd.Params, len(c.Instruments))
	for name, node := range c.Instruments {
		var role sequencer.Role
		if err := role.UnmarshalText([]byte(name)); err != nil {
			return nil, fmt.Errorf("%w: instruments: %v", ErrInvalid, err)
		}
		p, err := decodeInstrument(&node, defaults[role])
		if err != nil {
			return nil, fmt.Errorf("%w: instruments.%s: %v", ErrInvalid, name, err)
		}
		out[role] = p
	}
	return out, nil
}

func decodeInstrument(node *yaml.Node, base sfxd.Params) (sfxd.Params, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return sfxd.ParseSettings(node.Value)
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if _, ok := paramKeys[key]; !ok {
				return sfxd.Params{}, fmt.Errorf("line %d: unknown field %q", node.Content[i].Line, key)
			}
		}
		p := base
		if err := node.Decode(&p); err != nil {
			return sfxd.Params{}, err
		}
		return p, nil
	}
	return sfxd.Params{}, fmt.Errorf("line %d: want a mapping or a settings string", node.Line)
}

// paramKeys holds the yaml names of sfxd.Params fields.
var paramKeys = func() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeOf(sfxd.Params{})
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("yaml"), ",")
		if name != "" && name != "-" {
			keys[name] = struct{}{}
		}
	}
	return keys
}()

// Options converts c into options for arcadesfx.Open.
func (c Config) Options() ([]arcadesfx.Option, error) {
	backend, err := audio.ParseBackend(c.Backend)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	instruments, err := c.InstrumentParams()
	if err != nil {
		return nil, err
	}
	opts := []arcadesfx.Option{
		arcadesfx.WithSampleRate(c.SampleRate),
		arcadesfx.WithBlockSize(c.BlockSize),
		arcadesfx.WithChannels(c.Channels),
		arcadesfx.WithBackend(backend),
		arcadesfx.WithMute(c.Mute),
		arcadesfx.WithSeed(c.Seed),
		arcadesfx.WithMasterVolume(c.MasterVolume),
		arcadesfx.WithMode(c.Mode),
		arcadesfx.WithBaseNote(c.BaseNote),
		arcadesfx.WithMinBPM(c.MinBPM),
		arcadesfx.WithOctaves(c.Octaves),
	}
	if len(instruments) > 0 {
		opts = append(opts, arcadesfx.WithInstruments(instruments))
	}
	if bus := c.masterBus(); bus != nil {
		opts = append(opts, arcadesfx.WithMasterBus(bus))
	}
	return opts, nil
}

func (c Config) masterBus() arcadesfx.Processor {
	chain := effects.NewChain()
	if cp := c.MasterBus.Compressor; cp != nil {
		chain.Add(effects.NewCompressor(c.SampleRate, cp.ThresholdDB, cp.Ratio, cp.AttackMs, cp.ReleaseMs, cp.MakeupDB))
	}
	if d := c.MasterBus.Delay; d != nil {
		chain.Add(effects.NewDelay(c.SampleRate, d.TimeMs, d.Feedback, d.Wet))
	}
	if chain.Len() == 0 {
		return nil
	}
	return chain
}
