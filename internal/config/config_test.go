package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/arcadesfx/internal/scale"
	"github.com/cbegin/arcadesfx/internal/sequencer"
	"github.com/cbegin/arcadesfx/internal/sfxd"
)

func TestParseEmptyYieldsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Len(t, opts, 11, "no master bus or instrument options by default")
}

func TestParsePartialFile(t *testing.T) {
	cfg, err := Parse([]byte(`
backend: "null"
mode: dorian
master_volume: 0.08
seed: 42
master_bus:
  compressor: {ratio: 2}
  delay: {}
`))
	require.NoError(t, err)
	assert.Equal(t, "null", cfg.Backend)
	assert.Equal(t, scale.ModeDorian, cfg.Mode)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 44100, cfg.SampleRate)
	assert.InDelta(t, 0.08, cfg.MasterVolume, 1e-7)

	require.NotNil(t, cfg.MasterBus.Compressor)
	assert.Equal(t, float32(2), cfg.MasterBus.Compressor.Ratio)
	assert.Equal(t, float32(-12), cfg.MasterBus.Compressor.ThresholdDB)
	require.NotNil(t, cfg.MasterBus.Delay)
	assert.Equal(t, 180.0, cfg.MasterBus.Delay.TimeMs)

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Len(t, opts, 12)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("sample_rat: 22050\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))

	_, err = Parse([]byte("instruments:\n  hat: {hpf_frq: 0.5}\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "hpf_frq")
}

func TestValidateReportsEverything(t *testing.T) {
	cfg := Default()
	cfg.SampleRate = 100
	cfg.Channels = 3
	cfg.Backend = "alsa"
	cfg.MasterVolume = 2
	cfg.Octaves = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	for _, want := range []string{"sample_rate", "channels", "alsa", "master_volume", "octaves"} {
		assert.Contains(t, err.Error(), want)
	}

	_, err = cfg.Options()
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsBadMode(t *testing.T) {
	_, err := Parse([]byte("mode: klingon\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestInstrumentMappingKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
instruments:
  hat:
    hpf_freq: 0.7
    env_decay: 0.05
  enemy: "2,0,.3,0,.4,.3,0,0,.1,0,0,0,0,0,0,0,0,0,1,0,0,0,0,.5"
`))
	require.NoError(t, err)
	got, err := cfg.InstrumentParams()
	require.NoError(t, err)
	require.Len(t, got, 2)

	hat := got[sequencer.Hat]
	want := sequencer.DefaultInstruments()[sequencer.Hat]
	assert.Equal(t, float32(0.7), hat.HPFFreq)
	assert.Equal(t, float32(0.05), hat.EnvDecay)
	assert.Equal(t, want.WaveType, hat.WaveType)
	assert.Equal(t, want.EnvSustain, hat.EnvSustain)

	enemy := got[sequencer.Enemy]
	assert.Equal(t, sfxd.Sine, enemy.WaveType)
	assert.Equal(t, float32(0.3), enemy.BaseFreq)
}

func TestInstrumentRejectsUnknownRoleAndShape(t *testing.T) {
	_, err := Parse([]byte("instruments:\n  tuba: {base_freq: 0.2}\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Parse([]byte("instruments:\n  bell: [1, 2]\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Parse([]byte("instruments:\n  bell: \"1,x\"\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sfx.yaml")
	require.NoError(t, os.WriteFile(path, []byte("octaves: 3\nmin_bpm: 60\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Octaves)
	assert.Equal(t, 60.0, cfg.MinBPM)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
