package sfxd

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderAll(v *Voice, blocks, size int) []float32 {
	out := make([]float32, 0, blocks*size)
	buf := make([]float32, size)
	for b := 0; b < blocks; b++ {
		v.Synthesize(buf, DefaultMasterVolume)
		out = append(out, buf...)
	}
	return out
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	for _, wave := range []WaveType{Square, Sawtooth, Sine, Noise} {
		t.Run(wave.String(), func(t *testing.T) {
			p := DefaultParams()
			p.WaveType = wave
			p.VibStrength = 0.3
			p.VibSpeed = 0.4
			p.LPFFreq = 0.6
			p.LPFResonance = 0.5
			p.PhaOffset = 0.2
			p.PhaRamp = -0.1
			p.RepeatSpeed = 0.6

			a := NewVoice(7)
			a.SetParams(p)
			a.Trigger()
			b := NewVoice(7)
			b.SetParams(p)
			b.Trigger()

			got := renderAll(a, 8, 512)
			want := renderAll(b, 8, 512)
			for i := range got {
				if math.Float32bits(got[i]) != math.Float32bits(want[i]) {
					t.Fatalf("sample %d differs: %v vs %v", i, got[i], want[i])
				}
			}
		})
	}
}

func TestSynthesizeStaysBoundedForAdversarialParams(t *testing.T) {
	cases := map[string]Params{
		"zero base freq":  {BaseFreq: 0, EnvSustain: 0.5, EnvDecay: 0.5, SoundVol: 100},
		"negative ramps":  {BaseFreq: 0.4, FreqRamp: -3, FreqDRamp: -5, DutyRamp: -40, EnvSustain: 0.4, SoundVol: 50},
		"huge resonance":  {WaveType: Sawtooth, BaseFreq: 0.2, LPFFreq: 0.9, LPFResonance: 1e6, EnvSustain: 0.4, SoundVol: 50},
		"huge highpass":   {WaveType: Noise, BaseFreq: 0.5, HPFFreq: 1e4, HPFRamp: 1e3, EnvSustain: 0.4, SoundVol: 50},
		"slide to zero":   {BaseFreq: 0, FreqRamp: 4.6416, EnvSustain: 0.3, SoundVol: 1},
		"phaser overflow": {WaveType: Sine, BaseFreq: 0.3, PhaOffset: 1e20, PhaRamp: -1e20, EnvSustain: 0.3, SoundVol: 1},
		"negative lpf":    {WaveType: Square, BaseFreq: 0.3, LPFFreq: -2, LPFRamp: -100, EnvSustain: 0.3, SoundVol: 10},
		"huge envelope":   {BaseFreq: 0.3, EnvAttack: 1e20, EnvPunch: 1e6, SoundVol: 1},
		"vibrato blowup":  {BaseFreq: 0.3, VibStrength: 1e9, VibSpeed: 1e9, EnvSustain: 0.3, SoundVol: 1},
	}
	rng := rand.New(rand.NewSource(99))
	knob := func() float32 { return float32(rng.NormFloat64() * 20) }
	for i := 0; i < 40; i++ {
		cases["fuzz "+string(rune('a'+i%26))+string(rune('0'+i/26))] = Params{
			WaveType: WaveType(rng.Intn(4)), BaseFreq: knob(), FreqLimit: knob(), FreqRamp: knob(),
			FreqDRamp: knob(), Duty: knob(), DutyRamp: knob(), VibStrength: knob(), VibSpeed: knob(),
			EnvAttack: knob() / 20, EnvSustain: knob() / 20, EnvDecay: knob() / 20, EnvPunch: knob(),
			LPFResonance: knob(), LPFFreq: knob(), LPFRamp: knob(), HPFFreq: knob(), HPFRamp: knob(),
			PhaOffset: knob(), PhaRamp: knob(), RepeatSpeed: knob(), ArpSpeed: knob(), ArpMod: knob(),
			SoundVol: knob(),
		}
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			v := NewVoice(1)
			v.SetParams(p)
			v.Trigger()
			for i, s := range renderAll(v, 16, 512) {
				if !(s >= -1 && s <= 1) {
					t.Fatalf("sample %d out of range: %v", i, s)
				}
			}
		})
	}
}

func TestZeroLengthEnvelopeCompletesQuickly(t *testing.T) {
	p := DefaultParams()
	p.EnvAttack, p.EnvSustain, p.EnvDecay = 0, 0, 0
	v := NewVoice(1)
	v.SetParams(p)
	v.Trigger()

	buf := make([]float32, 512)
	n := v.Synthesize(buf, DefaultMasterVolume)
	assert.LessOrEqual(t, n, 3)
	assert.False(t, v.Playing())
	for _, s := range buf[n:] {
		require.Zero(t, s)
	}
}

func TestFrequencyLimitStopsPlayback(t *testing.T) {
	p := DefaultParams()
	p.BaseFreq = 0.3
	p.FreqLimit = 0.5 // max period ~200, base period ~333
	v := NewVoice(1)
	v.SetParams(p)
	v.Trigger()

	buf := make([]float32, 64)
	n := v.Synthesize(buf, DefaultMasterVolume)
	assert.Equal(t, 1, n)
	assert.False(t, v.Playing())
}

func TestEnvelopeRunsForItsLength(t *testing.T) {
	p := DefaultParams()
	p.EnvAttack, p.EnvSustain, p.EnvDecay = 0.0625, 0.125, 0.0625 // 390 + 1562 + 390 frames
	v := NewVoice(1)
	v.SetParams(p)
	v.Trigger()

	buf := make([]float32, 4096)
	n := v.Synthesize(buf, DefaultMasterVolume)
	// sustain and decay include their zero frame, plus the final transition frame
	assert.Equal(t, 390+1562+390+3, n)
	assert.False(t, v.Playing())
}

func TestIdleVoiceRendersSilence(t *testing.T) {
	v := NewVoice(1)
	buf := []float32{0.5, -0.5, 1, -1}
	n := v.Synthesize(buf, DefaultMasterVolume)
	assert.Zero(t, n)
	assert.Equal(t, []float32{0, 0, 0, 0}, buf)
}

func TestSoftResetPreservesFilterAndEnvelope(t *testing.T) {
	p := DefaultParams()
	p.LPFFreq = 0.5
	p.FreqRamp = 0.3
	v := NewVoice(1)
	v.SetParams(p)
	v.Trigger()
	renderAll(v, 1, 300)

	fltp, fltphp, envStage, envTime, ipp := v.fltp, v.fltphp, v.envStage, v.envTime, v.ipp
	phase := v.phase
	require.NotEqual(t, float64(100/p.BaseFreq), v.fperiod, "slide should have moved the period")

	v.Reset(true)
	assert.Equal(t, fltp, v.fltp)
	assert.Equal(t, fltphp, v.fltphp)
	assert.Equal(t, envStage, v.envStage)
	assert.Equal(t, envTime, v.envTime)
	assert.Equal(t, ipp, v.ipp)
	assert.Equal(t, phase, v.phase)
	assert.InDelta(t, 100/float64(p.BaseFreq), v.fperiod, 1e-9)

	v.Reset(false)
	assert.Zero(t, v.fltp)
	assert.Zero(t, v.fltphp)
	assert.Zero(t, v.envStage)
	assert.Zero(t, v.envTime)
	assert.Zero(t, v.phase)
}

func TestNoiseBufferRefreshesOnlyAtPeriodWrap(t *testing.T) {
	p := DefaultParams()
	p.WaveType = Noise
	p.BaseFreq = 0.1 // period 1000
	v := NewVoice(3)
	v.SetParams(p)
	v.Trigger()
	before := v.noiseBuffer

	buf := make([]float32, 100) // 800 oversampled steps, no wrap yet
	v.Synthesize(buf, DefaultMasterVolume)
	assert.Equal(t, before, v.noiseBuffer)

	v.Synthesize(buf, DefaultMasterVolume)
	assert.NotEqual(t, before, v.noiseBuffer)
}

func TestRetriggerRestartsFromTheTop(t *testing.T) {
	p := DefaultParams()
	a := NewVoice(1)
	a.SetParams(p)
	a.Trigger()
	first := renderAll(a, 1, 256)

	renderAll(a, 2, 256)
	a.Trigger()
	again := renderAll(a, 1, 256)
	assert.Equal(t, first, again)
}

func BenchmarkVoiceSynthesize(b *testing.B) {
	p := DefaultParams()
	p.WaveType = Sawtooth
	p.LPFFreq = 0.5
	p.PhaOffset = 0.3
	p.RepeatSpeed = 0.5
	v := NewVoice(1)
	v.SetParams(p)
	buf := make([]float32, 512)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !v.Playing() {
			v.Trigger()
		}
		v.Synthesize(buf, DefaultMasterVolume)
	}
}
