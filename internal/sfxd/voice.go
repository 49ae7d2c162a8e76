package sfxd

import (
	"math"
	"math/rand"
)

const (
	// DefaultMasterVolume is the output gain applied on top of SoundVol.
	DefaultMasterVolume = 0.05

	phaserSize  = 1024
	phaserMask  = phaserSize - 1
	noiseSize   = 32
	supersample = 8
	minPeriod   = 8
	maxPeriod   = 1 << 24

	pi = float32(3.14159265)
)

// Voice is the runtime state of one synthesizer channel. It is not safe for
// concurrent use; the pool hands each Voice to the audio goroutine only.
type Voice struct {
	params Params
	rng    *rand.Rand

	playing bool

	phase      int
	fperiod    float64
	fmaxperiod float64
	fslide     float64
	fdslide    float64
	period     int

	squareDuty  float32
	squareSlide float32

	envStage  int
	envTime   int
	envLength [3]int
	envVol    float32

	fphase       float32
	fdphase      float32
	iphase       int
	phaserBuffer [phaserSize]float32
	ipp          int

	noiseBuffer [noiseSize]float32

	fltp   float32
	fltdp  float32
	fltw   float32
	fltwD  float32
	fltdmp float32
	fltphp float32
	flthp  float32
	flthpD float32

	vibPhase float32
	vibSpeed float32
	vibAmp   float32

	repTime  int
	repLimit int
	arpTime  int
	arpLimit int
	arpMod   float64
}

// NewVoice returns an idle voice with default params whose noise generator
// is seeded with seed.
func NewVoice(seed int64) *Voice {
	v := &Voice{}
	v.Init(seed)
	return v
}

// Init puts v into the idle state with default params and a fresh noise
// generator. It is meant for voices embedded by value.
func (v *Voice) Init(seed int64) {
	*v = Voice{
		params: DefaultParams(),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (v *Voice) Params() Params { return v.params }

// SetParams replaces the params used by the next Reset. A running sound keeps
// its derived state until then.
func (v *Voice) SetParams(p Params) { v.params = p }

func (v *Voice) Playing() bool { return v.playing }

// Trigger hard-resets the voice from its params and starts playback.
func (v *Voice) Trigger() {
	v.Reset(false)
	v.playing = true
}

func (v *Voice) Stop() { v.playing = false }

// Reset derives the oscillator state from the params. With restart set only
// the pitch, slide, duty and arpeggio fields are reloaded, so filters,
// envelope and phaser carry on across an auto-repeat.
func (v *Voice) Reset(restart bool) {
	p := &v.params

	if !restart {
		v.phase = 0
	}
	v.fperiod = 100.0 / float64(p.BaseFreq)
	v.period = saturate(v.fperiod, minPeriod)
	v.fmaxperiod = 100.0 / (float64(p.FreqLimit) + 0.001)
	v.fslide = 1.0 - math.Pow(float64(p.FreqRamp), 3)*0.01
	v.fdslide = -math.Pow(float64(p.FreqDRamp), 3) * 0.000001
	v.squareDuty = 0.5 - p.Duty*0.5
	v.squareSlide = -p.DutyRamp * 0.00005
	if p.ArpMod >= 0 {
		v.arpMod = 1.0 - math.Pow(float64(p.ArpMod), 2)*0.9
	} else {
		v.arpMod = 1.0 + math.Pow(float64(p.ArpMod), 2)*10.0
	}
	v.arpTime = 0
	v.arpLimit = saturate(math.Pow(float64(1-p.ArpSpeed), 2)*20000+32, 0)
	if p.ArpSpeed == 1 {
		v.arpLimit = 0
	}
	if restart {
		return
	}

	v.fltp = 0
	v.fltdp = 0
	v.fltw = float32(math.Pow(float64(p.LPFFreq), 3) * 0.1)
	v.fltwD = 1 + p.LPFRamp*0.0001
	v.fltdmp = 5 / (1 + float32(math.Pow(float64(p.LPFResonance), 2))*20) * (0.01 + v.fltw)
	v.fltdmp = clamp32(v.fltdmp, 0, 0.8)
	v.fltphp = 0
	v.flthp = float32(math.Pow(float64(p.HPFFreq), 2) * 0.1)
	v.flthpD = 1 + p.HPFRamp*0.0003

	v.vibPhase = 0
	v.vibSpeed = float32(math.Pow(float64(p.VibSpeed), 2) * 0.01)
	v.vibAmp = p.VibStrength * 0.5

	v.envVol = 0
	v.envStage = 0
	v.envTime = 0
	v.envLength[0] = saturate(float64(p.EnvAttack*p.EnvAttack*100000), 0)
	v.envLength[1] = saturate(float64(p.EnvSustain*p.EnvSustain*100000), 0)
	v.envLength[2] = saturate(float64(p.EnvDecay*p.EnvDecay*100000), 0)

	v.fphase = float32(math.Pow(float64(p.PhaOffset), 2) * 1020)
	if p.PhaOffset < 0 {
		v.fphase = -v.fphase
	}
	v.fdphase = float32(math.Pow(float64(p.PhaRamp), 2))
	if p.PhaRamp < 0 {
		v.fdphase = -v.fdphase
	}
	v.iphase = phaserTap(v.fphase)
	v.ipp = 0
	clear(v.phaserBuffer[:])
	v.fillNoise()

	v.repTime = 0
	v.repLimit = saturate(math.Pow(float64(1-p.RepeatSpeed), 2)*20000+32, 0)
	if p.RepeatSpeed == 0 {
		v.repLimit = 0
	}
}

// Synthesize renders len(dst) samples in [-1, 1] and advances the voice. It
// returns how many samples were produced before the sound ended; the rest of
// dst is zeroed.
func (v *Voice) Synthesize(dst []float32, masterVol float32) int {
	p := &v.params
	i := 0
	for ; i < len(dst); i++ {
		if !v.playing {
			break
		}

		v.repTime++
		if v.repLimit != 0 && v.repTime >= v.repLimit {
			v.repTime = 0
			v.Reset(true)
		}

		// frequency envelopes/arpeggios
		v.arpTime++
		if v.arpLimit != 0 && v.arpTime >= v.arpLimit {
			v.arpLimit = 0
			v.fperiod *= v.arpMod
		}
		v.fslide += v.fdslide
		v.fperiod *= v.fslide
		if v.fperiod > v.fmaxperiod {
			v.fperiod = v.fmaxperiod
			if p.FreqLimit > 0 {
				v.playing = false
			}
		}
		rfperiod := v.fperiod
		if v.vibAmp > 0 {
			v.vibPhase += v.vibSpeed
			rfperiod = v.fperiod * (1.0 + math.Sin(float64(v.vibPhase))*float64(v.vibAmp))
		}
		v.period = saturate(rfperiod, minPeriod)
		if v.period < minPeriod {
			v.period = minPeriod
		} else if v.period > maxPeriod {
			v.period = maxPeriod
		}
		v.squareDuty = clamp32(v.squareDuty+v.squareSlide, 0, 0.5)

		v.stepEnvelope()

		v.fphase += v.fdphase
		v.iphase = phaserTap(v.fphase)

		if v.flthpD != 0 {
			v.flthp = clamp32(v.flthp*v.flthpD, 0.00001, 0.1)
		}

		var ssample float32
		for si := 0; si < supersample; si++ {
			var sample float32
			v.phase++
			if v.phase >= v.period {
				v.phase %= v.period
				if p.WaveType == Noise {
					v.fillNoise()
				}
			}
			fp := float32(v.phase) / float32(v.period)
			switch p.WaveType {
			case Square:
				if fp < v.squareDuty {
					sample = 0.5
				} else {
					sample = -0.5
				}
			case Sawtooth:
				sample = 1 - fp*2
			case Sine:
				sample = float32(math.Sin(float64(fp * 2 * pi)))
			case Noise:
				sample = v.noiseBuffer[v.phase*noiseSize/v.period]
			}

			// lp filter
			pp := v.fltp
			v.fltw = clamp32(v.fltw*v.fltwD, 0, 0.1)
			if p.LPFFreq != 1 {
				v.fltdp += (sample - v.fltp) * v.fltw
				v.fltdp -= v.fltdp * v.fltdmp
			} else {
				v.fltp = sample
				v.fltdp = 0
			}
			v.fltp += v.fltdp
			// hp filter
			v.fltphp += v.fltp - pp
			v.fltphp -= v.fltphp * v.flthp
			sample = v.fltphp
			// phaser
			v.phaserBuffer[v.ipp&phaserMask] = sample
			sample += v.phaserBuffer[(v.ipp-v.iphase+phaserSize)&phaserMask]
			v.ipp = (v.ipp + 1) & phaserMask

			ssample += sample * v.envVol
		}
		ssample = ssample / supersample * masterVol
		ssample *= 2 * p.SoundVol
		dst[i] = finiteClamp(ssample)
	}
	n := i
	clear(dst[i:])
	return n
}

func (v *Voice) stepEnvelope() {
	v.envTime++
	if v.envStage < 3 && v.envTime > v.envLength[v.envStage] {
		v.envTime = 0
		v.envStage++
		if v.envStage == 3 {
			v.playing = false
		}
	}
	switch v.envStage {
	case 0:
		v.envVol = stageRatio(v.envTime, v.envLength[0])
	case 1:
		v.envVol = 1 + (1-stageRatio(v.envTime, v.envLength[1]))*2*v.params.EnvPunch
	case 2:
		v.envVol = 1 - stageRatio(v.envTime, v.envLength[2])
	}
}

func (v *Voice) fillNoise() {
	for i := range v.noiseBuffer {
		v.noiseBuffer[i] = frnd(v.rng, 2) - 1
	}
}

// stageRatio is the elapsed fraction of an envelope stage. A zero-length
// stage counts as already complete.
func stageRatio(t, length int) float32 {
	if length <= 0 {
		return 1
	}
	return float32(t) / float32(length)
}

func phaserTap(f float32) int {
	a := math.Abs(float64(f))
	if !(a < phaserMask) {
		return phaserMask
	}
	return int(a)
}

// saturate converts f to an int, clamping to the int32 range. NaN maps to
// fallback.
func saturate(f float64, fallback int) int {
	switch {
	case math.IsNaN(f):
		return fallback
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}

// clamp32 bounds v to [lo, hi]; NaN maps to lo.
func clamp32(v, lo, hi float32) float32 {
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finiteClamp(s float32) float32 {
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

func frnd(rng *rand.Rand, r float32) float32 {
	return float32(rng.Intn(10001)) / 10000 * r
}
