package sfxd

import "math/rand"

// Mutate nudges most params by up to ±0.05, each with even odds. Pitch and
// pitch slide are left alone so a mutated sound stays in tune.
func Mutate(p *Params, rng *rand.Rand) {
	knobs := [...]*float32{
		&p.Duty, &p.DutyRamp,
		&p.VibStrength, &p.VibSpeed, &p.VibDelay,
		&p.EnvAttack, &p.EnvSustain, &p.EnvDecay, &p.EnvPunch,
		&p.LPFResonance, &p.LPFFreq, &p.LPFRamp,
		&p.HPFFreq, &p.HPFRamp,
		&p.PhaOffset, &p.PhaRamp,
		&p.RepeatSpeed,
		&p.ArpSpeed, &p.ArpMod,
	}
	for _, k := range knobs {
		if rng.Intn(2) == 1 {
			*k += frnd(rng, 0.1) - 0.05
		}
	}
}
