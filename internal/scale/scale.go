// Package scale provides the diatonic modes used to pick note frequencies.
package scale

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Degrees is the number of notes in a diatonic mode.
const Degrees = 7

// Table holds the frequency ratio of each degree relative to the tonic.
type Table [Degrees]float64

// Ionian is the Pythagorean major scale.
var Ionian = Table{1, 9.0 / 8, 81.0 / 64, 4.0 / 3, 3.0 / 2, 27.0 / 16, 243.0 / 128}

// Mode is a rotation of the Ionian scale.
type Mode int

const (
	ModeIonian Mode = iota
	ModeDorian
	ModePhrygian
	ModeLydian
	ModeMixolydian
	ModeAeolian
	ModeLocrian
)

var modeNames = [...]string{"ionian", "dorian", "phrygian", "lydian", "mixolydian", "aeolian", "locrian"}

func (m Mode) String() string {
	if m.Valid() {
		return modeNames[m]
	}
	return "mode(" + strconv.Itoa(int(m)) + ")"
}

func (m Mode) Valid() bool {
	return m >= ModeIonian && m <= ModeLocrian
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid mode %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for i, name := range modeNames {
		if s == name {
			*m = Mode(i)
			return nil
		}
	}
	return fmt.Errorf("invalid mode %q", s)
}

// Table returns the ratios of m.
func (m Mode) Table() Table {
	return modes[((int(m)%Degrees)+Degrees)%Degrees]
}

var modes = func() [Degrees]Table {
	var t [Degrees]Table
	for k := range t {
		t[k] = MakeMode(k)
	}
	return t
}()

// MakeMode rotates Ionian to start on degree k and normalizes the result so
// the first entry is 1. Entries that wrapped past the octave are doubled,
// which keeps the table ascending.
func MakeMode(k int) Table {
	k = ((k % Degrees) + Degrees) % Degrees
	var t Table
	for i := range t {
		j := i + k
		r := Ionian[j%Degrees] / Ionian[k]
		if j >= Degrees {
			r *= 2
		}
		t[i] = r
	}
	return t
}

// Frequency returns the pitch of degree above tonic. Degrees outside [0, 7)
// move whole octaves up or down.
func Frequency(t Table, degree int, tonic float64) float64 {
	octave := degree / Degrees
	degree %= Degrees
	if degree < 0 {
		degree += Degrees
		octave--
	}
	return tonic * t[degree] * math.Exp2(float64(octave))
}
