package arcadesfx

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPatchStopsWithEnvelope(t *testing.T) {
	samples := RenderPatch(DefaultParams(), DefaultSampleRate, 2, 1)
	// sustain 0.3 and decay 0.4 last 9000 and 16000 frames
	assert.InDelta(t, 25003, len(samples), 1)

	var peak int16
	for _, s := range samples {
		if s > peak {
			peak = s
		}
	}
	assert.Greater(t, peak, int16(100))
}

func TestRenderPatchHonoursMaxSeconds(t *testing.T) {
	samples := RenderPatch(DefaultParams(), DefaultSampleRate, 0.1, 1)
	assert.Len(t, samples, 4410)
	assert.Empty(t, RenderPatch(DefaultParams(), DefaultSampleRate, 0, 1))
}

func TestRenderPatchIsDeterministic(t *testing.T) {
	p := DefaultParams()
	p.WaveType = Noise
	a := RenderPatch(p, DefaultSampleRate, 0.2, 9)
	b := RenderPatch(p, DefaultSampleRate, 0.2, 9)
	assert.Equal(t, a, b)
}

func TestEncodeWAVPCM16(t *testing.T) {
	wav := EncodeWAVPCM16([]int16{0, -1, 32767}, 44100, 1)
	require.Len(t, wav, 44+6)
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:]), "PCM format")
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:]))
	assert.Equal(t, uint32(44100), binary.LittleEndian.Uint32(wav[24:]))
	assert.Equal(t, uint32(88200), binary.LittleEndian.Uint32(wav[28:]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:]))
	assert.Equal(t, uint32(6), binary.LittleEndian.Uint32(wav[40:]))
	assert.Equal(t, int16(-1), int16(binary.LittleEndian.Uint16(wav[46:])))
	assert.Equal(t, int16(32767), int16(binary.LittleEndian.Uint16(wav[48:])))
}
