package mixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/arcadesfx/internal/pool"
	"github.com/cbegin/arcadesfx/internal/sfxd"
)

// constSource plays a constant level on each active channel.
type constSource struct {
	levels []float32
	active []bool
	calls  int
}

func (s *constSource) Len() int { return len(s.levels) }

func (s *constSource) Render(ch int, dst []float32) bool {
	s.calls++
	if !s.active[ch] {
		return false
	}
	for i := range dst {
		dst[i] = s.levels[ch]
	}
	return true
}

type gain float32

func (g gain) Process(s float32) float32 { return s * float32(g) }

func TestNewValidates(t *testing.T) {
	_, err := New(nil, 512)
	assert.Error(t, err)
	_, err = New(&constSource{}, 0)
	assert.Error(t, err)
}

func TestIdleChannelsAreSilent(t *testing.T) {
	src := &constSource{levels: []float32{0.5, 0.5}, active: []bool{false, false}}
	m, err := New(src, 64)
	require.NoError(t, err)

	dst := []int16{1, 2, 3, 4}
	m.Process(dst)
	assert.Equal(t, []int16{0, 0, 0, 0}, dst)
}

func TestMixIsAdditive(t *testing.T) {
	src := &constSource{levels: []float32{0.25, 0.125, 0.5}, active: []bool{true, true, false}}
	m, err := New(src, 64)
	require.NoError(t, err)

	out := make([]float32, 10)
	m.ProcessFloat(out)
	for _, s := range out {
		assert.Equal(t, float32(0.375), s)
	}

	pcm := make([]int16, 10)
	m.Process(pcm)
	for _, s := range pcm {
		assert.Equal(t, int16(12287), s)
	}
}

func TestSumIsClamped(t *testing.T) {
	src := &constSource{levels: []float32{0.75, 0.75, -3}, active: []bool{true, true, false}}
	m, err := New(src, 8)
	require.NoError(t, err)
	pcm := make([]int16, 4)
	m.Process(pcm)
	assert.Equal(t, []int16{32767, 32767, 32767, 32767}, pcm)

	src.active = []bool{false, false, true}
	m.Process(pcm)
	assert.Equal(t, []int16{-32767, -32767, -32767, -32767}, pcm)
}

func TestProcessChunksLongBuffers(t *testing.T) {
	src := &constSource{levels: []float32{0.5}, active: []bool{true}}
	m, err := New(src, 100)
	require.NoError(t, err)

	pcm := make([]int16, 250)
	m.Process(pcm)
	assert.Equal(t, 3, src.calls)
	for i, s := range pcm {
		require.Equal(t, int16(16383), s, "sample %d", i)
	}
}

func TestProcessorRunsBeforeClamp(t *testing.T) {
	src := &constSource{levels: []float32{0.8, 0.8}, active: []bool{true, true}}
	m, err := New(src, 16, WithProcessor(gain(0.5)))
	require.NoError(t, err)
	out := make([]float32, 4)
	m.ProcessFloat(out)
	assert.InDelta(t, 0.8, out[0], 1e-6)
}

func TestToPCM16(t *testing.T) {
	assert.Equal(t, int16(0), ToPCM16(0))
	assert.Equal(t, int16(32767), ToPCM16(2))
	assert.Equal(t, int16(-32767), ToPCM16(-1))
	assert.Equal(t, int16(0), ToPCM16(float32(nanValue())))
}

func nanValue() float64 {
	zero := 0.0
	return zero / zero
}

func TestMixesPoolChannels(t *testing.T) {
	p, err := pool.New(3)
	require.NoError(t, err)
	m, err := New(p, 512)
	require.NoError(t, err)

	pcm := make([]int16, 512)
	m.Process(pcm)
	assert.Equal(t, make([]int16, 512), pcm, "idle pool is silent")

	p.Play(1)
	m.Process(pcm)
	assert.NotEqual(t, make([]int16, 512), pcm)
}

func BenchmarkMixerProcess(b *testing.B) {
	p, err := pool.New(pool.MaxChannels)
	if err != nil {
		b.Fatal(err)
	}
	params := sfxd.DefaultParams()
	params.WaveType = sfxd.Sawtooth
	params.LPFFreq = 0.4
	params.PhaOffset = 0.2
	params.EnvSustain = 2 // long enough to stay active
	for ch := 0; ch < p.Len(); ch++ {
		p.SetParams(ch, params)
		p.Play(ch)
	}
	m, err := New(p, DefaultBlockSize)
	if err != nil {
		b.Fatal(err)
	}
	pcm := make([]int16, DefaultBlockSize)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Process(pcm)
	}
}
