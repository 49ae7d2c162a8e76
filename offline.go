package arcadesfx

import (
	"encoding/binary"

	intmix "github.com/cbegin/arcadesfx/internal/mixer"
	intsfx "github.com/cbegin/arcadesfx/internal/sfxd"
)

// RenderPatch synthesizes one trigger of p until its envelope ends or
// maxSeconds elapse, whichever is first. The synth runs at a fixed rate, so
// sampleRate only converts maxSeconds to frames.
func RenderPatch(p Params, sampleRate int, maxSeconds float64, seed int64) []int16 {
	maxFrames := int(float64(sampleRate) * maxSeconds)
	if maxFrames <= 0 {
		return nil
	}
	v := intsfx.NewVoice(seed)
	v.SetParams(p)
	v.Trigger()

	out := make([]int16, 0, min(maxFrames, DefaultSampleRate*4))
	block := make([]float32, DefaultBlockSize)
	for len(out) < maxFrames && v.Playing() {
		chunk := block[:min(len(block), maxFrames-len(out))]
		n := v.Synthesize(chunk, intsfx.DefaultMasterVolume)
		for _, s := range chunk[:n] {
			out = append(out, intmix.ToPCM16(s))
		}
	}
	return out
}

// EncodeWAVPCM16 wraps interleaved 16-bit samples in a WAV container.
func EncodeWAVPCM16(samples []int16, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 2
	byteRate := sampleRate * channels * 2
	blockAlign := channels * 2
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 16)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[44+i*2:], uint16(s))
	}
	return out
}
