package audio

import (
	"encoding/binary"
)

// SampleSource produces mono 16-bit samples. It is called from the device
// goroutine and must not block.
type SampleSource interface {
	Process(dst []int16)
}

// Layout is the sample format a device reads.
type Layout int

const (
	LayoutMono16 Layout = iota
	LayoutStereo16
)

func (l Layout) Channels() int {
	if l == LayoutStereo16 {
		return 2
	}
	return 1
}

func (l Layout) BytesPerFrame() int { return 2 * l.Channels() }

// StreamReader adapts a SampleSource to the io.Reader a device player pulls
// from. Mono samples are duplicated to both sides for stereo layouts.
type StreamReader struct {
	source SampleSource
	layout Layout
	buf    []int16
}

// NewStreamReader sizes its scratch buffer to blockFrames. Reads of any size
// are served in chunks of at most that many frames.
func NewStreamReader(source SampleSource, layout Layout, blockFrames int) *StreamReader {
	if blockFrames < 1 {
		blockFrames = 1
	}
	return &StreamReader{
		source: source,
		layout: layout,
		buf:    make([]int16, blockFrames),
	}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	bpf := r.layout.BytesPerFrame()
	frames := len(p) / bpf
	if frames == 0 {
		return 0, nil
	}
	out := p[:frames*bpf]
	for len(out) > 0 {
		n := min(len(out)/bpf, len(r.buf))
		block := r.buf[:n]
		r.source.Process(block)
		for i, s := range block {
			u := uint16(s)
			if r.layout == LayoutStereo16 {
				binary.LittleEndian.PutUint16(out[i*4:], u)
				binary.LittleEndian.PutUint16(out[i*4+2:], u)
			} else {
				binary.LittleEndian.PutUint16(out[i*2:], u)
			}
		}
		out = out[n*bpf:]
	}
	return frames * bpf, nil
}

func (r *StreamReader) Close() error { return nil }
