package audio

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// ErrDeviceUnavailable reports that no output device could be opened. The
// caller is expected to carry on muted.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

type Backend string

const (
	BackendEbiten Backend = "ebiten"
	BackendOto    Backend = "oto"
	BackendNull   Backend = "null"
)

func ParseBackend(s string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(s)))
	switch b {
	case BackendEbiten, BackendOto, BackendNull:
		return b, nil
	case "":
		return BackendEbiten, nil
	}
	return "", fmt.Errorf("unknown audio backend %q (expected ebiten|oto|null)", s)
}

// otoReadyTimeout bounds the wait for the device to come up.
const otoReadyTimeout = 3 * time.Second

type device interface {
	Play()
	Pause()
	Close() error
}

// Player streams a SampleSource to one output device.
type Player struct {
	backend Backend
	device  device
	reader  *StreamReader
}

// Open creates a paused player on the given backend. blockSize is the
// number of frames the source renders per pull.
func Open(kind Backend, sampleRate, blockSize int, source SampleSource) (*Player, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil sample source", ErrDeviceUnavailable)
	}
	if sampleRate <= 0 || blockSize <= 0 {
		return nil, fmt.Errorf("%w: invalid format %d Hz / %d frames", ErrDeviceUnavailable, sampleRate, blockSize)
	}
	block := time.Duration(blockSize) * time.Second / time.Duration(sampleRate)

	switch kind {
	case BackendEbiten:
		ctx, err := sharedEbitenContext(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		reader := NewStreamReader(source, LayoutStereo16, blockSize)
		pl, err := ctx.NewPlayer(reader)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		pl.SetBufferSize(block)
		return &Player{backend: kind, device: pl, reader: reader}, nil

	case BackendOto:
		ctx, err := sharedOtoContext(sampleRate, block)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		reader := NewStreamReader(source, LayoutMono16, blockSize)
		return &Player{backend: kind, device: ctx.NewPlayer(reader), reader: reader}, nil

	case BackendNull:
		reader := NewStreamReader(source, LayoutMono16, blockSize)
		return &Player{backend: kind, device: newNullDevice(reader, blockSize, block), reader: reader}, nil
	}
	return nil, fmt.Errorf("%w: unknown backend %q", ErrDeviceUnavailable, kind)
}

func (p *Player) Backend() Backend { return p.backend }

func (p *Player) Play()  { p.device.Play() }
func (p *Player) Pause() { p.device.Pause() }

func (p *Player) Close() error {
	p.device.Pause()
	err := p.device.Close()
	if cerr := p.reader.Close(); err == nil {
		err = cerr
	}
	return err
}

// One process drives one device context, whichever backend opened it first.
var (
	deviceMu      sync.Mutex
	deviceOwner   Backend
	deviceRate    int
	ebitenContext *ebitaudio.Context
	otoContext    *oto.Context
)

func claimDevice(kind Backend, sampleRate int) error {
	if deviceOwner == "" {
		return nil
	}
	if deviceOwner != kind {
		return fmt.Errorf("%s backend already owns the device", deviceOwner)
	}
	if deviceRate != sampleRate {
		return fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", deviceRate, sampleRate)
	}
	return nil
}

func sharedEbitenContext(sampleRate int) (*ebitaudio.Context, error) {
	deviceMu.Lock()
	defer deviceMu.Unlock()
	if err := claimDevice(BackendEbiten, sampleRate); err != nil {
		return nil, err
	}
	if ebitenContext == nil {
		ebitenContext = ebitaudio.NewContext(sampleRate)
		deviceOwner, deviceRate = BackendEbiten, sampleRate
	}
	return ebitenContext, nil
}

func sharedOtoContext(sampleRate int, buffer time.Duration) (*oto.Context, error) {
	deviceMu.Lock()
	defer deviceMu.Unlock()
	if err := claimDevice(BackendOto, sampleRate); err != nil {
		return nil, err
	}
	if otoContext != nil {
		return otoContext, nil
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   buffer,
	})
	if err != nil {
		return nil, err
	}
	select {
	case <-ready:
	case <-time.After(otoReadyTimeout):
		return nil, fmt.Errorf("oto: device not ready after %v", otoReadyTimeout)
	}
	otoContext = ctx
	deviceOwner, deviceRate = BackendOto, sampleRate
	return otoContext, nil
}
