package arcadesfx

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	intaudio "github.com/cbegin/arcadesfx/internal/audio"
	intmix "github.com/cbegin/arcadesfx/internal/mixer"
	intpool "github.com/cbegin/arcadesfx/internal/pool"
	intscale "github.com/cbegin/arcadesfx/internal/scale"
	intseq "github.com/cbegin/arcadesfx/internal/sequencer"
	intsfx "github.com/cbegin/arcadesfx/internal/sfxd"
)

const (
	DefaultSampleRate = 44100
	DefaultBlockSize  = intmix.DefaultBlockSize
	MaxChannels       = intpool.MaxChannels
)

// ErrDeviceActive is returned by Render while a device is pulling samples.
var ErrDeviceActive = errors.New("render: audio device is running")

type Option func(*systemConfig)

type systemConfig struct {
	sampleRate  int
	blockSize   int
	channels    int
	backend     Backend
	mute        bool
	seed        int64
	masterVol   float32
	mode        Mode
	baseNote    float64
	minBPM      float64
	octaves     int
	logger      *log.Logger
	bus         Processor
	instruments map[Role]Params
	sampleTap   func([]int16)
}

func defaultSystemConfig() systemConfig {
	return systemConfig{
		sampleRate: DefaultSampleRate,
		blockSize:  DefaultBlockSize,
		channels:   MaxChannels,
		backend:    BackendEbiten,
		seed:       1,
		masterVol:  intsfx.DefaultMasterVolume,
	}
}

func WithSampleRate(rate int) Option {
	return func(cfg *systemConfig) {
		cfg.sampleRate = rate
	}
}

// WithBlockSize sets the number of frames mixed per device pull.
func WithBlockSize(frames int) Option {
	return func(cfg *systemConfig) {
		cfg.blockSize = frames
	}
}

// WithChannels sets the pool size. The sequencer needs one channel per role;
// extra channels are free for PlayPatch.
func WithChannels(n int) Option {
	return func(cfg *systemConfig) {
		cfg.channels = n
	}
}

func WithBackend(b Backend) Option {
	return func(cfg *systemConfig) {
		cfg.backend = b
	}
}

// WithMute skips the audio device entirely. A muted System is rendered by
// calling Render.
func WithMute(mute bool) Option {
	return func(cfg *systemConfig) {
		cfg.mute = mute
	}
}

// WithSeed seeds noise, mutation and bell decisions.
func WithSeed(seed int64) Option {
	return func(cfg *systemConfig) {
		cfg.seed = seed
	}
}

func WithMasterVolume(v float32) Option {
	return func(cfg *systemConfig) {
		cfg.masterVol = v
	}
}

func WithMode(m Mode) Option {
	return func(cfg *systemConfig) {
		cfg.mode = m
	}
}

// WithBaseNote sets the tonic as an sfxr base frequency.
func WithBaseNote(f float64) Option {
	return func(cfg *systemConfig) {
		cfg.baseNote = f
	}
}

func WithMinBPM(bpm float64) Option {
	return func(cfg *systemConfig) {
		cfg.minBPM = bpm
	}
}

func WithOctaves(n int) Option {
	return func(cfg *systemConfig) {
		cfg.octaves = n
	}
}

func WithLogger(l *log.Logger) Option {
	return func(cfg *systemConfig) {
		cfg.logger = l
	}
}

// WithMasterBus installs a processor on the mixed signal. It runs on the
// audio goroutine.
func WithMasterBus(p Processor) Option {
	return func(cfg *systemConfig) {
		cfg.bus = p
	}
}

// WithInstruments replaces the patches of the given roles.
func WithInstruments(m map[Role]Params) Option {
	return func(cfg *systemConfig) {
		cfg.instruments = m
	}
}

// WithSampleTap installs a callback invoked with each mixed block.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]int16)) Option {
	return func(cfg *systemConfig) {
		cfg.sampleTap = tap
	}
}

// System ties the channel pool, mixer, sequencer and output device together.
// Update and the channel calls may come from any goroutine; they are
// serialized internally and never block the audio thread.
type System struct {
	mu     sync.Mutex
	cfg    systemConfig
	pool   *intpool.Pool
	mixer  *intmix.Mixer
	seq    *intseq.Sequencer
	source *tapSource
	out    *intaudio.Player
	logger *log.Logger
}

// tapSource feeds the device from the mixer.
type tapSource struct {
	mixer *intmix.Mixer
	tap   func([]int16)
}

func (t *tapSource) Process(dst []int16) {
	t.mixer.Process(dst)
	if t.tap != nil {
		t.tap(dst)
	}
}

// Open builds a System and starts audio output. If the device cannot be
// opened, Open still returns a working muted System together with an error
// wrapping ErrAudioDeviceUnavailable. Any other error means the options
// were invalid and the System is nil.
func Open(opts ...Option) (*System, error) {
	cfg := defaultSystemConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	logger := cfg.logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cfg.sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %d must be positive", cfg.sampleRate)
	}

	pool, err := intpool.New(cfg.channels,
		intpool.WithSeed(cfg.seed),
		intpool.WithMasterVolume(cfg.masterVol),
		intpool.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	var mixOpts []intmix.Option
	if cfg.bus != nil {
		mixOpts = append(mixOpts, intmix.WithProcessor(cfg.bus))
	}
	mixer, err := intmix.New(pool, cfg.blockSize, mixOpts...)
	if err != nil {
		return nil, err
	}
	seq, err := intseq.New(pool, intseq.Options{
		Mode:        cfg.mode,
		BaseNote:    cfg.baseNote,
		MinBPM:      cfg.minBPM,
		Octaves:     cfg.octaves,
		Seed:        cfg.seed,
		Instruments: cfg.instruments,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	s := &System{
		cfg:    cfg,
		pool:   pool,
		mixer:  mixer,
		seq:    seq,
		source: &tapSource{mixer: mixer, tap: cfg.sampleTap},
		logger: logger,
	}
	if cfg.mute {
		return s, nil
	}
	out, err := intaudio.Open(cfg.backend, cfg.sampleRate, cfg.blockSize, s.source)
	if err != nil {
		logger.Printf("audio: %v; continuing muted", err)
		if !errors.Is(err, ErrAudioDeviceUnavailable) {
			err = fmt.Errorf("%w: %v", ErrAudioDeviceUnavailable, err)
		}
		return s, err
	}
	s.out = out
	s.out.Play()
	return s, nil
}

// Update feeds one game tick to the sequencer. tick is in milliseconds.
func (s *System) Update(state *GameState, tick uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq.Update(state, tick)
}

// PlayPatch loads p into channel ch and triggers it.
func (s *System) PlayPatch(ch int, p Params) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.SetParams(ch, p) && s.pool.Play(ch)
}

// Play retriggers channel ch with its current params.
func (s *System) Play(ch int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Play(ch)
}

// Params returns the current patch of channel ch.
func (s *System) Params(ch int) (Params, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Params(ch)
}

// Active reports whether channel ch is sounding or about to.
func (s *System) Active(ch int) bool { return s.pool.Active(ch) }

func (s *System) Channels() int { return s.pool.Len() }

// Tempo is the beat tempo computed by the last Update.
func (s *System) Tempo() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq.Tempo()
}

func (s *System) SetMasterVolume(v float32) { s.pool.SetMasterVolume(v) }

func (s *System) MasterVolume() float32 { return s.pool.MasterVolume() }

func (s *System) SampleRate() int { return s.cfg.sampleRate }

// Muted reports whether no device is attached.
func (s *System) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out == nil
}

// Backend returns the backend in use, or "" when muted.
func (s *System) Backend() Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == nil {
		return ""
	}
	return s.out.Backend()
}

// Render mixes the next len(dst) samples on the calling goroutine. It is
// only available while muted, since a running device owns the audio side.
func (s *System) Render(dst []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out != nil {
		return ErrDeviceActive
	}
	s.source.Process(dst)
	return nil
}

func (s *System) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out != nil {
		s.out.Pause()
	}
}

func (s *System) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out != nil {
		s.out.Play()
	}
}

// Close stops the device. The System stays usable as a muted System.
func (s *System) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == nil {
		return nil
	}
	err := s.out.Close()
	s.out = nil
	return err
}

// Roles lists the sequencer parts in channel order.
func Roles() []Role { return intseq.Roles() }

// DefaultInstruments returns the built-in patch of every role.
func DefaultInstruments() map[Role]Params { return intseq.DefaultInstruments() }

// Modes lists the diatonic modes.
func Modes() []Mode {
	out := make([]Mode, 0, intscale.Degrees)
	for m := intscale.ModeIonian; m <= intscale.ModeLocrian; m++ {
		out = append(out, m)
	}
	return out
}
