package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cbegin/arcadesfx"
	"github.com/cbegin/arcadesfx/internal/config"
	"github.com/cbegin/arcadesfx/internal/game"
	"github.com/cbegin/arcadesfx/internal/script"
)

//go:embed scenario.lua
var defaultScenario string

var errQuit = errors.New("quit")

// driver produces one game.State per tick.
type driver interface {
	step(ctx context.Context, tick uint32, fn func(*game.State)) error
}

type scriptDriver struct{ r *script.Runner }

func (d scriptDriver) step(ctx context.Context, tick uint32, fn func(*game.State)) error {
	st, err := d.r.Step(ctx, tick)
	if err != nil {
		return err
	}
	fn(st)
	return nil
}

func main() {
	var (
		configPath  = flag.String("config", "", "path to a YAML config file")
		backendName = flag.String("backend", "", "audio backend: ebiten|oto|null (overrides config)")
		scriptPath  = flag.String("script", "", "Lua scenario driving the game state (default: built-in demo)")
		duration    = flag.Duration("duration", 30*time.Second, "stop after this long (0 = until game over)")
		tickMs      = flag.Int("tick", 20, "game tick in milliseconds")
		interactive = flag.Bool("interactive", false, "drive events from the keyboard instead of a scenario")
		renderPath  = flag.String("render", "", "write a WAV file instead of playing")
		patch       = flag.String("patch", "", "sfxr settings string to play once (or render with -render)")
		mute        = flag.Bool("mute", false, "run without an audio device")
		volume      = flag.Float64("volume", -1, "master volume 0..1 (negative keeps config)")
		seed        = flag.Int64("seed", 0, "random seed (0 keeps config)")
		verbose     = flag.Bool("v", false, "log to stderr")
	)
	flag.Parse()

	logger := log.New(io.Discard, "", 0)
	if *verbose {
		logger = log.New(os.Stderr, "arcadesfx: ", log.Ltime|log.Lmicroseconds)
	}
	if *tickMs <= 0 {
		log.Fatalf("invalid -tick %d (must be positive)", *tickMs)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *backendName != "" {
		cfg.Backend = *backendName
	}
	if *mute || *renderPath != "" {
		cfg.Mute = true
	}
	if *volume >= 0 {
		cfg.MasterVolume = float32(*volume)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	opts, err := cfg.Options()
	if err != nil {
		log.Fatal(err)
	}
	opts = append(opts, arcadesfx.WithLogger(logger))

	var patchParams *arcadesfx.Params
	if strings.TrimSpace(*patch) != "" {
		p, err := arcadesfx.ParseSettings(*patch)
		if err != nil {
			log.Fatalf("invalid -patch: %v", err)
		}
		patchParams = &p
	}

	if *renderPath != "" && patchParams != nil {
		maxSeconds := duration.Seconds()
		if maxSeconds <= 0 || maxSeconds > 10 {
			maxSeconds = 10
		}
		samples := arcadesfx.RenderPatch(*patchParams, cfg.SampleRate, maxSeconds, cfg.Seed)
		writeWAV(*renderPath, samples, cfg.SampleRate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sys, err := arcadesfx.Open(opts...)
	if err != nil {
		if !errors.Is(err, arcadesfx.ErrAudioDeviceUnavailable) {
			log.Fatal(err)
		}
		fmt.Fprintf(os.Stderr, "warning: %v; running muted\n", err)
	}
	defer sys.Close()

	if patchParams != nil {
		playPatch(ctx, sys, *patchParams, cfg.Seed)
		return
	}

	var drv driver
	if *interactive {
		kb := newKeyboard()
		if err := kb.start(); err != nil {
			log.Fatal(err)
		}
		defer kb.restore()
		drv = kb
	} else {
		r, err := loadScenario(*scriptPath, cfg.Seed, logger)
		if err != nil {
			log.Fatal(err)
		}
		defer r.Close()
		drv = scriptDriver{r}
	}

	if *renderPath != "" {
		samples, err := renderRun(ctx, sys, drv, *tickMs, *duration)
		if err != nil {
			log.Fatal(err)
		}
		writeWAV(*renderPath, samples, cfg.SampleRate)
		return
	}

	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}
	g, ctx := errgroup.WithContext(ctx)
	tempo := make(chan float64, 1)
	g.Go(func() error { return runLive(ctx, sys, drv, *tickMs, tempo) })
	if *verbose {
		g.Go(func() error { return reportTempo(ctx, logger, tempo) })
	}
	err = g.Wait()
	if err != nil && !errors.Is(err, errQuit) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		if *interactive {
			log.Printf("%v\r", err)
			return
		}
		log.Fatal(err)
	}
}

func loadScenario(path string, seed int64, logger *log.Logger) (*script.Runner, error) {
	opts := []script.Option{script.WithSeed(seed), script.WithLogger(logger)}
	if path == "" {
		return script.New("scenario.lua", defaultScenario, opts...)
	}
	return script.LoadFile(path, opts...)
}

// runLive steps the driver on a wall-clock ticker until the game ends.
func runLive(ctx context.Context, sys *arcadesfx.System, drv driver, tickMs int, tempo chan<- float64) error {
	ticker := time.NewTicker(time.Duration(tickMs) * time.Millisecond)
	defer ticker.Stop()
	start := time.Now()
	var over bool
	for {
		tick := uint32(time.Since(start).Milliseconds())
		err := drv.step(ctx, tick, func(st *game.State) {
			sys.Update(st, tick)
			over = st.Over
		})
		if err != nil {
			return err
		}
		select {
		case tempo <- sys.Tempo():
		default:
		}
		if over {
			return errQuit
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func reportTempo(ctx context.Context, logger *log.Logger, tempo <-chan float64) error {
	last := -1.0
	for {
		select {
		case <-ctx.Done():
			return nil
		case bpm := <-tempo:
			if bpm != last {
				logger.Printf("tempo %.0f bpm", bpm)
				last = bpm
			}
		}
	}
}

// renderRun advances the game clock by tickMs per step and mixes exactly
// that much audio, so the result does not depend on wall time.
func renderRun(ctx context.Context, sys *arcadesfx.System, drv driver, tickMs int, limit time.Duration) ([]int16, error) {
	if limit <= 0 || limit > 5*time.Minute {
		limit = 5 * time.Minute
	}
	rate := sys.SampleRate()
	total := int(limit.Seconds() * float64(rate))
	out := make([]int16, 0, total)
	var over bool
	for tick := uint32(0); len(out) < total && !over; tick += uint32(tickMs) {
		err := drv.step(ctx, tick, func(st *game.State) {
			sys.Update(st, tick)
			over = st.Over
		})
		if err != nil {
			return nil, err
		}
		end := min(total, int(uint64(tick+uint32(tickMs))*uint64(rate)/1000))
		if end <= len(out) {
			continue
		}
		block := make([]int16, end-len(out))
		if err := sys.Render(block); err != nil {
			return nil, err
		}
		out = append(out, block...)
	}
	return out, nil
}

func playPatch(ctx context.Context, sys *arcadesfx.System, p arcadesfx.Params, seed int64) {
	spare := len(arcadesfx.Roles())
	if !sys.PlayPatch(spare, p) {
		log.Fatalf("no spare channel for -patch (have %d channels)", sys.Channels())
	}
	frames := len(arcadesfx.RenderPatch(p, sys.SampleRate(), 10, seed))
	wait := time.Duration(frames) * time.Second / time.Duration(sys.SampleRate())
	select {
	case <-ctx.Done():
	case <-time.After(wait + 100*time.Millisecond):
	}
}

func writeWAV(path string, samples []int16, rate int) {
	if err := os.WriteFile(path, arcadesfx.EncodeWAVPCM16(samples, rate, 1), 0o644); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s (%.2fs)\n", path, float64(len(samples))/float64(rate))
}
