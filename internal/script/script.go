// Package script drives a game.State from a Lua scenario, so the sequencer
// can be heard without a game attached.
//
// A scenario defines on_tick(tick) and talks to the host through a few
// globals:
//
//	player            table with size, kills, combo and life
//	emit(type, ent)   queue an event, e.g. emit("destroyed", "enemy")
//	game_over()       mark the run as over
//	rand(n)           seeded integer in [0, n)
//	log(...)          write a line to the host logger
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/cbegin/arcadesfx/internal/game"
)

var ErrNoTickFunc = errors.New("script: on_tick is not defined")

type Option func(*Runner)

func WithLogger(l *log.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithSeed(seed int64) Option {
	return func(r *Runner) { r.rng = rand.New(rand.NewSource(seed)) }
}

// Runner owns one Lua state. It is not safe for concurrent use.
type Runner struct {
	L      *lua.LState
	name   string
	player *lua.LTable
	state  game.State
	rng    *rand.Rand
	logger *log.Logger

	dropped int
}

// LoadFile reads and compiles the scenario at path.
func LoadFile(path string, opts ...Option) (*Runner, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return New(path, string(src), opts...)
}

// New runs src once to register on_tick. name is used in error messages.
func New(name, src string, opts ...Option) (*Runner, error) {
	r := &Runner{
		L:      lua.NewState(lua.Options{SkipOpenLibs: true}),
		name:   name,
		rng:    rand.New(rand.NewSource(1)),
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.openLibs()
	r.player = r.L.NewTable()
	r.L.SetField(r.player, "size", lua.LNumber(1))
	r.L.SetField(r.player, "kills", lua.LNumber(0))
	r.L.SetField(r.player, "combo", lua.LNumber(0))
	r.L.SetField(r.player, "life", lua.LNumber(1))
	r.L.SetGlobal("player", r.player)
	r.L.SetGlobal("emit", r.L.NewFunction(r.luaEmit))
	r.L.SetGlobal("game_over", r.L.NewFunction(r.luaGameOver))
	r.L.SetGlobal("rand", r.L.NewFunction(r.luaRand))
	r.L.SetGlobal("log", r.L.NewFunction(r.luaLog))

	fn, err := r.L.Load(strings.NewReader(src), name)
	if err != nil {
		r.L.Close()
		return nil, fmt.Errorf("script: %w", err)
	}
	r.L.Push(fn)
	if err := r.L.PCall(0, lua.MultRet, nil); err != nil {
		r.L.Close()
		return nil, fmt.Errorf("script: %w", err)
	}
	if r.L.GetGlobal("on_tick").Type() != lua.LTFunction {
		r.L.Close()
		return nil, fmt.Errorf("%w in %s", ErrNoTickFunc, name)
	}
	r.readPlayer()
	return r, nil
}

// openLibs loads the pure libraries only. Scenarios get no file or process
// access.
func (r *Runner) openLibs() {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		r.L.Push(r.L.NewFunction(lib.fn))
		r.L.Push(lua.LString(lib.name))
		r.L.Call(1, 0)
	}
	for _, unsafe := range []string{"dofile", "loadfile", "require"} {
		r.L.SetGlobal(unsafe, lua.LNil)
	}
}

// Step clears last tick's events, calls on_tick(tick) and returns the
// resulting state. The pointer stays valid until the next Step.
func (r *Runner) Step(ctx context.Context, tick uint32) (*game.State, error) {
	r.state.ResetEvents()
	r.state.Ticks = tick
	r.dropped = 0
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	err := r.L.CallByParam(lua.P{
		Fn:      r.L.GetGlobal("on_tick"),
		NRet:    0,
		Protect: true,
	}, lua.LNumber(tick))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("script %s: tick %d: %w", r.name, tick, err)
	}
	if r.dropped > 0 {
		r.logger.Printf("script: tick %d: dropped %d events over the limit of %d", tick, r.dropped, game.MaxEvents)
	}
	r.readPlayer()
	return &r.state, nil
}

func (r *Runner) State() *game.State { return &r.state }

func (r *Runner) Close() { r.L.Close() }

func (r *Runner) readPlayer() {
	r.state.PlayerSize = float32(lua.LVAsNumber(r.L.GetField(r.player, "size")))
	r.state.KillCount = int(lua.LVAsNumber(r.L.GetField(r.player, "kills")))
	r.state.Combo = int(lua.LVAsNumber(r.L.GetField(r.player, "combo")))
	r.state.Life = float32(lua.LVAsNumber(r.L.GetField(r.player, "life")))
}

func (r *Runner) luaEmit(L *lua.LState) int {
	typ, ok := game.ParseEventType(L.CheckString(1))
	if !ok {
		L.ArgError(1, "unknown event type")
		return 0
	}
	ent, ok := game.ParseEntityType(L.CheckString(2))
	if !ok {
		L.ArgError(2, "unknown entity type")
		return 0
	}
	pushed := r.state.Push(game.Event{Type: typ, Entity: ent})
	if !pushed {
		r.dropped++
	}
	L.Push(lua.LBool(pushed))
	return 1
}

func (r *Runner) luaGameOver(L *lua.LState) int {
	r.state.Over = true
	return 0
}

func (r *Runner) luaRand(L *lua.LState) int {
	n := L.CheckInt(1)
	if n <= 0 {
		L.ArgError(1, "must be positive")
		return 0
	}
	L.Push(lua.LNumber(r.rng.Intn(n)))
	return 1
}

func (r *Runner) luaLog(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.Get(i + 1).String()
	}
	r.logger.Printf("%s: %s", r.name, strings.Join(parts, " "))
	return 0
}
