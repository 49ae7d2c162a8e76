package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/cbegin/arcadesfx/internal/game"
)

const keyHelp = "keys: k kill  b bullet  r rocket  n nova  x xp  e eat xp  h hit  g grow  d damage  c combo break  q quit\r\n"

// keyboard turns raw key presses into game events. It mirrors the player
// fields a script would keep.
type keyboard struct {
	mu    sync.Mutex
	state game.State
	quit  chan struct{}
	once  sync.Once

	fd       int
	oldState *term.State
}

func newKeyboard() *keyboard {
	k := &keyboard{quit: make(chan struct{})}
	k.state.PlayerSize = 1
	k.state.Life = 1
	return k
}

// start puts stdin in raw mode and reads keys until q or Ctrl-C. The reader
// goroutine blocks on stdin and exits with the process.
func (k *keyboard) start() error {
	k.fd = int(os.Stdin.Fd())
	if !term.IsTerminal(k.fd) {
		return fmt.Errorf("interactive mode needs a terminal on stdin")
	}
	old, err := term.MakeRaw(k.fd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	k.oldState = old
	fmt.Print(keyHelp)

	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				k.stop()
				return
			}
			if n == 1 && !k.press(buf[0]) {
				k.stop()
				return
			}
		}
	}()
	return nil
}

func (k *keyboard) stop() {
	k.once.Do(func() { close(k.quit) })
}

func (k *keyboard) restore() {
	if k.oldState != nil {
		_ = term.Restore(k.fd, k.oldState)
		k.oldState = nil
	}
}

// press applies one key. It reports false for quit keys.
func (k *keyboard) press(b byte) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	s := &k.state
	switch b {
	case 'q', 3:
		return false
	case 'k':
		s.Push(game.Event{Type: game.Destroyed, Entity: game.Enemy})
		s.KillCount++
		s.Combo++
	case 'b':
		s.Push(game.Event{Type: game.Created, Entity: game.Bullet})
	case 'r':
		s.Push(game.Event{Type: game.Created, Entity: game.Rocket})
	case 'n':
		s.Push(game.Event{Type: game.Created, Entity: game.Nova})
	case 'x':
		s.Push(game.Event{Type: game.Created, Entity: game.XPChunk})
	case 'e':
		s.Push(game.Event{Type: game.Destroyed, Entity: game.XPChunk})
	case 'h':
		s.Push(game.Event{Type: game.Hit, Entity: game.Enemy})
	case 'g':
		s.PlayerSize += 0.1
	case 'd':
		s.Life -= 0.25
		s.Combo = 0
		if s.Life <= 0 {
			s.Over = true
		}
	case 'c':
		s.Combo = 0
	}
	return true
}

// step hands the tick's events to fn and clears them. The lock is held
// while fn runs so key presses land in the next tick.
func (k *keyboard) step(ctx context.Context, tick uint32, fn func(*game.State)) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-k.quit:
		return errQuit
	default:
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.state.Ticks = tick
	fn(&k.state)
	k.state.ResetEvents()
	return nil
}
