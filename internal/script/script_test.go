package script

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/arcadesfx/internal/game"
)

const killEveryTenth = `
function on_tick(t)
  if t % 10 == 0 then
    emit("destroyed", "enemy")
    player.kills = player.kills + 1
    player.combo = player.combo + 1
  end
  emit("created", "bullet")
  if t >= 30 then game_over() end
end
`

func TestStepEmitsEventsAndPlayerState(t *testing.T) {
	r, err := New("kills.lua", killEveryTenth)
	require.NoError(t, err)
	defer r.Close()

	st, err := r.Step(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), st.Ticks)
	assert.Equal(t, []game.Event{
		{Type: game.Destroyed, Entity: game.Enemy},
		{Type: game.Created, Entity: game.Bullet},
	}, st.EventList())
	assert.Equal(t, 1, st.KillCount)
	assert.Equal(t, 1, st.Combo)
	assert.Equal(t, float32(1), st.Life)
	assert.Equal(t, float32(1), st.PlayerSize)
	assert.False(t, st.Over)

	st, err = r.Step(context.Background(), 11)
	require.NoError(t, err)
	assert.Len(t, st.EventList(), 1, "events reset every tick")

	st, err = r.Step(context.Background(), 30)
	require.NoError(t, err)
	assert.True(t, st.Over)
	assert.Equal(t, 2, st.KillCount)
}

func TestNewRequiresOnTick(t *testing.T) {
	_, err := New("empty.lua", "x = 1")
	assert.True(t, errors.Is(err, ErrNoTickFunc))

	_, err = New("broken.lua", "function on_tick(")
	assert.Error(t, err)
}

func TestEmitRejectsUnknownNames(t *testing.T) {
	r, err := New("bad.lua", `function on_tick(t) emit("exploded", "enemy") end`)
	require.NoError(t, err)
	defer r.Close()
	_, err = r.Step(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestEmitDropsOverflowAndLogs(t *testing.T) {
	var logs bytes.Buffer
	r, err := New("flood.lua", `
function on_tick(t)
  local kept = 0
  for i = 1, 25 do
    if emit("hit", "rocket") then kept = kept + 1 end
  end
  player.combo = kept
end`, WithLogger(log.New(&logs, "", 0)))
	require.NoError(t, err)
	defer r.Close()

	st, err := r.Step(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, game.MaxEvents, st.NumEvents)
	assert.Equal(t, game.MaxEvents, st.Combo)
	assert.Contains(t, logs.String(), "dropped 5 events")
}

func TestSandboxHasNoOS(t *testing.T) {
	r, err := New("os.lua", `function on_tick(t) os.exit(1) end`)
	require.NoError(t, err)
	defer r.Close()
	_, err = r.Step(context.Background(), 0)
	assert.Error(t, err)
}

func TestRandIsSeeded(t *testing.T) {
	src := `
rolls = {}
function on_tick(t) player.kills = rand(1000) end`
	a, err := New("a.lua", src, WithSeed(5))
	require.NoError(t, err)
	defer a.Close()
	b, err := New("b.lua", src, WithSeed(5))
	require.NoError(t, err)
	defer b.Close()

	for tick := uint32(0); tick < 5; tick++ {
		sa, err := a.Step(context.Background(), tick)
		require.NoError(t, err)
		sb, err := b.Step(context.Background(), tick)
		require.NoError(t, err)
		assert.Equal(t, sa.KillCount, sb.KillCount)
	}
}

func TestStepHonoursCancellation(t *testing.T) {
	r, err := New("spin.lua", `function on_tick(t) while true do end end`)
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.Step(ctx, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.lua")
	require.NoError(t, os.WriteFile(path, []byte(killEveryTenth), 0o644))
	r, err := LoadFile(path)
	require.NoError(t, err)
	r.Close()

	_, err = LoadFile(filepath.Join(t.TempDir(), "nope.lua"))
	assert.Error(t, err)
}
