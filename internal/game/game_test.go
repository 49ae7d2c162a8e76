package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushIsBounded(t *testing.T) {
	var s State
	for i := 0; i < MaxEvents; i++ {
		assert.True(t, s.Push(Event{Type: Hit, Entity: Enemy}))
	}
	assert.False(t, s.Push(Event{Type: Created, Entity: Bullet}))
	assert.Len(t, s.EventList(), MaxEvents)

	s.ResetEvents()
	assert.Empty(t, s.EventList())
}

func TestEventListClampsCorruptCount(t *testing.T) {
	s := State{NumEvents: 99}
	assert.Len(t, s.EventList(), MaxEvents)
	s.NumEvents = -4
	assert.Empty(t, s.EventList())
	assert.False(t, s.Push(Event{}))
}

func TestEnumNames(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{Created.String(), "created"},
		{Hit.String(), "hit"},
		{EventType(7).String(), "event(7)"},
		{XPChunk.String(), "xpchunk"},
		{EntityType(-1).String(), "entity(-1)"},
		{Event{Destroyed, Enemy}.String(), "destroyed(enemy)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.got)
	}

	et, ok := ParseEventType("destroyed")
	assert.True(t, ok)
	assert.Equal(t, Destroyed, et)
	_, ok = ParseEntityType("boss")
	assert.False(t, ok)
}
