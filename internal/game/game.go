// Package game defines the per-tick snapshot the game loop hands to the
// sequencer.
package game

import "strconv"

// MaxEvents is the number of events one tick can carry.
const MaxEvents = 20

type EventType int

const (
	Created EventType = iota
	Destroyed
	Hit
)

var eventTypeNames = [...]string{"created", "destroyed", "hit"}

func (t EventType) String() string {
	if t.Valid() {
		return eventTypeNames[t]
	}
	return "event(" + strconv.Itoa(int(t)) + ")"
}

func (t EventType) Valid() bool { return t >= Created && t <= Hit }

type EntityType int

const (
	Bullet EntityType = iota
	Rocket
	Turd
	Nova
	Enemy
	XPChunk
)

var entityTypeNames = [...]string{"bullet", "rocket", "turd", "nova", "enemy", "xpchunk"}

func (e EntityType) String() string {
	if e.Valid() {
		return entityTypeNames[e]
	}
	return "entity(" + strconv.Itoa(int(e)) + ")"
}

func (e EntityType) Valid() bool { return e >= Bullet && e <= XPChunk }

// ParseEventType looks up an event type by its String form.
func ParseEventType(s string) (EventType, bool) {
	for i, name := range eventTypeNames {
		if name == s {
			return EventType(i), true
		}
	}
	return 0, false
}

// ParseEntityType looks up an entity type by its String form.
func ParseEntityType(s string) (EntityType, bool) {
	for i, name := range entityTypeNames {
		if name == s {
			return EntityType(i), true
		}
	}
	return 0, false
}

type Event struct {
	Type   EventType
	Entity EntityType
}

func (e Event) String() string { return e.Type.String() + "(" + e.Entity.String() + ")" }

// State is everything the sequencer reads from the game in one tick.
type State struct {
	PlayerSize float32
	KillCount  int
	Combo      int
	Life       float32
	Ticks      uint32

	Events    [MaxEvents]Event
	NumEvents int

	Over bool
}

// Push appends e to the tick's events. It reports false when the list is
// full and the event was dropped.
func (s *State) Push(e Event) bool {
	if s.NumEvents < 0 || s.NumEvents >= MaxEvents {
		return false
	}
	s.Events[s.NumEvents] = e
	s.NumEvents++
	return true
}

// EventList returns the events pushed this tick. A corrupt count is clamped.
func (s *State) EventList() []Event {
	n := s.NumEvents
	if n < 0 {
		n = 0
	} else if n > MaxEvents {
		n = MaxEvents
	}
	return s.Events[:n]
}

func (s *State) ResetEvents() {
	s.NumEvents = 0
}
