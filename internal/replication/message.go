// Package replication carries change notifications of event controllers from
// the authoritative peer to every other peer.
//
// The authoritative engine publishes a Message for each change. The
// Publisher encodes it, applies it locally and sends it to the other peers;
// each peer's Dispatcher decodes it and hands it to the event of the target
// block, which refreshes its detailed info and display cache. Remote display
// state is last-write-wins by arrival order.
package replication

import (
	"fmt"

	"github.com/roach88/moreevents/internal/trigger"
)

// Kind tells which variant a Value holds.
type Kind int

const (
	KindFloat Kind = iota
	KindBool
)

func (k Kind) String() string {
	if k == KindBool {
		return "bool"
	}
	return "float"
}

// Value is the payload of a change: a float for continuous events, a
// tristate for boolean events.
type Value struct {
	Kind   Kind
	Number float64
	Flag   trigger.Tristate
}

// FloatValue wraps a continuous value.
func FloatValue(v float64) Value {
	return Value{Kind: KindFloat, Number: v}
}

// BoolValue wraps a boolean value. Unknown is carried as an absent field.
func BoolValue(v trigger.Tristate) Value {
	return Value{Kind: KindBool, Flag: v}
}

func (v Value) String() string {
	if v.Kind == KindBool {
		return v.Flag.String()
	}
	return fmt.Sprintf("%g", v.Number)
}

// Message is one replicated change notification.
type Message struct {
	// BlockID is the entity id of the controller block that owns the event.
	BlockID int64
	// EventType is the type tag receivers dispatch on.
	EventType string
	// EntityID is the observed entity the value belongs to, 0 for summaries.
	EntityID int64
	Slot     trigger.Slot
	Value    Value
}

func (m Message) String() string {
	return fmt.Sprintf("block=%d event=%s entity=%d slot=%d value=%s",
		m.BlockID, m.EventType, m.EntityID, m.Slot, m.Value)
}
