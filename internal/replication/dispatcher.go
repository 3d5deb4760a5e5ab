package replication

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/moreevents/internal/metrics"
)

// Receiver is the event component of a block that renders replicated changes.
type Receiver interface {
	// EventType returns the type tag messages are routed by.
	EventType() string
	// ValueKind returns the value variant the receiver accepts.
	ValueKind() Kind
	// Apply renders a change into the block's detailed info.
	Apply(m Message)
}

// Dispatcher routes decoded messages to the receivers of their target block.
//
// Routing:
//   - payloads from non-authoritative senders are dropped
//   - malformed payloads are dropped
//   - unknown blocks and unknown event types are dropped
//   - every receiver registered for (block, event type) is called in
//     registration order
//
// Drops are never errors; they are logged at debug level and counted.
type Dispatcher struct {
	blocks  map[int64]map[string][]Receiver
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewDispatcher creates an empty dispatcher. m may be nil.
func NewDispatcher(log *slog.Logger, m *metrics.Metrics) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		blocks:  make(map[int64]map[string][]Receiver),
		log:     log,
		metrics: m,
	}
}

// Register adds r as receiver for messages addressed to blockID.
func (d *Dispatcher) Register(blockID int64, r Receiver) {
	routes, ok := d.blocks[blockID]
	if !ok {
		routes = make(map[string][]Receiver)
		d.blocks[blockID] = routes
	}
	routes[r.EventType()] = append(routes[r.EventType()], r)
}

// Unregister drops every receiver of blockID.
func (d *Dispatcher) Unregister(blockID int64) {
	delete(d.blocks, blockID)
}

// HasBlock reports whether any receiver is registered for blockID.
func (d *Dispatcher) HasBlock(blockID int64) bool {
	_, ok := d.blocks[blockID]
	return ok
}

// HandlerCount returns the number of receivers for (blockID, eventType).
func (d *Dispatcher) HandlerCount(blockID int64, eventType string) int {
	return len(d.blocks[blockID][eventType])
}

// Handle is the transport callback of a peer. It matches Handler.
func (d *Dispatcher) Handle(payload []byte, sender uuid.UUID, fromServer bool) {
	if !fromServer {
		d.drop(metrics.DropNotAuthority, "sender", sender)
		return
	}
	m, err := Unmarshal(payload)
	if err != nil {
		d.drop(metrics.DropMalformed, "sender", sender, "error", err)
		return
	}
	d.Deliver(m)
}

// Deliver routes an already decoded message.
func (d *Dispatcher) Deliver(m Message) {
	routes, ok := d.blocks[m.BlockID]
	if !ok {
		d.drop(metrics.DropUnknownBlock, "block", m.BlockID)
		return
	}
	receivers := routes[m.EventType]
	if len(receivers) == 0 {
		d.drop(metrics.DropUnknownEvent, "block", m.BlockID, "event", m.EventType)
		return
	}
	for _, r := range receivers {
		if r.ValueKind() != m.Value.Kind {
			d.drop(metrics.DropValueMismatch, "block", m.BlockID, "event", m.EventType, "kind", m.Value.Kind)
			continue
		}
		r.Apply(m)
		d.metrics.Applied(m.EventType)
	}
}

func (d *Dispatcher) drop(reason string, args ...any) {
	d.log.Debug("replication message dropped", append([]any{"reason", reason}, args...)...)
	d.metrics.Dropped(reason)
}
