// Package controller models the event controller block that owns the add-on
// events: its configuration, its two action slots and its detailed info panel.
//
// A Block is the trigger.Host of every event attached to it. Exactly one
// event is selected at a time; configuration changes resync that event.
package controller

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/moreevents/internal/trigger"
)

// DefaultThreshold is the threshold of a freshly built block.
const DefaultThreshold = 0.5

// Block is one event controller.
//
// Block is not safe for concurrent use; the owning session drives it from a
// single goroutine.
type Block struct {
	id   int64
	name string
	grid int64

	threshold    float64
	lowerOrEqual bool
	andMode      bool
	working      bool

	events   []Event
	selected Event

	actions   []trigger.Slot
	listeners *hooks[trigger.Slot]
	closers   *hooks[struct{}]
	closed    bool

	info string
	log  *slog.Logger
}

// Option configures a Block.
type Option func(*Block)

// WithGrid sets the id of the grid the block is built on.
func WithGrid(grid int64) Option {
	return func(b *Block) { b.grid = grid }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Block) {
		if l != nil {
			b.log = l
		}
	}
}

// NewBlock creates a working block with the default configuration.
func NewBlock(id int64, name string, opts ...Option) *Block {
	b := &Block{
		id:        id,
		name:      name,
		threshold: DefaultThreshold,
		working:   true,
		listeners: newHooks[trigger.Slot](),
		closers:   newHooks[struct{}](),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With("controller", id)
	return b
}

func (b *Block) EntityID() int64     { return b.id }
func (b *Block) DisplayName() string { return b.name }

// Grid returns the id of the grid the block is built on.
func (b *Block) Grid() int64 { return b.grid }

// IsActive reports whether the block is built and working.
func (b *Block) IsActive() bool { return b.working && !b.closed }

func (b *Block) Mode() trigger.Mode { return trigger.ModeOf(b.andMode) }

func (b *Block) Direction() trigger.Direction { return trigger.DirectionOf(b.lowerOrEqual) }

// InvokeAction triggers the action in slot and notifies action listeners.
func (b *Block) InvokeAction(slot trigger.Slot) {
	b.log.Info("action triggered", "slot", int(slot))
	b.actions = append(b.actions, slot)
	b.listeners.fire(slot)
}

// Actions returns every action triggered so far, oldest first.
func (b *Block) Actions() []trigger.Slot {
	return slices.Clone(b.actions)
}

// OnActionTriggered registers fn for every triggered action. The returned
// function detaches it.
func (b *Block) OnActionTriggered(fn func(trigger.Slot)) (detach func()) {
	return b.listeners.add(fn)
}

// OnClose registers fn to run when the block is closed.
func (b *Block) OnClose(fn func()) (detach func()) {
	return b.closers.add(func(struct{}) { fn() })
}

// Close removes the block from the world: observers are told first, then
// every event releases its sources.
func (b *Block) Close() {
	if b.closed {
		return
	}
	b.closed = true
	b.log.Debug("controller closed")
	b.closers.fire(struct{}{})
	for _, e := range b.events {
		e.Close()
	}
}

// Closed reports whether Close was called.
func (b *Block) Closed() bool { return b.closed }

func (b *Block) Threshold() float64 { return b.threshold }

// SetThreshold changes the threshold and resyncs the selected event.
func (b *Block) SetThreshold(v float64) {
	if b.threshold == v {
		return
	}
	b.threshold = v
	b.log.Debug("threshold changed", "threshold", v)
	b.resync()
}

func (b *Block) LowerOrEqual() bool { return b.lowerOrEqual }

// SetLowerOrEqual changes the comparison direction and resyncs the selected
// event.
func (b *Block) SetLowerOrEqual(v bool) {
	if b.lowerOrEqual == v {
		return
	}
	b.lowerOrEqual = v
	b.log.Debug("direction changed", "direction", b.Direction())
	b.resync()
}

func (b *Block) AndMode() bool { return b.andMode }

// SetAndMode switches between OR and AND aggregation.
func (b *Block) SetAndMode(v bool) {
	b.andMode = v
}

func (b *Block) Working() bool { return b.working }

// SetWorking enables or disables the block.
func (b *Block) SetWorking(v bool) {
	b.working = v
}

func (b *Block) resync() {
	if b.selected != nil {
		b.selected.NotifyValuesChanged()
	}
}

// Attach adds an event component. Attaching a second event with the same
// selection id fails.
func (b *Block) Attach(e Event) error {
	for _, have := range b.events {
		if have.SelectionID() == e.SelectionID() {
			return fmt.Errorf("attach %s: selection id %d already used by %s", e.Tag(), e.SelectionID(), have.Tag())
		}
	}
	b.events = append(b.events, e)
	return nil
}

// Events returns the attached events in attach order.
func (b *Block) Events() []Event {
	return slices.Clone(b.events)
}

// Event returns the attached event with the given tag.
func (b *Block) Event(tag string) (Event, bool) {
	for _, e := range b.events {
		if e.Tag() == tag {
			return e, true
		}
	}
	return nil, false
}

// Selected returns the selected event, nil if none.
func (b *Block) Selected() Event { return b.selected }

// Select makes the event with selectionID the active one. The previously
// selected event releases its observed blocks.
func (b *Block) Select(selectionID int64) error {
	var next Event
	for _, e := range b.events {
		if e.SelectionID() == selectionID {
			next = e
			break
		}
	}
	if next == nil {
		return fmt.Errorf("select event %d: not attached to controller %d", selectionID, b.id)
	}
	if next == b.selected {
		return nil
	}
	if b.selected != nil {
		b.selected.SetSelected(false)
		b.selected.Close()
	}
	b.selected = next
	next.SetSelected(true)
	b.log.Info("event selected", "event", next.Tag())
	return nil
}

// AddBlocks adds sources to the selected event. Sources the event does not
// accept are skipped.
func (b *Block) AddBlocks(sources ...trigger.Source) {
	if b.selected == nil || !b.selected.Uses().Blocks {
		return
	}
	accepted := make([]trigger.Source, 0, len(sources))
	for _, src := range sources {
		if b.selected.Accepts(src) {
			accepted = append(accepted, src)
		} else {
			b.log.Debug("block not valid for event", "event", b.selected.Tag(), "entity", src.EntityID())
		}
	}
	b.selected.AddBlocks(accepted...)
}

// RemoveBlocks removes sources from the selected event.
func (b *Block) RemoveBlocks(sources ...trigger.Source) {
	if b.selected != nil {
		b.selected.RemoveBlocks(sources...)
	}
}

// DetailedInfo returns the rendered detailed info panel.
func (b *Block) DetailedInfo() string { return b.info }

// SetDetailedInfo replaces the detailed info panel.
func (b *Block) SetDetailedInfo(s string) { b.info = s }
