package controller

import (
	"github.com/roach88/moreevents/internal/text"
	"github.com/roach88/moreevents/internal/trigger"
)

// Uses tells which controller settings an event reads.
type Uses struct {
	Threshold bool
	Condition bool
	Blocks    bool
}

// Event is an event component attached to a Block.
type Event interface {
	// Tag is the component type name used for routing and persistence.
	Tag() string
	SelectionID() int64
	DisplayName() text.Key
	Uses() Uses

	IsSelected() bool
	SetSelected(selected bool)

	// Accepts reports whether src may be added to the block list.
	Accepts(src trigger.Source) bool
	AddBlocks(sources ...trigger.Source)
	RemoveBlocks(sources ...trigger.Source)

	// NotifyValuesChanged re-evaluates observed values after a
	// configuration change.
	NotifyValuesChanged()

	// Close releases every observed source.
	Close()
}

// hooks is an ordered listener list whose entries can detach themselves
// while being called.
type hooks[T any] struct {
	next int
	fns  map[int]func(T)
	ids  []int
}

func newHooks[T any]() *hooks[T] {
	return &hooks[T]{fns: make(map[int]func(T))}
}

func (h *hooks[T]) add(fn func(T)) (detach func()) {
	id := h.next
	h.next++
	h.fns[id] = fn
	h.ids = append(h.ids, id)
	return func() {
		if _, ok := h.fns[id]; !ok {
			return
		}
		delete(h.fns, id)
		for i, v := range h.ids {
			if v == id {
				h.ids = append(h.ids[:i:i], h.ids[i+1:]...)
				break
			}
		}
	}
}

func (h *hooks[T]) fire(v T) {
	ids := append([]int(nil), h.ids...)
	for _, id := range ids {
		if fn, ok := h.fns[id]; ok {
			fn(v)
		}
	}
}

func (h *hooks[T]) len() int {
	return len(h.ids)
}
