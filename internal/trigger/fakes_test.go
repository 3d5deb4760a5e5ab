package trigger

import (
	"io"
	"log/slog"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeHost struct {
	active  bool
	mode    Mode
	dir     Direction
	invoked []Slot
}

func newHost() *fakeHost {
	return &fakeHost{active: true}
}

func (h *fakeHost) IsActive() bool         { return h.active }
func (h *fakeHost) Mode() Mode             { return h.mode }
func (h *fakeHost) Direction() Direction   { return h.dir }
func (h *fakeHost) InvokeAction(slot Slot) { h.invoked = append(h.invoked, slot) }

type fakeSource struct {
	id      int64
	name    string
	value   float64
	flag    Tristate
	onClose []func()
}

func (s *fakeSource) EntityID() int64     { return s.id }
func (s *fakeSource) DisplayName() string { return s.name }

func (s *fakeSource) OnClose(fn func()) func() {
	s.onClose = append(s.onClose, fn)
	i := len(s.onClose) - 1
	return func() { s.onClose[i] = nil }
}

func (s *fakeSource) close() {
	for _, fn := range s.onClose {
		if fn != nil {
			fn()
		}
	}
}

func (s *fakeSource) attached() int {
	n := 0
	for _, fn := range s.onClose {
		if fn != nil {
			n++
		}
	}
	return n
}

// world resolves keys back to fake sources.
type world map[int64]*fakeSource

func (w world) source(id int64, name string, value float64) *fakeSource {
	s := &fakeSource{id: id, name: name, value: value}
	w[id] = s
	return s
}

func (w world) key(src Source) (int64, bool) {
	s, ok := src.(*fakeSource)
	if !ok {
		return 0, false
	}
	return s.id, true
}

type recorder[V any] struct {
	changes []Change[V]
}

func (r *recorder[V]) sink(c Change[V]) {
	r.changes = append(r.changes, c)
}

func (r *recorder[V]) last() Change[V] {
	return r.changes[len(r.changes)-1]
}

type subscriptions struct {
	subscribed   []int64
	unsubscribed []int64
}

func (s *subscriptions) subscribe(src Source)   { s.subscribed = append(s.subscribed, src.EntityID()) }
func (s *subscriptions) unsubscribe(src Source) { s.unsubscribed = append(s.unsubscribed, src.EntityID()) }

func newThresholdFixture(opts ...Option) (*Threshold[int64], *fakeHost, world, *recorder[float64], *subscriptions) {
	h := newHost()
	w := world{}
	subs := &subscriptions{}
	rec := &recorder[float64]{}
	cfg := Config[int64]{
		Tag:         "thrust",
		Key:         w.key,
		Read:        func(k int64) float64 { return w[k].value },
		Subscribe:   subs.subscribe,
		Unsubscribe: subs.unsubscribe,
	}
	e := NewThreshold(h, cfg, append([]Option{WithLogger(discard)}, opts...)...)
	e.OnChange(rec.sink)
	return e, h, w, rec, subs
}

func newPulseFixture(opts ...Option) (*Pulse[int64], *fakeHost, world, *recorder[Tristate], *subscriptions) {
	h := newHost()
	w := world{}
	subs := &subscriptions{}
	rec := &recorder[Tristate]{}
	cfg := PulseConfig[int64]{
		Tag:         "controller",
		Key:         w.key,
		Read:        func(k int64) Tristate { return w[k].flag },
		Subscribe:   subs.subscribe,
		Unsubscribe: subs.unsubscribe,
	}
	e := NewPulse(h, cfg, append([]Option{WithLogger(discard)}, opts...)...)
	e.OnChange(rec.sink)
	return e, h, w, rec, subs
}
