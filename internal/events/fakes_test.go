package events

import (
	"io"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/moreevents/internal/controller"
	"github.com/roach88/moreevents/internal/replication"
	"github.com/roach88/moreevents/internal/trigger"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// hookList is a detachable callback list.
type hookList[F any] struct {
	fns []*F
}

func (h *hookList[F]) add(fn F) func() {
	p := &fn
	h.fns = append(h.fns, p)
	return func() {
		for i, q := range h.fns {
			if q == p {
				h.fns = append(h.fns[:i], h.fns[i+1:]...)
				return
			}
		}
	}
}

func (h *hookList[F]) each(visit func(F)) {
	for _, p := range append([]*F(nil), h.fns...) {
		visit(*p)
	}
}

func (h *hookList[F]) len() int { return len(h.fns) }

type published struct {
	msgs []replication.Message
}

func (p *published) Publish(m replication.Message) {
	p.msgs = append(p.msgs, m)
}

func newEnv(role trigger.Role, pub Publisher) Env {
	return Env{Publisher: pub, Role: role, Logger: discard}
}

func newController(id int64) *controller.Block {
	return controller.NewBlock(id, "Event Controller", controller.WithLogger(discard))
}

type fakeThruster struct {
	id     int64
	name   string
	thrust float64
	max    float64
	closed hookList[func()]
}

func (t *fakeThruster) EntityID() int64                   { return t.id }
func (t *fakeThruster) DisplayName() string               { return t.name }
func (t *fakeThruster) CurrentThrust() float64            { return t.thrust }
func (t *fakeThruster) MaxThrust() float64                { return t.max }
func (t *fakeThruster) OnClose(fn func()) (detach func()) { return t.closed.add(fn) }

func (t *fakeThruster) close() {
	t.closed.each(func(fn func()) { fn() })
}

type fakeGrid struct {
	id    int64
	pos   r3.Vec
	moved hookList[func()]
}

func (g *fakeGrid) EntityID() int64                   { return g.id }
func (g *fakeGrid) Position() r3.Vec                  { return g.pos }
func (g *fakeGrid) OnMoved(fn func()) (detach func()) { return g.moved.add(fn) }

func (g *fakeGrid) moveTo(pos r3.Vec) {
	g.pos = pos
	g.moved.each(func(fn func()) { fn() })
}

// planet pulls towards the origin with surface gravity g up to radius and
// nothing beyond.
type planet struct {
	g      float64
	radius float64
}

func (p planet) NaturalGravityAt(pos r3.Vec) r3.Vec {
	if r3.Norm(pos) > p.radius {
		return r3.Vec{}
	}
	return r3.Vec{Z: -p.g}
}

type fakeTarget struct {
	id     int64
	pos    r3.Vec
	moved  hookList[func()]
	closed hookList[func()]
}

func (t *fakeTarget) EntityID() int64                   { return t.id }
func (t *fakeTarget) Position() r3.Vec                  { return t.pos }
func (t *fakeTarget) OnMoved(fn func()) (detach func()) { return t.moved.add(fn) }
func (t *fakeTarget) OnClose(fn func()) (detach func()) { return t.closed.add(fn) }

func (t *fakeTarget) moveTo(pos r3.Vec) {
	t.pos = pos
	t.moved.each(func(fn func()) { fn() })
}

func (t *fakeTarget) close() {
	t.closed.each(func(fn func()) { fn() })
}

type fakeSearcher struct {
	id      int64
	name    string
	pos     r3.Vec
	target  Target
	changed hookList[func(previous, current Target)]
	closing hookList[func()]
}

func (s *fakeSearcher) EntityID() int64     { return s.id }
func (s *fakeSearcher) DisplayName() string { return s.name }
func (s *fakeSearcher) Position() r3.Vec    { return s.pos }
func (s *fakeSearcher) Target() Target      { return s.target }

func (s *fakeSearcher) OnTargetChanged(fn func(previous, current Target)) (detach func()) {
	return s.changed.add(fn)
}

func (s *fakeSearcher) OnClose(fn func()) (detach func()) {
	return s.closing.add(fn)
}

func (s *fakeSearcher) destroy() {
	s.closing.each(func(fn func()) { fn() })
}

func (s *fakeSearcher) lock(t Target) {
	previous := s.target
	s.target = t
	s.changed.each(func(fn func(previous, current Target)) { fn(previous, t) })
}

type fakeProjector struct {
	id        int64
	name      string
	total     int
	remaining int
	table     bool
	changed   hookList[func(change ProjectionChange, built, total int)]
}

func (p *fakeProjector) EntityID() int64      { return p.id }
func (p *fakeProjector) DisplayName() string  { return p.name }
func (p *fakeProjector) TotalBlocks() int     { return p.total }
func (p *fakeProjector) RemainingBlocks() int { return p.remaining }
func (p *fakeProjector) AllowsWelding() bool  { return !p.table }

func (p *fakeProjector) OnProjectionChanged(fn func(change ProjectionChange, built, total int)) (detach func()) {
	return p.changed.add(fn)
}

func (p *fakeProjector) notify(change ProjectionChange) {
	built := p.total - p.remaining
	p.changed.each(func(fn func(ProjectionChange, int, int)) { fn(change, built, p.total) })
}

func (p *fakeProjector) weld() {
	p.remaining--
	p.notify(BlockWelded)
}

type fakeWeather struct {
	at    int
	names []string
}

func (w *fakeWeather) WeatherAt(int64) int { return w.at }
func (w *fakeWeather) Weathers() []string  { return w.names }
