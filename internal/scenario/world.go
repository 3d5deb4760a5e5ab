package scenario

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/moreevents/internal/events"
)

// listeners is an ordered callback list. Detaching during a call is safe.
type listeners[F any] struct {
	fns []*F
}

func (l *listeners[F]) add(fn F) (detach func()) {
	p := &fn
	l.fns = append(l.fns, p)
	return func() {
		if i := slices.Index(l.fns, p); i >= 0 {
			l.fns = slices.Delete(l.fns, i, i+1)
		}
	}
}

func (l *listeners[F]) each(visit func(F)) {
	for _, p := range slices.Clone(l.fns) {
		visit(*p)
	}
}

// entity is the part every simulated block shares.
type entity struct {
	id     int64
	name   string
	pos    r3.Vec
	moved  listeners[func()]
	closed listeners[func()]
	gone   bool
}

func (e *entity) EntityID() int64     { return e.id }
func (e *entity) DisplayName() string { return e.name }
func (e *entity) Position() r3.Vec    { return e.pos }

func (e *entity) OnMoved(fn func()) (detach func()) { return e.moved.add(fn) }
func (e *entity) OnClose(fn func()) (detach func()) { return e.closed.add(fn) }

func (e *entity) moveTo(pos r3.Vec) {
	e.pos = pos
	e.moved.each(func(fn func()) { fn() })
}

func (e *entity) close() {
	if e.gone {
		return
	}
	e.gone = true
	e.closed.each(func(fn func()) { fn() })
}

// Thruster is a simulated thruster block.
type Thruster struct {
	entity
	thrust float64
	max    float64
}

func (t *Thruster) CurrentThrust() float64 { return t.thrust }
func (t *Thruster) MaxThrust() float64     { return t.max }

// Grid is a simulated grid. Controllers are built on grids.
type Grid struct {
	entity
}

// Searcher is a simulated turret or search block.
type Searcher struct {
	entity
	target  *Target
	changed listeners[func(previous, current events.Target)]
}

func (s *Searcher) Target() events.Target {
	if s.target == nil {
		return nil
	}
	return s.target
}

func (s *Searcher) OnTargetChanged(fn func(previous, current events.Target)) (detach func()) {
	return s.changed.add(fn)
}

// lock switches the target. nil releases the current one.
func (s *Searcher) lock(t *Target) {
	previous := s.Target()
	s.target = t
	current := s.Target()
	s.changed.each(func(fn func(previous, current events.Target)) { fn(previous, current) })
}

// Target is a simulated entity searchers can lock on.
type Target struct {
	entity
}

// Projector is a simulated welding projector.
type Projector struct {
	entity
	total     int
	remaining int
	table     bool
	changed   listeners[func(change events.ProjectionChange, built, total int)]
}

func (p *Projector) TotalBlocks() int     { return p.total }
func (p *Projector) RemainingBlocks() int { return p.remaining }
func (p *Projector) AllowsWelding() bool  { return !p.table }

func (p *Projector) OnProjectionChanged(fn func(change events.ProjectionChange, built, total int)) (detach func()) {
	return p.changed.add(fn)
}

func (p *Projector) notify(change events.ProjectionChange) {
	built := p.total - p.remaining
	p.changed.each(func(fn func(events.ProjectionChange, int, int)) { fn(change, built, p.total) })
}

// setRemaining welds or removes one block at a time until remaining is
// reached.
func (p *Projector) setRemaining(remaining int) {
	for p.remaining > remaining {
		p.remaining--
		p.notify(events.BlockWelded)
	}
	for p.remaining < remaining {
		p.remaining++
		p.notify(events.BlockRemoved)
	}
}

// removeProjection drops the projected grid. A new projection starts with
// nothing built.
func (p *Projector) removeProjection() {
	p.notify(events.ProjectionRemoved)
	p.remaining = p.total
}

// Planet pulls towards its center with constant surface gravity inside its
// gravity well.
type Planet struct {
	Center  r3.Vec
	Gravity float64
	Radius  float64
}

// World is the simulated environment shared by every peer of a session.
type World struct {
	entities map[int64]any
	planets  []Planet
	weathers []string
	weather  map[int64]int
}

// NewWorld creates an empty world. weathers lists the weather names by
// index; index 0 is clear sky.
func NewWorld(weathers []string) *World {
	if len(weathers) == 0 {
		weathers = []string{""}
	}
	return &World{
		entities: make(map[int64]any),
		weathers: weathers,
		weather:  make(map[int64]int),
	}
}

func (w *World) add(id int64, e any) error {
	if _, taken := w.entities[id]; taken {
		return fmt.Errorf("entity %d defined twice", id)
	}
	w.entities[id] = e
	return nil
}

// AddThruster adds a thruster.
func (w *World) AddThruster(id int64, name string, thrust, maxThrust float64) (*Thruster, error) {
	t := &Thruster{entity: entity{id: id, name: name}, thrust: thrust, max: maxThrust}
	return t, w.add(id, t)
}

// AddGrid adds a grid at pos.
func (w *World) AddGrid(id int64, pos r3.Vec) (*Grid, error) {
	g := &Grid{entity: entity{id: id, name: fmt.Sprintf("Grid %d", id), pos: pos}}
	return g, w.add(id, g)
}

// AddSearcher adds a searcher at pos.
func (w *World) AddSearcher(id int64, name string, pos r3.Vec) (*Searcher, error) {
	s := &Searcher{entity: entity{id: id, name: name, pos: pos}}
	return s, w.add(id, s)
}

// AddTarget adds a target at pos.
func (w *World) AddTarget(id int64, pos r3.Vec) (*Target, error) {
	t := &Target{entity: entity{id: id, name: fmt.Sprintf("Target %d", id), pos: pos}}
	return t, w.add(id, t)
}

// AddProjector adds a projector.
func (w *World) AddProjector(id int64, name string, total, remaining int, table bool) (*Projector, error) {
	p := &Projector{entity: entity{id: id, name: name}, total: total, remaining: remaining, table: table}
	return p, w.add(id, p)
}

// AddPlanet adds a gravity well.
func (w *World) AddPlanet(p Planet) {
	w.planets = append(w.planets, p)
}

// Entity returns the entity with the given id.
func (w *World) Entity(id int64) (any, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// Grid returns the grid with the given id. A controller without a known
// grid gets a static one at the origin.
func (w *World) Grid(id int64) *Grid {
	if g, ok := w.entities[id].(*Grid); ok {
		return g
	}
	g := &Grid{entity: entity{id: id, name: fmt.Sprintf("Grid %d", id)}}
	if _, taken := w.entities[id]; !taken {
		w.entities[id] = g
	}
	return g
}

// NaturalGravityAt sums the pull of every planet whose well contains pos.
func (w *World) NaturalGravityAt(pos r3.Vec) r3.Vec {
	var g r3.Vec
	for _, p := range w.planets {
		d := r3.Sub(p.Center, pos)
		dist := r3.Norm(d)
		if dist > p.Radius {
			continue
		}
		if dist == 0 {
			g = r3.Add(g, r3.Vec{Z: -p.Gravity})
			continue
		}
		g = r3.Add(g, r3.Scale(p.Gravity/dist, d))
	}
	return g
}

// WeatherAt returns the weather index at a controller.
func (w *World) WeatherAt(blockID int64) int {
	return w.weather[blockID]
}

// Weathers lists the weather names by index.
func (w *World) Weathers() []string {
	return w.weathers
}

// SetWeather changes the weather at a controller.
func (w *World) SetWeather(blockID int64, index int) error {
	if index < 0 || index >= len(w.weathers) {
		return fmt.Errorf("weather %d: out of range [0, %d]", index, len(w.weathers)-1)
	}
	w.weather[blockID] = index
	return nil
}

var (
	_ events.Thruster  = (*Thruster)(nil)
	_ events.Grid      = (*Grid)(nil)
	_ events.Searcher  = (*Searcher)(nil)
	_ events.Target    = (*Target)(nil)
	_ events.Projector = (*Projector)(nil)
	_ events.World     = (*World)(nil)
)
