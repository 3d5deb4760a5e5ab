package events

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/moreevents/internal/controller"
	"github.com/roach88/moreevents/internal/replication"
	"github.com/roach88/moreevents/internal/text"
	"github.com/roach88/moreevents/internal/trigger"
)

const (
	// NoTarget is the distance reported while a searcher has no target.
	NoTarget = math.MaxFloat64

	// DefaultTargetDistance is the threshold of a new target event, in meters.
	DefaultTargetDistance = 500.0

	minTargetDistance = 0.0
	maxTargetDistance = 2500.0
)

// Target is an entity a searcher can lock on.
type Target interface {
	EntityID() int64
	Position() r3.Vec
	OnMoved(fn func()) (detach func())
	OnClose(fn func()) (detach func())
}

// Searcher is a combat block that acquires targets.
type Searcher interface {
	trigger.Source
	Position() r3.Vec
	// Target returns the current target, nil if none.
	Target() Target
	// OnTargetChanged registers fn for target switches. Either side may be nil.
	OnTargetChanged(fn func(previous, current Target)) (detach func())
}

// TargetAcquiredEvent fires when the distance between observed searchers and
// their targets crosses the event's own distance setting.
type TargetAcquiredEvent struct {
	base
	engine   *trigger.Threshold[*TargetWatcher]
	watchers map[Searcher]*TargetWatcher
	setting  float64
}

// NewTargetAcquired attaches the event to block.
func NewTargetAcquired(block *controller.Block, env Env) *TargetAcquiredEvent {
	e := &TargetAcquiredEvent{
		base: newBase(block, env, TargetAcquiredTag, TargetAcquiredID, text.EventTargetAcquiredName,
			controller.Uses{Condition: true, Blocks: true}),
		watchers: make(map[Searcher]*TargetWatcher),
		setting:  DefaultTargetDistance,
	}
	e.engine = trigger.NewThreshold[*TargetWatcher](block, trigger.Config[*TargetWatcher]{
		Tag:  TargetAcquiredTag,
		Name: text.EventTargetAcquiredName,
		Key: func(src trigger.Source) (*TargetWatcher, bool) {
			s, ok := src.(Searcher)
			if !ok {
				return nil, false
			}
			w, ok := e.watchers[s]
			return w, ok
		},
		Read:        (*TargetWatcher).Distance,
		Subscribe:   func(src trigger.Source) { e.watchers[src.(Searcher)].subscribe() },
		Unsubscribe: func(src trigger.Source) { e.watchers[src.(Searcher)].unsubscribe() },
		Removed:     func(src trigger.Source) { delete(e.watchers, src.(Searcher)) },
		Format:      formatDistance,
	}, env.engineOptions()...)
	e.engine.OnChange(e.changed)
	return e
}

// formatDistance renders meters with the unit, or "None" without one.
func formatDistance(p *text.Printer, v float64) string {
	if v == NoTarget {
		return p.Get(text.None)
	}
	return p.Grouped(v, 1) + p.Get(text.LengthUnitSymbol)
}

func (e *TargetAcquiredEvent) changed(c trigger.Change[float64]) {
	if e.selected {
		e.publish(c.Slot, c.EntityID, replication.FloatValue(c.Value))
	}
}

func (e *TargetAcquiredEvent) raise(w *TargetWatcher, previous, current float64) {
	e.engine.Raise(w, previous, current, e.setting)
}

func (e *TargetAcquiredEvent) Accepts(src trigger.Source) bool {
	_, ok := src.(Searcher)
	return ok
}

// AddBlocks creates one watcher per new searcher before observing it.
func (e *TargetAcquiredEvent) AddBlocks(sources ...trigger.Source) {
	for _, src := range sources {
		if s, ok := src.(Searcher); ok {
			if _, seen := e.watchers[s]; !seen {
				e.watchers[s] = &TargetWatcher{event: e, searcher: s, previous: make(map[int64]float64)}
			}
		}
	}
	e.engine.AddSources(e.setting, sources...)
}

// RemoveBlocks stops observing searchers. Their watchers are dropped by the
// engine's removal hook, which also runs when a searcher is destroyed.
func (e *TargetAcquiredEvent) RemoveBlocks(sources ...trigger.Source) {
	e.engine.RemoveSources(sources...)
}

func (e *TargetAcquiredEvent) NotifyValuesChanged() {
	e.engine.NotifyValuesChanged(e.setting)
}

func (e *TargetAcquiredEvent) Close() {
	e.engine.Close()
	clear(e.watchers)
}

// Distance returns the threshold setting in meters.
func (e *TargetAcquiredEvent) Distance() float64 { return e.setting }

// SetDistance changes the threshold setting and resyncs the
// event when it is selected.
func (e *TargetAcquiredEvent) SetDistance(v float64) error {
	if err := checkRange(e.tag, v, minTargetDistance, maxTargetDistance); err != nil {
		return err
	}
	e.setting = v
	if e.selected {
		e.NotifyValuesChanged()
	}
	return nil
}

func (e *TargetAcquiredEvent) Setting() string {
	return formatSetting(e.setting)
}

func (e *TargetAcquiredEvent) SetSetting(value string) error {
	v, err := parseRange(e.tag, value, minTargetDistance, maxTargetDistance)
	if err != nil {
		return err
	}
	return e.SetDistance(v)
}

func (e *TargetAcquiredEvent) ValueKind() replication.Kind { return replication.KindFloat }

// Apply renders a replicated change.
func (e *TargetAcquiredEvent) Apply(m replication.Message) {
	e.render(func(w *strings.Builder) {
		e.engine.UpdateDetailedInfo(w, e.setting, m.Slot, m.EntityID, m.Value.Number)
	})
}

func (e *TargetAcquiredEvent) Engine() *trigger.Threshold[*TargetWatcher] {
	return e.engine
}

// TargetWatcher follows the target of one searcher and reports distance
// changes to its event.
type TargetWatcher struct {
	event    *TargetAcquiredEvent
	searcher Searcher
	target   Target
	// last distance per target entity
	previous map[int64]float64

	detachSearcher func()
	detachMoved    func()
	detachClosed   func()
}

// Distance returns the current distance to the target, NoTarget if none.
func (w *TargetWatcher) Distance() float64 {
	if w.target == nil {
		return NoTarget
	}
	return w.distanceTo(w.target)
}

func (w *TargetWatcher) distanceTo(t Target) float64 {
	return r3.Norm(r3.Sub(t.Position(), w.searcher.Position()))
}

// measure returns the last reported and the current distance to t and
// records the current one.
func (w *TargetWatcher) measure(t Target) (previous, current float64) {
	previous, ok := w.previous[t.EntityID()]
	if !ok {
		previous = NoTarget
	}
	current = w.distanceTo(t)
	w.previous[t.EntityID()] = current
	return previous, current
}

func (w *TargetWatcher) subscribe() {
	w.detachSearcher = w.searcher.OnTargetChanged(w.targetChanged)
	if t := w.searcher.Target(); t != nil {
		w.follow(t)
	}
}

func (w *TargetWatcher) unsubscribe() {
	if w.detachSearcher != nil {
		w.detachSearcher()
		w.detachSearcher = nil
	}
	if w.target != nil {
		w.release()
	}
}

func (w *TargetWatcher) targetChanged(previous, current Target) {
	if previous != nil && w.target != nil {
		w.release()
	}
	if current != nil {
		w.follow(current)
	}
}

func (w *TargetWatcher) follow(t Target) {
	w.target = t
	w.detachMoved = t.OnMoved(w.moved)
	w.detachClosed = t.OnClose(func() {
		if w.target == t {
			w.release()
		}
	})
	w.moved()
}

// release stops following the current target and reports it as lost.
func (w *TargetWatcher) release() {
	t := w.target
	w.target = nil
	w.detachMoved()
	w.detachClosed()
	w.detachMoved, w.detachClosed = nil, nil

	previous, _ := w.measure(t)
	// A reacquired target is measured as coming from out of range.
	delete(w.previous, t.EntityID())
	w.event.raise(w, previous, NoTarget)
}

func (w *TargetWatcher) moved() {
	if w.target == nil {
		return
	}
	previous, current := w.measure(w.target)
	w.event.raise(w, previous, current)
}
