package trigger

import (
	"log/slog"
	"strings"

	"github.com/roach88/moreevents/internal/metrics"
	"github.com/roach88/moreevents/internal/text"
)

// Config holds the strategy functions of a continuous-value event.
type Config[K comparable] struct {
	// Tag is the event type tag used in logs, metrics and replication.
	Tag string
	// Name is the event display name shown as detailed info header.
	Name text.Key
	// Unit is appended to formatted values. Empty for none.
	Unit text.Key

	Key  KeyFunc[K]
	Read func(K) float64

	// Subscribe hooks change notifications of a newly observed source.
	// Called on the authoritative side only.
	Subscribe   func(Source)
	Unsubscribe func(Source)
	// Removed is called once a source is no longer observed, after an
	// explicit removal or its destruction. Called on every role.
	Removed func(Source)

	// Format renders a value. Default: ratio as percentage with one decimal.
	Format func(p *text.Printer, v float64) string
}

// Threshold is the continuous-value engine.
type Threshold[K comparable] struct {
	cfg  Config[K]
	host Host
	opts options
	log  *slog.Logger

	reg      *registry[K]
	states   map[K]State
	cache    map[int64]float64
	lastSlot Slot
	onChange ChangeFunc[float64]
}

// NewThreshold creates an engine owned by host.
func NewThreshold[K comparable](host Host, cfg Config[K], opts ...Option) *Threshold[K] {
	o := applyOptions(opts)
	if cfg.Format == nil {
		cfg.Format = func(p *text.Printer, v float64) string { return p.Percent(v) }
	}

	e := &Threshold[K]{
		cfg:    cfg,
		host:   host,
		opts:   o,
		log:    o.logger.With("event", cfg.Tag, "role", o.role.String()),
		states: make(map[K]State),
		cache:  make(map[int64]float64),
	}
	e.reg = newRegistry(cfg.Key, cfg.Subscribe, cfg.Unsubscribe, o.role)
	return e
}

// OnChange sets the change notification sink.
func (e *Threshold[K]) OnChange(fn ChangeFunc[float64]) {
	e.onChange = fn
}

// AddSources starts observing sources. Duplicates are ignored. When the host
// is active, each new source is classified against threshold right away.
func (e *Threshold[K]) AddSources(threshold float64, sources ...Source) {
	for _, src := range sources {
		k, added := e.reg.add(src, e.sourceClosed)
		if !added {
			continue
		}
		if e.host != nil && e.host.IsActive() {
			e.states[k] = Classify(e.cfg.Read(k), threshold)
		}
		e.log.Debug("source added", "entity", src.EntityID(), "name", src.DisplayName())
	}
	e.opts.metrics.Observing(e.cfg.Tag, e.reg.len())
}

// RemoveSources stops observing sources. Unknown sources are ignored.
func (e *Threshold[K]) RemoveSources(sources ...Source) {
	for _, src := range sources {
		k, removed := e.reg.remove(src)
		if !removed {
			continue
		}
		delete(e.states, k)
		e.log.Debug("source removed", "entity", src.EntityID())
		if e.cfg.Removed != nil {
			e.cfg.Removed(src)
		}
	}
	e.opts.metrics.Observing(e.cfg.Tag, e.reg.len())
}

func (e *Threshold[K]) sourceClosed(src Source) {
	e.log.Debug("observed source closed", "entity", src.EntityID())
	e.RemoveSources(src)
}

// Close removes every observed source.
func (e *Threshold[K]) Close() {
	e.RemoveSources(e.reg.sources()...)
}

// Raise evaluates a value change of the source identified by key.
func (e *Threshold[K]) Raise(key K, previous, current, threshold float64) {
	src, observed := e.reg.get(key)
	if !observed && e.opts.observing {
		e.log.Debug("value change for unobserved source ignored")
		return
	}
	e.opts.metrics.Evaluated(e.cfg.Tag)

	var entityID int64
	if observed {
		entityID = src.EntityID()
		e.cache[entityID] = current
	}

	target, crossed := Crossing(previous, current, threshold, e.host.Direction())
	fired := crossed && e.transition(key, target)

	e.notify(Change[float64]{Slot: e.lastSlot, EntityID: entityID, Value: current, Fired: fired})
}

// transition moves key into target and invokes the host action when the
// aggregator agrees. Returns false if key already was in target.
func (e *Threshold[K]) transition(key K, target State) bool {
	if s, known := e.states[key]; known && s == target {
		return false
	}
	e.states[key] = target
	e.lastSlot = target.Slot()
	e.opts.metrics.Transitioned(e.cfg.Tag, target.String())

	if !e.host.IsActive() {
		e.log.Debug("transition recorded on inactive controller", "state", target)
		e.opts.metrics.Suppressed(e.cfg.Tag, metrics.SuppressInactive)
		return true
	}

	observed := e.reg.len()
	if !e.opts.observing {
		observed = -1
	}
	v := aggregate(e.host.Mode(), observed, e.states, target, Above)
	if !v.fire {
		e.log.Debug("transition held by aggregation", "state", target, "reason", v.reason)
		e.opts.metrics.Suppressed(e.cfg.Tag, v.reason)
		return true
	}

	e.log.Debug("invoking action", "state", target, "slot", int(target.Slot()))
	e.host.InvokeAction(target.Slot())
	e.opts.metrics.ActionInvoked(e.cfg.Tag, int(target.Slot()))
	return true
}

// NotifyValuesChanged re-evaluates every classified source after the
// threshold or comparison direction changed. Authoritative only.
//
// Changed sources are transitioned one by one in no particular order, then a
// single summary Change is emitted.
func (e *Threshold[K]) NotifyValuesChanged(threshold float64) {
	if e.opts.role != Authoritative {
		return
	}
	e.opts.metrics.Resynced(e.cfg.Tag)

	dir := e.host.Direction()
	changed := make(map[K]State)
	for k, s := range e.states {
		if next, ok := Settle(s, e.cfg.Read(k), threshold, dir); ok {
			changed[k] = next
		}
	}

	// Sources added while the controller was inactive get their first
	// classification here, without firing.
	if e.host.IsActive() {
		e.reg.each(func(k K, _ Source) {
			if _, known := e.states[k]; !known {
				e.states[k] = Classify(e.cfg.Read(k), threshold)
			}
		})
	}

	for k, next := range changed {
		e.transition(k, next)
	}

	e.log.Debug("resync complete", "threshold", threshold, "changed", len(changed))
	e.notify(Change[float64]{Slot: e.lastSlot, Fired: len(changed) != 0})
}

func (e *Threshold[K]) notify(c Change[float64]) {
	if e.onChange != nil {
		e.onChange(c)
	}
}

// UpdateDetailedInfo renders the detailed info panel into w.
//
// entityID and value describe the change being displayed. The value of the
// matching source is written to the display cache; other sources show their
// cached value, or a fresh read when nothing is cached.
func (e *Threshold[K]) UpdateDetailedInfo(w *strings.Builder, threshold float64, slot Slot, entityID int64, value float64) {
	p := e.opts.printer
	unit := p.Get(e.cfg.Unit)

	if e.cfg.Name != "" {
		line(w, p.Format(text.EventInfo, p.Get(e.cfg.Name)))
	}
	if e.host.Direction() == LowerOrEqual {
		line(w, p.Get(text.EventBelowEqualInfo))
	} else {
		line(w, p.Get(text.EventAboveInfo))
	}
	line(w, p.Format(text.EventThresholdInfo, e.cfg.Format(p, threshold), unit))

	e.reg.each(func(k K, src Source) {
		v := value
		id := src.EntityID()
		if id == entityID {
			e.cache[id] = value
		} else if cached, ok := e.cache[id]; ok {
			v = cached
		} else {
			v = e.cfg.Read(k)
		}
		line(w, p.Format(text.EventBlockInputInfo, src.DisplayName(), e.cfg.Format(p, v), unit))
	})

	if !e.opts.observing {
		line(w, p.Format(text.EventInputInfo, e.cfg.Format(p, value), unit))
	}
	w.WriteString(p.Format(text.EventOutputInfo, int(slot)+1))
}

// State returns the recorded classification of key.
func (e *Threshold[K]) State(key K) (State, bool) {
	s, ok := e.states[key]
	return s, ok
}

// Cached returns the last displayed value of an entity.
func (e *Threshold[K]) Cached(entityID int64) (float64, bool) {
	v, ok := e.cache[entityID]
	return v, ok
}

// LastSlot returns the slot of the most recent transition.
func (e *Threshold[K]) LastSlot() Slot {
	return e.lastSlot
}

// Sources returns the observed sources in insertion order.
func (e *Threshold[K]) Sources() []Source {
	return e.reg.sources()
}

// Observing reports whether key is observed.
func (e *Threshold[K]) Observing(key K) bool {
	_, ok := e.reg.get(key)
	return ok
}

// Len returns the number of observed sources.
func (e *Threshold[K]) Len() int {
	return e.reg.len()
}

func line(w *strings.Builder, s string) {
	w.WriteString(s)
	w.WriteByte('\n')
}
