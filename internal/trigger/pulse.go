package trigger

import (
	"log/slog"
	"strings"

	"github.com/roach88/moreevents/internal/metrics"
	"github.com/roach88/moreevents/internal/text"
)

// PulseConfig holds the strategy functions of a boolean event.
type PulseConfig[K comparable] struct {
	Tag  string
	Name text.Key

	Key  KeyFunc[K]
	Read func(K) Tristate

	Subscribe   func(Source)
	Unsubscribe func(Source)

	// Describe renders a value. Default: "Triggered" for True, "Not
	// triggered" otherwise.
	Describe func(p *text.Printer, v Tristate) string
}

// Pulse is the boolean engine. Every known value is a pulse: it fires even
// when the source reported the same value before.
type Pulse[K comparable] struct {
	cfg  PulseConfig[K]
	host Host
	opts options
	log  *slog.Logger

	reg      *registry[K]
	states   map[K]Tristate
	cache    map[int64]Tristate
	lastSlot Slot
	onChange ChangeFunc[Tristate]
}

// NewPulse creates an engine owned by host.
func NewPulse[K comparable](host Host, cfg PulseConfig[K], opts ...Option) *Pulse[K] {
	o := applyOptions(opts)
	if cfg.Describe == nil {
		cfg.Describe = func(p *text.Printer, v Tristate) string {
			if v == True {
				return p.Get(text.Triggered)
			}
			return p.Get(text.NotTriggered)
		}
	}

	e := &Pulse[K]{
		cfg:    cfg,
		host:   host,
		opts:   o,
		log:    o.logger.With("event", cfg.Tag, "role", o.role.String()),
		states: make(map[K]Tristate),
		cache:  make(map[int64]Tristate),
	}
	e.reg = newRegistry(cfg.Key, cfg.Subscribe, cfg.Unsubscribe, o.role)
	return e
}

// OnChange sets the change notification sink.
func (e *Pulse[K]) OnChange(fn ChangeFunc[Tristate]) {
	e.onChange = fn
}

// AddSources starts observing sources. Duplicates are ignored. When the host
// is active, each new source is seeded with its current value, Unknown
// included: a seeded source counts as classified for AND aggregation and
// Unknown never satisfies the all-True condition.
func (e *Pulse[K]) AddSources(sources ...Source) {
	for _, src := range sources {
		k, added := e.reg.add(src, e.sourceClosed)
		if !added {
			continue
		}
		if e.host != nil && e.host.IsActive() {
			e.states[k] = e.cfg.Read(k)
		}
		e.log.Debug("source added", "entity", src.EntityID(), "name", src.DisplayName())
	}
	e.opts.metrics.Observing(e.cfg.Tag, e.reg.len())
}

// RemoveSources stops observing sources. Unknown sources are ignored.
func (e *Pulse[K]) RemoveSources(sources ...Source) {
	for _, src := range sources {
		k, removed := e.reg.remove(src)
		if !removed {
			continue
		}
		delete(e.states, k)
		e.log.Debug("source removed", "entity", src.EntityID())
	}
	e.opts.metrics.Observing(e.cfg.Tag, e.reg.len())
}

func (e *Pulse[K]) sourceClosed(src Source) {
	e.log.Debug("observed source closed", "entity", src.EntityID())
	e.RemoveSources(src)
}

// Close removes every observed source.
func (e *Pulse[K]) Close() {
	e.RemoveSources(e.reg.sources()...)
}

// Raise evaluates a value reported by the source identified by key.
func (e *Pulse[K]) Raise(key K, value Tristate) {
	src, observed := e.reg.get(key)
	if !observed && e.opts.observing {
		e.log.Debug("value for unobserved source ignored")
		return
	}
	e.opts.metrics.Evaluated(e.cfg.Tag)

	var entityID int64
	if observed {
		entityID = src.EntityID()
		e.cache[entityID] = value
	}

	fired := value.Known() && e.pulse(key, value)
	e.notify(Change[Tristate]{Slot: e.lastSlot, EntityID: entityID, Value: value, Fired: fired})
}

func (e *Pulse[K]) pulse(key K, value Tristate) bool {
	e.states[key] = value
	e.lastSlot = value.Slot()
	e.opts.metrics.Transitioned(e.cfg.Tag, value.String())

	if !e.host.IsActive() {
		e.log.Debug("pulse recorded on inactive controller", "value", value)
		e.opts.metrics.Suppressed(e.cfg.Tag, metrics.SuppressInactive)
		return true
	}

	observed := e.reg.len()
	if !e.opts.observing {
		observed = -1
	}
	v := aggregate(e.host.Mode(), observed, e.states, value, True)
	if !v.fire {
		e.log.Debug("pulse held by aggregation", "value", value, "reason", v.reason)
		e.opts.metrics.Suppressed(e.cfg.Tag, v.reason)
		return true
	}

	e.log.Debug("invoking action", "value", value, "slot", int(value.Slot()))
	e.host.InvokeAction(value.Slot())
	e.opts.metrics.ActionInvoked(e.cfg.Tag, int(value.Slot()))
	return true
}

// NotifyValuesChanged re-reads every recorded source and pulses the ones
// whose known value differs from the recorded one. Sources added while the
// controller was inactive are seeded here without firing. Authoritative
// only.
func (e *Pulse[K]) NotifyValuesChanged() {
	if e.opts.role != Authoritative {
		return
	}
	e.opts.metrics.Resynced(e.cfg.Tag)

	changed := make(map[K]Tristate)
	active := e.host.IsActive()
	e.reg.each(func(k K, _ Source) {
		v := e.cfg.Read(k)
		prev, recorded := e.states[k]
		switch {
		case !recorded:
			if active {
				e.states[k] = v
			}
		case v.Known() && prev != v:
			changed[k] = v
		}
	})
	for k, v := range changed {
		e.pulse(k, v)
	}

	e.log.Debug("resync complete", "changed", len(changed))
	e.notify(Change[Tristate]{Slot: e.lastSlot, Fired: len(changed) != 0})
}

func (e *Pulse[K]) notify(c Change[Tristate]) {
	if e.onChange != nil {
		e.onChange(c)
	}
}

// UpdateDetailedInfo renders the detailed info panel into w. The display
// cache is updated the same way as for continuous engines.
func (e *Pulse[K]) UpdateDetailedInfo(w *strings.Builder, slot Slot, entityID int64, value Tristate) {
	p := e.opts.printer

	if e.cfg.Name != "" {
		line(w, p.Format(text.EventInfo, p.Get(e.cfg.Name)))
	}

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
		line(w, p.Format(text.EventBoolBlockInputInfo, src.DisplayName(), e.cfg.Describe(p, v)))
	})

	if !e.opts.observing {
		line(w, p.Format(text.EventInputInfo, e.cfg.Describe(p, value), ""))
	}
	w.WriteString(p.Format(text.EventOutputInfo, int(slot)+1))
}

// State returns the recorded value of key. Unknown when not recorded.
func (e *Pulse[K]) State(key K) Tristate {
	return e.states[key]
}

// Cached returns the last displayed value of an entity.
func (e *Pulse[K]) Cached(entityID int64) (Tristate, bool) {
	v, ok := e.cache[entityID]
	return v, ok
}

// LastSlot returns the slot of the most recent pulse.
func (e *Pulse[K]) LastSlot() Slot {
	return e.lastSlot
}

// Sources returns the observed sources in insertion order.
func (e *Pulse[K]) Sources() []Source {
	return e.reg.sources()
}

// Observing reports whether key is observed.
func (e *Pulse[K]) Observing(key K) bool {
	_, ok := e.reg.get(key)
	return ok
}

// Len returns the number of observed sources.
func (e *Pulse[K]) Len() int {
	return e.reg.len()
}
