package events

import (
	"strings"

	"github.com/roach88/moreevents/internal/controller"
	"github.com/roach88/moreevents/internal/replication"
	"github.com/roach88/moreevents/internal/text"
	"github.com/roach88/moreevents/internal/trigger"
)

// ProjectionChange is a change of a projector's build progress.
type ProjectionChange int

const (
	// BlockWelded: one projected block reached full integrity.
	BlockWelded ProjectionChange = iota
	// BlockRemoved: one built block of the projection was removed.
	BlockRemoved
	// ProjectionRemoved: the projected grid is gone.
	ProjectionRemoved
	// GridSplit: the projector's grid split and progress was recounted.
	GridSplit
)

func (c ProjectionChange) String() string {
	switch c {
	case BlockWelded:
		return "welded"
	case BlockRemoved:
		return "removed"
	case ProjectionRemoved:
		return "projection_removed"
	case GridSplit:
		return "split"
	default:
		return "unknown"
	}
}

// Projector is a welding projector.
type Projector interface {
	trigger.Source
	TotalBlocks() int
	RemainingBlocks() int
	// AllowsWelding is false for projector tables, which cannot be built.
	AllowsWelding() bool
	// OnProjectionChanged registers fn for progress changes. built and total
	// are the counts after the change; for ProjectionRemoved they are the
	// last counts before removal.
	OnProjectionChanged(fn func(change ProjectionChange, built, total int)) (detach func())
}

// ProjectionBuiltEvent fires when the built fraction of observed projections
// crosses the controller threshold.
type ProjectionBuiltEvent struct {
	base
	engine *trigger.Threshold[Projector]
	detach map[Projector]func()
}

// NewProjectionBuilt attaches the event to block.
func NewProjectionBuilt(block *controller.Block, env Env) *ProjectionBuiltEvent {
	e := &ProjectionBuiltEvent{
		base: newBase(block, env, ProjectionBuiltTag, ProjectionBuiltID, text.EventProjectionBuiltName,
			controller.Uses{Threshold: true, Condition: true, Blocks: true}),
		detach: make(map[Projector]func()),
	}
	e.engine = trigger.NewThreshold[Projector](block, trigger.Config[Projector]{
		Tag:  ProjectionBuiltTag,
		Name: text.EventProjectionBuiltName,
		Unit: text.PercentSign,
		Key: func(src trigger.Source) (Projector, bool) {
			p, ok := src.(Projector)
			return p, ok
		},
		Read: func(p Projector) float64 {
			return builtRatio(p.TotalBlocks()-p.RemainingBlocks(), p.TotalBlocks())
		},
		Subscribe:   e.subscribe,
		Unsubscribe: e.unsubscribe,
	}, env.engineOptions()...)
	e.engine.OnChange(e.changed)
	return e
}

func builtRatio(built, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(built) / float64(total)
}

func (e *ProjectionBuiltEvent) subscribe(src trigger.Source) {
	p := src.(Projector)
	e.detach[p] = p.OnProjectionChanged(func(change ProjectionChange, built, total int) {
		e.progress(p, change, built, total)
	})
}

func (e *ProjectionBuiltEvent) unsubscribe(src trigger.Source) {
	p := src.(Projector)
	if detach, ok := e.detach[p]; ok {
		detach()
		delete(e.detach, p)
	}
}

func (e *ProjectionBuiltEvent) progress(p Projector, change ProjectionChange, built, total int) {
	var previous, current float64
	switch change {
	case BlockWelded, GridSplit:
		previous, current = builtRatio(built-1, total), builtRatio(built, total)
	case BlockRemoved:
		previous, current = builtRatio(built+1, total), builtRatio(built, total)
	case ProjectionRemoved:
		previous, current = builtRatio(built, total), 0
	default:
		return
	}
	e.log.Debug("projection progress", "projector", p.EntityID(), "change", change, "built", built, "total", total)
	e.engine.Raise(p, previous, current, e.block.Threshold())
}

func (e *ProjectionBuiltEvent) changed(c trigger.Change[float64]) {
	if e.selected {
		e.publish(c.Slot, c.EntityID, replication.FloatValue(c.Value))
	}
}

// Accepts rejects projector tables.
func (e *ProjectionBuiltEvent) Accepts(src trigger.Source) bool {
	p, ok := src.(Projector)
	return ok && p.AllowsWelding()
}

func (e *ProjectionBuiltEvent) AddBlocks(sources ...trigger.Source) {
	e.engine.AddSources(e.block.Threshold(), sources...)
}

func (e *ProjectionBuiltEvent) RemoveBlocks(sources ...trigger.Source) {
	e.engine.RemoveSources(sources...)
}

func (e *ProjectionBuiltEvent) NotifyValuesChanged() {
	e.engine.NotifyValuesChanged(e.block.Threshold())
}

func (e *ProjectionBuiltEvent) Close() {
	e.engine.Close()
}

func (e *ProjectionBuiltEvent) ValueKind() replication.Kind { return replication.KindFloat }

// Apply renders a replicated change.
func (e *ProjectionBuiltEvent) Apply(m replication.Message) {
	e.render(func(w *strings.Builder) {
		e.engine.UpdateDetailedInfo(w, e.block.Threshold(), m.Slot, m.EntityID, m.Value.Number)
	})
}

func (e *ProjectionBuiltEvent) Engine() *trigger.Threshold[Projector] {
	return e.engine
}
