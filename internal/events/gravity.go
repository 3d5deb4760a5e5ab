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
	// StandardGravity converts accelerations to g.
	StandardGravity = 9.81

	// DefaultGravitySetting is the threshold of a new natural gravity event.
	DefaultGravitySetting = 0.5

	gravityDeadBand = 0.01
	minGravity      = -1.0
	maxGravity      = 1.0
)

// Grid is the grid a controller is built on.
type Grid interface {
	EntityID() int64
	Position() r3.Vec
	// OnMoved registers fn for position changes.
	OnMoved(fn func()) (detach func())
}

// GravityField resolves natural gravity at a world position.
type GravityField interface {
	NaturalGravityAt(pos r3.Vec) r3.Vec
}

// NaturalGravityEvent fires when the natural gravity at the controller's grid
// crosses the event's own gravity setting. It observes no blocks.
type NaturalGravityEvent struct {
	base
	grid    Grid
	field   GravityField
	engine  *trigger.Threshold[int64]
	setting float64
	prev    float64
	detach  func()
}

// NewNaturalGravity attaches the event to block, which is built on grid.
func NewNaturalGravity(block *controller.Block, grid Grid, field GravityField, env Env) *NaturalGravityEvent {
	e := &NaturalGravityEvent{
		base: newBase(block, env, NaturalGravityTag, NaturalGravityID, text.EventNaturalGravityName,
			controller.Uses{Condition: true}),
		grid:    grid,
		field:   field,
		setting: DefaultGravitySetting,
	}
	e.engine = trigger.NewThreshold[int64](block, trigger.Config[int64]{
		Tag:  NaturalGravityTag,
		Name: text.EventNaturalGravityName,
		Unit: text.GravitySymbol,
		Key: func(src trigger.Source) (int64, bool) {
			return src.EntityID(), src.EntityID() == grid.EntityID()
		},
		Read:   func(int64) float64 { return e.gravity() },
		Format: func(p *text.Printer, v float64) string { return p.Fixed(v, 2) },
	}, env.engineOptions(trigger.WithObservingBlocks(false))...)
	e.engine.OnChange(e.changed)
	return e
}

// gravity returns the natural gravity at the grid in g, clamped to [-1, 1].
func (e *NaturalGravityEvent) gravity() float64 {
	g := e.field.NaturalGravityAt(e.grid.Position())
	return math.Max(minGravity, math.Min(maxGravity, r3.Norm(g)/StandardGravity))
}

// Gravity changes are published whether or not the event is selected.
func (e *NaturalGravityEvent) changed(c trigger.Change[float64]) {
	e.publish(c.Slot, c.EntityID, replication.FloatValue(c.Value))
}

// SetSelected hooks grid movement while the event is selected. Only the
// authoritative peer measures gravity.
func (e *NaturalGravityEvent) SetSelected(selected bool) {
	if e.selected == selected {
		return
	}
	e.selected = selected
	if e.env.Role != trigger.Authoritative {
		return
	}
	if selected {
		e.detach = e.grid.OnMoved(e.Update)
		e.Update()
		return
	}
	if e.detach != nil {
		e.detach()
		e.detach = nil
	}
}

// Update evaluates the gravity at the grid's current position.
func (e *NaturalGravityEvent) Update() {
	g := e.gravity()
	if math.Abs(g-e.prev) < gravityDeadBand {
		return
	}
	e.engine.Raise(e.grid.EntityID(), e.prev, g, e.setting)
	e.prev = g
}

// Gravity returns the threshold setting in g.
func (e *NaturalGravityEvent) Gravity() float64 { return e.setting }

// SetGravity changes the threshold setting and resyncs the
// event when it is selected.
func (e *NaturalGravityEvent) SetGravity(v float64) error {
	if err := checkRange(e.tag, v, minGravity, maxGravity); err != nil {
		return err
	}
	e.setting = v
	if e.selected {
		e.NotifyValuesChanged()
	}
	return nil
}

func (e *NaturalGravityEvent) Setting() string {
	return formatSetting(e.setting)
}

func (e *NaturalGravityEvent) SetSetting(value string) error {
	v, err := parseRange(e.tag, value, minGravity, maxGravity)
	if err != nil {
		return err
	}
	return e.SetGravity(v)
}

func (e *NaturalGravityEvent) Accepts(trigger.Source) bool      { return false }
func (e *NaturalGravityEvent) AddBlocks(...trigger.Source)       {}
func (e *NaturalGravityEvent) RemoveBlocks(...trigger.Source)    {}
func (e *NaturalGravityEvent) ValueKind() replication.Kind       { return replication.KindFloat }
func (e *NaturalGravityEvent) Engine() *trigger.Threshold[int64] { return e.engine }

// NotifyValuesChanged re-evaluates the grid against the current setting.
func (e *NaturalGravityEvent) NotifyValuesChanged() {
	e.engine.NotifyValuesChanged(e.setting)
}

func (e *NaturalGravityEvent) Close() {
	if e.detach != nil {
		e.detach()
		e.detach = nil
	}
	e.engine.Close()
}

// Apply renders a replicated change.
func (e *NaturalGravityEvent) Apply(m replication.Message) {
	e.render(func(w *strings.Builder) {
		e.engine.UpdateDetailedInfo(w, e.setting, m.Slot, m.EntityID, m.Value.Number)
	})
}
