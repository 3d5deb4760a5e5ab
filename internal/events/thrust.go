package events

import (
	"math"
	"strings"

	"github.com/roach88/moreevents/internal/controller"
	"github.com/roach88/moreevents/internal/replication"
	"github.com/roach88/moreevents/internal/text"
	"github.com/roach88/moreevents/internal/trigger"
)

const (
	// ThrustUpdateInterval is the number of ticks between two thrust polls.
	ThrustUpdateInterval = 7
	// thrustDeadBand is the smallest thrust change, in newtons, that is
	// evaluated.
	thrustDeadBand = 10.0
)

// Thruster is a thrust-producing block.
type Thruster interface {
	trigger.Source
	CurrentThrust() float64
	MaxThrust() float64
}

// ThrustRatioEvent fires when the current/max thrust ratio of observed
// thrusters crosses the controller threshold.
type ThrustRatioEvent struct {
	base
	engine *trigger.Threshold[Thruster]
	// previous thrust per subscribed thruster, in newtons
	polled map[Thruster]float64
	tick   int
}

// NewThrustRatio attaches the event to block.
func NewThrustRatio(block *controller.Block, env Env) *ThrustRatioEvent {
	e := &ThrustRatioEvent{
		base: newBase(block, env, ThrustRatioTag, ThrustRatioID, text.EventThrustRatioName,
			controller.Uses{Threshold: true, Condition: true, Blocks: true}),
		polled: make(map[Thruster]float64),
	}
	e.engine = trigger.NewThreshold[Thruster](block, trigger.Config[Thruster]{
		Tag:  ThrustRatioTag,
		Name: text.EventThrustRatioName,
		Unit: text.PercentSign,
		Key: func(src trigger.Source) (Thruster, bool) {
			t, ok := src.(Thruster)
			return t, ok
		},
		Read:        thrustRatio,
		Subscribe:   func(src trigger.Source) { e.polled[src.(Thruster)] = 0 },
		Unsubscribe: func(src trigger.Source) { delete(e.polled, src.(Thruster)) },
	}, env.engineOptions()...)
	e.engine.OnChange(e.changed)
	return e
}

func thrustRatio(t Thruster) float64 {
	maxThrust := t.MaxThrust()
	if maxThrust <= 0 {
		return 0
	}
	return t.CurrentThrust() / maxThrust
}

func (e *ThrustRatioEvent) changed(c trigger.Change[float64]) {
	if e.selected {
		e.publish(c.Slot, c.EntityID, replication.FloatValue(c.Value))
	}
}

// Tick advances the poll timer by one simulation tick.
func (e *ThrustRatioEvent) Tick() {
	e.tick++
	if e.tick < ThrustUpdateInterval {
		return
	}
	e.tick = 0
	e.Update()
}

// Update evaluates every subscribed thruster whose thrust changed by at
// least the dead band since the last evaluation.
func (e *ThrustRatioEvent) Update() {
	for _, src := range e.engine.Sources() {
		t := src.(Thruster)
		previous, ok := e.polled[t]
		if !ok {
			continue
		}
		current := t.CurrentThrust()
		if math.Abs(current-previous) < thrustDeadBand {
			continue
		}
		e.polled[t] = current

		maxThrust := t.MaxThrust()
		if maxThrust <= 0 {
			continue
		}
		e.engine.Raise(t, previous/maxThrust, current/maxThrust, e.block.Threshold())
	}
}

func (e *ThrustRatioEvent) Accepts(src trigger.Source) bool {
	_, ok := src.(Thruster)
	return ok
}

func (e *ThrustRatioEvent) AddBlocks(sources ...trigger.Source) {
	e.engine.AddSources(e.block.Threshold(), sources...)
}

func (e *ThrustRatioEvent) RemoveBlocks(sources ...trigger.Source) {
	e.engine.RemoveSources(sources...)
}

func (e *ThrustRatioEvent) NotifyValuesChanged() {
	e.engine.NotifyValuesChanged(e.block.Threshold())
}

func (e *ThrustRatioEvent) Close() {
	e.engine.Close()
}

func (e *ThrustRatioEvent) ValueKind() replication.Kind { return replication.KindFloat }

// Apply renders a replicated change.
func (e *ThrustRatioEvent) Apply(m replication.Message) {
	e.render(func(w *strings.Builder) {
		e.engine.UpdateDetailedInfo(w, e.block.Threshold(), m.Slot, m.EntityID, m.Value.Number)
	})
}

// Engine exposes the underlying trigger engine.
func (e *ThrustRatioEvent) Engine() *trigger.Threshold[Thruster] {
	return e.engine
}
