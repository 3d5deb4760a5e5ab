package events

import (
	"strings"

	"github.com/roach88/moreevents/internal/controller"
	"github.com/roach88/moreevents/internal/replication"
	"github.com/roach88/moreevents/internal/text"
	"github.com/roach88/moreevents/internal/trigger"
)

// ActionSource is a block that announces its triggered actions, typically
// another event controller.
type ActionSource interface {
	trigger.Source
	OnActionTriggered(fn func(slot trigger.Slot)) (detach func())
}

// ControllerTriggeredEvent forwards the actions of other controllers: an
// observed controller firing any action past its first raises True, its
// first action raises False.
type ControllerTriggeredEvent struct {
	base
	engine *trigger.Pulse[ActionSource]
	detach map[ActionSource]func()
}

// NewControllerTriggered attaches the event to block.
func NewControllerTriggered(block *controller.Block, env Env) *ControllerTriggeredEvent {
	e := &ControllerTriggeredEvent{
		base: newBase(block, env, ControllerTriggeredTag, ControllerTriggeredID, text.EventControllerTriggeredName,
			controller.Uses{Blocks: true}),
		detach: make(map[ActionSource]func()),
	}
	e.engine = trigger.NewPulse[ActionSource](block, trigger.PulseConfig[ActionSource]{
		Tag:  ControllerTriggeredTag,
		Name: text.EventControllerTriggeredName,
		Key: func(src trigger.Source) (ActionSource, bool) {
			a, ok := src.(ActionSource)
			return a, ok && src.EntityID() != block.EntityID()
		},
		// Only pulses carry a value; an observed controller reads as not
		// triggered until it fires.
		Read:        func(ActionSource) trigger.Tristate { return trigger.False },
		Subscribe:   e.subscribe,
		Unsubscribe: e.unsubscribe,
	}, env.engineOptions()...)
	e.engine.OnChange(e.changed)
	return e
}

func (e *ControllerTriggeredEvent) subscribe(src trigger.Source) {
	a := src.(ActionSource)
	e.detach[a] = a.OnActionTriggered(func(slot trigger.Slot) {
		e.log.Debug("observed controller triggered", "source", a.EntityID(), "slot", int(slot))
		e.engine.Raise(a, trigger.TristateOf(slot != trigger.SlotTrue))
	})
}

func (e *ControllerTriggeredEvent) unsubscribe(src trigger.Source) {
	a := src.(ActionSource)
	if detach, ok := e.detach[a]; ok {
		detach()
		delete(e.detach, a)
	}
}

func (e *ControllerTriggeredEvent) changed(c trigger.Change[trigger.Tristate]) {
	if e.selected {
		e.publish(c.Slot, c.EntityID, replication.BoolValue(c.Value))
	}
}

// Accepts takes other controllers. A controller cannot observe itself.
func (e *ControllerTriggeredEvent) Accepts(src trigger.Source) bool {
	_, ok := src.(ActionSource)
	return ok && src.EntityID() != e.block.EntityID()
}

func (e *ControllerTriggeredEvent) AddBlocks(sources ...trigger.Source) {
	e.engine.AddSources(sources...)
}

func (e *ControllerTriggeredEvent) RemoveBlocks(sources ...trigger.Source) {
	e.engine.RemoveSources(sources...)
}

// NotifyValuesChanged republishes the display without re-reading the
// observed controllers: their value only exists while they fire.
func (e *ControllerTriggeredEvent) NotifyValuesChanged() {
	e.changed(trigger.Change[trigger.Tristate]{Slot: e.engine.LastSlot(), Value: trigger.False})
}

func (e *ControllerTriggeredEvent) Close() {
	e.engine.Close()
}

func (e *ControllerTriggeredEvent) ValueKind() replication.Kind { return replication.KindBool }

// Apply renders a replicated change.
func (e *ControllerTriggeredEvent) Apply(m replication.Message) {
	e.render(func(w *strings.Builder) {
		e.engine.UpdateDetailedInfo(w, m.Slot, m.EntityID, m.Value.Flag)
	})
}

func (e *ControllerTriggeredEvent) Engine() *trigger.Pulse[ActionSource] {
	return e.engine
}
