// Package events implements the event components of the controller block.
//
// Each event owns one trigger engine, observes a kind of source through a
// small interface, and publishes its change notifications for replication.
// The same event type also renders replicated changes into the block's
// detailed info on every peer.
package events

import (
	"log/slog"
	"strings"

	"github.com/roach88/moreevents/internal/controller"
	"github.com/roach88/moreevents/internal/metrics"
	"github.com/roach88/moreevents/internal/replication"
	"github.com/roach88/moreevents/internal/text"
	"github.com/roach88/moreevents/internal/trigger"
)

// Type tags. Replication routes by these and the settings store keys on them.
const (
	ThrustRatioTag         = "ThrustRatioEvent"
	NaturalGravityTag      = "NaturalGravityEvent"
	TargetAcquiredTag      = "TargetAcquiredEvent"
	WeatherTag             = "WeatherEvent"
	ProjectionBuiltTag     = "ProjectionBuiltEvent"
	ControllerTriggeredTag = "EventControllerTriggeredEvent"
)

// Selection ids.
const (
	ThrustRatioID         int64 = 6844801
	NaturalGravityID      int64 = 6844802
	TargetAcquiredID      int64 = 6844803
	WeatherID             int64 = 6844804
	ProjectionBuiltID     int64 = 6844805
	ControllerTriggeredID int64 = 6844806
)

// Publisher replicates change notifications.
type Publisher interface {
	Publish(m replication.Message)
}

// Env carries the session services shared by every event of a peer.
type Env struct {
	// Publisher is nil on peers that do not publish.
	Publisher Publisher
	Role      trigger.Role
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Printer   *text.Printer
}

func (env Env) logger() *slog.Logger {
	if env.Logger == nil {
		return slog.Default()
	}
	return env.Logger
}

func (env Env) printer() *text.Printer {
	if env.Printer == nil {
		return text.Default()
	}
	return env.Printer
}

func (env Env) engineOptions(extra ...trigger.Option) []trigger.Option {
	opts := []trigger.Option{
		trigger.WithRole(env.Role),
		trigger.WithLogger(env.logger()),
		trigger.WithMetrics(env.Metrics),
		trigger.WithPrinter(env.printer()),
	}
	return append(opts, extra...)
}

// Component is an event attached to a block that also receives replicated
// changes.
type Component interface {
	controller.Event
	replication.Receiver
}

// base holds what every event shares.
type base struct {
	block    *controller.Block
	env      Env
	log      *slog.Logger
	tag      string
	id       int64
	name     text.Key
	uses     controller.Uses
	selected bool
}

func newBase(block *controller.Block, env Env, tag string, id int64, name text.Key, uses controller.Uses) base {
	return base{
		block: block,
		env:   env,
		log:   env.logger().With("controller", block.EntityID(), "event", tag),
		tag:   tag,
		id:    id,
		name:  name,
		uses:  uses,
	}
}

func (b *base) Tag() string               { return b.tag }
func (b *base) EventType() string         { return b.tag }
func (b *base) SelectionID() int64        { return b.id }
func (b *base) DisplayName() text.Key     { return b.name }
func (b *base) Uses() controller.Uses     { return b.uses }
func (b *base) IsSelected() bool          { return b.selected }
func (b *base) SetSelected(selected bool) { b.selected = selected }
func (b *base) Block() *controller.Block  { return b.block }

// publish replicates a change of this event. Replicas never publish.
func (b *base) publish(slot trigger.Slot, entityID int64, v replication.Value) {
	if b.env.Publisher == nil || b.env.Role != trigger.Authoritative {
		return
	}
	b.env.Publisher.Publish(replication.Message{
		BlockID:   b.block.EntityID(),
		EventType: b.tag,
		EntityID:  entityID,
		Slot:      slot,
		Value:     v,
	})
}

// render replaces the block's detailed info with the output of fn.
func (b *base) render(fn func(w *strings.Builder)) {
	var sb strings.Builder
	fn(&sb)
	b.block.SetDetailedInfo(sb.String())
}
