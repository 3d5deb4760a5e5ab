package events

import (
	"fmt"

	"github.com/roach88/moreevents/internal/controller"
	"github.com/roach88/moreevents/internal/text"
)

// Info describes one event type.
type Info struct {
	Tag  string
	ID   int64
	Name text.Key
	Uses controller.Uses
	// Setting is true for events with their own scalar setting.
	Setting bool
}

var catalog = []Info{
	{ThrustRatioTag, ThrustRatioID, text.EventThrustRatioName, controller.Uses{Threshold: true, Condition: true, Blocks: true}, false},
	{NaturalGravityTag, NaturalGravityID, text.EventNaturalGravityName, controller.Uses{Condition: true}, true},
	{TargetAcquiredTag, TargetAcquiredID, text.EventTargetAcquiredName, controller.Uses{Condition: true, Blocks: true}, true},
	{WeatherTag, WeatherID, text.EventWeatherName, controller.Uses{}, true},
	{ProjectionBuiltTag, ProjectionBuiltID, text.EventProjectionBuiltName, controller.Uses{Threshold: true, Condition: true, Blocks: true}, false},
	{ControllerTriggeredTag, ControllerTriggeredID, text.EventControllerTriggeredName, controller.Uses{Blocks: true}, false},
}

// Catalog lists every event type in selection id order.
func Catalog() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the event type with the given tag.
func Lookup(tag string) (Info, bool) {
	for _, info := range catalog {
		if info.Tag == tag {
			return info, true
		}
	}
	return Info{}, false
}

// World is what the world-bound events read from the simulation.
type World interface {
	WeatherMap
	GravityField
}

// AttachAll creates one component of every event type, attaches them to
// block in catalog order and returns them. grid is the grid the block is
// built on.
func AttachAll(block *controller.Block, grid Grid, world World, env Env) ([]Component, error) {
	comps := []Component{
		NewThrustRatio(block, env),
		NewNaturalGravity(block, grid, world, env),
		NewTargetAcquired(block, env),
		NewWeather(block, world, env),
		NewProjectionBuilt(block, env),
		NewControllerTriggered(block, env),
	}
	for _, c := range comps {
		if err := block.Attach(c); err != nil {
			return nil, fmt.Errorf("attach events to controller %d: %w", block.EntityID(), err)
		}
	}
	return comps, nil
}
