package events

import (
	"strconv"
	"strings"

	"github.com/roach88/moreevents/internal/controller"
	"github.com/roach88/moreevents/internal/replication"
	"github.com/roach88/moreevents/internal/text"
	"github.com/roach88/moreevents/internal/trigger"
)

// WeatherUpdateInterval is the number of ticks between two weather checks.
const WeatherUpdateInterval = 160

// WeatherMap reports the weather at a controller.
type WeatherMap interface {
	// WeatherAt returns the weather index at the block, 0 for clear sky.
	WeatherAt(blockID int64) int
	// Weathers lists the weather names by index. Index 0 is rendered as
	// "None" and may be empty.
	Weathers() []string
}

// weatherSensor is the single source observed by a weather event: the
// weather at the controller itself.
type weatherSensor struct {
	id   int64
	name string
}

func (s *weatherSensor) EntityID() int64     { return s.id }
func (s *weatherSensor) DisplayName() string { return s.name }

// WeatherEvent fires its second action when the selected weather begins at
// the controller and its first action when it ends. The pulse value is True
// while the selected weather is absent.
type WeatherEvent struct {
	base
	weather WeatherMap
	sensor  *weatherSensor
	engine  *trigger.Pulse[*weatherSensor]
	watched int
	current int
	tick    int
}

// NewWeather attaches the event to block.
func NewWeather(block *controller.Block, weather WeatherMap, env Env) *WeatherEvent {
	e := &WeatherEvent{
		base:    newBase(block, env, WeatherTag, WeatherID, text.EventWeatherName, controller.Uses{}),
		weather: weather,
		sensor:  &weatherSensor{id: block.EntityID(), name: env.printer().Get(text.Weather)},
	}
	e.engine = trigger.NewPulse[*weatherSensor](block, trigger.PulseConfig[*weatherSensor]{
		Tag:  WeatherTag,
		Name: text.EventWeatherName,
		Key: func(src trigger.Source) (*weatherSensor, bool) {
			s, ok := src.(*weatherSensor)
			return s, ok
		},
		Read: func(*weatherSensor) trigger.Tristate {
			return trigger.TristateOf(e.weather.WeatherAt(e.block.EntityID()) != e.watched)
		},
	}, env.engineOptions()...)
	e.engine.OnChange(e.changed)
	e.current = weather.WeatherAt(block.EntityID())
	return e
}

// SetSelected observes the weather at the controller while the event is
// selected. The sensor is seeded with the weather at selection time.
func (e *WeatherEvent) SetSelected(selected bool) {
	if e.selected == selected {
		return
	}
	e.selected = selected
	if !selected {
		e.engine.RemoveSources(e.sensor)
		return
	}
	e.current = e.weather.WeatherAt(e.block.EntityID())
	e.tick = 0
	e.engine.AddSources(e.sensor)
}

func (e *WeatherEvent) changed(c trigger.Change[trigger.Tristate]) {
	if e.selected {
		e.publish(c.Slot, c.EntityID, replication.FloatValue(float64(e.current)))
	}
}

// Tick advances the check timer by one simulation tick. Only the
// authoritative peer checks the weather.
func (e *WeatherEvent) Tick() {
	if !e.selected || e.env.Role != trigger.Authoritative {
		return
	}
	e.tick++
	if e.tick < WeatherUpdateInterval {
		return
	}
	e.tick = 0
	e.Check()
}

// Check compares the weather at the controller with the last seen one and
// raises when it changed.
func (e *WeatherEvent) Check() {
	now := e.weather.WeatherAt(e.block.EntityID())
	if now == e.current {
		return
	}
	was := e.current
	e.current = now
	if was != e.watched && now != e.watched {
		// Neither side is the watched weather.
		return
	}
	e.log.Debug("weather changed", "from", was, "to", now)
	e.engine.Raise(e.sensor, trigger.TristateOf(now != e.watched))
}

// SelectedWeather returns the watched weather index.
func (e *WeatherEvent) SelectedWeather() int { return e.watched }

// SelectWeather changes the watched weather and resyncs the
// event when it is selected.
func (e *WeatherEvent) SelectWeather(index int) error {
	if err := checkRange(e.tag, float64(index), 0, float64(len(e.weather.Weathers())-1)); err != nil {
		return err
	}
	e.watched = index
	if e.selected {
		e.NotifyValuesChanged()
	}
	return nil
}

func (e *WeatherEvent) Setting() string {
	return strconv.Itoa(e.watched)
}

func (e *WeatherEvent) SetSetting(value string) error {
	index, err := strconv.Atoi(value)
	if err != nil {
		return &SettingError{Event: e.tag, Value: value, Max: float64(len(e.weather.Weathers()) - 1), Err: err}
	}
	return e.SelectWeather(index)
}

func (e *WeatherEvent) Accepts(trigger.Source) bool   { return false }
func (e *WeatherEvent) AddBlocks(...trigger.Source)    {}
func (e *WeatherEvent) RemoveBlocks(...trigger.Source) {}

// NotifyValuesChanged re-reads the weather after the watched weather changed.
func (e *WeatherEvent) NotifyValuesChanged() {
	e.current = e.weather.WeatherAt(e.block.EntityID())
	e.engine.NotifyValuesChanged()
}

func (e *WeatherEvent) Close() {
	e.engine.Close()
}

func (e *WeatherEvent) ValueKind() replication.Kind { return replication.KindFloat }

// Apply renders a replicated change. The value is the weather index at the
// controller.
func (e *WeatherEvent) Apply(m replication.Message) {
	p := e.env.printer()
	e.render(func(w *strings.Builder) {
		w.WriteString(p.Format(text.EventInfo, p.Get(text.EventWeatherName)))
		w.WriteByte('\n')
		w.WriteString(p.Format(text.EventBoolBlockInputInfo, p.Get(text.Weather), e.weatherName(int(m.Value.Number))))
		w.WriteByte('\n')
		w.WriteString(p.Format(text.EventOutputInfo, int(m.Slot)+1))
	})
}

func (e *WeatherEvent) weatherName(index int) string {
	names := e.weather.Weathers()
	if index <= 0 || index >= len(names) {
		return e.env.printer().Get(text.None)
	}
	return names[index]
}

func (e *WeatherEvent) Engine() *trigger.Pulse[*weatherSensor] {
	return e.engine
}
