package events

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/moreevents/internal/controller"
	"github.com/roach88/moreevents/internal/replication"
	"github.com/roach88/moreevents/internal/trigger"
)

func attach(t *testing.T, b *controller.Block, e controller.Event) {
	t.Helper()
	require.NoError(t, b.Attach(e))
	require.NoError(t, b.Select(e.SelectionID()))
}

func ticks(n int, tick func()) {
	for range n {
		tick()
	}
}

func TestThrustRatio_PollsEveryInterval(t *testing.T) {
	pub := &published{}
	b := newController(1)
	e := NewThrustRatio(b, newEnv(trigger.Authoritative, pub))
	attach(t, b, e)

	thruster := &fakeThruster{id: 10, name: "Thruster", max: 1000}
	b.AddBlocks(thruster)
	require.Equal(t, 1, e.Engine().Len())

	thruster.thrust = 600
	ticks(ThrustUpdateInterval-1, e.Tick)
	assert.Empty(t, b.Actions())

	e.Tick()
	assert.Equal(t, []trigger.Slot{trigger.SlotAbove}, b.Actions())
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, replication.Message{
		BlockID:   1,
		EventType: ThrustRatioTag,
		EntityID:  10,
		Slot:      trigger.SlotAbove,
		Value:     replication.FloatValue(0.6),
	}, pub.msgs[0])
}

func TestThrustRatio_DeadBand(t *testing.T) {
	pub := &published{}
	b := newController(1)
	e := NewThrustRatio(b, newEnv(trigger.Authoritative, pub))
	attach(t, b, e)

	thruster := &fakeThruster{id: 10, name: "Thruster", max: 1000}
	b.AddBlocks(thruster)

	thruster.thrust = 9
	e.Update()
	assert.Empty(t, pub.msgs)

	thruster.thrust = 400
	e.Update()
	assert.Len(t, pub.msgs, 1)
	assert.Empty(t, b.Actions(), "0.4 stays below 0.5")

	thruster.thrust = 405
	e.Update()
	assert.Len(t, pub.msgs, 1)

	thruster.thrust = 900
	e.Update()
	assert.Len(t, pub.msgs, 2)
	assert.Equal(t, []trigger.Slot{trigger.SlotAbove}, b.Actions())
}

func TestThrustRatio_ThresholdChangeResyncs(t *testing.T) {
	b := newController(1)
	e := NewThrustRatio(b, newEnv(trigger.Authoritative, nil))
	attach(t, b, e)

	thruster := &fakeThruster{id: 10, name: "Thruster", thrust: 700, max: 1000}
	b.AddBlocks(thruster)
	state, ok := e.Engine().State(thruster)
	require.True(t, ok)
	assert.Equal(t, trigger.Above, state)

	b.SetThreshold(0.8)
	assert.Equal(t, []trigger.Slot{trigger.SlotBelow}, b.Actions())
}

func TestThrustRatio_ClosedThrusterIsDropped(t *testing.T) {
	b := newController(1)
	e := NewThrustRatio(b, newEnv(trigger.Authoritative, nil))
	attach(t, b, e)

	thruster := &fakeThruster{id: 10, name: "Thruster", max: 1000}
	b.AddBlocks(thruster)
	require.Equal(t, 1, thruster.closed.len())

	thruster.close()
	assert.Equal(t, 0, e.Engine().Len())
	assert.Equal(t, 0, thruster.closed.len())
	assert.Empty(t, e.polled)
}

func TestThrustRatio_ReplicaNeverPolls(t *testing.T) {
	pub := &published{}
	b := newController(1)
	e := NewThrustRatio(b, newEnv(trigger.Replica, pub))
	attach(t, b, e)

	thruster := &fakeThruster{id: 10, name: "Thruster", max: 1000}
	b.AddBlocks(thruster)
	thruster.thrust = 900
	e.Update()

	assert.Empty(t, e.polled)
	assert.Empty(t, pub.msgs)
	assert.Empty(t, b.Actions())
}

func TestThrustRatio_ApplyRendersInfo(t *testing.T) {
	b := newController(1)
	e := NewThrustRatio(b, newEnv(trigger.Replica, nil))
	attach(t, b, e)
	b.AddBlocks(&fakeThruster{id: 10, name: "Thruster", max: 1000})

	e.Apply(replication.Message{BlockID: 1, EventType: ThrustRatioTag, EntityID: 10, Value: replication.FloatValue(0.6)})
	assert.Equal(t, "Event: Thrust ratio\nCondition: above threshold\nThreshold: 50.0%\nThruster: 60.0%\nOutput: action 1",
		b.DetailedInfo())
}

func TestNaturalGravity_FiresOnMovement(t *testing.T) {
	pub := &published{}
	b := newController(1)
	grid := &fakeGrid{id: 100, pos: r3.Vec{X: 5000}}
	e := NewNaturalGravity(b, grid, planet{g: StandardGravity * 0.8, radius: 1000}, newEnv(trigger.Authoritative, pub))
	attach(t, b, e)
	require.Equal(t, 1, grid.moved.len())
	assert.Empty(t, pub.msgs)

	grid.moveTo(r3.Vec{X: 500})
	assert.InDelta(t, 0.8, e.gravity(), 1e-9)
	assert.Equal(t, []trigger.Slot{trigger.SlotAbove}, b.Actions())

	grid.moveTo(r3.Vec{X: 600})
	assert.Len(t, pub.msgs, 1, "no change within the dead band")

	grid.moveTo(r3.Vec{X: 5000})
	assert.Equal(t, []trigger.Slot{trigger.SlotAbove, trigger.SlotBelow}, b.Actions())
	require.Len(t, pub.msgs, 2)
	assert.Equal(t, int64(0), pub.msgs[1].EntityID)
	assert.Equal(t, trigger.SlotBelow, pub.msgs[1].Slot)
}

func TestNaturalGravity_PublishesWhenNotSelected(t *testing.T) {
	pub := &published{}
	b := newController(1)
	grid := &fakeGrid{id: 100}
	e := NewNaturalGravity(b, grid, planet{g: StandardGravity, radius: 1000}, newEnv(trigger.Authoritative, pub))
	require.NoError(t, b.Attach(e))

	e.Update()
	assert.Len(t, pub.msgs, 1)
	assert.Equal(t, 0, grid.moved.len())
}

func TestNaturalGravity_SettingChangeResyncs(t *testing.T) {
	b := newController(1)
	grid := &fakeGrid{id: 100}
	e := NewNaturalGravity(b, grid, planet{g: StandardGravity * 0.6, radius: 1000}, newEnv(trigger.Authoritative, nil))
	attach(t, b, e)
	require.Equal(t, []trigger.Slot{trigger.SlotAbove}, b.Actions())

	require.NoError(t, e.SetSetting("0.7"))
	assert.Equal(t, 0.7, e.Gravity())
	assert.Equal(t, "0.7", e.Setting())
	assert.Equal(t, []trigger.Slot{trigger.SlotAbove, trigger.SlotBelow}, b.Actions())
}

func TestNaturalGravity_DeselectStopsMeasuring(t *testing.T) {
	b := newController(1)
	grid := &fakeGrid{id: 100, pos: r3.Vec{X: 5000}}
	e := NewNaturalGravity(b, grid, planet{g: StandardGravity, radius: 1000}, newEnv(trigger.Authoritative, nil))
	attach(t, b, e)
	other := NewThrustRatio(b, newEnv(trigger.Authoritative, nil))
	attach(t, b, other)

	assert.False(t, e.IsSelected())
	assert.Equal(t, 0, grid.moved.len())
	grid.moveTo(r3.Vec{})
	assert.Empty(t, b.Actions())
}

func TestNaturalGravity_ReplicaDoesNotMeasure(t *testing.T) {
	b := newController(1)
	grid := &fakeGrid{id: 100}
	e := NewNaturalGravity(b, grid, planet{g: StandardGravity, radius: 1000}, newEnv(trigger.Replica, nil))
	attach(t, b, e)
	assert.Equal(t, 0, grid.moved.len())
	assert.Empty(t, b.Actions())
}

func TestNaturalGravity_ApplyRendersInfo(t *testing.T) {
	b := newController(1)
	e := NewNaturalGravity(b, &fakeGrid{id: 100}, planet{}, newEnv(trigger.Replica, nil))
	attach(t, b, e)

	e.Apply(replication.Message{BlockID: 1, EventType: NaturalGravityTag, Value: replication.FloatValue(0.75)})
	assert.Equal(t, "Event: Natural gravity\nCondition: above threshold\nThreshold: 0.50g\nInput: 0.75g\nOutput: action 1",
		b.DetailedInfo())
}

func TestTargetAcquired_FollowsTarget(t *testing.T) {
	pub := &published{}
	b := newController(1)
	e := NewTargetAcquired(b, newEnv(trigger.Authoritative, pub))
	attach(t, b, e)

	turret := &fakeSearcher{id: 20, name: "Turret"}
	b.AddBlocks(turret)
	require.Contains(t, e.watchers, Searcher(turret))
	assert.Equal(t, NoTarget, e.watchers[turret].Distance())

	ship := &fakeTarget{id: 30, pos: r3.Vec{X: 300}}
	turret.lock(ship)
	assert.Equal(t, []trigger.Slot{trigger.SlotBelow}, b.Actions())

	ship.moveTo(r3.Vec{X: 800})
	assert.Equal(t, []trigger.Slot{trigger.SlotBelow, trigger.SlotAbove}, b.Actions())

	ship.close()
	assert.Equal(t, 0, ship.moved.len())
	assert.Equal(t, 0, ship.closed.len())
	require.NotEmpty(t, pub.msgs)
	assert.Equal(t, NoTarget, pub.msgs[len(pub.msgs)-1].Value.Number)
	assert.Len(t, b.Actions(), 2)
}

func TestTargetAcquired_ReacquiredTargetCrossesAgain(t *testing.T) {
	b := newController(1)
	e := NewTargetAcquired(b, newEnv(trigger.Authoritative, nil))
	attach(t, b, e)
	b.SetLowerOrEqual(true)

	turret := &fakeSearcher{id: 20, name: "Turret"}
	b.AddBlocks(turret)
	ship := &fakeTarget{id: 30, pos: r3.Vec{X: 100}}

	turret.lock(ship)
	turret.lock(nil)
	turret.lock(ship)
	assert.Equal(t, []trigger.Slot{trigger.SlotBelow, trigger.SlotAbove, trigger.SlotBelow}, b.Actions())
}

func TestTargetAcquired_RemoveDropsWatcher(t *testing.T) {
	b := newController(1)
	e := NewTargetAcquired(b, newEnv(trigger.Authoritative, nil))
	attach(t, b, e)

	turret := &fakeSearcher{id: 20, name: "Turret", target: &fakeTarget{id: 30, pos: r3.Vec{X: 2000}}}
	b.AddBlocks(turret)
	require.Equal(t, 1, turret.changed.len())

	b.RemoveBlocks(turret)
	assert.Empty(t, e.watchers)
	assert.Equal(t, 0, turret.changed.len())
}

func TestTargetAcquired_DestroyedSearcherDropsWatcher(t *testing.T) {
	for _, role := range []trigger.Role{trigger.Authoritative, trigger.Replica} {
		t.Run(role.String(), func(t *testing.T) {
			b := newController(1)
			e := NewTargetAcquired(b, newEnv(role, nil))
			attach(t, b, e)

			turret := &fakeSearcher{id: 20, name: "Turret"}
			b.AddBlocks(turret)
			require.Len(t, e.watchers, 1)

			turret.destroy()
			assert.Equal(t, 0, e.Engine().Len())
			assert.Empty(t, e.watchers)
			assert.Equal(t, 0, turret.closing.len())
			assert.Equal(t, 0, turret.changed.len())
		})
	}
}

func TestTargetAcquired_DistanceSetting(t *testing.T) {
	b := newController(1)
	e := NewTargetAcquired(b, newEnv(trigger.Authoritative, nil))
	attach(t, b, e)

	turret := &fakeSearcher{id: 20, name: "Turret", target: &fakeTarget{id: 30, pos: r3.Vec{X: 1000}}}
	b.AddBlocks(turret)
	require.Empty(t, b.Actions())

	require.NoError(t, e.SetDistance(1500))
	assert.Equal(t, []trigger.Slot{trigger.SlotBelow}, b.Actions())

	err := e.SetDistance(3000)
	require.Error(t, err)
	assert.True(t, IsSettingError(err))
	assert.Equal(t, 1500.0, e.Distance())
}

func TestTargetAcquired_ApplyRendersNone(t *testing.T) {
	b := newController(1)
	e := NewTargetAcquired(b, newEnv(trigger.Replica, nil))
	attach(t, b, e)
	b.AddBlocks(&fakeSearcher{id: 20, name: "Turret"})

	e.Apply(replication.Message{BlockID: 1, EventType: TargetAcquiredTag, EntityID: 20, Slot: trigger.SlotAbove,
		Value: replication.FloatValue(NoTarget)})
	assert.Equal(t, "Event: Target distance\nCondition: above threshold\nThreshold: 500.0m\nTurret: None\nOutput: action 1",
		b.DetailedInfo())
}

func TestProjectionBuilt_WeldingProgress(t *testing.T) {
	pub := &published{}
	b := newController(1)
	e := NewProjectionBuilt(b, newEnv(trigger.Authoritative, pub))
	attach(t, b, e)

	projector := &fakeProjector{id: 40, name: "Projector", total: 4, remaining: 4}
	table := &fakeProjector{id: 41, name: "Table", total: 4, remaining: 4, table: true}
	b.AddBlocks(projector, table)
	require.Equal(t, 1, e.Engine().Len())

	projector.weld()
	projector.weld()
	assert.Empty(t, b.Actions(), "0.5 is not above 0.5")

	projector.weld()
	assert.Equal(t, []trigger.Slot{trigger.SlotAbove}, b.Actions())

	projector.notify(ProjectionRemoved)
	assert.Equal(t, []trigger.Slot{trigger.SlotAbove, trigger.SlotBelow}, b.Actions())
	assert.Len(t, pub.msgs, 4)
	assert.Equal(t, 0.0, pub.msgs[3].Value.Number)
}

func TestProjectionBuilt_BlockRemoved(t *testing.T) {
	b := newController(1)
	e := NewProjectionBuilt(b, newEnv(trigger.Authoritative, nil))
	attach(t, b, e)

	projector := &fakeProjector{id: 40, name: "Projector", total: 2, remaining: 0}
	b.AddBlocks(projector)
	state, _ := e.Engine().State(projector)
	require.Equal(t, trigger.Above, state)

	projector.remaining = 1
	projector.notify(BlockRemoved)
	assert.Empty(t, b.Actions(), "0.5 does not fall below 0.5")

	projector.remaining = 2
	projector.notify(BlockRemoved)
	assert.Equal(t, []trigger.Slot{trigger.SlotBelow}, b.Actions())
}

func TestBuiltRatio_EmptyProjection(t *testing.T) {
	assert.Equal(t, 0.0, builtRatio(0, 0))
	assert.Equal(t, 0.25, builtRatio(1, 4))
}

func TestControllerTriggered_ForwardsActions(t *testing.T) {
	pub := &published{}
	b := newController(1)
	e := NewControllerTriggered(b, newEnv(trigger.Authoritative, pub))
	attach(t, b, e)

	upstream := newController(2)
	b.AddBlocks(upstream, b)
	require.Equal(t, 1, e.Engine().Len())

	// The observed controller's second action raises True.
	upstream.InvokeAction(trigger.SlotFalse)
	upstream.InvokeAction(trigger.SlotFalse)
	upstream.InvokeAction(trigger.SlotTrue)
	assert.Equal(t, []trigger.Slot{trigger.SlotTrue, trigger.SlotTrue, trigger.SlotFalse}, b.Actions())

	require.Len(t, pub.msgs, 3)
	assert.Equal(t, replication.BoolValue(trigger.True), pub.msgs[0].Value)
	assert.Equal(t, replication.BoolValue(trigger.False), pub.msgs[2].Value)
	assert.Equal(t, int64(2), pub.msgs[2].EntityID)
}

func TestControllerTriggered_AndWaitsForAll(t *testing.T) {
	b := newController(1)
	e := NewControllerTriggered(b, newEnv(trigger.Authoritative, nil))
	attach(t, b, e)
	b.SetAndMode(true)

	first, second := newController(2), newController(3)
	b.AddBlocks(first, second)

	first.InvokeAction(trigger.SlotFalse)
	assert.Empty(t, b.Actions())

	second.InvokeAction(trigger.SlotFalse)
	assert.Equal(t, []trigger.Slot{trigger.SlotTrue}, b.Actions())
}

func TestControllerTriggered_AndFalseFiresImmediately(t *testing.T) {
	b := newController(1)
	e := NewControllerTriggered(b, newEnv(trigger.Authoritative, nil))
	attach(t, b, e)
	b.SetAndMode(true)

	first, second := newController(2), newController(3)
	b.AddBlocks(first, second)
	assert.Equal(t, trigger.False, e.Engine().State(first))
	assert.Equal(t, trigger.False, e.Engine().State(second))

	first.InvokeAction(trigger.SlotTrue)
	assert.Equal(t, []trigger.Slot{trigger.SlotFalse}, b.Actions())
}

func TestControllerTriggered_ResyncDoesNotPulse(t *testing.T) {
	pub := &published{}
	b := newController(1)
	e := NewControllerTriggered(b, newEnv(trigger.Authoritative, pub))
	attach(t, b, e)

	upstream := newController(2)
	b.AddBlocks(upstream)
	upstream.InvokeAction(trigger.SlotFalse)
	require.Equal(t, []trigger.Slot{trigger.SlotTrue}, b.Actions())

	e.NotifyValuesChanged()
	assert.Len(t, b.Actions(), 1)
	require.Len(t, pub.msgs, 2)
	assert.Equal(t, int64(0), pub.msgs[1].EntityID)
	assert.Equal(t, replication.BoolValue(trigger.False), pub.msgs[1].Value)
}

func TestControllerTriggered_ClosedUpstreamIsDropped(t *testing.T) {
	b := newController(1)
	e := NewControllerTriggered(b, newEnv(trigger.Authoritative, nil))
	attach(t, b, e)

	upstream := newController(2)
	b.AddBlocks(upstream)
	upstream.Close()

	assert.Equal(t, 0, e.Engine().Len())
	upstream.InvokeAction(trigger.SlotTrue)
	assert.Empty(t, b.Actions())
}

func TestControllerTriggered_ApplyRendersInfo(t *testing.T) {
	b := newController(1)
	e := NewControllerTriggered(b, newEnv(trigger.Replica, nil))
	attach(t, b, e)
	b.AddBlocks(controller.NewBlock(2, "Door Controller", controller.WithLogger(discard)))

	e.Apply(replication.Message{BlockID: 1, EventType: ControllerTriggeredTag, EntityID: 2, Slot: trigger.SlotTrue,
		Value: replication.BoolValue(trigger.True)})
	assert.Equal(t, "Event: Event controller triggered\nDoor Controller: Triggered\nOutput: action 1", b.DetailedInfo())
}

func TestWeather_FiresOnWatchedWeather(t *testing.T) {
	pub := &published{}
	b := newController(1)
	weather := &fakeWeather{names: []string{"", "Rain", "Snow"}}
	e := NewWeather(b, weather, newEnv(trigger.Authoritative, pub))
	require.NoError(t, e.SelectWeather(1))
	attach(t, b, e)

	weather.at = 1
	ticks(WeatherUpdateInterval, e.Tick)
	assert.Equal(t, []trigger.Slot{trigger.SlotFalse}, b.Actions(), "rain began")

	weather.at = 2
	e.Check()
	assert.Equal(t, []trigger.Slot{trigger.SlotFalse, trigger.SlotTrue}, b.Actions(), "rain ended")

	weather.at = 0
	e.Check()
	assert.Len(t, b.Actions(), 2, "neither side is rain")

	require.Len(t, pub.msgs, 2)
	assert.Equal(t, trigger.SlotTrue, pub.msgs[1].Slot)
	assert.Equal(t, replication.FloatValue(2), pub.msgs[1].Value)
}

func TestWeather_SeededOnSelection(t *testing.T) {
	b := newController(1)
	b.SetWorking(false)
	weather := &fakeWeather{names: []string{"", "Rain"}}
	e := NewWeather(b, weather, newEnv(trigger.Authoritative, nil))
	require.NoError(t, e.SelectWeather(1))
	assert.Equal(t, 0, e.Engine().Len())

	b.SetWorking(true)
	b.SetAndMode(true)
	attach(t, b, e)
	require.Equal(t, 1, e.Engine().Len())

	weather.at = 1
	e.Check()
	assert.Equal(t, []trigger.Slot{trigger.SlotFalse}, b.Actions())
}

func TestWeather_ReselectedKeepsFiring(t *testing.T) {
	b := newController(1)
	weather := &fakeWeather{names: []string{"", "Rain"}}
	e := NewWeather(b, weather, newEnv(trigger.Authoritative, nil))
	other := NewControllerTriggered(b, newEnv(trigger.Authoritative, nil))
	require.NoError(t, e.SelectWeather(1))
	attach(t, b, e)
	require.NoError(t, b.Attach(other))

	require.NoError(t, b.Select(ControllerTriggeredID))
	assert.Equal(t, 0, e.Engine().Len())
	require.NoError(t, b.Select(WeatherID))

	weather.at = 1
	e.Check()
	assert.Equal(t, []trigger.Slot{trigger.SlotFalse}, b.Actions())
}

func TestWeather_UnchangedWeatherDoesNotRepeat(t *testing.T) {
	b := newController(1)
	weather := &fakeWeather{names: []string{"", "Rain"}}
	e := NewWeather(b, weather, newEnv(trigger.Authoritative, nil))
	require.NoError(t, e.SetSetting("1"))
	attach(t, b, e)

	weather.at = 1
	e.Check()
	e.Check()
	e.Check()
	assert.Len(t, b.Actions(), 1)
}

func TestWeather_Setting(t *testing.T) {
	b := newController(1)
	e := NewWeather(b, &fakeWeather{names: []string{"", "Rain"}}, newEnv(trigger.Authoritative, nil))

	require.NoError(t, e.SetSetting("1"))
	assert.Equal(t, "1", e.Setting())
	assert.Equal(t, 1, e.SelectedWeather())

	err := e.SetSetting("2")
	assert.True(t, IsSettingError(err))
	err = e.SetSetting("rain")
	assert.True(t, IsSettingError(err))
	assert.ErrorIs(t, err, strconv.ErrSyntax)
}

func TestWeather_ApplyRendersInfo(t *testing.T) {
	b := newController(1)
	e := NewWeather(b, &fakeWeather{names: []string{"", "Rain"}}, newEnv(trigger.Replica, nil))
	attach(t, b, e)

	e.Apply(replication.Message{BlockID: 1, EventType: WeatherTag, Value: replication.FloatValue(1)})
	assert.Equal(t, "Event: Weather\nWeather: Rain\nOutput: action 1", b.DetailedInfo())

	e.Apply(replication.Message{BlockID: 1, EventType: WeatherTag, Slot: trigger.SlotFalse, Value: replication.FloatValue(0)})
	assert.Equal(t, "Event: Weather\nWeather: None\nOutput: action 2", b.DetailedInfo())
}

func TestSettings_RangeChecks(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"lower bound", "-1", true},
		{"upper bound", "1", true},
		{"below", "-1.01", false},
		{"above", "1.5", false},
		{"nan", "NaN", false},
		{"garbage", "half", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRange(NaturalGravityTag, tt.value, minGravity, maxGravity)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, IsSettingError(err))
		})
	}
}

func TestSettingError_Message(t *testing.T) {
	err := checkRange(TargetAcquiredTag, 3000, 0, 2500)
	assert.EqualError(t, err, `TargetAcquiredEvent setting "3000": out of range [0, 2500]`)
}

func TestReplication_EndToEnd(t *testing.T) {
	hub := replication.NewHub()
	serverDispatcher := replication.NewDispatcher(discard, nil)
	clientDispatcher := replication.NewDispatcher(discard, nil)
	serverPeer := hub.Join(true, serverDispatcher.Handle)
	hub.Join(false, clientDispatcher.Handle)

	pub := replication.NewPublisher(serverDispatcher, serverPeer, discard, nil)

	server := newController(1)
	serverEvent := NewThrustRatio(server, newEnv(trigger.Authoritative, pub))
	attach(t, server, serverEvent)
	serverDispatcher.Register(1, serverEvent)

	client := newController(1)
	clientEvent := NewThrustRatio(client, newEnv(trigger.Replica, pub))
	attach(t, client, clientEvent)
	clientDispatcher.Register(1, clientEvent)

	thruster := &fakeThruster{id: 10, name: "Thruster", max: 1000}
	server.AddBlocks(thruster)
	client.AddBlocks(thruster)

	thruster.thrust = 750
	serverEvent.Update()
	clientEvent.Update()

	want := "Event: Thrust ratio\nCondition: above threshold\nThreshold: 50.0%\nThruster: 75.0%\nOutput: action 1"
	assert.Equal(t, want, server.DetailedInfo())
	assert.Equal(t, want, client.DetailedInfo())
	assert.Equal(t, []trigger.Slot{trigger.SlotAbove}, server.Actions())
	assert.Empty(t, client.Actions())
}

type calmWorld struct{}

func (calmWorld) WeatherAt(int64) int            { return 0 }
func (calmWorld) Weathers() []string             { return []string{""} }
func (calmWorld) NaturalGravityAt(r3.Vec) r3.Vec { return r3.Vec{} }

func TestAttachAll_MatchesCatalog(t *testing.T) {
	b := newController(1)
	comps, err := AttachAll(b, &fakeGrid{id: 100}, calmWorld{}, newEnv(trigger.Authoritative, nil))
	require.NoError(t, err)

	infos := Catalog()
	require.Len(t, comps, len(infos))
	for i, c := range comps {
		info := infos[i]
		assert.Equal(t, info.Tag, c.Tag())
		assert.Equal(t, info.Tag, c.EventType())
		assert.Equal(t, info.ID, c.SelectionID())
		assert.Equal(t, info.Name, c.DisplayName())
		assert.Equal(t, info.Uses, c.Uses())
		_, configurable := c.(Configurable)
		assert.Equal(t, info.Setting, configurable, info.Tag)
	}

	_, err = AttachAll(b, &fakeGrid{id: 100}, calmWorld{}, newEnv(trigger.Authoritative, nil))
	assert.Error(t, err, "selection ids are taken")
}

func TestLookup(t *testing.T) {
	info, ok := Lookup(WeatherTag)
	require.True(t, ok)
	assert.Equal(t, WeatherID, info.ID)

	_, ok = Lookup("TimerEvent")
	assert.False(t, ok)
}
