package trigger

// Slot identifies one of the two configurable controller actions.
type Slot int

const (
	// SlotAbove is the action fired when a value rises above the threshold.
	SlotAbove Slot = 0
	// SlotBelow is the action fired when a value falls below the threshold.
	SlotBelow Slot = 1

	// SlotTrue is the action fired for a true pulse.
	SlotTrue = SlotAbove
	// SlotFalse is the action fired for a false pulse.
	SlotFalse = SlotBelow
)

// State classifies a continuous value relative to a threshold.
type State int

const (
	Below State = iota
	Above
)

// Slot returns the action slot fired on a transition into s.
func (s State) Slot() Slot {
	if s == Above {
		return SlotAbove
	}
	return SlotBelow
}

func (s State) String() string {
	if s == Above {
		return "above"
	}
	return "below"
}

// Tristate is an optional boolean.
type Tristate int8

const (
	Unknown Tristate = iota
	False
	True
)

// TristateOf converts b to a known Tristate.
func TristateOf(b bool) Tristate {
	if b {
		return True
	}
	return False
}

// Known reports whether t carries a value.
func (t Tristate) Known() bool {
	return t != Unknown
}

// Bool returns the value of t. Unknown reports false.
func (t Tristate) Bool() bool {
	return t == True
}

// Slot returns the action slot for a known value.
func (t Tristate) Slot() Slot {
	if t == True {
		return SlotTrue
	}
	return SlotFalse
}

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// Direction selects the boundary rule of the threshold comparison.
type Direction int

const (
	// Greater treats the threshold itself as neither side: a value must move
	// strictly past it to cross.
	Greater Direction = iota
	// LowerOrEqual counts reaching the threshold from above as falling below it.
	LowerOrEqual
)

// DirectionOf returns LowerOrEqual if lowerOrEqual is set, Greater otherwise.
func DirectionOf(lowerOrEqual bool) Direction {
	if lowerOrEqual {
		return LowerOrEqual
	}
	return Greater
}

func (d Direction) String() string {
	if d == LowerOrEqual {
		return "lower_or_equal"
	}
	return "greater"
}

// Mode is the aggregation policy across observed sources.
type Mode int

const (
	// ModeOr fires on any single qualifying transition.
	ModeOr Mode = iota
	// ModeAnd requires consensus of all observed sources for the positive action.
	ModeAnd
)

// ModeOf returns ModeAnd if and is set, ModeOr otherwise.
func ModeOf(and bool) Mode {
	if and {
		return ModeAnd
	}
	return ModeOr
}

func (m Mode) String() string {
	if m == ModeAnd {
		return "and"
	}
	return "or"
}

// Role tells an engine whether it runs on the authoritative replica.
type Role int

const (
	Authoritative Role = iota
	Replica
)

func (r Role) String() string {
	if r == Replica {
		return "replica"
	}
	return "authoritative"
}

// Host is the controller block owning an engine.
type Host interface {
	// IsActive reports whether the block is built, powered and enabled.
	IsActive() bool
	Mode() Mode
	Direction() Direction
	InvokeAction(slot Slot)
}

// Source is an observed block or entity.
type Source interface {
	EntityID() int64
	DisplayName() string
}

// Closer is implemented by sources that announce their own destruction.
// The returned function detaches fn; it must be safe to call from within fn.
type Closer interface {
	OnClose(fn func()) (detach func())
}

// Change is emitted once per evaluation and once per resync pass.
//
// Fired reports whether the evaluation produced a transition (Raise) or
// changed any classification (resync). EntityID is zero when the value does
// not belong to an observed block.
type Change[V any] struct {
	Slot     Slot
	EntityID int64
	Value    V
	Fired    bool
}

// ChangeFunc consumes change notifications.
type ChangeFunc[V any] func(Change[V])
