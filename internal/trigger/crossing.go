package trigger

import "math"

// Crossing reports the state a move from previous to current crosses into.
//
//	Greater:       Below iff previous >= t && current <  t
//	               Above iff previous <= t && current >  t
//	LowerOrEqual:  Below iff previous >= t && current <= t
//	               Above iff previous <= t && current >  t
//
// Staying on one side, or resting exactly on the threshold under Greater,
// is not a crossing.
func Crossing(previous, current, threshold float64, dir Direction) (State, bool) {
	if previous >= threshold {
		if current < threshold || (dir == LowerOrEqual && current == threshold) {
			return Below, true
		}
	}
	if previous <= threshold && current > threshold {
		return Above, true
	}
	return Below, false
}

// Classify returns the state of a value observed without history.
// A value exactly on the threshold is Below under both directions.
func Classify(value, threshold float64) State {
	if value > threshold {
		return Above
	}
	return Below
}

// Settle recomputes a recorded state against a fresh value.
//
// The recorded state stands in for the previous value: Above behaves like a
// value far above any threshold, Below like one far below. Settle therefore
// agrees with Crossing applied to that derived previous value and reports
// only real changes.
func Settle(state State, current, threshold float64, dir Direction) (State, bool) {
	previous := math.Inf(-1)
	if state == Above {
		previous = math.Inf(1)
	}
	next, crossed := Crossing(previous, current, threshold, dir)
	if !crossed || next == state {
		return state, false
	}
	return next, true
}
