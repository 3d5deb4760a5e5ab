package trigger

import "github.com/roach88/moreevents/internal/metrics"

// verdict is the aggregator's decision for one transition.
type verdict struct {
	fire   bool
	reason string // suppression reason when !fire
}

// aggregate decides whether a transition of one source into target fires the
// block-level action.
//
// Under ModeOr every transition fires. Under ModeAnd the positive state
// (Above, True) fires only once every recorded state equals it, while any
// other target fires as soon as the evaluated source reaches it: one failing
// input cancels the positive condition immediately.
//
// observed is the number of registered sources, or -1 when the engine does
// not observe blocks. AND decisions wait until every observed source has
// been classified.
func aggregate[K comparable, S comparable](mode Mode, observed int, states map[K]S, target, positive S) verdict {
	if mode != ModeAnd {
		return verdict{fire: true}
	}
	if observed >= 0 && observed != len(states) {
		return verdict{reason: metrics.SuppressIncomplete}
	}
	if target != positive {
		return verdict{fire: true}
	}
	for _, s := range states {
		if s != positive {
			return verdict{reason: metrics.SuppressConsensus}
		}
	}
	return verdict{fire: true}
}
