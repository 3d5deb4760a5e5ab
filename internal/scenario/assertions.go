package scenario

import (
	"fmt"
	"slices"
	"strings"
)

// Result is the outcome of a run.
type Result struct {
	Name string `json:"name"`
	// Pass is true when every expectation held.
	Pass   bool     `json:"pass"`
	Trace  []Entry  `json:"trace"`
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result with an empty trace.
func NewResult(name string) *Result {
	return &Result{Name: name, Pass: true, Trace: []Entry{}}
}

// AddError records a failed expectation.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// Filter returns the entries of one kind recorded for a controller, in
// trace order. An empty kind matches every kind.
func (r *Result) Filter(kind string, controller int64) []Entry {
	var out []Entry
	for _, e := range r.Trace {
		if e.Controller == controller && (kind == "" || e.Kind == kind) {
			out = append(out, e)
		}
	}
	return out
}

// check evaluates the scenario expectations against the finished session.
func (s *session) check() {
	for _, e := range s.sc.Expect {
		for _, msg := range s.checkOne(e) {
			s.result.AddError(msg)
		}
	}
}

func (s *session) checkOne(e Expectation) []string {
	var errs []string
	server := s.peers[0]

	if e.Actions != nil {
		var got []int
		if b, ok := server.blocks[e.Controller]; ok {
			for _, slot := range b.Actions() {
				got = append(got, int(slot)+1)
			}
		}
		if !slices.Equal(got, e.Actions) {
			errs = append(errs, fmt.Sprintf("controller %d: actions %v, want %v", e.Controller, got, e.Actions))
		}
	}

	if e.Messages != nil {
		got := len(s.result.Filter(KindMessage, e.Controller))
		if got != *e.Messages {
			errs = append(errs, fmt.Sprintf("controller %d: %d messages, want %d", e.Controller, got, *e.Messages))
		}
	}

	if e.Info != nil {
		name := e.Peer
		if name == "" {
			name = PeerClient
		}
		var got string
		for _, p := range s.peers {
			if p.name == name {
				if b, ok := p.blocks[e.Controller]; ok {
					got = b.DetailedInfo()
				}
			}
		}
		// YAML block scalars end with a newline; detailed info does not.
		want := strings.TrimSuffix(*e.Info, "\n")
		if got != want {
			errs = append(errs, fmt.Sprintf("controller %d: %s info\n%s\nwant\n%s", e.Controller, name, got, want))
		}
	}
	return errs
}
