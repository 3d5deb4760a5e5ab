package scenario

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

// Clock stamps trace entries with strictly increasing sequence numbers.
// Two runs of the same scenario produce the same stamps.
//
// Thread-safety: Clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next value is start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Trace entry kinds.
const (
	KindAction  = "action"
	KindMessage = "message"
	KindInfo    = "info"
	KindReject  = "reject"
	KindPersist = "persist"
)

// Entry is one recorded observation of a run.
type Entry struct {
	Seq        int64  `json:"seq"`
	Kind       string `json:"kind"`
	Peer       string `json:"peer"`
	Controller int64  `json:"controller"`
	Text       string `json:"text,omitempty"`
}

// WriteTrace renders entries one per line:
//
//	003 action server #1 action 1
//
// Multi-line text, such as detailed info, follows the header indented by
// four spaces.
func WriteTrace(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		header := fmt.Sprintf("%03d %s %s #%d", e.Seq, e.Kind, e.Peer, e.Controller)
		var err error
		switch {
		case e.Text == "":
			_, err = fmt.Fprintln(w, header)
		case strings.Contains(e.Text, "\n") || e.Kind == KindInfo:
			_, err = fmt.Fprintln(w, header)
			for _, line := range strings.Split(e.Text, "\n") {
				if err != nil {
					break
				}
				_, err = fmt.Fprintf(w, "    %s\n", line)
			}
		default:
			_, err = fmt.Fprintf(w, "%s %s\n", header, e.Text)
		}
		if err != nil {
			return fmt.Errorf("write trace: %w", err)
		}
	}
	return nil
}

// FormatTrace returns the text rendering of entries.
func FormatTrace(entries []Entry) string {
	var sb strings.Builder
	// strings.Builder never fails.
	_ = WriteTrace(&sb, entries)
	return sb.String()
}
