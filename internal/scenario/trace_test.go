package scenario

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_NewClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current(), "new clock should start at 0")
}

func TestClock_NewClockAt(t *testing.T) {
	c := NewClockAt(100)
	assert.Equal(t, int64(100), c.Current())
	assert.Equal(t, int64(101), c.Next())
}

func TestClock_Next(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current(), "Current does not increment")
}

func TestClock_ThreadSafe(t *testing.T) {
	c := NewClock()
	const goroutines = 50
	const calls = 100

	var wg sync.WaitGroup
	seqs := make(chan int64, goroutines*calls)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range calls {
				seqs <- c.Next()
			}
		}()
	}
	wg.Wait()
	close(seqs)

	seen := make(map[int64]bool)
	for seq := range seqs {
		assert.False(t, seen[seq], "seq %d generated twice", seq)
		seen[seq] = true
	}
	assert.Len(t, seen, goroutines*calls)
}

func TestFormatTrace(t *testing.T) {
	entries := []Entry{
		{Seq: 1, Kind: KindAction, Peer: PeerServer, Controller: 1, Text: "action 1"},
		{Seq: 2, Kind: KindInfo, Peer: PeerClient, Controller: 1, Text: "Event: Weather"},
		{Seq: 3, Kind: KindReject, Peer: PeerServer, Controller: 2, Text: "bad\nvalue"},
		{Seq: 14, Kind: KindInfo, Peer: PeerServer, Controller: 3},
	}

	want := "001 action server #1 action 1\n" +
		"002 info client #1\n" +
		"    Event: Weather\n" +
		"003 reject server #2\n" +
		"    bad\n" +
		"    value\n" +
		"014 info server #3\n"
	assert.Equal(t, want, FormatTrace(entries))
}

func TestFormatTrace_Empty(t *testing.T) {
	assert.Empty(t, FormatTrace(nil))
}

func TestResult_Filter(t *testing.T) {
	r := NewResult("x")
	r.Trace = []Entry{
		{Seq: 1, Kind: KindAction, Controller: 1},
		{Seq: 2, Kind: KindMessage, Controller: 1},
		{Seq: 3, Kind: KindAction, Controller: 2},
		{Seq: 4, Kind: KindAction, Controller: 1},
	}

	actions := r.Filter(KindAction, 1)
	assert.Len(t, actions, 2)
	assert.Equal(t, int64(4), actions[1].Seq)
	assert.Len(t, r.Filter("", 1), 3)
	assert.Empty(t, r.Filter(KindInfo, 1))

	assert.True(t, r.Pass)
	r.AddError("broken")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"broken"}, r.Errors)
}
