package scenario

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/moreevents/internal/controller"
	"github.com/roach88/moreevents/internal/events"
	"github.com/roach88/moreevents/internal/trigger"
)

// CheckSetting reports whether value is a valid setting of the event with
// the given tag. Weather indices are checked against weathers.
func CheckSetting(tag, value string, weathers []string) error {
	info, ok := events.Lookup(tag)
	if !ok {
		return fmt.Errorf("unknown event %q", tag)
	}
	if !info.Setting {
		return fmt.Errorf("%s has no setting", tag)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewWorld(weathers)
	b := controller.NewBlock(1, "probe", controller.WithLogger(log))
	env := events.Env{Role: trigger.Replica, Logger: log}
	if _, err := events.AttachAll(b, w.Grid(0), w, env); err != nil {
		return err
	}
	return setSetting(b, tag, value)
}
