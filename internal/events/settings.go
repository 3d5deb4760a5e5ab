package events

import (
	"errors"
	"fmt"
	"strconv"
)

// Configurable is implemented by events that own a scalar setting in
// addition to the controller configuration. Values are serialized in the
// invariant format of strconv.
type Configurable interface {
	Tag() string
	Setting() string
	SetSetting(value string) error
}

// SettingError reports a setting value that cannot be applied.
type SettingError struct {
	Event string
	Value string
	Min   float64
	Max   float64
	Err   error
}

func (e *SettingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s setting %q: %v", e.Event, e.Value, e.Err)
	}
	return fmt.Sprintf("%s setting %q: out of range [%s, %s]", e.Event, e.Value, formatSetting(e.Min), formatSetting(e.Max))
}

func (e *SettingError) Unwrap() error {
	return e.Err
}

// IsSettingError reports whether err is a SettingError.
func IsSettingError(err error) bool {
	var se *SettingError
	return errors.As(err, &se)
}

func formatSetting(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// parseRange parses value and checks it against [min, max].
func parseRange(event, value string, min, max float64) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &SettingError{Event: event, Value: value, Min: min, Max: max, Err: err}
	}
	return v, checkRange(event, v, min, max)
}

// checkRange rejects values outside [min, max] and NaN.
func checkRange(event string, v, min, max float64) error {
	if !(v >= min && v <= max) {
		return &SettingError{Event: event, Value: formatSetting(v), Min: min, Max: max}
	}
	return nil
}
