package scenario

import (
	"errors"
	"fmt"
)

// Load error codes.
const (
	ErrCodeRead      = "E010" // scenario file cannot be read
	ErrCodeParse     = "E011" // malformed YAML or unknown field
	ErrCodeSchema    = "E012" // schema violation
	ErrCodeReference = "E013" // unknown or duplicate entity id
)

// LoadError reports a scenario that cannot be loaded.
type LoadError struct {
	Code    string
	Message string
	File    string
	Line    int // 0 when unknown
}

func (e *LoadError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Code, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsLoadError reports whether err is a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// StepError reports a step that could not be executed.
type StepError struct {
	Index int
	Kind  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// IsStepError reports whether err is a StepError.
func IsStepError(err error) bool {
	var se *StepError
	return errors.As(err, &se)
}
