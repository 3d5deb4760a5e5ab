package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/moreevents/internal/scenario"
)

// ValidationError is one problem found in a scenario file.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// FileResult is the validation outcome of one file.
type FileResult struct {
	Path   string            `json:"path"`
	Name   string            `json:"name,omitempty"`
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationResult is the outcome of a validate command.
type ValidationResult struct {
	Valid bool         `json:"valid"`
	Files []FileResult `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate scenario files",
		Long: `Validate scenario files without running them.

Each path is a scenario file or a directory searched for *.yaml and *.yml
files. Files are checked for malformed YAML and unknown fields (E011),
schema violations (E012) and unknown or duplicate entity ids (E013).

Example:
  moreevents validate ./scenarios
  moreevents validate --format json lift.yaml door.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateScenarios(rootOpts, args, cmd)
		},
	}
	return cmd
}

func validateScenarios(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	var files []string
	for _, p := range paths {
		found, err := findScenarioFiles(p, "")
		if err != nil {
			_ = formatter.Error(scenario.ErrCodeRead, err.Error(), nil)
			return WrapExitError(ExitCommandError, "cannot read scenarios", err)
		}
		files = append(files, found...)
	}

	result := ValidationResult{Valid: true, Files: make([]FileResult, 0, len(files))}
	for _, path := range files {
		fr := validateFile(path)
		formatter.VerboseLog("validated %s: %t", path, fr.Valid)
		if !fr.Valid {
			result.Valid = false
		}
		result.Files = append(result.Files, fr)
	}

	render := func(w io.Writer) error {
		for _, fr := range result.Files {
			if fr.Valid {
				fmt.Fprintf(w, "✓ %s (%s)\n", fr.Path, fr.Name)
				continue
			}
			fmt.Fprintf(w, "✗ %s\n", fr.Path)
			for _, e := range fr.Errors {
				if e.Line > 0 {
					fmt.Fprintf(w, "  line %d\n", e.Line)
				}
				for _, line := range strings.Split(e.Message, "\n") {
					fmt.Fprintf(w, "  %s: %s\n", e.Code, line)
				}
			}
		}
		return nil
	}

	if !result.Valid {
		invalid := 0
		for _, fr := range result.Files {
			if !fr.Valid {
				invalid++
			}
		}
		msg := fmt.Sprintf("%d of %d scenario(s) invalid", invalid, len(result.Files))
		if err := formatter.Failure(firstCode(result), msg, result, render); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return formatter.Success(result, render)
}

func validateFile(path string) FileResult {
	fr := FileResult{Path: path}
	sc, err := scenario.LoadFile(path)
	if err != nil {
		ve := ValidationError{Code: scenario.ErrCodeParse, Message: err.Error()}
		if le, ok := asLoadError(err); ok {
			ve = ValidationError{Code: le.Code, Message: le.Message, Line: le.Line}
		}
		fr.Errors = append(fr.Errors, ve)
		return fr
	}
	fr.Name = sc.Name
	fr.Valid = true
	return fr
}

func firstCode(result ValidationResult) string {
	for _, fr := range result.Files {
		if len(fr.Errors) > 0 {
			return fr.Errors[0].Code
		}
	}
	return "E_INVALID"
}

func asLoadError(err error) (*scenario.LoadError, bool) {
	var le *scenario.LoadError
	ok := errors.As(err, &le)
	return le, ok
}

// findScenarioFiles returns path itself if it is a file, or every YAML file
// below it. filter is a glob matched against file names without extension.
func findScenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, p)
		return nil
	})
	return files, err
}
