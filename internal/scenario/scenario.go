// Package scenario runs scripted sessions of event controllers against a
// simulated world.
//
// A scenario is a YAML file describing world entities, controllers and a
// list of steps. Running it joins an authoritative and a replica peer over an
// in-memory hub, applies every step to both, and records a trace of fired
// actions, replicated messages and rendered detailed info.
//
// Loading is strict: unknown YAML fields, schema violations and dangling
// entity references are reported as LoadError before anything runs.
package scenario

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Scenario is a scripted session.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Language selects the detailed info language. Default: English.
	Language    string           `yaml:"language,omitempty"`
	World       WorldSpec        `yaml:"world,omitempty"`
	Controllers []ControllerSpec `yaml:"controllers"`
	Steps       []Step           `yaml:"steps,omitempty"`
	Expect      []Expectation    `yaml:"expect,omitempty"`
}

// WorldSpec lists the simulated entities. Entity ids share one namespace
// with controller ids.
type WorldSpec struct {
	// Weathers lists weather names by index; index 0 is clear sky.
	Weathers   []string        `yaml:"weathers,omitempty"`
	Planets    []PlanetSpec    `yaml:"planets,omitempty"`
	Grids      []GridSpec      `yaml:"grids,omitempty"`
	Thrusters  []ThrusterSpec  `yaml:"thrusters,omitempty"`
	Searchers  []SearcherSpec  `yaml:"searchers,omitempty"`
	Targets    []TargetSpec    `yaml:"targets,omitempty"`
	Projectors []ProjectorSpec `yaml:"projectors,omitempty"`
}

type PlanetSpec struct {
	Center  []float64 `yaml:"center"`
	Gravity float64   `yaml:"gravity"`
	Radius  float64   `yaml:"radius"`
}

type GridSpec struct {
	ID       int64     `yaml:"id"`
	Position []float64 `yaml:"position,omitempty"`
}

type ThrusterSpec struct {
	ID     int64   `yaml:"id"`
	Name   string  `yaml:"name,omitempty"`
	Max    float64 `yaml:"max"`
	Thrust float64 `yaml:"thrust,omitempty"`
}

type SearcherSpec struct {
	ID       int64     `yaml:"id"`
	Name     string    `yaml:"name,omitempty"`
	Position []float64 `yaml:"position,omitempty"`
	// Target is the id of the initially locked target, 0 for none.
	Target int64 `yaml:"target,omitempty"`
}

type TargetSpec struct {
	ID       int64     `yaml:"id"`
	Position []float64 `yaml:"position,omitempty"`
}

type ProjectorSpec struct {
	ID    int64  `yaml:"id"`
	Name  string `yaml:"name,omitempty"`
	Total int    `yaml:"total"`
	// Remaining defaults to Total: nothing built.
	Remaining *int `yaml:"remaining,omitempty"`
	Table     bool `yaml:"table,omitempty"`
}

// Config is the part of a controller configuration a scenario sets.
// Unset fields keep their current value.
type Config struct {
	Event     string   `yaml:"event,omitempty"`
	Threshold *float64 `yaml:"threshold,omitempty"`
	Direction string   `yaml:"direction,omitempty"`
	Mode      string   `yaml:"mode,omitempty"`
	Working   *bool    `yaml:"working,omitempty"`
	// Setting is the scalar setting of the event, in invariant format.
	Setting *string `yaml:"setting,omitempty"`
}

// ControllerSpec is a controller built in the world. Its stored
// configuration, if any, is restored before Config is applied.
type ControllerSpec struct {
	ID     int64  `yaml:"id"`
	Name   string `yaml:"name,omitempty"`
	Grid   int64  `yaml:"grid,omitempty"`
	Config `yaml:",inline"`
	// Watch lists the entities added to the selected event.
	Watch []int64 `yaml:"watch,omitempty"`
}

// Step is one scripted change. Exactly one field is set.
type Step struct {
	Thrust     *ThrustStep     `yaml:"thrust,omitempty"`
	Projection *ProjectionStep `yaml:"projection,omitempty"`
	Weather    *WeatherStep    `yaml:"weather,omitempty"`
	Move       *MoveStep       `yaml:"move,omitempty"`
	Target     *TargetStep     `yaml:"target,omitempty"`
	Tick       int             `yaml:"tick,omitempty"`
	Configure  *ConfigureStep  `yaml:"configure,omitempty"`
	Add        *BlocksStep     `yaml:"add,omitempty"`
	Remove     *BlocksStep     `yaml:"remove,omitempty"`
	Close      int64           `yaml:"close,omitempty"`
	Info       int64           `yaml:"info,omitempty"`
	Persist    int64           `yaml:"persist,omitempty"`
}

// Kind returns the name of the set field.
func (s Step) Kind() string {
	switch {
	case s.Thrust != nil:
		return "thrust"
	case s.Projection != nil:
		return "projection"
	case s.Weather != nil:
		return "weather"
	case s.Move != nil:
		return "move"
	case s.Target != nil:
		return "target"
	case s.Tick > 0:
		return "tick"
	case s.Configure != nil:
		return "configure"
	case s.Add != nil:
		return "add"
	case s.Remove != nil:
		return "remove"
	case s.Close != 0:
		return "close"
	case s.Info != 0:
		return "info"
	case s.Persist != 0:
		return "persist"
	default:
		return "empty"
	}
}

type ThrustStep struct {
	Entity int64   `yaml:"entity"`
	Value  float64 `yaml:"value"`
}

// ProjectionStep welds or removes blocks one at a time until Remaining is
// reached, or drops the projection.
type ProjectionStep struct {
	Entity    int64 `yaml:"entity"`
	Remaining *int  `yaml:"remaining,omitempty"`
	Removed   bool  `yaml:"removed,omitempty"`
}

type WeatherStep struct {
	Controller int64 `yaml:"controller"`
	Index      int   `yaml:"index"`
}

// MoveStep moves a grid or a target.
type MoveStep struct {
	Entity int64     `yaml:"entity"`
	To     []float64 `yaml:"to"`
}

// TargetStep locks a searcher on a target. Target 0 releases it.
type TargetStep struct {
	Searcher int64 `yaml:"searcher"`
	Target   int64 `yaml:"target"`
}

type ConfigureStep struct {
	Controller int64 `yaml:"controller"`
	Config     `yaml:",inline"`
}

type BlocksStep struct {
	Controller int64   `yaml:"controller"`
	Entities   []int64 `yaml:"entities"`
}

// Expectation is checked against the finished run.
type Expectation struct {
	Controller int64 `yaml:"controller"`
	// Actions lists the action numbers (1 or 2) the authoritative
	// controller fired, oldest first.
	Actions []int `yaml:"actions,omitempty"`
	// Messages is the number of changes the controller published.
	Messages *int `yaml:"messages,omitempty"`
	// Info is the final detailed info on Peer.
	Info *string `yaml:"info,omitempty"`
	// Peer defaults to the client.
	Peer string `yaml:"peer,omitempty"`
}

// LoadFile reads and validates a scenario file.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Message: err.Error(), File: path}
	}
	return Parse(data, path)
}

// Parse decodes and validates a scenario. filename is used in errors only.
func Parse(data []byte, filename string) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: err.Error(), File: filename}
	}

	if err := validateSchema(data, filename); err != nil {
		return nil, err
	}
	if err := checkReferences(&sc); err != nil {
		return nil, &LoadError{Code: ErrCodeReference, Message: err.Error(), File: filename}
	}
	return &sc, nil
}

// validateSchema unifies the document with the embedded #Scenario
// definition.
func validateSchema(data []byte, filename string) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue")).
		LookupPath(cue.ParsePath("#Scenario"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return &LoadError{Code: ErrCodeParse, Message: err.Error(), File: filename}
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return schemaError(err, filename)
	}
	if err := schema.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return schemaError(err, filename)
	}
	return nil
}

// schemaError reports the first CUE error with its YAML line.
func schemaError(err error, filename string) error {
	le := &LoadError{Code: ErrCodeSchema, Message: err.Error(), File: filename}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		le.Message = errs[0].Error()
		if pos := errs[0].Position(); pos.IsValid() {
			le.Line = pos.Line()
		}
	}
	return le
}

// checkReferences verifies that ids are unique and that every reference
// names an entity of the right kind.
func checkReferences(sc *Scenario) error {
	kinds := make(map[int64]string)
	declare := func(id int64, kind string) error {
		if have, ok := kinds[id]; ok {
			return fmt.Errorf("id %d declared as %s and %s", id, have, kind)
		}
		kinds[id] = kind
		return nil
	}

	var errs []error
	w := sc.World
	for _, g := range w.Grids {
		errs = append(errs, declare(g.ID, "grid"))
	}
	for _, t := range w.Thrusters {
		errs = append(errs, declare(t.ID, "thruster"))
	}
	for _, s := range w.Searchers {
		errs = append(errs, declare(s.ID, "searcher"))
	}
	for _, t := range w.Targets {
		errs = append(errs, declare(t.ID, "target"))
	}
	for _, p := range w.Projectors {
		errs = append(errs, declare(p.ID, "projector"))
		if p.Remaining != nil && *p.Remaining > p.Total {
			errs = append(errs, fmt.Errorf("projector %d: remaining %d exceeds total %d", p.ID, *p.Remaining, p.Total))
		}
	}
	for _, c := range sc.Controllers {
		errs = append(errs, declare(c.ID, "controller"))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	expect := func(where string, id int64, want ...string) error {
		have, ok := kinds[id]
		if !ok {
			return fmt.Errorf("%s: unknown id %d", where, id)
		}
		if len(want) == 0 {
			return nil
		}
		for _, k := range want {
			if have == k {
				return nil
			}
		}
		return fmt.Errorf("%s: id %d is a %s, want %s", where, id, have, want[0])
	}

	for _, s := range w.Searchers {
		if s.Target != 0 {
			errs = append(errs, expect(fmt.Sprintf("searcher %d", s.ID), s.Target, "target"))
		}
	}
	for _, c := range sc.Controllers {
		where := fmt.Sprintf("controller %d", c.ID)
		if c.Grid != 0 {
			errs = append(errs, expect(where+" grid", c.Grid, "grid"))
		}
		for _, id := range c.Watch {
			errs = append(errs, expect(where+" watch", id))
		}
	}
	for i, st := range sc.Steps {
		where := fmt.Sprintf("step %d (%s)", i, st.Kind())
		switch {
		case st.Thrust != nil:
			errs = append(errs, expect(where, st.Thrust.Entity, "thruster"))
		case st.Projection != nil:
			errs = append(errs, expect(where, st.Projection.Entity, "projector"))
		case st.Weather != nil:
			errs = append(errs, expect(where, st.Weather.Controller, "controller"))
			if n := max(len(w.Weathers), 1); st.Weather.Index >= n {
				errs = append(errs, fmt.Errorf("%s: weather %d out of range [0, %d]", where, st.Weather.Index, n-1))
			}
		case st.Move != nil:
			errs = append(errs, expect(where, st.Move.Entity, "grid", "target"))
		case st.Target != nil:
			errs = append(errs, expect(where, st.Target.Searcher, "searcher"))
			if st.Target.Target != 0 {
				errs = append(errs, expect(where, st.Target.Target, "target"))
			}
		case st.Configure != nil:
			errs = append(errs, expect(where, st.Configure.Controller, "controller"))
		case st.Add != nil || st.Remove != nil:
			b := st.Add
			if b == nil {
				b = st.Remove
			}
			errs = append(errs, expect(where, b.Controller, "controller"))
			for _, id := range b.Entities {
				errs = append(errs, expect(where, id))
			}
		case st.Close != 0:
			errs = append(errs, expect(where, st.Close))
		case st.Info != 0:
			errs = append(errs, expect(where, st.Info, "controller"))
		case st.Persist != 0:
			errs = append(errs, expect(where, st.Persist, "controller"))
		}
	}
	for i, e := range sc.Expect {
		errs = append(errs, expect(fmt.Sprintf("expect %d", i), e.Controller, "controller"))
	}
	return errors.Join(errs...)
}
