package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2"
	"gopkg.in/yaml.v3"

	"github.com/roach88/irgraph/internal/graph"
	"github.com/roach88/irgraph/internal/ir"
)

// Step operations.
const (
	OpInit        = "init"
	OpCreate      = "create"
	OpProject     = "project"
	OpPlaceholder = "placeholder"
	OpAddPred     = "add_pred"
	OpMature      = "mature"
	OpSetInput    = "set_input"
	OpAppendInput = "append_input"
	OpSetAttr     = "set_attr"
	OpSetThrows   = "set_throws"
	OpSetBackedge = "set_backedge"
	OpVerify      = "verify"
)

// Scenario is a construction program run against a fresh graph.
type Scenario struct {
	Name        string          `yaml:"name" hcl:"name" validate:"required"`
	Description string          `yaml:"description" hcl:"description,optional"`
	Graph       *GraphSpec      `yaml:"graph,omitempty" hcl:"graph,block"`
	Types       []ir.TypeDecl   `yaml:"types,omitempty" hcl:"type,block" validate:"dive"`
	Entities    []ir.EntityDecl `yaml:"entities,omitempty" hcl:"entity,block" validate:"dive"`
	Steps       []Step          `yaml:"steps" hcl:"step,block" validate:"required,min=1,dive"`

	// Path is the file the scenario was loaded from.
	Path string `yaml:"-"`
}

// GraphSpec names the function the graph implements. Either Entity refers
// to a declared entity with a method type, or Params and Results list the
// signature's modes and the harness declares the types itself.
type GraphSpec struct {
	Name    string   `yaml:"name,omitempty" hcl:"name,optional"`
	Entity  string   `yaml:"entity,omitempty" hcl:"entity,optional"`
	Params  []string `yaml:"params,omitempty" hcl:"params,optional"`
	Results []string `yaml:"results,omitempty" hcl:"results,optional"`
}

// Step is one kernel call. Which fields apply depends on Op.
type Step struct {
	Op     string         `yaml:"op" hcl:"op,label" validate:"required,oneof=init create project placeholder add_pred mature set_input append_input set_attr set_throws set_backedge verify"`
	As     string         `yaml:"as,omitempty" hcl:"as,optional"`
	Kind   string         `yaml:"kind,omitempty" hcl:"kind,optional"`
	Block  string         `yaml:"block,omitempty" hcl:"block,optional"`
	Inputs []string       `yaml:"inputs,omitempty" hcl:"inputs,optional"`
	Attrs  map[string]any `yaml:"attrs,omitempty"`
	Flags  []string       `yaml:"flags,omitempty" hcl:"flags,optional" validate:"dive,oneof=none volatile unaligned floats throws_exception"`
	Mode   string         `yaml:"mode,omitempty" hcl:"mode,optional"`
	Node   string         `yaml:"node,omitempty" hcl:"node,optional"`
	Index  *int           `yaml:"index,omitempty" hcl:"index,optional" validate:"omitempty,min=0"`
	Output string         `yaml:"output,omitempty" hcl:"output,optional"`
	Value  string         `yaml:"value,omitempty" hcl:"value,optional"`
	Throws *bool          `yaml:"throws,omitempty" hcl:"throws,optional"`
	Expect *Expect        `yaml:"expect,omitempty" hcl:"expect,block"`

	// AttrsExpr holds the unevaluated attrs of an HCL step until the loader
	// converts it into Attrs.
	AttrsExpr hcl.Expression `yaml:"-" hcl:"attrs,optional"`
}

// Expect lists what must hold after a step. Without Error the step must
// succeed.
type Expect struct {
	Error    string   `yaml:"error,omitempty" hcl:"error,optional"`
	Mode     string   `yaml:"mode,omitempty" hcl:"mode,optional"`
	Block    string   `yaml:"block,omitempty" hcl:"block,optional"`
	Pin      string   `yaml:"pin,omitempty" hcl:"pin,optional" validate:"omitempty,oneof=pinned floats"`
	Preds    *int     `yaml:"preds,omitempty" hcl:"preds,optional"`
	Inputs   []string `yaml:"inputs,omitempty" hcl:"inputs,optional"`
	Same     string   `yaml:"same,omitempty" hcl:"same,optional"`
	Throws   *bool    `yaml:"throws,omitempty" hcl:"throws,optional"`
	Outputs  *int     `yaml:"outputs,omitempty" hcl:"outputs,optional"`
	Matured  *bool    `yaml:"matured,omitempty" hcl:"matured,optional"`
	Count    *int     `yaml:"count,omitempty" hcl:"count,optional"`
	Findings []string `yaml:"findings,omitempty" hcl:"findings,optional"`
}

// ValidationError is one problem found in a scenario.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every problem found in a scenario.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadScenario reads a scenario file. The format follows the extension:
// .yaml and .yml files are YAML, .hcl files are HCL.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var sc *Scenario
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		sc, err = ParseYAML(data)
	case ".hcl":
		sc, err = ParseHCL(data, path)
	default:
		return nil, fmt.Errorf("scenario %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	sc.Path = path
	return sc, nil
}

// LoadScenarios loads every path in order. A directory contributes its
// .yaml, .yml and .hcl files in name order.
func LoadScenarios(paths ...string) ([]*Scenario, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read scenario file: %w", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("read scenario dir: %w", err)
		}
		var found []string
		for _, e := range entries {
			switch filepath.Ext(e.Name()) {
			case ".yaml", ".yml", ".hcl":
				if !e.IsDir() {
					found = append(found, filepath.Join(p, e.Name()))
				}
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}

	out := make([]*Scenario, 0, len(files))
	for _, f := range files {
		sc, err := LoadScenario(f)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

// ParseYAML decodes and validates a YAML scenario. Unknown fields are
// rejected.
func ParseYAML(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := Validate(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// Validate checks field constraints, then the per-operation requirements
// and that every name is bound before use. It reports every problem found.
func Validate(sc *Scenario) error {
	var errs ValidationErrors

	if err := validate.Struct(sc); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			return err
		}
		for _, fe := range ves {
			errs = append(errs, ValidationError{
				Field:   fe.Namespace(),
				Message: fmt.Sprintf("failed %q constraint", fieldTag(fe)),
			})
		}
	}

	if g := sc.Graph; g != nil && g.Entity != "" && (len(g.Params) > 0 || len(g.Results) > 0) {
		errs = append(errs, ValidationError{Field: "graph", Message: "entity and params/results are exclusive"})
	}

	bound := make(map[string]bool)
	for _, r := range graph.Roles() {
		bound[r.String()] = true
	}
	for i := range sc.Steps {
		errs = append(errs, validateStep(i, &sc.Steps[i], bound)...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func fieldTag(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fe.Tag() + "=" + fe.Param()
	}
	return fe.Tag()
}

// required lists the fields each operation needs.
var required = map[string][]string{
	OpInit:        nil,
	OpCreate:      {"kind"},
	OpProject:     {"node"},
	OpPlaceholder: {"mode"},
	OpAddPred:     {"node", "value"},
	OpMature:      {"node"},
	OpSetInput:    {"node", "index", "value"},
	OpAppendInput: {"node", "value"},
	OpSetAttr:     {"node", "attrs"},
	OpSetThrows:   {"node", "throws"},
	OpSetBackedge: {"node", "index"},
	OpVerify:      nil,
}

func validateStep(i int, s *Step, bound map[string]bool) []ValidationError {
	var errs []ValidationError
	field := func(name string) string { return fmt.Sprintf("steps[%d].%s", i, name) }
	fail := func(name, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field(name), Message: fmt.Sprintf(format, args...)})
	}

	present := map[string]bool{
		"kind":   s.Kind != "",
		"node":   s.Node != "",
		"mode":   s.Mode != "",
		"value":  s.Value != "",
		"index":  s.Index != nil,
		"attrs":  len(s.Attrs) > 0,
		"throws": s.Throws != nil,
	}
	for _, name := range required[s.Op] {
		if !present[name] {
			fail(name, "required for %s", s.Op)
		}
	}
	if s.Op == OpProject && (s.Index == nil) == (s.Output == "") {
		fail("index", "project needs exactly one of index and output")
	}
	if s.Mode != "" {
		if _, err := ir.ParseMode(s.Mode); err != nil {
			fail("mode", "%v", err)
		}
	}
	if s.Expect != nil && s.Expect.Mode != "" {
		if _, err := ir.ParseMode(s.Expect.Mode); err != nil {
			fail("expect.mode", "%v", err)
		}
	}

	refs := []struct {
		name  string
		value string
	}{{"block", s.Block}, {"node", s.Node}, {"value", s.Value}}
	for _, r := range refs {
		if r.value != "" && !bound[r.value] {
			fail(r.name, "name %q is not bound", r.value)
		}
	}
	for j, in := range s.Inputs {
		if !bound[in] {
			fail(fmt.Sprintf("inputs[%d]", j), "name %q is not bound", in)
		}
	}

	if s.As != "" {
		switch s.Op {
		case OpCreate, OpProject, OpPlaceholder:
		default:
			fail("as", "%s does not bind a name", s.Op)
		}
		if bound[s.As] {
			fail("as", "name %q is already bound", s.As)
		}
		bound[s.As] = true
	}

	if e := s.Expect; e != nil {
		for _, r := range []struct{ name, value string }{{"expect.block", e.Block}, {"expect.same", e.Same}} {
			if r.value != "" && !bound[r.value] {
				fail(r.name, "name %q is not bound", r.value)
			}
		}
		for j, in := range e.Inputs {
			if !bound[in] {
				fail(fmt.Sprintf("expect.inputs[%d]", j), "name %q is not bound", in)
			}
		}
	}
	return errs
}
