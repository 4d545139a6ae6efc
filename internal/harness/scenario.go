package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/listsync/internal/model"
	"github.com/roach88/listsync/internal/store"
)

// Scenario is one replayable sequence of store operations.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario demonstrates.
	Description string `yaml:"description"`

	// Steps run in order against one store.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation with its arguments. Which arguments are read
// depends on Op.
type Step struct {
	Op      string  `yaml:"op"`
	ID      int64   `yaml:"id,omitempty"`
	ListID  int64   `yaml:"list_id,omitempty"`
	Name    string  `yaml:"name,omitempty"`
	Content string  `yaml:"content,omitempty"`
	Expect  *Expect `yaml:"expect,omitempty"`
}

// Expect describes a step's expected outcome. With Error set the step must
// fail with that error kind; otherwise it must succeed and Result, if given,
// must be a subset of the returned entity.
type Expect struct {
	Error  string         `yaml:"error,omitempty"`
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion checks the trace or the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Tag and Count are used by event_count.
	Tag   string `yaml:"tag,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// Tags is used by event_order.
	Tags []string `yaml:"tags,omitempty"`

	// Lists and Items are used by final_state. A nil slice is not checked.
	Lists []StateList `yaml:"lists,omitempty"`
	Items []StateItem `yaml:"items,omitempty"`
}

// StateList is a list row expected by final_state.
type StateList struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

// StateItem is an item row expected by final_state.
type StateItem struct {
	ID      int64  `yaml:"id"`
	ListID  int64  `yaml:"list_id"`
	Content string `yaml:"content"`
}

// Assertion type constants.
const (
	AssertEventCount = "event_count"
	AssertEventOrder = "event_order"
	AssertFinalState = "final_state"
)

// opArgs lists which step fields each operation reads.
var opArgs = map[store.Op][]string{
	store.OpListAll:     {},
	store.OpGetList:     {"id"},
	store.OpItemsAll:    {},
	store.OpGetItem:     {"id"},
	store.OpItemsOfList: {"list_id"},
	store.OpCreateList:  {"name"},
	store.OpRenameList:  {"id", "name"},
	store.OpRemoveList:  {"id"},
	store.OpCreateItem:  {"list_id", "content"},
	store.OpEditItem:    {"id", "content"},
	store.OpRemoveItem:  {"id"},
}

var errorKinds = []string{
	string(store.KindDuplicateName),
	string(store.KindNoSuchList),
	string(store.KindNoSuchItem),
	string(store.KindInfrastructure),
}

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so typos do not silently skip checks.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("glob scenarios: %w", err)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// Validate checks required fields, operation names, error kinds and
// assertion shapes.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if _, ok := opArgs[store.Op(step.Op)]; !ok {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if step.Expect != nil && step.Expect.Error != "" {
			if !slices.Contains(errorKinds, step.Expect.Error) {
				return fmt.Errorf("steps[%d]: unknown error kind %q (valid: %v)", i, step.Expect.Error, errorKinds)
			}
			if step.Expect.Result != nil {
				return fmt.Errorf("steps[%d]: expect cannot have both error and result", i)
			}
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertEventCount:
			if !model.EventTag(a.Tag).Valid() {
				return fmt.Errorf("assertions[%d]: unknown tag %q", i, a.Tag)
			}
		case AssertEventOrder:
			if len(a.Tags) == 0 {
				return fmt.Errorf("assertions[%d]: tags is required", i)
			}
			for _, tag := range a.Tags {
				if !model.EventTag(tag).Valid() {
					return fmt.Errorf("assertions[%d]: unknown tag %q", i, tag)
				}
			}
		case AssertFinalState:
		default:
			return fmt.Errorf("assertions[%d]: unknown type %q", i, a.Type)
		}
	}
	return nil
}
