package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/listsync/internal/model"
)

// TraceSnapshot is the golden form of a scenario run.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	State        FinalState
}

// toCanonicalMap converts the snapshot for model.MarshalCanonical.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, te := range s.Trace {
		events := make([]any, len(te.Events))
		for j, ev := range te.Events {
			events[j] = eventValue(ev)
		}
		m := map[string]any{
			"seq":     te.Seq,
			"op":      te.Op,
			"args":    te.Args,
			"outcome": te.Outcome,
			"events":  events,
		}
		if te.Result != nil {
			m["result"] = te.Result
		}
		trace[i] = m
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"final_state": map[string]any{
			"lists": listsValue(s.State.Lists),
			"items": itemsValue(s.State.Items),
		},
	}
}

// MarshalSnapshot returns the canonical JSON compared against golden files.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: name,
		Trace:        result.Trace,
		State:        result.State,
	}
	return model.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
