package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/listsync/internal/model"
)

// AssertionError is a failed assertion with enough context to debug it.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Events   []model.Event
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Events) > 0 {
		fmt.Fprintf(&buf, "\nPublished events:\n")
		for i, ev := range e.Events {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, ev)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns the
// failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertEventCount:
			err = assertEventCount(result.Events(), a)
		case AssertEventOrder:
			err = assertEventOrder(result.Events(), a)
		case AssertFinalState:
			err = assertFinalState(result.State, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func assertEventCount(events []model.Event, a Assertion) error {
	n := 0
	for _, ev := range events {
		if string(ev.Tag) == a.Tag {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d %s events", a.Count, a.Tag),
			Actual:   fmt.Sprintf("%d %s events", n, a.Tag),
			Events:   events,
		}
	}
	return nil
}

// assertEventOrder checks that the tags occur as a subsequence of the
// published events. Other events may appear in between.
func assertEventOrder(events []model.Event, a Assertion) error {
	next := 0
	for _, ev := range events {
		if next < len(a.Tags) && string(ev.Tag) == a.Tags[next] {
			next++
		}
	}
	if next < len(a.Tags) {
		return &AssertionError{
			Type:     AssertEventOrder,
			Expected: fmt.Sprintf("events in order %v", a.Tags),
			Actual:   fmt.Sprintf("%s not found after %v", a.Tags[next], a.Tags[:next]),
			Events:   events,
		}
	}
	return nil
}

func assertFinalState(state FinalState, a Assertion) error {
	if a.Lists != nil {
		want := make([]model.List, len(a.Lists))
		for i, l := range a.Lists {
			want[i] = model.List{ID: l.ID, Name: l.Name}
		}
		if !equalSlices(want, state.Lists) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("lists %v", want),
				Actual:   fmt.Sprintf("lists %v", state.Lists),
			}
		}
	}
	if a.Items != nil {
		want := make([]model.Item, len(a.Items))
		for i, it := range a.Items {
			want[i] = model.Item{ID: it.ID, ListID: it.ListID, Content: it.Content}
		}
		if !equalSlices(want, state.Items) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("items %v", want),
				Actual:   fmt.Sprintf("items %v", state.Items),
			}
		}
	}
	return nil
}

func equalSlices[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
