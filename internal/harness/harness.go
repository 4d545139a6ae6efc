package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/roach88/listsync/internal/bus"
	"github.com/roach88/listsync/internal/model"
	"github.com/roach88/listsync/internal/service"
	"github.com/roach88/listsync/internal/store"
)

// Harness executes scenario steps against one service.
type Harness struct {
	svc *service.Service
	sub *bus.Subscription[model.Event]
}

// Run executes a scenario in a fresh in-memory database and returns the
// result. An error is returned only when the scenario could not be executed
// at all; failed expectations are recorded in the Result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.OpenSQLite(ctx, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	// capacity covers the whole scenario so the trace never lags
	b := bus.New[model.Event](len(scenario.Steps) + 1)
	defer b.Close()

	svc := service.New(st, b, service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	h := &Harness{svc: svc, sub: svc.Subscribe()}
	defer h.sub.Close()

	result := NewResult()
	for i, step := range scenario.Steps {
		te, err := h.execute(ctx, int64(i+1), step)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		result.Trace = append(result.Trace, te)

		if msg := checkExpect(te, step.Expect); msg != "" {
			result.AddError(fmt.Sprintf("step %d (%s): %s", te.Seq, te.Op, msg))
		}
	}

	state, err := h.finalState(ctx)
	if err != nil {
		return nil, err
	}
	result.State = state

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// execute runs one step and collects the events it published.
func (h *Harness) execute(ctx context.Context, seq int64, step Step) (TraceEvent, error) {
	op := store.Op(step.Op)
	te := TraceEvent{
		Seq:    seq,
		Op:     step.Op,
		Args:   stepArgs(op, step),
		Events: []model.Event{},
	}

	value, err := h.call(ctx, op, step)
	if err != nil {
		te.Outcome = string(store.KindOf(err))
	} else {
		te.Outcome = OutcomeOK
		te.Result = value
	}

	for {
		ev, err := h.sub.TryRecv()
		if errors.Is(err, bus.ErrEmpty) {
			break
		}
		if err != nil {
			return TraceEvent{}, fmt.Errorf("collect events: %w", err)
		}
		te.Events = append(te.Events, ev)
	}
	return te, nil
}

// call dispatches op to the service and returns the canonical form of its
// result.
func (h *Harness) call(ctx context.Context, op store.Op, step Step) (any, error) {
	switch op {
	case store.OpListAll:
		ls, err := h.svc.ListAll(ctx)
		return listsValue(ls), err
	case store.OpGetList:
		l, err := h.svc.GetList(ctx, step.ID)
		return listValue(l), err
	case store.OpItemsAll:
		is, err := h.svc.ItemsAll(ctx)
		return itemsValue(is), err
	case store.OpGetItem:
		i, err := h.svc.GetItem(ctx, step.ID)
		return itemValue(i), err
	case store.OpItemsOfList:
		is, err := h.svc.ItemsOfList(ctx, step.ListID)
		return itemsValue(is), err
	case store.OpCreateList:
		l, err := h.svc.CreateList(ctx, step.Name)
		return listValue(l), err
	case store.OpRenameList:
		l, err := h.svc.RenameList(ctx, step.ID, step.Name)
		return listValue(l), err
	case store.OpRemoveList:
		l, err := h.svc.RemoveList(ctx, step.ID)
		return listValue(l), err
	case store.OpCreateItem:
		i, err := h.svc.CreateItem(ctx, step.ListID, step.Content)
		return itemValue(i), err
	case store.OpEditItem:
		i, err := h.svc.EditItem(ctx, step.ID, step.Content)
		return itemValue(i), err
	case store.OpRemoveItem:
		i, err := h.svc.RemoveItem(ctx, step.ID)
		return itemValue(i), err
	}
	return nil, fmt.Errorf("unknown op %q", op)
}

func (h *Harness) finalState(ctx context.Context) (FinalState, error) {
	lists, err := h.svc.ListAll(ctx)
	if err != nil {
		return FinalState{}, fmt.Errorf("read final lists: %w", err)
	}
	items, err := h.svc.ItemsAll(ctx)
	if err != nil {
		return FinalState{}, fmt.Errorf("read final items: %w", err)
	}
	return FinalState{Lists: lists, Items: items}, nil
}

// stepArgs returns the arguments op actually reads, keyed by YAML name.
func stepArgs(op store.Op, step Step) map[string]any {
	args := make(map[string]any, len(opArgs[op]))
	for _, name := range opArgs[op] {
		switch name {
		case "id":
			args[name] = step.ID
		case "list_id":
			args[name] = step.ListID
		case "name":
			args[name] = step.Name
		case "content":
			args[name] = step.Content
		}
	}
	return args
}

// checkExpect returns a failure description, or "" if te matches want.
func checkExpect(te TraceEvent, want *Expect) string {
	if want != nil && want.Error != "" {
		if te.Outcome != want.Error {
			return fmt.Sprintf("expected error %s, got %s", want.Error, te.Outcome)
		}
		return ""
	}

	if te.Outcome != OutcomeOK {
		return fmt.Sprintf("expected success, got %s", te.Outcome)
	}
	if want == nil || want.Result == nil {
		return ""
	}

	got, ok := te.Result.(map[string]any)
	if !ok {
		return fmt.Sprintf("expected an entity result, got %T", te.Result)
	}
	for k, v := range want.Result {
		actual, present := got[k]
		if !present {
			return fmt.Sprintf("result field %q missing", k)
		}
		if !equalValue(v, actual) {
			return fmt.Sprintf("result field %q: expected %v, got %v", k, v, actual)
		}
	}
	return ""
}

// equalValue compares a YAML decoded value with a canonical one.
// YAML integers decode as int, canonical ids are int64.
func equalValue(expected, actual any) bool {
	if e, ok := expected.(int); ok {
		expected = int64(e)
	}
	return reflect.DeepEqual(expected, actual)
}

func listValue(l model.List) map[string]any {
	return map[string]any{"id": l.ID, "name": l.Name}
}

func itemValue(i model.Item) map[string]any {
	return map[string]any{"id": i.ID, "list_id": i.ListID, "content": i.Content}
}

func listsValue(ls []model.List) []any {
	out := make([]any, len(ls))
	for i, l := range ls {
		out[i] = listValue(l)
	}
	return out
}

func itemsValue(is []model.Item) []any {
	out := make([]any, len(is))
	for i, it := range is {
		out[i] = itemValue(it)
	}
	return out
}

func eventValue(ev model.Event) map[string]any {
	m := map[string]any{"tag": string(ev.Tag)}
	if ev.List != nil {
		m["value"] = listValue(*ev.List)
	} else if ev.Item != nil {
		m["value"] = itemValue(*ev.Item)
	}
	return m
}
