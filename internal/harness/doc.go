// Package harness replays list scenarios against a fresh store and checks
// the outcome of every step, the events each step published, and the final
// contents of the store.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: groceries
//	description: "Duplicate names are rejected and removal cascades"
//	steps:
//	  - op: create_list
//	    name: groceries
//	    expect: { result: { id: 1 } }
//	  - op: create_list
//	    name: groceries
//	    expect: { error: duplicate_name }
//	  - op: get_item
//	    id: 1
//	    expect: { error: no_such_item }
//	assertions:
//	  - type: event_order
//	    tags: [ListCreated, ListRemoved]
//	  - type: final_state
//	    lists: []
//	    items: []
//
// A step without expect must succeed. Operation names are the store's
// operation names (create_list, rename_list, remove_list, create_item,
// edit_item, remove_item, list_all, get_list, items_all, get_item,
// items_of_list).
//
// # Assertion Types
//
//   - event_count: exactly count events with tag were published
//   - event_order: the tags appear in this relative order
//   - final_state: the store holds exactly these lists and/or items
//
// # Determinism
//
// Every run uses a new in-memory SQLite database, so ids start at 1 and the
// trace is identical across runs. RunWithGolden compares the canonical JSON
// of the trace against testdata/golden/<name>.golden.
package harness
