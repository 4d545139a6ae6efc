package model

import (
	"encoding/json"
	"fmt"
)

// EventTag identifies which mutation an Event describes.
type EventTag string

const (
	TagListCreated EventTag = "ListCreated"
	TagItemCreated EventTag = "ItemCreated"
	TagListRenamed EventTag = "ListRenamed"
	TagItemEdited  EventTag = "ItemEdited"
	TagListRemoved EventTag = "ListRemoved"
	TagItemRemoved EventTag = "ItemRemoved"
)

// AllTags lists every event tag in declaration order.
var AllTags = []EventTag{
	TagListCreated,
	TagItemCreated,
	TagListRenamed,
	TagItemEdited,
	TagListRemoved,
	TagItemRemoved,
}

// IsListTag reports whether events with this tag carry a List.
func (t EventTag) IsListTag() bool {
	switch t {
	case TagListCreated, TagListRenamed, TagListRemoved:
		return true
	}
	return false
}

// Valid reports whether t is one of the known tags.
func (t EventTag) Valid() bool {
	for _, known := range AllTags {
		if t == known {
			return true
		}
	}
	return false
}

// Event is an immutable notification of one successful mutation.
//
// Exactly one of List and Item is set, matching Tag. The value is the
// post-operation state of the entity, or its last state for removals.
type Event struct {
	Tag  EventTag
	List *List
	Item *Item
}

// ListEvent builds an event carrying a copy of l.
func ListEvent(tag EventTag, l List) Event {
	return Event{Tag: tag, List: &l}
}

// ItemEvent builds an event carrying a copy of i.
func ItemEvent(tag EventTag, i Item) Event {
	return Event{Tag: tag, Item: &i}
}

// Validate checks that the tag is known and the payload matches it.
func (e Event) Validate() error {
	if !e.Tag.Valid() {
		return fmt.Errorf("unknown event tag %q", e.Tag)
	}
	if e.Tag.IsListTag() {
		if e.List == nil || e.Item != nil {
			return fmt.Errorf("event %s must carry a list", e.Tag)
		}
		return nil
	}
	if e.Item == nil || e.List != nil {
		return fmt.Errorf("event %s must carry an item", e.Tag)
	}
	return nil
}

// String returns a short human readable description.
func (e Event) String() string {
	switch {
	case e.List != nil:
		return fmt.Sprintf("%s list=%d name=%q", e.Tag, e.List.ID, e.List.Name)
	case e.Item != nil:
		return fmt.Sprintf("%s item=%d list=%d content=%q", e.Tag, e.Item.ID, e.Item.ListID, e.Item.Content)
	}
	return string(e.Tag)
}

func (e Event) canonicalMap() (map[string]any, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	var value map[string]any
	if e.List != nil {
		value = e.List.canonicalMap()
	} else {
		value = e.Item.canonicalMap()
	}
	return map[string]any{
		"tag":   string(e.Tag),
		"value": value,
	}, nil
}

// MarshalJSON encodes the event as {"tag":...,"value":...} in canonical form.
func (e Event) MarshalJSON() ([]byte, error) {
	m, err := e.canonicalMap()
	if err != nil {
		return nil, err
	}
	return MarshalCanonical(m)
}

// wireEvent is the decoding shape of an Event.
type wireEvent struct {
	Tag   EventTag        `json:"tag"`
	Value json.RawMessage `json:"value"`
}

// UnmarshalJSON decodes the tagged form produced by MarshalJSON.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if !w.Tag.Valid() {
		return fmt.Errorf("decode event: unknown tag %q", w.Tag)
	}
	if len(w.Value) == 0 {
		return fmt.Errorf("decode event %s: missing value", w.Tag)
	}

	out := Event{Tag: w.Tag}
	if w.Tag.IsListTag() {
		var l List
		if err := json.Unmarshal(w.Value, &l); err != nil {
			return fmt.Errorf("decode event %s: %w", w.Tag, err)
		}
		out.List = &l
	} else {
		var i Item
		if err := json.Unmarshal(w.Value, &i); err != nil {
			return fmt.Errorf("decode event %s: %w", w.Tag, err)
		}
		out.Item = &i
	}
	*e = out
	return nil
}
