package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_MarshalJSON_List(t *testing.T) {
	ev := ListEvent(TagListCreated, List{ID: 1, Name: "groceries"})

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Equal(t, `{"tag":"ListCreated","value":{"id":1,"name":"groceries"}}`, string(data))
}

func TestEvent_MarshalJSON_Item(t *testing.T) {
	ev := ItemEvent(TagItemEdited, Item{ID: 4, ListID: 1, Content: "oat milk"})

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Equal(t, `{"tag":"ItemEdited","value":{"content":"oat milk","id":4,"list_id":1}}`, string(data))
}

func TestEvent_MarshalJSON_Deterministic(t *testing.T) {
	ev := ItemEvent(TagItemCreated, Item{ID: 9, ListID: 2, Content: "eggs <dozen>"})

	first, err := json.Marshal(ev)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := json.Marshal(ev)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEvent_UnmarshalJSON(t *testing.T) {
	var ev Event
	err := json.Unmarshal([]byte(`{"tag":"ItemRemoved","value":{"id":3,"list_id":2,"content":"bread"}}`), &ev)
	require.NoError(t, err)

	assert.Equal(t, TagItemRemoved, ev.Tag)
	require.NotNil(t, ev.Item)
	assert.Nil(t, ev.List)
	assert.Equal(t, Item{ID: 3, ListID: 2, Content: "bread"}, *ev.Item)
}

func TestEvent_UnmarshalJSON_UnknownTag(t *testing.T) {
	var ev Event
	err := json.Unmarshal([]byte(`{"tag":"ListExploded","value":{"id":1}}`), &ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tag")
}

func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{"list tag with list", ListEvent(TagListRenamed, List{ID: 1}), false},
		{"item tag with item", ItemEvent(TagItemCreated, Item{ID: 1}), false},
		{"list tag with item", Event{Tag: TagListRemoved, Item: &Item{}}, true},
		{"item tag with list", Event{Tag: TagItemEdited, List: &List{}}, true},
		{"unknown tag", Event{Tag: "Nope", List: &List{}}, true},
		{"empty payload", Event{Tag: TagListCreated}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestListEvent_CopiesValue(t *testing.T) {
	l := List{ID: 1, Name: "before"}
	ev := ListEvent(TagListCreated, l)
	l.Name = "after"

	assert.Equal(t, "before", ev.List.Name)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "caf\u00e9", NormalizeText("cafe\u0301"))
	assert.True(t, BlankName("  \t"))
	assert.False(t, BlankName(" x "))
}
