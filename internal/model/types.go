package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// List is a named, uniquely titled container of items.
type List struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Item is a piece of content owned by exactly one List.
type Item struct {
	ID      int64  `json:"id"`
	ListID  int64  `json:"list_id"`
	Content string `json:"content"`
}

// canonicalMap returns the list as a map for canonical encoding.
func (l List) canonicalMap() map[string]any {
	return map[string]any{
		"id":   l.ID,
		"name": l.Name,
	}
}

// canonicalMap returns the item as a map for canonical encoding.
func (i Item) canonicalMap() map[string]any {
	return map[string]any{
		"id":      i.ID,
		"list_id": i.ListID,
		"content": i.Content,
	}
}

// NormalizeText brings user supplied text into NFC form.
//
// Names are compared for uniqueness after normalization, so "café" typed
// with a combining accent and "café" typed precomposed are the same name.
func NormalizeText(s string) string {
	return norm.NFC.String(s)
}

// BlankName reports whether a list name has no visible content.
func BlankName(name string) bool {
	return strings.TrimSpace(name) == ""
}
