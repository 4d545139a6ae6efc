package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Messages(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: KindDuplicateName, Name: "groceries"}, `duplicate list name "groceries"`},
		{&Error{Kind: KindNoSuchList, ID: 3}, "no such list (id: 3)"},
		{&Error{Kind: KindNoSuchItem, ID: 9}, "no such item (id: 9)"},
		{&Error{Kind: KindInfrastructure, Op: OpListAll, Err: errors.New("disk full")}, "list_all: infrastructure failure: disk full"},
		{&Error{Kind: KindInfrastructure, Op: OpGetItem}, "get_item: infrastructure failure"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(nil) != "" {
		t.Error("KindOf(nil) should be empty")
	}
	if KindOf(errors.New("x")) != KindInfrastructure {
		t.Error("foreign errors should be infrastructure")
	}

	wrapped := fmt.Errorf("handler: %w", &Error{Kind: KindNoSuchItem, ID: 1})
	if !IsNoSuchItem(wrapped) {
		t.Error("IsNoSuchItem should see through wrapping")
	}
	if !IsClientError(wrapped) {
		t.Error("no such item is a client error")
	}
	if IsClientError(&Error{Kind: KindInfrastructure}) {
		t.Error("infrastructure is not a client error")
	}
	if IsDuplicateName(nil) || IsNoSuchList(nil) || IsInfrastructure(nil) {
		t.Error("predicates must be false for nil")
	}
}
