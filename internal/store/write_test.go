package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/listsync/internal/model"
)

func TestCreateList_AssignsIDs(t *testing.T) {
	s := createTestStore(t)

	a := mustCreateList(t, s, "groceries")
	b := mustCreateList(t, s, "chores")

	if a.ID != 1 || b.ID != 2 {
		t.Errorf("ids = %d, %d; want 1, 2", a.ID, b.ID)
	}
	if a.Name != "groceries" {
		t.Errorf("name = %q, want %q", a.Name, "groceries")
	}
}

func TestCreateList_DuplicateName(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	mustCreateList(t, s, "groceries")

	_, err := s.CreateList(ctx, "groceries")
	if !IsDuplicateName(err) {
		t.Fatalf("expected duplicate name error, got %v", err)
	}

	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if se.Name != "groceries" || se.Op != OpCreateList {
		t.Errorf("error fields = %+v", se)
	}

	// No partial row
	if n := countRows(t, s, "lists"); n != 1 {
		t.Errorf("lists rows = %d, want 1", n)
	}
}

func TestCreateList_DuplicateAfterNormalization(t *testing.T) {
	s := createTestStore(t)
	mustCreateList(t, s, "caf\u00e9")

	_, err := s.CreateList(context.Background(), "cafe\u0301")
	if !IsDuplicateName(err) {
		t.Fatalf("expected duplicate name error for decomposed form, got %v", err)
	}
}

func TestCreateList_NameReusableAfterRemove(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	first := mustCreateList(t, s, "groceries")

	if _, err := s.RemoveList(ctx, first.ID); err != nil {
		t.Fatalf("RemoveList failed: %v", err)
	}

	second := mustCreateList(t, s, "groceries")
	if second.ID == first.ID {
		t.Errorf("id %d was reused after removal", first.ID)
	}
}

func TestRenameList(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	l := mustCreateList(t, s, "groceries")

	renamed, err := s.RenameList(ctx, l.ID, "shopping")
	if err != nil {
		t.Fatalf("RenameList failed: %v", err)
	}
	if renamed != (model.List{ID: l.ID, Name: "shopping"}) {
		t.Errorf("renamed = %+v", renamed)
	}

	got, err := s.GetList(ctx, l.ID)
	if err != nil {
		t.Fatalf("GetList failed: %v", err)
	}
	if got.Name != "shopping" {
		t.Errorf("stored name = %q, want %q", got.Name, "shopping")
	}
}

func TestRenameList_NoSuchList(t *testing.T) {
	s := createTestStore(t)

	_, err := s.RenameList(context.Background(), 42, "x")
	if !IsNoSuchList(err) {
		t.Fatalf("expected no such list, got %v", err)
	}
	var se *Error
	errors.As(err, &se)
	if se.ID != 42 {
		t.Errorf("error id = %d, want 42", se.ID)
	}
}

func TestRenameList_IntoExistingName(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	mustCreateList(t, s, "groceries")
	chores := mustCreateList(t, s, "chores")

	_, err := s.RenameList(ctx, chores.ID, "groceries")
	if !IsDuplicateName(err) {
		t.Fatalf("expected duplicate name, got %v", err)
	}

	got, _ := s.GetList(ctx, chores.ID)
	if got.Name != "chores" {
		t.Errorf("name changed to %q despite failure", got.Name)
	}
}

func TestRenameList_SameName(t *testing.T) {
	s := createTestStore(t)
	l := mustCreateList(t, s, "groceries")

	if _, err := s.RenameList(context.Background(), l.ID, "groceries"); err != nil {
		t.Errorf("renaming to own name failed: %v", err)
	}
}

func TestRemoveList_CascadesOnlyOwnItems(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	groceries := mustCreateList(t, s, "groceries")
	chores := mustCreateList(t, s, "chores")
	mustCreateItem(t, s, groceries.ID, "milk")
	mustCreateItem(t, s, groceries.ID, "eggs")
	kept := mustCreateItem(t, s, chores.ID, "dishes")

	removed, err := s.RemoveList(ctx, groceries.ID)
	if err != nil {
		t.Fatalf("RemoveList failed: %v", err)
	}
	if removed != groceries {
		t.Errorf("removed = %+v, want %+v", removed, groceries)
	}

	items, err := s.ItemsAll(ctx)
	if err != nil {
		t.Fatalf("ItemsAll failed: %v", err)
	}
	if len(items) != 1 || items[0] != kept {
		t.Errorf("remaining items = %+v, want only %+v", items, kept)
	}

	_, err = s.ItemsOfList(ctx, groceries.ID)
	if !IsNoSuchList(err) {
		t.Errorf("ItemsOfList on removed list: expected no such list, got %v", err)
	}
}

func TestRemoveList_NoSuchList(t *testing.T) {
	s := createTestStore(t)

	_, err := s.RemoveList(context.Background(), 7)
	if !IsNoSuchList(err) {
		t.Fatalf("expected no such list, got %v", err)
	}
}

func TestCreateItem_NoSuchList(t *testing.T) {
	s := createTestStore(t)

	_, err := s.CreateItem(context.Background(), 99, "milk")
	if !IsNoSuchList(err) {
		t.Fatalf("expected no such list, got %v", err)
	}
	var se *Error
	errors.As(err, &se)
	if se.ID != 99 {
		t.Errorf("error id = %d, want 99", se.ID)
	}
	if n := countRows(t, s, "items"); n != 0 {
		t.Errorf("items rows = %d, want 0", n)
	}
}

func TestCreateItem_RemovedList(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	l := mustCreateList(t, s, "groceries")
	if _, err := s.RemoveList(ctx, l.ID); err != nil {
		t.Fatalf("RemoveList failed: %v", err)
	}

	_, err := s.CreateItem(ctx, l.ID, "milk")
	if !IsNoSuchList(err) {
		t.Fatalf("expected no such list, got %v", err)
	}
}

func TestEditItem_ChangesOnlyContent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	l := mustCreateList(t, s, "groceries")
	i := mustCreateItem(t, s, l.ID, "milk")

	edited, err := s.EditItem(ctx, i.ID, "oat milk")
	if err != nil {
		t.Fatalf("EditItem failed: %v", err)
	}
	want := model.Item{ID: i.ID, ListID: l.ID, Content: "oat milk"}
	if edited != want {
		t.Errorf("edited = %+v, want %+v", edited, want)
	}

	got, err := s.GetItem(ctx, i.ID)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if got != want {
		t.Errorf("stored = %+v, want %+v", got, want)
	}
}

func TestEditItem_NoSuchItem(t *testing.T) {
	s := createTestStore(t)

	_, err := s.EditItem(context.Background(), 5, "x")
	if !IsNoSuchItem(err) {
		t.Fatalf("expected no such item, got %v", err)
	}
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	l := mustCreateList(t, s, "groceries")
	i := mustCreateItem(t, s, l.ID, "milk")

	removed, err := s.RemoveItem(ctx, i.ID)
	if err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if removed != i {
		t.Errorf("removed = %+v, want %+v", removed, i)
	}

	_, err = s.RemoveItem(ctx, i.ID)
	if !IsNoSuchItem(err) {
		t.Errorf("second RemoveItem: expected no such item, got %v", err)
	}
}

func TestScenario_Groceries(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	l, err := s.CreateList(ctx, "groceries")
	if err != nil || l.ID != 1 {
		t.Fatalf("CreateList = %+v, %v; want id 1", l, err)
	}

	_, err = s.CreateList(ctx, "groceries")
	if !IsDuplicateName(err) {
		t.Fatalf("second CreateList: expected duplicate name, got %v", err)
	}

	i, err := s.CreateItem(ctx, 1, "milk")
	if err != nil || i.ID != 1 {
		t.Fatalf("CreateItem = %+v, %v; want id 1", i, err)
	}

	if _, err := s.RemoveList(ctx, 1); err != nil {
		t.Fatalf("RemoveList failed: %v", err)
	}

	_, err = s.GetItem(ctx, 1)
	if !IsNoSuchItem(err) {
		t.Fatalf("GetItem after cascade: expected no such item, got %v", err)
	}
}
