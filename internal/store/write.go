package store

import (
	"context"

	"github.com/roach88/listsync/internal/model"
)

// Every mutation is a single statement with RETURNING, so each one is atomic
// and reports "no row matched" as sql.ErrNoRows, which classifies to the
// matching NoSuch* kind.

// CreateList inserts a list and returns it with its generated id.
// Returns a KindDuplicateName error if the name is taken.
//
// The name is NFC normalized before it is stored.
func (s *Store) CreateList(ctx context.Context, name string) (model.List, error) {
	name = model.NormalizeText(name)
	row := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`INSERT INTO lists (name) VALUES (?) RETURNING id, name`), name)
	l, err := scanList(row)
	if err != nil {
		return model.List{}, s.fail(OpCreateList, subject{name: name}, err)
	}
	return l, nil
}

// RenameList changes a list's name in place and returns the renamed list.
// Returns a KindNoSuchList error if the list does not exist and a
// KindDuplicateName error if another list already has newName.
func (s *Store) RenameList(ctx context.Context, id int64, newName string) (model.List, error) {
	newName = model.NormalizeText(newName)
	row := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`UPDATE lists SET name = ? WHERE id = ? RETURNING id, name`), newName, id)
	l, err := scanList(row)
	if err != nil {
		return model.List{}, s.fail(OpRenameList, subject{id: id, name: newName}, err)
	}
	return l, nil
}

// RemoveList deletes a list and, through the cascading foreign key, every
// item it owns. Returns the removed list.
// Returns a KindNoSuchList error if the list does not exist.
func (s *Store) RemoveList(ctx context.Context, id int64) (model.List, error) {
	row := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`DELETE FROM lists WHERE id = ? RETURNING id, name`), id)
	l, err := scanList(row)
	if err != nil {
		return model.List{}, s.fail(OpRemoveList, subject{id: id}, err)
	}
	return l, nil
}

// CreateItem inserts an item into an existing list.
// Returns a KindNoSuchList error if the list does not exist.
func (s *Store) CreateItem(ctx context.Context, listID int64, content string) (model.Item, error) {
	content = model.NormalizeText(content)
	row := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`INSERT INTO items (list_id, content) VALUES (?, ?) RETURNING id, list_id, content`),
		listID, content)
	i, err := scanItem(row)
	if err != nil {
		return model.Item{}, s.fail(OpCreateItem, subject{id: listID}, err)
	}
	return i, nil
}

// EditItem replaces an item's content; id and list_id are unchanged.
// Returns a KindNoSuchItem error if the item does not exist.
func (s *Store) EditItem(ctx context.Context, id int64, newContent string) (model.Item, error) {
	newContent = model.NormalizeText(newContent)
	row := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`UPDATE items SET content = ? WHERE id = ? RETURNING id, list_id, content`),
		newContent, id)
	i, err := scanItem(row)
	if err != nil {
		return model.Item{}, s.fail(OpEditItem, subject{id: id}, err)
	}
	return i, nil
}

// RemoveItem deletes an item and returns it.
// Returns a KindNoSuchItem error if the item does not exist.
func (s *Store) RemoveItem(ctx context.Context, id int64) (model.Item, error) {
	row := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`DELETE FROM items WHERE id = ? RETURNING id, list_id, content`), id)
	i, err := scanItem(row)
	if err != nil {
		return model.Item{}, s.fail(OpRemoveItem, subject{id: id}, err)
	}
	return i, nil
}
