package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/listsync/internal/model"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanList(row rowScanner) (model.List, error) {
	var l model.List
	if err := row.Scan(&l.ID, &l.Name); err != nil {
		return model.List{}, err
	}
	return l, nil
}

func scanItem(row rowScanner) (model.Item, error) {
	var i model.Item
	if err := row.Scan(&i.ID, &i.ListID, &i.Content); err != nil {
		return model.Item{}, err
	}
	return i, nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ListAll returns every list ordered by id.
//
// Returns an empty slice (not nil) if there are no lists.
func (s *Store) ListAll(ctx context.Context) ([]model.List, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM lists ORDER BY id ASC`)
	if err != nil {
		return nil, s.fail(OpListAll, subject{}, fmt.Errorf("query lists: %w", err))
	}
	defer rows.Close()

	lists := []model.List{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, s.fail(OpListAll, subject{}, fmt.Errorf("scan list: %w", err))
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(OpListAll, subject{}, fmt.Errorf("iterate lists: %w", err))
	}
	return lists, nil
}

// GetList retrieves a single list by id.
// Returns a KindNoSuchList error if it does not exist.
func (s *Store) GetList(ctx context.Context, id int64) (model.List, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT id, name FROM lists WHERE id = ?`), id)
	l, err := scanList(row)
	if err != nil {
		return model.List{}, s.fail(OpGetList, subject{id: id}, err)
	}
	return l, nil
}

// ItemsAll returns the items of every list ordered by id.
//
// Returns an empty slice (not nil) if there are no items.
func (s *Store) ItemsAll(ctx context.Context) ([]model.Item, error) {
	items, err := s.queryItems(ctx, s.db, `SELECT id, list_id, content FROM items ORDER BY id ASC`)
	if err != nil {
		return nil, s.fail(OpItemsAll, subject{}, err)
	}
	return items, nil
}

// GetItem retrieves a single item by id.
// Returns a KindNoSuchItem error if it does not exist.
func (s *Store) GetItem(ctx context.Context, id int64) (model.Item, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT id, list_id, content FROM items WHERE id = ?`), id)
	i, err := scanItem(row)
	if err != nil {
		return model.Item{}, s.fail(OpGetItem, subject{id: id}, err)
	}
	return i, nil
}

// ItemsOfList returns the items owned by a list ordered by id.
//
// A missing list is a KindNoSuchList error; an existing list without items
// returns an empty slice. Both reads run in one transaction so a concurrent
// removal cannot make an absent list look empty.
func (s *Store) ItemsOfList(ctx context.Context, listID int64) ([]model.Item, error) {
	subj := subject{id: listID}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, s.fail(OpItemsOfList, subj, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() // No-op if committed

	var exists int64
	err = tx.QueryRowContext(ctx, s.dialect.rebind(`SELECT id FROM lists WHERE id = ?`), listID).Scan(&exists)
	if err != nil {
		return nil, s.fail(OpItemsOfList, subj, err)
	}

	items, err := s.queryItems(ctx, tx,
		s.dialect.rebind(`SELECT id, list_id, content FROM items WHERE list_id = ? ORDER BY id ASC`), listID)
	if err != nil {
		return nil, s.fail(OpItemsOfList, subj, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, s.fail(OpItemsOfList, subj, fmt.Errorf("commit: %w", err))
	}
	return items, nil
}

// queryItems runs an item query and collects the rows.
// Errors are returned unclassified; callers classify with their own Op.
func (s *Store) queryItems(ctx context.Context, q queryer, query string, args ...any) ([]model.Item, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}
