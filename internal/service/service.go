// Package service is the single writer in front of the storage engine.
//
// Every mutation goes through Service so that each successful store change
// produces exactly one event on the bus, in the order the changes committed.
// Failed mutations publish nothing.
package service

import (
	"context"
	"log/slog"

	"github.com/roach88/listsync/internal/bus"
	"github.com/roach88/listsync/internal/model"
	"github.com/roach88/listsync/internal/store"
)

// Store is the subset of *store.Store the service depends on.
type Store interface {
	ListAll(ctx context.Context) ([]model.List, error)
	GetList(ctx context.Context, id int64) (model.List, error)
	ItemsAll(ctx context.Context) ([]model.Item, error)
	GetItem(ctx context.Context, id int64) (model.Item, error)
	ItemsOfList(ctx context.Context, listID int64) ([]model.Item, error)

	CreateList(ctx context.Context, name string) (model.List, error)
	RenameList(ctx context.Context, id int64, newName string) (model.List, error)
	RemoveList(ctx context.Context, id int64) (model.List, error)
	CreateItem(ctx context.Context, listID int64, content string) (model.Item, error)
	EditItem(ctx context.Context, id int64, newContent string) (model.Item, error)
	RemoveItem(ctx context.Context, id int64) (model.Item, error)
}

var _ Store = (*store.Store)(nil)

// Service couples the store with the mutation bus.
type Service struct {
	store  Store
	bus    *bus.Bus[model.Event]
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for mutation records.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Service publishing to b.
func New(st Store, b *bus.Bus[model.Event], opts ...Option) *Service {
	s := &Service{
		store:  st,
		bus:    b,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bus returns the bus mutations are published to.
func (s *Service) Bus() *bus.Bus[model.Event] {
	return s.bus
}

// Subscribe opens a new cursor on the mutation bus.
func (s *Service) Subscribe() *bus.Subscription[model.Event] {
	return s.bus.Subscribe()
}

func (s *Service) ListAll(ctx context.Context) ([]model.List, error) {
	return s.store.ListAll(ctx)
}

func (s *Service) GetList(ctx context.Context, id int64) (model.List, error) {
	return s.store.GetList(ctx, id)
}

func (s *Service) ItemsAll(ctx context.Context) ([]model.Item, error) {
	return s.store.ItemsAll(ctx)
}

func (s *Service) GetItem(ctx context.Context, id int64) (model.Item, error) {
	return s.store.GetItem(ctx, id)
}

func (s *Service) ItemsOfList(ctx context.Context, listID int64) ([]model.Item, error) {
	return s.store.ItemsOfList(ctx, listID)
}

// CreateList stores a new list and publishes ListCreated.
func (s *Service) CreateList(ctx context.Context, name string) (model.List, error) {
	l, err := s.store.CreateList(ctx, name)
	if err != nil {
		return model.List{}, err
	}
	s.publish(model.ListEvent(model.TagListCreated, l))
	return l, nil
}

// RenameList renames a list and publishes ListRenamed.
func (s *Service) RenameList(ctx context.Context, id int64, newName string) (model.List, error) {
	l, err := s.store.RenameList(ctx, id, newName)
	if err != nil {
		return model.List{}, err
	}
	s.publish(model.ListEvent(model.TagListRenamed, l))
	return l, nil
}

// RemoveList removes a list with its items and publishes ListRemoved.
// Cascaded item removals are implied by the list event and not published.
func (s *Service) RemoveList(ctx context.Context, id int64) (model.List, error) {
	l, err := s.store.RemoveList(ctx, id)
	if err != nil {
		return model.List{}, err
	}
	s.publish(model.ListEvent(model.TagListRemoved, l))
	return l, nil
}

// CreateItem stores a new item and publishes ItemCreated.
func (s *Service) CreateItem(ctx context.Context, listID int64, content string) (model.Item, error) {
	i, err := s.store.CreateItem(ctx, listID, content)
	if err != nil {
		return model.Item{}, err
	}
	s.publish(model.ItemEvent(model.TagItemCreated, i))
	return i, nil
}

// EditItem replaces an item's content and publishes ItemEdited.
func (s *Service) EditItem(ctx context.Context, id int64, newContent string) (model.Item, error) {
	i, err := s.store.EditItem(ctx, id, newContent)
	if err != nil {
		return model.Item{}, err
	}
	s.publish(model.ItemEvent(model.TagItemEdited, i))
	return i, nil
}

// RemoveItem removes an item and publishes ItemRemoved.
func (s *Service) RemoveItem(ctx context.Context, id int64) (model.Item, error) {
	i, err := s.store.RemoveItem(ctx, id)
	if err != nil {
		return model.Item{}, err
	}
	s.publish(model.ItemEvent(model.TagItemRemoved, i))
	return i, nil
}

func (s *Service) publish(ev model.Event) {
	n := s.bus.Publish(ev)
	s.logger.Debug("mutation published",
		"event", ev.Tag,
		"subscribers", n,
	)
}
