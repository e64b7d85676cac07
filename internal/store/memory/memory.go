// Package memory is a map-backed store.Store for tests and dry runs.
package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/agentstation/utc"

	"github.com/emetrics/populate/pkg/entities"
	"github.com/emetrics/populate/pkg/errors"
)

// Store keeps entities and news items in memory.
type Store struct {
	mu       sync.RWMutex
	order    []string
	entities map[string]*entities.Entity
	news     map[int64]*entities.NewsItem
	saves    int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		entities: make(map[string]*entities.Entity),
		news:     make(map[int64]*entities.NewsItem),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Entities returns copies of every entity in insertion order.
func (s *Store) Entities(_ context.Context) ([]*entities.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.Entity, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, clone(s.entities[name]))
	}
	return out, nil
}

// Entity returns a copy of one entity.
func (s *Store) Entity(_ context.Context, name string) (*entities.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[name]
	if !ok {
		return nil, errors.NewNotFoundError("entity", name)
	}
	return clone(e), nil
}

// SaveEntity writes the enrichment fields of an existing entity.
func (s *Store) SaveEntity(_ context.Context, e *entities.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.entities[e.Name]
	if !ok {
		return errors.NewNotFoundError("entity", e.Name)
	}
	e.UpdatedAt = utc.Now()
	cur.Summary, cur.DateStarted, cur.DateEnded = e.Summary, e.DateStarted, e.DateEnded
	cur.CorpFam, cur.Category, cur.Timeline = e.CorpFam, e.Category, e.Timeline
	cur.UpdatedAt = e.UpdatedAt
	s.saves++
	return nil
}

// PutEntity inserts or replaces an entity.
func (s *Store) PutEntity(_ context.Context, e *entities.Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[e.Name]; !ok {
		s.order = append(s.order, e.Name)
	}
	c := clone(e)
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = utc.Now()
	}
	s.entities[e.Name] = c
	return nil
}

// News returns a copy of one news item.
func (s *Store) News(_ context.Context, id int64) (*entities.NewsItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.news[id]
	if !ok {
		return nil, errors.NewNotFoundError("news", strconv.FormatInt(id, 10))
	}
	c := *n
	return &c, nil
}

// PutNews inserts or replaces a news item.
func (s *Store) PutNews(_ context.Context, n *entities.NewsItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *n
	s.news[n.ID] = &c
	return nil
}

// Saves returns how many SaveEntity calls succeeded.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func clone(e *entities.Entity) *entities.Entity {
	c := *e
	if e.StageHistory != nil {
		c.StageHistory = make([]entities.StageEntry, len(e.StageHistory))
		for i, entry := range e.StageHistory {
			c.StageHistory[i] = entry
			if entry.NewsID != nil {
				id := *entry.NewsID
				c.StageHistory[i].NewsID = &id
			}
		}
	}
	return &c
}
