// Package store defines the persistence collaborator of the pipeline: the
// entity table and the news items stage history links to.
package store

import (
	"context"

	"github.com/emetrics/populate/pkg/entities"
)

// Store persists entities and news items. Lookups of a missing record
// return an error satisfying errors.IsNotFound.
type Store interface {
	// Entities returns every entity in storage order.
	Entities(ctx context.Context) ([]*entities.Entity, error)

	// Entity returns the entity with the given name.
	Entity(ctx context.Context, name string) (*entities.Entity, error)

	// SaveEntity commits the enrichment fields of an existing entity in a
	// single update. Identity, status and stage columns are not written.
	SaveEntity(ctx context.Context, e *entities.Entity) error

	// PutEntity inserts or replaces a whole entity.
	PutEntity(ctx context.Context, e *entities.Entity) error

	// News returns the news item with the given id.
	News(ctx context.Context, id int64) (*entities.NewsItem, error)

	// PutNews inserts or replaces a news item.
	PutNews(ctx context.Context, n *entities.NewsItem) error

	// Close releases the backend.
	Close() error
}
