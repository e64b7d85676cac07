package populate

import (
	"sync"

	"github.com/emetrics/populate/pkg/entities"
	"github.com/emetrics/populate/pkg/reconcile"
)

// EntityUpdatedHook is called after an entity's enrichment fields were
// committed. changes lists only the fields that were written.
type EntityUpdatedHook func(entity entities.Entity, changes []reconcile.Change)

// hooks manages event callbacks for committed entities
type hooks struct {
	mu              sync.RWMutex
	onEntityUpdated []EntityUpdatedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnEntityUpdated registers a callback for committed entities
func (h *hooks) OnEntityUpdated(fn EntityUpdatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEntityUpdated = append(h.onEntityUpdated, fn)
}

// triggerEntityUpdated runs every registered callback with a copy of the entity
func (h *hooks) triggerEntityUpdated(entity *entities.Entity, changes []reconcile.Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onEntityUpdated {
		fn(*entity, changes)
	}
}
