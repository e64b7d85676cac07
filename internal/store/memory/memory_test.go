package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emetrics/populate/pkg/entities"
	"github.com/emetrics/populate/pkg/store"
	"github.com/emetrics/populate/pkg/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store { return New() })
}

func TestSavesCounted(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.PutEntity(ctx, &entities.Entity{Name: "Foo", Status: entities.StatusEnabled}))
	assert.Zero(t, s.Saves())

	require.NoError(t, s.SaveEntity(ctx, &entities.Entity{Name: "Foo", Summary: "x"}))
	assert.Equal(t, 1, s.Saves())
}
