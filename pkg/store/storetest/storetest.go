// Package storetest is a behavioral test suite every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emetrics/populate/pkg/entities"
	"github.com/emetrics/populate/pkg/errors"
	"github.com/emetrics/populate/pkg/store"
)

// Run exercises s. The store must start empty.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("PutAndGetEntity", func(t *testing.T) { testPutAndGetEntity(t, newStore(t)) })
	t.Run("BlankStatusStoredEnabled", func(t *testing.T) { testBlankStatus(t, newStore(t)) })
	t.Run("EntitiesOrder", func(t *testing.T) { testEntitiesOrder(t, newStore(t)) })
	t.Run("SaveEntityWritesEnrichmentOnly", func(t *testing.T) { testSaveEntity(t, newStore(t)) })
	t.Run("SaveUnknownEntity", func(t *testing.T) { testSaveUnknown(t, newStore(t)) })
	t.Run("News", func(t *testing.T) { testNews(t, newStore(t)) })
	t.Run("ReturnsCopies", func(t *testing.T) { testCopies(t, newStore(t)) })
}

func newsID(n int64) *int64 { return &n }

func sample() *entities.Entity {
	return &entities.Entity{
		Name:         "Foo Corp",
		Status:       entities.StatusEnabled,
		CorpFam:      "Acme Holdings",
		StageCurrent: 2,
		StageHistory: []entities.StageEntry{
			{Date: "2020-JAN-01", Stage: 1},
			{Date: "2021-MAR-01", Stage: 2.5, NewsID: newsID(7)},
		},
	}
}

func testPutAndGetEntity(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.PutEntity(ctx, sample()))

	got, err := s.Entity(ctx, "Foo Corp")
	require.NoError(t, err)
	assert.Equal(t, "Foo Corp", got.Name)
	assert.Equal(t, entities.StatusEnabled, got.Status)
	assert.Equal(t, "Acme Holdings", got.CorpFam)
	assert.Empty(t, got.Summary)
	assert.Equal(t, 2, got.StageCurrent)
	require.Len(t, got.StageHistory, 2)
	assert.False(t, got.StageHistory[0].HasNews())
	require.True(t, got.StageHistory[1].HasNews())
	assert.Equal(t, int64(7), *got.StageHistory[1].NewsID)
	assert.Equal(t, 2.5, got.StageHistory[1].Stage)

	_, err = s.Entity(ctx, "Nope")
	assert.True(t, errors.IsNotFound(err))

	assert.Error(t, s.PutEntity(ctx, &entities.Entity{Status: entities.StatusEnabled}))
}

func testBlankStatus(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.PutEntity(ctx, &entities.Entity{Name: "Foo Corp"}))

	got, err := s.Entity(ctx, "Foo Corp")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusEnabled, got.Status)
	assert.True(t, got.IsEnabled())
	assert.False(t, got.UpdatedAt.IsZero())
}

func testEntitiesOrder(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		require.NoError(t, s.PutEntity(ctx, &entities.Entity{Name: name, Status: entities.StatusEnabled}))
	}
	// Replacing an entity keeps its position.
	require.NoError(t, s.PutEntity(ctx, &entities.Entity{Name: "Zeta", Status: entities.StatusDisabled}))

	all, err := s.Entities(ctx)
	require.NoError(t, err)
	names := make([]string, len(all))
	for i, e := range all {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"Zeta", "Alpha", "Mid"}, names)
	assert.Equal(t, entities.StatusDisabled, all[0].Status)
}

func testSaveEntity(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.PutEntity(ctx, sample()))

	e, err := s.Entity(ctx, "Foo Corp")
	require.NoError(t, err)
	e.Summary = "Foo sells clouds."
	e.DateStarted = "2004"
	e.DateEnded = "None"
	e.Category = "cloud"
	e.Timeline = "It began."
	e.StageCurrent = 4
	e.Status = entities.StatusDisabled
	require.NoError(t, s.SaveEntity(ctx, e))

	got, err := s.Entity(ctx, "Foo Corp")
	require.NoError(t, err)
	assert.Equal(t, "Foo sells clouds.", got.Summary)
	assert.Equal(t, "2004", got.DateStarted)
	assert.Equal(t, "None", got.DateEnded)
	assert.Equal(t, "Acme Holdings", got.CorpFam)
	assert.Equal(t, "cloud", got.Category)
	assert.Equal(t, "It began.", got.Timeline)
	assert.Equal(t, 2, got.StageCurrent, "stage columns are owned upstream")
	assert.Equal(t, entities.StatusEnabled, got.Status, "status is owned by operators")
	assert.False(t, got.UpdatedAt.IsZero())
}

func testSaveUnknown(t *testing.T, s store.Store) {
	err := s.SaveEntity(context.Background(), &entities.Entity{Name: "Ghost", Summary: "x"})
	assert.True(t, errors.IsNotFound(err))
}

func testNews(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.PutNews(ctx, &entities.NewsItem{ID: 7, Text: "Raised prices", Summary: "Up 20%", Date: "2021-MAR-01"}))

	got, err := s.News(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, &entities.NewsItem{ID: 7, Text: "Raised prices", Summary: "Up 20%", Date: "2021-MAR-01"}, got)

	_, err = s.News(ctx, 8)
	assert.True(t, errors.IsNotFound(err))
}

func testCopies(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.PutEntity(ctx, sample()))

	e, err := s.Entity(ctx, "Foo Corp")
	require.NoError(t, err)
	e.Summary = "changed without saving"
	e.StageHistory[0].Stage = 99

	again, err := s.Entity(ctx, "Foo Corp")
	require.NoError(t, err)
	assert.Empty(t, again.Summary)
	assert.Equal(t, float64(1), again.StageHistory[0].Stage)
}
