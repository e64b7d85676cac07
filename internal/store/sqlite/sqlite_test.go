package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emetrics/populate/pkg/entities"
	"github.com/emetrics/populate/pkg/store"
	"github.com/emetrics/populate/pkg/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sub", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newTestStore(t) })
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.PutEntity(ctx, &entities.Entity{Name: "Foo Corp", Status: entities.StatusEnabled, Summary: "kept"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.Entity(ctx, "Foo Corp")
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Summary)
}

func TestBlankFieldsStoredAsNull(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutEntity(ctx, &entities.Entity{Name: "Foo Corp", Status: entities.StatusEnabled}))

	var nulls int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entities WHERE summary IS NULL AND timeline IS NULL AND corp_fam IS NULL`).Scan(&nulls)
	require.NoError(t, err)
	assert.Equal(t, 1, nulls)
}

func TestStageHistoryStoredAsArrays(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := int64(3)
	require.NoError(t, s.PutEntity(ctx, &entities.Entity{
		Name:         "Foo Corp",
		Status:       entities.StatusEnabled,
		StageHistory: []entities.StageEntry{{Date: "2020", Stage: 1}, {Date: "2021", Stage: 2, NewsID: &id}},
	}))

	var raw string
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT stage_history FROM entities`).Scan(&raw))
	assert.JSONEq(t, `[["2020", 1], ["2021", 2, 3]]`, raw)
}

func TestMalformedStageHistoryDoesNotHideOtherRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutEntity(ctx, &entities.Entity{Name: "Good", Status: entities.StatusEnabled}))
	require.NoError(t, s.PutEntity(ctx, &entities.Entity{Name: "Bad", Status: entities.StatusEnabled, Summary: "Bad."}))
	_, err := s.db.ExecContext(ctx, `UPDATE entities SET stage_history = ? WHERE name = 'Bad'`, `[["2024-01-01", 2, 3, 4]]`)
	require.NoError(t, err)

	all, err := s.Entities(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.NoError(t, all[0].Defect)
	require.Error(t, all[1].Defect)
	assert.Contains(t, all[1].Defect.Error(), "stage_history")
	assert.Nil(t, all[1].StageHistory)
	assert.Equal(t, "Bad.", all[1].Summary)

	bad, err := s.Entity(ctx, "Bad")
	require.NoError(t, err)
	assert.Error(t, bad.Defect)
}
