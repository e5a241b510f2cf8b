package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/cashflow/internal/application/finance"
	"github.com/rezkam/cashflow/internal/domain"
	"github.com/rezkam/cashflow/internal/infrastructure/persistence/compliance"
)

func TestSQLiteStore_Compliance(t *testing.T) {
	compliance.RunRepositoryComplianceTest(t, func(t *testing.T) (finance.Repository, func()) {
		store, err := NewStore(context.Background(), ":memory:")
		require.NoError(t, err)
		return store, func() { store.Close() }
	})
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cashflow.db")

	store, err := NewStore(ctx, path)
	require.NoError(t, err)

	now := time.Date(2025, 1, 1, 8, 0, 0, 123456789, time.UTC)
	item := &domain.FinancialItem{
		ID:        "0190f3c4-7a1e-7b2c-9d3e-4f5a6b7c8d9e",
		Kind:      domain.ItemKindIncome,
		Name:      "Salary",
		Amount:    300000,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = store.Create(ctx, item)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewStore(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	fetched, err := reopened.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Salary", fetched.Name)
	assert.Equal(t, now, fetched.CreatedAt, "timestamps keep nanosecond precision")
}

func TestSQLiteStore_RejectsInvalidID(t *testing.T) {
	store, err := NewStore(context.Background(), ":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.FindByID(context.Background(), "42")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	err = store.Delete(context.Background(), "42")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"file::memory:?_pragma=busy_timeout%285000%29&_pragma=foreign_keys%281%29",
		dsn(":memory:"))
	assert.Contains(t, dsn("/tmp/x.db"), "journal_mode%28WAL%29")
}
