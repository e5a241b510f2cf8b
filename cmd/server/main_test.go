package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/cashflow/internal/config"
)

func TestNewCleanup_StopsHealthBeforeClosingStore(t *testing.T) {
	ctx := context.WithValue(t.Context(), ctxKey("test"), "marker")
	var callOrder []string

	healthServer := &fakeHealth{calls: &callOrder}
	store := &fakeStore{calls: &callOrder}

	newCleanup(ctx, healthServer, store)()

	require.Equal(t, []string{"healthShutdown", "storeClose"}, callOrder)
	require.Equal(t, "marker", healthServer.receivedCtx.Value(ctxKey("test")))
}

func TestNewCleanup_ToleratesMissingParts(t *testing.T) {
	var callOrder []string
	store := &fakeStore{calls: &callOrder, err: errors.New("already closed")}

	assert.NotPanics(t, newCleanup(t.Context(), nil, store))
	assert.NotPanics(t, newCleanup(t.Context(), nil, nil))
	assert.Equal(t, []string{"storeClose"}, callOrder)
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()

	t.Run("sqlite", func(t *testing.T) {
		repo, closer, err := openStore(t.Context(), config.StorageConfig{
			Type:       config.StorageSQLite,
			SQLitePath: filepath.Join(dir, "cashflow.db"),
		})
		require.NoError(t, err)
		require.NotNil(t, repo)
		require.NotNil(t, closer)
		assert.NoError(t, closer.Close())
	})

	t.Run("fs", func(t *testing.T) {
		repo, closer, err := openStore(t.Context(), config.StorageConfig{
			Type:  config.StorageFS,
			FSDir: filepath.Join(dir, "items"),
		})
		require.NoError(t, err)
		require.NotNil(t, repo)
		assert.Nil(t, closer)
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := openStore(t.Context(), config.StorageConfig{Type: "mysql"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"mysql"`)
	})
}

func TestMaskPassword(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"with password", "postgres://app:secret@db:5432/cashflow", "postgres://app:xxxxxx@db:5432/cashflow"},
		{"without password", "postgres://app@db/cashflow", "postgres://app@db/cashflow"},
		{"no user", "postgres://db/cashflow?sslmode=disable", "postgres://db/cashflow?sslmode=disable"},
		{"unparsable", "postgres://app:secret@db:port/x\x7f", "[REDACTED]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, maskPassword(tt.in))
		})
	}
}

type ctxKey string

type fakeHealth struct {
	calls       *[]string
	receivedCtx context.Context
}

func (f *fakeHealth) Shutdown(ctx context.Context) error {
	f.receivedCtx = ctx
	*f.calls = append(*f.calls, "healthShutdown")
	return nil
}

type fakeStore struct {
	calls *[]string
	err   error
}

func (s *fakeStore) Close() error {
	*s.calls = append(*s.calls, "storeClose")
	return s.err
}
