package gcs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rezkam/cashflow/internal/application/finance"
	"github.com/rezkam/cashflow/internal/config"
	"github.com/rezkam/cashflow/internal/domain"
	"github.com/rezkam/cashflow/internal/infrastructure/persistence/compliance"
)

func TestGCSStore_Compliance(t *testing.T) {
	testCfg, err := config.LoadTestConfig()
	require.NoError(t, err)
	bucket := testCfg.GCSBucket
	if bucket == "" {
		t.Skip("CASHFLOW_TEST_GCS_BUCKET not set, skipping GCS tests")
	}

	compliance.RunRepositoryComplianceTest(t, func(t *testing.T) (finance.Repository, func()) {
		// Note: This assumes Application Default Credentials are set up
		// and point to a valid project with access to the bucket.
		ctx := context.Background()

		// Each run gets its own prefix so parallel CI jobs do not see each other's items.
		prefix := "compliance/" + uuid.NewString()
		store, err := NewStore(ctx, bucket, prefix)
		require.NoError(t, err)

		cleanup := func() {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			it := store.client.Bucket(bucket).Objects(cleanupCtx, &storage.Query{Prefix: prefix + "/"})
			for {
				attrs, err := it.Next()
				if errors.Is(err, iterator.Done) {
					break
				}
				if err != nil {
					t.Logf("Warning: failed to list objects during cleanup: %v", err)
					break
				}
				if err := store.client.Bucket(bucket).Object(attrs.Name).Delete(cleanupCtx); err != nil {
					t.Logf("Warning: failed to delete object %s: %v", attrs.Name, err)
				}
			}
			if err := store.Close(); err != nil {
				t.Logf("Warning: failed to close client: %v", err)
			}
		}

		return store, cleanup
	})
}

func TestObjectNames(t *testing.T) {
	s := NewStoreWithClient(nil, "bucket", "/items/")
	assert.Equal(t, "items/abc.json", s.objectName("abc"))
	assert.Equal(t, "items/", s.listPrefix())

	bare := NewStoreWithClient(nil, "bucket", "")
	assert.Equal(t, "abc.json", bare.objectName("abc"))
	assert.Equal(t, "", bare.listPrefix())
}

func TestIsPreconditionFailed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"json api 412", &googleapi.Error{Code: http.StatusPreconditionFailed}, true},
		{"wrapped json api 412", fmt.Errorf("write: %w", &googleapi.Error{Code: http.StatusPreconditionFailed}), true},
		{"json api 404", &googleapi.Error{Code: http.StatusNotFound}, false},
		{"grpc failed precondition", status.Error(codes.FailedPrecondition, "generation mismatch"), true},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isPreconditionFailed(tt.err))
		})
	}
}

func TestCheckID(t *testing.T) {
	assert.ErrorIs(t, checkID("../escape"), domain.ErrInvalidID)
	assert.NoError(t, checkID(uuid.NewString()))
}
