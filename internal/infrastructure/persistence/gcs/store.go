// Package gcs stores financial items as JSON objects in a Google Cloud Storage bucket.
//
// Writes use object generation preconditions, so concurrent writers from
// several server instances cannot silently overwrite each other.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rezkam/cashflow/internal/application/finance"
	"github.com/rezkam/cashflow/internal/domain"
	"github.com/rezkam/cashflow/internal/infrastructure/persistence/document"
	"github.com/rezkam/cashflow/internal/recurrence"
)

// GCS handles 20+ concurrent requests well; stay conservative.
const maxConcurrency = 20

// Store is a GCS-based implementation of finance.Repository.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ finance.Repository = (*Store)(nil)

// NewStore creates a new GCS store. Credentials come from Application Default
// Credentials unless opts say otherwise. Objects are named prefix/<id>.json.
func NewStore(ctx context.Context, bucketName, prefix string, opts ...option.ClientOption) (*Store, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return NewStoreWithClient(client, bucketName, prefix), nil
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client *storage.Client, bucketName, prefix string) *Store {
	return &Store{
		client: client,
		bucket: bucketName,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) objectName(id string) string {
	return path.Join(s.prefix, id+".json")
}

func (s *Store) listPrefix() string {
	if s.prefix == "" {
		return ""
	}
	return s.prefix + "/"
}

func (s *Store) object(id string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.objectName(id))
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}
	return nil
}

// isPreconditionFailed reports whether a write lost a generation race.
func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusPreconditionFailed
	}
	return status.Code(err) == codes.FailedPrecondition
}

// read returns the item together with the object generation it was read at.
func (s *Store) read(ctx context.Context, obj *storage.ObjectHandle, id string) (*domain.FinancialItem, int64, error) {
	r, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
		}
		return nil, 0, fmt.Errorf("failed to read object: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read object: %w", err)
	}
	item, err := document.Decode(data)
	if err != nil {
		return nil, 0, err
	}
	return item, r.Attrs.Generation, nil
}

func (s *Store) write(ctx context.Context, obj *storage.ObjectHandle, item *domain.FinancialItem) error {
	data, err := document.Encode(item)
	if err != nil {
		return err
	}
	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	return w.Close()
}

// Create stores a new item; it fails if the object already exists.
func (s *Store) Create(ctx context.Context, item *domain.FinancialItem) (*domain.FinancialItem, error) {
	if err := checkID(item.ID); err != nil {
		return nil, err
	}
	stored := *item
	stored.Version = 1

	obj := s.object(item.ID).If(storage.Conditions{DoesNotExist: true})
	if err := s.write(ctx, obj, &stored); err != nil {
		if isPreconditionFailed(err) {
			return nil, fmt.Errorf("item with ID %s already exists", item.ID)
		}
		return nil, err
	}
	return &stored, nil
}

// FindByID retrieves an item from GCS.
func (s *Store) FindByID(ctx context.Context, id string) (*domain.FinancialItem, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	item, _, err := s.read(ctx, s.object(id), id)
	return item, err
}

// Update overwrites an item when its version still equals item.Version.
// The write is conditioned on the generation that was read, so a racing
// writer makes it fail with ErrVersionConflict.
func (s *Store) Update(ctx context.Context, item *domain.FinancialItem) (*domain.FinancialItem, error) {
	if err := checkID(item.ID); err != nil {
		return nil, err
	}
	current, generation, err := s.read(ctx, s.object(item.ID), item.ID)
	if err != nil {
		return nil, err
	}
	if current.Version != item.Version {
		return nil, fmt.Errorf("%w: item %s is at version %d", domain.ErrVersionConflict, item.ID, current.Version)
	}

	stored := *item
	stored.CreatedAt = current.CreatedAt
	stored.Version = current.Version + 1

	obj := s.object(item.ID).If(storage.Conditions{GenerationMatch: generation})
	if err := s.write(ctx, obj, &stored); err != nil {
		if isPreconditionFailed(err) {
			return nil, fmt.Errorf("%w: item %s", domain.ErrVersionConflict, item.ID)
		}
		return nil, err
	}
	return &stored, nil
}

// Delete removes an item's object.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.object(id).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// List loads every item and filters, sorts and pages them in memory.
func (s *Store) List(ctx context.Context, params domain.ListItemsParams) (*domain.PagedItems, error) {
	if err := params.ValidateOrder(); err != nil {
		return nil, err
	}
	items, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	page := domain.ApplyListParams(items, params)
	return &page, nil
}

// FindActive returns every item that can have occurrences inside window.
func (s *Store) FindActive(ctx context.Context, window recurrence.Window, kind *domain.ItemKind) ([]domain.FinancialItem, error) {
	items, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	params := domain.ListItemsParams{Kind: kind, Window: &window}
	active := make([]domain.FinancialItem, 0, len(items))
	for _, item := range items {
		if params.Matches(item) {
			active = append(active, item)
		}
	}
	return active, nil
}

// loadAll lists the item objects under the prefix and fetches them in parallel.
func (s *Store) loadAll(ctx context.Context) ([]domain.FinancialItem, error) {
	prefix := s.listPrefix()
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var ids []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		name := strings.TrimPrefix(attrs.Name, prefix)
		if strings.Contains(name, "/") || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}

	loaded := make([]*domain.FinancialItem, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			item, _, err := s.read(gctx, s.object(id), id)
			if errors.Is(err, domain.ErrItemNotFound) {
				// deleted after listing
				return nil
			}
			if err != nil {
				return fmt.Errorf("item %s: %w", id, err)
			}
			loaded[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]domain.FinancialItem, 0, len(loaded))
	for _, item := range loaded {
		if item != nil {
			items = append(items, *item)
		}
	}
	return items, nil
}
