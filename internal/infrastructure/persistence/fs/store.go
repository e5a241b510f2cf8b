// Package fs stores financial items as one JSON file per item in a local directory.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rezkam/cashflow/internal/application/finance"
	"github.com/rezkam/cashflow/internal/domain"
	"github.com/rezkam/cashflow/internal/infrastructure/persistence/document"
	"github.com/rezkam/cashflow/internal/recurrence"
)

// Limit concurrency to avoid "too many open files" on large directories.
const maxConcurrency = 20

// Store is a filesystem-based implementation of finance.Repository.
type Store struct {
	baseDir string
	mu      sync.RWMutex
}

var _ finance.Repository = (*Store)(nil)

// NewStore creates a new filesystem store rooted at baseDir.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) getFilePath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}
	return nil
}

func (s *Store) read(id string) (*domain.FinancialItem, error) {
	data, err := os.ReadFile(s.getFilePath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return document.Decode(data)
}

// write replaces the item's file atomically through a rename.
func (s *Store) write(item *domain.FinancialItem) error {
	data, err := document.Encode(item)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.baseDir, "."+item.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.getFilePath(item.ID)); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

// Create stores a new item with version 1.
func (s *Store) Create(ctx context.Context, item *domain.FinancialItem) (*domain.FinancialItem, error) {
	if err := checkID(item.ID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.getFilePath(item.ID)); err == nil {
		return nil, fmt.Errorf("item with ID %s already exists", item.ID)
	}

	stored := *item
	stored.Version = 1
	if err := s.write(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// FindByID reads an item's JSON file.
func (s *Store) FindByID(ctx context.Context, id string) (*domain.FinancialItem, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(id)
}

// Update overwrites an item's file when its version still equals item.Version.
func (s *Store) Update(ctx context.Context, item *domain.FinancialItem) (*domain.FinancialItem, error) {
	if err := checkID(item.ID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read(item.ID)
	if err != nil {
		return nil, err
	}
	if current.Version != item.Version {
		return nil, fmt.Errorf("%w: item %s is at version %d", domain.ErrVersionConflict, item.ID, current.Version)
	}

	stored := *item
	stored.CreatedAt = current.CreatedAt
	stored.Version = current.Version + 1
	if err := s.write(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// Delete removes an item's file.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.getFilePath(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
		}
		return fmt.Errorf("failed to delete file: %w", err)
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

// loadAll scans the directory for JSON files and loads them in parallel.
func (s *Store) loadAll(ctx context.Context) ([]domain.FinancialItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}

	items := make([]domain.FinancialItem, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := s.read(id)
			if err != nil {
				return fmt.Errorf("item %s: %w", id, err)
			}
			items[i] = *item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}
