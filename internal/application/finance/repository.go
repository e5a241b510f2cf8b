package finance

import (
	"context"

	"github.com/rezkam/cashflow/internal/domain"
	"github.com/rezkam/cashflow/internal/recurrence"
)

// Repository defines storage operations for financial items.
// All create/update operations return the entity as persisted, including version.
type Repository interface {
	// Create stores a new item.
	// Returns the created item with version populated by persistence layer.
	Create(ctx context.Context, item *domain.FinancialItem) (*domain.FinancialItem, error)

	// FindByID retrieves a single item by its ID.
	// Returns domain.ErrItemNotFound if item doesn't exist.
	FindByID(ctx context.Context, id string) (*domain.FinancialItem, error)

	// Update replaces a stored item when its stored version equals item.Version.
	// Returns the updated item with new version.
	// Returns domain.ErrItemNotFound if item doesn't exist.
	// Returns domain.ErrVersionConflict if the stored version differs.
	Update(ctx context.Context, item *domain.FinancialItem) (*domain.FinancialItem, error)

	// Delete removes an item.
	// Returns domain.ErrItemNotFound if item doesn't exist.
	Delete(ctx context.Context, id string) error

	// List searches for items with filtering, sorting, and pagination.
	List(ctx context.Context, params domain.ListItemsParams) (*domain.PagedItems, error)

	// FindActive returns every item that can have occurrences inside window,
	// optionally restricted to one kind. It is not paginated.
	FindActive(ctx context.Context, window recurrence.Window, kind *domain.ItemKind) ([]domain.FinancialItem, error)
}
