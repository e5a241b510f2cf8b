package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/rezkam/cashflow/internal/domain"
	"github.com/rezkam/cashflow/internal/ptr"
	"github.com/rezkam/cashflow/internal/recurrence"
)

// Default configuration values.
const (
	DefaultPageSize      = 15
	MaxPageSize          = 100
	DefaultPreviewDays   = 90
	DefaultMaxWindowDays = 366
)

// Config holds configuration for the Service.
type Config struct {
	DefaultPageSize int
	MaxPageSize     int
	PreviewDays     int // Length of the window used when a caller gives none
	MaxWindowDays   int // Largest window accepted by expansion operations
}

// Service provides business logic for financial items and their due dates.
// It orchestrates operations using the Repository interface and the recurrence engine.
type Service struct {
	repo        Repository
	engine      *recurrence.Engine
	config      Config
	now         func() time.Time
	instruments instruments
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the clock used to compute default windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new finance service.
// Applies application defaults for zero or invalid config values.
func NewService(repo Repository, engine *recurrence.Engine, config Config, opts ...Option) *Service {
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = DefaultPageSize
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = MaxPageSize
	}
	if config.PreviewDays <= 0 {
		config.PreviewDays = DefaultPreviewDays
	}
	if config.MaxWindowDays <= 0 {
		config.MaxWindowDays = DefaultMaxWindowDays
	}
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}

	s := &Service{
		repo:        repo,
		engine:      engine,
		config:      config,
		now:         time.Now,
		instruments: newInstruments(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateItem validates and stores a new financial item.
func (s *Service) CreateItem(ctx context.Context, item *domain.FinancialItem) (created *domain.FinancialItem, err error) {
	ctx, span := startSpan(ctx, "CreateItem")
	defer func() { endSpan(span, err) }()

	if err := normalizeItem(item); err != nil {
		return nil, err
	}

	// Generate ID if not provided
	if item.ID == "" {
		idObj, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate id: %w", err)
		}
		item.ID = idObj.String()
	}

	now := s.now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	created, err = s.repo.Create(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return created, nil
}

// GetItem retrieves an item by ID.
func (s *Service) GetItem(ctx context.Context, id string) (*domain.FinancialItem, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// UpdateItem applies a field-mask update to an item.
// Only updates fields specified in UpdateMask.
func (s *Service) UpdateItem(ctx context.Context, params domain.UpdateItemParams) (updated *domain.FinancialItem, err error) {
	ctx, span := startSpan(ctx, "UpdateItem", attribute.String("item.id", params.ID))
	defer func() { endSpan(span, err) }()

	if err := validateID(params.ID); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if params.Etag != nil && *params.Etag != item.Etag() {
		return nil, domain.ErrVersionConflict
	}

	if params.Has("name") {
		item.Name = *params.Name
	}
	if params.Has("kind") {
		item.Kind = *params.Kind
	}
	if params.Has("amount") {
		item.Amount = *params.Amount
	}
	if params.Has("category") {
		item.Category = params.Category
	}
	if params.Has("recurrence") {
		item.Recurrence = *params.Recurrence
	}
	if err := normalizeItem(item); err != nil {
		return nil, err
	}
	item.UpdatedAt = s.now().UTC()

	return s.repo.Update(ctx, item)
}

// DeleteItem removes an item.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ListItems retrieves items with filtering, sorting, and pagination.
func (s *Service) ListItems(ctx context.Context, params domain.ListItemsParams) (*domain.PagedItems, error) {
	if err := params.ValidateOrder(); err != nil {
		return nil, err
	}
	if params.Window != nil {
		if err := s.checkWindow(*params.Window); err != nil {
			return nil, err
		}
	}

	// Reject negative offsets to prevent database errors
	if params.Offset < 0 {
		params.Offset = 0
	}

	// Apply default page size if not specified or invalid
	if params.Limit <= 0 {
		params.Limit = s.config.DefaultPageSize
	}
	// Enforce maximum page size
	params.Limit = min(params.Limit, s.config.MaxPageSize)

	result, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return result, nil
}

// normalizeItem validates item fields in place, trimming text values.
func normalizeItem(item *domain.FinancialItem) error {
	name, err := domain.NewName(item.Name)
	if err != nil {
		return err
	}
	item.Name = name.String()

	kind, err := domain.NewItemKind(string(item.Kind))
	if err != nil {
		return err
	}
	item.Kind = kind

	if item.Amount < 0 {
		return domain.ErrInvalidAmount
	}

	category, err := domain.NewCategory(item.Category)
	if err != nil {
		return err
	}
	item.Category = category

	if item.Recurrence.Kind == "" {
		item.Recurrence.Kind = recurrence.KindNone
	}
	if item.Recurrence.WeekendPolicy == "" {
		item.Recurrence.WeekendPolicy = recurrence.WeekendNone
	}
	return item.Recurrence.Validate()
}

func validateID(id string) error {
	if id == "" {
		return domain.ErrItemNotFound
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidID, id)
	}
	return nil
}

// today returns the current civil date in UTC.
func (s *Service) today() recurrence.Window {
	d := recurrence.DateOf(s.now(), time.UTC)
	return recurrence.Window{Start: d, End: d}
}

// resolveWindow returns w, or the default preview window starting today when w is nil.
func (s *Service) resolveWindow(w *recurrence.Window) (recurrence.Window, error) {
	if w == nil {
		start := s.today().Start
		w = ptr.To(recurrence.Window{Start: start, End: start.AddDays(s.config.PreviewDays)})
	}
	if err := s.checkWindow(*w); err != nil {
		return recurrence.Window{}, err
	}
	return *w, nil
}

func (s *Service) checkWindow(w recurrence.Window) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if w.Days() > s.config.MaxWindowDays {
		return fmt.Errorf("%w: %d days exceeds the limit of %d", domain.ErrWindowTooLarge, w.Days(), s.config.MaxWindowDays)
	}
	return nil
}
