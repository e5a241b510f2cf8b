package finance

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/samber/mo"
	"go.opentelemetry.io/otel/attribute"

	"github.com/rezkam/cashflow/internal/domain"
	"github.com/rezkam/cashflow/internal/recurrence"
)

// Preview expands an unsaved descriptor. A nil window means today plus the
// configured preview horizon.
func (s *Service) Preview(ctx context.Context, d recurrence.Descriptor, window *recurrence.Window) (dates []civil.Date, err error) {
	ctx, span := startSpan(ctx, "Preview", attribute.String("recurrence.kind", string(d.Kind)))
	defer func() { endSpan(span, err) }()

	w, err := s.resolveWindow(window)
	if err != nil {
		return nil, err
	}
	dates, err = s.engine.Expand(d, w)
	if err != nil {
		return nil, err
	}
	s.instruments.recordExpansion(ctx, "preview", len(dates))
	return dates, nil
}

// NextDue returns the next due date of an unsaved descriptor on or after from.
// A nil from means today.
func (s *Service) NextDue(ctx context.Context, d recurrence.Descriptor, from *civil.Date) (next mo.Option[civil.Date], err error) {
	_, span := startSpan(ctx, "NextDue", attribute.String("recurrence.kind", string(d.Kind)))
	defer func() { endSpan(span, err) }()

	return s.engine.NextDue(d, s.fromOrToday(from))
}

// ItemOccurrences expands a stored item over window.
func (s *Service) ItemOccurrences(ctx context.Context, id string, window *recurrence.Window) (occurrences []domain.Occurrence, err error) {
	ctx, span := startSpan(ctx, "ItemOccurrences", attribute.String("item.id", id))
	defer func() { endSpan(span, err) }()

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.itemOccurrences(ctx, *item, window)
}

// ItemCalendar loads an item once and expands it over window, so the returned
// occurrences always belong to the returned version of the item.
func (s *Service) ItemCalendar(ctx context.Context, id string, window *recurrence.Window) (item *domain.FinancialItem, occurrences []domain.Occurrence, err error) {
	ctx, span := startSpan(ctx, "ItemCalendar", attribute.String("item.id", id))
	defer func() { endSpan(span, err) }()

	item, err = s.GetItem(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	occurrences, err = s.itemOccurrences(ctx, *item, window)
	if err != nil {
		return nil, nil, err
	}
	return item, occurrences, nil
}

func (s *Service) itemOccurrences(ctx context.Context, item domain.FinancialItem, window *recurrence.Window) ([]domain.Occurrence, error) {
	w, err := s.resolveWindow(window)
	if err != nil {
		return nil, err
	}
	occurrences, err := s.expandItem(item, w)
	if err != nil {
		return nil, err
	}
	s.instruments.recordExpansion(ctx, "item", len(occurrences))
	return occurrences, nil
}

// ItemNextDue returns the next due date of a stored item on or after from.
func (s *Service) ItemNextDue(ctx context.Context, id string, from *civil.Date) (mo.Option[civil.Date], error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return mo.None[civil.Date](), err
	}
	return s.NextDue(ctx, item.Recurrence, from)
}

// Projection expands every item active in window and totals the amounts due per day.
// A nil kind includes both income and expenses.
func (s *Service) Projection(ctx context.Context, window *recurrence.Window, kind *domain.ItemKind) (projection *domain.Projection, err error) {
	ctx, span := startSpan(ctx, "Projection")
	defer func() { endSpan(span, err) }()

	w, err := s.resolveWindow(window)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.FindActive(ctx, w, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	projection = &domain.Projection{Window: w, Occurrences: []domain.Occurrence{}, Days: []domain.DailyTotal{}}
	for _, item := range items {
		occurrences, err := s.expandItem(item, w)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", item.ID, err)
		}
		projection.Occurrences = append(projection.Occurrences, occurrences...)
	}

	slices.SortStableFunc(projection.Occurrences, func(a, b domain.Occurrence) int {
		if c := recurrence.CompareDates(a.Date, b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ItemID, b.ItemID)
	})

	for _, occ := range projection.Occurrences {
		if n := len(projection.Days); n == 0 || projection.Days[n-1].Date != occ.Date {
			projection.Days = append(projection.Days, domain.DailyTotal{Date: occ.Date})
		}
		total := &projection.Days[len(projection.Days)-1]
		switch occ.Kind {
		case domain.ItemKindIncome:
			total.Income += occ.Amount
			projection.TotalIncome += occ.Amount
		case domain.ItemKindExpense:
			total.Expense += occ.Amount
			projection.TotalExpense += occ.Amount
		}
	}

	span.SetAttributes(attribute.Int("projection.items", len(items)), attribute.Int("projection.occurrences", len(projection.Occurrences)))
	s.instruments.recordExpansion(ctx, "projection", len(projection.Occurrences))
	return projection, nil
}

func (s *Service) expandItem(item domain.FinancialItem, w recurrence.Window) ([]domain.Occurrence, error) {
	dates, err := s.engine.Expand(item.Recurrence, w)
	if err != nil {
		return nil, err
	}
	occurrences := make([]domain.Occurrence, 0, len(dates))
	for _, date := range dates {
		occurrences = append(occurrences, domain.Occurrence{
			ItemID: item.ID,
			Kind:   item.Kind,
			Name:   item.Name,
			Amount: item.Amount,
			Date:   date,
		})
	}
	return occurrences, nil
}

func (s *Service) fromOrToday(from *civil.Date) civil.Date {
	if from != nil {
		return *from
	}
	return s.today().Start
}
