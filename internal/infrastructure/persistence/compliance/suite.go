// Package compliance holds the behavioral test suite every finance.Repository
// implementation must pass.
package compliance

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/cashflow/internal/application/finance"
	"github.com/rezkam/cashflow/internal/domain"
	"github.com/rezkam/cashflow/internal/ptr"
	"github.com/rezkam/cashflow/internal/recurrence"
)

// RunRepositoryComplianceTest runs a standard set of tests against a Repository implementation.
// setup returns a fresh (empty) Repository and a cleanup function for its resources.
func RunRepositoryComplianceTest(t *testing.T, setup func(t *testing.T) (finance.Repository, func())) {
	t.Run("CreateAndFindByID", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		item := recurringItem("Rent", domain.ItemKindExpense, 150000)
		item.Category = ptr.To("housing")

		created, err := repo.Create(ctx, item)
		require.NoError(t, err)
		assert.Equal(t, 1, created.Version)

		fetched, err := repo.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, item.ID, fetched.ID)
		assert.Equal(t, item.Kind, fetched.Kind)
		assert.Equal(t, item.Name, fetched.Name)
		assert.Equal(t, item.Amount, fetched.Amount)
		assert.Equal(t, item.Category, fetched.Category)
		assert.Equal(t, item.Recurrence, fetched.Recurrence)
		assert.True(t, item.CreatedAt.Equal(fetched.CreatedAt))
		assert.Equal(t, 1, fetched.Version)
	})

	t.Run("RoundTripsRawRule", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		item := newItem("Gym", domain.ItemKindExpense, 4000, recurrence.Descriptor{
			Kind:          recurrence.KindRaw,
			AnchorDate:    ptr.To(date(2025, 1, 6)),
			RawRule:       "FREQ=WEEKLY;BYDAY=MO,TH",
			EndDate:       ptr.To(date(2025, 6, 30)),
			Timezone:      "Europe/Berlin",
			WeekendPolicy: recurrence.WeekendNone,
		})
		_, err := repo.Create(ctx, item)
		require.NoError(t, err)

		fetched, err := repo.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, item.Recurrence, fetched.Recurrence)
		assert.Nil(t, fetched.Category)
	})

	t.Run("FindByIDNotFound", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()

		_, err := repo.FindByID(context.Background(), newID())
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
	})

	t.Run("UpdateIncrementsVersion", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		created, err := repo.Create(ctx, oneOffItem("Bonus", domain.ItemKindIncome, 50000, date(2025, 3, 1)))
		require.NoError(t, err)

		created.Name = "Annual bonus"
		created.Amount = 75000
		created.UpdatedAt = created.UpdatedAt.Add(time.Minute)
		updated, err := repo.Update(ctx, created)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Version)
		assert.Equal(t, "Annual bonus", updated.Name)

		fetched, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, fetched.Version)
		assert.Equal(t, domain.Amount(75000), fetched.Amount)
	})

	t.Run("UpdateStaleVersionConflicts", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		created, err := repo.Create(ctx, oneOffItem("Bonus", domain.ItemKindIncome, 50000, date(2025, 3, 1)))
		require.NoError(t, err)

		stale := *created
		_, err = repo.Update(ctx, created)
		require.NoError(t, err)

		_, err = repo.Update(ctx, &stale)
		assert.ErrorIs(t, err, domain.ErrVersionConflict)
	})

	t.Run("UpdateNotFound", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()

		item := oneOffItem("Ghost", domain.ItemKindExpense, 100, date(2025, 1, 1))
		item.Version = 1
		_, err := repo.Update(context.Background(), item)
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		created, err := repo.Create(ctx, oneOffItem("Fee", domain.ItemKindExpense, 1500, date(2025, 2, 1)))
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, created.ID))

		_, err = repo.FindByID(ctx, created.ID)
		assert.ErrorIs(t, err, domain.ErrItemNotFound)

		err = repo.Delete(ctx, created.ID)
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
	})

	t.Run("ListFilters", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		salary := recurringItem("Salary", domain.ItemKindIncome, 300000)
		salary.Category = ptr.To("work")
		rent := recurringItem("Rent", domain.ItemKindExpense, 150000)
		rent.Category = ptr.To("Housing")
		gift := oneOffItem("Gift", domain.ItemKindIncome, 10000, date(2025, 12, 24))
		for _, item := range []*domain.FinancialItem{salary, rent, gift} {
			_, err := repo.Create(ctx, item)
			require.NoError(t, err)
		}

		income := domain.ItemKindIncome
		tests := []struct {
			name   string
			params domain.ListItemsParams
			want   []string
		}{
			{"all", domain.ListItemsParams{}, []string{"Gift", "Rent", "Salary"}},
			{"kind", domain.ListItemsParams{Kind: &income}, []string{"Gift", "Salary"}},
			{"query matches category case-insensitively", domain.ListItemsParams{Query: "hous"}, []string{"Rent"}},
			{"query matches name", domain.ListItemsParams{Query: "SAL"}, []string{"Salary"}},
			{"recurring", domain.ListItemsParams{Recurrence: domain.RecurrenceFilterRecurring}, []string{"Rent", "Salary"}},
			{"non recurring", domain.ListItemsParams{Recurrence: domain.RecurrenceFilterNonRecurring}, []string{"Gift"}},
			{
				"window excludes one-off outside it",
				domain.ListItemsParams{Window: &recurrence.Window{Start: date(2025, 2, 1), End: date(2025, 2, 28)}},
				[]string{"Rent", "Salary"},
			},
			{
				"window before anchors",
				domain.ListItemsParams{Window: &recurrence.Window{Start: date(2024, 1, 1), End: date(2024, 1, 31)}},
				[]string{},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				params := tt.params
				params.OrderBy = domain.OrderByName
				params.OrderDir = "asc"
				page, err := repo.List(ctx, params)
				require.NoError(t, err)
				assert.Equal(t, tt.want, names(page.Items))
				assert.Equal(t, len(tt.want), page.TotalCount)
				assert.False(t, page.HasMore)
			})
		}
	})

	t.Run("ListSortingAndPagination", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
		for i, name := range []string{"A", "B", "C", "D", "E"} {
			item := oneOffItem(name, domain.ItemKindExpense, domain.Amount(int64(100*(5-i))), date(2025, 1, 10+i))
			item.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			item.UpdatedAt = item.CreatedAt
			_, err := repo.Create(ctx, item)
			require.NoError(t, err)
		}

		page, err := repo.List(ctx, domain.ListItemsParams{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"E", "D"}, names(page.Items), "default order is newest first")
		assert.Equal(t, 5, page.TotalCount)
		assert.True(t, page.HasMore)

		page, err = repo.List(ctx, domain.ListItemsParams{Limit: 2, Offset: 4})
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, names(page.Items))
		assert.False(t, page.HasMore)

		page, err = repo.List(ctx, domain.ListItemsParams{OrderBy: domain.OrderByAmount, OrderDir: "asc"})
		require.NoError(t, err)
		assert.Equal(t, []string{"E", "D", "C", "B", "A"}, names(page.Items))

		page, err = repo.List(ctx, domain.ListItemsParams{OrderBy: domain.OrderByDate, OrderDir: "desc", Limit: 3, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"D", "C", "B"}, names(page.Items))
		assert.True(t, page.HasMore)

		page, err = repo.List(ctx, domain.ListItemsParams{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Equal(t, 5, page.TotalCount)
		assert.False(t, page.HasMore)
	})

	t.Run("ListRejectsUnknownOrder", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()

		_, err := repo.List(context.Background(), domain.ListItemsParams{OrderBy: "priority"})
		assert.ErrorIs(t, err, domain.ErrInvalidOrderBy)
	})

	t.Run("FindActive", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		salary := recurringItem("Salary", domain.ItemKindIncome, 300000)
		ended := recurringItem("Old lease", domain.ItemKindExpense, 90000)
		ended.Recurrence.EndDate = ptr.To(date(2025, 1, 31))
		future := recurringItem("New lease", domain.ItemKindExpense, 120000)
		future.Recurrence.AnchorDate = ptr.To(date(2025, 6, 1))
		inside := oneOffItem("Refund", domain.ItemKindIncome, 2500, date(2025, 3, 15))
		outside := oneOffItem("Deposit", domain.ItemKindIncome, 2500, date(2025, 4, 15))
		for _, item := range []*domain.FinancialItem{salary, ended, future, inside, outside} {
			_, err := repo.Create(ctx, item)
			require.NoError(t, err)
		}

		w := recurrence.Window{Start: date(2025, 3, 1), End: date(2025, 3, 31)}
		items, err := repo.FindActive(ctx, w, nil)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Salary", "Refund"}, names(items))

		expense := domain.ItemKindExpense
		items, err = repo.FindActive(ctx, recurrence.Window{Start: date(2025, 1, 1), End: date(2025, 12, 31)}, &expense)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Old lease", "New lease"}, names(items))
	})

	t.Run("FindActiveIncludeDates", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		moved := oneOffItem("Moved refund", domain.ItemKindIncome, 2500, date(2025, 1, 10))
		moved.Recurrence.IncludeDates = []civil.Date{date(2025, 3, 5)}
		ended := recurringItem("Final lease", domain.ItemKindExpense, 90000)
		ended.Recurrence.EndDate = ptr.To(date(2025, 1, 31))
		ended.Recurrence.IncludeDates = []civil.Date{date(2025, 3, 20)}
		elsewhere := oneOffItem("Bonus", domain.ItemKindIncome, 5000, date(2025, 1, 10))
		elsewhere.Recurrence.IncludeDates = []civil.Date{date(2025, 4, 1)}
		for _, item := range []*domain.FinancialItem{moved, ended, elsewhere} {
			_, err := repo.Create(ctx, item)
			require.NoError(t, err)
		}

		items, err := repo.FindActive(ctx, recurrence.Window{Start: date(2025, 3, 1), End: date(2025, 3, 31)}, nil)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Moved refund", "Final lease"}, names(items))
	})
}

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func newItem(name string, kind domain.ItemKind, cents domain.Amount, rec recurrence.Descriptor) *domain.FinancialItem {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.FinancialItem{
		ID:         newID(),
		Kind:       kind,
		Name:       name,
		Amount:     cents,
		Recurrence: rec,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func recurringItem(name string, kind domain.ItemKind, cents domain.Amount) *domain.FinancialItem {
	return newItem(name, kind, cents, recurrence.Descriptor{
		Kind:          recurrence.KindSimple,
		AnchorDate:    ptr.To(date(2025, 1, 1)),
		Simple:        recurrence.MonthlyByDay{Day: 1},
		WeekendPolicy: recurrence.WeekendNext,
		ExcludeDates:  []civil.Date{date(2025, 5, 1)},
	})
}

func oneOffItem(name string, kind domain.ItemKind, cents domain.Amount, on civil.Date) *domain.FinancialItem {
	return newItem(name, kind, cents, recurrence.Descriptor{
		Kind:          recurrence.KindNone,
		OneOffDate:    ptr.To(on),
		WeekendPolicy: recurrence.WeekendNone,
	})
}

func names(items []domain.FinancialItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Name)
	}
	return out
}
