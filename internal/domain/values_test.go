package domain

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/cashflow/internal/recurrence"
)

func day(y int, m time.Month, d int) *civil.Date {
	return &civil.Date{Year: y, Month: m, Day: d}
}

func fixtureItems() []FinancialItem {
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	groceries := "Groceries"
	housing := "Housing"

	return []FinancialItem{
		{
			ID: "a", Kind: ItemKindIncome, Name: "Salary", Amount: 500000,
			Recurrence: recurrence.Descriptor{Kind: recurrence.KindSimple, AnchorDate: day(2024, time.January, 1), Simple: recurrence.MonthlyByDay{Day: 1}},
			CreatedAt:  base,
		},
		{
			ID: "b", Kind: ItemKindExpense, Name: "Rent", Amount: 150000, Category: &housing,
			Recurrence: recurrence.Descriptor{Kind: recurrence.KindSimple, AnchorDate: day(2024, time.January, 1), EndDate: day(2024, time.December, 31), Simple: recurrence.MonthlyByDay{Day: 1}},
			CreatedAt:  base.Add(time.Hour),
		},
		{
			ID: "c", Kind: ItemKindExpense, Name: "Market", Amount: 8000, Category: &groceries,
			Recurrence: recurrence.Descriptor{Kind: recurrence.KindNone, OneOffDate: day(2025, time.February, 14)},
			CreatedAt:  base.Add(2 * time.Hour),
		},
	}
}

func ids(items []FinancialItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestApplyListParams_DefaultOrderIsNewestFirst(t *testing.T) {
	page := ApplyListParams(fixtureItems(), ListItemsParams{})

	assert.Equal(t, []string{"c", "b", "a"}, ids(page.Items))
	assert.Equal(t, 3, page.TotalCount)
	assert.False(t, page.HasMore)
}

func TestApplyListParams_Filters(t *testing.T) {
	expense := ItemKindExpense
	feb := recurrence.Window{Start: *day(2025, time.February, 1), End: *day(2025, time.February, 28)}

	tests := []struct {
		name   string
		params ListItemsParams
		want   []string
	}{
		{name: "by kind", params: ListItemsParams{Kind: &expense, OrderDir: "asc"}, want: []string{"b", "c"}},
		{name: "recurring only", params: ListItemsParams{Recurrence: RecurrenceFilterRecurring, OrderDir: "asc"}, want: []string{"a", "b"}},
		{name: "one-off only", params: ListItemsParams{Recurrence: RecurrenceFilterNonRecurring}, want: []string{"c"}},
		{name: "query matches category", params: ListItemsParams{Query: "grocer"}, want: []string{"c"}},
		{name: "query matches name", params: ListItemsParams{Query: "SAL"}, want: []string{"a"}},
		{name: "active in window", params: ListItemsParams{Window: &feb, OrderDir: "asc"}, want: []string{"a", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(ApplyListParams(fixtureItems(), tt.params).Items))
		})
	}
}

func TestApplyListParams_SortAndPage(t *testing.T) {
	page := ApplyListParams(fixtureItems(), ListItemsParams{OrderBy: OrderByAmount, OrderDir: "asc", Limit: 2})
	assert.Equal(t, []string{"c", "b"}, ids(page.Items))
	assert.True(t, page.HasMore)

	page = ApplyListParams(fixtureItems(), ListItemsParams{OrderBy: OrderByAmount, OrderDir: "asc", Limit: 2, Offset: 2})
	assert.Equal(t, []string{"a"}, ids(page.Items))
	assert.False(t, page.HasMore)

	page = ApplyListParams(fixtureItems(), ListItemsParams{OrderBy: OrderByDate, OrderDir: "desc"})
	assert.Equal(t, []string{"c", "b", "a"}, ids(page.Items))

	page = ApplyListParams(fixtureItems(), ListItemsParams{Offset: 10})
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.TotalCount)
}

func TestListItemsParams_ValidateOrder(t *testing.T) {
	require.NoError(t, ListItemsParams{OrderBy: OrderByName, OrderDir: "ASC"}.ValidateOrder())
	assert.ErrorIs(t, ListItemsParams{OrderBy: "priority"}.ValidateOrder(), ErrInvalidOrderBy)
	assert.ErrorIs(t, ListItemsParams{OrderDir: "up"}.ValidateOrder(), ErrInvalidOrderDir)
}

func TestDailyTotal_Net(t *testing.T) {
	assert.Equal(t, int64(-500), DailyTotal{Income: 1000, Expense: 1500}.Net())
}
