package handler

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/rezkam/cashflow/internal/domain"
	"github.com/rezkam/cashflow/internal/recurrence"
)

// Request bodies

// ItemFields carries the writable fields of an item.
type ItemFields struct {
	Kind       *string                `json:"kind"`
	Name       *string                `json:"name"`
	Amount     *domain.Amount         `json:"amount"`
	Category   *string                `json:"category"`
	Recurrence *recurrence.Descriptor `json:"recurrence"`
	Etag       *string                `json:"etag,omitempty"`
}

// UpdateItemRequest is a field-mask update. An empty mask on PUT replaces every field.
type UpdateItemRequest struct {
	Item       ItemFields `json:"item"`
	UpdateMask []string   `json:"update_mask"`
}

// WindowDTO is an inclusive date range.
type WindowDTO struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
}

// PreviewRequest expands a descriptor that has not been saved.
type PreviewRequest struct {
	Descriptor recurrence.Descriptor `json:"descriptor"`
	Window     *WindowDTO            `json:"window,omitempty"`
}

// NextDueRequest asks for the first due date of an unsaved descriptor.
type NextDueRequest struct {
	Descriptor recurrence.Descriptor `json:"descriptor"`
	From       *civil.Date           `json:"from,omitempty"`
}

// Response bodies

// ItemDTO is the wire form of a financial item.
type ItemDTO struct {
	ID         string                `json:"id"`
	Kind       domain.ItemKind       `json:"kind"`
	Name       string                `json:"name"`
	Amount     domain.Amount         `json:"amount"`
	Category   *string               `json:"category,omitempty"`
	Recurring  bool                  `json:"recurring"`
	Date       *civil.Date           `json:"date,omitempty"`
	Recurrence recurrence.Descriptor `json:"recurrence"`
	Etag       string                `json:"etag"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

type ItemResponse struct {
	Item ItemDTO `json:"item"`
}

type ListItemsResponse struct {
	Items         []ItemDTO `json:"items"`
	TotalCount    int       `json:"total_count"`
	NextPageToken *string   `json:"next_page_token,omitempty"`
}

type DatesResponse struct {
	Dates []civil.Date `json:"dates"`
}

// NextDueResponse holds null when nothing is due on or after the requested date.
type NextDueResponse struct {
	Date *civil.Date `json:"date"`
}

type OccurrenceDTO struct {
	ItemID string          `json:"item_id"`
	Kind   domain.ItemKind `json:"kind"`
	Name   string          `json:"name"`
	Amount domain.Amount   `json:"amount"`
	Date   civil.Date      `json:"date"`
}

type OccurrencesResponse struct {
	Occurrences []OccurrenceDTO `json:"occurrences"`
}

type DailyTotalDTO struct {
	Date    civil.Date    `json:"date"`
	Income  domain.Amount `json:"income"`
	Expense domain.Amount `json:"expense"`
	Net     signedAmount  `json:"net"`
}

type ProjectionResponse struct {
	Window       WindowDTO       `json:"window"`
	Occurrences  []OccurrenceDTO `json:"occurrences"`
	Days         []DailyTotalDTO `json:"days"`
	TotalIncome  domain.Amount   `json:"total_income"`
	TotalExpense domain.Amount   `json:"total_expense"`
	Net          signedAmount    `json:"net"`
}

// signedAmount is a cent value that may be negative, encoded like domain.Amount.
type signedAmount int64

func (a signedAmount) MarshalJSON() ([]byte, error) {
	n := int64(a)
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	return fmt.Appendf(nil, "%s%d.%02d", sign, n/100, n%100), nil
}

// Domain → DTO mappers

// MapItemToDTO converts domain.FinancialItem to its wire form.
func MapItemToDTO(item *domain.FinancialItem) ItemDTO {
	return ItemDTO{
		ID:         item.ID,
		Kind:       item.Kind,
		Name:       item.Name,
		Amount:     item.Amount,
		Category:   item.Category,
		Recurring:  item.IsRecurring(),
		Date:       item.Date(),
		Recurrence: item.Recurrence,
		Etag:       item.Etag(),
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	}
}

func mapOccurrences(occurrences []domain.Occurrence) []OccurrenceDTO {
	out := make([]OccurrenceDTO, len(occurrences))
	for i, occ := range occurrences {
		out[i] = OccurrenceDTO{
			ItemID: occ.ItemID,
			Kind:   occ.Kind,
			Name:   occ.Name,
			Amount: occ.Amount,
			Date:   occ.Date,
		}
	}
	return out
}

func mapProjection(p *domain.Projection) ProjectionResponse {
	days := make([]DailyTotalDTO, len(p.Days))
	for i, d := range p.Days {
		days[i] = DailyTotalDTO{
			Date:    d.Date,
			Income:  d.Income,
			Expense: d.Expense,
			Net:     signedAmount(d.Net()),
		}
	}
	return ProjectionResponse{
		Window:       WindowDTO{Start: p.Window.Start, End: p.Window.End},
		Occurrences:  mapOccurrences(p.Occurrences),
		Days:         days,
		TotalIncome:  p.TotalIncome,
		TotalExpense: p.TotalExpense,
		Net:          signedAmount(p.TotalIncome.Cents() - p.TotalExpense.Cents()),
	}
}

// datesOrEmpty keeps "dates": [] instead of null in responses.
func datesOrEmpty(dates []civil.Date) []civil.Date {
	if dates == nil {
		return []civil.Date{}
	}
	return dates
}
