package response_test

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/rezkam/cashflow/internal/infrastructure/http/response"
)

type occurrenceDTO struct {
	ItemID string `json:"item_id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Amount string `json:"amount"`
	Date   string `json:"date"`
}

type projectionDTO struct {
	Occurrences  []occurrenceDTO `json:"occurrences"`
	TotalIncome  string          `json:"total_income"`
	TotalExpense string          `json:"total_expense"`
}

// projectionOf builds a payload the size of an n-occurrence projection.
func projectionOf(n int) projectionDTO {
	occ := make([]occurrenceDTO, n)
	for i := range occ {
		occ[i] = occurrenceDTO{
			ItemID: "0190f3c4-7a1e-7b2c-9d3e-4f5a6b7c8d9e",
			Name:   "Rent",
			Kind:   "expense",
			Amount: "1500.00",
			Date:   fmt.Sprintf("2025-%02d-01", i%12+1),
		}
	}
	return projectionDTO{Occurrences: occ, TotalIncome: "0.00", TotalExpense: "18000.00"}
}

func BenchmarkOK(b *testing.B) {
	for _, n := range []int{1, 30, 366} {
		data := projectionOf(n)
		b.Run(fmt.Sprintf("occurrences=%d", n), func(b *testing.B) {
			for b.Loop() {
				response.OK(httptest.NewRecorder(), data)
			}
		})
	}
}

func BenchmarkValidationError(b *testing.B) {
	for b.Loop() {
		response.ValidationError(httptest.NewRecorder(), "recurrence", "invalid recurrence pattern")
	}
}
