package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/cashflow/internal/domain"
	"github.com/rezkam/cashflow/internal/infrastructure/calendar"
	"github.com/rezkam/cashflow/internal/infrastructure/http/response"
	"github.com/rezkam/cashflow/internal/recurrence"
)

// Preview handles POST /v1/recurrence/preview.
// It expands a descriptor that has not been saved, typically while a form is edited.
func (h *FinanceHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		decodeError(w, r, err)
		return
	}

	window, err := windowFromDTO(req.Window)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	dates, err := h.service.Preview(r.Context(), req.Descriptor, window)
	if err != nil {
		slog.WarnContext(r.Context(), "recurrence preview rejected",
			"kind", req.Descriptor.Kind,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, DatesResponse{Dates: datesOrEmpty(dates)})
}

// NextDue handles POST /v1/recurrence/next-due.
func (h *FinanceHandler) NextDue(w http.ResponseWriter, r *http.Request) {
	var req NextDueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		decodeError(w, r, err)
		return
	}

	next, err := h.service.NextDue(r.Context(), req.Descriptor, req.From)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, NextDueResponse{Date: next.ToPointer()})
}

// ItemOccurrences handles GET /v1/items/{id}/occurrences?start&end.
func (h *FinanceHandler) ItemOccurrences(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	window, err := windowQuery(r)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	occurrences, err := h.service.ItemOccurrences(r.Context(), id, window)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, OccurrencesResponse{Occurrences: mapOccurrences(occurrences)})
}

// ItemNextDue handles GET /v1/items/{id}/next-due?from.
func (h *FinanceHandler) ItemNextDue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	from, err := dateQuery(r, "from")
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	next, err := h.service.ItemNextDue(r.Context(), id, from)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, NextDueResponse{Date: next.ToPointer()})
}

// ItemCalendar handles GET /v1/items/{id}/calendar.ics?start&end.
// Each occurrence becomes an all-day event so calendar apps can subscribe to due dates.
func (h *FinanceHandler) ItemCalendar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	window, err := windowQuery(r)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	item, occurrences, err := h.service.ItemCalendar(r.Context(), id, window)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := calendar.Encode(&buf, item.Name, occurrences, h.now()); err != nil {
		response.InternalError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", calendar.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.ics"`, item.ID))
	w.Header().Set("ETag", item.Etag())
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.ErrorContext(r.Context(), "Failed to write calendar response", "item_id", id, "error", err)
	}
}

// Projection handles GET /v1/projection?start&end&kind.
func (h *FinanceHandler) Projection(w http.ResponseWriter, r *http.Request) {
	window, err := windowQuery(r)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	kind, err := kindQuery(r)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	projection, err := h.service.Projection(r.Context(), window, kind)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, mapProjection(projection))
}

// decodeError reports a body the JSON codecs rejected. Descriptor and amount
// codec failures keep their field details; anything else is malformed JSON.
func decodeError(w http.ResponseWriter, r *http.Request, err error) {
	if recurrence.IsValidationError(err) || errors.Is(err, domain.ErrInvalidAmount) {
		response.FromDomainError(w, r, err)
		return
	}
	response.BadRequest(w, "invalid JSON")
}
