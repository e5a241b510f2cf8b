package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/samber/mo"

	"github.com/rezkam/cashflow/internal/domain"
	"github.com/rezkam/cashflow/internal/infrastructure/http/response"
)

// allFields is the implicit update mask of a PUT without one.
var allFields = []string{"kind", "name", "amount", "category", "recurrence"}

// CreateItem handles POST /v1/items.
func (h *FinanceHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req ItemFields
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		decodeError(w, r, err)
		return
	}

	if req.Amount == nil {
		response.FromDomainError(w, r, domain.ErrAmountRequired)
		return
	}

	item := &domain.FinancialItem{
		Kind:     domain.ItemKind(mo.PointerToOption(req.Kind).OrEmpty()),
		Name:     mo.PointerToOption(req.Name).OrEmpty(),
		Amount:   *req.Amount,
		Category: req.Category,
	}
	if req.Recurrence != nil {
		item.Recurrence = *req.Recurrence
	}

	created, err := h.service.CreateItem(r.Context(), item)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create item via HTTP",
			"name", item.Name,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "item created via HTTP",
		"item_id", created.ID,
		"kind", created.Kind,
		"recurrence_kind", created.Recurrence.Kind)

	w.Header().Set("ETag", created.Etag())
	response.Created(w, ItemResponse{Item: MapItemToDTO(created)})
}

// GetItem handles GET /v1/items/{id}.
func (h *FinanceHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	w.Header().Set("ETag", item.Etag())
	response.OK(w, ItemResponse{Item: MapItemToDTO(item)})
}

// UpdateItem handles PUT and PATCH /v1/items/{id}.
// The etag comes from the body or an If-Match header.
func (h *FinanceHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		decodeError(w, r, err)
		return
	}

	mask := req.UpdateMask
	if len(mask) == 0 && r.Method == http.MethodPut {
		mask = allFields
	}

	params := domain.UpdateItemParams{
		ID:         id,
		Etag:       req.Item.Etag,
		UpdateMask: mask,
		Name:       req.Item.Name,
		Amount:     req.Item.Amount,
		Category:   req.Item.Category,
		Recurrence: req.Item.Recurrence,
	}
	if params.Etag == nil {
		if match := strings.Trim(r.Header.Get("If-Match"), `"`); match != "" {
			params.Etag = &match
		}
	}
	if req.Item.Kind != nil {
		kind, err := domain.NewItemKind(*req.Item.Kind)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		params.Kind = &kind
	}

	updated, err := h.service.UpdateItem(r.Context(), params)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to update item via HTTP",
			"item_id", id,
			"update_mask", mask,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "item updated via HTTP",
		"item_id", updated.ID,
		"version", updated.Version)

	w.Header().Set("ETag", updated.Etag())
	response.OK(w, ItemResponse{Item: MapItemToDTO(updated)})
}

// DeleteItem handles DELETE /v1/items/{id}.
func (h *FinanceHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "item deleted via HTTP", "item_id", id)
	response.NoContent(w)
}

// ListItems handles GET /v1/items.
//
// Query parameters: kind, q, recurrence (all|recurring|non_recurring),
// start and end, order_by, order_dir, page_size, page_token.
func (h *FinanceHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pageSize, err := parsePageSize(q.Get("page_size"))
	if err != nil {
		response.ValidationError(w, "page_size", err.Error())
		return
	}
	kind, err := kindQuery(r)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	filter, err := domain.NewRecurrenceFilter(q.Get("recurrence"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	window, err := windowQuery(r)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	params := domain.ListItemsParams{
		Kind:       kind,
		Query:      q.Get("q"),
		Recurrence: filter,
		Window:     window,
		OrderBy:    q.Get("order_by"),
		OrderDir:   q.Get("order_dir"),
		Limit:      pageSize,
		Offset:     parsePageToken(q.Get("page_token")),
	}

	result, err := h.service.ListItems(r.Context(), params)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	items := make([]ItemDTO, len(result.Items))
	for i := range result.Items {
		items[i] = MapItemToDTO(&result.Items[i])
	}

	response.OK(w, ListItemsResponse{
		Items:         items,
		TotalCount:    result.TotalCount,
		NextPageToken: generatePageToken(params.Offset+len(result.Items), result.HasMore),
	})
}
