package handler

import (
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/rezkam/cashflow/internal/domain"
	"github.com/rezkam/cashflow/internal/recurrence"
)

// windowQuery reads the start and end query parameters.
// Both absent means the service default; one without the other is an error.
func windowQuery(r *http.Request) (*recurrence.Window, error) {
	q := r.URL.Query()
	rawStart, rawEnd := q.Get("start"), q.Get("end")
	if rawStart == "" && rawEnd == "" {
		return nil, nil
	}
	if rawStart == "" || rawEnd == "" {
		return nil, fmt.Errorf("%w: start and end must be given together", recurrence.ErrInvalidWindow)
	}

	start, err := recurrence.ParseDate(rawStart)
	if err != nil {
		return nil, err
	}
	end, err := recurrence.ParseDate(rawEnd)
	if err != nil {
		return nil, err
	}
	w, err := recurrence.NewWindow(start, end)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// dateQuery reads an optional civil date parameter.
func dateQuery(r *http.Request, name string) (*civil.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := recurrence.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// kindQuery reads an optional item kind filter.
func kindQuery(r *http.Request) (*domain.ItemKind, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("kind"))
	if raw == "" {
		return nil, nil
	}
	kind, err := domain.NewItemKind(raw)
	if err != nil {
		return nil, err
	}
	return &kind, nil
}

func windowFromDTO(dto *WindowDTO) (*recurrence.Window, error) {
	if dto == nil {
		return nil, nil
	}
	w, err := recurrence.NewWindow(dto.Start, dto.End)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
