// Package document defines the JSON document shape used by the object stores
// (local filesystem and GCS) to persist financial items.
package document

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rezkam/cashflow/internal/domain"
	"github.com/rezkam/cashflow/internal/recurrence"
)

// Item is the stored form of a domain.FinancialItem.
type Item struct {
	ID         string                `json:"id"`
	Kind       domain.ItemKind       `json:"kind"`
	Name       string                `json:"name"`
	Amount     domain.Amount         `json:"amount"`
	Category   *string               `json:"category,omitempty"`
	Recurrence recurrence.Descriptor `json:"recurrence"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
	Version    int                   `json:"version"`
}

// FromDomain copies item into its document form.
func FromDomain(item *domain.FinancialItem) Item {
	return Item{
		ID:         item.ID,
		Kind:       item.Kind,
		Name:       item.Name,
		Amount:     item.Amount,
		Category:   item.Category,
		Recurrence: item.Recurrence,
		CreatedAt:  item.CreatedAt.UTC(),
		UpdatedAt:  item.UpdatedAt.UTC(),
		Version:    item.Version,
	}
}

// ToDomain converts the document back into a domain item.
func (d Item) ToDomain() *domain.FinancialItem {
	return &domain.FinancialItem{
		ID:         d.ID,
		Kind:       d.Kind,
		Name:       d.Name,
		Amount:     d.Amount,
		Category:   d.Category,
		Recurrence: d.Recurrence,
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
		Version:    d.Version,
	}
}

// Encode marshals item as an indented JSON document.
func Encode(item *domain.FinancialItem) ([]byte, error) {
	data, err := json.MarshalIndent(FromDomain(item), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item: %w", err)
	}
	return data, nil
}

// Decode unmarshals a document produced by Encode.
func Decode(data []byte) (*domain.FinancialItem, error) {
	var doc Item
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return doc.ToDomain(), nil
}
