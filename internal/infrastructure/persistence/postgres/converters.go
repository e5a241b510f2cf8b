package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rezkam/cashflow/internal/domain"
	"github.com/rezkam/cashflow/internal/recurrence"
)

// === pgtype Conversion Helpers ===

// uuidToPgtype converts google/uuid.UUID to pgtype.UUID.
func uuidToPgtype(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// pgtypeToUUIDString converts pgtype.UUID to string (empty if invalid).
func pgtypeToUUIDString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

// parseID converts a string ID into pgtype.UUID, wrapping parse failures in domain.ErrInvalidID.
func parseID(id string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}
	return uuidToPgtype(parsed), nil
}

// timeToPgtype converts time.Time to pgtype.Timestamptz.
func timeToPgtype(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// pgtypeToTime converts pgtype.Timestamptz to time.Time (zero if invalid).
// Always returns time in UTC location for consistent timezone handling.
func pgtypeToTime(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

// datePtrToPgtype converts *civil.Date to pgtype.Date; nil becomes NULL.
func datePtrToPgtype(d *civil.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return dateToPgtype(*d)
}

// dateToPgtype converts civil.Date to pgtype.Date at UTC midnight.
func dateToPgtype(d civil.Date) pgtype.Date {
	return pgtype.Date{Time: d.In(time.UTC), Valid: true}
}

// stringPtrToPgtype converts *string to pgtype.Text; nil becomes NULL.
func stringPtrToPgtype(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

// pgtypeToStringPtr converts pgtype.Text to *string (nil if NULL).
func pgtypeToStringPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

// === Financial Item Conversions ===

// itemRow is the column set written for one financial item.
type itemRow struct {
	ID             pgtype.UUID
	Kind           string
	Name           string
	AmountCents    int64
	Category       pgtype.Text
	RecurrenceKind string
	RefDate        pgtype.Date
	AnchorDate     pgtype.Date
	OneOffDate     pgtype.Date
	EndDate        pgtype.Date
	Recurrence     []byte
	CreatedAt      pgtype.Timestamptz
	UpdatedAt      pgtype.Timestamptz
	Version        int32
}

func domainItemToRow(item *domain.FinancialItem) (itemRow, error) {
	id, err := parseID(item.ID)
	if err != nil {
		return itemRow{}, err
	}
	rec, err := json.Marshal(item.Recurrence)
	if err != nil {
		return itemRow{}, fmt.Errorf("failed to encode recurrence: %w", err)
	}

	kind := item.Recurrence.Kind
	if kind == "" {
		kind = recurrence.KindNone
	}
	return itemRow{
		ID:             id,
		Kind:           string(item.Kind),
		Name:           item.Name,
		AmountCents:    item.Amount.Cents(),
		Category:       stringPtrToPgtype(item.Category),
		RecurrenceKind: string(kind),
		RefDate:        datePtrToPgtype(item.Date()),
		AnchorDate:     datePtrToPgtype(item.Recurrence.AnchorDate),
		OneOffDate:     datePtrToPgtype(item.Recurrence.OneOffDate),
		EndDate:        datePtrToPgtype(item.Recurrence.EndDate),
		Recurrence:     rec,
		CreatedAt:      timeToPgtype(item.CreatedAt),
		UpdatedAt:      timeToPgtype(item.UpdatedAt),
		Version:        int32(item.Version),
	}, nil
}

// scannedItem holds the columns read back for one financial item.
type scannedItem struct {
	ID          pgtype.UUID
	Kind        string
	Name        string
	AmountCents int64
	Category    pgtype.Text
	Recurrence  []byte
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
	Version     int32
}

func (r *scannedItem) dest() []any {
	return []any{
		&r.ID, &r.Kind, &r.Name, &r.AmountCents, &r.Category,
		&r.Recurrence, &r.CreatedAt, &r.UpdatedAt, &r.Version,
	}
}

func (r *scannedItem) toDomain() (*domain.FinancialItem, error) {
	var rec recurrence.Descriptor
	if err := json.Unmarshal(r.Recurrence, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode recurrence for item %s: %w", pgtypeToUUIDString(r.ID), err)
	}
	return &domain.FinancialItem{
		ID:         pgtypeToUUIDString(r.ID),
		Kind:       domain.ItemKind(r.Kind),
		Name:       r.Name,
		Amount:     domain.Amount(r.AmountCents),
		Category:   pgtypeToStringPtr(r.Category),
		Recurrence: rec,
		CreatedAt:  pgtypeToTime(r.CreatedAt),
		UpdatedAt:  pgtypeToTime(r.UpdatedAt),
		Version:    int(r.Version),
	}, nil
}
