package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rezkam/cashflow/internal/domain"
	"github.com/rezkam/cashflow/internal/recurrence"
)

// internalErrorJSON is written when even the error response cannot be encoded.
const internalErrorJSON = `{"error":{"code":"INTERNAL_ERROR","message":"failed to encode response","details":[]}}`

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []ErrorField `json:"details"`
}

// ErrorField describes a field-specific error.
type ErrorField struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// BadRequest sends a 400 Bad Request error.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, "INVALID_REQUEST", message, http.StatusBadRequest)
}

// ValidationError sends a 400 validation error with field details.
func ValidationError(w http.ResponseWriter, field, issue string) {
	writeError(w, http.StatusBadRequest, ErrorDetail{
		Code:    "VALIDATION_ERROR",
		Message: "validation failed",
		Details: []ErrorField{{Field: field, Issue: issue}},
	})
}

// NotFound sends a 404 Not Found error.
func NotFound(w http.ResponseWriter, resource string) {
	Error(w, "NOT_FOUND", resource+" not found", http.StatusNotFound)
}

// Conflict sends a 409 Conflict error.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, "CONFLICT", message, http.StatusConflict)
}

// InternalError sends a 500 Internal Server Error.
// The cause is logged server-side; the client only sees a generic message.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		slog.ErrorContext(r.Context(), "Internal server error",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
	}
	Error(w, "INTERNAL_ERROR", "an internal error occurred", http.StatusInternalServerError)
}

// Error sends a generic error response.
func Error(w http.ResponseWriter, code, message string, statusCode int) {
	writeError(w, statusCode, ErrorDetail{Code: code, Message: message})
}

func writeError(w http.ResponseWriter, statusCode int, detail ErrorDetail) {
	if detail.Details == nil {
		detail.Details = []ErrorField{}
	}
	body, err := json.Marshal(ErrorResponse{Error: detail})
	if err != nil {
		statusCode = http.StatusInternalServerError
		body = []byte(internalErrorJSON)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

// fieldErrors maps validation sentinels to the request field they concern.
var fieldErrors = []struct {
	err   error
	field string
}{
	{domain.ErrNameRequired, "name"},
	{domain.ErrNameTooLong, "name"},
	{domain.ErrCategoryTooLong, "category"},
	{domain.ErrInvalidAmount, "amount"},
	{domain.ErrAmountRequired, "amount"},
	{domain.ErrInvalidItemKind, "kind"},
	{domain.ErrKindRequired, "kind"},
	{domain.ErrInvalidID, "id"},
	{domain.ErrInvalidOrderBy, "order_by"},
	{domain.ErrInvalidOrderDir, "order_dir"},
	{domain.ErrInvalidRecurrence, "recurrence"},
	{domain.ErrRecurrenceMissing, "recurrence"},
	{domain.ErrEmptyUpdateMask, "update_mask"},
	{domain.ErrUnknownField, "update_mask"},
	{domain.ErrWindowTooLarge, "window"},
	{recurrence.ErrInvalidWindow, "window"},
	{recurrence.ErrInvalidDate, "date"},
}

// FromDomainError maps domain and recurrence errors to HTTP responses.
func FromDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, fe := range fieldErrors {
		if errors.Is(err, fe.err) {
			ValidationError(w, fe.field, err.Error())
			return
		}
	}

	switch {
	case recurrence.IsValidationError(err):
		ValidationError(w, "recurrence", err.Error())

	case errors.Is(err, domain.ErrItemNotFound):
		NotFound(w, "item")
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, "resource")

	case errors.Is(err, domain.ErrVersionConflict):
		Conflict(w, err.Error())

	default:
		InternalError(w, r, err)
	}
}
