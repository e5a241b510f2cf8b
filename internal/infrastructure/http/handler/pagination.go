package handler

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

// generatePageToken encodes the offset of the next page.
// Returns nil if there are no more pages.
func generatePageToken(offset int, hasMore bool) *string {
	if !hasMore {
		return nil
	}

	token := base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
	return &token
}

// parsePageToken decodes a pagination token to get the offset.
// Returns 0 if token is empty, invalid, or contains a negative value.
func parsePageToken(token string) int {
	if token == "" {
		return 0
	}

	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0
	}

	offset, err := strconv.Atoi(string(decoded))
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// parsePageSize returns the requested page size, or 0 if not specified.
// The service layer applies configured defaults and limits.
func parsePageSize(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("page_size must be a non-negative integer, got %q", raw)
	}
	return n, nil
}
