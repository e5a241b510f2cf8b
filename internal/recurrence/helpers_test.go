package recurrence

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func datePtr(t *testing.T, s string) *civil.Date {
	t.Helper()
	d := mustDate(t, s)
	return &d
}

func mustDates(t *testing.T, ss ...string) []civil.Date {
	t.Helper()
	out := make([]civil.Date, 0, len(ss))
	for _, s := range ss {
		out = append(out, mustDate(t, s))
	}
	return out
}

func window(t *testing.T, start, end string) Window {
	t.Helper()
	w, err := NewWindow(mustDate(t, start), mustDate(t, end))
	require.NoError(t, err)
	return w
}

func intPtr(n int) *int {
	return &n
}
