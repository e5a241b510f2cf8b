// Package ptr builds pointers for the optional fields of items and descriptors.
package ptr

// To returns a pointer to a copy of v, for optional dates and categories in literals.
func To[T any](v T) *T {
	return &v
}
