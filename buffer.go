package csvstream

const (
	defaultBufferSize = 1 << 10 // 1024 bytes

	initialDataSize   = 100
	initialFieldCount = 10
)

// field locates one parsed field inside the record's data buffer. It is valid only until the
// next record is read.
type field struct {
	start     int
	length    int
	qualified bool
}

// grow returns s with room for at least one more element.
func grow[T any](s []T) []T {
	return reserve(s, 1)
}

// reserve returns s with room for at least n more elements. Capacity grows by half (at least
// one) per step and existing elements are preserved.
func reserve[T any](s []T, n int) []T {
	if cap(s)-len(s) >= n {
		return s
	}
	c := cap(s)
	for c-len(s) < n {
		c += max(1, c/2)
	}
	grown := make([]T, len(s), c)
	copy(grown, s)
	return grown
}
