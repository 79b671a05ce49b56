package chunk

// Split divides items into consecutive sub-slices of at most size elements.
// A nil or empty input yields no chunks. Panics if size < 1, since every
// backend limit this package serves is a positive constant.
func Split[T any](items []T, size int) [][]T {
	if size < 1 {
		panic("chunk: size must be >= 1")
	}
	if len(items) == 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
