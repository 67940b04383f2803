package core

// ReadResult carries the outcome of a tolerant read. When the underlying
// query fails the read degrades to the zero value with Degraded set, so a
// caller can tell an empty book apart from a failed query. The failure
// itself is logged at the point of degradation.
type ReadResult[T any] struct {
	Data     T
	Degraded bool
}

// OkResult wraps a successful read.
func OkResult[T any](data T) ReadResult[T] {
	return ReadResult[T]{Data: data}
}

// DegradedResult marks a read that fell back to its zero value.
func DegradedResult[T any]() ReadResult[T] {
	return ReadResult[T]{Degraded: true}
}
