package ports

// Stager accumulates an in-progress firmware image before validation.
// Implementations are typically backed by a bounded staging buffer so
// an oversized transfer exerts backpressure instead of exhausting
// memory.
type Stager interface {
	// StageAppend appends a received chunk to the staging area.
	StageAppend(p []byte) error

	// StageReadAll drains and returns all staged bytes in arrival order.
	StageReadAll() ([]byte, error)

	// StageClear discards all staged bytes.
	StageClear() error
}
