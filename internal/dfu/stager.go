package dfu

import (
	"github.com/nisc-labs/wearguard/internal/domain"
	"github.com/nisc-labs/wearguard/internal/ringbuf"
)

// BufferStager implements ports.Stager on top of a bounded circular
// byte buffer. Appends are all-or-nothing: a chunk that does not fit
// fails with ErrFull so the transfer errors out instead of staging a
// truncated image.
type BufferStager struct {
	buf *ringbuf.Buffer
}

// NewBufferStager creates a stager with the given staging capacity in
// bytes.
func NewBufferStager(capacity int) (*BufferStager, error) {
	buf, err := ringbuf.New(capacity, false)
	if err != nil {
		return nil, err
	}
	return &BufferStager{buf: buf}, nil
}

// StageAppend appends a received chunk. The controller serializes
// calls, so the free-space check and write do not race.
func (s *BufferStager) StageAppend(p []byte) error {
	if len(p) == 0 {
		return domain.ErrInvalidArgument
	}
	if s.buf.Free() < len(p) {
		return domain.ErrFull
	}
	_, err := s.buf.WriteNB(p)
	return err
}

// StageReadAll drains and returns all staged bytes in arrival order.
func (s *BufferStager) StageReadAll() ([]byte, error) {
	n := s.buf.Len()
	if n == 0 {
		return nil, nil
	}
	out := make([]byte, n)
	if _, err := s.buf.ReadNB(out); err != nil {
		return nil, err
	}
	return out, nil
}

// StageClear discards all staged bytes.
func (s *BufferStager) StageClear() error {
	s.buf.Clear()
	return nil
}

// Len returns the number of staged bytes.
func (s *BufferStager) Len() int {
	return s.buf.Len()
}
