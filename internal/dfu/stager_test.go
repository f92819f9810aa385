package dfu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nisc-labs/wearguard/internal/domain"
)

func TestBufferStager_AppendReadAll(t *testing.T) {
	s, err := NewBufferStager(64)
	require.NoError(t, err)

	require.NoError(t, s.StageAppend([]byte("chunk-1")))
	require.NoError(t, s.StageAppend([]byte("chunk-2")))
	assert.Equal(t, 14, s.Len())

	staged, err := s.StageReadAll()
	require.NoError(t, err)
	assert.Equal(t, []byte("chunk-1chunk-2"), staged)
	assert.Zero(t, s.Len())
}

func TestBufferStager_AppendAllOrNothing(t *testing.T) {
	s, err := NewBufferStager(8)
	require.NoError(t, err)

	require.NoError(t, s.StageAppend([]byte{1, 2, 3, 4, 5, 6}))

	// A chunk that does not fully fit must not be staged partially
	err = s.StageAppend([]byte{7, 8, 9})
	assert.ErrorIs(t, err, domain.ErrFull)
	assert.Equal(t, 6, s.Len())
}

func TestBufferStager_EmptyChunk(t *testing.T) {
	s, err := NewBufferStager(8)
	require.NoError(t, err)

	assert.ErrorIs(t, s.StageAppend(nil), domain.ErrInvalidArgument)
}

func TestBufferStager_ReadAllEmpty(t *testing.T) {
	s, err := NewBufferStager(8)
	require.NoError(t, err)

	staged, err := s.StageReadAll()
	require.NoError(t, err)
	assert.Nil(t, staged)
}

func TestBufferStager_Clear(t *testing.T) {
	s, err := NewBufferStager(8)
	require.NoError(t, err)

	require.NoError(t, s.StageAppend([]byte{1, 2, 3}))
	require.NoError(t, s.StageClear())
	assert.Zero(t, s.Len())
}
