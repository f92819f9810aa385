package dfu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nisc-labs/wearguard/internal/domain"
)

func validHeader() ImageHeader {
	h := ImageHeader{
		Magic:        MagicNumber,
		VersionMajor: 2,
		VersionMinor: 1,
		VersionPatch: 7,
		ImageSize:    4096,
		CRC32:        0xCAFEBABE,
		Timestamp:    1_700_000_000,
	}
	for i := range h.Signature {
		h.Signature[i] = byte(i)
	}
	return h
}

func TestImageHeader_EncodeDecodeRoundTrip(t *testing.T) {
	orig := validHeader()

	buf := orig.Encode()
	require.Len(t, buf, HeaderSize)

	got, err := DecodeImageHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestDecodeImageHeader_ShortBuffer(t *testing.T) {
	_, err := DecodeImageHeader(make([]byte, HeaderSize-1))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestImageHeader_Validate(t *testing.T) {
	h := validHeader()
	assert.NoError(t, h.Validate())

	bad := h
	bad.Magic = 0xDEADBEEF
	assert.ErrorIs(t, bad.Validate(), domain.ErrIntegrityMismatch)

	bad = h
	bad.ImageSize = 0
	assert.ErrorIs(t, bad.Validate(), domain.ErrSizeExceeded)

	bad = h
	bad.ImageSize = MaxImageSize + 1
	assert.ErrorIs(t, bad.Validate(), domain.ErrSizeExceeded)
}

func TestImageHeader_Version(t *testing.T) {
	h := validHeader()
	assert.Equal(t, "2.1.7", h.Version())
}
