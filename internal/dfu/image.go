package dfu

import (
	"encoding/binary"
	"fmt"

	"github.com/nisc-labs/wearguard/internal/domain"
)

// MagicNumber marks a valid firmware image header ("NISC").
const MagicNumber = 0x4E495343

// MaxImageSize is the maximum firmware payload size (256 KiB).
const MaxImageSize = 256 * 1024

// HeaderSize is the fixed encoded size of an ImageHeader in bytes.
const HeaderSize = 92

// signatureSize is the size of the detached signature field.
const signatureSize = 64

// ImageHeader is the fixed-layout header preceding the firmware
// payload in the staging area. All integer fields are little-endian on
// the wire. The signature is carried for a later verification stage
// and is not checked here.
type ImageHeader struct {
	Magic        uint32
	VersionMajor uint32
	VersionMinor uint32
	VersionPatch uint32
	ImageSize    uint32
	CRC32        uint32
	Timestamp    uint32
	Signature    [signatureSize]byte
}

// DecodeImageHeader parses the first HeaderSize bytes of buf.
func DecodeImageHeader(buf []byte) (ImageHeader, error) {
	if len(buf) < HeaderSize {
		return ImageHeader{}, domain.ErrInvalidArgument
	}
	var h ImageHeader
	h.Magic = binary.LittleEndian.Uint32(buf[0:4])
	h.VersionMajor = binary.LittleEndian.Uint32(buf[4:8])
	h.VersionMinor = binary.LittleEndian.Uint32(buf[8:12])
	h.VersionPatch = binary.LittleEndian.Uint32(buf[12:16])
	h.ImageSize = binary.LittleEndian.Uint32(buf[16:20])
	h.CRC32 = binary.LittleEndian.Uint32(buf[20:24])
	h.Timestamp = binary.LittleEndian.Uint32(buf[24:28])
	copy(h.Signature[:], buf[28:28+signatureSize])
	return h, nil
}

// Encode returns the HeaderSize-byte wire form of the header.
func (h ImageHeader) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.VersionMajor)
	binary.LittleEndian.PutUint32(buf[8:12], h.VersionMinor)
	binary.LittleEndian.PutUint32(buf[12:16], h.VersionPatch)
	binary.LittleEndian.PutUint32(buf[16:20], h.ImageSize)
	binary.LittleEndian.PutUint32(buf[20:24], h.CRC32)
	binary.LittleEndian.PutUint32(buf[24:28], h.Timestamp)
	copy(buf[28:28+signatureSize], h.Signature[:])
	return buf
}

// Version returns the header version as a dotted string.
func (h ImageHeader) Version() string {
	return fmt.Sprintf("%d.%d.%d", h.VersionMajor, h.VersionMinor, h.VersionPatch)
}

// Validate checks the magic number and the declared payload size.
func (h ImageHeader) Validate() error {
	if h.Magic != MagicNumber {
		return domain.ErrIntegrityMismatch
	}
	if h.ImageSize == 0 || h.ImageSize > MaxImageSize {
		return domain.ErrSizeExceeded
	}
	return nil
}
