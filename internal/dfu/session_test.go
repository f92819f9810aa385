package dfu

import (
	"hash/crc32"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nisc-labs/wearguard/internal/domain"
)

// recordNotifier captures every status byte pushed by the controller.
type recordNotifier struct {
	mu       sync.Mutex
	statuses []byte
}

func (n *recordNotifier) Notify(status byte) {
	n.mu.Lock()
	n.statuses = append(n.statuses, status)
	n.mu.Unlock()
}

func (n *recordNotifier) last() byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.statuses) == 0 {
		return 0xFF
	}
	return n.statuses[len(n.statuses)-1]
}

func newTestController(t *testing.T, staging int) (*Controller, *recordNotifier) {
	t.Helper()
	stager, err := NewBufferStager(staging)
	require.NoError(t, err)
	notifier := &recordNotifier{}
	return NewController(stager, notifier, nil), notifier
}

func handle(t *testing.T, c *Controller, pkt Packet) error {
	t.Helper()
	wire, err := pkt.Encode()
	require.NoError(t, err)
	return c.HandleRaw(wire)
}

func TestController_CompleteTransfer(t *testing.T) {
	c, notifier := newTestController(t, 1024)

	var completed []byte
	c.OnComplete(func(image []byte) { completed = image })

	payload := []byte{0xCA, 0xFE, 0xBA, 0xBE}
	crc := crc32.ChecksumIEEE(payload)

	require.NoError(t, handle(t, c, StartPacket(uint32(len(payload)), crc)))
	assert.Equal(t, StateReceiving, c.State())
	assert.Equal(t, StatusOK, notifier.last())

	// Final chunk triggers validation without an End packet
	require.NoError(t, handle(t, c, DataPacket(payload)))
	assert.Equal(t, StateComplete, c.State())
	assert.Equal(t, StatusOK, notifier.last())
	assert.Equal(t, payload, completed)
	assert.Equal(t, payload, c.Image())
}

func TestController_ChunkedTransferWithEnd(t *testing.T) {
	c, notifier := newTestController(t, 1024)

	payload := []byte("firmware-image-body")
	crc := crc32.ChecksumIEEE(payload)

	require.NoError(t, handle(t, c, StartPacket(uint32(len(payload)), crc)))
	require.NoError(t, handle(t, c, DataPacket(payload[:7])))
	assert.Equal(t, StateReceiving, c.State())
	assert.Equal(t, StatusOK, notifier.last())

	require.NoError(t, handle(t, c, DataPacket(payload[7:])))
	assert.Equal(t, StateComplete, c.State())

	// End after auto-completion is rejected, session keeps the image
	err := handle(t, c, Packet{Command: CmdEnd})
	assert.ErrorIs(t, err, domain.ErrNotReady)
	assert.Equal(t, StateComplete, c.State())
	assert.Equal(t, payload, c.Image())
}

func TestController_SizeExceeded(t *testing.T) {
	c, notifier := newTestController(t, 1024)

	require.NoError(t, handle(t, c, StartPacket(10, 0)))
	err := handle(t, c, DataPacket(make([]byte, 20)))

	assert.ErrorIs(t, err, domain.ErrSizeExceeded)
	assert.Equal(t, StateSessionError, c.State())
	assert.ErrorIs(t, c.LastErr(), domain.ErrSizeExceeded)
	assert.Equal(t, StatusError, notifier.last())

	// Error state is terminal: further traffic is rejected as busy
	assert.ErrorIs(t, handle(t, c, DataPacket([]byte{1})), domain.ErrNotReady)
	assert.Equal(t, StatusBusy, notifier.last())
	assert.ErrorIs(t, handle(t, c, StartPacket(4, 0)), domain.ErrNotReady)
	assert.Equal(t, StatusBusy, notifier.last())
	assert.ErrorIs(t, handle(t, c, Packet{Command: CmdEnd}), domain.ErrNotReady)

	// Abort recovers
	require.NoError(t, handle(t, c, Packet{Command: CmdAbort}))
	assert.Equal(t, StateIdle, c.State())
	assert.NoError(t, c.LastErr())
}

func TestController_Abort(t *testing.T) {
	c, notifier := newTestController(t, 1024)

	require.NoError(t, handle(t, c, StartPacket(50, 0)))
	require.NoError(t, handle(t, c, DataPacket(make([]byte, 20))))
	require.NoError(t, handle(t, c, Packet{Command: CmdAbort}))

	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, StatusOK, notifier.last())

	session := c.Session()
	assert.Zero(t, session.TotalSize)
	assert.Zero(t, session.ReceivedSize)

	// A fresh transfer succeeds after the abort
	payload := []byte{1, 2, 3}
	require.NoError(t, handle(t, c, StartPacket(3, crc32.ChecksumIEEE(payload))))
	require.NoError(t, handle(t, c, DataPacket(payload)))
	assert.Equal(t, StateComplete, c.State())
}

func TestController_UnknownCommand(t *testing.T) {
	c, notifier := newTestController(t, 1024)

	require.NoError(t, handle(t, c, StartPacket(10, 0)))
	before := c.Session()

	err := handle(t, c, Packet{Command: 0xFF})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Equal(t, StatusError, notifier.last())
	assert.Equal(t, before, c.Session())
}

func TestController_MalformedRawPacket(t *testing.T) {
	c, notifier := newTestController(t, 1024)

	err := c.HandleRaw([]byte{CmdData, 0xFF})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Equal(t, StatusInvalidData, notifier.last())
	assert.Equal(t, StateIdle, c.State())
}

func TestController_IncompleteEnd(t *testing.T) {
	c, notifier := newTestController(t, 1024)

	require.NoError(t, handle(t, c, StartPacket(10, 0)))
	require.NoError(t, handle(t, c, DataPacket(make([]byte, 4))))

	err := handle(t, c, Packet{Command: CmdEnd})
	assert.ErrorIs(t, err, domain.ErrIncompleteTransfer)
	assert.Equal(t, StatusError, notifier.last())

	// Session stays receiving: the remaining bytes can still arrive
	assert.Equal(t, StateReceiving, c.State())
	session := c.Session()
	assert.Equal(t, uint32(4), session.ReceivedSize)
}

func TestController_CRCMismatch(t *testing.T) {
	c, notifier := newTestController(t, 1024)

	payload := []byte{1, 2, 3, 4}
	require.NoError(t, handle(t, c, StartPacket(uint32(len(payload)), 0xBADBAD)))

	err := handle(t, c, DataPacket(payload))
	assert.ErrorIs(t, err, domain.ErrIntegrityMismatch)
	assert.Equal(t, StateSessionError, c.State())
	assert.Equal(t, StatusError, notifier.last())
	assert.Nil(t, c.Image())
}

func TestController_DataWithoutStart(t *testing.T) {
	c, notifier := newTestController(t, 1024)

	err := handle(t, c, DataPacket([]byte{1}))
	assert.ErrorIs(t, err, domain.ErrNotReady)
	assert.Equal(t, StatusError, notifier.last())
	assert.Equal(t, StateIdle, c.State())
}

func TestController_EmptyDataChunk(t *testing.T) {
	c, notifier := newTestController(t, 1024)

	require.NoError(t, handle(t, c, StartPacket(10, 0)))
	err := handle(t, c, Packet{Command: CmdData})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Equal(t, StatusInvalidData, notifier.last())
	assert.Equal(t, StateReceiving, c.State())
}

func TestController_ShortStartPayload(t *testing.T) {
	c, notifier := newTestController(t, 1024)

	err := handle(t, c, Packet{Command: CmdStart, Payload: []byte{1, 2, 3}})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Equal(t, StatusInvalidData, notifier.last())
	assert.Equal(t, StateIdle, c.State())
}

func TestController_StartSupersedesTransfer(t *testing.T) {
	c, _ := newTestController(t, 1024)

	require.NoError(t, handle(t, c, StartPacket(100, 0)))
	require.NoError(t, handle(t, c, DataPacket(make([]byte, 10))))

	payload := []byte{9, 9, 9}
	require.NoError(t, handle(t, c, StartPacket(3, crc32.ChecksumIEEE(payload))))

	session := c.Session()
	assert.Equal(t, uint32(3), session.TotalSize)
	assert.Zero(t, session.ReceivedSize)

	require.NoError(t, handle(t, c, DataPacket(payload)))
	assert.Equal(t, StateComplete, c.State())
	assert.Equal(t, payload, c.Image())
}

func TestController_StatusCommand(t *testing.T) {
	c, notifier := newTestController(t, 1024)

	require.NoError(t, handle(t, c, Packet{Command: CmdStatus}))
	assert.Equal(t, StatusOK, notifier.last())
	assert.Equal(t, StateIdle, c.State())
}

func TestController_Disconnected(t *testing.T) {
	c, notifier := newTestController(t, 1024)

	require.NoError(t, handle(t, c, StartPacket(50, 0)))
	require.NoError(t, handle(t, c, DataPacket(make([]byte, 10))))
	sent := len(notifier.statuses)

	c.Disconnected()

	assert.Equal(t, StateIdle, c.State())
	// No status goes out on disconnect
	assert.Len(t, notifier.statuses, sent)
}

func TestController_StagerFullMovesToError(t *testing.T) {
	c, notifier := newTestController(t, 8)

	require.NoError(t, handle(t, c, StartPacket(100, 0)))
	err := handle(t, c, DataPacket(make([]byte, 16)))

	assert.ErrorIs(t, err, domain.ErrFull)
	assert.Equal(t, StateSessionError, c.State())
	assert.ErrorIs(t, c.LastErr(), domain.ErrFull)
	assert.Equal(t, StatusError, notifier.last())
}
