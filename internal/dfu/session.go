package dfu

import (
	"encoding/binary"
	"hash/crc32"
	"sync"

	"github.com/nisc-labs/wearguard/internal/domain"
	"github.com/nisc-labs/wearguard/internal/ports"
	"github.com/nisc-labs/wearguard/pkg/log"
)

// SessionState is the state of an update transfer session.
type SessionState int

// Session states. StateSessionError is terminal until an Abort packet
// or a transport disconnect resets the session.
const (
	StateIdle SessionState = iota
	StateReceiving
	StateValidating
	StateComplete
	StateSessionError
)

// String returns a human-readable representation of the state.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateReceiving:
		return "Receiving"
	case StateValidating:
		return "Validating"
	case StateComplete:
		return "Complete"
	case StateSessionError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Session is a snapshot of the transfer session.
type Session struct {
	State        SessionState
	TotalSize    uint32
	ReceivedSize uint32
	ExpectedCRC  uint32
}

// Controller drives the update transfer state machine. Incoming packet
// bytes are handed to HandleRaw from the transport's receive path;
// every transition pushes a status byte through the notifier.
//
// All methods are safe for concurrent use and never block, so they may
// be called from transport callback contexts.
type Controller struct {
	mu sync.Mutex

	state    SessionState
	total    uint32
	received uint32
	expected uint32
	lastErr  error
	image    []byte

	stager   ports.Stager
	notifier ports.Notifier
	logger   log.Logger

	// onComplete, if set, is invoked with the full validated image
	// after the session reaches Complete. Called without the session
	// lock held.
	onComplete func(image []byte)
}

// NewController creates a controller in the Idle state.
// A nil logger disables logging.
func NewController(stager ports.Stager, notifier ports.Notifier, logger log.Logger) *Controller {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Controller{
		state:    StateIdle,
		stager:   stager,
		notifier: notifier,
		logger:   logger,
	}
}

// OnComplete registers a callback invoked with the validated image
// once a transfer completes. Must be called before the first packet.
func (c *Controller) OnComplete(fn func(image []byte)) {
	c.mu.Lock()
	c.onComplete = fn
	c.mu.Unlock()
}

// SetNotifier replaces the status notifier. Must be called before the
// first packet.
func (c *Controller) SetNotifier(n ports.Notifier) {
	c.mu.Lock()
	c.notifier = n
	c.mu.Unlock()
}

// HandleRaw decodes one wire packet and feeds it to the state machine.
// Framing errors reply with an InvalidData status and leave the
// session unchanged.
func (c *Controller) HandleRaw(buf []byte) error {
	pkt, err := ParsePacket(buf)
	if err != nil {
		c.logger.Warn("malformed update packet", log.Int("len", len(buf)))
		c.notifier.Notify(StatusInvalidData)
		return err
	}
	return c.HandlePacket(pkt)
}

// HandlePacket runs one packet through the state machine.
func (c *Controller) HandlePacket(pkt Packet) error {
	switch pkt.Command {
	case CmdStart:
		return c.start(pkt.Payload)
	case CmdData:
		return c.data(pkt.Payload)
	case CmdEnd:
		return c.end()
	case CmdAbort:
		return c.abort()
	case CmdStatus:
		c.notifier.Notify(StatusOK)
		return nil
	default:
		c.logger.Warn("unknown update command", log.Int("command", int(pkt.Command)))
		c.notifier.Notify(StatusError)
		return domain.ErrInvalidArgument
	}
}

// Disconnected resets the session to Idle regardless of its current
// state, discarding staged bytes. No status is sent: the transport is
// gone.
func (c *Controller) Disconnected() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	c.logger.Info("transport disconnected, session reset")
}

// Session returns a snapshot of the session.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Session{
		State:        c.state,
		TotalSize:    c.total,
		ReceivedSize: c.received,
		ExpectedCRC:  c.expected,
	}
}

// State returns the current session state.
func (c *Controller) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastErr returns the error that moved the session into its error
// state, or nil.
func (c *Controller) LastErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Image returns the validated image after the session reaches
// Complete, or nil.
func (c *Controller) Image() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.image
}

func (c *Controller) start(payload []byte) error {
	c.mu.Lock()
	if c.state == StateSessionError {
		c.mu.Unlock()
		c.notifier.Notify(StatusBusy)
		return domain.ErrNotReady
	}
	if len(payload) < startPayloadLen {
		c.mu.Unlock()
		c.logger.Warn("start command too short", log.Int("len", len(payload)))
		c.notifier.Notify(StatusInvalidData)
		return domain.ErrInvalidArgument
	}

	// A new Start supersedes any transfer in progress.
	c.resetLocked()
	c.total = binary.LittleEndian.Uint32(payload[0:4])
	c.expected = binary.LittleEndian.Uint32(payload[4:8])
	c.state = StateReceiving
	total, expected := c.total, c.expected
	c.mu.Unlock()

	c.logger.Info("update started",
		log.Uint32("total_size", total),
		log.Uint32("expected_crc", expected),
	)
	c.notifier.Notify(StatusOK)
	return nil
}

func (c *Controller) data(chunk []byte) error {
	c.mu.Lock()
	if c.state == StateSessionError {
		c.mu.Unlock()
		c.notifier.Notify(StatusBusy)
		return domain.ErrNotReady
	}
	if c.state != StateReceiving {
		c.mu.Unlock()
		c.notifier.Notify(StatusError)
		return domain.ErrNotReady
	}
	if len(chunk) == 0 {
		c.mu.Unlock()
		c.notifier.Notify(StatusInvalidData)
		return domain.ErrInvalidArgument
	}

	if c.received+uint32(len(chunk)) > c.total {
		// Bytes already staged are kept for operator inspection.
		c.state = StateSessionError
		c.lastErr = domain.ErrSizeExceeded
		received, total := c.received, c.total
		c.mu.Unlock()

		c.logger.Error("received data exceeds declared size",
			log.Uint32("received", received),
			log.Int("chunk", len(chunk)),
			log.Uint32("total", total),
		)
		c.notifier.Notify(StatusError)
		return domain.ErrSizeExceeded
	}

	if err := c.stager.StageAppend(chunk); err != nil {
		c.state = StateSessionError
		c.lastErr = err
		c.mu.Unlock()

		c.logger.Error("staging append failed", log.Err(err))
		c.notifier.Notify(StatusError)
		return err
	}
	c.received += uint32(len(chunk))

	if c.received == c.total {
		return c.validateLocked()
	}
	c.mu.Unlock()
	c.notifier.Notify(StatusOK)
	return nil
}

func (c *Controller) end() error {
	c.mu.Lock()
	if c.state == StateSessionError {
		c.mu.Unlock()
		c.notifier.Notify(StatusBusy)
		return domain.ErrNotReady
	}
	if c.state != StateReceiving {
		c.mu.Unlock()
		c.notifier.Notify(StatusError)
		return domain.ErrNotReady
	}
	if c.received != c.total {
		received, total := c.received, c.total
		c.mu.Unlock()

		c.logger.Warn("transfer finalized early",
			log.Uint32("received", received),
			log.Uint32("total", total),
		)
		c.notifier.Notify(StatusError)
		return domain.ErrIncompleteTransfer
	}
	return c.validateLocked()
}

func (c *Controller) abort() error {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()

	c.logger.Info("update aborted")
	c.notifier.Notify(StatusOK)
	return nil
}

// validateLocked recomputes the CRC32 of the staged bytes and settles
// the session in Complete or its error state. Called with the session
// lock held; it releases the lock.
func (c *Controller) validateLocked() error {
	c.state = StateValidating

	staged, err := c.stager.StageReadAll()
	if err != nil {
		c.state = StateSessionError
		c.lastErr = err
		c.mu.Unlock()

		c.logger.Error("staging read failed", log.Err(err))
		c.notifier.Notify(StatusError)
		return err
	}

	actual := crc32.ChecksumIEEE(staged)
	if actual != c.expected {
		c.state = StateSessionError
		c.lastErr = domain.ErrIntegrityMismatch
		expected := c.expected
		c.mu.Unlock()

		c.logger.Error("image checksum mismatch",
			log.Uint32("expected", expected),
			log.Uint32("actual", actual),
		)
		c.notifier.Notify(StatusError)
		return domain.ErrIntegrityMismatch
	}

	c.state = StateComplete
	c.image = staged
	onComplete := c.onComplete
	c.mu.Unlock()

	c.logger.Info("update image validated", log.Int("size", len(staged)))
	c.notifier.Notify(StatusOK)
	if onComplete != nil {
		onComplete(staged)
	}
	return nil
}

// resetLocked returns the session to Idle and discards staged bytes.
// The session lock must be held.
func (c *Controller) resetLocked() {
	c.state = StateIdle
	c.total = 0
	c.received = 0
	c.expected = 0
	c.lastErr = nil
	c.image = nil
	if c.stager != nil {
		_ = c.stager.StageClear()
	}
}
