package domain

import "errors"

// Domain errors represent error conditions in the wearguard domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrInvalidArgument is returned when a caller passes an argument that
	// violates a documented precondition (nil payload, zero capacity, ...).
	ErrInvalidArgument = errors.New("wearguard: invalid argument")

	// ErrFull is returned by non-blocking operations on a full queue or buffer.
	ErrFull = errors.New("wearguard: full")

	// ErrEmpty is returned by non-blocking operations on an empty queue or buffer.
	ErrEmpty = errors.New("wearguard: empty")

	// ErrTimedOut is returned when a blocking operation's timeout elapses
	// before the operation could complete. No partial state is left behind.
	ErrTimedOut = errors.New("wearguard: timed out")

	// ErrSizeExceeded is returned when received firmware data overruns the
	// size declared at the start of the transfer.
	ErrSizeExceeded = errors.New("wearguard: data exceeds declared image size")

	// ErrIncompleteTransfer is returned when a transfer is finalized before
	// all declared bytes have arrived.
	ErrIncompleteTransfer = errors.New("wearguard: incomplete transfer")

	// ErrIntegrityMismatch is returned when the recomputed checksum of a
	// staged image does not match the expected value.
	ErrIntegrityMismatch = errors.New("wearguard: image integrity mismatch")

	// ErrWatchdogTimeout marks a worker that missed its heartbeat
	// deadline. Reported on every watchdog scan while the stall
	// persists; never fatal to the worker.
	ErrWatchdogTimeout = errors.New("wearguard: watchdog timeout")

	// ErrNotReady is returned when an operation is attempted in a state
	// that cannot serve it (e.g. firmware data before a transfer started).
	ErrNotReady = errors.New("wearguard: not ready")

	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("wearguard: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("wearguard: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("wearguard: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("wearguard: invalid configuration")
)
