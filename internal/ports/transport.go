package ports

// Notifier pushes single-byte status replies to the connected client.
// Implementations must not block the caller; delivery is best effort
// and failures are never reported back to the core.
type Notifier interface {
	Notify(status byte)
}

// NotifyFunc is the func form of Notifier.
type NotifyFunc func(status byte)

// Notify implements Notifier.
func (f NotifyFunc) Notify(status byte) { f(status) }
