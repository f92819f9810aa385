// Package supervisor tracks worker liveness via heartbeats and reports
// watchdog timeouts.
//
// Workers register once and are never removed; a stalled worker is
// reported on every watchdog scan while the stall persists but is left
// running. Termination or restart policy belongs to the caller.
package supervisor

import (
	"sync"
	"time"

	"github.com/nisc-labs/wearguard/internal/domain"
	"github.com/nisc-labs/wearguard/pkg/log"
)

// State is the lifecycle state of a supervised worker.
type State int

// Worker states.
const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateSuspended
	StateError
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateSuspended:
		return "Suspended"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Handle identifies a registered worker.
type Handle int

// Info is a snapshot of a worker's supervision record.
type Info struct {
	Handle          Handle
	Name            string
	State           State
	RunCount        uint64
	ErrorCount      uint64
	WatchdogTimeout time.Duration
	LastHeartbeat   time.Time
}

// Timeout describes one worker that missed its watchdog deadline.
type Timeout struct {
	Handle     Handle
	Name       string
	Elapsed    time.Duration
	ErrorCount uint64
}

// Supervisor holds the worker table. One mutex guards the table; the
// supervisor never blocks on any other lock while holding it.
//
// CheckWatchdogs is meant to be driven by exactly one supervisory
// caller. Overlapping scans are not guarded against and may count the
// same stall twice.
type Supervisor struct {
	mu      sync.Mutex
	workers []*record
	logger  log.Logger
}

type record struct {
	name            string
	state           State
	runCount        uint64
	errorCount      uint64
	watchdogTimeout time.Duration
	lastHeartbeat   time.Time
}

// New creates an empty supervisor. A nil logger disables logging.
func New(logger log.Logger) *Supervisor {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Supervisor{logger: logger}
}

// Register adds a worker in state Starting and returns its handle.
// The watchdog timeout must be positive.
func (s *Supervisor) Register(name string, watchdogTimeout time.Duration) (Handle, error) {
	if name == "" || watchdogTimeout <= 0 {
		return 0, domain.ErrInvalidArgument
	}

	s.mu.Lock()
	h := Handle(len(s.workers))
	s.workers = append(s.workers, &record{
		name:            name,
		state:           StateStarting,
		watchdogTimeout: watchdogTimeout,
		lastHeartbeat:   time.Now(),
	})
	s.mu.Unlock()

	s.logger.Info("worker registered",
		log.String("name", name),
		log.Duration("watchdog_timeout", watchdogTimeout),
	)
	return h, nil
}

// Heartbeat records liveness for the worker: updates the heartbeat
// timestamp, increments the run counter, and promotes Starting to
// Running on the first call.
func (s *Supervisor) Heartbeat(h Handle) error {
	s.mu.Lock()
	r, err := s.lookup(h)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	r.lastHeartbeat = time.Now()
	r.runCount++

	promoted := false
	if r.state == StateStarting {
		r.state = StateRunning
		promoted = true
	}
	name := r.name
	s.mu.Unlock()

	if promoted {
		s.logger.Info("worker running", log.String("name", name))
	}
	return nil
}

// CheckWatchdogs scans all Running workers and reports those whose
// time since last heartbeat exceeds their configured timeout. Each
// reported stall increments the worker's error counter; the worker
// itself is left running. Designed for a single supervisory caller.
func (s *Supervisor) CheckWatchdogs() []Timeout {
	now := time.Now()

	s.mu.Lock()
	var timeouts []Timeout
	for i, r := range s.workers {
		if r.state != StateRunning {
			continue
		}
		elapsed := now.Sub(r.lastHeartbeat)
		if elapsed > r.watchdogTimeout {
			r.errorCount++
			timeouts = append(timeouts, Timeout{
				Handle:     Handle(i),
				Name:       r.name,
				Elapsed:    elapsed,
				ErrorCount: r.errorCount,
			})
		}
	}
	s.mu.Unlock()

	for _, to := range timeouts {
		s.logger.Warn("watchdog timeout",
			log.String("name", to.Name),
			log.Duration("elapsed", to.Elapsed),
			log.Uint64("error_count", to.ErrorCount),
			log.Err(domain.ErrWatchdogTimeout),
		)
	}
	return timeouts
}

// Suspend marks a Starting or Running worker as Suspended. Suspended
// workers are excluded from watchdog scans.
func (s *Supervisor) Suspend(h Handle) error {
	s.mu.Lock()
	r, err := s.lookup(h)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if r.state != StateStarting && r.state != StateRunning {
		s.mu.Unlock()
		return domain.ErrNotReady
	}
	r.state = StateSuspended
	name := r.name
	s.mu.Unlock()

	s.logger.Info("worker suspended", log.String("name", name))
	return nil
}

// Resume returns a Suspended worker to Running. The heartbeat timestamp
// is reset so the worker does not immediately trip its watchdog.
func (s *Supervisor) Resume(h Handle) error {
	s.mu.Lock()
	r, err := s.lookup(h)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if r.state != StateSuspended {
		s.mu.Unlock()
		return domain.ErrNotReady
	}
	r.state = StateRunning
	r.lastHeartbeat = time.Now()
	name := r.name
	s.mu.Unlock()

	s.logger.Info("worker resumed", log.String("name", name))
	return nil
}

// Info returns a snapshot of one worker's record.
func (s *Supervisor) Info(h Handle) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.lookup(h)
	if err != nil {
		return Info{}, err
	}
	return s.snapshot(h, r), nil
}

// Workers returns snapshots of all registered workers.
func (s *Supervisor) Workers() []Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]Info, len(s.workers))
	for i, r := range s.workers {
		infos[i] = s.snapshot(Handle(i), r)
	}
	return infos
}

// lookup resolves a handle. The table mutex must be held.
func (s *Supervisor) lookup(h Handle) (*record, error) {
	if h < 0 || int(h) >= len(s.workers) {
		return nil, domain.ErrInvalidArgument
	}
	return s.workers[h], nil
}

// snapshot copies a record. The table mutex must be held.
func (s *Supervisor) snapshot(h Handle, r *record) Info {
	return Info{
		Handle:          h,
		Name:            r.name,
		State:           r.state,
		RunCount:        r.runCount,
		ErrorCount:      r.errorCount,
		WatchdogTimeout: r.watchdogTimeout,
		LastHeartbeat:   r.lastHeartbeat,
	}
}
