package device

import (
	"context"
	"errors"
	"time"

	"github.com/nisc-labs/wearguard/internal/domain"
	"github.com/nisc-labs/wearguard/pkg/log"
)

// dequeuePoll bounds each blocking dequeue so the evaluator loop can
// observe context cancellation and emit heartbeats.
const dequeuePoll = 100 * time.Millisecond

// Run consumes sensor samples until the context is cancelled,
// evaluating each against the configured thresholds. The optional
// heartbeat func is called once per loop iteration so a supervisor can
// track the evaluator's liveness.
func (d *Device) Run(ctx context.Context, heartbeat func()) error {
	for {
		if heartbeat != nil {
			heartbeat()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		item, err := d.sensorQ.Dequeue(dequeuePoll)
		if err != nil {
			if errors.Is(err, domain.ErrTimedOut) {
				continue
			}
			return err
		}
		sample, ok := item.Payload.(domain.SensorSample)
		if !ok {
			continue
		}
		d.evaluate(sample)
	}
}

// ProcessPending evaluates up to max queued samples without blocking
// and returns the number processed.
func (d *Device) ProcessPending(max int) int {
	processed := 0
	for processed < max {
		item, err := d.sensorQ.TryDequeue()
		if err != nil {
			break
		}
		if sample, ok := item.Payload.(domain.SensorSample); ok {
			d.evaluate(sample)
		}
		processed++
	}
	return processed
}

// NextAlert removes and returns the oldest pending alert, if any.
func (d *Device) NextAlert() (domain.Alert, bool) {
	item, err := d.alertQ.TryDequeue()
	if err != nil {
		return domain.Alert{}, false
	}
	alert, ok := item.Payload.(domain.Alert)
	return alert, ok
}

// evaluate compares one sample against its sensor's threshold and
// raises a Warning alert when exceeded. The alert outbox is fed with
// the non-blocking enqueue only: a full outbox drops the alert and
// counts it, keeping the sampling path free of stalls.
func (d *Device) evaluate(sample domain.SensorSample) {
	d.mu.Lock()
	d.samplesProcessed++
	threshold := d.cfg.Thresholds[sample.Type]
	d.mu.Unlock()

	if threshold <= 0 || sample.Value <= threshold {
		return
	}

	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.mu.Unlock()

	alert := domain.Alert{
		ID:        id,
		Level:     domain.AlertWarning,
		Sensor:    sample.Type,
		Message:   "threshold exceeded",
		Timestamp: sample.Timestamp,
	}

	if err := d.alertQ.TryEnqueue(alert, alertSize); err != nil {
		d.mu.Lock()
		d.alertsDropped++
		d.mu.Unlock()
		d.logger.Warn("alert outbox full, alert dropped",
			log.Uint32("alert_id", alert.ID),
			log.String("sensor", sample.Type.String()),
		)
		return
	}

	d.mu.Lock()
	d.alertsRaised++
	d.mu.Unlock()

	d.logger.Warn("alert raised",
		log.Uint32("alert_id", alert.ID),
		log.String("sensor", sample.Type.String()),
		log.Float64("value", sample.Value),
		log.Float64("threshold", threshold),
	)
}
