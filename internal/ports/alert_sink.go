package ports

import (
	"context"

	"github.com/nisc-labs/wearguard/internal/domain"
)

// AlertSink delivers raised alerts to an external consumer (broker,
// log, companion app). Implementations handle serialization and
// transport; delivery failures are returned for the caller to count,
// never retried inside the sampling path.
type AlertSink interface {
	Publish(ctx context.Context, alert domain.Alert) error
}
