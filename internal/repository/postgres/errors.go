package postgres

import (
	"fmt"

	"github.com/bwise1/snapguide_api/internal/db"
	"github.com/bwise1/snapguide_api/internal/metrics"
)

// storeError classifies err and counts it against op.
func storeError(op string, err error) error {
	metrics.StoreErrors.WithLabelValues(op).Inc()
	return fmt.Errorf("%s: %w", op, db.Classify(err))
}
