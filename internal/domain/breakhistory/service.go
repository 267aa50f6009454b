package breakhistory

import (
	"context"
	"time"
)

// Aggregator folds completed breaks into the daily rollup.
type Aggregator interface {
	OnBreakCompleted(ctx context.Context, employeeID string, date time.Time, duration time.Duration, category string) (History, error)
}
