package breakhistory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breakhistory"
)

type AggregatorImpl struct {
	breakhistory.HistoryRepository
	policy breakhistory.Policy
}

func NewAggregator(repo breakhistory.HistoryRepository, policy breakhistory.Policy) breakhistory.Aggregator {
	return &AggregatorImpl{HistoryRepository: repo, policy: policy}
}

// OnBreakCompleted implements breakhistory.Aggregator. The increment is a
// single upsert, so concurrent completions for the same day never lose an update.
func (a *AggregatorImpl) OnBreakCompleted(ctx context.Context, employeeID string, date time.Time, duration time.Duration, category string) (breakhistory.History, error) {
	if duration < 0 {
		duration = 0
	}
	return a.HistoryRepository.Accumulate(ctx, employeeID, date, duration, a.policy.Qualifies(category))
}
