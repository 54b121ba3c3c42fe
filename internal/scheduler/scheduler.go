// Package scheduler contains the timer-driven loops that reconcile
// persisted rules against polled market data: price alerts, whale watch, and
// prediction settlement.
package scheduler

import (
	"context"
	"time"

	"github.com/haivcontw-hash/xbot-sub000/internal/logger"
	"github.com/haivcontw-hash/xbot-sub000/internal/models"
)

// Feed supplies live market data. Calls are bounded by per-request timeouts;
// a failed call is a transient error for the current tick only.
type Feed interface {
	Ticker(ctx context.Context, symbol string) (*models.Ticker, error)
	RecentTrades(ctx context.Context, symbol string, limit int) ([]models.Trade, error)
}

// Messenger delivers outbound chat notifications.
type Messenger interface {
	SendMessage(chatID int64, text string) error
}

// Run drives tick on its own cadence until ctx is cancelled. The first tick
// runs immediately.
func Run(ctx context.Context, name string, interval time.Duration, tick func(context.Context)) {
	logger.Info("%s scheduler started (interval %v)", name, interval)
	tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("%s scheduler stopped", name)
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}
