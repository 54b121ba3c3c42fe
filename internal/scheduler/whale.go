package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/haivcontw-hash/xbot-sub000/internal/dedup"
	"github.com/haivcontw-hash/xbot-sub000/internal/logger"
	"github.com/haivcontw-hash/xbot-sub000/internal/models"
	"github.com/haivcontw-hash/xbot-sub000/internal/storage"
)

// WhaleWatch polls recent trades per watched chat and notifies once per
// large trade id.
type WhaleWatch struct {
	store        *storage.Storage
	feed         Feed
	msg          Messenger
	windows      *dedup.Windows
	tradeLimit   int
	fetchTimeout time.Duration
}

// NewWhaleWatch creates the whale watch scheduler.
func NewWhaleWatch(store *storage.Storage, feed Feed, msg Messenger, windows *dedup.Windows, tradeLimit int, fetchTimeout time.Duration) *WhaleWatch {
	return &WhaleWatch{
		store:        store,
		feed:         feed,
		msg:          msg,
		windows:      windows,
		tradeLimit:   tradeLimit,
		fetchTimeout: fetchTimeout,
	}
}

// Save upserts the chat's watcher; the latest threshold wins.
func (w *WhaleWatch) Save(chatID int64, symbol string, minNotional float64) error {
	return w.store.SaveWhaleWatch(&models.WhaleWatch{
		ChatID:      chatID,
		Symbol:      symbol,
		MinNotional: minNotional,
		UpdatedAt:   time.Now(),
	})
}

// Tick fetches recent trades for every watcher and notifies on trades whose
// notional clears the threshold. Every fetched trade id is marked seen, big
// or small, so noise trades are not re-evaluated next tick. A failure for
// one watcher never blocks the others.
func (w *WhaleWatch) Tick(ctx context.Context) {
	watches, err := w.store.ListWhaleWatches()
	if err != nil {
		logger.Error("Whale tick: failed to load watchers: %v", err)
		return
	}

	for _, watch := range watches {
		tctx, cancel := context.WithTimeout(ctx, w.fetchTimeout)
		trades, err := w.feed.RecentTrades(tctx, watch.Symbol, w.tradeLimit)
		cancel()
		if err != nil {
			logger.Warn("Whale tick: skipping chat %d (%s) this cycle: %v", watch.ChatID, watch.Symbol, err)
			continue
		}

		entity := strconv.FormatInt(watch.ChatID, 10)
		notified := 0
		for _, trade := range trades {
			if w.windows.Seen(entity, trade.ID) {
				continue
			}
			w.windows.Record(entity, trade.ID)

			notional := trade.Notional()
			if notional < watch.MinNotional {
				continue
			}
			text := fmt.Sprintf("🐋 Whale %s on %s: %.4f @ %.6g ($%.0f)",
				trade.Side, watch.Symbol, trade.Size, trade.Price, notional)
			if err := w.msg.SendMessage(watch.ChatID, text); err != nil {
				logger.Error("Failed to deliver whale alert to chat %d: %v", watch.ChatID, err)
				continue
			}
			notified++
		}
		if notified > 0 {
			logger.Info("Whale tick: %d new large trades for chat %d (%s)", notified, watch.ChatID, watch.Symbol)
		}
	}
}
