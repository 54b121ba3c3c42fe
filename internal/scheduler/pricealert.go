package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/haivcontw-hash/xbot-sub000/internal/logger"
	"github.com/haivcontw-hash/xbot-sub000/internal/models"
	"github.com/haivcontw-hash/xbot-sub000/internal/storage"
)

// PriceAlerts evaluates one-shot threshold rules against polled prices.
type PriceAlerts struct {
	store        *storage.Storage
	feed         Feed
	msg          Messenger
	fetchTimeout time.Duration
}

// NewPriceAlerts creates the price alert scheduler.
func NewPriceAlerts(store *storage.Storage, feed Feed, msg Messenger, fetchTimeout time.Duration) *PriceAlerts {
	return &PriceAlerts{
		store:        store,
		feed:         feed,
		msg:          msg,
		fetchTimeout: fetchTimeout,
	}
}

// Create captures the symbol's current live price as the rule's immutable
// baseline and persists the rule. Inputs are assumed validated at the
// command boundary; the model's Validate still rejects malformed rows.
func (p *PriceAlerts) Create(ctx context.Context, chatID, userID int64, symbol string, targetPct float64, direction models.AlertDirection) (*models.PriceAlert, error) {
	tctx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	ticker, err := p.feed.Ticker(tctx, symbol)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch baseline price for %s: %w", symbol, err)
	}

	alert := &models.PriceAlert{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		UserID:    userID,
		Symbol:    symbol,
		Baseline:  ticker.Last,
		TargetPct: targetPct,
		Direction: direction,
		CreatedAt: time.Now(),
	}
	if err := p.store.AddPriceAlert(alert); err != nil {
		return nil, err
	}
	logger.Info("Price alert %s created: %s %.2f%% %s from baseline %.6g",
		alert.ID, symbol, targetPct, direction, alert.Baseline)
	return alert, nil
}

// Tick loads all outstanding rules, fetches each distinct symbol's price
// once, and delivers + retires every rule that crossed its threshold. A
// fetch failure skips only that symbol's group for this tick.
func (p *PriceAlerts) Tick(ctx context.Context) {
	alerts, err := p.store.ListPriceAlerts()
	if err != nil {
		logger.Error("Price alert tick: failed to load rules: %v", err)
		return
	}
	if len(alerts) == 0 {
		return
	}

	bySymbol := make(map[string][]models.PriceAlert)
	for _, a := range alerts {
		bySymbol[a.Symbol] = append(bySymbol[a.Symbol], a)
	}
	logger.Debug("Price alert tick: %d rules across %d symbols", len(alerts), len(bySymbol))

	for symbol, group := range bySymbol {
		tctx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
		ticker, err := p.feed.Ticker(tctx, symbol)
		cancel()
		if err != nil {
			logger.Warn("Price alert tick: skipping %s this cycle: %v", symbol, err)
			continue
		}

		for _, rule := range group {
			if !rule.ShouldFire(ticker.Last) {
				continue
			}
			p.fire(&rule, ticker.Last)
		}
	}
}

// fire notifies first, then deletes. A failed delete may duplicate the
// notification next tick; that beats losing it.
func (p *PriceAlerts) fire(rule *models.PriceAlert, price float64) {
	change := rule.PercentChange(price)
	arrow := "📈"
	if change < 0 {
		arrow = "📉"
	}
	text := fmt.Sprintf("%s %s moved %+.2f%% since your alert was set (%.6g → %.6g). Target was %.2f%% %s.",
		arrow, rule.Symbol, change, rule.Baseline, price, rule.TargetPct, rule.Direction)

	if err := p.msg.SendMessage(rule.ChatID, text); err != nil {
		logger.Error("Failed to deliver price alert %s: %v", rule.ID, err)
		return
	}
	if err := p.store.DeletePriceAlert(rule.ID); err != nil {
		logger.Error("Failed to retire delivered alert %s: %v", rule.ID, err)
		return
	}
	logger.Info("Price alert %s fired for chat %d (%s %+.2f%%)", rule.ID, rule.ChatID, rule.Symbol, change)
}
