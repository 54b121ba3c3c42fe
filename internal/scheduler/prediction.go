package scheduler

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/haivcontw-hash/xbot-sub000/internal/access"
	"github.com/haivcontw-hash/xbot-sub000/internal/logger"
	"github.com/haivcontw-hash/xbot-sub000/internal/models"
	"github.com/haivcontw-hash/xbot-sub000/internal/storage"
)

// Predictions manages at most one open guessing round per chat and settles
// due rounds by nearest-guess scoring.
type Predictions struct {
	store        *storage.Storage
	feed         Feed
	msg          Messenger
	settings     *access.Control
	roundWindow  time.Duration
	fetchTimeout time.Duration
}

// NewPredictions creates the prediction coordinator.
func NewPredictions(store *storage.Storage, feed Feed, msg Messenger, settings *access.Control, roundWindow, fetchTimeout time.Duration) *Predictions {
	return &Predictions{
		store:        store,
		feed:         feed,
		msg:          msg,
		settings:     settings,
		roundWindow:  roundWindow,
		fetchTimeout: fetchTimeout,
	}
}

// Submit records a guess, implicitly opening a fresh round when the chat has
// none open. A due-but-unsettled round stays behind for the settlement tick;
// the new round is independent of it.
func (p *Predictions) Submit(ctx context.Context, chatID, userID int64, label string, guess float64) (*models.PredictionGame, error) {
	game, err := p.store.LatestGame(chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current round: %w", err)
	}

	now := time.Now()
	if game == nil || !game.Open(now) {
		settings, err := p.settings.Settings(chatID)
		if err != nil {
			return nil, err
		}
		game = &models.PredictionGame{
			ID:        uuid.New().String(),
			ChatID:    chatID,
			Symbol:    settings.DefaultSymbol,
			OpenUntil: now.Add(p.roundWindow),
		}
		if err := p.store.AddGame(game); err != nil {
			return nil, fmt.Errorf("failed to open round: %w", err)
		}
		text := fmt.Sprintf("🎯 New prediction round! Guess the %s price; entries close at %s.",
			game.Symbol, game.OpenUntil.Format("15:04 MST"))
		if err := p.msg.SendMessage(chatID, text); err != nil {
			logger.Warn("Failed to announce new round %s: %v", game.ID, err)
		}
		logger.Info("Prediction round %s opened for chat %d (%s, closes %v)",
			game.ID, chatID, game.Symbol, game.OpenUntil)
	}

	entry := &models.PredictionEntry{
		GameID:    game.ID,
		UserID:    userID,
		Label:     label,
		Guess:     guess,
		CreatedAt: now,
	}
	if err := p.store.AddEntry(entry); err != nil {
		return nil, err
	}
	return game, nil
}

// Tick settles every due unresolved round. A settlement price fetch failure
// leaves the round for the next tick; a resolved round is never settled
// twice.
func (p *Predictions) Tick(ctx context.Context) {
	games, err := p.store.ListDueGames(time.Now())
	if err != nil {
		logger.Error("Prediction tick: failed to load due rounds: %v", err)
		return
	}

	for _, game := range games {
		tctx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
		ticker, err := p.feed.Ticker(tctx, game.Symbol)
		cancel()
		if err != nil {
			logger.Warn("Prediction tick: cannot settle round %s yet: %v", game.ID, err)
			continue
		}

		entries, err := p.store.ListEntries(game.ID)
		if err != nil {
			logger.Error("Prediction tick: failed to load entries for %s: %v", game.ID, err)
			continue
		}

		if err := p.store.ResolveGame(game.ID, ticker.Last); err != nil {
			logger.Error("Prediction tick: failed to resolve round %s: %v", game.ID, err)
			continue
		}

		if len(entries) == 0 {
			text := fmt.Sprintf("🎯 Prediction round closed at %.6g — no participants this time.", ticker.Last)
			if err := p.msg.SendMessage(game.ChatID, text); err != nil {
				logger.Error("Failed to announce empty round %s: %v", game.ID, err)
			}
			continue
		}

		winner := settleWinner(entries, ticker.Last)
		text := fmt.Sprintf("🏆 %s settled at %.6g — winner: %s with %.6g (off by %.6g)",
			game.Symbol, ticker.Last, winner.Label, winner.Guess, math.Abs(winner.Guess-ticker.Last))
		if err := p.msg.SendMessage(game.ChatID, text); err != nil {
			logger.Error("Failed to announce round %s result: %v", game.ID, err)
		}
		logger.Info("Prediction round %s settled at %.6g, winner user %d", game.ID, ticker.Last, winner.UserID)
	}
}

// settleWinner scans entries in submission order and keeps the first entry
// achieving each new minimum absolute difference. Strict less-than means an
// exact tie never displaces the incumbent, so earlier submissions win ties.
func settleWinner(entries []models.PredictionEntry, settle float64) models.PredictionEntry {
	best := entries[0]
	bestDiff := math.Abs(best.Guess - settle)
	for _, e := range entries[1:] {
		if d := math.Abs(e.Guess - settle); d < bestDiff {
			best = e
			bestDiff = d
		}
	}
	return best
}
