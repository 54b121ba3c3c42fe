// Package models defines the core domain entities: alert rules, whale
// watchers, prediction rounds, chat settings, and the feed types they are
// evaluated against.
package models

import (
	"errors"
	"math"
	"time"
)

// AlertDirection constrains which way a price alert may fire.
type AlertDirection string

const (
	DirectionUp   AlertDirection = "up"
	DirectionDown AlertDirection = "down"
	DirectionBoth AlertDirection = "both"
)

// ParseDirection maps user input onto an AlertDirection.
func ParseDirection(s string) (AlertDirection, error) {
	switch AlertDirection(s) {
	case DirectionUp, DirectionDown, DirectionBoth:
		return AlertDirection(s), nil
	}
	return "", errors.New("direction must be one of: up, down, both")
}

// PriceAlert is a one-shot threshold rule. The baseline is captured at
// creation and never moves; the rule is deleted after its single delivery.
type PriceAlert struct {
	ID        string
	ChatID    int64
	UserID    int64
	Symbol    string
	Baseline  float64
	TargetPct float64
	Direction AlertDirection
	CreatedAt time.Time
}

// Validate checks alert field constraints.
func (a *PriceAlert) Validate() error {
	if a.ID == "" {
		return errors.New("alert ID must not be empty")
	}
	if a.ChatID == 0 {
		return errors.New("alert chat ID must not be zero")
	}
	if a.Symbol == "" {
		return errors.New("alert symbol must not be empty")
	}
	if a.Baseline <= 0 {
		return errors.New("alert baseline price must be positive")
	}
	if a.TargetPct <= 0 {
		return errors.New("alert target percent must be positive")
	}
	switch a.Direction {
	case DirectionUp, DirectionDown, DirectionBoth:
	default:
		return errors.New("alert direction must be one of: up, down, both")
	}
	return nil
}

// PercentChange returns the signed percent move from the baseline to price.
func (a *PriceAlert) PercentChange(price float64) float64 {
	return (price - a.Baseline) / a.Baseline * 100
}

// ShouldFire reports whether the current price crosses the rule's threshold
// in a direction the rule accepts.
func (a *PriceAlert) ShouldFire(price float64) bool {
	change := a.PercentChange(price)
	if math.Abs(change) < a.TargetPct {
		return false
	}
	observed := DirectionUp
	if change < 0 {
		observed = DirectionDown
	}
	return a.Direction == DirectionBoth || a.Direction == observed
}

// WhaleWatch is a per-chat large-trade subscription. One row per chat,
// latest threshold wins.
type WhaleWatch struct {
	ChatID      int64
	Symbol      string
	MinNotional float64
	UpdatedAt   time.Time
}

// Validate checks whale watch field constraints.
func (w *WhaleWatch) Validate() error {
	if w.ChatID == 0 {
		return errors.New("watch chat ID must not be zero")
	}
	if w.Symbol == "" {
		return errors.New("watch symbol must not be empty")
	}
	if w.MinNotional <= 0 {
		return errors.New("watch minimum notional must be positive")
	}
	return nil
}

// PredictionGame is one time-boxed guessing round for a chat.
type PredictionGame struct {
	ID          string
	ChatID      int64
	Symbol      string
	OpenUntil   time.Time
	Resolved    bool
	SettlePrice float64
}

// Open reports whether the round still accepts entries at now.
func (g *PredictionGame) Open(now time.Time) bool {
	return !g.Resolved && now.Before(g.OpenUntil)
}

// Due reports whether the round's deadline has passed without settlement.
func (g *PredictionGame) Due(now time.Time) bool {
	return !g.Resolved && !now.Before(g.OpenUntil)
}

// PredictionEntry is a single guess. Repeat entries from the same user are
// retained; submission order decides ties at settlement.
type PredictionEntry struct {
	GameID    string
	UserID    int64
	Label     string
	Guess     float64
	CreatedAt time.Time
}

// Validate checks entry field constraints.
func (e *PredictionEntry) Validate() error {
	if e.GameID == "" {
		return errors.New("entry game ID must not be empty")
	}
	if e.UserID == 0 {
		return errors.New("entry user ID must not be zero")
	}
	if e.Guess <= 0 {
		return errors.New("entry guess must be a positive price")
	}
	return nil
}

// ChatSettings is the typed per-chat configuration snapshot.
type ChatSettings struct {
	ChatID         int64
	DefaultSymbol  string
	CaptchaEnabled bool
	UpdatedAt      time.Time
}

// Ticker is a live price snapshot for one symbol.
type Ticker struct {
	Symbol  string
	Last    float64
	Open24h float64
}

// Trade is one executed trade from the feed's recent-trades endpoint.
type Trade struct {
	ID    string
	Price float64
	Size  float64
	Side  string
}

// Notional returns the USD value of the trade.
func (t *Trade) Notional() float64 {
	return t.Size * t.Price
}
