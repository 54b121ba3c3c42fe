package models

import (
	"testing"
	"time"
)

func TestPriceAlert_ShouldFire(t *testing.T) {
	tests := []struct {
		name      string
		baseline  float64
		targetPct float64
		direction AlertDirection
		price     float64
		want      bool
	}{
		{"up just below threshold", 100, 10, DirectionUp, 109, false},
		{"up at threshold", 100, 10, DirectionUp, 110, true},
		{"up rule ignores drop", 100, 10, DirectionUp, 85, false},
		{"down just below threshold", 100, 5, DirectionDown, 96, false},
		{"down past threshold", 100, 5, DirectionDown, 94, true},
		{"down rule ignores rise", 100, 5, DirectionDown, 110, false},
		{"both fires on rise", 100, 10, DirectionBoth, 111, true},
		{"both fires on drop", 100, 10, DirectionBoth, 89, true},
		{"both below threshold", 100, 10, DirectionBoth, 105, false},
		{"zero change counts as up", 100, 0.0001, DirectionUp, 100.0001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := PriceAlert{Baseline: tt.baseline, TargetPct: tt.targetPct, Direction: tt.direction}
			if got := a.ShouldFire(tt.price); got != tt.want {
				t.Errorf("ShouldFire(%v) = %v, want %v", tt.price, got, tt.want)
			}
		})
	}
}

func TestPriceAlert_Validate(t *testing.T) {
	valid := PriceAlert{
		ID:        "a-1",
		ChatID:    100,
		UserID:    7,
		Symbol:    "BTC-USDT",
		Baseline:  50000,
		TargetPct: 5,
		Direction: DirectionBoth,
	}

	tests := []struct {
		name    string
		mutate  func(a *PriceAlert)
		wantErr bool
	}{
		{"valid", func(a *PriceAlert) {}, false},
		{"empty ID", func(a *PriceAlert) { a.ID = "" }, true},
		{"zero chat", func(a *PriceAlert) { a.ChatID = 0 }, true},
		{"empty symbol", func(a *PriceAlert) { a.Symbol = "" }, true},
		{"zero baseline", func(a *PriceAlert) { a.Baseline = 0 }, true},
		{"negative target", func(a *PriceAlert) { a.TargetPct = -1 }, true},
		{"zero target", func(a *PriceAlert) { a.TargetPct = 0 }, true},
		{"bad direction", func(a *PriceAlert) { a.Direction = "sideways" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)
			if err := a.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDirection(t *testing.T) {
	for _, s := range []string{"up", "down", "both"} {
		if _, err := ParseDirection(s); err != nil {
			t.Errorf("ParseDirection(%q) unexpected error: %v", s, err)
		}
	}
	if _, err := ParseDirection("diagonal"); err == nil {
		t.Error("expected error for invalid direction")
	}
}

func TestPredictionGame_OpenAndDue(t *testing.T) {
	now := time.Now()
	g := PredictionGame{OpenUntil: now.Add(time.Hour)}

	if !g.Open(now) {
		t.Error("game with future deadline should be open")
	}
	if g.Due(now) {
		t.Error("open game must not be due")
	}

	past := now.Add(2 * time.Hour)
	if g.Open(past) {
		t.Error("game past deadline must not be open")
	}
	if !g.Due(past) {
		t.Error("unresolved game past deadline should be due")
	}

	g.Resolved = true
	if g.Due(past) {
		t.Error("resolved game must never be due")
	}
}

func TestTrade_Notional(t *testing.T) {
	tr := Trade{Price: 50000, Size: 0.5}
	if got := tr.Notional(); got != 25000 {
		t.Errorf("Notional() = %v, want 25000", got)
	}
}

func TestWhaleWatch_Validate(t *testing.T) {
	w := WhaleWatch{ChatID: 100, Symbol: "BTC-USDT", MinNotional: 100000}
	if err := w.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	w.MinNotional = 0
	if err := w.Validate(); err == nil {
		t.Error("expected error for non-positive threshold")
	}
}

func TestPredictionEntry_Validate(t *testing.T) {
	e := PredictionEntry{GameID: "g-1", UserID: 7, Label: "Alice", Guess: 50000}
	if err := e.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	e.Guess = 0
	if err := e.Validate(); err == nil {
		t.Error("expected error for non-positive guess")
	}
}
