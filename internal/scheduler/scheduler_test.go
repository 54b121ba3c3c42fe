package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/haivcontw-hash/xbot-sub000/internal/models"
	"github.com/haivcontw-hash/xbot-sub000/internal/storage"
)

func newTestStorage(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// fakeFeed serves canned prices and trades per symbol; symbols in the fail
// sets return an error the way a timed-out fetch would.
type fakeFeed struct {
	mu         sync.Mutex
	prices     map[string]float64
	trades     map[string][]models.Trade
	failTicker map[string]bool
	failTrades map[string]bool
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		prices:     make(map[string]float64),
		trades:     make(map[string][]models.Trade),
		failTicker: make(map[string]bool),
		failTrades: make(map[string]bool),
	}
}

func (f *fakeFeed) setPrice(symbol string, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[symbol] = price
}

func (f *fakeFeed) Ticker(ctx context.Context, symbol string) (*models.Ticker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTicker[symbol] {
		return nil, fmt.Errorf("ticker unavailable for %s", symbol)
	}
	price, ok := f.prices[symbol]
	if !ok {
		return nil, fmt.Errorf("unknown symbol %s", symbol)
	}
	return &models.Ticker{Symbol: symbol, Last: price}, nil
}

func (f *fakeFeed) RecentTrades(ctx context.Context, symbol string, limit int) ([]models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTrades[symbol] {
		return nil, fmt.Errorf("trades unavailable for %s", symbol)
	}
	trades := f.trades[symbol]
	if len(trades) > limit {
		trades = trades[:limit]
	}
	return trades, nil
}

type sentMessage struct {
	chatID int64
	text   string
}

// recordingMessenger captures every outbound notification.
type recordingMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (m *recordingMessenger) SendMessage(chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (m *recordingMessenger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *recordingMessenger) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}
