package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/haivcontw-hash/xbot-sub000/internal/dedup"
	"github.com/haivcontw-hash/xbot-sub000/internal/models"
)

func newWhale(t *testing.T, feed *fakeFeed, msg *recordingMessenger) *WhaleWatch {
	t.Helper()
	return NewWhaleWatch(newTestStorage(t), feed, msg, dedup.New(200), 40, time.Second)
}

func TestWhaleWatch_NotifyOncePerTradeID(t *testing.T) {
	feed := newFakeFeed()
	msg := &recordingMessenger{}
	w := newWhale(t, feed, msg)
	ctx := context.Background()

	if err := w.Save(100, "BTC-USDT", 100000); err != nil {
		t.Fatalf("Save: %v", err)
	}
	feed.trades["BTC-USDT"] = []models.Trade{
		{ID: "t1", Price: 50000, Size: 3, Side: "buy"},    // 150k notional
		{ID: "t2", Price: 50000, Size: 0.001, Side: "sell"}, // noise
	}

	w.Tick(ctx)
	if msg.count() != 1 {
		t.Fatalf("got %d notifications, want 1", msg.count())
	}

	// Same feed window next tick: the notified trade and the noise trade
	// are both already seen.
	w.Tick(ctx)
	if msg.count() != 1 {
		t.Errorf("got %d notifications after second tick, want still 1", msg.count())
	}
}

func TestWhaleWatch_ThresholdIsInclusive(t *testing.T) {
	feed := newFakeFeed()
	msg := &recordingMessenger{}
	w := newWhale(t, feed, msg)

	if err := w.Save(100, "BTC-USDT", 100000); err != nil {
		t.Fatalf("Save: %v", err)
	}
	feed.trades["BTC-USDT"] = []models.Trade{
		{ID: "t1", Price: 50000, Size: 2, Side: "buy"}, // exactly 100k
	}

	w.Tick(context.Background())
	if msg.count() != 1 {
		t.Errorf("got %d notifications, want 1 (notional == threshold must fire)", msg.count())
	}
}

func TestWhaleWatch_WatcherFailureIsolated(t *testing.T) {
	feed := newFakeFeed()
	msg := &recordingMessenger{}
	w := newWhale(t, feed, msg)

	if err := w.Save(100, "BTC-USDT", 1000); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := w.Save(200, "ETH-USDT", 1000); err != nil {
		t.Fatalf("Save: %v", err)
	}
	feed.failTrades["BTC-USDT"] = true
	feed.trades["ETH-USDT"] = []models.Trade{
		{ID: "e1", Price: 3000, Size: 10, Side: "sell"},
	}

	w.Tick(context.Background())

	msgs := msg.messages()
	if len(msgs) != 1 || msgs[0].chatID != 200 {
		t.Errorf("expected only chat 200 notified despite BTC feed failure, got %+v", msgs)
	}
}

func TestWhaleWatch_ChatsHaveIndependentWindows(t *testing.T) {
	feed := newFakeFeed()
	msg := &recordingMessenger{}
	w := newWhale(t, feed, msg)

	// Two chats watch the same symbol; each gets its own notification for
	// the same trade id.
	if err := w.Save(100, "BTC-USDT", 1000); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := w.Save(200, "BTC-USDT", 1000); err != nil {
		t.Fatalf("Save: %v", err)
	}
	feed.trades["BTC-USDT"] = []models.Trade{
		{ID: "t1", Price: 50000, Size: 1, Side: "buy"},
	}

	w.Tick(context.Background())
	if msg.count() != 2 {
		t.Errorf("got %d notifications, want 2 (one per chat)", msg.count())
	}
}

func TestWhaleWatch_SaveRejectsInvalid(t *testing.T) {
	w := newWhale(t, newFakeFeed(), &recordingMessenger{})
	if err := w.Save(100, "BTC-USDT", 0); err == nil {
		t.Error("expected error for non-positive threshold")
	}
}
