// Package exchange provides a client for the exchange's public market-data API.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/haivcontw-hash/xbot-sub000/internal/models"
)

// Client provides access to the ticker and recent-trades endpoints.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// tickerPayload mirrors the ticker endpoint response. Numeric fields arrive
// as strings and are parsed once here.
type tickerPayload struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		InstID  string `json:"instId"`
		Last    string `json:"last"`
		Open24h string `json:"open24h"`
	} `json:"data"`
}

type tradesPayload struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		TradeID string `json:"tradeId"`
		Price   string `json:"px"`
		Size    string `json:"sz"`
		Side    string `json:"side"`
	} `json:"data"`
}

// NewClient creates a new exchange client.
func NewClient(baseURL string, timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// Ticker fetches the current price snapshot for one symbol.
func (c *Client) Ticker(ctx context.Context, symbol string) (*models.Ticker, error) {
	u, err := url.Parse(c.baseURL + "/api/v5/market/ticker")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("instId", symbol)
	u.RawQuery = q.Encode()

	resp, err := c.doRequest(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ticker: %w", err)
	}
	defer resp.Body.Close()

	var payload tickerPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode ticker: %w", err)
	}
	if payload.Code != "0" || len(payload.Data) == 0 {
		return nil, fmt.Errorf("ticker error for %s: code=%s msg=%s", symbol, payload.Code, payload.Msg)
	}

	d := payload.Data[0]
	last, err := strconv.ParseFloat(d.Last, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed last price %q: %w", d.Last, err)
	}
	open24h, err := strconv.ParseFloat(d.Open24h, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed open24h price %q: %w", d.Open24h, err)
	}
	return &models.Ticker{Symbol: symbol, Last: last, Open24h: open24h}, nil
}

// RecentTrades fetches up to limit most recent trades for a symbol.
// Trades with malformed numeric fields are skipped rather than failing the
// whole batch.
func (c *Client) RecentTrades(ctx context.Context, symbol string, limit int) ([]models.Trade, error) {
	u, err := url.Parse(c.baseURL + "/api/v5/market/trades")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("instId", symbol)
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	resp, err := c.doRequest(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trades: %w", err)
	}
	defer resp.Body.Close()

	var payload tradesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode trades: %w", err)
	}
	if payload.Code != "0" {
		return nil, fmt.Errorf("trades error for %s: code=%s msg=%s", symbol, payload.Code, payload.Msg)
	}

	trades := make([]models.Trade, 0, len(payload.Data))
	for _, d := range payload.Data {
		price, err := strconv.ParseFloat(d.Price, 64)
		if err != nil {
			continue
		}
		size, err := strconv.ParseFloat(d.Size, 64)
		if err != nil {
			continue
		}
		trades = append(trades, models.Trade{
			ID:    d.TradeID,
			Price: price,
			Size:  size,
			Side:  d.Side,
		})
	}
	return trades, nil
}

// doRequest performs an HTTP GET with linear-backoff retry on transport
// errors and 5xx responses.
func (c *Client) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
		} else if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
		} else {
			return resp, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
