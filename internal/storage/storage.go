// Package storage provides SQLite-backed persistence for alert rules, whale
// watchers, prediction rounds, and chat settings.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/haivcontw-hash/xbot-sub000/internal/models"
	_ "modernc.org/sqlite"
)

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db *sql.DB
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/xbot/data.db.
func New(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "xbot", "data.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s := &Storage{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_alerts (
			id         TEXT PRIMARY KEY,
			chat_id    INTEGER NOT NULL,
			user_id    INTEGER NOT NULL,
			symbol     TEXT NOT NULL,
			baseline   REAL NOT NULL,
			target_pct REAL NOT NULL,
			direction  TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_alerts_symbol ON price_alerts(symbol)`,
		`CREATE TABLE IF NOT EXISTS whale_watchers (
			chat_id      INTEGER PRIMARY KEY,
			symbol       TEXT NOT NULL,
			min_notional REAL NOT NULL,
			updated_at   INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS prediction_games (
			id           TEXT PRIMARY KEY,
			chat_id      INTEGER NOT NULL,
			symbol       TEXT NOT NULL,
			open_until   INTEGER NOT NULL,
			resolved     INTEGER NOT NULL DEFAULT 0,
			settle_price REAL NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_chat ON prediction_games(chat_id, open_until DESC)`,
		`CREATE TABLE IF NOT EXISTS prediction_entries (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id    TEXT NOT NULL REFERENCES prediction_games(id) ON DELETE CASCADE,
			user_id    INTEGER NOT NULL,
			label      TEXT NOT NULL,
			guess      REAL NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_game ON prediction_entries(game_id)`,
		`CREATE TABLE IF NOT EXISTS chat_settings (
			chat_id         INTEGER PRIMARY KEY,
			default_symbol  TEXT NOT NULL,
			captcha_enabled INTEGER NOT NULL DEFAULT 0,
			updated_at      INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ─── Price alerts ────────────────────────────────────────────────────────────

func (s *Storage) AddPriceAlert(alert *models.PriceAlert) error {
	if err := alert.Validate(); err != nil {
		return fmt.Errorf("invalid alert: %w", err)
	}
	_, err := s.db.Exec(`
		INSERT INTO price_alerts
			(id, chat_id, user_id, symbol, baseline, target_pct, direction, created_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		alert.ID, alert.ChatID, alert.UserID, alert.Symbol,
		alert.Baseline, alert.TargetPct, string(alert.Direction),
		alert.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

func (s *Storage) ListPriceAlerts() ([]models.PriceAlert, error) {
	rows, err := s.db.Query(`
		SELECT id, chat_id, user_id, symbol, baseline, target_pct, direction, created_at
		FROM price_alerts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.PriceAlert
	for rows.Next() {
		var a models.PriceAlert
		var direction string
		var createdAtNano int64
		err := rows.Scan(
			&a.ID, &a.ChatID, &a.UserID, &a.Symbol,
			&a.Baseline, &a.TargetPct, &direction, &createdAtNano,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Direction = models.AlertDirection(direction)
		a.CreatedAt = time.Unix(0, createdAtNano)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (s *Storage) DeletePriceAlert(id string) error {
	res, err := s.db.Exec(`DELETE FROM price_alerts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("alert not found: %s", id)
	}
	return nil
}

// ─── Whale watchers ──────────────────────────────────────────────────────────

// SaveWhaleWatch upserts the chat's watcher; the latest threshold wins.
func (s *Storage) SaveWhaleWatch(watch *models.WhaleWatch) error {
	if err := watch.Validate(); err != nil {
		return fmt.Errorf("invalid watch: %w", err)
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO whale_watchers (chat_id, symbol, min_notional, updated_at)
		VALUES (?,?,?,?)`,
		watch.ChatID, watch.Symbol, watch.MinNotional, watch.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save watch: %w", err)
	}
	return nil
}

func (s *Storage) ListWhaleWatches() ([]models.WhaleWatch, error) {
	rows, err := s.db.Query(`
		SELECT chat_id, symbol, min_notional, updated_at FROM whale_watchers`)
	if err != nil {
		return nil, fmt.Errorf("failed to query watches: %w", err)
	}
	defer rows.Close()

	var watches []models.WhaleWatch
	for rows.Next() {
		var w models.WhaleWatch
		var updatedAtNano int64
		if err := rows.Scan(&w.ChatID, &w.Symbol, &w.MinNotional, &updatedAtNano); err != nil {
			return nil, fmt.Errorf("failed to scan watch: %w", err)
		}
		w.UpdatedAt = time.Unix(0, updatedAtNano)
		watches = append(watches, w)
	}
	return watches, rows.Err()
}

// ─── Prediction games ────────────────────────────────────────────────────────

func (s *Storage) AddGame(game *models.PredictionGame) error {
	_, err := s.db.Exec(`
		INSERT INTO prediction_games (id, chat_id, symbol, open_until, resolved, settle_price)
		VALUES (?,?,?,?,?,?)`,
		game.ID, game.ChatID, game.Symbol, game.OpenUntil.UnixNano(),
		boolToInt(game.Resolved), game.SettlePrice,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

// LatestGame returns the chat's most recently opened round, or nil when the
// chat has never had one.
func (s *Storage) LatestGame(chatID int64) (*models.PredictionGame, error) {
	row := s.db.QueryRow(`
		SELECT `+gameCols+` FROM prediction_games
		WHERE chat_id = ? ORDER BY open_until DESC LIMIT 1`, chatID)
	g, err := scanGame(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return g, nil
}

// ListDueGames returns unresolved rounds whose deadline is at or before now.
func (s *Storage) ListDueGames(now time.Time) ([]models.PredictionGame, error) {
	rows, err := s.db.Query(`
		SELECT `+gameCols+` FROM prediction_games
		WHERE resolved = 0 AND open_until <= ?`, now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to query due games: %w", err)
	}
	defer rows.Close()

	var games []models.PredictionGame
	for rows.Next() {
		g, err := scanGame(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

// ResolveGame records the settlement price and excludes the round from
// future settlement scans.
func (s *Storage) ResolveGame(id string, settlePrice float64) error {
	res, err := s.db.Exec(`
		UPDATE prediction_games SET resolved = 1, settle_price = ?
		WHERE id = ? AND resolved = 0`, settlePrice, id)
	if err != nil {
		return fmt.Errorf("failed to resolve game: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("game not found or already resolved: %s", id)
	}
	return nil
}

func (s *Storage) AddEntry(entry *models.PredictionEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid entry: %w", err)
	}
	_, err := s.db.Exec(`
		INSERT INTO prediction_entries (game_id, user_id, label, guess, created_at)
		VALUES (?,?,?,?,?)`,
		entry.GameID, entry.UserID, entry.Label, entry.Guess, entry.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// ListEntries returns the round's entries in submission order.
func (s *Storage) ListEntries(gameID string) ([]models.PredictionEntry, error) {
	rows, err := s.db.Query(`
		SELECT game_id, user_id, label, guess, created_at
		FROM prediction_entries WHERE game_id = ? ORDER BY id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []models.PredictionEntry
	for rows.Next() {
		var e models.PredictionEntry
		var createdAtNano int64
		if err := rows.Scan(&e.GameID, &e.UserID, &e.Label, &e.Guess, &createdAtNano); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.CreatedAt = time.Unix(0, createdAtNano)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ─── Chat settings ───────────────────────────────────────────────────────────

// GetSettings returns the chat's settings, or nil when none were saved.
func (s *Storage) GetSettings(chatID int64) (*models.ChatSettings, error) {
	row := s.db.QueryRow(`
		SELECT chat_id, default_symbol, captcha_enabled, updated_at
		FROM chat_settings WHERE chat_id = ?`, chatID)

	var cs models.ChatSettings
	var captchaEnabled int
	var updatedAtNano int64
	err := row.Scan(&cs.ChatID, &cs.DefaultSymbol, &captchaEnabled, &updatedAtNano)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	cs.CaptchaEnabled = captchaEnabled != 0
	cs.UpdatedAt = time.Unix(0, updatedAtNano)
	return &cs, nil
}

func (s *Storage) SaveSettings(settings *models.ChatSettings) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO chat_settings (chat_id, default_symbol, captcha_enabled, updated_at)
		VALUES (?,?,?,?)`,
		settings.ChatID, settings.DefaultSymbol,
		boolToInt(settings.CaptchaEnabled), settings.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

const gameCols = `id, chat_id, symbol, open_until, resolved, settle_price`

func scanGame(scan func(...any) error) (*models.PredictionGame, error) {
	var g models.PredictionGame
	var openUntilNano int64
	var resolved int
	err := scan(&g.ID, &g.ChatID, &g.Symbol, &openUntilNano, &resolved, &g.SettlePrice)
	if err != nil {
		return nil, err
	}
	g.OpenUntil = time.Unix(0, openUntilNano)
	g.Resolved = resolved != 0
	return &g, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
