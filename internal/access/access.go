// Package access provides cache-fronted reads of admin status and per-chat
// settings. The chat platform and storage stay the source of truth; this
// layer only bounds how often they are consulted.
package access

import (
	"fmt"
	"time"

	"github.com/haivcontw-hash/xbot-sub000/internal/cache"
	"github.com/haivcontw-hash/xbot-sub000/internal/models"
)

// DefaultSymbol is assumed for chats that never saved settings.
const DefaultSymbol = "BTC-USDT"

// AdminSource is the uncached admin-status ground truth.
type AdminSource interface {
	GetAdminStatus(chatID, userID int64) (bool, error)
}

// SettingsStore persists per-chat settings.
type SettingsStore interface {
	GetSettings(chatID int64) (*models.ChatSettings, error)
	SaveSettings(settings *models.ChatSettings) error
}

type adminKey struct {
	chatID int64
	userID int64
}

// Control answers admin and settings lookups through two independent TTL
// caches.
type Control struct {
	platform    AdminSource
	store       SettingsStore
	admins      *cache.Cache[adminKey, bool]
	settings    *cache.Cache[int64, models.ChatSettings]
	adminTTL    time.Duration
	settingsTTL time.Duration
}

// New creates a Control with the given cache TTLs.
func New(platform AdminSource, store SettingsStore, adminTTL, settingsTTL time.Duration) *Control {
	return &Control{
		platform:    platform,
		store:       store,
		admins:      cache.New[adminKey, bool](),
		settings:    cache.New[int64, models.ChatSettings](),
		adminTTL:    adminTTL,
		settingsTTL: settingsTTL,
	}
}

// IsAdmin reports whether the user administers the chat, consulting the
// platform at most once per TTL window per (chat, user).
func (c *Control) IsAdmin(chatID, userID int64) (bool, error) {
	key := adminKey{chatID: chatID, userID: userID}
	if v, ok := c.admins.Get(key); ok {
		return v, nil
	}
	v, err := c.platform.GetAdminStatus(chatID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to look up admin status: %w", err)
	}
	c.admins.Put(key, v, c.adminTTL)
	return v, nil
}

// Settings returns the chat's settings snapshot, falling back to defaults
// for chats that never saved any.
func (c *Control) Settings(chatID int64) (models.ChatSettings, error) {
	if v, ok := c.settings.Get(chatID); ok {
		return v, nil
	}
	s, err := c.store.GetSettings(chatID)
	if err != nil {
		return models.ChatSettings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if s == nil {
		s = &models.ChatSettings{ChatID: chatID, DefaultSymbol: DefaultSymbol}
	}
	c.settings.Put(chatID, *s, c.settingsTTL)
	return *s, nil
}

// UpdateSettings persists new settings and drops the cached snapshot so the
// next read observes them.
func (c *Control) UpdateSettings(settings *models.ChatSettings) error {
	settings.UpdatedAt = time.Now()
	if err := c.store.SaveSettings(settings); err != nil {
		return err
	}
	c.settings.Invalidate(settings.ChatID)
	return nil
}
