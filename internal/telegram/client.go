// Package telegram provides the chat platform client: outbound messages,
// moderation actions, admin lookups, and the update listener.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/haivcontw-hash/xbot-sub000/internal/logger"
)

const verifyCallbackPrefix = "verify:"

// Client handles all Telegram Bot API traffic.
type Client struct {
	bot            *tgbotapi.BotAPI
	maxRetries     int
	retryDelayBase time.Duration
}

// Hooks are the callbacks the update listener dispatches into. Nil hooks are
// skipped.
type Hooks struct {
	// OnJoin fires once per new member joining a group chat.
	OnJoin func(chatID, userID int64, name string)
	// OnVerify fires for a verification button press and returns the
	// user-facing reply for the callback answer.
	OnVerify func(token string, userID int64) string
}

// NewClient creates a new Telegram client.
func NewClient(botToken string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// Listen starts a goroutine that polls for updates and dispatches joins and
// verification callbacks. It returns immediately; the goroutine stops when
// ctx is cancelled.
func (c *Client) Listen(ctx context.Context, hooks Hooks) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				c.handleUpdate(update, hooks)
			}
		}
	}()
}

func (c *Client) handleUpdate(update tgbotapi.Update, hooks Hooks) {
	if update.CallbackQuery != nil {
		c.handleCallback(update.CallbackQuery, hooks)
		return
	}
	if update.Message == nil {
		return
	}
	msg := update.Message

	if len(msg.NewChatMembers) > 0 && hooks.OnJoin != nil {
		for _, member := range msg.NewChatMembers {
			if member.IsBot {
				continue
			}
			hooks.OnJoin(msg.Chat.ID, member.ID, displayName(member))
		}
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "ping":
			reply := tgbotapi.NewMessage(msg.Chat.ID, "Pong")
			c.bot.Send(reply) //nolint:errcheck
		}
	}
}

func (c *Client) handleCallback(cb *tgbotapi.CallbackQuery, hooks Hooks) {
	if !strings.HasPrefix(cb.Data, verifyCallbackPrefix) || hooks.OnVerify == nil {
		return
	}
	token := strings.TrimPrefix(cb.Data, verifyCallbackPrefix)
	reply := hooks.OnVerify(token, cb.From.ID)
	if _, err := c.bot.Request(tgbotapi.NewCallback(cb.ID, reply)); err != nil {
		logger.Warn("Failed to answer verification callback: %v", err)
	}
}

// SendMessage sends a plain-text message with linear-backoff retry.
func (c *Client) SendMessage(chatID int64, text string) error {
	return c.sendWithRetry(tgbotapi.NewMessage(chatID, text))
}

// SendVerifyPrompt posts the captcha challenge with its verification button.
func (c *Client) SendVerifyPrompt(chatID int64, name, token string) error {
	msg := tgbotapi.NewMessage(chatID,
		fmt.Sprintf("Welcome %s! Press the button below within a minute to prove you are human.", name))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("I am human", verifyCallbackPrefix+token),
		),
	)
	return c.sendWithRetry(msg)
}

func (c *Client) sendWithRetry(msg tgbotapi.MessageConfig) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// ExpelUser removes the user from the chat.
func (c *Client) ExpelUser(chatID, userID int64) error {
	_, err := c.bot.Request(tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return fmt.Errorf("failed to expel user %d from chat %d: %w", userID, chatID, err)
	}
	return nil
}

// ReadmitUser lifts the ban so the expelled user may re-join. Expel followed
// by readmit is the platform idiom for "remove without permanent ban".
func (c *Client) ReadmitUser(chatID, userID int64) error {
	_, err := c.bot.Request(tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
		OnlyIfBanned:     true,
	})
	if err != nil {
		return fmt.Errorf("failed to readmit user %d to chat %d: %w", userID, chatID, err)
	}
	return nil
}

// GetAdminStatus returns the uncached ground truth for whether the user is a
// chat administrator.
func (c *Client) GetAdminStatus(chatID, userID int64) (bool, error) {
	member, err := c.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return false, fmt.Errorf("failed to get chat member: %w", err)
	}
	return member.IsAdministrator() || member.IsCreator(), nil
}

func displayName(u tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return name
}
