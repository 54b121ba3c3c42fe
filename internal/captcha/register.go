// Package captcha tracks pending human-verification challenges with absolute
// deadlines and a one-shot expiry action.
package captcha

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haivcontw-hash/xbot-sub000/internal/logger"
)

// Moderator performs the expel/readmit pair for users who time out.
type Moderator interface {
	ExpelUser(chatID, userID int64) error
	ReadmitUser(chatID, userID int64) error
}

// Messenger delivers the timeout notification.
type Messenger interface {
	SendMessage(chatID int64, text string) error
}

// VerifyResult is the typed outcome of a verification attempt.
type VerifyResult int

const (
	// VerifyOK: the challenge subject responded in time.
	VerifyOK VerifyResult = iota
	// VerifyExpired: no pending challenge exists for the token.
	VerifyExpired
	// VerifyWrongUser: someone other than the subject pressed the button.
	VerifyWrongUser
)

type challenge struct {
	chatID   int64
	userID   int64
	name     string
	deadline time.Time
	timer    *time.Timer
}

// Register holds pending challenges. A challenge leaves the register exactly
// once: either Verify or the scheduled expiry removes it, and whichever runs
// first under the register lock wins; the loser is a no-op.
type Register struct {
	mu      sync.Mutex
	pending map[string]*challenge
	ttl     time.Duration
	mod     Moderator
	msg     Messenger
}

// NewRegister creates a register whose challenges expire after ttl.
func NewRegister(ttl time.Duration, mod Moderator, msg Messenger) *Register {
	return &Register{
		pending: make(map[string]*challenge),
		ttl:     ttl,
		mod:     mod,
		msg:     msg,
	}
}

// Challenge records a pending challenge for the joining user and schedules
// its expiry action. It returns the unique verification token.
func (r *Register) Challenge(chatID, userID int64, name string) string {
	token := uuid.New().String()
	ch := &challenge{
		chatID:   chatID,
		userID:   userID,
		name:     name,
		deadline: time.Now().Add(r.ttl),
	}

	r.mu.Lock()
	ch.timer = time.AfterFunc(r.ttl, func() { r.expire(token) })
	r.pending[token] = ch
	r.mu.Unlock()

	logger.Debug("Captcha challenge %s created for user %d in chat %d (deadline %v)",
		token, userID, chatID, ch.deadline)
	return token
}

// Verify resolves the token's challenge. Only the challenge subject may
// verify; an unknown token reports VerifyExpired since the challenge was
// already resolved or timed out.
func (r *Register) Verify(token string, userID int64) VerifyResult {
	r.mu.Lock()
	ch, ok := r.pending[token]
	if !ok {
		r.mu.Unlock()
		return VerifyExpired
	}
	if ch.userID != userID {
		r.mu.Unlock()
		return VerifyWrongUser
	}
	delete(r.pending, token)
	ch.timer.Stop()
	r.mu.Unlock()

	logger.Info("Captcha challenge %s verified by user %d in chat %d", token, userID, ch.chatID)
	return VerifyOK
}

// expire fires at the challenge deadline. If Verify already resolved the
// token this is a no-op. External expulsion failures are logged, not
// escalated: the register's own state is consistent either way.
func (r *Register) expire(token string) {
	r.mu.Lock()
	ch, ok := r.pending[token]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.pending, token)
	r.mu.Unlock()

	logger.Info("Captcha challenge %s expired for user %d in chat %d", token, ch.userID, ch.chatID)

	if err := r.mod.ExpelUser(ch.chatID, ch.userID); err != nil {
		logger.Error("Failed to expel unverified user %d: %v", ch.userID, err)
	} else if err := r.mod.ReadmitUser(ch.chatID, ch.userID); err != nil {
		logger.Error("Failed to readmit expelled user %d: %v", ch.userID, err)
	}

	text := ch.name + " did not verify in time and was removed. They may re-join at any point."
	if err := r.msg.SendMessage(ch.chatID, text); err != nil {
		logger.Warn("Failed to send captcha timeout notice: %v", err)
	}
}

// PendingCount returns the number of outstanding challenges.
func (r *Register) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Stop cancels all pending expiry timers. Used during shutdown; nothing is
// expelled for challenges cancelled this way.
func (r *Register) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, ch := range r.pending {
		ch.timer.Stop()
		delete(r.pending, token)
	}
}
