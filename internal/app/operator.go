package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"lp-funding-alert/internal/alerts"
	"lp-funding-alert/internal/metrics"
	"lp-funding-alert/internal/state"
	"lp-funding-alert/internal/watchlist"

	"go.uber.org/zap"
)

type updateSource interface {
	GetUpdates(ctx context.Context, offset int64) ([]alerts.Update, error)
}

type commandAudit struct {
	UpdateID      int64  `json:"update_id"`
	Command       string `json:"command"`
	Coin          string `json:"coin,omitempty"`
	UserID        int64  `json:"user_id,omitempty"`
	Username      string `json:"username,omitempty"`
	AlertsEnabled bool   `json:"alerts_enabled"`
	Excluded      int    `json:"excluded"`
}

// CommandChannel consumes operator commands from the chat. The cursor lives
// in memory only and is advanced before each message is handled, so a
// message is never delivered twice even when its handler fails.
type CommandChannel struct {
	updates   updateSource
	notifier  notifier
	watchlist *watchlist.State
	chatID    int64
	delay     time.Duration
	journal   state.Journal
	metrics   *metrics.Metrics
	log       *zap.Logger

	lastUpdateID atomic.Int64
	failures     int
}

func NewCommandChannel(updates updateSource, n notifier, wl *watchlist.State, chatID string, delay time.Duration, log *zap.Logger) (*CommandChannel, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram chat_id %q: %w", chatID, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CommandChannel{
		updates:   updates,
		notifier:  n,
		watchlist: wl,
		chatID:    id,
		delay:     delay,
		metrics:   metrics.NewNoop(),
		log:       log,
	}, nil
}

func (c *CommandChannel) SetMetrics(m *metrics.Metrics) {
	if m != nil {
		c.metrics = m
	}
}

func (c *CommandChannel) SetJournal(j state.Journal) {
	c.journal = j
}

// LastUpdateID is the highest update id consumed so far.
func (c *CommandChannel) LastUpdateID() int64 {
	return c.lastUpdateID.Load()
}

// Run polls until ctx is cancelled, waiting the configured delay after every
// attempt regardless of its outcome.
func (c *CommandChannel) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		c.PollOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.delay):
		}
	}
}

// PollOnce fetches one batch past the cursor and handles every message in it.
func (c *CommandChannel) PollOnce(ctx context.Context) {
	offset := c.lastUpdateID.Load()
	if offset > 0 {
		offset++
	}
	updates, err := c.updates.GetUpdates(ctx, offset)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.metrics.PollFailures.Inc()
		c.failures++
		if c.failures == 1 {
			c.log.Warn("telegram command poll failed", zap.Error(err))
		} else {
			c.log.Debug("telegram command poll still failing", zap.Int("consecutive_failures", c.failures), zap.Error(err))
		}
		return
	}
	if c.failures > 0 {
		c.log.Info("telegram command poll recovered", zap.Int("consecutive_failures", c.failures))
		c.failures = 0
	}
	for _, upd := range updates {
		if upd.UpdateID > c.lastUpdateID.Load() {
			c.lastUpdateID.Store(upd.UpdateID)
		}
		if err := c.safeHandle(ctx, upd); err != nil {
			c.log.Warn("command handling failed", zap.Int64("update_id", upd.UpdateID), zap.Error(err))
		}
	}
}

func (c *CommandChannel) safeHandle(ctx context.Context, upd alerts.Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.handle(ctx, upd)
}

func (c *CommandChannel) handle(ctx context.Context, upd alerts.Update) error {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return nil
	}
	if msg.Chat.ID != c.chatID {
		c.log.Debug("command from unauthorized chat dropped", zap.Int64("chat_id", msg.Chat.ID))
		return nil
	}
	cmd, ok := watchlist.Parse(msg.Text)
	if !ok {
		return nil
	}
	reply := watchlist.Apply(c.watchlist, cmd)
	c.metrics.CommandsHandled.Inc()
	c.log.Info("operator command applied",
		zap.Int64("update_id", upd.UpdateID),
		zap.Stringer("command", cmd.Kind),
		zap.String("coin", cmd.Coin),
	)
	c.audit(ctx, upd, cmd)
	if reply == "" {
		return nil
	}
	return c.notifier.Send(ctx, reply)
}

func (c *CommandChannel) audit(ctx context.Context, upd alerts.Update, cmd watchlist.Command) {
	if c.journal == nil {
		return
	}
	event := commandAudit{
		UpdateID:      upd.UpdateID,
		Command:       cmd.Kind.String(),
		Coin:          cmd.Coin,
		AlertsEnabled: c.watchlist.AlertsEnabled(),
		Excluded:      len(c.watchlist.Excluded()),
	}
	if from := upd.Message.From; from != nil {
		event.UserID = from.ID
		event.Username = from.Username
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := c.journal.Append(ctx, state.Entry{
		Kind:    state.KindCommand,
		Subject: cmd.Kind.String(),
		Payload: string(payload),
	}); err != nil {
		c.log.Warn("command journal append failed", zap.Error(err))
	}
}
