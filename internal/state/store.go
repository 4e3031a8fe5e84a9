package state

import (
	"context"
	"time"
)

// Entry is one audit record. Watchlist state is never restored from the
// journal; it only records what the bot did.
type Entry struct {
	ID      string
	Time    time.Time
	Kind    string
	Subject string
	Payload string
}

const (
	KindCommand = "command"
	KindAlert   = "alert"
)

type Journal interface {
	Append(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, kind string, limit int) ([]Entry, error)
	Close() error
}
