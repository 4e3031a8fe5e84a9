package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"lp-funding-alert/internal/state"
)

func TestJournalAppendRecent(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()
	entries := []state.Entry{
		{Time: base, Kind: state.KindAlert, Subject: "AAA_USDT", Payload: `{"n":1}`},
		{Time: base.Add(time.Second), Kind: state.KindCommand, Subject: "pause", Payload: `{}`},
		{Time: base.Add(2 * time.Second), Kind: state.KindAlert, Subject: "BBB_USDT", Payload: `{"n":2}`},
	}
	for _, entry := range entries {
		if err := store.Append(ctx, entry); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
	got, err := store.Recent(ctx, state.KindAlert, 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(got))
	}
	if got[0].Subject != "BBB_USDT" || got[1].Subject != "AAA_USDT" {
		t.Fatalf("expected newest first, got %s then %s", got[0].Subject, got[1].Subject)
	}
	if got[0].ID == "" {
		t.Fatalf("expected generated id")
	}
	if !got[1].Time.Equal(base) {
		t.Fatalf("expected time %v, got %v", base, got[1].Time)
	}
}

func TestJournalRecentLimit(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := store.Append(ctx, state.Entry{Kind: state.KindCommand, Subject: "help"}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
	got, err := store.Recent(ctx, state.KindCommand, 3)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
}
