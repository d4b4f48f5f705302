package memory

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func testLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "conversations.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLoadSessionIdempotent(t *testing.T) {
	l := testLog(t)

	if err := l.LoadSession("main"); err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if err := l.Append("user", "hello"); err != nil {
		t.Fatal(err)
	}

	// Loading the same session again must not duplicate it or lose
	// its messages.
	if err := l.LoadSession("main"); err != nil {
		t.Fatalf("reload: %v", err)
	}

	stats, err := l.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.MessageCount != 1 {
		t.Errorf("message count = %d, want 1", stats.MessageCount)
	}

	sessions, err := l.RecentSessions(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Errorf("sessions = %d, want 1", len(sessions))
	}
}

func TestAppendAndCount(t *testing.T) {
	l := testLog(t)
	if err := l.LoadSession("main"); err != nil {
		t.Fatal(err)
	}

	for _, content := range []string{"one", "two", "three"} {
		if err := l.Append("user", content); err != nil {
			t.Fatalf("Append(%q): %v", content, err)
		}
	}

	stats, err := l.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.MessageCount != 3 {
		t.Errorf("message count = %d, want 3", stats.MessageCount)
	}
}

func TestRecentMessagesChronological(t *testing.T) {
	l := testLog(t)
	if err := l.LoadSession("main"); err != nil {
		t.Fatal(err)
	}

	for _, content := range []string{"A", "B", "C"} {
		if err := l.Append("user", content); err != nil {
			t.Fatal(err)
		}
	}

	msgs, err := l.RecentMessages(10)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	for i, want := range []string{"A", "B", "C"} {
		if msgs[i].Content != want {
			t.Errorf("msgs[%d] = %q, want %q", i, msgs[i].Content, want)
		}
	}
}

func TestRecentMessagesWindow(t *testing.T) {
	l := testLog(t)
	if err := l.LoadSession("main"); err != nil {
		t.Fatal(err)
	}

	for _, content := range []string{"1", "2", "3", "4", "5"} {
		if err := l.Append("user", content); err != nil {
			t.Fatal(err)
		}
	}

	msgs, err := l.RecentMessages(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	// The newest two, still chronological.
	if msgs[0].Content != "4" || msgs[1].Content != "5" {
		t.Errorf("window = %q,%q, want 4,5", msgs[0].Content, msgs[1].Content)
	}
}

func TestAppendMetadataRoundTrip(t *testing.T) {
	l := testLog(t)
	if err := l.LoadSession("main"); err != nil {
		t.Fatal(err)
	}

	meta := map[string]any{"tool": "web_search", "result_count": float64(3)}
	if err := l.AppendWithMetadata("assistant", "found it", meta); err != nil {
		t.Fatalf("AppendWithMetadata: %v", err)
	}
	if err := l.Append("user", "thanks"); err != nil {
		t.Fatal(err)
	}

	msgs, err := l.RecentMessages(10)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Metadata["tool"] != "web_search" {
		t.Errorf("metadata tool = %v, want web_search", msgs[0].Metadata["tool"])
	}
	if msgs[0].Metadata["result_count"] != float64(3) {
		t.Errorf("metadata result_count = %v, want 3", msgs[0].Metadata["result_count"])
	}
	// Plain appends carry no metadata.
	if msgs[1].Metadata != nil {
		t.Errorf("plain message metadata = %v, want nil", msgs[1].Metadata)
	}
}

func TestAutoSaveTouchesLastActive(t *testing.T) {
	stale := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	backdate := func(t *testing.T, l *Log) {
		t.Helper()
		if _, err := l.db.Exec(`UPDATE sessions SET last_active = ?`, stale); err != nil {
			t.Fatalf("backdate: %v", err)
		}
	}

	t.Run("on", func(t *testing.T) {
		l := testLog(t)
		l.SetAutoSave(true)
		if err := l.LoadSession("main"); err != nil {
			t.Fatal(err)
		}
		backdate(t, l)

		if err := l.Append("user", "ping"); err != nil {
			t.Fatal(err)
		}
		stats, err := l.Stats()
		if err != nil {
			t.Fatal(err)
		}
		if !stats.LastActive.After(stale) {
			t.Errorf("last_active = %v, want refreshed past %v", stats.LastActive, stale)
		}
	})

	t.Run("off", func(t *testing.T) {
		l := testLog(t)
		if err := l.LoadSession("main"); err != nil {
			t.Fatal(err)
		}
		backdate(t, l)

		if err := l.Append("user", "ping"); err != nil {
			t.Fatal(err)
		}
		stats, err := l.Stats()
		if err != nil {
			t.Fatal(err)
		}
		if !stats.LastActive.Equal(stale) {
			t.Errorf("last_active = %v, want untouched %v", stats.LastActive, stale)
		}
	})
}

func TestNoSession(t *testing.T) {
	l := testLog(t)

	// Appending needs a session.
	if err := l.Append("user", "x"); !errors.Is(err, ErrNoSession) {
		t.Errorf("Append err = %v, want ErrNoSession", err)
	}

	// Reads and maintenance degrade to zero values instead of erroring.
	msgs, err := l.RecentMessages(5)
	if err != nil || len(msgs) != 0 {
		t.Errorf("RecentMessages = %v, %v; want empty, nil", msgs, err)
	}
	stats, err := l.Stats()
	if err != nil || stats.MessageCount != 0 {
		t.Errorf("Stats = %+v, %v; want zero value, nil", stats, err)
	}
	if err := l.Clear(); err != nil {
		t.Errorf("Clear with no session should be a no-op, got %v", err)
	}
	if err := l.SaveSession(); err != nil {
		t.Errorf("SaveSession with no session should be a no-op, got %v", err)
	}
}

func TestClearKeepsSession(t *testing.T) {
	l := testLog(t)
	if err := l.LoadSession("main"); err != nil {
		t.Fatal(err)
	}
	if err := l.Append("user", "gone soon"); err != nil {
		t.Fatal(err)
	}

	if err := l.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	stats, err := l.Stats()
	if err != nil {
		t.Fatalf("Stats after clear should still work: %v", err)
	}
	if stats.MessageCount != 0 {
		t.Errorf("message count = %d, want 0", stats.MessageCount)
	}
}

func TestSessionsIsolated(t *testing.T) {
	l := testLog(t)

	if err := l.LoadSession("alpha"); err != nil {
		t.Fatal(err)
	}
	if err := l.Append("user", "alpha msg"); err != nil {
		t.Fatal(err)
	}

	if err := l.LoadSession("beta"); err != nil {
		t.Fatal(err)
	}
	msgs, err := l.RecentMessages(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("beta session sees %d messages from alpha", len(msgs))
	}

	sessions, err := l.RecentSessions(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}
	// beta touched last, so it lists first.
	if sessions[0].SessionID != "beta" {
		t.Errorf("first session = %q, want beta", sessions[0].SessionID)
	}
	if sessions[1].MessageCount != 1 {
		t.Errorf("alpha message count = %d, want 1", sessions[1].MessageCount)
	}
}
