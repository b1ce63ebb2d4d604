package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func newTestApplication(t *testing.T, historyURL string) *Application {
	t.Helper()
	cfg := DefaultConfig()
	cfg.APIKey = "mock"
	cfg.GenerateURL = "mock://"
	cfg.HistoryURL = historyURL
	cfg.PersistURL = "mock://"
	cfg.ArchivePath = filepath.Join(t.TempDir(), "chatSessions.json")
	return NewApplication(cfg, io.Discard)
}

func TestApplicationLoginSeedsHistoryOnce(t *testing.T) {
	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.Write([]byte(`[{"prompt":"a","response":"b","timestamp":"2025-01-02T03:04:05Z"}]`))
	}))
	defer srv.Close()

	a := newTestApplication(t, srv.URL)
	ctx := context.Background()

	a.Login(ctx, "user-1")
	a.Login(ctx, "user-1") // re-render, must not re-fetch
	if got := fetches.Load(); got != 1 {
		t.Fatalf("history fetches = %d, want 1", got)
	}
	if a.Transcript.Len() != 2 {
		t.Fatalf("transcript len = %d after seed, want 2", a.Transcript.Len())
	}
}

func TestApplicationLogoutArchivesAndRearms(t *testing.T) {
	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	a := newTestApplication(t, srv.URL)
	ctx := context.Background()

	a.Login(ctx, "user-1")
	if outcome, err := a.Submit(ctx, "hello"); err != nil || outcome != OutcomeCompleted {
		t.Fatalf("Submit = (%v, %v)", outcome, err)
	}
	a.Logout()

	if a.Archive.Len() != 1 {
		t.Fatalf("archive len = %d after logout, want 1", a.Archive.Len())
	}
	if !a.Transcript.IsEmpty() {
		t.Fatalf("transcript not cleared by logout")
	}
	if outcome, _ := a.Submit(ctx, "hello again"); outcome != OutcomeUnauthenticated {
		t.Fatalf("submit after logout = %v, want unauthenticated", outcome)
	}

	a.Login(ctx, "user-1")
	if got := fetches.Load(); got != 2 {
		t.Fatalf("history fetches after re-login = %d, want 2", got)
	}
	a.Close()
}

func TestApplicationMockModeRoundTrip(t *testing.T) {
	a := newTestApplication(t, "mock://")
	ctx := context.Background()

	a.Login(ctx, "user-1")
	if outcome, err := a.Submit(ctx, "ping"); err != nil || outcome != OutcomeCompleted {
		t.Fatalf("Submit = (%v, %v)", outcome, err)
	}
	msgs := a.Transcript.Snapshot()
	if len(msgs) != 2 || msgs[1].IsUser {
		t.Fatalf("mock round trip transcript = %+v", msgs)
	}

	if _, added := a.NewSession(); !added {
		t.Fatalf("NewSession did not archive the conversation")
	}
	a.Close()
}
