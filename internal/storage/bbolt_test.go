package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"adminka/internal/auth"
)

func TestStorage(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "storage_test")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	dbPath := filepath.Join(tmpDir, "test.db")
	store, err := NewBboltStorage(dbPath)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer func() { _ = store.Close() }()

	now := time.Unix(1_700_000_000, 0)

	t.Run("Sessions", func(t *testing.T) {
		session := auth.Session{
			ID: "hash1",
			Identity: auth.Identity{
				ProviderID: "42",
				Username:   "alice",
				AvatarURL:  "https://cdn.example.com/a.png",
			},
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
		}

		if err := store.UpsertSession(session); err != nil {
			t.Fatalf("UpsertSession failed: %v", err)
		}

		sessions, err := store.ListSessions()
		if err != nil {
			t.Fatalf("ListSessions failed: %v", err)
		}
		if len(sessions) != 1 {
			t.Fatalf("expected 1 session, got %d", len(sessions))
		}
		if sessions[0].Identity != session.Identity {
			t.Errorf("expected identity %+v, got %+v", session.Identity, sessions[0].Identity)
		}
		if !sessions[0].ExpiresAt.Equal(session.ExpiresAt) {
			t.Errorf("expected expiry %v, got %v", session.ExpiresAt, sessions[0].ExpiresAt)
		}

		session.Identity.Username = "alice2"
		if err := store.UpsertSession(session); err != nil {
			t.Fatalf("UpsertSession failed: %v", err)
		}
		sessions, _ = store.ListSessions()
		if len(sessions) != 1 || sessions[0].Identity.Username != "alice2" {
			t.Errorf("expected updated session, got %+v", sessions)
		}

		if err := store.DeleteSession("hash1"); err != nil {
			t.Fatalf("DeleteSession failed: %v", err)
		}
		sessions, _ = store.ListSessions()
		if len(sessions) != 0 {
			t.Errorf("expected no sessions, got %d", len(sessions))
		}
	})

	t.Run("PurgeExpired", func(t *testing.T) {
		for i, exp := range []time.Duration{-time.Hour, -time.Minute, time.Hour} {
			err := store.UpsertSession(auth.Session{
				ID:        string(rune('a' + i)),
				CreatedAt: now.Add(-2 * time.Hour),
				ExpiresAt: now.Add(exp),
			})
			if err != nil {
				t.Fatalf("UpsertSession failed: %v", err)
			}
		}

		purged, err := store.PurgeExpired(now)
		if err != nil {
			t.Fatalf("PurgeExpired failed: %v", err)
		}
		if purged != 2 {
			t.Errorf("expected 2 purged sessions, got %d", purged)
		}
		sessions, _ := store.ListSessions()
		if len(sessions) != 1 || sessions[0].ID != "c" {
			t.Errorf("expected only the live session to remain, got %+v", sessions)
		}
	})

	t.Run("Reopen", func(t *testing.T) {
		if err := store.Close(); err != nil {
			t.Fatal(err)
		}
		reopened, err := NewBboltStorage(dbPath)
		if err != nil {
			t.Fatalf("failed to reopen storage: %v", err)
		}
		store = reopened

		sessions, err := store.ListSessions()
		if err != nil {
			t.Fatalf("ListSessions failed: %v", err)
		}
		if len(sessions) != 1 {
			t.Errorf("expected session to survive reopen, got %d", len(sessions))
		}
	})
}
