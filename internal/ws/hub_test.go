package ws

import (
	"testing"
	"time"

	"adminka/internal/models"
)

func TestHub_Lifecycle(t *testing.T) {
	h := NewHub()

	// 1. Two tabs of one session, one tab of another
	conn1, ch1 := h.Join("s1")
	conn2, ch2 := h.Join("s1")
	_, other := h.Join("s2")

	if conn1 == conn2 {
		t.Fatal("connections of one session share an id")
	}
	if got := h.Connections("s1"); got != 2 {
		t.Errorf("Expected 2 connections, got %d", got)
	}

	// 2. Publish reaches only the session's tabs
	h.Publish("s1", models.ServerMessage{Type: models.ServerMessageTypeRefresh, Page: "/roles"})

	for i, ch := range []chan models.ServerMessage{ch1, ch2} {
		select {
		case msg := <-ch:
			if msg.Page != "/roles" {
				t.Errorf("tab %d got wrong page %q", i, msg.Page)
			}
		case <-time.After(time.Second):
			t.Errorf("tab %d did not receive refresh", i)
		}
	}

	select {
	case msg := <-other:
		t.Errorf("other session received %v", msg)
	default:
	}

	// 3. Leave closes the tab channel
	h.Leave("s1", conn1)
	if _, ok := <-ch1; ok {
		t.Error("channel still open after Leave")
	}
	if got := h.Connections("s1"); got != 1 {
		t.Errorf("Expected 1 connection, got %d", got)
	}

	// Leaving twice is harmless.
	h.Leave("s1", conn1)
}

func TestHub_Disconnect(t *testing.T) {
	h := NewHub()
	_, ch := h.Join("s1")

	h.Disconnect("s1")

	msg, ok := <-ch
	if !ok || msg.Type != models.ServerMessageTypeSignedOut {
		t.Errorf("Expected signed_out before close, got %v ok=%v", msg, ok)
	}
	if _, ok := <-ch; ok {
		t.Error("channel still open after Disconnect")
	}
	if got := h.Connections("s1"); got != 0 {
		t.Errorf("Expected no connections, got %d", got)
	}

	// Publishing to a gone session does nothing.
	h.Publish("s1", models.ServerMessage{Type: models.ServerMessageTypeRefresh})
}

func TestHub_SlowTabDropsMessages(t *testing.T) {
	h := NewHub()
	_, ch := h.Join("s1")

	for range cap(ch) + 5 {
		h.Publish("s1", models.ServerMessage{Type: models.ServerMessageTypeRefresh})
	}
	if len(ch) != cap(ch) {
		t.Errorf("Expected full buffer, got %d/%d", len(ch), cap(ch))
	}
}
