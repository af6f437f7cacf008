package store

import "testing"

func TestSessionAppend(t *testing.T) {
	s := &Session{ID: "s1"}

	s.Append(RoleUser, "who competes with acme.io")
	s.Append(RoleAssistant, "Their main competitors are...")

	if len(s.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(s.Messages))
	}
	if s.Messages[0].Role != RoleUser {
		t.Errorf("first message role = %q, want %q", s.Messages[0].Role, RoleUser)
	}
	if s.Messages[1].Content != "Their main competitors are..." {
		t.Errorf("unexpected second message content: %q", s.Messages[1].Content)
	}
	if s.Messages[0].Timestamp.IsZero() {
		t.Error("appended message has zero timestamp")
	}
}

func TestSessionRecentContext(t *testing.T) {
	s := &Session{}
	s.Append(RoleUser, "first")
	s.Append(RoleAssistant, "second")
	s.Append(RoleUser, "third")

	recent := s.RecentContext(2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent messages, got %d", len(recent))
	}
	if recent[0].Content != "second" || recent[1].Content != "third" {
		t.Errorf("recent window wrong: %q, %q", recent[0].Content, recent[1].Content)
	}

	// Asking for more than exists returns everything
	all := s.RecentContext(10)
	if len(all) != 3 {
		t.Errorf("expected full history, got %d messages", len(all))
	}
}
