package models

import "testing"

func TestBotSenderTag(t *testing.T) {
	if got := BotSenderTag("A"); got != "Usuário: A" {
		t.Errorf("expected 'Usuário: A', got '%s'", got)
	}
}

func TestIsValidUser(t *testing.T) {
	tests := []struct {
		user string
		want bool
	}{
		{"A", true},
		{"B", true},
		{"a", false},
		{"C", false},
		{"", false},
		{"Usuário: A", false},
	}

	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			if got := IsValidUser(tt.user); got != tt.want {
				t.Errorf("IsValidUser(%q) = %v, want %v", tt.user, got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("B"); got != "Usuário B" {
		t.Errorf("expected 'Usuário B', got '%s'", got)
	}
}

func TestMessage_VisibleTo(t *testing.T) {
	userA := NewUserMessage("A", "hi")
	botA := NewBotMessage("A", "reply")
	userB := NewUserMessage("B", "hello")

	if !userA.VisibleTo("A") || !botA.VisibleTo("A") {
		t.Error("A should see own message and bot reply")
	}
	if userB.VisibleTo("A") {
		t.Error("A should not see B's message")
	}
	if botA.VisibleTo("B") {
		t.Error("B should not see bot reply addressed to A")
	}
	if userA.VisibleTo("") {
		t.Error("empty identity should see nothing")
	}
}

func TestNewMessages_ContentFields(t *testing.T) {
	u := NewUserMessage("A", "hi")
	if u.UserText == nil || u.BotText != nil || u.IsBot() {
		t.Error("user message must carry only user_text")
	}

	b := NewBotMessage("A", "reply")
	if b.BotText == nil || b.UserText != nil || !b.IsBot() {
		t.Error("bot message must carry only bot_text")
	}
	if b.Text() != "reply" {
		t.Errorf("expected text 'reply', got '%s'", b.Text())
	}
}
