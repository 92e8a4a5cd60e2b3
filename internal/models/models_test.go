package models

import (
	"testing"
	"time"
)

// --- NewMessage status tagging ---

func TestNewMessage_NoScheduleIsDraft(t *testing.T) {
	msg, err := NewMessage("Maintenance window", "Details", ChannelEmail, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Status != StatusDraft {
		t.Errorf("status = %q, want %q", msg.Status, StatusDraft)
	}
	if msg.ID == "" {
		t.Error("expected generated ID")
	}
}

func TestNewMessage_FutureScheduleIsScheduled(t *testing.T) {
	at := time.Now().Add(time.Hour)
	msg, err := NewMessage("Maintenance window", "Details", ChannelEmail, nil, &at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Status != StatusScheduled {
		t.Errorf("status = %q, want %q", msg.Status, StatusScheduled)
	}
}

func TestNewMessage_PastScheduleIsDraft(t *testing.T) {
	at := time.Now().Add(-time.Hour)
	msg, err := NewMessage("Maintenance window", "Details", ChannelEmail, nil, &at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Status != StatusDraft {
		t.Errorf("status = %q, want %q", msg.Status, StatusDraft)
	}
}

func TestNewMessage_Validation(t *testing.T) {
	cases := []struct {
		name    string
		title   string
		body    string
		channel string
	}{
		{"missing title", "", "body", ChannelEmail},
		{"missing body", "title", "", ChannelEmail},
		{"unknown channel", "title", "body", "carrier-pigeon"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewMessage(tc.title, tc.body, tc.channel, nil, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// --- Recipients encoding ---

func TestMessage_RecipientRoundtrip(t *testing.T) {
	msg, err := NewMessage("t", "b", ChannelSMS, []string{"alice", "bob"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := msg.RecipientList()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
		t.Errorf("recipients = %v", got)
	}
}

func TestMessage_EmptyRecipients(t *testing.T) {
	msg := &Message{}
	got, err := msg.RecipientList()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("recipients = %v, want nil", got)
	}
}

func TestMessage_BadRecipientsJSON(t *testing.T) {
	msg := &Message{ID: "m1", Recipients: "{not json"}
	if _, err := msg.RecipientList(); err == nil {
		t.Error("expected error for corrupt recipients")
	}
}

// --- Status helpers ---

func TestIsTerminalStatus(t *testing.T) {
	cases := map[string]bool{
		StatusDraft:     false,
		StatusScheduled: false,
		StatusSent:      true,
		StatusFailed:    true,
	}
	for status, want := range cases {
		if got := IsTerminalStatus(status); got != want {
			t.Errorf("IsTerminalStatus(%q) = %t, want %t", status, got, want)
		}
	}
}
