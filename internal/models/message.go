package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message channels.
const (
	ChannelEmail = "email"
	ChannelInApp = "in-app"
	ChannelSMS   = "sms"
)

// Message statuses. A message starts in draft or scheduled and reaches
// sent or failed through the dispatch orchestrator, exactly once.
const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusSent      = "sent"
	StatusFailed    = "failed"
)

// IsTerminalStatus reports whether a message in this status has had its
// dispatch attempt and must never be dispatched again.
func IsTerminalStatus(status string) bool {
	return status == StatusSent || status == StatusFailed
}

// ValidChannel reports whether ch names a known delivery channel.
func ValidChannel(ch string) bool {
	return ch == ChannelEmail || ch == ChannelInApp || ch == ChannelSMS
}

// DeliveryReport summarizes the last dispatch attempt for a message.
type DeliveryReport struct {
	RecipientsCount int    // resolved audience size, not delivered count
	Error           string `gorm:"size:512"`
}

// Message is one communication unit addressed to a computed audience.
type Message struct {
	ID            string `gorm:"primaryKey;size:36"`
	Title         string `gorm:"size:256;not null"`
	Body          string `gorm:"type:text"`
	Channel       string `gorm:"size:16;not null"`
	Status        string `gorm:"size:16;default:draft;index"`
	TargetGroupID *uint  `gorm:"index"`
	Recipients    string `gorm:"type:json"` // JSON array of usernames
	ScheduledAt   *time.Time
	SentAt        *time.Time
	Report        DeliveryReport `gorm:"embedded;embeddedPrefix:report_"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	TargetGroup *Group `gorm:"foreignKey:TargetGroupID"`
}

// NewMessage builds a message with its status fixed at construction time:
// scheduled when scheduledAt is set and in the future, draft otherwise.
// The status is never re-derived from the timestamp after this point.
func NewMessage(title, body, channel string, recipients []string, scheduledAt *time.Time) (*Message, error) {
	if title == "" {
		return nil, fmt.Errorf("models: title is required")
	}
	if body == "" {
		return nil, fmt.Errorf("models: body is required")
	}
	if !ValidChannel(channel) {
		return nil, fmt.Errorf("models: unknown channel %q", channel)
	}

	status := StatusDraft
	if scheduledAt != nil && scheduledAt.After(time.Now()) {
		status = StatusScheduled
	}

	msg := &Message{
		ID:          uuid.New().String(),
		Title:       title,
		Body:        body,
		Channel:     channel,
		Status:      status,
		ScheduledAt: scheduledAt,
		CreatedAt:   time.Now(),
	}
	if err := msg.SetRecipients(recipients); err != nil {
		return nil, err
	}
	return msg, nil
}

// RecipientList decodes the explicit recipient usernames.
func (m *Message) RecipientList() ([]string, error) {
	if m.Recipients == "" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(m.Recipients), &list); err != nil {
		return nil, fmt.Errorf("models: decode recipients for message %s: %w", m.ID, err)
	}
	return list, nil
}

// SetRecipients encodes the explicit recipient usernames.
func (m *Message) SetRecipients(usernames []string) error {
	if len(usernames) == 0 {
		m.Recipients = ""
		return nil
	}
	data, err := json.Marshal(usernames)
	if err != nil {
		return fmt.Errorf("models: encode recipients: %w", err)
	}
	m.Recipients = string(data)
	return nil
}
