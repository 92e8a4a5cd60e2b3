// Package dispatch drives a message through audience resolution, channel
// delivery, and its terminal status transition.
package dispatch

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/zulandar/stationcall/internal/audience"
	"github.com/zulandar/stationcall/internal/audit"
	"github.com/zulandar/stationcall/internal/channel"
	"github.com/zulandar/stationcall/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when the message id does not exist. Callers map
// it to "not found" without emitting an audit record.
var ErrNotFound = errors.New("dispatch: message not found")

// Result reports the outcome of a send.
type Result struct {
	RecipientsCount int
	AlreadySent     bool // a previous invocation performed the dispatch
}

// Orchestrator is the single entry point for sending a message, shared by
// operator-triggered sends and the scheduler.
type Orchestrator struct {
	DB        *gorm.DB
	Transport channel.Transport
}

// Send dispatches one message: load, resolve the audience, deliver over
// the message's channel, mark it sent, and audit.
//
// The terminal transition is claimed with a conditional update (status
// still non-terminal → sent) before the transport is invoked, so of two
// concurrent triggers for the same id only the first performs delivery;
// the loser observes the claim failure and reports the already-sent
// result. A resolution failure routes the message to failed rather than
// leaving it scheduled forever; a transport failure does not — delivery
// is best-effort once the audience resolved, and the error is recorded
// in the report and audit trail instead.
func (o *Orchestrator) Send(messageID, actor, sourceIP string) (*Result, error) {
	var msg models.Message
	err := o.DB.Where("id = ?", messageID).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dispatch: load message %s: %w", messageID, err)
	}

	if models.IsTerminalStatus(msg.Status) {
		return &Result{RecipientsCount: msg.Report.RecipientsCount, AlreadySent: true}, nil
	}

	aud, err := audience.Resolve(o.DB, &msg)
	if err != nil {
		o.markFailed(&msg, err.Error())
		audit.Record(o.DB, actor, audit.ActionSendFailed,
			fmt.Sprintf("message=%s error=%s", msg.ID, err), sourceIP)
		return nil, fmt.Errorf("dispatch: message %s: %w", msg.ID, err)
	}

	dispatcher, err := channel.ForChannel(msg.Channel, o.Transport)
	if err != nil {
		o.markFailed(&msg, err.Error())
		audit.Record(o.DB, actor, audit.ActionSendFailed,
			fmt.Sprintf("message=%s error=%s", msg.ID, err), sourceIP)
		return nil, fmt.Errorf("dispatch: message %s: %w", msg.ID, err)
	}

	claimed, err := o.claim(&msg, len(aud))
	if err != nil {
		return nil, err
	}
	if !claimed {
		// A concurrent invocation won the claim; report its result.
		if err := o.DB.Where("id = ?", messageID).First(&msg).Error; err != nil {
			return nil, fmt.Errorf("dispatch: reload message %s: %w", messageID, err)
		}
		return &Result{RecipientsCount: msg.Report.RecipientsCount, AlreadySent: true}, nil
	}

	outcome := dispatcher.Dispatch(o.DB, &msg, aud)
	if outcome.Error != "" {
		if err := o.DB.Model(&models.Message{}).Where("id = ?", msg.ID).
			Update("report_error", outcome.Error).Error; err != nil {
			return nil, fmt.Errorf("dispatch: record delivery error for %s: %w", msg.ID, err)
		}
		audit.Record(o.DB, actor, audit.ActionDeliveryError,
			fmt.Sprintf("message=%s channel=%s error=%s", msg.ID, msg.Channel, outcome.Error), sourceIP)
	}

	audit.Record(o.DB, actor, audit.ActionSendMessage,
		fmt.Sprintf("message=%s channel=%s recipients=%d", msg.ID, msg.Channel, len(aud)), sourceIP)

	return &Result{RecipientsCount: len(aud)}, nil
}

// claim performs the atomic non-terminal → sent transition. Returns false
// when another invocation already moved the message to a terminal state.
func (o *Orchestrator) claim(msg *models.Message, recipients int) (bool, error) {
	res := o.DB.Model(&models.Message{}).
		Where("id = ? AND status IN ?", msg.ID, []string{models.StatusDraft, models.StatusScheduled}).
		Updates(map[string]interface{}{
			"status":                  models.StatusSent,
			"sent_at":                 time.Now(),
			"report_recipients_count": recipients,
		})
	if res.Error != nil {
		return false, fmt.Errorf("dispatch: mark sent %s: %w", msg.ID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// markFailed performs the atomic non-terminal → failed transition.
// Best-effort: if a concurrent send already reached a terminal state the
// update is a no-op.
func (o *Orchestrator) markFailed(msg *models.Message, detail string) {
	err := o.DB.Model(&models.Message{}).
		Where("id = ? AND status IN ?", msg.ID, []string{models.StatusDraft, models.StatusScheduled}).
		Updates(map[string]interface{}{
			"status":       models.StatusFailed,
			"sent_at":      time.Now(),
			"report_error": detail,
		}).Error
	if err != nil {
		log.Printf("dispatch: mark failed %s: %v", msg.ID, err)
	}
}
