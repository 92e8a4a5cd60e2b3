// Package channel performs delivery of a resolved audience over a single
// channel. Each channel isolates its own transport failures: a failed
// relay call is recorded in the outcome, never returned as an error, so
// one channel's outage cannot abort the surrounding orchestration.
package channel

import (
	"fmt"

	"github.com/zulandar/stationcall/internal/models"
	"gorm.io/gorm"
)

// Outcome summarizes one dispatch attempt over one channel.
type Outcome struct {
	Channel    string
	Recipients int    // resolved audience size
	Delivered  int    // addresses actually handed to the transport
	Error      string // transport or lookup failure, empty on success
}

// Dispatcher delivers a message to a resolved audience over one channel.
// Implementations must not mutate any local state; delivery bookkeeping
// belongs to the orchestrator.
type Dispatcher interface {
	Dispatch(db *gorm.DB, msg *models.Message, audience []string) Outcome
}

// ForChannel returns the dispatcher for a message channel. The email
// channel needs a transport; in-app and sms are recording-only sinks
// until a real provider is wired in.
func ForChannel(ch string, transport Transport) (Dispatcher, error) {
	switch ch {
	case models.ChannelEmail:
		return &EmailDispatcher{Transport: transport}, nil
	case models.ChannelInApp, models.ChannelSMS:
		return &SinkDispatcher{Channel: ch}, nil
	default:
		return nil, fmt.Errorf("channel: unknown channel %q", ch)
	}
}

// SinkDispatcher records the audience size without performing delivery.
// It stands in for the in-app and sms channels until those providers
// exist; swapping in a real implementation does not touch the
// orchestrator.
type SinkDispatcher struct {
	Channel string
}

// Dispatch records the audience size only.
func (d *SinkDispatcher) Dispatch(_ *gorm.DB, _ *models.Message, audience []string) Outcome {
	return Outcome{Channel: d.Channel, Recipients: len(audience)}
}
