package channel

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/zulandar/stationcall/internal/directory"
	"github.com/zulandar/stationcall/internal/models"
	"gorm.io/gorm"
)

// Transport sends one email to a list of addresses.
type Transport interface {
	Send(to []string, subject, htmlBody string) error
}

// EmailDispatcher delivers a message over email. The audience usernames
// are translated to addresses through the directory (users without an
// email are skipped), and the whole address list goes out in a single
// transport call.
type EmailDispatcher struct {
	Transport Transport
}

// Dispatch resolves addresses and sends. Lookup and transport failures
// are recorded in the outcome, not returned: audience resolution
// succeeding is the operation's success criterion, delivery is
// best-effort.
func (d *EmailDispatcher) Dispatch(db *gorm.DB, msg *models.Message, audience []string) Outcome {
	out := Outcome{Channel: models.ChannelEmail, Recipients: len(audience)}

	users, err := directory.EmailableUsers(db, audience)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	if len(users) == 0 {
		return out
	}

	addrs := make([]string, 0, len(users))
	for _, u := range users {
		addrs = append(addrs, u.Email)
	}

	if d.Transport == nil {
		out.Error = "email: no transport configured"
		return out
	}
	if err := d.Transport.Send(addrs, msg.Title, msg.Body); err != nil {
		out.Error = err.Error()
		return out
	}
	out.Delivered = len(addrs)
	return out
}

// SMTPTransport sends email through an SMTP relay.
type SMTPTransport struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// Send builds a single HTML message and hands it to the relay.
func (t *SMTPTransport) Send(to []string, subject, htmlBody string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", t.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", t.Host, t.Port)
	var auth smtp.Auth
	if t.Username != "" {
		auth = smtp.PlainAuth("", t.Username, t.Password, t.Host)
	}
	if err := smtp.SendMail(addr, auth, t.From, to, []byte(b.String())); err != nil {
		return fmt.Errorf("email: send via %s: %w", addr, err)
	}
	return nil
}
