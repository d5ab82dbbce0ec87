package mailer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// Mailer sends transactional mail over SMTP. gomail dials per message; the
// context is accepted for interface symmetry but SMTP delivery itself is not
// cancellable mid-send.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *Mailer) SendVerificationCode(_ context.Context, to, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your Corkboard verification code")
	msg.SetBody("text/plain", "Your code is: "+code+"\n\nIt expires shortly; request a new one if it stops working.")

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("mailer.SendVerificationCode: %w", err)
	}

	return nil
}

func (m *Mailer) SendBoardInvite(_ context.Context, to, boardName, inviterEmail string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "You have been invited to a Corkboard board")

	body := "You have been invited to the board \"" + boardName + "\"."
	if inviterEmail != "" {
		body = inviterEmail + " invited you to the board \"" + boardName + "\"."
	}
	body += "\n\nSign in with this email address to accept or decline."
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("mailer.SendBoardInvite: %w", err)
	}

	return nil
}

// LogMailer is the development fallback used when SMTP is not configured:
// mail content goes to the log instead of the wire.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (*LogMailer) SendVerificationCode(_ context.Context, to, code string) error {
	log.Info().Str("to", to).Str("code", code).Msg("mailer: verification code (smtp disabled)")
	return nil
}

func (*LogMailer) SendBoardInvite(_ context.Context, to, boardName, inviterEmail string) error {
	log.Info().
		Str("to", to).
		Str("board", boardName).
		Str("inviter", inviterEmail).
		Msg("mailer: board invite (smtp disabled)")
	return nil
}
