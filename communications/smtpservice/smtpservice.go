// Package smtpservice relays queue events over email. Delivery is best
// effort; the engine never waits on it.
package smtpservice

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/thrasher-corp/tallerd/communications/base"
)

// SMTPservice uses the net/smtp package to send emails to a recipient list
type SMTPservice struct {
	base.Base
	Host            string
	Port            string
	AccountName     string
	AccountPassword string
	From            string
	RecipientList   string
}

var (
	errSMTPNotConfigured = errors.New("smtp server not configured")
	errNoRecipients      = errors.New("no recipient list set")
)

const msgFormat = "To: %s\r\nFrom: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s\r\n"

// Setup takes in a SMTP configuration and sets SMTP server details and
// recipient list
func (s *SMTPservice) Setup(cfg *base.CommunicationsConfig) {
	s.Name = cfg.SMTPConfig.Name
	s.Enabled = cfg.SMTPConfig.Enabled
	s.Verbose = cfg.SMTPConfig.Verbose
	s.Host = cfg.SMTPConfig.Host
	s.Port = cfg.SMTPConfig.Port
	s.AccountName = cfg.SMTPConfig.AccountName
	s.AccountPassword = cfg.SMTPConfig.AccountPassword
	s.From = cfg.SMTPConfig.From
	s.RecipientList = cfg.SMTPConfig.RecipientList
}

// Connect checks the service is configured and flags it ready to send
func (s *SMTPservice) Connect() error {
	if s.Host == "" || s.Port == "" {
		return errSMTPNotConfigured
	}
	s.Connected = true
	return nil
}

// PushEvent sends an event to the recipient list
func (s *SMTPservice) PushEvent(e base.Event) error {
	return s.Send(e.Type, e.Message)
}

// Send sends an email template to the recipient list
func (s *SMTPservice) Send(subject, msg string) error {
	if subject == "" || msg == "" {
		return errors.New("STMPservice Send() please add subject and alert")
	}
	if s.RecipientList == "" {
		return errNoRecipients
	}

	list := strings.Split(s.RecipientList, ",")
	mail := fmt.Sprintf(msgFormat, s.RecipientList, s.From, subject, msg)

	return smtp.SendMail(
		s.Host+":"+s.Port,
		smtp.PlainAuth("", s.AccountName, s.AccountPassword, s.Host),
		s.From,
		list,
		[]byte(mail))
}
