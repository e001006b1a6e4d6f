package notify

import (
	"crypto/tls"
	"fmt"
	"net"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/jhillyerd/enmime"
)

const (
	// GmailSMTPHost is the relay used for replies.
	GmailSMTPHost = "smtp.gmail.com"
	// GmailSMTPPort is the submission port; the session is upgraded with STARTTLS.
	GmailSMTPPort = "587"
)

// SMTPSender submits messages over a STARTTLS-upgraded SMTP session
// authenticated with SASL PLAIN.
type SMTPSender struct {
	Addr      string
	Username  string
	Password  string
	TLSConfig *tls.Config
}

// NewGmailSender returns a sender for smtp.gmail.com:587.
func NewGmailSender(username, password string) *SMTPSender {
	return &SMTPSender{
		Addr:      net.JoinHostPort(GmailSMTPHost, GmailSMTPPort),
		Username:  username,
		Password:  password,
		TLSConfig: &tls.Config{ServerName: GmailSMTPHost, MinVersion: tls.VersionTLS12},
	}
}

// Send implements enmime.Sender.
func (s *SMTPSender) Send(reversePath string, recipients []string, msg []byte) error {
	client, err := smtp.DialStartTLS(s.Addr, s.tlsConfig())
	if err != nil {
		return fmt.Errorf("smtp: dial/STARTTLS %s: %w", s.Addr, err)
	}
	defer client.Close()

	if err := client.Auth(sasl.NewPlainClient("", s.Username, s.Password)); err != nil {
		return fmt.Errorf("smtp: auth failed: %w", err)
	}
	if err := client.Mail(reversePath, nil); err != nil {
		return fmt.Errorf("smtp: MAIL FROM failed: %w", err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt, nil); err != nil {
			return fmt.Errorf("smtp: RCPT TO %q failed: %w", rcpt, err)
		}
	}
	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp: DATA failed: %w", err)
	}
	if _, err := writer.Write(msg); err != nil {
		return fmt.Errorf("smtp: writing message failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp: finalizing message failed: %w", err)
	}
	if err := client.Quit(); err != nil {
		return fmt.Errorf("smtp: QUIT failed: %w", err)
	}
	return nil
}

func (s *SMTPSender) tlsConfig() *tls.Config {
	if s.TLSConfig != nil {
		return s.TLSConfig
	}
	host, _, err := net.SplitHostPort(s.Addr)
	if err != nil {
		host = s.Addr
	}
	return &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
}

var _ enmime.Sender = (*SMTPSender)(nil)
