package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

type fakeSender struct {
	reversePath string
	recipients  []string
	msg         []byte
	err         error
	calls       int
}

func (f *fakeSender) Send(reversePath string, recipients []string, msg []byte) error {
	f.calls++
	f.reversePath = reversePath
	f.recipients = append([]string(nil), recipients...)
	f.msg = append([]byte(nil), msg...)
	return f.err
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMailerComposesPlainText(t *testing.T) {
	sender := &fakeSender{}
	m := NewMailer("me@example.com", sender, slogDiscard())

	err := m.Send(context.Background(), Reply{
		To:      "Alice <a@x.com>",
		Subject: "Re: Hi",
		Body:    "Out of office.",
	})
	be.Err(t, err, nil)
	be.Equal(t, sender.calls, 1)
	be.Equal(t, sender.reversePath, "me@example.com")
	be.Equal(t, sender.recipients, []string{"a@x.com"})

	raw := string(sender.msg)
	be.True(t, strings.Contains(raw, "Subject: Re: Hi"))
	be.True(t, strings.Contains(raw, "text/plain"))
	be.True(t, strings.Contains(raw, "Out of office."))
}

func TestMailerBareAddress(t *testing.T) {
	sender := &fakeSender{}
	m := NewMailer("me@example.com", sender, slogDiscard())

	be.Err(t, m.Send(context.Background(), Reply{To: "a@x.com", Subject: "Re: Hi", Body: "x"}), nil)
	be.Equal(t, sender.recipients, []string{"a@x.com"})
}

func TestMailerDecodesEncodedDisplayNames(t *testing.T) {
	tests := []struct {
		name string
		to   string
		want string
	}{
		{name: "utf-8", to: "=?UTF-8?Q?Jos=C3=A9?= <a@x.com>", want: "a@x.com"},
		{name: "iso-2022-jp", to: "=?ISO-2022-JP?B?GyRCOzNFRBsoQg==?= <b@x.jp>", want: "b@x.jp"},
		{name: "windows-1252", to: "=?windows-1252?Q?Ren=E9?= <c@x.com>", want: "c@x.com"},
		{name: "gb2312", to: "=?GB2312?B?1cXI/Q==?= <d@x.cn>", want: "d@x.cn"},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			sender := &fakeSender{}
			m := NewMailer("me@example.com", sender, slogDiscard())

			err := m.Send(context.Background(), Reply{To: tc.to, Subject: "Re: Hi", Body: "x"})
			be.Err(t, err, nil)
			be.Equal(t, sender.calls, 1)
			be.Equal(t, sender.recipients, []string{tc.want})
		})
	}
}

func TestMailerRejectsBadRecipient(t *testing.T) {
	sender := &fakeSender{}
	m := NewMailer("me@example.com", sender, slogDiscard())

	err := m.Send(context.Background(), Reply{To: "not an address", Subject: "Re: Hi", Body: "x"})
	be.Err(t, err, "parse recipient")
	be.Equal(t, sender.calls, 0)
}

func TestMailerPropagatesSenderError(t *testing.T) {
	boom := errors.New("relay down")
	sender := &fakeSender{err: boom}
	m := NewMailer("me@example.com", sender, slogDiscard())

	err := m.Send(context.Background(), Reply{To: "a@x.com", Subject: "Re: Hi", Body: "x"})
	be.Err(t, err, boom)
}

func TestMailerCanceledContext(t *testing.T) {
	sender := &fakeSender{}
	m := NewMailer("me@example.com", sender, slogDiscard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Send(ctx, Reply{To: "a@x.com", Subject: "Re: Hi", Body: "x"})
	be.Err(t, err, context.Canceled)
	be.Equal(t, sender.calls, 0)
}

func TestNewGmailSender(t *testing.T) {
	s := NewGmailSender("me@example.com", "pw")
	be.Equal(t, s.Addr, "smtp.gmail.com:587")
	be.Equal(t, s.TLSConfig.ServerName, "smtp.gmail.com")
}

func TestSMTPSenderDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	be.Err(t, err, nil)
	addr := ln.Addr().String()
	be.Err(t, ln.Close(), nil)

	s := &SMTPSender{Addr: addr, Username: "u", Password: "p"}
	err = s.Send("me@example.com", []string{"a@x.com"}, []byte("Subject: x\r\n\r\nbody"))
	be.Err(t, err, "smtp: dial")
}

func TestSMTPSenderTLSConfigFallback(t *testing.T) {
	s := &SMTPSender{Addr: "relay.example.com:587"}
	be.Equal(t, s.tlsConfig().ServerName, "relay.example.com")
}
