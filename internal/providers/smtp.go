package providers

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

// SMTPNotifier delivers notifications as HTML mail through a single
// SMTP relay. Each Send opens a fresh connection; the dispatcher's
// retry queue owns failure handling, so errors here are returned as-is
// after classification.
type SMTPNotifier struct {
	addr     string // host:port
	host     string
	username string
	password string
	from     string
	logger   zerolog.Logger
}

// NewSMTPNotifier creates a notifier for the given relay. Username may
// be empty for an unauthenticated relay.
func NewSMTPNotifier(host string, port int, username, password, from string, logger zerolog.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		addr:     fmt.Sprintf("%s:%d", host, port),
		host:     host,
		username: username,
		password: password,
		from:     from,
		logger:   logger,
	}
}

// Send delivers one message. The context bounds the whole exchange
// through the connection deadline.
func (n *SMTPNotifier) Send(ctx context.Context, to, subject, body string) error {
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", n.addr)
	if err != nil {
		return transientErr("smtp", "dial", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, n.host)
	if err != nil {
		_ = conn.Close()
		return transientErr("smtp", "handshake", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: n.host}); err != nil {
			return transientErr("smtp", "starttls", err)
		}
	}
	if n.username != "" {
		auth := smtp.PlainAuth("", n.username, n.password, n.host)
		if err := client.Auth(auth); err != nil {
			return permanentErr("smtp", "auth", err)
		}
	}

	if err := client.Mail(n.from); err != nil {
		return transientErr("smtp", "mail", err)
	}
	if err := client.Rcpt(to); err != nil {
		return permanentErr("smtp", "rcpt", err)
	}
	w, err := client.Data()
	if err != nil {
		return transientErr("smtp", "data", err)
	}
	if _, err := w.Write(n.message(to, subject, body)); err != nil {
		_ = w.Close()
		return transientErr("smtp", "write", err)
	}
	if err := w.Close(); err != nil {
		return transientErr("smtp", "close", err)
	}
	return client.Quit()
}

func (n *SMTPNotifier) message(to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
