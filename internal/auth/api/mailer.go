package authapi

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/Amatex1/pryde-backend-sub001/internal/auth/session"
)

// SMTPAlertSender delivers login alerts over SMTP. It implements
// session.AlertSender; delivery failures are the caller's to log and
// never block a login.
type SMTPAlertSender struct {
	host string
	port int
	user string
	pass string
	from string

	// DisavowBaseURL is the public page that consumes disavow tokens,
	// e.g. "https://pryde.example/security/disavow".
	DisavowBaseURL string

	// InsecureSkipVerify skips TLS verification for local relays.
	InsecureSkipVerify bool
}

// NewSMTPAlertSender constructs an SMTP-backed alert sender.
func NewSMTPAlertSender(host string, port int, user, pass, from string) *SMTPAlertSender {
	return &SMTPAlertSender{host: host, port: port, user: user, pass: pass, from: from}
}

// SendLoginAlert implements session.AlertSender.
func (m *SMTPAlertSender) SendLoginAlert(ctx context.Context, alert session.LoginAlert) error {
	subject := "New login to your account"
	if alert.Suspicious {
		subject = "Suspicious login to your account"
	}
	return m.send(ctx, alert.Email, subject, m.alertBody(alert))
}

func (m *SMTPAlertSender) alertBody(alert session.LoginAlert) string {
	var b strings.Builder

	b.WriteString("<h2>")
	b.WriteString(html.EscapeString(alertHeadline(alert)))
	b.WriteString("</h2>")

	b.WriteString("<p>Hi ")
	b.WriteString(html.EscapeString(alert.DisplayName))
	b.WriteString(",</p>")

	b.WriteString("<p>We noticed a login to your account at ")
	b.WriteString(alert.At.UTC().Format(time.RFC1123))
	b.WriteString(".</p><ul>")
	if d := deviceLine(alert.Device); d != "" {
		b.WriteString("<li>Device: " + html.EscapeString(d) + "</li>")
	}
	if alert.IP != "" {
		b.WriteString("<li>IP address: " + html.EscapeString(alert.IP) + "</li>")
	}
	if l := locationLine(alert.Location); l != "" {
		b.WriteString("<li>Location: " + html.EscapeString(l) + "</li>")
	}
	b.WriteString("</ul>")

	b.WriteString("<p>If this was you, no action is needed.</p>")
	if alert.DisavowToken != "" && m.DisavowBaseURL != "" {
		link := strings.TrimRight(m.DisavowBaseURL, "/") + "?token=" + alert.DisavowToken
		b.WriteString(`<p>If this wasn't you, <a href="`)
		b.WriteString(html.EscapeString(link))
		b.WriteString(`">sign out everywhere</a> and change your password.</p>`)
	}

	return b.String()
}

func alertHeadline(alert session.LoginAlert) string {
	if alert.Suspicious {
		return "Suspicious login detected"
	}
	return "New device login"
}

func deviceLine(d session.Device) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{d.Label, d.Browser, d.OS} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " / ")
}

func locationLine(l session.Location) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.City, l.Region, l.Country} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// send delivers a single HTML message. Works with no-auth local relays
// and with servers requiring STARTTLS plus PLAIN auth.
func (m *SMTPAlertSender) send(ctx context.Context, to, subject, htmlBody string) error {
	var sb strings.Builder
	sb.WriteString("From: " + m.from + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(htmlBody)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer func() { _ = c.Quit() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		cfg := &tls.Config{
			ServerName:         m.host,
			InsecureSkipVerify: m.InsecureSkipVerify,
		}
		if err := c.StartTLS(cfg); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := c.Mail(m.from); err != nil {
		return fmt.Errorf("smtp mail: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write([]byte(sb.String())); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	return w.Close()
}
