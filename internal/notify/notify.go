// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notify delivers the run-completion notice. Notification failures
// are reported to the caller but never abort a run.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/pdiddy/scout-engine/pkg/types"
)

// Notifier sends a notice that a run finished.
type Notifier interface {
	NotifyRunComplete(ctx context.Context, sum types.RunSummary) error
}

// Noop satisfies Notifier without sending anything. Used when notification
// is disabled.
type Noop struct{}

func (Noop) NotifyRunComplete(context.Context, types.RunSummary) error { return nil }

const defaultSMTPPort = 587

// SMTPNotifier mails a plain-text run summary.
type SMTPNotifier struct {
	cfg      types.NotifyConfig
	password string

	// sendMail is swapped out by tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

var _ Notifier = (*SMTPNotifier)(nil)

// NewSMTPNotifier builds a notifier from cfg. The password comes from the
// secrets store, not from cfg.
func NewSMTPNotifier(cfg types.NotifyConfig, password string) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, password: password, sendMail: smtp.SendMail}
}

// NotifyRunComplete sends the summary e-mail. net/smtp does not take a
// context, so the deadline is only checked before dialing.
func (n *SMTPNotifier) NotifyRunComplete(ctx context.Context, sum types.RunSummary) error {
	if n.cfg.SMTPHost == "" || n.cfg.From == "" || n.cfg.To == "" {
		return fmt.Errorf("notifier misconfigured: smtp_host, from, and to are required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	port := n.cfg.SMTPPort
	if port == 0 {
		port = defaultSMTPPort
	}
	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPHost, port)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.password, n.cfg.SMTPHost)
	}

	to := recipients(n.cfg.To)
	msg := buildMessage(n.cfg.From, to, subject(sum), body(sum))
	if err := n.sendMail(addr, auth, n.cfg.From, to, msg); err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	return nil
}

// recipients splits a comma-separated address list.
func recipients(to string) []string {
	parts := strings.Split(to, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func subject(sum types.RunSummary) string {
	return fmt.Sprintf("Scout report %s: %d found", sum.RunID, sum.TotalFound)
}

func body(sum types.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s %s in %.1fs.\n\n", sum.RunID, sum.Status, sum.ProcessingTime)
	fmt.Fprintf(&b, "Total found: %d\n", sum.TotalFound)
	fmt.Fprintf(&b, "Tier 1: %d\n", sum.Tier1Count)
	fmt.Fprintf(&b, "Tier 2: %d\n", sum.Tier2Count)
	fmt.Fprintf(&b, "Tier 3: %d\n", sum.Tier3Count)
	if sum.ReportPath != "" {
		fmt.Fprintf(&b, "\nReport artifacts: %s\n", sum.ReportPath)
	}
	return b.String()
}

// buildMessage assembles an RFC 822 message with CRLF line endings.
func buildMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
