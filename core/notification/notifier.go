package notification

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
)

// Message is one outbound notification email.
type Message struct {
	// SendTo is the recipient address.
	SendTo string

	Subject  string
	BodyHTML string

	// Tag labels the message for provider-side filtering and analytics.
	Tag string
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Validate checks the message is deliverable.
func (m Message) Validate() error {
	if !emailRegex.MatchString(m.SendTo) {
		return fmt.Errorf("%w: recipient %q is not a valid email address", ErrInvalidMessage, m.SendTo)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.BodyHTML) == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidMessage)
	}
	return nil
}

// Notifier is the consumed delivery capability. Implementations live under
// integration/email.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, msg Message) error

// Send calls the wrapped function.
func (f NotifierFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// IssuanceSucceeded builds the outcome message for a successful issuance.
// The certificate material itself is never mailed; the recipient fetches it
// from the record store.
func IssuanceSucceeded(recipient, domain string) Message {
	d := html.EscapeString(domain)
	return Message{
		SendTo:  recipient,
		Subject: fmt.Sprintf("Certificate issued for %s", domain),
		BodyHTML: fmt.Sprintf(
			"<h2>Certificate issued</h2>"+
				"<p>The TLS certificate for <strong>%s</strong> was issued successfully.</p>"+
				"<p>The private key and certificate chain are available in your certificate history.</p>", d),
		Tag: "certificate-issued",
	}
}

// IssuanceFailed builds the outcome message for a failed issuance.
func IssuanceFailed(recipient, domain, reason string) Message {
	d := html.EscapeString(domain)
	return Message{
		SendTo:  recipient,
		Subject: fmt.Sprintf("Certificate issuance failed for %s", domain),
		BodyHTML: fmt.Sprintf(
			"<h2>Certificate issuance failed</h2>"+
				"<p>The issuance attempt for <strong>%s</strong> did not complete.</p>"+
				"<p>Reason: %s</p>"+
				"<p>Verify the Cloudflare credentials and that the domain's DNS is managed by the configured zone, then try again.</p>",
			d, html.EscapeString(reason)),
		Tag: "certificate-failed",
	}
}
