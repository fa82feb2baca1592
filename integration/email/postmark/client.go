package postmark

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/mrz1836/postmark"

	"github.com/dmitrymomot/certsmith/core/notification"
)

// Postmark API error codes that indicate rejected credentials rather than a
// transient delivery problem.
const (
	errCodeBadToken          = 10
	errCodeInactiveSignature = 401
)

// Client delivers notifications through Postmark's transactional API.
type Client struct {
	client *postmark.Client
	config Config
}

// New creates a Postmark-backed notifier. All configuration fields are
// required; failing here beats failing on the first delivery attempt.
func New(cfg Config) (*Client, error) {
	if cfg.ServerToken == "" {
		return nil, errors.New("postmark: server token is required")
	}
	if cfg.AccountToken == "" {
		return nil, errors.New("postmark: account token is required")
	}
	if !isValidEmail(cfg.SenderEmail) {
		return nil, fmt.Errorf("postmark: sender email %q is not a valid address", cfg.SenderEmail)
	}
	if !isValidEmail(cfg.SupportEmail) {
		return nil, fmt.Errorf("postmark: support email %q is not a valid address", cfg.SupportEmail)
	}

	return &Client{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		config: cfg,
	}, nil
}

// MustNew creates a Client and panics on invalid config. For composition
// roots that should fail at startup.
func MustNew(cfg Config) *Client {
	client, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// Send implements notification.Notifier. Opens and HTML link clicks are
// tracked; replies go to the support address.
func (c *Client) Send(ctx context.Context, msg notification.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	resp, err := c.client.SendEmail(ctx, postmark.Email{
		From:       c.config.SenderEmail,
		ReplyTo:    c.config.SupportEmail,
		To:         msg.SendTo,
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   msg.BodyHTML,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return errors.Join(notification.ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		apiErr := fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
		if resp.ErrorCode == errCodeBadToken || resp.ErrorCode == errCodeInactiveSignature {
			return errors.Join(notification.ErrAuthFailed, apiErr)
		}
		return errors.Join(notification.ErrSendFailed, apiErr)
	}
	return nil
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
