package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.cloudflare.com/client/v4"
	defaultTimeout = 30 * time.Second

	// recordNotFoundCode is Cloudflare's "Record does not exist" error code.
	// Deleting an already-absent record is an acceptable end state.
	recordNotFoundCode = 81044

	// maxResponseBody bounds how much of a response is read. Large enough
	// for any reasonable API response.
	maxResponseBody = 1 << 20
)

// Config holds the per-account credentials and optional tuning knobs.
type Config struct {
	// Email and APIKey authenticate via the X-Auth-Email/X-Auth-Key pair.
	Email  string
	APIKey string

	// BaseURL overrides the API endpoint, primarily for tests.
	BaseURL string

	// Timeout bounds each API call. Defaults to 30s.
	Timeout time.Duration

	// RootOverrides maps a domain or domain suffix to its registrable root
	// for zones under multi-label public suffixes, where the default
	// last-two-labels heuristic is wrong (e.g. "example.co.uk": "example.co.uk").
	RootOverrides map[string]string
}

// Client is a minimal Cloudflare v4 API client for TXT record lifecycle
// operations during DNS-01 validation.
type Client struct {
	cfg  Config
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New validates the credentials and returns a ready client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.Email) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := &Client{
		cfg:  cfg,
		http: &http.Client{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Errors  []apiError      `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

type zone struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type dnsRecord struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl"`
}

// ResolveZone looks up the zone ID owning the given domain. Wildcard markers
// are ignored; the registrable root drives the lookup.
func (c *Client) ResolveZone(ctx context.Context, domain string) (string, error) {
	root := c.registrableRoot(strings.TrimPrefix(domain, "*."))

	env, _, err := c.do(ctx, http.MethodGet, "/zones?name="+url.QueryEscape(root), nil)
	if err != nil {
		return "", err
	}
	if !env.Success {
		return "", apiFailure("list zones", env.Errors)
	}

	var zones []zone
	if err := json.Unmarshal(env.Result, &zones); err != nil {
		return "", fmt.Errorf("%w: decode zone list: %w", ErrRequestFailed, err)
	}
	if len(zones) == 0 {
		return "", fmt.Errorf("%w: no zone matches %q (registrable root %q)", ErrZoneNotFound, domain, root)
	}
	return zones[0].ID, nil
}

// CreateTXTRecord creates a TXT record in the zone and returns its record ID.
func (c *Client) CreateTXTRecord(ctx context.Context, zoneID, name, content string, ttl int) (string, error) {
	env, _, err := c.do(ctx, http.MethodPost, "/zones/"+zoneID+"/dns_records", dnsRecord{
		Type:    "TXT",
		Name:    name,
		Content: content,
		TTL:     ttl,
	})
	if err != nil {
		return "", err
	}
	if !env.Success {
		return "", apiFailure("create TXT record "+name, env.Errors)
	}

	var rec dnsRecord
	if err := json.Unmarshal(env.Result, &rec); err != nil {
		return "", fmt.Errorf("%w: decode created record: %w", ErrRequestFailed, err)
	}
	return rec.ID, nil
}

// DeleteRecord removes a record from the zone. A record that no longer
// exists is not an error.
func (c *Client) DeleteRecord(ctx context.Context, zoneID, recordID string) error {
	env, status, err := c.do(ctx, http.MethodDelete, "/zones/"+zoneID+"/dns_records/"+recordID, nil)
	if err != nil {
		return err
	}
	if env.Success {
		return nil
	}
	if status == http.StatusNotFound {
		return nil
	}
	for _, e := range env.Errors {
		if e.Code == recordNotFoundCode {
			return nil
		}
	}
	return apiFailure("delete record "+recordID, env.Errors)
}

// do performs one API call with the configured timeout and auth headers.
// Transport and decoding problems are returned as errors; API-level failures
// are reported through the envelope so callers can inspect error codes.
func (c *Client) do(ctx context.Context, method, path string, body any) (*apiEnvelope, int, error) {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: encode request body: %w", ErrRequestFailed, err)
		}
		payload = bytes.NewReader(b)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, payload)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request: %w", ErrRequestFailed, err)
	}
	req.Header.Set("X-Auth-Email", c.cfg.Email)
	req.Header.Set("X-Auth-Key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s %s: %w", ErrRequestFailed, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response: %w", ErrRequestFailed, err)
	}

	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %s %s returned status %d with non-JSON body %q",
			ErrRequestFailed, method, path, resp.StatusCode, truncate(raw, 256))
	}
	return &env, resp.StatusCode, nil
}

// apiFailure wraps the provider's error payload verbatim for diagnostics.
func apiFailure(op string, errs []apiError) error {
	detail, _ := json.Marshal(errs)
	return fmt.Errorf("%w: %s: %s", ErrRequestFailed, op, detail)
}

// registrableRoot derives the zone lookup name for a domain. Overrides are
// consulted from the most to the least specific suffix before falling back
// to the last two labels.
func (c *Client) registrableRoot(domain string) string {
	labels := strings.Split(domain, ".")
	for i := range labels {
		if root, ok := c.cfg.RootOverrides[strings.Join(labels[i:], ".")]; ok {
			return root
		}
	}
	if len(labels) >= 2 {
		return strings.Join(labels[len(labels)-2:], ".")
	}
	return domain
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
