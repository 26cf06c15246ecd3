package slack

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxErrorBody caps how much of a failed response body is kept
const maxErrorBody = 4096

// Config holds webhook client configuration
type Config struct {
	WebhookURL    string
	Proxy         string
	TLSSkipVerify bool
	// Timeout is the per-request timeout. Zero means no timeout.
	Timeout time.Duration
}

// Client posts messages to a Slack incoming webhook
type Client struct {
	webhookURL string
	httpClient *http.Client
}

// DeliveryError is returned when the webhook answers with a non-2xx status
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("posting message failed: status %d; %s", e.StatusCode, e.Body)
}

// NewClient creates a new webhook client
func NewClient(cfg Config) (*Client, error) {
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("no webhook URL configured")
	}
	if _, err := url.ParseRequestURI(cfg.WebhookURL); err != nil {
		return nil, fmt.Errorf("invalid webhook URL: %w", err)
	}

	rt := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.TLSSkipVerify},
	}
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		rt.Proxy = http.ProxyURL(proxyURL)
	}

	return &Client{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: rt,
		},
	}, nil
}

// Post sends msg to the webhook. A non-2xx response is returned as a
// *DeliveryError. Nothing is retried.
func (c *Client) Post(ctx context.Context, msg *Message) error {
	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(msg); err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeliveryError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}
