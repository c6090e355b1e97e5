// Package telephony wraps the provider's REST call-control API: placing
// outbound calls and starting call recordings.
package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	accountSID string
	authToken  string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

func New(accountSID, authToken string, opts ...Option) *Client {
	c := &Client{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    "https://api.twilio.com",
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call is the subset of the provider's call resource this service reads.
type Call struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// Recording is the subset of the provider's recording resource this service
// reads.
type Recording struct {
	SID string `json:"sid"`
}

// CreateCall places an outbound call that fetches its call-control markup
// from webhookURL when answered.
func (c *Client) CreateCall(ctx context.Context, to, from, webhookURL string) (*Call, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Url", webhookURL)

	var call Call
	if err := c.post(ctx, c.resource("Calls.json"), form, &call); err != nil {
		return nil, fmt.Errorf("create call: %w", err)
	}
	return &call, nil
}

// StartRecording begins dual-channel recording of an in-progress call.
// Recording-ready notifications are delivered to callbackURL.
func (c *Client) StartRecording(ctx context.Context, callSID, callbackURL string) (*Recording, error) {
	form := url.Values{}
	form.Set("RecordingStatusCallback", callbackURL)
	form.Set("RecordingStatusCallbackEvent", "in-progress completed")
	form.Set("RecordingChannels", "dual")

	var rec Recording
	path := c.resource(fmt.Sprintf("Calls/%s/Recordings.json", callSID))
	if err := c.post(ctx, path, form, &rec); err != nil {
		return nil, fmt.Errorf("start recording: %w", err)
	}
	return &rec, nil
}

func (c *Client) resource(suffix string) string {
	return fmt.Sprintf("%s/2010-04-01/Accounts/%s/%s", c.baseURL, c.accountSID, suffix)
}

func (c *Client) post(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
