package conversation

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

	"github.com/s21platform/chat-sync/internal/api"
	"github.com/s21platform/chat-sync/internal/infra"
)

const apiPrefix = "/chat/api"

type conversationResponse struct {
	Messages []Message `json:"messages"`
}

// Client talks to the conversation endpoints on behalf of one participant.
type Client struct {
	baseURL    string
	meID       string
	httpClient *http.Client
}

func New(baseURL, meID string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		meID:    meID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) MeID() string {
	return c.meID
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// FetchConversation returns the ordered conversation with otherID.
// A non-2xx answer yields ErrNoUpdate; any entry failing validation fails
// the whole fetch with ErrMalformed.
func (c *Client) FetchConversation(ctx context.Context, otherID string) ([]Message, error) {
	resp, err := c.do(ctx, http.MethodGet, apiPrefix+"/conversation/"+url.PathEscape(otherID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // .

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrNoUpdate, resp.StatusCode)
	}

	var body conversationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	messages := make([]Message, 0, len(body.Messages))
	for _, msg := range body.Messages {
		if err := msg.Validate(c.meID, otherID); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// SendMessage posts content to otherID. Blank content is rejected locally
// with ErrEmptyContent.
func (c *Client) SendMessage(ctx context.Context, otherID, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyContent
	}

	payload, err := json.Marshal(api.SendMessageRequest{
		ReceiverId: otherID,
		Content:    content,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, apiPrefix+"/send", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // .

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr api.Error
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

// ConnectToken requests a realtime connection token for the local participant.
func (c *Client) ConnectToken(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, apiPrefix+"/realtime/token", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck // .

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body api.GetConnectAccessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if body.Token == "" {
		return "", fmt.Errorf("empty connect token")
	}

	return body.Token, nil
}

// SubscribeToken requests a channel subscription token for the conversation
// with otherID and returns it together with the channel name.
func (c *Client) SubscribeToken(ctx context.Context, otherID string) (string, string, error) {
	resp, err := c.do(ctx, http.MethodGet, apiPrefix+"/realtime/token/"+url.PathEscape(otherID), nil)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close() //nolint:errcheck // .

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body api.GetSubscribeTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", fmt.Errorf("failed to decode response: %w", err)
	}

	return body.Token, body.Channel, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(infra.HeaderUserID, c.meID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	return resp, nil
}
