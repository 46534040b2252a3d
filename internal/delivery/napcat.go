package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/infra"
)

// Target names the chat destination of a delivery. Exactly one of GroupID or
// UserID must be set.
type Target struct {
	GroupID string
	UserID  string
}

// Options configures the Napcat client.
type Options struct {
	BaseURL    string // e.g. http://localhost:8090
	Token      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client delivers local video files to a chat channel through the Napcat
// OneBot HTTP API. Delivery is best effort: failures are reported to the
// caller and never retried here, and resending the same file is harmless.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *infra.Logger
}

type messageSegment struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

type sendMessageRequest struct {
	GroupID string           `json:"group_id,omitempty"`
	UserID  string           `json:"user_id,omitempty"`
	Message []messageSegment `json:"message"`
}

type sendMessageResponse struct {
	Status  string `json:"status"`
	Retcode int    `json:"retcode"`
	Message string `json:"message"`
}

// New constructs a Napcat client.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		// Uploading a large video into the chat backend can take a while.
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		httpClient: httpClient,
		logger:     logger,
	}
}

// SendVideo delivers the local file at path to target, with an optional text
// caption in the same message.
func (c *Client) SendVideo(ctx context.Context, target Target, path, caption string) error {
	if target.GroupID == "" && target.UserID == "" {
		return errors.New("napcat: delivery target is required")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("napcat: video file: %w", err)
	}

	segments := []messageSegment{{
		Type: "video",
		Data: map[string]any{"file": "file://" + path},
	}}
	if caption != "" {
		segments = append(segments, messageSegment{
			Type: "text",
			Data: map[string]any{"text": caption},
		})
	}

	endpoint := c.baseURL + "/send_private_msg"
	payload := sendMessageRequest{UserID: target.UserID, Message: segments}
	if target.GroupID != "" {
		endpoint = c.baseURL + "/send_group_msg"
		payload = sendMessageRequest{GroupID: target.GroupID, Message: segments}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("napcat: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("napcat: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("napcat: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("napcat: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("napcat: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded sendMessageResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("napcat: decode response: %w", err)
	}
	if decoded.Retcode != 0 {
		return fmt.Errorf("napcat: send rejected (retcode %d): %s", decoded.Retcode, decoded.Message)
	}

	c.logger.Debug().Str("path", path).Str("group", target.GroupID).Str("user", target.UserID).
		Msg("napcat: video delivered")
	return nil
}
