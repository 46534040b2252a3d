package ark

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("ark: api key is required")

// Models the Ark video generation endpoint currently accepts.
var supportedModels = []string{
	"doubao-seedance-1-0-pro-250528",
	"doubao-seedance-1-5-pro-251215",
	"doubao-seedance-1-0-lite-i2v-250428",
}

// SupportedModels returns the known video generation model identifiers.
func SupportedModels() []string {
	out := make([]string, len(supportedModels))
	copy(out, supportedModels)
	return out
}

// TaskState enumerates the remote task lifecycle as reported by Ark.
type TaskState string

const (
	TaskQueued    TaskState = "queued"
	TaskRunning   TaskState = "running"
	TaskSucceeded TaskState = "succeeded"
	TaskFailed    TaskState = "failed"
)

// TaskRequest captures the inputs for one content generation task.
type TaskRequest struct {
	Model           string
	Prompt          string
	ImageURL        string
	Ratio           string
	Duration        int
	Watermark       bool
	GenerateAudio   bool
	Draft           bool
	ReturnLastFrame bool
}

// TaskStatus is the normalized answer of a status query. A failed task is a
// definitive remote answer, not an error; transport and decode problems are
// returned as errors so callers can treat them as transient.
type TaskStatus struct {
	ID             string
	State          TaskState
	VideoURL       string
	LastFrameURL   string
	FailureMessage string
}

// Options configures the Ark client.
type Options struct {
	APIKey         string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the Ark content generation tasks API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type createTaskRequest struct {
	Model           string        `json:"model"`
	Content         []contentPart `json:"content"`
	Ratio           string        `json:"ratio,omitempty"`
	Duration        int           `json:"duration,omitempty"`
	Watermark       bool          `json:"watermark"`
	ReturnLastFrame bool          `json:"return_last_frame"`
	GenerateAudio   bool          `json:"generate_audio"`
	Draft           bool          `json:"draft"`
}

type createTaskResponse struct {
	ID string `json:"id"`
}

type taskStatusResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Content struct {
		VideoURL     string `json:"video_url"`
		URL          string `json:"url"`
		DownloadURL  string `json:"download_url"`
		LastFrameURL string `json:"last_frame_url"`
	} `json:"content"`
	VideoURL string `json:"video_url"`
	URL      string `json:"url"`
	Error    struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 45 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
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
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    normalizeBaseURL(opts.BaseURL),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// normalizeBaseURL strips a trailing slash and appends the /api/v3 prefix
// unless the configured base already carries it.
func normalizeBaseURL(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = "https://ark.cn-beijing.volces.com"
	}
	if !strings.Contains(base, "/api/v3") {
		base += "/api/v3"
	}
	return base
}

// CreateTask submits a generation request and returns the opaque task id
// assigned by the remote service.
func (c *Client) CreateTask(ctx context.Context, req TaskRequest) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("ark: prompt is required")
	}
	content := []contentPart{{Type: "text", Text: prompt}}
	if url := strings.TrimSpace(req.ImageURL); url != "" {
		content = append(content, contentPart{Type: "image_url", ImageURL: &imageURL{URL: url}})
	}
	payload := createTaskRequest{
		Model:           req.Model,
		Content:         content,
		Ratio:           req.Ratio,
		Duration:        req.Duration,
		Watermark:       req.Watermark,
		ReturnLastFrame: req.ReturnLastFrame,
		GenerateAudio:   req.GenerateAudio,
		Draft:           req.Draft,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ark: encode request: %w", err)
	}
	endpoint := c.baseURL + "/contents/generations/tasks"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ark: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ark: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ark: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("ark: create task: %s", remoteDetail(resp.StatusCode, raw))
	}

	var decoded createTaskResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("ark: decode response: %w", err)
	}
	if decoded.ID == "" {
		return "", errors.New("ark: create task: empty task id")
	}
	c.logger.Debug().Str("task_id", decoded.ID).Str("model", req.Model).Msg("ark: task created")
	return decoded.ID, nil
}

// GetTask queries the status of a previously created task.
func (c *Client) GetTask(ctx context.Context, taskID string) (*TaskStatus, error) {
	if strings.TrimSpace(taskID) == "" {
		return nil, errors.New("ark: task id is required")
	}
	endpoint := c.baseURL + "/contents/generations/tasks/" + taskID
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("ark: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ark: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ark: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ark: task status: %s", remoteDetail(resp.StatusCode, raw))
	}

	var decoded taskStatusResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("ark: decode response: %w", err)
	}

	status := &TaskStatus{ID: decoded.ID}
	switch decoded.Status {
	case "succeeded":
		status.State = TaskSucceeded
		status.VideoURL = firstNonEmpty(
			decoded.Content.VideoURL,
			decoded.Content.URL,
			decoded.Content.DownloadURL,
			decoded.VideoURL,
			decoded.URL,
		)
		status.LastFrameURL = decoded.Content.LastFrameURL
		if status.VideoURL == "" {
			return nil, errors.New("ark: task succeeded without a video url")
		}
	case "failed":
		status.State = TaskFailed
		status.FailureMessage = decoded.Error.Message
		if status.FailureMessage == "" {
			status.FailureMessage = "unknown error"
		}
	case "queued":
		status.State = TaskQueued
	case "running":
		status.State = TaskRunning
	default:
		return nil, fmt.Errorf("ark: unknown task status %q", decoded.Status)
	}
	return status, nil
}

func remoteDetail(statusCode int, raw []byte) string {
	var detail errorResponse
	if err := json.Unmarshal(raw, &detail); err == nil {
		if detail.Error.Message != "" {
			return fmt.Sprintf("%s (%s)", detail.Error.Message, detail.Error.Code)
		}
		if detail.Message != "" {
			return detail.Message
		}
	}
	return fmt.Sprintf("status %d: %s", statusCode, strings.TrimSpace(string(raw)))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
