package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/domain"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/providers/ark"
)

type pollStep struct {
	status *ark.TaskStatus
	err    error
}

type stubTaskAPI struct {
	createID   string
	createErr  error
	createReqs []ark.TaskRequest
	steps      []pollStep
	polls      int
}

func (s *stubTaskAPI) CreateTask(ctx context.Context, req ark.TaskRequest) (string, error) {
	s.createReqs = append(s.createReqs, req)
	if s.createErr != nil {
		return "", s.createErr
	}
	if s.createID == "" {
		return "task-1", nil
	}
	return s.createID, nil
}

func (s *stubTaskAPI) GetTask(ctx context.Context, taskID string) (*ark.TaskStatus, error) {
	step := s.steps[len(s.steps)-1]
	if s.polls < len(s.steps) {
		step = s.steps[s.polls]
	}
	s.polls++
	return step.status, step.err
}

func testConfig() PollerConfig {
	return PollerConfig{Interval: 2 * time.Millisecond, MaxWait: 30 * time.Millisecond}
}

func TestSubmitCreatesPollingJob(t *testing.T) {
	api := &stubTaskAPI{createID: "task-42"}
	p := NewPoller(api, testConfig(), nil)

	job, err := p.Submit(context.Background(), domain.GenerationRequest{
		Prompt:  "a cat playing with a ball",
		ModelID: "doubao-seedance-1-0-pro-250528",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.RemoteID != "task-42" {
		t.Fatalf("RemoteID = %q", job.RemoteID)
	}
	if job.State != domain.JobPolling {
		t.Fatalf("State = %q, want polling", job.State)
	}
	if len(api.createReqs) != 1 || api.createReqs[0].Model != "doubao-seedance-1-0-pro-250528" {
		t.Fatalf("create requests = %#v", api.createReqs)
	}
}

func TestSubmitPropagatesRejection(t *testing.T) {
	api := &stubTaskAPI{createErr: errors.New("quota exhausted")}
	p := NewPoller(api, testConfig(), nil)

	if _, err := p.Submit(context.Background(), domain.GenerationRequest{Prompt: "x"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestAwaitTerminalSuccess(t *testing.T) {
	api := &stubTaskAPI{steps: []pollStep{
		{status: &ark.TaskStatus{State: ark.TaskRunning}},
		{status: &ark.TaskStatus{State: ark.TaskSucceeded, VideoURL: "https://cdn.example.com/v.mp4", LastFrameURL: "https://cdn.example.com/f.jpg"}},
	}}
	p := NewPoller(api, testConfig(), nil)

	job, _ := p.Submit(context.Background(), domain.GenerationRequest{Prompt: "x"})
	job, err := p.AwaitTerminal(context.Background(), job)
	if err != nil {
		t.Fatalf("AwaitTerminal: %v", err)
	}
	if job.State != domain.JobSucceeded {
		t.Fatalf("State = %q", job.State)
	}
	if job.Result == nil || job.Result.VideoURL != "https://cdn.example.com/v.mp4" {
		t.Fatalf("Result = %#v", job.Result)
	}
	if job.Result.LastFrameURL != "https://cdn.example.com/f.jpg" {
		t.Fatalf("LastFrameURL = %q", job.Result.LastFrameURL)
	}
	if job.Attempts != 2 {
		t.Fatalf("Attempts = %d, want 2", job.Attempts)
	}
}

func TestAwaitTerminalRemoteFailure(t *testing.T) {
	api := &stubTaskAPI{steps: []pollStep{
		{status: &ark.TaskStatus{State: ark.TaskFailed, FailureMessage: "content policy"}},
	}}
	p := NewPoller(api, testConfig(), nil)

	job, _ := p.Submit(context.Background(), domain.GenerationRequest{Prompt: "x"})
	job, err := p.AwaitTerminal(context.Background(), job)
	if err != nil {
		t.Fatalf("AwaitTerminal: %v", err)
	}
	if job.State != domain.JobFailed {
		t.Fatalf("State = %q", job.State)
	}
	if job.FailureMessage != "content policy" {
		t.Fatalf("FailureMessage = %q", job.FailureMessage)
	}
}

func TestAwaitTerminalTimesOutWhileRunning(t *testing.T) {
	api := &stubTaskAPI{steps: []pollStep{
		{status: &ark.TaskStatus{State: ark.TaskRunning}},
	}}
	cfg := testConfig()
	p := NewPoller(api, cfg, nil)

	job, _ := p.Submit(context.Background(), domain.GenerationRequest{Prompt: "x"})
	start := job.SubmittedAt
	job, err := p.AwaitTerminal(context.Background(), job)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("AwaitTerminal: %v", err)
	}
	if job.State != domain.JobTimedOut {
		t.Fatalf("State = %q, want timed_out", job.State)
	}
	if elapsed < cfg.MaxWait {
		t.Fatalf("timed out after %v, before the %v ceiling", elapsed, cfg.MaxWait)
	}
	// Bounded overshoot: at most one extra attempt past the ceiling.
	maxAttempts := int(cfg.MaxWait/cfg.Interval) + 2
	if job.Attempts > maxAttempts {
		t.Fatalf("Attempts = %d, want at most %d", job.Attempts, maxAttempts)
	}
}

func TestAwaitTerminalTimesOutOnPersistentTransportErrors(t *testing.T) {
	api := &stubTaskAPI{steps: []pollStep{
		{err: errors.New("connection refused")},
	}}
	p := NewPoller(api, testConfig(), nil)

	job, _ := p.Submit(context.Background(), domain.GenerationRequest{Prompt: "x"})
	job, err := p.AwaitTerminal(context.Background(), job)
	if err != nil {
		t.Fatalf("AwaitTerminal: %v", err)
	}
	if job.State != domain.JobTimedOut {
		t.Fatalf("State = %q: transport errors must surface as timeout, not a distinct state", job.State)
	}
	if api.polls < 2 {
		t.Fatalf("polls = %d: transient errors must be retried", api.polls)
	}
}

func TestAwaitTerminalRecoversFromTransientErrors(t *testing.T) {
	api := &stubTaskAPI{steps: []pollStep{
		{err: errors.New("malformed response")},
		{err: errors.New("connection reset")},
		{status: &ark.TaskStatus{State: ark.TaskSucceeded, VideoURL: "https://cdn.example.com/v.mp4"}},
	}}
	p := NewPoller(api, testConfig(), nil)

	job, _ := p.Submit(context.Background(), domain.GenerationRequest{Prompt: "x"})
	job, err := p.AwaitTerminal(context.Background(), job)
	if err != nil {
		t.Fatalf("AwaitTerminal: %v", err)
	}
	if job.State != domain.JobSucceeded {
		t.Fatalf("State = %q", job.State)
	}
	if job.Attempts != 3 {
		t.Fatalf("Attempts = %d, want 3", job.Attempts)
	}
}

func TestAwaitTerminalIsIdempotentOnTerminalJobs(t *testing.T) {
	api := &stubTaskAPI{steps: []pollStep{
		{status: &ark.TaskStatus{State: ark.TaskSucceeded, VideoURL: "u"}},
	}}
	p := NewPoller(api, testConfig(), nil)

	job, _ := p.Submit(context.Background(), domain.GenerationRequest{Prompt: "x"})
	job, err := p.AwaitTerminal(context.Background(), job)
	if err != nil {
		t.Fatalf("AwaitTerminal: %v", err)
	}
	pollsAfterTerminal := api.polls

	again, err := p.AwaitTerminal(context.Background(), job)
	if err != nil {
		t.Fatalf("re-await: %v", err)
	}
	if again != job {
		t.Fatalf("terminal job must be returned unchanged")
	}
	if api.polls != pollsAfterTerminal {
		t.Fatalf("poller polled past a terminal state")
	}
}

func TestAwaitTerminalHonorsCancellation(t *testing.T) {
	api := &stubTaskAPI{steps: []pollStep{
		{status: &ark.TaskStatus{State: ark.TaskRunning}},
	}}
	p := NewPoller(api, PollerConfig{Interval: time.Hour, MaxWait: time.Hour}, nil)

	job, _ := p.Submit(context.Background(), domain.GenerationRequest{Prompt: "x"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.AwaitTerminal(ctx, job); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
