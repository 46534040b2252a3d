package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/domain"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/infra"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/providers/ark"
)

// TaskAPI is the remote generation surface the poller drives.
type TaskAPI interface {
	CreateTask(ctx context.Context, req ark.TaskRequest) (string, error)
	GetTask(ctx context.Context, taskID string) (*ark.TaskStatus, error)
}

// PollerConfig bounds one polling lifecycle.
type PollerConfig struct {
	// Interval between status queries.
	Interval time.Duration
	// MaxWait is the wall-clock ceiling measured from submission. Once
	// exceeded the job terminates as TimedOut regardless of how many poll
	// attempts failed transiently along the way.
	MaxWait time.Duration
}

func (c PollerConfig) withDefaults() PollerConfig {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.MaxWait <= 0 {
		c.MaxWait = 600 * time.Second
	}
	return c
}

// Poller owns the lifecycle of one submitted generation request: submit, poll
// until terminal, resolve. Terminal states are sticky; a terminal job is
// returned unchanged on re-await.
type Poller struct {
	api    TaskAPI
	cfg    PollerConfig
	logger *infra.Logger
	now    func() time.Time
}

// NewPoller constructs a poller over the given remote API.
func NewPoller(api TaskAPI, cfg PollerConfig, logger *infra.Logger) *Poller {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Poller{api: api, cfg: cfg.withDefaults(), logger: logger, now: time.Now}
}

// Submit sends the generation request to the remote service. The returned Job
// is already in the Polling state, ready for AwaitTerminal.
func (p *Poller) Submit(ctx context.Context, req domain.GenerationRequest) (*domain.Job, error) {
	taskID, err := p.api.CreateTask(ctx, ark.TaskRequest{
		Model:           req.ModelID,
		Prompt:          req.Prompt,
		ImageURL:        req.ImageURL,
		Ratio:           req.Ratio,
		Duration:        req.Duration,
		Watermark:       req.Watermark,
		GenerateAudio:   req.GenerateAudio,
		Draft:           req.Draft,
		ReturnLastFrame: req.ReturnLastFrame,
	})
	if err != nil {
		return nil, fmt.Errorf("submit generation: %w", err)
	}
	job := &domain.Job{
		RemoteID:    taskID,
		Request:     req,
		State:       domain.JobSubmitted,
		SubmittedAt: p.now(),
	}
	job.State = domain.JobPolling
	p.logger.Info().Str("task_id", taskID).Str("model", req.ModelID).Msg("generation task submitted")
	return job, nil
}

// AwaitTerminal polls remote status at the configured interval until the job
// reaches a terminal state. Transient transport or decode errors do not
// terminate the job; they are absorbed and retried on the next tick, up to the
// overall ceiling. Exhausting the ceiling yields TimedOut whether the remote
// stayed pending or every poll failed transiently.
func (p *Poller) AwaitTerminal(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	if job == nil {
		return nil, errors.New("await terminal: nil job")
	}
	if job.State.Terminal() {
		return job, nil
	}

	deadline := job.SubmittedAt.Add(p.cfg.MaxWait)
	timer := time.NewTimer(p.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		job.Attempts++
		job.LastPollAt = p.now()

		status, err := p.api.GetTask(ctx, job.RemoteID)
		if err != nil {
			p.logger.Warn().Err(err).Str("task_id", job.RemoteID).Int("attempt", job.Attempts).
				Msg("poll failed, will retry")
		} else {
			switch status.State {
			case ark.TaskSucceeded:
				job.State = domain.JobSucceeded
				job.Result = &domain.JobResult{
					VideoURL:     status.VideoURL,
					LastFrameURL: status.LastFrameURL,
				}
				p.logger.Info().Str("task_id", job.RemoteID).Int("attempts", job.Attempts).
					Msg("generation succeeded")
				return job, nil
			case ark.TaskFailed:
				job.State = domain.JobFailed
				job.FailureMessage = status.FailureMessage
				p.logger.Warn().Str("task_id", job.RemoteID).Str("reason", status.FailureMessage).
					Msg("generation failed")
				return job, nil
			default:
				p.logger.Debug().Str("task_id", job.RemoteID).Str("status", string(status.State)).
					Dur("elapsed", p.now().Sub(job.SubmittedAt)).Msg("generation in progress")
			}
		}

		if !p.now().Before(deadline) {
			job.State = domain.JobTimedOut
			p.logger.Warn().Str("task_id", job.RemoteID).Int("attempts", job.Attempts).
				Msg("generation timed out")
			return job, nil
		}
		timer.Reset(p.cfg.Interval)
	}
}
