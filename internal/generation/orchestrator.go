package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/catalog"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/domain"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/fetch"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/infra"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/storage"
)

// Submitter drives a job to a terminal state.
type Submitter interface {
	Submit(ctx context.Context, req domain.GenerationRequest) (*domain.Job, error)
	AwaitTerminal(ctx context.Context, job *domain.Job) (*domain.Job, error)
}

// Fetcher retrieves a remote asset to a local destination.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) (*fetch.Result, error)
}

// ModelDefaulter supplies the process-wide default model.
type ModelDefaulter interface {
	Default() string
}

// Orchestrator is the facade over one full generation cycle: submit, poll to
// terminal, download, commit. Listing and playback never pass through here.
type Orchestrator struct {
	poller  Submitter
	fetcher Fetcher
	store   *catalog.Store
	files   *storage.FileStore
	models  ModelDefaulter
	logger  *infra.Logger
	now     func() time.Time
}

// NewOrchestrator wires the generation pipeline. It places no limit on
// concurrent Generate calls; the catalog commit path is the only
// serialization point.
func NewOrchestrator(poller Submitter, fetcher Fetcher, store *catalog.Store, files *storage.FileStore, models ModelDefaulter, logger *infra.Logger) *Orchestrator {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Orchestrator{
		poller:  poller,
		fetcher: fetcher,
		store:   store,
		files:   files,
		models:  models,
		logger:  logger,
		now:     time.Now,
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// originalFilename reconstructs the descriptive remote-style filename that is
// kept in metadata only; local files are named by catalog identifier.
func originalFilename(req domain.GenerationRequest, at time.Time) string {
	prompt := req.Prompt
	if len([]rune(prompt)) > 20 {
		prompt = string([]rune(prompt)[:20])
	}
	if prompt == "" {
		prompt = "video"
	}
	prompt = unsafeFilenameChars.ReplaceAllString(prompt, "_")
	return fmt.Sprintf("豆包_%s_%d.mp4", prompt, at.Unix())
}

// Generate runs one generation request to completion and returns the durable
// catalog entry. Failures come back as *domain.GenerationError with the stage
// and enough detail to render a user-facing message or recover partial work.
func (o *Orchestrator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.CatalogEntry, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.ModelID == "" {
		req.ModelID = o.models.Default()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = o.now()
	}
	log := o.logger.With().Str("request_id", req.ID).Str("model", req.ModelID).Logger()
	log.Info().Str("prompt", truncate(req.Prompt, 50)).Msg("starting video generation")

	job, err := o.poller.Submit(ctx, req)
	if err != nil {
		return nil, &domain.GenerationError{Stage: domain.StageSubmissionRejected, Err: err}
	}

	job, err = o.poller.AwaitTerminal(ctx, job)
	if err != nil {
		// Cooperative cancellation: the caller gave up before the ceiling.
		return nil, &domain.GenerationError{Stage: domain.StageTimedOut, Err: err}
	}
	switch job.State {
	case domain.JobFailed:
		return nil, &domain.GenerationError{Stage: domain.StageRemoteFailed, RemoteMessage: job.FailureMessage}
	case domain.JobTimedOut:
		return nil, &domain.GenerationError{Stage: domain.StageTimedOut}
	case domain.JobSucceeded:
	default:
		return nil, &domain.GenerationError{
			Stage: domain.StageRemoteFailed,
			Err:   fmt.Errorf("job ended in non-terminal state %q", job.State),
		}
	}

	staged := o.files.StagingPath(".mp4")
	res, err := o.fetcher.Fetch(ctx, job.Result.VideoURL, staged)
	if err != nil {
		return nil, &domain.GenerationError{
			Stage:    domain.StageFetchFailed,
			VideoURL: job.Result.VideoURL,
			Err:      err,
		}
	}

	var stagedFrame string
	if req.ReturnLastFrame && job.Result.LastFrameURL != "" {
		frame := o.files.StagingPath(".jpg")
		if _, err := o.fetcher.Fetch(ctx, job.Result.LastFrameURL, frame); err != nil {
			// The last frame is auxiliary; losing it does not fail the job.
			log.Warn().Err(err).Msg("last frame download failed")
		} else {
			stagedFrame = frame
		}
	}

	draft := domain.EntryDraft{
		Prompt:           req.Prompt,
		ModelID:          req.ModelID,
		OriginalFilename: originalFilename(req, req.CreatedAt),
		LocalPath:        res.Path,
	}
	entry, err := o.store.Commit(draft, func(id int64) (string, error) {
		final := o.files.VideoPath(id)
		if err := o.files.Publish(res.Path, final); err != nil {
			return "", err
		}
		if stagedFrame != "" {
			if err := o.files.Publish(stagedFrame, o.files.FramePath(id)); err != nil {
				log.Warn().Err(err).Msg("last frame publish failed")
			}
		}
		return final, nil
	})
	if err != nil {
		genErr := &domain.GenerationError{
			Stage:     domain.StageStoreCommitFailed,
			VideoURL:  job.Result.VideoURL,
			LocalPath: res.Path,
			Err:       err,
		}
		var commitErr *catalog.CommitError
		if errors.As(err, &commitErr) {
			genErr.LocalPath = commitErr.LocalPath
		}
		return nil, genErr
	}

	log.Info().Int64("id", entry.ID).Str("path", entry.LocalPath).
		Int64("bytes", res.Bytes).Msg("video generation complete")
	return entry, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

var _ Fetcher = (*fetch.Fetcher)(nil)
