package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotFound is returned by catalog lookups that match nothing.
var ErrNotFound = errors.New("not found")

// GenerationStage classifies where a generation attempt failed.
type GenerationStage string

const (
	StageSubmissionRejected GenerationStage = "submission_rejected"
	StageRemoteFailed       GenerationStage = "remote_failed"
	StageTimedOut           GenerationStage = "timed_out"
	StageFetchFailed        GenerationStage = "fetch_failed"
	StageStoreCommitFailed  GenerationStage = "store_commit_failed"
)

// GenerationError reports a failed generation attempt with enough context to
// render a user-facing message or to recover partial work.
type GenerationError struct {
	Stage         GenerationStage
	RemoteMessage string
	// VideoURL is set when the remote generation succeeded but a later stage
	// failed, so the fetch can be retried without resubmitting the request.
	VideoURL string
	// LocalPath is set when the asset was downloaded but the catalog commit
	// failed, so an operator can recover the file.
	LocalPath string
	Err       error
}

func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("generation ")
	b.WriteString(string(e.Stage))
	if e.RemoteMessage != "" {
		b.WriteString(": ")
		b.WriteString(e.RemoteMessage)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *GenerationError) Unwrap() error { return e.Err }

// AmbiguousMatchError reports a fuzzy lookup that matched more than one
// catalog entry. Candidates are ordered by ascending identifier so a caller
// can present a disambiguation list.
type AmbiguousMatchError struct {
	Token      string
	Candidates []CatalogEntry
}

func (e *AmbiguousMatchError) Error() string {
	ids := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		ids[i] = strconv.FormatInt(c.ID, 10)
	}
	return fmt.Sprintf("token %q matches entries %s", e.Token, strings.Join(ids, ", "))
}
