package domain

import "time"

// GenerationRequest captures a single video generation ask. It is immutable
// once submitted; the orchestrator resolves the default model before handing
// the request to the poller.
type GenerationRequest struct {
	ID              string
	Prompt          string
	ModelID         string
	ImageURL        string // optional first-frame reference for i2v models
	Ratio           string
	Duration        int
	Watermark       bool
	GenerateAudio   bool
	Draft           bool
	ReturnLastFrame bool
	CreatedAt       time.Time
}
