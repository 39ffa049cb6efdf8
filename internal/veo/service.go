package veo

import (
	"context"

	"github.com/blacktop/vidgen/internal/media"
)

// Service is the remote side of a video generation: submit a job, re-query it
// and fetch what it produced.
type Service interface {
	Submit(ctx context.Context, prompt string, image *media.Image) (*Job, error)
	Poll(ctx context.Context, job *Job) (*Job, error)
	Fetch(ctx context.Context, artifact Artifact) ([]byte, error)
}

// Job is the remote handle of a single generation.
type Job struct {
	Name      string
	Done      bool
	Artifacts []Artifact
	// Err is set when the job finished without producing a result.
	Err error

	// raw is the backend specific operation, passed back on Poll.
	raw any
}

// Artifact references one generated video.
type Artifact struct {
	URI      string
	MIMEType string
	// Inline holds the bytes when the service returned them directly.
	Inline []byte
}

// State is where a Job is in its lifecycle.
type State string

const (
	StateSubmitted State = "submitted"
	StatePolling   State = "polling"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)
