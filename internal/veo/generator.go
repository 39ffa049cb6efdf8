package veo

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/blacktop/vidgen/internal/media"
)

// DefaultPollInterval is how long to wait between status checks.
const DefaultPollInterval = 2 * time.Second

// Request is a single generation.
type Request struct {
	Prompt string
	Image  *media.Image
}

// Progress is reported on every state change and every poll.
type Progress struct {
	State   State
	Attempt int
	Job     *Job
}

// Generator drives a job from submission to a playable local video.
type Generator struct {
	Service      Service
	PollInterval time.Duration
	// Dir is where result files are written (os.TempDir when empty).
	Dir        string
	OnProgress func(Progress)
	Logger     *log.Logger
}

// NewGenerator returns a Generator using the default poll interval.
func NewGenerator(svc Service) *Generator {
	return &Generator{
		Service:      svc,
		PollInterval: DefaultPollInterval,
		Logger:       log.Default(),
	}
}

// Generate submits req, polls until the job is done and fetches the first
// video. Errors from the service are returned as is; nothing is retried and
// the poll loop only ends when the service reports the job done.
func (g *Generator) Generate(ctx context.Context, req Request) (*media.Video, error) {
	logger := g.logger()

	job, err := g.Service.Submit(ctx, req.Prompt, req.Image)
	if err != nil {
		return nil, err
	}
	logger.Debug("Job submitted", "name", job.Name, "image", req.Image != nil)
	g.report(Progress{State: StateSubmitted, Job: job})

	for attempt := 1; !job.Done; attempt++ {
		logger.Debug("Waiting for completion", "name", job.Name, "attempt", attempt)
		g.report(Progress{State: StatePolling, Attempt: attempt, Job: job})
		if err := sleep(ctx, g.interval()); err != nil {
			return nil, err
		}
		job, err = g.Service.Poll(ctx, job)
		if err != nil {
			return nil, err
		}
	}

	if job.Err != nil {
		g.report(Progress{State: StateFailed, Job: job})
		return nil, job.Err
	}
	if len(job.Artifacts) == 0 {
		g.report(Progress{State: StateFailed, Job: job})
		return nil, ErrEmptyResult
	}
	g.report(Progress{State: StateCompleted, Job: job})

	artifact := job.Artifacts[0]
	data, err := g.Service.Fetch(ctx, artifact)
	if err != nil {
		return nil, err
	}
	logger.Debug("Fetched video", "uri", artifact.URI, "size", len(data))

	return media.NewVideo(g.Dir, data, artifact.MIMEType)
}

func (g *Generator) interval() time.Duration {
	if g.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return g.PollInterval
}

func (g *Generator) logger() *log.Logger {
	if g.Logger == nil {
		return log.Default()
	}
	return g.Logger
}

func (g *Generator) report(p Progress) {
	if g.OnProgress != nil {
		g.OnProgress(p)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
