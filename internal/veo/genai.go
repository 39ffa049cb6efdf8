package veo

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/blacktop/vidgen/internal/media"
)

// DefaultModel is the Veo model used when none is configured.
const DefaultModel = "veo-2.0-generate-001"

// Options configures the genai backed Service.
type Options struct {
	APIKey         string
	Model          string
	BaseURL        string
	NumberOfVideos int
	AspectRatio    string
	NegativePrompt string
	HTTPClient     *http.Client
}

// GenAI talks to Veo through the Gemini API.
type GenAI struct {
	client *genai.Client
	model  string
	config *genai.GenerateVideosConfig
}

// NewGenAI creates the genai client.
func NewGenAI(ctx context.Context, opts Options) (*GenAI, error) {
	if opts.APIKey == "" {
		return nil, errors.New("veo: missing API key")
	}
	cc := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("error creating genai client: %w", err)
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	return &GenAI{
		client: client,
		model:  model,
		config: videosConfig(opts),
	}, nil
}

// Model is the configured model name.
func (s *GenAI) Model() string {
	return s.model
}

func (s *GenAI) Submit(ctx context.Context, prompt string, image *media.Image) (*Job, error) {
	op, err := s.client.Models.GenerateVideos(ctx, s.model, prompt, genaiImage(image), s.config)
	if err != nil {
		return nil, translate(err)
	}
	return jobFromOperation(op), nil
}

func (s *GenAI) Poll(ctx context.Context, job *Job) (*Job, error) {
	op, ok := job.raw.(*genai.GenerateVideosOperation)
	if !ok {
		op = &genai.GenerateVideosOperation{Name: job.Name}
	}
	op, err := s.client.Operations.GetVideosOperation(ctx, op, nil)
	if err != nil {
		return nil, translate(err)
	}
	return jobFromOperation(op), nil
}

func (s *GenAI) Fetch(ctx context.Context, artifact Artifact) ([]byte, error) {
	if len(artifact.Inline) > 0 {
		return artifact.Inline, nil
	}
	video := &genai.Video{URI: artifact.URI, MIMEType: artifact.MIMEType}
	data, err := s.client.Files.Download(ctx, video, nil)
	if err != nil {
		return nil, translate(err)
	}
	return data, nil
}

func videosConfig(opts Options) *genai.GenerateVideosConfig {
	n := opts.NumberOfVideos
	if n <= 0 {
		n = 1
	}
	return &genai.GenerateVideosConfig{
		NumberOfVideos: int32(n),
		AspectRatio:    opts.AspectRatio,
		NegativePrompt: opts.NegativePrompt,
	}
}

func genaiImage(image *media.Image) *genai.Image {
	if image == nil || len(image.Bytes) == 0 {
		return nil
	}
	return &genai.Image{
		ImageBytes: image.Bytes,
		MIMEType:   image.MIMEType,
	}
}

func jobFromOperation(op *genai.GenerateVideosOperation) *Job {
	job := &Job{
		Name: op.Name,
		Done: op.Done,
		Err:  operationError(op.Error),
		raw:  op,
	}
	if op.Response == nil {
		return job
	}
	for _, gv := range op.Response.GeneratedVideos {
		if gv == nil || gv.Video == nil {
			continue
		}
		job.Artifacts = append(job.Artifacts, Artifact{
			URI:      gv.Video.URI,
			MIMEType: gv.Video.MIMEType,
			Inline:   gv.Video.VideoBytes,
		})
	}
	return job
}

func translate(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &RemoteServiceError{Code: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &RemoteServiceError{Code: apiErrPtr.Code, Status: apiErrPtr.Status, Message: apiErrPtr.Message}
	}
	return err
}

var _ Service = (*GenAI)(nil)
