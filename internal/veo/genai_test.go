package veo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genai"

	"github.com/blacktop/vidgen/internal/media"
)

func TestJobFromOperation(t *testing.T) {
	op := &genai.GenerateVideosOperation{
		Name: "operations/123",
		Done: true,
		Response: &genai.GenerateVideosResponse{
			GeneratedVideos: []*genai.GeneratedVideo{
				nil,
				{Video: &genai.Video{URI: "https://example.com/v1beta/files/a:download", MIMEType: "video/mp4"}},
				{Video: &genai.Video{VideoBytes: []byte("inline")}},
			},
		},
	}
	job := jobFromOperation(op)
	if job.Name != "operations/123" || !job.Done {
		t.Fatalf("job = %+v", job)
	}
	if job.Err != nil {
		t.Fatalf("job err = %v", job.Err)
	}
	if len(job.Artifacts) != 2 {
		t.Fatalf("artifacts = %d, want 2", len(job.Artifacts))
	}
	if job.Artifacts[0].URI != "https://example.com/v1beta/files/a:download" {
		t.Fatalf("first artifact = %+v", job.Artifacts[0])
	}
	if string(job.Artifacts[1].Inline) != "inline" {
		t.Fatalf("second artifact = %+v", job.Artifacts[1])
	}
	if job.raw != op {
		t.Fatal("expected operation kept for polling")
	}
}

func TestJobFromOperationError(t *testing.T) {
	job := jobFromOperation(&genai.GenerateVideosOperation{
		Name:  "operations/123",
		Done:  true,
		Error: map[string]any{"code": float64(400), "message": "prompt blocked"},
	})
	var rerr *RemoteServiceError
	if !errors.As(job.Err, &rerr) || rerr.Code != 400 {
		t.Fatalf("job err = %v", job.Err)
	}
	if len(job.Artifacts) != 0 {
		t.Fatalf("artifacts = %d, want 0", len(job.Artifacts))
	}
}

func TestTranslate(t *testing.T) {
	err := translate(fmt.Errorf("call: %w", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota"}))
	var rerr *RemoteServiceError
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %T, want *RemoteServiceError", err)
	}
	if !rerr.QuotaExceeded() {
		t.Fatalf("err = %+v, want quota", rerr)
	}

	plain := errors.New("dial tcp: refused")
	if got := translate(plain); got != plain {
		t.Fatalf("translate(plain) = %v, want unchanged", got)
	}
}

func TestGenaiImage(t *testing.T) {
	if genaiImage(nil) != nil {
		t.Fatal("nil image should not be attached")
	}
	if genaiImage(&media.Image{}) != nil {
		t.Fatal("empty image should not be attached")
	}
	img := genaiImage(&media.Image{Bytes: []byte{1}, MIMEType: "image/jpeg"})
	if img == nil || img.MIMEType != "image/jpeg" || len(img.ImageBytes) != 1 {
		t.Fatalf("image = %+v", img)
	}
}

func TestVideosConfig(t *testing.T) {
	cfg := videosConfig(Options{AspectRatio: "9:16", NegativePrompt: "blur"})
	if cfg.NumberOfVideos != 1 {
		t.Fatalf("number of videos = %d, want 1", cfg.NumberOfVideos)
	}
	if cfg.AspectRatio != "9:16" || cfg.NegativePrompt != "blur" {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestNewGenAIRequiresKey(t *testing.T) {
	if _, err := NewGenAI(context.Background(), Options{}); err == nil {
		t.Fatal("expected missing key error")
	}
}
