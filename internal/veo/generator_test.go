package veo

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/blacktop/vidgen/internal/media"
)

type fakeService struct {
	submitted  bool
	gotImage   *media.Image
	gotPrompt  string
	polls      int
	doneAfter  int
	artifacts  []Artifact
	jobErr     error
	submitErr  error
	pollErr    error
	fetchErr   error
	fetched    []Artifact
	data       []byte
	pollsAfter int
}

func (f *fakeService) Submit(_ context.Context, prompt string, image *media.Image) (*Job, error) {
	f.submitted = true
	f.gotPrompt = prompt
	f.gotImage = image
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.job(), nil
}

func (f *fakeService) Poll(_ context.Context, job *Job) (*Job, error) {
	if job.Done {
		f.pollsAfter++
	}
	f.polls++
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	return f.job(), nil
}

func (f *fakeService) Fetch(_ context.Context, a Artifact) ([]byte, error) {
	f.fetched = append(f.fetched, a)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.data, nil
}

func (f *fakeService) job() *Job {
	job := &Job{Name: "operations/test", Done: f.polls >= f.doneAfter}
	if job.Done {
		job.Artifacts = f.artifacts
		job.Err = f.jobErr
	}
	return job
}

func newTestGenerator(t *testing.T, svc Service) *Generator {
	t.Helper()
	g := NewGenerator(svc)
	g.PollInterval = time.Millisecond
	g.Dir = t.TempDir()
	g.Logger = log.New(io.Discard)
	return g
}

func TestGenerateWithoutImage(t *testing.T) {
	svc := &fakeService{
		artifacts: []Artifact{{URI: "files/abc", MIMEType: "video/mp4"}},
		data:      []byte("mp4"),
	}
	g := newTestGenerator(t, svc)

	video, err := g.Generate(context.Background(), Request{Prompt: "a cat"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	defer video.Release()

	if svc.gotImage != nil {
		t.Fatalf("submitted image = %v, want nil", svc.gotImage)
	}
	if svc.gotPrompt != "a cat" {
		t.Fatalf("prompt = %q, want %q", svc.gotPrompt, "a cat")
	}
	data, err := os.ReadFile(video.Path())
	if err != nil {
		t.Fatalf("read video: %v", err)
	}
	if string(data) != "mp4" {
		t.Fatalf("video data = %q, want %q", data, "mp4")
	}
}

func TestGenerateWithImage(t *testing.T) {
	img := &media.Image{Name: "in.png", Bytes: []byte{1, 2, 3}, MIMEType: "image/png"}
	svc := &fakeService{
		artifacts: []Artifact{{URI: "files/abc"}},
		data:      []byte("mp4"),
	}
	g := newTestGenerator(t, svc)

	video, err := g.Generate(context.Background(), Request{Prompt: "a cat", Image: img})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	defer video.Release()

	if svc.gotImage != img {
		t.Fatalf("submitted image = %v, want %v", svc.gotImage, img)
	}
}

func TestGeneratePollsUntilDone(t *testing.T) {
	for _, doneAfter := range []int{0, 1, 5} {
		svc := &fakeService{
			doneAfter: doneAfter,
			artifacts: []Artifact{{URI: "files/abc"}},
			data:      []byte("mp4"),
		}
		g := newTestGenerator(t, svc)
		var polling int
		g.OnProgress = func(p Progress) {
			if p.State == StatePolling {
				polling++
			}
		}

		video, err := g.Generate(context.Background(), Request{Prompt: "p"})
		if err != nil {
			t.Fatalf("doneAfter=%d: generate: %v", doneAfter, err)
		}
		video.Release()

		if svc.polls != doneAfter {
			t.Fatalf("doneAfter=%d: polls = %d", doneAfter, svc.polls)
		}
		if polling != doneAfter {
			t.Fatalf("doneAfter=%d: polling reports = %d", doneAfter, polling)
		}
		if svc.pollsAfter != 0 {
			t.Fatalf("doneAfter=%d: polled %d times after done", doneAfter, svc.pollsAfter)
		}
	}
}

func TestGenerateEmptyResult(t *testing.T) {
	svc := &fakeService{doneAfter: 1}
	g := newTestGenerator(t, svc)
	var last State
	g.OnProgress = func(p Progress) { last = p.State }

	video, err := g.Generate(context.Background(), Request{Prompt: "p"})
	if !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("err = %v, want %v", err, ErrEmptyResult)
	}
	if video != nil {
		t.Fatal("expected no video")
	}
	if len(svc.fetched) != 0 {
		t.Fatalf("fetched %d artifacts, want 0", len(svc.fetched))
	}
	if last != StateFailed {
		t.Fatalf("last state = %s, want %s", last, StateFailed)
	}
}

func TestGenerateFetchesFirstArtifact(t *testing.T) {
	svc := &fakeService{
		artifacts: []Artifact{{URI: "files/first"}, {URI: "files/second"}},
		data:      []byte("mp4"),
	}
	g := newTestGenerator(t, svc)

	video, err := g.Generate(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	defer video.Release()

	if len(svc.fetched) != 1 || svc.fetched[0].URI != "files/first" {
		t.Fatalf("fetched = %v, want only files/first", svc.fetched)
	}
}

func TestGeneratePropagatesErrors(t *testing.T) {
	remote := &RemoteServiceError{Code: 429, Message: "quota"}
	tests := []struct {
		name string
		svc  *fakeService
	}{
		{"submit", &fakeService{submitErr: remote}},
		{"poll", &fakeService{doneAfter: 2, pollErr: remote}},
		{"job", &fakeService{jobErr: remote}},
		{"fetch", &fakeService{artifacts: []Artifact{{URI: "x"}}, fetchErr: remote}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(t, tt.svc)
			_, err := g.Generate(context.Background(), Request{Prompt: "p"})
			if err != remote {
				t.Fatalf("err = %v, want %v unchanged", err, remote)
			}
		})
	}
}

func TestGenerateStopsOnContextCancel(t *testing.T) {
	svc := &fakeService{doneAfter: 1 << 30}
	g := newTestGenerator(t, svc)
	g.PollInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	g.OnProgress = func(p Progress) {
		if p.State == StatePolling {
			cancel()
		}
	}
	if _, err := g.Generate(ctx, Request{Prompt: "p"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want %v", err, context.Canceled)
	}
}
