package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/blacktop/vidgen/internal/media"
	"github.com/blacktop/vidgen/internal/veo"
)

type fakeGenerator struct {
	t    *testing.T
	err  error
	reqs []veo.Request
	// during runs inside Generate, while the session is busy.
	during func()
}

func (f *fakeGenerator) Generate(_ context.Context, req veo.Request) (*media.Video, error) {
	f.reqs = append(f.reqs, req)
	if f.during != nil {
		f.during()
	}
	if f.err != nil {
		return nil, f.err
	}
	return media.NewVideo(f.t.TempDir(), []byte("video"), "video/mp4")
}

func newTestSession(t *testing.T, gen *fakeGenerator) *Session {
	t.Helper()
	gen.t = t
	s := New(gen, log.New(io.Discard))
	t.Cleanup(func() { s.Close() })
	return s
}

func writePNG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "frame.png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGenerateSuccess(t *testing.T) {
	gen := &fakeGenerator{}
	s := newTestSession(t, gen)
	s.SetPrompt("a fox in the snow")

	if err := s.Generate(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	snap := s.Snapshot()
	if snap.Busy {
		t.Fatal("session still busy")
	}
	if snap.Result == nil {
		t.Fatal("expected result")
	}
	if snap.Status.Kind != StatusSuccess || snap.Status.Message != "Video generated successfully!" {
		t.Fatalf("status = %+v", snap.Status)
	}
	if snap.Failure != nil {
		t.Fatalf("failure = %+v, want nil", snap.Failure)
	}
	if len(gen.reqs) != 1 || gen.reqs[0].Prompt != "a fox in the snow" || gen.reqs[0].Image != nil {
		t.Fatalf("requests = %+v", gen.reqs)
	}
}

func TestGenerateIncludesSelectedImage(t *testing.T) {
	gen := &fakeGenerator{}
	s := newTestSession(t, gen)
	if err := s.SelectImage(writePNG(t)); err != nil {
		t.Fatalf("select image: %v", err)
	}

	if err := s.Generate(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if gen.reqs[0].Image == nil || gen.reqs[0].Image.MIMEType != "image/png" {
		t.Fatalf("request image = %+v", gen.reqs[0].Image)
	}
}

func TestGenerateReleasesPreviousResult(t *testing.T) {
	gen := &fakeGenerator{}
	s := newTestSession(t, gen)

	if err := s.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}
	first := s.Result()
	firstPath := first.Path()

	gen.during = func() {
		if !first.Released() {
			t.Error("previous result not released before the new generation")
		}
		if s.Result() != nil {
			t.Error("previous result still held during generation")
		}
	}
	if err := s.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(firstPath); !os.IsNotExist(err) {
		t.Fatalf("previous video file still exists: %v", err)
	}
	if s.Result() == nil || s.Result() == first {
		t.Fatal("expected a new result")
	}
}

func TestGenerateFailureReleasesPreviousResult(t *testing.T) {
	gen := &fakeGenerator{}
	s := newTestSession(t, gen)
	if err := s.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}
	first := s.Result()

	gen.err = errors.New("boom")
	if err := s.Generate(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !first.Released() || s.Result() != nil {
		t.Fatal("expected no result after failed generation")
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status string
		quota  bool
	}{
		{"quota", &veo.RemoteServiceError{Code: 429, Message: "Resource exhausted"}, "API quota exceeded.", true},
		{"remote", &veo.RemoteServiceError{Code: 400, Message: "Invalid prompt"}, "Error: Invalid prompt", false},
		{"empty", veo.ErrEmptyResult, "Error: No videos were generated. Please try a different prompt.", false},
		{"raw", errors.New("unexpected EOF"), "Error: unexpected EOF", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, &fakeGenerator{err: tt.err})
			if err := s.Generate(context.Background()); err != tt.err {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			snap := s.Snapshot()
			if snap.Busy {
				t.Fatal("session still busy after failure")
			}
			if snap.Status.Kind != StatusError || snap.Status.Message != tt.status {
				t.Fatalf("status = %+v, want %q", snap.Status, tt.status)
			}
			if snap.Failure == nil || snap.Failure.Quota() != tt.quota {
				t.Fatalf("failure = %+v, want quota=%v", snap.Failure, tt.quota)
			}
		})
	}
}

func TestGenerateClearsPreviousFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	s := newTestSession(t, gen)
	s.Generate(context.Background())

	gen.err = nil
	gen.during = func() {
		snap := s.Snapshot()
		if snap.Failure != nil {
			t.Error("failure not cleared at start")
		}
		if snap.Status.Kind != StatusLoading || snap.Status.Message != "Initializing..." {
			t.Errorf("status during generation = %+v", snap.Status)
		}
	}
	if err := s.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestGenerateRejectsWhileBusy(t *testing.T) {
	gen := &fakeGenerator{}
	s := newTestSession(t, gen)
	var nested error
	gen.during = func() {
		if !s.Busy() {
			t.Error("expected busy during generation")
		}
		nested = s.Generate(context.Background())
	}
	if err := s.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(nested, ErrBusy) {
		t.Fatalf("nested generate err = %v, want %v", nested, ErrBusy)
	}
	if len(gen.reqs) != 1 {
		t.Fatalf("generator called %d times, want 1", len(gen.reqs))
	}
}

func TestClearImage(t *testing.T) {
	s := newTestSession(t, &fakeGenerator{})
	if err := s.SelectImage(writePNG(t)); err != nil {
		t.Fatal(err)
	}
	if s.Image() == nil {
		t.Fatal("expected selected image")
	}
	s.ClearImage()
	if s.Image() != nil || s.Snapshot().Image != nil {
		t.Fatal("expected image cleared")
	}
}

func TestSelectImageFailureLeavesNoImage(t *testing.T) {
	s := newTestSession(t, &fakeGenerator{})
	if err := s.SelectImage(writePNG(t)); err != nil {
		t.Fatal(err)
	}
	if err := s.SelectImageReader("notes.txt", strings.NewReader("hello")); err == nil {
		t.Fatal("expected error for non-image")
	}
	if s.Image() != nil {
		t.Fatal("expected no image after failed selection")
	}
}

func TestDownload(t *testing.T) {
	s := newTestSession(t, &fakeGenerator{})
	if _, err := s.Download(t.TempDir()); !errors.Is(err, ErrNoResult) {
		t.Fatalf("err = %v, want %v", err, ErrNoResult)
	}
	if err := s.Play(); !errors.Is(err, ErrNoResult) {
		t.Fatalf("play err = %v, want %v", err, ErrNoResult)
	}

	s.SetPrompt("waves")
	if err := s.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.SetPrompt("something else")
	folder := t.TempDir()
	path, err := s.Download(folder)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "waves_") {
		t.Fatalf("download name = %q, want prompt of the generation", filepath.Base(path))
	}
}

func TestClose(t *testing.T) {
	s := newTestSession(t, &fakeGenerator{})
	if err := s.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}
	video := s.Result()
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !video.Released() || s.Result() != nil {
		t.Fatal("expected result released on close")
	}
}

func TestStart(t *testing.T) {
	release := make(chan struct{})
	gen := &fakeGenerator{during: func() { <-release }}
	s := newTestSession(t, gen)

	done := make(chan error, 1)
	if err := s.Start(context.Background(), func(err error) { done <- err }); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !s.Busy() {
		t.Fatal("expected busy right after start")
	}
	if err := s.Start(context.Background(), nil); !errors.Is(err, ErrBusy) {
		t.Fatalf("second start err = %v, want %v", err, ErrBusy)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("generation: %v", err)
	}
	if s.Busy() || s.Result() == nil {
		t.Fatal("expected idle session with result")
	}
}
