// Package session holds the state behind a vidgen front end: the selected
// image, the prompt, the last result and what the status line should show.
package session

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/blacktop/vidgen/internal/media"
	"github.com/blacktop/vidgen/internal/veo"
)

var (
	// ErrBusy is returned when a generation is already in flight.
	ErrBusy = errors.New("session: generation already in progress")
	// ErrNoResult is returned when there is no video to play or save.
	ErrNoResult = errors.New("session: no generated video")
)

// Generator produces a video for a request.
type Generator interface {
	Generate(ctx context.Context, req veo.Request) (*media.Video, error)
}

// StatusKind styles the status line.
type StatusKind string

const (
	StatusDefault StatusKind = "default"
	StatusLoading StatusKind = "loading"
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// Status is the status line.
type Status struct {
	Message string     `json:"message"`
	Kind    StatusKind `json:"kind"`
}

// Snapshot is a copy of the session state for rendering.
type Snapshot struct {
	Prompt  string
	Image   *media.Image
	Result  *media.Video
	Busy    bool
	Status  Status
	Failure *veo.Failure
}

// Session is the state of one user's generation workflow.
type Session struct {
	gen    Generator
	logger *log.Logger

	mu      sync.Mutex
	prompt  string
	image   *media.Image
	result  *media.Video
	busy    bool
	status  Status
	failure *veo.Failure
	// resultPrompt names downloads after the prompt that produced result.
	resultPrompt string
}

// New creates an idle session.
func New(gen Generator, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{
		gen:    gen,
		logger: logger,
		status: Status{Kind: StatusDefault},
	}
}

// SelectImage loads the image at path. On failure no image is selected.
func (s *Session) SelectImage(path string) error {
	img, err := media.LoadImage(path)
	s.setImage(img, err)
	return err
}

// SelectImageReader loads an image from r. On failure no image is selected.
func (s *Session) SelectImageReader(name string, r io.Reader) error {
	img, err := media.ReadImage(name, r)
	s.setImage(img, err)
	return err
}

func (s *Session) setImage(img *media.Image, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Warn("Failed to read image", "err", err)
		s.image = nil
		return
	}
	s.logger.Debug("Image selected", "name", img.Name, "type", img.MIMEType, "size", img.Size())
	s.image = img
}

// ClearImage drops the selected image.
func (s *Session) ClearImage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = nil
}

// SetPrompt replaces the prompt text.
func (s *Session) SetPrompt(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompt = prompt
}

// SetStatus replaces the status line. Front ends use it for progress updates.
func (s *Session) SetStatus(message string, kind StatusKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = Status{Message: message, Kind: kind}
}

// Image returns the selected image or nil.
func (s *Session) Image() *media.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}

// Result returns the current video or nil.
func (s *Session) Result() *media.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Busy reports whether a generation is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Prompt: s.prompt,
		Image:  s.image,
		Result: s.result,
		Busy:   s.busy,
		Status: s.status,
	}
	if s.failure != nil {
		f := *s.failure
		snap.Failure = &f
	}
	return snap
}

// Generate runs one generation with the current prompt and image. The
// previous result is released before the new one is requested. Whatever
// happens the session is ready for another attempt when it returns.
func (s *Session) Generate(ctx context.Context) error {
	req, err := s.begin()
	if err != nil {
		return err
	}
	return s.run(ctx, req)
}

// Start is Generate in the background. It returns ErrBusy immediately when a
// generation is in flight; otherwise done, if set, receives the outcome.
func (s *Session) Start(ctx context.Context, done func(error)) error {
	req, err := s.begin()
	if err != nil {
		return err
	}
	go func() {
		err := s.run(ctx, req)
		if done != nil {
			done(err)
		}
	}()
	return nil
}

func (s *Session) run(ctx context.Context, req veo.Request) error {
	defer s.finish()

	video, err := s.gen.Generate(ctx, req)
	if err != nil {
		failure := veo.Classify(err)
		s.logger.Error("Video generation failed", "err", err, "kind", failure.Kind)
		s.mu.Lock()
		s.failure = &failure
		s.status = Status{Message: failure.Status(), Kind: StatusError}
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.result = video
	s.resultPrompt = req.Prompt
	s.status = Status{Message: "Video generated successfully!", Kind: StatusSuccess}
	s.mu.Unlock()
	s.logger.Info("Video generated", "id", video.ID, "size", video.Size)
	return nil
}

func (s *Session) begin() (veo.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return veo.Request{}, ErrBusy
	}
	s.busy = true
	s.status = Status{Message: "Initializing...", Kind: StatusLoading}
	s.failure = nil
	s.releaseLocked()
	return veo.Request{Prompt: s.prompt, Image: s.image}, nil
}

func (s *Session) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
}

func (s *Session) releaseLocked() {
	if s.result == nil {
		return
	}
	if err := s.result.Release(); err != nil {
		s.logger.Warn("Failed to release previous video", "err", err)
	}
	s.result = nil
}

// Play opens the current video in the system player.
func (s *Session) Play() error {
	video := s.Result()
	if video == nil {
		return ErrNoResult
	}
	return video.Play()
}

// Download saves the current video into folder and returns its path.
func (s *Session) Download(folder string) (string, error) {
	s.mu.Lock()
	video, prompt := s.result, s.resultPrompt
	s.mu.Unlock()
	if video == nil {
		return "", ErrNoResult
	}
	return video.SaveTo(folder, prompt)
}

// Close releases the current video.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	err := s.result.Release()
	s.result = nil
	return err
}
