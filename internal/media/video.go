package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/pkg/browser"
)

// DefaultVideoName is used when the prompt yields no usable filename.
const DefaultVideoName = "generated-video"

// ErrReleased is returned when a released video is used.
var ErrReleased = errors.New("media: video has been released")

// openFile launches the system handler for a file.
var openFile = browser.OpenFile

// Video is a generated video held in a local temp file until released.
type Video struct {
	ID       string
	MIMEType string
	Size     int64

	mu       sync.Mutex
	path     string
	released bool
}

// NewVideo writes data to a new temp file in dir (os.TempDir when empty).
func NewVideo(dir string, data []byte, mimeType string) (*Video, error) {
	if mimeType == "" {
		mimeType = "video/mp4"
	}
	id := uuid.NewString()
	f, err := os.CreateTemp(dir, "vidgen-"+id+"-*"+extension(mimeType))
	if err != nil {
		return nil, fmt.Errorf("error creating video file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("error writing video file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("error closing video file: %w", err)
	}
	return &Video{
		ID:       id,
		MIMEType: mimeType,
		Size:     int64(len(data)),
		path:     f.Name(),
	}, nil
}

// Path is the temp file location, empty once released.
func (v *Video) Path() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.released {
		return ""
	}
	return v.path
}

// Released reports whether Release has been called.
func (v *Video) Released() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.released
}

// Release removes the temp file. Calling it more than once is a no-op.
func (v *Video) Release() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.released {
		return nil
	}
	v.released = true
	if err := os.Remove(v.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error removing video file: %w", err)
	}
	return nil
}

// Open reads the video.
func (v *Video) Open() (*os.File, error) {
	path := v.Path()
	if path == "" {
		return nil, ErrReleased
	}
	return os.Open(path)
}

// Play opens the video in the system's default player.
func (v *Video) Play() error {
	path := v.Path()
	if path == "" {
		return ErrReleased
	}
	return openFile(path)
}

// SaveTo copies the video into folder, named after the prompt, and returns
// the written path.
func (v *Video) SaveTo(folder, prompt string) (string, error) {
	src, err := v.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	filename := fmt.Sprintf("%s_%d%s", sanitizeName(prompt), time.Now().Unix(), extension(v.MIMEType))
	if folder != "" {
		if err := os.MkdirAll(folder, 0755); err != nil {
			return "", fmt.Errorf("error creating output folder: %w", err)
		}
		filename = filepath.Join(folder, filename)
	}
	dst, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("error saving video: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("error saving video: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("error saving video: %w", err)
	}
	return filename, nil
}

func sanitizeName(prompt string) string {
	// Sanitize the prompt for use in a filename
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, strings.TrimSpace(prompt))
	if r := []rune(name); len(r) > 50 {
		name = string(r[:50])
	}
	if strings.Trim(name, "_") == "" {
		return DefaultVideoName
	}
	return name
}

func extension(mimeType string) string {
	switch mimeType {
	case "video/webm":
		return ".webm"
	case "video/quicktime":
		return ".mov"
	default:
		return ".mp4"
	}
}
