package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize caps how much of an input image is read into memory.
const MaxImageSize = 20 << 20

var (
	// ErrNotImage is returned when the selected file is not a supported image.
	ErrNotImage = errors.New("media: not a supported image (png, jpeg or webp)")
	// ErrImageTooLarge is returned when the selected file exceeds MaxImageSize.
	ErrImageTooLarge = errors.New("media: image too large")
)

var imageTypes = []string{
	"image/png",
	"image/jpeg",
	"image/webp",
}

// Image is the optional starting frame attached to a generation.
type Image struct {
	Name     string
	Bytes    []byte
	MIMEType string
}

// LoadImage reads the image at path.
func LoadImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening image: %w", err)
	}
	defer f.Close()
	return ReadImage(filepath.Base(path), f)
}

// ReadImage reads an image from r and detects its type from the content.
func ReadImage(name string, r io.Reader) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading image: %w", err)
	}
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}
	mtype := mimetype.Detect(data)
	for _, t := range imageTypes {
		if mtype.Is(t) {
			return &Image{Name: name, Bytes: data, MIMEType: t}, nil
		}
	}
	return nil, fmt.Errorf("%w: detected %s", ErrNotImage, mtype.String())
}

// Size is the payload length in bytes.
func (i *Image) Size() int {
	if i == nil {
		return 0
	}
	return len(i.Bytes)
}
