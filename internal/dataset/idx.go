package dataset

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"knn/internal/linalg"
)

const (
	// ImageMagic opens an IDX3 image file.
	ImageMagic uint32 = 0x00000803
	// LabelMagic opens an IDX1 label file.
	LabelMagic uint32 = 0x00000801
)

// MaxImagePixels bounds height*width of a single image.
const MaxImagePixels = 1 << 24

// ErrFormat reports a malformed or truncated IDX stream.
var ErrFormat = errors.New("dataset: bad idx format")

// Image is one grayscale picture with 0-255 intensities in row-major order.
type Image struct {
	Width  int
	Height int
	Pixels []uint8
}

// At returns the intensity at column x, row y.
func (img Image) At(x, y int) uint8 {
	return img.Pixels[y*img.Width+x]
}

// Vector returns the pixels scaled to [0, 1].
func (img Image) Vector() linalg.Vector {
	out := make(linalg.Vector, len(img.Pixels))
	for i, p := range img.Pixels {
		out[i] = float64(p) / 255
	}
	return out
}

// ReadImages decodes an IDX3 image stream. When limit > 0 at most limit images
// are read. On error no images are returned.
//
//	magic  uint32 0x00000803
//	count  uint32
//	height uint32
//	width  uint32
//	pixels count*height*width bytes
func ReadImages(r io.Reader, limit int) ([]Image, error) {
	var hdr [4]uint32
	if err := readHeader(r, ImageMagic, hdr[:]); err != nil {
		return nil, err
	}
	if hdr[2] == 0 || hdr[3] == 0 {
		return nil, errors.Wrapf(ErrFormat, "empty image dimensions %dx%d", hdr[2], hdr[3])
	}
	if uint64(hdr[2])*uint64(hdr[3]) > MaxImagePixels {
		return nil, errors.Wrapf(ErrFormat, "image dimensions %dx%d exceed %d pixels", hdr[2], hdr[3], MaxImagePixels)
	}
	count, height, width := int(hdr[1]), int(hdr[2]), int(hdr[3])
	if limit > 0 && count > limit {
		count = limit
	}

	images := make([]Image, 0, capHint(count))
	for i := 0; i < count; i++ {
		pixels := make([]uint8, height*width)
		if _, err := io.ReadFull(r, pixels); err != nil {
			return nil, errors.Wrapf(ErrFormat, "image %d of %d: %v", i, count, err)
		}
		images = append(images, Image{Width: width, Height: height, Pixels: pixels})
	}
	return images, nil
}

// ReadLabels decodes an IDX1 label stream. When limit > 0 at most limit labels
// are read. On error no labels are returned.
//
//	magic  uint32 0x00000801
//	count  uint32
//	labels count bytes
func ReadLabels(r io.Reader, limit int) ([]uint8, error) {
	var hdr [2]uint32
	if err := readHeader(r, LabelMagic, hdr[:]); err != nil {
		return nil, err
	}
	count := int(hdr[1])
	if limit > 0 && count > limit {
		count = limit
	}
	// Bounded by what the stream holds, not by the header count.
	labels, err := io.ReadAll(io.LimitReader(r, int64(count)))
	if err != nil {
		return nil, errors.Wrapf(ErrFormat, "labels: %v", err)
	}
	if len(labels) != count {
		return nil, errors.Wrapf(ErrFormat, "labels: got %d of %d", len(labels), count)
	}
	return labels, nil
}

// LoadImages reads an IDX3 image file.
func LoadImages(path string, limit int) ([]Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open images")
	}
	defer f.Close()

	images, err := ReadImages(bufio.NewReader(f), limit)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return images, nil
}

// LoadLabels reads an IDX1 label file.
func LoadLabels(path string, limit int) ([]uint8, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open labels")
	}
	defer f.Close()

	labels, err := ReadLabels(bufio.NewReader(f), limit)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return labels, nil
}

// readHeader fills hdr with big-endian words and checks hdr[0] against magic.
func readHeader(r io.Reader, magic uint32, hdr []uint32) error {
	if err := binary.Read(r, binary.BigEndian, hdr[:1]); err != nil {
		return errors.Wrapf(ErrFormat, "read magic: %v", err)
	}
	if hdr[0] != magic {
		return errors.Wrapf(ErrFormat, "magic 0x%08x, want 0x%08x", hdr[0], magic)
	}
	if err := binary.Read(r, binary.BigEndian, hdr[1:]); err != nil {
		return errors.Wrapf(ErrFormat, "read header: %v", err)
	}
	return nil
}

// capHint bounds preallocation so a corrupt count cannot exhaust memory
// before the body is read.
func capHint(n int) int {
	const limit = 1 << 16
	if n > limit {
		return limit
	}
	return n
}
