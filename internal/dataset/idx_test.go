package dataset

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idxImages(t *testing.T, magic uint32, count, height, width int) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	for _, v := range []uint32{magic, uint32(count), uint32(height), uint32(width)} {
		require.NoError(t, binary.Write(buf, binary.BigEndian, v))
	}
	for i := 0; i < count*height*width; i++ {
		buf.WriteByte(uint8(i % 256))
	}
	return buf.Bytes()
}

func idxLabels(t *testing.T, magic uint32, labels []uint8) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, binary.Write(buf, binary.BigEndian, magic))
	require.NoError(t, binary.Write(buf, binary.BigEndian, uint32(len(labels))))
	buf.Write(labels)
	return buf.Bytes()
}

func TestReadImages(t *testing.T) {
	images, err := ReadImages(bytes.NewReader(idxImages(t, ImageMagic, 3, 2, 4)), 0)
	require.NoError(t, err)
	require.Len(t, images, 3)
	for _, img := range images {
		assert.Equal(t, 4, img.Width)
		assert.Equal(t, 2, img.Height)
		assert.Len(t, img.Pixels, 2*4)
	}
	assert.Equal(t, uint8(8+4+1), images[1].At(1, 1))

	v := images[0].Vector()
	assert.InDelta(t, 7.0/255, v[7], 1e-12)
}

func TestReadImagesLimit(t *testing.T) {
	images, err := ReadImages(bytes.NewReader(idxImages(t, ImageMagic, 5, 2, 2)), 2)
	require.NoError(t, err)
	assert.Len(t, images, 2)
}

func TestReadImagesBadMagic(t *testing.T) {
	images, err := ReadImages(bytes.NewReader(idxImages(t, LabelMagic, 3, 2, 2)), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFormat))
	assert.Nil(t, images)
}

func TestReadImagesTruncated(t *testing.T) {
	raw := idxImages(t, ImageMagic, 3, 2, 2)
	cases := map[string][]byte{
		"empty":          nil,
		"inside magic":   raw[:2],
		"inside count":   raw[:6],
		"inside dims":    raw[:10],
		"inside body":    raw[:len(raw)-1],
		"missing images": raw[:16+4],
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			images, err := ReadImages(bytes.NewReader(data), 0)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFormat))
			assert.Nil(t, images, "no partial data")
		})
	}
}

func TestReadImagesHugeDimensions(t *testing.T) {
	cases := map[string][4]uint32{
		"overflowing": {ImageMagic, 1, 0xFFFFFFFF, 0xFFFFFFFF},
		"oversized":   {ImageMagic, 1, 65536, 65536},
		"zero height": {ImageMagic, 1, 0, 28},
		"huge count":  {ImageMagic, 0xFFFFFFFF, 0xFFFFFFFF, 2},
	}
	for name, hdr := range cases {
		t.Run(name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			require.NoError(t, binary.Write(buf, binary.BigEndian, hdr))
			var images []Image
			var err error
			require.NotPanics(t, func() { images, err = ReadImages(bytes.NewReader(buf.Bytes()), 0) })
			assert.True(t, errors.Is(err, ErrFormat))
			assert.Nil(t, images)
		})
	}
}

func TestReadImagesHugeCountShortBody(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, binary.Write(buf, binary.BigEndian, [4]uint32{ImageMagic, 0xFFFFFFFF, 2, 2}))
	buf.Write([]byte{1, 2, 3, 4, 5})
	images, err := ReadImages(bytes.NewReader(buf.Bytes()), 0)
	assert.True(t, errors.Is(err, ErrFormat))
	assert.Nil(t, images)
}

func TestReadLabelsHugeCount(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, binary.Write(buf, binary.BigEndian, [2]uint32{LabelMagic, 0xFFFFFFFF}))
	buf.Write([]byte{3, 1, 4})
	var labels []uint8
	var err error
	require.NotPanics(t, func() { labels, err = ReadLabels(bytes.NewReader(buf.Bytes()), 0) })
	assert.True(t, errors.Is(err, ErrFormat))
	assert.Nil(t, labels)

	labels, err = ReadLabels(bytes.NewReader(buf.Bytes()), 2)
	require.NoError(t, err)
	assert.Equal(t, []uint8{3, 1}, labels)
}

func TestReadLabels(t *testing.T) {
	labels, err := ReadLabels(bytes.NewReader(idxLabels(t, LabelMagic, []uint8{5, 0, 4})), 0)
	require.NoError(t, err)
	assert.Equal(t, []uint8{5, 0, 4}, labels)

	labels, err = ReadLabels(bytes.NewReader(idxLabels(t, ImageMagic, []uint8{1})), 0)
	assert.True(t, errors.Is(err, ErrFormat))
	assert.Nil(t, labels)

	raw := idxLabels(t, LabelMagic, []uint8{1, 2, 3})
	labels, err = ReadLabels(bytes.NewReader(raw[:len(raw)-1]), 0)
	assert.True(t, errors.Is(err, ErrFormat))
	assert.Nil(t, labels)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "train-images-idx3-ubyte")
	lblPath := filepath.Join(dir, "train-labels-idx1-ubyte")
	require.NoError(t, os.WriteFile(imgPath, idxImages(t, ImageMagic, 2, 3, 3), 0o644))
	require.NoError(t, os.WriteFile(lblPath, idxLabels(t, LabelMagic, []uint8{7, 2}), 0o644))

	images, err := LoadImages(imgPath, 0)
	require.NoError(t, err)
	assert.Len(t, images, 2)

	labels, err := LoadLabels(lblPath, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint8{7, 2}, labels)

	_, err = LoadImages(lblPath, 0)
	assert.True(t, errors.Is(err, ErrFormat))

	_, err = LoadLabels(filepath.Join(dir, "missing"), 0)
	assert.Error(t, err)
}
