package preview

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"img2pdf/internal/collector"
)

func encodedImage(t *testing.T, w, h int, format imaging.Format) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, format))
	return buf.Bytes()
}

func TestCreateAndRelease(t *testing.T) {
	r := NewRegistry("/preview/", 0)
	f := collector.NewBytesFile("a.png", "image/png", nil)

	h := r.Create(f)
	require.Equal(t, 1, r.Len())
	assert.NotEmpty(t, h.ID())
	assert.True(t, strings.HasPrefix(h.URL(), "/preview/"))

	got, ok := r.Lookup(h.ID())
	require.True(t, ok)
	assert.Equal(t, "a.png", got.Name())

	h.Release()
	assert.Equal(t, 0, r.Len())
	_, ok = r.Lookup(h.ID())
	assert.False(t, ok)

	// Releasing twice is harmless.
	h.Release()
	assert.Equal(t, 0, r.Len())
}

func TestHandlesAreDistinct(t *testing.T) {
	r := NewRegistry("", 0)
	f := collector.NewBytesFile("a.png", "image/png", nil)
	a, b := r.Create(f), r.Create(f)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, r.Len())
}

func TestCollectionClearReleasesRegistryHandles(t *testing.T) {
	r := NewRegistry("/preview/", 0)
	c := collector.New(r)
	c.AddFiles(
		collector.NewBytesFile("a.png", "image/png", nil),
		collector.NewBytesFile("b.jpg", "image/jpeg", nil),
	)
	require.Equal(t, 2, r.Len())

	c.Clear()
	assert.Equal(t, 0, r.Len())
}

func TestRenderScalesDown(t *testing.T) {
	r := NewRegistry("", 64)
	h := r.Create(collector.NewBytesFile("wide.jpg", "image/jpeg", encodedImage(t, 400, 100, imaging.JPEG)))

	var out bytes.Buffer
	require.NoError(t, r.Render(context.Background(), h.ID(), &out))

	cfg, err := png.DecodeConfig(&out)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 16, cfg.Height)
}

func TestRenderKeepsSmallImages(t *testing.T) {
	r := NewRegistry("", 64)
	h := r.Create(collector.NewBytesFile("small.png", "image/png", encodedImage(t, 10, 20, imaging.PNG)))

	var out bytes.Buffer
	require.NoError(t, r.Render(context.Background(), h.ID(), &out))

	cfg, err := png.DecodeConfig(&out)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Width)
	assert.Equal(t, 20, cfg.Height)
}

func TestRenderUnsupportedForConversionStillPreviews(t *testing.T) {
	r := NewRegistry("", 0)
	h := r.Create(collector.NewBytesFile("anim.gif", "image/gif", encodedImage(t, 8, 8, imaging.GIF)))

	var out bytes.Buffer
	require.NoError(t, r.Render(context.Background(), h.ID(), &out))
	assert.NotZero(t, out.Len())
}

func TestRenderReleased(t *testing.T) {
	r := NewRegistry("", 0)
	h := r.Create(collector.NewBytesFile("a.png", "image/png", encodedImage(t, 4, 4, imaging.PNG)))
	h.Release()

	err := r.Render(context.Background(), h.ID(), &bytes.Buffer{})
	assert.True(t, errors.Is(err, ErrUnknownPreview), "got %v", err)
}

func TestRenderUndecodable(t *testing.T) {
	r := NewRegistry("", 0)
	h := r.Create(collector.NewBytesFile("a.png", "image/png", []byte("nope")))
	assert.Error(t, r.Render(context.Background(), h.ID(), &bytes.Buffer{}))
}

func TestThumbnailTall(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 50, 200))
	thumb := Thumbnail(img, 100)
	assert.Equal(t, 25, thumb.Bounds().Dx())
	assert.Equal(t, 100, thumb.Bounds().Dy())
}
