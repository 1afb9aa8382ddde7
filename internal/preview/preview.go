// Package preview issues revocable display handles for collected images and
// renders thumbnails for them. A handle behaves like a browser object URL: it
// is cheap to create, points at the source without reading it, and stops
// resolving once released.
package preview

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"log/slog"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder

	"img2pdf/internal/collector"
)

// DefaultMaxEdge bounds the longer side of rendered thumbnails.
const DefaultMaxEdge = 256

// ErrUnknownPreview is returned for IDs that were never issued or were released.
var ErrUnknownPreview = errors.New("unknown or released preview")

// Registry tracks live preview handles. It is safe for concurrent use since
// thumbnails may be requested while the collection changes.
type Registry struct {
	mu      sync.Mutex
	handles map[string]*Handle
	maxEdge int
	prefix  string
}

// NewRegistry returns a registry whose handle URLs start with prefix and whose
// thumbnails fit inside maxEdge×maxEdge pixels.
func NewRegistry(prefix string, maxEdge int) *Registry {
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}
	return &Registry{handles: map[string]*Handle{}, maxEdge: maxEdge, prefix: prefix}
}

// Create issues a new handle for f. It does not touch f's bytes.
func (r *Registry) Create(f collector.File) collector.Preview {
	h := &Handle{id: uuid.New().String(), file: f, registry: r}
	r.mu.Lock()
	r.handles[h.id] = h
	r.mu.Unlock()
	return h
}

// Len reports how many handles are still live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Lookup returns the file behind a live handle.
func (r *Registry) Lookup(id string) (collector.File, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	if !ok {
		return nil, false
	}
	return h.file, true
}

func (r *Registry) release(id string) {
	r.mu.Lock()
	_, ok := r.handles[id]
	delete(r.handles, id)
	r.mu.Unlock()
	if ok {
		slog.Debug("Released preview", "id", id)
	}
}

// Render writes a PNG thumbnail of the image behind id to w. Any format the
// registered decoders understand can be previewed, including ones the
// converter later skips.
func (r *Registry) Render(ctx context.Context, id string, w io.Writer) error {
	f, ok := r.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPreview, id)
	}

	rc, err := f.Open(ctx)
	if err != nil {
		return fmt.Errorf("could not open %s for preview: %w", f.Name(), err)
	}
	defer rc.Close()

	img, format, err := image.Decode(rc)
	if err != nil {
		return fmt.Errorf("could not decode %s for preview: %w", f.Name(), err)
	}
	thumb := Thumbnail(img, r.maxEdge)
	slog.Debug("Rendered preview", "id", id, "format", format, "width", thumb.Bounds().Dx(), "height", thumb.Bounds().Dy())

	return imaging.Encode(w, thumb, imaging.PNG)
}

// Thumbnail scales img down so that neither side exceeds maxEdge, keeping the
// aspect ratio. Images that already fit are returned unchanged.
func Thumbnail(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return img
	}

	tw, th := maxEdge, maxEdge
	if w >= h {
		th = max(1, h*maxEdge/w)
	} else {
		tw = max(1, w*maxEdge/h)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, tw, th))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// Handle is one issued preview.
type Handle struct {
	id       string
	file     collector.File
	registry *Registry
}

func (h *Handle) ID() string  { return h.id }
func (h *Handle) URL() string { return h.registry.prefix + h.id }

func (h *Handle) Release() {
	h.registry.release(h.id)
}
