package converter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"log/slog"

	"github.com/disintegration/imaging"

	"img2pdf/internal/collector"
)

// ReadFunc loads the full content of a collected file.
type ReadFunc func(ctx context.Context, f collector.File) ([]byte, error)

// ReadAll opens f and reads it to the end.
func ReadAll(ctx context.Context, f collector.File) ([]byte, error) {
	rc, err := f.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// formatFor maps a declared media type to the decoder name image.Decode
// reports for it.
func formatFor(mediaType string) (string, error) {
	switch mediaType {
	case MediaTypeJPEG:
		return "jpeg", nil
	case MediaTypePNG:
		return "png", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMediaType, mediaType)
	}
}

// Compose builds a document with one page per PNG or JPEG entry, in entry
// order. Entries of any other media type are skipped without error and
// listed in Document.Skipped. The first entry that cannot be read or decoded
// aborts the composition with a *DecodeError and no document.
//
// Entries are processed strictly one after another, so at most one decoded
// image is alive at a time. Cancelling ctx does not interrupt a running
// composition; only its values reach the read collaborator.
func Compose(ctx context.Context, cfg *Config, entries []collector.Entry) (*Document, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	read := cfg.Read
	if read == nil {
		read = ReadAll
	}
	ctx = context.WithoutCancel(ctx)

	slog.Debug("Starting composition", "entries", len(entries))
	doc := newDocument(cfg)

	for i, e := range entries {
		mediaType := e.MediaType()
		format, err := formatFor(mediaType)
		if err != nil {
			slog.Debug("Skipping entry", "index", i, "name", e.Name(), "reason", err)
			doc.Skipped = append(doc.Skipped, Skip{Index: i, Name: e.Name(), MediaType: mediaType})
			continue
		}

		fail := func(err error) (*Document, error) {
			return nil, &DecodeError{Index: i, Name: e.Name(), MediaType: mediaType, Err: err}
		}

		data, err := read(ctx, e.File)
		if err != nil {
			return fail(fmt.Errorf("could not read image data: %w", err))
		}

		img, err := decode(data, format)
		if err != nil {
			return fail(err)
		}

		if err := doc.addImage(i, e.Name(), format, data, img); err != nil {
			return fail(err)
		}
		p := doc.Pages[len(doc.Pages)-1]
		slog.Debug("Added page", "index", i, "name", e.Name(), "width", p.Width, "height", p.Height, "normalized", p.Normalized)
	}

	slog.Debug("Finished composition", "pages", doc.PageCount(), "skipped", len(doc.Skipped))
	return doc, nil
}

// decode checks that data really is the declared format and decodes it fully,
// so truncated or corrupt images are caught before anything is embedded.
func decode(data []byte, want string) (image.Image, error) {
	_, got, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not decode image config: %w", err)
	}
	if got != want {
		return nil, fmt.Errorf("%w: content is %s", ErrTypeMismatch, got)
	}

	// No auto-orientation: the page follows the stored pixel grid.
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not decode %s image: %w", want, err)
	}
	return img, nil
}
