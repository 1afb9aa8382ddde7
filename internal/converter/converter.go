// Package converter turns an ordered collection of PNG and JPEG images into a
// single PDF with one page per image, each page exactly as large as the image
// (one pixel per point).
//
// The pipeline has three steps: Compose builds a Document from the collected
// entries, Export serializes it, and a Saver delivers the bytes under the
// fixed name converted.pdf. Converter runs all three and resets the
// collection afterwards.
package converter

import (
	"context"
	"fmt"
	"log/slog"

	"img2pdf/internal/collector"
)

const (
	// OutputFilename is the name every exported document is saved under.
	OutputFilename = "converted.pdf"
	// MIMEType is the media type of exported documents.
	MIMEType = "application/pdf"

	MediaTypeJPEG = "image/jpeg"
	MediaTypePNG  = "image/png"
)

// Config holds the collaborators used while composing.
type Config struct {
	// Read loads the full content of a collected file.
	Read ReadFunc
	// Creator is recorded in the document information dictionary.
	Creator string
}

// NewDefaultConfig creates a new Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Read:    ReadAll,
		Creator: "img2pdf",
	}
}

// Result summarizes a finished conversion.
type Result struct {
	Filename string
	Pages    int
	Size     int
	Skipped  []Skip
}

// Converter runs compose, export and save for a collection.
type Converter struct {
	cfg   *Config
	saver Saver
}

// New returns a Converter delivering documents through saver. A nil cfg
// means NewDefaultConfig.
func New(cfg *Config, saver Saver) *Converter {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	return &Converter{cfg: cfg, saver: saver}
}

// Convert composes every entry of c, exports the document and hands it to
// the saver. Only after the saver succeeds is the collection cleared, which
// releases its previews; on any error nothing is saved and c is untouched.
// An empty collection produces a valid zero-page document.
func (cv *Converter) Convert(ctx context.Context, c *collector.Collection) (*Result, error) {
	entries := c.Entries()
	slog.Info("Starting PDF conversion", "entries", len(entries))

	doc, err := Compose(ctx, cv.cfg, entries)
	if err != nil {
		slog.Error("Composition failed", "error", err)
		return nil, err
	}

	data, err := Export(doc)
	if err != nil {
		slog.Error("Export failed", "error", err)
		return nil, err
	}

	if err := cv.saver.SaveAs(ctx, data, OutputFilename); err != nil {
		return nil, fmt.Errorf("could not save %s: %w", OutputFilename, err)
	}

	c.Clear()

	res := &Result{
		Filename: OutputFilename,
		Pages:    doc.PageCount(),
		Size:     len(data),
		Skipped:  doc.Skipped,
	}
	slog.Info("PDF conversion completed", "filename", res.Filename, "pages", res.Pages, "skipped", len(res.Skipped), "size", res.Size)
	return res, nil
}
