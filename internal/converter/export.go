package converter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

)

// Export serializes doc. A document without pages is written as a valid PDF
// with an empty page tree. Exporting the same document again returns the
// same bytes.
func Export(doc *Document) ([]byte, error) {
	if doc.out != nil {
		return doc.out, nil
	}

	var buf bytes.Buffer
	if len(doc.Pages) == 0 {
		slog.Debug("Writing empty PDF")
		if err := writeEmptyPDF(&buf); err != nil {
			return nil, fmt.Errorf("could not write empty PDF: %w", err)
		}
	} else {
		if doc.pdf.Err() {
			return nil, fmt.Errorf("error generating PDF structure: %w", doc.pdf.Error())
		}
		slog.Debug("Writing PDF", "pages", len(doc.Pages))
		if err := doc.pdf.Output(&buf); err != nil {
			return nil, fmt.Errorf("could not write PDF: %w", err)
		}
	}

	doc.out = buf.Bytes()
	return doc.out, nil
}

// writeEmptyPDF writes a catalog and a page tree with no kids. gofpdf adds a
// blank page to documents without pages and pdfcpu leaves an empty page tree
// out when writing, so the few objects are written directly.
func writeEmptyPDF(w io.Writer) error {
	objects := []string{
		"<</Type/Catalog/Pages 2 0 R>>",
		"<</Type/Pages/Kids[]/Count 0>>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<</Size %d/Root 1 0 R>>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	_, err := buf.WriteTo(w)
	return err
}

// Saver delivers exported bytes under a file name. It stands in for the
// host's "save as" or download mechanism.
type Saver interface {
	SaveAs(ctx context.Context, data []byte, filename string) error
}

// SaverFunc adapts a function to the Saver interface.
type SaverFunc func(ctx context.Context, data []byte, filename string) error

func (f SaverFunc) SaveAs(ctx context.Context, data []byte, filename string) error {
	return f(ctx, data, filename)
}

// DirSaver writes documents into Dir, creating it when needed. An existing
// file of the same name is replaced.
type DirSaver struct {
	Dir string
}

func (s DirSaver) SaveAs(_ context.Context, data []byte, filename string) error {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create output directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, filepath.Base(filename))
	tmp, err := os.CreateTemp(dir, ".img2pdf-*")
	if err != nil {
		return fmt.Errorf("could not create output file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("could not write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("could not move output file into place: %w", err)
	}

	slog.Info("Saved PDF", "path", path, "size", len(data))
	return nil
}
