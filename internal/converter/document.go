package converter

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/jung-kurt/gofpdf"
)

// Size is a page or image extent in PDF points.
type Size struct {
	Width  float64
	Height float64
}

// Scale returns s multiplied by factor in both directions.
func (s Size) Scale(factor float64) Size {
	return Size{Width: s.Width * factor, Height: s.Height * factor}
}

// imageSize is the intrinsic size of a decoded image, one point per pixel.
func imageSize(img image.Image) Size {
	b := img.Bounds()
	return Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// Page is one page of a composed document.
type Page struct {
	Index int // position of the source entry in the collection
	Name  string
	Size
	// Image is the name the picture is registered under in the PDF.
	Image string
	// Normalized is set when the source bytes could not be embedded as-is
	// and a lossless 8-bit copy was embedded instead.
	Normalized bool
}

// Skip records an entry that produced no page.
type Skip struct {
	Index     int
	Name      string
	MediaType string
}

// Document is the state of one conversion: the ordered pages and the PDF
// being built for them. It is discarded after export.
type Document struct {
	Pages   []Page
	Skipped []Skip

	pdf *gofpdf.Fpdf
	out []byte
}

func newDocument(cfg *Config) *Document {
	// Default size is irrelevant, every page sets its own.
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if cfg.Creator != "" {
		pdf.SetCreator(cfg.Creator, true)
	}
	return &Document{pdf: pdf}
}

// PageCount returns the number of pages composed so far.
func (d *Document) PageCount() int { return len(d.Pages) }

// addImage appends a page sized to img and draws data, the original encoded
// bytes, over the whole page.
func (d *Document) addImage(index int, name, format string, data []byte, img image.Image) error {
	size := imageSize(img).Scale(1)
	imageName := fmt.Sprintf("image%d", index)

	imageType := "PNG"
	if format == "jpeg" {
		imageType = "JPG"
	}

	normalized := false
	d.pdf.RegisterImageOptionsReader(imageName, gofpdf.ImageOptions{ImageType: imageType, ReadDpi: false}, bytes.NewReader(data))
	if d.pdf.Err() {
		cause := d.pdf.Error()
		d.pdf.ClearError()
		slog.Debug("Embedding original bytes failed, normalizing", "name", name, "format", format, "error", cause)

		buf, err := normalize(img)
		if err != nil {
			return fmt.Errorf("could not normalize image for embedding: %w", err)
		}
		imageType = "PNG"
		d.pdf.RegisterImageOptionsReader(imageName, gofpdf.ImageOptions{ImageType: imageType, ReadDpi: false}, buf)
		if d.pdf.Err() {
			err := d.pdf.Error()
			d.pdf.ClearError()
			return fmt.Errorf("could not embed image: %w (original bytes: %v)", err, cause)
		}
		normalized = true
	}

	d.pdf.AddPageFormat("P", gofpdf.SizeType{Wd: size.Width, Ht: size.Height})
	d.pdf.ImageOptions(imageName, 0, 0, size.Width, size.Height, false, gofpdf.ImageOptions{ImageType: imageType}, 0, "")
	if d.pdf.Err() {
		err := d.pdf.Error()
		d.pdf.ClearError()
		return fmt.Errorf("could not place image on page: %w", err)
	}

	d.Pages = append(d.Pages, Page{Index: index, Name: name, Size: size, Image: imageName, Normalized: normalized})
	return nil
}

// normalize re-encodes img as an 8-bit, non-interlaced PNG, a layout the PDF
// engine always accepts.
func normalize(img image.Image) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Clone(img), imaging.PNG); err != nil {
		return nil, err
	}
	return &buf, nil
}
