package converter

import (
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageDim is the size of one page in points.
type PageDim struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Report describes a PDF read back from disk or memory.
type Report struct {
	Pages int       `json:"pages" yaml:"pages"`
	Dims  []PageDim `json:"dims" yaml:"dims"`
}

// Inspect validates the PDF read from rs and reports its page count and
// page sizes.
func Inspect(rs io.ReadSeeker) (*Report, error) {
	ctx, err := api.ReadValidateAndOptimize(rs, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("could not read PDF: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("could not count pages: %w", err)
	}

	rep := &Report{Pages: ctx.PageCount}
	if ctx.PageCount == 0 {
		return rep, nil
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("could not read page dimensions: %w", err)
	}
	for _, d := range dims {
		rep.Dims = append(rep.Dims, PageDim{Width: d.Width, Height: d.Height})
	}
	return rep, nil
}
