package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrUnsupportedContentType is returned when a remote image is served with a
// non-image content type.
var ErrUnsupportedContentType = errors.New("unsupported content type from URL")

// File is anything an image can be collected from. Type reports the media
// type the source declared, which may be wrong or unsupported.
type File interface {
	Name() string
	Type() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// OSFile is an image on the local file system.
type OSFile struct {
	Path string
	// MediaType overrides the type guessed from the extension.
	MediaType string
}

func (f OSFile) Name() string { return filepath.Base(f.Path) }

func (f OSFile) Type() string {
	if f.MediaType != "" {
		return f.MediaType
	}
	return MediaTypeFromFilename(f.Path)
}

func (f OSFile) Open(context.Context) (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// BytesFile is an image already held in memory, e.g. an uploaded form part.
type BytesFile struct {
	Filename  string
	MediaType string
	Data      []byte
}

// NewBytesFile builds a BytesFile, guessing the media type from the filename
// when contentType is empty or the generic octet-stream type.
func NewBytesFile(filename, contentType string, data []byte) *BytesFile {
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = MediaTypeFromFilename(filename)
	}
	return &BytesFile{Filename: filename, MediaType: contentType, Data: data}
}

func (f *BytesFile) Name() string { return f.Filename }
func (f *BytesFile) Type() string { return f.MediaType }

func (f *BytesFile) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}

// URLFile is a remote image. Nothing is fetched until Open is called.
type URLFile struct {
	URL    string
	Client *http.Client
}

// NewURLFile returns a URLFile fetched with client, or http.DefaultClient
// when client is nil.
func NewURLFile(rawURL string, client *http.Client) *URLFile {
	if client == nil {
		client = http.DefaultClient
	}
	return &URLFile{URL: rawURL, Client: client}
}

func (f *URLFile) Name() string {
	if u, err := url.ParseRequestURI(f.URL); err == nil && u.Path != "" && u.Path != "/" {
		return path.Base(u.Path)
	}
	return f.URL
}

// Type is guessed from the URL path, as the response headers are not known
// until the image is fetched.
func (f *URLFile) Type() string {
	return MediaTypeFromFilename(f.Name())
}

// Open downloads the image. The caller must close the returned body.
func (f *URLFile) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", f.URL, err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", f.URL, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: status %s", f.URL, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %q from %s", ErrUnsupportedContentType, contentType, f.URL)
	}
	return resp.Body, nil
}

// MediaTypeFromFilename maps a file extension to the media type a browser
// file picker would report for it. Unknown extensions yield "".
func MediaTypeFromFilename(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".jpe", ".jfif":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return ""
	}
}
