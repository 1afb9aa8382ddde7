package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaTypeFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"image.jpg", "image/jpeg"},
		{"image.JPEG", "image/jpeg"},
		{"document.png", "image/png"},
		{"animation.webp", "image/webp"},
		{"dir/scan.TIFF", "image/tiff"},
		{"archive.zip", ""},
		{"unknown", ""},
		{".bashrc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, MediaTypeFromFilename(tt.filename))
		})
	}
}

func TestOSFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "page.PNG")
	require.NoError(t, os.WriteFile(p, []byte("bytes"), 0o644))

	f := OSFile{Path: p}
	assert.Equal(t, "page.PNG", f.Name())
	assert.Equal(t, "image/png", f.Type())

	rc, err := f.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(data))

	f.MediaType = "image/jpeg"
	assert.Equal(t, "image/jpeg", f.Type())
}

func TestNewBytesFileGuessesGenericType(t *testing.T) {
	assert.Equal(t, "image/jpeg", NewBytesFile("a.jpg", "", nil).Type())
	assert.Equal(t, "image/png", NewBytesFile("a.png", "application/octet-stream", nil).Type())
	assert.Equal(t, "image/gif", NewBytesFile("a.png", "image/gif", nil).Type())
}

func TestURLFileFetchesLazily(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "image/jpeg")
		fmt.Fprint(w, "fake_jpeg_data")
	}))
	defer server.Close()

	f := NewURLFile(server.URL+"/pics/cover.jpg", nil)
	assert.Equal(t, "cover.jpg", f.Name())
	assert.Equal(t, "image/jpeg", f.Type())
	assert.Equal(t, 0, hits)

	rc, err := f.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "fake_jpeg_data", string(data))
	assert.Equal(t, 1, hits)
}

func TestURLFileNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewURLFile(server.URL+"/x.png", server.Client()).Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestURLFileUnsupportedContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html></html>")
	}))
	defer server.Close()

	_, err := NewURLFile(server.URL+"/x.png", nil).Open(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedContentType), "got %v", err)
}

func TestURLFileNameWithoutPath(t *testing.T) {
	f := NewURLFile("http://example.com", nil)
	assert.Equal(t, "http://example.com", f.Name())
	assert.Equal(t, "", f.Type())
}
