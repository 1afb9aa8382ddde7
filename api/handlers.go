// Package api serves the converter over HTTP: images are collected across
// requests, previewed, and converted into a single converted.pdf download.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"img2pdf/internal/collector"
	"img2pdf/internal/converter"
	"img2pdf/internal/preview"
)

const defaultMaxMemory = 32 << 20 // 32 MB for multipart form parsing

// defaultFetchTimeout bounds each image URL fetch when no client is given.
const defaultFetchTimeout = 30 * time.Second

// PreviewPath is the URL prefix preview handles resolve under.
const PreviewPath = "/preview/"

type APIErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSONError(w http.ResponseWriter, message string, details interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	errResponse := APIErrorResponse{
		Error:   message,
		Details: details,
	}
	if err := json.NewEncoder(w).Encode(errResponse); err != nil {
		slog.Error("Failed to write JSON error response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

// EntryView is how a collected image is listed to clients.
type EntryView struct {
	Index      int    `json:"index"`
	Name       string `json:"name"`
	MediaType  string `json:"media_type"`
	PreviewURL string `json:"preview_url"`
}

// ListResponse is returned by every request that reads or changes the
// collection.
type ListResponse struct {
	Count  int         `json:"count"`
	Images []EntryView `json:"images"`
}

// DecodeErrorDetails names the entry that stopped a conversion.
type DecodeErrorDetails struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Reason    string `json:"reason"`
}

// Options configures a Handler.
type Options struct {
	// MaxMemory bounds the in-memory part of multipart parsing.
	MaxMemory int64
	// PreviewMaxEdge bounds thumbnail size.
	PreviewMaxEdge int
	// Client fetches images added by URL. Defaults to a client with a 30s
	// timeout.
	Client *http.Client
	// Converter overrides the composition collaborators.
	Converter *converter.Config
}

// Handler owns one collection, like a single open browser page. Requests
// that touch the collection are serialized so it is never mutated
// concurrently.
type Handler struct {
	mu       sync.Mutex
	images   *collector.Collection
	previews *preview.Registry

	cfg       *converter.Config
	client    *http.Client
	maxMemory int64
}

// New returns a Handler with an empty collection.
func New(opts Options) *Handler {
	if opts.MaxMemory <= 0 {
		opts.MaxMemory = defaultMaxMemory
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: defaultFetchTimeout}
	}
	if opts.Converter == nil {
		opts.Converter = converter.NewDefaultConfig()
	}
	previews := preview.NewRegistry(PreviewPath, opts.PreviewMaxEdge)
	return &Handler{
		images:    collector.New(previews),
		previews:  previews,
		cfg:       opts.Converter,
		client:    opts.Client,
		maxMemory: opts.MaxMemory,
	}
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/images", h.HandleImages)
	mux.HandleFunc("/api/convert", h.HandleConvert)
	mux.HandleFunc(PreviewPath, h.HandlePreview)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "error", err)
		}
	})
	return mux
}

// list must be called with h.mu held.
func (h *Handler) list() ListResponse {
	entries := h.images.Entries()
	resp := ListResponse{Count: len(entries), Images: make([]EntryView, 0, len(entries))}
	for i, e := range entries {
		resp.Images = append(resp.Images, EntryView{
			Index:      i,
			Name:       e.Name(),
			MediaType:  e.MediaType(),
			PreviewURL: e.Preview.URL(),
		})
	}
	return resp
}

// HandleImages lists (GET), appends to (POST) or clears (DELETE) the
// collection.
func (h *Handler) HandleImages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.mu.Lock()
		resp := h.list()
		h.mu.Unlock()
		writeJSON(w, resp)
	case http.MethodPost:
		h.handleAdd(w, r)
	case http.MethodDelete:
		h.mu.Lock()
		h.images.Clear()
		resp := h.list()
		h.mu.Unlock()
		slog.Info("Collection cleared")
		writeJSON(w, resp)
	default:
		writeJSONError(w, "Invalid request method", "Only GET, POST and DELETE are allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if r.Body != nil {
			io.Copy(io.Discard, r.Body)
			r.Body.Close()
		}
	}()

	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			slog.Warn("Empty or malformed request body", "error", err)
			writeJSONError(w, "Malformed request body or empty request", err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Failed to parse multipart form", "error", err)
		writeJSONError(w, "Failed to parse request data", err.Error(), http.StatusBadRequest)
		return
	}

	var files []collector.File

	// Multipart temp files vanish with the request, so uploads are kept in
	// memory until converted or cleared.
	for _, fileHeader := range r.MultipartForm.File["images"] {
		slog.Debug("Processing uploaded file", "filename", fileHeader.Filename, "size", fileHeader.Size)
		file, err := fileHeader.Open()
		if err != nil {
			slog.Error("Failed to open uploaded file", "filename", fileHeader.Filename, "error", err)
			writeJSONError(w, fmt.Sprintf("Failed to open uploaded file: %s", fileHeader.Filename), err.Error(), http.StatusInternalServerError)
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			slog.Error("Failed to read uploaded file", "filename", fileHeader.Filename, "error", err)
			writeJSONError(w, fmt.Sprintf("Failed to read uploaded file: %s", fileHeader.Filename), err.Error(), http.StatusInternalServerError)
			return
		}
		files = append(files, collector.NewBytesFile(fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data))
	}

	if imageURLsStr := r.FormValue("image_urls"); imageURLsStr != "" {
		var urls []string
		if err := json.Unmarshal([]byte(imageURLsStr), &urls); err != nil {
			slog.Warn("Failed to parse 'image_urls' JSON", "error", err, "urlsStr", imageURLsStr)
			writeJSONError(w, "Invalid 'image_urls' JSON", err.Error(), http.StatusBadRequest)
			return
		}
		for _, u := range urls {
			files = append(files, collector.NewURLFile(u, h.client))
		}
	}

	if len(files) == 0 {
		writeJSONError(w, "No images provided", "Please upload files or provide image URLs.", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	h.images.AddFiles(files...)
	resp := h.list()
	h.mu.Unlock()

	slog.Info("Images collected", "added", len(files), "total", resp.Count)
	writeJSON(w, resp)
}

// HandlePreview serves a PNG thumbnail for a live preview handle.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, "Invalid request method", "Only GET is allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, PreviewPath)
	var buf bytes.Buffer
	if err := h.previews.Render(r.Context(), id, &buf); err != nil {
		if errors.Is(err, preview.ErrUnknownPreview) {
			writeJSONError(w, "Preview not found", err.Error(), http.StatusNotFound)
			return
		}
		slog.Warn("Failed to render preview", "id", id, "error", err)
		writeJSONError(w, "Could not render preview", err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write preview", "id", id, "error", err)
	}
}

// HandleConvert converts the collection and answers with the PDF as an
// attachment. The collection is cleared only once the body has been written.
func (h *Handler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, "Invalid request method", "Only POST is allowed", http.StatusMethodNotAllowed)
		return
	}

	download := converter.SaverFunc(func(_ context.Context, data []byte, filename string) error {
		w.Header().Set("Content-Type", converter.MIMEType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		_, err := w.Write(data)
		return err
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	res, err := converter.New(h.cfg, download).Convert(r.Context(), h.images)
	if err != nil {
		var decErr *converter.DecodeError
		if errors.As(err, &decErr) {
			writeJSONError(w, "Failed to decode image", DecodeErrorDetails{
				Index:     decErr.Index,
				Name:      decErr.Name,
				MediaType: decErr.MediaType,
				Reason:    decErr.Err.Error(),
			}, http.StatusUnprocessableEntity)
			return
		}
		if w.Header().Get("Content-Disposition") != "" {
			// Headers are already out, typically the client went away.
			slog.Error("Failed to write PDF to response", "error", err)
			return
		}
		writeJSONError(w, "Failed to convert images to PDF", err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Successfully generated PDF", "filename", res.Filename, "pages", res.Pages, "size", res.Size)
}
