// Package collector holds the ordered set of images a user picked for
// conversion, together with the preview handles shown while they wait.
package collector

import "log/slog"

// Preview is a display-only, revocable reference to a collected file.
// It never takes part in the exported document.
type Preview interface {
	ID() string
	URL() string
	// Release revokes the handle. Calling it more than once is harmless.
	Release()
}

// Previewer hands out preview handles for newly collected files.
type Previewer interface {
	Create(f File) Preview
}

// Entry is one collected image: where its bytes come from, the media type it
// declared, and the preview handle created for it.
type Entry struct {
	File    File
	Preview Preview
}

// Name returns the file name of the entry.
func (e Entry) Name() string { return e.File.Name() }

// MediaType returns the media type the file declared when it was collected.
func (e Entry) MediaType() string { return e.File.Type() }

// State describes whether a collection has anything to convert.
type State int

const (
	Empty State = iota
	HasEntries
)

func (s State) String() string {
	if s == HasEntries {
		return "has-entries"
	}
	return "empty"
}

// Collection is an append-only, ordered list of entries. Insertion order is
// page order. It is not safe for concurrent use; callers that serve several
// goroutines must serialize access themselves.
type Collection struct {
	previewer Previewer
	entries   []Entry
}

// New returns an empty collection that creates previews with p. A nil
// previewer yields handles that do nothing.
func New(p Previewer) *Collection {
	if p == nil {
		p = nopPreviewer{}
	}
	return &Collection{previewer: p}
}

// AddFiles appends one entry per file, in order. No image bytes are read and
// nothing is validated here; unsupported or broken files are only noticed at
// conversion time. Nil files are ignored and do not count towards Len.
func (c *Collection) AddFiles(files ...File) {
	for _, f := range files {
		if f == nil {
			continue
		}
		c.entries = append(c.entries, Entry{File: f, Preview: c.previewer.Create(f)})
		slog.Debug("Collected image", "name", f.Name(), "mediaType", f.Type(), "position", len(c.entries)-1)
	}
}

// Clear empties the collection and releases every preview handle.
func (c *Collection) Clear() {
	if len(c.entries) == 0 {
		return
	}
	for _, e := range c.entries {
		if e.Preview != nil {
			e.Preview.Release()
		}
	}
	slog.Debug("Cleared collection", "released", len(c.entries))
	c.entries = nil
}

// Entries returns a snapshot of the collection in insertion order.
func (c *Collection) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Collection) Len() int { return len(c.entries) }

func (c *Collection) State() State {
	if len(c.entries) == 0 {
		return Empty
	}
	return HasEntries
}

type nopPreviewer struct{}

func (nopPreviewer) Create(File) Preview { return nopPreview{} }

type nopPreview struct{}

func (nopPreview) ID() string  { return "" }
func (nopPreview) URL() string { return "" }
func (nopPreview) Release()    {}
