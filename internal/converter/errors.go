package converter

import (
	"errors"
	"fmt"
)

// ErrUnsupportedMediaType marks entries that are neither PNG nor JPEG. Such
// entries are skipped; the error never reaches callers of Compose.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// ErrTypeMismatch is wrapped in a DecodeError when the bytes of an entry are
// a different image format than the one it declared.
var ErrTypeMismatch = errors.New("content does not match declared media type")

// DecodeError aborts a composition. Index is the entry's position in the
// collection.
type DecodeError struct {
	Index     int
	Name      string
	MediaType string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not decode image %d (%s, %s): %v", e.Index, e.Name, e.MediaType, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
