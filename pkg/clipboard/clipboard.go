// Package clipboard watches clipboard content for hidden payloads. The
// analyzer classifies text and images, opens recognized envelopes, and
// memoizes what it has already seen so the same content pasted twice is
// processed once.
package clipboard

import (
	"github.com/atotto/clipboard"
)

// Reader abstracts the platform clipboard so tests can feed canned
// content and so image support can vary per platform.
type Reader interface {
	// ReadText returns the current clipboard text. Permission errors
	// are returned as-is; the analyzer swallows them.
	ReadText() (string, error)
	// ReadImage returns the current clipboard image as encoded PNG
	// bytes, or nil when the clipboard holds no image or the platform
	// cannot read one.
	ReadImage() ([]byte, error)
}

// SystemReader reads the real system clipboard. Image reads are not
// supported by the underlying library and always come back empty.
type SystemReader struct{}

func (SystemReader) ReadText() (string, error) {
	return clipboard.ReadAll()
}

func (SystemReader) ReadImage() ([]byte, error) {
	return nil, nil
}
