package drive

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// Payload is the content of an upload: a file on disk, raw bytes, or
// tabular data. Each variant resolves once at the call boundary, so no
// runtime type inspection happens downstream.
type Payload interface {
	resolve() (resolvedPayload, error)
}

// content is a ReadSeeker, not a plain Reader: a retried upload must
// rewind and resend the full media body, and a drained one-shot reader
// would silently truncate the remote file.
type resolvedPayload struct {
	name     string
	mimeType string
	content  io.ReadSeeker
	cleanup  func() error
}

// FilePayload uploads a file from the local filesystem. The name and
// MIME type default to the file's own.
type FilePayload struct {
	Path string
	// Name overrides the remote file name; empty keeps the base name.
	Name string
	// MIMEType overrides detection by extension.
	MIMEType string
}

func (p FilePayload) resolve() (resolvedPayload, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return resolvedPayload{}, fmt.Errorf("failed to open payload file: %w", err)
	}

	name := p.Name
	if name == "" {
		name = filepath.Base(p.Path)
	}

	mimeType := p.MIMEType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(p.Path))
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return resolvedPayload{name: name, mimeType: mimeType, content: f, cleanup: f.Close}, nil
}

// RawPayload uploads in-memory bytes.
type RawPayload struct {
	Name     string
	MIMEType string
	Data     []byte
}

func (p RawPayload) resolve() (resolvedPayload, error) {
	if p.Name == "" {
		return resolvedPayload{}, fmt.Errorf("raw payload requires a name")
	}
	mimeType := p.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return resolvedPayload{name: p.Name, mimeType: mimeType, content: bytes.NewReader(p.Data)}, nil
}

// TabularPayload uploads rows as CSV, which Drive can import directly
// into a spreadsheet.
type TabularPayload struct {
	Name   string
	Header []string
	Rows   [][]string
}

func (p TabularPayload) resolve() (resolvedPayload, error) {
	if p.Name == "" {
		return resolvedPayload{}, fmt.Errorf("tabular payload requires a name")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if len(p.Header) > 0 {
		if err := w.Write(p.Header); err != nil {
			return resolvedPayload{}, fmt.Errorf("failed to encode header: %w", err)
		}
	}
	for _, row := range p.Rows {
		if err := w.Write(row); err != nil {
			return resolvedPayload{}, fmt.Errorf("failed to encode row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return resolvedPayload{}, fmt.Errorf("failed to encode csv: %w", err)
	}

	return resolvedPayload{name: p.Name, mimeType: "text/csv", content: bytes.NewReader(buf.Bytes())}, nil
}
