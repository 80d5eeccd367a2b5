package pipeline

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const defaultMaxDocumentBytes = 20 << 20

// DocumentLoader reads document images from disk with a size cap
type DocumentLoader struct {
	maxBytes int64
}

// NewDocumentLoader creates a new DocumentLoader
func NewDocumentLoader(maxBytes int64) *DocumentLoader {
	if maxBytes <= 0 {
		maxBytes = defaultMaxDocumentBytes
	}
	return &DocumentLoader{maxBytes: maxBytes}
}

// Document is a loaded document image with its detected media type
type Document struct {
	Path  string
	Name  string
	Bytes []byte
	MIME  string
}

// Load reads the document at path
func (l *DocumentLoader) Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("document %s is a directory", path)
	}
	if info.Size() > l.maxBytes {
		return nil, fmt.Errorf("document %s too large: %d bytes (limit %d)", path, info.Size(), l.maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("document %s is empty", path)
	}

	return &Document{
		Path:  path,
		Name:  filepath.Base(path),
		Bytes: data,
		MIME:  detectMIME(path, data),
	}, nil
}

// detectMIME prefers the file extension for the common document image
// types and falls back to content sniffing.
func detectMIME(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	}
	return http.DetectContentType(data)
}
