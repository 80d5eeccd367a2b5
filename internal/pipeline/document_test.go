package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDocumentLoader_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	content := []byte("\x89PNG\r\n\x1a\nfakeimagedata")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := NewDocumentLoader(0).Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Name != "scan.png" {
		t.Errorf("Name = %q", doc.Name)
	}
	if doc.MIME != "image/png" {
		t.Errorf("MIME = %q", doc.MIME)
	}
	if len(doc.Bytes) != len(content) {
		t.Errorf("Bytes length = %d, want %d", len(doc.Bytes), len(content))
	}
}

func TestDocumentLoader_Missing(t *testing.T) {
	if _, err := NewDocumentLoader(0).Load(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Error("expected error for missing document")
	}
}

func TestDocumentLoader_Directory(t *testing.T) {
	_, err := NewDocumentLoader(0).Load(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "directory") {
		t.Errorf("err = %v, want directory error", err)
	}
}

func TestDocumentLoader_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	_, err := NewDocumentLoader(0).Load(path)
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("err = %v, want empty error", err)
	}
}

func TestDocumentLoader_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.png")
	if err := os.WriteFile(path, make([]byte, 64), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := NewDocumentLoader(16).Load(path)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("err = %v, want size error", err)
	}
}

func TestDetectMIME(t *testing.T) {
	tests := []struct {
		path string
		data []byte
		want string
	}{
		{"a.png", nil, "image/png"},
		{"a.JPG", nil, "image/jpeg"},
		{"a.jpeg", nil, "image/jpeg"},
		{"a.webp", nil, "image/webp"},
		{"a.pdf", nil, "application/pdf"},
		{"a.bin", []byte("\x89PNG\r\n\x1a\n more bytes here"), "image/png"},
		{"a", []byte("plain text content!"), "text/plain; charset=utf-8"},
	}
	for _, tt := range tests {
		if got := detectMIME(tt.path, tt.data); got != tt.want {
			t.Errorf("detectMIME(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
