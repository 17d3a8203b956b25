package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestPutWritesSlideFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	data := []byte("png-bytes")
	url, err := store.Put(context.Background(), data, "image/png", 7)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !regexp.MustCompile(`^/assets/slide_007_[0-9a-f]{32}\.png$`).MatchString(url) {
		t.Fatalf("unexpected url %q", url)
	}
	written, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, AssetURLPrefix)))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(written, data) {
		t.Fatalf("content mismatch")
	}
}

func TestPutRejectsEmptyData(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.Put(context.Background(), nil, "image/png", 1); err == nil {
		t.Fatalf("expected error for empty asset")
	}
}

func TestSlideFilename(t *testing.T) {
	if got := SlideFilename(0, "image/jpeg"); !regexp.MustCompile(`^slide_[0-9a-f]{32}\.jpg$`).MatchString(got) {
		t.Fatalf("SlideFilename(0) = %q", got)
	}
	if SlideFilename(3, "image/png") == SlideFilename(3, "image/png") {
		t.Fatalf("filenames should be unique")
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "slide_001.png", want: "slide_001.png"},
		{key: "/nested//a.png", want: "nested/a.png"},
		{key: `win\path.png`, want: "win/path.png"},
		{key: "../escape.png", wantErr: true},
		{key: "..", wantErr: true},
		{key: "  ", wantErr: true},
	}
	for _, tc := range tests {
		got, err := sanitizeKey(tc.key)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("sanitizeKey(%q) expected error, got %q", tc.key, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("sanitizeKey(%q) = %q, %v; want %q", tc.key, got, err, tc.want)
		}
	}
}

func TestWriteHonorsCanceledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Write(ctx, "a.png", []byte("x")); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestOpenRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	url, err := store.Put(context.Background(), []byte("jpeg-bytes"), "image/jpeg", 2)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := store.Open(context.Background(), url)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, []byte("jpeg-bytes")) {
		t.Fatalf("Open = %q", got)
	}
	if _, err := store.Open(context.Background(), "/assets/../../etc/passwd"); err == nil {
		t.Fatalf("traversal should be rejected")
	}
	if _, err := store.Open(context.Background(), "/assets/missing.png"); err == nil {
		t.Fatalf("missing asset should fail")
	}
}
