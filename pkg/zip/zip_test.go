package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"
)

func TestWriteAssets(t *testing.T) {
	var buf bytes.Buffer
	assets := []Asset{
		{Filename: "slide_001.png", MIME: "image/png", Data: []byte("one")},
		{Filename: "slide_002.png", MIME: "image/png", Data: []byte("two")},
		{Filename: "slide_001.png", MIME: "image/png", Data: []byte("again")},
	}
	if err := WriteAssets(&buf, assets, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)); err != nil {
		t.Fatalf("WriteAssets: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	want := map[string]string{"slide_001.png": "one", "slide_002.png": "two", "1_slide_001.png": "again"}
	if len(zr.File) != len(want) {
		t.Fatalf("entries = %d, want %d", len(zr.File), len(want))
	}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		if want[f.Name] != string(data) {
			t.Fatalf("%s = %q, want %q", f.Name, data, want[f.Name])
		}
	}
}

func TestWriteAssetsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAssets(&buf, nil, time.Now()); err != nil {
		t.Fatalf("WriteAssets: %v", err)
	}
	if _, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
		t.Fatalf("empty archive unreadable: %v", err)
	}
}
