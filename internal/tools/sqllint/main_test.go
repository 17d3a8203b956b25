package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGo(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLintDetectsMissingAndDuplicateMarkers(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "package q\n\nconst QGood = `--sql 11111111-2222-4333-8444-555555555555\nselect 1;`\n\nconst QBare = `select 2;`\n")
	writeGo(t, dir, "b.go", "package q\n\nconst QDup = `--sql 11111111-2222-4333-8444-555555555555\ncreate table t (id int);`\n\nconst Label = \"not sql\"\n")

	l := newLinter()
	if err := l.lintPath(dir); err != nil {
		t.Fatalf("lintPath: %v", err)
	}
	if len(l.violations) != 2 {
		t.Fatalf("violations = %+v, want 2", l.violations)
	}
	var msgs []string
	for _, v := range l.violations {
		msgs = append(msgs, v.name+": "+v.message)
	}
	joined := strings.Join(msgs, "\n")
	if !strings.Contains(joined, "QBare: missing") || !strings.Contains(joined, "QDup: marker already used by QGood") {
		t.Fatalf("unexpected violations:\n%s", joined)
	}
}

func TestSqlinlinePackageIsClean(t *testing.T) {
	l := newLinter()
	if err := l.lintPath(filepath.Join("..", "..", "sqlinline")); err != nil {
		t.Fatalf("lintPath: %v", err)
	}
	if len(l.violations) != 0 {
		t.Fatalf("sqlinline violations: %+v", l.violations)
	}
}
