package scan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDirSourceListAndGet(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", "print('hi')\n")
	writeFile(t, root, "sub/b.js", "console.log('hi')\n")

	src := NewDirSource(map[string]string{"org/repo": root}, nil, nil, 0)
	ctx := context.Background()

	entries, err := src.ListEntries(ctx, "org/repo", "", "main")
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	byName := map[string]Entry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	if e, ok := byName["app.py"]; !ok || e.Type != "file" {
		t.Errorf("app.py entry = %+v", byName["app.py"])
	}
	if e, ok := byName["sub"]; !ok || e.Type != "dir" {
		t.Errorf("sub entry = %+v", byName["sub"])
	}

	content, ok := src.GetContent(ctx, "org/repo", "sub/b.js", "main")
	if !ok || !strings.Contains(content, "console.log") {
		t.Errorf("GetContent = %q, %v", content, ok)
	}
}

func TestDirSourceAbsentAndOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.py", strings.Repeat("x", 100))

	src := NewDirSource(map[string]string{"org/repo": root}, nil, nil, 10)
	ctx := context.Background()

	if _, ok := src.GetContent(ctx, "org/repo", "missing.py", "main"); ok {
		t.Error("absent file reported ok")
	}
	if _, ok := src.GetContent(ctx, "org/repo", "big.py", "main"); ok {
		t.Error("oversized file reported ok")
	}
	if _, ok := src.GetContent(ctx, "other/repo", "big.py", "main"); ok {
		t.Error("unconfigured repo reported ok")
	}
}

func TestDirSourceExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", "x")
	writeFile(t, root, "app_test.py", "x")

	src := NewDirSource(map[string]string{"org/repo": root}, []string{"**"}, []string{"**/*_test.py"}, 0)
	entries, err := src.ListEntries(context.Background(), "org/repo", "", "main")
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	for _, e := range entries {
		if e.Name == "app_test.py" {
			t.Error("excluded file listed")
		}
	}
}

func TestDirSourceResolveCommit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".git/HEAD", "ref: refs/heads/main\n")
	writeFile(t, root, ".git/refs/heads/main", "abc123def456\n")

	src := NewDirSource(map[string]string{"org/repo": root}, nil, nil, 0)
	sha, err := src.ResolveCommit(context.Background(), "org/repo", "main")
	if err != nil {
		t.Fatalf("ResolveCommit: %v", err)
	}
	if sha != "abc123def456" {
		t.Errorf("sha = %q", sha)
	}
}

func TestDirSourceResolveCommitDetachedHead(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".git/HEAD", "deadbeef\n")

	src := NewDirSource(map[string]string{"org/repo": root}, nil, nil, 0)
	sha, err := src.ResolveCommit(context.Background(), "org/repo", "main")
	if err != nil {
		t.Fatalf("ResolveCommit: %v", err)
	}
	if sha != "deadbeef" {
		t.Errorf("sha = %q", sha)
	}
}
