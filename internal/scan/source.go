// Package scan orchestrates repository scans: fetching files through a
// code source, running detectors, and persisting the resulting graph.
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Entry is one item in a repository listing.
type Entry struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Type string `json:"type"` // "file" or "dir"
	Size int64  `json:"size"`
}

// Source is the code-fetch collaborator contract. Implementations fetch
// file listings and contents for a repository at a ref. A file that is
// absent and a file that failed to fetch are indistinguishable to
// callers: GetContent reports ok=false for both.
type Source interface {
	ListEntries(ctx context.Context, repoFullName, path, ref string) ([]Entry, error)
	GetContent(ctx context.Context, repoFullName, path, ref string) (content string, ok bool)
	ResolveCommit(ctx context.Context, repoFullName, branch string) (string, error)
}

// DirSource serves repositories from local checkouts, mapping each
// owner/name to a directory on disk. Include/exclude globs use doublestar
// syntax and apply to file paths relative to the checkout root.
type DirSource struct {
	roots       map[string]string
	include     []string
	exclude     []string
	maxFileSize int64
}

// NewDirSource creates a DirSource over the given repo -> directory map.
func NewDirSource(roots map[string]string, include, exclude []string, maxFileSize int64) *DirSource {
	if maxFileSize <= 0 {
		maxFileSize = 1 << 20
	}
	return &DirSource{roots: roots, include: include, exclude: exclude, maxFileSize: maxFileSize}
}

func (s *DirSource) root(repoFullName string) (string, error) {
	dir, ok := s.roots[repoFullName]
	if !ok {
		return "", fmt.Errorf("no checkout configured for %s", repoFullName)
	}
	return dir, nil
}

// ListEntries lists the immediate children of path within the checkout.
func (s *DirSource) ListEntries(ctx context.Context, repoFullName, path, ref string) ([]Entry, error) {
	root, err := s.root(repoFullName)
	if err != nil {
		return nil, err
	}

	dirents, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(path)))
	if err != nil {
		return nil, fmt.Errorf("listing %s/%s: %w", repoFullName, path, err)
	}

	var entries []Entry
	for _, de := range dirents {
		rel := de.Name()
		if path != "" {
			rel = path + "/" + de.Name()
		}
		e := Entry{Path: rel, Name: de.Name(), Type: "file"}
		if de.IsDir() {
			e.Type = "dir"
		} else {
			if info, err := de.Info(); err == nil {
				e.Size = info.Size()
			}
			if !s.matches(rel) {
				continue
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// GetContent reads one file. Missing, oversized, or unreadable files all
// report ok=false.
func (s *DirSource) GetContent(ctx context.Context, repoFullName, path, ref string) (string, bool) {
	root, err := s.root(repoFullName)
	if err != nil {
		return "", false
	}
	full := filepath.Join(root, filepath.FromSlash(path))

	info, err := os.Stat(full)
	if err != nil || info.Size() > s.maxFileSize {
		return "", false
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// ResolveCommit reads the checkout's git HEAD for the requested branch.
func (s *DirSource) ResolveCommit(ctx context.Context, repoFullName, branch string) (string, error) {
	root, err := s.root(repoFullName)
	if err != nil {
		return "", err
	}

	head, err := os.ReadFile(filepath.Join(root, ".git", "HEAD"))
	if err != nil {
		return "", fmt.Errorf("reading HEAD for %s: %w", repoFullName, err)
	}
	ref := strings.TrimSpace(string(head))
	if !strings.HasPrefix(ref, "ref: ") {
		return ref, nil // detached HEAD holds the sha directly
	}

	refPath := strings.TrimPrefix(ref, "ref: ")
	sha, err := os.ReadFile(filepath.Join(root, ".git", filepath.FromSlash(refPath)))
	if err != nil {
		return "", fmt.Errorf("reading ref %s for %s: %w", refPath, repoFullName, err)
	}
	return strings.TrimSpace(string(sha)), nil
}

// matches applies include then exclude globs to a relative file path.
func (s *DirSource) matches(rel string) bool {
	included := len(s.include) == 0
	for _, pat := range s.include {
		if ok, _ := doublestar.Match(pat, rel); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, pat := range s.exclude {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return false
		}
	}
	return true
}
