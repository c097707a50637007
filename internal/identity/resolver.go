// Package identity maps file paths and URLs onto logical service names.
// Resolution is heuristic: sentinel names propagate instead of errors, and
// callers treat them as low-confidence noise.
package identity

import (
	"regexp"
	"strings"
)

// UnknownService is the sentinel name used when no heuristic applies.
const UnknownService = "unknown-service"

// containerDirs are conventional directories whose next path segment names
// the service: services/auth-service/main.py -> auth-service.
var containerDirs = map[string]bool{
	"services": true,
	"src":      true,
	"app":      true,
}

// FromPath resolves the service a source file belongs to. Falls back to
// the repository's short name, then to the unknown-service sentinel.
func FromPath(path, repoFullName string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if containerDirs[part] && i+1 < len(parts) {
			return parts[i+1]
		}
		if strings.Contains(part, "-service") || strings.Contains(part, "service-") {
			return part
		}
	}
	if repoFullName != "" {
		segs := strings.Split(repoFullName, "/")
		return segs[len(segs)-1]
	}
	return UnknownService
}

var (
	hostRe = regexp.MustCompile(`://([^/]+)`)
	pathRe = regexp.MustCompile(`/(?:api|v\d+)?/?([a-z-]+)`)
)

// FromURL resolves the target service named by a URL. Prefers a
// service-like first DNS label, then the first meaningful path segment
// after an optional /api or /v<N> prefix.
func FromURL(url string) string {
	if m := hostRe.FindStringSubmatch(url); m != nil {
		host := m[1]
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i] // drop port
		}
		label := strings.Split(host, ".")[0]
		if strings.Contains(label, "-service") || strings.Contains(label, "service-") {
			return label
		}
	}
	if m := pathRe.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return UnknownService
}

var (
	leadingRe  = regexp.MustCompile(`^(service-|svc-)`)
	trailingRe = regexp.MustCompile(`(-service|-svc)$`)
)

// Normalize is the canonical write-time normalization: lowercase with
// underscores replaced by hyphens. Applied exactly once, in the graph
// builder, before any name reaches the store.
func Normalize(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-"))
}

// Bare strips conventional service prefixes and suffixes on top of
// Normalize. It is used only for loose lookup (seed resolution, queries),
// never for stored names.
func Bare(name string) string {
	n := Normalize(name)
	n = leadingRe.ReplaceAllString(n, "")
	return trailingRe.ReplaceAllString(n, "")
}
