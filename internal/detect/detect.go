package detect

import (
	"path/filepath"
	"strings"
)

// Direction distinguishes messaging endpoints.
type Direction string

const (
	DirectionProducer Direction = "producer"
	DirectionConsumer Direction = "consumer"
)

// Evidence locates a finding in source text and carries the matching
// pattern's metadata.
type Evidence struct {
	File       string
	Line       int // 1-based
	Library    string
	Confidence float64
}

func (e Evidence) evidence() Evidence { return e }

// Finding is one candidate interaction occurrence in one file. It is a
// sealed union: HTTPFinding or KafkaFinding. Findings are ephemeral and
// never persisted directly.
type Finding interface {
	evidence() Evidence
}

// HTTPFinding is a detected outbound HTTP call.
type HTTPFinding struct {
	Evidence
	Method string
	URL    string
}

// KafkaFinding is a detected Kafka produce or consume site.
type KafkaFinding struct {
	Evidence
	Topic     string
	Direction Direction
}

// Meta returns the shared evidence of any finding.
func Meta(f Finding) Evidence { return f.evidence() }

// Detector scans a single file's text for candidate interactions. Detectors
// are pure: no I/O, never panic, and malformed or non-matching content
// yields an empty result.
type Detector interface {
	Name() string
	Detect(path, content string) []Finding
}

// ForLanguage returns the detectors applicable to the given language.
// Unknown languages get none.
func ForLanguage(lang string) []Detector {
	switch lang {
	case "python":
		return []Detector{PythonHTTP(), PythonKafka()}
	case "javascript", "typescript":
		return []Detector{JavaScriptHTTP(), NodeKafka()}
	case "java":
		return []Detector{JavaHTTP(), JavaKafka()}
	}
	return nil
}

// LanguageForPath infers the source language from a file extension.
func LanguageForPath(path string) string {
	switch filepath.Ext(path) {
	case ".py":
		return "python"
	case ".js", ".jsx":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".java":
		return "java"
	}
	return "unknown"
}

// Extensions lists the file extensions the detector set understands.
var Extensions = []string{".py", ".js", ".jsx", ".ts", ".tsx", ".java"}

// lineAt returns the 1-based line number of byte offset pos in content.
func lineAt(content string, pos int) int {
	return strings.Count(content[:pos], "\n") + 1
}

// group extracts capture group n from a FindAllStringSubmatchIndex match.
func group(content string, m []int, n int) string {
	if 2*n+1 >= len(m) || m[2*n] < 0 {
		return ""
	}
	return content[m[2*n]:m[2*n+1]]
}
