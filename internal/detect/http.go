package detect

import (
	"regexp"
	"strings"
)

// httpPattern matches one HTTP client idiom. When method is empty the
// method is derived from methodGroup and normalized; unrecognized verbs
// fall back to GET.
type httpPattern struct {
	re          *regexp.Regexp
	library     string
	method      string
	methodGroup int
	urlGroup    int
	confidence  float64
}

type httpDetector struct {
	name     string
	patterns []httpPattern
}

func (d *httpDetector) Name() string { return d.name }

func (d *httpDetector) Detect(path, content string) []Finding {
	var findings []Finding
	for _, p := range d.patterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(content, -1) {
			url := group(content, m, p.urlGroup)
			if url == "" {
				continue
			}
			method := p.method
			if method == "" {
				method = normalizeMethod(group(content, m, p.methodGroup))
			}
			findings = append(findings, HTTPFinding{
				Evidence: Evidence{
					File:       path,
					Line:       lineAt(content, m[0]),
					Library:    p.library,
					Confidence: p.confidence,
				},
				Method: method,
				URL:    url,
			})
		}
	}
	return findings
}

// normalizeMethod maps client-library verb spellings onto the fixed
// GET/POST/PUT/DELETE/PATCH vocabulary. Anything unrecognized is GET.
func normalizeMethod(verb string) string {
	v := strings.ToLower(verb)
	switch {
	case strings.Contains(v, "post"):
		return "POST"
	case strings.Contains(v, "put"):
		return "PUT"
	case strings.Contains(v, "delete"):
		return "DELETE"
	case strings.Contains(v, "patch"):
		return "PATCH"
	default:
		return "GET"
	}
}

var pythonHTTPPatterns = []httpPattern{
	{re: regexp.MustCompile(`requests\.(get|post|put|delete|patch|head|options)\(f?['"]([^'"]+)['"]`),
		library: "requests", methodGroup: 1, urlGroup: 2, confidence: 0.85},
	{re: regexp.MustCompile(`httpx\.(get|post|put|delete|patch|head|options)\(f?['"]([^'"]+)['"]`),
		library: "httpx", methodGroup: 1, urlGroup: 2, confidence: 0.85},
	// Raw urllib use carries less intent than a dedicated client.
	{re: regexp.MustCompile(`urllib\.request\.(urlopen|Request)\(['"]([^'"]+)['"]`),
		library: "urllib", methodGroup: 1, urlGroup: 2, confidence: 0.80},
	{re: regexp.MustCompile(`aiohttp\.ClientSession\(\)\.(get|post|put|delete|patch)\(['"]([^'"]+)['"]`),
		library: "aiohttp", methodGroup: 1, urlGroup: 2, confidence: 0.85},
}

var javascriptHTTPPatterns = []httpPattern{
	{re: regexp.MustCompile(`fetch\(['"]([^'"]+)['"]`),
		library: "fetch", method: "GET", urlGroup: 1, confidence: 0.85},
	{re: regexp.MustCompile(`(?s)fetch\(['"]([^'"]+)['"].*?method:\s*['"]([^'"]+)['"]`),
		library: "fetch", methodGroup: 2, urlGroup: 1, confidence: 0.85},
	{re: regexp.MustCompile(`axios\.(get|post|put|delete|patch)\(['"]([^'"]+)['"]`),
		library: "axios", methodGroup: 1, urlGroup: 2, confidence: 0.85},
}

var javaHTTPPatterns = []httpPattern{
	{re: regexp.MustCompile(`new\s+Request\.Builder\(\)\.(get|post|put|delete|patch)\(['"]([^'"]+)['"]`),
		library: "OkHttp", methodGroup: 1, urlGroup: 2, confidence: 0.80},
	{re: regexp.MustCompile(`restTemplate\.(getForObject|postForObject|put|delete)\(['"]([^'"]+)['"]`),
		library: "RestTemplate", methodGroup: 1, urlGroup: 2, confidence: 0.80},
	{re: regexp.MustCompile(`webClient\.(get|post|put|delete)\(\)\.uri\(['"]([^'"]+)['"]`),
		library: "WebClient", methodGroup: 1, urlGroup: 2, confidence: 0.80},
}

// PythonHTTP detects HTTP client calls in Python code.
func PythonHTTP() Detector {
	return &httpDetector{name: "python-http", patterns: pythonHTTPPatterns}
}

// JavaScriptHTTP detects HTTP client calls in JavaScript/TypeScript code.
func JavaScriptHTTP() Detector {
	return &httpDetector{name: "javascript-http", patterns: javascriptHTTPPatterns}
}

// JavaHTTP detects HTTP client calls in Java code.
func JavaHTTP() Detector {
	return &httpDetector{name: "java-http", patterns: javaHTTPPatterns}
}
