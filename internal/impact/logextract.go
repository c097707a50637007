package impact

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ziadkadry99/meshmap/internal/graph"
)

// maxLogURLs caps how many URL fragments one log paste contributes.
const maxLogURLs = 10

var (
	logServicePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)[a-z]+(?:-[a-z]+)*-service`),
		regexp.MustCompile(`(?i)[a-z]+_service`),
		regexp.MustCompile(`(?i)service[:\s]+([a-z-]+)`),
	}
	logURLPattern    = regexp.MustCompile(`https?://\S+|/[a-z0-9/_-]+`)
	logTopicPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)topic[:\s]+([a-z0-9._-]+)`),
		regexp.MustCompile(`(?i)kafka[:\s]+([a-z0-9._-]+)`),
	}
)

// LogRefs holds the graph references extracted from raw error-log text.
type LogRefs struct {
	Services []string
	URLs     []string
	Topics   []string
}

// ExtractLogRefs pulls candidate service names, URLs and Kafka topics
// out of error-log text. Pure text scanning; duplicates are removed,
// order of first appearance preserved.
func ExtractLogRefs(logText string) LogRefs {
	var refs LogRefs

	seen := map[string]bool{}
	for _, re := range logServicePatterns {
		for _, m := range re.FindAllStringSubmatch(logText, -1) {
			name := m[0]
			if len(m) > 1 && m[1] != "" {
				name = m[1]
			}
			if !seen[name] {
				seen[name] = true
				refs.Services = append(refs.Services, name)
			}
		}
	}

	seen = map[string]bool{}
	for _, m := range logURLPattern.FindAllString(logText, -1) {
		if !seen[m] {
			seen[m] = true
			refs.URLs = append(refs.URLs, m)
		}
		if len(refs.URLs) == maxLogURLs {
			break
		}
	}

	seen = map[string]bool{}
	for _, re := range logTopicPatterns {
		for _, m := range re.FindAllStringSubmatch(logText, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				refs.Topics = append(refs.Topics, m[1])
			}
		}
	}

	return refs
}

// AnalyzeLog extracts service, URL and topic references from error-log
// text, seeds the blast-radius traversal on the first service that
// resolves, and folds in edges matched by URL or topic.
func (a *Analyzer) AnalyzeLog(ctx context.Context, logText string) (*Result, error) {
	refs := ExtractLogRefs(logText)

	var res *Result
	for _, name := range refs.Services {
		seed, err := a.resolveSeed(ctx, name)
		if err != nil {
			return nil, err
		}
		if seed == nil {
			continue
		}
		res, err = a.analyzeSeed(ctx, seed)
		if err != nil {
			return nil, err
		}
		break
	}

	matched := a.matchLogEdges(ctx, refs)
	if res == nil {
		if len(matched) == 0 {
			return a.notFound(ctx)
		}
		res = &Result{}
	}
	res.Edges = mergeEdges(res.Edges, matched)
	res.Reasoning = fmt.Sprintf("Found %d service references, %d URLs, and %d Kafka topics in the log. %s",
		len(refs.Services), len(refs.URLs), len(refs.Topics), res.Reasoning)
	return res, nil
}

// matchLogEdges finds persisted edges referenced by the log's URLs and
// topics. Lookup failures are logged and skipped.
func (a *Analyzer) matchLogEdges(ctx context.Context, refs LogRefs) []graph.Interaction {
	var edges []graph.Interaction
	for _, url := range refs.URLs {
		matched, err := a.graphs.InteractionsByURLFragment(ctx, url)
		if err != nil {
			a.log.Debugw("url match failed", "url", url, "error", err)
			continue
		}
		edges = append(edges, matched...)
	}
	for _, topic := range refs.Topics {
		matched, err := a.graphs.InteractionsByTopic(ctx, topic)
		if err != nil {
			a.log.Debugw("topic match failed", "topic", topic, "error", err)
			continue
		}
		edges = append(edges, matched...)
	}
	return edges
}

func mergeEdges(base, extra []graph.Interaction) []graph.Interaction {
	seen := make(map[string]bool, len(base))
	for _, e := range base {
		seen[e.ID] = true
	}
	for _, e := range extra {
		if !seen[e.ID] {
			seen[e.ID] = true
			base = append(base, e)
		}
	}
	return base
}
