package query

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ziadkadry99/meshmap/internal/graph"
	"github.com/ziadkadry99/meshmap/internal/identity"
)

const (
	defaultTopLimit = 5
	defaultHops     = 2
)

// Caller is one service calling the asked-about service.
type Caller struct {
	ServiceName string         `json:"service_name"`
	Kind        graph.EdgeType `json:"kind"`
	Method      string         `json:"method,omitempty"`
	URL         string         `json:"url,omitempty"`
}

// TopicEdge is one producer/consumer pair on a topic.
type TopicEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Topic  string `json:"topic"`
}

// Result is the answer to one structured question. Only the fields for
// the matched question shape are populated.
type Result struct {
	Kind       string              `json:"kind"`
	Message    string              `json:"message,omitempty"`
	Callers    []Caller            `json:"callers,omitempty"`
	TopicEdges []TopicEdge         `json:"topic_edges,omitempty"`
	Topics     []string            `json:"topics,omitempty"`
	Degrees    []graph.DegreeEntry `json:"degrees,omitempty"`
	Reachable  []string            `json:"reachable,omitempty"`
	Highlight  []string            `json:"highlight_services,omitempty"`
}

var (
	callsRe = regexp.MustCompile(`(?i)calls?\s+([a-z0-9_-]+)`)
	topicRe = regexp.MustCompile(`(?i)topic[:\s]+([a-z0-9._-]+)`)
	topNRe  = regexp.MustCompile(`(?i)top\s+(\d+)`)
	hopsRe  = regexp.MustCompile(`(?i)(\d+)\s+hops?`)
	fromRe  = regexp.MustCompile(`(?i)(?:reachable\s+from|from|reaches?)\s+([a-z0-9_-]+)`)
)

// Engine answers a fixed set of question shapes with targeted graph
// queries. Unrecognized shapes get a placeholder answer, never an error.
type Engine struct {
	graphs *graph.Store
	log    *zap.SugaredLogger
}

// NewEngine wires a query engine over the graph store.
func NewEngine(graphs *graph.Store, log *zap.SugaredLogger) *Engine {
	return &Engine{graphs: graphs, log: log}
}

// Ask dispatches a natural-language question to the matching handler.
func (e *Engine) Ask(ctx context.Context, question string) (*Result, error) {
	q := strings.ToLower(question)

	switch {
	case strings.Contains(q, "call"):
		return e.whoCalls(ctx, question)
	case strings.Contains(q, "topic"):
		return e.topics(ctx, question)
	case strings.Contains(q, "in-degree") || strings.Contains(q, "most connected"):
		return e.topByInDegree(ctx, question)
	case strings.Contains(q, "hop") || strings.Contains(q, "fan-out"):
		return e.reachable(ctx, question)
	default:
		return &Result{
			Kind:    "unsupported",
			Message: "Question shape not recognized. Try: who calls X, what uses topic T, top N services by in-degree, or what is reachable from X within N hops.",
		}, nil
	}
}

func (e *Engine) whoCalls(ctx context.Context, question string) (*Result, error) {
	m := callsRe.FindStringSubmatch(question)
	if m == nil {
		return &Result{Kind: "who_calls", Message: "Could not extract a service name from the question."}, nil
	}

	target, err := e.findService(ctx, m[1])
	if err != nil {
		return nil, err
	}
	if target == nil {
		return &Result{Kind: "who_calls", Message: fmt.Sprintf("Service %q not found.", m[1])}, nil
	}

	incoming, err := e.graphs.InteractionsByTarget(ctx, target.ID)
	if err != nil {
		return nil, err
	}

	res := &Result{Kind: "who_calls", Highlight: []string{target.ID}}
	for _, in := range incoming {
		source, err := e.graphs.GetService(ctx, in.SourceServiceID)
		if err != nil {
			e.log.Debugw("skipping unresolvable caller", "id", in.SourceServiceID, "error", err)
			continue
		}
		res.Callers = append(res.Callers, Caller{
			ServiceName: source.Name,
			Kind:        in.EdgeType,
			Method:      in.HTTPMethod,
			URL:         in.HTTPURL,
		})
	}
	return res, nil
}

func (e *Engine) topics(ctx context.Context, question string) (*Result, error) {
	m := topicRe.FindStringSubmatch(question)
	if m == nil {
		all, err := e.graphs.DistinctTopics(ctx)
		if err != nil {
			return nil, err
		}
		return &Result{Kind: "topics", Topics: all}, nil
	}

	edges, err := e.graphs.InteractionsByTopic(ctx, m[1])
	if err != nil {
		return nil, err
	}

	res := &Result{Kind: "topic"}
	for _, edge := range edges {
		source, err := e.graphs.GetService(ctx, edge.SourceServiceID)
		if err != nil {
			continue
		}
		target, err := e.graphs.GetService(ctx, edge.TargetServiceID)
		if err != nil {
			continue
		}
		res.TopicEdges = append(res.TopicEdges, TopicEdge{
			Source: source.Name,
			Target: target.Name,
			Topic:  edge.KafkaTopic,
		})
	}
	return res, nil
}

func (e *Engine) topByInDegree(ctx context.Context, question string) (*Result, error) {
	limit := defaultTopLimit
	if m := topNRe.FindStringSubmatch(question); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			limit = n
		}
	}

	degrees, err := e.graphs.TopServicesByInDegree(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &Result{Kind: "top_degree", Degrees: degrees}, nil
}

// reachable runs a hop-bounded BFS over outgoing edges from the named
// service.
func (e *Engine) reachable(ctx context.Context, question string) (*Result, error) {
	hops := defaultHops
	if m := hopsRe.FindStringSubmatch(question); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			hops = n
		}
	}

	m := fromRe.FindStringSubmatch(question)
	if m == nil {
		return &Result{Kind: "reachable", Message: "Could not extract a starting service from the question."}, nil
	}
	seed, err := e.findService(ctx, m[1])
	if err != nil {
		return nil, err
	}
	if seed == nil {
		return &Result{Kind: "reachable", Message: fmt.Sprintf("Service %q not found.", m[1])}, nil
	}

	visited := map[string]bool{seed.ID: true}
	frontier := []string{seed.ID}

	res := &Result{Kind: "reachable", Highlight: []string{seed.ID}}
	for i := 0; i < hops && len(frontier) > 0; i++ {
		var next []string
		for _, id := range frontier {
			outgoing, err := e.graphs.InteractionsBySource(ctx, id)
			if err != nil {
				return nil, err
			}
			for _, edge := range outgoing {
				if visited[edge.TargetServiceID] {
					continue
				}
				visited[edge.TargetServiceID] = true
				target, err := e.graphs.GetService(ctx, edge.TargetServiceID)
				if err != nil {
					e.log.Debugw("skipping unresolvable target", "id", edge.TargetServiceID, "error", err)
					continue
				}
				res.Reachable = append(res.Reachable, target.Name)
				res.Highlight = append(res.Highlight, target.ID)
				next = append(next, target.ID)
			}
		}
		frontier = next
	}
	return res, nil
}

// findService looks a service up by normalized name, then loosely by its
// bare name. Nil without error means not found.
func (e *Engine) findService(ctx context.Context, name string) (*graph.Service, error) {
	norm := identity.Normalize(name)
	svc, err := e.graphs.FindServiceByName(ctx, norm)
	if err == nil {
		return svc, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	matches, err := e.graphs.SearchServicesByName(ctx, identity.Bare(norm))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}
