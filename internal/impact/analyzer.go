package impact

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/meshmap/internal/detect"
	"github.com/ziadkadry99/meshmap/internal/graph"
	"github.com/ziadkadry99/meshmap/internal/identity"
	"github.com/ziadkadry99/meshmap/internal/scan"
)

// knownNamesCap bounds the service-name list attached to a not-found
// result.
const knownNamesCap = 25

// Dependent is a service directly connected to the seed, with the edge
// that exposes it.
type Dependent struct {
	ServiceID string         `json:"service_id"`
	Name      string         `json:"name"`
	Reason    string         `json:"reason"`
	Kind      graph.EdgeType `json:"kind"`
	Detail    string         `json:"detail,omitempty"`
}

// CascadeDependent is a service reached one hop beyond the direct
// dependents, through the named intermediate.
type CascadeDependent struct {
	ServiceID string `json:"service_id"`
	Name      string `json:"name"`
	Via       string `json:"via"`
}

// Result is the blast radius for one seed service. A missing seed yields
// NotFound plus a bounded list of known names; analysis failures populate
// Error with the collections left empty, so callers can always render
// something.
type Result struct {
	Seed          *graph.Service      `json:"seed,omitempty"`
	NotFound      bool                `json:"not_found,omitempty"`
	KnownServices []string            `json:"known_services,omitempty"`
	Direct        []Dependent         `json:"direct"`
	Cascade       []CascadeDependent  `json:"cascade"`
	Edges         []graph.Interaction `json:"edges"`
	Reasoning     string              `json:"reasoning,omitempty"`
	Error         string              `json:"error,omitempty"`
}

// Analyzer computes bounded blast-radius traversals over the persisted
// graph. The source is optional; when present it enables an on-demand
// rescan of the seed's own repository if the graph holds no edges for it.
type Analyzer struct {
	graphs *graph.Store
	source scan.Source
	log    *zap.SugaredLogger
}

// NewAnalyzer wires an analyzer. A nil source disables the fallback
// rescan.
func NewAnalyzer(graphs *graph.Store, source scan.Source, log *zap.SugaredLogger) *Analyzer {
	return &Analyzer{graphs: graphs, source: source, log: log}
}

// AnalyzeService computes the blast radius of the named service failing.
func (a *Analyzer) AnalyzeService(ctx context.Context, name string) (*Result, error) {
	seed, err := a.resolveSeed(ctx, name)
	if err != nil {
		return nil, err
	}
	if seed == nil {
		return a.notFound(ctx)
	}
	return a.analyzeSeed(ctx, seed)
}

// resolveSeed looks a service up by normalized name, then loosely by its
// bare name. A nil service with nil error means not found.
func (a *Analyzer) resolveSeed(ctx context.Context, name string) (*graph.Service, error) {
	norm := identity.Normalize(name)
	if norm == "" {
		return nil, nil
	}

	seed, err := a.graphs.FindServiceByName(ctx, norm)
	if err == nil {
		return seed, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	matches, err := a.graphs.SearchServicesByName(ctx, identity.Bare(norm))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

func (a *Analyzer) notFound(ctx context.Context) (*Result, error) {
	names, err := a.graphs.ServiceNames(ctx, knownNamesCap)
	if err != nil {
		return nil, err
	}
	return &Result{NotFound: true, KnownServices: names}, nil
}

func (a *Analyzer) analyzeSeed(ctx context.Context, seed *graph.Service) (*Result, error) {
	edges, err := a.graphs.InteractionsForService(ctx, seed.ID)
	if err != nil {
		return nil, err
	}
	if len(edges) == 0 && a.source != nil {
		edges = a.rescanSeed(ctx, seed)
	}

	res := &Result{Seed: seed}
	visited := map[string]bool{seed.ID: true}

	// Phase 1: both edge directions produce dependents. A caller of the
	// seed is exposed to its failure; a callee is exposed to the seed
	// never calling it.
	for _, e := range edges {
		var otherID, reason string
		switch {
		case e.TargetServiceID == seed.ID:
			otherID = e.SourceServiceID
			reason = fmt.Sprintf("calls %s", seed.Name)
		case e.SourceServiceID == seed.ID:
			otherID = e.TargetServiceID
			reason = fmt.Sprintf("is called by %s", seed.Name)
		default:
			// Surfaced by the topic rescan: neither endpoint is the seed.
			a.addTopicDependent(ctx, res, visited, seed, e, e.SourceServiceID)
			a.addTopicDependent(ctx, res, visited, seed, e, e.TargetServiceID)
			res.Edges = append(res.Edges, e)
			continue
		}

		res.Edges = append(res.Edges, e)
		if visited[otherID] {
			continue
		}
		other := a.serviceByID(ctx, otherID)
		if other == nil {
			continue
		}
		visited[otherID] = true
		res.Direct = append(res.Direct, Dependent{
			ServiceID: other.ID,
			Name:      other.Name,
			Reason:    reason,
			Kind:      e.EdgeType,
			Detail:    edgeDetail(e),
		})
	}

	// Phase 2: exactly one hop past the direct dependents, following
	// outgoing edges only. A deliberate depth bound, not a closure.
	for _, d := range res.Direct {
		outgoing, err := a.graphs.InteractionsBySource(ctx, d.ServiceID)
		if err != nil {
			return nil, err
		}
		for _, e := range outgoing {
			if visited[e.TargetServiceID] {
				continue
			}
			target := a.serviceByID(ctx, e.TargetServiceID)
			if target == nil {
				continue
			}
			visited[e.TargetServiceID] = true
			res.Edges = append(res.Edges, e)
			res.Cascade = append(res.Cascade, CascadeDependent{
				ServiceID: target.ID,
				Name:      target.Name,
				Via:       d.Name,
			})
		}
	}

	res.Reasoning = fmt.Sprintf("%s has %d direct dependents and %d cascade dependents within two hops.",
		seed.Name, len(res.Direct), len(res.Cascade))
	return res, nil
}

func (a *Analyzer) addTopicDependent(ctx context.Context, res *Result, visited map[string]bool, seed *graph.Service, e graph.Interaction, id string) {
	if visited[id] {
		return
	}
	svc := a.serviceByID(ctx, id)
	if svc == nil {
		return
	}
	visited[id] = true
	res.Direct = append(res.Direct, Dependent{
		ServiceID: svc.ID,
		Name:      svc.Name,
		Reason:    fmt.Sprintf("shares topic %s with %s", e.KafkaTopic, seed.Name),
		Kind:      e.EdgeType,
		Detail:    e.KafkaTopic,
	})
}

// serviceByID resolves an endpoint id. Malformed or dangling ids are
// logged and skipped, never fatal to the traversal.
func (a *Analyzer) serviceByID(ctx context.Context, id string) *graph.Service {
	if err := uuid.Validate(id); err != nil {
		a.log.Warnw("skipping malformed service id", "id", id, "error", err)
		return nil
	}
	svc, err := a.graphs.GetService(ctx, id)
	if err != nil {
		a.log.Debugw("skipping unresolvable service id", "id", id, "error", err)
		return nil
	}
	return svc
}

// rescanSeed re-runs the detector set over the seed's own repository and
// matches any Kafka topics it mentions against persisted interactions,
// to surface connections missed by prior scans. Best effort only.
func (a *Analyzer) rescanSeed(ctx context.Context, seed *graph.Service) []graph.Interaction {
	repo, err := a.graphs.GetRepository(ctx, seed.RepoID)
	if err != nil {
		a.log.Debugw("fallback rescan skipped", "service", seed.Name, "error", err)
		return nil
	}

	files := scan.FetchFiles(ctx, a.source, a.log, repo.FullName, "", repo.DefaultBranch)

	topics := map[string]bool{}
	for _, f := range files {
		for _, d := range detect.ForLanguage(detect.LanguageForPath(f.Path)) {
			for _, finding := range d.Detect(f.Path, f.Content) {
				if kf, ok := finding.(detect.KafkaFinding); ok {
					topics[kf.Topic] = true
				}
			}
		}
	}

	var edges []graph.Interaction
	for topic := range topics {
		matched, err := a.graphs.InteractionsByTopic(ctx, topic)
		if err != nil {
			a.log.Debugw("topic match failed", "topic", topic, "error", err)
			continue
		}
		edges = append(edges, matched...)
	}
	if len(edges) > 0 {
		a.log.Infow("fallback rescan surfaced edges", "service", seed.Name, "edges", len(edges))
	}
	return edges
}

func edgeDetail(e graph.Interaction) string {
	if e.KafkaTopic != "" {
		return e.KafkaTopic
	}
	return e.HTTPURL
}
