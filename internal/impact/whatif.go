package impact

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/meshmap/internal/identity"
)

// SimulateChange predicts the blast radius of editing a file: the owning
// service is inferred from the path, then its outgoing edges are followed
// one and two hops.
func (a *Analyzer) SimulateChange(ctx context.Context, repoFullName, filePath string) (*Result, error) {
	name := identity.FromPath(filePath, repoFullName)
	seed, err := a.resolveSeed(ctx, name)
	if err != nil {
		return nil, err
	}
	if seed == nil {
		return a.notFound(ctx)
	}

	res := &Result{Seed: seed}
	visited := map[string]bool{seed.ID: true}

	outgoing, err := a.graphs.InteractionsBySource(ctx, seed.ID)
	if err != nil {
		return nil, err
	}
	for _, e := range outgoing {
		res.Edges = append(res.Edges, e)
		if visited[e.TargetServiceID] {
			continue
		}
		target := a.serviceByID(ctx, e.TargetServiceID)
		if target == nil {
			continue
		}
		visited[e.TargetServiceID] = true
		res.Direct = append(res.Direct, Dependent{
			ServiceID: target.ID,
			Name:      target.Name,
			Reason:    fmt.Sprintf("is called by %s", seed.Name),
			Kind:      e.EdgeType,
			Detail:    edgeDetail(e),
		})
	}

	for _, d := range res.Direct {
		twoHop, err := a.graphs.InteractionsBySource(ctx, d.ServiceID)
		if err != nil {
			return nil, err
		}
		for _, e := range twoHop {
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

	res.Reasoning = fmt.Sprintf("A change in %s is predicted to impact %d services within two hops.",
		seed.Name, len(res.Direct)+len(res.Cascade))
	return res, nil
}
