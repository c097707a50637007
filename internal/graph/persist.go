package graph

import (
	"context"
	"database/sql"
	"fmt"
)

// SaveBatch persists one target's builder output: services first, then
// interactions referencing them. Endpoints that cannot be matched to any
// known service become placeholder services scoped to the current
// repository. The whole step is additive with respect to prior scans.
func (s *Store) SaveBatch(ctx context.Context, repo *Repository, services map[string]ServiceDraft, interactions []RawInteraction, commitSHA string) error {
	byName := make(map[string]*Service, len(services))

	for name, draft := range services {
		svc, err := s.UpsertService(ctx, repo.ID, draft)
		if err != nil {
			return err
		}
		byName[name] = svc
	}

	for _, raw := range interactions {
		source, err := s.resolveEndpoint(ctx, repo, byName, raw, raw.SourceService, commitSHA, true)
		if err != nil {
			return err
		}
		target, err := s.resolveEndpoint(ctx, repo, byName, raw, raw.TargetService, commitSHA, false)
		if err != nil {
			return err
		}

		in := &Interaction{
			SourceServiceID: source.ID,
			TargetServiceID: target.ID,
			EdgeType:        raw.EdgeType,
			HTTPMethod:      raw.Method,
			HTTPURL:         raw.URL,
			KafkaTopic:      raw.Topic,
			Direction:       raw.Direction,
			Confidence:      raw.Confidence,
			Evidence:        raw.File,
			DetectorName:    raw.Detector,
			CommitSHA:       commitSHA,
		}
		if err := s.InsertInteraction(ctx, in); err != nil {
			return err
		}
	}

	return s.TouchRepositoryScanned(ctx, repo.ID)
}

// resolveEndpoint maps an endpoint name to a Service row. Resolution
// order: this batch's services, any service in the graph with that name,
// a topic counterpart for Kafka edges, and finally a fresh placeholder.
func (s *Store) resolveEndpoint(ctx context.Context, repo *Repository, byName map[string]*Service, raw RawInteraction, name, commitSHA string, isSource bool) (*Service, error) {
	if svc, ok := byName[name]; ok {
		return svc, nil
	}

	svc, err := s.FindServiceByName(ctx, name)
	if err == nil {
		byName[name] = svc
		return svc, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	// For Kafka edges the placeholder name only encodes the topic; before
	// inventing a service, look for a real counterpart already persisted
	// on the other side of the topic.
	if raw.EdgeType == EdgeKafka && raw.Topic != "" {
		side := "consumer"
		if isSource {
			side = "producer"
		}
		match, err := s.FindTopicCounterpart(ctx, raw.Topic, side)
		if err == nil {
			byName[name] = match
			return match, nil
		}
		if err != sql.ErrNoRows {
			return nil, err
		}
	}

	svc, err = s.CreatePlaceholderService(ctx, repo.ID, name, commitSHA)
	if err != nil {
		return nil, fmt.Errorf("resolving endpoint %q: %w", name, err)
	}
	byName[name] = svc
	return svc, nil
}
