package graph

// dedupeKey is the structural identity of an interaction within one batch.
type dedupeKey struct {
	source string
	target string
	kind   EdgeType
	method string
	url    string
	topic  string
}

// Deduplicate collapses structurally identical interactions, keeping the
// first occurrence of each key. It is pure, deterministic, and operates
// only within the given batch; persisted edges from earlier scans are not
// consulted.
func Deduplicate(interactions []RawInteraction) []RawInteraction {
	seen := make(map[dedupeKey]bool, len(interactions))
	unique := make([]RawInteraction, 0, len(interactions))
	for _, in := range interactions {
		key := dedupeKey{
			source: in.SourceService,
			target: in.TargetService,
			kind:   in.EdgeType,
			method: in.Method,
			url:    in.URL,
			topic:  in.Topic,
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, in)
	}
	return unique
}
