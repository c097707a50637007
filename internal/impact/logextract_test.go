package impact

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestExtractLogRefsServices(t *testing.T) {
	log := `service: billing
	ERROR order-service timeout
	retrying payment_service
	order-service timeout again`

	refs := ExtractLogRefs(log)
	seen := map[string]int{}
	for _, s := range refs.Services {
		seen[s]++
	}
	// The extraction is deliberately greedy and may pick up extra words;
	// the three real references must be present, each exactly once.
	for _, name := range []string{"order-service", "payment_service", "billing"} {
		if seen[name] != 1 {
			t.Errorf("service %q extracted %d times, want 1 (all: %v)", name, seen[name], refs.Services)
		}
	}
	if refs.Services[0] != "order-service" {
		t.Errorf("services[0] = %q, want order-service first", refs.Services[0])
	}
}

func TestExtractLogRefsURLsCappedAndDeduped(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("GET https://api.internal/orders failed\n")
	sb.WriteString("GET https://api.internal/orders failed again\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "GET https://host%d.internal/x failed\n", i)
	}

	refs := ExtractLogRefs(sb.String())
	if len(refs.URLs) != maxLogURLs {
		t.Fatalf("urls = %d, want %d", len(refs.URLs), maxLogURLs)
	}
	if refs.URLs[0] != "https://api.internal/orders" {
		t.Errorf("urls[0] = %q", refs.URLs[0])
	}
	seen := map[string]bool{}
	for _, u := range refs.URLs {
		if seen[u] {
			t.Errorf("duplicate url %q", u)
		}
		seen[u] = true
	}
}

func TestExtractLogRefsTopics(t *testing.T) {
	log := `consumer lag on topic: user-events
	kafka: order-events partition 3 stalled`

	refs := ExtractLogRefs(log)
	if len(refs.Topics) != 2 {
		t.Fatalf("topics = %v", refs.Topics)
	}
	if refs.Topics[0] != "user-events" || refs.Topics[1] != "order-events" {
		t.Errorf("topics = %v", refs.Topics)
	}
}

func TestExtractLogRefsEmptyInput(t *testing.T) {
	refs := ExtractLogRefs("nothing to see here")
	if len(refs.Services) != 0 || len(refs.URLs) != 0 || len(refs.Topics) != 0 {
		t.Errorf("refs = %+v, want empty", refs)
	}
}

func TestAnalyzeLogSeedsOnFirstResolvableService(t *testing.T) {
	analyzer, graphs := setupAnalyzer(t)
	buildShopGraph(t, graphs)

	log := `ERROR nonexistent-service unreachable
	caused by: checkout returned 502
	service: checkout`

	res, err := analyzer.AnalyzeLog(context.Background(), log)
	if err != nil {
		t.Fatalf("AnalyzeLog: %v", err)
	}
	if res.NotFound {
		t.Fatal("reported not found despite resolvable reference")
	}
	if res.Seed == nil || res.Seed.Name != "checkout" {
		t.Fatalf("seed = %+v", res.Seed)
	}
	if !strings.HasPrefix(res.Reasoning, "Found ") {
		t.Errorf("reasoning = %q", res.Reasoning)
	}
	if !strings.Contains(res.Reasoning, "checkout has") {
		t.Errorf("reasoning lost the traversal summary: %q", res.Reasoning)
	}
}

func TestAnalyzeLogMatchesEdgesByURL(t *testing.T) {
	analyzer, graphs := setupAnalyzer(t)
	buildShopGraph(t, graphs)

	// No service name resolves, but the URL matches a persisted edge.
	log := "GET https://warehouse/api/stock returned 500"
	res, err := analyzer.AnalyzeLog(context.Background(), log)
	if err != nil {
		t.Fatalf("AnalyzeLog: %v", err)
	}
	if res.NotFound {
		t.Fatal("reported not found despite matching edge")
	}
	if res.Seed != nil {
		t.Errorf("seed = %+v, want none", res.Seed)
	}
	if len(res.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(res.Edges))
	}
	if res.Edges[0].HTTPURL != "https://warehouse/api/stock" {
		t.Errorf("edge url = %q", res.Edges[0].HTTPURL)
	}
}

func TestAnalyzeLogMergesEdgesWithoutDuplicates(t *testing.T) {
	analyzer, graphs := setupAnalyzer(t)
	buildShopGraph(t, graphs)

	// The checkout seed's own traversal already includes the cart edge;
	// the URL match must not add it twice.
	log := "service: checkout\nGET https://checkout/api/cart failed"
	res, err := analyzer.AnalyzeLog(context.Background(), log)
	if err != nil {
		t.Fatalf("AnalyzeLog: %v", err)
	}
	if res.Seed == nil || res.Seed.Name != "checkout" {
		t.Fatalf("seed = %+v", res.Seed)
	}

	seen := map[string]int{}
	for _, e := range res.Edges {
		seen[e.ID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("edge %s appears %d times", id, n)
		}
	}
}

func TestAnalyzeLogNothingExtractable(t *testing.T) {
	analyzer, graphs := setupAnalyzer(t)
	buildShopGraph(t, graphs)

	res, err := analyzer.AnalyzeLog(context.Background(), "segfault in module 7")
	if err != nil {
		t.Fatalf("AnalyzeLog: %v", err)
	}
	if !res.NotFound {
		t.Error("want NotFound for unmatchable log")
	}
	if len(res.KnownServices) == 0 {
		t.Error("known services should be suggested")
	}
}
