package graph

import "testing"

func TestDeduplicateFirstOccurrenceWins(t *testing.T) {
	dupes := []RawInteraction{
		{SourceService: "checkout", TargetService: "order-service", EdgeType: EdgeHTTP, Method: "GET", URL: "https://order-service/api/x", File: "a.py", Line: 3},
		{SourceService: "checkout", TargetService: "order-service", EdgeType: EdgeHTTP, Method: "GET", URL: "https://order-service/api/x", File: "a.py", Line: 17},
		{SourceService: "checkout", TargetService: "order-service", EdgeType: EdgeHTTP, Method: "GET", URL: "https://order-service/api/x", File: "b.py", Line: 9},
	}

	out := Deduplicate(dupes)
	if len(out) != 1 {
		t.Fatalf("got %d interactions, want 1", len(out))
	}
	if out[0].Line != 3 || out[0].File != "a.py" {
		t.Errorf("kept %s:%d, want first occurrence a.py:3", out[0].File, out[0].Line)
	}
}

func TestDeduplicateKeepsDistinctKeys(t *testing.T) {
	ins := []RawInteraction{
		{SourceService: "checkout", TargetService: "order-service", EdgeType: EdgeHTTP, Method: "GET", URL: "/a"},
		{SourceService: "checkout", TargetService: "order-service", EdgeType: EdgeHTTP, Method: "POST", URL: "/a"},
		{SourceService: "checkout", TargetService: "order-service", EdgeType: EdgeHTTP, Method: "GET", URL: "/b"},
		{SourceService: "billing", TargetService: "order-service", EdgeType: EdgeHTTP, Method: "GET", URL: "/a"},
		{SourceService: "checkout", TargetService: "service-consuming-orders", EdgeType: EdgeKafka, Topic: "orders"},
	}

	out := Deduplicate(ins)
	if len(out) != len(ins) {
		t.Fatalf("got %d interactions, want %d", len(out), len(ins))
	}
	for i := range out {
		if out[i].SourceService != ins[i].SourceService || out[i].URL != ins[i].URL {
			t.Errorf("order not preserved at %d", i)
		}
	}
}

func TestDeduplicateEmpty(t *testing.T) {
	if out := Deduplicate(nil); len(out) != 0 {
		t.Fatalf("got %d interactions, want 0", len(out))
	}
}
