package graph

import (
	"context"
	"database/sql"
	"testing"

	"github.com/ziadkadry99/meshmap/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewStore(d)
}

func mustRepo(t *testing.T, store *Store, fullName string) *Repository {
	t.Helper()
	repo, err := store.GetOrCreateRepository(context.Background(), fullName, "main")
	if err != nil {
		t.Fatalf("GetOrCreateRepository: %v", err)
	}
	return repo
}

func TestGetOrCreateRepositoryIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	a := mustRepo(t, store, "org/shop")
	b := mustRepo(t, store, "org/shop")
	if a.ID != b.ID {
		t.Errorf("got two repository rows for the same full name")
	}
	if a.DefaultBranch != "main" {
		t.Errorf("default branch = %q, want main", a.DefaultBranch)
	}
}

func TestUpsertServiceUpdatesInPlace(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repo := mustRepo(t, store, "org/shop")

	first, err := store.UpsertService(ctx, repo.ID, ServiceDraft{Name: "checkout", Language: "python", LastCommitSHA: "aaa"})
	if err != nil {
		t.Fatalf("UpsertService: %v", err)
	}

	second, err := store.UpsertService(ctx, repo.ID, ServiceDraft{Name: "checkout", Language: "python", LastCommitSHA: "bbb"})
	if err != nil {
		t.Fatalf("UpsertService rescan: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("rescan created a new service row")
	}
	if second.LastCommitSHA != "bbb" {
		t.Errorf("commit = %q, want bbb", second.LastCommitSHA)
	}

	services, err := store.ListServices(ctx)
	if err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if len(services) != 1 {
		t.Fatalf("got %d services, want 1", len(services))
	}
}

func TestUpsertServicePromotesPlaceholder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repo := mustRepo(t, store, "org/shop")

	ph, err := store.CreatePlaceholderService(ctx, repo.ID, "order-service", "sha1")
	if err != nil {
		t.Fatalf("CreatePlaceholderService: %v", err)
	}
	if !ph.Placeholder {
		t.Fatal("expected placeholder flag set")
	}

	real, err := store.UpsertService(ctx, repo.ID, ServiceDraft{Name: "order-service", Language: "python", LastCommitSHA: "sha2"})
	if err != nil {
		t.Fatalf("UpsertService: %v", err)
	}
	if real.ID != ph.ID {
		t.Errorf("upsert created a duplicate instead of promoting the placeholder")
	}
	if real.Placeholder {
		t.Error("placeholder flag not cleared by a real sighting")
	}
}

func TestCreatePlaceholderServiceIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repo := mustRepo(t, store, "org/shop")

	a, err := store.CreatePlaceholderService(ctx, repo.ID, "order-service", "sha")
	if err != nil {
		t.Fatalf("CreatePlaceholderService: %v", err)
	}
	b, err := store.CreatePlaceholderService(ctx, repo.ID, "order-service", "sha")
	if err != nil {
		t.Fatalf("CreatePlaceholderService again: %v", err)
	}
	if a.ID != b.ID {
		t.Error("duplicate placeholder rows for the same name")
	}
}

func TestFindServiceByNamePrefersRealOverPlaceholder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repoA := mustRepo(t, store, "org/a")
	repoB := mustRepo(t, store, "org/b")

	if _, err := store.CreatePlaceholderService(ctx, repoA.ID, "auth-service", "sha"); err != nil {
		t.Fatalf("CreatePlaceholderService: %v", err)
	}
	real, err := store.UpsertService(ctx, repoB.ID, ServiceDraft{Name: "auth-service", Language: "java"})
	if err != nil {
		t.Fatalf("UpsertService: %v", err)
	}

	got, err := store.FindServiceByName(ctx, "auth-service")
	if err != nil {
		t.Fatalf("FindServiceByName: %v", err)
	}
	if got.ID != real.ID {
		t.Errorf("resolved the placeholder, want the real service")
	}
}

func TestInteractionQueries(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repo := mustRepo(t, store, "org/shop")

	checkout, _ := store.UpsertService(ctx, repo.ID, ServiceDraft{Name: "checkout"})
	order, _ := store.UpsertService(ctx, repo.ID, ServiceDraft{Name: "order-service"})
	billing, _ := store.UpsertService(ctx, repo.ID, ServiceDraft{Name: "billing"})

	edges := []*Interaction{
		{SourceServiceID: checkout.ID, TargetServiceID: order.ID, EdgeType: EdgeHTTP, HTTPMethod: "GET", HTTPURL: "/api/x"},
		{SourceServiceID: billing.ID, TargetServiceID: order.ID, EdgeType: EdgeHTTP, HTTPMethod: "POST", HTTPURL: "/api/y"},
		{SourceServiceID: checkout.ID, TargetServiceID: billing.ID, EdgeType: EdgeKafka, KafkaTopic: "order-events", Direction: "producer"},
	}
	for _, e := range edges {
		if err := store.InsertInteraction(ctx, e); err != nil {
			t.Fatalf("InsertInteraction: %v", err)
		}
	}

	bySource, err := store.InteractionsBySource(ctx, checkout.ID)
	if err != nil {
		t.Fatalf("InteractionsBySource: %v", err)
	}
	if len(bySource) != 2 {
		t.Errorf("checkout has %d outgoing edges, want 2", len(bySource))
	}

	byTarget, err := store.InteractionsByTarget(ctx, order.ID)
	if err != nil {
		t.Fatalf("InteractionsByTarget: %v", err)
	}
	if len(byTarget) != 2 {
		t.Errorf("order-service has %d incoming edges, want 2", len(byTarget))
	}

	forService, err := store.InteractionsForService(ctx, billing.ID)
	if err != nil {
		t.Fatalf("InteractionsForService: %v", err)
	}
	if len(forService) != 2 {
		t.Errorf("billing touches %d edges, want 2", len(forService))
	}

	byTopic, err := store.InteractionsByTopic(ctx, "order-events")
	if err != nil {
		t.Fatalf("InteractionsByTopic: %v", err)
	}
	if len(byTopic) != 1 {
		t.Errorf("got %d edges for topic, want 1", len(byTopic))
	}

	topics, err := store.DistinctTopics(ctx)
	if err != nil {
		t.Fatalf("DistinctTopics: %v", err)
	}
	if len(topics) != 1 || topics[0] != "order-events" {
		t.Errorf("topics = %v, want [order-events]", topics)
	}

	degrees, err := store.TopServicesByInDegree(ctx, 5)
	if err != nil {
		t.Fatalf("TopServicesByInDegree: %v", err)
	}
	if len(degrees) == 0 || degrees[0].ServiceName != "order-service" || degrees[0].InDegree != 2 {
		t.Errorf("top in-degree = %+v, want order-service with 2", degrees)
	}
}

func TestFindTopicCounterpart(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repo := mustRepo(t, store, "org/shop")

	checkout, _ := store.UpsertService(ctx, repo.ID, ServiceDraft{Name: "checkout"})
	ph, _ := store.CreatePlaceholderService(ctx, repo.ID, "service-consuming-order-events", "sha")

	err := store.InsertInteraction(ctx, &Interaction{
		SourceServiceID: checkout.ID,
		TargetServiceID: ph.ID,
		EdgeType:        EdgeKafka,
		KafkaTopic:      "order-events",
		Direction:       "producer",
	})
	if err != nil {
		t.Fatalf("InsertInteraction: %v", err)
	}

	producer, err := store.FindTopicCounterpart(ctx, "order-events", "producer")
	if err != nil {
		t.Fatalf("FindTopicCounterpart: %v", err)
	}
	if producer.ID != checkout.ID {
		t.Errorf("producer = %s, want checkout", producer.Name)
	}

	// The consumer side is only a placeholder, which must never be
	// matched as a counterpart.
	if _, err := store.FindTopicCounterpart(ctx, "order-events", "consumer"); err != sql.ErrNoRows {
		t.Errorf("consumer lookup err = %v, want sql.ErrNoRows", err)
	}
}

func TestCascadeDeleteFromRepository(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repo := mustRepo(t, store, "org/shop")

	a, _ := store.UpsertService(ctx, repo.ID, ServiceDraft{Name: "a"})
	b, _ := store.UpsertService(ctx, repo.ID, ServiceDraft{Name: "b"})
	if err := store.InsertInteraction(ctx, &Interaction{
		SourceServiceID: a.ID, TargetServiceID: b.ID, EdgeType: EdgeHTTP,
	}); err != nil {
		t.Fatalf("InsertInteraction: %v", err)
	}

	if _, err := store.db.ExecContext(ctx, `DELETE FROM repositories WHERE id = ?`, repo.ID); err != nil {
		t.Fatalf("deleting repository: %v", err)
	}

	services, err := store.ListServices(ctx)
	if err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if len(services) != 0 {
		t.Errorf("%d services survived the cascade", len(services))
	}
	interactions, err := store.ListInteractions(ctx)
	if err != nil {
		t.Fatalf("ListInteractions: %v", err)
	}
	if len(interactions) != 0 {
		t.Errorf("%d interactions survived the cascade", len(interactions))
	}
}
