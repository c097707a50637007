package graph

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/meshmap/internal/db"
)

// Store provides persistence for repositories, services and interactions.
type Store struct {
	db *db.DB
}

// NewStore creates a graph store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// --- repositories ---

// GetOrCreateRepository finds a repository by full name, creating it on
// first sight.
func (s *Store) GetOrCreateRepository(ctx context.Context, fullName, branch string) (*Repository, error) {
	repo, err := s.GetRepositoryByFullName(ctx, fullName)
	if err == nil {
		return repo, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	if branch == "" {
		branch = "main"
	}
	repo = &Repository{
		ID:            uuid.NewString(),
		FullName:      fullName,
		Provider:      "github",
		DefaultBranch: branch,
		CreatedAt:     time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO repositories (id, full_name, provider, default_branch, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		repo.ID, repo.FullName, repo.Provider, repo.DefaultBranch, repo.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating repository: %w", err)
	}
	return repo, nil
}

// GetRepository retrieves a repository by ID.
func (s *Store) GetRepository(ctx context.Context, id string) (*Repository, error) {
	r := &Repository{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, full_name, provider, default_branch, last_scanned_at, created_at
		 FROM repositories WHERE id = ?`, id,
	).Scan(&r.ID, &r.FullName, &r.Provider, &r.DefaultBranch, &r.LastScannedAt, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("getting repository: %w", err)
	}
	return r, nil
}

// GetRepositoryByFullName looks a repository up by owner/name.
func (s *Store) GetRepositoryByFullName(ctx context.Context, fullName string) (*Repository, error) {
	r := &Repository{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, full_name, provider, default_branch, last_scanned_at, created_at
		 FROM repositories WHERE full_name = ?`, fullName,
	).Scan(&r.ID, &r.FullName, &r.Provider, &r.DefaultBranch, &r.LastScannedAt, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("getting repository: %w", err)
	}
	return r, nil
}

// ListRepositories returns all repositories ordered by full name.
func (s *Store) ListRepositories(ctx context.Context) ([]Repository, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, full_name, provider, default_branch, last_scanned_at, created_at
		 FROM repositories ORDER BY full_name`)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}
	defer rows.Close()

	var result []Repository
	for rows.Next() {
		var r Repository
		if err := rows.Scan(&r.ID, &r.FullName, &r.Provider, &r.DefaultBranch, &r.LastScannedAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning repository: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// TouchRepositoryScanned records the time a repository was last scanned.
func (s *Store) TouchRepositoryScanned(ctx context.Context, repoID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE repositories SET last_scanned_at = ? WHERE id = ?`,
		time.Now().UTC(), repoID)
	if err != nil {
		return fmt.Errorf("touching repository: %w", err)
	}
	return nil
}

// --- services ---

const serviceCols = `id, repo_id, name, language, path_hint, last_commit_sha, placeholder, created_at`

func scanService(row interface{ Scan(...any) error }) (*Service, error) {
	svc := &Service{}
	err := row.Scan(&svc.ID, &svc.RepoID, &svc.Name, &svc.Language, &svc.PathHint,
		&svc.LastCommitSHA, &svc.Placeholder, &svc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// UpsertService creates or updates a service identified by (repo, name).
// The UNIQUE(repo_id, name) constraint makes concurrent creation of the
// same logical service converge on one row.
func (s *Store) UpsertService(ctx context.Context, repoID string, d ServiceDraft) (*Service, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO services (id, repo_id, name, language, path_hint, last_commit_sha, placeholder, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?)
		 ON CONFLICT(repo_id, name) DO UPDATE SET
		   language = excluded.language,
		   path_hint = excluded.path_hint,
		   last_commit_sha = excluded.last_commit_sha,
		   placeholder = 0`,
		uuid.NewString(), repoID, d.Name, d.Language, d.PathHint, d.LastCommitSHA, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("upserting service %q: %w", d.Name, err)
	}
	return s.FindServiceByRepoAndName(ctx, repoID, d.Name)
}

// CreatePlaceholderService records a name referenced by an interaction but
// not resolvable to any scanned service. Scoped to the referencing
// repository.
func (s *Store) CreatePlaceholderService(ctx context.Context, repoID, name, commitSHA string) (*Service, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO services (id, repo_id, name, last_commit_sha, placeholder, created_at)
		 VALUES (?, ?, ?, ?, 1, ?)
		 ON CONFLICT(repo_id, name) DO NOTHING`,
		uuid.NewString(), repoID, name, commitSHA, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating placeholder service %q: %w", name, err)
	}
	return s.FindServiceByRepoAndName(ctx, repoID, name)
}

// GetService retrieves a service by ID.
func (s *Store) GetService(ctx context.Context, id string) (*Service, error) {
	svc, err := scanService(s.db.QueryRowContext(ctx,
		`SELECT `+serviceCols+` FROM services WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("getting service: %w", err)
	}
	return svc, nil
}

// FindServiceByRepoAndName finds a service scoped to one repository.
func (s *Store) FindServiceByRepoAndName(ctx context.Context, repoID, name string) (*Service, error) {
	svc, err := scanService(s.db.QueryRowContext(ctx,
		`SELECT `+serviceCols+` FROM services WHERE repo_id = ? AND name = ?`, repoID, name))
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("finding service %q: %w", name, err)
	}
	return svc, nil
}

// FindServiceByName finds the first service with the given name across all
// repositories, preferring non-placeholder rows.
func (s *Store) FindServiceByName(ctx context.Context, name string) (*Service, error) {
	svc, err := scanService(s.db.QueryRowContext(ctx,
		`SELECT `+serviceCols+` FROM services WHERE name = ?
		 ORDER BY placeholder ASC, created_at ASC LIMIT 1`, name))
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("finding service %q: %w", name, err)
	}
	return svc, nil
}

// SearchServicesByName returns services whose name contains the fragment,
// case-insensitively.
func (s *Store) SearchServicesByName(ctx context.Context, fragment string) ([]Service, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+serviceCols+` FROM services WHERE name LIKE ? COLLATE NOCASE
		 ORDER BY placeholder ASC, name`, "%"+fragment+"%")
	if err != nil {
		return nil, fmt.Errorf("searching services: %w", err)
	}
	defer rows.Close()
	return collectServices(rows)
}

// ListServices returns all services ordered by name.
func (s *Store) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+serviceCols+` FROM services ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}
	defer rows.Close()
	return collectServices(rows)
}

// ServiceNames returns up to limit known service names, placeholders last.
func (s *Store) ServiceNames(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM services ORDER BY placeholder ASC, name LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing service names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning service name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func collectServices(rows *sql.Rows) ([]Service, error) {
	var result []Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning service: %w", err)
		}
		result = append(result, *svc)
	}
	return result, rows.Err()
}

// --- interactions ---

const interactionCols = `id, source_service_id, target_service_id, edge_type, http_method,
	http_url, kafka_topic, direction, confidence, evidence, detector_name, commit_sha, detected_at`

func scanInteraction(row interface{ Scan(...any) error }) (*Interaction, error) {
	in := &Interaction{}
	err := row.Scan(&in.ID, &in.SourceServiceID, &in.TargetServiceID, &in.EdgeType,
		&in.HTTPMethod, &in.HTTPURL, &in.KafkaTopic, &in.Direction, &in.Confidence,
		&in.Evidence, &in.DetectorName, &in.CommitSHA, &in.DetectedAt)
	if err != nil {
		return nil, err
	}
	return in, nil
}

// InsertInteraction appends one edge. Insertion is purely additive: prior
// edges are never updated or soft-deleted.
func (s *Store) InsertInteraction(ctx context.Context, in *Interaction) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.DetectedAt.IsZero() {
		in.DetectedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (id, source_service_id, target_service_id, edge_type,
		   http_method, http_url, kafka_topic, direction, confidence, evidence,
		   detector_name, commit_sha, detected_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.SourceServiceID, in.TargetServiceID, in.EdgeType,
		in.HTTPMethod, in.HTTPURL, in.KafkaTopic, in.Direction, in.Confidence,
		in.Evidence, in.DetectorName, in.CommitSHA, in.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting interaction: %w", err)
	}
	return nil
}

// InteractionsBySource returns all edges originating at a service.
func (s *Store) InteractionsBySource(ctx context.Context, serviceID string) ([]Interaction, error) {
	return s.queryInteractions(ctx,
		`SELECT `+interactionCols+` FROM interactions WHERE source_service_id = ?`, serviceID)
}

// InteractionsByTarget returns all edges pointing at a service.
func (s *Store) InteractionsByTarget(ctx context.Context, serviceID string) ([]Interaction, error) {
	return s.queryInteractions(ctx,
		`SELECT `+interactionCols+` FROM interactions WHERE target_service_id = ?`, serviceID)
}

// InteractionsForService returns all edges touching a service in either
// direction.
func (s *Store) InteractionsForService(ctx context.Context, serviceID string) ([]Interaction, error) {
	return s.queryInteractions(ctx,
		`SELECT `+interactionCols+` FROM interactions
		 WHERE source_service_id = ? OR target_service_id = ?`, serviceID, serviceID)
}

// InteractionsByTopic returns all Kafka edges carrying the given topic.
func (s *Store) InteractionsByTopic(ctx context.Context, topic string) ([]Interaction, error) {
	return s.queryInteractions(ctx,
		`SELECT `+interactionCols+` FROM interactions
		 WHERE edge_type = 'Kafka' AND kafka_topic = ?`, topic)
}

// InteractionsByURLFragment returns HTTP edges whose URL contains the
// given fragment, case-insensitively.
func (s *Store) InteractionsByURLFragment(ctx context.Context, fragment string) ([]Interaction, error) {
	return s.queryInteractions(ctx,
		`SELECT `+interactionCols+` FROM interactions
		 WHERE http_url LIKE ? COLLATE NOCASE`, "%"+fragment+"%")
}

// ListInteractions returns every edge in the graph.
func (s *Store) ListInteractions(ctx context.Context) ([]Interaction, error) {
	return s.queryInteractions(ctx,
		`SELECT `+interactionCols+` FROM interactions ORDER BY detected_at`)
}

func (s *Store) queryInteractions(ctx context.Context, query string, args ...any) ([]Interaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying interactions: %w", err)
	}
	defer rows.Close()

	var result []Interaction
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning interaction: %w", err)
		}
		result = append(result, *in)
	}
	return result, rows.Err()
}

// DistinctTopics lists every Kafka topic present in the graph.
func (s *Store) DistinctTopics(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT kafka_topic FROM interactions
		 WHERE edge_type = 'Kafka' AND kafka_topic != '' ORDER BY kafka_topic`)
	if err != nil {
		return nil, fmt.Errorf("listing topics: %w", err)
	}
	defer rows.Close()

	var topics []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning topic: %w", err)
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// DegreeEntry pairs a service with its inbound edge count.
type DegreeEntry struct {
	ServiceID   string `json:"service_id"`
	ServiceName string `json:"service_name"`
	InDegree    int    `json:"in_degree"`
}

// TopServicesByInDegree returns the most-called services, descending.
func (s *Store) TopServicesByInDegree(ctx context.Context, limit int) ([]DegreeEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.name, COUNT(i.id) AS in_degree
		 FROM services s JOIN interactions i ON i.target_service_id = s.id
		 GROUP BY s.id, s.name
		 ORDER BY in_degree DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("ranking services: %w", err)
	}
	defer rows.Close()

	var result []DegreeEntry
	for rows.Next() {
		var e DegreeEntry
		if err := rows.Scan(&e.ServiceID, &e.ServiceName, &e.InDegree); err != nil {
			return nil, fmt.Errorf("scanning degree entry: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// FindTopicCounterpart finds a real service already persisted on the given
// side of a topic: the producing side is the source of a producer edge,
// the consuming side the target of a consumer edge. Placeholder services
// are skipped.
func (s *Store) FindTopicCounterpart(ctx context.Context, topic, direction string) (*Service, error) {
	endpoint := "i.target_service_id"
	if direction == "producer" {
		endpoint = "i.source_service_id"
	}
	svc, err := scanService(s.db.QueryRowContext(ctx,
		`SELECT `+prefixedServiceCols+` FROM interactions i
		 JOIN services s ON s.id = `+endpoint+`
		 WHERE i.edge_type = 'Kafka' AND i.kafka_topic = ? AND i.direction = ?
		   AND s.placeholder = 0
		 LIMIT 1`, topic, direction))
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("matching topic %q counterpart: %w", topic, err)
	}
	return svc, nil
}

const prefixedServiceCols = `s.id, s.repo_id, s.name, s.language, s.path_hint, s.last_commit_sha, s.placeholder, s.created_at`
