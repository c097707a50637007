package scan

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/meshmap/internal/db"
)

// Status is the scan lifecycle state. Terminal states are success and
// error; a failed scan is never resumed, a fresh one is started.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Scan is a unit of scanning work over one or more repositories.
type Scan struct {
	ID         string     `json:"id"`
	Status     Status     `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Target is one repository+branch a scan covers, recorded when the scan
// starts.
type Target struct {
	ID        string `json:"id"`
	ScanID    string `json:"scan_id"`
	RepoID    string `json:"repo_id"`
	Branch    string `json:"branch"`
	CommitSHA string `json:"commit_sha,omitempty"`
	Subpath   string `json:"subpath,omitempty"`
}

// Store provides persistence for scans and their targets.
type Store struct {
	db *db.DB
}

// NewStore creates a scan store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// CreateScan records a queued scan with its targets.
func (s *Store) CreateScan(ctx context.Context, targets []Target) (*Scan, error) {
	sc := &Scan{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scans (id, status, created_at) VALUES (?, ?, ?)`,
		sc.ID, sc.Status, sc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating scan: %w", err)
	}

	for _, t := range targets {
		branch := t.Branch
		if branch == "" {
			branch = "main"
		}
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO scan_targets (id, scan_id, repo_id, branch, commit_sha, subpath)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), sc.ID, t.RepoID, branch, t.CommitSHA, t.Subpath)
		if err != nil {
			return nil, fmt.Errorf("creating scan target: %w", err)
		}
	}
	return sc, nil
}

// GetScan retrieves a scan by ID.
func (s *Store) GetScan(ctx context.Context, id string) (*Scan, error) {
	sc := &Scan{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, error, started_at, finished_at, created_at
		 FROM scans WHERE id = ?`, id,
	).Scan(&sc.ID, &sc.Status, &sc.Error, &sc.StartedAt, &sc.FinishedAt, &sc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("getting scan: %w", err)
	}
	return sc, nil
}

// MarkRunning transitions a scan into the running state.
func (s *Store) MarkRunning(ctx context.Context, scanID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scans SET status = ?, started_at = ? WHERE id = ?`,
		StatusRunning, time.Now().UTC(), scanID)
	if err != nil {
		return fmt.Errorf("marking scan running: %w", err)
	}
	return nil
}

// MarkSuccess transitions a scan into its success terminal state.
func (s *Store) MarkSuccess(ctx context.Context, scanID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scans SET status = ?, finished_at = ? WHERE id = ?`,
		StatusSuccess, time.Now().UTC(), scanID)
	if err != nil {
		return fmt.Errorf("marking scan success: %w", err)
	}
	return nil
}

// MarkError records the failure message verbatim and finishes the scan.
func (s *Store) MarkError(ctx context.Context, scanID, message string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scans SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		StatusError, message, time.Now().UTC(), scanID)
	if err != nil {
		return fmt.Errorf("marking scan error: %w", err)
	}
	return nil
}

// TargetsForScan lists the targets recorded for a scan, in submission
// order.
func (s *Store) TargetsForScan(ctx context.Context, scanID string) ([]Target, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scan_id, repo_id, branch, commit_sha, subpath
		 FROM scan_targets WHERE scan_id = ? ORDER BY rowid`, scanID)
	if err != nil {
		return nil, fmt.Errorf("listing scan targets: %w", err)
	}
	defer rows.Close()

	var targets []Target
	for rows.Next() {
		var t Target
		if err := rows.Scan(&t.ID, &t.ScanID, &t.RepoID, &t.Branch, &t.CommitSHA, &t.Subpath); err != nil {
			return nil, fmt.Errorf("scanning scan target: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// SetTargetCommit records the commit a target was actually scanned at.
func (s *Store) SetTargetCommit(ctx context.Context, targetID, commitSHA string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scan_targets SET commit_sha = ? WHERE id = ?`, commitSHA, targetID)
	if err != nil {
		return fmt.Errorf("setting target commit: %w", err)
	}
	return nil
}
