package scan

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/meshmap/internal/graph"
)

// Runner creates scans and dispatches pipelines. Scans started over HTTP
// are fire-and-forget: the triggering request returns as soon as the scan
// row is queued.
type Runner struct {
	scans    *Store
	graphs   *graph.Store
	source   Source
	log      *zap.SugaredLogger
	notifier *Notifier
}

// NewRunner wires a runner from its collaborators.
func NewRunner(scans *Store, graphs *graph.Store, source Source, log *zap.SugaredLogger, notifier *Notifier) *Runner {
	return &Runner{scans: scans, graphs: graphs, source: source, log: log, notifier: notifier}
}

// Notifier exposes the progress notifier for event subscribers.
func (r *Runner) Notifier() *Notifier { return r.notifier }

// Start records a queued scan covering the named repositories. Each
// repository is created on first sight; its default branch is scanned.
func (r *Runner) Start(ctx context.Context, repoFullNames []string) (*Scan, error) {
	if len(repoFullNames) == 0 {
		return nil, fmt.Errorf("no repositories provided")
	}

	var targets []Target
	for _, name := range repoFullNames {
		repo, err := r.graphs.GetOrCreateRepository(ctx, name, "")
		if err != nil {
			return nil, err
		}
		targets = append(targets, Target{RepoID: repo.ID, Branch: repo.DefaultBranch})
	}

	return r.scans.CreateScan(ctx, targets)
}

// Pipeline builds the pipeline for a queued scan, for callers that want
// to run it synchronously (the CLI) or attach progress hooks.
func (r *Runner) Pipeline(scanID string) *Pipeline {
	return NewPipeline(scanID, r.scans, r.graphs, r.source, r.log, r.notifier)
}

// Launch runs the scan on a background goroutine. Errors are recorded on
// the scan row; nothing is returned to the caller.
func (r *Runner) Launch(scanID string) {
	p := r.Pipeline(scanID)
	go func() {
		// Detached from the request context: the scan outlives it.
		_ = p.Run(context.Background())
	}()
}
