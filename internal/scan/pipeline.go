package scan

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/meshmap/internal/detect"
	"github.com/ziadkadry99/meshmap/internal/graph"
)

// skipDirs are conventional build/dependency directories never descended
// into.
var skipDirs = map[string]bool{
	".git":         true,
	".idea":        true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"target":       true,
	"dist":         true,
	"build":        true,
}

// sourceExtensions is the fixed set of extensions the detector set
// understands.
var sourceExtensions = func() map[string]bool {
	m := make(map[string]bool, len(detect.Extensions))
	for _, ext := range detect.Extensions {
		m[ext] = true
	}
	return m
}()

// File is one fetched source file.
type File struct {
	Path    string
	Content string
}

// Pipeline runs one scan to completion: fetch, detect, build, persist.
// A pipeline is single-use and processes its targets sequentially; an
// error anywhere aborts the scan with work committed so far left in
// place.
type Pipeline struct {
	scanID   string
	scans    *Store
	graphs   *graph.Store
	source   Source
	builder  *graph.Builder
	log      *zap.SugaredLogger
	notifier *Notifier

	// OnFile, when set, is invoked once per fetched file before detection.
	OnFile func(path string)
}

// NewPipeline assembles a pipeline for the given scan.
func NewPipeline(scanID string, scans *Store, graphs *graph.Store, source Source, log *zap.SugaredLogger, notifier *Notifier) *Pipeline {
	return &Pipeline{
		scanID:   scanID,
		scans:    scans,
		graphs:   graphs,
		source:   source,
		builder:  graph.NewBuilder(),
		log:      log,
		notifier: notifier,
	}
}

// Run executes the scan. The terminal status (success or error, with the
// error message recorded verbatim) is persisted on the scan row; the
// returned error mirrors it for synchronous callers.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.run(ctx); err != nil {
		p.log.Errorw("scan failed", "scan_id", p.scanID, "error", err)
		if dbErr := p.scans.MarkError(ctx, p.scanID, err.Error()); dbErr != nil {
			p.log.Errorw("recording scan error", "scan_id", p.scanID, "error", dbErr)
		}
		p.publish(Event{Type: EventStatus, Status: StatusError, Message: err.Error()})
		return err
	}

	if err := p.scans.MarkSuccess(ctx, p.scanID); err != nil {
		return err
	}
	p.publish(Event{Type: EventStatus, Status: StatusSuccess})
	p.log.Infow("scan completed", "scan_id", p.scanID)
	return nil
}

func (p *Pipeline) run(ctx context.Context) error {
	if err := p.scans.MarkRunning(ctx, p.scanID); err != nil {
		return err
	}
	p.publish(Event{Type: EventStatus, Status: StatusRunning})

	targets, err := p.scans.TargetsForScan(ctx, p.scanID)
	if err != nil {
		return err
	}

	// Findings accumulate across targets; each target's persist pass runs
	// the builder over everything gathered so far.
	var findings []detect.Finding

	for _, target := range targets {
		repo, err := p.graphs.GetRepository(ctx, target.RepoID)
		if err != nil {
			return fmt.Errorf("loading repository for target: %w", err)
		}

		commitSHA, err := p.source.ResolveCommit(ctx, repo.FullName, target.Branch)
		if err != nil || commitSHA == "" {
			// A stale reference beats no reference.
			commitSHA = target.CommitSHA
			if commitSHA == "" {
				commitSHA = "unknown"
			}
		}

		p.log.Infow("fetching files", "repo", repo.FullName, "ref", target.Branch)
		files := p.fetchFiles(ctx, repo.FullName, target.Subpath, target.Branch)

		for _, f := range files {
			if p.OnFile != nil {
				p.OnFile(f.Path)
			}
			p.publish(Event{Type: EventFile, Path: f.Path})
			for _, d := range detect.ForLanguage(detect.LanguageForPath(f.Path)) {
				findings = append(findings, d.Detect(f.Path, f.Content)...)
			}
		}

		services := p.builder.BuildServices(findings, repo.FullName, commitSHA)
		interactions := p.builder.BuildInteractions(findings, repo.FullName)

		if err := p.graphs.SaveBatch(ctx, repo, services, interactions, commitSHA); err != nil {
			return fmt.Errorf("persisting %s: %w", repo.FullName, err)
		}
		if err := p.scans.SetTargetCommit(ctx, target.ID, commitSHA); err != nil {
			return err
		}

		p.log.Infow("target scanned",
			"repo", repo.FullName,
			"files", len(files),
			"findings", len(findings),
			"services", len(services),
			"interactions", len(interactions),
		)
	}

	return nil
}

func (p *Pipeline) fetchFiles(ctx context.Context, repoFullName, subpath, ref string) []File {
	return FetchFiles(ctx, p.source, p.log, repoFullName, subpath, ref)
}

// FetchFiles walks the repository tree, filtering to source extensions
// and skipping conventional dependency/build directories. Individual
// fetch failures are indistinguishable from absent files: either way the
// file is omitted.
func FetchFiles(ctx context.Context, source Source, log *zap.SugaredLogger, repoFullName, subpath, ref string) []File {
	var files []File

	var walk func(path string)
	walk = func(path string) {
		entries, err := source.ListEntries(ctx, repoFullName, path, ref)
		if err != nil {
			log.Debugw("listing failed", "repo", repoFullName, "path", path, "error", err)
			return
		}
		for _, e := range entries {
			switch e.Type {
			case "dir":
				if !skipDirs[e.Name] {
					walk(e.Path)
				}
			case "file":
				if !sourceExtensions[ext(e.Name)] {
					continue
				}
				content, ok := source.GetContent(ctx, repoFullName, e.Path, ref)
				if !ok {
					continue
				}
				files = append(files, File{Path: e.Path, Content: content})
			}
		}
	}
	walk(subpath)

	return files
}

func ext(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i:]
		}
		if name[i] == '/' {
			break
		}
	}
	return ""
}

func (p *Pipeline) publish(ev Event) {
	if p.notifier == nil {
		return
	}
	ev.ScanID = p.scanID
	p.notifier.Publish(ev)
}
