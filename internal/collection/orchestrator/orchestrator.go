// Package orchestrator collects every automatically detectable field of one
// project: it fetches the shared repository state once, fans out to the
// collectors and merges whatever they produce.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"ecoregistry/internal/collection/collectors"
	"ecoregistry/internal/collection/github"
	"ecoregistry/internal/collection/metrics"
)

// Result is the merged output for one project.
type Result struct {
	Repo     github.RepoRef `json:"repository"`
	Found    bool           `json:"found"`
	Archived bool           `json:"archived"`
	// Fields holds only the fields produced by collectors that succeeded.
	Fields map[string]any `json:"fields"`
	Notes  []string       `json:"notes"`
	// Failed lists the collectors that returned an error or panicked.
	Failed []string `json:"failed,omitempty"`
}

// outcome is the private slot each collector goroutine writes to.
type outcome struct {
	result collectors.Result
	err    error
}

type Orchestrator struct {
	api        collectors.API
	collectors []collectors.Collector
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	now        func() time.Time
}

type Option func(*Orchestrator)

// WithCollectors replaces the default collector set.
func WithCollectors(cs ...collectors.Collector) Option {
	return func(o *Orchestrator) {
		o.collectors = cs
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func New(api collectors.API, opts ...Option) (*Orchestrator, error) {
	if api == nil {
		return nil, fmt.Errorf("api client is required")
	}
	o := &Orchestrator{
		api:        api,
		collectors: collectors.Default(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:     otel.Tracer("ecoregistry/collection/orchestrator"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Collect gathers fields for the repository at repoURL. Only a metadata
// failure other than 404 is returned as an error; every other problem is
// reported through Result.Notes.
func (o *Orchestrator) Collect(ctx context.Context, repoURL string) (*Result, error) {
	res := &Result{Fields: make(map[string]any)}

	repo, err := github.ParseRepoURL(repoURL)
	if err != nil {
		res.Notes = append(res.Notes, fmt.Sprintf("Cannot parse repository URL %q: %v", repoURL, err))
		return res, nil
	}
	res.Repo = repo

	ctx, span := o.tracer.Start(ctx, "orchestrator.collect", trace.WithAttributes(
		attribute.String("github.repo", repo.String()),
	))
	defer span.End()

	var meta github.Repository
	if _, err := o.api.Get(ctx, repo.Path(""), &meta); err != nil {
		if github.IsNotFound(err) {
			res.Notes = append(res.Notes, fmt.Sprintf("Repository %s not found", repo))
			return res, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("fetch repository metadata for %s: %w", repo, err)
	}
	res.Found = true
	if meta.Archived {
		res.Archived = true
		res.Notes = append(res.Notes, "Repository is archived")
	}

	tree, notes := o.fetchTree(ctx, repo, meta)
	res.Notes = append(res.Notes, notes...)

	in := collectors.Input{Repo: repo, Metadata: meta, Tree: tree, Now: o.now()}
	outcomes := o.fanOut(ctx, in)

	for i, c := range o.collectors {
		out := outcomes[i]
		if out.err != nil {
			res.Failed = append(res.Failed, c.Name)
			res.Notes = append(res.Notes, fmt.Sprintf("%s collector failed: %v", c.Name, out.err))
			continue
		}
		for field, value := range out.result.Fields {
			res.Fields[field] = value
		}
		res.Notes = append(res.Notes, out.result.Notes...)
	}

	o.logger.InfoContext(ctx, "project collected",
		"repo", repo.String(),
		"fields", len(res.Fields),
		"failed_collectors", len(res.Failed),
	)
	return res, nil
}

// fetchTree loads the recursive file listing. Any failure degrades to an
// empty tree.
func (o *Orchestrator) fetchTree(ctx context.Context, repo github.RepoRef, meta github.Repository) (github.Tree, []string) {
	branch := meta.DefaultBranch
	if branch == "" {
		branch = "HEAD"
	}

	var tree github.Tree
	_, err := o.api.Get(ctx, repo.Path("git/trees/"+url.PathEscape(branch)+"?recursive=1"), &tree)
	switch {
	case github.IsConflict(err):
		return github.Tree{}, []string{"Empty repository: no file tree"}
	case err != nil:
		o.logger.WarnContext(ctx, "tree fetch failed", "repo", repo.String(), "error", err)
		return github.Tree{}, []string{fmt.Sprintf("Could not fetch file tree: %v", err)}
	case tree.Truncated:
		return tree, []string{"File tree truncated by GitHub; file-based detection may undercount"}
	}
	return tree, nil
}

// fanOut runs every collector concurrently and waits for all of them. A
// failure or panic in one collector never cancels the others.
func (o *Orchestrator) fanOut(ctx context.Context, in collectors.Input) []outcome {
	outcomes := make([]outcome, len(o.collectors))

	var g errgroup.Group
	for i, c := range o.collectors {
		g.Go(func() error {
			start := o.now()
			outcomes[i] = o.run(ctx, c, in)
			status := "success"
			if outcomes[i].err != nil {
				status = "failure"
				o.logger.WarnContext(ctx, "collector failed",
					"collector", c.Name,
					"repo", in.Repo.String(),
					"error", outcomes[i].err,
				)
			}
			if o.metrics != nil {
				o.metrics.RecordCollectorOutcome(c.Name, status)
			}
			o.logger.DebugContext(ctx, "collector finished",
				"collector", c.Name,
				"duration", o.now().Sub(start),
			)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (o *Orchestrator) run(ctx context.Context, c collectors.Collector, in collectors.Input) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = outcome{err: fmt.Errorf("panic: %v", r)}
		}
	}()
	result, err := c.Collect(ctx, o.api, in)
	return outcome{result: result, err: err}
}
