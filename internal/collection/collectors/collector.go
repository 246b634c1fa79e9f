// Package collectors turns raw API responses into typed, nullable record
// fields with human-readable notes. Each collector only reads its inputs and
// writes to its own Result, so collectors can run concurrently.
package collectors

import (
	"context"
	"fmt"
	"time"

	"ecoregistry/internal/collection/github"
)

// API is the subset of the GitHub client the collectors depend on.
type API interface {
	Get(ctx context.Context, path string, out any) (github.RateLimit, error)
	GetFileContent(ctx context.Context, repo github.RepoRef, path string) ([]byte, bool, error)
}

// Input is the shared state fetched once per project by the orchestrator.
type Input struct {
	Repo     github.RepoRef
	Metadata github.Repository
	Tree     github.Tree
	Now      time.Time
}

// Result holds the fields a collector determined, keyed by record field name.
// A nil value means the collector looked and found nothing; a field missing
// from the map means the collector did not decide it.
type Result struct {
	Fields map[string]any
	Notes  []string
}

func newResult() Result {
	return Result{Fields: make(map[string]any)}
}

func (r *Result) set(field string, value any) {
	r.Fields[field] = value
}

func (r *Result) note(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// Func is the body of a collector. Expected absence is reported through a
// nil field and a note; an error means the collector could not produce a
// meaningful result at all.
type Func func(ctx context.Context, api API, in Input) (Result, error)

// Collector names a Func and declares the fields it may produce.
type Collector struct {
	Name    string
	Fields  []string
	Collect Func
}

// Default returns the seven repository collectors in merge order.
func Default() []Collector {
	return []Collector{
		Activity(),
		SDKVersion(),
		License(),
		Tests(),
		CI(),
		Documentation(),
		TechStack(),
	}
}
