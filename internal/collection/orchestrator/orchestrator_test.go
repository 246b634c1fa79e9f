package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ecoregistry/internal/collection/collectors"
	"ecoregistry/internal/collection/collectors/mocks"
	"ecoregistry/internal/collection/github"
	"ecoregistry/internal/registry/models"
)

const (
	metaPath = "/repos/acme/widget"
	treePath = "/repos/acme/widget/git/trees/main?recursive=1"
)

func respondJSON(payload string) func(context.Context, string, any) (github.RateLimit, error) {
	return func(_ context.Context, _ string, out any) (github.RateLimit, error) {
		return github.RateLimit{}, json.Unmarshal([]byte(payload), out)
	}
}

func fixed(name string, fields map[string]any, notes ...string) collectors.Collector {
	return collectors.Collector{
		Name: name,
		Collect: func(context.Context, collectors.API, collectors.Input) (collectors.Result, error) {
			return collectors.Result{Fields: fields, Notes: notes}, nil
		},
	}
}

func failing(name string) collectors.Collector {
	return collectors.Collector{
		Name: name,
		Collect: func(context.Context, collectors.API, collectors.Input) (collectors.Result, error) {
			return collectors.Result{Fields: map[string]any{models.FieldLicenseType: "MIT"}}, errors.New("boom")
		},
	}
}

func panicking(name string) collectors.Collector {
	return collectors.Collector{
		Name: name,
		Collect: func(context.Context, collectors.API, collectors.Input) (collectors.Result, error) {
			panic("unexpected nil")
		},
	}
}

func newOrchestrator(t *testing.T, api collectors.API, cs ...collectors.Collector) *Orchestrator {
	t.Helper()
	o, err := New(api, WithCollectors(cs...))
	require.NoError(t, err)
	return o
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api client is required")
}

func TestCollectPrerequisites(t *testing.T) {
	t.Run("unparseable reference returns a note without calls", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockAPI(ctrl)

		res, err := newOrchestrator(t, api).Collect(context.Background(), "not a repo")
		require.NoError(t, err)
		assert.False(t, res.Found)
		assert.Empty(t, res.Fields)
		require.Len(t, res.Notes, 1)
		assert.Contains(t, res.Notes[0], "Cannot parse repository URL")
	})

	t.Run("metadata 404 ends collection", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockAPI(ctrl)
		api.EXPECT().Get(gomock.Any(), metaPath, gomock.Any()).
			Return(github.RateLimit{}, github.NewAPIError(github.ErrorNotFound, 404, metaPath, "Not Found", nil))

		res, err := newOrchestrator(t, api, fixed("x", map[string]any{"a": 1})).
			Collect(context.Background(), "https://github.com/acme/widget")
		require.NoError(t, err)
		assert.False(t, res.Found)
		assert.Empty(t, res.Fields)
		assert.Contains(t, res.Notes[0], "not found")
	})

	t.Run("other metadata failures are hard errors", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockAPI(ctrl)
		api.EXPECT().Get(gomock.Any(), metaPath, gomock.Any()).
			Return(github.RateLimit{}, github.NewAPIError(github.ErrorServer, 502, metaPath, "Bad Gateway", nil))

		_, err := newOrchestrator(t, api).Collect(context.Background(), "https://github.com/acme/widget")
		require.Error(t, err)
		assert.Equal(t, github.ErrorServer, github.GetCategory(err))
	})

	t.Run("archived and empty repository still runs collectors", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockAPI(ctrl)
		api.EXPECT().Get(gomock.Any(), metaPath, gomock.Any()).
			DoAndReturn(respondJSON(`{"default_branch":"main","archived":true}`))
		api.EXPECT().Get(gomock.Any(), treePath, gomock.Any()).
			Return(github.RateLimit{}, github.NewAPIError(github.ErrorConflict, 409, treePath, "empty", nil))

		var sawTree github.Tree
		treeReader := collectors.Collector{
			Name: "tree-reader",
			Collect: func(_ context.Context, _ collectors.API, in collectors.Input) (collectors.Result, error) {
				sawTree = in.Tree
				return collectors.Result{Fields: map[string]any{models.FieldHasTests: false}}, nil
			},
		}

		res, err := newOrchestrator(t, api, treeReader).Collect(context.Background(), "acme/widget")
		require.NoError(t, err)
		assert.True(t, res.Found)
		assert.True(t, res.Archived)
		assert.Empty(t, sawTree.Entries)
		assert.Equal(t, false, res.Fields[models.FieldHasTests])
		assert.Contains(t, res.Notes, "Repository is archived")
		assert.Contains(t, res.Notes, "Empty repository: no file tree")
	})

	t.Run("tree failure degrades to an empty tree", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockAPI(ctrl)
		api.EXPECT().Get(gomock.Any(), metaPath, gomock.Any()).DoAndReturn(respondJSON(`{"default_branch":"main"}`))
		api.EXPECT().Get(gomock.Any(), treePath, gomock.Any()).
			Return(github.RateLimit{}, github.NewAPIError(github.ErrorServer, 500, treePath, "oops", nil))

		res, err := newOrchestrator(t, api, fixed("x", map[string]any{models.FieldHasCI: false})).
			Collect(context.Background(), "acme/widget")
		require.NoError(t, err)
		assert.Equal(t, false, res.Fields[models.FieldHasCI])
		assert.Contains(t, res.Notes[0], "Could not fetch file tree")
	})

	t.Run("branch name is escaped in the tree path", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockAPI(ctrl)
		api.EXPECT().Get(gomock.Any(), metaPath, gomock.Any()).
			DoAndReturn(respondJSON(`{"default_branch":"release/1.0#rc"}`))
		api.EXPECT().Get(gomock.Any(), "/repos/acme/widget/git/trees/release%2F1.0%23rc?recursive=1", gomock.Any()).
			DoAndReturn(respondJSON(`{"tree":[{"path":"a_test.go","type":"blob"}]}`))

		res, err := newOrchestrator(t, api, collectors.Tests()).Collect(context.Background(), "acme/widget")
		require.NoError(t, err)
		assert.Equal(t, true, res.Fields[models.FieldHasTests])
	})

	t.Run("truncated tree is passed on with a note", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockAPI(ctrl)
		api.EXPECT().Get(gomock.Any(), metaPath, gomock.Any()).DoAndReturn(respondJSON(`{"default_branch":"main"}`))
		api.EXPECT().Get(gomock.Any(), treePath, gomock.Any()).
			DoAndReturn(respondJSON(`{"truncated":true,"tree":[{"path":"a_test.go","type":"blob"}]}`))

		res, err := newOrchestrator(t, api, collectors.Tests()).Collect(context.Background(), "acme/widget")
		require.NoError(t, err)
		assert.Equal(t, true, res.Fields[models.FieldHasTests])
		assert.Nil(t, res.Fields[models.FieldTestCount])
		assert.Contains(t, res.Notes[0], "truncated")
	})
}

func TestCollectFanOut(t *testing.T) {
	expectPrerequisites := func(api *mocks.MockAPI) {
		api.EXPECT().Get(gomock.Any(), metaPath, gomock.Any()).DoAndReturn(respondJSON(`{"default_branch":"main"}`))
		api.EXPECT().Get(gomock.Any(), treePath, gomock.Any()).DoAndReturn(respondJSON(`{"tree":[]}`))
	}

	t.Run("failed collectors contribute no fields", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockAPI(ctrl)
		expectPrerequisites(api)

		o := newOrchestrator(t, api,
			fixed("activity", map[string]any{models.FieldLastVerifiedActivity: "2026-01-02"}, "activity note"),
			failing("license"),
			panicking("ci"),
			fixed("sdk", map[string]any{models.FieldSDKVersion: nil}),
		)

		res, err := o.Collect(context.Background(), "acme/widget")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			models.FieldLastVerifiedActivity: "2026-01-02",
			models.FieldSDKVersion:           nil,
		}, res.Fields)
		assert.NotContains(t, res.Fields, models.FieldLicenseType)
		assert.Equal(t, []string{"license", "ci"}, res.Failed)
		assert.Contains(t, res.Notes, "activity note")
		assert.Contains(t, res.Notes, "license collector failed: boom")
		assert.Contains(t, res.Notes, "ci collector failed: panic: unexpected nil")
	})

	t.Run("collectors run concurrently", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockAPI(ctrl)
		expectPrerequisites(api)

		const n = 4
		var started sync.WaitGroup
		started.Add(n)
		allStarted := make(chan struct{})
		go func() {
			started.Wait()
			close(allStarted)
		}()

		cs := make([]collectors.Collector, n)
		for i := range cs {
			cs[i] = collectors.Collector{
				Name: "barrier",
				Collect: func(context.Context, collectors.API, collectors.Input) (collectors.Result, error) {
					started.Done()
					select {
					case <-allStarted:
						return collectors.Result{}, nil
					case <-time.After(5 * time.Second):
						return collectors.Result{}, errors.New("collectors did not overlap")
					}
				},
			}
		}

		res, err := newOrchestrator(t, api, cs...).Collect(context.Background(), "acme/widget")
		require.NoError(t, err)
		assert.Empty(t, res.Failed)
	})
}
