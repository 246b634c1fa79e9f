package httptransport

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"ecoregistry/internal/registry/models"
	"ecoregistry/internal/registry/models/modelstest"
	"ecoregistry/internal/transport/http/mocks"
	"ecoregistry/pkg/platform/sentinel"
	"ecoregistry/pkg/testutil"
)

//go:generate mockgen -source=handlers_projects.go -destination=mocks/dataset-mocks.go -package=mocks Dataset

type ProjectsHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	dataset *mocks.MockDataset
	router  http.Handler
}

func TestProjectsHandlerSuite(t *testing.T) {
	suite.Run(t, new(ProjectsHandlerSuite))
}

func (s *ProjectsHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.dataset = mocks.NewMockDataset(s.ctrl)
	h := NewProjectsHandler(s.dataset, nil)
	h.now = func() time.Time { return time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC) }
	s.router = NewRouter(h, nil, nil)
}

func (s *ProjectsHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

// =============================================================================
// Full dataset mirror
// =============================================================================

func (s *ProjectsHandlerSuite) TestListProjects() {
	s.Run("returns every record in dataset order", func() {
		s.dataset.EXPECT().Load(gomock.Any()).Return(modelstest.Dataset("zeta", "alpha"), nil)

		rr := testutil.Get(s.T(), s.router, "/api/projects")

		testutil.AssertJSON(s.T(), rr)
		records := testutil.DecodeJSON[[]models.Record](s.T(), rr)
		require.Len(s.T(), records, 2)
		s.Equal("zeta", records[0].ProjectID)
		s.Equal("alpha", records[1].ProjectID)
	})

	s.Run("empty dataset is an empty array", func() {
		s.dataset.EXPECT().Load(gomock.Any()).Return(nil, nil)

		rr := testutil.Get(s.T(), s.router, "/api/projects")

		testutil.AssertJSON(s.T(), rr)
		s.JSONEq("[]", rr.Body.String())
	})

	s.Run("store failure is an opaque internal error", func() {
		s.dataset.EXPECT().Load(gomock.Any()).Return(nil, errors.New("disk on fire"))

		rr := testutil.Get(s.T(), s.router, "/api/projects")

		s.NotContains(rr.Body.String(), "disk on fire")
		testutil.AssertError(s.T(), rr, http.StatusInternalServerError, "internal_error")
	})
}

// =============================================================================
// Per-record mirror
// =============================================================================

func (s *ProjectsHandlerSuite) TestGetProject() {
	s.Run("returns the record", func() {
		rec := modelstest.Record("canton-patterns")
		s.dataset.EXPECT().Get(gomock.Any(), "canton-patterns").Return(&rec, nil)

		rr := testutil.Get(s.T(), s.router, "/api/projects/canton-patterns")

		testutil.AssertJSON(s.T(), rr)
		s.Equal(rec, testutil.DecodeJSON[models.Record](s.T(), rr))
	})

	s.Run("unknown id is 404", func() {
		s.dataset.EXPECT().Get(gomock.Any(), "missing").Return(nil, sentinel.ErrNotFound)

		rr := testutil.Get(s.T(), s.router, "/api/projects/missing")

		testutil.AssertError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

// =============================================================================
// Metadata summary and health
// =============================================================================

func (s *ProjectsHandlerSuite) TestMeta() {
	records := modelstest.Dataset("alpha", "beta")
	records[1].Status = models.StatusProduction
	records[1].Claimed = true
	s.dataset.EXPECT().Load(gomock.Any()).Return(records, nil)

	rr := testutil.Get(s.T(), s.router, "/api/meta")

	testutil.AssertJSON(s.T(), rr)
	summary := testutil.DecodeJSON[models.Summary](s.T(), rr)
	s.Equal(2, summary.TotalProjects)
	s.Equal(1, summary.ByStatus[models.StatusProduction])
	s.Equal(1, summary.ByStatus[models.StatusDevelopment])
	s.Equal(2, summary.ByCategory[models.CategoryInfrastructure])
	s.Equal(1, summary.Claimed)
	s.Equal("2026-05-04T03:02:01Z", summary.GeneratedAt)
}

func (s *ProjectsHandlerSuite) TestHealthAndMetrics() {
	rr := testutil.Get(s.T(), s.router, "/healthz")
	testutil.AssertJSON(s.T(), rr)
	s.Equal("ok", testutil.DecodeJSON[map[string]string](s.T(), rr)["status"])

	rr = testutil.Get(s.T(), s.router, "/metrics")
	s.Equal(http.StatusOK, rr.Code)
}

func (s *ProjectsHandlerSuite) TestMethodNotAllowed() {
	rr := testutil.Do(s.T(), s.router, http.MethodPost, "/api/projects")
	s.Equal(http.StatusMethodNotAllowed, rr.Code)
}

func TestRegisterOnExternalRouter(t *testing.T) {
	ctrl := gomock.NewController(t)
	dataset := mocks.NewMockDataset(ctrl)
	dataset.EXPECT().Load(gomock.Any()).Return(modelstest.Dataset("alpha"), nil)

	r := chi.NewRouter()
	NewProjectsHandler(dataset, nil).Register(r)

	rr := testutil.Get(t, r, "/projects")
	testutil.AssertJSON(t, rr)
}
