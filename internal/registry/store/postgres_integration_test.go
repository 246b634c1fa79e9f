//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"ecoregistry/internal/registry/models"
	"ecoregistry/internal/registry/models/modelstest"
	"ecoregistry/internal/registry/store"
	"ecoregistry/pkg/platform/sentinel"
	txcontext "ecoregistry/pkg/platform/tx"
	"ecoregistry/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgresStore(s.postgres.DB)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "projects"))
}

func (s *PostgresStoreSuite) TestEmptyLoad() {
	records, err := s.store.Load(context.Background())
	s.Require().NoError(err)
	s.Empty(records)
}

func (s *PostgresStoreSuite) TestSaveLoadPreservesOrder() {
	ctx := context.Background()
	records := modelstest.Dataset("zeta", "alpha", "mid")
	records[0].TechStack = []string{"Go", "Node.js"}
	records[0].Confidence[models.FieldTechStack] = models.TierPtr(models.TierAutoDetected)

	s.Require().NoError(s.store.Save(ctx, records))

	loaded, err := s.store.Load(ctx)
	s.Require().NoError(err)
	s.Equal(records, loaded)
}

func (s *PostgresStoreSuite) TestSaveKeepsProjectsMissingFromSnapshot() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, modelstest.Dataset("alpha")))

	snapshot, err := s.store.Load(ctx)
	s.Require().NoError(err)

	// Another writer adds a project while the snapshot is being refreshed.
	s.Require().NoError(s.store.Save(ctx, modelstest.Dataset("beta")))

	snapshot[0].Name = "Alpha refreshed"
	s.Require().NoError(s.store.Save(ctx, snapshot))

	loaded, err := s.store.Load(ctx)
	s.Require().NoError(err)
	s.Require().Len(loaded, 2)

	alpha, err := s.store.Get(ctx, "alpha")
	s.Require().NoError(err)
	s.Equal("Alpha refreshed", alpha.Name)

	_, err = s.store.Get(ctx, "beta")
	s.NoError(err)
}

func (s *PostgresStoreSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), "nobody")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestGet() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, modelstest.Dataset("alpha")))

	r, err := s.store.Get(ctx, "alpha")
	s.Require().NoError(err)
	s.Equal("Project alpha", r.Name)
}

func (s *PostgresStoreSuite) TestSaveJoinsCallerTransaction() {
	ctx := context.Background()
	tx, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Save(txcontext.WithTx(ctx, tx), modelstest.Dataset("alpha")))
	s.Require().NoError(tx.Rollback())

	records, err := s.store.Load(ctx)
	s.Require().NoError(err)
	s.Empty(records, "rolled back caller transaction discards the save")
}
