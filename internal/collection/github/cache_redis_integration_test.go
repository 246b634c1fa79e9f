//go:build integration

package github_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ecoregistry/internal/collection/github"
	"ecoregistry/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *github.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.cache = github.NewRedisCache(s.redis.Client, time.Second)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestMissThenHit() {
	ctx := context.Background()

	_, ok, err := s.cache.Get(ctx, "/repos/acme/widget")
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.cache.Set(ctx, "/repos/acme/widget", []byte(`{"full_name":"acme/widget"}`)))
	body, ok, err := s.cache.Get(ctx, "/repos/acme/widget")
	s.Require().NoError(err)
	s.True(ok)
	s.JSONEq(`{"full_name":"acme/widget"}`, string(body))
}

func (s *RedisCacheSuite) TestEntriesExpire() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "/repos/acme/widget/languages", []byte(`{}`)))

	s.Eventually(func() bool {
		_, ok, err := s.cache.Get(ctx, "/repos/acme/widget/languages")
		return err == nil && !ok
	}, 5*time.Second, 100*time.Millisecond)
}
