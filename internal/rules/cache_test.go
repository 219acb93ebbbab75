package rules

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/warden-rbac/warden/internal/authz"
)

type memoryRules struct {
	byPair map[[2]int64]authz.Rule
	reads  int
}

func newMemoryRules() *memoryRules {
	return &memoryRules{byPair: map[[2]int64]authz.Rule{}}
}

func (m *memoryRules) RulesFor(_ context.Context, roleIDs []int64, elementID int64) ([]authz.Rule, error) {
	m.reads++
	var out []authz.Rule
	for _, roleID := range roleIDs {
		if rule, ok := m.byPair[[2]int64{roleID, elementID}]; ok {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (m *memoryRules) Upsert(_ context.Context, roleID, elementID int64, grants authz.Grants) (authz.Rule, error) {
	rule := authz.Rule{RoleID: roleID, ElementID: elementID, Grants: grants}
	m.byPair[[2]int64{roleID, elementID}] = rule
	return rule, nil
}

func (m *memoryRules) ListAll(_ context.Context) ([]authz.Rule, error) {
	var out []authz.Rule
	for _, rule := range m.byPair {
		out = append(out, rule)
	}
	return out, nil
}

func newCacheFixture(t *testing.T) (*CachedRepository, *memoryRules, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	inner := newMemoryRules()
	return NewCachedRepository(inner, client, time.Minute, nil), inner, srv
}

func TestCachedRulesForFillsAndServesFromCache(t *testing.T) {
	cached, inner, _ := newCacheFixture(t)
	ctx := context.Background()

	_, err := inner.Upsert(ctx, 1, 10, authz.Grants{ReadAll: true})
	require.NoError(t, err)

	first, err := cached.RulesFor(ctx, []int64{1}, 10)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.True(t, first[0].ReadAll)
	require.Equal(t, 1, inner.reads)

	second, err := cached.RulesFor(ctx, []int64{1}, 10)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, inner.reads)
}

func TestCachedRulesForNegativeCachesMissingPairs(t *testing.T) {
	cached, inner, _ := newCacheFixture(t)
	ctx := context.Background()

	rules, err := cached.RulesFor(ctx, []int64{7}, 10)
	require.NoError(t, err)
	require.Empty(t, rules)
	require.Equal(t, 1, inner.reads)

	rules, err = cached.RulesFor(ctx, []int64{7}, 10)
	require.NoError(t, err)
	require.Empty(t, rules)
	require.Equal(t, 1, inner.reads)
}

func TestCachedUpsertInvalidates(t *testing.T) {
	cached, _, _ := newCacheFixture(t)
	ctx := context.Background()

	rules, err := cached.RulesFor(ctx, []int64{1}, 10)
	require.NoError(t, err)
	require.Empty(t, rules)

	_, err = cached.Upsert(ctx, 1, 10, authz.Grants{Create: true})
	require.NoError(t, err)

	rules, err = cached.RulesFor(ctx, []int64{1}, 10)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.True(t, rules[0].Create)
}

func TestCachedRulesForFallsBackWhenRedisIsDown(t *testing.T) {
	cached, inner, srv := newCacheFixture(t)
	ctx := context.Background()

	_, err := inner.Upsert(ctx, 1, 10, authz.Grants{ReadOwn: true})
	require.NoError(t, err)

	srv.Close()

	rules, err := cached.RulesFor(ctx, []int64{1}, 10)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.True(t, rules[0].ReadOwn)
}

func TestCachedRulesForEmptyRoleSet(t *testing.T) {
	cached, inner, _ := newCacheFixture(t)

	rules, err := cached.RulesFor(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Nil(t, rules)
	require.Zero(t, inner.reads)
}
