package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/warden-rbac/warden/internal/authz"
)

// noRuleMarker is the negative-cache value for (role, element) pairs that
// have no rule row, so roles without grants do not hit the database on every
// evaluation.
const noRuleMarker = "-"

// CachedRepository decorates a Repository with a Redis cache of individual
// (role, element) rule rows. Only the row fetch moves here; grant semantics
// stay in the evaluator. Upsert writes through and drops the pair's key, so
// administrative changes are visible on the next evaluation.
type CachedRepository struct {
	inner  Repository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewCachedRepository constructs the cache decorator.
func NewCachedRepository(inner Repository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedRepository {
	return &CachedRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

func cacheKey(roleID, elementID int64) string {
	return "warden:rule:" + strconv.FormatInt(roleID, 10) + ":" + strconv.FormatInt(elementID, 10)
}

// RulesFor serves per-role rule rows from Redis, fetching only the missing
// roles from the inner repository. Any cache failure falls back to the
// database; the cache is never load-bearing.
func (c *CachedRepository) RulesFor(ctx context.Context, roleIDs []int64, elementID int64) ([]authz.Rule, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	keys := make([]string, len(roleIDs))
	for i, roleID := range roleIDs {
		keys[i] = cacheKey(roleID, elementID)
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("rules cache read", slog.Any("error", err))
		}
		return c.inner.RulesFor(ctx, roleIDs, elementID)
	}

	var out []authz.Rule
	var missing []int64
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			missing = append(missing, roleIDs[i])
			continue
		}
		if raw == noRuleMarker {
			continue
		}
		var rule authz.Rule
		if err := json.Unmarshal([]byte(raw), &rule); err != nil {
			missing = append(missing, roleIDs[i])
			continue
		}
		out = append(out, rule)
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.fetchAndFill(ctx, missing, elementID)
	if err != nil {
		return nil, err
	}
	return append(out, fetched...), nil
}

func (c *CachedRepository) fetchAndFill(ctx context.Context, roleIDs []int64, elementID int64) ([]authz.Rule, error) {
	sorted := append([]int64(nil), roleIDs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	flightKey := fmt.Sprintf("%d:%v", elementID, sorted)

	result, err, _ := c.group.Do(flightKey, func() (any, error) {
		rules, err := c.inner.RulesFor(ctx, roleIDs, elementID)
		if err != nil {
			return nil, err
		}
		byRole := make(map[int64]authz.Rule, len(rules))
		for _, rule := range rules {
			byRole[rule.RoleID] = rule
		}
		pipe := c.client.Pipeline()
		for _, roleID := range roleIDs {
			key := cacheKey(roleID, elementID)
			if rule, ok := byRole[roleID]; ok {
				if data, err := json.Marshal(rule); err == nil {
					pipe.Set(ctx, key, data, c.ttl)
				}
			} else {
				pipe.Set(ctx, key, noRuleMarker, c.ttl)
			}
		}
		if _, err := pipe.Exec(ctx); err != nil && c.logger != nil {
			c.logger.Warn("rules cache fill", slog.Any("error", err))
		}
		return rules, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]authz.Rule), nil
}

// Upsert writes through and invalidates the pair's cache entry.
func (c *CachedRepository) Upsert(ctx context.Context, roleID, elementID int64, grants authz.Grants) (authz.Rule, error) {
	rule, err := c.inner.Upsert(ctx, roleID, elementID, grants)
	if err != nil {
		return authz.Rule{}, err
	}
	if err := c.client.Del(ctx, cacheKey(roleID, elementID)).Err(); err != nil && c.logger != nil {
		c.logger.Warn("rules cache invalidate", slog.Any("error", err))
	}
	return rule, nil
}

// ListAll always reads the database; the listing endpoint is administrative
// and rare.
func (c *CachedRepository) ListAll(ctx context.Context) ([]authz.Rule, error) {
	return c.inner.ListAll(ctx)
}

var _ Repository = (*CachedRepository)(nil)
