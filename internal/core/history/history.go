package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"mealplan-generator/internal/infrastructure/config"
	"mealplan-generator/internal/pkg/common"
	"mealplan-generator/internal/storage/recipe"
)

// Seed is the per-owner history snapshot that seeds the used-name set and
// the cuisine usage counter at the start of a run.
type Seed struct {
	Names         []string       `json:"names"`
	CuisineCounts map[string]int `json:"cuisine_counts"`
}

// Service loads history seeds from the recipe store with a redis cache in
// front. Cache failures degrade to a direct store query.
type Service struct {
	config *config.CacheConfig
	store  recipe.Store
	client *redis.Client
}

// NewService creates the history service. A dead redis disables the cache
// instead of failing startup.
func NewService(cfg *config.CacheConfig, store recipe.Store) *Service {
	s := &Service{
		config: cfg,
		store:  store,
	}

	if !cfg.Enabled {
		common.LogInfo("history cache disabled")
		return s
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		common.LogWarn("failed to connect to redis, history cache disabled",
			zap.Error(err),
			zap.String("addr", cfg.RedisAddr),
		)
		return s
	}

	s.client = client
	common.LogInfo("history cache initialized",
		zap.String("addr", cfg.RedisAddr),
		zap.Duration("ttl", cfg.TTL),
	)
	return s
}

// Close releases the redis connection.
func (s *Service) Close() {
	if s.client != nil {
		_ = s.client.Close()
	}
}

// Load returns the owner's history seed, from cache when possible.
func (s *Service) Load(ctx context.Context, ownerID string) (*Seed, error) {
	if seed := s.cacheGet(ctx, ownerID); seed != nil {
		return seed, nil
	}

	rows, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe history: %w", err)
	}

	seed := &Seed{
		Names:         recipe.UsedNames(rows),
		CuisineCounts: recipe.CuisineCounts(rows),
	}
	s.cacheSet(ctx, ownerID, seed)
	return seed, nil
}

// Invalidate drops the cached seed after new recipes were saved.
func (s *Service) Invalidate(ctx context.Context, ownerID string) {
	if s.client == nil {
		return
	}
	if err := s.client.Del(ctx, seedKey(ownerID)).Err(); err != nil {
		common.LogWarn("failed to invalidate history cache",
			zap.Error(err),
			zap.String("owner_id", ownerID),
		)
	}
}

func (s *Service) cacheGet(ctx context.Context, ownerID string) *Seed {
	if s.client == nil {
		return nil
	}

	data, err := s.client.Get(ctx, seedKey(ownerID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			common.LogWarn("history cache read failed", zap.Error(err))
		}
		return nil
	}

	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		common.LogWarn("history cache entry corrupt", zap.Error(err))
		return nil
	}
	return &seed
}

func (s *Service) cacheSet(ctx context.Context, ownerID string, seed *Seed) {
	if s.client == nil {
		return
	}

	data, err := json.Marshal(seed)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, seedKey(ownerID), data, s.config.TTL).Err(); err != nil {
		common.LogWarn("history cache write failed", zap.Error(err))
	}
}

func seedKey(ownerID string) string {
	return fmt.Sprintf("history:seed:%s", ownerID)
}
