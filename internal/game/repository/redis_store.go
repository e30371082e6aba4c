package repository

import (
	"context"
	"encoding/json"
	"time"

	"testroyale/internal/common/cache"
	"testroyale/internal/game/model"
	appErr "testroyale/pkg/errors"
)

const (
	sessionKeyPrefix = "game:session:"
	statsKeyPrefix   = "player:stats:"
	leaderboardKey   = "leaderboard:best"
)

const defaultSessionTTL = 24 * time.Hour

// RedisSessionStore persists sessions as JSON blobs keyed by id.
type RedisSessionStore struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewRedisSessionStore creates a session store. A zero ttl keeps finished
// sessions for a day.
func NewRedisSessionStore(c cache.Cache, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisSessionStore{cache: c, ttl: ttl}
}

func (s *RedisSessionStore) Load(ctx context.Context, id string) (*model.GameSession, error) {
	if id == "" {
		return nil, appErr.ValidationError("game_id", "required")
	}
	raw, err := s.cache.Get(ctx, sessionKeyPrefix+id)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.StoreError, "load session failed")
	}
	if raw == "" {
		return nil, appErr.New(appErr.GameNotFound)
	}
	var session model.GameSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, appErr.Wrapf(err, appErr.StoreError, "decode session failed")
	}
	return &session, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, session *model.GameSession) error {
	if session == nil || session.ID == "" {
		return appErr.ValidationError("session", "required")
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return appErr.Wrapf(err, appErr.StoreSetFailed, "encode session failed")
	}
	if err := s.cache.Set(ctx, sessionKeyPrefix+session.ID, string(payload), s.ttl); err != nil {
		return appErr.Wrapf(err, appErr.StoreSetFailed, "save session failed")
	}
	return nil
}

// RedisStatsStore persists player aggregates and maintains the best-score
// leaderboard as a sorted set.
type RedisStatsStore struct {
	cache cache.Cache
}

// NewRedisStatsStore creates a stats store.
func NewRedisStatsStore(c cache.Cache) *RedisStatsStore {
	return &RedisStatsStore{cache: c}
}

// Load returns the player's stats, or a zero-valued record for a player who
// has not finished a game yet.
func (s *RedisStatsStore) Load(ctx context.Context, playerID string) (model.PlayerStats, error) {
	if playerID == "" {
		return model.PlayerStats{}, appErr.ValidationError("player_id", "required")
	}
	raw, err := s.cache.Get(ctx, statsKeyPrefix+playerID)
	if err != nil {
		return model.PlayerStats{}, appErr.Wrapf(err, appErr.StoreError, "load player stats failed")
	}
	if raw == "" {
		return model.PlayerStats{PlayerID: playerID, Badges: map[string]int{}}, nil
	}
	var stats model.PlayerStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return model.PlayerStats{}, appErr.Wrapf(err, appErr.StoreError, "decode player stats failed")
	}
	if stats.Badges == nil {
		stats.Badges = map[string]int{}
	}
	return stats, nil
}

func (s *RedisStatsStore) Save(ctx context.Context, stats model.PlayerStats) error {
	if stats.PlayerID == "" {
		return appErr.ValidationError("player_id", "required")
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		return appErr.Wrapf(err, appErr.StatsUpdateFailed, "encode player stats failed")
	}
	if err := s.cache.Set(ctx, statsKeyPrefix+stats.PlayerID, string(payload), 0); err != nil {
		return appErr.Wrapf(err, appErr.StatsUpdateFailed, "save player stats failed")
	}
	if err := s.cache.ZAdd(ctx, leaderboardKey, cache.ZMember{Member: stats.PlayerID, Score: stats.BestScore}); err != nil {
		return appErr.Wrapf(err, appErr.StatsUpdateFailed, "update leaderboard failed")
	}
	return nil
}

// TopByBestScore returns up to limit players ordered by best score.
func (s *RedisStatsStore) TopByBestScore(ctx context.Context, limit int) ([]model.PlayerStats, error) {
	if limit <= 0 {
		limit = 10
	}
	members, err := s.cache.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1))
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.StoreError, "load leaderboard failed")
	}
	top := make([]model.PlayerStats, 0, len(members))
	for _, m := range members {
		stats, err := s.Load(ctx, m.Member)
		if err != nil {
			return nil, err
		}
		top = append(top, stats)
	}
	return top, nil
}
