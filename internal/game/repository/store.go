// Package repository persists sessions, player statistics and challenges.
package repository

import (
	"context"

	"testroyale/internal/game/model"
)

// ChallengeStore supplies the reference programs players compete on.
type ChallengeStore interface {
	Get(ctx context.Context, id string) (model.Challenge, error)
	Random(ctx context.Context) (model.Challenge, error)
}

// SessionStore persists game sessions by id.
// Simple get/put: the engine does not assume transactions across calls.
type SessionStore interface {
	Load(ctx context.Context, id string) (*model.GameSession, error)
	Save(ctx context.Context, session *model.GameSession) error
}

// StatsStore persists long-term player aggregates and the leaderboard.
type StatsStore interface {
	Load(ctx context.Context, playerID string) (model.PlayerStats, error)
	Save(ctx context.Context, stats model.PlayerStats) error
	TopByBestScore(ctx context.Context, limit int) ([]model.PlayerStats, error)
}
