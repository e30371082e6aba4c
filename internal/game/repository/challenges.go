package repository

import (
	"context"
	"math/rand"
	"sync"

	"testroyale/internal/game/model"
	appErr "testroyale/pkg/errors"
)

// SeededChallengeStore serves challenges from a fixed in-memory set loaded at
// startup. Challenges are content-seeded and never mutated at runtime.
type SeededChallengeStore struct {
	mu   sync.RWMutex
	byID map[string]model.Challenge
	ids  []string
}

// NewSeededChallengeStore creates a store from the given challenge set.
func NewSeededChallengeStore(challenges []model.Challenge) *SeededChallengeStore {
	store := &SeededChallengeStore{byID: make(map[string]model.Challenge, len(challenges))}
	for _, c := range challenges {
		if c.ID == "" {
			continue
		}
		if _, exists := store.byID[c.ID]; exists {
			continue
		}
		store.byID[c.ID] = c
		store.ids = append(store.ids, c.ID)
	}
	return store
}

func (s *SeededChallengeStore) Get(ctx context.Context, id string) (model.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	challenge, ok := s.byID[id]
	if !ok {
		return model.Challenge{}, appErr.New(appErr.ChallengeNotFound).WithDetail("challenge_id", id)
	}
	return challenge, nil
}

// Random picks one challenge uniformly from the set.
func (s *SeededChallengeStore) Random(ctx context.Context) (model.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.ids) == 0 {
		return model.Challenge{}, appErr.New(appErr.ChallengeNotFound).WithMessage("challenge set is empty")
	}
	return s.byID[s.ids[rand.Intn(len(s.ids))]], nil
}
