package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"testroyale/internal/common/cache"
	"testroyale/internal/game/model"
	appErr "testroyale/pkg/errors"
)

func newTestCache(t *testing.T) cache.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c, err := cache.NewRedisCacheWithClient(client)
	if err != nil {
		t.Fatalf("NewRedisCacheWithClient() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSessionStoreRoundTrip(t *testing.T) {
	store := NewRedisSessionStore(newTestCache(t), time.Hour)
	ctx := context.Background()

	session := &model.GameSession{
		ID:        "g-1",
		RoomCode:  "ABC123",
		State:     model.StatePlaying,
		Challenge: model.Challenge{ID: "c-1", Title: "Calculator"},
		Entries: []*model.PlayerGameEntry{
			{PlayerID: "alice", SubmittedCode: "Assert.True(true);"},
			{PlayerID: "bob"},
		},
		StartedAt: time.Now().UTC(),
	}
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load(ctx, "g-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.RoomCode != "ABC123" || loaded.State != model.StatePlaying {
		t.Errorf("loaded session = %+v", loaded)
	}
	if len(loaded.Entries) != 2 || loaded.Entries[0].SubmittedCode != "Assert.True(true);" {
		t.Errorf("entries not preserved: %+v", loaded.Entries)
	}
}

func TestSessionStoreNotFound(t *testing.T) {
	store := NewRedisSessionStore(newTestCache(t), 0)

	_, err := store.Load(context.Background(), "missing")
	if appErr.GetCode(err) != appErr.GameNotFound {
		t.Errorf("GetCode() = %v, want GameNotFound", appErr.GetCode(err))
	}
}

func TestStatsStoreNewPlayerIsZeroValued(t *testing.T) {
	store := NewRedisStatsStore(newTestCache(t))

	stats, err := store.Load(context.Background(), "newcomer")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if stats.PlayerID != "newcomer" || stats.GamesPlayed != 0 {
		t.Errorf("stats = %+v, want zero-valued", stats)
	}
	if stats.Badges == nil {
		t.Error("Badges map is nil")
	}
}

func TestStatsStoreSaveAndLoad(t *testing.T) {
	store := NewRedisStatsStore(newTestCache(t))
	ctx := context.Background()

	stats := model.PlayerStats{
		PlayerID:    "alice",
		GamesPlayed: 3,
		GamesWon:    2,
		BestScore:   71.5,
		Badges:      map[string]int{model.BadgeKillRate: 2},
	}
	if err := store.Save(ctx, stats); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.GamesWon != 2 || loaded.BestScore != 71.5 {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Badges[model.BadgeKillRate] != 2 {
		t.Errorf("badges = %v", loaded.Badges)
	}
}

func TestStatsStoreLeaderboardOrder(t *testing.T) {
	store := NewRedisStatsStore(newTestCache(t))
	ctx := context.Background()

	for _, s := range []model.PlayerStats{
		{PlayerID: "low", BestScore: 10},
		{PlayerID: "high", BestScore: 90},
		{PlayerID: "mid", BestScore: 50},
	} {
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("Save(%s) error = %v", s.PlayerID, err)
		}
	}

	top, err := store.TopByBestScore(ctx, 2)
	if err != nil {
		t.Fatalf("TopByBestScore() error = %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	if top[0].PlayerID != "high" || top[1].PlayerID != "mid" {
		t.Errorf("order = %s, %s; want high, mid", top[0].PlayerID, top[1].PlayerID)
	}
}

func TestChallengeStore(t *testing.T) {
	store := NewSeededChallengeStore([]model.Challenge{
		{ID: "c-1", Title: "Calculator"},
		{ID: "c-2", Title: "Stack"},
		{ID: "c-1", Title: "Duplicate"},
		{Title: "No id, skipped"},
	})
	ctx := context.Background()

	got, err := store.Get(ctx, "c-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Calculator" {
		t.Errorf("duplicate id overwrote the original: %q", got.Title)
	}

	if _, err := store.Get(ctx, "missing"); appErr.GetCode(err) != appErr.ChallengeNotFound {
		t.Errorf("GetCode() = %v, want ChallengeNotFound", appErr.GetCode(err))
	}

	for i := 0; i < 10; i++ {
		c, err := store.Random(ctx)
		if err != nil {
			t.Fatalf("Random() error = %v", err)
		}
		if c.ID != "c-1" && c.ID != "c-2" {
			t.Fatalf("Random() returned unknown challenge %q", c.ID)
		}
	}
}

func TestChallengeStoreEmpty(t *testing.T) {
	store := NewSeededChallengeStore(nil)
	if _, err := store.Random(context.Background()); err == nil {
		t.Fatal("expected error from empty store")
	}
}
