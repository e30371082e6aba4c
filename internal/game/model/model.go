// Package model defines the room, session and player data structures.
package model

import (
	"time"

	"testroyale/internal/engine/result"
	appErr "testroyale/pkg/errors"
)

// GameState is the life-cycle state of a session. Transitions are monotonic:
// waiting -> playing -> finished, never backward.
type GameState string

const (
	StateWaiting  GameState = "waiting"
	StatePlaying  GameState = "playing"
	StateFinished GameState = "finished"
)

// Badge names awarded at game end.
const (
	BadgeKillRate    = "kill_rate"     // mutation score >= 80
	BadgeCoverage70  = "coverage_70"   // line coverage tiers, highest tier only
	BadgeCoverage80  = "coverage_80"
	BadgeCoverage90  = "coverage_90"
	BadgeCoverage100 = "coverage_100"
	BadgeFastSuite   = "fast_suite"    // execution under 5 seconds
	BadgeFirstPlace  = "first_place"
	BadgeSecondPlace = "second_place"
)

// Challenge is an immutable reference program players write tests against.
type Challenge struct {
	ID            string `json:"id" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	ReferenceCode string `json:"referenceCode" yaml:"referenceCode"`
	TestScaffold  string `json:"testScaffold,omitempty" yaml:"testScaffold"`
}

// RoomMember is one player inside a room lobby.
type RoomMember struct {
	PlayerID string    `json:"playerId"`
	Name     string    `json:"name"`
	Ready    bool      `json:"ready"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Room is a lobby players gather in before a game starts.
type Room struct {
	Code         string       `json:"code"`
	HostID       string       `json:"hostId"`
	Members      []RoomMember `json:"members"`
	ActiveGameID string       `json:"activeGameId,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Member returns the member with the given player id, or nil.
func (r *Room) Member(playerID string) *RoomMember {
	for i := range r.Members {
		if r.Members[i].PlayerID == playerID {
			return &r.Members[i]
		}
	}
	return nil
}

// PlayerGameEntry is one player's slot in a session: their submission and
// every metric measured for it. Mutated in place on each pipeline run for the
// player; read-only once the session finishes.
type PlayerGameEntry struct {
	PlayerID       string                `json:"playerId"`
	SubmittedCode  string                `json:"submittedCode,omitempty"`
	SubmittedAt    time.Time             `json:"submittedAt,omitempty"`
	TestRun        result.TestRunResult  `json:"testRun"`
	Coverage       result.CoverageReport `json:"coverage"`
	Mutation       result.MutationReport `json:"mutation"`
	CompositeScore float64               `json:"compositeScore"`
	TestLineCount  int                   `json:"testLineCount"`
	Rank           int                   `json:"rank,omitempty"`
	BadgesEarned   []string              `json:"badgesEarned,omitempty"`
	Feedback       string                `json:"feedback,omitempty"`
}

// HasSubmission reports whether the player has submitted any test code.
func (e *PlayerGameEntry) HasSubmission() bool {
	return e.SubmittedCode != ""
}

// NeedsScoring reports whether a submitted entry is missing its measurements:
// no mutation score and no coverage line data means the pipeline never ran
// (or never completed) for the current submission.
func (e *PlayerGameEntry) NeedsScoring() bool {
	return e.HasSubmission() && e.Mutation.MutationScorePercent == 0 && len(e.Coverage.PerLine) == 0
}

// GameSession is one competitive round binding a room's players to a
// challenge.
type GameSession struct {
	ID                   string             `json:"id"`
	RoomCode             string             `json:"roomCode"`
	Challenge            Challenge          `json:"challenge"`
	Entries              []*PlayerGameEntry `json:"entries"`
	State                GameState          `json:"state"`
	StartedAt            time.Time          `json:"startedAt"`
	FinishedAt           time.Time          `json:"finishedAt,omitempty"`
	Winner               string             `json:"winner,omitempty"`
	TotalDurationSeconds float64            `json:"totalDurationSeconds,omitempty"`
}

// nextState maps each state to its only legal successor.
var nextState = map[GameState]GameState{
	StateWaiting: StatePlaying,
	StatePlaying: StateFinished,
}

// Transition advances the session to the given state. Any move other than
// the next step of waiting -> playing -> finished is rejected.
func (s *GameSession) Transition(to GameState) error {
	if nextState[s.State] != to {
		return appErr.Newf(appErr.InvalidTransition, "cannot transition %s to %s", s.State, to)
	}
	s.State = to
	return nil
}

// Entry returns the entry for the given player id, or nil.
func (s *GameSession) Entry(playerID string) *PlayerGameEntry {
	for _, e := range s.Entries {
		if e.PlayerID == playerID {
			return e
		}
	}
	return nil
}

// PlayerStats is a player's long-term aggregate across finished games.
type PlayerStats struct {
	PlayerID      string         `json:"playerId"`
	GamesPlayed   int            `json:"gamesPlayed"`
	GamesWon      int            `json:"gamesWon"`
	CurrentStreak int            `json:"currentStreak"`
	BestStreak    int            `json:"bestStreak"`
	TotalScore    float64        `json:"totalScore"`
	AverageScore  float64        `json:"averageScore"`
	BestScore     float64        `json:"bestScore"`
	Badges        map[string]int `json:"badges,omitempty"`
}
