// Package service orchestrates rooms and game sessions: challenge
// assignment, per-player pipeline runs, badge evaluation and finalization.
package service

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"testroyale/internal/engine"
	"testroyale/internal/engine/result"
	"testroyale/internal/game/model"
	"testroyale/internal/game/repository"
	appErr "testroyale/pkg/errors"
	"testroyale/pkg/utils/logger"
)

// Event names broadcast to room participants.
const (
	EventRoomUpdated     = "room.updated"
	EventGameStarted     = "game.started"
	EventPlayerSubmitted = "player.submitted"
	EventPlayerScored    = "player.scored"
	EventGameFinished    = "game.finished"
)

const roomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// PipelineExecutor runs the full submission pipeline for one player.
type PipelineExecutor interface {
	Execute(ctx context.Context, req engine.Request) (result.Performance, error)
}

// Publisher broadcasts an event to every participant of a room.
// Fire-and-forget: delivery is not awaited or acknowledged.
type Publisher interface {
	Publish(roomCode, event string, payload interface{})
}

// Config holds the orchestrator's dependencies.
type Config struct {
	Pipeline   PipelineExecutor
	Challenges repository.ChallengeStore
	Sessions   repository.SessionStore
	Stats      repository.StatsStore
	Publishers []Publisher
}

// GameService is the session orchestrator. Active rooms and sessions live in
// a mutex-guarded in-memory registry; finished sessions survive only in the
// session store.
type GameService struct {
	pipeline   PipelineExecutor
	challenges repository.ChallengeStore
	sessions   repository.SessionStore
	stats      repository.StatsStore
	publishers []Publisher

	mu     sync.RWMutex
	rooms  map[string]*model.Room
	active map[string]*sessionHandle
}

// sessionHandle wraps an active session with its locks: mu guards session
// fields, entryMu serializes the read-modify-write of one player's entry so
// concurrent scoring calls for the same player cannot interleave.
type sessionHandle struct {
	mu      sync.Mutex
	session *model.GameSession
	entryMu map[string]*sync.Mutex
}

func (h *sessionHandle) entryLock(playerID string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	lock, ok := h.entryMu[playerID]
	if !ok {
		lock = &sync.Mutex{}
		h.entryMu[playerID] = lock
	}
	return lock
}

// NewGameService creates the orchestrator.
func NewGameService(cfg Config) (*GameService, error) {
	if cfg.Pipeline == nil {
		return nil, appErr.ValidationError("pipeline", "required")
	}
	if cfg.Challenges == nil {
		return nil, appErr.ValidationError("challenges", "required")
	}
	if cfg.Sessions == nil {
		return nil, appErr.ValidationError("sessions", "required")
	}
	if cfg.Stats == nil {
		return nil, appErr.ValidationError("stats", "required")
	}
	return &GameService{
		pipeline:   cfg.Pipeline,
		challenges: cfg.Challenges,
		sessions:   cfg.Sessions,
		stats:      cfg.Stats,
		publishers: cfg.Publishers,
		rooms:      make(map[string]*model.Room),
		active:     make(map[string]*sessionHandle),
	}, nil
}

func (s *GameService) publish(roomCode, event string, payload interface{}) {
	for _, p := range s.publishers {
		if p != nil {
			p.Publish(roomCode, event, payload)
		}
	}
}

// CreateRoom opens a new lobby with the caller as host and first member.
func (s *GameService) CreateRoom(ctx context.Context, hostID, hostName string) (model.Room, error) {
	if hostID == "" {
		return model.Room{}, appErr.ValidationError("player_id", "required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	code := s.newRoomCode()
	room := &model.Room{
		Code:   code,
		HostID: hostID,
		Members: []model.RoomMember{{
			PlayerID: hostID,
			Name:     hostName,
			JoinedAt: time.Now(),
		}},
		CreatedAt: time.Now(),
	}
	s.rooms[code] = room

	logger.Info(ctx, "room created", zap.String("room_code", code), zap.String("host_id", hostID))
	return *room, nil
}

func (s *GameService) newRoomCode() string {
	for {
		code := make([]byte, 6)
		for i := range code {
			code[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
		}
		if _, taken := s.rooms[string(code)]; !taken {
			return string(code)
		}
	}
}

// JoinRoom adds a player to a lobby. Rejoining is idempotent.
func (s *GameService) JoinRoom(ctx context.Context, code, playerID, name string) (model.Room, error) {
	if playerID == "" {
		return model.Room{}, appErr.ValidationError("player_id", "required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		return model.Room{}, appErr.New(appErr.RoomNotFound).WithDetail("room_code", code)
	}
	if member := room.Member(playerID); member != nil {
		if name != "" && name != member.Name {
			member.Name = name
		}
		return *room, nil
	}
	room.Members = append(room.Members, model.RoomMember{
		PlayerID: playerID,
		Name:     name,
		JoinedAt: time.Now(),
	})

	s.publish(code, EventRoomUpdated, *room)
	return *room, nil
}

// SetReady toggles a member's ready flag.
func (s *GameService) SetReady(ctx context.Context, code, playerID string, ready bool) (model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		return model.Room{}, appErr.New(appErr.RoomNotFound).WithDetail("room_code", code)
	}
	member := room.Member(playerID)
	if member == nil {
		return model.Room{}, appErr.New(appErr.NotARoomMember)
	}
	member.Ready = ready

	s.publish(code, EventRoomUpdated, *room)
	return *room, nil
}

// LeaveRoom removes a member; an emptied room is closed.
func (s *GameService) LeaveRoom(ctx context.Context, code, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		return appErr.New(appErr.RoomNotFound).WithDetail("room_code", code)
	}
	for i := range room.Members {
		if room.Members[i].PlayerID == playerID {
			room.Members = append(room.Members[:i], room.Members[i+1:]...)
			break
		}
	}
	if len(room.Members) == 0 {
		delete(s.rooms, code)
		return nil
	}
	if room.HostID == playerID {
		room.HostID = room.Members[0].PlayerID
	}
	s.publish(code, EventRoomUpdated, *room)
	return nil
}

// GetRoom returns a snapshot of the lobby.
func (s *GameService) GetRoom(ctx context.Context, code string) (model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	if !ok {
		return model.Room{}, appErr.New(appErr.RoomNotFound).WithDetail("room_code", code)
	}
	return *room, nil
}

// StartGame transitions a room into one playing session. Preconditions: the
// caller is a member, the room has at least two players, every player is
// ready, and no session is already active for the room. Exactly one playing
// session per room is allowed at a time.
func (s *GameService) StartGame(ctx context.Context, roomCode, playerID string) (*model.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomCode]
	if !ok {
		return nil, appErr.New(appErr.RoomNotFound).WithDetail("room_code", roomCode)
	}
	if room.Member(playerID) == nil {
		return nil, appErr.New(appErr.NotARoomMember)
	}
	if room.ActiveGameID != "" {
		return nil, appErr.New(appErr.RoomHasActiveGame).WithDetail("game_id", room.ActiveGameID)
	}
	if len(room.Members) < 2 {
		return nil, appErr.New(appErr.NotEnoughPlayers)
	}
	for _, m := range room.Members {
		if !m.Ready {
			return nil, appErr.Newf(appErr.PlayersNotReady, "player %s is not ready", m.PlayerID)
		}
	}

	challenge, err := s.challenges.Random(ctx)
	if err != nil {
		return nil, err
	}

	session := &model.GameSession{
		ID:        uuid.NewString(),
		RoomCode:  roomCode,
		Challenge: challenge,
		State:     model.StateWaiting,
		StartedAt: time.Now(),
	}
	for _, m := range room.Members {
		session.Entries = append(session.Entries, &model.PlayerGameEntry{PlayerID: m.PlayerID})
	}
	if err := session.Transition(model.StatePlaying); err != nil {
		return nil, err
	}

	handle := &sessionHandle{session: session, entryMu: make(map[string]*sync.Mutex)}
	s.active[session.ID] = handle
	room.ActiveGameID = session.ID

	if err := s.sessions.Save(ctx, session); err != nil {
		logger.Warn(ctx, "persist new session failed", zap.Error(err))
	}

	logger.Info(ctx, "game started",
		zap.String("game_id", session.ID),
		zap.String("room_code", roomCode),
		zap.String("challenge_id", challenge.ID),
		zap.Int("players", len(session.Entries)),
	)
	s.publish(roomCode, EventGameStarted, session)
	return session, nil
}

func (s *GameService) handle(gameID string) (*sessionHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handle, ok := s.active[gameID]
	if !ok {
		return nil, appErr.New(appErr.GameNotFound).WithDetail("game_id", gameID)
	}
	return handle, nil
}

// SubmitTestCode records a player's submission on their entry. It does not
// trigger scoring: recording intent is decoupled from the expensive pipeline
// run, which is requested separately through CalculatePlayerData.
func (s *GameService) SubmitTestCode(ctx context.Context, gameID, playerID, code string) error {
	if code == "" {
		return appErr.New(appErr.EmptySubmission)
	}
	handle, err := s.handle(gameID)
	if err != nil {
		return err
	}

	handle.mu.Lock()
	defer handle.mu.Unlock()

	session := handle.session
	if session.State != model.StatePlaying {
		return appErr.New(appErr.GameNotPlaying).WithDetail("state", string(session.State))
	}
	entry := session.Entry(playerID)
	if entry == nil {
		return appErr.New(appErr.NotAParticipant)
	}
	entry.SubmittedCode = code
	entry.SubmittedAt = time.Now()

	if err := s.sessions.Save(ctx, session); err != nil {
		logger.Warn(ctx, "persist submission failed", zap.Error(err))
	}
	s.publish(session.RoomCode, EventPlayerSubmitted, map[string]interface{}{
		"gameId":   gameID,
		"playerId": playerID,
	})
	return nil
}

// CalculatePlayerData runs the full pipeline for one player and overwrites
// their prior metrics. Calls for the same player are serialized by a
// per-entry lock; calls for different players run concurrently under the
// pipeline throttle. Passing code updates the stored submission first.
func (s *GameService) CalculatePlayerData(ctx context.Context, gameID, playerID, code string) (model.PlayerGameEntry, error) {
	handle, err := s.handle(gameID)
	if err != nil {
		return model.PlayerGameEntry{}, err
	}

	lock := handle.entryLock(playerID)
	lock.Lock()
	defer lock.Unlock()

	handle.mu.Lock()
	session := handle.session
	if session.State != model.StatePlaying {
		handle.mu.Unlock()
		return model.PlayerGameEntry{}, appErr.New(appErr.GameNotPlaying).WithDetail("state", string(session.State))
	}
	entry := session.Entry(playerID)
	if entry == nil {
		handle.mu.Unlock()
		return model.PlayerGameEntry{}, appErr.New(appErr.NotAParticipant)
	}
	if code != "" {
		entry.SubmittedCode = code
		entry.SubmittedAt = time.Now()
	}
	submitted := entry.SubmittedCode
	referenceCode := session.Challenge.ReferenceCode
	roomCode := session.RoomCode
	handle.mu.Unlock()

	if submitted == "" {
		return model.PlayerGameEntry{}, appErr.New(appErr.EmptySubmission)
	}

	perf, pipelineErr := s.pipeline.Execute(ctx, engine.Request{
		PlayerID:      playerID,
		ReferenceCode: referenceCode,
		TestCode:      submitted,
	})

	handle.mu.Lock()
	// The session may have been finalized while the pipeline ran. Finished
	// entries are read-only; the late result is discarded.
	if session.State != model.StatePlaying {
		handle.mu.Unlock()
		return model.PlayerGameEntry{}, appErr.New(appErr.GameAlreadyFinished).WithDetail("state", string(session.State))
	}
	entry.TestRun = perf.TestRun
	entry.Coverage = perf.Coverage
	entry.Mutation = perf.Mutation
	entry.CompositeScore = perf.CompositeScore
	entry.TestLineCount = perf.TestLineCount
	snapshot := *entry
	if err := s.sessions.Save(ctx, session); err != nil {
		logger.Warn(ctx, "persist scored entry failed", zap.Error(err))
	}
	handle.mu.Unlock()

	if pipelineErr != nil {
		// The partial result is stored; the caller decides whether to show
		// it or require resubmission.
		return snapshot, pipelineErr
	}

	s.publish(roomCode, EventPlayerScored, map[string]interface{}{
		"gameId":         gameID,
		"playerId":       playerID,
		"compositeScore": snapshot.CompositeScore,
	})
	return snapshot, nil
}

// EndGame finalizes a session: stale submissions are auto-scored, entries are
// ranked by composite score, badges are awarded and every player's long-term
// stats are folded in. The in-memory handle is released afterwards; no
// further mutation of the session is possible.
func (s *GameService) EndGame(ctx context.Context, gameID string) (*model.GameSession, error) {
	handle, err := s.handle(gameID)
	if err != nil {
		return nil, err
	}

	handle.mu.Lock()
	session := handle.session
	if session.State != model.StatePlaying {
		handle.mu.Unlock()
		if session.State == model.StateFinished {
			return nil, appErr.New(appErr.GameAlreadyFinished)
		}
		return nil, appErr.New(appErr.InvalidTransition).WithDetail("state", string(session.State))
	}
	var pending []string
	for _, entry := range session.Entries {
		if entry.NeedsScoring() {
			pending = append(pending, entry.PlayerID)
		}
	}
	handle.mu.Unlock()

	// Entries with a submission but no measurements are scored before ranking.
	if len(pending) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		for _, playerID := range pending {
			playerID := playerID
			g.Go(func() error {
				if _, err := s.CalculatePlayerData(gctx, gameID, playerID, ""); err != nil {
					logger.Warn(gctx, "auto-completion scoring failed",
						zap.String("game_id", gameID),
						zap.String("player_id", playerID),
						zap.Error(err),
					)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	handle.mu.Lock()
	if session.State != model.StatePlaying {
		handle.mu.Unlock()
		return nil, appErr.New(appErr.GameAlreadyFinished)
	}

	ranked := make([]*model.PlayerGameEntry, len(session.Entries))
	copy(ranked, session.Entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CompositeScore > ranked[j].CompositeScore
	})
	for i, entry := range ranked {
		entry.Rank = i + 1
		entry.BadgesEarned = evaluateBadges(entry)
		entry.Feedback = buildFeedback(entry)
	}
	if len(ranked) > 0 {
		session.Winner = ranked[0].PlayerID
	}

	if err := session.Transition(model.StateFinished); err != nil {
		handle.mu.Unlock()
		return nil, err
	}
	session.FinishedAt = time.Now()
	session.TotalDurationSeconds = session.FinishedAt.Sub(session.StartedAt).Seconds()
	roomCode := session.RoomCode
	handle.mu.Unlock()

	for _, entry := range session.Entries {
		s.foldStats(ctx, entry, entry.PlayerID == session.Winner)
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		logger.Warn(ctx, "persist finished session failed", zap.Error(err))
	}

	s.mu.Lock()
	delete(s.active, gameID)
	if room, ok := s.rooms[roomCode]; ok && room.ActiveGameID == gameID {
		room.ActiveGameID = ""
		for i := range room.Members {
			room.Members[i].Ready = false
		}
	}
	s.mu.Unlock()

	logger.Info(ctx, "game finished",
		zap.String("game_id", gameID),
		zap.String("winner", session.Winner),
		zap.Float64("duration_seconds", session.TotalDurationSeconds),
	)
	s.publish(roomCode, EventGameFinished, session)
	return session, nil
}

// GetSession returns an active session, falling back to the store for
// finished ones.
func (s *GameService) GetSession(ctx context.Context, gameID string) (*model.GameSession, error) {
	s.mu.RLock()
	handle, ok := s.active[gameID]
	s.mu.RUnlock()
	if ok {
		handle.mu.Lock()
		defer handle.mu.Unlock()
		snapshot := *handle.session
		return &snapshot, nil
	}
	return s.sessions.Load(ctx, gameID)
}

// Leaderboard returns the top players by best composite score.
func (s *GameService) Leaderboard(ctx context.Context, limit int) ([]model.PlayerStats, error) {
	return s.stats.TopByBestScore(ctx, limit)
}

func (s *GameService) foldStats(ctx context.Context, entry *model.PlayerGameEntry, won bool) {
	stats, err := s.stats.Load(ctx, entry.PlayerID)
	if err != nil {
		logger.Warn(ctx, "load player stats failed", zap.String("player_id", entry.PlayerID), zap.Error(err))
		return
	}

	stats.GamesPlayed++
	if won {
		stats.GamesWon++
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.BestStreak {
			stats.BestStreak = stats.CurrentStreak
		}
	} else {
		stats.CurrentStreak = 0
	}
	stats.TotalScore += entry.CompositeScore
	stats.AverageScore = stats.TotalScore / float64(stats.GamesPlayed)
	if entry.CompositeScore > stats.BestScore {
		stats.BestScore = entry.CompositeScore
	}
	if stats.Badges == nil {
		stats.Badges = map[string]int{}
	}
	for _, badge := range entry.BadgesEarned {
		stats.Badges[badge]++
	}

	if err := s.stats.Save(ctx, stats); err != nil {
		logger.Warn(ctx, "save player stats failed", zap.String("player_id", entry.PlayerID), zap.Error(err))
	}
}
