// Package controller exposes the room and game HTTP endpoints.
package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"testroyale/internal/game/service"
	"testroyale/pkg/utils/response"
)

// GameController handles room and game session HTTP endpoints.
type GameController struct {
	gameService *service.GameService
}

// NewGameController creates a new GameController.
func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

// RegisterRoutes mounts the controller under the given router group.
func (h *GameController) RegisterRoutes(r *gin.RouterGroup) {
	rooms := r.Group("/rooms")
	{
		rooms.POST("", h.CreateRoom)
		rooms.GET("/:code", h.GetRoom)
		rooms.POST("/:code/join", h.JoinRoom)
		rooms.POST("/:code/ready", h.SetReady)
		rooms.POST("/:code/leave", h.LeaveRoom)
		rooms.POST("/:code/start", h.StartGame)
	}
	games := r.Group("/games")
	{
		games.GET("/:id", h.GetGame)
		games.POST("/:id/submit", h.SubmitTestCode)
		games.POST("/:id/score", h.CalculatePlayerData)
		games.POST("/:id/end", h.EndGame)
	}
	r.GET("/leaderboard", h.Leaderboard)
}

// CreateRoom handles lobby creation.
func (h *GameController) CreateRoom(c *gin.Context) {
	var req PlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	room, err := h.gameService.CreateRoom(c.Request.Context(), req.PlayerID, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, room)
}

// GetRoom handles lobby lookup.
func (h *GameController) GetRoom(c *gin.Context) {
	room, err := h.gameService.GetRoom(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, room)
}

// JoinRoom handles a player joining a lobby.
func (h *GameController) JoinRoom(c *gin.Context) {
	var req PlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	room, err := h.gameService.JoinRoom(c.Request.Context(), c.Param("code"), req.PlayerID, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, room)
}

// SetReady handles ready flag changes.
func (h *GameController) SetReady(c *gin.Context) {
	var req ReadyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	room, err := h.gameService.SetReady(c.Request.Context(), c.Param("code"), req.PlayerID, req.Ready)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, room)
}

// LeaveRoom handles a player leaving a lobby.
func (h *GameController) LeaveRoom(c *gin.Context) {
	var req PlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	if err := h.gameService.LeaveRoom(c.Request.Context(), c.Param("code"), req.PlayerID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// StartGame handles the waiting to playing transition for a room.
func (h *GameController) StartGame(c *gin.Context) {
	var req PlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	session, err := h.gameService.StartGame(c.Request.Context(), c.Param("code"), req.PlayerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, session)
}

// GetGame handles session lookup, active or finished.
func (h *GameController) GetGame(c *gin.Context) {
	session, err := h.gameService.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, session)
}

// SubmitTestCode records a player's test code without scoring it.
func (h *GameController) SubmitTestCode(c *gin.Context) {
	var req SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	if err := h.gameService.SubmitTestCode(c.Request.Context(), c.Param("id"), req.PlayerID, req.TestCode); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// CalculatePlayerData runs the measurement pipeline for one player and
// returns their refreshed entry.
func (h *GameController) CalculatePlayerData(c *gin.Context) {
	var req SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	entry, err := h.gameService.CalculatePlayerData(c.Request.Context(), c.Param("id"), req.PlayerID, req.TestCode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, entry)
}

// EndGame finalizes a session and returns the ranked result.
func (h *GameController) EndGame(c *gin.Context) {
	session, err := h.gameService.EndGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, session)
}

// Leaderboard returns the top players by best composite score.
func (h *GameController) Leaderboard(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			response.BadRequest(c, "Invalid limit")
			return
		}
		limit = parsed
	}

	stats, err := h.gameService.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// PlayerRequest identifies the acting player.
type PlayerRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	Name     string `json:"name"`
}

// ReadyRequest toggles a player's ready flag.
type ReadyRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	Ready    bool   `json:"ready"`
}

// SubmissionRequest carries a player's test code. TestCode may be empty for
// score requests that reuse the stored submission.
type SubmissionRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	TestCode string `json:"test_code"`
}
