package repl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"testroyale/internal/cli/command"
	httpclient "testroyale/internal/cli/http"
	"testroyale/internal/cli/state"
	pkgerrors "testroyale/pkg/errors"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
)

// Session holds REPL state.
type Session struct {
	client      *httpclient.Client
	commands    map[string]command.Command
	playerState *state.PlayerState
	statePath   string
	prettyJSON  bool
	rl          *readline.Instance
}

func New(client *httpclient.Client, commands map[string]command.Command, playerState *state.PlayerState, statePath string, prettyJSON bool) (*Session, error) {
	rl, err := readline.New("testroyale> ")
	if err != nil {
		return nil, fmt.Errorf("init readline failed: %w", err)
	}
	return &Session{
		client:      client,
		commands:    commands,
		playerState: playerState,
		statePath:   statePath,
		prettyJSON:  prettyJSON,
		rl:          rl,
	}, nil
}

func (s *Session) Run(ctx context.Context) {
	defer func() { _ = s.rl.Close() }()
	for {
		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				s.printLine("bye")
			} else {
				s.printLine("read input failed: %v", err)
			}
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if s.handleSystemCommand(line) {
			continue
		}

		if err := s.handleCommand(ctx, line); err != nil {
			s.printLine("error: %v", err)
		}
	}
}

func (s *Session) handleSystemCommand(line string) bool {
	switch line {
	case "exit", "quit":
		s.printLine("bye")
		_ = s.rl.Close()
		os.Exit(0)
	case "help":
		s.printHelp()
		return true
	}
	if strings.HasPrefix(line, "set ") {
		s.handleSet(strings.TrimSpace(strings.TrimPrefix(line, "set ")))
		return true
	}
	if strings.HasPrefix(line, "show ") {
		s.handleShow(strings.TrimSpace(strings.TrimPrefix(line, "show ")))
		return true
	}
	return false
}

func (s *Session) handleSet(args string) {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		s.printLine("usage: set base|timeout|player")
		return
	}
	switch parts[0] {
	case "base":
		if len(parts) < 2 {
			s.printLine("usage: set base http://127.0.0.1:8080")
			return
		}
		s.client.SetBaseURL(parts[1])
		s.printLine("base set to %s", parts[1])
	case "timeout":
		if len(parts) < 2 {
			s.printLine("usage: set timeout 10s")
			return
		}
		dur, err := time.ParseDuration(parts[1])
		if err != nil {
			s.printLine("invalid duration: %v", err)
			return
		}
		s.client.SetTimeout(dur)
		s.printLine("timeout set to %s", dur)
	case "player":
		if len(parts) < 2 {
			s.printLine("usage: set player <player_id> [display name]")
			return
		}
		s.playerState.PlayerID = parts[1]
		if len(parts) > 2 {
			s.playerState.Name = strings.Join(parts[2:], " ")
		}
		if err := state.Save(s.statePath, *s.playerState); err != nil {
			s.printLine("save player state failed: %v", err)
			return
		}
		s.printLine("playing as %s", s.playerState.PlayerID)
	default:
		s.printLine("unknown set command")
	}
}

func (s *Session) handleShow(args string) {
	switch args {
	case "player":
		if s.playerState.PlayerID == "" {
			s.printLine("player: <not set>")
			return
		}
		s.printLine("player: %s (%s)", s.playerState.PlayerID, s.playerState.Name)
		if s.playerState.RoomCode != "" {
			s.printLine("room: %s", s.playerState.RoomCode)
		}
		if s.playerState.GameID != "" {
			s.printLine("game: %s", s.playerState.GameID)
		}
	case "config":
		s.printLine("playerStatePath: %s", s.statePath)
	default:
		s.printLine("usage: show player|config")
	}
}

func (s *Session) handleCommand(ctx context.Context, line string) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command failed: %w", err)
	}
	if len(tokens) < 2 {
		return fmt.Errorf("invalid command, use: <service> <action> key=value ...")
	}
	service := tokens[0]
	action := tokens[1]
	key := fmt.Sprintf("%s %s", service, action)
	cmd, ok := s.commands[key]
	if !ok {
		return fmt.Errorf("unknown command: %s %s", service, action)
	}
	params := command.Params{}
	for _, token := range tokens[2:] {
		parts := strings.SplitN(token, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid param: %s", token)
		}
		params.Set(parts[0], parts[1])
	}

	s.fillFromState(&cmd, params)
	if err := s.promptMissing(&cmd, params); err != nil {
		return err
	}
	req, err := command.BuildRequest(cmd, params)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(ctx, req.Method, req.Path, req.Headers, req.Body)
	if err != nil {
		return err
	}
	s.renderResponse(resp)
	s.updateStateFromResponse(cmd, resp.Body)
	return nil
}

// fillFromState supplies player_id, room code and game id from the saved
// player state when the user omitted them.
func (s *Session) fillFromState(cmd *command.Command, params command.Params) {
	for _, field := range cmd.Fields {
		if params.Get(field.Name) != "" {
			continue
		}
		switch field.Name {
		case "player_id":
			if s.playerState.PlayerID != "" {
				params.Set("player_id", s.playerState.PlayerID)
			}
		case "name":
			if s.playerState.Name != "" {
				params.Set("name", s.playerState.Name)
			}
		case "code":
			if s.playerState.RoomCode != "" {
				params.Set("code", s.playerState.RoomCode)
			}
		case "id":
			if s.playerState.GameID != "" {
				params.Set("id", s.playerState.GameID)
			}
		}
	}
}

func (s *Session) promptMissing(cmd *command.Command, params command.Params) error {
	for _, field := range cmd.Fields {
		if !field.Required {
			continue
		}
		if params.Get(field.Name) != "" {
			continue
		}
		value, err := s.promptValue(field.Prompt)
		if err != nil {
			return err
		}
		params.Set(field.Name, value)
	}
	return nil
}

func (s *Session) promptValue(prompt string) (string, error) {
	s.rl.SetPrompt(prompt + ": ")
	defer s.rl.SetPrompt("testroyale> ")
	line, err := s.rl.Readline()
	if err != nil {
		return "", fmt.Errorf("read input failed: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (s *Session) renderResponse(resp httpclient.ResponseInfo) {
	s.printLine("HTTP %d (%s)", resp.StatusCode, resp.Duration)
	if len(resp.Body) == 0 {
		return
	}
	if s.prettyJSON {
		var raw interface{}
		if err := json.Unmarshal(resp.Body, &raw); err == nil {
			formatted, _ := json.MarshalIndent(raw, "", "  ")
			s.printLine("%s", string(formatted))
			return
		}
	}
	s.printLine("%s", string(resp.Body))
}

// updateStateFromResponse remembers the room code and game id returned by
// room and game commands so the next command can omit them.
func (s *Session) updateStateFromResponse(cmd command.Command, body []byte) {
	type roomData struct {
		Code         string `json:"code"`
		ActiveGameID string `json:"activeGameId"`
	}
	type gameData struct {
		ID string `json:"id"`
	}
	type respEnvelope struct {
		Code int             `json:"code"`
		Data json.RawMessage `json:"data"`
	}
	var resp respEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return
	}
	if resp.Code != int(pkgerrors.Success) {
		return
	}

	changed := false
	switch cmd.Service {
	case "room":
		switch cmd.Action {
		case "create", "join", "ready", "get":
			var room roomData
			if err := json.Unmarshal(resp.Data, &room); err == nil && room.Code != "" {
				if s.playerState.RoomCode != room.Code {
					s.playerState.RoomCode = room.Code
					changed = true
				}
				if room.ActiveGameID != "" && s.playerState.GameID != room.ActiveGameID {
					s.playerState.GameID = room.ActiveGameID
					changed = true
				}
			}
		case "start":
			var game gameData
			if err := json.Unmarshal(resp.Data, &game); err == nil && game.ID != "" {
				s.playerState.GameID = game.ID
				changed = true
			}
		case "leave":
			if s.playerState.RoomCode != "" || s.playerState.GameID != "" {
				s.playerState.RoomCode = ""
				s.playerState.GameID = ""
				changed = true
			}
		}
	case "game":
		if cmd.Action == "end" && s.playerState.GameID != "" {
			s.playerState.GameID = ""
			changed = true
		}
	}
	if changed {
		_ = state.Save(s.statePath, *s.playerState)
	}
}

func (s *Session) printHelp() {
	s.printLine("usage: <service> <action> key=value ...")
	s.printLine("system: help | exit | set base|timeout|player | show player|config")
	s.printLine("examples:")
	s.printLine("  set player alice Alice")
	s.printLine("  room create")
	s.printLine("  room join code=K7M2PQ")
	s.printLine("  room ready ready=true")
	s.printLine("  room start")
	s.printLine("  game score test_file=./CalculatorTests.cs")
	s.printLine("  leaderboard top limit=10")
}

func (s *Session) printLine(format string, args ...interface{}) {
	fmt.Fprintf(s.rl.Stdout(), format+"\n", args...)
}
