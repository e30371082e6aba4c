package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PlayerState remembers who the CLI is playing as and where, so commands
// can omit player_id, room code and game id after the first call.
type PlayerState struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	RoomCode string `json:"room_code"`
	GameID   string `json:"game_id"`
}

func Load(path string) (PlayerState, error) {
	var st PlayerState
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, fmt.Errorf("read player state failed: %w", err)
	}
	if len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("parse player state failed: %w", err)
	}
	return st, nil
}

func Save(path string, st PlayerState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create player state dir failed: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal player state failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write player state failed: %w", err)
	}
	return nil
}

func Clear(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove player state failed: %w", err)
	}
	return nil
}
