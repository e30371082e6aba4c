package model

import (
	"testing"

	appErr "testroyale/pkg/errors"
)

func TestSessionTransition(t *testing.T) {
	tests := []struct {
		name string
		from GameState
		to   GameState
		ok   bool
	}{
		{name: "waiting to playing", from: StateWaiting, to: StatePlaying, ok: true},
		{name: "playing to finished", from: StatePlaying, to: StateFinished, ok: true},
		{name: "waiting to finished skips playing", from: StateWaiting, to: StateFinished, ok: false},
		{name: "playing back to waiting", from: StatePlaying, to: StateWaiting, ok: false},
		{name: "finished is terminal", from: StateFinished, to: StatePlaying, ok: false},
		{name: "no self transition", from: StatePlaying, to: StatePlaying, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &GameSession{State: tt.from}
			err := s.Transition(tt.to)
			if tt.ok {
				if err != nil {
					t.Fatalf("Transition(%s) error = %v", tt.to, err)
				}
				if s.State != tt.to {
					t.Errorf("State = %s, want %s", s.State, tt.to)
				}
				return
			}
			if appErr.GetCode(err) != appErr.InvalidTransition {
				t.Errorf("GetCode() = %v, want InvalidTransition", appErr.GetCode(err))
			}
			if s.State != tt.from {
				t.Errorf("State = %s changed on rejected transition", s.State)
			}
		})
	}
}
