package command

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Registry returns all CLI commands keyed by "service action".
func Registry() map[string]Command {
	commands := []Command{
		{
			Service:      "room",
			Action:       "create",
			Method:       "POST",
			PathTemplate: "/api/v1/rooms",
			Fields: []Field{
				{Name: "player_id", Aliases: []string{"player"}, Prompt: "player_id", Type: FieldString, Required: true},
				{Name: "name", Prompt: "display name", Type: FieldString, Required: false},
			},
		},
		{
			Service:      "room",
			Action:       "get",
			Method:       "GET",
			PathTemplate: "/api/v1/rooms/:code",
			Fields: []Field{
				{Name: "code", Aliases: []string{"room"}, Prompt: "room code", Type: FieldString, Required: true},
			},
		},
		{
			Service:      "room",
			Action:       "join",
			Method:       "POST",
			PathTemplate: "/api/v1/rooms/:code/join",
			Fields: []Field{
				{Name: "code", Aliases: []string{"room"}, Prompt: "room code", Type: FieldString, Required: true},
				{Name: "player_id", Aliases: []string{"player"}, Prompt: "player_id", Type: FieldString, Required: true},
				{Name: "name", Prompt: "display name", Type: FieldString, Required: false},
			},
		},
		{
			Service:      "room",
			Action:       "ready",
			Method:       "POST",
			PathTemplate: "/api/v1/rooms/:code/ready",
			Fields: []Field{
				{Name: "code", Aliases: []string{"room"}, Prompt: "room code", Type: FieldString, Required: true},
				{Name: "player_id", Aliases: []string{"player"}, Prompt: "player_id", Type: FieldString, Required: true},
				{Name: "ready", Prompt: "ready (true/false)", Type: FieldBool, Required: false},
			},
		},
		{
			Service:      "room",
			Action:       "leave",
			Method:       "POST",
			PathTemplate: "/api/v1/rooms/:code/leave",
			Fields: []Field{
				{Name: "code", Aliases: []string{"room"}, Prompt: "room code", Type: FieldString, Required: true},
				{Name: "player_id", Aliases: []string{"player"}, Prompt: "player_id", Type: FieldString, Required: true},
			},
		},
		{
			Service:      "room",
			Action:       "start",
			Method:       "POST",
			PathTemplate: "/api/v1/rooms/:code/start",
			Fields: []Field{
				{Name: "code", Aliases: []string{"room"}, Prompt: "room code", Type: FieldString, Required: true},
				{Name: "player_id", Aliases: []string{"player"}, Prompt: "player_id", Type: FieldString, Required: true},
			},
		},
		{
			Service:      "game",
			Action:       "get",
			Method:       "GET",
			PathTemplate: "/api/v1/games/:id",
			Fields: []Field{
				{Name: "id", Aliases: []string{"game"}, Prompt: "game id", Type: FieldString, Required: true},
			},
		},
		{
			Service:      "game",
			Action:       "submit",
			Method:       "POST",
			PathTemplate: "/api/v1/games/:id/submit",
			Fields: []Field{
				{Name: "id", Aliases: []string{"game"}, Prompt: "game id", Type: FieldString, Required: true},
				{Name: "player_id", Aliases: []string{"player"}, Prompt: "player_id", Type: FieldString, Required: true},
				{Name: "test_code", Prompt: "test code", Type: FieldString, Required: false},
				{Name: "test_file", Prompt: "test file", Type: FieldFile, Required: false},
			},
		},
		{
			Service:      "game",
			Action:       "score",
			Method:       "POST",
			PathTemplate: "/api/v1/games/:id/score",
			Fields: []Field{
				{Name: "id", Aliases: []string{"game"}, Prompt: "game id", Type: FieldString, Required: true},
				{Name: "player_id", Aliases: []string{"player"}, Prompt: "player_id", Type: FieldString, Required: true},
				{Name: "test_code", Prompt: "test code", Type: FieldString, Required: false},
				{Name: "test_file", Prompt: "test file", Type: FieldFile, Required: false},
			},
		},
		{
			Service:      "game",
			Action:       "end",
			Method:       "POST",
			PathTemplate: "/api/v1/games/:id/end",
			Fields: []Field{
				{Name: "id", Aliases: []string{"game"}, Prompt: "game id", Type: FieldString, Required: true},
			},
		},
		{
			Service:      "leaderboard",
			Action:       "top",
			Method:       "GET",
			PathTemplate: "/api/v1/leaderboard",
			Fields: []Field{
				{Name: "limit", Prompt: "limit", Type: FieldInt, Required: false},
			},
		},
	}

	registry := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		registry[fmt.Sprintf("%s %s", cmd.Service, cmd.Action)] = cmd
	}
	return registry
}

func BuildRequest(cmd Command, params Params) (RequestSpec, error) {
	params.Canonicalize(cmd.Fields)
	path, err := buildPath(cmd.PathTemplate, params)
	if err != nil {
		return RequestSpec{}, err
	}

	if cmd.Method == "GET" {
		query := url.Values{}
		if limit := params.Get("limit"); limit != "" {
			if _, err := ParseInt(limit); err != nil {
				return RequestSpec{}, fmt.Errorf("invalid limit: %w", err)
			}
			query.Set("limit", limit)
		}
		if len(query) > 0 {
			path = path + "?" + query.Encode()
		}
		return RequestSpec{Method: cmd.Method, Path: path}, nil
	}

	payload, err := buildPayload(cmd, params)
	if err != nil {
		return RequestSpec{}, err
	}
	var body []byte
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			return RequestSpec{}, fmt.Errorf("marshal request body failed: %w", err)
		}
	}

	return RequestSpec{
		Method: cmd.Method,
		Path:   path,
		Body:   body,
	}, nil
}

func buildPath(template string, params Params) (string, error) {
	path := template
	for _, key := range []string{"code", "id"} {
		placeholder := ":" + key
		if strings.Contains(path, placeholder) {
			value := params.Get(key)
			if value == "" {
				return "", fmt.Errorf("missing path parameter: %s", key)
			}
			path = strings.ReplaceAll(path, placeholder, url.PathEscape(value))
		}
	}
	return path, nil
}

func buildPayload(cmd Command, params Params) (interface{}, error) {
	switch cmd.Service {
	case "room":
		switch cmd.Action {
		case "create", "join":
			return map[string]string{
				"player_id": params.Get("player_id"),
				"name":      params.Get("name"),
			}, nil
		case "leave", "start":
			return map[string]string{
				"player_id": params.Get("player_id"),
			}, nil
		case "ready":
			ready := true
			if raw := params.Get("ready"); raw != "" {
				parsed, err := ParseBool(raw)
				if err != nil {
					return nil, fmt.Errorf("invalid ready value: %w", err)
				}
				ready = parsed
			}
			return map[string]interface{}{
				"player_id": params.Get("player_id"),
				"ready":     ready,
			}, nil
		}
	case "game":
		switch cmd.Action {
		case "submit", "score":
			return buildTestCodePayload(params)
		case "end":
			return nil, nil
		}
	}
	return nil, nil
}

func buildTestCodePayload(params Params) (interface{}, error) {
	testCode := params.Get("test_code")
	if testCode == "" && params.Get("test_file") != "" {
		data, err := ReadFile(params.Get("test_file"))
		if err != nil {
			return nil, err
		}
		testCode = data
	}
	return map[string]string{
		"player_id": params.Get("player_id"),
		"test_code": testCode,
	}, nil
}
