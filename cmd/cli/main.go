package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"testroyale/internal/cli/command"
	"testroyale/internal/cli/config"
	httpclient "testroyale/internal/cli/http"
	"testroyale/internal/cli/repl"
	"testroyale/internal/cli/state"
)

const defaultConfigPath = "configs/cli.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	baseURL := flag.String("base", "", "Override base URL")
	timeout := flag.Duration("timeout", 0, "Override HTTP timeout (e.g. 10s)")
	playerID := flag.String("player", "", "Override player id")
	name := flag.String("name", "", "Override display name")
	statePath := flag.String("state", "", "Override player state path")
	pretty := flag.Bool("pretty", false, "Pretty print JSON response")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		return
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *statePath != "" {
		cfg.PlayerStatePath = *statePath
	}
	if *pretty {
		trueValue := true
		cfg.PrettyJSON = &trueValue
	}

	playerState, err := state.Load(cfg.PlayerStatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load player state failed: %v\n", err)
		return
	}
	if *playerID != "" {
		playerState.PlayerID = *playerID
	}
	if *name != "" {
		playerState.Name = *name
	}

	client := httpclient.New(cfg.BaseURL, cfg.Timeout)

	commands := command.Registry()
	session, err := repl.New(client, commands, &playerState, cfg.PlayerStatePath, cfg.PrettyJSON != nil && *cfg.PrettyJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "start session failed: %v\n", err)
		return
	}
	session.Run(context.Background())
}
