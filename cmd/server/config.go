package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"testroyale/internal/common/cache"
	"testroyale/internal/common/mq"
	"testroyale/internal/engine/toolchain"
	"testroyale/internal/engine/workspace"
	"testroyale/internal/game/model"
	"testroyale/pkg/utils/logger"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	defaultMaxConcurrent  = 4
	defaultReleaseDelay   = 30 * time.Second
	defaultSweepInterval  = 5 * time.Minute
	defaultSweepOlderThan = 30 * time.Minute
	defaultSessionTTL     = 24 * time.Hour
	defaultEventsTopic    = "game.events"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// PipelineConfig holds submission pipeline settings.
type PipelineConfig struct {
	MaxConcurrent  int           `yaml:"maxConcurrent"`  // simultaneous pipeline runs
	MaxWait        time.Duration `yaml:"maxWait"`        // 0 waits indefinitely for a slot
	ReleaseDelay   time.Duration `yaml:"releaseDelay"`   // grace before deleting a finished workspace
	SweepInterval  time.Duration `yaml:"sweepInterval"`  // orphan sweeper period
	SweepOlderThan time.Duration `yaml:"sweepOlderThan"` // age at which an orphan is collected
}

// GameConfig holds session persistence settings.
type GameConfig struct {
	SessionTTL time.Duration `yaml:"sessionTTL"`
}

// EventsConfig holds game event publishing settings. Publishing is disabled
// when no brokers are configured.
type EventsConfig struct {
	Topic string         `yaml:"topic"`
	Kafka mq.KafkaConfig `yaml:"kafka"`
}

// ChallengesConfig holds the challenge catalog. File points at a YAML list
// of challenges; Seed entries are merged on top.
type ChallengesConfig struct {
	File string            `yaml:"file"`
	Seed []model.Challenge `yaml:"seed"`
}

// AppConfig holds the full server configuration.
type AppConfig struct {
	Server     ServerConfig      `yaml:"server"`
	Logger     logger.Config     `yaml:"logger"`
	Redis      cache.RedisConfig `yaml:"redis"`
	Workspace  workspace.Config  `yaml:"workspace"`
	Toolchain  toolchain.Config  `yaml:"toolchain"`
	Pipeline   PipelineConfig    `yaml:"pipeline"`
	Game       GameConfig        `yaml:"game"`
	Events     EventsConfig      `yaml:"events"`
	Challenges ChallengesConfig  `yaml:"challenges"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	if cfg.Workspace.Root == "" {
		return nil, fmt.Errorf("workspace root is required")
	}
	if cfg.Workspace.TemplateDir == "" {
		return nil, fmt.Errorf("workspace template dir is required")
	}
	cfg.Workspace.ApplyDefaults()
	cfg.Toolchain.ApplyDefaults()

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Pipeline.MaxConcurrent <= 0 {
		cfg.Pipeline.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.Pipeline.ReleaseDelay == 0 {
		cfg.Pipeline.ReleaseDelay = defaultReleaseDelay
	}
	if cfg.Pipeline.SweepInterval == 0 {
		cfg.Pipeline.SweepInterval = defaultSweepInterval
	}
	if cfg.Pipeline.SweepOlderThan == 0 {
		cfg.Pipeline.SweepOlderThan = defaultSweepOlderThan
	}
	if cfg.Game.SessionTTL == 0 {
		cfg.Game.SessionTTL = defaultSessionTTL
	}
	if cfg.Events.Topic == "" {
		cfg.Events.Topic = defaultEventsTopic
	}
	return &cfg, nil
}

// loadChallenges merges the challenge file with inline seed entries.
func loadChallenges(cfg ChallengesConfig) ([]model.Challenge, error) {
	var challenges []model.Challenge
	if cfg.File != "" {
		var fromFile struct {
			Challenges []model.Challenge `yaml:"challenges"`
		}
		if err := loadYAML(cfg.File, &fromFile); err != nil {
			return nil, err
		}
		challenges = fromFile.Challenges
	}
	challenges = append(challenges, cfg.Seed...)
	if len(challenges) == 0 {
		return nil, fmt.Errorf("no challenges configured")
	}
	return challenges, nil
}
