// Package config loads the robot core's settings from an optional YAML file
// and ROBOCORE_* environment variables, and hands out per-tick snapshots.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/sfunderbots/robocore/gamestate"
	"github.com/sfunderbots/robocore/motion"
	"github.com/spf13/viper"
)

const envPrefix = "ROBOCORE"

type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Rules      RulesConfig      `mapstructure:"rules" yaml:"rules"`
	Perception PerceptionConfig `mapstructure:"perception" yaml:"perception"`
	Tracker    TrackerConfig    `mapstructure:"tracker" yaml:"tracker"`
	Node       NodeConfig       `mapstructure:"node" yaml:"node"`
	IPC        IPCConfig        `mapstructure:"ipc" yaml:"ipc"`
}

type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// RulesConfig mirrors the league rule parameters the core depends on.
type RulesConfig struct {
	MaxRobotID                     int     `mapstructure:"max_robot_id" yaml:"max_robot_id"`
	BallInPlayAfterRestartMoveDist float64 `mapstructure:"ball_in_play_after_restart_move_dist" yaml:"ball_in_play_after_restart_move_dist"`
}

type PerceptionConfig struct {
	TeamName      string `mapstructure:"team_name" yaml:"team_name"`
	FriendlyColor string `mapstructure:"friendly_color" yaml:"friendly_color"`
	DefendingSide string `mapstructure:"defending_side" yaml:"defending_side"`
}

func (p PerceptionConfig) Policy() gamestate.TeamPolicy {
	return gamestate.TeamPolicy{
		TeamName: p.TeamName,
		Color:    gamestate.ColorPolicy(p.FriendlyColor),
		Side:     gamestate.SidePolicy(p.DefendingSide),
	}
}

type TrackerConfig struct {
	ProportionalGain float64       `mapstructure:"proportional_gain" yaml:"proportional_gain"`
	MaxSpeed         float64       `mapstructure:"max_speed" yaml:"max_speed"`
	ArrivalTolerance float64       `mapstructure:"arrival_tolerance" yaml:"arrival_tolerance"`
	ControlPeriod    time.Duration `mapstructure:"control_period" yaml:"control_period"`
}

func (t TrackerConfig) Controller() motion.TrackerConfig {
	return motion.TrackerConfig{
		ProportionalGain: t.ProportionalGain,
		MaxSpeed:         t.MaxSpeed,
		ArrivalTolerance: t.ArrivalTolerance,
	}
}

// NodeConfig sizes the per-subscriber buffers of each topic.
type NodeConfig struct {
	RefereeCapacity    int `mapstructure:"referee_capacity" yaml:"referee_capacity"`
	DetectionCapacity  int `mapstructure:"detection_capacity" yaml:"detection_capacity"`
	WorldCapacity      int `mapstructure:"world_capacity" yaml:"world_capacity"`
	TrajectoryCapacity int `mapstructure:"trajectory_capacity" yaml:"trajectory_capacity"`
	ControlCapacity    int `mapstructure:"control_capacity" yaml:"control_capacity"`
}

type IPCConfig struct {
	SocketPath      string `mapstructure:"socket_path" yaml:"socket_path"`
	MaxMessageBytes int    `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
}

// SetDefaults registers every key so env overrides work without a file.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "robocore")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Rules --
	v.SetDefault("rules.max_robot_id", 15)
	v.SetDefault("rules.ball_in_play_after_restart_move_dist", 0.05)

	// -- Perception --
	v.SetDefault("perception.team_name", "")
	v.SetDefault("perception.friendly_color", string(gamestate.ColorBlue))
	v.SetDefault("perception.defending_side", string(gamestate.SideNegative))

	// -- Tracker --
	v.SetDefault("tracker.proportional_gain", 2.5)
	v.SetDefault("tracker.max_speed", 3.0)
	v.SetDefault("tracker.arrival_tolerance", 0.1)
	v.SetDefault("tracker.control_period", "2ms")

	// -- Node --
	v.SetDefault("node.referee_capacity", 32)
	v.SetDefault("node.detection_capacity", 64)
	v.SetDefault("node.world_capacity", 8)
	v.SetDefault("node.trajectory_capacity", 8)
	v.SetDefault("node.control_capacity", 64)

	// -- IPC --
	v.SetDefault("ipc.socket_path", "/tmp/robocore.sock")
	v.SetDefault("ipc.max_message_bytes", 1<<20)
}

// Default is the configuration with nothing but defaults applied.
func Default() Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		panic(fmt.Sprintf("config: defaults are invalid: %v", err))
	}
	return *cfg
}

// Load reads path (or ./robocore.yaml when path is empty) and applies env
// overrides. A missing default file is fine; a missing explicit file is not.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("expand config path: %w", err)
		}
		v.SetConfigFile(expanded)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("robocore")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return NewConfigFromViper(v)
}

func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logger.Format) {
	case "console", "text", "json":
	default:
		return fmt.Errorf("logger.format must be console, text or json, got %q", c.Logger.Format)
	}
	if c.Rules.MaxRobotID < 0 {
		return fmt.Errorf("rules.max_robot_id must not be negative")
	}
	if c.Rules.BallInPlayAfterRestartMoveDist <= 0 {
		return fmt.Errorf("rules.ball_in_play_after_restart_move_dist must be positive")
	}

	p := c.Perception.Policy()
	if !p.Color.Valid() {
		return fmt.Errorf("perception.friendly_color must be autoref, blue or yellow, got %q", p.Color)
	}
	if !p.Side.Valid() {
		return fmt.Errorf("perception.defending_side must be autoref, positive or negative, got %q", p.Side)
	}
	if p.Color == gamestate.ColorAutoref && p.TeamName == "" {
		return fmt.Errorf("perception.team_name is required when friendly_color is autoref")
	}

	if c.Tracker.ProportionalGain <= 0 || c.Tracker.MaxSpeed <= 0 || c.Tracker.ArrivalTolerance <= 0 {
		return fmt.Errorf("tracker gain, max_speed and arrival_tolerance must be positive")
	}
	if c.Tracker.ControlPeriod <= 0 {
		return fmt.Errorf("tracker.control_period must be positive")
	}

	for name, n := range map[string]int{
		"referee_capacity":    c.Node.RefereeCapacity,
		"detection_capacity":  c.Node.DetectionCapacity,
		"world_capacity":      c.Node.WorldCapacity,
		"trajectory_capacity": c.Node.TrajectoryCapacity,
		"control_capacity":    c.Node.ControlCapacity,
	} {
		if n <= 0 {
			return fmt.Errorf("node.%s must be a positive integer", name)
		}
	}
	if c.IPC.MaxMessageBytes <= 0 {
		return fmt.Errorf("ipc.max_message_bytes must be a positive integer")
	}
	return nil
}
