// Package config loads mudra's runtime configuration from defaults, an
// optional config file and MUDRA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Data      DataConfig      `mapstructure:"data"`
	Server    ServerConfig    `mapstructure:"server"`
	Camera    CameraConfig    `mapstructure:"camera"`
	Detector  DetectorConfig  `mapstructure:"detector"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Render    RenderConfig    `mapstructure:"render"`
	Particles ParticlesConfig `mapstructure:"particles"`
	Nebula    NebulaConfig    `mapstructure:"nebula"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	StaticDir string `mapstructure:"staticDir"`
}

type CameraConfig struct {
	Device int `mapstructure:"device"`
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

type DetectorConfig struct {
	MaxHands      int     `mapstructure:"maxHands"`
	MinConfidence float64 `mapstructure:"minConfidence"`
	MinTracking   float64 `mapstructure:"minTracking"`
}

type PipelineConfig struct {
	IdleFPS         int           `mapstructure:"idleFPS"`
	ActiveFPS       int           `mapstructure:"activeFPS"`
	IdleTimeout     time.Duration `mapstructure:"idleTimeout"`
	MotionThreshold float64       `mapstructure:"motionThreshold"`
}

type RenderConfig struct {
	FPS      int           `mapstructure:"fps"`
	MaxDelta time.Duration `mapstructure:"maxDelta"`
}

type ParticlesConfig struct {
	Count  int     `mapstructure:"count"`
	Radius float64 `mapstructure:"radius"`
	Preset string  `mapstructure:"preset"`
	Seed   uint64  `mapstructure:"seed"`
}

type NebulaConfig struct {
	Count  int     `mapstructure:"count"`
	Radius float64 `mapstructure:"radius"`
}

// EnvPrefix prefixes every environment override, e.g. MUDRA_SERVER_ADDR.
const EnvPrefix = "MUDRA"

// DefaultDataDir is ~/.mudra, or ./.mudra when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mudra"
	}
	return filepath.Join(home, ".mudra")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("data.dir", DefaultDataDir())

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.staticDir", "")

	v.SetDefault("camera.device", 0)
	v.SetDefault("camera.width", 1280)
	v.SetDefault("camera.height", 720)

	v.SetDefault("detector.maxHands", 2)
	v.SetDefault("detector.minConfidence", 0.6)
	v.SetDefault("detector.minTracking", 0.5)

	v.SetDefault("pipeline.idleFPS", 2)
	v.SetDefault("pipeline.activeFPS", 30)
	v.SetDefault("pipeline.idleTimeout", "3s")
	v.SetDefault("pipeline.motionThreshold", 1.0)

	v.SetDefault("render.fps", 60)
	v.SetDefault("render.maxDelta", "50ms")

	v.SetDefault("particles.count", 12000)
	v.SetDefault("particles.radius", 220)
	v.SetDefault("particles.preset", "classic")
	v.SetDefault("particles.seed", 1)

	v.SetDefault("nebula.count", 3200)
	v.SetDefault("nebula.radius", 180)
}

// FlagKeys maps command-line flag names to the config keys they override.
var FlagKeys = map[string]string{
	"log-level":  "log.level",
	"pretty":     "log.pretty",
	"data-dir":   "data.dir",
	"addr":       "server.addr",
	"static-dir": "server.staticDir",
	"camera":     "camera.device",
	"preset":     "particles.preset",
}

// Load resolves the configuration. With an explicit path the file must exist;
// otherwise config.{yaml,json,toml} in the data directory is read if present.
// Flags named in FlagKeys override every other source when set.
func Load(path string, flags ...*pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for _, fs := range flags {
		for name, key := range FlagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(v.GetString("data.dir"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the frame loop cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Render.FPS <= 0:
		return fmt.Errorf("render.fps must be positive, got %d", c.Render.FPS)
	case c.Render.MaxDelta <= 0:
		return fmt.Errorf("render.maxDelta must be positive, got %s", c.Render.MaxDelta)
	case c.Pipeline.ActiveFPS <= 0 || c.Pipeline.IdleFPS <= 0:
		return fmt.Errorf("pipeline fps must be positive, got idle=%d active=%d", c.Pipeline.IdleFPS, c.Pipeline.ActiveFPS)
	case c.Detector.MaxHands < 1 || c.Detector.MaxHands > 2:
		return fmt.Errorf("detector.maxHands must be 1 or 2, got %d", c.Detector.MaxHands)
	case c.Particles.Count < 0 || c.Nebula.Count < 0:
		return errors.New("particle counts must not be negative")
	}
	return nil
}

// DBPath is the SQLite database location inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.Data.Dir, "mudra.db")
}
