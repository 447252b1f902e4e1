// Package config loads deployment configuration from environment variables,
// with embedded per-model presets for the matching parameters.
package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var modelsYAML []byte

type Config struct {
	Embedding  EmbeddingConfig
	Matcher    MatcherConfig
	Correlator CorrelatorConfig
	Database   DatabaseConfig
	Web        WebConfig
	Models     ModelsConfig
}

type EmbeddingConfig struct {
	URL   string // embedding model server, defaults to http://localhost:8000
	Model string // face model name, selects a preset from models.yaml
	Dim   int    // embedding dimension, fixed for the whole gallery
}

type MatcherConfig struct {
	Threshold float64 // minimum cosine similarity to be considered a match
	Margin    float64 // minimum best-to-second gap for an unambiguous match
}

type CorrelatorConfig struct {
	Cooldown      time.Duration // minimum time between two admitted events for the same key
	SweepInterval time.Duration // how often expired cooldown entries are evicted
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL; empty runs without persistence
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
	EnableHNSW   bool   // Build the ANN index over the gallery at startup
}

type WebConfig struct {
	Host string
	Port int
}

// ModelsConfig holds the embedded per-model matching presets.
type ModelsConfig struct {
	Models map[string]ModelPreset `yaml:"models"`
}

// ModelPreset carries the defaults for one face model. Explicit environment
// variables always win over the preset.
type ModelPreset struct {
	Dim       int     `yaml:"dim"`
	Threshold float64 `yaml:"threshold"`
	Margin    float64 `yaml:"margin"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

// envDuration reads an environment variable and parses it as a Go duration
// string (e.g. "10s", "2m").
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean flag.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

// envString reads an environment variable with a default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var models ModelsConfig
	if err := yaml.Unmarshal(modelsYAML, &models); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded models.yaml: " + err.Error())
	}

	model := envString("FACE_RECOGNITION_AI_MODEL", "arcface")
	preset, ok := models.Models[model]
	if !ok {
		preset = ModelPreset{Dim: 512, Threshold: 0.60, Margin: 0.05}
	}

	return &Config{
		Embedding: EmbeddingConfig{
			URL:   os.Getenv("EMBEDDING_URL"),
			Model: model,
			Dim:   envInt("EMBEDDING_DIM", preset.Dim),
		},
		Matcher: MatcherConfig{
			Threshold: envFloat("MATCH_THRESHOLD", preset.Threshold),
			Margin:    envFloat("MATCH_MARGIN", preset.Margin),
		},
		Correlator: CorrelatorConfig{
			Cooldown:      envDuration("EVENT_COOLDOWN", 30*time.Second),
			SweepInterval: envDuration("COOLDOWN_SWEEP_INTERVAL", time.Minute),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
			EnableHNSW:   envBool("GALLERY_HNSW", false),
		},
		Web: WebConfig{
			Host: envString("WEB_HOST", "0.0.0.0"),
			Port: envInt("WEB_PORT", 8080),
		},
		Models: models,
	}
}

// Preset returns the matching preset for a model name. The second return
// value reports whether the model is known.
func (c *Config) Preset(model string) (ModelPreset, bool) {
	p, ok := c.Models.Models[model]
	return p, ok
}
