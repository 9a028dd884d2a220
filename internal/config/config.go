package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds runtime configuration.
type Config struct {
	Port  string
	DBDSN string

	ElevenLabsAPIKey string
	ElevenLabsVoice  string

	// Candidate URL lists, highest priority first.
	AvatarModelURLs []string
	TalkingClipURLs []string
	IdleClipURLs    []string
	PlatformURLs    []string

	ShowPlatform   bool
	CameraDistance float64
	CameraHeight   float64
}

// Load parses environment variables into Config and validates required values.
func Load() (Config, error) {
	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		DBDSN:            os.Getenv("DB_DSN"),
		ElevenLabsAPIKey: os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsVoice:  os.Getenv("ELEVENLABS_VOICE_ID"),
		AvatarModelURLs:  getEnvList("AVATAR_MODEL_URLS"),
		TalkingClipURLs:  getEnvList("TALKING_CLIP_URLS"),
		IdleClipURLs:     getEnvList("IDLE_CLIP_URLS"),
		PlatformURLs:     getEnvList("PLATFORM_PROP_URLS"),
		ShowPlatform:     getEnvBool("SHOW_PLATFORM", false),
	}

	var err error
	if cfg.CameraDistance, err = getEnvFloat("CAMERA_DISTANCE", 4.0); err != nil {
		return Config{}, err
	}
	if cfg.CameraHeight, err = getEnvFloat("CAMERA_HEIGHT", 1.4); err != nil {
		return Config{}, err
	}

	if cfg.DBDSN == "" {
		return Config{}, errors.New("DB_DSN is required")
	}
	if len(cfg.AvatarModelURLs) == 0 {
		return Config{}, errors.New("AVATAR_MODEL_URLS is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvList parses a comma-separated URL list, preserving order.
func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func getEnvBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}
