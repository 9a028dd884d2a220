package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDSNAndAvatarURLs(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("AVATAR_MODEL_URLS", "")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("DB_DSN", "postgres://localhost/avatarhost")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("AVATAR_MODEL_URLS", "https://cdn.example.com/guide.model.json")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.InDelta(t, 4.0, cfg.CameraDistance, 1e-9)
}

func TestLoadParsesCandidateListsInOrder(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/avatarhost")
	t.Setenv("AVATAR_MODEL_URLS", " https://a.example.com/m.json , https://b.example.com/m.json ")
	t.Setenv("TALKING_CLIP_URLS", "https://a.example.com/talk.json")
	t.Setenv("SHOW_PLATFORM", "true")
	t.Setenv("CAMERA_DISTANCE", "2.5")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"https://a.example.com/m.json", "https://b.example.com/m.json"}, cfg.AvatarModelURLs)
	require.Equal(t, []string{"https://a.example.com/talk.json"}, cfg.TalkingClipURLs)
	require.True(t, cfg.ShowPlatform)
	require.InDelta(t, 2.5, cfg.CameraDistance, 1e-9)
}

func TestLoadRejectsBadFloat(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/avatarhost")
	t.Setenv("AVATAR_MODEL_URLS", "https://a.example.com/m.json")
	t.Setenv("CAMERA_HEIGHT", "tall")

	_, err := Load()
	require.Error(t, err)
}
