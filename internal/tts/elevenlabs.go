package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultElevenLabsEndpoint = "https://api.elevenlabs.io/v1/text-to-speech/"
	defaultElevenLabsModel    = "eleven_multilingual_v2"
)

// ElevenLabsOptions configures optional client behavior.
type ElevenLabsOptions struct {
	BaseURL    string
	ModelID    string
	HTTPClient *http.Client
}

// ElevenLabsClient implements Client using ElevenLabs' API.
type ElevenLabsClient struct {
	logger     *slog.Logger
	apiKey     string
	voiceID    string
	modelID    string
	httpClient *http.Client
	endpoint   string
}

// NewElevenLabsClient creates a new ElevenLabs TTS client.
func NewElevenLabsClient(logger *slog.Logger, apiKey, voiceID string, opts *ElevenLabsOptions) *ElevenLabsClient {
	if opts == nil {
		opts = &ElevenLabsOptions{}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	modelID := opts.ModelID
	if modelID == "" {
		modelID = defaultElevenLabsModel
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultElevenLabsEndpoint
	}

	return &ElevenLabsClient{
		logger:     logger,
		apiKey:     apiKey,
		voiceID:    voiceID,
		modelID:    modelID,
		httpClient: httpClient,
		endpoint:   strings.TrimRight(baseURL, "/") + "/" + voiceID,
	}
}

type elevenLabsRequest struct {
	Text          string `json:"text"`
	ModelID       string `json:"model_id"`
	VoiceSettings struct {
		Stability       float64 `json:"stability"`
		SimilarityBoost float64 `json:"similarity_boost"`
	} `json:"voice_settings"`
}

// Synthesize converts narration text into audio bytes. Duration metadata is
// taken from the X-Audio-Duration-Ms response header when the upstream
// proxy provides it; otherwise it stays zero and the caller estimates.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) (Clip, error) {
	reqBody := elevenLabsRequest{
		Text:    text,
		ModelID: c.modelID,
	}
	reqBody.VoiceSettings.Stability = 0.5
	reqBody.VoiceSettings.SimilarityBoost = 0.75

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Clip{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Clip{}, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	c.logger.Debug("calling ElevenLabs API",
		slog.String("endpoint", c.endpoint),
		slog.String("voice_id", c.voiceID),
		slog.Int("text_length", len(text)),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Clip{}, fmt.Errorf("call elevenlabs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 512))
		bodyStr := string(body)
		if readErr != nil {
			bodyStr = fmt.Sprintf("(failed to read body: %v)", readErr)
		}
		return Clip{}, fmt.Errorf("elevenlabs error: status=%d body=%s", resp.StatusCode, bodyStr)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return Clip{}, fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return Clip{}, ErrEmptyAudio
	}

	var durationMs int64
	if v := resp.Header.Get("X-Audio-Duration-Ms"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			durationMs = parsed
		}
	}

	c.logger.Debug("elevenlabs synthesis succeeded",
		slog.Int("audio_bytes", len(audio)),
		slog.Int64("duration_ms", durationMs),
	)

	return Clip{Audio: audio, DurationMs: durationMs}, nil
}
