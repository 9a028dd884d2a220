package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"avatarhost/internal/assets"
	"avatarhost/internal/bridge"
	"avatarhost/internal/scene"
	"avatarhost/internal/session"
	"avatarhost/internal/speech"
	"avatarhost/internal/supervisor"
)

// Server wires HTTP routing for avatarhost.
type Server struct {
	logger      *slog.Logger
	sessions    *session.Service
	speaker     *speech.Speaker
	sources     scene.Sources
	assetClient *http.Client
	upgrader    websocket.Upgrader

	// supervision knobs, overridable for tests
	maxAttempts  int
	readyTimeout time.Duration
}

// ServerOption tweaks server construction.
type ServerOption func(*Server)

// WithSupervision overrides the retry bound and ready fallback window.
func WithSupervision(maxAttempts int, readyTimeout time.Duration) ServerOption {
	return func(s *Server) {
		s.maxAttempts = maxAttempts
		s.readyTimeout = readyTimeout
	}
}

// WithAssetClient overrides the HTTP client used for asset fetches.
func WithAssetClient(client *http.Client) ServerOption {
	return func(s *Server) { s.assetClient = client }
}

// NewServer constructs a chi router implementing http.Handler.
func NewServer(logger *slog.Logger, sessions *session.Service, speaker *speech.Speaker, sources scene.Sources, opts ...ServerOption) http.Handler {
	srv := &Server{
		logger:   logger,
		sessions: sessions,
		speaker:  speaker,
		sources:  sources,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		maxAttempts:  supervisor.DefaultMaxAttempts,
		readyTimeout: supervisor.DefaultReadyTimeout,
	}
	for _, opt := range opts {
		opt(srv)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", srv.handleHealth)
	r.Post("/v1/sessions", srv.handleCreateSession)
	r.Get("/v1/sessions/{id}/report", srv.handleReport)
	r.Get("/v1/bridge", srv.handleBridge)
	r.Post("/v1/speak", srv.handleSpeak)

	return r
}

type createSessionRequest struct {
	ShowPlatform   bool    `json:"showPlatform"`
	CameraDistance float64 `json:"cameraDistance"`
	CameraHeight   float64 `json:"cameraHeight"`
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
	BridgeURL string `json:"bridgeUrl"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.clientError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CameraDistance == 0 {
		req.CameraDistance = 4.0
	}
	if req.CameraHeight == 0 {
		req.CameraHeight = 1.4
	}

	sess, err := s.sessions.Create(r.Context(), session.Config{
		ShowPlatform:   req.ShowPlatform,
		CameraDistance: req.CameraDistance,
		CameraHeight:   req.CameraHeight,
	})
	if err != nil {
		s.serverError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, createSessionResponse{
		SessionID: sess.ID.String(),
		BridgeURL: "/v1/bridge?session=" + sess.ID.String(),
	})
}

// handleBridge upgrades the caller to a websocket peer of the message
// protocol: ready/error/log flow out to the peer, audioState flows in. The
// render runtime is mounted in-process under supervision; the peer only
// ever sees bridge messages, never raw failures.
func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("session"))
	if err != nil {
		s.clientError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	sess, err := s.sessions.Get(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		s.clientError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sock := bridge.NewSocket(conn)
	defer sock.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	manifest := s.sources.Manifest(sess.Config.ShowPlatform)
	mount := func(ctx context.Context) (bridge.Conn, error) {
		hostEnd, runtimeEnd := bridge.Pipe()
		rt := scene.NewRuntime(s.logger, s.assetClient, runtimeEnd,
			scene.WithObserver(func(out assets.Outcome) {
				s.sessions.RecordOutcome(ctx, id, out)
			}),
		)
		go func() {
			defer runtimeEnd.Close()
			if err := rt.Run(ctx, manifest); err != nil {
				s.logger.Warn("render runtime exited",
					slog.String("session_id", id.String()),
					slog.String("error", err.Error()),
				)
			}
		}()
		return hostEnd, nil
	}

	host := supervisor.New(s.logger, mount,
		supervisor.WithMaxAttempts(s.maxAttempts),
		supervisor.WithReadyTimeout(s.readyTimeout),
		supervisor.WithForward(func(m bridge.Message) { sock.Send(m) }),
	)

	supDone := make(chan struct{})
	go func() {
		defer close(supDone)
		if err := host.Run(ctx); err != nil {
			s.logger.Error("supervisor failed", slog.String("error", err.Error()))
		}
	}()

	for {
		m, err := sock.Receive()
		if err != nil {
			break
		}
		if m.Type == bridge.TypeAudioState {
			if err := host.SetAudioPlaying(m.IsPlaying, m.AudioData); err != nil {
				s.logger.Warn("dropping audio state", slog.String("error", err.Error()))
			}
		}
	}
	cancel()
	<-supDone
}

type speakRequest struct {
	Text string `json:"text"`
}

type chunkTiming struct {
	Text      string `json:"text"`
	Words     int    `json:"words"`
	DisplayMs int64  `json:"displayMs"`
	GapMs     int64  `json:"gapMs"`
	HoldToEnd bool   `json:"holdToEnd"`
}

type speakResponse struct {
	Text       string        `json:"text"`
	AudioURL   string        `json:"audioUrl,omitempty"`
	DurationMs int64         `json:"durationMs"`
	Estimated  bool          `json:"estimated"`
	Chunks     []chunkTiming `json:"chunks"`
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.clientError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.clientError(w, http.StatusBadRequest, "text is required")
		return
	}

	u, err := s.speaker.Speak(r.Context(), req.Text)
	if err != nil {
		s.serverError(w, err)
		return
	}

	resp := speakResponse{
		Text:       u.Text,
		DurationMs: u.Duration.Milliseconds(),
		Estimated:  u.Estimated,
		Chunks:     make([]chunkTiming, 0, len(u.Chunks)),
	}
	if len(u.Audio) > 0 {
		resp.AudioURL = "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(u.Audio)
	}
	for _, c := range u.Chunks {
		resp.Chunks = append(resp.Chunks, chunkTiming{
			Text:      c.Text,
			Words:     c.Words,
			DisplayMs: c.Display.Milliseconds(),
			GapMs:     c.Gap.Milliseconds(),
			HoldToEnd: c.HoldToEnd,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type loadReportEntry struct {
	AssetName   string `json:"assetName"`
	Succeeded   bool   `json:"succeeded"`
	SourceIndex int    `json:"sourceIndex"`
	Error       string `json:"error,omitempty"`
}

type reportResponse struct {
	SessionID      string            `json:"sessionId"`
	ShowPlatform   bool              `json:"showPlatform"`
	CameraDistance float64           `json:"cameraDistance"`
	CameraHeight   float64           `json:"cameraHeight"`
	CreatedAt      time.Time         `json:"createdAt"`
	Loads          []loadReportEntry `json:"loads"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.clientError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	report, err := s.sessions.Report(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		s.clientError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}

	resp := reportResponse{
		SessionID:      report.Session.ID.String(),
		ShowPlatform:   report.Session.Config.ShowPlatform,
		CameraDistance: report.Session.Config.CameraDistance,
		CameraHeight:   report.Session.Config.CameraHeight,
		CreatedAt:      report.Session.CreatedAt,
		Loads:          make([]loadReportEntry, 0, len(report.Loads)),
	}
	for _, l := range report.Loads {
		resp.Loads = append(resp.Loads, loadReportEntry{
			AssetName:   l.AssetName,
			Succeeded:   l.Succeeded,
			SourceIndex: l.SourceIndex,
			Error:       l.Error,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write response", slog.String("error", err.Error()))
	}
}

func (s *Server) clientError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", slog.String("error", err.Error()))
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
