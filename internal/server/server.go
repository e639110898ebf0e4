// Package server exposes the agent over HTTP and WebSocket. Each client is
// identified by a bearer token; an optional tag further partitions one client
// into independent sessions.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/banxian-ai/server/internal/agent/model"
	errx "github.com/banxian-ai/server/internal/core/error"
	"github.com/banxian-ai/server/internal/storage"
	logx "github.com/banxian-ai/server/pkg/logger"
)

type Config struct {
	Addr       string `envconfig:"SERVER_ADDR" default:":8080"`
	AuthTokens string `envconfig:"AUTH_TOKENS"`
}

// TurnHandler runs one complete user turn.
type TurnHandler interface {
	HandleTurn(ctx context.Context, sessionKey, userText string) (*model.TurnResult, error)
}

// HistoryCleaner resets a session's stored conversation.
type HistoryCleaner interface {
	Clear(ctx context.Context, sessionKey string) error
}

type Server struct {
	agent   TurnHandler
	history HistoryCleaner
	auth    Authenticator
	store   storage.ObjectStore

	assetsURL    string
	pollInterval time.Duration
	pollMax      int

	httpServer *http.Server
}

func New(config Config, speechCfg model.SpeechConfig, ag TurnHandler, history HistoryCleaner, auth Authenticator, store storage.ObjectStore) *Server {
	interval := time.Duration(speechCfg.PollIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	pollMax := speechCfg.PollMaxAttempts
	if pollMax <= 0 {
		pollMax = 60
	}

	s := &Server{
		agent:        ag,
		history:      history,
		auth:         auth,
		store:        store,
		assetsURL:    strings.TrimRight(speechCfg.AssetsURL, "/"),
		pollInterval: interval,
		pollMax:      pollMax,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("DELETE /chat", s.handleClearChat)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              config.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until the context is canceled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type chatRequest struct {
	Query string `json:"query"`
	TagID string `json:"tag_id,omitempty"`
}

type chatResponse struct {
	ID  string `json:"id"`
	Msg string `json:"msg"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	clientID, err := s.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errx.New(err, http.StatusBadRequest, "malformed request body"))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, errx.New(nil, http.StatusBadRequest, "query must not be empty"))
		return
	}

	result, err := s.agent.HandleTurn(r.Context(), sessionKey(clientID, req.TagID), req.Query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{ID: result.ArtifactID, Msg: result.Answer})
}

// handleClearChat resets the caller's session history. The tag follows the
// same partitioning rule as /chat.
func (s *Server) handleClearChat(w http.ResponseWriter, r *http.Request) {
	clientID, err := s.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	session := sessionKey(clientID, r.URL.Query().Get("tag_id"))
	if err := s.history.Clear(r.Context(), session); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authorize resolves the bearer token of an HTTP request.
func (s *Server) authorize(r *http.Request) (string, error) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		return "", errx.New(nil, http.StatusUnauthorized, "missing token")
	}
	return s.auth.Verify(r.Context(), token)
}

// sessionKey partitions one authenticated client into per-tag sessions.
func sessionKey(clientID, tagID string) string {
	if tagID == "" {
		return clientID
	}
	return clientID + "_" + tagID
}

// audioURL is the public URL a stored artifact is served from.
func (s *Server) audioURL(artifactID string) string {
	return s.assetsURL + "/audio/" + artifactID + ".mp3"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *errx.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, appErr.Status, map[string]string{"error": appErr.Message})
		return
	}
	logx.Error().Err(err).Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": errx.SystemErrorMessage})
}
