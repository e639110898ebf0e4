package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/banxian-ai/server/internal/agent/speech"
	errx "github.com/banxian-ai/server/internal/core/error"
	logx "github.com/banxian-ai/server/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// wsEvent is the single frame shape pushed to WebSocket clients. A turn
// yields one text event and later one audio event keyed by the same id.
type wsEvent struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// wsConn serializes concurrent writers on one WebSocket connection; the
// audio notifier goroutines and the turn loop share it.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, errx.New(nil, http.StatusUnauthorized, "missing token"))
		return
	}
	clientID, err := s.auth.Verify(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	session := sessionKey(clientID, r.URL.Query().Get("tag_id"))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logx.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	logx.Info().Str("sessionKey", session).Msg("websocket session opened")
	c := &wsConn{conn: conn}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logx.Warn().Err(err).Str("sessionKey", session).Msg("websocket read failed")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		query := strings.TrimSpace(string(payload))
		if query == "" {
			continue
		}

		result, err := s.agent.HandleTurn(ctx, session, query)
		if err != nil {
			logx.Error().Err(err).Str("sessionKey", session).Msg("turn failed")
			if werr := c.writeJSON(wsEvent{Error: "处理失败，请稍后再试"}); werr != nil {
				return
			}
			continue
		}

		if err := c.writeJSON(wsEvent{ID: result.ArtifactID, Message: result.Answer}); err != nil {
			logx.Warn().Err(err).Str("sessionKey", session).Msg("websocket write failed")
			return
		}

		go s.notifyAudio(ctx, c, result.ArtifactID)
	}
}

// notifyAudio polls the object store until the audio artifact appears, then
// pushes its URL. After the attempt budget it pushes a terminal
// synthesis-unavailable event instead; the text answer already stands.
func (s *Server) notifyAudio(ctx context.Context, c *wsConn, artifactID string) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < s.pollMax; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		ok, err := s.store.Exists(ctx, speech.ArtifactKey(artifactID))
		if err != nil {
			logx.Warn().Err(err).Str("artifactID", artifactID).Msg("artifact existence check failed")
			continue
		}
		if !ok {
			continue
		}

		if err := c.writeJSON(wsEvent{ID: artifactID, URL: s.audioURL(artifactID)}); err != nil {
			logx.Warn().Err(err).Str("artifactID", artifactID).Msg("audio notification write failed")
		}
		return
	}

	logx.Warn().Str("artifactID", artifactID).Msg("audio artifact never appeared, giving up")
	if err := c.writeJSON(wsEvent{ID: artifactID, Error: "语音合成暂不可用"}); err != nil {
		logx.Warn().Err(err).Str("artifactID", artifactID).Msg("audio failure write failed")
	}
}
