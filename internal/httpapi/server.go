package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/empath/internal/chat"
	"github.com/antoniostano/empath/internal/config"
	"github.com/antoniostano/empath/internal/observability"
	"github.com/antoniostano/empath/internal/session"
)

const maxBodyBytes = 1 << 20

type Server struct {
	cfg      config.Config
	chat     *chat.Processor
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, processor *chat.Processor, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		chat:    processor,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(withRequestLogging)
	r.Use(withCORS(s.cfg.AllowAnyOrigin))

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	r.Post("/chat", s.handleChat)
	r.Get("/chat/ws", s.handleChatWS)
	r.Get("/clear/{session_id}", s.handleClear)
	r.Get("/sessions", s.handleListSessions)
	r.Get("/sessions/{session_id}", s.handleGetSession)

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "🤖 RoboEmpath API is running! POST to /chat",
		"welcome": "Send {'message': 'hi', 'session_id': 'user1'}",
		"endpoints": []string{
			"POST /chat",
			"GET /chat/ws",
			"GET /clear/{session_id}",
			"GET /sessions/{session_id}",
		},
		"errors": map[string]string{
			"400": "message missing or blank; nothing is stored",
			"500": "Chat error: <detail>; the user turn stays in the session",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ready",
		"llm_provider": s.chat.ModelName(),
		"mock_replies": s.chat.ModelName() == "mock",
	})
}

type chatRequest struct {
	Message   *string `json:"message"`
	SessionID string  `json:"session_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		if errors.Is(err, errEmptyBody) {
			respondError(w, http.StatusBadRequest, "invalid_request", "request body is required")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Message == nil {
		respondError(w, http.StatusBadRequest, "missing_message", "field message is required")
		return
	}

	res, err := s.chat.Chat(r.Context(), chat.Input{
		Message:   *req.Message,
		SessionID: req.SessionID,
	})
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			respondError(w, http.StatusBadRequest, "empty_message", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "chat_error", fmt.Sprintf("Chat error: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	id, err := s.chat.Clear(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "clear_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s cleared", id),
	})
}

type sessionResponse struct {
	SessionID string         `json:"session_id"`
	Turns     []session.Turn `json:"turns"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, turns, err := s.chat.History(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "history_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{SessionID: id, Turns: turns})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.chat.Sessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	if list == nil {
		list = []session.Summary{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": list})
}

type errorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, detail string) {
	respondJSON(w, status, errorResponse{Detail: detail, Code: code})
}
