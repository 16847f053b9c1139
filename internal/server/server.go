package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"royale-analytics/internal/analytics"
	"royale-analytics/internal/apperr"
	"royale-analytics/internal/service"

	"github.com/rs/zerolog"
)

// Server exposes the read API: the five analytics queries plus the player
// and card-catalog endpoints. All responses share the same envelope.
type Server struct {
	engine    *analytics.Engine
	playerSvc *service.PlayerService
	cardSvc   *service.CardService
	db        *sql.DB
	logger    zerolog.Logger
}

func New(engine *analytics.Engine, playerSvc *service.PlayerService, cardSvc *service.CardService, db *sql.DB, logger zerolog.Logger) *Server {
	return &Server{
		engine:    engine,
		playerSvc: playerSvc,
		cardSvc:   cardSvc,
		db:        db,
		logger:    logger,
	}
}

// Register wires every route onto mux. Patterns rely on the Go 1.22 ServeMux
// method and wildcard matching.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/players/{tag}", s.handleGetPlayer)
	mux.HandleFunc("GET /api/players/{tag}/stats", s.handleGetPlayerStats)

	mux.HandleFunc("GET /api/cards", s.handleListCards)
	mux.HandleFunc("GET /api/cards/fetch", s.handleFetchCards)

	mux.HandleFunc("GET /api/analytics/win-loss-percentage-by-card", s.handleWinLossByCard)
	mux.HandleFunc("GET /api/analytics/decks-with-winrate", s.handleDecksWithWinRate)
	mux.HandleFunc("GET /api/analytics/losses-by-combo", s.handleLossesByCombo)
	mux.HandleFunc("GET /api/analytics/special-wins", s.handleSpecialWins)
	mux.HandleFunc("GET /api/analytics/best-combos", s.handleBestCombos)

	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("/", s.handleNotFound)
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Count   int    `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) respondData(w http.ResponseWriter, data any) {
	s.writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	env := envelope{Success: false, Message: err.Error()}
	status := http.StatusInternalServerError

	switch apperr.KindOf(err) {
	case apperr.InvalidArgument:
		status = http.StatusBadRequest
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.UpstreamFailure:
		var e *apperr.Error
		if errors.As(err, &e) && e.Err != nil {
			env.Message = e.Msg
			env.Error = e.Err.Error()
		}
	}

	s.writeJSON(w, status, env)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	database := "connected"
	if err := s.db.PingContext(r.Context()); err != nil {
		database = "disconnected"
	}
	s.respondData(w, map[string]string{
		"status":   "online",
		"database": database,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusNotFound, envelope{
		Success: false,
		Message: "route not found: " + r.Method + " " + r.URL.Path,
	})
}
