package server

import (
	"math"
	"net/http"

	"royale-analytics/internal/apperr"
	"royale-analytics/internal/middleware"
)

type playerSummary struct {
	PlayerTag string  `json:"playerTag"`
	Name      string  `json:"name"`
	Trophies  int     `json:"trophies"`
	Battles   int     `json:"battles"`
	WinRate   float64 `json:"winRate"`
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	tag, ok := middleware.CleanTag(r.PathValue("tag"))
	if !ok {
		s.respondError(w, apperr.Invalid("invalid player tag: use at least three uppercase letters or digits"))
		return
	}
	refresh := r.URL.Query().Get("refresh") == "true"

	player, err := s.playerSvc.GetPlayer(r.Context(), tag, refresh)
	if err != nil {
		s.respondError(w, err)
		return
	}

	winRate := 0.0
	if player.BattleCount > 0 {
		winRate = math.Round(float64(player.Wins)/float64(player.BattleCount)*10000) / 100
	}

	s.respondData(w, playerSummary{
		PlayerTag: player.Tag,
		Name:      player.Name,
		Trophies:  player.Trophies,
		Battles:   player.BattleCount,
		WinRate:   winRate,
	})
}

func (s *Server) handleGetPlayerStats(w http.ResponseWriter, r *http.Request) {
	tag, ok := middleware.CleanTag(r.PathValue("tag"))
	if !ok {
		s.respondError(w, apperr.Invalid("invalid player tag: use at least three uppercase letters or digits"))
		return
	}

	stats, err := s.playerSvc.GetPlayerStats(r.Context(), tag)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondData(w, stats)
}
