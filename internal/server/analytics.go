package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"royale-analytics/internal/apperr"
)

// The query façade: each handler parses the caller's string parameters into
// typed values, rejects missing or malformed ones with InvalidArgument, and
// hands off to the engine. No statistics are computed here.

func (s *Server) handleWinLossByCard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	cardName, err := requireParam(q, "cardName")
	if err != nil {
		s.respondError(w, err)
		return
	}
	start, end, err := parseWindow(q)
	if err != nil {
		s.respondError(w, err)
		return
	}

	result, err := s.engine.WinLossByCard(r.Context(), cardName, start, end)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondData(w, result)
}

func (s *Server) handleDecksWithWinRate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	minWinRate, err := requireFloat(q, "minWinRate")
	if err != nil {
		s.respondError(w, err)
		return
	}
	start, end, err := parseWindow(q)
	if err != nil {
		s.respondError(w, err)
		return
	}

	result, err := s.engine.DecksWithWinRate(r.Context(), minWinRate, start, end)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondData(w, result)
}

func (s *Server) handleLossesByCombo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	combo, err := requireComboList(q, "combo")
	if err != nil {
		s.respondError(w, err)
		return
	}
	start, end, err := parseWindow(q)
	if err != nil {
		s.respondError(w, err)
		return
	}

	result, err := s.engine.LossesByCombo(r.Context(), combo, start, end)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondData(w, result)
}

func (s *Server) handleSpecialWins(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	cardName, err := requireParam(q, "cardName")
	if err != nil {
		s.respondError(w, err)
		return
	}
	trophyDiffPercent, err := requireFloat(q, "trophyDiffPercent")
	if err != nil {
		s.respondError(w, err)
		return
	}

	result, err := s.engine.SpecialWins(r.Context(), cardName, trophyDiffPercent)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondData(w, result)
}

func (s *Server) handleBestCombos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	size, err := requireInt(q, "size")
	if err != nil {
		s.respondError(w, err)
		return
	}
	minWinRate, err := requireFloat(q, "minWinRate")
	if err != nil {
		s.respondError(w, err)
		return
	}
	start, end, err := parseWindow(q)
	if err != nil {
		s.respondError(w, err)
		return
	}

	result, err := s.engine.BestCombos(r.Context(), size, minWinRate, start, end)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondData(w, result)
}

// dateLayouts are accepted for the start and end parameters, tried in order.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseWindow(q url.Values) (time.Time, time.Time, error) {
	start, err := requireDate(q, "start")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := requireDate(q, "end")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func requireParam(q url.Values, name string) (string, error) {
	value := strings.TrimSpace(q.Get(name))
	if value == "" {
		return "", apperr.Invalid("parameter %s is required", name)
	}
	return value, nil
}

func requireDate(q url.Values, name string) (time.Time, error) {
	raw, err := requireParam(q, name)
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Invalid("parameter %s is not a valid date: %s", name, raw)
}

func requireFloat(q url.Values, name string) (float64, error) {
	raw, err := requireParam(q, name)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperr.Invalid("parameter %s is not a number: %s", name, raw)
	}
	return value, nil
}

func requireInt(q url.Values, name string) (int, error) {
	raw, err := requireParam(q, name)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Invalid("parameter %s is not an integer: %s", name, raw)
	}
	return value, nil
}

func requireComboList(q url.Values, name string) ([]string, error) {
	raw, err := requireParam(q, name)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(raw, ",")
	combo := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			combo = append(combo, trimmed)
		}
	}
	if len(combo) == 0 {
		return nil, apperr.Invalid("parameter %s must list at least one card", name)
	}
	return combo, nil
}
