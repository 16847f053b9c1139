package server

import (
	"fmt"
	"net/http"
)

func (s *Server) handleFetchCards(w http.ResponseWriter, r *http.Request) {
	count, err := s.cardSvc.Refresh(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: fmt.Sprintf("%d cards updated", count),
	})
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.cardSvc.List(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Count:   len(cards),
		Data:    cards,
	})
}
