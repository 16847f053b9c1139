package service

import (
	"context"
	"fmt"
	"strings"

	"royale-analytics/internal/api"
	"royale-analytics/internal/apperr"
	"royale-analytics/internal/constants"
	"royale-analytics/internal/domain"
	"royale-analytics/internal/repository"

	"github.com/rs/zerolog"
)

type CardService struct {
	clash  *api.ClashClient
	repo   *repository.CardRepository
	logger zerolog.Logger
}

func NewCardService(clash *api.ClashClient, repo *repository.CardRepository, logger zerolog.Logger) *CardService {
	return &CardService{clash: clash, repo: repo, logger: logger}
}

// Refresh replaces the stored catalog with the provider's current card list
// and returns how many cards were stored.
func (s *CardService) Refresh(ctx context.Context) (int, error) {
	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	resp, err := s.clash.GetCards(apiCtx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch card catalog")
		return 0, apperr.Upstream("failed to fetch card catalog", err)
	}

	cards := make([]domain.Card, len(resp.Items))
	for i, item := range resp.Items {
		cards[i] = domain.Card{
			ID:                fmt.Sprintf("%d", item.ID),
			Name:              item.Name,
			Rarity:            strings.ToLower(item.Rarity),
			MaxLevel:          item.MaxLevel,
			ElixirCost:        item.ElixirCost,
			MaxEvolutionLevel: item.MaxEvolutionLevel,
			IconURL:           item.IconUrls.Medium,
			IconEvolutionURL:  item.IconUrls.EvolutionMedium,
		}
	}

	if err := s.repo.ReplaceAll(ctx, cards); err != nil {
		s.logger.Error().Err(err).Msg("failed to store card catalog")
		return 0, apperr.Upstream("failed to store card catalog", err)
	}

	s.logger.Info().Int("count", len(cards)).Msg("card catalog refreshed")
	return len(cards), nil
}

// List returns the stored catalog; an empty catalog is a NotFound so callers
// know to refresh first.
func (s *CardService) List(ctx context.Context) ([]domain.Card, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	cards, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list cards")
		return nil, apperr.Upstream("failed to list cards", err)
	}
	if len(cards) == 0 {
		return nil, apperr.NotFoundf("no cards stored, refresh the catalog first")
	}
	return cards, nil
}
