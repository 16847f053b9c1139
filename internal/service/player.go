package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"royale-analytics/internal/api"
	"royale-analytics/internal/apperr"
	"royale-analytics/internal/constants"
	"royale-analytics/internal/domain"
	"royale-analytics/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// battleTimeLayout is the provider's battle timestamp format.
const battleTimeLayout = "20060102T150405.000Z"

type PlayerService struct {
	clash  *api.ClashClient
	repo   *repository.PlayerRepository
	logger zerolog.Logger
}

func NewPlayerService(clash *api.ClashClient, repo *repository.PlayerRepository, logger zerolog.Logger) *PlayerService {
	return &PlayerService{clash: clash, repo: repo, logger: logger}
}

// GetPlayer returns the stored player for tag, refreshing from the provider
// when the record is stale or refresh is forced. A refresh replaces the whole
// battle log; profile and battle log are fetched in parallel and a failure of
// either aborts the fetch with nothing persisted.
func (s *PlayerService) GetPlayer(ctx context.Context, tag string, refresh bool) (*domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	s.logger.Info().Str("tag", tag).Bool("refresh", refresh).Msg("getting player")

	shouldRefresh, err := s.repo.ShouldRefresh(ctx, tag, constants.PlayerRefreshTTL)
	if err != nil {
		return nil, apperr.Upstream("failed to check refresh state", err)
	}
	if refresh {
		s.logger.Debug().Str("tag", tag).Msg("manual refresh requested")
		shouldRefresh = true
	}

	if !shouldRefresh {
		player, err := s.repo.GetByTag(ctx, tag)
		if err == nil {
			s.logger.Info().Str("tag", tag).Msg("returning cached player")
			return player, nil
		}
		s.logger.Warn().Err(err).Str("tag", tag).Msg("cached player unavailable, fetching from provider")
	}

	player, battles, err := s.fetchFromProvider(ctx, tag)
	if err != nil {
		return nil, err
	}

	player.LastFetchAt = time.Now()
	if err := s.repo.Upsert(ctx, player); err != nil {
		s.logger.Error().Err(err).Str("tag", tag).Msg("failed to upsert player")
		return nil, apperr.Upstream("failed to store player", err)
	}
	if err := s.repo.ReplaceBattleLog(ctx, player.Tag, battles); err != nil {
		s.logger.Error().Err(err).Str("tag", tag).Msg("failed to replace battle log")
		return nil, apperr.Upstream("failed to store battle log", err)
	}
	player.BattleLog = battles

	s.logger.Info().Str("tag", tag).Int("battles", len(battles)).Msg("player fetched successfully")
	return player, nil
}

// fetchFromProvider runs the profile and battle-log sub-fetches in parallel
// and joins them; partial success persists nothing.
func (s *PlayerService) fetchFromProvider(ctx context.Context, tag string) (*domain.Player, []domain.Battle, error) {
	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	g, gCtx := errgroup.WithContext(apiCtx)
	var (
		profile   *api.PlayerResponse
		battleLog *api.BattleLogResponse
	)

	g.Go(func() error {
		var err error
		profile, err = s.clash.GetPlayer(gCtx, tag)
		return err
	})
	g.Go(func() error {
		var err error
		battleLog, err = s.clash.GetBattleLog(gCtx, tag)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("tag", tag).Msg("provider fetch failed")
		if errors.Is(err, api.ErrNotFound) {
			return nil, nil, apperr.NotFoundf("player %s not found", tag)
		}
		return nil, nil, apperr.Upstream("failed to fetch player from provider", err)
	}

	player := &domain.Player{
		Tag:         strings.TrimPrefix(profile.Tag, "#"),
		Name:        profile.Name,
		Trophies:    profile.Trophies,
		BattleCount: profile.BattleCount,
		Wins:        profile.Wins,
		Losses:      profile.Losses,
		CurrentDeck: mapDeck(profile.CurrentDeck),
	}

	battles := make([]domain.Battle, 0, len(*battleLog))
	for _, item := range *battleLog {
		battle, err := mapBattle(player.Tag, item)
		if err != nil {
			s.logger.Warn().Err(err).Str("tag", tag).Msg("skipping malformed battle log entry")
			continue
		}
		battles = append(battles, battle)
	}

	return player, battles, nil
}

// mapBattle normalizes one provider battle log entry. The result is derived
// here, once, from the crowns comparison; analytics never recompute it.
func mapBattle(playerTag string, item api.BattleLogItem) (domain.Battle, error) {
	if len(item.Team) == 0 || len(item.Opponent) == 0 {
		return domain.Battle{}, fmt.Errorf("battle entry missing team or opponent")
	}

	battleTime, err := time.Parse(battleTimeLayout, item.BattleTime)
	if err != nil {
		return domain.Battle{}, fmt.Errorf("failed to parse battle time %q: %w", item.BattleTime, err)
	}

	team := item.Team[0]
	opponent := item.Opponent[0]

	result := domain.ResultLoss
	if team.Crowns > opponent.Crowns {
		result = domain.ResultWin
	}

	return domain.Battle{
		PlayerTag:  playerTag,
		BattleTime: battleTime,
		DeckUsed:   mapDeck(team.Cards),
		Opponent: domain.Opponent{
			Tag:      strings.TrimPrefix(opponent.Tag, "#"),
			Trophies: opponent.StartingTrophies,
			Deck:     mapDeck(opponent.Cards),
			// crowns taken by the opponent are towers they destroyed
			TowersDestroyed: opponent.Crowns,
		},
		DurationSec:  item.Duration,
		Result:       result,
		TrophyChange: team.TrophyChange,
	}, nil
}

func mapDeck(cards []api.CardRef) []domain.DeckCard {
	deck := make([]domain.DeckCard, len(cards))
	for i, card := range cards {
		deck[i] = domain.DeckCard{
			ID:         card.ID,
			Name:       card.Name,
			ElixirCost: card.ElixirCost,
		}
	}
	return deck
}

type BattleStats struct {
	TotalBattles int     `json:"totalBattles"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"winRate"`
}

type CardUsage struct {
	CardID     int64   `json:"cardId"`
	CardName   string  `json:"cardName"`
	UsageCount int     `json:"usageCount"`
	WinRate    float64 `json:"winRate"`
}

type RecentBattle struct {
	Result           string `json:"result"`
	TrophyChange     int    `json:"trophyChange"`
	OpponentTrophies int    `json:"opponentTrophies"`
}

type PlayerStats struct {
	PlayerTag     string         `json:"playerTag"`
	BattleStats   BattleStats    `json:"battleStats"`
	DeckAnalysis  []CardUsage    `json:"deckAnalysis"`
	RecentBattles []RecentBattle `json:"recentBattles"`
}

// GetPlayerStats summarizes a stored player: lifetime totals, usage and win
// rate for each current-deck card, and the most recent battles. Reads stored
// data only; it never calls the provider.
func (s *PlayerService) GetPlayerStats(ctx context.Context, tag string) (*PlayerStats, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	player, err := s.repo.GetByTag(ctx, tag)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("player %s not stored", tag)
		}
		s.logger.Error().Err(err).Str("tag", tag).Msg("failed to load player")
		return nil, apperr.Upstream("failed to load player", err)
	}

	stats := &PlayerStats{
		PlayerTag: player.Tag,
		BattleStats: BattleStats{
			TotalBattles: player.BattleCount,
			Wins:         player.Wins,
			Losses:       player.Losses,
			WinRate:      ratePct(player.Wins, player.BattleCount),
		},
		DeckAnalysis:  make([]CardUsage, 0, len(player.CurrentDeck)),
		RecentBattles: make([]RecentBattle, 0, constants.RecentBattleLimit),
	}

	for _, card := range player.CurrentDeck {
		usage, wins := 0, 0
		for _, battle := range player.BattleLog {
			if !deckHasCardID(battle.DeckUsed, card.ID) {
				continue
			}
			usage++
			if battle.Result == domain.ResultWin {
				wins++
			}
		}
		stats.DeckAnalysis = append(stats.DeckAnalysis, CardUsage{
			CardID:     card.ID,
			CardName:   card.Name,
			UsageCount: usage,
			WinRate:    ratePct(wins, usage),
		})
	}

	// battle log is loaded newest first
	for _, battle := range player.BattleLog {
		if len(stats.RecentBattles) == constants.RecentBattleLimit {
			break
		}
		stats.RecentBattles = append(stats.RecentBattles, RecentBattle{
			Result:           battle.Result,
			TrophyChange:     battle.TrophyChange,
			OpponentTrophies: battle.Opponent.Trophies,
		})
	}

	return stats, nil
}

func deckHasCardID(deck []domain.DeckCard, id int64) bool {
	for _, card := range deck {
		if card.ID == id {
			return true
		}
	}
	return false
}

func ratePct(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(wins)/float64(total)*10000) / 100
}
