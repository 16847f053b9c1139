// Package analytics computes battle statistics over the stored player
// population. Every query is a pure read: battles are loaded once per call
// and folded through filter, group-by-canonical-key and count stages, so an
// in-memory source and the SQL-backed repository produce identical results.
package analytics

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"royale-analytics/internal/apperr"
	"royale-analytics/internal/constants"
	"royale-analytics/internal/domain"

	"github.com/rs/zerolog"
)

// BattleSource hands the engine players with their battle logs. Zero start
// and end mean no time bound. Implemented by repository.PlayerRepository;
// tests substitute an in-memory source.
type BattleSource interface {
	FindWithBattles(ctx context.Context, start, end time.Time) ([]domain.Player, error)
}

type Engine struct {
	source BattleSource
	logger zerolog.Logger
}

func NewEngine(source BattleSource, logger zerolog.Logger) *Engine {
	return &Engine{source: source, logger: logger}
}

type WinLoss struct {
	WinPct  float64 `json:"winPct"`
	LossPct float64 `json:"lossPct"`
}

type DeckWinRate struct {
	Deck    []string `json:"deck"`
	WinRate float64  `json:"winRate"`
}

type ComboLosses struct {
	Combo  []string `json:"combo"`
	Losses int      `json:"losses"`
}

type SpecialWinCount struct {
	Victories int `json:"victories"`
}

type ComboWinRate struct {
	Combo   []string `json:"combo"`
	WinRate float64  `json:"winRate"`
}

// WinLossByCard reports the win and loss percentage over every in-window
// battle whose deck contains cardName. Both are 0 when nothing matches.
func (e *Engine) WinLossByCard(ctx context.Context, cardName string, start, end time.Time) (WinLoss, error) {
	players, err := e.load(ctx, start, end)
	if err != nil {
		return WinLoss{}, err
	}

	var t tally
	forEachBattle(players, start, end, func(_ *domain.Player, battle *domain.Battle) {
		if deckContains(battle.DeckUsed, cardName) {
			t.add(battle.Result)
		}
	})

	e.logger.Debug().Str("card", cardName).Int("wins", t.wins).Int("losses", t.losses).Msg("win/loss by card computed")
	return WinLoss{WinPct: t.winPct(), LossPct: t.lossPct()}, nil
}

// DecksWithWinRate groups full 8-card decks by canonical key and returns the
// ones winning at or above minWinRate. One row per distinct deck, ordered by
// key so ties never drop or duplicate a group.
func (e *Engine) DecksWithWinRate(ctx context.Context, minWinRate float64, start, end time.Time) ([]DeckWinRate, error) {
	players, err := e.load(ctx, start, end)
	if err != nil {
		return nil, err
	}

	stats := newGroupTally()
	forEachBattle(players, start, end, func(_ *domain.Player, battle *domain.Battle) {
		if len(battle.DeckUsed) != constants.FullDeckSize {
			return
		}
		stats.add(deckKey(battle.DeckUsed), battle.Result)
	})

	result := []DeckWinRate{}
	for _, key := range stats.sortedKeys() {
		if rate := stats.groups[key].winPct(); rate >= minWinRate {
			result = append(result, DeckWinRate{Deck: strings.Split(key, ","), WinRate: rate})
		}
	}

	e.logger.Debug().Float64("min_win_rate", minWinRate).Int("groups", len(stats.groups)).Int("returned", len(result)).Msg("decks with win rate computed")
	return result, nil
}

// LossesByCombo counts in-window losses whose deck contains every card in
// combo; extra cards are allowed.
func (e *Engine) LossesByCombo(ctx context.Context, combo []string, start, end time.Time) (ComboLosses, error) {
	players, err := e.load(ctx, start, end)
	if err != nil {
		return ComboLosses{}, err
	}

	losses := 0
	forEachBattle(players, start, end, func(_ *domain.Player, battle *domain.Battle) {
		if battle.Result == domain.ResultLoss && containsAll(battle.DeckUsed, combo) {
			losses++
		}
	})

	e.logger.Debug().Strs("combo", combo).Int("losses", losses).Msg("losses by combo computed")
	return ComboLosses{Combo: combo, Losses: losses}, nil
}

// SpecialWins counts underdog victories: a win with cardName in the deck,
// the player at least trophyDiffPercent below the opponent's trophies, the
// match decided in under two minutes and the opponent having taken two or
// more towers. The whole history is scanned; there is no time window.
func (e *Engine) SpecialWins(ctx context.Context, cardName string, trophyDiffPercent float64) (SpecialWinCount, error) {
	players, err := e.load(ctx, time.Time{}, time.Time{})
	if err != nil {
		return SpecialWinCount{}, err
	}

	ceiling := 1 - trophyDiffPercent/100
	victories := 0
	forEachBattle(players, time.Time{}, time.Time{}, func(player *domain.Player, battle *domain.Battle) {
		if battle.Result == domain.ResultWin &&
			deckContains(battle.DeckUsed, cardName) &&
			battle.Opponent.Trophies > 0 &&
			player.Trophies > 0 &&
			float64(player.Trophies) <= float64(battle.Opponent.Trophies)*ceiling &&
			battle.DurationSec < constants.SpecialWinMaxDurationSec &&
			battle.Opponent.TowersDestroyed >= constants.SpecialWinMinOppTowers {
			victories++
		}
	})

	e.logger.Debug().Str("card", cardName).Float64("trophy_diff_percent", trophyDiffPercent).Int("victories", victories).Msg("special wins computed")
	return SpecialWinCount{Victories: victories}, nil
}

// BestCombos tallies every size-subset of each in-window deck and returns the
// combos winning at or above minWinRate. A battle contributes to every subset
// of its deck, so one battle can feed many combo buckets.
func (e *Engine) BestCombos(ctx context.Context, size int, minWinRate float64, start, end time.Time) ([]ComboWinRate, error) {
	if size <= 0 {
		return nil, apperr.Invalid("size must be positive, got %d", size)
	}

	players, err := e.load(ctx, start, end)
	if err != nil {
		return nil, err
	}

	stats := newGroupTally()
	forEachBattle(players, start, end, func(_ *domain.Player, battle *domain.Battle) {
		if len(battle.DeckUsed) < size {
			return
		}
		names := deckNames(battle.DeckUsed)
		sort.Strings(names)
		for _, combo := range Combinations(names, size) {
			stats.add(strings.Join(combo, ","), battle.Result)
		}
	})

	result := []ComboWinRate{}
	for _, key := range stats.sortedKeys() {
		if rate := stats.groups[key].winPct(); rate >= minWinRate {
			result = append(result, ComboWinRate{Combo: strings.Split(key, ","), WinRate: rate})
		}
	}

	e.logger.Debug().Int("size", size).Float64("min_win_rate", minWinRate).Int("groups", len(stats.groups)).Int("returned", len(result)).Msg("best combos computed")
	return result, nil
}

func (e *Engine) load(ctx context.Context, start, end time.Time) ([]domain.Player, error) {
	players, err := e.source.FindWithBattles(ctx, start, end)
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to load battle records")
		return nil, apperr.Upstream("failed to load battle records", err)
	}
	return players, nil
}

// forEachBattle is the shared filter stage: it walks every battle and invokes
// fn only for those inside the window. The window is re-applied here even
// when the source already narrowed it, so sources are free to over-fetch.
func forEachBattle(players []domain.Player, start, end time.Time, fn func(*domain.Player, *domain.Battle)) {
	for i := range players {
		player := &players[i]
		for j := range player.BattleLog {
			battle := &player.BattleLog[j]
			if !start.IsZero() && battle.BattleTime.Before(start) {
				continue
			}
			if !end.IsZero() && battle.BattleTime.After(end) {
				continue
			}
			fn(player, battle)
		}
	}
}

// tally is the reduce stage: win/loss counts with percentages defined as 0
// on an empty set.
type tally struct {
	wins   int
	losses int
}

func (t *tally) add(result string) {
	switch result {
	case domain.ResultWin:
		t.wins++
	case domain.ResultLoss:
		t.losses++
	}
}

func (t *tally) winPct() float64 {
	total := t.wins + t.losses
	if total == 0 {
		return 0
	}
	return round2(float64(t.wins) / float64(total) * 100)
}

func (t *tally) lossPct() float64 {
	total := t.wins + t.losses
	if total == 0 {
		return 0
	}
	return round2(float64(t.losses) / float64(total) * 100)
}

// groupTally is the group-by stage, keyed by canonical combo/deck keys.
type groupTally struct {
	groups map[string]*tally
}

func newGroupTally() *groupTally {
	return &groupTally{groups: make(map[string]*tally)}
}

func (g *groupTally) add(key, result string) {
	t, ok := g.groups[key]
	if !ok {
		t = &tally{}
		g.groups[key] = t
	}
	t.add(result)
}

func (g *groupTally) sortedKeys() []string {
	keys := make([]string, 0, len(g.groups))
	for key := range g.groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// deckKey is the canonical, order-independent representation of a deck:
// sorted card names joined by commas. Identical card sets collapse to one
// key regardless of encounter order.
func deckKey(deck []domain.DeckCard) string {
	names := deckNames(deck)
	sort.Strings(names)
	return strings.Join(names, ",")
}

func deckNames(deck []domain.DeckCard) []string {
	names := make([]string, len(deck))
	for i, card := range deck {
		names[i] = card.Name
	}
	return names
}

func deckContains(deck []domain.DeckCard, name string) bool {
	for _, card := range deck {
		if card.Name == name {
			return true
		}
	}
	return false
}

func containsAll(deck []domain.DeckCard, names []string) bool {
	for _, name := range names {
		if !deckContains(deck, name) {
			return false
		}
	}
	return true
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
