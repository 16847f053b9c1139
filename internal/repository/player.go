package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"royale-analytics/internal/constants"
	"royale-analytics/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		db:     sqlDB,
		logger: logger,
	}
}

const playerColumns = "tag, name, trophies, battle_count, wins, losses, current_deck, last_fetch_at, created_at, updated_at"

func (r *PlayerRepository) Upsert(ctx context.Context, player *domain.Player) error {
	deck, err := json.Marshal(player.CurrentDeck)
	if err != nil {
		return fmt.Errorf("failed to encode current deck: %w", err)
	}

	now := time.Now()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO players (tag, name, trophies, battle_count, wins, losses, current_deck, last_fetch_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tag) DO UPDATE SET
			name = excluded.name,
			trophies = excluded.trophies,
			battle_count = excluded.battle_count,
			wins = excluded.wins,
			losses = excluded.losses,
			current_deck = excluded.current_deck,
			last_fetch_at = excluded.last_fetch_at,
			updated_at = excluded.updated_at`,
		player.Tag, player.Name, player.Trophies, player.BattleCount,
		player.Wins, player.Losses, string(deck), player.LastFetchAt, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert player %s: %w", player.Tag, err)
	}
	return nil
}

// ReplaceBattleLog swaps the stored battle log for a player in one
// transaction. Fetches are full overwrites, not incremental merges, so the
// old records go first.
func (r *PlayerRepository) ReplaceBattleLog(ctx context.Context, tag string, battles []domain.Battle) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM battles WHERE player_tag = ?", tag); err != nil {
		return fmt.Errorf("failed to clear battle log for %s: %w", tag, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO battles (id, player_tag, battle_time, deck_used, opponent_tag, opponent_trophies,
			opponent_deck, opponent_towers, duration_sec, result, trophy_change, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare battle insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i := 0; i < len(battles); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(battles) {
			end = len(battles)
		}

		for _, battle := range battles[i:end] {
			id := battle.ID
			if id == "" {
				id, err = gonanoid.New()
				if err != nil {
					return fmt.Errorf("failed to generate nanoid: %w", err)
				}
			}

			deckUsed, err := json.Marshal(battle.DeckUsed)
			if err != nil {
				return fmt.Errorf("failed to encode deck: %w", err)
			}
			oppDeck, err := json.Marshal(battle.Opponent.Deck)
			if err != nil {
				return fmt.Errorf("failed to encode opponent deck: %w", err)
			}

			_, err = stmt.ExecContext(ctx,
				id, tag, battle.BattleTime, string(deckUsed),
				battle.Opponent.Tag, battle.Opponent.Trophies, string(oppDeck), battle.Opponent.TowersDestroyed,
				battle.DurationSec, battle.Result, battle.TrophyChange, now, now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert battle: %w", err)
			}
		}
	}

	r.logger.Debug().Str("tag", tag).Int("battles", len(battles)).Msg("battle log replaced")
	return tx.Commit()
}

// GetByTag loads a player with their full battle log, newest battle first.
func (r *PlayerRepository) GetByTag(ctx context.Context, tag string) (*domain.Player, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+playerColumns+" FROM players WHERE tag = ?", tag)

	player, err := scanPlayer(row)
	if err != nil {
		return nil, err
	}

	battles, err := r.queryBattles(ctx, "WHERE player_tag = ? ORDER BY battle_time DESC", tag)
	if err != nil {
		return nil, err
	}
	player.BattleLog = battles

	return player, nil
}

// FindWithBattles returns every player whose battle log intersects the window,
// each with the in-window portion of their log attached. Zero start and end
// mean no bound, which returns the whole population. The analytics engine
// re-applies the window per battle, so narrowing here is only a pushdown.
func (r *PlayerRepository) FindWithBattles(ctx context.Context, start, end time.Time) ([]domain.Player, error) {
	windowed := !start.IsZero() || !end.IsZero()

	var (
		rows *sql.Rows
		err  error
	)
	if windowed {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+playerColumns+` FROM players p
			WHERE EXISTS (
				SELECT 1 FROM battles b
				WHERE b.player_tag = p.tag AND b.battle_time >= ? AND b.battle_time <= ?
			)
			ORDER BY p.tag`, start, end)
	} else {
		rows, err = r.db.QueryContext(ctx, "SELECT "+playerColumns+" FROM players ORDER BY tag")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	index := make(map[string]int)
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		index[player.Tag] = len(players)
		players = append(players, *player)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return []domain.Player{}, nil
	}

	var battles []domain.Battle
	if windowed {
		battles, err = r.queryBattles(ctx,
			"WHERE battle_time >= ? AND battle_time <= ? ORDER BY player_tag, battle_time", start, end)
	} else {
		battles, err = r.queryBattles(ctx, "ORDER BY player_tag, battle_time")
	}
	if err != nil {
		return nil, err
	}

	for _, battle := range battles {
		if i, ok := index[battle.PlayerTag]; ok {
			players[i].BattleLog = append(players[i].BattleLog, battle)
		}
	}

	return players, nil
}

func (r *PlayerRepository) ShouldRefresh(ctx context.Context, tag string, ttl time.Duration) (bool, error) {
	var lastFetchAt time.Time
	err := r.db.QueryRowContext(ctx, "SELECT last_fetch_at FROM players WHERE tag = ?", tag).Scan(&lastFetchAt)
	if err == sql.ErrNoRows {
		r.logger.Debug().Str("tag", tag).Msg("player not found, should refresh")
		return true, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("tag", tag).Msg("failed to get player")
		return false, err
	}

	timeSince := time.Since(lastFetchAt)
	shouldRefresh := timeSince > ttl
	r.logger.Debug().
		Str("tag", tag).
		Time("last_fetch_at", lastFetchAt).
		Dur("time_since", timeSince).
		Dur("ttl", ttl).
		Bool("should_refresh", shouldRefresh).
		Msg("checking if player should refresh")

	return shouldRefresh, nil
}

func (r *PlayerRepository) SetLastFetchAt(ctx context.Context, tag string, lastFetchAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE players SET last_fetch_at = ?, updated_at = ? WHERE tag = ?",
		lastFetchAt, time.Now(), tag,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("tag", tag).Msg("failed to set last fetch at")
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*domain.Player, error) {
	var (
		player   domain.Player
		deckJSON string
	)
	err := row.Scan(
		&player.Tag, &player.Name, &player.Trophies, &player.BattleCount,
		&player.Wins, &player.Losses, &deckJSON, &player.LastFetchAt,
		&player.CreatedAt, &player.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(deckJSON), &player.CurrentDeck); err != nil {
		return nil, fmt.Errorf("failed to decode current deck for %s: %w", player.Tag, err)
	}
	return &player, nil
}

func (r *PlayerRepository) queryBattles(ctx context.Context, clause string, args ...any) ([]domain.Battle, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, player_tag, battle_time, deck_used, opponent_tag, opponent_trophies,
			opponent_deck, opponent_towers, duration_sec, result, trophy_change, created_at, updated_at
		FROM battles `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query battles: %w", err)
	}
	defer rows.Close()

	var battles []domain.Battle
	for rows.Next() {
		var (
			battle       domain.Battle
			deckUsedJSON string
			oppDeckJSON  string
		)
		err := rows.Scan(
			&battle.ID, &battle.PlayerTag, &battle.BattleTime, &deckUsedJSON,
			&battle.Opponent.Tag, &battle.Opponent.Trophies, &oppDeckJSON, &battle.Opponent.TowersDestroyed,
			&battle.DurationSec, &battle.Result, &battle.TrophyChange,
			&battle.CreatedAt, &battle.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(deckUsedJSON), &battle.DeckUsed); err != nil {
			return nil, fmt.Errorf("failed to decode deck for battle %s: %w", battle.ID, err)
		}
		if err := json.Unmarshal([]byte(oppDeckJSON), &battle.Opponent.Deck); err != nil {
			return nil, fmt.Errorf("failed to decode opponent deck for battle %s: %w", battle.ID, err)
		}
		battles = append(battles, battle)
	}
	return battles, rows.Err()
}
