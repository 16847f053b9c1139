package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"royale-analytics/internal/domain"

	"github.com/rs/zerolog"
)

type CardRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewCardRepository(sqlDB *sql.DB, logger zerolog.Logger) *CardRepository {
	return &CardRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// ReplaceAll swaps the whole catalog in one transaction. The provider returns
// the complete card list on every fetch, so there is nothing to merge.
func (r *CardRepository) ReplaceAll(ctx context.Context, cards []domain.Card) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cards"); err != nil {
		return fmt.Errorf("failed to clear cards: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cards (id, name, rarity, max_level, elixir_cost, max_evolution_level,
			icon_url, icon_evolution_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare card insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, card := range cards {
		_, err := stmt.ExecContext(ctx,
			card.ID, card.Name, card.Rarity, card.MaxLevel, card.ElixirCost,
			card.MaxEvolutionLevel, card.IconURL, card.IconEvolutionURL, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
		}
	}

	r.logger.Debug().Int("count", len(cards)).Msg("card catalog replaced")
	return tx.Commit()
}

func (r *CardRepository) List(ctx context.Context) ([]domain.Card, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, rarity, max_level, elixir_cost, max_evolution_level,
			icon_url, icon_evolution_url, created_at, updated_at
		FROM cards ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		var card domain.Card
		err := rows.Scan(
			&card.ID, &card.Name, &card.Rarity, &card.MaxLevel, &card.ElixirCost,
			&card.MaxEvolutionLevel, &card.IconURL, &card.IconEvolutionURL,
			&card.CreatedAt, &card.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}
