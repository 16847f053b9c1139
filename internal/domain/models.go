package domain

import (
	"time"
)

// Result values as stored on battle records. Crowns are compared once at
// ingestion time; analytics never recompute the result.
const (
	ResultWin  = "win"
	ResultLoss = "loss"
)

// DeckCard is a card reference inside a deck: the catalog identifier plus the
// display fields analytics group on. Immutable once fetched from the provider.
type DeckCard struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ElixirCost int    `json:"elixirCost"`
}

// Card is a catalog entry. The catalog is replaced wholesale on each fetch.
type Card struct {
	ID                string
	Name              string
	Rarity            string
	MaxLevel          int
	ElixirCost        int
	MaxEvolutionLevel int
	IconURL           string
	IconEvolutionURL  string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Opponent is the snapshot of the other side of a battle at battle time.
type Opponent struct {
	Tag             string     `json:"tag"`
	Trophies        int        `json:"trophies"`
	Deck            []DeckCard `json:"deck"`
	TowersDestroyed int        `json:"towersDestroyed"`
}

// Battle is one completed match, stored immutably under a player. The whole
// battle log is replaced on each provider fetch rather than merged.
type Battle struct {
	ID           string // nanoid
	PlayerTag    string
	BattleTime   time.Time
	DeckUsed     []DeckCard
	Opponent     Opponent
	DurationSec  int
	Result       string // "win" or "loss"
	TrophyChange int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Player struct {
	Tag         string // provider tag without the leading '#'
	Name        string
	Trophies    int
	BattleCount int
	Wins        int
	Losses      int
	CurrentDeck []DeckCard
	BattleLog   []Battle // populated by GetByTag / FindWithBattles
	LastFetchAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
