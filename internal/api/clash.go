package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"royale-analytics/internal/config"

	"github.com/valyala/fasthttp"
)

// ErrNotFound is returned when the provider reports no such resource.
var ErrNotFound = errors.New("provider resource not found")

// ClashClient talks to the Clash Royale REST API. It is constructed once and
// injected wherever provider data is needed; there is no package-level client.
type ClashClient struct {
	token   string
	baseURL string
	client  *fasthttp.Client
}

func NewClashClient(cfg *config.Config) *ClashClient {
	return &ClashClient{
		token:   cfg.ClashAPIToken,
		baseURL: cfg.ClashAPIBaseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// GetPlayer fetches the profile for a tag (without the leading '#').
func (c *ClashClient) GetPlayer(ctx context.Context, tag string) (*PlayerResponse, error) {
	url := fmt.Sprintf("%s/players/%%23%s", c.baseURL, tag)
	return doRequest[PlayerResponse](ctx, c, url)
}

// GetBattleLog fetches the recent battle log for a tag.
func (c *ClashClient) GetBattleLog(ctx context.Context, tag string) (*BattleLogResponse, error) {
	url := fmt.Sprintf("%s/players/%%23%s/battlelog", c.baseURL, tag)
	return doRequest[BattleLogResponse](ctx, c, url)
}

// GetCards fetches the full card catalog.
func (c *ClashClient) GetCards(ctx context.Context) (*CardsResponse, error) {
	url := fmt.Sprintf("%s/cards", c.baseURL)
	return doRequest[CardsResponse](ctx, c, url)
}

func doRequest[T any](ctx context.Context, client *ClashClient, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+client.token)
	req.Header.Set("Accept", "application/json")

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	switch resp.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type CardRef struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ElixirCost int    `json:"elixirCost"`
}

type PlayerResponse struct {
	Tag         string    `json:"tag"`
	Name        string    `json:"name"`
	Trophies    int       `json:"trophies"`
	BattleCount int       `json:"battleCount"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	CurrentDeck []CardRef `json:"currentDeck"`
}

// BattleLogResponse is the provider's battle log: newest first, one entry per
// completed match, team[0] is the requested player.
type BattleLogResponse []BattleLogItem

type BattleLogItem struct {
	BattleTime string              `json:"battleTime"`
	Duration   int                 `json:"duration"`
	Team       []BattleParticipant `json:"team"`
	Opponent   []BattleParticipant `json:"opponent"`
}

type BattleParticipant struct {
	Tag              string    `json:"tag"`
	Name             string    `json:"name"`
	StartingTrophies int       `json:"startingTrophies"`
	Crowns           int       `json:"crowns"`
	TrophyChange     int       `json:"trophyChange"`
	Cards            []CardRef `json:"cards"`
}

type CardsResponse struct {
	Items []CardItem `json:"items"`
}

type CardItem struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Rarity            string `json:"rarity"`
	MaxLevel          int    `json:"maxLevel"`
	ElixirCost        int    `json:"elixirCost"`
	MaxEvolutionLevel int    `json:"maxEvolutionLevel"`
	IconUrls          struct {
		Medium          string `json:"medium"`
		EvolutionMedium string `json:"evolutionMedium"`
	} `json:"iconUrls"`
}
