package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"royale-analytics/internal/analytics"
	"royale-analytics/internal/domain"

	"github.com/rs/zerolog"
)

type fakeSource struct {
	players []domain.Player
	err     error
}

func (f *fakeSource) FindWithBattles(ctx context.Context, start, end time.Time) ([]domain.Player, error) {
	return f.players, f.err
}

func testMux(source analytics.BattleSource) *http.ServeMux {
	engine := analytics.NewEngine(source, zerolog.Nop())
	srv := New(engine, nil, nil, nil, zerolog.Nop())
	mux := http.NewServeMux()
	srv.Register(mux)
	return mux
}

func testPopulation() *fakeSource {
	t1 := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	deck := func(names ...string) []domain.DeckCard {
		cards := make([]domain.DeckCard, len(names))
		for i, n := range names {
			cards[i] = domain.DeckCard{ID: int64(i + 1), Name: n}
		}
		return cards
	}
	return &fakeSource{players: []domain.Player{
		{
			Tag:      "AAA",
			Trophies: 800,
			BattleLog: []domain.Battle{
				{BattleTime: t1, DeckUsed: deck("Giant", "Musketeer"), Result: domain.ResultWin},
				{
					BattleTime: t2, DeckUsed: deck("Giant", "Zap"), Result: domain.ResultLoss,
					Opponent: domain.Opponent{Trophies: 1000, TowersDestroyed: 2},
				},
			},
		},
	}}
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func doGet(t *testing.T, mux *http.ServeMux, path string) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v (%s)", err, rec.Body.String())
	}
	return rec, env
}

func TestAnalyticsMissingParamsRejected(t *testing.T) {
	mux := testMux(testPopulation())

	paths := []string{
		"/api/analytics/win-loss-percentage-by-card?start=2025-01-01&end=2025-01-05",
		"/api/analytics/win-loss-percentage-by-card?cardName=Giant&end=2025-01-05",
		"/api/analytics/win-loss-percentage-by-card?cardName=Giant&start=2025-01-01",
		"/api/analytics/decks-with-winrate?start=2025-01-01&end=2025-01-05",
		"/api/analytics/losses-by-combo?start=2025-01-01&end=2025-01-05",
		"/api/analytics/special-wins?cardName=Giant",
		"/api/analytics/best-combos?minWinRate=50&start=2025-01-01&end=2025-01-05",
	}

	for _, path := range paths {
		rec, env := doGet(t, mux, path)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
		if env.Success {
			t.Errorf("%s: success = true, want false", path)
		}
		if env.Message == "" {
			t.Errorf("%s: missing message", path)
		}
	}
}

func TestAnalyticsMalformedParamsRejected(t *testing.T) {
	mux := testMux(testPopulation())

	paths := []string{
		"/api/analytics/win-loss-percentage-by-card?cardName=Giant&start=not-a-date&end=2025-01-05",
		"/api/analytics/decks-with-winrate?minWinRate=high&start=2025-01-01&end=2025-01-05",
		"/api/analytics/special-wins?cardName=Giant&trophyDiffPercent=twenty",
		"/api/analytics/best-combos?size=two&minWinRate=50&start=2025-01-01&end=2025-01-05",
		"/api/analytics/losses-by-combo?combo=%2C%2C&start=2025-01-01&end=2025-01-05",
	}

	for _, path := range paths {
		rec, env := doGet(t, mux, path)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
		if env.Success {
			t.Errorf("%s: success = true, want false", path)
		}
	}
}

func TestWinLossByCardEndpoint(t *testing.T) {
	mux := testMux(testPopulation())

	rec, env := doGet(t, mux, "/api/analytics/win-loss-percentage-by-card?cardName=Giant&start=2025-01-01&end=2025-01-05")
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, success = %v, body = %s", rec.Code, env.Success, rec.Body.String())
	}

	var data struct {
		WinPct  float64 `json:"winPct"`
		LossPct float64 `json:"lossPct"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.WinPct != 50.00 || data.LossPct != 50.00 {
		t.Errorf("data = %+v, want 50/50", data)
	}
}

func TestLossesByComboEndpoint(t *testing.T) {
	mux := testMux(testPopulation())

	rec, env := doGet(t, mux, "/api/analytics/losses-by-combo?combo=Giant%2C%20Zap&start=2025-01-01&end=2025-01-05")
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var data struct {
		Combo  []string `json:"combo"`
		Losses int      `json:"losses"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Losses != 1 {
		t.Errorf("losses = %d, want 1", data.Losses)
	}
	if len(data.Combo) != 2 || data.Combo[1] != "Zap" {
		t.Errorf("combo names not trimmed: %v", data.Combo)
	}
}

func TestSpecialWinsEndpoint(t *testing.T) {
	source := testPopulation()
	// make the loss a qualifying special win instead
	source.players[0].BattleLog[1].Result = domain.ResultWin
	source.players[0].BattleLog[1].DurationSec = 90
	mux := testMux(source)

	rec, env := doGet(t, mux, "/api/analytics/special-wins?cardName=Zap&trophyDiffPercent=20")
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var data struct {
		Victories int `json:"victories"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Victories != 1 {
		t.Errorf("victories = %d, want 1", data.Victories)
	}
}

func TestBestCombosEndpoint(t *testing.T) {
	mux := testMux(testPopulation())

	rec, env := doGet(t, mux, "/api/analytics/best-combos?size=1&minWinRate=60&start=2025-01-01&end=2025-01-05")
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var data []struct {
		Combo   []string `json:"combo"`
		WinRate float64  `json:"winRate"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	// only Musketeer is at 100%; Giant sits at 50 and Zap at 0
	if len(data) != 1 || data[0].Combo[0] != "Musketeer" {
		t.Errorf("data = %v, want only the Musketeer combo", data)
	}
}

func TestStoreFailureMapsToInternalError(t *testing.T) {
	mux := testMux(&fakeSource{err: context.DeadlineExceeded})

	rec, env := doGet(t, mux, "/api/analytics/win-loss-percentage-by-card?cardName=Giant&start=2025-01-01&end=2025-01-05")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if env.Success {
		t.Error("success = true, want false")
	}
	if env.Error == "" {
		t.Error("expected underlying error to be surfaced")
	}
}

func TestUnknownRouteEnvelope(t *testing.T) {
	mux := testMux(testPopulation())

	rec, env := doGet(t, mux, "/api/analytics/nope")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if env.Success || !strings.Contains(env.Message, "route not found") {
		t.Errorf("unexpected envelope: %+v", env)
	}
}
