package pgnreader

import (
	"testing"

	"github.com/eloinsight/tempolens/internal/model"
)

func TestParseClockComment(t *testing.T) {
	cases := []struct {
		name    string
		comment string
		want    float64
		wantOk  bool
	}{
		{"hours minutes seconds", "[%clk 0:3:0]", 180, true},
		{"hours minutes seconds 2", "[%clk 0:2:5]", 125, true},
		{"hours only two digits", "[%clk 1:00:00]", 3600, true},
		{"minutes seconds no hours digit collapse", "[%clk 0:0:1]", 1, true},
		{"minutes overflow rejected", "[%clk 0:60:00]", 0, false},
		{"seconds overflow rejected", "[%clk 0:00:60]", 0, false},
		{"no clk annotation", "[%eval 0.3]", 0, false},
		{"embedded in longer comment", "some note [%clk 0:10:30] trailing", 630, true},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseClockComment(tt.comment)
			if ok != tt.wantOk {
				t.Fatalf("ParseClockComment(%q) ok = %v, want %v", tt.comment, ok, tt.wantOk)
			}
			if ok && got != tt.want {
				t.Errorf("ParseClockComment(%q) = %v, want %v", tt.comment, got, tt.want)
			}
		})
	}
}

func TestDetectPlatform(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		want    model.SourcePlatform
	}{
		{"lichess site", map[string]string{"Site": "https://lichess.org/abcd1234"}, model.Lichess},
		{"chess.com site", map[string]string{"Site": "Chess.com"}, model.ChessCom},
		{"chesscom no dot", map[string]string{"Site": "chesscom game"}, model.ChessCom},
		{"event fallback", map[string]string{"Event": "Lichess Rated Blitz"}, model.Lichess},
		{"unrecognized", map[string]string{"Site": "OTB Tournament"}, model.Unknown},
		{"no headers", map[string]string{}, model.Unknown},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectPlatform(tt.headers); got != tt.want {
				t.Errorf("DetectPlatform(%v) = %v, want %v", tt.headers, got, tt.want)
			}
		})
	}
}

func TestParseTimeControlValue(t *testing.T) {
	cases := []struct {
		name     string
		value    string
		wantOk   bool
		wantBase uint32
		wantIncr uint32
	}{
		{"dash means absent", "-", false, 0, 0},
		{"empty means absent", "", false, 0, 0},
		{"base only", "600", true, 600, 0},
		{"base plus increment", "180+2", true, 180, 2},
		{"malformed base", "abc", false, 0, 0},
		{"malformed increment ignored as zero", "180+xyz", true, 180, 0},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimeControlValue(tt.value)
			if ok != tt.wantOk {
				t.Fatalf("ParseTimeControlValue(%q) ok = %v, want %v", tt.value, ok, tt.wantOk)
			}
			if !ok {
				return
			}
			if got.BaseSecs != tt.wantBase || got.IncrementSecs != tt.wantIncr {
				t.Errorf("ParseTimeControlValue(%q) = %+v, want base=%d incr=%d", tt.value, got, tt.wantBase, tt.wantIncr)
			}
		})
	}
}

func TestParseSingleGameBasicMovetext(t *testing.T) {
	pgn := `[Event "Test"]
[Site "https://lichess.org/abcd1234"]
[TimeControl "180+2"]

1. e4 { [%clk 0:3:2] } e5 { [%clk 0:3:1] } 2. Nf3 { [%clk 0:3:0] } Nc6 { [%clk 0:2:59] } 1-0`

	game, err := ParseSingleGame(pgn)
	if err != nil {
		t.Fatalf("ParseSingleGame() error = %v", err)
	}
	if got, want := len(game.Plies), 4; got != want {
		t.Fatalf("len(Plies) = %d, want %d", got, want)
	}

	wantSAN := []string{"e4", "e5", "Nf3", "Nc6"}
	for i, san := range wantSAN {
		if game.Plies[i].SAN != san {
			t.Errorf("Plies[%d].SAN = %q, want %q", i, game.Plies[i].SAN, san)
		}
		if game.Plies[i].ClockAfterSecs == nil {
			t.Errorf("Plies[%d].ClockAfterSecs = nil, want a value", i)
		}
	}

	if game.Headers["Event"] != "Test" {
		t.Errorf("Headers[Event] = %q, want Test", game.Headers["Event"])
	}
}

func TestParseSingleGameSkipsVariations(t *testing.T) {
	pgn := `[Event "Test"]

1. e4 (1. d4 d5 2. c4) e5 2. Nf3 Nc6 *`

	game, err := ParseSingleGame(pgn)
	if err != nil {
		t.Fatalf("ParseSingleGame() error = %v", err)
	}

	wantSAN := []string{"e4", "e5", "Nf3", "Nc6"}
	if len(game.Plies) != len(wantSAN) {
		t.Fatalf("len(Plies) = %d, want %d (got %+v)", len(game.Plies), len(wantSAN), game.Plies)
	}
	for i, san := range wantSAN {
		if game.Plies[i].SAN != san {
			t.Errorf("Plies[%d].SAN = %q, want %q", i, game.Plies[i].SAN, san)
		}
	}
}

func TestParseGamesMultipleGamesInOneDocument(t *testing.T) {
	pgn := `[Event "Game One"]

1. e4 e5 1-0

[Event "Game Two"]

1. d4 d5 0-1
`
	games, err := ParseGames(pgn)
	if err != nil {
		t.Fatalf("ParseGames() error = %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("len(games) = %d, want 2", len(games))
	}
	if games[0].Headers["Event"] != "Game One" || games[1].Headers["Event"] != "Game Two" {
		t.Errorf("unexpected headers: %+v / %+v", games[0].Headers, games[1].Headers)
	}
}

func TestParseGamesNoGamesFound(t *testing.T) {
	_, err := ParseGames("   \n\n  ")
	if err == nil {
		t.Fatal("ParseGames() error = nil, want an error for empty input")
	}
}
