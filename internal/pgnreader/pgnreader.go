// Package pgnreader tokenizes PGN text into header maps and raw per-ply
// move/clock records. It is the PGN Reader boundary collaborator (spec §4.1):
// legal-move application and FEN derivation are out of scope here and are
// the Board Oracle's job (internal/boardoracle).
package pgnreader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/eloinsight/tempolens/internal/model"
)

// ParsedGame is one game's header map and ordered raw plies. Variations
// (parenthesized side lines) are skipped entirely.
type ParsedGame struct {
	Headers map[string]string
	Plies   []model.RawPly
}

var (
	headerLineRE = regexp.MustCompile(`(?m)^\[(\w+)\s+"((?:[^"\\]|\\.)*)"\]\s*$`)
	clkRE        = regexp.MustCompile(`\[%clk\s*([0-9]+):([0-9]{1,2})(?::([0-9]{1,2}))?\]`)
	resultRE     = regexp.MustCompile(`(1-0|0-1|1/2-1/2|\*)\s*$`)
	moveNumRE    = regexp.MustCompile(`\d+\.(\.\.)?\.?`)
)

// ParseGames splits PGN text containing one or more games into ParsedGames.
// It returns a fatal error only when no games can be recovered at all.
func ParseGames(pgn string) ([]ParsedGame, error) {
	blocks := splitGames(pgn)
	if len(blocks) == 0 {
		return nil, fmt.Errorf("PGN parse failed: no games found in input")
	}

	games := make([]ParsedGame, 0, len(blocks))
	for _, block := range blocks {
		game, err := parseOneGame(block)
		if err != nil {
			return nil, fmt.Errorf("PGN parse failed: %w", err)
		}
		games = append(games, game)
	}
	return games, nil
}

// ParseSingleGame parses PGN text expected to hold exactly one game.
func ParseSingleGame(pgn string) (ParsedGame, error) {
	games, err := ParseGames(pgn)
	if err != nil {
		return ParsedGame{}, err
	}
	if len(games) != 1 {
		return ParsedGame{}, fmt.Errorf("PGN parse failed: expected exactly one game, found %d", len(games))
	}
	return games[0], nil
}

// splitGames breaks a multi-game PGN document into per-game text blocks, a
// new game starting at each run of header lines following movetext (or at
// the very start of the document).
func splitGames(pgn string) []string {
	lines := strings.Split(pgn, "\n")
	var blocks []string
	var cur []string
	inMovetext := false

	flush := func() {
		if len(cur) > 0 && strings.TrimSpace(strings.Join(cur, "\n")) != "" {
			blocks = append(blocks, strings.Join(cur, "\n"))
		}
		cur = nil
		inMovetext = false
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		isHeader := strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")
		if isHeader && inMovetext {
			flush()
		}
		if trimmed != "" {
			if isHeader {
				cur = append(cur, line)
			} else {
				inMovetext = true
				cur = append(cur, line)
			}
		} else if len(cur) > 0 {
			cur = append(cur, line)
		}
	}
	flush()
	return blocks
}

func parseOneGame(block string) (ParsedGame, error) {
	headers := make(map[string]string)
	for _, m := range headerLineRE.FindAllStringSubmatch(block, -1) {
		key := m[1]
		val := strings.ReplaceAll(m[2], `\"`, `"`)
		val = strings.ReplaceAll(val, `\\`, `\`)
		headers[key] = val
	}

	movetext := headerLineRE.ReplaceAllString(block, "")
	plies := tokenizeMovetext(movetext)

	return ParsedGame{Headers: headers, Plies: plies}, nil
}

// tokenizeMovetext walks the movetext character by character, skipping
// `( ... )` variations (with nesting) while extracting SAN tokens and the
// `{ ... }` comment immediately following each one.
func tokenizeMovetext(movetext string) []model.RawPly {
	var plies []model.RawPly

	runes := []rune(movetext)
	i := 0
	depth := 0

	for i < len(runes) {
		switch {
		case runes[i] == '(':
			depth++
			i++
		case runes[i] == ')':
			if depth > 0 {
				depth--
			}
			i++
		case depth > 0:
			i++
		case runes[i] == '{':
			// A comment attaches to the most recent ply; one that comes
			// before any move (e.g. a pre-game annotation) is dropped.
			end := strings.IndexRune(string(runes[i+1:]), '}')
			if end < 0 {
				i = len(runes)
				break
			}
			comment := string(runes[i+1 : i+1+end])
			if len(plies) > 0 {
				applyComment(&plies[len(plies)-1], comment)
			}
			i = i + 1 + end + 1
		case runes[i] == ';':
			// Rest-of-line comment.
			nl := strings.IndexRune(string(runes[i:]), '\n')
			if nl < 0 {
				i = len(runes)
			} else {
				i += nl
			}
		case runes[i] == ' ' || runes[i] == '\t' || runes[i] == '\n' || runes[i] == '\r':
			i++
		default:
			j := i
			for j < len(runes) && !strings.ContainsRune(" \t\n\r(){};", runes[j]) {
				j++
			}
			token := string(runes[i:j])
			i = j
			if isMoveToken(token) {
				plies = append(plies, model.RawPly{SAN: token})
			}
		}
	}

	return plies
}

func isMoveToken(token string) bool {
	if token == "" {
		return false
	}
	if resultRE.MatchString(token) {
		return false
	}
	if moveNumRE.MatchString(token) && moveNumRE.FindString(token) == token {
		return false
	}
	// Strip a leading move number like "12." or "12...".
	if idx := moveNumRE.FindStringIndex(token); idx != nil && idx[0] == 0 {
		token = token[idx[1]:]
	}
	if token == "" {
		return false
	}
	if strings.HasPrefix(token, "$") {
		return false // NAG annotation
	}
	return true
}

func applyComment(ply *model.RawPly, comment string) {
	if ply.Comment != "" {
		ply.Comment += " " + comment
	} else {
		ply.Comment = comment
	}
	if clk, ok := ParseClockComment(comment); ok && ply.ClockAfterSecs == nil {
		ply.ClockAfterSecs = &clk
	}
}

// ParseClockComment extracts the first `[%clk H:MM[:SS]]` annotation from a
// PGN comment string, per spec.md §6's grammar: at least one digit for
// hours, 1-2 for minutes, 1-2 for seconds, minutes and seconds in [0,59].
func ParseClockComment(comment string) (float64, bool) {
	m := clkRE.FindStringSubmatch(comment)
	if m == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	if minutes > 59 {
		return 0, false
	}
	if m[3] == "" {
		return float64(hours*60 + minutes), true
	}
	seconds, _ := strconv.Atoi(m[3])
	if seconds > 59 {
		return 0, false
	}
	return float64(hours*3600 + minutes*60 + seconds), true
}

// DetectPlatform infers SourcePlatform from the Site/Event headers.
func DetectPlatform(headers map[string]string) model.SourcePlatform {
	hint := strings.ToLower(headers["Site"])
	if hint == "" {
		hint = strings.ToLower(headers["Event"])
	}
	switch {
	case strings.Contains(hint, "lichess"):
		return model.Lichess
	case strings.Contains(hint, "chess.com"), strings.Contains(hint, "chesscom"):
		return model.ChessCom
	default:
		return model.Unknown
	}
}

// ParseTimeControlHeader parses the PGN TimeControl header, if present.
func ParseTimeControlHeader(headers map[string]string) (model.TimeControl, bool) {
	tc, ok := headers["TimeControl"]
	if !ok {
		return model.TimeControl{}, false
	}
	return ParseTimeControlValue(tc)
}

// ParseTimeControlValue parses a TimeControl grammar string: "base[+inc]",
// with "-" meaning absent.
func ParseTimeControlValue(tc string) (model.TimeControl, bool) {
	if tc == "-" || tc == "" {
		return model.TimeControl{}, false
	}
	parts := strings.SplitN(tc, "+", 2)
	base, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return model.TimeControl{}, false
	}
	var inc uint64
	if len(parts) == 2 {
		inc, err = strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			inc = 0
		}
	}
	return model.TimeControl{BaseSecs: uint32(base), IncrementSecs: uint32(inc)}, true
}
