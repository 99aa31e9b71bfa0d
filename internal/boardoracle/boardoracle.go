// Package boardoracle is the Board Oracle boundary collaborator (spec §4.2):
// it applies a SAN move to a FEN position and yields the move's UCI form
// and the resulting FEN. Legal-move generation and FEN encoding are
// implemented here as a self-contained mailbox board — there is no Go
// FEN/SAN library in the retrieval pack to depend on (see DESIGN.md) — but
// the engineering effort is intentionally proportionate to a boundary
// shim: this is out of the analysis pipeline's core (spec §1).
package boardoracle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eloinsight/tempolens/internal/model"
)

// InitialFEN is the standard starting position.
const InitialFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Position is a mailbox chess position: a1=0 .. h8=63, rank-major, file a-h.
type Position struct {
	board     [64]byte // 0 = empty, else one of "PNBRQKpnbrqk"
	side      model.Color
	castleWK  bool
	castleWQ  bool
	castleBK  bool
	castleBQ  bool
	epSquare  int // -1 if none
	halfmove  int
	fullmove  int
}

// Move is one pseudo-legal or legal move on a Position.
type Move struct {
	From, To    int
	Piece       byte
	Promotion   byte // 0 or one of 'q','r','b','n'
	Capture     bool
	IsEnPassant bool
	CastleSide  byte // 0, 'K', or 'Q'
}

func fileOf(sq int) int { return sq % 8 }
func rankOf(sq int) int { return sq / 8 }
func sqOf(file, rank int) int { return rank*8 + file }

func inBounds(file, rank int) bool { return file >= 0 && file < 8 && rank >= 0 && rank < 8 }

func squareName(sq int) string {
	return string(rune('a'+fileOf(sq))) + string(rune('1'+rankOf(sq)))
}

func parseSquareName(s string) (int, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("invalid square %q", s)
	}
	file := int(s[0] - 'a')
	rank := int(s[1] - '1')
	if !inBounds(file, rank) {
		return 0, fmt.Errorf("invalid square %q", s)
	}
	return sqOf(file, rank), nil
}

func isWhitePiece(p byte) bool { return p >= 'A' && p <= 'Z' }
func isBlackPiece(p byte) bool { return p >= 'a' && p <= 'z' }

func pieceColor(p byte) model.Color {
	if isWhitePiece(p) {
		return model.White
	}
	return model.Black
}

func upperType(p byte) byte {
	if p >= 'a' && p <= 'z' {
		return p - ('a' - 'A')
	}
	return p
}

// DecodeFEN parses a FEN string into a Position.
func DecodeFEN(fen string) (Position, error) {
	var pos Position
	pos.epSquare = -1

	fields := strings.Fields(strings.TrimSpace(fen))
	if len(fields) < 4 {
		return pos, fmt.Errorf("invalid FEN %q: too few fields", fen)
	}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return pos, fmt.Errorf("invalid FEN %q: must have 8 ranks", fen)
	}
	for i, rankStr := range ranks {
		rank := 7 - i
		file := 0
		for _, r := range rankStr {
			switch {
			case r >= '1' && r <= '8':
				file += int(r - '0')
			case strings.ContainsRune("PNBRQKpnbrqk", r):
				if file >= 8 {
					return pos, fmt.Errorf("invalid FEN %q: rank overflow", fen)
				}
				pos.board[sqOf(file, rank)] = byte(r)
				file++
			default:
				return pos, fmt.Errorf("invalid FEN %q: bad piece %q", fen, r)
			}
		}
		if file != 8 {
			return pos, fmt.Errorf("invalid FEN %q: rank %d has %d squares", fen, i, file)
		}
	}

	switch fields[1] {
	case "w":
		pos.side = model.White
	case "b":
		pos.side = model.Black
	default:
		return pos, fmt.Errorf("invalid FEN %q: bad side to move %q", fen, fields[1])
	}

	castling := fields[2]
	pos.castleWK = strings.Contains(castling, "K")
	pos.castleWQ = strings.Contains(castling, "Q")
	pos.castleBK = strings.Contains(castling, "k")
	pos.castleBQ = strings.Contains(castling, "q")

	if fields[3] != "-" {
		sq, err := parseSquareName(fields[3])
		if err != nil {
			return pos, fmt.Errorf("invalid FEN %q: bad en passant square: %w", fen, err)
		}
		pos.epSquare = sq
	}

	if len(fields) >= 5 {
		pos.halfmove, _ = strconv.Atoi(fields[4])
	}
	pos.fullmove = 1
	if len(fields) >= 6 {
		if n, err := strconv.Atoi(fields[5]); err == nil && n > 0 {
			pos.fullmove = n
		}
	}

	return pos, nil
}

// EncodeFEN serializes a Position back to FEN text.
func EncodeFEN(pos Position) string {
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		rank := 7 - i
		empty := 0
		for file := 0; file < 8; file++ {
			p := pos.board[sqOf(file, rank)]
			if p == 0 {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteByte(p)
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if i != 7 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if pos.side == model.White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	sb.WriteByte(' ')
	castling := ""
	if pos.castleWK {
		castling += "K"
	}
	if pos.castleWQ {
		castling += "Q"
	}
	if pos.castleBK {
		castling += "k"
	}
	if pos.castleBQ {
		castling += "q"
	}
	if castling == "" {
		castling = "-"
	}
	sb.WriteString(castling)

	sb.WriteByte(' ')
	if pos.epSquare < 0 {
		sb.WriteByte('-')
	} else {
		sb.WriteString(squareName(pos.epSquare))
	}

	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(pos.halfmove))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(pos.fullmove))

	return sb.String()
}

// Resolve applies a SAN move to the position encoded by fen and returns the
// move's UCI form and the resulting FEN. It fails if the SAN cannot be
// parsed, is illegal, or is ambiguous in the given position.
func Resolve(fen, san string) (uci string, fenAfter string, err error) {
	pos, err := DecodeFEN(fen)
	if err != nil {
		return "", "", err
	}

	legal := legalMoves(pos)
	normalized := normalizeSAN(san)

	var match *Move
	for i := range legal {
		if sanFor(pos, legal[i], legal) == normalized {
			if match != nil {
				return "", "", fmt.Errorf("ambiguous SAN %q in position %q", san, fen)
			}
			m := legal[i]
			match = &m
		}
	}
	if match == nil {
		return "", "", fmt.Errorf("illegal or unparseable SAN %q in position %q", san, fen)
	}

	next := applyMove(pos, *match)
	return uciFor(*match), EncodeFEN(next), nil
}

func normalizeSAN(san string) string {
	s := strings.TrimSpace(san)
	s = strings.TrimRight(s, "!?")
	s = strings.TrimSuffix(s, "+")
	s = strings.TrimSuffix(s, "#")
	s = strings.ReplaceAll(s, "0-0-0", "O-O-O")
	s = strings.ReplaceAll(s, "0-0", "O-O")
	if idx := strings.Index(s, " e.p."); idx >= 0 {
		s = s[:idx]
	}
	return s
}

func uciFor(m Move) string {
	s := squareName(m.From) + squareName(m.To)
	if m.Promotion != 0 {
		s += string(m.Promotion)
	}
	return s
}

// sanFor computes the canonical SAN for a legal move given the full legal
// move list (for disambiguation), without check/mate decoration: matching
// is done against a SAN stripped of +/#, so the generator need not detect
// check.
func sanFor(pos Position, m Move, legal []Move) string {
	if m.CastleSide == 'K' {
		return "O-O"
	}
	if m.CastleSide == 'Q' {
		return "O-O-O"
	}

	pieceType := upperType(m.Piece)
	if pieceType == 'P' {
		var sb strings.Builder
		if m.Capture {
			sb.WriteByte(byte('a' + fileOf(m.From)))
			sb.WriteByte('x')
		}
		sb.WriteString(squareName(m.To))
		if m.Promotion != 0 {
			sb.WriteByte('=')
			sb.WriteByte(upperType(m.Promotion))
		}
		return sb.String()
	}

	var sb strings.Builder
	sb.WriteByte(pieceType)

	sameFile, sameRank, any := false, false, false
	for _, other := range legal {
		if other.From == m.From {
			continue
		}
		if upperType(other.Piece) != pieceType || other.To != m.To {
			continue
		}
		any = true
		if fileOf(other.From) == fileOf(m.From) {
			sameFile = true
		}
		if rankOf(other.From) == rankOf(m.From) {
			sameRank = true
		}
	}
	if any {
		switch {
		case !sameFile:
			sb.WriteByte(byte('a' + fileOf(m.From)))
		case !sameRank:
			sb.WriteByte(byte('1' + rankOf(m.From)))
		default:
			sb.WriteString(squareName(m.From))
		}
	}

	if m.Capture {
		sb.WriteByte('x')
	}
	sb.WriteString(squareName(m.To))
	return sb.String()
}

// legalMoves returns every legal move for the side to move: pseudo-legal
// generation followed by a king-safety filter.
func legalMoves(pos Position) []Move {
	pseudo := pseudoLegalMoves(pos)
	out := make([]Move, 0, len(pseudo))
	for _, m := range pseudo {
		next := applyMove(pos, m)
		if !isAttacked(next, kingSquare(next, pos.side), pos.side.Opposite()) {
			out = append(out, m)
		}
	}
	return out
}

func kingSquare(pos Position, c model.Color) int {
	target := byte('K')
	if c == model.Black {
		target = 'k'
	}
	for sq := 0; sq < 64; sq++ {
		if pos.board[sq] == target {
			return sq
		}
	}
	return -1
}

var knightOffsets = [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
var kingOffsets = [][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
var bishopDirs = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var rookDirs = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

func pseudoLegalMoves(pos Position) []Move {
	var moves []Move
	for sq := 0; sq < 64; sq++ {
		p := pos.board[sq]
		if p == 0 || pieceColor(p) != pos.side {
			continue
		}
		switch upperType(p) {
		case 'P':
			moves = append(moves, pawnMoves(pos, sq, p)...)
		case 'N':
			moves = append(moves, jumpMoves(pos, sq, p, knightOffsets)...)
		case 'K':
			moves = append(moves, jumpMoves(pos, sq, p, kingOffsets)...)
			moves = append(moves, castleMoves(pos)...)
		case 'B':
			moves = append(moves, slideMoves(pos, sq, p, bishopDirs)...)
		case 'R':
			moves = append(moves, slideMoves(pos, sq, p, rookDirs)...)
		case 'Q':
			moves = append(moves, slideMoves(pos, sq, p, bishopDirs)...)
			moves = append(moves, slideMoves(pos, sq, p, rookDirs)...)
		}
	}
	return moves
}

func pawnMoves(pos Position, sq int, p byte) []Move {
	var moves []Move
	file, rank := fileOf(sq), rankOf(sq)
	forward := 1
	startRank, lastRank := 1, 7
	if pos.side == model.Black {
		forward = -1
		startRank, lastRank = 6, 0
	}

	addPromoOrPlain := func(from, to int, capture bool) {
		if rankOf(to) == lastRank {
			for _, promo := range []byte{'q', 'r', 'b', 'n'} {
				moves = append(moves, Move{From: from, To: to, Piece: p, Capture: capture, Promotion: promo})
			}
		} else {
			moves = append(moves, Move{From: from, To: to, Piece: p, Capture: capture})
		}
	}

	oneStep := rank + forward
	if inBounds(file, oneStep) && pos.board[sqOf(file, oneStep)] == 0 {
		addPromoOrPlain(sq, sqOf(file, oneStep), false)
		twoStep := rank + 2*forward
		if rank == startRank && inBounds(file, twoStep) && pos.board[sqOf(file, twoStep)] == 0 {
			moves = append(moves, Move{From: sq, To: sqOf(file, twoStep), Piece: p})
		}
	}

	for _, df := range []int{-1, 1} {
		cf := file + df
		cr := rank + forward
		if !inBounds(cf, cr) {
			continue
		}
		to := sqOf(cf, cr)
		target := pos.board[to]
		if target != 0 && pieceColor(target) != pos.side {
			addPromoOrPlain(sq, to, true)
		} else if pos.epSquare == to {
			moves = append(moves, Move{From: sq, To: to, Piece: p, Capture: true, IsEnPassant: true})
		}
	}

	return moves
}

func jumpMoves(pos Position, sq int, p byte, offsets [][2]int) []Move {
	var moves []Move
	file, rank := fileOf(sq), rankOf(sq)
	for _, off := range offsets {
		nf, nr := file+off[0], rank+off[1]
		if !inBounds(nf, nr) {
			continue
		}
		to := sqOf(nf, nr)
		target := pos.board[to]
		if target == 0 {
			moves = append(moves, Move{From: sq, To: to, Piece: p})
		} else if pieceColor(target) != pos.side {
			moves = append(moves, Move{From: sq, To: to, Piece: p, Capture: true})
		}
	}
	return moves
}

func slideMoves(pos Position, sq int, p byte, dirs [][2]int) []Move {
	var moves []Move
	file, rank := fileOf(sq), rankOf(sq)
	for _, dir := range dirs {
		nf, nr := file+dir[0], rank+dir[1]
		for inBounds(nf, nr) {
			to := sqOf(nf, nr)
			target := pos.board[to]
			if target == 0 {
				moves = append(moves, Move{From: sq, To: to, Piece: p})
			} else {
				if pieceColor(target) != pos.side {
					moves = append(moves, Move{From: sq, To: to, Piece: p, Capture: true})
				}
				break
			}
			nf += dir[0]
			nr += dir[1]
		}
	}
	return moves
}

func castleMoves(pos Position) []Move {
	var moves []Move
	opp := pos.side.Opposite()

	if pos.side == model.White {
		if pos.castleWK && pos.board[5] == 0 && pos.board[6] == 0 &&
			!isAttacked(pos, 4, opp) && !isAttacked(pos, 5, opp) && !isAttacked(pos, 6, opp) {
			moves = append(moves, Move{From: 4, To: 6, Piece: 'K', CastleSide: 'K'})
		}
		if pos.castleWQ && pos.board[3] == 0 && pos.board[2] == 0 && pos.board[1] == 0 &&
			!isAttacked(pos, 4, opp) && !isAttacked(pos, 3, opp) && !isAttacked(pos, 2, opp) {
			moves = append(moves, Move{From: 4, To: 2, Piece: 'K', CastleSide: 'Q'})
		}
	} else {
		if pos.castleBK && pos.board[61] == 0 && pos.board[62] == 0 &&
			!isAttacked(pos, 60, opp) && !isAttacked(pos, 61, opp) && !isAttacked(pos, 62, opp) {
			moves = append(moves, Move{From: 60, To: 62, Piece: 'k', CastleSide: 'K'})
		}
		if pos.castleBQ && pos.board[59] == 0 && pos.board[58] == 0 && pos.board[57] == 0 &&
			!isAttacked(pos, 60, opp) && !isAttacked(pos, 59, opp) && !isAttacked(pos, 58, opp) {
			moves = append(moves, Move{From: 60, To: 58, Piece: 'k', CastleSide: 'Q'})
		}
	}
	return moves
}

// isAttacked reports whether sq is attacked by any piece of color by.
func isAttacked(pos Position, sq int, by model.Color) bool {
	if sq < 0 {
		return false
	}
	file, rank := fileOf(sq), rankOf(sq)

	pawnForward := -1 // a white pawn attacking sq moves "up" towards sq, i.e. sq-1 rank relative to attacker
	if by == model.Black {
		pawnForward = 1
	}
	for _, df := range []int{-1, 1} {
		af, ar := file+df, rank+pawnForward
		if !inBounds(af, ar) {
			continue
		}
		p := pos.board[sqOf(af, ar)]
		if p != 0 && pieceColor(p) == by && upperType(p) == 'P' {
			return true
		}
	}

	for _, off := range knightOffsets {
		nf, nr := file+off[0], rank+off[1]
		if !inBounds(nf, nr) {
			continue
		}
		p := pos.board[sqOf(nf, nr)]
		if p != 0 && pieceColor(p) == by && upperType(p) == 'N' {
			return true
		}
	}

	for _, off := range kingOffsets {
		nf, nr := file+off[0], rank+off[1]
		if !inBounds(nf, nr) {
			continue
		}
		p := pos.board[sqOf(nf, nr)]
		if p != 0 && pieceColor(p) == by && upperType(p) == 'K' {
			return true
		}
	}

	for _, dir := range bishopDirs {
		nf, nr := file+dir[0], rank+dir[1]
		for inBounds(nf, nr) {
			p := pos.board[sqOf(nf, nr)]
			if p != 0 {
				if pieceColor(p) == by && (upperType(p) == 'B' || upperType(p) == 'Q') {
					return true
				}
				break
			}
			nf += dir[0]
			nr += dir[1]
		}
	}

	for _, dir := range rookDirs {
		nf, nr := file+dir[0], rank+dir[1]
		for inBounds(nf, nr) {
			p := pos.board[sqOf(nf, nr)]
			if p != 0 {
				if pieceColor(p) == by && (upperType(p) == 'R' || upperType(p) == 'Q') {
					return true
				}
				break
			}
			nf += dir[0]
			nr += dir[1]
		}
	}

	return false
}

// applyMove returns the position after playing m, with castling rights,
// en passant target, and move counters updated.
func applyMove(pos Position, m Move) Position {
	next := pos
	next.epSquare = -1

	mover := m.Piece
	next.board[m.From] = 0

	if m.IsEnPassant {
		capSq := sqOf(fileOf(m.To), rankOf(m.From))
		next.board[capSq] = 0
	}

	if m.Promotion != 0 {
		if pos.side == model.White {
			next.board[m.To] = upperType(m.Promotion)
		} else {
			next.board[m.To] = m.Promotion
		}
	} else {
		next.board[m.To] = mover
	}

	if m.CastleSide == 'K' {
		if pos.side == model.White {
			next.board[5], next.board[7] = 'R', 0
		} else {
			next.board[61], next.board[63] = 'r', 0
		}
	} else if m.CastleSide == 'Q' {
		if pos.side == model.White {
			next.board[3], next.board[0] = 'R', 0
		} else {
			next.board[59], next.board[56] = 'r', 0
		}
	}

	if upperType(mover) == 'P' && abs(rankOf(m.To)-rankOf(m.From)) == 2 {
		next.epSquare = sqOf(fileOf(m.From), (rankOf(m.From)+rankOf(m.To))/2)
	}

	switch m.From {
	case 4:
		next.castleWK, next.castleWQ = false, false
	case 60:
		next.castleBK, next.castleBQ = false, false
	case 0:
		next.castleWQ = false
	case 7:
		next.castleWK = false
	case 56:
		next.castleBQ = false
	case 63:
		next.castleBK = false
	}
	switch m.To {
	case 0:
		next.castleWQ = false
	case 7:
		next.castleWK = false
	case 56:
		next.castleBQ = false
	case 63:
		next.castleBK = false
	}

	if upperType(mover) == 'P' || m.Capture {
		next.halfmove = 0
	} else {
		next.halfmove++
	}

	if pos.side == model.Black {
		next.fullmove++
	}
	next.side = pos.side.Opposite()

	return next
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
