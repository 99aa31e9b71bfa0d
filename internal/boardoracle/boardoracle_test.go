package boardoracle

import "testing"

func TestDecodeEncodeFENRoundTrip(t *testing.T) {
	cases := []string{
		InitialFEN,
		"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
		"8/8/8/4k3/8/8/4K3/8 w - - 5 40",
	}
	for _, fen := range cases {
		pos, err := DecodeFEN(fen)
		if err != nil {
			t.Fatalf("DecodeFEN(%q) error = %v", fen, err)
		}
		if got := EncodeFEN(pos); got != fen {
			t.Errorf("EncodeFEN(DecodeFEN(%q)) = %q, want %q", fen, got, fen)
		}
	}
}

func TestDecodeFENRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq", // too few fields
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",       // not 8 ranks
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"nbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", // rank too short (7 squares)
	}
	for _, fen := range cases {
		if _, err := DecodeFEN(fen); err == nil {
			t.Errorf("DecodeFEN(%q) error = nil, want an error", fen)
		}
	}
}

func TestResolveBasicPawnMove(t *testing.T) {
	uci, fenAfter, err := Resolve(InitialFEN, "e4")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if uci != "e2e4" {
		t.Errorf("uci = %q, want e2e4", uci)
	}
	wantFEN := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	if fenAfter != wantFEN {
		t.Errorf("fenAfter = %q, want %q", fenAfter, wantFEN)
	}
}

func TestResolveKnightMove(t *testing.T) {
	uci, _, err := Resolve(InitialFEN, "Nf3")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if uci != "g1f3" {
		t.Errorf("uci = %q, want g1f3", uci)
	}
}

func TestResolveCapture(t *testing.T) {
	fen := "rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 2"
	uci, _, err := Resolve(fen, "exd5")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if uci != "e4d5" {
		t.Errorf("uci = %q, want e4d5", uci)
	}
}

func TestResolveEnPassant(t *testing.T) {
	// White pawn on e5, black just played d7-d5 making d6 the ep square.
	fen := "rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3"
	uci, fenAfter, err := Resolve(fen, "exd6")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if uci != "e5d6" {
		t.Errorf("uci = %q, want e5d6", uci)
	}
	// The captured black pawn on d5 should be gone.
	pos, _ := DecodeFEN(fenAfter)
	if pos.board[sqOf(3, 4)] != 0 {
		t.Errorf("captured en passant pawn still present on d5")
	}
}

func TestResolveCastling(t *testing.T) {
	fen := "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"
	uci, fenAfter, err := Resolve(fen, "O-O")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if uci != "e1g1" {
		t.Errorf("uci = %q, want e1g1", uci)
	}
	pos, _ := DecodeFEN(fenAfter)
	if pos.board[sqOf(6, 0)] != 'K' || pos.board[sqOf(5, 0)] != 'R' {
		t.Errorf("castling did not reposition king/rook correctly")
	}
}

func TestResolvePromotion(t *testing.T) {
	fen := "8/4P1k1/8/8/8/8/6K1/8 w - - 0 1"
	uci, fenAfter, err := Resolve(fen, "e8=Q")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if uci != "e7e8q" {
		t.Errorf("uci = %q, want e7e8q", uci)
	}
	pos, _ := DecodeFEN(fenAfter)
	if pos.board[sqOf(4, 7)] != 'Q' {
		t.Errorf("promoted square = %q, want Q", string(pos.board[sqOf(4, 7)]))
	}
}

func TestResolveDisambiguation(t *testing.T) {
	// Two white knights can both reach d4: one on b3 and one on f3.
	fen := "8/8/8/8/8/1N3N2/8/4K2k w - - 0 1"
	uci, _, err := Resolve(fen, "Nbd4")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if uci != "b3d4" {
		t.Errorf("uci = %q, want b3d4", uci)
	}

	uci2, _, err := Resolve(fen, "Nfd4")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if uci2 != "f3d4" {
		t.Errorf("uci = %q, want f3d4", uci2)
	}
}

func TestResolveIllegalMoveRejected(t *testing.T) {
	if _, _, err := Resolve(InitialFEN, "e5"); err == nil {
		t.Error("Resolve(e5) error = nil, want an error (two squares forward without a piece on e4 path is fine, but e5 is unreachable in one pawn move)")
	}
	if _, _, err := Resolve(InitialFEN, "Qh5"); err == nil {
		t.Error("Resolve(Qh5) error = nil, want an error (queen is blocked)")
	}
}

func TestResolveAmbiguousSANRejected(t *testing.T) {
	// Two white rooks can both reach d1 with no disambiguation given.
	fen := "3k4/8/8/8/8/8/8/R5RK w - - 0 1"
	if _, _, err := Resolve(fen, "Rd1"); err == nil {
		t.Error("Resolve(Rd1) error = nil, want an ambiguous-move error")
	}
}

func TestResolveCheckDecorationIgnored(t *testing.T) {
	uci, _, err := Resolve(InitialFEN, "Nf3+")
	if err != nil {
		t.Fatalf("Resolve(Nf3+) error = %v", err)
	}
	if uci != "g1f3" {
		t.Errorf("uci = %q, want g1f3", uci)
	}
}
