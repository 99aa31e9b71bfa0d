// Package model holds the data types shared across the analysis pipeline:
// PGN-derived records, engine output, derived metrics, and the labeled
// per-ply and per-game analysis documents returned to callers.
package model

// Color is a side to move or a mover.
type Color int

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// MarshalJSON encodes Color as the lowercase side name rather than an int,
// matching how the rest of the document is JSON-friendly.
func (c Color) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// Opposite returns the other color.
func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

// TimeControl is a base+increment pair parsed from a PGN TimeControl header.
type TimeControl struct {
	BaseSecs      uint32 `json:"base_secs"`
	IncrementSecs uint32 `json:"increment_secs"`
}

// SourcePlatform is the game archive a PGN was likely exported from,
// inferred from header substrings. It governs clock increment policy.
type SourcePlatform int

const (
	Unknown SourcePlatform = iota
	Lichess
	ChessCom
)

func (p SourcePlatform) String() string {
	switch p {
	case Lichess:
		return "lichess"
	case ChessCom:
		return "chess.com"
	default:
		return "unknown"
	}
}

func (p SourcePlatform) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// RawPly is a single parsed PGN move before board resolution: its SAN text
// and the post-move clock reading, if the move's comment carried one.
type RawPly struct {
	SAN             string
	ClockAfterSecs  *float64
	Comment         string
}

// PlyRecord is a ply after SAN has been resolved against a board and its
// clock reconstructed. FENBefore/FENAfter and UCI are mandatory once board
// resolution succeeds; the clock fields are optional throughout.
type PlyRecord struct {
	PlyIndex  int    `json:"ply_index"`
	SAN       string `json:"san"`
	UCI       string `json:"uci"`
	Mover     Color  `json:"mover"`
	FENBefore string `json:"fen_before"`
	FENAfter  string `json:"fen_after"`

	ClockAfterSecs  *float64 `json:"clock_after_secs"`
	ClockBeforeSecs *float64 `json:"clock_before_secs"`
	ThinkTimeSecs   *float64 `json:"think_time_secs"`
}

// EngineLine is one ranked principal variation from a multi-PV search. The
// Engine Driver fills CPWhite with the raw, side-to-move-signed score as
// the engine reported it; the Evaluation Normalizer flips it in place to
// White's perspective once the position's mover is known.
type EngineLine struct {
	MultiPV int    `json:"multipv"`
	UCI     string `json:"uci"`
	CPWhite int    `json:"cp_white"`
	Mate    *int   `json:"mate"`
}

// EngineSummary is the reduced result of one search: the deepest line seen
// per rank, plus derived mover-oriented quantities filled in by the
// Evaluation Normalizer. Like EngineLine, it is produced in raw
// (side-to-move-signed) orientation and normalized in place afterwards —
// the per-game FEN cache stores the raw form so a cached entry can be
// normalized independently for whichever mover color looks it up.
type EngineSummary struct {
	Depth int64 `json:"depth"`
	Nodes int64 `json:"nodes"`
	NPS   int64 `json:"nps"`
	Lines []EngineLine `json:"lines"`

	BestCPWhite   *int `json:"best_cp_white"`
	PlayedCPWhite *int `json:"played_cp_white"`

	PunishCPMover     *int `json:"punish_cp_mover"`
	SpreadKCPMover    *int `json:"spread_k_cp_mover"`
	Gap12CPMover      *int `json:"gap_12_cp_mover"`
	ComplexityCPMover *int `json:"complexity_cp_mover"`
}

// Clone returns a deep copy, used when serving a cached summary so callers
// can mutate their copy (e.g. normalize it) without corrupting the cache.
func (s EngineSummary) Clone() EngineSummary {
	out := s
	out.Lines = append([]EngineLine(nil), s.Lines...)
	if s.BestCPWhite != nil {
		v := *s.BestCPWhite
		out.BestCPWhite = &v
	}
	if s.PlayedCPWhite != nil {
		v := *s.PlayedCPWhite
		out.PlayedCPWhite = &v
	}
	if s.PunishCPMover != nil {
		v := *s.PunishCPMover
		out.PunishCPMover = &v
	}
	if s.SpreadKCPMover != nil {
		v := *s.SpreadKCPMover
		out.SpreadKCPMover = &v
	}
	if s.Gap12CPMover != nil {
		v := *s.Gap12CPMover
		out.Gap12CPMover = &v
	}
	if s.ComplexityCPMover != nil {
		v := *s.ComplexityCPMover
		out.ComplexityCPMover = &v
	}
	return out
}

// MoveMetrics bundles the eval-only and practical (eval + time equity)
// centipawn and win-probability values before/after a ply, and the
// mover-oriented deltas between them.
type MoveMetrics struct {
	TauWhiteCP int `json:"tau_white_cp"`

	CPEvalBefore      int `json:"cp_eval_before"`
	CPEvalAfter       int `json:"cp_eval_after"`
	CPPracticalBefore int `json:"cp_practical_before"`
	CPPracticalAfter  int `json:"cp_practical_after"`

	PEvalBefore      float64 `json:"p_eval_before"`
	PEvalAfter       float64 `json:"p_eval_after"`
	PPracticalBefore float64 `json:"p_practical_before"`
	PPracticalAfter  float64 `json:"p_practical_after"`

	DPEvalMover      float64 `json:"dp_eval_mover"`
	DPPracticalMover float64 `json:"dp_practical_mover"`
}

// LabelKind is the closed set of behavioral categories the Labeler assigns.
type LabelKind string

const (
	LabelOverthinkSimple    LabelKind = "overthink_simple"
	LabelUnderthinkCritical LabelKind = "underthink_critical"
	LabelWastedThink        LabelKind = "wasted_think"
	LabelGoodInvestment     LabelKind = "good_investment"
	LabelSnapBlunder        LabelKind = "snap_blunder"
	LabelPanicBlunder       LabelKind = "panic_blunder"
	LabelTimeBlunder        LabelKind = "time_blunder"
	LabelTimeTrouble        LabelKind = "time_trouble"
	LabelNeutral            LabelKind = "neutral"
)

// Label is the Labeler's verdict for one ply.
type Label struct {
	Kind        LabelKind `json:"kind"`
	Severity    float64   `json:"severity"`
	Title       string    `json:"title"`
	Explanation string    `json:"explanation"`
	Tips        []string  `json:"tips"`
}

// PlyAnalysis bundles one ply's record, the engine summary for the
// pre-move position, the derived metrics, and the label.
type PlyAnalysis struct {
	Ply           PlyRecord     `json:"ply"`
	EngineBefore  EngineSummary `json:"engine_before"`
	Metrics       MoveMetrics   `json:"metrics"`
	Label         Label         `json:"label"`
}

// GameMeta is the canonical PGN headers plus resolved TimeControl/platform.
type GameMeta struct {
	Event       *string           `json:"event"`
	Site        *string           `json:"site"`
	Date        *string           `json:"date"`
	Round       *string           `json:"round"`
	White       *string           `json:"white"`
	Black       *string           `json:"black"`
	Result      *string           `json:"result"`
	TimeControl *TimeControl      `json:"time_control"`
	Platform    SourcePlatform    `json:"platform"`
	Headers     map[string]string `json:"headers"`
}

// PhaseTimeShare is the fraction of total think time spent in each phase.
type PhaseTimeShare struct {
	Opening    float64 `json:"opening"`
	Middlegame float64 `json:"middlegame"`
	Endgame    float64 `json:"endgame"`
}

// PhaseTimeShareDelta is PhaseTimeShare minus the {0.15, 0.70, 0.15} reference.
type PhaseTimeShareDelta struct {
	Opening    float64 `json:"opening"`
	Middlegame float64 `json:"middlegame"`
	Endgame    float64 `json:"endgame"`
}

// PhaseAverages holds an optional per-phase average (think time or
// complexity); a phase with no qualifying plies reports nil.
type PhaseAverages struct {
	Opening    *float64 `json:"opening"`
	Middlegame *float64 `json:"middlegame"`
	Endgame    *float64 `json:"endgame"`
}

// GameSummary folds a game's PlyAnalyses into label distribution, averages,
// time-pressure rates, and phase usage.
type GameSummary struct {
	TotalPlies int            `json:"total_plies"`
	LabelCounts map[string]int `json:"labels_count"`

	AvgThinkTimeSecs     *float64 `json:"avg_think_time_secs"`
	AvgPunishCPMover     *float64 `json:"avg_punish_cp_mover"`
	AvgDPPracticalMover  *float64 `json:"avg_dp_practical_mover"`
	AvgComplexityCPMover *float64 `json:"avg_complexity_cp_mover"`

	TimeTroubleMoves       int `json:"time_trouble_moves"`
	PanicMoves             int `json:"panic_moves"`
	BlundersInTimeTrouble  int `json:"blunders_in_time_trouble"`

	TimeTroubleRate      *float64 `json:"time_trouble_rate"`
	PanicRate            *float64 `json:"panic_rate"`
	TimeTroubleRateKnown *float64 `json:"time_trouble_rate_known"`
	PanicRateKnown       *float64 `json:"panic_rate_known"`

	PhaseTimeShare              PhaseTimeShare      `json:"phase_time_share"`
	PhaseTimeShareDeltaVs157015 PhaseTimeShareDelta `json:"delta_vs_15_70_15"`
	PhaseAvgThinkTimeSecs       PhaseAverages       `json:"phase_avg_think_time_secs"`
	PhaseAvgComplexityCPMover   PhaseAverages       `json:"phase_avg_complexity_cp_mover"`
}

// GameAnalysis is the top-level output document for one analyzed game.
type GameAnalysis struct {
	Meta    GameMeta      `json:"meta"`
	Plies   []PlyAnalysis `json:"plies"`
	Summary GameSummary   `json:"summary"`
}

// Ply-index phase boundaries (spec.md §4.10): opening [1,20), middlegame
// [20,60), endgame [60,inf).
const (
	PhaseOpeningEndPly    = 20
	PhaseMiddlegameEndPly = 60
)

// Phase returns which phase bucket a 1-based ply index falls in: 0=opening,
// 1=middlegame, 2=endgame.
func Phase(plyIndex int) int {
	switch {
	case plyIndex < PhaseOpeningEndPly:
		return 0
	case plyIndex < PhaseMiddlegameEndPly:
		return 1
	default:
		return 2
	}
}

// MoverCP reinterprets a White-oriented centipawn value from mover's
// perspective: unchanged for White, negated for Black.
func MoverCP(cpWhite int, mover Color) int {
	if mover == White {
		return cpWhite
	}
	return -cpWhite
}

// MoverProb reinterprets a White win-probability from mover's perspective.
func MoverProb(pWhite float64, mover Color) float64 {
	if mover == White {
		return pWhite
	}
	return 1 - pWhite
}
