// Package timeequity implements the Time-Equity Model (spec §4.7): it
// converts a clock-time advantage into a centipawn term (tau), and
// converts a centipawn evaluation into a win probability.
package timeequity

import "math"

// Config holds the model's tunable constants (spec §6).
type Config struct {
	Alpha float64
	Beta  float64

	PressurePivotSecs float64
	PressureScaleSecs float64
	PressureBoost     float64

	KSigmoid float64
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// valueOfTime is the marginal pawn-value of one second of clock time when
// T = t_white + t_black seconds remain between the two players: v = alpha
// / (T + beta).
func valueOfTime(t float64, cfg Config) float64 {
	return cfg.Alpha / (t + cfg.Beta)
}

// PressureMultiplier amplifies tau as the combined remaining time
// (t_white + t_black) falls below PressurePivotSecs, via a logistic curve
// centered on the pivot and scaled by PressureBoost. A near-zero
// PressureScaleSecs is replaced by 1 so a misconfigured value can't produce
// a step function or a divide-by-zero.
func PressureMultiplier(t float64, cfg Config) float64 {
	const epsilon = 1e-6
	scale := cfg.PressureScaleSecs
	if math.Abs(scale) < epsilon {
		scale = 1
	}
	z := (cfg.PressurePivotSecs - t) / scale
	return 1 + cfg.PressureBoost*sigmoid(z)
}

// PhaseMultiplier weights tau by game phase: clock pressure matters less
// in a well-prepared opening and more in the scramble that follows it.
func PhaseMultiplier(plyIndex int) float64 {
	switch {
	case plyIndex < 20:
		return 0.85
	case plyIndex < 60:
		return 1.0
	default:
		return 1.15
	}
}

// TauWhiteCP computes the clock-advantage term, in centipawns from White's
// perspective, for a ply with White holding tWhiteSecs and Black holding
// tBlackSecs on the clock. T, the model's notion of "how much total time is
// left in the game", is the sum of both clocks, not their average.
func TauWhiteCP(tWhiteSecs, tBlackSecs float64, plyIndex int, cfg Config) int {
	t := tWhiteSecs + tBlackSecs
	v := valueOfTime(t, cfg)
	pressure := PressureMultiplier(t, cfg)
	phase := PhaseMultiplier(plyIndex)

	tauPawns := v * pressure * (tWhiteSecs - tBlackSecs) * phase
	return int(math.Round(tauPawns * 100))
}

// WinProbFromCP converts a White-relative centipawn evaluation into a
// White win probability via a logistic curve.
func WinProbFromCP(cpWhite int, cfg Config) float64 {
	return sigmoid(cfg.KSigmoid * float64(cpWhite) / 100.0)
}
