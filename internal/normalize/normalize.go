// Package normalize is the Evaluation Normalizer (spec §4.6): it converts
// an engine's raw, side-to-move-signed search output into White's
// perspective and derives the mover-oriented best/played/punish/spread/gap
// /complexity quantities the rest of the pipeline consumes.
package normalize

import (
	"github.com/eloinsight/tempolens/internal/model"
)

// NormalizeSummaryForWhite flips every line's sign in place when the
// search was run with Black to move, so CPWhite is always a White-relative
// value afterwards. It is a no-op for White-to-move summaries.
func NormalizeSummaryForWhite(summary *model.EngineSummary, sideToMove model.Color) {
	if sideToMove == model.White {
		return
	}
	for i := range summary.Lines {
		summary.Lines[i].CPWhite = -summary.Lines[i].CPWhite
		if summary.Lines[i].Mate != nil {
			negated := -*summary.Lines[i].Mate
			summary.Lines[i].Mate = &negated
		}
	}
}

// FillEngineMetrics derives BestCPWhite/PlayedCPWhite/PunishCPMover/
// SpreadKCPMover/Gap12CPMover/ComplexityCPMover from an already-normalized
// summary's Lines. playedUCI identifies which line (if any) matches the
// move actually played, so callers can detect a missing PlayedCPWhite and
// rescue it with a searchmoves-restricted search, recorded through
// ApplyPlayedRescue.
func FillEngineMetrics(summary *model.EngineSummary, playedUCI string, mover model.Color) {
	if len(summary.Lines) == 0 {
		return
	}

	best := summary.Lines[0].CPWhite
	summary.BestCPWhite = &best

	for _, line := range summary.Lines {
		if line.UCI == playedUCI {
			played := line.CPWhite
			summary.PlayedCPWhite = &played
			break
		}
	}

	if summary.PlayedCPWhite != nil {
		punish := model.MoverCP(best, mover) - model.MoverCP(*summary.PlayedCPWhite, mover)
		if punish < 0 {
			punish = 0
		}
		summary.PunishCPMover = &punish
	}

	moverVals := make([]int, len(summary.Lines))
	for i, line := range summary.Lines {
		moverVals[i] = model.MoverCP(line.CPWhite, mover)
	}
	maxV, minV := moverVals[0], moverVals[0]
	for _, v := range moverVals {
		if v > maxV {
			maxV = v
		}
		if v < minV {
			minV = v
		}
	}
	spread := maxV - minV
	summary.SpreadKCPMover = &spread

	var gap12 *int
	if len(moverVals) >= 2 {
		g := moverVals[0] - moverVals[1]
		gap12 = &g
		summary.Gap12CPMover = gap12
	}

	complexity := combineComplexity(summary.PunishCPMover, &spread, gap12)
	summary.ComplexityCPMover = &complexity
}

// ApplyPlayedRescue records a played move's score obtained from a separate
// searchmoves-restricted search (used when the played move fell outside
// the engine's multi-PV window) and recomputes PunishCPMover and
// ComplexityCPMover from it. playedCPWhite must already be normalized to
// White's perspective.
func ApplyPlayedRescue(summary *model.EngineSummary, playedCPWhite int, mover model.Color) {
	p := playedCPWhite
	summary.PlayedCPWhite = &p

	if summary.BestCPWhite == nil {
		return
	}
	punish := model.MoverCP(*summary.BestCPWhite, mover) - model.MoverCP(playedCPWhite, mover)
	if punish < 0 {
		punish = 0
	}
	summary.PunishCPMover = &punish

	complexity := combineComplexity(summary.PunishCPMover, summary.SpreadKCPMover, summary.Gap12CPMover)
	summary.ComplexityCPMover = &complexity
}

// combineComplexity is the maximum of whichever of punish, spread, and
// gap12 are present: complexity is high if the played move was heavily
// punished, if the considered alternatives disagree widely, or if the top
// two moves are far apart in value.
func combineComplexity(punish, spread, gap12 *int) int {
	var (
		best    int
		haveAny bool
	)
	for _, v := range [...]*int{punish, spread, gap12} {
		if v == nil {
			continue
		}
		if !haveAny || *v > best {
			best = *v
		}
		haveAny = true
	}
	return best
}
