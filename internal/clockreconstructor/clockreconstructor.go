// Package clockreconstructor derives pre-move clocks and per-ply think
// times from the post-move clock readings a PGN carries in [%clk]
// comments (spec §4.3). PGN only records the clock AFTER each move, so the
// "before" value for ply i is the "after" value of that color's previous
// ply (or the starting time control for its first move).
package clockreconstructor

import (
	"github.com/eloinsight/tempolens/internal/model"
)

// Policy describes how a platform's recorded post-move clock relates to
// the increment: whether the increment has already been folded in.
type Policy int

const (
	// AppliedAfter means the recorded clock already includes the
	// increment added for the move just played: spent = before + inc - after.
	AppliedAfter Policy = iota
	// Raw means the recorded clock is the raw countdown value, with the
	// increment credited only once the next move for that color begins:
	// spent = before - after.
	Raw
)

const violationToleranceSecs = 0.5

// ForPlatform returns the known clock policy for a platform: Lichess and
// Chess.com both record the clock with the increment already applied.
// Unknown starts from the same default and, when the game has an
// increment, must be resolved by InferPolicy instead.
func ForPlatform(platform model.SourcePlatform) Policy {
	return AppliedAfter
}

// Reconstruct fills ClockBeforeSecs and ThinkTimeSecs on every ply that
// carries a ClockAfterSecs, in place. Plies without a clock reading are
// left untouched, and so is every subsequent ply for that color once one
// is missing, since the chain of "before equals previous after" breaks.
func Reconstruct(plies []model.PlyRecord, tc model.TimeControl, platform model.SourcePlatform) {
	policy := ForPlatform(platform)
	if platform == model.Unknown && tc.IncrementSecs > 0 {
		policy = InferPolicy(plies, tc)
	}

	clockState := map[model.Color]float64{
		model.White: float64(tc.BaseSecs),
		model.Black: float64(tc.BaseSecs),
	}
	haveState := map[model.Color]bool{model.White: true, model.Black: true}

	for i := range plies {
		mover := plies[i].Mover
		if plies[i].ClockAfterSecs == nil || !haveState[mover] {
			haveState[mover] = false
			continue
		}

		before := clockState[mover]
		after := *plies[i].ClockAfterSecs
		think := spentTime(policy, before, after, float64(tc.IncrementSecs))

		b := before
		plies[i].ClockBeforeSecs = &b
		t := think
		plies[i].ThinkTimeSecs = &t

		clockState[mover] = after
	}
}

// spentTime computes think time for one ply under a policy, clamped to
// [0, before+increment] since clock reporting jitter can otherwise produce
// a slightly negative or over-budget value.
func spentTime(policy Policy, before, after, increment float64) float64 {
	var spent float64
	switch policy {
	case Raw:
		spent = before - after
	default:
		spent = before + increment - after
	}
	max := before + increment
	if spent < 0 {
		spent = 0
	}
	if spent > max {
		spent = max
	}
	return spent
}

// ClockTrajectory returns, for each ply index 0..len(plies), the best-known
// (white, black) clock level at that point in the game: entry i is the
// state BEFORE ply i is played (entry 0 is the starting time control),
// and entry len(plies) is the state after the last ply. A color with no
// clock reading yet simply holds at the starting time control, so a game
// with no [%clk] data at all yields a flat (base, base) trajectory and a
// time-equity term of zero throughout, rather than nil propagation.
func ClockTrajectory(plies []model.PlyRecord, tc model.TimeControl) [][2]float64 {
	states := make([][2]float64, len(plies)+1)
	states[0] = [2]float64{float64(tc.BaseSecs), float64(tc.BaseSecs)}

	for i := range plies {
		states[i+1] = states[i]
		if plies[i].ClockAfterSecs == nil {
			continue
		}
		if plies[i].Mover == model.White {
			states[i+1][0] = *plies[i].ClockAfterSecs
		} else {
			states[i+1][1] = *plies[i].ClockAfterSecs
		}
	}
	return states
}

// InferPolicy picks AppliedAfter or Raw for an Unknown-platform game with a
// nonzero increment by counting, for each policy, how many plies would
// need more than violationToleranceSecs of clamping to land in
// [0, before+increment] — an unclamped overshoot signals the wrong policy.
// Ties resolve to AppliedAfter.
func InferPolicy(plies []model.PlyRecord, tc model.TimeControl) Policy {
	appliedViolations := countViolations(plies, AppliedAfter, tc)
	rawViolations := countViolations(plies, Raw, tc)
	if rawViolations < appliedViolations {
		return Raw
	}
	return AppliedAfter
}

func countViolations(plies []model.PlyRecord, policy Policy, tc model.TimeControl) int {
	clockState := map[model.Color]float64{
		model.White: float64(tc.BaseSecs),
		model.Black: float64(tc.BaseSecs),
	}
	haveState := map[model.Color]bool{model.White: true, model.Black: true}
	violations := 0

	for i := range plies {
		mover := plies[i].Mover
		if plies[i].ClockAfterSecs == nil || !haveState[mover] {
			haveState[mover] = false
			continue
		}

		before := clockState[mover]
		after := *plies[i].ClockAfterSecs
		increment := float64(tc.IncrementSecs)

		var spent float64
		switch policy {
		case Raw:
			spent = before - after
		default:
			spent = before + increment - after
		}

		if spent < -violationToleranceSecs || spent > before+increment+violationToleranceSecs {
			violations++
		}

		clockState[mover] = after
	}
	return violations
}
