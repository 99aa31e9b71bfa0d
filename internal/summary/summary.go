// Package summary is the Game Summary Aggregator (spec §4.10): it folds a
// game's labeled plies into label counts, averages, time-pressure rates,
// and phase usage.
package summary

import (
	"github.com/eloinsight/tempolens/internal/labeler"
	"github.com/eloinsight/tempolens/internal/model"
)

// referencePhaseShare is the baseline a game's phase time allocation is
// compared against: most players should spend roughly this split of their
// total think time across opening/middlegame/endgame.
var referencePhaseShare = model.PhaseTimeShare{Opening: 0.15, Middlegame: 0.70, Endgame: 0.15}

// Build folds plies into a GameSummary. cfg supplies the time-trouble/panic/
// blunder thresholds so the summary's time-pressure counters agree with
// the per-ply labels the Labeler produced with the same configuration.
func Build(plies []model.PlyAnalysis, cfg labeler.Config) model.GameSummary {
	s := model.GameSummary{
		TotalPlies:  len(plies),
		LabelCounts: make(map[string]int),
	}

	var (
		thinkSum, thinkN         float64
		punishSum, punishN       float64
		dpPracticalSum           float64
		complexitySum, complexN  float64
		knownClockPlies          int

		phaseThinkSum [3]float64
		phaseThinkN   [3]float64
		phaseComplexSum [3]float64
		phaseComplexN   [3]float64
	)

	for _, pa := range plies {
		s.LabelCounts[string(pa.Label.Kind)]++
		dpPracticalSum += pa.Metrics.DPPracticalMover

		phase := model.Phase(pa.Ply.PlyIndex)

		if pa.Ply.ThinkTimeSecs != nil {
			thinkSum += *pa.Ply.ThinkTimeSecs
			thinkN++
			phaseThinkSum[phase] += *pa.Ply.ThinkTimeSecs
			phaseThinkN[phase]++
		}

		if pa.EngineBefore.PunishCPMover != nil {
			punishSum += float64(*pa.EngineBefore.PunishCPMover)
			punishN++
		}

		if pa.EngineBefore.ComplexityCPMover != nil {
			complexitySum += float64(*pa.EngineBefore.ComplexityCPMover)
			complexN++
			phaseComplexSum[phase] += float64(*pa.EngineBefore.ComplexityCPMover)
			phaseComplexN[phase]++
		}

		if pa.Ply.ClockBeforeSecs != nil {
			knownClockPlies++
			before := *pa.Ply.ClockBeforeSecs
			punish := 0
			if pa.EngineBefore.PunishCPMover != nil {
				punish = *pa.EngineBefore.PunishCPMover
			}

			if before <= cfg.TimeTroubleSecs {
				s.TimeTroubleMoves++
				if punish >= cfg.BigPunishCP {
					s.BlundersInTimeTrouble++
				}
			}
			if before <= cfg.PanicSecs {
				s.PanicMoves++
			}
		}
	}

	if len(plies) > 0 {
		v := dpPracticalSum / float64(len(plies))
		s.AvgDPPracticalMover = &v

		rt := float64(s.TimeTroubleMoves) / float64(len(plies))
		s.TimeTroubleRate = &rt
		rp := float64(s.PanicMoves) / float64(len(plies))
		s.PanicRate = &rp
	}
	if thinkN > 0 {
		v := thinkSum / thinkN
		s.AvgThinkTimeSecs = &v
	}
	if punishN > 0 {
		v := punishSum / punishN
		s.AvgPunishCPMover = &v
	}
	if complexN > 0 {
		v := complexitySum / complexN
		s.AvgComplexityCPMover = &v
	}
	if knownClockPlies > 0 {
		rtk := float64(s.TimeTroubleMoves) / float64(knownClockPlies)
		s.TimeTroubleRateKnown = &rtk
		rpk := float64(s.PanicMoves) / float64(knownClockPlies)
		s.PanicRateKnown = &rpk
	}

	totalKnownThink := phaseThinkSum[0] + phaseThinkSum[1] + phaseThinkSum[2]
	if totalKnownThink > 0 {
		s.PhaseTimeShare = model.PhaseTimeShare{
			Opening:    phaseThinkSum[0] / totalKnownThink,
			Middlegame: phaseThinkSum[1] / totalKnownThink,
			Endgame:    phaseThinkSum[2] / totalKnownThink,
		}
		s.PhaseTimeShareDeltaVs157015 = model.PhaseTimeShareDelta{
			Opening:    s.PhaseTimeShare.Opening - referencePhaseShare.Opening,
			Middlegame: s.PhaseTimeShare.Middlegame - referencePhaseShare.Middlegame,
			Endgame:    s.PhaseTimeShare.Endgame - referencePhaseShare.Endgame,
		}
	}

	s.PhaseAvgThinkTimeSecs = phaseAverages(phaseThinkSum, phaseThinkN)
	s.PhaseAvgComplexityCPMover = phaseAverages(phaseComplexSum, phaseComplexN)

	return s
}

func phaseAverages(sum, n [3]float64) model.PhaseAverages {
	var out model.PhaseAverages
	if n[0] > 0 {
		v := sum[0] / n[0]
		out.Opening = &v
	}
	if n[1] > 0 {
		v := sum[1] / n[1]
		out.Middlegame = &v
	}
	if n[2] > 0 {
		v := sum[2] / n[2]
		out.Endgame = &v
	}
	return out
}
