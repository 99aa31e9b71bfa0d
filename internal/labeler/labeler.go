// Package labeler is the Labeler (spec §4.8): it turns one ply's derived
// metrics and clock state into a single behavioral Label, chosen from a
// fixed priority order so every ply gets exactly one verdict.
package labeler

import (
	"fmt"
	"math"

	"github.com/eloinsight/tempolens/internal/model"
)

// Config holds the labeler's decision thresholds (spec §6).
type Config struct {
	OverthinkRatio      float64 // fraction of t_rem that counts as "a long think"
	UnderthinkRatio     float64 // fraction of t_rem that counts as "a snap decision"
	MinSnapSecs         float64
	TimeTroubleSecs     float64
	PanicSecs           float64
	MaxSimpleComplexity int
	CriticalComplexity  int
	BigPunishCP         int
	SnapPunishCP        int
	TimeBlunderDropP    float64
}

// DefaultConfig returns the thresholds the pipeline uses absent overrides.
func DefaultConfig() Config {
	return Config{
		OverthinkRatio:      0.25,
		UnderthinkRatio:     0.03,
		MinSnapSecs:         1.0,
		TimeTroubleSecs:     10.0,
		PanicSecs:           5.0,
		MaxSimpleComplexity: 40,
		CriticalComplexity:  120,
		BigPunishCP:         150,
		SnapPunishCP:        250,
		TimeBlunderDropP:    -0.10,
	}
}

// Label assigns a behavioral verdict to one ply's metrics, engine summary,
// and clock state. Checks run in a fixed priority order; the first that
// matches wins.
func Label(ply model.PlyRecord, engine model.EngineSummary, metrics model.MoveMetrics, cfg Config) model.Label {
	spent := 0.0
	if ply.ThinkTimeSecs != nil {
		spent = *ply.ThinkTimeSecs
	}
	tRem := 999.0
	if ply.ClockBeforeSecs != nil {
		tRem = *ply.ClockBeforeSecs
	}

	punish := valueOrZero(engine.PunishCPMover)
	complex := punish
	if engine.ComplexityCPMover != nil {
		complex = *engine.ComplexityCPMover
	}

	inTimeTrouble := ply.ClockBeforeSecs != nil && tRem <= cfg.TimeTroubleSecs
	inPanic := ply.ClockBeforeSecs != nil && tRem <= cfg.PanicSecs

	overthink := spent > cfg.OverthinkRatio*tRem &&
		complex < cfg.MaxSimpleComplexity &&
		metrics.DPPracticalMover < 0

	underthink := spent < math.Min(cfg.UnderthinkRatio*tRem, cfg.MinSnapSecs) &&
		complex > cfg.CriticalComplexity &&
		punish > cfg.BigPunishCP

	wasted := spent > cfg.OverthinkRatio*tRem && punish > cfg.BigPunishCP
	snap := spent < cfg.MinSnapSecs && punish > cfg.SnapPunishCP
	panicBlunder := inPanic && punish > cfg.BigPunishCP
	timeBlunder := inTimeTrouble &&
		metrics.DPPracticalMover < cfg.TimeBlunderDropP &&
		punish < cfg.MaxSimpleComplexity
	goodInvestment := metrics.DPPracticalMover > 0.05 && complex > cfg.CriticalComplexity

	var kind model.LabelKind
	var title string
	switch {
	case snap:
		kind, title = model.LabelSnapBlunder, "Snap blunder"
	case panicBlunder:
		kind, title = model.LabelPanicBlunder, "Panic blunder"
	case timeBlunder:
		kind, title = model.LabelTimeBlunder, "Time blunder"
	case wasted:
		kind, title = model.LabelWastedThink, "Wasted think"
	case overthink:
		kind, title = model.LabelOverthinkSimple, "Overthinking a simple position"
	case underthink:
		kind, title = model.LabelUnderthinkCritical, "Underthinking a critical moment"
	case goodInvestment:
		kind, title = model.LabelGoodInvestment, "Good investment"
	case inTimeTrouble:
		kind, title = model.LabelTimeTrouble, "Time trouble"
	default:
		kind, title = model.LabelNeutral, "Neutral"
	}

	var severity float64
	switch {
	case snap || panicBlunder:
		severity = 0.9
	case timeBlunder:
		severity = 0.7
	case wasted || underthink:
		severity = 0.6
	case overthink:
		severity = 0.5
	case inTimeTrouble:
		severity = 0.4
	default:
		severity = 0.3
	}

	timeHint := "remaining unknown"
	if ply.ClockBeforeSecs != nil {
		timeHint = fmt.Sprintf("%.1fs remaining", *ply.ClockBeforeSecs)
	}

	tips := []string{
		"In blitz, spend time where the position is knife-edge; play instantly where it's not.",
	}
	if inTimeTrouble {
		tips = append(tips, fmt.Sprintf("Try to keep at least %.0fs before critical moments.", cfg.TimeTroubleSecs))
	}

	return model.Label{
		Kind:     kind,
		Severity: severity,
		Title:    title,
		Explanation: fmt.Sprintf(
			"Spent %.1fs, %s, complexity ~%dcp, practical Δp=%.3f",
			spent, timeHint, complex, metrics.DPPracticalMover),
		Tips: tips,
	}
}

func valueOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
