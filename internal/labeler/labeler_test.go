package labeler

import (
	"strings"
	"testing"

	"github.com/eloinsight/tempolens/internal/model"
)

func f(v float64) *float64 { return &v }
func n(v int) *int         { return &v }

func TestLabelSnapBlunderTakesPriorityOverPanic(t *testing.T) {
	cfg := DefaultConfig()
	ply := model.PlyRecord{ThinkTimeSecs: f(0.5), ClockBeforeSecs: f(3)} // also qualifies as panic
	engine := model.EngineSummary{PunishCPMover: n(300)}                 // > SnapPunishCP and BigPunishCP
	got := Label(ply, engine, model.MoveMetrics{}, cfg)
	if got.Kind != model.LabelSnapBlunder {
		t.Errorf("Kind = %v, want %v", got.Kind, model.LabelSnapBlunder)
	}
}

func TestLabelPanicBlunder(t *testing.T) {
	cfg := DefaultConfig()
	ply := model.PlyRecord{ThinkTimeSecs: f(2), ClockBeforeSecs: f(3)}
	engine := model.EngineSummary{PunishCPMover: n(200)} // below SnapPunishCP(250), above BigPunishCP(150)
	got := Label(ply, engine, model.MoveMetrics{}, cfg)
	if got.Kind != model.LabelPanicBlunder {
		t.Errorf("Kind = %v, want %v", got.Kind, model.LabelPanicBlunder)
	}
}

func TestLabelTimeBlunder(t *testing.T) {
	cfg := DefaultConfig()
	// In time trouble (clock <= 10s), practical delta below the drop threshold,
	// and punish below MaxSimpleComplexity so it isn't instead a punish-driven
	// blunder bucket.
	ply := model.PlyRecord{ThinkTimeSecs: f(2), ClockBeforeSecs: f(8)}
	engine := model.EngineSummary{PunishCPMover: n(10)}
	metrics := model.MoveMetrics{DPPracticalMover: -0.15}
	got := Label(ply, engine, metrics, cfg)
	if got.Kind != model.LabelTimeBlunder {
		t.Errorf("Kind = %v, want %v", got.Kind, model.LabelTimeBlunder)
	}
}

func TestLabelTimeBlunderRequiresTimeTrouble(t *testing.T) {
	cfg := DefaultConfig()
	// Same practical/punish numbers as above but plenty of clock left: must
	// not fire as a time blunder without the time-trouble gate.
	ply := model.PlyRecord{ThinkTimeSecs: f(2), ClockBeforeSecs: f(100)}
	engine := model.EngineSummary{PunishCPMover: n(10)}
	metrics := model.MoveMetrics{DPPracticalMover: -0.15}
	got := Label(ply, engine, metrics, cfg)
	if got.Kind == model.LabelTimeBlunder {
		t.Errorf("Kind = %v, time blunder should require in_time_trouble", got.Kind)
	}
}

func TestLabelWastedThink(t *testing.T) {
	cfg := DefaultConfig()
	ply := model.PlyRecord{ThinkTimeSecs: f(30), ClockBeforeSecs: f(100)} // spent(30) > ratio*t_rem(25)
	engine := model.EngineSummary{PunishCPMover: n(200), ComplexityCPMover: n(10)}
	got := Label(ply, engine, model.MoveMetrics{}, cfg)
	if got.Kind != model.LabelWastedThink {
		t.Errorf("Kind = %v, want %v", got.Kind, model.LabelWastedThink)
	}
}

func TestLabelOverthinkSimple(t *testing.T) {
	cfg := DefaultConfig()
	ply := model.PlyRecord{ThinkTimeSecs: f(30), ClockBeforeSecs: f(100)}
	engine := model.EngineSummary{PunishCPMover: n(0), ComplexityCPMover: n(20)} // < MaxSimpleComplexity(40)
	metrics := model.MoveMetrics{DPPracticalMover: -0.02}                       // required third conjunct
	got := Label(ply, engine, metrics, cfg)
	if got.Kind != model.LabelOverthinkSimple {
		t.Errorf("Kind = %v, want %v", got.Kind, model.LabelOverthinkSimple)
	}
}

func TestLabelOverthinkSimpleRequiresNegativePractical(t *testing.T) {
	cfg := DefaultConfig()
	ply := model.PlyRecord{ThinkTimeSecs: f(30), ClockBeforeSecs: f(100)}
	engine := model.EngineSummary{PunishCPMover: n(0), ComplexityCPMover: n(20)}
	metrics := model.MoveMetrics{DPPracticalMover: 0.02} // not negative: must not count as overthink
	got := Label(ply, engine, metrics, cfg)
	if got.Kind == model.LabelOverthinkSimple {
		t.Errorf("Kind = %v, overthink_simple requires dp_practical_mover < 0", got.Kind)
	}
}

func TestLabelUnderthinkCritical(t *testing.T) {
	cfg := DefaultConfig()
	// spent(1) < min(underthink_ratio*t_rem=3, min_snap_secs=1) is false at
	// exactly 1, so use a smaller spend to clear the strict inequality.
	ply := model.PlyRecord{ThinkTimeSecs: f(0.5), ClockBeforeSecs: f(100)}
	engine := model.EngineSummary{PunishCPMover: n(200), ComplexityCPMover: n(150)}
	got := Label(ply, engine, model.MoveMetrics{}, cfg)
	if got.Kind != model.LabelUnderthinkCritical {
		t.Errorf("Kind = %v, want %v", got.Kind, model.LabelUnderthinkCritical)
	}
}

func TestLabelUnderthinkCriticalRequiresBigPunish(t *testing.T) {
	cfg := DefaultConfig()
	ply := model.PlyRecord{ThinkTimeSecs: f(0.5), ClockBeforeSecs: f(100)}
	engine := model.EngineSummary{PunishCPMover: n(10), ComplexityCPMover: n(150)} // punish below BigPunishCP
	got := Label(ply, engine, model.MoveMetrics{}, cfg)
	if got.Kind == model.LabelUnderthinkCritical {
		t.Errorf("Kind = %v, underthink_critical requires punish > big_punish", got.Kind)
	}
}

func TestLabelGoodInvestment(t *testing.T) {
	cfg := DefaultConfig()
	ply := model.PlyRecord{ThinkTimeSecs: f(40), ClockBeforeSecs: f(100)}
	engine := model.EngineSummary{PunishCPMover: n(10), ComplexityCPMover: n(150)}
	metrics := model.MoveMetrics{DPPracticalMover: 0.10} // > 0.05
	got := Label(ply, engine, metrics, cfg)
	if got.Kind != model.LabelGoodInvestment {
		t.Errorf("Kind = %v, want %v", got.Kind, model.LabelGoodInvestment)
	}
}

func TestLabelGoodInvestmentRequiresPracticalGain(t *testing.T) {
	cfg := DefaultConfig()
	ply := model.PlyRecord{ThinkTimeSecs: f(40), ClockBeforeSecs: f(100)}
	engine := model.EngineSummary{PunishCPMover: n(10), ComplexityCPMover: n(150)}
	metrics := model.MoveMetrics{DPPracticalMover: 0.01} // below the 0.05 trigger
	got := Label(ply, engine, metrics, cfg)
	if got.Kind == model.LabelGoodInvestment {
		t.Errorf("Kind = %v, good_investment requires dp_practical_mover > 0.05", got.Kind)
	}
}

func TestLabelTimeTrouble(t *testing.T) {
	cfg := DefaultConfig()
	ply := model.PlyRecord{ThinkTimeSecs: f(1), ClockBeforeSecs: f(8)}
	engine := model.EngineSummary{PunishCPMover: n(0), ComplexityCPMover: n(50)}
	got := Label(ply, engine, model.MoveMetrics{}, cfg)
	if got.Kind != model.LabelTimeTrouble {
		t.Errorf("Kind = %v, want %v", got.Kind, model.LabelTimeTrouble)
	}
}

func TestLabelNeutral(t *testing.T) {
	cfg := DefaultConfig()
	ply := model.PlyRecord{ThinkTimeSecs: f(10), ClockBeforeSecs: f(100)}
	engine := model.EngineSummary{PunishCPMover: n(0), ComplexityCPMover: n(50)}
	got := Label(ply, engine, model.MoveMetrics{}, cfg)
	if got.Kind != model.LabelNeutral {
		t.Errorf("Kind = %v, want %v", got.Kind, model.LabelNeutral)
	}
}

func TestLabelMissingFieldsFallBackSafely(t *testing.T) {
	cfg := DefaultConfig()
	got := Label(model.PlyRecord{}, model.EngineSummary{}, model.MoveMetrics{}, cfg)
	if got.Kind != model.LabelNeutral {
		t.Errorf("Kind = %v, want %v for a ply with no think/clock/engine data", got.Kind, model.LabelNeutral)
	}
}

func TestLabelExplanationFormat(t *testing.T) {
	cfg := DefaultConfig()
	ply := model.PlyRecord{ThinkTimeSecs: f(12.3), ClockBeforeSecs: f(45.6)}
	engine := model.EngineSummary{PunishCPMover: n(0), ComplexityCPMover: n(7)}
	metrics := model.MoveMetrics{DPPracticalMover: 0.123}
	got := Label(ply, engine, metrics, cfg)

	want := "Spent 12.3s, 45.6s remaining, complexity ~7cp, practical Δp=0.123"
	if got.Explanation != want {
		t.Errorf("Explanation = %q, want %q", got.Explanation, want)
	}
}

func TestLabelExplanationUnknownRemainingClock(t *testing.T) {
	cfg := DefaultConfig()
	got := Label(model.PlyRecord{ThinkTimeSecs: f(5)}, model.EngineSummary{}, model.MoveMetrics{}, cfg)
	if !strings.Contains(got.Explanation, "remaining unknown") {
		t.Errorf("Explanation = %q, want it to mention remaining unknown", got.Explanation)
	}
}

func TestLabelTipsIncludeTimeTroubleAdviceOnlyWhenApplicable(t *testing.T) {
	cfg := DefaultConfig()

	inTrouble := Label(model.PlyRecord{ClockBeforeSecs: f(5)}, model.EngineSummary{}, model.MoveMetrics{}, cfg)
	if len(inTrouble.Tips) != 2 {
		t.Fatalf("Tips = %v, want 2 entries when in time trouble", inTrouble.Tips)
	}

	plenty := Label(model.PlyRecord{ClockBeforeSecs: f(500)}, model.EngineSummary{}, model.MoveMetrics{}, cfg)
	if len(plenty.Tips) != 1 {
		t.Fatalf("Tips = %v, want 1 entry outside time trouble", plenty.Tips)
	}
}

func TestLabelComplexityDefaultsToPunishWhenMissing(t *testing.T) {
	// No ComplexityCPMover supplied: complex should fall back to punish, not 0,
	// so a big punish can still clear CriticalComplexity via the fallback.
	cfg := DefaultConfig()
	cfg.CriticalComplexity = 100
	ply := model.PlyRecord{ThinkTimeSecs: f(40), ClockBeforeSecs: f(100)}
	metrics := model.MoveMetrics{DPPracticalMover: 0.10}
	engine := model.EngineSummary{PunishCPMover: n(150)} // ComplexityCPMover left nil
	got := Label(ply, engine, metrics, cfg)
	if got.Kind != model.LabelGoodInvestment {
		t.Errorf("Kind = %v, want %v (complexity should default to punish=150 > critical=100)", got.Kind, model.LabelGoodInvestment)
	}
}
