// Package pipeline is the Analysis Pipeline Orchestrator (spec §4.9): it
// fuses the PGN Reader, Board Oracle, Clock Reconstructor, Engine Driver,
// Evaluation Normalizer, Time-Equity Model, Labeler, and Game Summary
// Aggregator into the end-to-end per-game and per-batch analysis.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eloinsight/tempolens/internal/boardoracle"
	"github.com/eloinsight/tempolens/internal/clockreconstructor"
	"github.com/eloinsight/tempolens/internal/engine"
	"github.com/eloinsight/tempolens/internal/labeler"
	"github.com/eloinsight/tempolens/internal/model"
	"github.com/eloinsight/tempolens/internal/normalize"
	"github.com/eloinsight/tempolens/internal/pgnreader"
	"github.com/eloinsight/tempolens/internal/pool"
	"github.com/eloinsight/tempolens/internal/summary"
	"github.com/eloinsight/tempolens/internal/timeequity"
)

// Config holds the pipeline's search and model parameters (spec §6).
type Config struct {
	Depth      int
	MovetimeMs int

	FallbackTimeControl model.TimeControl

	TimeEquity timeequity.Config
	Label      labeler.Config
}

func (c Config) searchLimit() engine.SearchLimit {
	return engine.SearchLimit{Depth: c.Depth, MovetimeMs: c.MovetimeMs}
}

// ProgressFunc is called after each ply is analyzed within a game.
type ProgressFunc func(plyIndex, totalPlies int)

// Pipeline analyzes PGN games against a pool of started engines.
type Pipeline struct {
	pool   *pool.Pool
	logger *zap.Logger
	cfg    Config
}

// New builds a Pipeline over an existing engine pool.
func New(p *pool.Pool, logger *zap.Logger, cfg Config) *Pipeline {
	return &Pipeline{pool: p, logger: logger, cfg: cfg}
}

// AnalyzeGame parses and analyzes one PGN game text, checking out a single
// engine from the pool for the duration.
func (p *Pipeline) AnalyzeGame(ctx context.Context, pgn string, progress ProgressFunc) (model.GameAnalysis, error) {
	eng, err := p.pool.Get(ctx)
	if err != nil {
		return model.GameAnalysis{}, fmt.Errorf("failed to get engine: %w", err)
	}
	defer p.pool.Put(eng)

	return p.analyzeWithEngine(ctx, eng, pgn, newFENCache(), progress)
}

// AnalyzeBatch analyzes many PGN game texts against one dedicated engine
// process, issuing "ucinewgame" between games. The engine is spawned and
// torn down by this call directly — it does not borrow from the pool —
// and is always closed on the way out, success or failure. Any single
// game's failure aborts the whole batch.
func AnalyzeBatch(ctx context.Context, engineConfig engine.Config, logger *zap.Logger, cfg Config, pgns []string, progress func(gameIdx, plyIndex, totalPlies int)) ([]model.GameAnalysis, error) {
	eng, err := engine.Start(engineConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}
	defer eng.Close()

	p := &Pipeline{logger: logger, cfg: cfg}

	results := make([]model.GameAnalysis, 0, len(pgns))
	for i, pgn := range pgns {
		if i > 0 {
			if err := eng.NewGame(); err != nil {
				return nil, fmt.Errorf("game %d: failed to reset engine: %w", i, err)
			}
		}

		gameIdx := i
		gameProgress := func(plyIndex, totalPlies int) {
			if progress != nil {
				progress(gameIdx, plyIndex, totalPlies)
			}
		}

		analysis, err := p.analyzeWithEngine(ctx, eng, pgn, newFENCache(), gameProgress)
		if err != nil {
			return nil, fmt.Errorf("game %d: %w", i, err)
		}
		results = append(results, analysis)
	}
	return results, nil
}

// fenCache holds one game's per-FEN raw (un-normalized) engine summaries,
// so a transposed or repeated position is searched only once per game.
type fenCache struct {
	byFEN map[string]model.EngineSummary
}

func newFENCache() *fenCache {
	return &fenCache{byFEN: make(map[string]model.EngineSummary)}
}

func (c *fenCache) get(eng *engine.Engine, fen string, limit engine.SearchLimit) (model.EngineSummary, error) {
	if cached, ok := c.byFEN[fen]; ok {
		return cached.Clone(), nil
	}
	summary, _, err := eng.Search(fen, limit, nil)
	if err != nil {
		return model.EngineSummary{}, err
	}
	c.byFEN[fen] = summary.Clone()
	return summary, nil
}

func (p *Pipeline) analyzeWithEngine(ctx context.Context, eng *engine.Engine, pgn string, cache *fenCache, progress ProgressFunc) (model.GameAnalysis, error) {
	parsed, err := pgnreader.ParseSingleGame(pgn)
	if err != nil {
		return model.GameAnalysis{}, err
	}

	meta, tc := buildMeta(parsed.Headers, p.cfg.FallbackTimeControl)
	platform := meta.Platform

	plies, err := resolvePlies(parsed.Plies)
	if err != nil {
		return model.GameAnalysis{}, err
	}
	if len(plies) == 0 {
		return model.GameAnalysis{Meta: meta}, nil
	}

	clockreconstructor.Reconstruct(plies, tc, platform)
	trajectory := clockreconstructor.ClockTrajectory(plies, tc)

	limit := p.cfg.searchLimit()
	engineBefore := make([]model.EngineSummary, len(plies))

	for i := range plies {
		select {
		case <-ctx.Done():
			return model.GameAnalysis{}, ctx.Err()
		default:
		}

		raw, err := cache.get(eng, plies[i].FENBefore, limit)
		if err != nil {
			return model.GameAnalysis{}, fmt.Errorf("ply %d: search failed: %w", plies[i].PlyIndex, err)
		}

		mover := plies[i].Mover
		normalize.NormalizeSummaryForWhite(&raw, mover)
		normalize.FillEngineMetrics(&raw, plies[i].UCI, mover)

		if raw.PlayedCPWhite == nil {
			rescued, _, err := eng.Search(plies[i].FENBefore, limit, []string{plies[i].UCI})
			if err != nil {
				return model.GameAnalysis{}, fmt.Errorf("ply %d: rescue search failed: %w", plies[i].PlyIndex, err)
			}
			normalize.NormalizeSummaryForWhite(&rescued, mover)
			if len(rescued.Lines) > 0 {
				normalize.ApplyPlayedRescue(&raw, rescued.Lines[0].CPWhite, mover)
			}
		}

		engineBefore[i] = raw

		if progress != nil {
			progress(i+1, len(plies))
		}
	}

	cpEvalAfterLast, err := p.terminalCPEvalAfter(eng, plies, engineBefore, limit)
	if err != nil {
		return model.GameAnalysis{}, fmt.Errorf("terminal evaluation failed: %w", err)
	}

	analyses := make([]model.PlyAnalysis, len(plies))
	for i := range plies {
		cpEvalBefore := valueOrZeroP(engineBefore[i].BestCPWhite)

		var cpEvalAfter int
		if i+1 < len(plies) {
			cpEvalAfter = valueOrZeroP(engineBefore[i+1].BestCPWhite)
		} else {
			cpEvalAfter = cpEvalAfterLast
		}

		tauBefore := timeequity.TauWhiteCP(trajectory[i][0], trajectory[i][1], plies[i].PlyIndex, p.cfg.TimeEquity)
		tauAfter := timeequity.TauWhiteCP(trajectory[i+1][0], trajectory[i+1][1], plies[i].PlyIndex, p.cfg.TimeEquity)

		metrics := model.MoveMetrics{
			TauWhiteCP:        tauBefore,
			CPEvalBefore:      cpEvalBefore,
			CPEvalAfter:       cpEvalAfter,
			CPPracticalBefore: cpEvalBefore + tauBefore,
			CPPracticalAfter:  cpEvalAfter + tauAfter,
		}
		metrics.PEvalBefore = timeequity.WinProbFromCP(metrics.CPEvalBefore, p.cfg.TimeEquity)
		metrics.PEvalAfter = timeequity.WinProbFromCP(metrics.CPEvalAfter, p.cfg.TimeEquity)
		metrics.PPracticalBefore = timeequity.WinProbFromCP(metrics.CPPracticalBefore, p.cfg.TimeEquity)
		metrics.PPracticalAfter = timeequity.WinProbFromCP(metrics.CPPracticalAfter, p.cfg.TimeEquity)

		mover := plies[i].Mover
		metrics.DPEvalMover = model.MoverProb(metrics.PEvalAfter, mover) - model.MoverProb(metrics.PEvalBefore, mover)
		metrics.DPPracticalMover = model.MoverProb(metrics.PPracticalAfter, mover) - model.MoverProb(metrics.PPracticalBefore, mover)

		label := labeler.Label(plies[i], engineBefore[i], metrics, p.cfg.Label)

		analyses[i] = model.PlyAnalysis{
			Ply:          plies[i],
			EngineBefore: engineBefore[i],
			Metrics:      metrics,
			Label:        label,
		}
	}

	return model.GameAnalysis{
		Meta:    meta,
		Plies:   analyses,
		Summary: summary.Build(analyses, p.cfg.Label),
	}, nil
}

// terminalCPEvalAfter evaluates the position after the final ply. If the
// final move ended the game (no legal replies, reported as "bestmove
// 0000"), no terminal summary is meaningful, and the fallback is the final
// ply's own pre-move evaluation — i.e. no further change is assumed across
// the last move.
func (p *Pipeline) terminalCPEvalAfter(eng *engine.Engine, plies []model.PlyRecord, engineBefore []model.EngineSummary, limit engine.SearchLimit) (int, error) {
	last := len(plies) - 1
	terminalSummary, bestMove, err := eng.Search(plies[last].FENAfter, limit, nil)
	if err != nil {
		return 0, err
	}
	if bestMove == "0000" || len(terminalSummary.Lines) == 0 {
		return valueOrZeroP(engineBefore[last].BestCPWhite), nil
	}

	opponentToMove := plies[last].Mover.Opposite()
	normalize.NormalizeSummaryForWhite(&terminalSummary, opponentToMove)
	return terminalSummary.Lines[0].CPWhite, nil
}

func valueOrZeroP(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func resolvePlies(raw []model.RawPly) ([]model.PlyRecord, error) {
	plies := make([]model.PlyRecord, 0, len(raw))
	fen := boardoracle.InitialFEN

	for i, rp := range raw {
		mover := model.White
		if i%2 == 1 {
			mover = model.Black
		}

		uci, fenAfter, err := boardoracle.Resolve(fen, rp.SAN)
		if err != nil {
			return nil, fmt.Errorf("ply %d (%q): %w", i+1, rp.SAN, err)
		}

		plies = append(plies, model.PlyRecord{
			PlyIndex:       i + 1,
			SAN:            rp.SAN,
			UCI:            uci,
			Mover:          mover,
			FENBefore:      fen,
			FENAfter:       fenAfter,
			ClockAfterSecs: rp.ClockAfterSecs,
		})
		fen = fenAfter
	}
	return plies, nil
}

func buildMeta(headers map[string]string, fallback model.TimeControl) (model.GameMeta, model.TimeControl) {
	tc, ok := pgnreader.ParseTimeControlHeader(headers)
	if !ok {
		tc = fallback
	}

	meta := model.GameMeta{
		Event:    headerPtr(headers, "Event"),
		Site:     headerPtr(headers, "Site"),
		Date:     headerPtr(headers, "Date"),
		Round:    headerPtr(headers, "Round"),
		White:    headerPtr(headers, "White"),
		Black:    headerPtr(headers, "Black"),
		Result:   headerPtr(headers, "Result"),
		Platform: pgnreader.DetectPlatform(headers),
		Headers:  headers,
	}
	if tc != (model.TimeControl{}) {
		meta.TimeControl = &tc
	}
	return meta, tc
}

func headerPtr(headers map[string]string, key string) *string {
	v, ok := headers[key]
	if !ok {
		return nil
	}
	return &v
}

// Timeout returns a sensible default context deadline for a single-game
// analysis call, exported for cmd/tempolens wiring convenience.
func Timeout(perPly time.Duration, plies int) time.Duration {
	return perPly * time.Duration(plies+4)
}
