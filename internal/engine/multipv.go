package engine

import (
	"strconv"
	"strings"

	"github.com/eloinsight/tempolens/internal/model"
)

// multiPVAccumulator folds a stream of UCI "info" lines into one
// model.EngineSummary: for each multipv rank, the line reporting the
// greatest depth wins (a shallower re-report of the same rank, which
// engines emit while iterating, never overwrites a deeper one already
// seen); Depth is the max depth seen across all ranks; Nodes/NPS are
// taken from the most recent info line, regardless of rank.
type multiPVAccumulator struct {
	depthByRank map[int]int64
	lineByRank  map[int]model.EngineLine
	maxDepth    int64
	nodes       int64
	nps         int64
}

func newMultiPVAccumulator() *multiPVAccumulator {
	return &multiPVAccumulator{
		depthByRank: make(map[int]int64),
		lineByRank:  make(map[int]model.EngineLine),
	}
}

func (a *multiPVAccumulator) ingest(raw string) {
	fields := strings.Fields(raw)

	var (
		depth   int64
		haveDepth bool
		rank    = 1
		cp      int
		mate    *int
		nodes   int64
		nps     int64
		pv      []string
	)

	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if i+1 < len(fields) {
				if v, err := strconv.ParseInt(fields[i+1], 10, 64); err == nil {
					depth = v
					haveDepth = true
				}
			}
		case "multipv":
			if i+1 < len(fields) {
				if v, err := strconv.Atoi(fields[i+1]); err == nil {
					rank = v
				}
			}
		case "score":
			if i+2 < len(fields) {
				switch fields[i+1] {
				case "cp":
					if v, err := strconv.Atoi(fields[i+2]); err == nil {
						cp = v
					}
				case "mate":
					if v, err := strconv.Atoi(fields[i+2]); err == nil {
						mate = &v
						if v >= 0 {
							cp = 100000
						} else {
							cp = -100000
						}
					}
				}
			}
		case "nodes":
			if i+1 < len(fields) {
				nodes, _ = strconv.ParseInt(fields[i+1], 10, 64)
			}
		case "nps":
			if i+1 < len(fields) {
				nps, _ = strconv.ParseInt(fields[i+1], 10, 64)
			}
		case "pv":
			pv = fields[i+1:]
			i = len(fields)
		}
	}

	if nodes > 0 {
		a.nodes = nodes
	}
	if nps > 0 {
		a.nps = nps
	}
	if !haveDepth {
		return
	}
	if depth > a.maxDepth {
		a.maxDepth = depth
	}

	if prior, ok := a.depthByRank[rank]; ok && depth < prior {
		return
	}

	uci := ""
	if len(pv) > 0 {
		uci = pv[0]
	}
	a.depthByRank[rank] = depth
	a.lineByRank[rank] = model.EngineLine{
		MultiPV: rank,
		UCI:     uci,
		CPWhite: cp,
		Mate:    mate,
	}
}

func (a *multiPVAccumulator) summary() model.EngineSummary {
	lines := make([]model.EngineLine, 0, len(a.lineByRank))
	maxRank := 0
	for rank := range a.lineByRank {
		if rank > maxRank {
			maxRank = rank
		}
	}
	for rank := 1; rank <= maxRank; rank++ {
		if line, ok := a.lineByRank[rank]; ok {
			lines = append(lines, line)
		}
	}
	return model.EngineSummary{
		Depth: a.maxDepth,
		Nodes: a.nodes,
		NPS:   a.nps,
		Lines: lines,
	}
}
