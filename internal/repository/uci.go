package repository

import (
	"strconv"
	"strings"

	"askgm/internal/domain"
)

// parseInfo extracts a side-to-move relative evaluation from a UCI "info"
// line. ok is false for lines that carry neither a score nor a pv, for
// "info string" lines, for secondary multipv lines and for lines with a
// malformed number.
func parseInfo(line string) (domain.Evaluation, bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 || parts[0] != "info" {
		return domain.Evaluation{}, false
	}

	res := domain.EmptyEvaluation()
	hasScore, hasPV := false, false

	for i := 1; i < len(parts); i++ {
		switch parts[i] {
		case "string":
			return domain.Evaluation{}, false
		case "depth":
			if i+1 >= len(parts) {
				return domain.Evaluation{}, false
			}
			d, err := strconv.Atoi(parts[i+1])
			if err != nil {
				return domain.Evaluation{}, false
			}
			res.Depth = d
			i++
		case "multipv":
			if i+1 >= len(parts) {
				return domain.Evaluation{}, false
			}
			n, err := strconv.Atoi(parts[i+1])
			if err != nil {
				return domain.Evaluation{}, false
			}
			if n > 1 {
				return domain.Evaluation{}, false
			}
			i++
		case "score":
			if i+2 >= len(parts) {
				return domain.Evaluation{}, false
			}
			v, err := strconv.Atoi(parts[i+2])
			if err != nil {
				return domain.Evaluation{}, false
			}
			switch parts[i+1] {
			case "cp":
				res = res.WithCentipawns(v)
			case "mate":
				res = res.WithMate(v)
			default:
				return domain.Evaluation{}, false
			}
			hasScore = true
			i += 2
		case "pv":
			for _, tok := range parts[i+1:] {
				mv, err := domain.ParseMove(tok)
				if err != nil {
					break
				}
				res.PV = append(res.PV, mv)
			}
			hasPV = len(res.PV) > 0
			i = len(parts)
		}
	}

	if !hasScore && !hasPV {
		return domain.Evaluation{}, false
	}
	if hasPV {
		best := res.PV[0]
		res.BestMove = &best
	}
	return res, true
}

// parseBestMove reads a "bestmove" line. The move is nil when the engine
// reports "(none)" or "0000", which it does in mate and stalemate positions.
func parseBestMove(line string) (*domain.Move, bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 || parts[0] != "bestmove" {
		return nil, false
	}
	if len(parts) < 2 {
		return nil, true
	}
	mv, err := domain.ParseMove(parts[1])
	if err != nil {
		return nil, true
	}
	return &mv, true
}
