package achievement

import "go.uber.org/zap"

// Signal reports externally decided badges (milestone and achievement types).
type Signal func(b Badge) bool

// SignalSet builds a Signal that is true for the given badge IDs.
func SignalSet(ids ...int) Signal {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return func(b Badge) bool { return set[b.ID] }
}

type Evaluator struct {
	log *zap.Logger
}

func NewEvaluator(log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{log: log}
}

// Evaluate returns the IDs of active badges in catalog that are not in earned
// and whose criteria are met, in catalog order. It has no side effects.
func (e *Evaluator) Evaluate(metrics Metrics, catalog []Badge, earned map[int]bool, signal Signal) []int {
	var out []int
	picked := make(map[int]bool)
	for _, b := range catalog {
		if !b.IsActive || earned[b.ID] || picked[b.ID] {
			continue
		}
		m := metrics[b.Category]
		var ok bool
		switch b.CriteriaType {
		case CriteriaCount:
			ok = float64(m.Count) >= b.CriteriaValue
		case CriteriaStreak:
			ok = float64(m.CurrentStreak) >= b.CriteriaValue
		case CriteriaMilestone, CriteriaAchievement:
			ok = signal != nil && signal(b)
		default:
			e.log.Warn("skipping badge with unknown criteria type",
				zap.Int("badge_id", b.ID),
				zap.String("criteria_type", string(b.CriteriaType)),
			)
			continue
		}
		if ok {
			picked[b.ID] = true
			out = append(out, b.ID)
		}
	}
	return out
}

// Progress is the fraction of a badge's threshold reached, capped at 1.
// Signal-driven badges report 0 until earned.
func Progress(m Metric, b Badge) float64 {
	var v float64
	switch b.CriteriaType {
	case CriteriaCount:
		v = float64(m.Count)
	case CriteriaStreak:
		v = float64(m.CurrentStreak)
	default:
		return 0
	}
	if b.CriteriaValue <= 0 {
		return 1
	}
	if p := v / b.CriteriaValue; p < 1 {
		return p
	}
	return 1
}
