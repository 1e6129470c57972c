package repository

// DefaultConfidenceStep is the FixedStepAdjuster step used by New.
const DefaultConfidenceStep = 0.05

// ConfidenceAdjuster decides how a pattern's confidence reacts to a single
// piece of match feedback.
type ConfidenceAdjuster interface {
	AdjustConfidence(current float64, wasCorrect bool) float64
}

// FixedStepAdjuster moves confidence up or down by Step, clamped to [0,1].
type FixedStepAdjuster struct {
	Step float64
}

// AdjustConfidence implements ConfidenceAdjuster.
func (a FixedStepAdjuster) AdjustConfidence(current float64, wasCorrect bool) float64 {
	if wasCorrect {
		return clamp01(current + a.Step)
	}
	return clamp01(current - a.Step)
}

// EMAAdjuster blends the current confidence towards 1 or 0 with weight Alpha.
type EMAAdjuster struct {
	Alpha float64
}

// AdjustConfidence implements ConfidenceAdjuster.
func (a EMAAdjuster) AdjustConfidence(current float64, wasCorrect bool) float64 {
	target := 0.0
	if wasCorrect {
		target = 1.0
	}
	return clamp01(current + a.Alpha*(target-current))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
