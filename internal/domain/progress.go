package domain

// Key result shapes. A key result is either percent-based (progress toward
// 100) or target-based (current toward target in some unit).
const (
	KeyResultPercent = "percent"
	KeyResultTarget  = "target"
)

type KeyResult struct {
	KRID     string  `json:"krId"`
	Type     string  `json:"type" enum:"percent,target"`
	Title    string  `json:"title"`
	Progress float64 `json:"progress,omitempty"`
	Current  float64 `json:"current,omitempty"`
	Target   float64 `json:"target,omitempty"`
	Unit     string  `json:"unit,omitempty"`
}

// Complete reports whether the key result satisfies its completion predicate.
// Inputs are taken as-is; progress above 100 or a non-positive target are the
// producer's responsibility.
func (k KeyResult) Complete() bool {
	switch k.Type {
	case KeyResultPercent:
		return k.Progress >= 100
	case KeyResultTarget:
		return k.Current >= k.Target
	default:
		return false
	}
}

// DisplayStatus returns the status an objective is presented with: completed
// when every key result is complete and at least one exists, the stored
// status otherwise. It never mutates the objective.
func (o Objective) DisplayStatus() string {
	if len(o.KeyResults) == 0 {
		return o.Status
	}
	for _, kr := range o.KeyResults {
		if !kr.Complete() {
			return o.Status
		}
	}
	return StatusCompleted
}
