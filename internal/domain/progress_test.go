package domain_test

import (
	"testing"

	"northstar/internal/domain"
)

func TestKeyResultComplete(t *testing.T) {
	cases := []struct {
		name string
		kr   domain.KeyResult
		want bool
	}{
		{"percent done", domain.KeyResult{Type: domain.KeyResultPercent, Progress: 100}, true},
		{"percent over", domain.KeyResult{Type: domain.KeyResultPercent, Progress: 120}, true},
		{"percent short", domain.KeyResult{Type: domain.KeyResultPercent, Progress: 99}, false},
		{"target met", domain.KeyResult{Type: domain.KeyResultTarget, Current: 5, Target: 5}, true},
		{"target exceeded", domain.KeyResult{Type: domain.KeyResultTarget, Current: 6, Target: 5}, true},
		{"target short", domain.KeyResult{Type: domain.KeyResultTarget, Current: 4, Target: 5}, false},
		{"zero target", domain.KeyResult{Type: domain.KeyResultTarget, Current: 0, Target: 0}, true},
		{"negative target", domain.KeyResult{Type: domain.KeyResultTarget, Current: -1, Target: -3}, true},
		{"unknown type", domain.KeyResult{Type: "boolean", Progress: 100}, false},
	}
	for _, tc := range cases {
		if got := tc.kr.Complete(); got != tc.want {
			t.Errorf("%s: want %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestDisplayStatusOverlay(t *testing.T) {
	o := domain.Objective{
		Status: domain.StatusAtRisk,
		KeyResults: []domain.KeyResult{
			{Type: domain.KeyResultPercent, Progress: 100},
			{Type: domain.KeyResultTarget, Current: 5, Target: 5},
		},
	}
	if got := o.DisplayStatus(); got != domain.StatusCompleted {
		t.Fatalf("all key results complete should display completed, got %q", got)
	}

	o.KeyResults[0].Progress = 99
	if got := o.DisplayStatus(); got != domain.StatusAtRisk {
		t.Fatalf("incomplete key result should fall back to stored status, got %q", got)
	}

	// no key results means no overlay
	o.KeyResults = nil
	if got := o.DisplayStatus(); got != domain.StatusAtRisk {
		t.Fatalf("empty key results never display completed, got %q", got)
	}
}
