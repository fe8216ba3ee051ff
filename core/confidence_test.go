package core

import (
	"math"
	"testing"
)

func TestAggregateConfidence(t *testing.T) {
	tests := []struct {
		name           string
		classification float64
		coreRecord     float64
		categories     []float64
		want           float64
	}{
		{
			name:           "weighted roll-up",
			classification: 0.8,
			coreRecord:     0.9,
			categories:     []float64{0.6, 0.8},
			// 0.8*0.10 + 0.9*0.30 + 0.70*0.60
			want: 0.77,
		},
		{
			name:           "single category",
			classification: 1.0,
			coreRecord:     1.0,
			categories:     []float64{1.0},
			want:           1.0,
		},
		{
			name:           "no categories redistributes weight",
			classification: 0.8,
			coreRecord:     0.9,
			categories:     nil,
			// 0.8*0.25 + 0.9*0.75
			want: 0.875,
		},
		{
			name:           "all zero",
			classification: 0,
			coreRecord:     0,
			categories:     []float64{0},
			want:           0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AggregateConfidence(tt.classification, tt.coreRecord, tt.categories)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestIDFromContent_Deterministic(t *testing.T) {
	a := IDFromContent("doc:0:COMMERCIAL GENERAL LIABILITY")
	b := IDFromContent("doc:0:COMMERCIAL GENERAL LIABILITY")
	c := IDFromContent("doc:1:COMMERCIAL GENERAL LIABILITY")

	if a != b {
		t.Fatal("identical content must produce identical IDs")
	}
	if a == c {
		t.Fatal("different content must produce different IDs")
	}
}

func TestDocumentStatus(t *testing.T) {
	if StatusPending.Terminal() || StatusProcessing.Terminal() {
		t.Fatal("pending and processing are not terminal")
	}
	for _, s := range []DocumentStatus{StatusCompleted, StatusNeedsReview, StatusFailed} {
		if !s.Terminal() {
			t.Fatalf("%s must be terminal", s)
		}
	}
	if StatusNeedsReview.String() != "needs_review" {
		t.Fatalf("unexpected label %q", StatusNeedsReview.String())
	}
}
