package core

// Stage weights for the overall confidence roll-up.
const (
	classificationWeight = 0.10
	coreRecordWeight     = 0.30
	categoryWeight       = 0.60
)

// ReviewThreshold is the overall confidence below which a document is
// flagged needs_review instead of completed.
const ReviewThreshold = 0.70

// AggregateConfidence computes the weighted overall confidence:
// classification x 0.10 + core record x 0.30 + mean(category) x 0.60.
//
// When no categories were detected the category stage never ran, so its
// weight redistributes proportionally to the remaining stages
// (0.25/0.75) rather than counting as a zero. A document with no
// detectable coverages is not penalized for the absence.
func AggregateConfidence(classification, coreRecord float64, categories []float64) float64 {
	if len(categories) == 0 {
		remaining := classificationWeight + coreRecordWeight
		return classification*(classificationWeight/remaining) +
			coreRecord*(coreRecordWeight/remaining)
	}

	var sum float64
	for _, c := range categories {
		sum += c
	}
	mean := sum / float64(len(categories))

	return classification*classificationWeight +
		coreRecord*coreRecordWeight +
		mean*categoryWeight
}
