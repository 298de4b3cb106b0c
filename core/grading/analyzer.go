// Package grading holds pure computations over grade records: improvement
// percentages, term averages and performance bands. It receives records, not
// ids, and never touches the store.
package grading

import "github.com/trezcool/ripoti/core/school"

// Band is the coarse categorical summary of a term's overall average.
type Band string

const (
	BandOutstanding      Band = "Outstanding"
	BandGood             Band = "Good"
	BandSatisfactory     Band = "Satisfactory"
	BandNeedsImprovement Band = "Needs Improvement"
)

// Band thresholds are inclusive lower bounds: a boundary value belongs to the
// higher band (85.0 is Outstanding, not Good).
const (
	outstandingMin  = 85
	goodMin         = 70
	satisfactoryMin = 55
)

func BandFor(average float64) Band {
	switch {
	case average >= outstandingMin:
		return BandOutstanding
	case average >= goodMin:
		return BandGood
	case average >= satisfactoryMin:
		return BandSatisfactory
	default:
		return BandNeedsImprovement
	}
}

// Improvement computes the percentage change between the chronologically first
// and most recent record of the given history. The input must already be
// ordered by term sequence ascending (as the repository returns it).
// ok is false when there is insufficient data: fewer than 2 records, or an
// earliest score of 0 (a percentage change from zero is undefined, not an error).
func Improvement(records []school.GradeRecord) (pct float64, ok bool) {
	if len(records) < 2 {
		return 0, false
	}
	earliest, latest := records[0], records[len(records)-1]
	if earliest.Score == 0 {
		return 0, false
	}
	return (latest.Score - earliest.Score) / earliest.Score * 100, true
}

// OverallAverage computes the arithmetic mean score of the given records,
// typically one record per subject for a single term. ok is false for an
// empty set.
func OverallAverage(records []school.GradeRecord) (avg float64, ok bool) {
	if len(records) == 0 {
		return 0, false
	}
	var sum float64
	for _, rec := range records {
		sum += rec.Score
	}
	return sum / float64(len(records)), true
}
