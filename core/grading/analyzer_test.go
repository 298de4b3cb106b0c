package grading

import (
	"math"
	"testing"

	"github.com/trezcool/ripoti/core/school"
)

func records(scores ...float64) []school.GradeRecord {
	recs := make([]school.GradeRecord, len(scores))
	for i, s := range scores {
		recs[i] = school.GradeRecord{TermSequence: i + 1, Score: s}
	}
	return recs
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestImprovement(t *testing.T) {
	tests := []struct {
		name    string
		records []school.GradeRecord
		want    float64
		wantOK  bool
	}{
		{name: "no records", records: records()},
		{name: "single record", records: records(60)},
		{name: "zero earliest is undefined", records: records(0, 50)},
		{name: "two records", records: records(60, 75), want: 25, wantOK: true},
		{name: "uses first and last only", records: records(60, 90, 75), want: 25, wantOK: true},
		{name: "decline is negative", records: records(80, 60), want: -25, wantOK: true},
		{name: "flat history", records: records(70, 70, 70), want: 0, wantOK: true},
		{name: "zero in the middle is fine", records: records(50, 0, 60), want: 20, wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Improvement(tt.records)
			if ok != tt.wantOK {
				t.Fatalf("Improvement() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !almostEqual(got, tt.want) {
				t.Errorf("Improvement() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverallAverage(t *testing.T) {
	tests := []struct {
		name    string
		records []school.GradeRecord
		want    float64
		wantOK  bool
	}{
		{name: "no records", records: records()},
		{name: "single record", records: records(82), want: 82, wantOK: true},
		{name: "mean of several", records: records(60, 70, 80), want: 70, wantOK: true},
		{name: "zeros count", records: records(0, 100), want: 50, wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := OverallAverage(tt.records)
			if ok != tt.wantOK {
				t.Fatalf("OverallAverage() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !almostEqual(got, tt.want) {
				t.Errorf("OverallAverage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		average float64
		want    Band
	}{
		{100, BandOutstanding},
		{85.01, BandOutstanding},
		{85, BandOutstanding}, // boundary belongs to the higher band
		{84.99, BandGood},
		{70, BandGood},
		{69.99, BandSatisfactory},
		{55, BandSatisfactory},
		{54.99, BandNeedsImprovement},
		{0, BandNeedsImprovement},
	}
	for _, tt := range tests {
		if got := BandFor(tt.average); got != tt.want {
			t.Errorf("BandFor(%v) = %s, want %s", tt.average, got, tt.want)
		}
	}
}
