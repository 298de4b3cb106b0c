package achievement

import (
	"context"
	"fmt"
	"sort"

	"github.com/trezcool/ripoti/core/access"
	"github.com/trezcool/ripoti/core/grading"
	"github.com/trezcool/ripoti/core/school"
)

// Relevance tiers. A metric at or above the rule threshold scores the full
// base; one reaching at least nearMissFraction of the threshold surfaces as a
// lower-confidence candidate. The base is then scaled by how many terms of
// data back it, so thinly evidenced matches rank lower.
const (
	baseMatch            = 0.9
	baseNearMiss         = 0.7
	nearMissFraction     = 0.8
	fullReliabilityTerms = 3
)

// Suggestion is a transient, recomputed-per-request match of a student/term
// against one catalog rule. It is never persisted.
type Suggestion struct {
	RuleCode    string  `json:"rule_code"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Explanation string  `json:"explanation"`
	Relevance   float64 `json:"relevance"` // [0, 1]
	SubjectID   string  `json:"subject_id,omitempty"`
	SubjectName string  `json:"subject_name,omitempty"`
}

// Engine matches a student's analyzed grade history against the rule catalog.
// All data flows through the access-scoped school service; the engine never
// bypasses tenant or role checks.
type Engine struct {
	school  *school.Service
	catalog Catalog
}

func NewEngine(svc *school.Service, catalog Catalog) *Engine {
	return &Engine{school: svc, catalog: catalog}
}

func (e *Engine) Catalog() Catalog {
	catalog := make(Catalog, len(e.catalog))
	copy(catalog, e.catalog)
	return catalog
}

// subjectHistory keeps one subject's records in chronological order, plus its
// identity for title rendering. Subjects are held in a slice (not a map) so
// two runs over identical data produce identical ordering.
type subjectHistory struct {
	id      string
	name    string
	records []school.GradeRecord
}

// metrics is the analyzer output the rules are matched against.
type metrics struct {
	subjects []subjectHistory

	currentBySubject map[string]school.GradeRecord

	overallAvg float64
	overallOK  bool

	overallImprovement   float64
	overallImprovementOK bool

	// coveredTerms counts the terms having a grade for every subject present
	// in the current term; it backs the reliability of overall rules.
	coveredTerms int
}

// Suggest returns the ranked achievement suggestions for one student/term.
// An empty result is valid: a student with no qualifying metric simply has
// nothing to suggest, and report compilation proceeds on comments alone.
func (e *Engine) Suggest(ctx context.Context, ac access.Context, studentID, termID string) ([]Suggestion, error) {
	term, err := e.school.GetTerm(ctx, ac, termID)
	if err != nil {
		return nil, err
	}
	history, err := e.school.GetGradeHistory(ctx, ac, studentID, "")
	if err != nil {
		return nil, err
	}

	m := analyze(history, term)

	suggestions := make([]Suggestion, 0)
	for _, rule := range e.catalog {
		suggestions = append(suggestions, e.match(rule, m)...)
	}

	// ties keep catalog order (and, within a rule, subject order)
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Relevance > suggestions[j].Relevance
	})
	return suggestions, nil
}

// analyze reduces the raw history to the per-subject and overall metrics the
// rules read. Only the target term's academic year is considered, up to and
// including the target term.
func analyze(history []school.GradeRecord, term school.Term) metrics {
	m := metrics{currentBySubject: make(map[string]school.GradeRecord)}

	subjIdx := make(map[string]int)
	bySeq := make(map[int]map[string]float64)
	for _, rec := range history {
		if rec.AcademicYear != term.AcademicYear || rec.TermSequence > term.Sequence {
			continue
		}
		i, ok := subjIdx[rec.SubjectID]
		if !ok {
			i = len(m.subjects)
			subjIdx[rec.SubjectID] = i
			m.subjects = append(m.subjects, subjectHistory{id: rec.SubjectID, name: rec.SubjectName})
		}
		m.subjects[i].records = append(m.subjects[i].records, rec)

		if bySeq[rec.TermSequence] == nil {
			bySeq[rec.TermSequence] = make(map[string]float64)
		}
		bySeq[rec.TermSequence][rec.SubjectID] = rec.Score

		if rec.TermID == term.ID {
			m.currentBySubject[rec.SubjectID] = rec
		}
	}

	// current-term overall average, one record per subject
	current := make([]school.GradeRecord, 0, len(m.currentBySubject))
	for _, sub := range m.subjects {
		if rec, ok := m.currentBySubject[sub.id]; ok {
			current = append(current, rec)
		}
	}
	m.overallAvg, m.overallOK = grading.OverallAverage(current)

	// overall improvement over the terms fully covering the current subject set
	if m.overallOK {
		seqs := make([]int, 0, len(bySeq))
		for seq, scores := range bySeq {
			covered := true
			for sub := range m.currentBySubject {
				if _, ok := scores[sub]; !ok {
					covered = false
					break
				}
			}
			if covered {
				seqs = append(seqs, seq)
			}
		}
		sort.Ints(seqs)
		m.coveredTerms = len(seqs)

		if len(seqs) >= 2 {
			avgOf := func(seq int) float64 {
				var sum float64
				for sub := range m.currentBySubject {
					sum += bySeq[seq][sub]
				}
				return sum / float64(len(m.currentBySubject))
			}
			earliest, latest := avgOf(seqs[0]), avgOf(seqs[len(seqs)-1])
			if earliest != 0 {
				m.overallImprovement = (latest - earliest) / earliest * 100
				m.overallImprovementOK = true
			}
		}
	}
	return m
}

func (e *Engine) match(rule Rule, m metrics) []Suggestion {
	if rule.Kind.SubjectScoped() {
		return e.matchSubjects(rule, m)
	}
	return e.matchOverall(rule, m)
}

func (e *Engine) matchSubjects(rule Rule, m metrics) []Suggestion {
	matches := make([]Suggestion, 0)
	for _, sub := range m.subjects {
		if rule.SubjectID != "" && rule.SubjectID != sub.id {
			continue
		}

		var metric float64
		var ok bool
		switch rule.Kind {
		case KindSubjectImprovement:
			metric, ok = grading.Improvement(sub.records)
		case KindSubjectScore:
			var rec school.GradeRecord
			if rec, ok = m.currentBySubject[sub.id]; ok {
				metric = rec.Score
			}
		}
		if !ok {
			continue // insufficient data never matches any threshold
		}

		base, hit := baseScore(metric, rule.Threshold)
		if !hit {
			continue
		}

		sug := Suggestion{
			RuleCode:    rule.Code,
			Title:       rule.RenderTitle(sub.name),
			Relevance:   base * reliability(len(sub.records)),
			SubjectID:   sub.id,
			SubjectName: sub.name,
		}
		if rule.Description != "" {
			sug.Description = Rule{Code: rule.Code, Title: rule.Description}.RenderTitle(sub.name)
		}

		switch rule.Kind {
		case KindSubjectImprovement:
			first, last := sub.records[0].Score, sub.records[len(sub.records)-1].Score
			sug.Explanation = fmt.Sprintf(
				"%s rose from %.0f to %.0f over %d terms: %+.2f%% (threshold %.0f%%)",
				sub.name, first, last, len(sub.records), metric, rule.Threshold)
		case KindSubjectScore:
			sug.Explanation = fmt.Sprintf(
				"scored %.0f in %s this term (threshold %.0f, %d terms of data)",
				metric, sub.name, rule.Threshold, len(sub.records))
		}
		matches = append(matches, sug)
	}
	return matches
}

func (e *Engine) matchOverall(rule Rule, m metrics) []Suggestion {
	var metric float64
	var ok bool
	switch rule.Kind {
	case KindOverallImprovement:
		metric, ok = m.overallImprovement, m.overallImprovementOK
	case KindOverallScore:
		metric, ok = m.overallAvg, m.overallOK
	}
	if !ok {
		return nil
	}

	base, hit := baseScore(metric, rule.Threshold)
	if !hit {
		return nil
	}

	sug := Suggestion{
		RuleCode:    rule.Code,
		Title:       rule.RenderTitle(""),
		Relevance:   base * reliability(m.coveredTerms),
		Description: rule.Description,
	}
	switch rule.Kind {
	case KindOverallImprovement:
		sug.Explanation = fmt.Sprintf(
			"overall average improved %+.2f%% over %d fully graded terms (threshold %.0f%%)",
			metric, m.coveredTerms, rule.Threshold)
	case KindOverallScore:
		sug.Explanation = fmt.Sprintf(
			"overall term average of %.2f (threshold %.0f, %d fully graded terms)",
			metric, rule.Threshold, m.coveredTerms)
	}
	return []Suggestion{sug}
}

func baseScore(metric, threshold float64) (base float64, hit bool) {
	switch {
	case metric >= threshold:
		return baseMatch, true
	case metric >= threshold*nearMissFraction:
		return baseNearMiss, true
	default:
		return 0, false
	}
}

func reliability(termsWithData int) float64 {
	r := float64(termsWithData) / fullReliabilityTerms
	if r > 1 {
		return 1
	}
	return r
}
