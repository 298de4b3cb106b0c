package report

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/trezcool/ripoti/core"
	"github.com/trezcool/ripoti/core/access"
	"github.com/trezcool/ripoti/core/achievement"
	"github.com/trezcool/ripoti/core/grading"
	"github.com/trezcool/ripoti/core/school"
)

var (
	// errors
	errCommentsRequired   = errors.New("comments are required")
	errCommentsTooLong    = errors.New("comments exceed the maximum length")
	errUnknownAchievement = errors.New("achievement was not suggested for this student and term")
)

type (
	// GradeLine is one row of the report's grade table.
	GradeLine struct {
		SubjectID   string  `json:"subject_id"`
		SubjectName string  `json:"subject_name"`
		Score       float64 `json:"score"`
		// Improvement is the percentage change across the subject's history;
		// HasImprovement is false when there was not enough data to compute it.
		Improvement    float64 `json:"improvement,omitempty"`
		HasImprovement bool    `json:"has_improvement"`
	}

	// Payload is the fully resolved, access-checked document structure handed
	// to the external renderer. It has no lazy fields: rendering never needs
	// further access checks. It is built per request and never persisted.
	Payload struct {
		Student school.Student    `json:"student"`
		Class   school.ClassGroup `json:"class"`
		Term    school.Term       `json:"term"`

		Grades     []GradeLine  `json:"grades"`
		Average    float64      `json:"average"`
		HasAverage bool         `json:"has_average"`
		Band       grading.Band `json:"band"`

		Achievements       []string `json:"achievements"`        // chosen from suggestions
		CustomAchievements []string `json:"custom_achievements"` // teacher free text
		Comments           string   `json:"comments"`
	}

	// CompileInput is the teacher-supplied part of a report.
	CompileInput struct {
		// Achievements must be a subset of the suggestion titles the engine
		// produces for this student/term. CustomAchievements are free text
		// and skip that check.
		Achievements       []string `json:"achievements"`
		CustomAchievements []string `json:"custom_achievements"`
		Comments           string   `json:"comments"`
	}

	// Compiler assembles one Payload per (student, term) pair, passing the
	// caller's access context through unchanged on every sub-fetch.
	Compiler struct {
		school *school.Service
		engine *achievement.Engine
		conf   core.ReportConfig
	}
)

func NewCompiler(svc *school.Service, engine *achievement.Engine, conf core.ReportConfig) *Compiler {
	return &Compiler{school: svc, engine: engine, conf: conf}
}

func (c *Compiler) validateInput(in CompileInput) error {
	comments := core.CleanString(in.Comments)
	if c.conf.RequireComments && comments == "" {
		return core.NewValidationError(errCommentsRequired,
			core.FieldError{Field: "comments", Error: errCommentsRequired.Error()})
	}
	// the limit counts characters, not bytes
	if max := c.conf.MaxCommentLen; max > 0 && utf8.RuneCountInString(comments) > max {
		err := fmt.Errorf("%s (%d > %d)", errCommentsTooLong, utf8.RuneCountInString(comments), max)
		return core.NewValidationError(err,
			core.FieldError{Field: "comments", Error: err.Error()})
	}
	return nil
}

// Compile builds the report payload. NotFound and access errors from the
// school service propagate unmodified; there is no silent downgrade to
// partial data.
func (c *Compiler) Compile(ctx context.Context, ac access.Context, studentID, termID string, in CompileInput) (Payload, error) {
	if err := c.validateInput(in); err != nil {
		return Payload{}, err
	}

	student, err := c.school.GetStudent(ctx, ac, studentID)
	if err != nil {
		return Payload{}, err
	}
	class, err := c.school.GetClassGroup(ctx, ac, student.ClassID)
	if err != nil {
		return Payload{}, err
	}
	term, err := c.school.GetTerm(ctx, ac, termID)
	if err != nil {
		return Payload{}, err
	}
	history, err := c.school.GetGradeHistory(ctx, ac, studentID, "")
	if err != nil {
		return Payload{}, err
	}

	suggestions, err := c.engine.Suggest(ctx, ac, studentID, termID)
	if err != nil {
		return Payload{}, err
	}
	if err := validateChosen(in.Achievements, suggestions); err != nil {
		return Payload{}, err
	}

	payload := Payload{
		Student:            student,
		Class:              class,
		Term:               term,
		Achievements:       in.Achievements,
		CustomAchievements: in.CustomAchievements,
		Comments:           core.CleanString(in.Comments),
	}
	if payload.Achievements == nil {
		payload.Achievements = []string{}
	}
	if payload.CustomAchievements == nil {
		payload.CustomAchievements = []string{}
	}

	payload.Grades = gradeTable(history, term)

	current := make([]school.GradeRecord, 0, len(payload.Grades))
	for _, rec := range history {
		if rec.TermID == term.ID {
			current = append(current, rec)
		}
	}
	payload.Average, payload.HasAverage = grading.OverallAverage(current)
	if payload.HasAverage {
		payload.Band = grading.BandFor(payload.Average)
	}
	return payload, nil
}

// gradeTable builds one line per subject graded in the target term, with the
// subject's improvement across its history in the same academic year.
func gradeTable(history []school.GradeRecord, term school.Term) []GradeLine {
	type subjAcc struct {
		records []school.GradeRecord
		current *school.GradeRecord
	}
	order := make([]string, 0)
	bySubject := make(map[string]*subjAcc)

	for i, rec := range history {
		if rec.AcademicYear != term.AcademicYear || rec.TermSequence > term.Sequence {
			continue
		}
		acc, ok := bySubject[rec.SubjectID]
		if !ok {
			acc = &subjAcc{}
			bySubject[rec.SubjectID] = acc
			order = append(order, rec.SubjectID)
		}
		acc.records = append(acc.records, rec)
		if rec.TermID == term.ID {
			acc.current = &history[i]
		}
	}

	lines := make([]GradeLine, 0, len(order))
	for _, subjectID := range order {
		acc := bySubject[subjectID]
		if acc.current == nil {
			continue // not graded in the target term
		}
		line := GradeLine{
			SubjectID:   subjectID,
			SubjectName: acc.current.SubjectName,
			Score:       acc.current.Score,
		}
		line.Improvement, line.HasImprovement = grading.Improvement(acc.records)
		lines = append(lines, line)
	}
	return lines
}

func validateChosen(chosen []string, suggestions []achievement.Suggestion) error {
	if len(chosen) == 0 {
		return nil
	}
	titles := make(map[string]struct{}, len(suggestions))
	for _, sug := range suggestions {
		titles[sug.Title] = struct{}{}
	}
	for _, title := range chosen {
		if _, ok := titles[title]; !ok {
			err := fmt.Errorf("%q: %s", title, errUnknownAchievement)
			return core.NewValidationError(err,
				core.FieldError{Field: "achievements", Error: err.Error()})
		}
	}
	return nil
}
