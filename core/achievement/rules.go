package achievement

import (
	"bytes"
	"encoding/json"
	"os"
	texttmpl "text/template"

	"github.com/pkg/errors"

	"github.com/trezcool/ripoti/core"
)

// Kind is the closed set of rule trigger conditions. Each kind reads exactly
// one analyzer metric; there is no free-form condition parsing.
type Kind string

const (
	// KindSubjectImprovement fires on a subject's improvement percentage.
	KindSubjectImprovement Kind = "subject_improvement"
	// KindSubjectScore fires on a subject's current-term score.
	KindSubjectScore Kind = "subject_score"
	// KindOverallImprovement fires on the percentage change of the term average.
	KindOverallImprovement Kind = "overall_improvement"
	// KindOverallScore fires on the current term's overall average.
	KindOverallScore Kind = "overall_score"
)

func (k Kind) Valid() bool {
	switch k {
	case KindSubjectImprovement, KindSubjectScore, KindOverallImprovement, KindOverallScore:
		return true
	}
	return false
}

// SubjectScoped reports whether the kind is evaluated per subject.
func (k Kind) SubjectScoped() bool {
	return k == KindSubjectImprovement || k == KindSubjectScore
}

// IsImprovement reports whether the kind's threshold is a percentage change
// (as opposed to an absolute score in [0, 100]).
func (k Kind) IsImprovement() bool {
	return k == KindSubjectImprovement || k == KindOverallImprovement
}

type (
	// Rule is one achievement catalog entry. Title and Description are
	// text/templates; `{{.Subject}}` resolves to the subject name for
	// subject-scoped kinds.
	Rule struct {
		Code        string  `json:"code" validate:"required"`
		Kind        Kind    `json:"kind" validate:"required"`
		SubjectID   string  `json:"subject_id,omitempty"` // subject-scoped kinds only; empty matches any subject
		Threshold   float64 `json:"threshold"`
		Title       string  `json:"title" validate:"required"`
		Description string  `json:"description,omitempty"`
	}

	// Catalog is an ordered rule list; catalog order breaks relevance ties.
	Catalog []Rule
)

type titleData struct {
	Subject string
}

// RenderTitle resolves the rule's title template for the given subject name.
// A malformed template degrades to the raw title rather than failing the request.
func (r Rule) RenderTitle(subjectName string) string {
	tmpl, err := texttmpl.New(r.Code).Parse(r.Title)
	if err != nil {
		return r.Title
	}
	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, titleData{Subject: subjectName}); err != nil {
		return r.Title
	}
	return buff.String()
}

func (c Catalog) Validate() error {
	seen := make(map[string]struct{}, len(c))
	for _, rule := range c {
		if err := core.Validate.Struct(rule); err != nil {
			return errors.Wrapf(err, "rule %q", rule.Code)
		}
		if !rule.Kind.Valid() {
			return errors.Errorf("rule %q: unknown kind %q", rule.Code, rule.Kind)
		}
		if rule.Threshold <= 0 {
			return errors.Errorf("rule %q: threshold must be positive", rule.Code)
		}
		if !rule.Kind.IsImprovement() && rule.Threshold > 100 {
			return errors.Errorf("rule %q: score threshold above 100", rule.Code)
		}
		if rule.SubjectID != "" && !rule.Kind.SubjectScoped() {
			return errors.Errorf("rule %q: subject filter on an overall rule", rule.Code)
		}
		if _, dup := seen[rule.Code]; dup {
			return errors.Errorf("duplicate rule code %q", rule.Code)
		}
		seen[rule.Code] = struct{}{}
	}
	return nil
}

// LoadCatalog reads an administrator-managed rule catalog from a JSON file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading rule catalog")
	}
	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, errors.Wrap(err, "parsing rule catalog")
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// DefaultCatalog is the built-in rule set used when no catalog file is configured.
func DefaultCatalog() Catalog {
	return Catalog{
		{
			Code:        "subject-improvement-20",
			Kind:        KindSubjectImprovement,
			Threshold:   20,
			Title:       "Significant improvement in {{.Subject}}",
			Description: "Raised their {{.Subject}} score by at least 20% over the term history.",
		},
		{
			Code:        "subject-excellence-90",
			Kind:        KindSubjectScore,
			Threshold:   90,
			Title:       "Excellence in {{.Subject}}",
			Description: "Scored 90 or above in {{.Subject}} this term.",
		},
		{
			Code:        "overall-improvement-15",
			Kind:        KindOverallImprovement,
			Threshold:   15,
			Title:       "Strong overall progress",
			Description: "Raised their overall term average by at least 15%.",
		},
		{
			Code:        "overall-excellence-85",
			Kind:        KindOverallScore,
			Threshold:   85,
			Title:       "Outstanding term performance",
			Description: "Held an overall term average of 85 or above.",
		},
	}
}
