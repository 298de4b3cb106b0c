package school

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Tenant is the isolation boundary: every other entity references exactly one
// tenant, directly or via its parent.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// ClassGroup belongs to one tenant; principals are assigned to teach it per
// academic year (the assignment set is resolved by the auth layer).
type ClassGroup struct {
	ID           string `json:"id"`
	TenantID     string `json:"tenant_id"`
	Name         string `json:"name"`
	AcademicYear string `json:"academic_year"`
}

type Student struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	ClassID       string    `json:"class_id"`
	Name          string    `json:"name"`
	GuardianEmail string    `json:"guardian_email,omitempty"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// Term is an academic period, ordered by Sequence within an academic year.
type Term struct {
	ID           string `json:"id"`
	TenantID     string `json:"tenant_id"`
	Name         string `json:"name"`
	AcademicYear string `json:"academic_year"`
	Sequence     int    `json:"sequence"`
}

// Subject is a tenant-shared catalog entry; subject names are universal.
type Subject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GradeRecord is a (student, subject, term) score, unique per triple.
// SubjectName, TermSequence and AcademicYear are denormalized by the
// repository so downstream computation never reaches back into the store.
type GradeRecord struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	StudentID    string    `json:"student_id"`
	SubjectID    string    `json:"subject_id"`
	SubjectName  string    `json:"subject_name"`
	TermID       string    `json:"term_id"`
	TermSequence int       `json:"term_sequence"`
	AcademicYear string    `json:"academic_year"`
	Score        float64   `json:"score"` // [0, 100]
	RecordedBy   string    `json:"recorded_by"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// NewGrade contains information needed to write one grade.
type NewGrade struct {
	StudentID string  `json:"student_id" validate:"required"`
	SubjectID string  `json:"subject_id" validate:"required"`
	TermID    string  `json:"term_id" validate:"required"`
	Score     float64 `json:"score" validate:"gte=0,lte=100"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	return validate.Struct(ng)
}
