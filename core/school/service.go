package school

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/ripoti/core"
	"github.com/trezcool/ripoti/core/access"
)

var (
	// errors
	ErrStudentNotFound = errors.New("student not found")
	ErrClassNotFound   = errors.New("class group not found")
	ErrTermNotFound    = errors.New("term not found")
	ErrSubjectNotFound = errors.New("subject not found")
)

type (
	// Repository is the raw storage boundary. Every query is tenant-parameterized:
	// an implementation must never return rows outside the given tenant, and must
	// report absent or cross-tenant entities with the matching *NotFound sentinel.
	Repository interface {
		GetStudent(ctx context.Context, tenantID, studentID string) (Student, error)
		// QueryStudents filters by class when classIDs is non-nil; an empty
		// non-nil slice matches nothing.
		QueryStudents(ctx context.Context, tenantID string, classIDs []string, ordering []core.DBOrdering) ([]Student, error)
		GetClassGroup(ctx context.Context, tenantID, classID string) (ClassGroup, error)
		// QueryGrades returns records ordered by (academic year, term sequence)
		// ascending; subjectID narrows to one subject when non-empty.
		QueryGrades(ctx context.Context, tenantID, studentID, subjectID string) ([]GradeRecord, error)
		// UpsertGrade atomically inserts or replaces the (student, subject, term)
		// record in a single statement.
		UpsertGrade(ctx context.Context, rec GradeRecord) (GradeRecord, error)
		GetTerm(ctx context.Context, tenantID, termID string) (Term, error)
		QueryTerms(ctx context.Context, tenantID string) ([]Term, error)
		GetSubject(ctx context.Context, subjectID string) (Subject, error)
		QuerySubjects(ctx context.Context) ([]Subject, error)
		QueryAssignedClassIDs(ctx context.Context, tenantID, principalID, academicYear string) ([]string, error)
	}

	// Service is the sole gateway to persisted tenant data. It applies the
	// mandatory tenant + role filters on every operation; callers above it
	// never touch a Repository directly.
	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var studentOrdering = []core.DBOrdering{{Field: "name", Ascending: true}}

// ListStudents returns the students visible to ac, ordered by name.
// For class-scoped roles the result is silently intersected with the caller's
// assigned class groups. An explicit classID outside the caller's scope is an
// access error; an unknown or cross-tenant classID reads as absent.
func (svc *Service) ListStudents(ctx context.Context, ac access.Context, classID string) ([]Student, error) {
	if !ac.Valid() {
		return nil, access.ErrDenied
	}

	if classID != "" {
		if _, err := svc.repo.GetClassGroup(ctx, ac.TenantID, classID); err != nil {
			return nil, err
		}
		if !ac.CanAccessClass(classID) {
			return nil, access.ErrDenied
		}
		return svc.repo.QueryStudents(ctx, ac.TenantID, []string{classID}, studentOrdering)
	}

	classIDs := ac.ScopedClassIDs()
	if classIDs != nil && len(classIDs) == 0 {
		return []Student{}, nil // class-scoped role with no assignments
	}
	return svc.repo.QueryStudents(ctx, ac.TenantID, classIDs, studentOrdering)
}

// GetStudent resolves one student within ac's tenant. Cross-tenant lookups
// surface ErrStudentNotFound, never access.ErrDenied, so existence does not
// leak across tenants.
func (svc *Service) GetStudent(ctx context.Context, ac access.Context, studentID string) (Student, error) {
	if !ac.Valid() {
		return Student{}, access.ErrDenied
	}
	stu, err := svc.repo.GetStudent(ctx, ac.TenantID, studentID)
	if err != nil {
		return Student{}, err
	}
	if !ac.CanAccessClass(stu.ClassID) {
		return Student{}, access.ErrDenied
	}
	return stu, nil
}

func (svc *Service) GetClassGroup(ctx context.Context, ac access.Context, classID string) (ClassGroup, error) {
	if !ac.Valid() {
		return ClassGroup{}, access.ErrDenied
	}
	cls, err := svc.repo.GetClassGroup(ctx, ac.TenantID, classID)
	if err != nil {
		return ClassGroup{}, err
	}
	if !ac.CanAccessClass(cls.ID) {
		return ClassGroup{}, access.ErrDenied
	}
	return cls, nil
}

// GetGradeHistory returns the student's grade records ordered by term sequence
// ascending, after the same access check as GetStudent. subjectID narrows the
// history to one subject when non-empty.
func (svc *Service) GetGradeHistory(ctx context.Context, ac access.Context, studentID, subjectID string) ([]GradeRecord, error) {
	if _, err := svc.GetStudent(ctx, ac, studentID); err != nil {
		return nil, err
	}
	return svc.repo.QueryGrades(ctx, ac.TenantID, studentID, subjectID)
}

// WriteGrade validates and records one score, stamping the writing principal
// for audit. It is the only mutator in the core and maps to a single atomic
// upsert in the store. Supervisors are read-only.
func (svc *Service) WriteGrade(ctx context.Context, ac access.Context, ng NewGrade) (GradeRecord, error) {
	if !ac.Valid() || ac.Role == access.RoleSupervisor {
		return GradeRecord{}, access.ErrDenied
	}
	if err := ng.Validate(core.Validate); err != nil {
		return GradeRecord{}, err
	}

	if _, err := svc.GetStudent(ctx, ac, ng.StudentID); err != nil {
		return GradeRecord{}, err
	}
	term, err := svc.repo.GetTerm(ctx, ac.TenantID, ng.TermID)
	if err != nil {
		return GradeRecord{}, err
	}
	subj, err := svc.repo.GetSubject(ctx, ng.SubjectID)
	if err != nil {
		return GradeRecord{}, err
	}

	now := time.Now().UTC()
	rec := GradeRecord{
		TenantID:     ac.TenantID,
		StudentID:    ng.StudentID,
		SubjectID:    subj.ID,
		SubjectName:  subj.Name,
		TermID:       term.ID,
		TermSequence: term.Sequence,
		AcademicYear: term.AcademicYear,
		Score:        ng.Score,
		RecordedBy:   ac.PrincipalID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.UpsertGrade(ctx, rec)
}

func (svc *Service) GetTerm(ctx context.Context, ac access.Context, termID string) (Term, error) {
	if !ac.Valid() {
		return Term{}, access.ErrDenied
	}
	return svc.repo.GetTerm(ctx, ac.TenantID, termID)
}

func (svc *Service) ListTerms(ctx context.Context, ac access.Context) ([]Term, error) {
	if !ac.Valid() {
		return nil, access.ErrDenied
	}
	return svc.repo.QueryTerms(ctx, ac.TenantID)
}

func (svc *Service) ListSubjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx)
}

// AssignedClassIDs resolves a principal's teaching assignments for the year.
// The auth layer uses it to build the access.Context for class-scoped roles.
func (svc *Service) AssignedClassIDs(ctx context.Context, tenantID, principalID, academicYear string) ([]string, error) {
	return svc.repo.QueryAssignedClassIDs(ctx, tenantID, principalID, academicYear)
}
