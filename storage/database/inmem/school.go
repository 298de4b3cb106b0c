package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ripoti/core"
	"github.com/trezcool/ripoti/core/school"
)

type SchoolRepository struct {
	db *DB
}

var _ school.Repository = (*SchoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// seeding helpers (not part of school.Repository)

func (repo *SchoolRepository) AddTenant(t school.Tenant) school.Tenant {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	repo.db.tenants[t.ID] = &t
	return t
}

func (repo *SchoolRepository) AddClassGroup(c school.ClassGroup) school.ClassGroup {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	repo.db.classes[c.ID] = &c
	return c
}

func (repo *SchoolRepository) AddStudent(s school.Student) school.Student {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt, s.UpdatedAt = now, now
	}
	repo.db.students[s.ID] = &s
	return s
}

func (repo *SchoolRepository) AddTerm(t school.Term) school.Term {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	repo.db.terms[t.ID] = &t
	return t
}

func (repo *SchoolRepository) AddSubject(s school.Subject) school.Subject {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	repo.db.subjects[s.ID] = &s
	return s
}

func (repo *SchoolRepository) AssignClass(tenantID, principalID, classID, academicYear string) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.assignments = append(repo.db.assignments, assignment{
		TenantID:     tenantID,
		PrincipalID:  principalID,
		ClassID:      classID,
		AcademicYear: academicYear,
	})
}

// school.Repository implementation

func (repo *SchoolRepository) GetStudent(_ context.Context, tenantID, studentID string) (school.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if stu, ok := repo.db.students[studentID]; ok && stu.TenantID == tenantID {
		return *stu, nil
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo *SchoolRepository) QueryStudents(_ context.Context, tenantID string, classIDs []string, ordering []core.DBOrdering) ([]school.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	inClasses := func(classID string) bool {
		if classIDs == nil {
			return true
		}
		for _, id := range classIDs {
			if id == classID {
				return true
			}
		}
		return false
	}

	students := make([]school.Student, 0)
	for _, stu := range repo.db.students {
		if stu.TenantID == tenantID && inClasses(stu.ClassID) {
			students = append(students, *stu)
		}
	}

	sort.Slice(students, func(i, j int) bool {
		for _, ord := range ordering {
			if ord.Field == "name" && students[i].Name != students[j].Name {
				if ord.Ascending {
					return students[i].Name < students[j].Name
				}
				return students[i].Name > students[j].Name
			}
		}
		return students[i].ID < students[j].ID
	})
	return students, nil
}

func (repo *SchoolRepository) GetClassGroup(_ context.Context, tenantID, classID string) (school.ClassGroup, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cls, ok := repo.db.classes[classID]; ok && cls.TenantID == tenantID {
		return *cls, nil
	}
	return school.ClassGroup{}, school.ErrClassNotFound
}

func (repo *SchoolRepository) QueryGrades(_ context.Context, tenantID, studentID, subjectID string) ([]school.GradeRecord, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	records := make([]school.GradeRecord, 0)
	for _, rec := range repo.db.grades {
		if rec.TenantID != tenantID || rec.StudentID != studentID {
			continue
		}
		if subjectID != "" && rec.SubjectID != subjectID {
			continue
		}
		records = append(records, *rec)
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.AcademicYear != b.AcademicYear {
			return a.AcademicYear < b.AcademicYear
		}
		if a.TermSequence != b.TermSequence {
			return a.TermSequence < b.TermSequence
		}
		return strings.ToLower(a.SubjectName) < strings.ToLower(b.SubjectName)
	})
	return records, nil
}

func (repo *SchoolRepository) UpsertGrade(_ context.Context, rec school.GradeRecord) (school.GradeRecord, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// unique (student, subject, term)
	for id, existing := range repo.db.grades {
		if existing.StudentID == rec.StudentID && existing.SubjectID == rec.SubjectID && existing.TermID == rec.TermID {
			rec.ID = id
			rec.CreatedAt = existing.CreatedAt
			repo.db.grades[id] = &rec
			return rec, nil
		}
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	repo.db.grades[rec.ID] = &rec
	return rec, nil
}

func (repo *SchoolRepository) GetTerm(_ context.Context, tenantID, termID string) (school.Term, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if term, ok := repo.db.terms[termID]; ok && term.TenantID == tenantID {
		return *term, nil
	}
	return school.Term{}, school.ErrTermNotFound
}

func (repo *SchoolRepository) QueryTerms(_ context.Context, tenantID string) ([]school.Term, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	terms := make([]school.Term, 0)
	for _, term := range repo.db.terms {
		if term.TenantID == tenantID {
			terms = append(terms, *term)
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].AcademicYear != terms[j].AcademicYear {
			return terms[i].AcademicYear < terms[j].AcademicYear
		}
		return terms[i].Sequence < terms[j].Sequence
	})
	return terms, nil
}

func (repo *SchoolRepository) GetSubject(_ context.Context, subjectID string) (school.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if subj, ok := repo.db.subjects[subjectID]; ok {
		return *subj, nil
	}
	return school.Subject{}, school.ErrSubjectNotFound
}

func (repo *SchoolRepository) QuerySubjects(_ context.Context) ([]school.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subjects := make([]school.Subject, 0, len(repo.db.subjects))
	for _, subj := range repo.db.subjects {
		subjects = append(subjects, *subj)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

func (repo *SchoolRepository) QueryAssignedClassIDs(_ context.Context, tenantID, principalID, academicYear string) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := make([]string, 0)
	for _, asg := range repo.db.assignments {
		if asg.TenantID == tenantID && asg.PrincipalID == principalID && asg.AcademicYear == academicYear {
			ids = append(ids, asg.ClassID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
