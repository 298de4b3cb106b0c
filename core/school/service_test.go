package school_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ripoti/core/access"
	"github.com/trezcool/ripoti/core/school"
	"github.com/trezcool/ripoti/storage/database/inmem"
)

const year = "2025-2026"

type fixture struct {
	svc  *school.Service
	repo *inmemdb.SchoolRepository

	tenant1, tenant2   school.Tenant
	classA, classB     school.ClassGroup // tenant1
	classC             school.ClassGroup // tenant2
	amina, benji, tina school.Student    // amina: classA; benji: classB; tina: classC
	term1, term2       school.Term       // tenant1
	math, english      school.Subject
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo := inmemdb.NewSchoolRepository(db)

	f := &fixture{svc: school.NewService(repo), repo: repo}
	f.tenant1 = repo.AddTenant(school.Tenant{Name: "Alpha Academy"})
	f.tenant2 = repo.AddTenant(school.Tenant{Name: "Beta School"})
	f.classA = repo.AddClassGroup(school.ClassGroup{TenantID: f.tenant1.ID, Name: "6A", AcademicYear: year})
	f.classB = repo.AddClassGroup(school.ClassGroup{TenantID: f.tenant1.ID, Name: "6B", AcademicYear: year})
	f.classC = repo.AddClassGroup(school.ClassGroup{TenantID: f.tenant2.ID, Name: "5C", AcademicYear: year})
	f.amina = repo.AddStudent(school.Student{TenantID: f.tenant1.ID, ClassID: f.classA.ID, Name: "Amina"})
	f.benji = repo.AddStudent(school.Student{TenantID: f.tenant1.ID, ClassID: f.classB.ID, Name: "Benji"})
	f.tina = repo.AddStudent(school.Student{TenantID: f.tenant2.ID, ClassID: f.classC.ID, Name: "Tina"})
	f.term1 = repo.AddTerm(school.Term{TenantID: f.tenant1.ID, Name: "Term 1", AcademicYear: year, Sequence: 1})
	f.term2 = repo.AddTerm(school.Term{TenantID: f.tenant1.ID, Name: "Term 2", AcademicYear: year, Sequence: 2})
	f.math = repo.AddSubject(school.Subject{Name: "Mathematics"})
	f.english = repo.AddSubject(school.Subject{Name: "English"})
	return f
}

func (f *fixture) teacherCtx(classIDs ...string) access.Context {
	return access.Context{TenantID: f.tenant1.ID, PrincipalID: "teacher-1", Role: access.RoleTeacher, ClassIDs: classIDs}
}

func (f *fixture) adminCtx() access.Context {
	return access.Context{TenantID: f.tenant1.ID, PrincipalID: "admin-1", Role: access.RoleAdmin}
}

func (f *fixture) supervisorCtx() access.Context {
	return access.Context{TenantID: f.tenant1.ID, PrincipalID: "sup-1", Role: access.RoleSupervisor}
}

func studentIDs(students []school.Student) []string {
	ids := make([]string, len(students))
	for i, stu := range students {
		ids[i] = stu.ID
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestService_GetStudent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		ac        access.Context
		studentID string
		wantErr   error
	}{
		{name: "admin sees any student in tenant", ac: f.adminCtx(), studentID: f.benji.ID},
		{name: "supervisor sees any student in tenant", ac: f.supervisorCtx(), studentID: f.amina.ID},
		{name: "teacher sees student in assigned class", ac: f.teacherCtx(f.classA.ID), studentID: f.amina.ID},
		{name: "teacher denied student in other class", ac: f.teacherCtx(f.classA.ID), studentID: f.benji.ID, wantErr: access.ErrDenied},
		{name: "cross-tenant reads as not found, even for admin", ac: f.adminCtx(), studentID: f.tina.ID, wantErr: school.ErrStudentNotFound},
		{name: "unknown student", ac: f.adminCtx(), studentID: "nope", wantErr: school.ErrStudentNotFound},
		{name: "invalid context denied", ac: access.Context{}, studentID: f.amina.ID, wantErr: access.ErrDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stu, err := f.svc.GetStudent(ctx, tt.ac, tt.studentID)
			if err != tt.wantErr {
				t.Fatalf("GetStudent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && stu.ID != tt.studentID {
				t.Errorf("GetStudent() ID = %s, want %s", stu.ID, tt.studentID)
			}
		})
	}
}

func TestService_ListStudents(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		ac      access.Context
		classID string
		wantIDs []string
		wantErr error
	}{
		{name: "admin sees whole tenant", ac: f.adminCtx(), wantIDs: []string{f.amina.ID, f.benji.ID}},
		{name: "admin filters by class", ac: f.adminCtx(), classID: f.classB.ID, wantIDs: []string{f.benji.ID}},
		{name: "teacher implicitly scoped to assignments", ac: f.teacherCtx(f.classA.ID), wantIDs: []string{f.amina.ID}},
		{name: "teacher with no assignments sees nothing", ac: f.teacherCtx(), wantIDs: []string{}},
		{name: "teacher explicit class outside scope denied", ac: f.teacherCtx(f.classA.ID), classID: f.classB.ID, wantErr: access.ErrDenied},
		{name: "cross-tenant class reads as not found", ac: f.adminCtx(), classID: f.classC.ID, wantErr: school.ErrClassNotFound},
		{name: "unknown class", ac: f.adminCtx(), classID: "nope", wantErr: school.ErrClassNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			students, err := f.svc.ListStudents(ctx, tt.ac, tt.classID)
			if err != tt.wantErr {
				t.Fatalf("ListStudents() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := studentIDs(students); !equalIDs(got, tt.wantIDs) {
				t.Errorf("ListStudents() IDs = %v, want %v", got, tt.wantIDs)
			}
		})
	}
}

func TestService_WriteGrade(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	newGrade := func(score float64) school.NewGrade {
		return school.NewGrade{StudentID: f.amina.ID, SubjectID: f.math.ID, TermID: f.term1.ID, Score: score}
	}

	tests := []struct {
		name        string
		ac          access.Context
		ng          school.NewGrade
		wantErr     error
		wantInvalid bool
	}{
		{name: "teacher writes in assigned class", ac: f.teacherCtx(f.classA.ID), ng: newGrade(75)},
		{name: "admin writes anywhere in tenant", ac: f.adminCtx(), ng: newGrade(80)},
		{name: "supervisor is read-only", ac: f.supervisorCtx(), ng: newGrade(75), wantErr: access.ErrDenied},
		{name: "teacher denied outside assigned classes", ac: f.teacherCtx(f.classB.ID), ng: newGrade(75), wantErr: access.ErrDenied},
		{name: "score of 0 is valid", ac: f.adminCtx(), ng: newGrade(0)},
		{name: "score of 100 is valid", ac: f.adminCtx(), ng: newGrade(100)},
		{name: "score above 100 rejected", ac: f.adminCtx(), ng: newGrade(100.01), wantInvalid: true},
		{name: "negative score rejected", ac: f.adminCtx(), ng: newGrade(-1), wantInvalid: true},
		{name: "missing subject rejected", ac: f.adminCtx(), ng: school.NewGrade{StudentID: f.amina.ID, TermID: f.term1.ID, Score: 50}, wantInvalid: true},
		{
			name:    "unknown term",
			ac:      f.adminCtx(),
			ng:      school.NewGrade{StudentID: f.amina.ID, SubjectID: f.math.ID, TermID: "nope", Score: 50},
			wantErr: school.ErrTermNotFound,
		},
		{
			name:    "unknown subject",
			ac:      f.adminCtx(),
			ng:      school.NewGrade{StudentID: f.amina.ID, SubjectID: "nope", TermID: f.term1.ID, Score: 50},
			wantErr: school.ErrSubjectNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := f.svc.WriteGrade(ctx, tt.ac, tt.ng)
			if tt.wantInvalid {
				if _, ok := err.(validator.ValidationErrors); !ok {
					t.Fatalf("WriteGrade() error = %v, want validation error", err)
				}
				return
			}
			if err != tt.wantErr {
				t.Fatalf("WriteGrade() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if rec.Score != tt.ng.Score {
				t.Errorf("WriteGrade() Score = %v, want %v", rec.Score, tt.ng.Score)
			}
			if rec.RecordedBy != tt.ac.PrincipalID {
				t.Errorf("WriteGrade() RecordedBy = %s, want %s", rec.RecordedBy, tt.ac.PrincipalID)
			}
			if rec.SubjectName != f.math.Name {
				t.Errorf("WriteGrade() SubjectName = %s, want %s", rec.SubjectName, f.math.Name)
			}
		})
	}
}

func TestService_WriteGrade_upsert(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ac := f.adminCtx()

	ng := school.NewGrade{StudentID: f.amina.ID, SubjectID: f.math.ID, TermID: f.term1.ID, Score: 60}
	first, err := f.svc.WriteGrade(ctx, ac, ng)
	if err != nil {
		t.Fatalf("WriteGrade() failed: %v", err)
	}

	ng.Score = 72.5
	second, err := f.svc.WriteGrade(ctx, ac, ng)
	if err != nil {
		t.Fatalf("WriteGrade() failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("WriteGrade() created a new record, want replacement of %s", first.ID)
	}
	if second.Score != 72.5 {
		t.Errorf("WriteGrade() Score = %v, want 72.5", second.Score)
	}

	history, err := f.svc.GetGradeHistory(ctx, ac, f.amina.ID, "")
	if err != nil {
		t.Fatalf("GetGradeHistory() failed: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("GetGradeHistory() len = %d, want 1", len(history))
	}
}

func TestService_GetGradeHistory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ac := f.adminCtx()

	// written out of term order on purpose
	writes := []school.NewGrade{
		{StudentID: f.amina.ID, SubjectID: f.math.ID, TermID: f.term2.ID, Score: 85},
		{StudentID: f.amina.ID, SubjectID: f.english.ID, TermID: f.term1.ID, Score: 70},
		{StudentID: f.amina.ID, SubjectID: f.math.ID, TermID: f.term1.ID, Score: 60},
	}
	for _, ng := range writes {
		if _, err := f.svc.WriteGrade(ctx, ac, ng); err != nil {
			t.Fatalf("WriteGrade() failed: %v", err)
		}
	}

	history, err := f.svc.GetGradeHistory(ctx, ac, f.amina.ID, "")
	if err != nil {
		t.Fatalf("GetGradeHistory() failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("GetGradeHistory() len = %d, want 3", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].TermSequence < history[i-1].TermSequence {
			t.Errorf("GetGradeHistory() not ordered by term sequence: %v", history)
		}
	}

	mathOnly, err := f.svc.GetGradeHistory(ctx, ac, f.amina.ID, f.math.ID)
	if err != nil {
		t.Fatalf("GetGradeHistory() failed: %v", err)
	}
	if len(mathOnly) != 2 {
		t.Fatalf("GetGradeHistory() len = %d, want 2", len(mathOnly))
	}
	if mathOnly[0].Score != 60 || mathOnly[1].Score != 85 {
		t.Errorf("GetGradeHistory() scores = %v, %v; want 60, 85", mathOnly[0].Score, mathOnly[1].Score)
	}

	// access checks apply before any history is fetched
	if _, err = f.svc.GetGradeHistory(ctx, f.teacherCtx(f.classB.ID), f.amina.ID, ""); err != access.ErrDenied {
		t.Errorf("GetGradeHistory() error = %v, want %v", err, access.ErrDenied)
	}
	if _, err = f.svc.GetGradeHistory(ctx, f.adminCtx(), f.tina.ID, ""); err != school.ErrStudentNotFound {
		t.Errorf("GetGradeHistory() error = %v, want %v", err, school.ErrStudentNotFound)
	}
}
