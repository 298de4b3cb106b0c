package inmemdb

import (
	"context"
	"testing"

	"github.com/trezcool/ripoti/core"
	"github.com/trezcool/ripoti/core/school"
)

func setup(t *testing.T) *SchoolRepository {
	t.Helper()
	db, err := Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	return NewSchoolRepository(db)
}

func TestSchoolRepository_tenantFilters(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	t1 := repo.AddTenant(school.Tenant{Name: "Alpha"})
	t2 := repo.AddTenant(school.Tenant{Name: "Beta"})
	cls := repo.AddClassGroup(school.ClassGroup{TenantID: t1.ID, Name: "6A", AcademicYear: "2025-2026"})
	stu := repo.AddStudent(school.Student{TenantID: t1.ID, ClassID: cls.ID, Name: "Amina"})
	term := repo.AddTerm(school.Term{TenantID: t1.ID, Name: "Term 1", AcademicYear: "2025-2026", Sequence: 1})

	if _, err := repo.GetStudent(ctx, t1.ID, stu.ID); err != nil {
		t.Errorf("GetStudent() failed: %v", err)
	}
	if _, err := repo.GetStudent(ctx, t2.ID, stu.ID); err != school.ErrStudentNotFound {
		t.Errorf("GetStudent() cross-tenant error = %v, want %v", err, school.ErrStudentNotFound)
	}
	if _, err := repo.GetClassGroup(ctx, t2.ID, cls.ID); err != school.ErrClassNotFound {
		t.Errorf("GetClassGroup() cross-tenant error = %v, want %v", err, school.ErrClassNotFound)
	}
	if _, err := repo.GetTerm(ctx, t2.ID, term.ID); err != school.ErrTermNotFound {
		t.Errorf("GetTerm() cross-tenant error = %v, want %v", err, school.ErrTermNotFound)
	}

	students, err := repo.QueryStudents(ctx, t2.ID, nil, nil)
	if err != nil {
		t.Fatalf("QueryStudents() failed: %v", err)
	}
	if len(students) != 0 {
		t.Errorf("QueryStudents() leaked %d students across tenants", len(students))
	}
}

func TestSchoolRepository_queryStudentsClassFilter(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	tenant := repo.AddTenant(school.Tenant{Name: "Alpha"})
	clsA := repo.AddClassGroup(school.ClassGroup{TenantID: tenant.ID, Name: "6A", AcademicYear: "2025-2026"})
	clsB := repo.AddClassGroup(school.ClassGroup{TenantID: tenant.ID, Name: "6B", AcademicYear: "2025-2026"})
	repo.AddStudent(school.Student{TenantID: tenant.ID, ClassID: clsA.ID, Name: "Benji"})
	repo.AddStudent(school.Student{TenantID: tenant.ID, ClassID: clsA.ID, Name: "Amina"})
	repo.AddStudent(school.Student{TenantID: tenant.ID, ClassID: clsB.ID, Name: "Tina"})

	ordering := []core.DBOrdering{{Field: "name", Ascending: true}}

	all, err := repo.QueryStudents(ctx, tenant.ID, nil, ordering)
	if err != nil {
		t.Fatalf("QueryStudents() failed: %v", err)
	}
	if len(all) != 3 || all[0].Name != "Amina" {
		t.Errorf("QueryStudents() = %v, want 3 students ordered by name", all)
	}

	classA, err := repo.QueryStudents(ctx, tenant.ID, []string{clsA.ID}, ordering)
	if err != nil {
		t.Fatalf("QueryStudents() failed: %v", err)
	}
	if len(classA) != 2 {
		t.Errorf("QueryStudents() class filter = %d students, want 2", len(classA))
	}

	// an empty non-nil filter matches nothing
	none, err := repo.QueryStudents(ctx, tenant.ID, []string{}, ordering)
	if err != nil {
		t.Fatalf("QueryStudents() failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("QueryStudents() empty filter = %d students, want 0", len(none))
	}
}

func TestSchoolRepository_upsertGrade(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	tenant := repo.AddTenant(school.Tenant{Name: "Alpha"})
	rec := school.GradeRecord{
		TenantID:  tenant.ID,
		StudentID: "s1",
		SubjectID: "sub1",
		TermID:    "t1",
		Score:     60,
	}
	first, err := repo.UpsertGrade(ctx, rec)
	if err != nil {
		t.Fatalf("UpsertGrade() failed: %v", err)
	}
	if first.ID == "" {
		t.Fatal("UpsertGrade() assigned no ID")
	}

	rec.Score = 75
	second, err := repo.UpsertGrade(ctx, rec)
	if err != nil {
		t.Fatalf("UpsertGrade() failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("UpsertGrade() ID = %s, want replacement of %s", second.ID, first.ID)
	}
	if second.Score != 75 {
		t.Errorf("UpsertGrade() Score = %v, want 75", second.Score)
	}

	records, err := repo.QueryGrades(ctx, tenant.ID, "s1", "")
	if err != nil {
		t.Fatalf("QueryGrades() failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("QueryGrades() = %d records, want 1", len(records))
	}
}

func TestSchoolRepository_queryAssignedClassIDs(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	tenant := repo.AddTenant(school.Tenant{Name: "Alpha"})
	repo.AssignClass(tenant.ID, "p1", "c2", "2025-2026")
	repo.AssignClass(tenant.ID, "p1", "c1", "2025-2026")
	repo.AssignClass(tenant.ID, "p1", "c3", "2024-2025") // prior year
	repo.AssignClass(tenant.ID, "p2", "c4", "2025-2026") // other principal

	ids, err := repo.QueryAssignedClassIDs(ctx, tenant.ID, "p1", "2025-2026")
	if err != nil {
		t.Fatalf("QueryAssignedClassIDs() failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "c1" || ids[1] != "c2" {
		t.Errorf("QueryAssignedClassIDs() = %v, want [c1 c2]", ids)
	}
}
