package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// seed loads a small demo tenant: one class with two students, three terms
// and enough grade history to exercise suggestions and report compilation.
func (cli *commandLine) seed() error {
	tx, err := cli.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	year := "2025-2026"

	tenantID := uuid.New().String()
	if _, err = tx.Exec(`INSERT INTO tenant (id, name) VALUES ($1, $2)`, tenantID, "Demo Academy"); err != nil {
		return errors.Wrap(err, "inserting tenant")
	}

	adminID := uuid.New().String()
	teacherID := uuid.New().String()
	supervisorID := uuid.New().String()
	principals := []struct{ id, name, email, role string }{
		{adminID, "Ada Admin", "admin@demo.test", "admin"},
		{teacherID, "Tina Teacher", "teacher@demo.test", "teacher"},
		{supervisorID, "Sam Supervisor", "supervisor@demo.test", "supervisor"},
	}
	for _, p := range principals {
		if _, err = tx.Exec(
			`INSERT INTO principal (id, tenant_id, name, email, role) VALUES ($1, $2, $3, $4, $5)`,
			p.id, tenantID, p.name, p.email, p.role,
		); err != nil {
			return errors.Wrapf(err, "inserting principal %s", p.email)
		}
	}

	classID := uuid.New().String()
	if _, err = tx.Exec(
		`INSERT INTO class_group (id, tenant_id, name, academic_year) VALUES ($1, $2, $3, $4)`,
		classID, tenantID, "Grade 6A", year,
	); err != nil {
		return errors.Wrap(err, "inserting class group")
	}
	if _, err = tx.Exec(
		`INSERT INTO class_assignment (tenant_id, principal_id, class_id) VALUES ($1, $2, $3)`,
		tenantID, teacherID, classID,
	); err != nil {
		return errors.Wrap(err, "inserting class assignment")
	}

	studentIDs := make([]string, 0, 2)
	for _, name := range []string{"Amina Kalala", "Benji Mwepu"} {
		id := uuid.New().String()
		studentIDs = append(studentIDs, id)
		if _, err = tx.Exec(
			`INSERT INTO student (id, tenant_id, class_id, name, guardian_email) VALUES ($1, $2, $3, $4, $5)`,
			id, tenantID, classID, name, "guardian@demo.test",
		); err != nil {
			return errors.Wrapf(err, "inserting student %s", name)
		}
	}

	termIDs := make([]string, 0, 3)
	for seq, name := range []string{"Term 1", "Term 2", "Term 3"} {
		id := uuid.New().String()
		if _, err = tx.Exec(
			`INSERT INTO term (id, tenant_id, name, academic_year, sequence) VALUES ($1, $2, $3, $4, $5)`,
			id, tenantID, name, year, seq+1,
		); err != nil {
			return errors.Wrapf(err, "inserting term %s", name)
		}
		termIDs = append(termIDs, id)
	}

	subjectIDs := make([]string, 0, 3)
	for _, name := range []string{"Mathematics", "English", "Science"} {
		var id string
		if err = tx.Get(
			&id,
			`INSERT INTO subject (id, name) VALUES ($1, $2)
			 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id`,
			uuid.New().String(), name,
		); err != nil {
			return errors.Wrapf(err, "inserting subject %s", name)
		}
		subjectIDs = append(subjectIDs, id)
	}

	// Mathematics climbs sharply for the first student; the rest stay flat.
	scores := map[string][]float64{
		subjectIDs[0]: {60, 60, 85},
		subjectIDs[1]: {72, 74, 73},
		subjectIDs[2]: {68, 70, 71},
	}
	for _, studentID := range studentIDs {
		for _, subjectID := range subjectIDs {
			for i, termID := range termIDs {
				if _, err = tx.Exec(
					`INSERT INTO grade_record (id, tenant_id, student_id, subject_id, term_id, score, recorded_by)
					 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
					uuid.New().String(), tenantID, studentID, subjectID, termID, scores[subjectID][i], teacherID,
				); err != nil {
					return errors.Wrap(err, "inserting grade record")
				}
			}
		}
		// only the first student gets the improvement arc
		scores[subjectIDs[0]] = []float64{70, 71, 72}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing seed")
	}

	fmt.Println("seeded demo tenant:")
	fmt.Printf("  tenant:     %s\n", tenantID)
	fmt.Printf("  admin:      %s\n", adminID)
	fmt.Printf("  teacher:    %s\n", teacherID)
	fmt.Printf("  supervisor: %s\n", supervisorID)
	fmt.Printf("  class:      %s\n", classID)
	for _, id := range studentIDs {
		fmt.Printf("  student:    %s\n", id)
	}
	return nil
}
