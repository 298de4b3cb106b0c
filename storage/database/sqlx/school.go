package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ripoti/core"
	"github.com/trezcool/ripoti/core/school"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

// row types

type studentRow struct {
	ID            string      `db:"id"`
	TenantID      string      `db:"tenant_id"`
	ClassID       string      `db:"class_id"`
	Name          string      `db:"name"`
	GuardianEmail null.String `db:"guardian_email"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func (r studentRow) toModel() school.Student {
	return school.Student{
		ID:            r.ID,
		TenantID:      r.TenantID,
		ClassID:       r.ClassID,
		Name:          r.Name,
		GuardianEmail: r.GuardianEmail.String,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type classGroupRow struct {
	ID           string `db:"id"`
	TenantID     string `db:"tenant_id"`
	Name         string `db:"name"`
	AcademicYear string `db:"academic_year"`
}

func (r classGroupRow) toModel() school.ClassGroup {
	return school.ClassGroup(r)
}

type termRow struct {
	ID           string `db:"id"`
	TenantID     string `db:"tenant_id"`
	Name         string `db:"name"`
	AcademicYear string `db:"academic_year"`
	Sequence     int    `db:"sequence"`
}

func (r termRow) toModel() school.Term {
	return school.Term(r)
}

type gradeRow struct {
	ID           string    `db:"id"`
	TenantID     string    `db:"tenant_id"`
	StudentID    string    `db:"student_id"`
	SubjectID    string    `db:"subject_id"`
	SubjectName  string    `db:"subject_name"`
	TermID       string    `db:"term_id"`
	TermSequence int       `db:"term_sequence"`
	AcademicYear string    `db:"academic_year"`
	Score        float64   `db:"score"`
	RecordedBy   string    `db:"recorded_by"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r gradeRow) toModel() school.GradeRecord {
	return school.GradeRecord(r)
}

// trapNoRowsErr maps psql "no rows" to the given domain sentinel so absent and
// cross-tenant rows read identically.
func trapNoRowsErr(err, sentinel error, msg string) error {
	if err == sql.ErrNoRows {
		return sentinel
	}
	return errors.Wrap(err, msg)
}

func (repo *schoolRepository) GetStudent(ctx context.Context, tenantID, studentID string) (school.Student, error) {
	var row studentRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, tenant_id, class_id, name, guardian_email, created_at, updated_at
		 FROM student WHERE tenant_id = $1 AND id = $2`, tenantID, studentID)
	if err != nil {
		return school.Student{}, trapNoRowsErr(err, school.ErrStudentNotFound, "getting student")
	}
	return row.toModel(), nil
}

func (repo *schoolRepository) QueryStudents(ctx context.Context, tenantID string, classIDs []string, ordering []core.DBOrdering) ([]school.Student, error) {
	q := `SELECT id, tenant_id, class_id, name, guardian_email, created_at, updated_at
	      FROM student WHERE tenant_id = ?`
	args := []interface{}{tenantID}

	if classIDs != nil {
		if len(classIDs) == 0 {
			return []school.Student{}, nil
		}
		q += ` AND class_id IN (?)`
		var err error
		q, args, err = sqlx.In(q, tenantID, classIDs)
		if err != nil {
			return nil, errors.Wrap(err, "binding class filter")
		}
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		q += " ORDER BY " + strings.Join(orderList, ", ")
	}

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]school.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toModel())
	}
	return students, nil
}

func (repo *schoolRepository) GetClassGroup(ctx context.Context, tenantID, classID string) (school.ClassGroup, error) {
	var row classGroupRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, tenant_id, name, academic_year
		 FROM class_group WHERE tenant_id = $1 AND id = $2`, tenantID, classID)
	if err != nil {
		return school.ClassGroup{}, trapNoRowsErr(err, school.ErrClassNotFound, "getting class group")
	}
	return row.toModel(), nil
}

func (repo *schoolRepository) QueryGrades(ctx context.Context, tenantID, studentID, subjectID string) ([]school.GradeRecord, error) {
	q := `SELECT g.id, g.tenant_id, g.student_id, g.subject_id, sub.name AS subject_name,
	             g.term_id, t.sequence AS term_sequence, t.academic_year,
	             g.score, g.recorded_by, g.created_at, g.updated_at
	      FROM grade_record g
	      JOIN term t ON t.id = g.term_id
	      JOIN subject sub ON sub.id = g.subject_id
	      WHERE g.tenant_id = $1 AND g.student_id = $2`
	args := []interface{}{tenantID, studentID}
	if subjectID != "" {
		q += ` AND g.subject_id = $3`
		args = append(args, subjectID)
	}
	q += ` ORDER BY t.academic_year ASC, t.sequence ASC, sub.name ASC`

	var rows []gradeRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	records := make([]school.GradeRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toModel())
	}
	return records, nil
}

// UpsertGrade relies on the (student, subject, term) unique constraint: the
// whole write is a single atomic statement, so concurrent writers cannot
// produce duplicate triples.
func (repo *schoolRepository) UpsertGrade(ctx context.Context, rec school.GradeRecord) (school.GradeRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO grade_record (id, tenant_id, student_id, subject_id, term_id, score, recorded_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 ON CONFLICT (student_id, subject_id, term_id) DO UPDATE
		   SET score = EXCLUDED.score,
		       recorded_by = EXCLUDED.recorded_by,
		       updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at`,
		rec.ID, rec.TenantID, rec.StudentID, rec.SubjectID, rec.TermID,
		rec.Score, rec.RecordedBy, rec.UpdatedAt.UTC(),
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return school.GradeRecord{}, errors.Wrap(err, "upserting grade")
	}
	return rec, nil
}

func (repo *schoolRepository) GetTerm(ctx context.Context, tenantID, termID string) (school.Term, error) {
	var row termRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, tenant_id, name, academic_year, sequence
		 FROM term WHERE tenant_id = $1 AND id = $2`, tenantID, termID)
	if err != nil {
		return school.Term{}, trapNoRowsErr(err, school.ErrTermNotFound, "getting term")
	}
	return row.toModel(), nil
}

func (repo *schoolRepository) QueryTerms(ctx context.Context, tenantID string) ([]school.Term, error) {
	var rows []termRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, tenant_id, name, academic_year, sequence
		 FROM term WHERE tenant_id = $1
		 ORDER BY academic_year ASC, sequence ASC`, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "querying terms")
	}
	terms := make([]school.Term, 0, len(rows))
	for _, row := range rows {
		terms = append(terms, row.toModel())
	}
	return terms, nil
}

func (repo *schoolRepository) GetSubject(ctx context.Context, subjectID string) (school.Subject, error) {
	var subj school.Subject
	err := repo.db.QueryRowxContext(ctx,
		`SELECT id, name FROM subject WHERE id = $1`, subjectID).Scan(&subj.ID, &subj.Name)
	if err != nil {
		return school.Subject{}, trapNoRowsErr(err, school.ErrSubjectNotFound, "getting subject")
	}
	return subj, nil
}

func (repo *schoolRepository) QuerySubjects(ctx context.Context) ([]school.Subject, error) {
	rows, err := repo.db.QueryxContext(ctx, `SELECT id, name FROM subject ORDER BY name ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	defer func() { _ = rows.Close() }()

	subjects := make([]school.Subject, 0)
	for rows.Next() {
		var subj school.Subject
		if err := rows.Scan(&subj.ID, &subj.Name); err != nil {
			return nil, errors.Wrap(err, "scanning subject")
		}
		subjects = append(subjects, subj)
	}
	return subjects, rows.Err()
}

func (repo *schoolRepository) QueryAssignedClassIDs(ctx context.Context, tenantID, principalID, academicYear string) ([]string, error) {
	var ids []string
	err := repo.db.SelectContext(ctx, &ids,
		`SELECT ca.class_id
		 FROM class_assignment ca
		 JOIN class_group cg ON cg.id = ca.class_id
		 WHERE ca.tenant_id = $1 AND ca.principal_id = $2 AND cg.academic_year = $3
		 ORDER BY ca.class_id ASC`, tenantID, principalID, academicYear)
	if err != nil {
		return nil, errors.Wrap(err, "querying class assignments")
	}
	return ids, nil
}
