// Package inmemdb provides a map-backed school.Repository used by tests and
// local development. It mirrors the semantics of the SQL implementation,
// tenant filters included.
package inmemdb

import (
	"sync"

	"github.com/trezcool/ripoti/core/school"
)

type DB struct {
	mutex sync.RWMutex

	tenants     map[string]*school.Tenant
	classes     map[string]*school.ClassGroup
	students    map[string]*school.Student
	terms       map[string]*school.Term
	subjects    map[string]*school.Subject
	grades      map[string]*school.GradeRecord // by grade ID
	assignments []assignment                   // principal -> class
}

type assignment struct {
	TenantID     string
	PrincipalID  string
	ClassID      string
	AcademicYear string
}

func Open() (*DB, error) {
	return &DB{
		tenants:  make(map[string]*school.Tenant),
		classes:  make(map[string]*school.ClassGroup),
		students: make(map[string]*school.Student),
		terms:    make(map[string]*school.Term),
		subjects: make(map[string]*school.Subject),
		grades:   make(map[string]*school.GradeRecord),
	}, nil
}
