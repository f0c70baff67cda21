// Package domain defines the persistent record kinds, relation definitions,
// error taxonomy and rule evaluation primitives used by corpgraph.
package domain

import "time"

// EntityType identifies the kind of record stored in the graph.
type EntityType string

// Supported entity type identifiers used in Change records, references and persistence buckets.
const (
	// EntityBusiness identifies a business record.
	EntityBusiness EntityType = "business"
	// EntityDepartment identifies a department record.
	EntityDepartment EntityType = "department"
	// EntityEmployee identifies an employee record.
	EntityEmployee EntityType = "employee"
)

// EntityTypes lists every record kind in refresh order.
func EntityTypes() []EntityType {
	return []EntityType{EntityBusiness, EntityDepartment, EntityEmployee}
}

// Valid reports whether t is a known record kind.
func (t EntityType) Valid() bool {
	switch t {
	case EntityBusiness, EntityDepartment, EntityEmployee:
		return true
	}
	return false
}

// Default field values applied when callers leave them empty.
const (
	DefaultBusinessName   = "Apple"
	DefaultDepartmentName = "Marketing"
	DefaultEmployeeName   = "Chris"
	DefaultEmployeeAge    = 25
)

// Ref is a weak (kind, id) reference to a record. It never carries record data.
type Ref struct {
	Kind EntityType `json:"kind"`
	ID   string     `json:"id"`
}

func (r Ref) String() string {
	return string(r.Kind) + "/" + r.ID
}

// Record is implemented by every stored entity.
type Record interface {
	RecordID() string
	RecordKind() EntityType
}

// Base contains common fields for all persistent records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordID returns the record identifier.
func (b Base) RecordID() string { return b.ID }

// Business owns many-to-many links to departments and employees.
type Business struct {
	Base
	Name string `json:"name"`
	// DepartmentIDs and EmployeeIDs are derived from the relation index on read.
	DepartmentIDs []string `json:"department_ids"`
	EmployeeIDs   []string `json:"employee_ids"`
}

// RecordKind implements Record.
func (Business) RecordKind() EntityType { return EntityBusiness }

// Department is the inverse side of business_departments and owns department_employees.
type Department struct {
	Base
	Name        string   `json:"name"`
	BusinessIDs []string `json:"business_ids"`
	EmployeeIDs []string `json:"employee_ids"`
}

// RecordKind implements Record.
func (Department) RecordKind() EntityType { return EntityDepartment }

// Employee holds optional to-one pointers to a business and a department in
// addition to its many-to-many membership sets.
type Employee struct {
	Base
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	DateJoined   time.Time `json:"date_joined"`
	BusinessID   *string   `json:"business_id,omitempty"`
	DepartmentID *string   `json:"department_id,omitempty"`

	BusinessIDs   []string `json:"business_ids"`
	DepartmentIDs []string `json:"department_ids"`
}

// RecordKind implements Record.
func (Employee) RecordKind() EntityType { return EntityEmployee }

// Change describes a mutation applied to a record or link during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured in the change log.
const (
	// ActionCreate indicates a record was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates a record was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	// ActionLink and ActionUnlink carry a Link as After/Before.
	ActionLink   Action = "link"
	ActionUnlink Action = "unlink"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}
