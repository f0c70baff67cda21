package domain

import "context"

// Transaction exposes the record and relation operations that a persistence
// implementation must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateBusiness(Business) (Business, error)
	UpdateBusiness(id string, mutator func(*Business) error) (Business, error)
	DeleteBusiness(id string) error
	CreateDepartment(Department) (Department, error)
	UpdateDepartment(id string, mutator func(*Department) error) (Department, error)
	DeleteDepartment(id string) error
	CreateEmployee(Employee) (Employee, error)
	UpdateEmployee(id string, mutator func(*Employee) error) (Employee, error)
	DeleteEmployee(id string) error
	Link(rel Relation, leftID, rightID string) error
	Unlink(rel Relation, leftID, rightID string) error
	FindBusiness(id string) (Business, bool)
	FindDepartment(id string) (Department, bool)
	FindEmployee(id string) (Employee, bool)
}

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	RuleView
	FetchAll(kind EntityType) ([]Record, error)
}

// PersistentStore is the abstraction over the record store and its backing
// medium. Higher layers mutate only through RunInTransaction.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	Persist(ctx context.Context) error
	FetchAll(kind EntityType) ([]Record, error)
	GetBusiness(id string) (Business, bool)
	ListBusinesses() []Business
	GetDepartment(id string) (Department, bool)
	ListDepartments() []Department
	GetEmployee(id string) (Employee, bool)
	ListEmployees() []Employee
	Close() error
}
