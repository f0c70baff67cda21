package core

import (
	"context"
	"corpgraph/pkg/domain"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Snapshot is the published, read-only view of every record. A new value is
// built after each successful write and swapped in whole.
type Snapshot struct {
	Businesses  []Business   `json:"businesses"`
	Departments []Department `json:"departments"`
	Employees   []Employee   `json:"employees"`
	Version     uint64       `json:"version"`
	RefreshedAt time.Time    `json:"refreshed_at"`
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock overrides the time source stamped on snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service is the repository facade. Writes are serialized; every successful
// write persists through the store and republishes the snapshot.
type Service struct {
	store   PersistentStore
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	version uint64
	logger  *zap.Logger
	metrics MetricsRecorder
	now     func() time.Time
}

// NewService constructs a facade over store and publishes its initial snapshot.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  zap.NewNop(),
		metrics: noopMetrics{},
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mu.Lock()
	if _, err := s.refreshLocked(context.Background()); err != nil {
		s.logger.Error("initial refresh failed", zap.Error(err))
		s.current.Store(&Snapshot{RefreshedAt: s.now()})
	}
	s.mu.Unlock()
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// AddBusiness creates a business. A blank name becomes the default business name.
func (s *Service) AddBusiness(ctx context.Context, name string) (Business, Snapshot, error) {
	var created Business
	snap, err := s.mutate(ctx, "add_business", func(tx Transaction) error {
		var err error
		created, err = tx.CreateBusiness(Business{Name: orDefault(name, domain.DefaultBusinessName)})
		return err
	})
	return created, snap, err
}

// AddDepartment creates a department. A blank name becomes the default department name.
func (s *Service) AddDepartment(ctx context.Context, name string) (Department, Snapshot, error) {
	var created Department
	snap, err := s.mutate(ctx, "add_department", func(tx Transaction) error {
		var err error
		created, err = tx.CreateDepartment(Department{Name: orDefault(name, domain.DefaultDepartmentName)})
		return err
	})
	return created, snap, err
}

// AddEmployee creates an unlinked employee. A blank name becomes the default
// employee name; a zero joinedAt is stamped with the store clock.
func (s *Service) AddEmployee(ctx context.Context, name string, age int, joinedAt time.Time) (Employee, Snapshot, error) {
	var created Employee
	snap, err := s.mutate(ctx, "add_employee", func(tx Transaction) error {
		var err error
		created, err = tx.CreateEmployee(Employee{
			Name:       orDefault(name, domain.DefaultEmployeeName),
			Age:        age,
			DateJoined: joinedAt,
		})
		return err
	})
	return created, snap, err
}

// LinkBusinessDepartment links a business and a department in both directions.
func (s *Service) LinkBusinessDepartment(ctx context.Context, businessID, departmentID string) (Snapshot, error) {
	return s.Link(ctx, RelationBusinessDepartments, businessID, departmentID)
}

// LinkBusinessEmployee links a business and an employee in both directions.
func (s *Service) LinkBusinessEmployee(ctx context.Context, businessID, employeeID string) (Snapshot, error) {
	return s.Link(ctx, RelationBusinessEmployees, businessID, employeeID)
}

// LinkDepartmentEmployee links a department and an employee in both directions.
func (s *Service) LinkDepartmentEmployee(ctx context.Context, departmentID, employeeID string) (Snapshot, error) {
	return s.Link(ctx, RelationDepartmentEmployees, departmentID, employeeID)
}

// UnlinkBusinessDepartment removes a business-department link.
func (s *Service) UnlinkBusinessDepartment(ctx context.Context, businessID, departmentID string) (Snapshot, error) {
	return s.Unlink(ctx, RelationBusinessDepartments, businessID, departmentID)
}

// UnlinkBusinessEmployee removes a business-employee link.
func (s *Service) UnlinkBusinessEmployee(ctx context.Context, businessID, employeeID string) (Snapshot, error) {
	return s.Unlink(ctx, RelationBusinessEmployees, businessID, employeeID)
}

// UnlinkDepartmentEmployee removes a department-employee link.
func (s *Service) UnlinkDepartmentEmployee(ctx context.Context, departmentID, employeeID string) (Snapshot, error) {
	return s.Unlink(ctx, RelationDepartmentEmployees, departmentID, employeeID)
}

// Link adds a link on any maintained relation.
func (s *Service) Link(ctx context.Context, rel Relation, leftID, rightID string) (Snapshot, error) {
	return s.mutate(ctx, "link_"+string(rel), func(tx Transaction) error {
		return tx.Link(rel, leftID, rightID)
	})
}

// Unlink removes a link on any maintained relation. Missing links are ignored.
func (s *Service) Unlink(ctx context.Context, rel Relation, leftID, rightID string) (Snapshot, error) {
	return s.mutate(ctx, "unlink_"+string(rel), func(tx Transaction) error {
		return tx.Unlink(rel, leftID, rightID)
	})
}

// RemoveBusiness deletes a business after clearing every link to it.
func (s *Service) RemoveBusiness(ctx context.Context, id string) (Snapshot, error) {
	return s.mutate(ctx, "remove_business", func(tx Transaction) error {
		return tx.DeleteBusiness(id)
	})
}

// RemoveDepartment deletes a department after clearing every link to it.
func (s *Service) RemoveDepartment(ctx context.Context, id string) (Snapshot, error) {
	return s.mutate(ctx, "remove_department", func(tx Transaction) error {
		return tx.DeleteDepartment(id)
	})
}

// RemoveEmployee deletes an employee after clearing every link to it.
func (s *Service) RemoveEmployee(ctx context.Context, id string) (Snapshot, error) {
	return s.mutate(ctx, "remove_employee", func(tx Transaction) error {
		return tx.DeleteEmployee(id)
	})
}

// RenameBusiness sets a business name.
func (s *Service) RenameBusiness(ctx context.Context, id, name string) (Snapshot, error) {
	return s.mutate(ctx, "rename_business", func(tx Transaction) error {
		_, err := tx.UpdateBusiness(id, func(b *Business) error {
			b.Name = orDefault(name, domain.DefaultBusinessName)
			return nil
		})
		return err
	})
}

// RenameDepartment sets a department name.
func (s *Service) RenameDepartment(ctx context.Context, id, name string) (Snapshot, error) {
	return s.mutate(ctx, "rename_department", func(tx Transaction) error {
		_, err := tx.UpdateDepartment(id, func(d *Department) error {
			d.Name = orDefault(name, domain.DefaultDepartmentName)
			return nil
		})
		return err
	})
}

// RenameEmployee sets an employee name.
func (s *Service) RenameEmployee(ctx context.Context, id, name string) (Snapshot, error) {
	return s.mutate(ctx, "rename_employee", func(tx Transaction) error {
		_, err := tx.UpdateEmployee(id, func(e *Employee) error {
			e.Name = orDefault(name, domain.DefaultEmployeeName)
			return nil
		})
		return err
	})
}

// SetEmployeeAge sets an employee age. Negative ages are rejected by the
// employee profile rule when it is registered.
func (s *Service) SetEmployeeAge(ctx context.Context, id string, age int) (Snapshot, error) {
	return s.mutate(ctx, "set_employee_age", func(tx Transaction) error {
		_, err := tx.UpdateEmployee(id, func(e *Employee) error {
			e.Age = age
			return nil
		})
		return err
	})
}

// Snapshot returns a copy of the currently published snapshot.
func (s *Service) Snapshot() Snapshot {
	return s.current.Load().clone()
}

// ListBusinesses returns a copy of the published businesses.
func (s *Service) ListBusinesses() []Business {
	return cloneBusinesses(s.current.Load().Businesses)
}

// ListDepartments returns a copy of the published departments.
func (s *Service) ListDepartments() []Department {
	return cloneDepartments(s.current.Load().Departments)
}

// ListEmployees returns a copy of the published employees.
func (s *Service) ListEmployees() []Employee {
	return cloneEmployees(s.current.Load().Employees)
}

// Refresh re-reads every kind from the store and publishes the result.
func (s *Service) Refresh(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Service) mutate(ctx context.Context, op string, fn func(Transaction) error) (snap Snapshot, err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.store.RunInTransaction(ctx, fn)
	s.logViolations(op, res)
	if err != nil {
		s.logFailure(op, err)
		return s.Snapshot(), err
	}
	snap, err = s.refreshLocked(ctx)
	if err != nil {
		s.logger.Error("refresh failed", zap.String("operation", op), zap.Error(err))
		return s.Snapshot(), err
	}
	s.logger.Debug("operation applied", zap.String("operation", op), zap.Uint64("version", snap.Version))
	return snap, nil
}

// refreshLocked builds the next snapshot from a single consistent view and
// swaps it in. The previous snapshot stays visible until the swap.
func (s *Service) refreshLocked(ctx context.Context) (Snapshot, error) {
	next := Snapshot{}
	err := s.store.View(ctx, func(v TransactionView) error {
		next.Businesses = v.ListBusinesses()
		next.Departments = v.ListDepartments()
		next.Employees = v.ListEmployees()
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	s.version++
	next.Version = s.version
	next.RefreshedAt = s.now()
	s.current.Store(&next)
	return next.clone(), nil
}

func (s *Service) logViolations(op string, res Result) {
	for _, v := range res.Violations {
		fields := []zap.Field{
			zap.String("operation", op),
			zap.String("rule", v.Rule),
			zap.String("entity", string(v.Entity)),
			zap.String("entity_id", v.EntityID),
		}
		switch v.Severity {
		case SeverityBlock, SeverityWarn:
			s.logger.Warn(v.Message, fields...)
		default:
			s.logger.Info(v.Message, fields...)
		}
	}
}

func (s *Service) logFailure(op string, err error) {
	if errors.Is(err, domain.ErrPersistence) {
		s.logger.Error("persist failed; store holds changes not yet durable",
			zap.String("operation", op), zap.Error(err))
		return
	}
	s.logger.Debug("operation rejected", zap.String("operation", op), zap.Error(err))
}

func orDefault(name, fallback string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return fallback
}

// clone copies the record slices together with their ID sets and pointers so
// callers never share memory with the published snapshot.
func (s *Snapshot) clone() Snapshot {
	out := *s
	out.Businesses = cloneBusinesses(s.Businesses)
	out.Departments = cloneDepartments(s.Departments)
	out.Employees = cloneEmployees(s.Employees)
	return out
}

func cloneBusinesses(in []Business) []Business {
	if in == nil {
		return nil
	}
	out := make([]Business, len(in))
	for i, b := range in {
		b.DepartmentIDs = slices.Clone(b.DepartmentIDs)
		b.EmployeeIDs = slices.Clone(b.EmployeeIDs)
		out[i] = b
	}
	return out
}

func cloneDepartments(in []Department) []Department {
	if in == nil {
		return nil
	}
	out := make([]Department, len(in))
	for i, d := range in {
		d.BusinessIDs = slices.Clone(d.BusinessIDs)
		d.EmployeeIDs = slices.Clone(d.EmployeeIDs)
		out[i] = d
	}
	return out
}

func cloneEmployees(in []Employee) []Employee {
	if in == nil {
		return nil
	}
	out := make([]Employee, len(in))
	for i, e := range in {
		e.BusinessIDs = slices.Clone(e.BusinessIDs)
		e.DepartmentIDs = slices.Clone(e.DepartmentIDs)
		e.BusinessID = cloneID(e.BusinessID)
		e.DepartmentID = cloneID(e.DepartmentID)
		out[i] = e
	}
	return out
}

func cloneID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
