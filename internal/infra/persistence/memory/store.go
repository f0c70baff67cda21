// Package memory provides the in-memory record store that owns every
// business, department and employee record together with the relation index
// linking them. Durable media embed it and snapshot its state.
package memory

import (
	"context"
	"corpgraph/pkg/domain"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Business aliases domain.Business for in-memory persistence operations.
	Business = domain.Business
	// Department aliases domain.Department.
	Department = domain.Department
	// Employee aliases domain.Employee.
	Employee = domain.Employee
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	businesses  map[string]Business
	departments map[string]Department
	employees   map[string]Employee
	relations   relationIndex
}

// Snapshot captures a point-in-time clone of the store state. Relationship
// sets are carried once, as Links; the per-record ID slices are left empty.
type Snapshot struct {
	Businesses  map[string]Business   `json:"businesses"`
	Departments map[string]Department `json:"departments"`
	Employees   map[string]Employee   `json:"employees"`
	Links       []domain.Link         `json:"links"`
}

func newMemoryState() memoryState {
	return memoryState{
		businesses:  make(map[string]Business),
		departments: make(map[string]Department),
		employees:   make(map[string]Employee),
		relations:   newRelationIndex(),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Businesses:  make(map[string]Business, len(state.businesses)),
		Departments: make(map[string]Department, len(state.departments)),
		Employees:   make(map[string]Employee, len(state.employees)),
		Links:       state.relations.links(),
	}
	for k, v := range state.businesses {
		s.Businesses[k] = stripBusiness(v)
	}
	for k, v := range state.departments {
		s.Departments[k] = stripDepartment(v)
	}
	for k, v := range state.employees {
		s.Employees[k] = stripEmployee(v)
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Businesses {
		state.businesses[k] = stripBusiness(v)
	}
	for k, v := range s.Departments {
		state.departments[k] = stripDepartment(v)
	}
	for k, v := range s.Employees {
		state.employees[k] = stripEmployee(v)
	}
	for _, link := range s.Links {
		state.relations.add(link.Relation, link.LeftID, link.RightID)
	}
	return state
}

// migrateSnapshot restores referential integrity on a loaded snapshot: links
// to unknown relations or missing records are dropped and employee pointers
// that no longer name a member are repointed or cleared.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Businesses == nil {
		snapshot.Businesses = map[string]Business{}
	}
	if snapshot.Departments == nil {
		snapshot.Departments = map[string]Department{}
	}
	if snapshot.Employees == nil {
		snapshot.Employees = map[string]Employee{}
	}

	exists := func(ref domain.Ref) bool {
		var ok bool
		switch ref.Kind {
		case domain.EntityBusiness:
			_, ok = snapshot.Businesses[ref.ID]
		case domain.EntityDepartment:
			_, ok = snapshot.Departments[ref.ID]
		case domain.EntityEmployee:
			_, ok = snapshot.Employees[ref.ID]
		}
		return ok
	}

	links := make([]domain.Link, 0, len(snapshot.Links))
	for _, link := range snapshot.Links {
		def, err := domain.LookupRelation(link.Relation)
		if err != nil {
			continue
		}
		if !exists(link.LeftRef(def)) || !exists(link.RightRef(def)) {
			continue
		}
		links = append(links, link)
	}
	snapshot.Links = links

	// IDs inside the map values must agree with their keys.
	for id, b := range snapshot.Businesses {
		b.ID = id
		snapshot.Businesses[id] = b
	}
	for id, d := range snapshot.Departments {
		d.ID = id
		snapshot.Departments[id] = d
	}
	for id, e := range snapshot.Employees {
		e.ID = id
		snapshot.Employees[id] = e
	}
	return snapshot
}

func (s memoryState) clone() memoryState {
	cloned := memoryState{
		businesses:  make(map[string]Business, len(s.businesses)),
		departments: make(map[string]Department, len(s.departments)),
		employees:   make(map[string]Employee, len(s.employees)),
		relations:   s.relations.clone(),
	}
	for k, v := range s.businesses {
		cloned.businesses[k] = cloneBusiness(v)
	}
	for k, v := range s.departments {
		cloned.departments[k] = cloneDepartment(v)
	}
	for k, v := range s.employees {
		cloned.employees[k] = cloneEmployee(v)
	}
	return cloned
}

func cloneBusiness(b Business) Business {
	cp := b
	cp.DepartmentIDs = append([]string(nil), b.DepartmentIDs...)
	cp.EmployeeIDs = append([]string(nil), b.EmployeeIDs...)
	return cp
}

func cloneDepartment(d Department) Department {
	cp := d
	cp.BusinessIDs = append([]string(nil), d.BusinessIDs...)
	cp.EmployeeIDs = append([]string(nil), d.EmployeeIDs...)
	return cp
}

func cloneEmployee(e Employee) Employee {
	cp := e
	cp.BusinessID = cloneStringPtr(e.BusinessID)
	cp.DepartmentID = cloneStringPtr(e.DepartmentID)
	cp.BusinessIDs = append([]string(nil), e.BusinessIDs...)
	cp.DepartmentIDs = append([]string(nil), e.DepartmentIDs...)
	return cp
}

func cloneStringPtr(v *string) *string {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

func stripBusiness(b Business) Business {
	b.DepartmentIDs = nil
	b.EmployeeIDs = nil
	return b
}

func stripDepartment(d Department) Department {
	d.BusinessIDs = nil
	d.EmployeeIDs = nil
	return d
}

func stripEmployee(e Employee) Employee {
	e = cloneEmployee(e)
	e.BusinessIDs = nil
	e.DepartmentIDs = nil
	return e
}

func containsString(values []string, id string) bool {
	for _, existing := range values {
		if existing == id {
			return true
		}
	}
	return false
}

func decorateBusiness(state *memoryState, b Business) Business {
	b.DepartmentIDs = state.relations.rights(domain.RelationBusinessDepartments, b.ID)
	b.EmployeeIDs = state.relations.rights(domain.RelationBusinessEmployees, b.ID)
	return b
}

func decorateDepartment(state *memoryState, d Department) Department {
	d.BusinessIDs = state.relations.lefts(domain.RelationBusinessDepartments, d.ID)
	d.EmployeeIDs = state.relations.rights(domain.RelationDepartmentEmployees, d.ID)
	return d
}

func decorateEmployee(state *memoryState, e Employee) Employee {
	e = cloneEmployee(e)
	e.BusinessIDs = state.relations.lefts(domain.RelationBusinessEmployees, e.ID)
	e.DepartmentIDs = state.relations.lefts(domain.RelationDepartmentEmployees, e.ID)
	return e
}

// reconcileEmployee keeps the to-one pointers pointing at a current member:
// an existing member pointer is kept, otherwise the smallest remaining member
// is chosen, or the pointer is cleared when no membership remains.
func reconcileEmployee(state *memoryState, id string) {
	e, ok := state.employees[id]
	if !ok {
		return
	}
	e.BusinessID = reconcilePointer(e.BusinessID, state.relations.lefts(domain.RelationBusinessEmployees, id))
	e.DepartmentID = reconcilePointer(e.DepartmentID, state.relations.lefts(domain.RelationDepartmentEmployees, id))
	state.employees[id] = e
}

func reconcilePointer(current *string, members []string) *string {
	if current != nil && containsString(members, *current) {
		return current
	}
	if len(members) == 0 {
		return nil
	}
	v := members[0]
	return &v
}

func (s *memoryState) exists(ref domain.Ref) bool {
	var ok bool
	switch ref.Kind {
	case domain.EntityBusiness:
		_, ok = s.businesses[ref.ID]
	case domain.EntityDepartment:
		_, ok = s.departments[ref.ID]
	case domain.EntityEmployee:
		_, ok = s.employees[ref.ID]
	}
	return ok
}

func (s *memoryState) listBusinesses() []Business {
	out := make([]Business, 0, len(s.businesses))
	for _, b := range s.businesses {
		out = append(out, decorateBusiness(s, b))
	}
	sort.Slice(out, func(i, j int) bool { return recordLess(out[i].Base, out[j].Base) })
	return out
}

func (s *memoryState) listDepartments() []Department {
	out := make([]Department, 0, len(s.departments))
	for _, d := range s.departments {
		out = append(out, decorateDepartment(s, d))
	}
	sort.Slice(out, func(i, j int) bool { return recordLess(out[i].Base, out[j].Base) })
	return out
}

func (s *memoryState) listEmployees() []Employee {
	out := make([]Employee, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, decorateEmployee(s, e))
	}
	sort.Slice(out, func(i, j int) bool { return recordLess(out[i].Base, out[j].Base) })
	return out
}

func (s *memoryState) fetchAll(kind domain.EntityType) ([]domain.Record, error) {
	var out []domain.Record
	switch kind {
	case domain.EntityBusiness:
		for _, b := range s.listBusinesses() {
			out = append(out, b)
		}
	case domain.EntityDepartment:
		for _, d := range s.listDepartments() {
			out = append(out, d)
		}
	case domain.EntityEmployee:
		for _, e := range s.listEmployees() {
			out = append(out, e)
		}
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownKind, kind)
	}
	if out == nil {
		out = []domain.Record{}
	}
	return out, nil
}

// recordLess orders records by creation time, then id, so fetches are stable absent mutation.
func recordLess(a, b domain.Base) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// Store provides an in-memory transactional record store.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store. A nil engine disables rule evaluation.
func NewStore(engine *RulesEngine, opts ...Option) *Store {
	s := &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	state := memoryStateFromSnapshot(migrateSnapshot(snapshot))
	for id := range state.employees {
		reconcileEmployee(&state, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// transaction represents a mutation set applied to a cloned store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListBusinesses returns all businesses within the snapshot.
func (v transactionView) ListBusinesses() []Business { return v.state.listBusinesses() }

// ListDepartments returns all departments within the snapshot.
func (v transactionView) ListDepartments() []Department { return v.state.listDepartments() }

// ListEmployees returns all employees within the snapshot.
func (v transactionView) ListEmployees() []Employee { return v.state.listEmployees() }

// FindBusiness retrieves a business by ID from the snapshot.
func (v transactionView) FindBusiness(id string) (Business, bool) {
	b, ok := v.state.businesses[id]
	if !ok {
		return Business{}, false
	}
	return decorateBusiness(v.state, b), true
}

// FindDepartment retrieves a department by ID from the snapshot.
func (v transactionView) FindDepartment(id string) (Department, bool) {
	d, ok := v.state.departments[id]
	if !ok {
		return Department{}, false
	}
	return decorateDepartment(v.state, d), true
}

// FindEmployee retrieves an employee by ID from the snapshot.
func (v transactionView) FindEmployee(id string) (Employee, bool) {
	e, ok := v.state.employees[id]
	if !ok {
		return Employee{}, false
	}
	return decorateEmployee(v.state, e), true
}

// Links returns every link in the snapshot.
func (v transactionView) Links() []domain.Link { return v.state.relations.links() }

// FetchAll returns all records of kind in stable order.
func (v transactionView) FetchAll(kind domain.EntityType) ([]domain.Record, error) {
	return v.state.fetchAll(kind)
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces the committed state only when fn succeeds and no blocking
// rule violation is reported.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// Persist is a no-op: the memory medium has nothing to flush.
func (s *Store) Persist(context.Context) error { return nil }

// Close is a no-op for the memory medium.
func (s *Store) Close() error { return nil }

// Read helpers ---------------------------------------------------------------

// FetchAll returns all committed records of kind in stable order.
func (s *Store) FetchAll(kind domain.EntityType) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.fetchAll(kind)
}

// GetBusiness retrieves a business by ID from committed state.
func (s *Store) GetBusiness(id string) (Business, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.state.businesses[id]
	if !ok {
		return Business{}, false
	}
	return decorateBusiness(&s.state, b), true
}

// ListBusinesses returns all businesses from committed state.
func (s *Store) ListBusinesses() []Business {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.listBusinesses()
}

// GetDepartment retrieves a department by ID from committed state.
func (s *Store) GetDepartment(id string) (Department, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.state.departments[id]
	if !ok {
		return Department{}, false
	}
	return decorateDepartment(&s.state, d), true
}

// ListDepartments returns all departments from committed state.
func (s *Store) ListDepartments() []Department {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.listDepartments()
}

// GetEmployee retrieves an employee by ID from committed state.
func (s *Store) GetEmployee(id string) (Employee, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.state.employees[id]
	if !ok {
		return Employee{}, false
	}
	return decorateEmployee(&s.state, e), true
}

// ListEmployees returns all employees from committed state.
func (s *Store) ListEmployees() []Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.listEmployees()
}
