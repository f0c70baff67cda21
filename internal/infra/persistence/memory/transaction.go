package memory

import (
	"corpgraph/pkg/domain"
	"fmt"
)

// helper to record and append change entries.
func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the in-flight transaction state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindBusiness retrieves a business from the transaction state.
func (tx *transaction) FindBusiness(id string) (Business, bool) {
	b, ok := tx.state.businesses[id]
	if !ok {
		return Business{}, false
	}
	return decorateBusiness(&tx.state, b), true
}

// FindDepartment retrieves a department from the transaction state.
func (tx *transaction) FindDepartment(id string) (Department, bool) {
	d, ok := tx.state.departments[id]
	if !ok {
		return Department{}, false
	}
	return decorateDepartment(&tx.state, d), true
}

// FindEmployee retrieves an employee from the transaction state.
func (tx *transaction) FindEmployee(id string) (Employee, bool) {
	e, ok := tx.state.employees[id]
	if !ok {
		return Employee{}, false
	}
	return decorateEmployee(&tx.state, e), true
}

// CreateBusiness inserts a business under a fresh id. Relationship sets on
// the input are ignored; links are created with Link.
func (tx *transaction) CreateBusiness(b Business) (Business, error) {
	b.ID = tx.store.newID()
	b.CreatedAt = tx.now
	b.UpdatedAt = tx.now
	b = stripBusiness(b)
	tx.state.businesses[b.ID] = b
	created := decorateBusiness(&tx.state, b)
	tx.recordChange(Change{Entity: domain.EntityBusiness, Action: domain.ActionCreate, After: cloneBusiness(created)})
	return created, nil
}

// UpdateBusiness applies mutator to the stored business. Only field data is
// kept; relationship sets are owned by the relation index.
func (tx *transaction) UpdateBusiness(id string, mutator func(*Business) error) (Business, error) {
	current, ok := tx.state.businesses[id]
	if !ok {
		return Business{}, domain.ErrNotFound{Entity: domain.EntityBusiness, ID: id}
	}
	before := decorateBusiness(&tx.state, current)
	updated := cloneBusiness(before)
	if err := mutator(&updated); err != nil {
		return Business{}, err
	}
	updated.Base = domain.Base{ID: id, CreatedAt: current.CreatedAt, UpdatedAt: tx.now}
	tx.state.businesses[id] = stripBusiness(updated)
	after := decorateBusiness(&tx.state, tx.state.businesses[id])
	tx.recordChange(Change{Entity: domain.EntityBusiness, Action: domain.ActionUpdate, Before: before, After: cloneBusiness(after)})
	return after, nil
}

// DeleteBusiness cascades relation cleanup and removes the business.
func (tx *transaction) DeleteBusiness(id string) error {
	current, ok := tx.state.businesses[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityBusiness, ID: id}
	}
	before := decorateBusiness(&tx.state, current)
	tx.cascade(domain.Ref{Kind: domain.EntityBusiness, ID: id})
	delete(tx.state.businesses, id)
	tx.recordChange(Change{Entity: domain.EntityBusiness, Action: domain.ActionDelete, Before: before})
	return nil
}

// CreateDepartment inserts a department under a fresh id.
func (tx *transaction) CreateDepartment(d Department) (Department, error) {
	d.ID = tx.store.newID()
	d.CreatedAt = tx.now
	d.UpdatedAt = tx.now
	d = stripDepartment(d)
	tx.state.departments[d.ID] = d
	created := decorateDepartment(&tx.state, d)
	tx.recordChange(Change{Entity: domain.EntityDepartment, Action: domain.ActionCreate, After: cloneDepartment(created)})
	return created, nil
}

// UpdateDepartment applies mutator to the stored department.
func (tx *transaction) UpdateDepartment(id string, mutator func(*Department) error) (Department, error) {
	current, ok := tx.state.departments[id]
	if !ok {
		return Department{}, domain.ErrNotFound{Entity: domain.EntityDepartment, ID: id}
	}
	before := decorateDepartment(&tx.state, current)
	updated := cloneDepartment(before)
	if err := mutator(&updated); err != nil {
		return Department{}, err
	}
	updated.Base = domain.Base{ID: id, CreatedAt: current.CreatedAt, UpdatedAt: tx.now}
	tx.state.departments[id] = stripDepartment(updated)
	after := decorateDepartment(&tx.state, tx.state.departments[id])
	tx.recordChange(Change{Entity: domain.EntityDepartment, Action: domain.ActionUpdate, Before: before, After: cloneDepartment(after)})
	return after, nil
}

// DeleteDepartment cascades relation cleanup and removes the department.
func (tx *transaction) DeleteDepartment(id string) error {
	current, ok := tx.state.departments[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityDepartment, ID: id}
	}
	before := decorateDepartment(&tx.state, current)
	tx.cascade(domain.Ref{Kind: domain.EntityDepartment, ID: id})
	delete(tx.state.departments, id)
	tx.recordChange(Change{Entity: domain.EntityDepartment, Action: domain.ActionDelete, Before: before})
	return nil
}

// CreateEmployee inserts an employee under a fresh id. Employees start
// unlinked; to-one pointers on the input are ignored.
func (tx *transaction) CreateEmployee(e Employee) (Employee, error) {
	e.ID = tx.store.newID()
	e.CreatedAt = tx.now
	e.UpdatedAt = tx.now
	if e.DateJoined.IsZero() {
		e.DateJoined = tx.now
	}
	e = stripEmployee(e)
	e.BusinessID = nil
	e.DepartmentID = nil
	tx.state.employees[e.ID] = e
	created := decorateEmployee(&tx.state, e)
	tx.recordChange(Change{Entity: domain.EntityEmployee, Action: domain.ActionCreate, After: cloneEmployee(created)})
	return created, nil
}

// UpdateEmployee applies mutator to the stored employee. The mutator may move
// a to-one pointer only to a record the employee is already linked with.
func (tx *transaction) UpdateEmployee(id string, mutator func(*Employee) error) (Employee, error) {
	current, ok := tx.state.employees[id]
	if !ok {
		return Employee{}, domain.ErrNotFound{Entity: domain.EntityEmployee, ID: id}
	}
	before := decorateEmployee(&tx.state, current)
	updated := cloneEmployee(before)
	if err := mutator(&updated); err != nil {
		return Employee{}, err
	}
	if err := checkPointer(updated.BusinessID, before.BusinessIDs, domain.EntityBusiness, id); err != nil {
		return Employee{}, err
	}
	if err := checkPointer(updated.DepartmentID, before.DepartmentIDs, domain.EntityDepartment, id); err != nil {
		return Employee{}, err
	}
	updated.Base = domain.Base{ID: id, CreatedAt: current.CreatedAt, UpdatedAt: tx.now}
	tx.state.employees[id] = stripEmployee(updated)
	reconcileEmployee(&tx.state, id)
	after := decorateEmployee(&tx.state, tx.state.employees[id])
	tx.recordChange(Change{Entity: domain.EntityEmployee, Action: domain.ActionUpdate, Before: before, After: cloneEmployee(after)})
	return after, nil
}

func checkPointer(ptr *string, members []string, kind domain.EntityType, employeeID string) error {
	if ptr == nil || containsString(members, *ptr) {
		return nil
	}
	return fmt.Errorf("employee %q is not linked to %s %q", employeeID, kind, *ptr)
}

// DeleteEmployee cascades relation cleanup and removes the employee.
func (tx *transaction) DeleteEmployee(id string) error {
	current, ok := tx.state.employees[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityEmployee, ID: id}
	}
	before := decorateEmployee(&tx.state, current)
	tx.cascade(domain.Ref{Kind: domain.EntityEmployee, ID: id})
	delete(tx.state.employees, id)
	tx.recordChange(Change{Entity: domain.EntityEmployee, Action: domain.ActionDelete, Before: before})
	return nil
}

// Link adds a symmetric edge between two existing records. Linking an
// existing pair is a no-op.
func (tx *transaction) Link(rel domain.Relation, leftID, rightID string) error {
	def, err := domain.LookupRelation(rel)
	if err != nil {
		return err
	}
	link := domain.Link{Relation: rel, LeftID: leftID, RightID: rightID}
	for _, ref := range []domain.Ref{link.LeftRef(def), link.RightRef(def)} {
		if !tx.state.exists(ref) {
			return &domain.DanglingReferenceError{Relation: rel, Ref: ref}
		}
	}
	if !tx.state.relations.add(rel, leftID, rightID) {
		return nil
	}
	tx.touchEmployees(def, link)
	tx.recordChange(Change{Entity: def.Left, Action: domain.ActionLink, After: link})
	return nil
}

// Unlink removes an edge. Missing edges are ignored.
func (tx *transaction) Unlink(rel domain.Relation, leftID, rightID string) error {
	def, err := domain.LookupRelation(rel)
	if err != nil {
		return err
	}
	link := domain.Link{Relation: rel, LeftID: leftID, RightID: rightID}
	if !tx.state.relations.remove(rel, leftID, rightID) {
		return nil
	}
	tx.touchEmployees(def, link)
	tx.recordChange(Change{Entity: def.Left, Action: domain.ActionUnlink, Before: link})
	return nil
}

// cascade removes every link naming ref before the record itself is deleted.
func (tx *transaction) cascade(ref domain.Ref) {
	for _, link := range tx.state.relations.cascade(ref) {
		def, err := domain.LookupRelation(link.Relation)
		if err != nil {
			continue
		}
		tx.touchEmployees(def, link)
		tx.recordChange(Change{Entity: def.Left, Action: domain.ActionUnlink, Before: link})
	}
}

func (tx *transaction) touchEmployees(def domain.RelationDef, link domain.Link) {
	if def.Right == domain.EntityEmployee {
		reconcileEmployee(&tx.state, link.RightID)
	}
}
