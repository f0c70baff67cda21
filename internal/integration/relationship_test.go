package integration

import (
	"context"
	"corpgraph/internal/core"
	"corpgraph/pkg/domain"
	"errors"
	"sort"
	"testing"
	"time"
)

var testTime = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

func TestIntegrationRelationships(t *testing.T) {
	ctx := context.Background()
	for _, m := range media(t) {
		t.Run(m.name, func(t *testing.T) {
			svc := core.NewService(m.open(t))
			t.Cleanup(func() { _ = svc.Store().Close() })

			b1 := mustBusiness(t, svc, "Initech")
			b2 := mustBusiness(t, svc, "Hooli")
			dept, _, err := svc.AddDepartment(ctx, "Research")
			if err != nil {
				t.Fatalf("add department: %v", err)
			}
			emp, _, err := svc.AddEmployee(ctx, "Ada", 36, testTime)
			if err != nil {
				t.Fatalf("add employee: %v", err)
			}

			steps := []func() (core.Snapshot, error){
				func() (core.Snapshot, error) { return svc.LinkBusinessDepartment(ctx, b1.ID, dept.ID) },
				func() (core.Snapshot, error) { return svc.LinkBusinessDepartment(ctx, b2.ID, dept.ID) },
				func() (core.Snapshot, error) { return svc.LinkBusinessEmployee(ctx, b1.ID, emp.ID) },
				func() (core.Snapshot, error) { return svc.LinkBusinessEmployee(ctx, b2.ID, emp.ID) },
				func() (core.Snapshot, error) { return svc.LinkDepartmentEmployee(ctx, dept.ID, emp.ID) },
			}
			for i, step := range steps {
				if _, err := step(); err != nil {
					t.Fatalf("link step %d: %v", i, err)
				}
			}

			d := findDepartment(t, svc, dept.ID)
			if !sameIDs(d.BusinessIDs, []string{b1.ID, b2.ID}) || !sameIDs(d.EmployeeIDs, []string{emp.ID}) {
				t.Fatalf("department links not symmetric: %+v", d)
			}
			e := findEmployee(t, svc, emp.ID)
			if e.BusinessID == nil || *e.BusinessID != b1.ID {
				t.Fatalf("employee should keep the first business pointer: %+v", e)
			}

			// Removing the pointed-to business moves the pointer to the remaining one.
			if _, err := svc.RemoveBusiness(ctx, b1.ID); err != nil {
				t.Fatalf("remove business: %v", err)
			}
			e = findEmployee(t, svc, emp.ID)
			if e.BusinessID == nil || *e.BusinessID != b2.ID || !sameIDs(e.BusinessIDs, []string{b2.ID}) {
				t.Fatalf("pointer not moved to remaining business: %+v", e)
			}
			if d := findDepartment(t, svc, dept.ID); !sameIDs(d.BusinessIDs, []string{b2.ID}) {
				t.Fatalf("removed business still linked to department: %+v", d)
			}

			if _, err := svc.RemoveDepartment(ctx, dept.ID); err != nil {
				t.Fatalf("remove department: %v", err)
			}
			e = findEmployee(t, svc, emp.ID)
			if e.DepartmentID != nil || len(e.DepartmentIDs) != 0 {
				t.Fatalf("department pointer not cleared: %+v", e)
			}

			if _, err := svc.RemoveEmployee(ctx, emp.ID); err != nil {
				t.Fatalf("remove employee: %v", err)
			}
			for _, b := range svc.ListBusinesses() {
				if len(b.EmployeeIDs) != 0 {
					t.Fatalf("business %s still lists employees %v", b.ID, b.EmployeeIDs)
				}
			}

			if _, err := svc.LinkBusinessEmployee(ctx, b2.ID, emp.ID); !errors.Is(err, domain.ErrDanglingReference) {
				t.Fatalf("expected dangling reference, got %v", err)
			}
			if _, err := svc.RemoveEmployee(ctx, emp.ID); !errors.Is(err, domain.ErrRecordNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}
		})
	}
}

func mustBusiness(t *testing.T, svc *core.Service, name string) core.Business {
	t.Helper()
	b, _, err := svc.AddBusiness(context.Background(), name)
	if err != nil {
		t.Fatalf("add business %s: %v", name, err)
	}
	return b
}

func findEmployee(t *testing.T, svc *core.Service, id string) core.Employee {
	t.Helper()
	for _, e := range svc.ListEmployees() {
		if e.ID == id {
			return e
		}
	}
	t.Fatalf("employee %s not listed", id)
	return core.Employee{}
}

func findDepartment(t *testing.T, svc *core.Service, id string) core.Department {
	t.Helper()
	for _, d := range svc.ListDepartments() {
		if d.ID == id {
			return d
		}
	}
	t.Fatalf("department %s not listed", id)
	return core.Department{}
}

func sameIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	a := append([]string(nil), got...)
	b := append([]string(nil), want...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
