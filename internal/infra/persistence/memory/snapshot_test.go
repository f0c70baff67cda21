package memory

import (
	"corpgraph/pkg/domain"
	"testing"
)

func TestMigrateSnapshotInitialisesAndFilters(t *testing.T) {
	snapshot := Snapshot{
		Businesses: map[string]Business{"b1": {Name: "Apple"}},
		Employees:  map[string]Employee{"e1": {Name: "Chris"}},
		Links: []domain.Link{
			{Relation: domain.RelationBusinessEmployees, LeftID: "b1", RightID: "e1"},
			{Relation: domain.RelationBusinessEmployees, LeftID: "b1", RightID: "ghost"},
			{Relation: domain.RelationBusinessDepartments, LeftID: "b1", RightID: "d-missing"},
			{Relation: "business_fruits", LeftID: "b1", RightID: "e1"},
		},
	}

	migrated := migrateSnapshot(snapshot)

	if migrated.Departments == nil {
		t.Fatalf("expected migrateSnapshot to initialise nil maps")
	}
	if len(migrated.Links) != 1 {
		t.Fatalf("expected dangling and unknown links to be dropped, got %+v", migrated.Links)
	}
	if migrated.Businesses["b1"].ID != "b1" || migrated.Employees["e1"].ID != "e1" {
		t.Fatalf("expected ids to follow map keys")
	}
}

func TestImportStateReconcilesPointers(t *testing.T) {
	stale := "gone"
	store := NewStore(nil)
	store.ImportState(Snapshot{
		Businesses: map[string]Business{"b1": {Name: "Apple"}},
		Employees: map[string]Employee{
			"e1": {Name: "Chris", BusinessID: &stale},
			"e2": {Name: "Sam", BusinessID: &stale},
		},
		Links: []domain.Link{{Relation: domain.RelationBusinessEmployees, LeftID: "b1", RightID: "e1"}},
	})
	e1, _ := store.GetEmployee("e1")
	if e1.BusinessID == nil || *e1.BusinessID != "b1" {
		t.Fatalf("expected pointer repaired to member, got %v", e1.BusinessID)
	}
	e2, _ := store.GetEmployee("e2")
	if e2.BusinessID != nil {
		t.Fatalf("expected pointer cleared without membership, got %v", *e2.BusinessID)
	}
}

func TestExportStateCarriesLinksOnce(t *testing.T) {
	f := newFixture(t)
	snap := f.store.ExportState()
	if len(snap.Links) != 3 {
		t.Fatalf("expected 3 links, got %d", len(snap.Links))
	}
	for _, b := range snap.Businesses {
		if b.DepartmentIDs != nil || b.EmployeeIDs != nil {
			t.Fatalf("exported records must not carry derived sets")
		}
	}
	restored := NewStore(nil)
	restored.ImportState(snap)
	emp, _ := restored.GetEmployee(f.emp.ID)
	if emp.DepartmentID == nil || *emp.DepartmentID != f.dept.ID {
		t.Fatalf("round trip lost employee pointer")
	}
}

func TestRelationIndexCascade(t *testing.T) {
	idx := newRelationIndex()
	idx.add(domain.RelationBusinessDepartments, "b1", "d1")
	idx.add(domain.RelationBusinessDepartments, "b1", "d2")
	idx.add(domain.RelationBusinessEmployees, "b1", "e1")
	idx.add(domain.RelationDepartmentEmployees, "d1", "e1")

	clone := idx.clone()
	removed := idx.cascade(domain.Ref{Kind: domain.EntityBusiness, ID: "b1"})
	if len(removed) != 3 {
		t.Fatalf("expected 3 links removed, got %+v", removed)
	}
	if got := idx.lefts(domain.RelationBusinessDepartments, "d1"); len(got) != 0 {
		t.Fatalf("backward edge left behind: %v", got)
	}
	if !idx.has(domain.RelationDepartmentEmployees, "d1", "e1") {
		t.Fatalf("unrelated link removed")
	}
	if got := clone.rights(domain.RelationBusinessDepartments, "b1"); len(got) != 2 || got[0] != "d1" {
		t.Fatalf("clone must be independent, got %v", got)
	}
	if idx.remove(domain.RelationBusinessDepartments, "b1", "d1") {
		t.Fatalf("remove of missing edge should report false")
	}
}
