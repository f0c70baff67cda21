package domain

import "fmt"

// Relation names a maintained many-to-many relation between two record kinds.
type Relation string

// Maintained relations. The left kind of each relation is listed first.
const (
	RelationBusinessDepartments Relation = "business_departments"
	RelationBusinessEmployees   Relation = "business_employees"
	RelationDepartmentEmployees Relation = "department_employees"
)

// RelationDef fixes the kinds on both sides of a relation.
type RelationDef struct {
	Name  Relation
	Left  EntityType
	Right EntityType
}

var relationDefs = []RelationDef{
	{Name: RelationBusinessDepartments, Left: EntityBusiness, Right: EntityDepartment},
	{Name: RelationBusinessEmployees, Left: EntityBusiness, Right: EntityEmployee},
	{Name: RelationDepartmentEmployees, Left: EntityDepartment, Right: EntityEmployee},
}

// Relations returns every maintained relation definition.
func Relations() []RelationDef {
	return append([]RelationDef(nil), relationDefs...)
}

// LookupRelation resolves a relation definition by name.
func LookupRelation(name Relation) (RelationDef, error) {
	for _, def := range relationDefs {
		if def.Name == name {
			return def, nil
		}
	}
	return RelationDef{}, fmt.Errorf("%w: %s", ErrUnknownRelation, name)
}

// RelationsFor returns the relations in which kind participates on either side.
func RelationsFor(kind EntityType) []RelationDef {
	var out []RelationDef
	for _, def := range relationDefs {
		if def.Left == kind || def.Right == kind {
			out = append(out, def)
		}
	}
	return out
}

// Link is one persisted edge of a relation.
type Link struct {
	Relation Relation `json:"relation"`
	LeftID   string   `json:"left_id"`
	RightID  string   `json:"right_id"`
}

// LeftRef returns the reference on the left side of the link.
func (l Link) LeftRef(def RelationDef) Ref { return Ref{Kind: def.Left, ID: l.LeftID} }

// RightRef returns the reference on the right side of the link.
func (l Link) RightRef(def RelationDef) Ref { return Ref{Kind: def.Right, ID: l.RightID} }
