package core

import (
	"context"
	"corpgraph/pkg/domain"
	"fmt"
)

// RelationshipIntegrityRule blocks commits that would leave a link naming a
// missing record or an employee pointer naming a record it is not linked to.
func RelationshipIntegrityRule() domain.Rule {
	return relationshipIntegrityRule{}
}

type relationshipIntegrityRule struct{}

func (relationshipIntegrityRule) Name() string { return "relationship_integrity" }

func (relationshipIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	exists := func(ref domain.Ref) bool {
		var ok bool
		switch ref.Kind {
		case domain.EntityBusiness:
			_, ok = view.FindBusiness(ref.ID)
		case domain.EntityDepartment:
			_, ok = view.FindDepartment(ref.ID)
		case domain.EntityEmployee:
			_, ok = view.FindEmployee(ref.ID)
		}
		return ok
	}

	for _, link := range view.Links() {
		def, err := domain.LookupRelation(link.Relation)
		if err != nil {
			res.Violations = append(res.Violations, integrityViolation("", "", fmt.Sprintf("link uses unknown relation %s", link.Relation)))
			continue
		}
		for _, ref := range []domain.Ref{link.LeftRef(def), link.RightRef(def)} {
			if !exists(ref) {
				res.Violations = append(res.Violations, integrityViolation(ref.Kind, ref.ID, fmt.Sprintf("link %s references missing %s", link.Relation, ref)))
			}
		}
	}

	for _, e := range view.ListEmployees() {
		if e.BusinessID != nil && !contains(e.BusinessIDs, *e.BusinessID) {
			res.Violations = append(res.Violations, integrityViolation(domain.EntityEmployee, e.ID,
				fmt.Sprintf("employee %s points at business %s without membership", e.ID, *e.BusinessID)))
		}
		if e.DepartmentID != nil && !contains(e.DepartmentIDs, *e.DepartmentID) {
			res.Violations = append(res.Violations, integrityViolation(domain.EntityEmployee, e.ID,
				fmt.Sprintf("employee %s points at department %s without membership", e.ID, *e.DepartmentID)))
		}
	}
	return res, nil
}

func integrityViolation(kind domain.EntityType, id, message string) domain.Violation {
	return domain.Violation{
		Rule:     "relationship_integrity",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   kind,
		EntityID: id,
	}
}

func contains(values []string, id string) bool {
	for _, v := range values {
		if v == id {
			return true
		}
	}
	return false
}
