package core

import (
	"context"
	"corpgraph/pkg/domain"
	"fmt"
	"strings"
	"time"
)

// EmployeeProfileRule validates created and updated employees: a negative
// age or blank name blocks the commit, a join date in the future warns.
func EmployeeProfileRule(now func() time.Time) domain.Rule {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return employeeProfileRule{now: now}
}

type employeeProfileRule struct {
	now func() time.Time
}

func (employeeProfileRule) Name() string { return "employee_profile" }

func (r employeeProfileRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityEmployee || change.After == nil {
			continue
		}
		e, ok := change.After.(domain.Employee)
		if !ok {
			continue
		}
		if e.Age < 0 {
			res.Violations = append(res.Violations, profileViolation(domain.SeverityBlock, e.ID, fmt.Sprintf("employee %s has negative age %d", e.ID, e.Age)))
		}
		if strings.TrimSpace(e.Name) == "" {
			res.Violations = append(res.Violations, profileViolation(domain.SeverityBlock, e.ID, fmt.Sprintf("employee %s has no name", e.ID)))
		}
		if e.DateJoined.After(r.now()) {
			res.Violations = append(res.Violations, profileViolation(domain.SeverityWarn, e.ID, fmt.Sprintf("employee %s joins in the future (%s)", e.ID, e.DateJoined.Format(time.RFC3339))))
		}
	}
	return res, nil
}

func profileViolation(sev domain.Severity, id, message string) domain.Violation {
	return domain.Violation{
		Rule:     "employee_profile",
		Severity: sev,
		Message:  message,
		Entity:   domain.EntityEmployee,
		EntityID: id,
	}
}
