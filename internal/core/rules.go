package core

import (
	"corpgraph/pkg/domain"
	"time"
)

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
// A nil now uses the wall clock.
func NewDefaultRulesEngine(now func() time.Time) *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(RelationshipIntegrityRule())
	engine.Register(EmployeeProfileRule(now))
	return engine
}
