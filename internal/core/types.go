package core

import "corpgraph/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Base               = domain.Base
	Business           = domain.Business
	Department         = domain.Department
	Employee           = domain.Employee
	Relation           = domain.Relation
	Link               = domain.Link
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntityBusiness   = domain.EntityBusiness
	EntityDepartment = domain.EntityDepartment
	EntityEmployee   = domain.EntityEmployee
)

const (
	RelationBusinessDepartments = domain.RelationBusinessDepartments
	RelationBusinessEmployees   = domain.RelationBusinessEmployees
	RelationDepartmentEmployees = domain.RelationDepartmentEmployees
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
	ActionLink   = domain.ActionLink
	ActionUnlink = domain.ActionUnlink
)
