package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching against the typed failures below.
var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrDanglingReference = errors.New("dangling reference")
	ErrPersistence       = errors.New("persistence failure")
	ErrUnknownKind       = errors.New("unknown entity kind")
	ErrUnknownRelation   = errors.New("unknown relation")
)

// ErrNotFound is returned when an operation references a nonexistent id.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is lets errors.Is(err, ErrRecordNotFound) match any ErrNotFound.
func (e ErrNotFound) Is(target error) bool { return target == ErrRecordNotFound }

// DanglingReferenceError is returned when a link names a record absent from the store.
type DanglingReferenceError struct {
	Relation Relation
	Ref      Ref
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("link %s references missing %s", e.Relation, e.Ref)
}

// Is lets errors.Is(err, ErrDanglingReference) match.
func (e *DanglingReferenceError) Is(target error) bool { return target == ErrDanglingReference }

// PersistenceError reports a failed write to the backing medium. Mutations
// already committed in memory are not rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

// Unwrap returns the medium error.
func (e *PersistenceError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrPersistence) match.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// NewPersistenceError wraps err unless it is nil or already a PersistenceError.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return "transaction blocked by rules: " + v.Message
		}
	}
	return "transaction blocked by rules"
}
