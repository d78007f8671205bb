package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnknownSection  = errors.New("unknown section key")
	ErrImmutable       = errors.New("document is submitted and immutable")
	ErrIncomplete      = errors.New("report has incomplete sections")
)

// FieldViolation describes a single failed field rule inside a section.
type FieldViolation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError is returned when a section value fails its schema.
// The document is guaranteed unchanged when this error is returned.
type ValidationError struct {
	SectionKey string           `json:"section_key"`
	Violations []FieldViolation `json:"violations"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("section %q failed validation (%d violations)", e.SectionKey, len(e.Violations))
}

// StaleTemplateError signals a response bound to an older template version.
// The caller decides whether to migrate or block; it is never auto-resolved.
type StaleTemplateError struct {
	TemplateId     string
	BoundVersion   int
	CurrentVersion int
}

func (e *StaleTemplateError) Error() string {
	return fmt.Sprintf("template %s: response bound to version %d, current is %d",
		e.TemplateId, e.BoundVersion, e.CurrentVersion)
}

// SyncError wraps a remote persistence failure. It is non-fatal: the
// document stays dirty locally and is retried on the next resync.
type SyncError struct {
	DocumentId string
	Cause      error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync failed for document %s: %v", e.DocumentId, e.Cause)
}

func (e *SyncError) Unwrap() error {
	return e.Cause
}
