package entity

import (
	"time"

	"prf-forms-be/internal/registry"

	"github.com/google/uuid"
)

// Template is a remotely defined form schema. Immutable once fetched; a
// new version is a new Template object, never an in-place mutation.
type Template struct {
	Id        string
	Version   int
	Name      string
	Sections  []registry.Descriptor
	CreatedAt time.Time
}

func (t *Template) Registry() *registry.Registry {
	return registry.New(t.Sections)
}

type ResponseStatus string

const (
	ResponseStatusInProgress ResponseStatus = "in_progress"
	ResponseStatusSubmitted  ResponseStatus = "submitted"
)

// FormResponse is a submitted or in-progress document bound to a
// specific template id and version.
type FormResponse struct {
	Id              uuid.UUID
	TemplateId      string
	TemplateVersion int
	OwnerId         uuid.UUID
	Status          ResponseStatus
	Sections        map[string]map[string]interface{}
	UpdatedAt       time.Time
	CreatedAt       time.Time
}
