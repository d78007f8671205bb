package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnedBy scopes a query to one user's records.
type OwnedBy struct {
	UserID uuid.UUID
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("owner_id = ?", s.UserID)
}

// ByTemplate filters reports/responses bound to a template id.
type ByTemplate struct {
	TemplateID string
}

func (s ByTemplate) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("template_id = ?", s.TemplateID)
}

// ByStatus filters on document status.
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// ByEmail looks a user up by email.
type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", s.Email)
}
