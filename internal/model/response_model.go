package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FormResponse struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TemplateId      string         `gorm:"type:varchar(64);not null;index"`
	TemplateVersion int            `gorm:"not null"`
	OwnerId         uuid.UUID      `gorm:"type:uuid;not null;index"`
	Status          string         `gorm:"type:varchar(16);not null"`
	Sections        datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (FormResponse) TableName() string {
	return "form_responses"
}
