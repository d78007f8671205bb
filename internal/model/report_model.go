package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Report struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerId         uuid.UUID      `gorm:"type:uuid;not null;index"`
	TemplateId      string         `gorm:"type:varchar(64);not null;index"`
	TemplateVersion int            `gorm:"not null"`
	Status          string         `gorm:"type:varchar(16);not null"`
	Sections        datatypes.JSON `gorm:"type:jsonb"`
	LastModified    time.Time      `gorm:"not null;index"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (Report) TableName() string {
	return "reports"
}

// ReportNote is the free-text note attached to a report. Independent
// lifecycle: clearing it never invalidates the report itself.
type ReportNote struct {
	ReportId  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Text      string    `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ReportNote) TableName() string {
	return "report_notes"
}
