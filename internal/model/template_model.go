package model

import (
	"time"

	"gorm.io/datatypes"
)

type FormTemplate struct {
	Id        string         `gorm:"type:varchar(64);primaryKey"`
	Version   int            `gorm:"primaryKey"`
	Name      string         `gorm:"type:varchar(255);not null"`
	Sections  datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

func (FormTemplate) TableName() string {
	return "form_templates"
}
