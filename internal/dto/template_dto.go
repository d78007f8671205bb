package dto

import (
	"time"

	"prf-forms-be/internal/registry"
)

type CreateTemplateRequest struct {
	Id       string                `json:"id" validate:"required,min=2"`
	Name     string                `json:"name" validate:"required"`
	Sections []registry.Descriptor `json:"sections" validate:"required,min=1"`
}

type TemplateResponse struct {
	Id        string                `json:"id"`
	Version   int                   `json:"version"`
	Name      string                `json:"name"`
	Sections  []registry.Descriptor `json:"sections"`
	CreatedAt time.Time             `json:"created_at"`
}

type TemplateSummaryResponse struct {
	Id       string `json:"id"`
	Version  int    `json:"version"`
	Name     string `json:"name"`
	Sections int    `json:"sections"`
}
