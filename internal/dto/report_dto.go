package dto

import (
	"time"

	"prf-forms-be/internal/apperr"
	"prf-forms-be/internal/navigator"

	"github.com/google/uuid"
)

type CreateReportRequest struct {
	TemplateId string `json:"template_id" validate:"omitempty"`
}

type CreateReportResponse struct {
	Id              uuid.UUID `json:"id"`
	TemplateId      string    `json:"template_id"`
	TemplateVersion int       `json:"template_version"`
}

type WriteSectionRequest struct {
	Id         uuid.UUID
	SectionKey string                 `json:"-"`
	Value      map[string]interface{} `json:"value" validate:"required"`
}

type WriteSectionResponse struct {
	Id         uuid.UUID               `json:"id"`
	SectionKey string                  `json:"section_key"`
	Complete   bool                    `json:"complete"`
	Violations []apperr.FieldViolation `json:"violations,omitempty"`
}

type SectionResponse struct {
	Key       string                 `json:"key"`
	Value     map[string]interface{} `json:"value"`
	Complete  bool                   `json:"complete"`
	Orphaned  bool                   `json:"orphaned,omitempty"`
	UpdatedAt time.Time              `json:"updated_at"`
}

type ShowReportResponse struct {
	Id              uuid.UUID           `json:"id"`
	TemplateId      string              `json:"template_id"`
	TemplateVersion int                 `json:"template_version"`
	Status          string              `json:"status"`
	Sections        []SectionResponse   `json:"sections"`
	Progress        *navigator.Progress `json:"progress"`
	PendingSync     bool                `json:"pending_sync"`
	LastModified    time.Time           `json:"last_modified"`
}

type ReportSummaryResponse struct {
	Id               uuid.UUID `json:"id"`
	TemplateId       string    `json:"template_id"`
	Status           string    `json:"status"`
	CompleteSections int       `json:"complete_sections"`
	TotalSections    int       `json:"total_sections"`
	PendingSync      bool      `json:"pending_sync"`
	LastModified     time.Time `json:"last_modified"`
}

type SubmitReportResponse struct {
	Id          uuid.UUID `json:"id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type NextSectionResponse struct {
	SectionKey string `json:"section_key"`
	End        bool   `json:"end"`
}

type SaveNoteRequest struct {
	Id   uuid.UUID
	Text string `json:"text" validate:"required"`
}

type NoteResponse struct {
	Id   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}
