package dto

import (
	"time"

	"github.com/google/uuid"
)

type SaveReportResponse struct {
	Id          uuid.UUID `json:"id"`
	Status      string    `json:"status"`
	PendingSync bool      `json:"pending_sync"`
}

type ResyncResponse struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

// RemoteReportResponse is the server-side copy of a document. Sections
// are only populated on single-document fetches.
type RemoteReportResponse struct {
	Id              uuid.UUID                         `json:"id"`
	TemplateId      string                            `json:"template_id"`
	TemplateVersion int                               `json:"template_version"`
	Status          string                            `json:"status"`
	Sections        map[string]map[string]interface{} `json:"sections,omitempty"`
	UpdatedAt       time.Time                         `json:"updated_at"`
}
