package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusSubmitted ReportStatus = "submitted"
	ReportStatusSynced    ReportStatus = "synced"
	ReportStatusDirty     ReportStatus = "dirty"
)

// Section is one independently editable slice of a report. Orphaned
// sections came from a response whose key is no longer in the template;
// they are hidden from navigation but never lost on save.
type Section struct {
	Value     map[string]interface{} `json:"value"`
	Complete  bool                   `json:"complete"`
	Orphaned  bool                   `json:"orphaned,omitempty"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Report is the core document: a set of section values plus status
// metadata, independent of whether it originates from the fixed PRF
// catalogue or a dynamic template.
type Report struct {
	Id              uuid.UUID
	OwnerId         uuid.UUID
	TemplateId      string
	TemplateVersion int
	Status          ReportStatus
	Sections        map[string]*Section
	LastModified    time.Time
	PendingSync     bool
	CreatedAt       time.Time
}

// Clone returns a deep copy. The store hands copies out so callers can
// never mutate committed state behind its back.
func (r *Report) Clone() *Report {
	out := *r
	out.Sections = make(map[string]*Section, len(r.Sections))
	for key, sec := range r.Sections {
		out.Sections[key] = sec.Clone()
	}
	return &out
}

func (s *Section) Clone() *Section {
	cp := *s
	cp.Value = cloneValue(s.Value)
	return &cp
}

func cloneValue(value map[string]interface{}) map[string]interface{} {
	if value == nil {
		return nil
	}
	out := make(map[string]interface{}, len(value))
	for k, v := range value {
		switch t := v.(type) {
		case map[string]interface{}:
			out[k] = cloneValue(t)
		case []interface{}:
			list := make([]interface{}, len(t))
			copy(list, t)
			out[k] = list
		default:
			out[k] = v
		}
	}
	return out
}
