package mapper

import (
	"encoding/json"

	"prf-forms-be/internal/entity"
	"prf-forms-be/internal/model"
)

type ReportMapper struct{}

func NewReportMapper() *ReportMapper {
	return &ReportMapper{}
}

func (m *ReportMapper) ToModel(e *entity.Report) *model.Report {
	// Section payloads (value + flags) travel as one jsonb column.
	sections, _ := json.Marshal(e.Sections)
	return &model.Report{
		Id:              e.Id,
		OwnerId:         e.OwnerId,
		TemplateId:      e.TemplateId,
		TemplateVersion: e.TemplateVersion,
		Status:          string(e.Status),
		Sections:        sections,
		LastModified:    e.LastModified,
		CreatedAt:       e.CreatedAt,
	}
}

func (m *ReportMapper) ToEntity(mod *model.Report) *entity.Report {
	sections := make(map[string]*entity.Section)
	if len(mod.Sections) > 0 {
		_ = json.Unmarshal(mod.Sections, &sections)
	}
	return &entity.Report{
		Id:              mod.Id,
		OwnerId:         mod.OwnerId,
		TemplateId:      mod.TemplateId,
		TemplateVersion: mod.TemplateVersion,
		Status:          entity.ReportStatus(mod.Status),
		Sections:        sections,
		LastModified:    mod.LastModified,
		CreatedAt:       mod.CreatedAt,
	}
}

func (m *ReportMapper) ToEntities(models []*model.Report) []*entity.Report {
	entities := make([]*entity.Report, 0, len(models))
	for _, mod := range models {
		entities = append(entities, m.ToEntity(mod))
	}
	return entities
}
