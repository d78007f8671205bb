package mapper

import (
	"encoding/json"

	"prf-forms-be/internal/entity"
	"prf-forms-be/internal/model"
)

type ResponseMapper struct{}

func NewResponseMapper() *ResponseMapper {
	return &ResponseMapper{}
}

func (m *ResponseMapper) ToModel(e *entity.FormResponse) *model.FormResponse {
	sections, _ := json.Marshal(e.Sections)
	return &model.FormResponse{
		Id:              e.Id,
		TemplateId:      e.TemplateId,
		TemplateVersion: e.TemplateVersion,
		OwnerId:         e.OwnerId,
		Status:          string(e.Status),
		Sections:        sections,
		CreatedAt:       e.CreatedAt,
	}
}

func (m *ResponseMapper) ToEntity(mod *model.FormResponse) *entity.FormResponse {
	sections := make(map[string]map[string]interface{})
	if len(mod.Sections) > 0 {
		_ = json.Unmarshal(mod.Sections, &sections)
	}
	return &entity.FormResponse{
		Id:              mod.Id,
		TemplateId:      mod.TemplateId,
		TemplateVersion: mod.TemplateVersion,
		OwnerId:         mod.OwnerId,
		Status:          entity.ResponseStatus(mod.Status),
		Sections:        sections,
		UpdatedAt:       mod.UpdatedAt,
		CreatedAt:       mod.CreatedAt,
	}
}
