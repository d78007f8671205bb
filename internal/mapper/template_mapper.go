package mapper

import (
	"encoding/json"

	"prf-forms-be/internal/entity"
	"prf-forms-be/internal/model"
	"prf-forms-be/internal/registry"
)

type TemplateMapper struct{}

func NewTemplateMapper() *TemplateMapper {
	return &TemplateMapper{}
}

func (m *TemplateMapper) ToModel(e *entity.Template) *model.FormTemplate {
	sections, _ := json.Marshal(e.Sections)
	return &model.FormTemplate{
		Id:        e.Id,
		Version:   e.Version,
		Name:      e.Name,
		Sections:  sections,
		CreatedAt: e.CreatedAt,
	}
}

func (m *TemplateMapper) ToEntity(mod *model.FormTemplate) *entity.Template {
	var sections []registry.Descriptor
	if len(mod.Sections) > 0 {
		_ = json.Unmarshal(mod.Sections, &sections)
	}
	return &entity.Template{
		Id:        mod.Id,
		Version:   mod.Version,
		Name:      mod.Name,
		Sections:  sections,
		CreatedAt: mod.CreatedAt,
	}
}

func (m *TemplateMapper) ToEntities(models []*model.FormTemplate) []*entity.Template {
	entities := make([]*entity.Template, 0, len(models))
	for _, mod := range models {
		entities = append(entities, m.ToEntity(mod))
	}
	return entities
}
