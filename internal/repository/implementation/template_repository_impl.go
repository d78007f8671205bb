package implementation

import (
	"context"
	"errors"

	"prf-forms-be/internal/entity"
	"prf-forms-be/internal/mapper"
	"prf-forms-be/internal/model"
	"prf-forms-be/internal/repository/contract"

	"gorm.io/gorm"
)

type TemplateRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TemplateMapper
}

func NewTemplateRepository(db *gorm.DB) contract.TemplateRepository {
	return &TemplateRepositoryImpl{
		db:     db,
		mapper: mapper.NewTemplateMapper(),
	}
}

func (r *TemplateRepositoryImpl) Create(ctx context.Context, template *entity.Template) error {
	m := r.mapper.ToModel(template)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*template = *r.mapper.ToEntity(m)
	return nil
}

func (r *TemplateRepositoryImpl) FindLatest(ctx context.Context, id string) (*entity.Template, error) {
	var m model.FormTemplate
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Order("version DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TemplateRepositoryImpl) FindVersion(ctx context.Context, id string, version int) (*entity.Template, error) {
	var m model.FormTemplate
	err := r.db.WithContext(ctx).
		Where("id = ? AND version = ?", id, version).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TemplateRepositoryImpl) FindAllLatest(ctx context.Context) ([]*entity.Template, error) {
	// One row per template id, highest version wins.
	var models []*model.FormTemplate
	err := r.db.WithContext(ctx).
		Where("(id, version) IN (SELECT id, MAX(version) FROM form_templates GROUP BY id)").
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
