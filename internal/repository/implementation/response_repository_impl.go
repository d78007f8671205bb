package implementation

import (
	"context"
	"errors"

	"prf-forms-be/internal/entity"
	"prf-forms-be/internal/mapper"
	"prf-forms-be/internal/model"
	"prf-forms-be/internal/repository/contract"
	"prf-forms-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ResponseRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ResponseMapper
}

func NewResponseRepository(db *gorm.DB) contract.ResponseRepository {
	return &ResponseRepositoryImpl{
		db:     db,
		mapper: mapper.NewResponseMapper(),
	}
}

func (r *ResponseRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ResponseRepositoryImpl) Create(ctx context.Context, response *entity.FormResponse) error {
	m := r.mapper.ToModel(response)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*response = *r.mapper.ToEntity(m)
	return nil
}

func (r *ResponseRepositoryImpl) Update(ctx context.Context, response *entity.FormResponse) error {
	m := r.mapper.ToModel(response)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*response = *r.mapper.ToEntity(m)
	return nil
}

func (r *ResponseRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.FormResponse{}, id).Error
}

func (r *ResponseRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FormResponse, error) {
	var m model.FormResponse
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ResponseRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FormResponse, error) {
	var models []*model.FormResponse
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.FormResponse, 0, len(models))
	for _, mod := range models {
		entities = append(entities, r.mapper.ToEntity(mod))
	}
	return entities, nil
}
