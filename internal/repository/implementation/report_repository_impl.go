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
	"gorm.io/gorm/clause"
)

type ReportRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ReportMapper
}

func NewReportRepository(db *gorm.DB) contract.ReportRepository {
	return &ReportRepositoryImpl{
		db:     db,
		mapper: mapper.NewReportMapper(),
	}
}

func (r *ReportRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ReportRepositoryImpl) Create(ctx context.Context, report *entity.Report) error {
	m := r.mapper.ToModel(report)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*report = *r.mapper.ToEntity(m)
	return nil
}

func (r *ReportRepositoryImpl) Update(ctx context.Context, report *entity.Report) error {
	m := r.mapper.ToModel(report)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*report = *r.mapper.ToEntity(m)
	return nil
}

func (r *ReportRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Report{}, id).Error
}

func (r *ReportRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Report, error) {
	var m model.Report
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ReportRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Report, error) {
	var models []*model.Report
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ReportRepositoryImpl) SaveNote(ctx context.Context, reportId uuid.UUID, text string) error {
	note := model.ReportNote{ReportId: reportId, Text: text}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "report_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
		}).
		Create(&note).Error
}

func (r *ReportRepositoryImpl) FindNote(ctx context.Context, reportId uuid.UUID) (string, error) {
	var note model.ReportNote
	err := r.db.WithContext(ctx).First(&note, "report_id = ?", reportId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return note.Text, nil
}

func (r *ReportRepositoryImpl) DeleteNote(ctx context.Context, reportId uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ReportNote{}, "report_id = ?", reportId).Error
}
