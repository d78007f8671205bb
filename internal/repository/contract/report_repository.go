package contract

import (
	"context"

	"prf-forms-be/internal/entity"
	"prf-forms-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ReportRepository interface {
	Create(ctx context.Context, report *entity.Report) error
	Update(ctx context.Context, report *entity.Report) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Report, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Report, error)

	// Notes have an independent lifecycle from the report sections.
	SaveNote(ctx context.Context, reportId uuid.UUID, text string) error
	FindNote(ctx context.Context, reportId uuid.UUID) (string, error)
	DeleteNote(ctx context.Context, reportId uuid.UUID) error
}
