package contract

import (
	"context"

	"prf-forms-be/internal/entity"
	"prf-forms-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ResponseRepository interface {
	Create(ctx context.Context, response *entity.FormResponse) error
	Update(ctx context.Context, response *entity.FormResponse) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FormResponse, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FormResponse, error)
}
