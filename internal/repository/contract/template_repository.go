package contract

import (
	"context"

	"prf-forms-be/internal/entity"
)

type TemplateRepository interface {
	Create(ctx context.Context, template *entity.Template) error
	// FindLatest returns the highest version for a template id, nil when absent.
	FindLatest(ctx context.Context, id string) (*entity.Template, error)
	FindVersion(ctx context.Context, id string, version int) (*entity.Template, error)
	FindAllLatest(ctx context.Context) ([]*entity.Template, error)
}
