package unitofwork

import (
	"context"

	"prf-forms-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	ReportRepository() contract.ReportRepository
	TemplateRepository() contract.TemplateRepository
	ResponseRepository() contract.ResponseRepository
}
