package reconciler

import (
	"context"
	"time"

	"prf-forms-be/internal/apperr"
	"prf-forms-be/internal/entity"
	"prf-forms-be/internal/pkg/logger"
	"prf-forms-be/internal/repository/specification"
	"prf-forms-be/internal/repository/unitofwork"
	"prf-forms-be/internal/store"

	"github.com/google/uuid"
)

// TemplateSource resolves template definitions. The template service
// backs this with its cache so repeated reconciles hit the network once.
type TemplateSource interface {
	Template(ctx context.Context, id string, version int) (*entity.Template, error)
	LatestTemplate(ctx context.Context, id string) (*entity.Template, error)
}

// Reconciler resolves the authoritative state of a document from its
// template and stored response, then merges the result into the
// in-memory store. Reconcile is idempotent: running it twice against
// unchanged remote state yields an identical document.
type Reconciler struct {
	factory   unitofwork.RepositoryFactory
	store     *store.DocumentStore
	templates TemplateSource
	logger    logger.ILogger
}

func New(factory unitofwork.RepositoryFactory, docStore *store.DocumentStore, templates TemplateSource, log logger.ILogger) *Reconciler {
	return &Reconciler{
		factory:   factory,
		store:     docStore,
		templates: templates,
		logger:    log,
	}
}

// Reconcile loads the stored response for a document, checks it against
// the current template version and merges the result into the store.
//
// The store epoch is captured before any remote round trip; if local
// writes land while the fetch is in flight, ApplyRemote keeps every
// locally newer section instead of stomping it.
func (r *Reconciler) Reconcile(ctx context.Context, documentId uuid.UUID, templateId string) (*entity.Report, error) {
	sinceEpoch := r.store.Epoch(documentId)

	current, err := r.templates.LatestTemplate(ctx, templateId)
	if err != nil {
		return nil, err
	}

	uow := r.factory.NewUnitOfWork(ctx)
	response, err := uow.ResponseRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		return nil, err
	}

	var remote *entity.Report
	if response == nil {
		// No stored response yet: synthesize an empty draft bound to the
		// current template version.
		now := time.Now()
		remote = &entity.Report{
			Id:              documentId,
			OwnerId:         r.store.User(),
			TemplateId:      templateId,
			TemplateVersion: current.Version,
			Status:          entity.ReportStatusDraft,
			Sections:        make(map[string]*entity.Section),
			LastModified:    now,
			CreatedAt:       now,
		}
	} else {
		if response.TemplateVersion != current.Version {
			return nil, &apperr.StaleTemplateError{
				TemplateId:     templateId,
				BoundVersion:   response.TemplateVersion,
				CurrentVersion: current.Version,
			}
		}
		remote = responseToReport(response)
	}

	report, err := r.store.ApplyRemote(remote, sinceEpoch)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Reconciler", "Reconciled document", map[string]interface{}{
		"document_id": documentId.String(),
		"template_id": templateId,
		"version":     current.Version,
	})
	return report, nil
}

// Migrate rebinds a stale response to the current template version.
// Section values whose keys no longer exist in the new version are kept
// verbatim; the store marks them orphaned on apply.
func (r *Reconciler) Migrate(ctx context.Context, documentId uuid.UUID, templateId string) (*entity.Report, error) {
	sinceEpoch := r.store.Epoch(documentId)

	current, err := r.templates.LatestTemplate(ctx, templateId)
	if err != nil {
		return nil, err
	}

	uow := r.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	response, err := uow.ResponseRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		uow.Rollback()
		return nil, err
	}
	if response == nil {
		uow.Rollback()
		return nil, apperr.ErrNotFound
	}

	response.TemplateVersion = current.Version
	response.UpdatedAt = time.Now()
	if err := uow.ResponseRepository().Update(ctx, response); err != nil {
		uow.Rollback()
		return nil, err
	}

	// Keep the unified report row bound to the same version as the
	// response it mirrors.
	archived, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		uow.Rollback()
		return nil, err
	}
	if archived != nil {
		archived.TemplateVersion = current.Version
		archived.LastModified = response.UpdatedAt
		if err := uow.ReportRepository().Update(ctx, archived); err != nil {
			uow.Rollback()
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	r.logger.Info("Reconciler", "Migrated response to current template version", map[string]interface{}{
		"document_id": documentId.String(),
		"template_id": templateId,
		"version":     current.Version,
	})

	return r.store.ApplyRemote(responseToReport(response), sinceEpoch)
}

func responseToReport(response *entity.FormResponse) *entity.Report {
	sections := make(map[string]*entity.Section, len(response.Sections))
	for key, value := range response.Sections {
		sections[key] = &entity.Section{
			Value:     value,
			UpdatedAt: response.UpdatedAt,
		}
	}

	status := entity.ReportStatusSynced
	if response.Status == entity.ResponseStatusSubmitted {
		status = entity.ReportStatusSubmitted
	}

	return &entity.Report{
		Id:              response.Id,
		OwnerId:         response.OwnerId,
		TemplateId:      response.TemplateId,
		TemplateVersion: response.TemplateVersion,
		Status:          status,
		Sections:        sections,
		LastModified:    response.UpdatedAt,
		CreatedAt:       response.CreatedAt,
	}
}
