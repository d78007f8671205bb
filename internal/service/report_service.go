package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"prf-forms-be/internal/apperr"
	"prf-forms-be/internal/dto"
	"prf-forms-be/internal/entity"
	"prf-forms-be/internal/gateway"
	"prf-forms-be/internal/navigator"
	"prf-forms-be/internal/pkg/logger"
	"prf-forms-be/internal/pkg/mailer"
	"prf-forms-be/internal/reconciler"
	"prf-forms-be/internal/registry"
	"prf-forms-be/internal/repository/specification"
	"prf-forms-be/internal/repository/unitofwork"
	"prf-forms-be/internal/store"
	"prf-forms-be/pkg/events"
	pktNats "prf-forms-be/pkg/nats"

	"github.com/google/uuid"
)

type IReportService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateReportRequest) (*dto.CreateReportResponse, error)
	Open(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowReportResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.ReportSummaryResponse, error)
	WriteSection(ctx context.Context, userId uuid.UUID, req *dto.WriteSectionRequest) (*dto.WriteSectionResponse, error)
	NextSection(ctx context.Context, userId uuid.UUID, id uuid.UUID, currentKey string) (*dto.NextSectionResponse, error)
	Progress(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*navigator.Progress, error)
	Submit(ctx context.Context, token string, userId uuid.UUID, id uuid.UUID) (*dto.SubmitReportResponse, error)
	Migrate(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowReportResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error

	SaveNote(ctx context.Context, userId uuid.UUID, req *dto.SaveNoteRequest) (*dto.NoteResponse, error)
	ShowNote(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.NoteResponse, error)
	DeleteNote(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type reportService struct {
	docStore        *store.DocumentStore
	nav             *navigator.Navigator
	recon           *reconciler.Reconciler
	syncGateway     *gateway.SyncGateway
	templateService ITemplateService
	uowFactory      unitofwork.RepositoryFactory
	eventPublisher  *pktNats.Publisher
	emailService    mailer.IEmailService
	logger          logger.ILogger
}

func NewReportService(
	docStore *store.DocumentStore,
	nav *navigator.Navigator,
	recon *reconciler.Reconciler,
	syncGateway *gateway.SyncGateway,
	templateService ITemplateService,
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher *pktNats.Publisher,
	emailService mailer.IEmailService,
	log logger.ILogger,
) IReportService {
	return &reportService{
		docStore:        docStore,
		nav:             nav,
		recon:           recon,
		syncGateway:     syncGateway,
		templateService: templateService,
		uowFactory:      uowFactory,
		eventPublisher:  eventPublisher,
		emailService:    emailService,
		logger:          log,
	}
}

// loadOwned hides other users' documents behind a plain not-found.
func (s *reportService) loadOwned(userId, id uuid.UUID) (*entity.Report, error) {
	report, err := s.docStore.Load(id)
	if err != nil {
		return nil, err
	}
	if report.OwnerId != userId {
		return nil, apperr.ErrNotFound
	}
	return report, nil
}

func (s *reportService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateReportRequest) (*dto.CreateReportResponse, error) {
	templateId := req.TemplateId
	if templateId == "" {
		templateId = registry.PRFTemplateId
	}
	template, err := s.templateService.LatestTemplate(ctx, templateId)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	report := &entity.Report{
		Id:              uuid.New(),
		OwnerId:         userId,
		TemplateId:      template.Id,
		TemplateVersion: template.Version,
		Status:          entity.ReportStatusDraft,
		Sections:        make(map[string]*entity.Section),
		LastModified:    now,
		CreatedAt:       now,
	}
	if err := s.docStore.Put(report); err != nil {
		return nil, err
	}
	if err := s.syncGateway.Persist(ctx); err != nil {
		s.logger.Warn("ReportService", "Failed to persist snapshot after create", map[string]interface{}{
			"report_id": report.Id.String(),
			"error":     err.Error(),
		})
	}

	return &dto.CreateReportResponse{
		Id:              report.Id,
		TemplateId:      report.TemplateId,
		TemplateVersion: report.TemplateVersion,
	}, nil
}

// Open returns the document, reconciling from remote state when it is
// not yet in the working set.
func (s *reportService) Open(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowReportResponse, error) {
	report, err := s.loadOwned(userId, id)
	if errors.Is(err, apperr.ErrNotFound) {
		report, err = s.reconcileById(ctx, userId, id)
	}
	if err != nil {
		return nil, err
	}
	return s.toShowResponse(report)
}

func (s *reportService) reconcileById(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*entity.Report, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	response, err := uow.ResponseRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, apperr.ErrNotFound
	}
	return s.recon.Reconcile(ctx, id, response.TemplateId)
}

func (s *reportService) toShowResponse(report *entity.Report) (*dto.ShowReportResponse, error) {
	reg, err := s.templateService.RegistryFor(report.TemplateId, report.TemplateVersion)
	if err != nil {
		return nil, err
	}

	sections := make([]dto.SectionResponse, 0, len(report.Sections))
	for _, descriptor := range reg.Describe() {
		sec, ok := report.Sections[descriptor.Key]
		if !ok {
			continue
		}
		sections = append(sections, dto.SectionResponse{
			Key:       descriptor.Key,
			Value:     sec.Value,
			Complete:  sec.Complete,
			UpdatedAt: sec.UpdatedAt,
		})
	}
	// Orphaned sections trail the registry-ordered ones.
	orphans := make([]dto.SectionResponse, 0)
	for key, sec := range report.Sections {
		if !sec.Orphaned {
			continue
		}
		orphans = append(orphans, dto.SectionResponse{
			Key:       key,
			Value:     sec.Value,
			Complete:  sec.Complete,
			Orphaned:  true,
			UpdatedAt: sec.UpdatedAt,
		})
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].Key < orphans[j].Key })
	sections = append(sections, orphans...)

	progress, err := s.nav.Progress(report.Id)
	if err != nil {
		return nil, err
	}

	return &dto.ShowReportResponse{
		Id:              report.Id,
		TemplateId:      report.TemplateId,
		TemplateVersion: report.TemplateVersion,
		Status:          string(report.Status),
		Sections:        sections,
		Progress:        progress,
		PendingSync:     report.PendingSync,
		LastModified:    report.LastModified,
	}, nil
}

func (s *reportService) List(ctx context.Context, userId uuid.UUID) ([]*dto.ReportSummaryResponse, error) {
	summaries := s.docStore.List()
	result := make([]*dto.ReportSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		if summary.OwnerId != userId {
			continue
		}
		result = append(result, &dto.ReportSummaryResponse{
			Id:               summary.Id,
			TemplateId:       summary.TemplateId,
			Status:           string(summary.Status),
			CompleteSections: summary.CompleteSections,
			TotalSections:    summary.TotalSections,
			PendingSync:      summary.PendingSync,
			LastModified:     summary.LastModified,
		})
	}
	return result, nil
}

// WriteSection commits one section atomically. A validation failure
// leaves the document untouched and flags the section invalid in the
// navigator until a later write succeeds.
func (s *reportService) WriteSection(ctx context.Context, userId uuid.UUID, req *dto.WriteSectionRequest) (*dto.WriteSectionResponse, error) {
	if _, err := s.loadOwned(userId, req.Id); err != nil {
		return nil, err
	}

	err := s.docStore.WriteSection(ctx, req.Id, req.SectionKey, req.Value)
	if err != nil {
		var validationErr *apperr.ValidationError
		if errors.As(err, &validationErr) {
			s.nav.MarkInvalid(req.Id, req.SectionKey)
		}
		return nil, err
	}
	s.nav.ClearInvalid(req.Id, req.SectionKey)

	if err := s.syncGateway.Persist(ctx); err != nil {
		s.logger.Warn("ReportService", "Failed to persist snapshot after write", map[string]interface{}{
			"report_id": req.Id.String(),
			"error":     err.Error(),
		})
	}

	report, err := s.docStore.Load(req.Id)
	if err != nil {
		return nil, err
	}
	return &dto.WriteSectionResponse{
		Id:         req.Id,
		SectionKey: req.SectionKey,
		Complete:   report.Sections[req.SectionKey].Complete,
	}, nil
}

func (s *reportService) NextSection(ctx context.Context, userId uuid.UUID, id uuid.UUID, currentKey string) (*dto.NextSectionResponse, error) {
	if _, err := s.loadOwned(userId, id); err != nil {
		return nil, err
	}
	next, err := s.nav.Next(id, currentKey)
	if errors.Is(err, navigator.ErrEnd) {
		return &dto.NextSectionResponse{End: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &dto.NextSectionResponse{SectionKey: next}, nil
}

func (s *reportService) Progress(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*navigator.Progress, error) {
	if _, err := s.loadOwned(userId, id); err != nil {
		return nil, err
	}
	return s.nav.Progress(id)
}

// Submit locks the report once every section is complete, then pushes
// it remotely. A remote failure does not unwind the submission; the
// report stays locked locally with the pendingSync marker set.
func (s *reportService) Submit(ctx context.Context, token string, userId uuid.UUID, id uuid.UUID) (*dto.SubmitReportResponse, error) {
	report, err := s.loadOwned(userId, id)
	if err != nil {
		return nil, err
	}
	if report.Status == entity.ReportStatusSubmitted {
		return nil, apperr.ErrImmutable
	}

	ok, err := s.nav.CanSubmit(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrIncomplete
	}

	if err := s.docStore.SetStatus(id, entity.ReportStatusSubmitted); err != nil {
		return nil, err
	}
	submittedAt := time.Now()

	if err := s.syncGateway.Save(ctx, token, id); err != nil {
		var syncErr *apperr.SyncError
		if !errors.As(err, &syncErr) {
			return nil, err
		}
		s.logger.Warn("ReportService", "Submitted locally, remote save pending", map[string]interface{}{
			"report_id": id.String(),
			"error":     err.Error(),
		})
	}

	s.notifySubmitted(ctx, userId, report.TemplateId, id, submittedAt)

	return &dto.SubmitReportResponse{
		Id:          id,
		Status:      string(entity.ReportStatusSubmitted),
		SubmittedAt: submittedAt,
	}, nil
}

// notifySubmitted fires the bus event and the email receipt. Both are
// best effort and never fail the submission.
func (s *reportService) notifySubmitted(ctx context.Context, userId uuid.UUID, templateId string, id uuid.UUID, submittedAt time.Time) {
	if s.eventPublisher != nil {
		evt := events.NewReportSubmitted(id.String(), userId.String(), templateId)
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("ReportService", "Failed to publish submission event", map[string]interface{}{
				"report_id": id.String(),
				"error":     err.Error(),
			})
		}
	}

	if s.emailService == nil {
		return
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil || user == nil {
		return
	}
	go func(email string) {
		if err := s.emailService.SendSubmissionReceipt(email, id.String(), submittedAt); err != nil {
			s.logger.Warn("ReportService", "Failed to send submission receipt", map[string]interface{}{
				"report_id": id.String(),
				"error":     err.Error(),
			})
		}
	}(user.Email)
}

// Migrate rebinds a stale response to the current template version and
// returns the reconciled document.
func (s *reportService) Migrate(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowReportResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	response, err := uow.ResponseRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, apperr.ErrNotFound
	}

	report, err := s.recon.Migrate(ctx, id, response.TemplateId)
	if err != nil {
		return nil, err
	}
	return s.toShowResponse(report)
}

func (s *reportService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	if _, err := s.loadOwned(userId, id); err != nil {
		return err
	}

	s.docStore.Remove(id)
	s.nav.Forget(id)
	if err := s.syncGateway.Persist(ctx); err != nil {
		s.logger.Warn("ReportService", "Failed to persist snapshot after delete", map[string]interface{}{
			"report_id": id.String(),
			"error":     err.Error(),
		})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ResponseRepository().Delete(ctx, id); err != nil {
		s.logger.Warn("ReportService", "Failed to delete remote response", map[string]interface{}{
			"report_id": id.String(),
			"error":     err.Error(),
		})
	}
	if err := uow.ReportRepository().Delete(ctx, id); err != nil {
		s.logger.Warn("ReportService", "Failed to delete remote report row", map[string]interface{}{
			"report_id": id.String(),
			"error":     err.Error(),
		})
	}
	return nil
}

func (s *reportService) SaveNote(ctx context.Context, userId uuid.UUID, req *dto.SaveNoteRequest) (*dto.NoteResponse, error) {
	if _, err := s.loadOwned(userId, req.Id); err != nil {
		return nil, err
	}

	s.docStore.SetNote(req.Id, req.Text)
	if err := s.syncGateway.Persist(ctx); err != nil {
		s.logger.Warn("ReportService", "Failed to persist snapshot after note save", map[string]interface{}{
			"report_id": req.Id.String(),
			"error":     err.Error(),
		})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ReportRepository().SaveNote(ctx, req.Id, req.Text); err != nil {
		s.logger.Warn("ReportService", "Failed to save remote note", map[string]interface{}{
			"report_id": req.Id.String(),
			"error":     err.Error(),
		})
	}

	return &dto.NoteResponse{Id: req.Id, Text: req.Text}, nil
}

func (s *reportService) ShowNote(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.NoteResponse, error) {
	if _, err := s.loadOwned(userId, id); err != nil {
		return nil, err
	}

	if text := s.docStore.Note(id); text != "" {
		return &dto.NoteResponse{Id: id, Text: text}, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	text, err := uow.ReportRepository().FindNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if text != "" {
		s.docStore.SetNote(id, text)
	}
	return &dto.NoteResponse{Id: id, Text: text}, nil
}

func (s *reportService) DeleteNote(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	if _, err := s.loadOwned(userId, id); err != nil {
		return err
	}

	s.docStore.ClearNote(id)
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ReportRepository().DeleteNote(ctx, id); err != nil {
		s.logger.Warn("ReportService", "Failed to delete remote note", map[string]interface{}{
			"report_id": id.String(),
			"error":     err.Error(),
		})
	}
	return nil
}
