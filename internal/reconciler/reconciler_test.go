package reconciler

import (
	"context"
	"testing"
	"time"

	"prf-forms-be/internal/apperr"
	"prf-forms-be/internal/entity"
	"prf-forms-be/internal/registry"
	"prf-forms-be/internal/repository/contract"
	"prf-forms-be/internal/repository/specification"
	"prf-forms-be/internal/repository/unitofwork"
	"prf-forms-be/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type fakeResponseRepo struct {
	responses map[uuid.UUID]*entity.FormResponse
	updated   []*entity.FormResponse
}

func newFakeResponseRepo() *fakeResponseRepo {
	return &fakeResponseRepo{responses: make(map[uuid.UUID]*entity.FormResponse)}
}

func (r *fakeResponseRepo) Create(ctx context.Context, response *entity.FormResponse) error {
	r.responses[response.Id] = response
	return nil
}

func (r *fakeResponseRepo) Update(ctx context.Context, response *entity.FormResponse) error {
	r.responses[response.Id] = response
	r.updated = append(r.updated, response)
	return nil
}

func (r *fakeResponseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.responses, id)
	return nil
}

func (r *fakeResponseRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FormResponse, error) {
	for _, spec := range specs {
		if byId, ok := spec.(specification.ByID); ok {
			return r.responses[byId.ID], nil
		}
	}
	return nil, nil
}

func (r *fakeResponseRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FormResponse, error) {
	out := make([]*entity.FormResponse, 0, len(r.responses))
	for _, response := range r.responses {
		out = append(out, response)
	}
	return out, nil
}

type fakeReportRepo struct {
	reports map[uuid.UUID]*entity.Report
	updated []*entity.Report
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[uuid.UUID]*entity.Report)}
}

func (r *fakeReportRepo) Create(ctx context.Context, report *entity.Report) error {
	r.reports[report.Id] = report
	return nil
}

func (r *fakeReportRepo) Update(ctx context.Context, report *entity.Report) error {
	r.reports[report.Id] = report
	r.updated = append(r.updated, report)
	return nil
}

func (r *fakeReportRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.reports, id)
	return nil
}

func (r *fakeReportRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Report, error) {
	for _, spec := range specs {
		if byId, ok := spec.(specification.ByID); ok {
			return r.reports[byId.ID], nil
		}
	}
	return nil, nil
}

func (r *fakeReportRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Report, error) {
	out := make([]*entity.Report, 0, len(r.reports))
	for _, report := range r.reports {
		out = append(out, report)
	}
	return out, nil
}

func (r *fakeReportRepo) SaveNote(ctx context.Context, reportId uuid.UUID, text string) error {
	return nil
}

func (r *fakeReportRepo) FindNote(ctx context.Context, reportId uuid.UUID) (string, error) {
	return "", nil
}

func (r *fakeReportRepo) DeleteNote(ctx context.Context, reportId uuid.UUID) error { return nil }

type fakeUow struct {
	responses *fakeResponseRepo
	reports   *fakeReportRepo
}

func (u *fakeUow) Begin(ctx context.Context) error                 { return nil }
func (u *fakeUow) Commit() error                                   { return nil }
func (u *fakeUow) Rollback() error                                 { return nil }
func (u *fakeUow) UserRepository() contract.UserRepository         { return nil }
func (u *fakeUow) ReportRepository() contract.ReportRepository     { return u.reports }
func (u *fakeUow) TemplateRepository() contract.TemplateRepository { return nil }
func (u *fakeUow) ResponseRepository() contract.ResponseRepository { return u.responses }

type fakeFactory struct {
	uow *fakeUow
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

type fakeTemplates struct {
	all []*entity.Template
}

func (s *fakeTemplates) Template(ctx context.Context, id string, version int) (*entity.Template, error) {
	for _, t := range s.all {
		if t.Id == id && t.Version == version {
			return t, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (s *fakeTemplates) LatestTemplate(ctx context.Context, id string) (*entity.Template, error) {
	var latest *entity.Template
	for _, t := range s.all {
		if t.Id != id {
			continue
		}
		if latest == nil || t.Version > latest.Version {
			latest = t
		}
	}
	if latest == nil {
		return nil, apperr.ErrNotFound
	}
	return latest, nil
}

// RegistryFor satisfies store.RegistryResolver against the same
// template set the reconciler sees.
func (s *fakeTemplates) RegistryFor(templateId string, version int) (*registry.Registry, error) {
	t, err := s.Template(context.Background(), templateId, version)
	if err != nil {
		return nil, err
	}
	return t.Registry(), nil
}

func triageTemplate(version int, sections ...registry.Descriptor) *entity.Template {
	return &entity.Template{
		Id:        "triage",
		Version:   version,
		Name:      "Triage",
		Sections:  sections,
		CreatedAt: time.Now(),
	}
}

func categorySection() registry.Descriptor {
	return registry.Descriptor{
		Key: "triage-category", Label: "Triage Category", Order: 1,
		Schema: registry.Schema{Fields: []registry.FieldRule{
			{Name: "category", Kind: registry.KindString, Required: true, Rules: "oneof=red yellow green black"},
		}},
	}
}

func complaintSection() registry.Descriptor {
	return registry.Descriptor{
		Key: "chief-complaint", Label: "Chief Complaint", Order: 2,
		Schema: registry.Schema{Fields: []registry.FieldRule{
			{Name: "complaint", Kind: registry.KindText, Required: true},
		}},
	}
}

type harness struct {
	reconciler *Reconciler
	store      *store.DocumentStore
	responses  *fakeResponseRepo
	reports    *fakeReportRepo
	templates  *fakeTemplates
}

func newHarness(t *testing.T, templates ...*entity.Template) *harness {
	t.Helper()
	src := &fakeTemplates{all: templates}
	repo := newFakeResponseRepo()
	reportRepo := newFakeReportRepo()
	factory := &fakeFactory{uow: &fakeUow{responses: repo, reports: reportRepo}}
	docStore := store.NewDocumentStore(src, nil, nil)
	return &harness{
		reconciler: New(factory, docStore, src, nopLogger{}),
		store:      docStore,
		responses:  repo,
		reports:    reportRepo,
		templates:  src,
	}
}

func TestReconcileSynthesizesEmptyDraft(t *testing.T) {
	h := newHarness(t, triageTemplate(1, categorySection()))
	owner := uuid.New()
	h.store.SetUser(owner)
	documentId := uuid.New()

	report, err := h.reconciler.Reconcile(context.Background(), documentId, "triage")
	assert.NoError(t, err)
	assert.Equal(t, documentId, report.Id)
	assert.Equal(t, owner, report.OwnerId)
	assert.Equal(t, 1, report.TemplateVersion)
	assert.Equal(t, entity.ReportStatusDraft, report.Status)
	assert.Empty(t, report.Sections)

	loaded, err := h.store.Load(documentId)
	assert.NoError(t, err)
	assert.Equal(t, report.Id, loaded.Id)
}

func TestReconcileMergesStoredResponse(t *testing.T) {
	h := newHarness(t, triageTemplate(1, categorySection(), complaintSection()))
	documentId := uuid.New()
	owner := uuid.New()
	updatedAt := time.Now().Add(-time.Minute)
	h.responses.responses[documentId] = &entity.FormResponse{
		Id:              documentId,
		TemplateId:      "triage",
		TemplateVersion: 1,
		OwnerId:         owner,
		Status:          entity.ResponseStatusInProgress,
		Sections: map[string]map[string]interface{}{
			"triage-category": {"category": "yellow"},
		},
		UpdatedAt: updatedAt,
		CreatedAt: updatedAt,
	}

	report, err := h.reconciler.Reconcile(context.Background(), documentId, "triage")
	assert.NoError(t, err)
	assert.Equal(t, entity.ReportStatusSynced, report.Status)
	assert.Equal(t, "yellow", report.Sections["triage-category"].Value["category"])
	assert.True(t, report.Sections["triage-category"].Complete)
	assert.False(t, report.PendingSync)
}

func TestReconcileIsIdempotent(t *testing.T) {
	h := newHarness(t, triageTemplate(1, categorySection()))
	documentId := uuid.New()
	updatedAt := time.Now().Add(-time.Minute)
	h.responses.responses[documentId] = &entity.FormResponse{
		Id:              documentId,
		TemplateId:      "triage",
		TemplateVersion: 1,
		OwnerId:         uuid.New(),
		Status:          entity.ResponseStatusInProgress,
		Sections: map[string]map[string]interface{}{
			"triage-category": {"category": "red"},
		},
		UpdatedAt: updatedAt,
		CreatedAt: updatedAt,
	}

	first, err := h.reconciler.Reconcile(context.Background(), documentId, "triage")
	assert.NoError(t, err)
	second, err := h.reconciler.Reconcile(context.Background(), documentId, "triage")
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestReconcileMapsSubmittedStatus(t *testing.T) {
	h := newHarness(t, triageTemplate(1, categorySection()))
	documentId := uuid.New()
	h.responses.responses[documentId] = &entity.FormResponse{
		Id:              documentId,
		TemplateId:      "triage",
		TemplateVersion: 1,
		OwnerId:         uuid.New(),
		Status:          entity.ResponseStatusSubmitted,
		Sections: map[string]map[string]interface{}{
			"triage-category": {"category": "green"},
		},
		UpdatedAt: time.Now(),
		CreatedAt: time.Now(),
	}

	report, err := h.reconciler.Reconcile(context.Background(), documentId, "triage")
	assert.NoError(t, err)
	assert.Equal(t, entity.ReportStatusSubmitted, report.Status)
}

func TestReconcileRejectsStaleTemplateBinding(t *testing.T) {
	h := newHarness(t,
		triageTemplate(1, categorySection(), complaintSection()),
		triageTemplate(2, categorySection()),
	)
	documentId := uuid.New()
	h.responses.responses[documentId] = &entity.FormResponse{
		Id:              documentId,
		TemplateId:      "triage",
		TemplateVersion: 1,
		OwnerId:         uuid.New(),
		Status:          entity.ResponseStatusInProgress,
		UpdatedAt:       time.Now(),
		CreatedAt:       time.Now(),
	}

	_, err := h.reconciler.Reconcile(context.Background(), documentId, "triage")
	var stale *apperr.StaleTemplateError
	assert.ErrorAs(t, err, &stale)
	assert.Equal(t, "triage", stale.TemplateId)
	assert.Equal(t, 1, stale.BoundVersion)
	assert.Equal(t, 2, stale.CurrentVersion)
}

func TestReconcileMarksRetiredSectionsOrphaned(t *testing.T) {
	h := newHarness(t, triageTemplate(1, categorySection()))
	documentId := uuid.New()
	h.responses.responses[documentId] = &entity.FormResponse{
		Id:              documentId,
		TemplateId:      "triage",
		TemplateVersion: 1,
		OwnerId:         uuid.New(),
		Status:          entity.ResponseStatusInProgress,
		Sections: map[string]map[string]interface{}{
			"triage-category": {"category": "red"},
			"legacy-section":  {"freeform": "still here"},
		},
		UpdatedAt: time.Now(),
		CreatedAt: time.Now(),
	}

	report, err := h.reconciler.Reconcile(context.Background(), documentId, "triage")
	assert.NoError(t, err)
	assert.True(t, report.Sections["legacy-section"].Orphaned)
	assert.Equal(t, "still here", report.Sections["legacy-section"].Value["freeform"])
	assert.False(t, report.Sections["triage-category"].Orphaned)
}

func TestMigrateRebindsToCurrentVersion(t *testing.T) {
	h := newHarness(t,
		triageTemplate(1, categorySection(), complaintSection()),
		triageTemplate(2, categorySection()),
	)
	documentId := uuid.New()
	h.responses.responses[documentId] = &entity.FormResponse{
		Id:              documentId,
		TemplateId:      "triage",
		TemplateVersion: 1,
		OwnerId:         uuid.New(),
		Status:          entity.ResponseStatusInProgress,
		Sections: map[string]map[string]interface{}{
			"triage-category": {"category": "red"},
			"chief-complaint": {"complaint": "chest pain"},
		},
		UpdatedAt: time.Now(),
		CreatedAt: time.Now(),
	}
	h.reports.reports[documentId] = &entity.Report{
		Id:              documentId,
		TemplateId:      "triage",
		TemplateVersion: 1,
		Status:          entity.ReportStatusSynced,
	}

	report, err := h.reconciler.Migrate(context.Background(), documentId, "triage")
	assert.NoError(t, err)
	assert.Equal(t, 2, report.TemplateVersion)

	// Values whose section was removed in v2 survive as orphans.
	assert.True(t, report.Sections["chief-complaint"].Orphaned)
	assert.Equal(t, "chest pain", report.Sections["chief-complaint"].Value["complaint"])

	assert.Len(t, h.responses.updated, 1)
	assert.Equal(t, 2, h.responses.updated[0].TemplateVersion)

	// The stored report row follows the response to the new version.
	assert.Equal(t, 2, h.reports.reports[documentId].TemplateVersion)
}

func TestMigrateUnknownDocument(t *testing.T) {
	h := newHarness(t, triageTemplate(1, categorySection()))
	_, err := h.reconciler.Migrate(context.Background(), uuid.New(), "triage")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
