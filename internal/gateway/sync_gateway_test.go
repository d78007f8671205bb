package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"prf-forms-be/internal/apperr"
	"prf-forms-be/internal/entity"
	"prf-forms-be/internal/registry"
	"prf-forms-be/internal/repository/contract"
	"prf-forms-be/internal/repository/memory"
	"prf-forms-be/internal/repository/specification"
	"prf-forms-be/internal/repository/unitofwork"
	"prf-forms-be/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type prfResolver struct{}

func (prfResolver) RegistryFor(templateId string, version int) (*registry.Registry, error) {
	return registry.PRF(), nil
}

// flakyResponseRepo fails every write while failing is set, recording
// the order of successful saves.
type flakyResponseRepo struct {
	failing   bool
	responses map[uuid.UUID]*entity.FormResponse
	saveOrder []uuid.UUID
}

func newFlakyResponseRepo() *flakyResponseRepo {
	return &flakyResponseRepo{responses: make(map[uuid.UUID]*entity.FormResponse)}
}

func (r *flakyResponseRepo) Create(ctx context.Context, response *entity.FormResponse) error {
	if r.failing {
		return errors.New("connection refused")
	}
	r.responses[response.Id] = response
	r.saveOrder = append(r.saveOrder, response.Id)
	return nil
}

func (r *flakyResponseRepo) Update(ctx context.Context, response *entity.FormResponse) error {
	return r.Create(ctx, response)
}

func (r *flakyResponseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.responses, id)
	return nil
}

func matches(response *entity.FormResponse, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if response.Id != s.ID {
				return false
			}
		case specification.OwnedBy:
			if response.OwnerId != s.UserID {
				return false
			}
		}
	}
	return true
}

func (r *flakyResponseRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FormResponse, error) {
	for _, response := range r.responses {
		if matches(response, specs) {
			return response, nil
		}
	}
	return nil, nil
}

func (r *flakyResponseRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FormResponse, error) {
	out := make([]*entity.FormResponse, 0, len(r.responses))
	for _, response := range r.responses {
		if matches(response, specs) {
			out = append(out, response)
		}
	}
	return out, nil
}

type fakeReportRepo struct {
	reports map[uuid.UUID]*entity.Report
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[uuid.UUID]*entity.Report)}
}

func reportMatches(report *entity.Report, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if report.Id != s.ID {
				return false
			}
		case specification.OwnedBy:
			if report.OwnerId != s.UserID {
				return false
			}
		}
	}
	return true
}

func (r *fakeReportRepo) Create(ctx context.Context, report *entity.Report) error {
	r.reports[report.Id] = report
	return nil
}

func (r *fakeReportRepo) Update(ctx context.Context, report *entity.Report) error {
	r.reports[report.Id] = report
	return nil
}

func (r *fakeReportRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.reports, id)
	return nil
}

func (r *fakeReportRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Report, error) {
	for _, report := range r.reports {
		if reportMatches(report, specs) {
			return report, nil
		}
	}
	return nil, nil
}

func (r *fakeReportRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Report, error) {
	out := make([]*entity.Report, 0, len(r.reports))
	for _, report := range r.reports {
		if reportMatches(report, specs) {
			out = append(out, report)
		}
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
	responses *flakyResponseRepo
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

type harness struct {
	gateway   *SyncGateway
	store     *store.DocumentStore
	responses *flakyResponseRepo
	reports   *fakeReportRepo
	sessions  *memory.SessionRepository
	redis     *miniredis.Miniredis
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := newFlakyResponseRepo()
	reportRepo := newFakeReportRepo()
	docStore := store.NewDocumentStore(prfResolver{}, nil, nil)
	sessions := memory.NewSessionRepository()
	snapshots := NewSnapshotStore(client, time.Hour)
	g := NewSyncGateway(docStore, &fakeFactory{uow: &fakeUow{responses: repo, reports: reportRepo}}, snapshots, sessions, nopLogger{}, time.Second)

	return &harness{
		gateway:   g,
		store:     docStore,
		responses: repo,
		reports:   reportRepo,
		sessions:  sessions,
		redis:     mr,
	}
}

func (h *harness) login(userId uuid.UUID) string {
	token := "token-" + userId.String()
	h.sessions.Save(&entity.Session{
		Token:     token,
		UserId:    userId,
		Role:      entity.UserRoleMedic,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	return token
}

func (h *harness) putDraft(t *testing.T, owner uuid.UUID, lastModified time.Time) uuid.UUID {
	t.Helper()
	report := &entity.Report{
		Id:              uuid.New(),
		OwnerId:         owner,
		TemplateId:      registry.PRFTemplateId,
		TemplateVersion: registry.PRFTemplateVersion,
		Status:          entity.ReportStatusDraft,
		Sections: map[string]*entity.Section{
			"notes": {Value: map[string]interface{}{"text": "draft"}, UpdatedAt: lastModified},
		},
		LastModified: lastModified,
		PendingSync:  true,
		CreatedAt:    lastModified,
	}
	assert.NoError(t, h.store.Put(report))
	return report.Id
}

func TestSaveRequiresSession(t *testing.T) {
	h := newHarness(t)
	err := h.gateway.Save(context.Background(), "no-such-token", uuid.New())
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestSaveHidesOtherOwnersDocuments(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	token := h.login(owner)
	other := h.putDraft(t, uuid.New(), time.Now())

	err := h.gateway.Save(context.Background(), token, other)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSaveSyncsAndClearsPendingMarker(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	h.store.SetUser(owner)
	token := h.login(owner)
	documentId := h.putDraft(t, owner, time.Now())

	assert.NoError(t, h.gateway.Save(context.Background(), token, documentId))

	loaded, _ := h.store.Load(documentId)
	assert.False(t, loaded.PendingSync)
	assert.Equal(t, entity.ReportStatusSynced, loaded.Status)

	saved := h.responses.responses[documentId]
	assert.NotNil(t, saved)
	assert.Equal(t, entity.ResponseStatusInProgress, saved.Status)
	assert.Equal(t, "draft", saved.Sections["notes"]["text"])

	row := h.reports.reports[documentId]
	assert.NotNil(t, row)
	assert.Equal(t, entity.ReportStatusSynced, row.Status)
	assert.False(t, row.PendingSync)
}

func TestSaveSubmittedKeepsSubmittedStatus(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	h.store.SetUser(owner)
	token := h.login(owner)
	documentId := h.putDraft(t, owner, time.Now())
	assert.NoError(t, h.store.SetStatus(documentId, entity.ReportStatusSubmitted))

	assert.NoError(t, h.gateway.Save(context.Background(), token, documentId))

	loaded, _ := h.store.Load(documentId)
	assert.Equal(t, entity.ReportStatusSubmitted, loaded.Status)
	assert.Equal(t, entity.ResponseStatusSubmitted, h.responses.responses[documentId].Status)
	assert.Equal(t, entity.ReportStatusSubmitted, h.reports.reports[documentId].Status)
}

func TestSaveRemoteFailureKeepsPendingAndSnapshot(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	h.store.SetUser(owner)
	token := h.login(owner)
	documentId := h.putDraft(t, owner, time.Now())
	h.responses.failing = true

	err := h.gateway.Save(context.Background(), token, documentId)
	var syncErr *apperr.SyncError
	assert.ErrorAs(t, err, &syncErr)
	assert.Equal(t, documentId.String(), syncErr.DocumentId)

	// The document stays pending and the local snapshot was still written.
	loaded, _ := h.store.Load(documentId)
	assert.True(t, loaded.PendingSync)
	assert.True(t, h.redis.Exists(snapshotKey(owner)))
}

func TestResyncPendingOldestFirst(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	h.store.SetUser(owner)
	token := h.login(owner)

	oldest := h.putDraft(t, owner, time.Now().Add(-2*time.Hour))
	middle := h.putDraft(t, owner, time.Now().Add(-time.Hour))
	newest := h.putDraft(t, owner, time.Now())

	synced, failed, err := h.gateway.ResyncPending(context.Background(), token)
	assert.NoError(t, err)
	assert.Equal(t, 3, synced)
	assert.Equal(t, 0, failed)
	assert.Equal(t, []uuid.UUID{oldest, middle, newest}, h.responses.saveOrder)

	for _, summary := range h.store.List() {
		assert.False(t, summary.PendingSync)
	}
}

func TestResyncPendingContinuesPastFailures(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	h.store.SetUser(owner)
	token := h.login(owner)

	h.putDraft(t, owner, time.Now().Add(-time.Hour))
	h.putDraft(t, owner, time.Now())
	h.responses.failing = true

	synced, failed, err := h.gateway.ResyncPending(context.Background(), token)
	assert.NoError(t, err)
	assert.Equal(t, 0, synced)
	assert.Equal(t, 2, failed)

	for _, summary := range h.store.List() {
		assert.True(t, summary.PendingSync)
	}
}

func TestRemoteReadsRequireSession(t *testing.T) {
	h := newHarness(t)

	_, err := h.gateway.ListRemote(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = h.gateway.LoadRemote(context.Background(), "no-such-token", uuid.New())
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestRemoteReadsScopedToOwner(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	stranger := uuid.New()
	token := h.login(owner)

	mine := &entity.FormResponse{Id: uuid.New(), OwnerId: owner, TemplateId: registry.PRFTemplateId, TemplateVersion: 1}
	theirs := &entity.FormResponse{Id: uuid.New(), OwnerId: stranger, TemplateId: registry.PRFTemplateId, TemplateVersion: 1}
	h.responses.responses[mine.Id] = mine
	h.responses.responses[theirs.Id] = theirs
	h.reports.reports[mine.Id] = &entity.Report{Id: mine.Id, OwnerId: owner, TemplateId: registry.PRFTemplateId, TemplateVersion: 1}
	h.reports.reports[theirs.Id] = &entity.Report{Id: theirs.Id, OwnerId: stranger, TemplateId: registry.PRFTemplateId, TemplateVersion: 1}

	listed, err := h.gateway.ListRemote(context.Background(), token)
	assert.NoError(t, err)
	assert.Len(t, listed, 1)
	assert.Equal(t, mine.Id, listed[0].Id)

	loaded, err := h.gateway.LoadRemote(context.Background(), token, mine.Id)
	assert.NoError(t, err)
	assert.Equal(t, mine.Id, loaded.Id)

	_, err = h.gateway.LoadRemote(context.Background(), token, theirs.Id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPersistRestoreRoundTrip(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	h.store.SetUser(owner)
	documentId := h.putDraft(t, owner, time.Now())
	h.store.SetNote(documentId, "call ER ahead")

	assert.NoError(t, h.gateway.Persist(context.Background()))

	h.store.ClearAll()
	assert.NoError(t, h.gateway.RestoreLocal(context.Background(), owner))

	assert.Equal(t, owner, h.store.User())
	loaded, err := h.store.Load(documentId)
	assert.NoError(t, err)
	assert.Equal(t, "draft", loaded.Sections["notes"].Value["text"])
	assert.Equal(t, "call ER ahead", h.store.Note(documentId))
}

func TestRestoreLocalWithoutSnapshotIsNoop(t *testing.T) {
	h := newHarness(t)
	assert.NoError(t, h.gateway.RestoreLocal(context.Background(), uuid.New()))
	assert.Empty(t, h.store.List())
}

func TestDropLocalRemovesSnapshot(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	h.store.SetUser(owner)
	h.putDraft(t, owner, time.Now())
	assert.NoError(t, h.gateway.Persist(context.Background()))
	assert.True(t, h.redis.Exists(snapshotKey(owner)))

	assert.NoError(t, h.gateway.DropLocal(context.Background(), owner))
	assert.False(t, h.redis.Exists(snapshotKey(owner)))
}
