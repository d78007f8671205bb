package gateway

import (
	"context"
	"sort"
	"time"

	"prf-forms-be/internal/apperr"
	"prf-forms-be/internal/entity"
	"prf-forms-be/internal/pkg/logger"
	"prf-forms-be/internal/repository/memory"
	"prf-forms-be/internal/repository/specification"
	"prf-forms-be/internal/repository/unitofwork"
	"prf-forms-be/internal/store"

	"github.com/google/uuid"
)

// SyncGateway moves committed documents to the remote store. Local
// durability always comes first: the working-set snapshot is written
// before any remote round trip, and a remote failure never blocks the
// user, it only leaves the pendingSync marker for a later resync.
type SyncGateway struct {
	store     *store.DocumentStore
	factory   unitofwork.RepositoryFactory
	snapshots *SnapshotStore
	sessions  *memory.SessionRepository
	logger    logger.ILogger
	timeout   time.Duration
}

func NewSyncGateway(
	docStore *store.DocumentStore,
	factory unitofwork.RepositoryFactory,
	snapshots *SnapshotStore,
	sessions *memory.SessionRepository,
	log logger.ILogger,
	timeout time.Duration,
) *SyncGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SyncGateway{
		store:     docStore,
		factory:   factory,
		snapshots: snapshots,
		sessions:  sessions,
		logger:    log,
		timeout:   timeout,
	}
}

func (g *SyncGateway) requireSession(token string) (*entity.Session, error) {
	session, ok := g.sessions.Get(token)
	if !ok {
		return nil, apperr.ErrUnauthenticated
	}
	return session, nil
}

// Persist writes the current working-set snapshot to local storage.
// Called on every commit so a reload recovers the exact working set.
func (g *SyncGateway) Persist(ctx context.Context) error {
	blob, err := g.store.Snapshot()
	if err != nil {
		return err
	}
	return g.snapshots.Write(ctx, g.store.User(), blob)
}

// RestoreLocal rebuilds the working set from the last snapshot. A
// missing snapshot is not an error; the session just starts empty.
func (g *SyncGateway) RestoreLocal(ctx context.Context, userId uuid.UUID) error {
	blob, err := g.snapshots.Read(ctx, userId)
	if err == apperr.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	return g.store.Restore(blob)
}

// DropLocal removes the persisted snapshot, called on logout after the
// store is cleared.
func (g *SyncGateway) DropLocal(ctx context.Context, userId uuid.UUID) error {
	return g.snapshots.Delete(ctx, userId)
}

// Save commits a document remotely. The snapshot write must succeed
// first. The remote save runs under a bounded timeout; on failure the
// document keeps its pendingSync marker and a SyncError is returned so
// the caller can surface a non-blocking warning.
func (g *SyncGateway) Save(ctx context.Context, token string, documentId uuid.UUID) error {
	session, err := g.requireSession(token)
	if err != nil {
		return err
	}

	report, err := g.store.Load(documentId)
	if err != nil {
		return err
	}
	if report.OwnerId != session.UserId {
		return apperr.ErrNotFound
	}

	if err := g.Persist(ctx); err != nil {
		return err
	}

	if err := g.saveRemote(ctx, report); err != nil {
		g.logger.Warn("SyncGateway", "Remote save failed, document stays pending", map[string]interface{}{
			"document_id": documentId.String(),
			"error":       err.Error(),
		})
		return &apperr.SyncError{DocumentId: documentId.String(), Cause: err}
	}

	status := entity.ReportStatusSynced
	if report.Status == entity.ReportStatusSubmitted {
		status = entity.ReportStatusSubmitted
	}
	if err := g.store.MarkSynced(documentId, status); err != nil {
		return err
	}
	// Persist again so the cleared marker survives a reload.
	return g.Persist(ctx)
}

func (g *SyncGateway) saveRemote(ctx context.Context, report *entity.Report) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	uow := g.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	existing, err := uow.ResponseRepository().FindOne(ctx, specification.ByID{ID: report.Id})
	if err != nil {
		uow.Rollback()
		return err
	}

	response := reportToResponse(report)
	if existing == nil {
		err = uow.ResponseRepository().Create(ctx, response)
	} else {
		response.CreatedAt = existing.CreatedAt
		err = uow.ResponseRepository().Update(ctx, response)
	}
	if err != nil {
		uow.Rollback()
		return err
	}

	if err := g.saveReportRow(ctx, uow, report); err != nil {
		uow.Rollback()
		return err
	}
	return uow.Commit()
}

// saveReportRow upserts the unified report row in the same transaction
// as the raw response. ListRemote serves listings from these rows.
func (g *SyncGateway) saveReportRow(ctx context.Context, uow unitofwork.UnitOfWork, report *entity.Report) error {
	row := report.Clone()
	row.Status = entity.ReportStatusSynced
	if report.Status == entity.ReportStatusSubmitted {
		row.Status = entity.ReportStatusSubmitted
	}
	row.PendingSync = false

	existing, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: report.Id})
	if err != nil {
		return err
	}
	if existing == nil {
		return uow.ReportRepository().Create(ctx, row)
	}
	row.CreatedAt = existing.CreatedAt
	return uow.ReportRepository().Update(ctx, row)
}

// LoadRemote fetches the stored response for one owned document. Like
// every remote read it requires a verified session.
func (g *SyncGateway) LoadRemote(ctx context.Context, token string, documentId uuid.UUID) (*entity.FormResponse, error) {
	session, err := g.requireSession(token)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	uow := g.factory.NewUnitOfWork(ctx)
	response, err := uow.ResponseRepository().FindOne(ctx,
		specification.ByID{ID: documentId},
		specification.OwnedBy{UserID: session.UserId},
	)
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, apperr.ErrNotFound
	}
	return response, nil
}

// ListRemote returns the caller's stored report rows, newest first.
func (g *SyncGateway) ListRemote(ctx context.Context, token string) ([]*entity.Report, error) {
	session, err := g.requireSession(token)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	uow := g.factory.NewUnitOfWork(ctx)
	return uow.ReportRepository().FindAll(ctx,
		specification.OwnedBy{UserID: session.UserId},
		specification.OrderBy{Field: "last_modified", Desc: true},
	)
}

// ResyncPending retries every document still carrying the pendingSync
// marker, oldest first. A document that fails again keeps its marker;
// the rest still get their turn.
func (g *SyncGateway) ResyncPending(ctx context.Context, token string) (synced int, failed int, err error) {
	if _, err := g.requireSession(token); err != nil {
		return 0, 0, err
	}

	pending := make([]store.Summary, 0)
	for _, summary := range g.store.List() {
		if summary.PendingSync {
			pending = append(pending, summary)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].LastModified.Before(pending[j].LastModified)
	})

	for _, summary := range pending {
		if saveErr := g.Save(ctx, token, summary.Id); saveErr != nil {
			failed++
			continue
		}
		synced++
	}

	if len(pending) > 0 {
		g.logger.Info("SyncGateway", "Resync pass finished", map[string]interface{}{
			"synced": synced,
			"failed": failed,
		})
	}
	return synced, failed, nil
}

func reportToResponse(report *entity.Report) *entity.FormResponse {
	sections := make(map[string]map[string]interface{}, len(report.Sections))
	for key, sec := range report.Sections {
		sections[key] = sec.Value
	}

	status := entity.ResponseStatusInProgress
	if report.Status == entity.ReportStatusSubmitted {
		status = entity.ResponseStatusSubmitted
	}

	return &entity.FormResponse{
		Id:              report.Id,
		TemplateId:      report.TemplateId,
		TemplateVersion: report.TemplateVersion,
		OwnerId:         report.OwnerId,
		Status:          status,
		Sections:        sections,
		UpdatedAt:       report.LastModified,
		CreatedAt:       report.CreatedAt,
	}
}
