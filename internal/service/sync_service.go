package service

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"prf-forms-be/internal/dto"
	"prf-forms-be/internal/gateway"
	"prf-forms-be/internal/store"
	"prf-forms-be/internal/websocket"
	"prf-forms-be/pkg/events"
	pktNats "prf-forms-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type ISyncService interface {
	Save(ctx context.Context, token string, userId uuid.UUID, id uuid.UUID) (*dto.SaveReportResponse, error)
	Resync(ctx context.Context, token string) (*dto.ResyncResponse, error)
	ListRemote(ctx context.Context, token string) ([]*dto.RemoteReportResponse, error)
	ShowRemote(ctx context.Context, token string, id uuid.UUID) (*dto.RemoteReportResponse, error)
	Consume(ctx context.Context) error
}

// syncService is the background flusher. It consumes section-written
// events off the in-process bus and debounces them into snapshot
// writes, so a burst of edits costs one local write instead of many.
type syncService struct {
	bus            IPublisherService
	syncGateway    *gateway.SyncGateway
	docStore       *store.DocumentStore
	eventPublisher *pktNats.Publisher
	hub            *websocket.Hub
	debounce       time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewSyncService(
	bus IPublisherService,
	syncGateway *gateway.SyncGateway,
	docStore *store.DocumentStore,
	eventPublisher *pktNats.Publisher,
	hub *websocket.Hub,
	debounce time.Duration,
) ISyncService {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &syncService{
		bus:            bus,
		syncGateway:    syncGateway,
		docStore:       docStore,
		eventPublisher: eventPublisher,
		hub:            hub,
		debounce:       debounce,
	}
}

func (s *syncService) Save(ctx context.Context, token string, userId uuid.UUID, id uuid.UUID) (*dto.SaveReportResponse, error) {
	if err := s.syncGateway.Save(ctx, token, id); err != nil {
		return nil, err
	}

	report, err := s.docStore.Load(id)
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		evt := events.NewReportSynced(id.String(), userId.String())
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish synced event for %s: %v", id, err)
		}
	}
	if s.hub != nil {
		s.hub.Send(userId, websocket.ProgressUpdate{
			Event:    websocket.EventReportSynced,
			ReportId: id.String(),
		})
	}

	return &dto.SaveReportResponse{
		Id:          id,
		Status:      string(report.Status),
		PendingSync: report.PendingSync,
	}, nil
}

func (s *syncService) Resync(ctx context.Context, token string) (*dto.ResyncResponse, error) {
	synced, failed, err := s.syncGateway.ResyncPending(ctx, token)
	if err != nil {
		return nil, err
	}
	return &dto.ResyncResponse{Synced: synced, Failed: failed}, nil
}

// ListRemote exposes the server-side copies of the caller's documents,
// useful for checking what a resync would reconcile against.
func (s *syncService) ListRemote(ctx context.Context, token string) ([]*dto.RemoteReportResponse, error) {
	reports, err := s.syncGateway.ListRemote(ctx, token)
	if err != nil {
		return nil, err
	}
	result := make([]*dto.RemoteReportResponse, 0, len(reports))
	for _, report := range reports {
		result = append(result, &dto.RemoteReportResponse{
			Id:              report.Id,
			TemplateId:      report.TemplateId,
			TemplateVersion: report.TemplateVersion,
			Status:          string(report.Status),
			UpdatedAt:       report.LastModified,
		})
	}
	return result, nil
}

func (s *syncService) ShowRemote(ctx context.Context, token string, id uuid.UUID) (*dto.RemoteReportResponse, error) {
	response, err := s.syncGateway.LoadRemote(ctx, token, id)
	if err != nil {
		return nil, err
	}
	return &dto.RemoteReportResponse{
		Id:              response.Id,
		TemplateId:      response.TemplateId,
		TemplateVersion: response.TemplateVersion,
		Status:          string(response.Status),
		Sections:        response.Sections,
		UpdatedAt:       response.UpdatedAt,
	}, nil
}

func (s *syncService) Consume(ctx context.Context) error {
	messages, err := s.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *syncService) processMessage(ctx context.Context, msg *message.Message) {
	var event store.SectionWrittenEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		log.Printf("[ERROR] Failed to unmarshal section event: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if s.hub != nil {
		if report, err := s.docStore.Load(event.ReportId); err == nil {
			s.hub.Send(report.OwnerId, websocket.ProgressUpdate{
				Event:      websocket.EventSectionWritten,
				ReportId:   event.ReportId.String(),
				SectionKey: event.SectionKey,
				Complete:   event.Complete,
			})
		}
	}

	s.scheduleFlush(ctx)
	msg.Ack()
}

// scheduleFlush resets the debounce timer. The snapshot is written once
// the burst of writes goes quiet.
func (s *syncService) scheduleFlush(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		if err := s.syncGateway.Persist(ctx); err != nil {
			log.Printf("[ERROR] Debounced snapshot flush failed: %v", err)
		}
	})
}
