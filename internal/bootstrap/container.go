package bootstrap

import (
	"context"
	"log"

	"prf-forms-be/internal/config"
	"prf-forms-be/internal/controller"
	"prf-forms-be/internal/gateway"
	"prf-forms-be/internal/navigator"
	"prf-forms-be/internal/pkg/logger"
	"prf-forms-be/internal/pkg/mailer"
	"prf-forms-be/internal/reconciler"
	"prf-forms-be/internal/repository/memory"
	"prf-forms-be/internal/repository/unitofwork"
	"prf-forms-be/internal/service"
	"prf-forms-be/internal/store"
	"prf-forms-be/internal/websocket"
	"prf-forms-be/pkg/events"

	pktNats "prf-forms-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Topic for committed section writes on the in-process bus.
const sectionWrittenTopic = "SECTION_WRITTEN"

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	ReportController   controller.IReportController
	TemplateController controller.ITemplateController
	SyncController     controller.ISyncController

	// Background Services (Exposed for main.go to run)
	SyncService service.ISyncService

	// WebSockets
	WebSocketHub *websocket.Hub

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// In-Memory Session Storage
	sessionRepo := memory.NewSessionRepository()

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/progress.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Document Engine
	templateService := service.NewTemplateService(uowFactory)
	publisherService := service.NewPublisherService(sectionWrittenTopic, pubSub)

	docStore := store.NewDocumentStore(templateService, publisherService, sysLogger)
	nav := navigator.New(docStore, templateService)
	recon := reconciler.New(uowFactory, docStore, templateService, sysLogger)

	snapshotStore := gateway.NewSnapshotStore(rdb, cfg.Sync.SnapshotTTL)
	syncGateway := gateway.NewSyncGateway(docStore, uowFactory, snapshotStore, sessionRepo, sysLogger, cfg.Sync.RemoteTimeout)

	// 4. Services
	authService := service.NewAuthService(uowFactory, sessionRepo, docStore, syncGateway, cfg.Auth, sysLogger)
	reportService := service.NewReportService(
		docStore,
		nav,
		recon,
		syncGateway,
		templateService,
		uowFactory,
		natsPub,
		emailService,
		sysLogger,
	)
	syncService := service.NewSyncService(
		publisherService,
		syncGateway,
		docStore,
		natsPub,
		wsHub,
		cfg.Sync.FlushDebounce,
	)

	// Submission events from other instances land here and get pushed
	// to the owner's open connections.
	if natsSub != nil {
		err := natsSub.Subscribe("events."+events.TypeReportSubmitted, "prf-report-submitted", func(ctx context.Context, event events.Event) error {
			payload := event.Payload()
			ownerId, _ := payload["owner_id"].(string)
			reportId, _ := payload["report_id"].(string)
			uid, err := uuid.Parse(ownerId)
			if err != nil {
				return nil
			}
			wsHub.Send(uid, websocket.ProgressUpdate{
				Event:    websocket.EventReportSubmitted,
				ReportId: reportId,
			})
			return nil
		})
		if err != nil {
			log.Printf("[WARN] Failed to subscribe to submission events: %v", err)
		}
	}

	// 5. Controllers
	return &Container{
		AuthController:     controller.NewAuthController(authService),
		ReportController:   controller.NewReportController(reportService),
		TemplateController: controller.NewTemplateController(templateService),
		SyncController:     controller.NewSyncController(syncService),

		SyncService:  syncService,
		WebSocketHub: wsHub,
		Logger:       sysLogger,
	}
}
