package bootstrap

import (
	"context"
	"log"

	"cellexis-assistant/internal/config"
	"cellexis-assistant/internal/controller"
	"cellexis-assistant/internal/handler"
	"cellexis-assistant/internal/pkg/logger"
	"cellexis-assistant/internal/pkg/mailer"
	"cellexis-assistant/internal/service"
	"cellexis-assistant/internal/websocket"
	"cellexis-assistant/pkg/database"
	"cellexis-assistant/pkg/events"
	"cellexis-assistant/pkg/gateway"
	"cellexis-assistant/pkg/gemini"
	"cellexis-assistant/pkg/store"
	"cellexis-assistant/pkg/voice"

	pktNats "cellexis-assistant/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController
	VoiceController     controller.IVoiceController
	BookmarkController  controller.IBookmarkController
	FeedbackController  controller.IFeedbackController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	VoiceService    service.IVoiceService

	// WebSockets
	StreamHandler *handler.StreamHandler
	WebSocketHub  *websocket.Hub
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
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

	// 2.5 Infrastructure
	// NATS (optional event mirror)
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
			natsPub = nil
		}
	}

	// Redis (used for the blob store and/or WebSocket fan-out)
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// Blob store, per STORE_DRIVER
	blobs := newBlobStore(cfg, rdb)

	// WebSocket Hub
	wsHub := websocket.NewHub(rdb, sysLogger)
	go wsHub.Run()

	// 3. Domain Clients
	ragClient := gateway.NewClient(cfg.Backend.BaseURL, sysLogger)
	elaborator := gemini.NewElaborator(cfg.Keys.GoogleGemini, sysLogger)

	// 4. Services
	consumerService := service.NewConsumerService(pubSub, events.TopicAssistant, wsHub, natsPub)

	assistantService := service.NewAssistantService(ragClient, elaborator, pubSub, sysLogger)
	bookmarkService := service.NewBookmarkService(blobs, sysLogger)
	feedbackService := service.NewFeedbackService(blobs, emailService, cfg.SMTP.FeedbackInbox, pubSub, sysLogger)

	// The voice service always exists; the server skips its routes when the
	// feature flag is off.
	table := voice.NewCommandTable(cfg.Voice.WakePhrase)
	voiceService := service.NewVoiceService(table, assistantService, pubSub, cfg.Voice.SettleDelay, sysLogger)

	// 5. Controllers
	return &Container{
		AssistantController: controller.NewAssistantController(assistantService, cfg.Features),
		VoiceController:     controller.NewVoiceController(voiceService),
		BookmarkController:  controller.NewBookmarkController(bookmarkService),
		FeedbackController:  controller.NewFeedbackController(feedbackService),

		ConsumerService: consumerService,
		VoiceService:    voiceService,
		StreamHandler:   handler.NewStreamHandler(wsHub, sysLogger),
		WebSocketHub:    wsHub,
	}
}

// newBlobStore picks the persistence backend. Memory is the default and
// always works; redis and postgres fall back to memory with a warning when
// their connection is missing or broken.
func newBlobStore(cfg *config.Config, rdb *redis.Client) store.BlobStore {
	switch cfg.Database.Driver {
	case "redis":
		if rdb == nil {
			log.Printf("[WARN] STORE_DRIVER=redis but no Redis connection, using memory store")
			return store.NewMemoryStore()
		}
		return store.NewRedisStore(rdb)

	case "postgres":
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Printf("[WARN] STORE_DRIVER=postgres but connection failed: %v, using memory store", err)
			return store.NewMemoryStore()
		}
		pg, err := store.NewPostgresStore(db)
		if err != nil {
			log.Printf("[WARN] Failed to migrate blob table: %v, using memory store", err)
			return store.NewMemoryStore()
		}
		return pg

	default:
		return store.NewMemoryStore()
	}
}
