package bootstrap

import (
	"context"
	"log"

	"notesync/internal/config"
	"notesync/internal/controller"
	"notesync/internal/handler"
	"notesync/internal/pkg/logger"
	"notesync/internal/pkg/serverutils"
	"notesync/internal/repository/contract"
	"notesync/internal/repository/memory"
	"notesync/internal/repository/rediscache"
	"notesync/internal/repository/unitofwork"
	"notesync/internal/service"
	"notesync/internal/websocket"
	"notesync/pkg/feed"
	pktNats "notesync/pkg/nats"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController  controller.IAuthController
	GroupController controller.IGroupController
	NoteController  controller.INoteController

	// Background services (exposed for main.go to run)
	BridgeService service.IBridgeService
	Notifier      *websocket.Notifier

	// WebSockets
	SyncHandler  *handler.SyncHandler
	WebSocketHub *websocket.Hub

	// Shared infrastructure, closed on shutdown
	Feed   *feed.Feed
	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Each server process gets its own identity so the NATS bridge can tell
	// its own change events apart from remote ones.
	instanceId := uuid.NewString()

	// Change feed
	changeFeed := feed.New()

	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis backs the token revocation list; without it logout only takes
	// effect on the local instance.
	var revokedTokens contract.TokenRepository
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Falling back to in-memory token revocation", err)
		revokedTokens = memory.NewTokenRepository()
	} else {
		revokedTokens = rediscache.NewTokenRepository(rdb)
	}

	// WebSocket hub
	wsLogger := logger.NewIsolatedLogger("logs/sync.log")
	wsHub := websocket.NewHub(wsLogger)
	go wsHub.Run()

	notifier := websocket.NewNotifier(changeFeed, wsHub, wsLogger)

	// Services
	syncPublisher := service.NewSyncPublisher(changeFeed, natsPub, instanceId, sysLogger)
	authService := service.NewAuthService(uowFactory, revokedTokens, natsPub, cfg.Auth, sysLogger)
	groupService := service.NewGroupService(uowFactory, syncPublisher, sysLogger)
	noteService := service.NewNoteService(uowFactory, syncPublisher, sysLogger)

	var bridgeService service.IBridgeService
	if natsSub != nil {
		bridgeService = service.NewBridgeService(natsSub, changeFeed, instanceId, sysLogger)
	}

	// Controllers
	jwtMiddleware := serverutils.NewJwtMiddleware(cfg.Auth.JwtSecret, revokedTokens)
	authController := controller.NewAuthController(authService, jwtMiddleware)
	groupController := controller.NewGroupController(groupService, jwtMiddleware)
	noteController := controller.NewNoteController(noteService, jwtMiddleware)

	syncHandler := handler.NewSyncHandler(wsHub, cfg.Auth.JwtSecret, revokedTokens, sysLogger)

	return &Container{
		AuthController:  authController,
		GroupController: groupController,
		NoteController:  noteController,
		BridgeService:   bridgeService,
		Notifier:        notifier,
		SyncHandler:     syncHandler,
		WebSocketHub:    wsHub,
		Feed:            changeFeed,
		Logger:          sysLogger,
	}
}
