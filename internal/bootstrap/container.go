package bootstrap

import (
	"context"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"wise-student-be/internal/config"
	"wise-student-be/internal/controller"
	"wise-student-be/internal/pkg/logger"
	"wise-student-be/internal/pkg/serverutils"
	"wise-student-be/internal/repository/unitofwork"
	"wise-student-be/internal/service"
	"wise-student-be/internal/websocket"
	"wise-student-be/pkg/gateway/razorpay"
	pktNats "wise-student-be/pkg/nats"
)

const eventTopic = "entitlement-events"

type Container struct {
	// Controllers
	AuthController    controller.IAuthController
	PaymentController controller.IPaymentController
	LinkingController controller.ILinkingController
	StreamController  controller.IStreamController

	// Background services, run by main.go
	DispatcherService service.IDispatcherService

	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Payment gateway
	gateway, err := razorpay.NewClient(razorpay.Config{
		KeyID:         cfg.Gateway.KeyID,
		KeySecret:     cfg.Gateway.KeySecret,
		WebhookSecret: cfg.Gateway.WebhookSecret,
		Mode:          cfg.Gateway.Mode,
	})
	if err != nil {
		log.Fatalf("[FATAL] Payment gateway init failed: %v", err)
	}
	log.Printf("[INFO] Payment gateway mode: %s", cfg.Gateway.Mode)

	// Internal event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)

	// NATS stream for durable event delivery
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis, used for websocket fanout and rate limiting
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		rdb = nil
	}

	// WebSocket hub
	wsLogger := logger.NewIsolatedLogger("logs/stream.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// HTTP plumbing shared by controllers
	jwtGuard := serverutils.JwtMiddleware(cfg.Auth.JWTSecret)
	rateLimiter := serverutils.NewRedisRateLimiter(rdb, "rl")

	// Services
	publisherService := service.NewPublisherService(eventTopic, pubSub)
	verifier := service.NewPaymentVerifier(gateway)

	authService := service.NewAuthService(uowFactory, cfg.Auth)
	linkingService := service.NewLinkingService(
		uowFactory,
		gateway,
		verifier,
		publisherService,
		cfg.Gateway.Currency,
		sysLogger,
	)
	reconciliationService := service.NewReconciliationService(
		uowFactory,
		gateway,
		verifier,
		linkingService,
		publisherService,
		sysLogger,
	)
	paymentService := service.NewPaymentService(
		uowFactory,
		gateway,
		publisherService,
		cfg.Gateway.Currency,
		sysLogger,
	)

	dispatcherService := service.NewDispatcherService(pubSub, eventTopic, natsPub, wsHub, wsLogger)

	// Live pushes come off the durable stream when NATS is up; the
	// dispatcher falls back to direct hub delivery when it is not.
	if natsSub != nil {
		notifier := service.NewNotifierService(natsSub, wsHub, wsLogger)
		if err := notifier.Start(); err != nil {
			log.Printf("[WARN] Notifier failed to start: %v", err)
		}
	}

	return &Container{
		AuthController:    controller.NewAuthController(authService, jwtGuard, rateLimiter),
		PaymentController: controller.NewPaymentController(paymentService, reconciliationService, jwtGuard, rateLimiter),
		LinkingController: controller.NewLinkingController(linkingService, jwtGuard),
		StreamController:  controller.NewStreamController(wsHub, cfg.Auth.JWTSecret, sysLogger),

		DispatcherService: dispatcherService,
		WebSocketHub:      wsHub,
	}
}
