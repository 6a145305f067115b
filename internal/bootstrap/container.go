// FILE: internal/bootstrap/container.go
package bootstrap

import (
	"context"
	"log"
	"time"

	"ai-adgen-be/internal/catalog"
	"ai-adgen-be/internal/config"
	"ai-adgen-be/internal/controller"
	"ai-adgen-be/internal/pkg/logger"
	"ai-adgen-be/internal/pkg/mailer"
	"ai-adgen-be/internal/repository/unitofwork"
	"ai-adgen-be/internal/service"
	"ai-adgen-be/pkg/events"
	"ai-adgen-be/pkg/payment"

	pktNats "ai-adgen-be/pkg/nats"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	BillingController controller.IBillingController
	WebhookController controller.IWebhookController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Held for shutdown
	EventBus *events.Bus
	Logger   logger.ILogger
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
	bus := events.NewBus()

	// 2.5 Infrastructure
	// NATS mirrors billing events for the rest of the platform; the service
	// runs fine without it.
	var publisher events.Publisher = bus
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		publisher = events.Fanout{bus, natsPub}
	}

	// Redis backs the webhook replay guard.
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
		rdb = nil
	}

	// 3. Payment providers
	providers := map[string]payment.Provider{
		payment.ProviderMidtrans: payment.NewMidtrans(cfg.Payment.MidtransServerKey, cfg.Payment.MidtransIsProduction),
		payment.ProviderPayPal: payment.NewPayPal(
			cfg.Payment.PayPalClientId,
			cfg.Payment.PayPalClientSecret,
			cfg.Payment.PayPalBaseURL,
			15*time.Second,
		),
	}

	// 4. Services
	planCatalog := catalog.Default()
	subscriptionService := service.NewSubscriptionService(uowFactory, planCatalog, sysLogger)
	ledgerService := service.NewLedgerService(uowFactory, sysLogger)
	billingService := service.NewBillingService(
		uowFactory,
		planCatalog,
		subscriptionService,
		ledgerService,
		providers,
		publisher,
		sysLogger,
	)
	consumerService := service.NewConsumerService(bus, uowFactory, emailService, sysLogger)

	// 5. Controllers
	return &Container{
		BillingController: controller.NewBillingController(billingService),
		WebhookController: controller.NewWebhookController(billingService, cfg.Payment.MidtransServerKey, rdb, sysLogger),

		ConsumerService: consumerService,
		EventBus:        bus,
		Logger:          sysLogger,
	}
}
