// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"time"

	"ai-adgen-be/internal/pkg/logger"
	"ai-adgen-be/internal/pkg/mailer"
	"ai-adgen-be/internal/repository/specification"
	"ai-adgen-be/internal/repository/unitofwork"
	"ai-adgen-be/pkg/events"

	"github.com/google/uuid"
)

// IConsumerService drains billing events and performs the side effects that
// must not block the request path: receipt and cancellation mail.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	bus        *events.Bus
	uowFactory unitofwork.RepositoryFactory
	mailer     mailer.IEmailService
	log        logger.ILogger
}

func NewConsumerService(
	bus *events.Bus,
	uowFactory unitofwork.RepositoryFactory,
	emailService mailer.IEmailService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		bus:        bus,
		uowFactory: uowFactory,
		mailer:     emailService,
		log:        log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	stream, err := cs.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for event := range stream {
			cs.process(ctx, event)
		}
	}()

	return nil
}

func (cs *consumerService) process(ctx context.Context, event events.Event) {
	switch event.EventType() {
	case events.TypePaymentCompleted:
		cs.sendReceipt(ctx, event.Payload())
	case events.TypeSubscriptionCancelled:
		cs.sendCancellationNotice(ctx, event.Payload())
	}
}

func (cs *consumerService) sendReceipt(ctx context.Context, payload map[string]interface{}) {
	email, ok := cs.userEmail(ctx, payload)
	if !ok {
		return
	}

	description, _ := payload["description"].(string)
	amount, _ := payload["amount"].(float64)
	currency, _ := payload["currency"].(string)
	if currency == "" {
		currency = "USD"
	}

	if err := cs.mailer.SendPaymentReceipt(email, description, amount, currency); err != nil {
		cs.log.Warn("consumer", "failed to send payment receipt", map[string]interface{}{
			"email": email,
			"error": err.Error(),
		})
		return
	}
	cs.log.Info("consumer", "payment receipt sent", map[string]interface{}{"email": email})
}

func (cs *consumerService) sendCancellationNotice(ctx context.Context, payload map[string]interface{}) {
	email, ok := cs.userEmail(ctx, payload)
	if !ok {
		return
	}

	planName, _ := payload["plan_name"].(string)
	periodEnd := time.Now()
	if raw, ok := payload["access_until"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			periodEnd = parsed
		}
	}

	if err := cs.mailer.SendCancellationNotice(email, planName, periodEnd); err != nil {
		cs.log.Warn("consumer", "failed to send cancellation notice", map[string]interface{}{
			"email": email,
			"error": err.Error(),
		})
		return
	}
	cs.log.Info("consumer", "cancellation notice sent", map[string]interface{}{"email": email})
}

// userEmail resolves the recipient: the payload may carry user_email already,
// otherwise look the user up by id.
func (cs *consumerService) userEmail(ctx context.Context, payload map[string]interface{}) (string, bool) {
	if email, ok := payload["user_email"].(string); ok && email != "" {
		return email, true
	}

	raw, _ := payload["user_id"].(string)
	userId, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil || user == nil {
		return "", false
	}
	return user.Email, true
}
