// FILE: internal/controller/webhook_controller.go
package controller

import (
	"crypto/sha512"
	"crypto/subtle"
	"fmt"
	"strconv"
	"time"

	"ai-adgen-be/internal/dto"
	"ai-adgen-be/internal/pkg/logger"
	"ai-adgen-be/internal/service"
	"ai-adgen-be/pkg/payment"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

type IWebhookController interface {
	RegisterRoutes(r fiber.Router)
	MidtransNotification(ctx *fiber.Ctx) error
	PayPalNotification(ctx *fiber.Ctx) error
}

type webhookController struct {
	service   service.IBillingService
	serverKey string
	redis     *redis.Client
	log       logger.ILogger
}

// NewWebhookController builds the provider callback endpoints. redisClient
// may be nil; the replay guard then degrades to the ledger's own idempotency.
func NewWebhookController(billingService service.IBillingService, midtransServerKey string, redisClient *redis.Client, log logger.ILogger) IWebhookController {
	return &webhookController{
		service:   billingService,
		serverKey: midtransServerKey,
		redis:     redisClient,
		log:       log,
	}
}

func (c *webhookController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/webhooks")
	h.Post("/midtrans/notification", c.MidtransNotification)
	h.Post("/paypal", c.PayPalNotification)
}

// firstDelivery marks a callback seen in redis; duplicates within the window
// short-circuit before touching the billing service.
func (c *webhookController) firstDelivery(ctx *fiber.Ctx, key string) bool {
	if c.redis == nil {
		return true
	}
	ok, err := c.redis.SetNX(ctx.Context(), key, "1", 24*time.Hour).Result()
	if err != nil {
		// Redis being down must not drop payment notifications.
		c.log.Warn("webhook", "replay guard unavailable", map[string]interface{}{"error": err.Error()})
		return true
	}
	return ok
}

func (c *webhookController) MidtransNotification(ctx *fiber.Ctx) error {
	var req dto.MidtransWebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.SendStatus(fiber.StatusBadRequest)
	}

	// signature = sha512(order_id + status_code + gross_amount + server_key)
	signatureInput := req.OrderId + req.StatusCode + req.GrossAmount + c.serverKey
	expected := fmt.Sprintf("%x", sha512.Sum512([]byte(signatureInput)))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(req.SignatureKey)) != 1 {
		c.log.Warn("webhook", "midtrans signature mismatch", map[string]interface{}{
			"order_id": req.OrderId,
		})
		return ctx.SendStatus(fiber.StatusForbidden)
	}

	guardKey := fmt.Sprintf("webhook:midtrans:%s:%s", req.OrderId, req.TransactionStatus)
	if !c.firstDelivery(ctx, guardKey) {
		c.log.Info("webhook", "duplicate midtrans notification dropped", map[string]interface{}{
			"order_id": req.OrderId,
			"status":   req.TransactionStatus,
		})
		return ctx.SendStatus(fiber.StatusOK)
	}

	amount, _ := strconv.ParseFloat(req.GrossAmount, 64)
	err := c.service.ConfirmPayment(ctx.Context(), &dto.PaymentCallback{
		Provider:    payment.ProviderMidtrans,
		ProviderRef: req.OrderId,
		Status:      string(payment.MapMidtransStatus(req.TransactionStatus)),
		Amount:      amount,
	})
	if err != nil {
		c.log.Error("webhook", "midtrans notification failed", map[string]interface{}{
			"order_id": req.OrderId,
			"error":    err.Error(),
		})
		// 500 so Midtrans retries the notification.
		return ctx.SendStatus(fiber.StatusInternalServerError)
	}

	return ctx.SendStatus(fiber.StatusOK)
}

func (c *webhookController) PayPalNotification(ctx *fiber.Ctx) error {
	var req dto.PayPalWebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.SendStatus(fiber.StatusBadRequest)
	}

	guardKey := fmt.Sprintf("webhook:paypal:%s", req.Id)
	if !c.firstDelivery(ctx, guardKey) {
		return ctx.SendStatus(fiber.StatusOK)
	}

	var status payment.State
	switch req.EventType {
	case "CHECKOUT.ORDER.APPROVED", "PAYMENT.CAPTURE.COMPLETED":
		status = payment.StateSucceeded
	case "PAYMENT.CAPTURE.DENIED", "CHECKOUT.ORDER.VOIDED":
		status = payment.StateFailed
	default:
		return ctx.SendStatus(fiber.StatusOK)
	}

	amount, _ := strconv.ParseFloat(req.Resource.Amount.Value, 64)
	err := c.service.ConfirmPayment(ctx.Context(), &dto.PaymentCallback{
		Provider:    payment.ProviderPayPal,
		ProviderRef: req.Resource.Id,
		Status:      string(status),
		Amount:      amount,
		Currency:    req.Resource.Amount.CurrencyCode,
	})
	if err != nil {
		c.log.Error("webhook", "paypal notification failed", map[string]interface{}{
			"event_id": req.Id,
			"error":    err.Error(),
		})
		return ctx.SendStatus(fiber.StatusInternalServerError)
	}

	return ctx.SendStatus(fiber.StatusOK)
}
