// FILE: internal/controller/billing_controller.go
package controller

import (
	"time"

	"ai-adgen-be/internal/dto"
	"ai-adgen-be/internal/pkg/serverutils"
	"ai-adgen-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IBillingController interface {
	RegisterRoutes(r fiber.Router)
	GetPlans(ctx *fiber.Ctx) error
	GetStatus(ctx *fiber.Ctx) error
	Checkout(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	Upgrade(ctx *fiber.Ctx) error
	PurchaseCredits(ctx *fiber.Ctx) error
	RecordUsage(ctx *fiber.Ctx) error
	GetTransactions(ctx *fiber.Ctx) error
	PayCommission(ctx *fiber.Ctx) error
	Refund(ctx *fiber.Ctx) error
	Reconcile(ctx *fiber.Ctx) error
}

type billingController struct {
	service service.IBillingService
}

func NewBillingController(billingService service.IBillingService) IBillingController {
	return &billingController{service: billingService}
}

func (c *billingController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/billing")
	h.Get("/plans", c.GetPlans)

	// Protected Routes
	h.Get("/subscription", serverutils.JwtMiddleware, c.GetStatus)
	h.Post("/subscription/checkout", serverutils.JwtMiddleware, c.Checkout)
	h.Post("/subscription/cancel", serverutils.JwtMiddleware, c.Cancel)
	h.Post("/subscription/upgrade", serverutils.JwtMiddleware, c.Upgrade)
	h.Post("/credits/purchase", serverutils.JwtMiddleware, c.PurchaseCredits)
	h.Post("/usage", serverutils.JwtMiddleware, c.RecordUsage)
	h.Get("/transactions", serverutils.JwtMiddleware, c.GetTransactions)
	h.Post("/commissions", serverutils.JwtMiddleware, c.PayCommission)
	h.Post("/refunds", serverutils.JwtMiddleware, c.Refund)
	h.Post("/reconcile", serverutils.JwtMiddleware, c.Reconcile)
}

func (c *billingController) GetPlans(ctx *fiber.Ctx) error {
	res := c.service.GetPlans(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse("Success fetching plans", res))
}

func (c *billingController) GetStatus(ctx *fiber.Ctx) error {
	userId, ok := serverutils.UserIdFromCtx(ctx)
	if !ok {
		return fiber.ErrUnauthorized
	}

	res, err := c.service.GetSubscriptionStatus(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription status", res))
}

func (c *billingController) Checkout(ctx *fiber.Ctx) error {
	var req dto.CheckoutRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userId, ok := serverutils.UserIdFromCtx(ctx)
	if !ok {
		return fiber.ErrUnauthorized
	}

	res, err := c.service.StartSubscription(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Checkout created", res))
}

func (c *billingController) Cancel(ctx *fiber.Ctx) error {
	var req dto.CancelRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.ErrBadRequest
		}
		if err := serverutils.ValidateRequest(req); err != nil {
			return err
		}
	}

	userId, ok := serverutils.UserIdFromCtx(ctx)
	if !ok {
		return fiber.ErrUnauthorized
	}

	res, err := c.service.CancelSubscription(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription cancelled", res))
}

func (c *billingController) Upgrade(ctx *fiber.Ctx) error {
	var req dto.UpgradeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userId, ok := serverutils.UserIdFromCtx(ctx)
	if !ok {
		return fiber.ErrUnauthorized
	}

	res, err := c.service.UpgradeSubscription(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription upgraded", res))
}

func (c *billingController) PurchaseCredits(ctx *fiber.Ctx) error {
	var req dto.PurchaseCreditsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userId, ok := serverutils.UserIdFromCtx(ctx)
	if !ok {
		return fiber.ErrUnauthorized
	}

	res, err := c.service.PurchaseCredits(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Credit purchase created", res))
}

func (c *billingController) RecordUsage(ctx *fiber.Ctx) error {
	var req dto.UsageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userId, ok := serverutils.UserIdFromCtx(ctx)
	if !ok {
		return fiber.ErrUnauthorized
	}

	res, err := c.service.RecordUsage(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Usage recorded", res))
}

func (c *billingController) GetTransactions(ctx *fiber.Ctx) error {
	var req dto.TransactionHistoryRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userId, ok := serverutils.UserIdFromCtx(ctx)
	if !ok {
		return fiber.ErrUnauthorized
	}

	res, err := c.service.GetTransactionHistory(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Transaction history", res))
}

func (c *billingController) PayCommission(ctx *fiber.Ctx) error {
	var req dto.CommissionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.PayCommission(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Commission recorded", res))
}

func (c *billingController) Refund(ctx *fiber.Ctx) error {
	var req dto.RefundRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.RefundTransaction(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Refund processed", res))
}

func (c *billingController) Reconcile(ctx *fiber.Ctx) error {
	olderThan := time.Hour
	if v := ctx.QueryInt("older_than_minutes"); v > 0 {
		olderThan = time.Duration(v) * time.Minute
	}

	res, err := c.service.ReconcilePending(ctx.Context(), olderThan)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Reconciliation finished", res))
}
