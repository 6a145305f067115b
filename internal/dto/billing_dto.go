// FILE: internal/dto/billing_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

// --- Plans ---

type PlanResponse struct {
	Id           string   `json:"id"`
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	Credits      int      `json:"credits"` // -1 = unlimited
	Interval     string   `json:"interval"`
	MaxCampaigns int      `json:"max_campaigns"`
	Features     []string `json:"features"`
}

// --- Checkout ---

type CheckoutRequest struct {
	PlanId   string `json:"plan_id" validate:"required"`
	Provider string `json:"provider" validate:"required,oneof=midtrans paypal"`
}

type CheckoutResponse struct {
	SubscriptionId uuid.UUID `json:"subscription_id"`
	TransactionId  uuid.UUID `json:"transaction_id"`
	ProviderRef    string    `json:"provider_ref"`
	// Continuation is the redirect/approval URL the client sends the user to.
	Continuation string `json:"continuation,omitempty"`
	Status       string `json:"status"`
}

// --- Subscription status ---

type SubscriptionStatusResponse struct {
	SubscriptionId   uuid.UUID  `json:"subscription_id"`
	PlanId           string     `json:"plan_id"`
	PlanName         string     `json:"plan_name"`
	Status           string     `json:"status"`
	Active           bool       `json:"active"`
	PeriodStart      time.Time  `json:"period_start"`
	PeriodEnd        time.Time  `json:"period_end"`
	RemainingDays    int        `json:"remaining_days"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	CreditsRemaining int        `json:"credits_remaining"` // -1 = unlimited plan
	CreditsUsed      int        `json:"credits_used"`
	CampaignsCreated int        `json:"campaigns_created"`
}

// --- Upgrade ---

type UpgradeRequest struct {
	PlanId string `json:"plan_id" validate:"required"`
}

type UpgradeResponse struct {
	SubscriptionId uuid.UUID `json:"subscription_id"`
	PlanId         string    `json:"plan_id"`
	ProratedCharge float64   `json:"prorated_charge"`
	TransactionId  uuid.UUID `json:"transaction_id"`
}

// --- Cancellation ---

type CancelRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

type CancelResponse struct {
	SubscriptionId uuid.UUID `json:"subscription_id"`
	Status         string    `json:"status"`
	// AccessUntil is the period end; entitlements survive until then.
	AccessUntil time.Time `json:"access_until"`
}

// --- Credit purchase ---

type PurchaseCreditsRequest struct {
	Credits  int    `json:"credits" validate:"required,min=1,max=100000"`
	Provider string `json:"provider" validate:"required,oneof=midtrans paypal"`
}

type PurchaseCreditsResponse struct {
	TransactionId uuid.UUID `json:"transaction_id"`
	Credits       int       `json:"credits"`
	UnitPrice     float64   `json:"unit_price"`
	Amount        float64   `json:"amount"`
	ProviderRef   string    `json:"provider_ref"`
	Continuation  string    `json:"continuation,omitempty"`
	Status        string    `json:"status"`
}

// --- Usage ---

type UsageRequest struct {
	Credits   int `json:"credits" validate:"min=0"`
	Campaigns int `json:"campaigns" validate:"min=0"`
}

// --- Transactions ---

type TransactionResponse struct {
	Id             uuid.UUID  `json:"id"`
	Type           string     `json:"type"`
	Amount         float64    `json:"amount"`
	Currency       string     `json:"currency"`
	Status         string     `json:"status"`
	PaymentMethod  string     `json:"payment_method"`
	ExternalRef    *string    `json:"external_ref,omitempty"`
	Description    string     `json:"description"`
	RefundedAmount float64    `json:"refunded_amount,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	RefundedAt     *time.Time `json:"refunded_at,omitempty"`
}

type TransactionHistoryRequest struct {
	Type   string `query:"type" validate:"omitempty,oneof=subscription credit_purchase refund commission chargeback_reversal"`
	Status string `query:"status" validate:"omitempty,oneof=pending completed failed refunded disputed"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

// --- Refunds ---

type RefundRequest struct {
	TransactionId uuid.UUID `json:"transaction_id" validate:"required"`
	Amount        float64   `json:"amount" validate:"omitempty,gt=0"`
	Reason        string    `json:"reason" validate:"required,max=500"`
}

type RefundResponse struct {
	TransactionId uuid.UUID `json:"transaction_id"`
	RefundRef     string    `json:"refund_ref,omitempty"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
}

// --- Commissions ---

type CommissionRequest struct {
	AffiliateId uuid.UUID `json:"affiliate_id" validate:"required"`
	SaleAmount  float64   `json:"sale_amount" validate:"required,gt=0"`
	Description string    `json:"description,omitempty" validate:"max=500"`
}

type CommissionResponse struct {
	TransactionId uuid.UUID `json:"transaction_id"`
	AffiliateId   uuid.UUID `json:"affiliate_id"`
	Rate          float64   `json:"rate"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
}

// --- Reconciliation ---

type ReconcileResponse struct {
	Checked   int `json:"checked"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	StillOpen int `json:"still_open"`
}
