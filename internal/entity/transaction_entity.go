// FILE: internal/entity/transaction_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

type TransactionStatus string

type PaymentMethod string

const (
	TransactionTypeSubscription       TransactionType = "subscription"
	TransactionTypeCreditPurchase     TransactionType = "credit_purchase"
	TransactionTypeRefund             TransactionType = "refund"
	TransactionTypeCommission         TransactionType = "commission"
	TransactionTypeChargebackReversal TransactionType = "chargeback_reversal"

	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
	TransactionStatusDisputed  TransactionStatus = "disputed"

	PaymentMethodMidtrans     PaymentMethod = "midtrans"
	PaymentMethodPayPal       PaymentMethod = "paypal"
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:   {TransactionStatusCompleted, TransactionStatusFailed},
	TransactionStatusCompleted: {TransactionStatusRefunded, TransactionStatusDisputed},
	TransactionStatusDisputed:  {TransactionStatusCompleted, TransactionStatusRefunded},
	// failed and refunded are terminal.
}

func (s TransactionStatus) CanTransitionTo(target TransactionStatus) bool {
	for _, t := range transactionTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// RefundDetails records a settled refund against a transaction. Amount is
// cumulative across partial refunds and never exceeds the original amount.
type RefundDetails struct {
	RefundRef  *string
	Amount     float64
	Reason     string
	RefundedAt time.Time
}

// DisputeDetails records a chargeback/dispute raised by the provider.
type DisputeDetails struct {
	DisputeRef *string
	Reason     string
	ResolvedAt *time.Time
}

// Transaction is a single money-movement ledger entry. Once settled
// (completed/refunded/disputed) the record is append-only: status may still
// move forward through the state machine but the entry is never deleted.
type Transaction struct {
	Id            uuid.UUID
	UserId        uuid.UUID
	AffiliateId   *uuid.UUID
	Type          TransactionType
	Amount        float64
	Currency      string
	Status        TransactionStatus
	PaymentMethod PaymentMethod
	// ExternalRef is the provider-assigned order/charge id, unique
	// system-wide and used as the idempotency key.
	ExternalRef    *string
	Description    string
	Metadata       map[string]interface{}
	RefundDetails  *RefundDetails
	DisputeDetails *DisputeDetails
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (t *Transaction) RefundedAmount() float64 {
	if t.RefundDetails == nil {
		return 0
	}
	return t.RefundDetails.Amount
}

func (t *Transaction) AvailableToRefund() float64 {
	remaining := t.Amount - t.RefundedAmount()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SameShape reports whether a draft describes the same real-world payment
// event as this record; replays of a provider callback match on shape.
func (t *Transaction) SameShape(other *Transaction) bool {
	return t.Type == other.Type && t.Amount == other.Amount && t.UserId == other.UserId
}
