// FILE: pkg/events/events.go
package events

import "time"

// Billing event codes. Consumers filter on these to drive receipts,
// affiliate payouts and entitlement refreshes.
const (
	TypeSubscriptionCreated   = "SUBSCRIPTION_CREATED"
	TypeSubscriptionCancelled = "SUBSCRIPTION_CANCELLED"
	TypeSubscriptionUpgraded  = "SUBSCRIPTION_UPGRADED"
	TypePaymentCompleted      = "PAYMENT_COMPLETED"
	TypePaymentFailed         = "PAYMENT_FAILED"
	TypeRefundProcessed       = "REFUND_PROCESSED"
	TypeCommissionRecorded    = "COMMISSION_RECORDED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "PAYMENT_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the standard Event implementation.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// New builds a BaseEvent stamped with the current time.
func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}
