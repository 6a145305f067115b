// FILE: internal/dto/webhook_dto.go
package dto

// PaymentCallback is the provider-neutral form every webhook and status
// poll is normalized into before it reaches the billing service.
type PaymentCallback struct {
	Provider    string  `json:"provider"`
	ProviderRef string  `json:"provider_ref"`
	Status      string  `json:"status"` // succeeded | pending | failed
	Amount      float64 `json:"amount,omitempty"`
	Currency    string  `json:"currency,omitempty"`
}

// MidtransWebhookRequest mirrors the HTTP notification Midtrans posts after a
// payment event. SignatureKey is sha512(order_id+status_code+gross_amount+server_key).
type MidtransWebhookRequest struct {
	OrderId           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status,omitempty"`
	PaymentType       string `json:"payment_type,omitempty"`
	TransactionId     string `json:"transaction_id,omitempty"`
}

// PayPalWebhookRequest is the subset of a PayPal webhook envelope we consume.
type PayPalWebhookRequest struct {
	Id        string                `json:"id"`
	EventType string                `json:"event_type"`
	Resource  PayPalWebhookResource `json:"resource"`
}

type PayPalWebhookResource struct {
	Id     string             `json:"id"`
	Status string             `json:"status"`
	Amount PayPalWebhookMoney `json:"amount"`
}

type PayPalWebhookMoney struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}
