// FILE: pkg/payment/provider.go
package payment

import (
	"context"
	"errors"
	"fmt"
)

// State is the normalized outcome of a provider call. Both providers are
// mapped onto this shape so business logic never branches on provider
// identity.
type State string

const (
	StateSucceeded State = "succeeded"
	StatePending   State = "pending"
	StateFailed    State = "failed"
)

// CheckoutRequest describes a charge to initiate with a provider. Reference
// is our order id and becomes the provider-visible order identifier.
type CheckoutRequest struct {
	Reference     string
	Description   string
	Amount        float64
	Currency      string
	CustomerId    string
	CustomerEmail string
	CustomerName  string
	ReturnURL     string
}

// Result is the normalized provider response.
type Result struct {
	ProviderRef string
	Status      State
	Amount      float64
	Currency    string
	// Continuation is the provider-specific token the caller hands to the
	// user's browser: a redirect URL or a client secret/snap token.
	Continuation string
}

type RefundResult struct {
	RefundRef string
	Status    State
}

// Provider abstracts one external payment provider. CreateCheckout, Cancel
// and Refund are mutating and fail closed: the caller must never auto-retry
// them. CheckStatus is a read and safe to retry.
type Provider interface {
	Name() string
	CreateCheckout(ctx context.Context, req *CheckoutRequest) (*Result, error)
	CheckStatus(ctx context.Context, providerRef string) (*Result, error)
	Cancel(ctx context.Context, providerRef string) error
	Refund(ctx context.Context, providerRef string, amount float64, reason string) (*RefundResult, error)
}

// Error wraps any provider-side failure. Transient errors (network, timeout,
// provider 5xx) are safe to retry for read-style calls only.
type Error struct {
	Provider  string
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("provider %s: %s error: %v", e.Provider, kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(provider string, transient bool, err error) *Error {
	return &Error{Provider: provider, Transient: transient, Err: err}
}

// IsTransient reports whether err (or anything it wraps) is a transient
// provider error.
func IsTransient(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Transient
}
