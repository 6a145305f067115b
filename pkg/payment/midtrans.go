// FILE: pkg/payment/midtrans.go
package payment

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

const ProviderMidtrans = "midtrans"

// Midtrans wraps the snap (checkout) and coreapi (status/cancel/refund)
// clients of the Midtrans SDK.
type Midtrans struct {
	snap snap.Client
	core coreapi.Client
}

func NewMidtrans(serverKey string, production bool) *Midtrans {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	m := &Midtrans{}
	m.snap.New(serverKey, env)
	m.core.New(serverKey, env)
	return m
}

func (m *Midtrans) Name() string {
	return ProviderMidtrans
}

func (m *Midtrans) CreateCheckout(ctx context.Context, req *CheckoutRequest) (*Result, error) {
	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.Reference,
			GrossAmt: int64(math.Round(req.Amount)),
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.CustomerName,
			Email: req.CustomerEmail,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    req.Reference,
				Price: int64(math.Round(req.Amount)),
				Qty:   1,
				Name:  req.Description,
			},
		},
		EnabledPayments: snap.AllSnapPaymentType,
	}
	if req.ReturnURL != "" {
		snapReq.Callbacks = &snap.Callbacks{Finish: req.ReturnURL}
	}

	resp, midErr := m.snap.CreateTransaction(snapReq)
	if midErr != nil {
		return nil, m.wrap(midErr)
	}

	// Snap checkouts are always asynchronous: the user still has to pay
	// through the redirect page, settlement arrives via webhook.
	return &Result{
		ProviderRef:  req.Reference,
		Status:       StatePending,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Continuation: resp.RedirectURL,
	}, nil
}

func (m *Midtrans) CheckStatus(ctx context.Context, providerRef string) (*Result, error) {
	resp, midErr := m.core.CheckTransaction(providerRef)
	if midErr != nil {
		return nil, m.wrap(midErr)
	}
	amount, _ := strconv.ParseFloat(resp.GrossAmount, 64)
	return &Result{
		ProviderRef: providerRef,
		Status:      MapMidtransStatus(resp.TransactionStatus),
		Amount:      amount,
		Currency:    resp.Currency,
	}, nil
}

func (m *Midtrans) Cancel(ctx context.Context, providerRef string) error {
	_, midErr := m.core.CancelTransaction(providerRef)
	if midErr != nil {
		return m.wrap(midErr)
	}
	return nil
}

func (m *Midtrans) Refund(ctx context.Context, providerRef string, amount float64, reason string) (*RefundResult, error) {
	resp, midErr := m.core.RefundTransaction(providerRef, &coreapi.RefundReq{
		Amount: int64(math.Round(amount)),
		Reason: reason,
	})
	if midErr != nil {
		return nil, m.wrap(midErr)
	}
	refundRef := resp.RefundKey
	if refundRef == "" {
		refundRef = fmt.Sprintf("%s-refund", providerRef)
	}
	return &RefundResult{RefundRef: refundRef, Status: StateSucceeded}, nil
}

func (m *Midtrans) wrap(midErr *midtrans.Error) *Error {
	transient := midErr.StatusCode == 0 ||
		midErr.StatusCode >= http.StatusInternalServerError ||
		midErr.StatusCode == http.StatusTooManyRequests
	return newError(ProviderMidtrans, transient, midErr)
}

// MapMidtransStatus normalizes a Midtrans transaction_status value. Also
// used by the webhook controller on notification payloads.
func MapMidtransStatus(status string) State {
	switch status {
	case "capture", "settlement":
		return StateSucceeded
	case "deny", "cancel", "expire", "failure":
		return StateFailed
	default:
		return StatePending
	}
}
