// FILE: pkg/payment/paypal.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

const ProviderPayPal = "paypal"

// PayPal talks to the PayPal REST API (orders v2, payments v2). There is no
// maintained official Go SDK, so requests go over an oauth2
// client-credentials HTTP client which handles token refresh.
type PayPal struct {
	baseURL string
	client  *http.Client
}

func NewPayPal(clientID, clientSecret, baseURL string, timeout time.Duration) *PayPal {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     baseURL + "/v1/oauth2/token",
	}
	client := cfg.Client(context.Background())
	client.Timeout = timeout
	return &PayPal{baseURL: baseURL, client: client}
}

func (p *PayPal) Name() string {
	return ProviderPayPal
}

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type paypalOrder struct {
	Id            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Amount paypalAmount `json:"amount"`
	} `json:"purchase_units"`
	Links []paypalLink `json:"links"`
}

func (p *PayPal) CreateCheckout(ctx context.Context, req *CheckoutRequest) (*Result, error) {
	body := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"reference_id": req.Reference,
				"description":  req.Description,
				"amount": paypalAmount{
					CurrencyCode: req.Currency,
					Value:        strconv.FormatFloat(req.Amount, 'f', 2, 64),
				},
			},
		},
	}

	var order paypalOrder
	if err := p.do(ctx, http.MethodPost, "/v2/checkout/orders", body, &order); err != nil {
		return nil, err
	}

	continuation := ""
	for _, link := range order.Links {
		if link.Rel == "approve" {
			continuation = link.Href
			break
		}
	}

	return &Result{
		ProviderRef:  order.Id,
		Status:       mapPayPalStatus(order.Status),
		Amount:       req.Amount,
		Currency:     req.Currency,
		Continuation: continuation,
	}, nil
}

func (p *PayPal) CheckStatus(ctx context.Context, providerRef string) (*Result, error) {
	var order paypalOrder
	if err := p.do(ctx, http.MethodGet, "/v2/checkout/orders/"+providerRef, nil, &order); err != nil {
		return nil, err
	}

	res := &Result{
		ProviderRef: order.Id,
		Status:      mapPayPalStatus(order.Status),
	}
	if len(order.PurchaseUnits) > 0 {
		res.Currency = order.PurchaseUnits[0].Amount.CurrencyCode
		res.Amount, _ = strconv.ParseFloat(order.PurchaseUnits[0].Amount.Value, 64)
	}
	return res, nil
}

func (p *PayPal) Cancel(ctx context.Context, providerRef string) error {
	body := map[string]string{"reason": "cancelled by customer"}
	return p.do(ctx, http.MethodPost, "/v1/billing/subscriptions/"+providerRef+"/cancel", body, nil)
}

func (p *PayPal) Refund(ctx context.Context, providerRef string, amount float64, reason string) (*RefundResult, error) {
	body := map[string]interface{}{
		"amount": paypalAmount{
			CurrencyCode: "USD",
			Value:        strconv.FormatFloat(amount, 'f', 2, 64),
		},
		"note_to_payer": reason,
	}

	var refund struct {
		Id     string `json:"id"`
		Status string `json:"status"`
	}
	if err := p.do(ctx, http.MethodPost, "/v2/payments/captures/"+providerRef+"/refund", body, &refund); err != nil {
		return nil, err
	}

	status := StateSucceeded
	if refund.Status == "PENDING" {
		status = StatePending
	}
	return &RefundResult{RefundRef: refund.Id, Status: status}, nil
}

func (p *PayPal) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return newError(ProviderPayPal, false, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return newError(ProviderPayPal, false, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		// Transport-level failures (network, timeout) have unknown outcome.
		return newError(ProviderPayPal, true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		transient := resp.StatusCode >= http.StatusInternalServerError ||
			resp.StatusCode == http.StatusTooManyRequests
		return newError(ProviderPayPal, transient,
			fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, string(data)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return newError(ProviderPayPal, false, err)
		}
	}
	return nil
}

func mapPayPalStatus(status string) State {
	switch status {
	case "COMPLETED":
		return StateSucceeded
	case "VOIDED", "DECLINED":
		return StateFailed
	default:
		// CREATED, SAVED, APPROVED, PAYER_ACTION_REQUIRED
		return StatePending
	}
}
