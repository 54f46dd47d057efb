// Package payment talks to the card processor. Only intent creation,
// lookup and webhook verification are needed by the storefront.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

var (
	ErrNotConfigured = errors.New("payment: provider not configured")
	ErrBadSignature  = errors.New("payment: invalid webhook signature")
)

type Intent struct {
	ID           string
	ClientSecret string
	AmountCents  int64
	Currency     string
	Succeeded    bool
}

type IntentRequest struct {
	AmountCents int64
	Currency    string
	Email       string
	Metadata    map[string]string
}

// Event is a verified webhook delivery. PaymentRef and AmountCents are set
// for payment_intent.* events.
type Event struct {
	ID          string
	Type        string
	PaymentRef  string
	AmountCents int64
}

const EventPaymentSucceeded = "payment_intent.succeeded"

type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

type Stripe struct {
	api           *client.API
	webhookSecret string
}

func NewStripe(secretKey, webhookSecret string) *Stripe {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Stripe{api: api, webhookSecret: webhookSecret}
}

func (s *Stripe) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(req.AmountCents),
		Currency:     stripe.String(req.Currency),
		ReceiptEmail: stripe.String(req.Email),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("payment: create intent: %w", err)
	}
	return toIntent(pi), nil
}

func (s *Stripe) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("payment: get intent %s: %w", id, err)
	}
	return toIntent(pi), nil
}

func (s *Stripe) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if s.webhookSecret == "" {
		return nil, ErrNotConfigured
	}
	// the endpoint may be pinned to another API version than the library;
	// only the payment intent id and amount are read from the payload
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSignature, err)
	}
	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data != nil && len(ev.Data.Raw) > 0 {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err == nil {
			out.PaymentRef = pi.ID
			out.AmountCents = pi.Amount
		}
	}
	return out, nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Succeeded:    pi.Status == stripe.PaymentIntentStatusSucceeded,
	}
}
