package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/go-resty/resty/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	StripeEventPaymentSucceeded = "payment_intent.succeeded"
	StripeEventPaymentFailed    = "payment_intent.payment_failed"
)

type StripeClient struct {
	secretKey string
	http      *resty.Client
}

func NewStripeClient(cfg initializers.StripeConfig) *StripeClient {
	return &StripeClient{secretKey: cfg.SecretKey, http: newRestClient(cfg.BaseURL)}
}

// CreatePaymentIntent creates a card payment intent. XOF is zero-decimal so the
// amount is sent as is.
func (c *StripeClient) CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	if c.secretKey == "" {
		return nil, fmt.Errorf("stripe secret key is not set")
	}

	form := map[string]string{
		"amount":                             strconv.FormatInt(amount, 10),
		"currency":                           strings.ToLower(currency),
		"automatic_payment_methods[enabled]": "true",
	}
	for key, value := range metadata {
		form["metadata["+key+"]"] = value
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.secretKey).
		SetFormData(form).
		Post("/v1/payment_intents")
	if err != nil {
		return nil, err
	}
	if err := checkResponse("stripe", resp); err != nil {
		return nil, err
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(resp.Body(), &intent); err != nil {
		return nil, fmt.Errorf("failed to parse payment intent: %w", err)
	}
	if intent.ID == "" || intent.ClientSecret == "" {
		return nil, fmt.Errorf("incomplete payment intent response")
	}
	return &intent, nil
}

// VerifyStripeSignature checks the Stripe-Signature header against the raw body
// and decodes the event.
func VerifyStripeSignature(payload []byte, header, secret string) (*stripe.Event, error) {
	if secret == "" {
		return nil, fmt.Errorf("stripe webhook secret is not set")
	}
	if err := webhook.ValidatePayload(payload, header, secret); err != nil {
		return nil, err
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse stripe event: %w", err)
	}
	if event.ID == "" {
		return nil, fmt.Errorf("stripe event has no id")
	}
	return &event, nil
}

// PaymentIntentFromEvent decodes the payment intent carried by a payment_intent.* event.
func PaymentIntentFromEvent(event *stripe.Event) (*stripe.PaymentIntent, error) {
	if event.Data == nil {
		return nil, fmt.Errorf("stripe event %s has no data", event.ID)
	}
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, fmt.Errorf("failed to parse payment intent: %w", err)
	}
	return &intent, nil
}
