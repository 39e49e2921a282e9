package payments

import (
	"context"
	"fmt"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// XOF is pegged to the euro.
var xofPerEUR = decimal.RequireFromString("655.957")

const PayPalStatusCompleted = "COMPLETED"

type PayPalClient struct {
	clientID     string
	clientSecret string
	returnURL    string
	cancelURL    string
	http         *resty.Client
}

type PayPalLink struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

type PayPalOrder struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Links  []PayPalLink `json:"links"`
}

// ApproveURL returns the link the buyer must follow to approve the order.
func (o *PayPalOrder) ApproveURL() string {
	for _, link := range o.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			return link.Href
		}
	}
	return ""
}

type PayPalCapture struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		ReferenceID string `json:"reference_id"`
		Payments    struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

func (c *PayPalCapture) CaptureID() string {
	for _, unit := range c.PurchaseUnits {
		for _, capture := range unit.Payments.Captures {
			if capture.ID != "" {
				return capture.ID
			}
		}
	}
	return ""
}

func NewPayPalClient(cfg initializers.PayPalConfig) *PayPalClient {
	return &PayPalClient{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		returnURL:    cfg.ReturnURL,
		cancelURL:    cfg.CancelURL,
		http:         newRestClient(cfg.BaseURL),
	}
}

// ConvertXOFToEUR converts a franc amount to euros rounded to the cent.
func ConvertXOFToEUR(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(xofPerEUR).Round(2)
}

func (c *PayPalClient) accessToken(ctx context.Context) (string, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return "", fmt.Errorf("paypal client credentials are not set")
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.clientID, c.clientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&token).
		Post("/v1/oauth2/token")
	if err != nil {
		return "", err
	}
	if err := checkResponse("paypal", resp); err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token not found in paypal response")
	}
	return token.AccessToken, nil
}

// CreateOrder opens a checkout order for the franc amount, charged in euros.
func (c *PayPalClient) CreateOrder(ctx context.Context, referenceID string, amountXOF int64) (*PayPalOrder, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"reference_id": referenceID,
			"description":  "Pizza King order " + referenceID,
			"amount": map[string]string{
				"currency_code": "EUR",
				"value":         ConvertXOFToEUR(amountXOF).StringFixed(2),
			},
		}},
		"application_context": map[string]string{
			"brand_name":  "Pizza King",
			"user_action": "PAY_NOW",
			"return_url":  c.returnURL,
			"cancel_url":  c.cancelURL,
		},
	}

	var order PayPalOrder
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&order).
		Post("/v2/checkout/orders")
	if err != nil {
		return nil, err
	}
	if err := checkResponse("paypal", resp); err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, fmt.Errorf("incomplete paypal order response")
	}
	return &order, nil
}

func (c *PayPalClient) CaptureOrder(ctx context.Context, paypalOrderID string) (*PayPalCapture, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var capture PayPalCapture
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetPathParam("id", paypalOrderID).
		SetResult(&capture).
		Post("/v2/checkout/orders/{id}/capture")
	if err != nil {
		return nil, err
	}
	if err := checkResponse("paypal", resp); err != nil {
		return nil, err
	}
	return &capture, nil
}
