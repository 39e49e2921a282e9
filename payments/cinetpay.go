package payments

import (
	"context"
	"fmt"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/go-resty/resty/v2"
)

const (
	CinetPayStatusAccepted = "ACCEPTED"
	CinetPayStatusRefused  = "REFUSED"
	CinetPayStatusCanceled = "CANCELED"
)

type CinetPayClient struct {
	apiKey    string
	siteID    string
	notifyURL string
	returnURL string
	http      *resty.Client
}

type MobileMoneyRequest struct {
	TransactionID string
	Amount        int64
	Currency      string
	Description   string
	CustomerName  string
	CustomerPhone string
}

type CinetPayPayment struct {
	PaymentToken string `json:"payment_token"`
	PaymentURL   string `json:"payment_url"`
}

type CinetPayTransaction struct {
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	PaymentMethod string `json:"payment_method"`
	OperatorID    string `json:"operator_id"`
	PaymentDate   string `json:"payment_date"`
}

type cinetPayEnvelope[T any] struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func NewCinetPayClient(cfg initializers.CinetPayConfig) *CinetPayClient {
	return &CinetPayClient{
		apiKey:    cfg.APIKey,
		siteID:    cfg.SiteID,
		notifyURL: cfg.NotifyURL,
		returnURL: cfg.ReturnURL,
		http:      newRestClient(cfg.BaseURL),
	}
}

func (c *CinetPayClient) SiteID() string {
	return c.siteID
}

func (c *CinetPayClient) configured() error {
	if c.apiKey == "" || c.siteID == "" {
		return fmt.Errorf("cinetpay credentials are not set")
	}
	return nil
}

// Initiate opens a mobile money checkout and returns the payment page.
func (c *CinetPayClient) Initiate(ctx context.Context, req MobileMoneyRequest) (*CinetPayPayment, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}

	body := map[string]any{
		"apikey":                c.apiKey,
		"site_id":               c.siteID,
		"transaction_id":        req.TransactionID,
		"amount":                req.Amount,
		"currency":              req.Currency,
		"description":           req.Description,
		"customer_name":         req.CustomerName,
		"customer_phone_number": req.CustomerPhone,
		"notify_url":            c.notifyURL,
		"return_url":            c.returnURL,
		"channels":              "MOBILE_MONEY",
		"lang":                  "fr",
	}

	var result cinetPayEnvelope[CinetPayPayment]
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&result).
		Post("/v2/payment")
	if err != nil {
		return nil, err
	}
	if err := checkResponse("cinetpay", resp); err != nil {
		return nil, err
	}
	if result.Code != "201" || result.Data.PaymentURL == "" {
		return nil, fmt.Errorf("cinetpay refused payment: %s %s", result.Code, result.Message)
	}
	return &result.Data, nil
}

// Check asks Cinetpay for the authoritative status of a transaction.
func (c *CinetPayClient) Check(ctx context.Context, transactionID string) (*CinetPayTransaction, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}

	var result cinetPayEnvelope[CinetPayTransaction]
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"apikey":         c.apiKey,
			"site_id":        c.siteID,
			"transaction_id": transactionID,
		}).
		SetResult(&result).
		SetError(&result).
		Post("/v2/payment/check")
	if err != nil {
		return nil, err
	}
	// Refused payments come back with a 4xx code but still carry the status.
	if result.Data.Status == "" {
		if err := checkResponse("cinetpay", resp); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("cinetpay check returned no status: %s %s", result.Code, result.Message)
	}
	return &result.Data, nil
}
