package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/utils"
	"github.com/stripe/stripe-go/v76"
)

type fakeProviders struct {
	server        *httptest.Server
	cinetpayState string
}

// startFakeProviders serves minimal Stripe, PayPal and Cinetpay endpoints and
// points Providers at them.
func (s *ServiceSuite) startFakeProviders() *fakeProviders {
	fake := &fakeProviders{cinetpayState: "ACCEPTED"}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/payment_intents", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"pi_test","object":"payment_intent","client_secret":"pi_test_secret","status":"requires_payment_method"}`)
	})
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"token"}`)
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"PAYPAL-1","status":"CREATED","links":[{"href":"https://paypal.test/approve","rel":"approve"}]}`)
	})
	mux.HandleFunc("/v2/checkout/orders/PAYPAL-1/capture", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"PAYPAL-1","status":"COMPLETED","purchase_units":[{"payments":{"captures":[{"id":"CAP-1","status":"COMPLETED"}]}}]}`)
	})
	mux.HandleFunc("/v2/payment", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"code":"201","message":"CREATED","data":{"payment_token":"tok","payment_url":"https://checkout.cinetpay.test/tok"}}`)
	})
	mux.HandleFunc("/v2/payment/check", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"code":"00","message":"SUCCES","data":{"amount":"11000","currency":"XOF","status":%q}}`, fake.cinetpayState)
	})
	fake.server = httptest.NewServer(mux)
	s.T().Cleanup(fake.server.Close)

	cfg := initializers.Config
	cfg.Stripe = initializers.StripeConfig{SecretKey: "sk_test", WebhookSecret: "whsec_test", BaseURL: fake.server.URL}
	cfg.PayPal = initializers.PayPalConfig{ClientID: "client", ClientSecret: "secret", BaseURL: fake.server.URL}
	cfg.CinetPay = initializers.CinetPayConfig{APIKey: "key", SiteID: "site-1", BaseURL: fake.server.URL}
	Providers = NewPaymentProviders(cfg)
	s.T().Cleanup(func() { Providers = NewPaymentProviders(initializers.DefaultConfig()) })
	return fake
}

func stripeEvent(s *ServiceSuite, id, eventType string, orderID uint, extra string) *stripe.Event {
	payload := fmt.Sprintf(`{"id":%q,"object":"event","type":%q,"data":{"object":{"id":"pi_test","object":"payment_intent","metadata":{"orderId":"%d"}%s}}}`, id, eventType, orderID, extra)
	var event stripe.Event
	s.Require().NoError(json.Unmarshal([]byte(payload), &event))
	return &event
}

func (s *ServiceSuite) TestStripeIntentAndWebhook() {
	s.startFakeProviders()
	order := s.pickupOrder(models.PaymentMethodCard)

	intent, err := CreateStripeIntent(s.ctx, s.customer.ID, order.ID)
	s.Require().NoError(err)
	s.Equal("pi_test_secret", intent.ClientSecret)

	stored := s.reloadOrder(order.ID)
	s.Equal(models.PaymentStatusProcessing, stored.Payment.Status)
	s.Equal("pi_test", stored.Payment.Reference)

	duplicate, err := HandleStripeEvent(s.ctx, stripeEvent(s, "evt_1", "payment_intent.succeeded", order.ID, ""))
	s.Require().NoError(err)
	s.False(duplicate)

	stored = s.reloadOrder(order.ID)
	s.Equal(models.PaymentStatusPaid, stored.Payment.Status)
	s.NotNil(stored.Payment.PaidAt)
	s.Equal(models.OrderStatusConfirmed, stored.Status)
	s.NotNil(stored.ConfirmedAt)

	var history models.OrderStatusHistory
	s.Require().NoError(initializers.DB.Where("order_id = ? AND to_status = ?", order.ID, models.OrderStatusConfirmed).First(&history).Error)
	s.Zero(history.ChangedBy)

	duplicate, err = HandleStripeEvent(s.ctx, stripeEvent(s, "evt_1", "payment_intent.succeeded", order.ID, ""))
	s.Require().NoError(err)
	s.True(duplicate)

	_, err = CreateStripeIntent(s.ctx, s.customer.ID, order.ID)
	s.requireCode(err, utils.CodeFailedPrecondition)
}

func (s *ServiceSuite) TestStripeWebhookFailedPayment() {
	s.startFakeProviders()
	order := s.pickupOrder(models.PaymentMethodCard)
	_, err := CreateStripeIntent(s.ctx, s.customer.ID, order.ID)
	s.Require().NoError(err)

	_, err = HandleStripeEvent(s.ctx, stripeEvent(s, "evt_2", "payment_intent.payment_failed", order.ID,
		`,"last_payment_error":{"message":"Your card was declined."}`))
	s.Require().NoError(err)

	stored := s.reloadOrder(order.ID)
	s.Equal(models.PaymentStatusFailed, stored.Payment.Status)
	s.Equal("Your card was declined.", stored.Payment.FailureReason)
	s.Equal(models.OrderStatusPending, stored.Status)

	duplicate, err := HandleStripeEvent(s.ctx, stripeEvent(s, "evt_3", "charge.refunded", order.ID, ""))
	s.NoError(err)
	s.False(duplicate)
}

func (s *ServiceSuite) TestPaymentCapturedAfterCancelIsFlaggedRefunded() {
	s.startFakeProviders()
	order := s.pickupOrder(models.PaymentMethodCard)
	_, err := CreateStripeIntent(s.ctx, s.customer.ID, order.ID)
	s.Require().NoError(err)

	_, err = CancelOrder(s.ctx, s.customerActor(), order.ID, "")
	s.Require().NoError(err)

	duplicate, err := HandleStripeEvent(s.ctx, stripeEvent(s, "evt_late", "payment_intent.succeeded", order.ID, ""))
	s.Require().NoError(err)
	s.False(duplicate)

	stored := s.reloadOrder(order.ID)
	s.Equal(models.OrderStatusCancelled, stored.Status)
	s.Equal(models.PaymentStatusRefunded, stored.Payment.Status)
	s.NotNil(stored.Payment.PaidAt)

	var notification models.Notification
	s.Require().NoError(initializers.DB.Where("user_id = ? AND type = ?", s.customer.ID, models.NotificationPayment).
		Order("id desc").First(&notification).Error)
	s.Equal("Payment refunded", notification.Title)
}

func (s *ServiceSuite) TestStripeIntentChecksOwnershipAndProvider() {
	order := s.pickupOrder(models.PaymentMethodCard)

	_, err := CreateStripeIntent(s.ctx, s.other.ID, order.ID)
	s.requireCode(err, utils.CodePermissionDenied)

	Providers = NewPaymentProviders(initializers.DefaultConfig())
	_, err = CreateStripeIntent(s.ctx, s.customer.ID, order.ID)
	s.requireCode(err, utils.CodeUnavailable)
	s.Equal(models.PaymentStatusPending, s.reloadOrder(order.ID).Payment.Status)
}

func (s *ServiceSuite) TestPayPalCreateAndCapture() {
	s.startFakeProviders()
	order := s.pickupOrder(models.PaymentMethodPayPal)

	created, err := CreatePayPalOrder(s.ctx, s.customer.ID, order.ID)
	s.Require().NoError(err)
	s.Equal("PAYPAL-1", created.PayPalOrderID)
	s.Equal("https://paypal.test/approve", created.ApproveURL)

	_, err = CapturePayPalOrder(s.ctx, s.customer.ID, order.ID, "PAYPAL-2")
	s.requireCode(err, utils.CodeInvalidArgument)

	captured, err := CapturePayPalOrder(s.ctx, s.customer.ID, order.ID, "PAYPAL-1")
	s.Require().NoError(err)
	s.Equal("COMPLETED", captured.Status)
	s.Equal("CAP-1", captured.CaptureID)

	stored := s.reloadOrder(order.ID)
	s.Equal(models.PaymentStatusPaid, stored.Payment.Status)
	s.Equal(models.OrderStatusConfirmed, stored.Status)
}

func (s *ServiceSuite) TestMobileMoneyInitiateAndCallback() {
	fake := s.startFakeProviders()
	order, err := CreateOrder(s.ctx, s.customer.ID, CreateOrderRequest{
		Items:               s.twoMediumsWithCheese(),
		DeliveryType:        models.DeliveryTypePickup,
		PaymentMethod:       models.PaymentMethodMobileMoney,
		MobileMoneyOperator: "orange",
		PaymentPhone:        "0701020304",
	})
	s.Require().NoError(err)

	initiated, err := InitiateMobileMoney(s.ctx, s.customer.ID, MobileMoneyRequest{OrderID: order.ID})
	s.Require().NoError(err)
	s.Equal("https://checkout.cinetpay.test/tok", initiated.PaymentURL)
	s.NotEmpty(initiated.TransactionID)

	stored := s.reloadOrder(order.ID)
	s.Equal(initiated.TransactionID, stored.Payment.Reference)
	s.Equal("orange", stored.Payment.Operator)

	_, err = HandleMobileMoneyCallback(s.ctx, initiated.TransactionID, "other-site")
	s.requireCode(err, utils.CodeInvalidArgument)

	fake.cinetpayState = "PENDING"
	_, err = HandleMobileMoneyCallback(s.ctx, initiated.TransactionID, "site-1")
	s.Require().NoError(err)
	s.Equal(models.PaymentStatusProcessing, s.reloadOrder(order.ID).Payment.Status)

	fake.cinetpayState = "ACCEPTED"
	duplicate, err := HandleMobileMoneyCallback(s.ctx, initiated.TransactionID, "site-1")
	s.Require().NoError(err)
	s.False(duplicate)
	s.Equal(models.PaymentStatusPaid, s.reloadOrder(order.ID).Payment.Status)

	duplicate, err = HandleMobileMoneyCallback(s.ctx, initiated.TransactionID, "site-1")
	s.Require().NoError(err)
	s.True(duplicate)

	_, err = HandleMobileMoneyCallback(s.ctx, "unknown-tx", "site-1")
	s.requireCode(err, utils.CodeNotFound)
}

func (s *ServiceSuite) TestMobileMoneyRejectsOddAmounts() {
	s.startFakeProviders()
	order, err := CreateOrder(s.ctx, s.customer.ID, CreateOrderRequest{
		Items:               s.twoMediumsWithCheese(),
		DeliveryType:        models.DeliveryTypePickup,
		PaymentMethod:       models.PaymentMethodMobileMoney,
		MobileMoneyOperator: "moov",
		PaymentPhone:        "0101020304",
	})
	s.Require().NoError(err)
	s.Require().NoError(initializers.DB.Model(&models.Order{}).Where("id = ?", order.ID).Update("total", 10999).Error)

	_, err = InitiateMobileMoney(s.ctx, s.customer.ID, MobileMoneyRequest{OrderID: order.ID})
	s.requireCode(err, utils.CodeFailedPrecondition)
}
