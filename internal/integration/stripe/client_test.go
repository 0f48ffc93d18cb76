package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/stretchr/testify/suite"
	stripeapi "github.com/stripe/stripe-go/v82"
)

const testWebhookSecret = "whsec_test"

func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts.Unix(), payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func checkoutEvent(eventType, paymentStatus string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"object": "event",
		"type": %q,
		"data": {
			"object": {
				"id": "cs_test_1",
				"object": "checkout.session",
				"amount_total": 1299,
				"currency": "usd",
				"customer_email": "a@x.com",
				"client_reference_id": "lead_1",
				"payment_intent": "pi_1",
				"payment_status": %q,
				"metadata": {"lead_id": "lead_1", "plan_type": "1_month"}
			}
		}
	}`, eventType, paymentStatus))
}

type ClientSuite struct {
	suite.Suite
	client   *Client
	captured *stripeapi.CheckoutSessionCreateParams
	failWith error
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.captured = nil
	s.failWith = nil
	s.client = &Client{
		webhookSecret: testWebhookSecret,
		currency:      "usd",
		logger:        logger.NewNoopLogger(),
		createSession: func(ctx context.Context, params *stripeapi.CheckoutSessionCreateParams) (*stripeapi.CheckoutSession, error) {
			s.captured = params
			if s.failWith != nil {
				return nil, s.failWith
			}
			return &stripeapi.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil
		},
	}
}

func (s *ClientSuite) TestCreateCheckoutSession() {
	session, err := s.client.CreateCheckoutSession(context.Background(), &types.CheckoutSessionRequest{
		LeadID:        "lead_1",
		PlanType:      types.PlanTypeOneMonth,
		PriceID:       "price_monthly",
		CustomerEmail: "a@x.com",
		SuccessURL:    "https://quiz.test/success",
		CancelURL:     "https://quiz.test/cancel",
	})
	s.Require().NoError(err)
	s.Equal("cs_test_1", session.ID)
	s.Equal("https://checkout.stripe.test/cs_test_1", session.URL)

	s.Require().NotNil(s.captured)
	s.Equal("payment", *s.captured.Mode)
	s.Equal("price_monthly", *s.captured.LineItems[0].Price)
	s.Equal(int64(1), *s.captured.LineItems[0].Quantity)
	s.Equal("lead_1", *s.captured.ClientReferenceID)
	s.Equal("a@x.com", *s.captured.CustomerEmail)
	s.Equal("lead_1", s.captured.Metadata[types.CheckoutMetadataLeadID])
	s.Equal("1_month", s.captured.Metadata[types.CheckoutMetadataPlanType])
}

func (s *ClientSuite) TestCreateCheckoutSessionRequiresPrice() {
	_, err := s.client.CreateCheckoutSession(context.Background(), &types.CheckoutSessionRequest{
		LeadID:   "lead_1",
		PlanType: types.PlanTypeThreeMonths,
	})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
	s.Nil(s.captured)
}

func (s *ClientSuite) TestCreateCheckoutSessionProviderFailure() {
	s.failWith = errors.New("stripe down")
	_, err := s.client.CreateCheckoutSession(context.Background(), &types.CheckoutSessionRequest{
		LeadID:   "lead_1",
		PlanType: types.PlanTypeOneMonth,
		PriceID:  "price_monthly",
	})
	s.Require().Error(err)
	s.True(ierr.IsExternalService(err))
}

func (s *ClientSuite) TestParseWebhookCompleted() {
	payload := checkoutEvent("checkout.session.completed", "paid")

	event, err := s.client.ParseWebhook(payload, signPayload(payload, testWebhookSecret, time.Now()))
	s.Require().NoError(err)
	s.Equal(types.PaymentEventCheckoutCompleted, event.Type)
	s.Equal("evt_1", event.ID)
	s.Equal("cs_test_1", event.SessionID)
	s.Equal("pi_1", event.PaymentIntentID)
	s.Equal(int64(1299), *event.AmountTotal)
	s.Equal("lead_1", event.LeadID())
	s.Equal(types.PlanTypeOneMonth, event.PlanType())
	s.Equal("a@x.com", event.CustomerEmail)
}

func (s *ClientSuite) TestParseWebhookUnpaidCompletionIsIgnored() {
	payload := checkoutEvent("checkout.session.completed", "unpaid")

	event, err := s.client.ParseWebhook(payload, signPayload(payload, testWebhookSecret, time.Now()))
	s.Require().NoError(err)
	s.Equal(types.PaymentEventIgnored, event.Type)
}

func (s *ClientSuite) TestParseWebhookExpired() {
	payload := checkoutEvent("checkout.session.expired", "unpaid")

	event, err := s.client.ParseWebhook(payload, signPayload(payload, testWebhookSecret, time.Now()))
	s.Require().NoError(err)
	s.Equal(types.PaymentEventCheckoutExpired, event.Type)
	s.Equal("cs_test_1", event.SessionID)
}

func (s *ClientSuite) TestParseWebhookOtherEventIgnored() {
	payload := []byte(`{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1"}}}`)

	event, err := s.client.ParseWebhook(payload, signPayload(payload, testWebhookSecret, time.Now()))
	s.Require().NoError(err)
	s.Equal(types.PaymentEventIgnored, event.Type)
}

func (s *ClientSuite) TestParseWebhookRejectsBadSignatures() {
	payload := checkoutEvent("checkout.session.completed", "paid")

	tests := []struct {
		name      string
		signature string
	}{
		{name: "wrong secret", signature: signPayload(payload, "whsec_other", time.Now())},
		{name: "stale timestamp", signature: signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour))},
		{name: "missing header", signature: ""},
		{name: "garbage header", signature: "t=abc,v1=zz"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.client.ParseWebhook(payload, tt.signature)
			s.Require().Error(err)
			s.True(ierr.IsUnauthorized(err))
		})
	}
}

func (s *ClientSuite) TestParseWebhookFailsClosedWithoutSecret() {
	s.client.webhookSecret = ""
	payload := checkoutEvent("checkout.session.completed", "paid")

	_, err := s.client.ParseWebhook(payload, signPayload(payload, "", time.Now()))
	s.Require().Error(err)
	s.True(ierr.IsUnauthorized(err))
}
