package payement

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"voyago_back_end/internal/models"
	"voyago_back_end/internal/payment"
	"voyago_back_end/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"
)

type stubStore struct {
	mu          sync.Mutex
	cart        []models.LineItem
	txs         []models.Transaction
	recordCalls int
}

func (s *stubStore) Cart(ctx context.Context, email string) ([]models.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.LineItem, len(s.cart))
	copy(out, s.cart)
	return out, nil
}

func (s *stubStore) RecordCheckout(ctx context.Context, email, sessionID string, txs []models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordCalls++
	s.txs = append(s.txs, txs...)
	s.cart = nil
	return nil
}

func (s *stubStore) TransactionsBySession(ctx context.Context, email, sessionID string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Transaction{}
	for _, tx := range s.txs {
		if tx.SessionID == sessionID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// stubPayments rend l'événement configuré par le test, quelle que soit la
// signature reçue.
type stubPayments struct {
	event    stripe.Event
	eventErr error
	unpaid   bool
}

func (s *stubPayments) CreateProduct(ctx context.Context, name string) (string, error) {
	return "prod_1", nil
}

func (s *stubPayments) CreatePrice(ctx context.Context, productID string, amountCents int64, currency string) (string, error) {
	return "price_1", nil
}

func (s *stubPayments) CreateCheckoutSession(ctx context.Context, priceIDs []string, successURL, cancelURL string, metadata map[string]string) (*stripe.CheckoutSession, error) {
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/pay/cs_test_1"}, nil
}

func (s *stubPayments) GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	status := stripe.CheckoutSessionPaymentStatusPaid
	if s.unpaid {
		status = stripe.CheckoutSessionPaymentStatusUnpaid
	}
	return &stripe.CheckoutSession{ID: sessionID, PaymentStatus: status}, nil
}

func (s *stubPayments) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	if s.eventErr != nil {
		return stripe.Event{}, s.eventErr
	}
	return s.event, nil
}

func setupWebhook(t *testing.T, store *stubStore, payments *stubPayments) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &Handler{
		Checkout: service.NewCheckoutService(store, payments, "http://localhost:8080"),
		Payments: payments,
	}

	r := gin.New()
	r.POST("/api/webhook/stripe", h.StripeWebhook)
	return r
}

func postWebhook(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/stripe", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=123,v1=abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func completedEvent(t *testing.T, sessionID, email string) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"id":       sessionID,
		"metadata": map[string]string{"email": email},
	})
	require.NoError(t, err)
	return stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestStripeWebhook_InvalidSignature(t *testing.T) {
	store := &stubStore{}
	payments := &stubPayments{eventErr: fmt.Errorf("%w: mauvaise signature", payment.ErrInvalidSignature)}
	r := setupWebhook(t, store, payments)

	w := postWebhook(r, `{"type":"checkout.session.completed"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Signature invalide")
	assert.Zero(t, store.recordCalls, "payload non authentifié : zéro écriture")
}

func TestStripeWebhook_UnknownEventAcked(t *testing.T) {
	store := &stubStore{}
	payments := &stubPayments{event: stripe.Event{Type: "invoice.paid", Data: &stripe.EventData{Raw: []byte(`{}`)}}}
	r := setupWebhook(t, store, payments)

	w := postWebhook(r, `{"type":"invoice.paid"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"received":true`)
	assert.Zero(t, store.recordCalls)
}

func TestStripeWebhook_MissingEmailAcked(t *testing.T) {
	store := &stubStore{}
	payments := &stubPayments{event: stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: []byte(`{"id":"cs_test_1","metadata":{}}`)},
	}}
	r := setupWebhook(t, store, payments)

	w := postWebhook(r, `{}`)

	// Acquitté pour que Stripe ne rejoue pas un événement intraitable.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, store.recordCalls)
}

func TestStripeWebhook_CompletedSessionRecordsLedger(t *testing.T) {
	price, err := models.MoneyFromString("250.50")
	require.NoError(t, err)

	store := &stubStore{cart: []models.LineItem{
		{ID: "F1", Name: "YVR-JFK", Price: price, Type: models.ItemFlight},
	}}
	payments := &stubPayments{event: completedEvent(t, "cs_test_1", "alice@voyago.dev")}
	r := setupWebhook(t, store, payments)

	w := postWebhook(r, `{}`)

	assert.Equal(t, http.StatusOK, w.Code)
	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.txs, 1)
	assert.Equal(t, "cs_test_1", store.txs[0].SessionID)
	assert.True(t, store.txs[0].Price.Equal(decimal.RequireFromString("250.50")))
	assert.Empty(t, store.cart, "le panier est vidé dans la même complétion")
}
