package webhook_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sequencia-app/sequencia/internal/http/handlers/billing/webhook"
	"github.com/sequencia-app/sequencia/internal/services/billing"
)

const testSecret = "whsec_test"

// Мок для Service
type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) ProcessEvent(ctx context.Context, payload []byte) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func signPayload(payload, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func newRequest(payload, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(payload))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	return req
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWebhookHandler(t *testing.T) {
	payload := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`

	t.Run("valid event is acknowledged", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("ProcessEvent", mock.Anything, []byte(payload)).Return(nil).Once()
		h := webhook.New(testLogger(), svc, testSecret)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(payload, signPayload(payload, testSecret, time.Now())))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received": true}`, rec.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("missing signature is rejected", func(t *testing.T) {
		svc := new(ServiceMock)
		h := webhook.New(testLogger(), svc, testSecret)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(payload, ""))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "ProcessEvent", mock.Anything, mock.Anything)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		svc := new(ServiceMock)
		h := webhook.New(testLogger(), svc, testSecret)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(payload, signPayload(payload, "whsec_other", time.Now())))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "ProcessEvent", mock.Anything, mock.Anything)
	})

	t.Run("stale signature is rejected", func(t *testing.T) {
		svc := new(ServiceMock)
		h := webhook.New(testLogger(), svc, testSecret)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(payload, signPayload(payload, testSecret, time.Now().Add(-time.Hour))))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown event type is acknowledged", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("ProcessEvent", mock.Anything, mock.Anything).
			Return(fmt.Errorf("wrap: %w", billing.ErrUnknownEvent)).Once()
		h := webhook.New(testLogger(), svc, testSecret)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(payload, signPayload(payload, testSecret, time.Now())))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received": true}`, rec.Body.String())
	})

	t.Run("unresolved user is acknowledged", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("ProcessEvent", mock.Anything, mock.Anything).
			Return(fmt.Errorf("wrap: %w", billing.ErrUnresolvedUser)).Once()
		h := webhook.New(testLogger(), svc, testSecret)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(payload, signPayload(payload, testSecret, time.Now())))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received": true}`, rec.Body.String())
	})

	t.Run("persistence failure asks for redelivery", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("ProcessEvent", mock.Anything, mock.Anything).
			Return(errors.New("db down")).Once()
		h := webhook.New(testLogger(), svc, testSecret)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(payload, signPayload(payload, testSecret, time.Now())))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
