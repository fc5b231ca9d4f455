package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveSendsAuthAndDecodesApproval(t *testing.T) {
	approvedAt := time.Date(2025, 5, 10, 10, 0, 0, 0, time.UTC)
	var gotAuth, gotPath string
	var gotBody ApproveRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"paymentKey":  "pay-key-1",
			"orderId":     "order-1",
			"totalAmount": 30000,
			"approvedAt":  approvedAt.Format(time.RFC3339),
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test_secret", time.Second)
	approval, err := c.Approve(context.Background(), ApproveRequest{
		PaymentKey: "pay-key-1", OrderID: "order-1", Amount: 30000,
	})
	require.NoError(t, err)

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("sk_test_secret:"))
	assert.Equal(t, wantAuth, gotAuth)
	assert.Equal(t, "/v1/payments/confirm", gotPath)
	assert.Equal(t, int64(30000), gotBody.Amount)
	assert.Equal(t, "pay-key-1", approval.PaymentKey)
	assert.Equal(t, int64(30000), approval.Amount)
	assert.True(t, approval.ApprovedAt.Equal(approvedAt))
}

func TestApproveMapsGatewayFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "INVALID_CARD",
			"message": "card number is invalid",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk", time.Second)
	_, err := c.Approve(context.Background(), ApproveRequest{PaymentKey: "k"})
	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "INVALID_CARD", pe.Code)
	assert.Equal(t, "card number is invalid", pe.Message)
}

func TestApproveMapsMalformedFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk", time.Second)
	_, err := c.Approve(context.Background(), ApproveRequest{PaymentKey: "k"})
	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "payment request rejected", pe.Message)
}

func TestApproveMapsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL, "sk", time.Second)
	_, err := c.Approve(context.Background(), ApproveRequest{PaymentKey: "k"})
	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.NotEmpty(t, pe.Message)
}

func TestCancelHitsKeyedPath(t *testing.T) {
	var gotPath string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk", time.Second)
	require.NoError(t, c.Cancel(context.Background(), "pay-key-1"))
	assert.Equal(t, "/v1/payments/pay-key-1/cancel", gotPath)
	assert.NotEmpty(t, gotBody["cancelReason"])
}

func TestCancelMapsGatewayFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "NOT_CANCELABLE",
			"message": "already cancelled",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk", time.Second)
	err := c.Cancel(context.Background(), "pay-key-1")
	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "NOT_CANCELABLE", pe.Code)
}
