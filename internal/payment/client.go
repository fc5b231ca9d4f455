package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout bounds every gateway call. The remote confirm call
// sits inside the booking critical section, so a hung gateway must not
// hold a slot open indefinitely.
const DefaultTimeout = 10 * time.Second

// Client talks to the payment provider's REST API. Authentication is
// HTTP basic with the merchant secret key as the user name and an
// empty password, per the provider's API convention.
type Client struct {
	baseURL string
	authz   string
	http    *http.Client
}

// NewClient builds a gateway client for the given API origin and
// merchant secret key. timeout <= 0 falls back to DefaultTimeout.
func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		authz:   "Basic " + base64.StdEncoding.EncodeToString([]byte(secretKey+":")),
		http:    &http.Client{Timeout: timeout},
	}
}

// gatewayFault mirrors the provider's error body.
type gatewayFault struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Approve captures the charge identified by req. A non-2xx response or
// transport failure is returned as *Error.
func (c *Client) Approve(ctx context.Context, req ApproveRequest) (*Approval, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, "/v1/payments/confirm", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, faultFrom(resp)
	}
	var approval Approval
	if err := json.NewDecoder(resp.Body).Decode(&approval); err != nil {
		return nil, &Error{Message: fmt.Sprintf("malformed approval response: %v", err)}
	}
	if approval.ApprovedAt.IsZero() {
		approval.ApprovedAt = time.Now().UTC()
	}
	return &approval, nil
}

// Cancel refunds the charge identified by paymentKey.
func (c *Client) Cancel(ctx context.Context, paymentKey string) error {
	body, err := json.Marshal(map[string]string{"cancelReason": "reservation cancelled"})
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, "/v1/payments/"+paymentKey+"/cancel", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return faultFrom(resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.authz)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts and transport failures count as gateway errors:
		// the caller cannot know whether the money moved.
		return nil, &Error{Message: err.Error()}
	}
	return resp, nil
}

func faultFrom(resp *http.Response) *Error {
	var fault gatewayFault
	if err := json.NewDecoder(resp.Body).Decode(&fault); err != nil || fault.Message == "" {
		return &Error{Code: resp.Status, Message: "payment request rejected"}
	}
	return &Error{Code: fault.Code, Message: fault.Message}
}
