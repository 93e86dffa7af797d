package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
)

const signatureHeader = "X-Payment-Signature"

// Client клиент платёжного сервиса. Протокол шлюза и проверка подписи на его стороне.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient создает новый экземпляр клиента платёжного сервиса
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Authorize создает платёжный заказ и возвращает его токен.
// Идемпотентен по reference: повторный вызов возвращает тот же заказ.
func (c *Client) Authorize(ctx context.Context, amount money.Amount, currency, reference string) (string, error) {
	body, err := json.Marshal(authorizeRequest{
		Amount:    int64(amount),
		Currency:  currency,
		Reference: reference,
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", reference)
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusPaymentRequired, http.StatusUnprocessableEntity:
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: %s", ErrAuthorizationDeclined, string(msg))
	default:
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(msg))
	}

	var result authorizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}
	if result.OrderToken == "" {
		return "", fmt.Errorf("%w: empty order token", ErrInvalidResponse)
	}

	return result.OrderToken, nil
}

// VerifyCallback передаёт подписанный callback на проверку платёжному сервису
func (c *Client) VerifyCallback(ctx context.Context, payload []byte, signature string) (*CallbackResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/callbacks/verify", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(signatureHeader, signature)
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(msg))
	}

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}
	if !result.Valid {
		return nil, ErrInvalidSignature
	}

	return &CallbackResult{
		Success:          result.Status == "success",
		BookingReference: result.BookingReference,
		PaymentReference: result.PaymentReference,
		Reason:           result.Reason,
	}, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}
