// Package stripeapi реализует минимальный клиент Stripe API: создание
// Checkout Session и Billing Portal Session, чтение клиента по id и
// проверку подписи вебхуков. Бизнес-логики здесь нет — пакет лишь
// оборачивает документированные запросы и ответы Stripe.
package stripeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client клиент Stripe API с авторизацией секретным ключом.
type Client struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент Stripe.
func NewClient(secretKey string) *Client {
	return &Client{
		secretKey:  secretKey,
		apiURL:     "https://api.stripe.com/v1",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Stripe принимает тело запроса в form-кодировке.
func (c *Client) newRequest(ctx context.Context, method, path string, form url.Values) (*http.Request, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req, nil
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var apiErr ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Err.Message != "" {
			return fmt.Errorf("stripe: %s: %s", resp.Status, apiErr.Err.Message)
		}
		return fmt.Errorf("stripe: unexpected status: %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

// CreateCheckoutSession создает hosted Checkout Session в режиме подписки.
// user_uid кладется в metadata сессии и подписки, чтобы последующие
// webhook-события можно было сопоставить с локальным пользователем.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price]", params.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("customer_email", params.CustomerEmail)
	form.Set("metadata[user_uid]", params.UserUID)
	form.Set("subscription_data[metadata][user_uid]", params.UserUID)
	form.Set("allow_promotion_codes", "true")
	form.Set("billing_address_collection", "required")
	if params.TrialPeriodDays > 0 {
		form.Set("subscription_data[trial_period_days]", strconv.Itoa(params.TrialPeriodDays))
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/checkout/sessions", form)
	if err != nil {
		return nil, err
	}
	var session CheckoutSession
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreatePortalSession создает сессию self-service портала для известного клиента.
func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("return_url", returnURL)

	req, err := c.newRequest(ctx, http.MethodPost, "/billing_portal/sessions", form)
	if err != nil {
		return nil, err
	}
	var session PortalSession
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetCustomer возвращает данные клиента Stripe по его идентификатору.
// Используется реконсилятором, когда событие не содержит email.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/customers/"+customerID, nil)
	if err != nil {
		return nil, err
	}
	var customer Customer
	if err := c.do(req, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}
