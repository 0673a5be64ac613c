package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"telegram-clinic-bot/internal/domain/ports/adapter"
)

const paypalAPIBase = "https://api-m.paypal.com"

// PayPalProvider creates checkout orders through the PayPal Orders v2 API.
// Access tokens are cached until shortly before expiry.
type PayPalProvider struct {
	clientID string
	secret   string
	currency string
	baseURL  string
	client   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewPayPalProvider(clientID, secret, baseURL, currency string) *PayPalProvider {
	if baseURL == "" {
		baseURL = paypalAPIBase
	}
	if currency == "" {
		currency = "USD"
	}
	return &PayPalProvider{
		clientID: clientID,
		secret:   secret,
		currency: currency,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *PayPalProvider) Name() string  { return "paypal" }
func (p *PayPalProvider) Enabled() bool { return p.clientID != "" && p.secret != "" }

func (p *PayPalProvider) token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.accessToken != "" && time.Now().Before(p.tokenExpiry) {
		return p.accessToken, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/oauth2/token", strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(p.clientID, p.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal: token: %w", err)
	}
	defer resp.Body.Close()
	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("paypal: decode token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("paypal: token request rejected, http %d", resp.StatusCode)
	}
	p.accessToken = tok.AccessToken
	p.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn-60) * time.Second)
	return p.accessToken, nil
}

type paypalOrder struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
}

func (p *PayPalProvider) CreateCheckout(ctx context.Context, amount int64, label string, paymentID int64) (string, error) {
	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"reference_id": strconv.FormatInt(paymentID, 10),
			"description":  label,
			"amount": map[string]string{
				"currency_code": p.currency,
				"value":         strconv.FormatInt(amount, 10),
			},
		}},
	}
	order, err := p.call(ctx, http.MethodPost, "/v2/checkout/orders", body)
	if err != nil {
		return "", err
	}
	for _, l := range order.Links {
		if l.Rel == "approve" {
			return l.Href, nil
		}
	}
	return "", fmt.Errorf("paypal: order %s has no approve link", order.ID)
}

func (p *PayPalProvider) Owns(link string) bool {
	return strings.Contains(link, "paypal.com")
}

func (p *PayPalProvider) VerifyCheckout(ctx context.Context, link string) (adapter.CheckoutStatus, error) {
	id := paypalOrderID(link)
	if id == "" {
		return adapter.CheckoutPending, nil
	}
	order, err := p.call(ctx, http.MethodGet, "/v2/checkout/orders/"+id, nil)
	if err != nil {
		return adapter.CheckoutPending, err
	}
	switch order.Status {
	case "COMPLETED", "APPROVED":
		return adapter.CheckoutPaid, nil
	case "VOIDED":
		return adapter.CheckoutFailed, nil
	default:
		return adapter.CheckoutPending, nil
	}
}

func (p *PayPalProvider) call(ctx context.Context, method, path string, body any) (*paypalOrder, error) {
	tok, err := p.token(ctx)
	if err != nil {
		return nil, err
	}
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paypal: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("paypal: http %d: %s", resp.StatusCode, string(raw))
	}
	var order paypalOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("paypal: decode order: %w", err)
	}
	return &order, nil
}

// paypalOrderID extracts the order token from an approval link.
func paypalOrderID(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Query().Get("token")
}
