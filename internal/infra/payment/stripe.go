package payment

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

	"telegram-clinic-bot/internal/domain/ports/adapter"
)

const stripeAPIBase = "https://api.stripe.com/v1"

// StripeProvider creates hosted Checkout Sessions over the Stripe REST API.
type StripeProvider struct {
	apiKey   string
	currency string
	// unitMultiplier converts the local amount into the currency's minor
	// unit expected by Stripe (e.g. 100 for cents).
	unitMultiplier int64
	baseURL        string
	client         *http.Client
}

func NewStripeProvider(apiKey, currency string, unitMultiplier int64) *StripeProvider {
	if currency == "" {
		currency = "usd"
	}
	if unitMultiplier <= 0 {
		unitMultiplier = 1
	}
	return &StripeProvider{
		apiKey:         apiKey,
		currency:       currency,
		unitMultiplier: unitMultiplier,
		baseURL:        stripeAPIBase,
		client:         &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *StripeProvider) Name() string  { return "stripe" }
func (s *StripeProvider) Enabled() bool { return s.apiKey != "" }

type stripeSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"`
	Error         *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *StripeProvider) CreateCheckout(ctx context.Context, amount int64, label string, paymentID int64) (string, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", s.currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(amount*s.unitMultiplier, 10))
	form.Set("line_items[0][price_data][product_data][name]", label)
	form.Set("client_reference_id", strconv.FormatInt(paymentID, 10))
	form.Set("success_url", "https://t.me")
	form.Set("cancel_url", "https://t.me")

	sess, err := s.call(ctx, http.MethodPost, "/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	if sess.URL == "" {
		return "", fmt.Errorf("stripe: session %s has no url", sess.ID)
	}
	return sess.URL, nil
}

func (s *StripeProvider) Owns(link string) bool {
	return strings.Contains(link, "stripe.com")
}

func (s *StripeProvider) VerifyCheckout(ctx context.Context, link string) (adapter.CheckoutStatus, error) {
	id := stripeSessionID(link)
	if id == "" {
		return adapter.CheckoutPending, nil
	}
	sess, err := s.call(ctx, http.MethodGet, "/checkout/sessions/"+id, nil)
	if err != nil {
		return adapter.CheckoutPending, err
	}
	switch sess.PaymentStatus {
	case "paid", "no_payment_required":
		return adapter.CheckoutPaid, nil
	case "unpaid":
		return adapter.CheckoutPending, nil
	default:
		return adapter.CheckoutPending, nil
	}
}

func (s *StripeProvider) call(ctx context.Context, method, path string, body io.Reader) (*stripeSession, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.apiKey, "")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var sess stripeSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("stripe: decode response: %w", err)
	}
	if sess.Error != nil {
		return nil, fmt.Errorf("stripe: %s", sess.Error.Message)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("stripe: http %d", resp.StatusCode)
	}
	return &sess, nil
}

// stripeSessionID pulls the cs_... segment out of a hosted checkout URL.
func stripeSessionID(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	for _, part := range strings.Split(u.Path, "/") {
		if strings.HasPrefix(part, "cs_") {
			return part
		}
	}
	return ""
}
