package adapter

import "context"

// CheckoutStatus is the uniform verification result across providers.
type CheckoutStatus string

const (
	CheckoutPaid    CheckoutStatus = "paid"
	CheckoutPending CheckoutStatus = "pending"
	CheckoutFailed  CheckoutStatus = "failed"
)

// CheckoutProvider is one hosted-checkout integration. Providers without
// configured credentials report Enabled() == false and are skipped, never
// treated as an error.
type CheckoutProvider interface {
	Name() string
	Enabled() bool
	// CreateCheckout builds a hosted checkout for the amount and returns the
	// pay link.
	CreateCheckout(ctx context.Context, amount int64, label string, paymentID int64) (string, error)
	// Owns reports whether a previously issued link belongs to this provider.
	Owns(link string) bool
	// VerifyCheckout resolves the payment state behind a link this provider
	// owns. Classification failures degrade to CheckoutPending.
	VerifyCheckout(ctx context.Context, link string) (CheckoutStatus, error)
}
