package payment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"telegram-clinic-bot/internal/domain/ports/adapter"
	"telegram-clinic-bot/internal/infra/metrics"
)

// placeholderBase hosts the fallback link used when every configured
// provider fails or none is configured. The link is inert but keeps the
// flow moving: the payment still reaches staff review.
const placeholderBase = "https://pay.example.com/pay"

// Chain tries checkout providers in priority order and owns link
// verification routing. It satisfies no single-provider interface on
// purpose: use cases talk to the chain, never to a concrete provider.
type Chain struct {
	providers []adapter.CheckoutProvider
	log       *zerolog.Logger
}

func NewChain(log *zerolog.Logger, providers ...adapter.CheckoutProvider) *Chain {
	return &Chain{providers: providers, log: log}
}

// CreateLink asks each enabled provider in order and returns the first link
// produced. When all providers fail it falls back to a placeholder link so
// the purchase can still proceed through manual review.
func (c *Chain) CreateLink(ctx context.Context, amount int64, label string, paymentID int64) (link, provider string) {
	for _, p := range c.providers {
		if !p.Enabled() {
			continue
		}
		l, err := p.CreateCheckout(ctx, amount, label, paymentID)
		if err != nil {
			c.log.Warn().Err(err).Str("provider", p.Name()).Int64("payment_id", paymentID).
				Msg("checkout link creation failed, trying next provider")
			continue
		}
		metrics.IncCheckoutLink(p.Name())
		return l, p.Name()
	}
	metrics.IncCheckoutLink("placeholder")
	return fmt.Sprintf("%s?amount=%d&pid=%d", placeholderBase, amount, paymentID), "placeholder"
}

// VerifyLink routes the link to the provider that owns it. Links no
// provider recognizes (including placeholder links) stay pending: a human
// reviewer decides those.
func (c *Chain) VerifyLink(ctx context.Context, link string) adapter.CheckoutStatus {
	for _, p := range c.providers {
		if !p.Enabled() || !p.Owns(link) {
			continue
		}
		st, err := p.VerifyCheckout(ctx, link)
		if err != nil {
			c.log.Warn().Err(err).Str("provider", p.Name()).Msg("checkout verification failed")
			return adapter.CheckoutPending
		}
		return st
	}
	return adapter.CheckoutPending
}
