// Package cbref fetches reference data published by the Bank of Russia:
// exchange rate snapshots, per-currency rate dynamics, the currency
// registry and the directory of financial institutions.
package cbref

import (
	"context"
	"net/http"
	"time"

	"github.com/rudanko/cbref/banks"
	"github.com/rudanko/cbref/currency"
	"github.com/rudanko/cbref/rates"
)

const DefaultRequestTimeout = 10 * time.Second

type Option func(*Client)

type Options struct {
	RequestTimeout time.Duration
}

// WithRequestTimeout set a timeout for source requests
func WithRequestTimeout(t time.Duration) Option {
	return func(c *Client) {
		c.opts.RequestTimeout = t
	}
}

// Client bundles the services behind one shared currency registry, so
// currencies discovered by one call resolve in the others.
type Client struct {
	opts Options

	registry *currency.Registry
	rates    *rates.Service
	banks    *banks.Service
}

// New return a client on top of the HTTP client. A nil client falls
// back to http.DefaultClient.
func New(client *http.Client, opts ...Option) *Client {
	if client == nil {
		client = http.DefaultClient
	}

	registry := currency.NewRegistry(client)

	c := &Client{
		opts:     Options{RequestTimeout: DefaultRequestTimeout},
		registry: registry,
		rates:    rates.NewService(client, registry),
		banks:    banks.NewService(client),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Currencies returns the shared currency registry, loading it on first
// use.
func (c *Client) Currencies(ctx context.Context) (*currency.Registry, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	if err := c.registry.Ensure(ctx); err != nil {
		return nil, err
	}

	return c.registry, nil
}

// ExchangeRates fetches the rate snapshot for the date. The zero time
// requests today, localeEn switches currency names to English.
func (c *Client) ExchangeRates(ctx context.Context, on time.Time, localeEn bool) (*rates.Snapshot, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	return c.rates.Snapshot(ctx, on, localeEn)
}

// RateDynamics fetches the rate history of one currency over the date
// range. See rates.Service.Dynamics for the range conventions.
func (c *Client) RateDynamics(ctx context.Context, since, till time.Time, key string, localeEn bool) (*rates.Dynamics, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	return c.rates.Dynamics(ctx, since, till, key, localeEn)
}

// Banks fetches the bank directory for the date. The zero time requests
// today.
func (c *Client) Banks(ctx context.Context, on time.Time) (*banks.Directory, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	return c.banks.Directory(ctx, on)
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.RequestTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, c.opts.RequestTimeout)
}
