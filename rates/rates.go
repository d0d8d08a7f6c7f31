// Package rates fetches official exchange rates of the Bank of Russia:
// all-currency snapshots for one date and single-currency dynamics over a
// date range.
package rates

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/rudanko/cbref/currency"
	"github.com/rudanko/cbref/internal/httputil"
	"github.com/shopspring/decimal"
)

var (
	// ErrRateNotFound reports a date absent from a dynamics series. The
	// bank does not publish on weekends and holidays and does not
	// backfill dynamics the way it does snapshots.
	ErrRateNotFound = errors.New("exchange rate not found")

	// ErrBadDateRange reports an end date earlier than the start date.
	ErrBadDateRange = errors.New("the end date of the period must be later than the start date")

	// ErrMissingCurrency reports a dynamics request without a currency.
	ErrMissingCurrency = errors.New("currency key is required")

	// ErrEmptyDate reports a zero date passed to a series lookup.
	ErrEmptyDate = errors.New("date is empty")
)

const hostname = "www.cbr.ru"

const (
	dailyRawPath    = "/scripts/XML_daily.asp"
	dailyEngRawPath = "/scripts/XML_daily_eng.asp"
	dynamicsRawPath = "/scripts/XML_dynamic.asp"
)

// reqDateFormat is the slashed convention of the request parameters;
// response payloads use the dotted respDateFormat. The two are fixed per
// endpoint and never interchangeable.
const (
	reqDateFormat  = "02/01/2006"
	respDateFormat = "02.01.2006"
)

// ExchangeRate represents one currency's official rate on one date.
// Values are immutable once constructed.
type ExchangeRate struct {
	Date     time.Time
	Currency currency.Currency

	// Name is the display name denormalized for the requested locale.
	Name string

	// Value is the quoted value against the ruble.
	Value decimal.Decimal

	// Par is the nominal as given in this payload. It may differ from
	// Currency.Par for retired currencies, a known inconsistency of the
	// source data that is preserved as is.
	Par decimal.Decimal

	// Rate is Value divided by Par.
	Rate decimal.Decimal
}

// CurrencyResolver resolves and registers currencies against the shared
// registry. Satisfied by *currency.Registry.
//
//go:generate mockgen -source rates.go -destination mock_resolver.go -package rates
type CurrencyResolver interface {
	// Ensure populates the resolver on first use.
	Ensure(ctx context.Context) error

	// Lookup resolves a currency by any of its key spellings.
	Lookup(key string) (currency.Currency, error)

	// Register inserts or replaces currency records.
	Register(list ...currency.Currency)
}

// Service fetches rate data from www.cbr.ru. The resolver instance is
// shared with every other component of the process so that independent
// requests agree on currency identity.
type Service struct {
	registry CurrencyResolver
	client   fetcher
}

type fetcher struct {
	daily    url.URL
	dailyEng url.URL
	dynamics url.URL
	httputil.SourceHTTPClient
}

func NewService(client *http.Client, registry CurrencyResolver) *Service {
	return &Service{
		registry: registry,
		client: fetcher{
			daily:            url.URL{Scheme: "https", Host: hostname, Path: dailyRawPath},
			dailyEng:         url.URL{Scheme: "https", Host: hostname, Path: dailyEngRawPath},
			dynamics:         url.URL{Scheme: "https", Host: hostname, Path: dynamicsRawPath},
			SourceHTTPClient: httputil.NewHTTPClient(client),
		},
	}
}

// midnight truncates to the date at 00:00 UTC so that series keys and
// range comparisons are uniform. The zero time passes through untouched.
func midnight(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}

	year, month, day := t.Date()

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
