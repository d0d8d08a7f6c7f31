package rates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rudanko/cbref/currency"
	"github.com/rudanko/cbref/internal/httputil"
	"github.com/rudanko/cbref/internal/logging"
)

// Dynamics is a date-indexed series of one currency's rates over a period.
//
// Weekends and holidays are simply absent from the series: the bank does
// not backfill dynamics the way it carries snapshots back.
type Dynamics struct {
	Currency currency.Currency
	Since    time.Time
	Till     time.Time

	rates map[time.Time]ExchangeRate
}

// Dynamics fetches the rate series for one currency.
//
// Range rules: both dates zero means today; exactly one date given makes a
// single-day request for it; an end date earlier than the start date is
// ErrBadDateRange and is never silently swapped. The currency key is
// required and resolves through the shared registry.
func (s *Service) Dynamics(ctx context.Context, since, till time.Time, key string, localeEn bool) (*Dynamics, error) {
	logger := logging.FromContext(ctx)

	if key == "" {
		return nil, fmt.Errorf("%w if you want to get a range of currency rates", ErrMissingCurrency)
	}

	since = midnight(since)
	till = midnight(till)

	switch {
	case since.IsZero() && till.IsZero():
		since = midnight(time.Now())
		till = since
	case since.IsZero():
		since = till
	case till.IsZero():
		till = since
	}

	if till.Before(since) {
		return nil, ErrBadDateRange
	}

	if err := s.registry.Ensure(ctx); err != nil {
		return nil, fmt.Errorf("ensure currencies: %w", err)
	}

	ccy, err := s.registry.Lookup(key)
	if err != nil {
		return nil, err
	}

	u := s.client.dynamics
	query := u.Query()
	query.Set("date_req1", since.Format(reqDateFormat))
	query.Set("date_req2", till.Format(reqDateFormat))
	query.Set("VAL_NM_RQ", ccy.ID)
	u.RawQuery = query.Encode()

	dynamics := &Dynamics{
		Currency: ccy,
		Since:    since,
		Till:     till,
		rates:    make(map[time.Time]ExchangeRate),
	}

	b, err := s.client.Get(ctx, u)
	if err != nil {
		if errors.Is(err, httputil.ErrNoData) {
			return dynamics, nil
		}

		return nil, fmt.Errorf("fetch rate dynamics: %w", err)
	}

	records, err := decodeDynamics(b)
	if err != nil {
		return nil, fmt.Errorf("decode rate dynamics: %w", err)
	}

	for _, rec := range records {
		day := midnight(rec.Date)
		dynamics.rates[day] = ExchangeRate{
			Date:     day,
			Currency: ccy,
			Name:     ccy.Name(localeEn),
			Value:    rec.Value,
			Par:      rec.Par,
			Rate:     rec.Value.Div(rec.Par),
		}
	}

	logger.Printf("parsed %d days of %s dynamics", len(dynamics.rates), ccy.ID)

	return dynamics, nil
}

// Rate returns the rate on the exact date. A zero date is ErrEmptyDate; a
// date absent from the series is ErrRateNotFound. Unlike Snapshot.Rate
// there is no sentinel here, the asymmetry is part of the public contract.
func (d *Dynamics) Rate(on time.Time) (ExchangeRate, error) {
	if on.IsZero() {
		return ExchangeRate{}, ErrEmptyDate
	}

	r, ok := d.rates[midnight(on)]
	if !ok {
		return ExchangeRate{}, fmt.Errorf("on %s: %w", on.Format("2006-01-02"), ErrRateNotFound)
	}

	return r, nil
}

// RateOn is Rate for an ISO "2006-01-02" date string.
func (d *Dynamics) RateOn(date string) (ExchangeRate, error) {
	if date == "" {
		return ExchangeRate{}, ErrEmptyDate
	}

	on, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ExchangeRate{}, fmt.Errorf("parse date: %w", err)
	}

	return d.Rate(on)
}

func (d *Dynamics) Len() int {
	return len(d.rates)
}

func (d *Dynamics) String() string {
	return fmt.Sprintf(
		"%s ExchangeRateDynamics from %s to %s",
		d.Currency.Code,
		d.Since.Format("2006-01-02"),
		d.Till.Format("2006-01-02"),
	)
}
