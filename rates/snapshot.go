package rates

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rudanko/cbref/currency"
	"github.com/rudanko/cbref/internal/httputil"
	"github.com/rudanko/cbref/internal/logging"
)

// Snapshot is the all-currency rate table for one date. The bank carries
// the most recent published table back over non-business days, so the
// received date may be earlier than the requested one; DatesMatch records
// whether the two agree.
type Snapshot struct {
	DateRequested time.Time
	DateReceived  time.Time
	DatesMatch    bool

	registry CurrencyResolver
	rates    map[string]*ExchangeRate
}

// Snapshot fetches the rate table for the date. The zero time requests
// today. With localeEn set, display names come in English.
//
// Currencies present in the payload but unknown to the shared registry
// (very old tables reference long-retired currencies) are rebuilt from the
// payload itself and explicitly registered before their rates are stored.
func (s *Service) Snapshot(ctx context.Context, on time.Time, localeEn bool) (*Snapshot, error) {
	logger := logging.FromContext(ctx)

	requested := midnight(on)
	if requested.IsZero() {
		requested = midnight(time.Now())
	}

	if err := s.registry.Ensure(ctx); err != nil {
		return nil, fmt.Errorf("ensure currencies: %w", err)
	}

	u := s.client.daily
	if localeEn {
		u = s.client.dailyEng
	}

	query := u.Query()
	query.Set("date_req", requested.Format(reqDateFormat))
	u.RawQuery = query.Encode()

	snapshot := &Snapshot{
		DateRequested: requested,
		registry:      s.registry,
		rates:         make(map[string]*ExchangeRate),
	}

	b, err := s.client.Get(ctx, u)
	if err != nil {
		// Nothing published for the date is an empty table, not a failure.
		if errors.Is(err, httputil.ErrNoData) {
			return snapshot, nil
		}

		return nil, fmt.Errorf("fetch daily rates: %w", err)
	}

	received, records, err := decodeDaily(b)
	if err != nil {
		return nil, fmt.Errorf("decode daily rates: %w", err)
	}

	snapshot.DateReceived = received
	snapshot.DatesMatch = requested.Equal(received)

	var discovered []currency.Currency

	for _, rec := range records {
		ccy, err := s.registry.Lookup(rec.ID)
		if err != nil {
			if !errors.Is(err, currency.ErrCurrencyNotFound) {
				return nil, fmt.Errorf("resolve %s: %w", rec.ID, err)
			}

			// A minimal stand-in rebuilt from the rate payload.
			ccy = currency.Currency{
				ID:      rec.ID,
				NameRu:  rec.Name,
				NameEng: rec.Name,
				Num:     rec.Num,
				Code:    rec.Code,
				Par:     rec.Par,
			}
			discovered = append(discovered, ccy)
		}

		snapshot.rates[ccy.ID] = &ExchangeRate{
			Date:     received,
			Currency: ccy,
			Name:     ccy.Name(localeEn),
			Value:    rec.Value,
			Par:      rec.Par,
			// Always the payload's own par, never Currency.Par: the two
			// diverge for retired currencies.
			Rate: rec.Value.Div(rec.Par),
		}
	}

	if len(discovered) > 0 {
		s.registry.Register(discovered...)
		logger.Printf("registered %d currencies missing from the bulk feeds", len(discovered))
	}

	logger.Printf("parsed %d rates on %s", len(snapshot.rates), received.Format("2006-01-02"))

	return snapshot, nil
}

// Rate resolves a currency by any key spelling and returns its rate on
// this snapshot's date. A bad key or a currency absent from this table
// returns nil rather than an error. This sentinel contract is kept for
// backward compatibility with earlier revisions of the library; the
// Dynamics lookup deliberately behaves differently.
func (s *Snapshot) Rate(key string) *ExchangeRate {
	ccy, err := s.registry.Lookup(key)
	if err != nil {
		return nil
	}

	return s.rates[ccy.ID]
}

// Rates returns every rate of the table ordered by ISO alphabetic code.
func (s *Snapshot) Rates() []*ExchangeRate {
	list := make([]*ExchangeRate, 0, len(s.rates))
	for _, r := range s.rates {
		list = append(list, r)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Currency.Code < list[j].Currency.Code
	})

	return list
}

func (s *Snapshot) Len() int {
	return len(s.rates)
}

func (s *Snapshot) String() string {
	return fmt.Sprintf("ExchangeRates of %d currencies from %s", len(s.rates), s.DateRequested.Format("2006-01-02"))
}
