package currency

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rudanko/cbref/internal/httputil"
	"github.com/rudanko/cbref/internal/logging"
)

const hostname = "www.cbr.ru"

const bulkRawPath = "/scripts/XML_valFull.asp"

// Registry is the shared directory of known currencies, indexed by the
// three key families: internal bank code, ISO numeric code and ISO
// alphabetic code. One instance is meant to be shared by every rate
// component in the process, so that independent requests agree on currency
// identity without re-fetching the bulk feeds. All methods are safe for
// concurrent use.
//
// The index is populated lazily: the first Ensure call fetches and parses
// the daily and monthly bulk feeds.
type Registry struct {
	client fetcher

	mu      sync.RWMutex
	index   map[string]Currency
	loaded  bool
	updated time.Time
}

type fetcher struct {
	daily   url.URL
	monthly url.URL
	httputil.SourceHTTPClient
}

// NewRegistry returns an empty registry. No network access happens until
// Ensure or Refresh is called.
func NewRegistry(client *http.Client) *Registry {
	daily := url.URL{Scheme: "https", Host: hostname, Path: bulkRawPath}

	monthly := daily
	query := monthly.Query()
	query.Set("d", "1")
	monthly.RawQuery = query.Encode()

	return &Registry{
		client: fetcher{
			daily:            daily,
			monthly:          monthly,
			SourceHTTPClient: httputil.NewHTTPClient(client),
		},
		index: make(map[string]Currency),
	}
}

// Lookup resolves a currency by internal bank code, ISO numeric code (with
// or without leading zeros) or ISO alphabetic code in any case. An empty
// key is ErrEmptyKey, a well-formed key with no match is
// ErrCurrencyNotFound.
func (r *Registry) Lookup(key string) (Currency, error) {
	normalized, err := Normalize(key)
	if err != nil {
		return Currency{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.index[normalized]
	if !ok {
		return Currency{}, fmt.Errorf("%q: %w", key, ErrCurrencyNotFound)
	}

	return c, nil
}

// Register inserts or replaces currencies in the index. Last write wins;
// a record always replaces all three of its index entries at once.
func (r *Registry) Register(list ...Currency) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range list {
		r.indexLocked(c)
	}
}

// Ensure populates the index on first use. Subsequent calls are cheap.
func (r *Registry) Ensure(ctx context.Context) error {
	r.mu.RLock()
	if r.loaded {
		r.mu.RUnlock()
		return nil
	}
	r.mu.RUnlock()

	return r.Refresh(ctx)
}

// Refresh re-fetches both bulk feeds and merges them into the index.
// Currencies registered ad hoc are preserved unless a feed independently
// defines the same keys.
func (r *Registry) Refresh(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	var merr *multierror.Error
	var lists [][]Currency

	for _, u := range []url.URL{r.client.daily, r.client.monthly} {
		b, err := r.client.Get(ctx, u)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("fetch %s: %w", u.String(), err))
			continue
		}

		list, err := decodeBulk(b)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("decode %s: %w", u.String(), err))
			continue
		}

		lists = append(lists, list)
	}

	if err := merr.ErrorOrNil(); err != nil {
		return fmt.Errorf("refresh currencies: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	counter := 0
	for _, list := range lists {
		for _, c := range list {
			r.indexLocked(c)
			counter++
		}
	}

	r.loaded = true
	r.updated = time.Now()

	logger.Printf("parsed %d currencies", counter)

	return nil
}

// Updated returns the time of the last successful Refresh.
func (r *Registry) Updated() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.updated
}

// Len returns the number of index entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.index)
}

// indexLocked writes the record under each of its present key families.
// Replaced currencies without ISO codes simply get no entries for those
// families, never a spurious empty or zero key.
func (r *Registry) indexLocked(c Currency) {
	r.index[strings.ToLower(c.ID)] = c

	if c.Code != "" {
		r.index[strings.ToLower(c.Code)] = c
	}

	if c.Num != "" {
		r.index[c.Num] = c
	}
}
