// Package banks fetches the directory of Russian financial institutions
// published by the Bank of Russia. Two archive generations exist: DBF
// tables for dates before July 2018 and ED807 XML afterwards. The two
// carry materially different field sets and are kept as distinct record
// variants, selected by the requested date.
package banks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rudanko/cbref/internal/httputil"
	"github.com/rudanko/cbref/internal/logging"
)

var (
	// ErrBankNotFound reports that no directory entry matches the key.
	ErrBankNotFound = errors.New("bank not found")

	// ErrEmptyKey reports an empty lookup key.
	ErrEmptyKey = errors.New("bank key is empty")

	// ErrCorrAccounts reports more than one correspondent account on a
	// single directory entry. The directory schema allows at most one,
	// so this is a fault in the reference data itself, not a condition
	// to recover from.
	ErrCorrAccounts = errors.New("more than one correspondent account")
)

const hostname = "www.cbr.ru"

const (
	legacyRawPath = "/vfs/mcirabis/BIK/"
	ed807RawPath  = "/vfs/mcirabis/BIKNew/"
	swiftRawPath  = "/analytics/digest/bik_swift-bik.zip"
)

// formatCutover is the date the bank switched the directory from DBF
// archives to ED807 XML.
var formatCutover = time.Date(2018, time.July, 1, 0, 0, 0, 0, time.UTC)

// Record is one directory entry: either a *Bank from the ED807 era or a
// *BankLegacy from the DBF era.
type Record interface {
	bankRecord()
}

// Restriction is a regulatory restriction attached to an institution or,
// when Account is set, to one of its accounts.
type Restriction struct {
	// Code is one of the fixed ED807 restriction codes.
	Code string

	// Title is the human-readable meaning of Code.
	Title string

	Date time.Time

	// Account holds the restricted account number. Empty when the
	// restriction applies to the institution as a whole.
	Account string
}

// Service fetches bank directories from www.cbr.ru.
type Service struct {
	client fetcher
}

type fetcher struct {
	base  url.URL
	swift url.URL
	httputil.SourceHTTPClient
}

func NewService(client *http.Client) *Service {
	return &Service{
		client: fetcher{
			base:             url.URL{Scheme: "https", Host: hostname},
			swift:            url.URL{Scheme: "https", Host: hostname, Path: swiftRawPath},
			SourceHTTPClient: httputil.NewHTTPClient(client),
		},
	}
}

// Directory holds the bank directory for one date, indexed by national
// BIC and by SWIFT code.
type Directory struct {
	Date time.Time

	records []Record
	index   map[string]Record
}

// Directory fetches the directory for the date. The zero time requests
// today. The archive generation is picked by the date: DBF before the
// July 2018 cutover, ED807 XML at and after it.
func (s *Service) Directory(ctx context.Context, on time.Time) (*Directory, error) {
	logger := logging.FromContext(ctx)

	if on.IsZero() {
		on = time.Now()
	}

	year, month, day := on.Date()
	on = time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	var records []Record
	var err error

	if on.Before(formatCutover) {
		records, err = s.legacyDirectory(ctx, on)
	} else {
		records, err = s.ed807Directory(ctx, on)
	}

	if err != nil {
		return nil, err
	}

	directory := &Directory{
		Date:    on,
		records: records,
		index:   make(map[string]Record, len(records)*2),
	}

	for _, rec := range records {
		switch bank := rec.(type) {
		case *Bank:
			directory.index[bank.BIC] = rec
			if bank.SWIFT != "" {
				directory.index[bank.SWIFT] = rec
			}
		case *BankLegacy:
			directory.index[bank.BIC] = rec
			if bank.SWIFT != "" {
				directory.index[bank.SWIFT] = rec
			}
		}
	}

	logger.Printf("parsed %d banks on %s", len(records), on.Format("2006-01-02"))

	return directory, nil
}

// Find resolves an entry by key: a key of exactly 8 or 11 characters is
// matched against SWIFT codes, anything else against national BICs. Keys
// match the source data exactly, no case folding or padding is applied.
func (d *Directory) Find(key string) (Record, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	rec, ok := d.index[key]
	if !ok {
		return nil, fmt.Errorf("%q: %w", key, ErrBankNotFound)
	}

	return rec, nil
}

// All returns every entry in source order.
func (d *Directory) All() []Record {
	return d.records
}

func (d *Directory) Len() int {
	return len(d.records)
}
