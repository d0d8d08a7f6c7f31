// Package currency keeps the directory of currencies known to the Bank of
// Russia and resolves them by any of the interchangeable key spellings.
package currency

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyKey reports a nil or empty lookup key. It is raised before
	// any index access, so callers can tell a bad argument from a miss.
	ErrEmptyKey = errors.New("currency key is empty")

	// ErrCurrencyNotFound reports that no known currency matches the key.
	ErrCurrencyNotFound = errors.New("currency not found")
)

// Currency represents a foreign currency as published by the bank.
//
//	Currency{
//		ID:      "R01010",
//		NameRu:  "Австралийский доллар",
//		NameEng: "Australian Dollar",
//		Num:     "036",
//		Code:    "AUD",
//		Par:     decimal.NewFromInt(1),
//	}
type Currency struct {
	// ID is the internal code of the Bank of Russia, the primary key.
	ID string

	NameEng string
	NameRu  string

	// Num is the ISO 4217 numeric code, zero-padded to three digits.
	// Empty for replaced and retired currencies.
	Num string

	// Code is the ISO 4217 alphabetic code. Empty for replaced currencies.
	Code string

	// Par is the nominal the bank quotes the currency in, e.g. per 100
	// units. Rate payloads may carry a different nominal for the same
	// currency, which is a known upstream inconsistency.
	Par decimal.Decimal
}

// Same reports identity over the (ID, Num, Code) triple. Display names do
// not participate: two records naming one currency differently are still
// the same currency.
func (c Currency) Same(other Currency) bool {
	return c.ID == other.ID && c.Num == other.Num && c.Code == other.Code
}

// Name returns the display name for the requested locale.
func (c Currency) Name(localeEn bool) string {
	if localeEn {
		return c.NameEng
	}

	return c.NameRu
}

// Normalize canonicalizes a lookup key: numeric codes missing leading
// zeros are padded to the ISO 4217 three-digit form ("36" becomes "036"),
// everything is lower-cased. An empty key is ErrEmptyKey.
func Normalize(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	return strings.ToLower(zfill(key, 3)), nil
}

func zfill(s string, width int) string {
	if len(s) >= width {
		return s
	}

	return strings.Repeat("0", width-len(s)) + s
}
