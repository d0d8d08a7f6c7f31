package banks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/LindsayBradford/go-dbf/godbf"
	"github.com/hashicorp/go-multierror"

	"github.com/rudanko/cbref/internal/archive"
	"github.com/rudanko/cbref/internal/httputil"
	"github.com/rudanko/cbref/internal/logging"
	"github.com/rudanko/cbref/internal/strutil"
)

// The DBF archives are encoded in the DOS codepage.
const legacyEncoding = "cp866"

const legacyDateFormat = "20060102"

// errUnknownCode reports a directory row referencing a code absent from
// its reference table.
var errUnknownCode = errors.New("unknown reference code")

// Region is a row of the reg.dbf reference table.
type Region struct {
	Code   string
	Name   string
	Center string
}

// PlaceType is a row of the tnp.dbf reference table.
type PlaceType struct {
	Code      string
	FullName  string
	ShortName string
}

// InstitutionKind is a row of the pzn.dbf reference table.
type InstitutionKind struct {
	Code string
	Name string
}

// PayType is a row of the uer.dbf reference table.
type PayType struct {
	Code string
	Name string
}

// BankLegacy is a directory entry of the DBF era, before July 2018.
type BankLegacy struct {
	BIC   string
	SWIFT string

	Name     string
	NameFull string

	RegionCode string

	// Region is nil when the region code has no reference row. Code 00
	// marks institutions outside the country.
	Region *Region

	Zip string

	// PlaceType is nil when the place type code has no reference row.
	PlaceType *PlaceType

	Place   string
	Address string

	RKCBIC string

	// Term is the settlement term in days.
	Term int

	DateAdded   time.Time
	DateUpdated time.Time
	DateChange  time.Time

	MFO     string
	Corr    string
	CorrBIC string

	Phone      string
	Telegraph  string
	Commutator string

	OKPO   string
	RegNum string

	Kind    InstitutionKind
	PayType PayType

	ControlCode string
	ControlDate time.Time
}

func (*BankLegacy) bankRecord() {}

func (s *Service) legacyDirectory(ctx context.Context, on time.Time) ([]Record, error) {
	logger := logging.FromContext(ctx)

	u := s.client.base
	u.Path = fmt.Sprintf("%sbik_db_%s.zip", legacyRawPath, on.Format("02012006"))

	body, err := s.client.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch banks: %w", err)
	}

	swifts, err := s.SwiftIndex(ctx)
	if err != nil {
		return nil, err
	}

	return decodeLegacy(body, swifts, logger)
}

// SwiftIndex fetches the BIC to SWIFT cross-reference. The feed is
// published on a best-effort basis and its absence degrades the entries
// to empty SWIFT codes instead of failing the directory.
func (s *Service) SwiftIndex(ctx context.Context) (map[string]string, error) {
	logger := logging.FromContext(ctx)

	body, err := s.client.Get(ctx, s.client.swift)
	if err != nil {
		if errors.Is(err, httputil.ErrNoData) {
			logger.Printf("swift codes unavailable: %v", err)

			return nil, nil
		}

		return nil, fmt.Errorf("fetch swift codes: %w", err)
	}

	table, err := legacyTable(body, "bik_swif.dbf")
	if err != nil {
		return nil, err
	}

	swifts := make(map[string]string, table.NumberOfRecords())

	for i := 0; i < table.NumberOfRecords(); i++ {
		row := dbfRow{table: table, row: i}

		bic := row.value("KOD_RUS")
		code := row.value("KOD_SWIFT")

		if row.err != nil {
			return nil, fmt.Errorf("bik_swif.dbf: %w", row.err)
		}

		swifts[bic] = code
	}

	return swifts, nil
}

func decodeLegacy(b []byte, swifts map[string]string, logger *log.Logger) ([]Record, error) {
	var refErr *multierror.Error

	regions, err := legacyRegions(b)
	refErr = multierror.Append(refErr, err)

	placeTypes, err := legacyPlaceTypes(b)
	refErr = multierror.Append(refErr, err)

	kinds, err := legacyKinds(b)
	refErr = multierror.Append(refErr, err)

	payTypes, err := legacyPayTypes(b)
	refErr = multierror.Append(refErr, err)

	if err := refErr.ErrorOrNil(); err != nil {
		return nil, err
	}

	table, err := legacyTable(b, "bnkseek.dbf")
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, table.NumberOfRecords())

	for i := 0; i < table.NumberOfRecords(); i++ {
		row := dbfRow{table: table, row: i}

		bic := row.value("NEWNUM")
		regionCode := row.value("RGN")

		bank := &BankLegacy{
			BIC:         bic,
			SWIFT:       swifts[bic],
			Name:        row.value("NAMEN"),
			NameFull:    row.value("NAMEP"),
			RegionCode:  regionCode,
			Zip:         row.value("IND"),
			Place:       row.value("NNP"),
			Address:     row.value("ADR"),
			RKCBIC:      row.value("RKC"),
			Term:        row.intValue("SROK"),
			DateAdded:   row.dateValue("DATE_IN", logger),
			DateUpdated: row.dateValue("DT_IZM", logger),
			DateChange:  row.dateValue("DT_IZMR", logger),
			MFO:         row.value("PERMFO"),
			Corr:        row.value("KSNP"),
			CorrBIC:     row.value("NEWKS"),
			Phone:       row.value("TELEF"),
			Telegraph:   joinNonEmpty(",", row.value("AT1"), row.value("AT2")),
			Commutator:  row.value("CKS"),
			OKPO:        row.value("OKPO"),
			RegNum:      row.value("REGN"),
			ControlCode: row.value("REAL"),
			ControlDate: row.dateValue("DATE_CH", logger),
		}

		kindCode := row.value("PZN")
		payCode := row.value("UER")
		placeCode := row.value("TNP")

		if row.err != nil {
			return nil, fmt.Errorf("bnkseek.dbf: %w", row.err)
		}

		kind, ok := kinds[kindCode]
		if !ok {
			return nil, fmt.Errorf("BIC %s: pzn %q: %w", bic, kindCode, errUnknownCode)
		}

		payType, ok := payTypes[payCode]
		if !ok {
			return nil, fmt.Errorf("BIC %s: uer %q: %w", bic, payCode, errUnknownCode)
		}

		bank.Kind = kind
		bank.PayType = payType

		if region, ok := regions[regionCode]; ok {
			bank.Region = &region
		}

		if placeType, ok := placeTypes[placeCode]; ok {
			bank.PlaceType = &placeType
		}

		records = append(records, bank)
	}

	return records, nil
}

func legacyRegions(b []byte) (map[string]Region, error) {
	regions := make(map[string]Region)

	err := legacyEachRow(b, "reg.dbf", func(row *dbfRow) {
		region := Region{
			Code:   row.value("RGN"),
			Name:   row.value("NAME"),
			Center: row.value("CENTER"),
		}
		regions[region.Code] = region
	})

	return regions, err
}

func legacyPlaceTypes(b []byte) (map[string]PlaceType, error) {
	placeTypes := make(map[string]PlaceType)

	err := legacyEachRow(b, "tnp.dbf", func(row *dbfRow) {
		placeType := PlaceType{
			Code:      row.value("TNP"),
			FullName:  row.value("FULLNAME"),
			ShortName: row.value("SHORTNAME"),
		}
		placeTypes[placeType.Code] = placeType
	})

	return placeTypes, err
}

func legacyKinds(b []byte) (map[string]InstitutionKind, error) {
	kinds := make(map[string]InstitutionKind)

	err := legacyEachRow(b, "pzn.dbf", func(row *dbfRow) {
		kind := InstitutionKind{
			Code: row.value("PZN"),
			Name: row.value("NAME"),
		}
		kinds[kind.Code] = kind
	})

	return kinds, err
}

func legacyPayTypes(b []byte) (map[string]PayType, error) {
	payTypes := make(map[string]PayType)

	err := legacyEachRow(b, "uer.dbf", func(row *dbfRow) {
		payType := PayType{
			Code: row.value("UER"),
			Name: row.value("UERNAME"),
		}
		payTypes[payType.Code] = payType
	})

	return payTypes, err
}

func legacyEachRow(b []byte, member string, fn func(row *dbfRow)) error {
	table, err := legacyTable(b, member)
	if err != nil {
		return err
	}

	for i := 0; i < table.NumberOfRecords(); i++ {
		row := dbfRow{table: table, row: i}

		fn(&row)

		if row.err != nil {
			return fmt.Errorf("%s: %w", member, row.err)
		}
	}

	return nil
}

func legacyTable(b []byte, member string) (*godbf.DbfTable, error) {
	raw, err := archive.Member(b, member)
	if err != nil {
		return nil, fmt.Errorf("banks archive: %w", err)
	}

	table, err := godbf.NewFromByteArray(raw, legacyEncoding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", member, err)
	}

	return table, nil
}

// dbfRow reads fields of one table row, keeping the first error it hits.
type dbfRow struct {
	table *godbf.DbfTable
	row   int
	err   error
}

func (r *dbfRow) value(name string) string {
	if r.err != nil {
		return ""
	}

	v, err := r.table.FieldValueByName(r.row, name)
	if err != nil {
		r.err = fmt.Errorf("row %d, field %s: %w", r.row, name, err)

		return ""
	}

	return strutil.CleanSpaces(v)
}

func (r *dbfRow) intValue(name string) int {
	v := r.value(name)
	if v == "" {
		return 0
	}

	n, err := strconv.Atoi(v)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("row %d, field %s: %w", r.row, name, err)
	}

	return n
}

func (r *dbfRow) dateValue(name string, logger *log.Logger) time.Time {
	v := r.value(name)
	if v == "" {
		return time.Time{}
	}

	t, err := time.Parse(legacyDateFormat, v)
	if err != nil {
		logger.Printf("unable to parse date %q: %v", v, err)

		return time.Time{}
	}

	return t
}

func joinNonEmpty(sep string, parts ...string) string {
	joined := make([]string, 0, len(parts))

	for _, part := range parts {
		if part != "" {
			joined = append(joined, part)
		}
	}

	return strings.Join(joined, sep)
}
