package rates

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rudanko/cbref/internal/xmlutil"
	"github.com/shopspring/decimal"
)

var (
	errDecodeToken     = errors.New("decoding of the markup failed")
	errElementNotValid = errors.New("element is not valid")
)

// dailyRecord is one Valute element of the daily feed, with numeric fields
// already parsed. Value arrives with a comma fraction separator.
type dailyRecord struct {
	ID    string
	Num   string
	Code  string
	Name  string
	Par   decimal.Decimal
	Value decimal.Decimal
}

// decodeDaily parses an XML_daily payload into the published date and raw
// per-currency records. The date in the ValCurs element is the date the
// table was actually published on, which on non-business days is earlier
// than the one requested.
func decodeDaily(b []byte) (time.Time, []dailyRecord, error) {
	var published time.Time
	var list []dailyRecord

	err := walkValCurs(b, func(tp xml.StartElement, decoder *xml.Decoder) error {
		var node dailyNode
		if err := decoder.DecodeElement(&node, &tp); err != nil {
			return err
		}

		published = time.Time(node.Date)
		list = make([]dailyRecord, 0, len(node.Rates))

		for _, item := range node.Rates {
			par, value, err := parseMoney(item.Nominal, item.Value)
			if err != nil {
				return fmt.Errorf("%s: %w", item.ID, err)
			}

			list = append(list, dailyRecord{
				ID:    strings.TrimSpace(item.ID),
				Num:   strings.TrimSpace(item.NumCode),
				Code:  strings.TrimSpace(item.CharCode),
				Name:  strings.TrimSpace(item.Name),
				Par:   par,
				Value: value,
			})
		}

		return nil
	})
	if err != nil {
		return time.Time{}, nil, err
	}

	return published, list, nil
}

// dynamicsRecord is one Record element of the XML_dynamic feed.
type dynamicsRecord struct {
	Date  time.Time
	Par   decimal.Decimal
	Value decimal.Decimal
}

func decodeDynamics(b []byte) ([]dynamicsRecord, error) {
	var list []dynamicsRecord

	err := walkValCurs(b, func(tp xml.StartElement, decoder *xml.Decoder) error {
		var node dynamicsNode
		if err := decoder.DecodeElement(&node, &tp); err != nil {
			return err
		}

		list = make([]dynamicsRecord, 0, len(node.Records))

		for _, item := range node.Records {
			par, value, err := parseMoney(item.Nominal, item.Value)
			if err != nil {
				return fmt.Errorf("on %s: %w", time.Time(item.Date).Format(respDateFormat), err)
			}

			list = append(list, dynamicsRecord{
				Date:  time.Time(item.Date),
				Par:   par,
				Value: value,
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return list, nil
}

// walkValCurs runs the token loop shared by both rate feeds: both wrap
// their payload in a single ValCurs element.
func walkValCurs(b []byte, fn func(tp xml.StartElement, decoder *xml.Decoder) error) error {
	decoder := xml.NewDecoder(bytes.NewReader(b))
	decoder.CharsetReader = xmlutil.CharsetReader

TokenLoop:
	for {
		token, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break TokenLoop
			}

			var syntaxErr *xml.SyntaxError
			if errors.As(err, &syntaxErr) {
				return fmt.Errorf("%w: %v", errDecodeToken, syntaxErr.Error())
			}

			return fmt.Errorf("decode token: %w", err)
		}

		switch tp := token.(type) {
		case xml.StartElement:
			if tp.Name.Local != "ValCurs" {
				continue TokenLoop
			}

			if err := fn(tp, decoder); err != nil {
				var syntaxErr *xml.SyntaxError
				switch {
				case errors.As(err, &syntaxErr):
					return fmt.Errorf("%w: %v", errDecodeToken, syntaxErr.Error())
				case errors.Is(err, errElementNotValid):
					return err
				default:
					return fmt.Errorf("decode element: %w", err)
				}
			}
		}
	}

	return nil
}

// parseMoney parses the Nominal and Value fields under decimal arithmetic,
// normalizing the comma fraction separator of the raw payload.
func parseMoney(nominal, value string) (par, parValue decimal.Decimal, err error) {
	par, err = decimal.NewFromString(strings.TrimSpace(nominal))
	if err != nil {
		return par, parValue, fmt.Errorf("%w: nominal: %v", errElementNotValid, err)
	}

	if par.Sign() <= 0 {
		return par, parValue, fmt.Errorf("%w: nominal is not positive", errElementNotValid)
	}

	parValue, err = decimal.NewFromString(strings.Replace(strings.TrimSpace(value), ",", ".", -1))
	if err != nil {
		return par, parValue, fmt.Errorf("%w: value: %v", errElementNotValid, err)
	}

	return par, parValue, nil
}

type xmlAttrTime time.Time

func (x *xmlAttrTime) UnmarshalXMLAttr(attr xml.Attr) error {
	t, err := time.Parse(respDateFormat, attr.Value)
	if err != nil {
		return fmt.Errorf("%w: date attr: %v", errElementNotValid, err)
	}

	*x = xmlAttrTime(t)

	return nil
}

type dailyNode struct {
	Date  xmlAttrTime `xml:"Date,attr"`
	Rates []struct {
		ID       string `xml:"ID,attr"`
		NumCode  string `xml:"NumCode"`
		CharCode string `xml:"CharCode"`
		Nominal  string `xml:"Nominal"`
		Name     string `xml:"Name"`
		Value    string `xml:"Value"`
	} `xml:"Valute"`
}

type dynamicsNode struct {
	ID      string `xml:"ID,attr"`
	Records []struct {
		Date    xmlAttrTime `xml:"Date,attr"`
		Nominal string      `xml:"Nominal"`
		Value   string      `xml:"Value"`
	} `xml:"Record"`
}
