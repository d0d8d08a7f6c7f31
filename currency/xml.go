package currency

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rudanko/cbref/internal/xmlutil"
	"github.com/shopspring/decimal"
)

var (
	errDecodeToken     = errors.New("decoding of the markup failed")
	errElementNotValid = errors.New("element is not valid")
)

// decodeBulk parses one XML_valFull.asp feed into currency records. The
// ISO numeric code arrives without leading zeros and is renormalized here;
// currencies retired from circulation come without ISO codes at all and
// keep the corresponding fields empty.
func decodeBulk(b []byte) ([]Currency, error) {
	var list []Currency

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
				return nil, fmt.Errorf("%w: %v", errDecodeToken, syntaxErr.Error())
			}

			return nil, fmt.Errorf("decode token: %w", err)
		}

		switch tp := token.(type) {
		case xml.StartElement:
			if tp.Name.Local != "Valuta" {
				continue TokenLoop
			}

			var node bulkNode
			if err := decoder.DecodeElement(&node, &tp); err != nil {
				var syntaxErr *xml.SyntaxError
				if errors.As(err, &syntaxErr) {
					return nil, fmt.Errorf("%w: %v", errDecodeToken, syntaxErr.Error())
				}

				return nil, fmt.Errorf("decode element: %w", err)
			}

			for _, item := range node.Items {
				c, err := item.currency()
				if err != nil {
					return nil, err
				}

				list = append(list, c)
			}
		}
	}

	return list, nil
}

type bulkNode struct {
	Items []bulkItem `xml:"Item"`
}

type bulkItem struct {
	ID       string `xml:"ID,attr"`
	Name     string `xml:"Name"`
	EngName  string `xml:"EngName"`
	Nominal  string `xml:"Nominal"`
	NumCode  string `xml:"ISO_Num_Code"`
	CharCode string `xml:"ISO_Char_Code"`
}

func (i bulkItem) currency() (Currency, error) {
	id := strings.TrimSpace(i.ID)
	if id == "" {
		return Currency{}, fmt.Errorf("item without ID: %w", errElementNotValid)
	}

	par, err := decimal.NewFromString(strings.TrimSpace(i.Nominal))
	if err != nil {
		return Currency{}, fmt.Errorf("%w: nominal of %s: %v", errElementNotValid, id, err)
	}

	num := strings.TrimSpace(i.NumCode)
	if num != "" {
		num = zfill(num, 3)
	}

	return Currency{
		ID:      id,
		NameRu:  strings.TrimSpace(i.Name),
		NameEng: strings.TrimSpace(i.EngName),
		Num:     num,
		Code:    strings.TrimSpace(i.CharCode),
		Par:     par,
	}, nil
}
