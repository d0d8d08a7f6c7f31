package banks

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/rudanko/cbref/internal/archive"
	"github.com/rudanko/cbref/internal/logging"
	"github.com/rudanko/cbref/internal/xmlutil"
)

// ED807 attribute markers.
const (
	participantDeleted = "PSDL"
	accountDeleted     = "ACDL"
	corrAccountType    = "CRSA"
	defaultSWBIC       = "1"
)

const ed807DateFormat = "2006-01-02"

var (
	errDecodeToken     = errors.New("unable to decode token")
	errElementNotValid = errors.New("element not valid")
)

// participantTypes decodes the PtType attribute. An unknown code maps to
// an empty kind.
var participantTypes = map[string]string{
	"00": "Главное управление Банка России",
	"10": "Отделение Банка России",
	"12": "Операционное управление Банка России",
	"15": "Полевое учреждение Банка России",
	"20": "Кредитная организация",
	"30": "Филиал кредитной организации",
	"51": "Федеральное казначейство",
	"52": "Территориальный орган Федерального казначейства",
	"71": "Клиент Банка России, не являющийся кредитной организацией",
	"90": "Конкурсный управляющий (ликвидатор, ликвидационная комиссия)",
	"99": "Клиент кредитной организации, являющийся косвенным участником",
}

// restrictionTitles decodes the Rstr and AccRstr attributes.
var restrictionTitles = map[string]string{
	"URRS": "Ограничение предоставления сервиса срочного перевода",
	"LWRS": "Отзыв (аннулирование) лицензии",
	"MRTR": "Мораторий на удовлетворение требований кредиторов",
	"LMRS": "Ограничение участия в платежной системе",
	"FPRS": "Приостановление предоставления сервиса быстрых платежей",
}

// Bank is a directory entry of the ED807 era, July 2018 and later.
type Bank struct {
	BIC   string
	SWIFT string

	Name    string
	NameEng string

	// Kind is the decoded participant type. Empty when the source
	// carries a code this package does not know.
	Kind string

	CountryCode string
	RegionCode  string
	Zip         string
	PlaceType   string
	Place       string
	Address     string

	RegNum string
	Corr   string

	DateAdded time.Time

	Restricted   bool
	Restrictions []Restriction
}

func (*Bank) bankRecord() {}

func (s *Service) ed807Directory(ctx context.Context, on time.Time) ([]Record, error) {
	u := s.client.base
	u.Path = fmt.Sprintf("%s%sED01OSBR.zip", ed807RawPath, on.Format("20060102"))

	body, err := s.client.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch banks: %w", err)
	}

	payload, err := archive.SoleXML(body)
	if err != nil {
		return nil, fmt.Errorf("banks archive: %w", err)
	}

	return decodeED807(payload, logging.FromContext(ctx))
}

type ed807Entry struct {
	BIC      string         `xml:"BIC,attr"`
	Info     ed807Info      `xml:"ParticipantInfo"`
	SWBICS   []ed807SWBIC   `xml:"SWBICS"`
	Accounts []ed807Account `xml:"Accounts"`
}

type ed807Info struct {
	NameP             string      `xml:"NameP,attr"`
	EnglName          string      `xml:"EnglName,attr"`
	RegN              string      `xml:"RegN,attr"`
	CntrCd            string      `xml:"CntrCd,attr"`
	Rgn               string      `xml:"Rgn,attr"`
	Ind               string      `xml:"Ind,attr"`
	Tnp               string      `xml:"Tnp,attr"`
	Nnp               string      `xml:"Nnp,attr"`
	Adr               string      `xml:"Adr,attr"`
	DateIn            string      `xml:"DateIn,attr"`
	PtType            string      `xml:"PtType,attr"`
	ParticipantStatus string      `xml:"ParticipantStatus,attr"`
	Restrictions      []ed807Rstr `xml:"RstrList"`
}

type ed807Rstr struct {
	Rstr     string `xml:"Rstr,attr"`
	RstrDate string `xml:"RstrDate,attr"`
}

type ed807SWBIC struct {
	SWBIC   string `xml:"SWBIC,attr"`
	Default string `xml:"DefaultSWBIC,attr"`
}

type ed807Account struct {
	Account      string         `xml:"Account,attr"`
	AccountType  string         `xml:"RegulationAccountType,attr"`
	Status       string         `xml:"AccountStatus,attr"`
	Restrictions []ed807AccRstr `xml:"AccRstrList"`
}

type ed807AccRstr struct {
	AccRstr     string `xml:"AccRstr,attr"`
	AccRstrDate string `xml:"AccRstrDate,attr"`
}

func decodeED807(b []byte, logger *log.Logger) ([]Record, error) {
	decoder := xml.NewDecoder(bytes.NewReader(b))
	decoder.CharsetReader = xmlutil.CharsetReader

	var records []Record

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, errDecodeToken)
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "BICDirectoryEntry" {
			continue
		}

		var entry ed807Entry
		if err := decoder.DecodeElement(&entry, &start); err != nil {
			return nil, fmt.Errorf("%v: %w", err, errElementNotValid)
		}

		bank, err := assembleBank(entry, logger)
		if err != nil {
			return nil, err
		}

		if bank != nil {
			records = append(records, bank)
		}
	}

	return records, nil
}

// assembleBank converts one directory entry, returning nil for entries
// flagged as deleted.
func assembleBank(entry ed807Entry, logger *log.Logger) (*Bank, error) {
	if entry.Info.ParticipantStatus == participantDeleted {
		return nil, nil
	}

	bank := &Bank{
		BIC:         entry.BIC,
		Name:        entry.Info.NameP,
		NameEng:     entry.Info.EnglName,
		Kind:        participantTypes[entry.Info.PtType],
		CountryCode: entry.Info.CntrCd,
		RegionCode:  entry.Info.Rgn,
		Zip:         entry.Info.Ind,
		PlaceType:   entry.Info.Tnp,
		Place:       entry.Info.Nnp,
		Address:     entry.Info.Adr,
		RegNum:      entry.Info.RegN,
		DateAdded:   parseED807Date(entry.Info.DateIn, logger),
	}

	for _, rstr := range entry.Info.Restrictions {
		bank.Restrictions = append(bank.Restrictions, Restriction{
			Code:  rstr.Rstr,
			Title: restrictionTitles[rstr.Rstr],
			Date:  parseED807Date(rstr.RstrDate, logger),
		})
	}

	for _, account := range entry.Accounts {
		if account.Status == accountDeleted || account.AccountType != corrAccountType {
			continue
		}

		if bank.Corr != "" {
			return nil, fmt.Errorf("BIC %s: %w", entry.BIC, ErrCorrAccounts)
		}

		bank.Corr = account.Account

		for _, rstr := range account.Restrictions {
			bank.Restrictions = append(bank.Restrictions, Restriction{
				Code:    rstr.AccRstr,
				Title:   restrictionTitles[rstr.AccRstr],
				Date:    parseED807Date(rstr.AccRstrDate, logger),
				Account: account.Account,
			})
		}
	}

	for _, swbic := range entry.SWBICS {
		if swbic.Default == defaultSWBIC {
			bank.SWIFT = swbic.SWBIC
			break
		}
	}

	bank.Restricted = len(bank.Restrictions) > 0

	return bank, nil
}

func parseED807Date(s string, logger *log.Logger) time.Time {
	if s == "" {
		return time.Time{}
	}

	t, err := time.Parse(ed807DateFormat, s)
	if err != nil {
		logger.Printf("unable to parse date %q: %v", s, err)

		return time.Time{}
	}

	return t
}
