package banks

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const ed807Fixture = `<?xml version="1.0" encoding="windows-1251"?>
<ED807 xmlns="urn:cbr-ru:ed:v2.0" EDNo="1" EDDate="2020-11-04" CreationReason="FRMT" DirectoryVersion="4066">
<BICDirectoryEntry BIC="044525225">
	<ParticipantInfo NameP="ПАО СБЕРБАНК" EnglName="SBERBANK" RegN="1481" CntrCd="RU" Rgn="45" Ind="117997" Tnp="г" Nnp="Москва" Adr="ул Вавилова, 19" DateIn="1991-03-20" PtType="20" Srvcs="3" XchType="1" UID="4525225000013" ParticipantStatus="PSAC"/>
	<SWBICS SWBIC="SABRRUM3XXX"/>
	<SWBICS SWBIC="SABRRUMMXXX" DefaultSWBIC="1"/>
	<Accounts Account="30102810945250000999" RegulationAccountType="CBRA" AccountStatus="ACAC" DateIn="2017-02-06"/>
	<Accounts Account="30101810499999999999" RegulationAccountType="CRSA" AccountStatus="ACDL" DateIn="2002-09-30"/>
	<Accounts Account="30101810400000000225" RegulationAccountType="CRSA" AccountStatus="ACAC" DateIn="2017-02-06"/>
</BICDirectoryEntry>
<BICDirectoryEntry BIC="044525487">
	<ParticipantInfo NameP="АО КБ МОСКОММЕРЦБАНК" RegN="3365" Rgn="45" Ind="119049" Tnp="г" Nnp="Москва" Adr="Якиманская наб, 2" DateIn="2005-02-10" PtType="20" ParticipantStatus="PSAC">
		<RstrList Rstr="URRS" RstrDate="2022-03-01"/>
	</ParticipantInfo>
	<Accounts Account="30101810045250000487" RegulationAccountType="CRSA" AccountStatus="ACAC" DateIn="2005-02-10">
		<AccRstrList AccRstr="LWRS" AccRstrDate="2022-03-05"/>
	</Accounts>
</BICDirectoryEntry>
<BICDirectoryEntry BIC="044599999">
	<ParticipantInfo NameP="ЛИКВИДИРОВАННЫЙ БАНК" RegN="1" Rgn="45" DateIn="1999-01-01" PtType="20" ParticipantStatus="PSDL"/>
	<SWBICS SWBIC="DELDRUMMXXX" DefaultSWBIC="1"/>
</BICDirectoryEntry>
</ED807>`

const ed807DoubleCorrFixture = `<ED807 xmlns="urn:cbr-ru:ed:v2.0" EDNo="1" EDDate="2020-11-04">
<BICDirectoryEntry BIC="044525225">
	<ParticipantInfo NameP="BANK" RegN="1" Rgn="45" DateIn="2017-02-06" PtType="20" ParticipantStatus="PSAC"/>
	<Accounts Account="30101810400000000225" RegulationAccountType="CRSA" AccountStatus="ACAC"/>
	<Accounts Account="30101810400000000226" RegulationAccountType="CRSA" AccountStatus="ACAC"/>
</BICDirectoryEntry>
</ED807>`

func TestService_DirectoryED807(t *testing.T) {
	t.Parallel()

	archive := buildZip(t, map[string][]byte{
		"20201104ED01OSBR.xml": encodeWin1251(t, ed807Fixture),
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/vfs/mcirabis/BIKNew/20201104ED01OSBR.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})

	service, done := newTestService(t, mux)
	defer done()

	directory, err := service.Directory(context.Background(), time.Date(2020, 11, 4, 15, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("directory: %v", err)
	}

	if directory.Len() != 2 {
		t.Fatalf("want 2 records, got %d", directory.Len())
	}

	rec, err := directory.Find("044525225")
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	bank, ok := rec.(*Bank)
	if !ok {
		t.Fatalf("want *Bank, got %T", rec)
	}

	expected := &Bank{
		BIC:         "044525225",
		SWIFT:       "SABRRUMMXXX",
		Name:        "ПАО СБЕРБАНК",
		NameEng:     "SBERBANK",
		Kind:        "Кредитная организация",
		CountryCode: "RU",
		RegionCode:  "45",
		Zip:         "117997",
		PlaceType:   "г",
		Place:       "Москва",
		Address:     "ул Вавилова, 19",
		RegNum:      "1481",
		Corr:        "30101810400000000225",
		DateAdded:   time.Date(1991, 3, 20, 0, 0, 0, 0, time.UTC),
	}

	if diff := cmp.Diff(expected, bank); diff != "" {
		t.Errorf("bad bank (-want, +got):\n%s", diff)
	}

	bySwift, err := directory.Find("SABRRUMMXXX")
	if err != nil {
		t.Fatalf("find by swift: %v", err)
	}

	if bySwift != rec {
		t.Error("swift and bic keys resolve to different records")
	}

	rec, err = directory.Find("044525487")
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	restricted, ok := rec.(*Bank)
	if !ok {
		t.Fatalf("want *Bank, got %T", rec)
	}

	if !restricted.Restricted {
		t.Error("want restricted bank")
	}

	expectedRestrictions := []Restriction{
		{
			Code:  "URRS",
			Title: "Ограничение предоставления сервиса срочного перевода",
			Date:  time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			Code:    "LWRS",
			Title:   "Отзыв (аннулирование) лицензии",
			Date:    time.Date(2022, 3, 5, 0, 0, 0, 0, time.UTC),
			Account: "30101810045250000487",
		},
	}

	if diff := cmp.Diff(expectedRestrictions, restricted.Restrictions); diff != "" {
		t.Errorf("bad restrictions (-want, +got):\n%s", diff)
	}

	for _, key := range []string{"044599999", "DELDRUMMXXX"} {
		if _, err := directory.Find(key); !errors.Is(err, ErrBankNotFound) {
			t.Errorf("key %q: want %v, got %v", key, ErrBankNotFound, err)
		}
	}

	if _, err := directory.Find(""); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("want %v, got %v", ErrEmptyKey, err)
	}
}

func TestDecodeED807DoubleCorr(t *testing.T) {
	t.Parallel()

	_, err := decodeED807([]byte(ed807DoubleCorrFixture), log.New(os.Stderr, "", 0))
	if !errors.Is(err, ErrCorrAccounts) {
		t.Errorf("want %v, got %v", ErrCorrAccounts, err)
	}
}

func TestDecodeED807Broken(t *testing.T) {
	t.Parallel()

	_, err := decodeED807([]byte("<ED807><BICDirectoryEntry"), log.New(os.Stderr, "", 0))
	if !errors.Is(err, errDecodeToken) {
		t.Errorf("want %v, got %v", errDecodeToken, err)
	}
}
