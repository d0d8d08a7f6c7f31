package banks

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/encoding/charmap"
)

type dbfColumn struct {
	name   string
	length int
}

// buildDBF assembles a dBase III table with character columns, encoded
// in the DOS codepage the bank publishes its archives in.
func buildDBF(t *testing.T, columns []dbfColumn, rows ...[]string) []byte {
	t.Helper()

	encoder := charmap.CodePage866.NewEncoder()

	recordLength := 1
	for _, column := range columns {
		recordLength += column.length
	}

	buf := bytes.NewBuffer(nil)

	header := make([]byte, 32)
	header[0] = 0x03
	header[1], header[2], header[3] = 18, 4, 2
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(rows)))
	binary.LittleEndian.PutUint16(header[8:10], uint16(32+32*len(columns)+1))
	binary.LittleEndian.PutUint16(header[10:12], uint16(recordLength))
	buf.Write(header)

	for _, column := range columns {
		descriptor := make([]byte, 32)
		copy(descriptor[0:11], column.name)
		descriptor[11] = 'C'
		descriptor[16] = byte(column.length)
		buf.Write(descriptor)
	}
	buf.WriteByte(0x0D)

	for _, row := range rows {
		buf.WriteByte(' ')

		for i, column := range columns {
			value := ""
			if i < len(row) {
				value = row[i]
			}

			encoded, err := encoder.Bytes([]byte(value))
			if err != nil {
				t.Fatalf("encode %q: %v", value, err)
			}

			if len(encoded) > column.length {
				t.Fatalf("value %q does not fit column %s", value, column.name)
			}

			buf.Write(encoded)
			buf.Write(bytes.Repeat([]byte{' '}, column.length-len(encoded)))
		}
	}
	buf.WriteByte(0x1A)

	return buf.Bytes()
}

var bnkseekColumns = []dbfColumn{
	{"NEWNUM", 9}, {"NAMEN", 45}, {"NAMEP", 110}, {"RGN", 2}, {"IND", 6},
	{"TNP", 1}, {"NNP", 25}, {"ADR", 30}, {"RKC", 9}, {"SROK", 2},
	{"DATE_IN", 8}, {"DT_IZM", 8}, {"DT_IZMR", 8}, {"PERMFO", 6},
	{"KSNP", 20}, {"NEWKS", 9}, {"TELEF", 25}, {"AT1", 15}, {"AT2", 15},
	{"CKS", 15}, {"OKPO", 8}, {"REGN", 9}, {"PZN", 2}, {"UER", 1},
	{"REAL", 4}, {"DATE_CH", 8},
}

func legacyArchive(t *testing.T, bnkseekRows ...[]string) []byte {
	t.Helper()

	return buildZip(t, map[string][]byte{
		"reg.dbf": buildDBF(t,
			[]dbfColumn{{"RGN", 2}, {"NAME", 60}, {"CENTER", 60}},
			[]string{"50", "НОВОСИБИРСКАЯ ОБЛАСТЬ", "НОВОСИБИРСК"},
		),
		"pzn.dbf": buildDBF(t,
			[]dbfColumn{{"PZN", 2}, {"NAME", 70}},
			[]string{"20", "КРЕДИТНЫЕ ОРГАНИЗАЦИИ"},
		),
		"tnp.dbf": buildDBF(t,
			[]dbfColumn{{"TNP", 1}, {"FULLNAME", 70}, {"SHORTNAME", 10}},
			[]string{"1", "ГОРОД", "Г"},
		),
		"uer.dbf": buildDBF(t,
			[]dbfColumn{{"UER", 1}, {"UERNAME", 70}},
			[]string{"0", "УЧАСТНИК ПЕРЕВОДОВ"},
		),
		"bnkseek.dbf": buildDBF(t, bnkseekColumns, bnkseekRows...),
	})
}

func sberRow() []string {
	return []string{
		"045004641", "СИБИРСКИЙ БАНК ПАО СБЕРБАНК",
		"СИБИРСКИЙ БАНК ПУБЛИЧНОГО АКЦИОНЕРНОГО ОБЩЕСТВА СБЕРБАНК",
		"50", "630007", "1", "НОВОСИБИРСК", "УЛ. СЕРЕБРЕННИКОВСКАЯ, 20",
		"045004001", "1", "19910122", "20180328", "20180329", "",
		"30101810500000000641", "", "(383) 358-00-00", "СТРИЖ", "",
		"", "00032537", "1481", "20", "0", "", "20180330",
	}
}

func TestService_DirectoryLegacy(t *testing.T) {
	t.Parallel()

	foreignRow := []string{
		"986500000", "НБ РЕСПУБЛИКИ КАЗАХСТАН", "", "00", "", "9",
		"АЛМАТЫ", "", "", "0", "19950101", "", "", "",
		"", "", "", "", "", "", "", "", "20", "0", "", "",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/vfs/mcirabis/BIK/bik_db_02042018.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(legacyArchive(t, sberRow(), foreignRow))
	})
	mux.HandleFunc(swiftRawPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(buildZip(t, map[string][]byte{
			"bik_swif.dbf": buildDBF(t,
				[]dbfColumn{{"KOD_RUS", 9}, {"KOD_SWIFT", 11}},
				[]string{"045004641", "SABRRU66XXX"},
			),
		}))
	})

	service, done := newTestService(t, mux)
	defer done()

	directory, err := service.Directory(context.Background(), time.Date(2018, 4, 2, 15, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("directory: %v", err)
	}

	if directory.Len() != 2 {
		t.Fatalf("want 2 records, got %d", directory.Len())
	}

	rec, err := directory.Find("045004641")
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	bank, ok := rec.(*BankLegacy)
	if !ok {
		t.Fatalf("want *BankLegacy, got %T", rec)
	}

	expected := &BankLegacy{
		BIC:         "045004641",
		SWIFT:       "SABRRU66XXX",
		Name:        "СИБИРСКИЙ БАНК ПАО СБЕРБАНК",
		NameFull:    "СИБИРСКИЙ БАНК ПУБЛИЧНОГО АКЦИОНЕРНОГО ОБЩЕСТВА СБЕРБАНК",
		RegionCode:  "50",
		Region:      &Region{Code: "50", Name: "НОВОСИБИРСКАЯ ОБЛАСТЬ", Center: "НОВОСИБИРСК"},
		Zip:         "630007",
		PlaceType:   &PlaceType{Code: "1", FullName: "ГОРОД", ShortName: "Г"},
		Place:       "НОВОСИБИРСК",
		Address:     "УЛ. СЕРЕБРЕННИКОВСКАЯ, 20",
		RKCBIC:      "045004001",
		Term:        1,
		DateAdded:   time.Date(1991, 1, 22, 0, 0, 0, 0, time.UTC),
		DateUpdated: time.Date(2018, 3, 28, 0, 0, 0, 0, time.UTC),
		DateChange:  time.Date(2018, 3, 29, 0, 0, 0, 0, time.UTC),
		Corr:        "30101810500000000641",
		Phone:       "(383) 358-00-00",
		Telegraph:   "СТРИЖ",
		OKPO:        "00032537",
		RegNum:      "1481",
		Kind:        InstitutionKind{Code: "20", Name: "КРЕДИТНЫЕ ОРГАНИЗАЦИИ"},
		PayType:     PayType{Code: "0", Name: "УЧАСТНИК ПЕРЕВОДОВ"},
		ControlDate: time.Date(2018, 3, 30, 0, 0, 0, 0, time.UTC),
	}

	if diff := cmp.Diff(expected, bank); diff != "" {
		t.Errorf("bad bank (-want, +got):\n%s", diff)
	}

	bySwift, err := directory.Find("SABRRU66XXX")
	if err != nil {
		t.Fatalf("find by swift: %v", err)
	}

	if bySwift != rec {
		t.Error("swift and bic keys resolve to different records")
	}

	rec, err = directory.Find("986500000")
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	foreign, ok := rec.(*BankLegacy)
	if !ok {
		t.Fatalf("want *BankLegacy, got %T", rec)
	}

	// Region code 00 marks institutions outside the country and has no
	// reference row.
	if foreign.Region != nil {
		t.Errorf("want nil region, got %+v", foreign.Region)
	}

	if foreign.PlaceType != nil {
		t.Errorf("want nil place type, got %+v", foreign.PlaceType)
	}

	if foreign.SWIFT != "" {
		t.Errorf("want empty swift, got %q", foreign.SWIFT)
	}
}

func TestService_DirectoryLegacySwiftUnavailable(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/vfs/mcirabis/BIK/bik_db_02042018.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(legacyArchive(t, sberRow()))
	})

	service, done := newTestService(t, mux)
	defer done()

	directory, err := service.Directory(context.Background(), time.Date(2018, 4, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("directory: %v", err)
	}

	rec, err := directory.Find("045004641")
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	if swift := rec.(*BankLegacy).SWIFT; swift != "" {
		t.Errorf("want empty swift, got %q", swift)
	}
}

func TestService_DirectoryLegacyUnknownCode(t *testing.T) {
	t.Parallel()

	row := sberRow()
	row[22] = "99" // PZN with no reference row

	mux := http.NewServeMux()
	mux.HandleFunc("/vfs/mcirabis/BIK/bik_db_02042018.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(legacyArchive(t, row))
	})

	service, done := newTestService(t, mux)
	defer done()

	_, err := service.Directory(context.Background(), time.Date(2018, 4, 2, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, errUnknownCode) {
		t.Errorf("want %v, got %v", errUnknownCode, err)
	}
}
