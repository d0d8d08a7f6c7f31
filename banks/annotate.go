package banks

import (
	"strconv"
	"strings"
	"time"
)

// Field is one annotated directory value with its Russian title.
type Field struct {
	Title string
	Value string
}

// Annotate renders directory entries as ordered title and value pairs
// for display. Each variant contributes its own field set, missing
// values render as empty strings. Nil records are skipped.
func Annotate(records ...Record) [][]Field {
	annotated := make([][]Field, 0, len(records))

	for _, rec := range records {
		switch bank := rec.(type) {
		case *Bank:
			if bank != nil {
				annotated = append(annotated, annotateBank(bank))
			}
		case *BankLegacy:
			if bank != nil {
				annotated = append(annotated, annotateLegacy(bank))
			}
		}
	}

	return annotated
}

func annotateBank(bank *Bank) []Field {
	restrictions := make([]string, 0, len(bank.Restrictions))
	for _, rstr := range bank.Restrictions {
		restrictions = append(restrictions, formatRestriction(rstr))
	}

	return []Field{
		{"БИК", bank.BIC},
		{"Код SWIFT", bank.SWIFT},
		{"Название", bank.Name},
		{"Название (англ.)", bank.NameEng},
		{"Дата добавления записи", formatDate(bank.DateAdded)},
		{"Кор. счёт", bank.Corr},
		{"Регистрационный номер", bank.RegNum},
		{"Тип", bank.Kind},
		{"Код страны", bank.CountryCode},
		{"Код региона ОКАТО", bank.RegionCode},
		{"Индекс", bank.Zip},
		{"Тип населённого пункта", bank.PlaceType},
		{"Населённый пункт", bank.Place},
		{"Адрес", bank.Address},
		{"Ограничения", yesNo(bank.Restricted)},
		{"Список ограничений", formatList(restrictions)},
	}
}

func annotateLegacy(bank *BankLegacy) []Field {
	return []Field{
		{"БИК", bank.BIC},
		{"Код SWIFT", bank.SWIFT},
		{"Название", bank.Name},
		{"Полное название", bank.NameFull},
		{"Дата добавления записи", formatDate(bank.DateAdded)},
		{"Дата обновления записи", formatDate(bank.DateUpdated)},
		{"Дата изменения реквизитов", formatDate(bank.DateChange)},
		{"Код контроля", bank.ControlCode},
		{"Дата контроля", formatDate(bank.ControlDate)},
		{"Кор. счёт", bank.Corr},
		{"Кор. счёт (расчёты с БИК)", bank.CorrBIC},
		{"Регистрационный номер", bank.RegNum},
		{"Номер МФО", bank.MFO},
		{"Номер ОКПО", bank.OKPO},
		{"Тип", bestName(bank.Kind.Name)},
		{"Тип расчётов", bestName(bank.PayType.Name)},
		{"Код региона ОКАТО", bank.RegionCode},
		{"Регион", regionName(bank.Region)},
		{"Индекс", bank.Zip},
		{"Тип населённого пункта", placeTypeName(bank.PlaceType)},
		{"Населённый пункт", bank.Place},
		{"Адрес", bank.Address},
		{"Телефон", bank.Phone},
		{"Телеграф", bank.Telegraph},
		{"Коммутатор", bank.Commutator},
		{"БИК РКЦ", bank.RKCBIC},
		{"Срок проведения расчётов (дней)", strconv.Itoa(bank.Term)},
	}
}

// bestName picks the first non-empty candidate of a nested reference
// row.
func bestName(candidates ...string) string {
	for _, candidate := range candidates {
		if candidate != "" {
			return candidate
		}
	}

	return "<no name>"
}

func regionName(region *Region) string {
	if region == nil {
		return ""
	}

	return bestName(region.Name)
}

func placeTypeName(placeType *PlaceType) string {
	if placeType == nil {
		return ""
	}

	return bestName(placeType.FullName)
}

func formatRestriction(rstr Restriction) string {
	title := rstr.Title
	if title == "" {
		title = rstr.Code
	}

	var b strings.Builder
	b.WriteString(title)

	if !rstr.Date.IsZero() {
		b.WriteString(" с ")
		b.WriteString(rstr.Date.Format("2006-01-02"))
	}

	if rstr.Account != "" {
		b.WriteString(", счёт ")
		b.WriteString(rstr.Account)
	}

	return b.String()
}

// formatList renders items as a newline-joined indented block, so a
// multi-valued field reads as a sub-list under its title.
func formatList(items []string) string {
	if len(items) == 0 {
		return ""
	}

	return "\n  " + strings.Join(items, "\n  ")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format("2006-01-02")
}

func yesNo(v bool) string {
	if v {
		return "да"
	}

	return "нет"
}
