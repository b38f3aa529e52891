package utils

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/samuelmt/detran-fines/dto"
)

// Receipts carry no fixed layout across issuing agencies, so every field is
// recovered by an ordered list of strategies: each one is tried only while
// the field is still unset, and the order is load-bearing on ambiguous
// receipts. ParseReceipt is pure text in, data out, and therefore idempotent.

const fieldSeparator = "|"

// agencyMarkers are tokens that identify a department/agency line.
var agencyMarkers = []string{"DETRAN", "DEMUTRAN", "SEMOB", "PREFEITURA", "AUTUADOR"}

// agencyPatterns is the ordered fallback list matched against the whole
// document when no marker line was found. First match wins.
var agencyPatterns = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`(?i)DEMUTRAN\s+[A-ZÀ-Ú][A-ZÀ-Ú ]*`), ""},
	{regexp.MustCompile(`(?i)SEMOB`), "SEMOB"},
	{regexp.MustCompile(`(?i)POL[IÍ]CIA\s+MILITAR`), "PM"},
	{regexp.MustCompile(`(?i)POL[IÍ]CIA\s+FEDERAL`), "PF"},
	{regexp.MustCompile(`(?i)POL[IÍ]CIA\s+RODOVI[ÁA]RIA`), "PRF"},
	{regexp.MustCompile(`(?i)EMPRESA\s+DE\s+TRANSPORTE`), "Transporte"},
	{regexp.MustCompile(`(?i)DEPARTAMENTO\s+ESTADUAL`), "DETRAN"},
	{regexp.MustCompile(`(?i)AG[ÊE]NCIA\s+DE\s+TR[ÂA]NSITO`), "Trânsito"},
}

var nonDigitRegex = regexp.MustCompile(`\D`)

// dateWindowLines bounds how far below a date header the scan may look.
const dateWindowLines = 10

// ParseReceipt recovers issuing agency, payment barcode, description and
// authoritative dates from the extracted text of one receipt PDF. Fields
// that cannot be recovered stay "-".
func ParseReceipt(text string) dto.ReceiptData {
	data := dto.EmptyReceiptData()
	if strings.TrimSpace(text) == "" {
		return data
	}
	lines := strings.Split(text, "\n")

	for _, strategy := range []func([]string, string) string{findBarcodeLine} {
		if v := strategy(lines, text); v != "" {
			data.Barcode = v
			break
		}
	}

	for _, strategy := range []func([]string, string) string{findAgencyMarkerLine, findAgencyPattern} {
		if v := strategy(lines, text); v != "" {
			data.IssuingAgency = v
			break
		}
	}

	if v := findDescriptionLine(lines); v != "" {
		data.Description = v
	}

	for _, strategy := range []func([]string) (string, string){
		findDatesOnMarkerLine,
		findDatesBelowHeader,
		findDatesChronological,
		findDatesFirstLast,
	} {
		if inf, due := strategy(lines); inf != "" {
			data.InfractionDate = inf
			if due != "" {
				data.DueDate = due
			}
			break
		}
	}

	return data
}

// findBarcodeLine looks for a pure numeric payment code: a line whose
// non-space characters are all digits and whose digit count is 47 or 48.
// Returns the digits concatenated.
func findBarcodeLine(lines []string, _ string) string {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonSpace := strings.Join(strings.Fields(trimmed), "")
		digits := nonDigitRegex.ReplaceAllString(trimmed, "")
		if len(digits) >= 47 && len(digits) <= 48 && len(nonSpace) == len(digits) {
			return digits
		}
	}
	return ""
}

// findAgencyMarkerLine takes the agency from a line that carries both a
// known department marker and a field separator, e.g.
// "DETRAN-CE | V607910965 | ...": everything before the first separator.
func findAgencyMarkerLine(lines []string, _ string) string {
	for _, line := range lines {
		if !strings.Contains(line, fieldSeparator) {
			continue
		}
		upper := strings.ToUpper(line)
		head := strings.TrimSpace(line[:strings.Index(line, fieldSeparator)])
		headUpper := strings.ToUpper(head)
		for _, marker := range agencyMarkers {
			if strings.Contains(upper, marker) && strings.Contains(headUpper, marker) && head != "" {
				return head
			}
		}
	}
	return ""
}

func findAgencyPattern(_ []string, text string) string {
	for _, p := range agencyPatterns {
		if m := p.re.FindString(text); m != "" {
			if p.name == "" {
				return strings.TrimSpace(m)
			}
			return p.name
		}
	}
	return ""
}

// findDescriptionLine returns the first non-empty line after a
// "Descrição (Taxa / Multa)" header.
func findDescriptionLine(lines []string) string {
	for i, line := range lines {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "descri") {
			continue
		}
		if !strings.Contains(lower, "taxa") && !strings.Contains(lower, "multa") {
			continue
		}
		for _, next := range lines[i+1:] {
			if trimmed := strings.TrimSpace(next); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// findDatesOnMarkerLine reads (infraction, due) as the first two dates on a
// line that also carries an agency marker or a field separator. Document
// order is kept: these lines list the infraction date before the due date.
func findDatesOnMarkerLine(lines []string) (string, string) {
	for _, line := range lines {
		if !lineHasAgencyContext(line) {
			continue
		}
		dates := dateRegex.FindAllString(line, -1)
		if len(dates) >= 2 {
			return dates[0], dates[1]
		}
	}
	return "", ""
}

func lineHasAgencyContext(line string) bool {
	if strings.Contains(line, fieldSeparator) {
		return true
	}
	upper := strings.ToUpper(line)
	for _, marker := range agencyMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// findDatesBelowHeader locates a "Data ... Infração ... Vencimento" header
// and scans a bounded window below it for the first line with two dates.
func findDatesBelowHeader(lines []string) (string, string) {
	for i, line := range lines {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "data") ||
			!strings.Contains(lower, "infra") ||
			!strings.Contains(lower, "venc") {
			continue
		}
		end := i + 1 + dateWindowLines
		if end > len(lines) {
			end = len(lines)
		}
		for _, below := range lines[i+1 : end] {
			dates := dateRegex.FindAllString(below, -1)
			if len(dates) >= 2 {
				return dates[0], dates[1]
			}
		}
	}
	return "", ""
}

// findDatesChronological collects every date in the document, keeps the ones
// in a plausible calendar range and sorts them: the earliest is the
// infraction, the earliest strictly later one the due date.
func findDatesChronological(lines []string) (string, string) {
	type parsed struct {
		raw string
		t   time.Time
	}
	var all []parsed
	for _, line := range lines {
		for _, raw := range dateRegex.FindAllString(line, -1) {
			t, err := time.Parse("02/01/2006", raw)
			if err != nil || t.Year() < 2000 || t.Year() > 2100 {
				continue
			}
			all = append(all, parsed{raw: raw, t: t})
		}
	}
	if len(all) < 2 {
		return "", ""
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].t.Before(all[j].t) })

	infraction := all[0]
	for _, candidate := range all[1:] {
		if candidate.t.After(infraction.t) {
			return infraction.raw, candidate.raw
		}
	}
	return "", ""
}

// findDatesFirstLast is the last resort: the first and last dates found
// anywhere in the document, in document order.
func findDatesFirstLast(lines []string) (string, string) {
	var all []string
	for _, line := range lines {
		all = append(all, dateRegex.FindAllString(line, -1)...)
	}
	switch {
	case len(all) >= 2:
		return all[0], all[len(all)-1]
	case len(all) == 1:
		return all[0], ""
	}
	return "", ""
}
