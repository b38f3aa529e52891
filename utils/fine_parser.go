package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samuelmt/detran-fines/config"
	"github.com/samuelmt/detran-fines/dto"
)

var (
	aitRegex      = regexp.MustCompile(`([A-Z]{1,3}\d{6,})\s*--`)
	aitStripRegex = regexp.MustCompile(`[A-Z]{1,3}\d{6,}\s*--\s*`)
	dateRegex     = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
	amountRegex   = regexp.MustCompile(`R\$\s*([\d.,]+)`)
	checkboxRegex = regexp.MustCompile(`^\s*[□☐✓]*\s*`)
	spaceRegex    = regexp.MustCompile(`\s+`)
	pendingRegex  = regexp.MustCompile(`(?i)possui\s+(\d+)\s+multa`)
	pixRegex      = regexp.MustCompile(`\d{12}\s+\d{12}\s+\d{12}\s+\d{11}`)
)

// FineParser turns raw table-row text into FineRecords. Parsing is
// best-effort: a malformed row yields a record full of "-" placeholders,
// never an error, so the one-record-per-selected-row invariant holds.
type FineParser struct {
	policy config.DateOrderPolicy
}

func NewFineParser(policy config.DateOrderPolicy) *FineParser {
	return &FineParser{policy: policy}
}

// ParseRows parses one round of selected rows for a vehicle, assigning
// 1-based sequence numbers in row order. The returned slice is the exact
// group a later receipt reconciliation must be applied to.
func (p *FineParser) ParseRows(plate string, rows []string) []dto.FineRecord {
	records := make([]dto.FineRecord, 0, len(rows))
	for i, row := range rows {
		records = append(records, p.ParseRow(plate, i+1, row))
	}
	return records
}

// ParseRow parses a single scraped table row.
func (p *FineParser) ParseRow(plate string, sequence int, raw string) dto.FineRecord {
	record := dto.FineRecord{
		Plate:          plate,
		Sequence:       sequence,
		AIT:            dto.FieldMissing,
		AITOriginating: dto.FieldMissing,
		Description:    dto.FieldMissing,
		InfractionDate: dto.FieldMissing,
		DueDate:        dto.FieldMissing,
		Amount:         dto.FieldMissing,
		AmountPayable:  dto.FieldMissing,
		IssuingAgency:  dto.FieldMissing,
		PaymentBarcode: dto.FieldMissing,
	}

	if m := aitRegex.FindStringSubmatch(raw); len(m) > 1 {
		record.AIT = m[1]
	}

	record.InfractionDate, record.DueDate = p.extractDates(raw)
	record.Amount, record.AmountPayable = extractAmounts(raw)

	description := checkboxRegex.ReplaceAllString(raw, "")
	description = aitStripRegex.ReplaceAllString(description, "")
	description = dateRegex.ReplaceAllString(description, "")
	description = amountRegex.ReplaceAllString(description, "")
	description = strings.TrimSpace(spaceRegex.ReplaceAllString(description, " "))
	if description != "" {
		record.Description = description
	}

	return record
}

func (p *FineParser) extractDates(raw string) (infraction, due string) {
	infraction, due = dto.FieldMissing, dto.FieldMissing

	dates := dateRegex.FindAllString(raw, -1)
	switch {
	case len(dates) == 0:
		return
	case len(dates) == 1:
		infraction = dates[0]
		return
	}

	infraction, due = dates[0], dates[1]
	if p.policy == config.DateOrderChronological {
		first, err1 := time.Parse("02/01/2006", dates[0])
		second, err2 := time.Parse("02/01/2006", dates[1])
		if err1 == nil && err2 == nil && second.Before(first) {
			infraction, due = dates[1], dates[0]
		}
	}
	return
}

func extractAmounts(raw string) (amount, payable string) {
	amount, payable = dto.FieldMissing, dto.FieldMissing

	matches := amountRegex.FindAllStringSubmatch(raw, -1)
	values := make([]string, 0, len(matches))
	for _, m := range matches {
		values = append(values, m[1])
	}

	switch {
	case len(values) == 1:
		amount = "R$ " + values[0]
		payable = amount
	case len(values) >= 2:
		amount = "R$ " + values[len(values)-2]
		payable = "R$ " + values[len(values)-1]
	}
	return
}

// RowAmount returns the last currency value on a row as a float, or 0 when
// none parses. Rows with a zero amount are not treated as fines.
func RowAmount(raw string) float64 {
	matches := amountRegex.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return 0
	}
	return ParseAmountBR(matches[len(matches)-1][1])
}

// PendingFineCount reads the "possui N multa(s)" announcement from the
// consultation page body. No match means no pending fines.
func PendingFineCount(pageText string) int {
	m := pendingRegex.FindStringSubmatch(pageText)
	if len(m) < 2 {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// ExtractPixCode scans page text for the PIX payment code shown before the
// receipt is issued (four space-separated digit groups of 12/12/12/11).
func ExtractPixCode(pageText string) string {
	if m := pixRegex.FindString(pageText); m != "" {
		return strings.TrimSpace(m)
	}
	return dto.FieldMissing
}

// ApplyReceiptData back-fills one reconciliation result onto the exact group
// of records produced by the same round. Provisional table values survive
// wherever the receipt yielded nothing.
func ApplyReceiptData(group []dto.FineRecord, data dto.ReceiptData, paymentField string) {
	for i := range group {
		if data.IssuingAgency != dto.FieldMissing {
			group[i].IssuingAgency = data.IssuingAgency
		}
		if paymentField != dto.FieldMissing {
			group[i].PaymentBarcode = paymentField
		}
		if data.InfractionDate != dto.FieldMissing {
			group[i].InfractionDate = data.InfractionDate
		}
		if data.DueDate != dto.FieldMissing {
			group[i].DueDate = data.DueDate
		}
	}
}

// ParseAmountBR converts "1.234,56" to 1234.56.
func ParseAmountBR(s string) float64 {
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatAmountBR renders 1234.5 as "1.234,50".
func FormatAmountBR(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	parts := strings.SplitN(s, ".", 2)
	intPart, decPart := parts[0], parts[1]

	negative := strings.HasPrefix(intPart, "-")
	if negative {
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	out := b.String() + "," + decPart
	if negative {
		out = "-" + out
	}
	return out
}
