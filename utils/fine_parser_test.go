package utils

import (
	"fmt"
	"testing"

	"github.com/samuelmt/detran-fines/config"
	"github.com/samuelmt/detran-fines/dto"
	"github.com/stretchr/testify/assert"
)

func TestParseRow(t *testing.T) {
	parser := NewFineParser(config.DateOrderPositional)

	raw := "V607910965 -- TRANSITAR EM VELOCIDADE 06/11/2025 30/01/2026 R$ 130,16 R$ 104,13"
	record := parser.ParseRow("SBA7F09", 1, raw)

	assert.Equal(t, "SBA7F09", record.Plate)
	assert.Equal(t, 1, record.Sequence)
	assert.Equal(t, "V607910965", record.AIT)
	assert.Equal(t, "-", record.AITOriginating)
	assert.Equal(t, "TRANSITAR EM VELOCIDADE", record.Description)
	assert.Equal(t, "06/11/2025", record.InfractionDate)
	assert.Equal(t, "30/01/2026", record.DueDate)
	assert.Equal(t, "R$ 130,16", record.Amount)
	assert.Equal(t, "R$ 104,13", record.AmountPayable)
	assert.Equal(t, "-", record.IssuingAgency)
	assert.Equal(t, "-", record.PaymentBarcode)
}

func TestParseRowSingleAmount(t *testing.T) {
	parser := NewFineParser(config.DateOrderPositional)

	record := parser.ParseRow("SBA7F09", 1, "AVANÇAR O SINAL VERMELHO R$ 293,47")

	assert.Equal(t, "R$ 293,47", record.Amount)
	assert.Equal(t, record.Amount, record.AmountPayable)
	assert.Equal(t, "-", record.InfractionDate)
	assert.Equal(t, "-", record.DueDate)
}

func TestParseRowSingleDate(t *testing.T) {
	parser := NewFineParser(config.DateOrderPositional)

	record := parser.ParseRow("SBA7F09", 1, "ESTACIONAR EM LOCAL PROIBIDO 06/11/2025 R$ 195,23")

	assert.Equal(t, "06/11/2025", record.InfractionDate)
	assert.Equal(t, "-", record.DueDate)
}

func TestParseRowMalformed(t *testing.T) {
	parser := NewFineParser(config.DateOrderPositional)

	record := parser.ParseRow("SBA7F09", 3, "   ")

	// A malformed row still yields a record, never an error.
	assert.Equal(t, 3, record.Sequence)
	assert.Equal(t, "-", record.AIT)
	assert.Equal(t, "-", record.Description)
	assert.Equal(t, "-", record.Amount)
	assert.Equal(t, "-", record.AmountPayable)
}

func TestDateOrderPolicies(t *testing.T) {
	// Due date printed before the infraction date.
	raw := "V607910965 -- EXCESSO DE VELOCIDADE 30/01/2026 06/11/2025 R$ 130,16"

	positional := NewFineParser(config.DateOrderPositional).ParseRow("SBA7F09", 1, raw)
	assert.Equal(t, "30/01/2026", positional.InfractionDate)
	assert.Equal(t, "06/11/2025", positional.DueDate)

	chronological := NewFineParser(config.DateOrderChronological).ParseRow("SBA7F09", 1, raw)
	assert.Equal(t, "06/11/2025", chronological.InfractionDate)
	assert.Equal(t, "30/01/2026", chronological.DueDate)
}

func TestParseRowsSequenceNumbers(t *testing.T) {
	parser := NewFineParser(config.DateOrderPositional)

	rows := []string{
		"V607910965 -- TRANSITAR EM VELOCIDADE 06/11/2025 30/01/2026 R$ 130,16 R$ 104,13",
		"garbage row",
		"B123456789 -- ESTACIONAR EM LOCAL PROIBIDO R$ 195,23",
	}
	records := parser.ParseRows("TIF1J98", rows)

	assert.Len(t, records, 3)
	for i, record := range records {
		assert.Equal(t, i+1, record.Sequence)
		assert.Equal(t, "TIF1J98", record.Plate)
	}
}

func TestPendingFineCount(t *testing.T) {
	assert.Equal(t, 3, PendingFineCount("o veículo possui 3 multas pendentes"))
	assert.Equal(t, 1, PendingFineCount("Possui 1 multa em aberto"))
	assert.Equal(t, 0, PendingFineCount("nada consta para este veículo"))
}

func TestExtractPixCode(t *testing.T) {
	page := "Pague via PIX: 856300000010 041300062027 601302026898 06128693005 ou boleto"
	assert.Equal(t, "856300000010 041300062027 601302026898 06128693005", ExtractPixCode(page))
	assert.Equal(t, "-", ExtractPixCode("sem código nesta página"))
}

func TestRowAmount(t *testing.T) {
	assert.InDelta(t, 104.13, RowAmount("multa R$ 130,16 R$ 104,13"), 0.001)
	assert.InDelta(t, 1234.56, RowAmount("taxa R$ 1.234,56"), 0.001)
	assert.Equal(t, 0.0, RowAmount("linha sem valor"))
}

func TestApplyReceiptData(t *testing.T) {
	parser := NewFineParser(config.DateOrderPositional)
	group := parser.ParseRows("SBA7F09", []string{
		"V607910965 -- TRANSITAR EM VELOCIDADE 06/11/2025 30/01/2026 R$ 130,16 R$ 104,13",
		"B123456789 -- ESTACIONAR EM LOCAL PROIBIDO R$ 195,23",
	})

	data := dto.EmptyReceiptData()
	data.IssuingAgency = "DETRAN-CE"
	data.InfractionDate = "07/11/2025"
	data.DueDate = "31/01/2026"

	ApplyReceiptData(group, data, "8466000000 | TRANSITAR EM VELOCIDADE")

	for _, record := range group {
		assert.Equal(t, "DETRAN-CE", record.IssuingAgency)
		assert.Equal(t, "8466000000 | TRANSITAR EM VELOCIDADE", record.PaymentBarcode)
		assert.Equal(t, "07/11/2025", record.InfractionDate)
		assert.Equal(t, "31/01/2026", record.DueDate)
	}
}

func TestApplyReceiptDataKeepsProvisionalValues(t *testing.T) {
	parser := NewFineParser(config.DateOrderPositional)
	group := parser.ParseRows("SBA7F09", []string{
		"V607910965 -- TRANSITAR EM VELOCIDADE 06/11/2025 30/01/2026 R$ 130,16 R$ 104,13",
	})

	ApplyReceiptData(group, dto.EmptyReceiptData(), "-")

	assert.Equal(t, "06/11/2025", group[0].InfractionDate)
	assert.Equal(t, "30/01/2026", group[0].DueDate)
	assert.Equal(t, "-", group[0].IssuingAgency)
	assert.Equal(t, "-", group[0].PaymentBarcode)
}

func TestFormatAmountBR(t *testing.T) {
	cases := map[float64]string{
		0:       "0,00",
		104.13:  "104,13",
		1234.5:  "1.234,50",
		1234567: "1.234.567,00",
		-130.16: "-130,16",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatAmountBR(in), fmt.Sprintf("input %v", in))
	}
}

func TestParseAmountBR(t *testing.T) {
	assert.InDelta(t, 130.16, ParseAmountBR("130,16"), 0.001)
	assert.InDelta(t, 1234567.89, ParseAmountBR("1.234.567,89"), 0.001)
	assert.Equal(t, 0.0, ParseAmountBR("abc"))
}
