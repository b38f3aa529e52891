package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/samuelmt/detran-fines/dto"
)

func sampleRecords() []dto.FineRecord {
	return []dto.FineRecord{
		{
			Plate:          "SBA7F09",
			Sequence:       1,
			AIT:            "V607910965",
			AITOriginating: "-",
			Description:    "TRANSITAR EM VELOCIDADE SUPERIOR A MAXIMA PERMITIDA EM ATE 20%",
			InfractionDate: "06/11/2025",
			DueDate:        "30/01/2026",
			Amount:         "130,16",
			AmountPayable:  "104,13",
			IssuingAgency:  "DETRAN-CE",
			PaymentBarcode: "84660000001301602620232104003800391402320252025",
		},
		{
			Plate:          "SBA7F09",
			Sequence:       2,
			AIT:            "B123456789",
			AITOriginating: "-",
			Description:    "ESTACIONAR EM LOCAL PROIBIDO",
			InfractionDate: "01/10/2025",
			DueDate:        "-",
			Amount:         "195,23",
			AmountPayable:  "195,23",
			IssuingAgency:  "-",
			PaymentBarcode: "-",
		},
	}
}

func TestExportRoundTrip(t *testing.T) {
	svc := NewExportService()
	path := filepath.Join(t.TempDir(), "resultado.xlsx")

	require.NoError(t, svc.Export(sampleRecords(), path))

	got, err := svc.Read(path)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
}

func TestExportLayout(t *testing.T) {
	svc := NewExportService()
	path := filepath.Join(t.TempDir(), "resultado.xlsx")
	require.NoError(t, svc.Export(sampleRecords(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, columnHeaders, rows[0])

	width, err := f.GetColWidth(SheetName, "E")
	require.NoError(t, err)
	assert.Equal(t, 55.0, width)
}

func TestExportCreatesMissingDir(t *testing.T) {
	svc := NewExportService()
	path := filepath.Join(t.TempDir(), "nested", "deep", "resultado.xlsx")

	require.NoError(t, svc.Export(sampleRecords(), path))

	records, err := svc.Read(path)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestExportEmptyRecords(t *testing.T) {
	svc := NewExportService()
	path := filepath.Join(t.TempDir(), "vazio.xlsx")

	require.NoError(t, svc.Export(nil, path))

	records, err := svc.Read(path)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadMissingFile(t *testing.T) {
	svc := NewExportService()
	_, err := svc.Read(filepath.Join(t.TempDir(), "inexistente.xlsx"))
	assert.Error(t, err)
}
