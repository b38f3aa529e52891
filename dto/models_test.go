package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentField(t *testing.T) {
	tests := []struct {
		name        string
		barcode     string
		description string
		want        string
	}{
		{"both present", "846600000013", "TRANSITAR EM VELOCIDADE", "846600000013 | TRANSITAR EM VELOCIDADE"},
		{"barcode only", "846600000013", FieldMissing, "846600000013"},
		{"description only", FieldMissing, "ESTACIONAR EM LOCAL PROIBIDO", "ESTACIONAR EM LOCAL PROIBIDO"},
		{"neither", FieldMissing, FieldMissing, FieldMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := EmptyReceiptData()
			data.Barcode = tt.barcode
			data.Description = tt.description
			assert.Equal(t, tt.want, data.PaymentField())
		})
	}
}

func TestEmptyReceiptData(t *testing.T) {
	data := EmptyReceiptData()
	assert.Equal(t, FieldMissing, data.IssuingAgency)
	assert.Equal(t, FieldMissing, data.Barcode)
	assert.Equal(t, FieldMissing, data.Description)
	assert.Equal(t, FieldMissing, data.InfractionDate)
	assert.Equal(t, FieldMissing, data.DueDate)
}
