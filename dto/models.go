package dto

import "time"

// FieldMissing is the placeholder stored wherever extraction found nothing.
const FieldMissing = "-"

type RunStatus string

const (
	StatusPending    RunStatus = "pending"
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusError      RunStatus = "error"
)

// Vehicle identifies one vehicle to consult on the portal.
type Vehicle struct {
	Plate   string `json:"placa" binding:"required"`
	Renavam string `json:"renavam" binding:"required"`
}

// FineRecord is one traffic fine found for a vehicle. Dates and amounts are
// provisional (table-derived) until receipt reconciliation fills in the
// issuing agency, payment code and authoritative dates.
type FineRecord struct {
	Plate          string `json:"placa"`
	Sequence       int    `json:"numero"`
	AIT            string `json:"ait"`
	AITOriginating string `json:"ait_originaria"`
	Description    string `json:"motivo"`
	InfractionDate string `json:"data_infracao"`
	DueDate        string `json:"data_vencimento"`
	Amount         string `json:"valor"`
	AmountPayable  string `json:"valor_a_pagar"`
	IssuingAgency  string `json:"orgao_autuador"`
	PaymentBarcode string `json:"codigo_pagamento"`
}

// ReceiptData holds the fields recovered from one downloaded receipt PDF.
// Every field defaults to FieldMissing.
type ReceiptData struct {
	IssuingAgency  string
	Barcode        string
	Description    string
	InfractionDate string
	DueDate        string
}

func EmptyReceiptData() ReceiptData {
	return ReceiptData{
		IssuingAgency:  FieldMissing,
		Barcode:        FieldMissing,
		Description:    FieldMissing,
		InfractionDate: FieldMissing,
		DueDate:        FieldMissing,
	}
}

// PaymentField combines barcode and description into the single value stored
// on the records: "<barcode> | <description>" when both are present.
func (r ReceiptData) PaymentField() string {
	switch {
	case r.Barcode != FieldMissing && r.Description != FieldMissing:
		return r.Barcode + " | " + r.Description
	case r.Barcode != FieldMissing:
		return r.Barcode
	case r.Description != FieldMissing:
		return r.Description
	default:
		return FieldMissing
	}
}

// VehicleStatus tracks the progress of one vehicle inside a run.
type VehicleStatus struct {
	Plate       string    `json:"placa"`
	Status      RunStatus `json:"status"`
	FineCount   int       `json:"multas_count"`
	TotalAmount float64   `json:"valor_total"`
	Message     string    `json:"mensagem,omitempty"`
}

// ConsultationRun is one batch request covering one or more vehicles,
// tracked from submission until every vehicle reached a terminal state.
type ConsultationRun struct {
	ID          string          `json:"id"`
	Status      RunStatus       `json:"status"`
	Vehicles    []VehicleStatus `json:"veiculos"`
	Fines       []FineRecord    `json:"multas"`
	TotalFines  int             `json:"total_multas"`
	TotalAmount float64         `json:"valor_total"`
	CreatedAt   time.Time       `json:"created_at"`
	ExportPath  string          `json:"excel_path,omitempty"`
	Error       string          `json:"erro,omitempty"`
}
