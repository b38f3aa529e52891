package dto

import "errors"

// Custom errors
var (
	ErrNoVehicles      = errors.New("at least one vehicle is required")
	ErrRunNotFound     = errors.New("consultation not found")
	ErrRunNotCompleted = errors.New("consultation not completed yet")
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// StartConsultationResponse returns the identifier of the accepted run.
type StartConsultationResponse struct {
	ConsultationID string `json:"consulta_id"`
}

// ResultResponse is the full payload of a completed run.
type ResultResponse struct {
	ID          string       `json:"id"`
	Fines       []FineRecord `json:"multas"`
	TotalFines  int          `json:"total_multas"`
	TotalAmount float64      `json:"valor_total"`
	ExcelPath   string       `json:"excel_path,omitempty"`
	PDFFiles    []string     `json:"pdf_paths"`
}

// HealthResponse reports liveness plus the number of known runs.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Runs      int    `json:"consultas_ativas"`
}
