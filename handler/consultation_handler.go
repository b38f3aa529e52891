package handler

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/samuelmt/detran-fines/dto"
	"github.com/samuelmt/detran-fines/service"
	"github.com/samuelmt/detran-fines/store"
)

type ConsultationHandler struct {
	consultations *service.ConsultationService
	store         store.Store
	downloadDir   string
}

func NewConsultationHandler(consultations *service.ConsultationService, st store.Store, downloadDir string) *ConsultationHandler {
	return &ConsultationHandler{
		consultations: consultations,
		store:         st,
		downloadDir:   downloadDir,
	}
}

// Start handles POST /consultations
func (h *ConsultationHandler) Start(c *gin.Context) {
	var request dto.StartConsultationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	log.Printf("New consultation requested for %d vehicle(s)", len(request.Vehicles))

	id, err := h.consultations.StartConsultation(c.Request.Context(), request.Vehicles)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to start consultation", err)
		return
	}

	c.JSON(http.StatusAccepted, dto.StartConsultationResponse{ConsultationID: id})
}

// History handles GET /consultations
func (h *ConsultationHandler) History(c *gin.Context) {
	runs, err := h.store.ListRuns(c.Request.Context())
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to list consultations", err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

// Status handles GET /consultations/:id/status
func (h *ConsultationHandler) Status(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}
	// Status polling does not carry the full fine list.
	run.Fines = nil
	c.JSON(http.StatusOK, run)
}

// Result handles GET /consultations/:id/result
func (h *ConsultationHandler) Result(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}
	if run.Status != dto.StatusCompleted {
		h.sendError(c, http.StatusBadRequest,
			"Consultation not completed yet, current status: "+string(run.Status), dto.ErrRunNotCompleted)
		return
	}

	c.JSON(http.StatusOK, dto.ResultResponse{
		ID:          run.ID,
		Fines:       run.Fines,
		TotalFines:  run.TotalFines,
		TotalAmount: run.TotalAmount,
		ExcelPath:   run.ExportPath,
		PDFFiles:    h.listReceipts(run),
	})
}

// Excel handles GET /consultations/:id/excel
func (h *ConsultationHandler) Excel(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}

	path, err := h.consultations.EnsureExport(c.Request.Context(), run)
	if err != nil {
		if errors.Is(err, dto.ErrRunNotCompleted) {
			h.sendError(c, http.StatusBadRequest, "Consultation not completed yet", err)
			return
		}
		h.sendError(c, http.StatusNotFound, "Spreadsheet not available", err)
		return
	}

	c.FileAttachment(path, "resultado_detran_"+run.ID+".xlsx")
}

// Receipt handles GET /consultations/:id/pdf/:filename
func (h *ConsultationHandler) Receipt(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}

	filename := filepath.Base(c.Param("filename"))
	if filepath.Ext(filename) != ".pdf" {
		h.sendError(c, http.StatusBadRequest, "Only PDF receipts can be downloaded", nil)
		return
	}

	path := filepath.Join(service.RunDownloadDir(h.downloadDir, run.CreatedAt, run.ID), filename)
	if _, err := os.Stat(path); err != nil {
		h.sendError(c, http.StatusNotFound, "Receipt not found", err)
		return
	}

	c.FileAttachment(path, filename)
}

// Health handles GET /health
func (h *ConsultationHandler) Health(c *gin.Context) {
	count, err := h.store.CountRuns(c.Request.Context())
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Store unavailable", err)
		return
	}
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
		Runs:      count,
	})
}

func (h *ConsultationHandler) loadRun(c *gin.Context) (*dto.ConsultationRun, bool) {
	run, err := h.store.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, dto.ErrRunNotFound) {
			h.sendError(c, http.StatusNotFound, "Consultation not found", err)
		} else {
			h.sendError(c, http.StatusInternalServerError, "Failed to load consultation", err)
		}
		return nil, false
	}
	return run, true
}

func (h *ConsultationHandler) listReceipts(run *dto.ConsultationRun) []string {
	dir := service.RunDownloadDir(h.downloadDir, run.CreatedAt, run.ID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []string{}
	}
	files := []string{}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".pdf" {
			files = append(files, entry.Name())
		}
	}
	return files
}

// sendError sends a structured error response. The curated message is what
// the client sees; the underlying error only goes to the log.
func (h *ConsultationHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	if err != nil {
		log.Printf("Error: %s - %v", message, err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "CONSULTATION_FAILED",
		Message: message,
		Code:    statusCode,
	})
}
