package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/samuelmt/detran-fines/dto"
	"github.com/samuelmt/detran-fines/store"
	"github.com/samuelmt/detran-fines/utils"
)

// Portal is the browser-automation collaborator. The aggregator only ever
// sees raw page text, raw row text and downloaded file paths through it.
type Portal interface {
	StartSession(ctx context.Context, vehicle dto.Vehicle) (PortalSession, error)
	Close() error
}

// PortalSession is one vehicle's consultation flow on the portal.
type PortalSession interface {
	// PageText returns the visible text of the current page.
	PageText(ctx context.Context) (string, error)
	// OpenFineDetails navigates from the summary to the fine table.
	OpenFineDetails(ctx context.Context) error
	// FineRows returns the raw text of each table row.
	FineRows(ctx context.Context) ([]string, error)
	// SelectRows ticks the checkboxes of the given row indexes and reports
	// how many were actually selected.
	SelectRows(ctx context.Context, indexes []int) (int, error)
	// IssueReceipt triggers receipt generation and downloads the PDF into
	// dir, returning its path.
	IssueReceipt(ctx context.Context, dir string) (string, error)
	Close() error
}

// PortalFactory builds one independent browser instance. Each run owns its
// own so concurrent runs never share browser state.
type PortalFactory func() (Portal, error)

// ReceiptReader reconciles a downloaded receipt into structured data.
type ReceiptReader interface {
	ReadReceipt(path string) dto.ReceiptData
}

// Exporter writes records to a spreadsheet at an explicit path.
type Exporter interface {
	Export(records []dto.FineRecord, path string) error
}

// ConsultationService drives consultation runs end-to-end: one background
// worker per run, vehicles strictly sequential within it.
type ConsultationService struct {
	store         store.Store
	portalFactory PortalFactory
	receipts      ReceiptReader
	exporter      Exporter
	parser        *utils.FineParser

	downloadDir    string
	exportDir      string
	delay          time.Duration
	vehicleTimeout time.Duration
}

func NewConsultationService(
	st store.Store,
	portalFactory PortalFactory,
	receipts ReceiptReader,
	exporter Exporter,
	parser *utils.FineParser,
	downloadDir, exportDir string,
	delay, vehicleTimeout time.Duration,
) *ConsultationService {
	return &ConsultationService{
		store:          st,
		portalFactory:  portalFactory,
		receipts:       receipts,
		exporter:       exporter,
		parser:         parser,
		downloadDir:    downloadDir,
		exportDir:      exportDir,
		delay:          delay,
		vehicleTimeout: vehicleTimeout,
	}
}

// StartConsultation registers a new run and processes it in the background.
// Only a failure to create the run record aborts the submission.
func (s *ConsultationService) StartConsultation(ctx context.Context, vehicles []dto.Vehicle) (string, error) {
	run := &dto.ConsultationRun{
		ID:        uuid.NewString(),
		Status:    dto.StatusPending,
		CreatedAt: time.Now(),
		Fines:     []dto.FineRecord{},
	}
	for _, v := range vehicles {
		run.Vehicles = append(run.Vehicles, dto.VehicleStatus{
			Plate:   v.Plate,
			Status:  dto.StatusPending,
			Message: "Aguardando processamento",
		})
	}

	if err := s.store.CreateRun(ctx, run); err != nil {
		return "", fmt.Errorf("failed to create run record: %w", err)
	}

	log.Printf("Consultation %s accepted with %d vehicle(s)", run.ID, len(vehicles))
	go s.processRun(run, vehicles)

	return run.ID, nil
}

func (s *ConsultationService) processRun(run *dto.ConsultationRun, vehicles []dto.Vehicle) {
	ctx := context.Background()

	portal, err := s.portalFactory()
	if err != nil {
		// Failure outside the per-vehicle loop: the whole run errors.
		run.Status = dto.StatusError
		run.Error = err.Error()
		s.save(ctx, run)
		log.Printf("Consultation %s aborted: %v", run.ID, err)
		return
	}
	defer portal.Close()

	run.Status = dto.StatusProcessing
	s.save(ctx, run)

	for i, vehicle := range vehicles {
		if i > 0 {
			// Portal rate limit: fixed pause between vehicles.
			time.Sleep(s.delay)
		}

		vs := &run.Vehicles[i]
		vs.Status = dto.StatusProcessing
		vs.Message = "Consultando DETRAN-CE..."
		s.save(ctx, run)

		total, fines, err := s.processVehicle(ctx, portal, run, vehicle)
		if err != nil {
			vs.Status = dto.StatusError
			vs.Message = "Erro: " + err.Error()
			log.Printf("Vehicle %s failed: %v", vehicle.Plate, err)
		} else {
			vs.Status = dto.StatusCompleted
			vs.FineCount = len(fines)
			vs.TotalAmount = total
			vs.Message = fmt.Sprintf("%d multa(s) encontrada(s)", len(fines))
			run.Fines = append(run.Fines, fines...)
			run.TotalFines += len(fines)
			run.TotalAmount += total
		}
		s.save(ctx, run)
	}

	// Every vehicle reached a terminal state: the run is complete even when
	// some vehicles errored.
	run.Status = dto.StatusCompleted
	s.save(ctx, run)
	log.Printf("Consultation %s completed: %d fine(s), R$ %s total",
		run.ID, run.TotalFines, utils.FormatAmountBR(run.TotalAmount))

	if len(run.Fines) > 0 {
		path := s.exportPath(run.ID)
		if err := s.exporter.Export(run.Fines, path); err != nil {
			// Export failure never demotes a completed run; the export can
			// be retried later from the stored records.
			log.Printf("Export failed for consultation %s: %v", run.ID, err)
		} else {
			run.ExportPath = path
			s.save(ctx, run)
		}
	}
}

func (s *ConsultationService) processVehicle(ctx context.Context, portal Portal, run *dto.ConsultationRun, vehicle dto.Vehicle) (total float64, fines []dto.FineRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("consultation panicked: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.vehicleTimeout)
	defer cancel()

	session, err := portal.StartSession(ctx, vehicle)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to open consultation: %w", err)
	}
	defer session.Close()

	pageText, err := session.PageText(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read consultation page: %w", err)
	}

	pending := utils.PendingFineCount(pageText)
	log.Printf("Vehicle %s: %d pending fine(s) announced", vehicle.Plate, pending)
	if pending == 0 {
		return 0, nil, nil
	}

	if err := session.OpenFineDetails(ctx); err != nil {
		return 0, nil, fmt.Errorf("failed to open fine details: %w", err)
	}

	rows, err := session.FineRows(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read fine table: %w", err)
	}

	// Only rows with a strictly positive amount count as fines; the rest
	// never consume a sequence number.
	var indexes []int
	var validRows []string
	for i, row := range rows {
		if amount := utils.RowAmount(row); amount > 0 {
			indexes = append(indexes, i)
			validRows = append(validRows, row)
			total += amount
		}
	}
	if len(validRows) == 0 {
		return 0, nil, nil
	}

	group := s.parser.ParseRows(vehicle.Plate, validRows)

	selected, err := session.SelectRows(ctx, indexes)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to select fines: %w", err)
	}
	log.Printf("Vehicle %s: %d of %d fine(s) selected", vehicle.Plate, selected, len(indexes))

	// The PIX code is only shown on the selection page, before issuing.
	pix := dto.FieldMissing
	if text, perr := session.PageText(ctx); perr == nil {
		pix = utils.ExtractPixCode(text)
	}

	dir := RunDownloadDir(s.downloadDir, run.CreatedAt, run.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("Failed to create download dir %s: %v", dir, err)
	}

	data := dto.EmptyReceiptData()
	pdfPath, err := session.IssueReceipt(ctx, dir)
	if err != nil || pdfPath == "" {
		// The group keeps its provisional table-derived values.
		log.Printf("Vehicle %s: receipt not downloaded: %v", vehicle.Plate, err)
	} else {
		data = s.receipts.ReadReceipt(pdfPath)
	}

	payment := data.PaymentField()
	if pix != dto.FieldMissing {
		if payment != dto.FieldMissing {
			payment = pix + " | " + payment
		} else {
			payment = pix
		}
	}

	// Back-fill exactly this round's group; earlier vehicles are untouched.
	utils.ApplyReceiptData(group, data, payment)

	return total, group, nil
}

// EnsureExport returns the spreadsheet path for a completed run, exporting
// it now if the original attempt failed. Export is idempotent given the
// stored records.
func (s *ConsultationService) EnsureExport(ctx context.Context, run *dto.ConsultationRun) (string, error) {
	if run.Status != dto.StatusCompleted {
		return "", dto.ErrRunNotCompleted
	}
	if run.ExportPath != "" {
		if _, err := os.Stat(run.ExportPath); err == nil {
			return run.ExportPath, nil
		}
	}
	if len(run.Fines) == 0 {
		return "", fmt.Errorf("consultation %s has no fines to export", run.ID)
	}

	path := s.exportPath(run.ID)
	if err := s.exporter.Export(run.Fines, path); err != nil {
		return "", err
	}
	run.ExportPath = path
	s.save(ctx, run)
	return path, nil
}

func (s *ConsultationService) exportPath(runID string) string {
	return filepath.Join(s.exportDir, "resultado_detran_"+runID+".xlsx")
}

func (s *ConsultationService) save(ctx context.Context, run *dto.ConsultationRun) {
	if err := s.store.UpdateRun(ctx, run); err != nil {
		// The in-flight run state stays intact; only the snapshot is stale.
		log.Printf("Failed to persist run %s: %v", run.ID, err)
	}
}

// RunDownloadDir is where one run's receipts live: a per-date directory with
// a per-run subdirectory, so no two runs ever share a download path.
func RunDownloadDir(base string, createdAt time.Time, runID string) string {
	return filepath.Join(base, createdAt.Format("02-01-2006"), runID)
}
