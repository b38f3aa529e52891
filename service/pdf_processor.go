package service

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	// Extracted receipt images arrive as PNG or JPEG.
	_ "image/jpeg"
	_ "image/png"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNotPDF is returned when the downloaded file fails the header-byte check.
var ErrNotPDF = errors.New("file is not a valid PDF")

// Receipts put the barcode, agency and description on the first pages;
// anything beyond is boilerplate.
const maxReceiptPages = 2

type PDFProcessor interface {
	ExtractText(path string) (string, error)
	ExtractImages(path string) ([]image.Image, error)
}

type pdfProcessor struct{}

func NewPDFProcessor() PDFProcessor {
	return &pdfProcessor{}
}

func (p *pdfProcessor) ExtractText(path string) (string, error) {
	if err := validatePDFHeader(path); err != nil {
		return "", err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var textBuilder strings.Builder
	totalPage := r.NumPage()
	if totalPage > maxReceiptPages {
		totalPage = maxReceiptPages
	}

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		rows, _ := page.GetTextByRow()
		for _, row := range rows {
			for i, word := range row.Content {
				if i > 0 {
					textBuilder.WriteString(" ")
				}
				textBuilder.WriteString(word.S)
			}
			textBuilder.WriteString("\n")
		}
	}
	return textBuilder.String(), nil
}

func (p *pdfProcessor) ExtractImages(path string) ([]image.Image, error) {
	if err := validatePDFHeader(path); err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "receipt_images")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractImagesFile(path, tempDir, nil, conf); err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	files, err := os.ReadDir(tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read temp dir: %w", err)
	}

	var images []image.Image
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		imgFile, err := os.Open(filepath.Join(tempDir, file.Name()))
		if err != nil {
			continue
		}

		img, _, err := image.Decode(imgFile)
		imgFile.Close()
		if err != nil {
			continue
		}
		images = append(images, img)
	}

	return images, nil
}

// validatePDFHeader rejects files that do not start with the %PDF magic,
// e.g. an HTML error page saved under a .pdf name by the portal.
func validatePDFHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 5)
	if _, err := f.Read(header); err != nil {
		return ErrNotPDF
	}
	if string(header) != "%PDF-" {
		return ErrNotPDF
	}
	return nil
}
