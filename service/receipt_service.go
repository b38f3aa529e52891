package service

import (
	"image"
	"log"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"

	"github.com/samuelmt/detran-fines/dto"
	"github.com/samuelmt/detran-fines/utils"
)

// OCRClient turns a rendered page image back into text. Used only when a
// receipt PDF carries no usable text layer.
type OCRClient interface {
	ExtractTextFromImage(img image.Image) (string, error)
}

// ReceiptService reads a downloaded receipt PDF and reconciles it into
// structured data. Every failure degrades to "-" fields instead of an
// error: the caller keeps the provisional table-derived values.
type ReceiptService struct {
	processor PDFProcessor
	ocr       OCRClient
}

// Below this many characters the text layer is considered unusable and the
// OCR fallback kicks in.
const minReceiptTextLen = 20

func NewReceiptService(processor PDFProcessor, ocr OCRClient) *ReceiptService {
	return &ReceiptService{
		processor: processor,
		ocr:       ocr,
	}
}

// ReadReceipt extracts the receipt text and runs the reconciliation cascade.
func (s *ReceiptService) ReadReceipt(path string) dto.ReceiptData {
	text, err := s.processor.ExtractText(path)
	if err != nil {
		log.Printf("Receipt text extraction failed for %s: %v", path, err)
		text = ""
	}

	var images []image.Image

	// Scanned receipt: no text layer, OCR the page images instead.
	if len(strings.TrimSpace(text)) < minReceiptTextLen && s.ocr != nil {
		images = s.extractImages(path)
		if ocrText := s.ocrImages(images); ocrText != "" {
			text = ocrText
		}
	}

	logReceiptPreview(text)
	data := utils.ParseReceipt(text)

	// No numeric payment line in the text: try decoding the printed barcode.
	if data.Barcode == dto.FieldMissing {
		if images == nil {
			images = s.extractImages(path)
		}
		if digits := decodeBarcodeImages(images); digits != "" {
			data.Barcode = digits
		}
	}

	return data
}

func (s *ReceiptService) extractImages(path string) []image.Image {
	images, err := s.processor.ExtractImages(path)
	if err != nil {
		log.Printf("Receipt image extraction failed for %s: %v", path, err)
		return nil
	}
	return images
}

func (s *ReceiptService) ocrImages(images []image.Image) string {
	var combined strings.Builder
	for _, img := range images {
		pageText, err := s.ocr.ExtractTextFromImage(img)
		if err != nil {
			log.Printf("OCR failed for a receipt page: %v", err)
			continue
		}
		combined.WriteString(pageText)
		combined.WriteString("\n")
	}
	return combined.String()
}

// decodeBarcodeImages tries an ITF decode over the receipt images. Boleto
// barcodes encode 44 digits; the typeable line carries 47 or 48.
func decodeBarcodeImages(images []image.Image) string {
	reader := oned.NewITFReader()
	for _, img := range images {
		bmp, err := gozxing.NewBinaryBitmapFromImage(img)
		if err != nil {
			continue
		}
		result, err := reader.Decode(bmp, nil)
		if err != nil {
			continue
		}
		digits := result.GetText()
		if n := len(digits); n >= 44 && n <= 48 {
			return digits
		}
	}
	return ""
}

func logReceiptPreview(text string) {
	lines := strings.Split(text, "\n")
	if len(lines) > 8 {
		lines = lines[:8]
	}
	log.Println("Receipt preview (first lines):")
	for _, line := range lines {
		log.Printf("   %s", line)
	}
}
