package client

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"

	"github.com/otiai10/gosseract/v2"
)

// OCRClient wraps Tesseract for scanned receipts that carry no text layer.
type OCRClient struct {
	tessdataPrefix string
}

func NewOCRClient(tessdataPrefix string) *OCRClient {
	return &OCRClient{
		tessdataPrefix: tessdataPrefix,
	}
}

// ExtractTextFromImage runs OCR over one receipt page image.
func (c *OCRClient) ExtractTextFromImage(img image.Image) (string, error) {
	tempFile, err := c.saveTempPNG(img)
	if err != nil {
		return "", err
	}
	defer os.Remove(tempFile)

	return c.extractText(tempFile)
}

func (c *OCRClient) saveTempPNG(img image.Image) (string, error) {
	tempFile, err := os.CreateTemp("", "receipt-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp image file: %w", err)
	}
	defer tempFile.Close()

	if err := png.Encode(tempFile, img); err != nil {
		os.Remove(tempFile.Name())
		return "", fmt.Errorf("failed to encode image to PNG: %w", err)
	}
	return tempFile.Name(), nil
}

func (c *OCRClient) extractText(filePath string) (string, error) {
	ocr := gosseract.NewClient()
	defer ocr.Close()

	ocr.SetTessdataPrefix(c.tessdataPrefix)

	// Receipts are in Portuguese.
	if err := ocr.SetLanguage("por"); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}

	if err := ocr.SetImage(filePath); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := ocr.Text()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return text, nil
}

// Close performs cleanup
func (c *OCRClient) Close() {
	log.Println("OCR client closed")
}
