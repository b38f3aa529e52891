package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestExtractTextRejectsNonPDF(t *testing.T) {
	// An HTML error page saved under a .pdf name must never reach the parser.
	path := writeTempFile(t, "erro.pdf", []byte("<html><body>Sessão expirada</body></html>"))

	_, err := NewPDFProcessor().ExtractText(path)
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestExtractImagesRejectsNonPDF(t *testing.T) {
	path := writeTempFile(t, "erro.pdf", []byte("not a pdf at all"))

	_, err := NewPDFProcessor().ExtractImages(path)
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestValidatePDFHeader(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		wantErr bool
	}{
		{"valid header", []byte("%PDF-1.7\n..."), false},
		{"html page", []byte("<!DOCTYPE html>"), true},
		{"empty file", nil, true},
		{"truncated magic", []byte("%PD"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempFile(t, "boleto.pdf", tt.content)
			err := validatePDFHeader(path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotPDF)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePDFHeaderMissingFile(t *testing.T) {
	err := validatePDFHeader(filepath.Join(t.TempDir(), "inexistente.pdf"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotPDF)
}
