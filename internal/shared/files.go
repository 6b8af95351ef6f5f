package shared

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxUploadBytes is the size ceiling accepted for statement uploads.
const MaxUploadBytes = 10 * 1024 * 1024

var pdfMagic = []byte("%PDF-")

// VerifyAndReadFile checks that the path points to a regular file and returns its contents.
func VerifyAndReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidInput, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return data, nil
}

// ValidatePDF rejects files that are not PDFs or exceed [MaxUploadBytes].
//
// A file passes when either its extension is .pdf or its content starts with
// the PDF magic header, matching the server's content-type check.
func ValidatePDF(path string, data []byte) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".pdf" && !bytes.HasPrefix(data, pdfMagic) {
		return fmt.Errorf("%w: %s", ErrNotAPDF, filepath.Base(path))
	}
	if len(data) > MaxUploadBytes {
		return fmt.Errorf("%w: %s is %.1f MB", ErrFileTooLarge, filepath.Base(path), float64(len(data))/(1024*1024))
	}
	return nil
}
