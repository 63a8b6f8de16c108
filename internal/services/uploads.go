package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Lllllllleong/claimflow/internal/models"
)

// IsPDFFilename reports whether name carries a .pdf extension, ignoring case.
func IsPDFFilename(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

// ValidateUploads rejects an empty submission or any file that is not a PDF.
func ValidateUploads(files []models.UploadedFile) error {
	if len(files) == 0 {
		return ErrNoFiles
	}
	for _, file := range files {
		if !IsPDFFilename(file.Filename) {
			return fmt.Errorf("%w: File %s is not a PDF", ErrNotPDF, file.Filename)
		}
	}
	return nil
}

func calculateContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
