package services

import "errors"

// Sentinel errors for claim processing. The first two are caller mistakes and
// map to client errors; everything else is a processing failure.
var (
	ErrNoFiles          = errors.New("no files uploaded")
	ErrNotPDF           = errors.New("file is not a PDF")
	ErrUnsupportedType  = errors.New("unsupported document type")
	ErrExtractionFailed = errors.New("field extraction failed")
	ErrModelRefusal     = errors.New("model refused to answer")
)

// IsClientError reports whether err was caused by the submitted files rather
// than by the pipeline.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoFiles) || errors.Is(err, ErrNotPDF)
}
