package document

import (
	"errors"
	"fmt"
)

// PDFUnavailableMessage is shown when a PDF cannot be rasterized.
const PDFUnavailableMessage = "PDF support is unavailable in this build. Upload a JPG or PNG image instead."

// NoMetricsMessage is shown when no indicator matched the recognized text.
const NoMetricsMessage = "No metric was found in the document. Adjust the patterns (PATTERNS_FILE) or check the scan quality."

var (
	// ErrEmptyFile is returned for zero-byte uploads.
	ErrEmptyFile = errors.New("file is empty")

	// ErrFileTooLarge is returned when the upload exceeds the configured limit.
	ErrFileTooLarge = errors.New("file exceeds the maximum upload size")

	// ErrUnsupportedFormat is returned for anything but PDF, PNG and JPEG.
	ErrUnsupportedFormat = errors.New("unsupported file format: upload a PDF, PNG or JPG file")

	// ErrRasterizerUnavailable is returned for PDF uploads when no rasterizer
	// is configured and the OCR engine cannot read PDFs natively.
	ErrRasterizerUnavailable = errors.New("PDF rasterizer unavailable")

	// ErrNoPageImages is returned when a PDF has no scanned page image to recognize.
	ErrNoPageImages = errors.New("PDF contains no scanned page images")

	// ErrTooManyPages is returned when a PDF exceeds the page limit.
	ErrTooManyPages = errors.New("PDF has too many pages")
)

// DocumentError wraps errors with the failing document operation.
type DocumentError struct {
	Op      string
	Err     error
	Details string
}

func (e *DocumentError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("document: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("document: %s failed: %v", e.Op, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

func (e *DocumentError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapDocumentError wraps err unless it already is a DocumentError.
func WrapDocumentError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var docErr *DocumentError
	if errors.As(err, &docErr) {
		return err
	}
	return &DocumentError{Op: op, Err: err, Details: details}
}

// IsWarning reports whether err is a non-fatal condition to be shown to the
// user as a warning rather than a failure.
func IsWarning(err error) bool {
	return errors.Is(err, ErrRasterizerUnavailable) || errors.Is(err, ErrNoPageImages)
}

// WarningMessage returns the user-facing text of a warning error.
func WarningMessage(err error) string {
	switch {
	case errors.Is(err, ErrRasterizerUnavailable):
		return PDFUnavailableMessage
	case errors.Is(err, ErrNoPageImages):
		return "The PDF has no scanned pages to read. Upload a JPG or PNG image of the report instead."
	default:
		return err.Error()
	}
}
