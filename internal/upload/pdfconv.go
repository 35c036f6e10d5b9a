package upload

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// convertImageToPDF wraps an image into a single-page PDF. Conversion failures
// are non-fatal to the upload: the caller falls back to storing the original.
func convertImageToPDF(img []byte, logger *slog.Logger) ([]byte, error) {
	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, []io.Reader{bytes.NewReader(img)}, nil, nil); err != nil {
		logger.Warn("image to pdf conversion failed, storing original", "error", err)
		return nil, fmt.Errorf("import image: %w", err)
	}
	return out.Bytes(), nil
}

// pdfFileName swaps the extension for .pdf.
func pdfFileName(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name + ".pdf"
}
