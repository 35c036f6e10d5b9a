package constants

import (
	"path/filepath"
	"strings"
)

// Coarse file-format hints handed to the renaming prompt. Audio and video
// matter because their extracted text is a transcript, not visual content,
// and the model must not misclassify it.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
	AUDIO = "AUDIO"
	VIDEO = "VIDEO"
	DOCX  = "DOCX"
	TEXT  = "TEXT"
	OTHER = "OTHER"
)

// SupportedExtractionMimeTypes is the allow-list checked before calling the
// extraction webhook. Unsupported types short-circuit to "skip extraction".
var SupportedExtractionMimeTypes = map[string]struct{}{
	"application/pdf":    {},
	"text/plain":         {},
	"text/html":          {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       {},
	"image/jpeg":      {},
	"image/png":       {},
	"image/tiff":      {},
	"audio/mpeg":      {},
	"audio/mp4":       {},
	"audio/wav":       {},
	"audio/ogg":       {},
	"video/mp4":       {},
	"video/quicktime": {},
	"video/webm":      {},
}

// IsSupportedExtractionMime reports whether the webhook accepts mime.
func IsSupportedExtractionMime(mime string) bool {
	_, ok := SupportedExtractionMimeTypes[strings.ToLower(strings.TrimSpace(mime))]
	return ok
}

// ConvertibleImageMimeTypes are images the upload path converts to PDF.
var ConvertibleImageMimeTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/webp": {},
}

// IsConvertibleImage reports whether the file should be converted to a
// single-page PDF before storage, judged by mime type first and extension as
// a fallback.
func IsConvertibleImage(mime, filename string) bool {
	if _, ok := ConvertibleImageMimeTypes[strings.ToLower(mime)]; ok {
		return true
	}
	switch NormalizeExt(filepath.Ext(filename)) {
	case "jpg", "jpeg", "png", "webp":
		return true
	}
	return false
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// FormatHint maps a mime type (falling back to the filename extension) to the
// coarse format hint used by the renaming prompt.
func FormatHint(mime, filename string) string {
	m := strings.ToLower(strings.TrimSpace(mime))
	switch {
	case m == "application/pdf":
		return PDF
	case strings.HasPrefix(m, "image/"):
		return IMAGE
	case strings.HasPrefix(m, "audio/"):
		return AUDIO
	case strings.HasPrefix(m, "video/"):
		return VIDEO
	case m == "application/vnd.openxmlformats-officedocument.wordprocessingml.document" || m == "application/msword":
		return DOCX
	case strings.HasPrefix(m, "text/"):
		return TEXT
	}
	switch NormalizeExt(filepath.Ext(filename)) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png", "webp", "tiff", "tif":
		return IMAGE
	case "mp3", "wav", "ogg", "m4a":
		return AUDIO
	case "mp4", "mov", "webm", "avi":
		return VIDEO
	case "doc", "docx":
		return DOCX
	case "txt", "md", "html":
		return TEXT
	}
	return OTHER
}

// MimeTypeByExt returns the mime type for a filename extension, or
// application/octet-stream when unknown.
func MimeTypeByExt(filename string) string {
	switch NormalizeExt(filepath.Ext(filename)) {
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	case "tiff", "tif":
		return "image/tiff"
	case "txt":
		return "text/plain"
	case "html":
		return "text/html"
	case "doc":
		return "application/msword"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case "xls":
		return "application/vnd.ms-excel"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "mp3":
		return "audio/mpeg"
	case "mp4":
		return "video/mp4"
	}
	return "application/octet-stream"
}
