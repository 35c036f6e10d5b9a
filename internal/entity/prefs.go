package entity

// FontPrefs drives the styles applied by the DOCX/PDF export builders.
type FontPrefs struct {
	Family      string  `json:"family"`       // e.g. "Times New Roman"
	SizePt      float64 `json:"size_pt"`      // body size in points
	LineSpacing float64 `json:"line_spacing"` // 1.0 = single
}

// UserPrefs holds per-user export preferences, including optional letterhead
// and signature assets stored as object paths.
type UserPrefs struct {
	UserID         string    `json:"user_id"`
	Font           FontPrefs `json:"font"`
	LetterheadPath *string   `json:"letterhead_path,omitempty"`
	SignaturePath  *string   `json:"signature_path,omitempty"`
}

// DefaultFontPrefs are applied when a user has no saved preferences.
func DefaultFontPrefs() FontPrefs {
	return FontPrefs{Family: "Times New Roman", SizePt: 12, LineSpacing: 1.5}
}
