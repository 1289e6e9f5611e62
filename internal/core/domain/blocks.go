package domain

// TextBlock is a positioned piece of text detected on a document page.
// Coordinates are page pixels, origin top-left: (X1,Y1) upper-left corner,
// (X2,Y2) lower-right corner.
type TextBlock struct {
	Text       string  `json:"text"`
	Page       int     `json:"page"`
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence,omitempty"`
}

// FieldMatch pairs an expected form-field label with the text block that
// carries it and the derived position for the overlay input. Unmatched
// labels are reported with Matched=false and are never guessed.
type FieldMatch struct {
	Label   string     `json:"label"`
	Matched bool       `json:"matched"`
	Block   *TextBlock `json:"block,omitempty"`
	Page    int        `json:"page"`
	InputX  float64    `json:"input_x"`
	InputY  float64    `json:"input_y"`
}

// TranslatedText is an overlay placement for a translated field label.
type TranslatedText struct {
	Text         string  `json:"text"`
	OriginalText string  `json:"original_text"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Confidence   float64 `json:"confidence"`
}
