package gemini

import (
	"fmt"
	"strings"

	"github.com/sevenpast/docintake/internal/core/domain"
)

// The OCR text attached to a classification request is capped so a long
// document cannot blow up the prompt.
const maxOCRSnippet = 8000

func classificationPrompt() string {
	quoted := make([]string, len(domain.Labels))
	for i, l := range domain.Labels {
		quoted[i] = fmt.Sprintf("%q", l)
	}
	return fmt.Sprintf(`You are a strict document classifier for Swiss documents. Allowed labels:
[%s]

Return ONLY compact JSON: {"label":"<string>","confidence":<0..1>,"reasons":["<string>"]}.
If uncertain, use "unknown". No extra text.`, strings.Join(quoted, ","))
}

func ocrSnippetPart(ocrText string) part {
	snippet := ocrText
	if len(snippet) > maxOCRSnippet {
		snippet = snippet[:maxOCRSnippet]
	}
	return textPart("OCR text (optional):\n" + snippet)
}

const extractTextPrompt = "Extract the raw text only, no commentary."

const layoutPrompt = `Detect every text block on the document with its bounding box in page pixels.
Return ONLY a compact JSON array:
[{"text":"<string>","page":<int>,"x1":<number>,"y1":<number>,"x2":<number>,"y2":<number>,"confidence":<0..1>}]
No extra text.`
