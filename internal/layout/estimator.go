// Package layout estimates how documents flow onto pages.
package layout

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"folio/internal/folio"
	"folio/internal/model"
)

// paperSizes holds page dimensions in points (width, height).
var paperSizes = map[string][2]float64{
	model.PaperLetter: {612, 792},
	model.PaperLegal:  {612, 1008},
	model.PaperA4:     {595, 842},
	model.PaperA5:     {420, 595},
}

// cellWidthRatio is the average advance of one terminal cell relative to the
// font size. Wide runes (CJK, emoji) occupy two cells.
const cellWidthRatio = 0.5

// Estimator approximates page counts from a document's plain text and layout.
// It measures text with display cells rather than real font metrics, which is
// close enough for history summaries.
type Estimator struct{}

var _ folio.Paginator = Estimator{}

// NewEstimator creates an Estimator.
func NewEstimator() Estimator {
	return Estimator{}
}

// EstimatePages returns the number of pages doc occupies. Empty documents and
// degenerate layouts count as one page.
func (Estimator) EstimatePages(doc *model.Document) int {
	if doc == nil {
		return 1
	}
	l := doc.Layout

	size, ok := paperSizes[strings.ToLower(l.PaperSize)]
	if !ok {
		size = paperSizes[model.PaperLetter]
	}
	textWidth := size[0] - l.MarginLeft - l.MarginRight
	textHeight := size[1] - l.MarginTop - l.MarginBottom

	fontSize := l.BodyFontSize
	if fontSize <= 0 {
		fontSize = model.DefaultLayout().BodyFontSize
	}
	lineSpacing := l.LineSpacing
	if lineSpacing <= 0 {
		lineSpacing = 1
	}
	lineHeight := fontSize * lineSpacing
	cellWidth := fontSize * cellWidthRatio

	if textWidth < cellWidth || textHeight < lineHeight {
		return 1
	}
	cellsPerLine := int(textWidth / cellWidth)
	indentCells := int(math.Ceil(max(0, l.FirstLineIndent) / cellWidth))

	var height float64
	for _, para := range strings.Split(doc.PlainText, "\n") {
		para = strings.TrimRight(para, "\r")
		if strings.TrimSpace(para) == "" {
			height += lineHeight
			continue
		}
		cells := indentCells + runewidth.StringWidth(para)
		lines := (cells + cellsPerLine - 1) / cellsPerLine
		height += l.ParagraphSpacingBefore + float64(lines)*lineHeight + l.ParagraphSpacing
	}

	pages := int(math.Ceil(height / textHeight))
	if strings.TrimSpace(doc.PlainText) == "" {
		pages = 1
	}
	if l.IncludeTableOfContents {
		pages++
	}
	return max(1, pages)
}
