package layout

import (
	"strings"
	"testing"

	"folio/internal/model"
)

func newDoc(text string, mutate func(*model.Layout)) *model.Document {
	l := model.DefaultLayout()
	if mutate != nil {
		mutate(&l)
	}
	return &model.Document{Content: model.Content{PlainText: text, Layout: l}}
}

func TestEstimator_EstimatePages(t *testing.T) {
	// Default letter layout: 468x648pt text area, 16pt font at 1.5 spacing
	// gives 24pt lines and 58 cells per line.
	longPara := strings.Repeat("word ", 12) // 60 cells, two lines
	manyParas := strings.Repeat(longPara+"\n", 20)

	tests := []struct {
		name string
		doc  *model.Document
		want int
	}{
		{name: "nil document", doc: nil, want: 1},
		{name: "empty text", doc: newDoc("", nil), want: 1},
		{name: "whitespace only", doc: newDoc("  \n\n  ", nil), want: 1},
		{name: "short text", doc: newDoc("Hello, world.", nil), want: 1},
		// 20 paragraphs * (2*24 + 12) = 1200pt over 648pt pages.
		{name: "spills onto second page", doc: newDoc(manyParas, nil), want: 2},
		{name: "table of contents adds a page", doc: newDoc("Hello", func(l *model.Layout) {
			l.IncludeTableOfContents = true
		}), want: 2},
		{name: "unknown paper falls back to letter", doc: newDoc(manyParas, func(l *model.Layout) {
			l.PaperSize = "tabloid-ish"
		}), want: 2},
		{name: "margins swallow the page", doc: newDoc(manyParas, func(l *model.Layout) {
			l.MarginLeft, l.MarginRight = 400, 400
		}), want: 1},
	}

	e := NewEstimator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.EstimatePages(tt.doc); got != tt.want {
				t.Errorf("EstimatePages() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEstimator_SmallerPaperNeedsMorePages(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 400)
	e := NewEstimator()

	letter := e.EstimatePages(newDoc(text, nil))
	a5 := e.EstimatePages(newDoc(text, func(l *model.Layout) { l.PaperSize = model.PaperA5 }))

	if a5 <= letter {
		t.Errorf("a5 pages = %d, letter pages = %d; want a5 > letter", a5, letter)
	}
}

func TestEstimator_WideRunesTakeMoreSpace(t *testing.T) {
	e := NewEstimator()
	narrow := e.EstimatePages(newDoc(strings.Repeat(strings.Repeat("a", 40)+"\n", 40), nil))
	wide := e.EstimatePages(newDoc(strings.Repeat(strings.Repeat("漢", 40)+"\n", 40), nil))

	if wide <= narrow {
		t.Errorf("wide pages = %d, narrow pages = %d; want wide > narrow", wide, narrow)
	}
}
