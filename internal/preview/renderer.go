// Package preview renders snapshot thumbnails and stores them in a vault.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"folio/internal/folio"
	"folio/internal/model"
)

// pagePoints maps paper sizes to their dimensions in points.
var pagePoints = map[string]image.Point{
	model.PaperLetter: {612, 792},
	model.PaperLegal:  {612, 1008},
	model.PaperA4:     {595, 842},
	model.PaperA5:     {420, 595},
}

// Key returns the vault key of a snapshot's preview image.
func Key(id model.SnapshotID) string {
	return "previews/" + string(id) + ".png"
}

// Renderer draws the first page of a document as a PNG and stores it in a
// vault under previews/<snapshotID>.png.
type Renderer struct {
	vault  folio.Vault
	width  int
	face   font.Face
	logger folio.Logger
}

var _ folio.PreviewRenderer = (*Renderer)(nil)

// NewRenderer creates a Renderer that produces images width pixels wide.
func NewRenderer(vault folio.Vault, width int, logger folio.Logger) (*Renderer, error) {
	if vault == nil {
		return nil, fmt.Errorf("preview renderer requires a vault")
	}
	if width < 64 {
		return nil, fmt.Errorf("preview width must be at least 64 pixels, got %d", width)
	}
	if logger == nil {
		logger = folio.NewNopLogger()
	}
	return &Renderer{vault: vault, width: width, face: basicfont.Face7x13, logger: logger}, nil
}

// RenderPreview renders doc and stores the image. It returns the vault key.
func (r *Renderer) RenderPreview(snapshotID model.SnapshotID, doc *model.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("no document to render")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, r.Render(doc)); err != nil {
		return "", fmt.Errorf("encoding preview: %w", err)
	}

	key := Key(snapshotID)
	if err := r.vault.PutObject(key, &buf, int64(buf.Len())); err != nil {
		return "", fmt.Errorf("storing preview: %w", err)
	}

	r.logger.Debug("preview rendered", "snapshot", snapshotID, "document", doc.ID, "key", key)
	return key, nil
}

// DiscardPreview removes a preview stored by RenderPreview.
func (r *Renderer) DiscardPreview(key string) error {
	if err := r.vault.DeleteObject(key); err != nil {
		return fmt.Errorf("discarding preview: %w", err)
	}
	return nil
}

// Fetch copies a stored preview to w.
func (r *Renderer) Fetch(key string, w io.Writer) error {
	return r.vault.GetObject(key, w)
}

// Render draws the first page of doc: a white page scaled to the renderer's
// width, the title and as much of the plain text as fits inside the margins.
func (r *Renderer) Render(doc *model.Document) *image.RGBA {
	page, ok := pagePoints[strings.ToLower(doc.PaperSize)]
	if !ok {
		page = pagePoints[model.PaperLetter]
	}
	scale := float64(r.width) / float64(page.X)
	height := int(float64(page.Y) * scale)

	img := image.NewRGBA(image.Rect(0, 0, r.width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	margin := func(pt float64) int { return max(4, int(pt*scale)) }
	left := margin(doc.MarginLeft)
	right := r.width - margin(doc.MarginRight)
	top := margin(doc.MarginTop)
	bottom := height - margin(doc.MarginBottom)
	if right-left < 16 || bottom-top < 16 {
		left, right, top, bottom = 4, r.width-4, 4, height-4
	}

	d := &font.Drawer{Dst: img, Src: image.NewUniform(color.Black), Face: r.face}
	metrics := r.face.Metrics()
	lineHeight := metrics.Height.Ceil()
	y := top + metrics.Ascent.Ceil()

	var lines []string
	if title := strings.TrimSpace(doc.Title); title != "" {
		lines = append(lines, wrap(d, title, right-left)...)
		lines = append(lines, "")
	}
	for _, para := range strings.Split(doc.PlainText, "\n") {
		lines = append(lines, wrap(d, strings.TrimRight(para, "\r"), right-left)...)
	}

	for _, line := range lines {
		if y > bottom {
			break
		}
		x := left
		if doc.BodyAlignment == model.AlignCenter || doc.BodyAlignment == model.AlignRight {
			w := d.MeasureString(line).Ceil()
			if doc.BodyAlignment == model.AlignCenter {
				x = left + (right-left-w)/2
			} else {
				x = right - w
			}
		}
		d.Dot = fixed.P(x, y)
		d.DrawString(line)
		y += lineHeight
	}
	return img
}

// wrap breaks text into lines no wider than width pixels. Words wider than a
// line are split by rune.
func wrap(d *font.Drawer, text string, width int) []string {
	limit := fixed.I(width)
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var line string
	for _, word := range words {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if d.MeasureString(candidate) <= limit {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
			line = ""
		}
		for d.MeasureString(word) > limit {
			cut := fitPrefix(d, word, limit)
			lines = append(lines, word[:cut])
			word = word[cut:]
		}
		line = word
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// fitPrefix returns the byte length of the longest prefix of s that fits in
// limit, and at least one rune.
func fitPrefix(d *font.Drawer, s string, limit fixed.Int26_6) int {
	end := 0
	for i, r := range s {
		next := i + len(string(r))
		if end > 0 && d.MeasureString(s[:next]) > limit {
			break
		}
		end = next
	}
	return end
}
