// Package export writes snapshots as human-readable manifests.
package export

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"folio/internal/model"
)

// Supported output formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Manifest is the exported form of a snapshot and its document records.
type Manifest struct {
	ID          string     `yaml:"id" json:"id"`
	ProjectID   string     `yaml:"project_id" json:"project_id"`
	Label       string     `yaml:"label" json:"label"`
	CreatedAt   time.Time  `yaml:"created_at" json:"created_at"`
	TriggerType string     `yaml:"trigger_type" json:"trigger_type"`
	Parent      string     `yaml:"parent,omitempty" json:"parent,omitempty"`
	WordCount   int        `yaml:"word_count" json:"word_count"`
	PageCount   int        `yaml:"page_count" json:"page_count"`
	Preview     string     `yaml:"preview,omitempty" json:"preview,omitempty"`
	Documents   []Document `yaml:"documents" json:"documents"`
}

// Document is one exported snapshot record.
type Document struct {
	DocumentID   string `yaml:"document_id" json:"document_id"`
	Title        string `yaml:"title" json:"title"`
	DocumentType string `yaml:"document_type" json:"document_type"`
	WordCount    int    `yaml:"word_count" json:"word_count"`
	RichText     string `yaml:"rich_text,omitempty" json:"rich_text,omitempty"` // base64
	PlainText    string `yaml:"plain_text" json:"plain_text"`
	Layout       Layout `yaml:"layout" json:"layout"`
}

// Layout mirrors model.Layout with stable field names.
type Layout struct {
	PaperSize              string  `yaml:"paper_size" json:"paper_size"`
	MarginTop              float64 `yaml:"margin_top" json:"margin_top"`
	MarginBottom           float64 `yaml:"margin_bottom" json:"margin_bottom"`
	MarginLeft             float64 `yaml:"margin_left" json:"margin_left"`
	MarginRight            float64 `yaml:"margin_right" json:"margin_right"`
	LineSpacing            float64 `yaml:"line_spacing" json:"line_spacing"`
	ParagraphSpacingBefore float64 `yaml:"paragraph_spacing_before" json:"paragraph_spacing_before"`
	ParagraphSpacing       float64 `yaml:"paragraph_spacing" json:"paragraph_spacing"`
	FirstLineIndent        float64 `yaml:"first_line_indent" json:"first_line_indent"`
	BodyFontName           string  `yaml:"body_font_name" json:"body_font_name"`
	BodyFontSize           float64 `yaml:"body_font_size" json:"body_font_size"`
	BodyAlignment          string  `yaml:"body_alignment" json:"body_alignment"`
	HyphenationEnabled     bool    `yaml:"hyphenation_enabled" json:"hyphenation_enabled"`
	IncludePageNumbers     bool    `yaml:"include_page_numbers" json:"include_page_numbers"`
	IncludeTableOfContents bool    `yaml:"include_table_of_contents" json:"include_table_of_contents"`
}

// NewManifest builds the manifest of a snapshot. The snapshot's records must
// be loaded.
func NewManifest(s *model.Snapshot) *Manifest {
	m := &Manifest{
		ID:          string(s.ID),
		ProjectID:   string(s.ProjectID),
		Label:       s.Label,
		CreatedAt:   s.CreatedAt.UTC(),
		TriggerType: s.TriggerType,
		Parent:      string(s.ParentSnapshotID),
		WordCount:   s.WordCount,
		PageCount:   s.PageCount,
		Preview:     s.PreviewImagePath,
		Documents:   make([]Document, 0, len(s.Documents)),
	}
	for _, rec := range s.Documents {
		d := Document{
			DocumentID:   string(rec.DocumentID),
			Title:        rec.Title,
			DocumentType: rec.DocumentType,
			WordCount:    rec.WordCount,
			PlainText:    rec.PlainText,
			Layout:       Layout(rec.Layout),
		}
		if rec.RichText != nil {
			d.RichText = base64.StdEncoding.EncodeToString(rec.RichText)
		}
		m.Documents = append(m.Documents, d)
	}
	return m
}

// Write encodes the manifest of s to w in the given format.
func Write(w io.Writer, s *model.Snapshot, format string) error {
	m := NewManifest(s)
	switch format {
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown export format: %q", format)
	}
}
