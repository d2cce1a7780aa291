package model

import "time"

// Typed identifiers. An empty identifier means the reference is absent.
type (
	ProjectID  string
	BranchID   string
	SnapshotID string
	DocumentID string
)

func (id ProjectID) IsZero() bool  { return id == "" }
func (id BranchID) IsZero() bool   { return id == "" }
func (id SnapshotID) IsZero() bool { return id == "" }
func (id DocumentID) IsZero() bool { return id == "" }

// Project is the aggregate root. Documents, branches and snapshots belong to
// a project through their ProjectID; the project itself only records which
// branch is active.
type Project struct {
	ID             ProjectID // UUID
	Name           string
	Description    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ActiveBranchID BranchID // empty when no branch has been activated yet
}

// Branch is a named pointer to a head snapshot.
type Branch struct {
	ID             BranchID // UUID
	ProjectID      ProjectID
	Name           string
	CreatedAt      time.Time
	IsDefault      bool
	HeadSnapshotID SnapshotID // empty until the first snapshot on this branch
}

// Snapshot is the captured state of every document of a project.
type Snapshot struct {
	ID               SnapshotID // UUID
	ProjectID        ProjectID
	Label            string
	CreatedAt        time.Time
	TriggerType      string // "snapshot", "ai_action", ...
	WordCount        int
	PageCount        int
	PreviewImagePath string     // empty when no preview was rendered
	ParentSnapshotID SnapshotID // branch head at capture time, empty for a root

	// Documents holds the records owned by this snapshot. It is only
	// populated by lookups that load records.
	Documents []*SnapshotDocument
}

// SnapshotDocument is a field-complete copy of one Document, owned by a Snapshot.
type SnapshotDocument struct {
	ID         string // UUID
	SnapshotID SnapshotID
	DocumentID DocumentID // stable across restores
	Content
}

// Document is the live working copy of a composable text document.
type Document struct {
	ID        DocumentID // UUID
	ProjectID ProjectID  // empty until the document joins a project
	CreatedAt time.Time
	UpdatedAt time.Time
	Content
}

// Content is every field captured by a snapshot: the payload, its metadata
// and the full layout configuration.
type Content struct {
	Title        string
	DocumentType string
	RichText     []byte // serialized rich text; nil when only plain text exists
	PlainText    string
	WordCount    int
	Layout
}

// Layout is the page and typography configuration of a document.
type Layout struct {
	PaperSize              string
	MarginTop              float64
	MarginBottom           float64
	MarginLeft             float64
	MarginRight            float64
	LineSpacing            float64
	ParagraphSpacingBefore float64
	ParagraphSpacing       float64
	FirstLineIndent        float64
	BodyFontName           string
	BodyFontSize           float64
	BodyAlignment          string
	HyphenationEnabled     bool
	IncludePageNumbers     bool
	IncludeTableOfContents bool
}

// Paper sizes, alignments and document types known to the layout engine.
const (
	PaperLetter = "letter"
	PaperLegal  = "legal"
	PaperA4     = "a4"
	PaperA5     = "a5"

	AlignLeft      = "left"
	AlignCenter    = "center"
	AlignRight     = "right"
	AlignJustified = "justified"

	TypeArticle = "article"
)

// DefaultLayout returns the layout new documents start with.
func DefaultLayout() Layout {
	return Layout{
		PaperSize:              PaperLetter,
		MarginTop:              72,
		MarginBottom:           72,
		MarginLeft:             72,
		MarginRight:            72,
		LineSpacing:            1.5,
		ParagraphSpacingBefore: 0,
		ParagraphSpacing:       12,
		FirstLineIndent:        0,
		BodyFontName:           "Georgia",
		BodyFontSize:           16,
		BodyAlignment:          AlignLeft,
		HyphenationEnabled:     false,
		IncludePageNumbers:     true,
		IncludeTableOfContents: false,
	}
}

// Clone returns a deep copy of c. RichText is copied so the result shares no
// memory with c.
func (c Content) Clone() Content {
	out := c
	if c.RichText != nil {
		out.RichText = append([]byte(nil), c.RichText...)
	}
	return out
}

// Operation records a CLI command that mutated the database.
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
}
