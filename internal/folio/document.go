package folio

import (
	"fmt"
	"strings"

	"folio/internal/model"
)

// CountWords returns the number of whitespace-separated words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// CreateDocument creates a live document with the given content. When
// project is nil the document joins the workspace project. A zero word count
// is computed from the plain text.
func (s *Service) CreateDocument(project *model.Project, content model.Content) (*model.Document, error) {
	if strings.TrimSpace(content.Title) == "" {
		return nil, fmt.Errorf("document title must not be empty")
	}
	if content.DocumentType == "" {
		content.DocumentType = model.TypeArticle
	}
	if content.WordCount == 0 {
		content.WordCount = CountWords(content.PlainText)
	}
	if content.Layout == (model.Layout{}) {
		content.Layout = model.DefaultLayout()
	}

	now := s.clock.Now()
	doc := &model.Document{
		ID:        model.DocumentID(s.idgen.New()),
		CreatedAt: now,
		UpdatedAt: now,
		Content:   content,
	}
	if project != nil {
		doc.ProjectID = project.ID
	}

	if err := s.database.CreateDocument(doc); err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}

	if project == nil {
		if _, err := s.EnsureProject(doc); err != nil {
			return nil, err
		}
	}

	s.logger.Info("document created", "document", doc.ID, "project", doc.ProjectID, "title", content.Title)
	return doc, nil
}

// EditDocument replaces the document's text and recomputes its word count.
// Rich text is dropped because it no longer matches the plain text.
func (s *Service) EditDocument(doc *model.Document, text string) error {
	doc.PlainText = text
	doc.RichText = nil
	doc.WordCount = CountWords(text)
	doc.UpdatedAt = s.clock.Now()

	if err := s.database.UpdateDocument(doc); err != nil {
		return fmt.Errorf("updating document: %w", err)
	}

	s.logger.Debug("document edited", "document", doc.ID, "words", doc.WordCount)
	return nil
}
