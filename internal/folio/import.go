package folio

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"folio/internal/model"
)

// maxImportSize caps the size of a single imported file.
const maxImportSize = 8 << 20

var importExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// ImportDocuments creates one document per text or markdown file at path.
// If path is a regular file, only that file is imported. If path is a
// directory, its files are discovered (recursively when requested) and files
// matching ignore rules or with other extensions are skipped.
// Returns the created documents in discovery order.
func (s *Service) ImportDocuments(fsmgr FilesystemManager, project *model.Project, path *Path, recursive bool) ([]*model.Document, error) {
	if !path.IsDir() {
		if !importExtensions[strings.ToLower(filepath.Ext(path.String()))] {
			return nil, fmt.Errorf("unsupported file type: %s", path.String())
		}
		doc, err := s.importFile(fsmgr, project, path)
		if err != nil {
			return nil, err
		}
		return []*model.Document{doc}, nil
	}

	files, err := fsmgr.FindFiles(path, recursive)
	if err != nil {
		return nil, fmt.Errorf("finding files: %w", err)
	}

	var docs []*model.Document
	for _, file := range files {
		if !importExtensions[strings.ToLower(filepath.Ext(file.String()))] {
			continue
		}
		ignored, err := fsmgr.IsIgnored(file, path.String())
		if err != nil {
			return docs, fmt.Errorf("checking ignore rules: %w", err)
		}
		if ignored {
			s.logger.Debug("skipping ignored file", "path", file.String())
			continue
		}

		doc, err := s.importFile(fsmgr, project, file)
		if err != nil {
			return docs, err
		}
		docs = append(docs, doc)
	}

	s.logger.Info("documents imported", "path", path.String(), "count", len(docs))
	return docs, nil
}

func (s *Service) importFile(fsmgr FilesystemManager, project *model.Project, path *Path) (*model.Document, error) {
	if info := path.Info(); info != nil && info.Size() > maxImportSize {
		return nil, fmt.Errorf("file too large to import: %s (%d bytes)", path.String(), info.Size())
	}

	f, err := fsmgr.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path.String(), err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImportSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path.String(), err)
	}
	if len(data) > maxImportSize {
		return nil, fmt.Errorf("file too large to import: %s", path.String())
	}

	text := string(data)
	return s.CreateDocument(project, model.Content{
		Title:     importTitle(path.String(), text),
		PlainText: text,
	})
}

// importTitle uses a leading markdown heading when present, otherwise the
// file name without its extension.
func importTitle(path, text string) string {
	firstLine, _, _ := strings.Cut(text, "\n")
	if title, ok := strings.CutPrefix(strings.TrimSpace(firstLine), "# "); ok {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
