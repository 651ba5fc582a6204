package story

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"casefile/internal/parser"
)

// loadEvidenceDir imports every markdown document with an id and title
// found under dir. Files without frontmatter are skipped.
func loadEvidenceDir(dir string) ([]Evidence, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking evidence dir %s: %w", dir, err)
	}
	sort.Strings(files)

	evidence := make([]Evidence, 0, len(files))
	for _, path := range files {
		doc, err := parser.ParseFile(path)
		if err != nil {
			if errors.Is(err, parser.ErrNoFrontmatter) {
				continue
			}
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		evidence = append(evidence, Evidence{
			ID:         doc.ID,
			Title:      doc.Title,
			Content:    doc.Body,
			Type:       doc.Type,
			SourcePath: doc.SourcePath,
			Device:     doc.Device,
			Tags:       doc.Tags,
		})
	}
	return evidence, nil
}
