// Package parser reads evidence documents authored as markdown with a YAML
// frontmatter block.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Document struct {
	Frontmatter map[string]any
	ID          string
	Title       string
	Type        string
	SourcePath  string
	Device      string
	Tags        []string
	Body        string
	SourceFile  string
}

var (
	ErrNoFrontmatter = errors.New("no frontmatter found")
	ErrInvalidYAML   = errors.New("invalid YAML in frontmatter")
	ErrMissingID     = errors.New("frontmatter missing required 'id' field")
	ErrMissingTitle  = errors.New("frontmatter missing required 'title' field")
)

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SourceFile = path
	return doc, nil
}

func Parse(content []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	trimmed = bytes.ReplaceAll(trimmed, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return nil, ErrNoFrontmatter
	}

	rest := trimmed[len("---\n"):]
	end := bytes.Index(rest, []byte("---\n"))
	if end == -1 {
		return nil, ErrNoFrontmatter
	}

	yamlBytes := rest[:end]
	body := strings.TrimSpace(string(rest[end+len("---\n"):]))

	var frontmatter map[string]any
	if err := yaml.Unmarshal(yamlBytes, &frontmatter); err != nil {
		return nil, ErrInvalidYAML
	}

	id := stringField(frontmatter, "id")
	if id == "" {
		return nil, ErrMissingID
	}

	title := stringField(frontmatter, "title")
	if title == "" {
		return nil, ErrMissingTitle
	}

	tags, err := parseTags(frontmatter["tags"])
	if err != nil {
		return nil, err
	}

	return &Document{
		Frontmatter: frontmatter,
		ID:          id,
		Title:       title,
		Type:        stringField(frontmatter, "type"),
		SourcePath:  stringField(frontmatter, "source_path"),
		Device:      stringField(frontmatter, "device"),
		Tags:        tags,
		Body:        body,
	}, nil
}

func stringField(frontmatter map[string]any, key string) string {
	value, ok := frontmatter[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

// parseTags accepts a list of strings or a single comma separated string.
// Blank and repeated tags are dropped.
func parseTags(value any) ([]string, error) {
	var raw []string
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		raw = strings.Split(v, ",")
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("tags must be strings, got %T", item)
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("tags must be a string or a list of strings")
	}

	var tags []string
	seen := make(map[string]struct{}, len(raw))
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags, nil
}
