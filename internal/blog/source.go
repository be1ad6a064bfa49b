// Package blog reads posts from the markdown content directory.
package blog

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/agemilang/portfolio-api/internal/domain"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

var extensions = []string{".mdx", ".md"}

// Source looks posts up by slug in a directory of markdown files.
type Source struct {
	dir string
	md  goldmark.Markdown
}

func NewSource(dir string) *Source {
	return &Source{dir: dir, md: goldmark.New()}
}

type frontMatter struct {
	Title   string   `yaml:"title"`
	Date    string   `yaml:"date"`
	Excerpt string   `yaml:"excerpt"`
	Summary string   `yaml:"summary"`
	Tags    []string `yaml:"tags"`
	Draft   bool     `yaml:"draft"`
}

// PostBySlug returns the published post for slug, or nil when the slug is
// malformed, no file exists, or the post is a draft.
func (s *Source) PostBySlug(slug string) (*domain.BlogPost, error) {
	if !slugPattern.MatchString(slug) {
		return nil, nil
	}

	for _, ext := range extensions {
		raw, err := os.ReadFile(filepath.Join(s.dir, slug+ext))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading post %s: %w", slug, err)
		}

		post, err := s.parse(slug, raw)
		if err != nil {
			return nil, err
		}
		if post.Draft {
			return nil, nil
		}
		return post, nil
	}
	return nil, nil
}

func (s *Source) parse(slug string, raw []byte) (*domain.BlogPost, error) {
	meta, body, err := splitFrontMatter(raw)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", slug, err)
	}

	var fm frontMatter
	if len(meta) > 0 {
		if err := yaml.Unmarshal(meta, &fm); err != nil {
			return nil, fmt.Errorf("post %s: parsing front matter: %w", slug, err)
		}
	}

	excerpt := fm.Excerpt
	if excerpt == "" {
		excerpt = fm.Summary
	}
	if excerpt == "" {
		excerpt = s.firstParagraph(body)
	}

	title := fm.Title
	if title == "" {
		title = slug
	}

	return &domain.BlogPost{
		Slug:    slug,
		Title:   title,
		Date:    fm.Date,
		Excerpt: excerpt,
		Tags:    fm.Tags,
		Draft:   fm.Draft,
		Body:    string(body),
	}, nil
}

var delimiter = []byte("---")

// splitFrontMatter separates a leading "---" delimited YAML block from the
// markdown body. Files without one are all body.
func splitFrontMatter(raw []byte) (meta, body []byte, err error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	first, rest, ok := bytes.Cut(raw, []byte("\n"))
	if !ok || !bytes.Equal(bytes.TrimSpace(first), delimiter) {
		return nil, raw, nil
	}

	var metaLines [][]byte
	for len(rest) > 0 {
		var line []byte
		line, rest, _ = bytes.Cut(rest, []byte("\n"))
		if bytes.Equal(bytes.TrimSpace(line), delimiter) {
			return bytes.Join(metaLines, []byte("\n")), rest, nil
		}
		metaLines = append(metaLines, line)
	}
	return nil, nil, errors.New("unterminated front matter")
}

// firstParagraph returns the plain text of the first top-level paragraph.
func (s *Source) firstParagraph(body []byte) string {
	doc := s.md.Parser().Parse(text.NewReader(body))

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if n.Kind() != ast.KindParagraph {
			continue
		}
		var b strings.Builder
		_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering {
				return ast.WalkContinue, nil
			}
			if t, ok := c.(*ast.Text); ok {
				b.Write(t.Segment.Value(body))
				if t.SoftLineBreak() || t.HardLineBreak() {
					b.WriteByte(' ')
				}
			}
			return ast.WalkContinue, nil
		})
		return strings.TrimSpace(b.String())
	}
	return ""
}
