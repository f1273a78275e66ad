// Package parser converts specification documents of each supported schema into the
// canonical spec.Specification model.
package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// document is a markdown file split into frontmatter, body lines and heading outline.
type document struct {
	path        string
	frontmatter map[string]any
	lines       []string
	headings    []heading
}

// heading is one ATX or setext heading. Line is the 0-based index into document.lines.
type heading struct {
	Level int
	Text  string
	Line  int
}

var md = goldmark.New()

// newDocument parses content into a document. Frontmatter that fails to parse is kept
// as part of the body.
func newDocument(path string, content []byte) *document {
	str := strings.ReplaceAll(string(content), "\r\n", "\n")
	doc := &document{path: path}

	body := str
	if strings.HasPrefix(str, "---\n") {
		if fm, rest, err := extractFrontmatter(str); err == nil {
			doc.frontmatter = fm
			body = rest
		}
	}

	doc.lines = strings.Split(body, "\n")
	doc.headings = outline([]byte(body))
	return doc
}

// extractFrontmatter parses YAML frontmatter from markdown content.
// Returns the parsed frontmatter map, the remaining body, and any error.
func extractFrontmatter(content string) (map[string]any, string, error) {
	const delimiter = "---"

	start := len(delimiter) + 1
	closeIdx := strings.Index(content[start:], "\n"+delimiter)
	if closeIdx == -1 {
		return nil, content, fmt.Errorf("no closing frontmatter delimiter")
	}

	yamlContent := content[start : start+closeIdx]

	bodyStart := start + closeIdx + 1 + len(delimiter)
	for bodyStart < len(content) && content[bodyStart] == '\n' {
		bodyStart++
	}

	body := ""
	if bodyStart < len(content) {
		body = content[bodyStart:]
	}

	var frontmatter map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &frontmatter); err != nil {
		return nil, content, fmt.Errorf("parse YAML frontmatter: %w", err)
	}

	return frontmatter, body, nil
}

// outline walks the goldmark AST and returns headings in document order.
// Heading-looking lines inside fenced code blocks are not headings.
func outline(source []byte) []heading {
	starts := lineStarts(source)
	root := md.Parser().Parse(text.NewReader(source))

	var headings []heading
	_ = gast.Walk(root, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		h, ok := n.(*gast.Heading)
		if !ok {
			return gast.WalkContinue, nil
		}

		lines := h.Lines()
		if lines.Len() == 0 {
			return gast.WalkSkipChildren, nil
		}
		first := lines.At(0)
		var sb strings.Builder
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.Write(seg.Value(source))
		}

		headings = append(headings, heading{
			Level: h.Level,
			Text:  strings.TrimSpace(sb.String()),
			Line:  lineOf(starts, first.Start),
		})
		return gast.WalkSkipChildren, nil
	})
	return headings
}

// lineStarts returns the byte offset at which every line begins.
func lineStarts(source []byte) []int {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineOf maps a byte offset to its 0-based line index.
func lineOf(starts []int, offset int) int {
	return sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
}

// section returns the body lines of heading idx, ending at the next heading of any level.
func (d *document) section(idx int) []string {
	end := len(d.lines)
	if idx+1 < len(d.headings) {
		end = d.headings[idx+1].Line
	}
	return d.lines[d.headings[idx].Line+1 : end]
}

// subtree returns the body lines of heading idx including nested subsections, ending at
// the next heading with the same or a higher level.
func (d *document) subtree(idx int) []string {
	end := len(d.lines)
	level := d.headings[idx].Level
	for j := idx + 1; j < len(d.headings); j++ {
		if d.headings[j].Level <= level {
			end = d.headings[j].Line
			break
		}
	}
	return d.lines[d.headings[idx].Line+1 : end]
}

// frontmatterString returns a string frontmatter field or "".
func (d *document) frontmatterString(key string) string {
	if d.frontmatter == nil {
		return ""
	}
	switch v := d.frontmatter[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case int, float64, bool:
		return fmt.Sprint(v)
	}
	return ""
}
