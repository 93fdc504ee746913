package search

import (
	"path/filepath"
	"strings"

	"github.com/justyntemme/tagbrowse/internal/tags"
)

// Directive types
type DirectiveType int

const (
	DirTag     DirectiveType = iota // file must carry the tag
	DirNotTag                       // file must not carry the tag
	DirName                         // glob over the name without its tag block
	DirExt                          // extension of the name
)

// Directive represents a single search directive
type Directive struct {
	Type  DirectiveType
	Value string
}

// Query holds parsed search directives
type Query struct {
	Directives []Directive
	Raw        string
}

// ParseQuery parses a search string into directives. Every directive is
// evaluated against the path string alone.
// Examples:
//   - "cats" -> files tagged cats
//   - "-dogs" or "not:dogs" -> files not tagged dogs
//   - "ext:jpg" -> files with a .jpg extension
//   - "name:vac*" -> files whose untagged name matches vac*
func ParseQuery(input string) *Query {
	q := &Query{Raw: input}
	input = strings.TrimSpace(input)
	if input == "" {
		return q
	}

	for _, part := range splitRespectingQuotes(input) {
		if d, ok := parseDirective(part); ok {
			q.Directives = append(q.Directives, d)
		}
	}
	return q
}

func splitRespectingQuotes(s string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)

	for _, r := range s {
		switch {
		case (r == '"' || r == '\'') && !inQuotes:
			inQuotes = true
			quoteChar = r
		case r == quoteChar && inQuotes:
			inQuotes = false
			quoteChar = 0
		case r == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func parseDirective(s string) (Directive, bool) {
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		rest = strings.TrimPrefix(rest, "tag:")
		if rest == "" {
			return Directive{}, false
		}
		return Directive{Type: DirNotTag, Value: rest}, true
	}

	if idx := strings.Index(s, ":"); idx > 0 {
		value := strings.Trim(s[idx+1:], "\"'")
		switch strings.ToLower(s[:idx]) {
		case "tag":
			return Directive{Type: DirTag, Value: value}, value != ""
		case "not":
			return Directive{Type: DirNotTag, Value: value}, value != ""
		case "filename", "name", "file":
			return Directive{Type: DirName, Value: strings.ToLower(value)}, value != ""
		case "ext", "extension", "type":
			if value == "" {
				return Directive{}, false
			}
			if !strings.HasPrefix(value, ".") {
				value = "." + value
			}
			return Directive{Type: DirExt, Value: strings.ToLower(value)}, true
		}
	}

	// Anything else is a tag, colons included.
	return Directive{Type: DirTag, Value: s}, true
}

// Include returns the tags a match must carry.
func (q *Query) Include() []string {
	return q.values(DirTag)
}

// Exclude returns the tags a match must not carry.
func (q *Query) Exclude() []string {
	return q.values(DirNotTag)
}

func (q *Query) values(t DirectiveType) []string {
	var out []string
	for _, d := range q.Directives {
		if d.Type == t {
			out = append(out, d.Value)
		}
	}
	return out
}

// IsEmpty returns true if query has no directives
func (q *Query) IsEmpty() bool {
	return len(q.Directives) == 0
}

// Match checks if a path matches all directives in the query (AND logic)
func (q *Query) Match(path string) bool {
	if len(q.Directives) == 0 {
		return true
	}

	base := filepath.Base(path)
	set := tags.Decode(path)
	name := strings.ToLower(tags.Strip(base))

	for _, d := range q.Directives {
		var ok bool
		switch d.Type {
		case DirTag:
			ok = hasTag(set, d.Value)
		case DirNotTag:
			ok = !hasTag(set, d.Value)
		case DirName:
			ok = matchGlob(name, d.Value)
		case DirExt:
			ok = strings.ToLower(filepath.Ext(name)) == d.Value
		}
		if !ok {
			return false
		}
	}
	return true
}

// matchGlob does simple glob matching with * wildcards
func matchGlob(name, pattern string) bool {
	// If pattern has no wildcards, do substring match
	if !strings.Contains(pattern, "*") {
		return strings.Contains(name, pattern)
	}

	parts := strings.Split(pattern, "*")

	if parts[0] != "" && !strings.HasPrefix(name, parts[0]) {
		return false
	}
	last := parts[len(parts)-1]
	if last != "" && !strings.HasSuffix(name, last) {
		return false
	}

	// Check middle parts exist in order
	pos := len(parts[0])
	end := len(name) - len(last)
	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			continue
		}
		if pos > end {
			return false
		}
		idx := strings.Index(name[pos:end], part)
		if idx < 0 {
			return false
		}
		pos += idx + len(part)
	}
	return pos <= end
}
