// Package tags encodes tag sets into file names and keeps the registry of
// known tags and their display metadata.
//
// A tag block is the first "[...]" pair of a file name. Its interior is a
// space separated list of tag tokens, so "[beach sunny]vacation.jpg" carries
// the tags "beach" and "sunny" on the base name "vacation.jpg".
package tags

import (
	"path/filepath"
	"slices"
	"strings"
)

// blockBounds returns the index of the first '[' and of the first ']' after
// it, or ok=false when the name has no complete pair.
func blockBounds(name string) (start, end int, ok bool) {
	start = strings.IndexByte(name, '[')
	if start < 0 {
		return 0, 0, false
	}
	rel := strings.IndexByte(name[start+1:], ']')
	if rel < 0 {
		return 0, 0, false
	}
	return start, start + 1 + rel, true
}

// Extract returns the interior of the first bracket pair in name, or "" if
// there is none.
func Extract(name string) string {
	start, end, ok := blockBounds(name)
	if !ok {
		return ""
	}
	return name[start+1 : end]
}

// Strip removes the block found by Extract, brackets included. Any other
// bracket characters are left alone.
func Strip(name string) string {
	start, end, ok := blockBounds(name)
	if !ok {
		return name
	}
	return name[:start] + name[end+1:]
}

// Parse splits the tag block of name into tokens. Empty tokens produced by
// repeated spaces are dropped; order is preserved.
func Parse(name string) []string {
	block := Extract(name)
	if block == "" {
		return nil
	}
	var out []string
	for _, tok := range strings.Split(block, " ") {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// Encode wraps tags in a block. An empty set encodes to "", never "[]".
func Encode(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "[" + strings.Join(tags, " ") + "]"
}

// Compose builds the on-disk file name for a base name carrying tags.
func Compose(tags []string, base string) string {
	return Encode(tags) + base
}

// Normalize returns a sorted copy of tags without duplicates.
func Normalize(tags []string) []string {
	out := slices.Clone(tags)
	slices.Sort(out)
	return slices.Compact(out)
}

// Decode returns the canonical tag set of a path. Only the final element is
// inspected; tag blocks in parent directory names do not apply.
func Decode(path string) []string {
	return Normalize(Parse(filepath.Base(path)))
}

// ValidName reports whether tag can be stored in a block. Tokens containing
// '[', ']' or a space would corrupt the encoding.
func ValidName(tag string) bool {
	return tag != "" && !strings.ContainsAny(tag, "[] ")
}
