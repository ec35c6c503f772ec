package classmap

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Meta describes a generation run for the file header. The header is purely
// informational and is never parsed back by the reader.
type Meta struct {
	Tool        string
	Version     string
	ID          string
	Source      string
	GeneratedAt time.Time
	Stats       Stats
}

const (
	phpOpenTag    = "<?php"
	bodyOpenLine  = "return ["
	bodyCloseLine = "];"
	indent        = "    "
)

// Body renders the class map as a complete PHP program returning a nested
// array literal. The rendering is deterministic: class keys and media-query
// keys appear in strictly ascending lexicographic order and property strings
// are sorted by property name. Entries with no declarations are omitted.
func Body(m ClassMap) string {
	var sb strings.Builder
	sb.WriteString(phpOpenTag)
	sb.WriteString("\n\n")
	sb.WriteString(bodyOpenLine)
	sb.WriteString("\n")

	for _, key := range sortedKeys(m) {
		entry := m[key]
		if entry == nil || entry.IsEmpty() {
			continue
		}

		fmt.Fprintf(&sb, "%s'%s' => [\n", indent, quoteEscape(CleanClassName(key)))

		if len(entry.Default) > 0 {
			fmt.Fprintf(&sb, "%s'default' => '%s',\n", indent+indent, quoteEscape(propertyString(entry.Default)))
		}
		if len(entry.Media) > 0 {
			fmt.Fprintf(&sb, "%s'media' => [\n", indent+indent)
			queries := make([]string, 0, len(entry.Media))
			for q := range entry.Media {
				queries = append(queries, q)
			}
			sort.Strings(queries)
			for _, q := range queries {
				fmt.Fprintf(&sb, "%s'%s' => '%s',\n", indent+indent+indent, quoteEscape(q), quoteEscape(propertyString(entry.Media[q])))
			}
			fmt.Fprintf(&sb, "%s],\n", indent+indent)
		}

		fmt.Fprintf(&sb, "%s],\n", indent)
	}

	sb.WriteString(bodyCloseLine)
	sb.WriteString("\n")
	return sb.String()
}

// WithHeader inserts the informational header comment right after the PHP
// open tag of an already rendered (and possibly repaired) body. Keeping the
// header out of the candidate text means repairs never have to work around
// it and the syntax check verdict can be included.
func WithHeader(body string, meta Meta) string {
	var sb strings.Builder

	sb.WriteString("/**\n")
	fmt.Fprintf(&sb, " * Class lookup table generated by %s %s (run %s)\n", meta.Tool, meta.Version, meta.ID)
	fmt.Fprintf(&sb, " * Source: %s\n", commentSafe(meta.Source))
	fmt.Fprintf(&sb, " * Generated: %s\n", meta.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, " * Input: %d bytes, output: %d bytes, elapsed: %s\n",
		meta.Stats.InputBytes, meta.Stats.OutputBytes, meta.Stats.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&sb, " * Classes: %d, media queries: %d, pseudo-classes: %d\n",
		meta.Stats.Classes, meta.Stats.MediaQueries, meta.Stats.PseudoClasses)
	if meta.Stats.Valid {
		sb.WriteString(" * Syntax check: passed\n")
	} else {
		fmt.Fprintf(&sb, " * Syntax check: FAILED %s\n", commentSafe(meta.Stats.Diagnostic))
	}
	sb.WriteString(" */")

	if rest, found := strings.CutPrefix(body, phpOpenTag+"\n"); found {
		return phpOpenTag + "\n" + sb.String() + "\n" + rest
	}
	// body without open tag - should not happen, keep it loadable anyway
	return phpOpenTag + "\n" + sb.String() + "\n" + body
}

// CleanClassName removes backslash escapes that certain CSS authoring
// conventions place before '.', ':', '/' and '-' in class names.
func CleanClassName(name string) string {
	if !strings.Contains(name, `\`) {
		return name
	}
	var sb strings.Builder
	sb.Grow(len(name))
	for i := 0; i < len(name); i++ {
		if name[i] == '\\' && i+1 < len(name) && strings.IndexByte(`.:/-`, name[i+1]) >= 0 {
			continue
		}
		sb.WriteByte(name[i])
	}
	return sb.String()
}

// quoteEscape escapes a string for embedding in a single-quoted PHP literal.
func quoteEscape(s string) string {
	if !strings.ContainsAny(s, `'\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			sb.WriteString(`\\`)
		case '\'':
			sb.WriteString(`\'`)
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// quoteUnescape is the inverse of quoteEscape.
func quoteUnescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '\'' || s[i+1] == '\\') {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// propertyString renders a property set as "name: value; name: value;" with
// properties in ascending name order and a trailing separator.
func propertyString(props PropertySet) string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+props[name])
	}
	return strings.Join(parts, "; ") + ";"
}

// commentSafe keeps arbitrary text from terminating the header comment.
func commentSafe(s string) string {
	s = strings.ReplaceAll(s, "*/", "*\\/")
	return strings.ReplaceAll(s, "\n", " ")
}

func sortedKeys(m ClassMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
