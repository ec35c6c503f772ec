package classmap

import (
	"bytes"
	"errors"
	"strings"
)

// ErrNoBody is returned when the body opening marker is missing and the text
// cannot be interpreted as a serialized class map at all.
var ErrNoBody = errors.New("no class map body found")

// Read parses text previously produced by Body/WithHeader back into a
// ClassMap. This is a structural-shape reader tied to the exact nesting and
// punctuation the serializer emits - it is not a PHP parser. Hand-edited,
// reordered or re-indented input may be read as partially empty or truncated
// without raising an error, which is accepted: the reader exists only so the
// merger can re-read previously generated files. Lines are not bounded in
// length - a scalar line carries a whole serialized property set.
func Read(data []byte) (ClassMap, error) {
	m := make(ClassMap)
	var (
		entry   *ClassEntry
		key     string
		inMedia bool
		inBody  bool
	)

	for raw := range bytes.Lines(data) {
		line := strings.TrimSpace(string(raw))

		// skip header and anything else before the body opener
		if !inBody {
			inBody = line == bodyOpenLine
			continue
		}

		switch {
		case line == bodyCloseLine:
			closeEntry(m, key, entry)
			return m, nil

		case line == "],":
			if inMedia {
				inMedia = false
				continue
			}
			closeEntry(m, key, entry)
			entry, key = nil, ""

		case entry == nil:
			// expecting a class block opener
			if k, ok := cutBlockOpen(line); ok {
				key, entry, inMedia = k, NewClassEntry(), false
			}

		case inMedia:
			if q, v, ok := cutScalar(line); ok {
				entry.Media[q] = parseProperties(v)
			}

		default:
			if k, v, ok := cutScalar(line); ok && k == "default" {
				entry.Default = parseProperties(v)
			} else if k, ok := cutBlockOpen(line); ok && k == "media" {
				inMedia = true
			}
		}
	}
	if !inBody {
		return nil, ErrNoBody
	}

	// truncated input - keep whatever was read
	closeEntry(m, key, entry)
	return m, nil
}

func closeEntry(m ClassMap, key string, entry *ClassEntry) {
	if entry == nil || key == "" || entry.IsEmpty() {
		return
	}
	m[key] = entry
}

// cutBlockOpen matches a `'key' => [` line.
func cutBlockOpen(line string) (string, bool) {
	if !strings.HasSuffix(line, "=> [") {
		return "", false
	}
	return parseQuoted(strings.TrimSpace(strings.TrimSuffix(line, "=> [")))
}

// cutScalar matches a `'key' => 'value',` line.
func cutScalar(line string) (key, value string, ok bool) {
	lhs, rhs, found := strings.Cut(line, "=>")
	if !found {
		return "", "", false
	}
	if key, ok = parseQuoted(strings.TrimSpace(lhs)); !ok {
		return "", "", false
	}
	rhs = strings.TrimSuffix(strings.TrimSpace(rhs), ",")
	if value, ok = parseQuoted(rhs); !ok {
		return "", "", false
	}
	return key, value, true
}

// parseQuoted strips surrounding single quotes and undoes literal escaping.
// The closing quote must be the last character and must not be escaped.
func parseQuoted(s string) (string, bool) {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return "", false
	}
	inner := s[1 : len(s)-1]
	// reject strings whose trailing quote is actually escaped content
	backslashes := 0
	for i := len(inner) - 1; i >= 0 && inner[i] == '\\'; i-- {
		backslashes++
	}
	if backslashes%2 != 0 {
		return "", false
	}
	return quoteUnescape(inner), true
}

// parseProperties splits a serialized property string back into a set:
// fragments on ';', each on the first ':', trimming whitespace on both
// sides. Fragments without ':' are dropped silently.
func parseProperties(s string) PropertySet {
	props := make(PropertySet)
	for frag := range strings.SplitSeq(s, ";") {
		name, value, found := strings.Cut(frag, ":")
		if !found {
			continue
		}
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		props[name] = value
	}
	return props
}
