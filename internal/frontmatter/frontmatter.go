// Package frontmatter extracts the leading YAML metadata block from
// Markdown and MDX documents.
//
// Extraction never fails: a document without a recognized block, or with a
// malformed one, comes back with empty metadata and its text intact. The
// body is returned byte-exact so callers can rely on the block being
// stripped exactly once with no other mutation.
package frontmatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/docsforge/docs2pdf/internal/yamlutil"
)

// delimiter marks the start and end of a front-matter block.
const delimiter = "---"

// Value is a front-matter value: either a single scalar or a list of
// scalars. Astro front matter mixes both shapes freely, so the union keeps
// exact behavior while giving static guarantees.
type Value struct {
	scalar string
	list   []string
	isList bool
}

// ScalarValue creates a scalar Value.
func ScalarValue(s string) Value { return Value{scalar: s} }

// ListValue creates a list Value.
func ListValue(items []string) Value { return Value{list: items, isList: true} }

// IsList reports whether the value is a list of scalars.
func (v Value) IsList() bool { return v.isList }

// Scalar returns the scalar form. For lists it returns the first element,
// which matches how single-valued lookups treat list-shaped metadata.
func (v Value) Scalar() string {
	if v.isList {
		if len(v.list) == 0 {
			return ""
		}
		return v.list[0]
	}
	return v.scalar
}

// List returns the list form. Scalars come back as a one-element list.
func (v Value) List() []string {
	if v.isList {
		return v.list
	}
	if v.scalar == "" {
		return nil
	}
	return []string{v.scalar}
}

// Meta is an ordered mapping of front-matter keys to values.
type Meta struct {
	keys   []string
	values map[string]Value
}

// Len returns the number of keys.
func (m Meta) Len() int { return len(m.keys) }

// Keys returns the keys in document order.
func (m Meta) Keys() []string { return m.keys }

// Get returns the value for key and whether it was present.
func (m Meta) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// set appends or overwrites a key, preserving first-seen order.
func (m *Meta) set(key string, v Value) {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, seen := m.values[key]; !seen {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Title returns the title field, or fallback when absent or empty.
func (m Meta) Title(fallback string) string {
	if v, ok := m.Get("title"); ok && v.Scalar() != "" {
		return v.Scalar()
	}
	return fallback
}

// Description returns the description field, or "".
func (m Meta) Description() string {
	v, _ := m.Get("description")
	return v.Scalar()
}

// Section returns the section field, or "".
func (m Meta) Section() string {
	v, _ := m.Get("section")
	return v.Scalar()
}

// Order returns the order field (or weight, as some layouts name it),
// or fallback when absent or unparsable. Lower values sort first.
func (m Meta) Order(fallback int) int {
	for _, key := range []string{"order", "weight"} {
		v, ok := m.Get(key)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(v.Scalar())); err == nil {
			return n
		}
	}
	return fallback
}

// Result holds the outcome of front-matter extraction. Warning is non-empty
// when a recognized block could not be parsed; the pipeline logs it and
// continues (per-file failures never abort a conversion).
type Result struct {
	Meta    Meta
	Body    string
	Warning string
}

// Parse extracts a leading front-matter block from raw document text.
//
// The block must start on the first line with "---" and end with a matching
// "---" line. No opening marker, or an unterminated block, leaves the text
// unchanged with empty metadata. A delimited block that fails YAML parsing
// is still stripped (it was recognized as front matter) but yields empty
// metadata and a warning.
func Parse(raw string) Result {
	block, body, found := split(raw)
	if !found {
		return Result{Body: raw}
	}

	meta, err := parseBlock(block)
	if err != nil {
		return Result{
			Body:    body,
			Warning: fmt.Sprintf("malformed front matter: %v", err),
		}
	}

	return Result{Meta: meta, Body: body}
}

// split locates the delimited block. Returns the block content (without
// delimiters), the remaining body, and whether a complete block was found.
func split(raw string) (block, body string, found bool) {
	// Normalize the probe for CRLF input without touching the body we return.
	firstLine, rest, ok := strings.Cut(raw, "\n")
	if !ok || strings.TrimRight(firstLine, "\r") != delimiter {
		return "", raw, false
	}

	offset := 0
	for offset <= len(rest) {
		lineEnd := strings.Index(rest[offset:], "\n")
		var line string
		var next int
		if lineEnd == -1 {
			line = rest[offset:]
			next = len(rest) + 1
		} else {
			line = rest[offset : offset+lineEnd]
			next = offset + lineEnd + 1
		}
		if strings.TrimRight(line, "\r") == delimiter {
			body = ""
			if next <= len(rest) {
				body = rest[next:]
			}
			return rest[:offset], body, true
		}
		if lineEnd == -1 {
			break
		}
		offset = next
	}

	// Unterminated block: treat the whole text as body.
	return "", raw, false
}

// parseBlock parses the YAML block into an ordered Meta. Values that are
// neither scalars nor lists of scalars (nested mappings) are dropped; the
// metadata surface is a flat key-value structure.
func parseBlock(block string) (Meta, error) {
	if strings.TrimSpace(block) == "" {
		return Meta{}, nil
	}

	var items yaml.MapSlice
	if err := yamlutil.Unmarshal([]byte(block), &items); err != nil {
		return Meta{}, err
	}

	var meta Meta
	for _, item := range items {
		key, ok := item.Key.(string)
		if !ok {
			continue
		}
		if v, ok := toValue(item.Value); ok {
			meta.set(key, v)
		}
	}
	return meta, nil
}

// toValue converts a decoded YAML value into the scalar/list union.
func toValue(raw any) (Value, bool) {
	switch v := raw.(type) {
	case nil:
		return ScalarValue(""), true
	case string:
		return ScalarValue(v), true
	case bool:
		return ScalarValue(strconv.FormatBool(v)), true
	case int64:
		return ScalarValue(strconv.FormatInt(v, 10)), true
	case uint64:
		return ScalarValue(strconv.FormatUint(v, 10)), true
	case int:
		return ScalarValue(strconv.Itoa(v)), true
	case float64:
		return ScalarValue(strconv.FormatFloat(v, 'g', -1, 64)), true
	case []any:
		items := make([]string, 0, len(v))
		for _, e := range v {
			ev, ok := toValue(e)
			if !ok || ev.IsList() {
				return Value{}, false
			}
			items = append(items, ev.Scalar())
		}
		return ListValue(items), true
	default:
		return Value{}, false
	}
}
