// Package frontmatter reads and rebuilds the YAML metadata block at the top
// of a Markdown note.
//
// A block is recognised only when the first line of the text is "---". It
// ends at the next unindented "---" line; an indented one inside a block
// scalar stays part of the value. Everything after that line is the body
// and is returned byte for byte. Rewrites rebuild the whole
// block from the ordered Metadata, so comments and manual formatting inside
// the block do not survive a Serialize.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/vaultkit/internal/apperr"
)

const (
	delim = "---"
	bom   = "\uFEFF"
)

// Parse splits raw into metadata and body. It never fails: when there is no
// block, or the block is malformed, it returns nil metadata and the full text
// as body. Callers must leave such documents untouched.
func Parse(raw []byte) (*Metadata, string) {
	m, body, err := ParseStrict(raw)
	if err != nil {
		return nil, string(raw)
	}
	return m, body
}

// ParseStrict is Parse but distinguishes a missing block (nil metadata, nil
// error) from a malformed one (error wrapping apperr.ErrMalformedFrontmatter).
func ParseStrict(raw []byte) (*Metadata, string, error) {
	text := string(raw)
	start := 0
	if strings.HasPrefix(text, bom) {
		start = len(bom)
	}

	nl := strings.IndexByte(text[start:], '\n')
	first := text[start:]
	if nl >= 0 {
		first = text[start : start+nl]
	}
	if strings.TrimRight(first, " \t\r") != delim {
		return nil, text, nil
	}
	if nl < 0 {
		return nil, text, malformed("no closing delimiter")
	}

	blockStart := start + nl + 1
	pos := blockStart
	for pos < len(text) {
		end := strings.IndexByte(text[pos:], '\n')
		line, next := text[pos:], len(text)
		if end >= 0 {
			line, next = text[pos:pos+end], pos+end+1
		}
		if strings.TrimRight(line, " \t\r") == delim {
			m, err := decode(text[blockStart:pos])
			if err != nil {
				return nil, text, malformed(err.Error())
			}
			return m, text[next:], nil
		}
		pos = next
	}
	return nil, text, malformed("no closing delimiter")
}

// HasBlock reports whether raw opens with a metadata delimiter line,
// regardless of whether the block is well formed.
func HasBlock(raw []byte) bool {
	text := strings.TrimPrefix(string(raw), bom)
	first, _, _ := strings.Cut(text, "\n")
	return strings.TrimRight(first, " \t\r") == delim
}

// Serialize emits m as a metadata block followed by body unchanged.
func Serialize(m *Metadata, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	if m.Len() > 0 {
		block, err := encode(m)
		if err != nil {
			return nil, err
		}
		buf.Write(block)
	}
	buf.WriteString(delim + "\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", apperr.ErrMalformedFrontmatter, reason)
}

func decode(block string) (*Metadata, error) {
	m := New()
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return m, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.ShortTag() == tagNull {
		return m, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("block is not a mapping")
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: key is not a scalar", k.Line)
		}
		if m.Has(k.Value) {
			return nil, fmt.Errorf("line %d: duplicate key %q", k.Line, k.Value)
		}
		val, err := decodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k.Value, err)
		}
		m.Set(k.Value, val)
	}
	return m, nil
}

func decodeValue(n *yaml.Node) (Value, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return scalar(n.Value, n.ShortTag()), nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind == yaml.AliasNode && c.Alias != nil {
				c = c.Alias
			}
			if c.Kind != yaml.ScalarNode {
				return Value{}, fmt.Errorf("line %d: list item is not a scalar", c.Line)
			}
			if c.ShortTag() == tagNull {
				continue
			}
			items = append(items, c.Value)
		}
		return Value{list: true, items: items}, nil
	default:
		return Value{}, fmt.Errorf("line %d: unsupported value", n.Line)
	}
}

func encode(m *Metadata) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range m.keys {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: tagStr, Value: k},
			valueNode(m.values[k]),
		)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("frontmatter: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("frontmatter: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func valueNode(v Value) *yaml.Node {
	if v.list {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, it := range v.items {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: tagStr, Value: it})
		}
		return seq
	}
	if v.tag == tagNull {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagNull, Value: "null"}
	}
	tag := v.tag
	if tag == "" {
		tag = tagStr
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.text}
}
