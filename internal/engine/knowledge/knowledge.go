package knowledge

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/leafcheck/internal/model"
)

// DefaultKey is the reserved key holding the record for unmatched labels.
const DefaultKey = "default"

// Base is an ordered, read-only mapping from label substrings to knowledge
// records. Key order is the order of the source document and decides which
// record wins when several keys match the same label.
type Base struct {
	keys     []string
	records  map[string]model.KnowledgeRecord
	fallback model.KnowledgeRecord
}

// Parse builds a Base from a YAML mapping of key -> {description,
// recommendation}. The document must contain a "default" entry.
func Parse(data []byte) (*Base, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("knowledge: parse: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("knowledge: empty document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("knowledge: expected a mapping at line %d", root.Line)
	}

	b := &Base{records: make(map[string]model.KnowledgeRecord, len(root.Content)/2)}
	hasDefault := false

	// Mapping node content alternates key, value.
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		key := keyNode.Value
		if key == "" {
			return nil, fmt.Errorf("knowledge: empty key at line %d", keyNode.Line)
		}
		if _, dup := b.records[key]; dup || (key == DefaultKey && hasDefault) {
			return nil, fmt.Errorf("knowledge: duplicate key %q at line %d", key, keyNode.Line)
		}

		var rec model.KnowledgeRecord
		if err := valNode.Decode(&rec); err != nil {
			return nil, fmt.Errorf("knowledge: key %q: %w", key, err)
		}
		rec = normalize(rec)

		if key == DefaultKey {
			b.fallback = rec
			hasDefault = true
			continue
		}
		b.keys = append(b.keys, key)
		b.records[key] = rec
	}

	if !hasDefault {
		return nil, fmt.Errorf("knowledge: missing %q entry", DefaultKey)
	}
	return b, nil
}

// LoadFile reads and parses a knowledge YAML file.
func LoadFile(path string) (*Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("knowledge: %w", err)
	}
	return Parse(data)
}

// Lookup returns the record of the first key, in document order, that is a
// substring of label. Labels that match no key get the default record.
func (b *Base) Lookup(label string) model.KnowledgeRecord {
	if key, ok := b.Match(label); ok {
		return b.records[key]
	}
	return b.fallback
}

// Match reports which key Lookup would use for label.
func (b *Base) Match(label string) (string, bool) {
	for _, key := range b.keys {
		if strings.Contains(label, key) {
			return key, true
		}
	}
	return "", false
}

// Labels returns the non-default keys in document order. For the remote
// backend this is also the class order of the probability vector.
func (b *Base) Labels() []string {
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

// Fallback returns the default record.
func (b *Base) Fallback() model.KnowledgeRecord {
	return b.fallback
}

// normalize puts record text in NFC so accented characters compare and
// render the same regardless of how the source file was encoded.
func normalize(r model.KnowledgeRecord) model.KnowledgeRecord {
	return model.KnowledgeRecord{
		Description:    norm.NFC.String(strings.TrimSpace(r.Description)),
		Recommendation: norm.NFC.String(strings.TrimSpace(r.Recommendation)),
	}
}
