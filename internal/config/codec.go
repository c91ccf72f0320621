package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// rawEntry is one top-level entry read from a configuration file.
type rawEntry struct {
	Name  string
	Value any
}

// encodeKeys renders keys, in order, as a commented YAML mapping. A key
// without an entry in values is written with its current value.
func encodeKeys(title string, keys []*Key, values map[string]Value) ([]byte, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, key := range keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key.Name()}
		var comment []string
		if key.Description() != "" {
			comment = append(comment, key.Description())
		}
		if key.Argument() != "" {
			comment = append(comment, "Argument: -"+key.Argument())
		}
		keyNode.HeadComment = strings.Join(comment, "\n")

		value, ok := values[key.Name()]
		if !ok {
			value = key.Value()
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(value.Raw()); err != nil {
			return nil, errors.Wrapf(err, "failed to encode value of key %s", key.Name())
		}
		if valueNode.Kind == yaml.SequenceNode {
			valueNode.Style = yaml.FlowStyle
		}
		mapping.Content = append(mapping.Content, keyNode, valueNode)
	}

	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{mapping}}
	if title != "" {
		doc.HeadComment = title
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Wrap(err, "failed to encode configuration")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to encode configuration")
	}
	return buf.Bytes(), nil
}

// decodeEntries parses a configuration file into its top-level entries in
// file order. An empty document yields no entries.
func decodeEntries(data []byte) ([]rawEntry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: configuration must be a mapping of keys to values", root.Line)
	}

	entries := make([]rawEntry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]
		var value any
		if err := valueNode.Decode(&value); err != nil {
			return nil, errors.Wrapf(err, "line %d: failed to decode value of %s", valueNode.Line, keyNode.Value)
		}
		entries = append(entries, rawEntry{Name: keyNode.Value, Value: value})
	}
	return entries, nil
}

// writeNewFile creates path with data. It fails when path already exists.
func writeNewFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return errors.Wrapf(f.Close(), "failed to close %s", path)
}
