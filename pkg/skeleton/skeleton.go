package skeleton

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/krakentools/kt/pkg/introspect"
)

// leadComment heads every generated document so users opening it in an editor
// know what is expected of them.
const leadComment = "Update the values below and save to render the template."

// Build converts a classification result into an editable YAML document:
// scalar slots first in sorted order, then one table per nested variable, then
// one-element arrays of tables for list variables. A variable classified as a
// list is never also emitted as a scalar or table. When a preset is supplied
// its values are merged over the generated defaults. The empty string is
// returned when the template has nothing to collect.
func Build(res introspect.Result, preset map[string]any) (string, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}

	for _, name := range res.Free {
		if _, ok := res.ListFields[name]; ok {
			continue
		}
		if _, ok := res.NestedFields[name]; ok {
			continue
		}
		appendKey(doc, name, emptySlot())
	}

	for _, name := range sortedNames(res.NestedFields) {
		if _, ok := res.ListFields[name]; ok {
			continue
		}
		table := &yaml.Node{Kind: yaml.MappingNode}
		for _, attr := range res.NestedFields[name] {
			appendKey(table, attr, emptySlot())
		}
		appendKey(doc, name, table)
	}

	for _, name := range sortedNames(res.ListFields) {
		attrs := res.ListFields[name]
		if len(attrs) == 0 {
			attrs = []string{"value"}
		}
		entry := &yaml.Node{Kind: yaml.MappingNode}
		for _, attr := range attrs {
			appendKey(entry, attr, emptySlot())
		}
		list := &yaml.Node{Kind: yaml.SequenceNode, Content: []*yaml.Node{entry}}
		appendKey(doc, name, list)
	}

	if len(doc.Content) == 0 {
		return "", nil
	}

	if err := applyPreset(doc, preset); err != nil {
		return "", err
	}

	doc.Content[0].HeadComment = leadComment

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("skeleton: marshal document: %w", err)
	}
	return string(out), nil
}

// Decode parses an edited variables document back into a render context.
func Decode(source string) (map[string]any, error) {
	context := make(map[string]any)
	if err := yaml.Unmarshal([]byte(source), &context); err != nil {
		return nil, fmt.Errorf("skeleton: invalid variables document: %w", err)
	}
	return context, nil
}

// applyPreset merges concrete values over the skeleton defaults. Mappings
// merge recursively into existing tables, sequences replace the contents of
// existing arrays wholesale, and everything else overwrites the slot. Preset
// keys are applied in sorted order.
func applyPreset(target *yaml.Node, preset map[string]any) error {
	for _, key := range sortedAnyKeys(preset) {
		value := preset[key]
		existing := findValue(target, key)

		switch typed := value.(type) {
		case map[string]any:
			if existing != nil && existing.Kind == yaml.MappingNode {
				if err := applyPreset(existing, typed); err != nil {
					return err
				}
				continue
			}
			table := &yaml.Node{Kind: yaml.MappingNode}
			if err := applyPreset(table, typed); err != nil {
				return err
			}
			setValue(target, key, table)
		case []any:
			if existing != nil && existing.Kind == yaml.SequenceNode {
				existing.Content = nil
				for _, item := range typed {
					if entryMap, ok := item.(map[string]any); ok {
						entry := &yaml.Node{Kind: yaml.MappingNode}
						if err := applyPreset(entry, entryMap); err != nil {
							return err
						}
						existing.Content = append(existing.Content, entry)
						continue
					}
					node, err := encodeValue(item)
					if err != nil {
						return err
					}
					existing.Content = append(existing.Content, node)
				}
				continue
			}
			node, err := encodeValue(typed)
			if err != nil {
				return err
			}
			setValue(target, key, node)
		default:
			node, err := encodeValue(value)
			if err != nil {
				return err
			}
			setValue(target, key, node)
		}
	}
	return nil
}

func emptySlot() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ""}
}

func appendKey(mapping *yaml.Node, key string, value *yaml.Node) {
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}

func findValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func setValue(mapping *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = value
			return
		}
	}
	appendKey(mapping, key, value)
}

func encodeValue(value any) (*yaml.Node, error) {
	node := &yaml.Node{}
	if err := node.Encode(value); err != nil {
		return nil, fmt.Errorf("skeleton: encode preset value: %w", err)
	}
	return node, nil
}

func sortedNames(m map[string][]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedAnyKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
