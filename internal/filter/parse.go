package filter

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse decodes serialized rules. Two shapes are accepted, in JSON or YAML:
//
//	{"login": {"reject": ["^w"], "allow": ["s$"]}}
//	[{"field": "login", "reject": ["^w"], "allow": ["s$"]}]
//
// In the mapping form rules keep the order their fields appear in. Empty
// input, null, {} and [] yield no rules.
func Parse(data []byte) (Rules, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing filter rules: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.MappingNode:
		return parseFieldMap(root)
	case yaml.SequenceNode:
		var rules Rules
		if err := root.Decode(&rules); err != nil {
			return nil, fmt.Errorf("parsing filter rules: %w", err)
		}
		if len(rules) == 0 {
			return nil, nil
		}
		return rules, nil
	case yaml.ScalarNode:
		if root.Tag == "!!null" {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("parsing filter rules: expected a mapping of fields or a list of rules (line %d)", root.Line)
}

// ParseFile reads rules from a JSON or YAML file.
func ParseFile(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading filter file %s: %w", path, err)
	}
	rules, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// parseFieldMap walks mapping keys in document order, which a Go map
// would lose.
func parseFieldMap(node *yaml.Node) (Rules, error) {
	var rules Rules
	for i := 0; i+1 < len(node.Content); i += 2 {
		var field string
		if err := node.Content[i].Decode(&field); err != nil {
			return nil, fmt.Errorf("parsing filter rules: field name (line %d): %w", node.Content[i].Line, err)
		}

		var patterns struct {
			Reject []string `yaml:"reject"`
			Allow  []string `yaml:"allow"`
		}
		if err := node.Content[i+1].Decode(&patterns); err != nil {
			return nil, fmt.Errorf("parsing filter rules: field %q: %w", field, err)
		}
		rules = append(rules, Rule{Field: field, Reject: patterns.Reject, Allow: patterns.Allow})
	}
	return rules, nil
}
