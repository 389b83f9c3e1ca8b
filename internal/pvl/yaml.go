package pvl

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarshalYAML renders the block as an ordered mapping. Nested blocks become
// nested mappings; repeated block names get a _2, _3, ... suffix.
func (b *Block) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	seen := make(map[string]int)
	for _, it := range b.Items {
		key := it.Key
		var value *yaml.Node
		if it.Block != nil {
			key = it.Block.Name
			n := seen[strings.ToLower(key)] + 1
			seen[strings.ToLower(key)] = n
			if n > 1 {
				key = fmt.Sprintf("%s_%d", key, n)
			}
			v, err := it.Block.MarshalYAML()
			if err != nil {
				return nil, err
			}
			value = v.(*yaml.Node)
		} else {
			value = it.Value.yamlNode()
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, value)
	}
	return node, nil
}

// MarshalYAML renders the value as a scalar or a flow sequence
func (v Value) MarshalYAML() (interface{}, error) {
	return v.yamlNode(), nil
}

func (v Value) yamlNode() *yaml.Node {
	if v.IsList() {
		n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, item := range v.Items {
			n.Content = append(n.Content, item.yamlNode())
		}
		if v.Unit == "" {
			return n
		}
		return withUnit(n, v.Unit)
	}

	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Text}
	switch v.Kind {
	case Integer:
		n.Tag, n.Value = "!!int", fmt.Sprint(v.Int)
	case Real:
		n.Tag = "!!float"
	}
	if v.Unit == "" {
		return n
	}
	return withUnit(n, v.Unit)
}

func withUnit(value *yaml.Node, unit string) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: "value"}, value,
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: "unit"}, {Kind: yaml.ScalarNode, Tag: "!!str", Value: unit},
	}}
}
