// Package css turns raw CSS text into a flat rule tree. It deliberately
// stays dumb: selectors are kept as trimmed strings and property values as
// verbatim text, all interpretation happens in the classmap package.
package css

// Rule is a single style rule for a single selector. Grouped selectors are
// split by the parser, every resulting rule shares a copy of the same
// property set.
type Rule struct {
	Selector   string
	Properties map[string]string
}

// MediaBlock is an @media rule with its condition text kept verbatim and the
// nested style rules.
type MediaBlock struct {
	Query string
	Rules []Rule
}

// StylesheetItem is a single top-level item in a stylesheet.
// Exactly one of Rule or MediaBlock is non-nil.
type StylesheetItem struct {
	Rule       *Rule
	MediaBlock *MediaBlock
}

// Stylesheet is a parsed CSS stylesheet with items in source order.
type Stylesheet struct {
	Items []StylesheetItem
}

// Rules returns all top-level plain rules in source order, @media blocks are
// not flattened.
func (s *Stylesheet) Rules() []Rule {
	var rules []Rule
	for _, item := range s.Items {
		if item.Rule != nil {
			rules = append(rules, *item.Rule)
		}
	}
	return rules
}

// MediaBlocks returns all @media blocks in source order.
func (s *Stylesheet) MediaBlocks() []MediaBlock {
	var blocks []MediaBlock
	for _, item := range s.Items {
		if item.MediaBlock != nil {
			blocks = append(blocks, *item.MediaBlock)
		}
	}
	return blocks
}
