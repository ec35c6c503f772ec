package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into structured rules.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. The optional source parameter
// identifies what is being parsed (for debug logging). A tokenizer failure
// fails the whole source - no partial result is returned.
func (p *Parser) Parse(data []byte, source ...string) (*Stylesheet, error) {
	sheet := &Stylesheet{
		Items: make([]StylesheetItem, 0),
	}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	// selectors of a comma-separated group seen so far: the tokenizer emits
	// QualifiedRuleGrammar once per non-final selector and only the final one
	// arrives with BeginRulesetGrammar
	var pending []string

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				p.log.Debug("CSS parse error", zap.Error(err))
				return nil, fmt.Errorf("unable to tokenize CSS: %w", err)
			}
			return sheet, nil

		case css.BeginAtRuleGrammar:
			atRule := string(data)
			if atRule == "@media" {
				query := rawTokenText(parser.Values())
				rules, err := p.parseMediaBlockRules(parser)
				if err != nil {
					return nil, err
				}
				p.log.Debug("Parsed @media block", zap.String("query", query), zap.Int("rules", len(rules)))
				sheet.Items = append(sheet.Items, StylesheetItem{
					MediaBlock: &MediaBlock{Query: query, Rules: rules},
				})
			} else {
				// keyframes, supports, font-face and friends are out of scope
				p.skipAtRuleBlock(parser)
				p.log.Debug("Skipping @-rule", zap.String("rule", atRule))
			}

		case css.AtRuleGrammar:
			// simple @-rule without block (@import, @charset)
			p.log.Debug("Skipping @-rule", zap.String("rule", string(data)))

		case css.QualifiedRuleGrammar:
			pending = append(pending, p.parseSelectors(data, parser.Values())...)

		case css.BeginRulesetGrammar:
			selectors := append(pending, p.parseSelectors(data, parser.Values())...)
			pending = nil
			props := p.parseDeclarations(parser)
			appendRules(sheet, selectors, props)
		}
	}
}

// appendRules creates one rule per selector, each with its own copy of the
// shared property set.
func appendRules(sheet *Stylesheet, selectors []string, props map[string]string) {
	for _, sel := range selectors {
		propsCopy := make(map[string]string, len(props))
		maps.Copy(propsCopy, props)
		sheet.Items = append(sheet.Items, StylesheetItem{
			Rule: &Rule{Selector: sel, Properties: propsCopy},
		})
	}
}

// parseSelectors extracts trimmed selector strings from token data, splitting
// grouped selectors on commas.
func (p *Parser) parseSelectors(data []byte, values []css.Token) []string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}

	var selectors []string
	for s := range strings.SplitSeq(sb.String(), ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}

// parseDeclarations parses property declarations until EndRulesetGrammar.
// Later declarations of the same property overwrite earlier ones.
func (p *Parser) parseDeclarations(parser *css.Parser) map[string]string {
	props := make(map[string]string)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return props

		case css.DeclarationGrammar:
			name := string(data)
			value := rawTokenText(parser.Values())
			if name == "" || value == "" {
				continue
			}
			props[name] = value

		case css.CustomPropertyGrammar:
			// CSS custom properties (--var) are out of scope
			continue
		}
	}
}

// parseMediaBlockRules parses rules inside an @media block and returns them.
func (p *Parser) parseMediaBlockRules(parser *css.Parser) ([]Rule, error) {
	var rules []Rule
	var pending []string

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("unable to tokenize CSS: %w", err)
			}
			return rules, nil

		case css.EndAtRuleGrammar:
			return rules, nil

		case css.QualifiedRuleGrammar:
			pending = append(pending, p.parseSelectors(data, parser.Values())...)

		case css.BeginRulesetGrammar:
			selectors := append(pending, p.parseSelectors(data, parser.Values())...)
			pending = nil
			props := p.parseDeclarations(parser)
			for _, sel := range selectors {
				propsCopy := make(map[string]string, len(props))
				maps.Copy(propsCopy, props)
				rules = append(rules, Rule{Selector: sel, Properties: propsCopy})
			}
		}
	}
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// rawTokenText rebuilds verbatim-ish text from tokens: runs of whitespace
// collapse to a single space, everything else is kept as written.
func rawTokenText(tokens []css.Token) string {
	var parts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			parts = append(parts, string(t.Data))
		} else if len(parts) > 0 {
			parts = append(parts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}
