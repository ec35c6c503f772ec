package css_test

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"cssmap/css"
)

func TestParser_ClassSelector(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet, err := p.Parse([]byte(`.epigraph { font-style: italic; }`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	rules := sheet.Rules()
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}

	rule := rules[0]
	if rule.Selector != ".epigraph" {
		t.Errorf("expected selector '.epigraph', got '%s'", rule.Selector)
	}
	if rule.Properties["font-style"] != "italic" {
		t.Errorf("expected 'italic', got '%s'", rule.Properties["font-style"])
	}
}

func TestParser_GroupedSelectors(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet, err := p.Parse([]byte(`.a, .b , h4 { font-size: 120%; }`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	rules := sheet.Rules()
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}

	want := []string{".a", ".b", "h4"}
	for i, rule := range rules {
		if rule.Selector != want[i] {
			t.Errorf("rule %d: expected selector '%s', got '%s'", i, want[i], rule.Selector)
		}
		if rule.Properties["font-size"] != "120%" {
			t.Errorf("rule %d: expected '120%%', got '%s'", i, rule.Properties["font-size"])
		}
	}
}

func TestParser_GroupedSelectorsInMediaBlock(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	input := `@media (min-width: 768px) { .a, .b, h4 { font-size: 120%; } }`
	sheet, err := p.Parse([]byte(input))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	blocks := sheet.MediaBlocks()
	if len(blocks) != 1 {
		t.Fatalf("expected 1 media block, got %d", len(blocks))
	}

	want := []string{".a", ".b", "h4"}
	if len(blocks[0].Rules) != len(want) {
		t.Fatalf("expected %d rules in media block, got %d", len(want), len(blocks[0].Rules))
	}
	for i, rule := range blocks[0].Rules {
		if rule.Selector != want[i] {
			t.Errorf("rule %d: expected selector '%s', got '%s'", i, want[i], rule.Selector)
		}
		if rule.Properties["font-size"] != "120%" {
			t.Errorf("rule %d: expected '120%%', got '%s'", i, rule.Properties["font-size"])
		}
	}
}

func TestParser_ConsecutiveSelectorGroups(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	input := `
.a, .b { color: red; }
.c { color: green; }
.d, .e { color: blue; }
`
	sheet, err := p.Parse([]byte(input))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	rules := sheet.Rules()
	want := []struct{ sel, color string }{
		{".a", "red"}, {".b", "red"},
		{".c", "green"},
		{".d", "blue"}, {".e", "blue"},
	}
	if len(rules) != len(want) {
		t.Fatalf("expected %d rules, got %d", len(want), len(rules))
	}
	for i, rule := range rules {
		if rule.Selector != want[i].sel {
			t.Errorf("rule %d: expected selector '%s', got '%s'", i, want[i].sel, rule.Selector)
		}
		if rule.Properties["color"] != want[i].color {
			t.Errorf("rule %d: selectors of one group must not leak into the next, got color '%s'", i, rule.Properties["color"])
		}
	}
}

func TestParser_SharedPropertiesAreCopied(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet, err := p.Parse([]byte(`.a, .b { color: red; }`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	rules := sheet.Rules()
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}

	rules[0].Properties["color"] = "blue"
	if rules[1].Properties["color"] != "red" {
		t.Error("grouped selectors must not share the same property map")
	}
}

func TestParser_MultiValueProperty(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet, err := p.Parse([]byte(`.box { border: 1px solid #ccc; margin: 0 auto; }`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	rules := sheet.Rules()
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}

	if got := rules[0].Properties["border"]; got != "1px solid #ccc" {
		t.Errorf("expected '1px solid #ccc', got '%s'", got)
	}
	if got := rules[0].Properties["margin"]; got != "0 auto" {
		t.Errorf("expected '0 auto', got '%s'", got)
	}
}

func TestParser_LastDeclarationWinsWithinRule(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet, err := p.Parse([]byte(`.btn { color: red; color: blue; }`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	rules := sheet.Rules()
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if got := rules[0].Properties["color"]; got != "blue" {
		t.Errorf("expected last declaration to win, got '%s'", got)
	}
}

func TestParser_MediaBlock(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	input := `
.btn { color: red; }
@media (min-width: 768px) {
	.btn { color: blue; }
	.nav { display: none; }
}
`
	sheet, err := p.Parse([]byte(input))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	blocks := sheet.MediaBlocks()
	if len(blocks) != 1 {
		t.Fatalf("expected 1 media block, got %d", len(blocks))
	}

	mb := blocks[0]
	if mb.Query != "(min-width: 768px)" {
		t.Errorf("expected verbatim query '(min-width: 768px)', got '%s'", mb.Query)
	}
	if len(mb.Rules) != 2 {
		t.Fatalf("expected 2 rules in media block, got %d", len(mb.Rules))
	}
	if mb.Rules[0].Selector != ".btn" || mb.Rules[0].Properties["color"] != "blue" {
		t.Errorf("unexpected first media rule: %+v", mb.Rules[0])
	}
	if mb.Rules[1].Selector != ".nav" || mb.Rules[1].Properties["display"] != "none" {
		t.Errorf("unexpected second media rule: %+v", mb.Rules[1])
	}
}

func TestParser_MediaQueryKeptVerbatim(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	// conditions are not normalized or reordered
	input := `@media screen and (max-width: 480px) and (orientation: portrait) { .x { color: red; } }`
	sheet, err := p.Parse([]byte(input))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	blocks := sheet.MediaBlocks()
	if len(blocks) != 1 {
		t.Fatalf("expected 1 media block, got %d", len(blocks))
	}
	want := "screen and (max-width: 480px) and (orientation: portrait)"
	if blocks[0].Query != want {
		t.Errorf("expected query '%s', got '%s'", want, blocks[0].Query)
	}
}

func TestParser_SkipsOtherAtRules(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	input := `
@import url("other.css");
@keyframes spin { from { transform: rotate(0); } to { transform: rotate(360deg); } }
@supports (display: grid) { .grid { display: grid; } }
.kept { color: green; }
`
	sheet, err := p.Parse([]byte(input))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	rules := sheet.Rules()
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].Selector != ".kept" {
		t.Errorf("expected '.kept', got '%s'", rules[0].Selector)
	}
	if len(sheet.MediaBlocks()) != 0 {
		t.Error("@supports must not produce media blocks")
	}
}

func TestParser_PseudoClassSelectorKeptRaw(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet, err := p.Parse([]byte(`.btn:hover { color: navy; }`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	rules := sheet.Rules()
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].Selector != ".btn:hover" {
		t.Errorf("expected '.btn:hover', got '%s'", rules[0].Selector)
	}
}

func TestParser_EmptyInput(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet, err := p.Parse([]byte(""))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(sheet.Items) != 0 {
		t.Errorf("expected no items, got %d", len(sheet.Items))
	}
}

func TestParser_CommentsIgnored(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet, err := p.Parse([]byte(`/* leading */ .a { /* inner */ color: red; } /* trailing */`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	rules := sheet.Rules()
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].Properties["color"] != "red" {
		t.Errorf("expected 'red', got '%s'", rules[0].Properties["color"])
	}
}

func TestParser_LargeInput(t *testing.T) {
	var sb strings.Builder
	for range 500 {
		sb.WriteString(".c { color: red; }\n")
	}

	p := css.NewParser(zap.NewNop())
	sheet, err := p.Parse([]byte(sb.String()), "synthetic")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := len(sheet.Rules()); got != 500 {
		t.Errorf("expected 500 rules, got %d", got)
	}
}
