package classmap_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"cssmap/classmap"
	"cssmap/css"
)

func buildFromCSS(t *testing.T, input string) classmap.ClassMap {
	t.Helper()
	sheet, err := css.NewParser(zap.NewNop()).Parse([]byte(input))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	m, _ := classmap.NewBuilder(zap.NewNop()).Build(sheet)
	return m
}

func TestRead_RoundTrip(t *testing.T) {
	// serializing a map and reading the text back must reproduce it exactly
	m := buildFromCSS(t, `
.btn { color: red; margin: 0 auto; }
.btn:hover { color: navy; }
.nav { display: flex; }
@media (min-width: 768px) {
	.btn { color: blue; }
	.nav { display: none; }
}
@media print { .nav { display: none; } }
`)

	got, err := classmap.Read([]byte(classmap.Body(m)))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !reflect.DeepEqual(m, got) {
		t.Errorf("round trip mismatch:\nwant %v\ngot  %v", m, got)
	}
}

func TestRead_RoundTripWithHeader(t *testing.T) {
	m := buildFromCSS(t, `.card { border: 1px solid #ccc; }`)

	text := classmap.WithHeader(classmap.Body(m), classmap.Meta{
		Tool: "cssmap", Version: "test", ID: "id", Source: "card.css",
		GeneratedAt: time.Now(),
		Stats:       classmap.Stats{Valid: true},
	})

	got, err := classmap.Read([]byte(text))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !reflect.DeepEqual(m, got) {
		t.Errorf("header must be ignored by the reader:\nwant %v\ngot  %v", m, got)
	}
}

func TestRead_QuoteEscapingRoundTrip(t *testing.T) {
	m := classmap.ClassMap{
		"quote": {
			Default: classmap.PropertySet{"content": "'\\2014'"},
			Media:   map[string]classmap.PropertySet{},
		},
	}

	got, err := classmap.Read([]byte(classmap.Body(m)))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got["quote"] == nil {
		t.Fatal("expected 'quote' entry")
	}
	if v := got["quote"].Default["content"]; v != "'\\2014'" {
		t.Errorf("expected original unescaped value, got %q", v)
	}
}

func TestRead_OversizedScalarLine(t *testing.T) {
	// a property set serializes onto a single line; a multi-megabyte value
	// must still round-trip
	m := classmap.ClassMap{
		"huge": {
			Default: classmap.PropertySet{
				"background-image": "url(" + strings.Repeat("A", 2*1024*1024) + ")",
				"color":            "red",
			},
			Media: map[string]classmap.PropertySet{},
		},
	}

	got, err := classmap.Read([]byte(classmap.Body(m)))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !reflect.DeepEqual(m, got) {
		t.Error("oversized scalar line did not round-trip")
	}
}

func TestRead_NoBody(t *testing.T) {
	_, err := classmap.Read([]byte("<?php\n// nothing here\n"))
	if !errors.Is(err, classmap.ErrNoBody) {
		t.Errorf("expected ErrNoBody, got %v", err)
	}
}

func TestRead_EmptyBody(t *testing.T) {
	m, err := classmap.Read([]byte(classmap.Body(classmap.ClassMap{})))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(m) != 0 {
		t.Errorf("expected empty map, got %v", m)
	}
}

func TestRead_TruncatedInput(t *testing.T) {
	body := classmap.Body(buildFromCSS(t, `
.a { color: red; }
.b { color: blue; }
`))

	// cut the text in the middle of the second entry - the reader keeps what
	// it understood and does not raise
	cut := strings.Index(body, "'b' => [")
	m, err := classmap.Read([]byte(body[:cut+len("'b' => [")]))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if m["a"] == nil {
		t.Error("expected 'a' to survive truncation")
	}
	if m["b"] != nil {
		t.Error("truncated 'b' must not produce an entry")
	}
}

func TestRead_UnrecognizedLinesSkipped(t *testing.T) {
	text := `<?php
return [
    'a' => [
        'default' => 'color: red;',
        $garbage = true;
    ],
];
`
	m, err := classmap.Read([]byte(text))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if m["a"] == nil || m["a"].Default["color"] != "red" {
		t.Errorf("expected 'a' entry to survive, got %v", m)
	}
}

func TestRead_MalformedFragmentsDropped(t *testing.T) {
	text := `<?php
return [
    'a' => [
        'default' => 'color: red; garbage-no-colon; margin: 0;',
    ],
];
`
	m, err := classmap.Read([]byte(text))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	props := m["a"].Default
	if !reflect.DeepEqual(props, classmap.PropertySet{"color": "red", "margin": "0"}) {
		t.Errorf("expected colon-less fragment dropped, got %v", props)
	}
}
