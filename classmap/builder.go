package classmap

import (
	"strings"

	"go.uber.org/zap"

	"cssmap/css"
)

// Builder folds parsed stylesheets into a ClassMap.
type Builder struct {
	log *zap.Logger
}

// NewBuilder creates a new ClassMap builder.
func NewBuilder(log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{log: log.Named("classmap")}
}

// Build consumes the rule tree and produces a ClassMap with occurrence
// counters. Only class selectors (leading '.') are processed, everything
// else is dropped. When the same class key is seen again - in another rule
// or in another media block with the same condition text - properties are
// unioned with later declarations overwriting earlier ones. This is textual
// declaration order, not CSS specificity.
func (b *Builder) Build(sheet *css.Stylesheet) (ClassMap, Counters) {
	m := make(ClassMap)
	var cnt Counters

	for _, item := range sheet.Items {
		switch {
		case item.Rule != nil:
			b.addRule(m, *item.Rule, "", &cnt)
		case item.MediaBlock != nil:
			for _, rule := range item.MediaBlock.Rules {
				b.addRule(m, rule, item.MediaBlock.Query, &cnt)
			}
		}
	}
	return m, cnt
}

func (b *Builder) addRule(m ClassMap, rule css.Rule, mediaQuery string, cnt *Counters) {
	sel := strings.TrimSpace(rule.Selector)
	if !strings.HasPrefix(sel, ".") {
		// explicit simplification, not an error
		b.log.Debug("Skipping non-class selector", zap.String("selector", sel))
		return
	}

	key := sel[1:]
	if key == "" {
		b.log.Debug("Skipping empty class selector", zap.String("selector", sel))
		return
	}
	if strings.Contains(key, ":") {
		// ".btn:hover" becomes a separate "btn:hover" entry
		cnt.PseudoClasses++
	}

	cnt.Classes++
	if mediaQuery != "" {
		cnt.MediaQueries++
	}

	cleaned := make(PropertySet, len(rule.Properties))
	for name, value := range rule.Properties {
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		cleaned[name] = value
	}
	if len(cleaned) == 0 {
		// nothing to write, do not create an empty entry
		return
	}

	entry := m.Ensure(key)
	props := entry.Default
	if mediaQuery != "" {
		props = entry.MediaSet(mediaQuery)
	}
	for name, value := range cleaned {
		props[name] = value
	}
}

// SplitKey splits a class-map key into base class and pseudo-classifier on
// the first ':'. Joining the parts back with ':' reconstructs the key
// exactly.
func SplitKey(key string) (base, pseudo string) {
	base, pseudo, _ = strings.Cut(key, ":")
	return base, pseudo
}
