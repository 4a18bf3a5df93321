package catalog

import (
	"fmt"
	"strings"
)

// Definition describes one kind of system permission dialog.
type Definition struct {
	Type     string   `yaml:"type"`
	Identify []string `yaml:"identify"` // any of these in the recognized text identifies the dialog
	Allow    []string `yaml:"allow"`    // allow button label fragments
	Deny     []string `yaml:"deny"`     // deny button label fragments
}

// Matches reports whether text contains any identification keyword,
// ignoring case. Substring containment only, so short keywords can match
// inside longer words.
func (d Definition) Matches(text string) bool {
	if text == "" {
		return false
	}
	return containsAny(text, d.Identify)
}

// Catalog is an ordered, read-only set of definitions. Earlier definitions
// win when several match. Safe for concurrent use.
type Catalog struct {
	defs []Definition
}

// New builds a catalog from defs, copying them so the caller cannot mutate it later.
func New(defs ...Definition) *Catalog {
	c := &Catalog{defs: make([]Definition, 0, len(defs))}
	for _, d := range defs {
		c.defs = append(c.defs, Definition{
			Type:     d.Type,
			Identify: append([]string(nil), d.Identify...),
			Allow:    append([]string(nil), d.Allow...),
			Deny:     append([]string(nil), d.Deny...),
		})
	}
	return c
}

// Classify returns the first definition matching text.
func (c *Catalog) Classify(text string) (Definition, bool) {
	if c == nil || text == "" {
		return Definition{}, false
	}
	for _, d := range c.defs {
		if d.Matches(text) {
			return d, true
		}
	}
	return Definition{}, false
}

// Definitions returns the definitions in match order.
func (c *Catalog) Definitions() []Definition {
	if c == nil {
		return nil
	}
	return append([]Definition(nil), c.defs...)
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.defs)
}

// Validate returns human-readable warnings about definitions that are
// suspicious but not fatal: duplicate or empty type tags, definitions that can
// never match, and definitions without button keywords.
func (c *Catalog) Validate() []string {
	var warnings []string
	seen := make(map[string]int)
	for i, d := range c.Definitions() {
		name := d.Type
		if name == "" {
			name = fmt.Sprintf("#%d", i)
			warnings = append(warnings, fmt.Sprintf("definition %s has no type", name))
		} else if first, ok := seen[strings.ToLower(d.Type)]; ok {
			warnings = append(warnings, fmt.Sprintf("definition #%d reuses type %q of definition #%d", i, d.Type, first))
		} else {
			seen[strings.ToLower(d.Type)] = i
		}
		if !hasKeyword(d.Identify) {
			warnings = append(warnings, fmt.Sprintf("definition %s has no identify keywords and will never match", name))
		}
		if !hasKeyword(d.Allow) {
			warnings = append(warnings, fmt.Sprintf("definition %s has no allow keywords", name))
		}
		if !hasKeyword(d.Deny) {
			warnings = append(warnings, fmt.Sprintf("definition %s has no deny keywords", name))
		}
	}
	return warnings
}

// ContainsFold reports whether s contains substr, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func hasKeyword(keywords []string) bool {
	for _, kw := range keywords {
		if strings.TrimSpace(kw) != "" {
			return true
		}
	}
	return false
}
