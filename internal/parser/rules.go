package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// Exclusion rule tags.
const (
	TagEquipped    = "equipped"
	TagRequirement = "requirement"
	TagLevel       = "level"
	TagEnergy      = "energy"
	TagItemState   = "item-state"
	TagRarity      = "rarity"
)

// Rule excludes any cleaned line its pattern matches. Tag names the kind of
// line the rule targets and shows up in classification output.
type Rule struct {
	Tag     string
	Pattern *regexp.Regexp
}

// NewRule compiles expr as a case-insensitive rule.
func NewRule(tag, expr string) (Rule, error) {
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid pattern for rule %q: %w", tag, err)
	}
	return Rule{Tag: tag, Pattern: re}, nil
}

// MustRule is like NewRule but panics on an invalid pattern.
func MustRule(tag, expr string) Rule {
	r, err := NewRule(tag, expr)
	if err != nil {
		panic(err)
	}
	return r
}

// RuleSet is an ordered, immutable list of exclusion rules.
// The zero value excludes nothing.
type RuleSet struct {
	rules []Rule
}

// DefaultRules returns the exclusion rules for the reference game's tooltips,
// including the spellings OCR commonly produces for the level label.
func DefaultRules() RuleSet {
	return RuleSet{rules: []Rule{
		MustRule(TagEquipped, `^Equipped`),
		MustRule(TagRequirement, `^Require`),
		MustRule(TagLevel, `^Lv\s*[.\d]`),
		MustRule(TagLevel, `^L[uv]?\.\s*\d`),
		MustRule(TagEnergy, `Energy\s*#?\d`),
		MustRule(TagEnergy, `@Energy`),
		MustRule(TagEnergy, `^\d+\s*Energy\s*$`),
		MustRule(TagItemState, `^Corroded$`),
		MustRule(TagItemState, `^Priceless$`),
		MustRule(TagRarity, `^Rarity`),
	}}
}

// With returns a copy of the set with extra rules appended. The receiver is
// left unchanged.
func (s RuleSet) With(extra ...Rule) RuleSet {
	rules := make([]Rule, 0, len(s.rules)+len(extra))
	rules = append(rules, s.rules...)
	rules = append(rules, extra...)
	return RuleSet{rules: rules}
}

// Match returns the tag of the first rule matching text.
func (s RuleSet) Match(text string) (string, bool) {
	for _, r := range s.rules {
		if r.Pattern.MatchString(text) {
			return r.Tag, true
		}
	}
	return "", false
}

// Rules returns a copy of the rules in evaluation order.
func (s RuleSet) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Len returns the number of rules.
func (s RuleSet) Len() int {
	return len(s.rules)
}

// rulesFile is the on-disk format read by LoadRules.
type rulesFile struct {
	// ReplaceDefaults drops the built-in rules instead of extending them.
	ReplaceDefaults bool `json:"replaceDefaults"`
	Rules           []struct {
		Tag     string `json:"tag"`
		Pattern string `json:"pattern"`
	} `json:"rules"`
}

// LoadRules reads exclusion rules from a JSON file such as
//
//	{"rules": [{"tag": "item-state", "pattern": "^Mirrored$"}]}
//
// The loaded rules extend DefaultRules unless "replaceDefaults" is true.
// Patterns are matched case-insensitively.
func LoadRules(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("failed to read rules file: %w", err)
	}

	var file rulesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	extra := make([]Rule, 0, len(file.Rules))
	for i, entry := range file.Rules {
		if entry.Tag == "" || entry.Pattern == "" {
			return RuleSet{}, fmt.Errorf("rule %d in %s: tag and pattern are required", i, path)
		}
		r, err := NewRule(entry.Tag, entry.Pattern)
		if err != nil {
			return RuleSet{}, err
		}
		extra = append(extra, r)
	}

	if file.ReplaceDefaults {
		return RuleSet{}.With(extra...), nil
	}
	return DefaultRules().With(extra...), nil
}
