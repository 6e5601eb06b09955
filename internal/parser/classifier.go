package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ironsheep/tooltip-ocr/internal/imaging"
	"github.com/ironsheep/tooltip-ocr/internal/ocr"
)

var (
	equipTypePattern = regexp.MustCompile(`^(.+?)\s*\(`)
	trailingLevel    = regexp.MustCompile(`\s*Lv\.\d+\s*$`)

	// A bare number followed by a capitalized stat name, e.g. "1615 Evasion".
	// Affixes start with '+' or '-' and never match.
	baseStatPattern = regexp.MustCompile(`^\d+\s+[A-Z]`)
)

// SplitPolicy selects which layout signal separates the base stat from the
// affixes.
type SplitPolicy int

const (
	// SplitAuto uses the separator when one was detected, else bullet markers
	// when any remaining line carries one, else the base-stat pattern.
	SplitAuto SplitPolicy = iota
	// SplitSeparator splits on the separator row. Without a separator it
	// falls back to SplitPattern.
	SplitSeparator
	// SplitBullet starts the affixes at the first bullet-marked line. Without
	// any bullet it falls back to SplitPattern.
	SplitBullet
	// SplitPattern treats the first remaining line as the base stat when it
	// looks like one.
	SplitPattern
)

var splitPolicyNames = map[SplitPolicy]string{
	SplitAuto:      "auto",
	SplitSeparator: "separator",
	SplitBullet:    "bullet",
	SplitPattern:   "pattern",
}

func (p SplitPolicy) String() string {
	if name, ok := splitPolicyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("SplitPolicy(%d)", int(p))
}

// ParseSplitPolicy converts a policy name ("auto", "separator", "bullet",
// "pattern") to a SplitPolicy.
func ParseSplitPolicy(name string) (SplitPolicy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for p, n := range splitPolicyNames {
		if n == name {
			return p, nil
		}
	}
	return SplitAuto, fmt.Errorf("unknown split policy %q (want auto, separator, bullet or pattern)", name)
}

// FlavorWindow is the HSV range of flavor text, on the OpenCV 8-bit scale.
// Bounds are inclusive.
type FlavorWindow struct {
	HueMin, HueMax float64
	SatMin, SatMax float64
}

// DefaultFlavorWindow matches the warm orange of the reference game's flavor
// text.
func DefaultFlavorWindow() FlavorWindow {
	return FlavorWindow{HueMin: 12, HueMax: 28, SatMin: 80, SatMax: 170}
}

// Contains reports whether c falls inside the window. The undetermined
// sentinel never does.
func (w FlavorWindow) Contains(c imaging.HSV) bool {
	if c.IsZero() {
		return false
	}
	return c.H >= w.HueMin && c.H <= w.HueMax && c.S >= w.SatMin && c.S <= w.SatMax
}

// Options configures a Classifier. Start from DefaultOptions.
type Options struct {
	// MinConfidence drops fragments the engine is less sure about.
	MinConfidence float64

	// MinLineLength drops cleaned lines of this many runes or fewer.
	MinLineLength int

	// KeepBareDigits exempts all-digit lines from the length filter.
	KeepBareDigits bool

	Flavor FlavorWindow
	Rules  RuleSet
	Policy SplitPolicy

	// Scale is the factor between crop coordinates, where the separator is
	// measured, and fragment coordinates.
	Scale int
}

// DefaultOptions returns the settings tuned for the reference game.
func DefaultOptions() Options {
	return Options{
		MinConfidence: 0.3,
		MinLineLength: 2,
		Flavor:        DefaultFlavorWindow(),
		Rules:         DefaultRules(),
		Policy:        SplitAuto,
		Scale:         2,
	}
}

// Line is a fragment that survived filtering.
type Line struct {
	Text      string
	CenterY   float64
	Color     imaging.HSV
	HasBullet bool
}

// Outcome says what the filter did with one fragment.
type Outcome string

const (
	OutcomeKept          Outcome = "kept"
	OutcomeLowConfidence Outcome = "low-confidence"
	OutcomeEmpty         Outcome = "empty"
	OutcomeTooShort      Outcome = "too-short"
	OutcomeFlavor        Outcome = "flavor"
	// OutcomeAfterFlavor marks fragments never looked at because flavor text
	// came first.
	OutcomeAfterFlavor Outcome = "after-flavor"
)

func excluded(tag string) Outcome {
	return Outcome("excluded:" + tag)
}

// Decision records how one fragment was classified.
type Decision struct {
	Raw        string  `json:"raw"`
	Cleaned    string  `json:"cleaned"`
	Confidence float64 `json:"confidence"`
	Outcome    Outcome `json:"outcome"`
}

// Classifier turns annotated fragments into an ItemRecord. It holds only its
// options and is safe for concurrent use.
type Classifier struct {
	opts Options
}

// NewClassifier creates a classifier. A Scale below 1 is treated as 1.
func NewClassifier(opts Options) *Classifier {
	if opts.Scale < 1 {
		opts.Scale = 1
	}
	return &Classifier{opts: opts}
}

// Options returns the classifier's settings.
func (c *Classifier) Options() Options {
	return c.opts
}

// Classify cleans a single fragment and decides whether it is kept.
// The returned Line is only meaningful when the outcome is OutcomeKept.
func (c *Classifier) Classify(f ocr.AnnotatedFragment) (Line, Outcome) {
	if f.Confidence < c.opts.MinConfidence {
		return Line{}, OutcomeLowConfidence
	}

	text := CleanText(f.Text)
	if text == "" {
		return Line{}, OutcomeEmpty
	}
	if utf8.RuneCountInString(text) <= c.opts.MinLineLength && !(c.opts.KeepBareDigits && allDigits(text)) {
		return Line{}, OutcomeTooShort
	}

	if c.opts.Flavor.Contains(f.Color) {
		return Line{}, OutcomeFlavor
	}

	if tag, ok := c.opts.Rules.Match(text); ok {
		return Line{}, excluded(tag)
	}

	return Line{
		Text:      text,
		CenterY:   f.Polygon.CenterY(),
		Color:     f.Color,
		HasBullet: f.HasBullet,
	}, OutcomeKept
}

// Explain classifies every fragment in order, the way Parse does, and
// reports each decision. Fragments after flavor text are marked
// OutcomeAfterFlavor.
func (c *Classifier) Explain(frags []ocr.AnnotatedFragment) []Decision {
	decisions := make([]Decision, 0, len(frags))
	stopped := false
	for _, f := range frags {
		d := Decision{Raw: f.Text, Cleaned: CleanText(f.Text), Confidence: f.Confidence}
		if stopped {
			d.Outcome = OutcomeAfterFlavor
		} else {
			_, d.Outcome = c.Classify(f)
			stopped = d.Outcome == OutcomeFlavor
		}
		decisions = append(decisions, d)
	}
	return decisions
}

// Lines returns the fragments that survive filtering, in input order.
// Processing stops at the first flavor-colored line.
func (c *Classifier) Lines(frags []ocr.AnnotatedFragment) []Line {
	var lines []Line
	for _, f := range frags {
		line, outcome := c.Classify(f)
		if outcome == OutcomeFlavor {
			break
		}
		if outcome == OutcomeKept {
			lines = append(lines, line)
		}
	}
	return lines
}

// Parse assigns roles to the fragments of one tooltip.
//
// Fragments must be ordered top to bottom. separatorY is the separator row
// in crop coordinates and is only used when hasSeparator is set.
//
// The first kept line is the name and the second the equipment type. The
// rest is split into base stat and affixes according to the split policy.
// With no kept lines the record is empty; Parse never fails.
func (c *Classifier) Parse(frags []ocr.AnnotatedFragment, separatorY int, hasSeparator bool) ItemRecord {
	record := ItemRecord{Affixes: []string{}}

	lines := c.Lines(frags)
	if len(lines) == 0 {
		return record
	}

	record.Name = lines[0].Text
	if len(lines) > 1 {
		record.EquipmentType = extractEquipmentType(lines[1].Text)
	}
	if len(lines) <= 2 {
		return record
	}

	rest := lines[2:]
	switch c.resolvePolicy(rest, hasSeparator) {
	case SplitSeparator:
		record.BaseStat, record.Affixes = splitBySeparator(rest, float64(separatorY*c.opts.Scale))
	case SplitBullet:
		record.BaseStat, record.Affixes = splitByBullet(rest)
	default:
		record.BaseStat, record.Affixes = splitByPattern(rest)
	}

	return record
}

// resolvePolicy picks the split actually applied to rest.
func (c *Classifier) resolvePolicy(rest []Line, hasSeparator bool) SplitPolicy {
	switch c.opts.Policy {
	case SplitSeparator:
		if hasSeparator {
			return SplitSeparator
		}
	case SplitBullet:
		if firstBullet(rest) >= 0 {
			return SplitBullet
		}
	case SplitAuto:
		if hasSeparator {
			return SplitSeparator
		}
		if firstBullet(rest) >= 0 {
			return SplitBullet
		}
	}
	return SplitPattern
}

func splitBySeparator(rest []Line, sepY float64) (string, []string) {
	var above []string
	below := []string{}
	for _, l := range rest {
		if l.CenterY < sepY {
			above = append(above, l.Text)
		} else {
			below = append(below, l.Text)
		}
	}
	return strings.Join(above, " "), below
}

// splitByBullet surfaces the lines before the first bullet as the base stat,
// the same way the separator split does.
func splitByBullet(rest []Line) (string, []string) {
	i := firstBullet(rest)
	base := make([]string, 0, i)
	for _, l := range rest[:i] {
		base = append(base, l.Text)
	}
	return strings.Join(base, " "), texts(rest[i:])
}

func splitByPattern(rest []Line) (string, []string) {
	if baseStatPattern.MatchString(rest[0].Text) {
		return rest[0].Text, texts(rest[1:])
	}
	return "", texts(rest)
}

func firstBullet(lines []Line) int {
	for i, l := range lines {
		if l.HasBullet {
			return i
		}
	}
	return -1
}

func texts(lines []Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Text)
	}
	return out
}

// extractEquipmentType strips the slot in parentheses and the level from the
// type line: "INT Helmet(Helmet) Lv.100" becomes "INT Helmet".
func extractEquipmentType(text string) string {
	if m := equipTypePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(trailingLevel.ReplaceAllString(text, ""))
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
