// Package pipeline wires region detection, OCR and classification into one
// call per screenshot.
package pipeline

import (
	"fmt"
	"image"

	"github.com/ironsheep/tooltip-ocr/internal/config"
	"github.com/ironsheep/tooltip-ocr/internal/detection"
	"github.com/ironsheep/tooltip-ocr/internal/imaging"
	"github.com/ironsheep/tooltip-ocr/internal/logging"
	"github.com/ironsheep/tooltip-ocr/internal/ocr"
	"github.com/ironsheep/tooltip-ocr/internal/parser"
)

// Options groups the settings of every stage.
type Options struct {
	Adapter   ocr.AdapterOptions
	Parser    parser.Options
	Separator detection.SeparatorParams
}

// DefaultOptions returns the settings tuned for the reference game.
func DefaultOptions() Options {
	return Options{
		Adapter:   ocr.DefaultAdapterOptions(),
		Parser:    parser.DefaultOptions(),
		Separator: detection.DefaultSeparatorParams(),
	}
}

// OptionsFromConfig translates a loaded configuration into pipeline options.
// It fails on an unknown split policy or an unreadable rules file.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	opts := DefaultOptions()

	policy, err := parser.ParseSplitPolicy(cfg.SplitPolicy)
	if err != nil {
		return opts, err
	}

	if cfg.RulesFile != "" {
		rules, err := parser.LoadRules(cfg.RulesFile)
		if err != nil {
			return opts, err
		}
		opts.Parser.Rules = rules
	}

	opts.Adapter.Scale = cfg.Scale
	opts.Adapter.MergeThreshold = cfg.MergeThreshold
	opts.Adapter.MergeLines = cfg.MergeLines || tracksBullets(policy)

	opts.Parser.Policy = policy
	opts.Parser.MinConfidence = cfg.MinConfidence
	opts.Parser.KeepBareDigits = cfg.KeepBareDigits

	return opts, nil
}

// tracksBullets reports whether policy can split on bullet flags. Those
// policies need whole lines: the right half of a split colored line sees
// the colored left half in its bullet strip.
func tracksBullets(policy parser.SplitPolicy) bool {
	return policy == parser.SplitBullet || policy == parser.SplitAuto
}

// Result is everything the pipeline learned about one screenshot.
type Result struct {
	Record       parser.ItemRecord       `json:"record"`
	Region       detection.Region        `json:"region"`
	SeparatorY   int                     `json:"separator_y"`
	HasSeparator bool                    `json:"has_separator"`
	Fragments    []ocr.AnnotatedFragment `json:"fragments"`
}

// Pipeline processes screenshots one at a time. The engine is the only
// long-lived resource; every call builds its state from scratch.
type Pipeline struct {
	adapter    *ocr.Adapter
	classifier *parser.Classifier
	separator  detection.SeparatorParams
	log        *logging.Logger
}

// New creates a pipeline around engine. The classifier always uses the
// adapter's scale so separator rows line up with fragment coordinates, and
// line merging is forced on for the auto and bullet policies.
// A nil logger discards output.
func New(engine ocr.Engine, opts Options, log *logging.Logger) *Pipeline {
	if log == nil {
		log = logging.Discard()
	}
	if tracksBullets(opts.Parser.Policy) {
		opts.Adapter.MergeLines = true
	}
	adapter := ocr.NewAdapter(engine, opts.Adapter)
	opts.Parser.Scale = adapter.Scale()

	return &Pipeline{
		adapter:    adapter,
		classifier: parser.NewClassifier(opts.Parser),
		separator:  opts.Separator,
		log:        log,
	}
}

// Classifier returns the classifier used for parsing.
func (p *Pipeline) Classifier() *parser.Classifier {
	return p.classifier
}

// ProcessFile loads a screenshot and processes it.
func (p *Pipeline) ProcessFile(path string) (*Result, error) {
	img, err := imaging.Load(path)
	if err != nil {
		return nil, newUnreadableError(path, err)
	}

	res, err := p.ProcessImage(img)
	if err != nil {
		if pe, ok := err.(*ProcessingError); ok {
			pe.Path = path
		}
		return nil, err
	}
	return res, nil
}

// ProcessImage runs detection, OCR and classification on a decoded
// screenshot.
//
// A screenshot with no readable tooltip text yields a Result with an empty
// Record, not an error. Errors are *ProcessingError values: ErrorNoTooltip
// when the image is too small for the region and ErrorOCRFailed when the
// engine fails.
func (p *Pipeline) ProcessImage(img image.Image) (*Result, error) {
	region, crop, err := p.Region(img)
	if err != nil {
		return nil, err
	}

	sepY, hasSep := p.Separator(crop)
	p.log.Debug("tooltip region", "region", fmt.Sprintf("%+v", region), "separator", sepY, "has_separator", hasSep)

	frags, err := p.adapter.ExtractText(crop)
	if err != nil {
		return nil, newOCRFailedError(err)
	}
	p.log.Debug("text extracted", "fragments", len(frags))

	record := p.classifier.Parse(frags, sepY, hasSep)
	if record.IsEmpty() {
		p.log.Debug("no tooltip content recognized")
	}

	return &Result{
		Record:       record,
		Region:       region,
		SeparatorY:   sepY,
		HasSeparator: hasSep,
		Fragments:    frags,
	}, nil
}

// Region locates and crops the tooltip. The crop is re-based to (0,0).
func (p *Pipeline) Region(img image.Image) (detection.Region, image.Image, error) {
	b := img.Bounds()
	region := detection.DetectTooltipRegion(img)
	if region.Empty() {
		return region, nil, newNoTooltipError(b.Dx(), b.Dy())
	}
	return region, imaging.Crop(img, region.Rect().Add(b.Min)), nil
}

// Separator locates the separator row of a tooltip crop.
func (p *Pipeline) Separator(crop image.Image) (int, bool) {
	return detection.DetectSeparatorLineGray(imaging.Grayscale(crop), p.separator)
}
