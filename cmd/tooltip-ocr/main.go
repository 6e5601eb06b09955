package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/tooltip-ocr/internal/config"
	"github.com/ironsheep/tooltip-ocr/internal/logging"
	"github.com/ironsheep/tooltip-ocr/internal/ocr"
	"github.com/ironsheep/tooltip-ocr/internal/pipeline"
	"github.com/ironsheep/tooltip-ocr/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

type cliOptions struct {
	envFile    string
	policy     string
	scale      int
	mergeLines bool
	lang       string
	debug      bool
	version    bool
}

func main() {
	if err := newRootCmd(&cliOptions{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tooltip-ocr [flags] <screenshot> [screenshot ...]",
		Short: "Extract item data from game tooltip screenshots",
		Long: `tooltip-ocr reads the item tooltip in each screenshot and prints the
item name, equipment type, base stat and affixes as JSON.

Screenshots that cannot be read or hold no tooltip text produce a warning on
stderr; the remaining files are still processed.

Environment variables (also read from .env):
  TOOLTIP_OCR_LOG_LEVEL, TOOLTIP_OCR_LANGUAGE, TOOLTIP_OCR_TESSDATA,
  TOOLTIP_OCR_SCALE, TOOLTIP_OCR_SPLIT_POLICY, TOOLTIP_OCR_MERGE_LINES,
  TOOLTIP_OCR_MERGE_THRESHOLD, TOOLTIP_OCR_MIN_CONFIDENCE,
  TOOLTIP_OCR_KEEP_BARE_DIGITS, TOOLTIP_OCR_RULES_FILE`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.version {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.version {
				printVersion(cmd.OutOrStdout())
				return nil
			}
			return runParse(cmd, opts, args)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.envFile, "env-file", "", "Load settings from this file instead of ./.env")
	pf.StringVar(&opts.policy, "policy", "auto", "Base stat split policy: auto, separator, bullet or pattern")
	pf.IntVar(&opts.scale, "scale", 2, "Upscale factor applied before OCR")
	pf.BoolVar(&opts.mergeLines, "merge-lines", false, "Join OCR fragments that share a visual line (always on for the auto and bullet policies)")
	pf.StringVar(&opts.lang, "lang", "eng", "Tesseract language code")
	pf.BoolVar(&opts.debug, "debug", false, "Log every OCR fragment and its classification to stderr")
	cmd.Flags().BoolVarP(&opts.version, "version", "v", false, "Print version information")

	cmd.AddCommand(newServeCmd(opts))

	return cmd
}

func newServeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			log.Info("starting MCP server", "version", Version, "commit", GitCommit)

			p, closeEngine, err := buildPipeline(cfg, log)
			if err != nil {
				return err
			}
			defer closeEngine()

			return server.New(p, log, Version).Run()
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "tooltip-ocr %s\n", Version)
	fmt.Fprintf(w, "  Build time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
}

// loadConfig reads the environment and applies any flags set on the
// command line.
func loadConfig(cmd *cobra.Command, opts *cliOptions) (*config.Config, error) {
	cfg, err := config.LoadWithOptions(config.LoadOptions{EnvFile: opts.envFile})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("policy") {
		cfg.SplitPolicy = opts.policy
	}
	if flags.Changed("scale") {
		cfg.Scale = opts.scale
	}
	if flags.Changed("merge-lines") {
		cfg.MergeLines = opts.mergeLines
	}
	if flags.Changed("lang") {
		cfg.Language = opts.lang
	}
	if opts.debug {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logging.Logger {
	return logging.New("tooltip-ocr", logging.ParseLevel(cfg.LogLevel))
}

// buildPipeline creates the Tesseract engine and the pipeline around it.
// The returned function releases the engine.
func buildPipeline(cfg *config.Config, log *logging.Logger) (*pipeline.Pipeline, func(), error) {
	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	tessOpts := ocr.DefaultTesseractOptions()
	tessOpts.Language = cfg.Language
	tessOpts.TessdataPrefix = cfg.TessdataPrefix

	engine, err := ocr.NewTesseractEngine(tessOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start OCR engine: %w", err)
	}
	log.Debug("OCR engine ready", "tesseract", engine.Version(), "language", cfg.Language,
		"policy", opts.Parser.Policy, "scale", opts.Adapter.Scale, "merge_lines", opts.Adapter.MergeLines)

	closeEngine := func() {
		if err := engine.Close(); err != nil {
			log.Warn("failed to close OCR engine", "error", err)
		}
	}
	return pipeline.New(engine, opts, log), closeEngine, nil
}

func runParse(cmd *cobra.Command, opts *cliOptions, paths []string) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	p, closeEngine, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}
	defer closeEngine()

	processPaths(p, paths, cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.debug)
	return nil
}

// processPaths prints one record per screenshot and returns how many
// screenshots produced a warning instead.
func processPaths(p *pipeline.Pipeline, paths []string, stdout, stderr io.Writer, debug bool) int {
	warnings := 0
	for _, path := range paths {
		if len(paths) > 1 {
			fmt.Fprintf(stdout, "--- %s ---\n", path)
		}

		res, err := p.ProcessFile(path)
		if err != nil {
			fmt.Fprintf(stderr, "warning: %s: %v\n", path, err)
			warnings++
			continue
		}

		if debug {
			for _, d := range p.Classifier().Explain(res.Fragments) {
				fmt.Fprintf(stderr, "  [%-20s] %.2f %q\n", d.Outcome, d.Confidence, d.Cleaned)
			}
		}

		if res.Record.IsEmpty() {
			fmt.Fprintf(stderr, "warning: %s: no tooltip content found\n", path)
			warnings++
			continue
		}

		data, err := json.MarshalIndent(res.Record, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, "warning: %s: %v\n", path, err)
			warnings++
			continue
		}
		fmt.Fprintln(stdout, string(data))
	}
	return warnings
}
