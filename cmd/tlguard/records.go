package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/ZaguanLabs/tlguard"
	"github.com/ZaguanLabs/tlguard/catalog"
)

const stdoutPath = "-"

func newRecordsCmd(a *app) *cobra.Command {
	var (
		inputs   []string
		output   string
		progress string
	)

	cmd := &cobra.Command{
		Use:   "records",
		Short: "Translate JSON arrays of product records",
		Long: `Translate the name, short and long content and Yoast SEO fields of every
record in each input file, then apply the bookkeeping rewrites (language,
taxonomy, ids, slug). With a single input the result goes to --output or
stdout; with several, --output is a directory.`,
		Example: `  tlguard records -i products_fr.json -o products_en.json --target en --target-name English
  tlguard records -i 'export/*.json' -o out/ --null-id --set-source-id --glossary-pair Climatiseur="Air conditioner"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(inputs) == 0 {
				return errors.New("at least one --input is required")
			}
			if progress != "auto" && progress != "none" {
				return &tlguard.ConfigError{Field: "progress", Message: `must be "auto" or "none"`}
			}
			return a.runRecords(cmd, inputs, output, progress == "auto")
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&inputs, "input", "i", nil, "input JSON file or glob pattern (repeatable)")
	f.StringVarP(&output, "output", "o", "", "output file, or directory when several inputs match (default stdout)")
	f.StringVar(&progress, "progress", "auto", "progress display: auto or none")
	f.StringVar(&a.targetName, "target-name", "", "language name written to tax.language (default the target code)")
	f.BoolVar(&a.nullID, "null-id", false, "set id to null in the output")
	f.BoolVar(&a.setSourceID, "set-source-id", false, "copy the input id to source_id")
	f.BoolVar(&a.slugFromName, "slug-from-name", false, "derive slug from the translated name")
	return cmd
}

func (a *app) runRecords(cmd *cobra.Command, inputs []string, output string, showProgress bool) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}

	paths, err := catalog.ExpandInputs(inputs)
	if err != nil {
		return err
	}
	outputs, err := outputPaths(paths, output)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	log := zerolog.Ctx(ctx)

	translator, closeCache, err := buildTranslator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeWithLog(ctx, closeCache)

	mapper := catalog.NewMapper(translator, catalog.Options{
		TargetLang:   cfg.Target,
		TargetName:   cfg.TargetName,
		SetSourceID:  cfg.Records.SetSourceID,
		NullID:       cfg.Records.NullID,
		SlugFromName: cfg.Records.SlugFromName,
	})

	start := time.Now()
	for i, path := range paths {
		records, err := catalog.LoadRecords(path)
		if err != nil {
			return err
		}
		log.Info().Str("input", path).Int("records", len(records)).Str("target", cfg.Target).Msg("translating records")

		batch := catalog.Batch{Mapper: mapper, Workers: cfg.Workers}
		var bar *pterm.ProgressbarPrinter
		if showProgress && len(records) > 0 {
			bar, err = pterm.DefaultProgressbar.
				WithTotal(len(records)).
				WithTitle(filepath.Base(path)).
				WithWriter(a.stderr).
				Start()
			if err != nil {
				return errors.Errorf("starting progress bar: %w", err)
			}
			batch.OnProgress = func(int, int) { bar.Increment() }
		}

		translated, err := batch.Run(ctx, records)
		if bar != nil {
			_, _ = bar.Stop()
		}
		if err != nil {
			return errors.Errorf("%s: %w", path, err)
		}

		if outputs[i] == stdoutPath {
			if err := catalog.EncodeRecords(a.stdout, translated); err != nil {
				return err
			}
			continue
		}
		if err := catalog.WriteRecords(outputs[i], translated); err != nil {
			return err
		}
		log.Info().Str("output", outputs[i]).Msg("records written")
	}

	if !a.quiet {
		a.printRecordsSummary(mapper.Stats(), len(paths), time.Since(start))
	}
	return nil
}

// outputPaths maps each input to its destination. One input writes to
// output (stdout when empty); several inputs write same-named files into
// the output directory.
func outputPaths(inputs []string, output string) ([]string, error) {
	if len(inputs) == 1 {
		if output == "" {
			output = stdoutPath
		}
		return []string{output}, nil
	}

	if output == "" || output == stdoutPath {
		return nil, errors.Errorf("%d inputs matched: --output must name a directory", len(inputs))
	}
	if err := os.MkdirAll(output, 0o750); err != nil {
		return nil, errors.Errorf("creating output directory: %w", err)
	}

	seen := make(map[string]string, len(inputs))
	paths := make([]string, len(inputs))
	for i, in := range inputs {
		base := filepath.Base(in)
		if prev, ok := seen[base]; ok {
			return nil, errors.Errorf("inputs %s and %s would both be written to %s", prev, in, base)
		}
		seen[base] = in
		paths[i] = filepath.Join(output, base)
	}
	return paths, nil
}

func (a *app) printRecordsSummary(s catalog.Stats, files int, elapsed time.Duration) {
	green := color.New(color.FgGreen).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(a.stderr, "%s %d records from %d file(s) in %v\n", green("✓"), s.Records, files, elapsed.Round(time.Millisecond))
	fmt.Fprintf(a.stderr, "  %s %d\n", faint("fields:       "), s.Fields)
	fmt.Fprintf(a.stderr, "  %s %d\n", faint("segments:     "), s.Nodes)
	fmt.Fprintf(a.stderr, "  %s %d\n", faint("translated:   "), s.Translated)
	fmt.Fprintf(a.stderr, "  %s %d\n", faint("from cache:   "), s.Cached)
	fmt.Fprintf(a.stderr, "  %s %d\n", faint("glossary hits:"), s.GlossaryHits)
}
