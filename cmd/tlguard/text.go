package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// textOutput is the --json form of a text translation.
type textOutput struct {
	Content         string `json:"content"`
	TotalNodes      int    `json:"total_nodes"`
	TranslatedCount int    `json:"translated_count"`
	CachedCount     int    `json:"cached_count"`
	GlossaryHits    int    `json:"glossary_hits"`
	ElapsedMs       int64  `json:"elapsed_ms"`
}

func newTextCmd(a *app) *cobra.Command {
	var (
		contentType string
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "text [content]",
		Short: "Translate one fragment given as argument or on stdin",
		Example: `  tlguard text --provider mock '<b>Puissant</b> 🙂 et silencieux'
  cat page.html | tlguard text --content-type document --target ar`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := a.readInput(args)
			if err != nil {
				return err
			}
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			translator, closeCache, err := buildTranslator(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeWithLog(ctx, closeCache)

			start := time.Now()
			result, err := translator.Process(ctx, input, contentType)
			if err != nil {
				return errors.Errorf("translation failed: %w", err)
			}
			elapsed := time.Since(start)

			if jsonOut {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(textOutput{
					Content:         result.Content,
					TotalNodes:      result.TotalNodes,
					TranslatedCount: result.TranslatedCount,
					CachedCount:     result.CachedCount,
					GlossaryHits:    result.GlossaryHits,
					ElapsedMs:       elapsed.Milliseconds(),
				})
			}

			fmt.Fprint(a.stdout, result.Content)
			if !a.quiet {
				fmt.Fprintf(a.stderr, "\nDone in %v\n", elapsed.Round(time.Millisecond))
				fmt.Fprintf(a.stderr, "  Segments:     %d\n", result.TotalNodes)
				fmt.Fprintf(a.stderr, "  Translated:   %d\n", result.TranslatedCount)
				fmt.Fprintf(a.stderr, "  From cache:   %d\n", result.CachedCount)
				fmt.Fprintf(a.stderr, "  Glossary:     %d\n", result.GlossaryHits)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&contentType, "content-type", "t", "html", "html, text or document")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result and counters as JSON")
	return cmd
}
