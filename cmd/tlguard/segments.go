package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/tlguard"
)

// segment is one extracted node and the strings the provider would get
// for it.
type segment struct {
	ID    string   `json:"id"`
	Stack string   `json:"stack,omitempty"`
	Text  string   `json:"text"`
	Sent  []string `json:"sent"`
}

func newSegmentsCmd(a *app) *cobra.Command {
	var (
		contentType string
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "segments [content]",
		Short: "Show what would be sent to the provider, without calling it",
		Long: `Segment the content exactly as a translation would, then print every
segment with the strings that would reach the provider: emoji split off,
&nbsp; replaced by its marker and glossary terms replaced by tokens.`,
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
			translator := tlguard.NewTranslator(cfg.Target, nil, translatorOptions(ctx, cfg)...)
			segments, err := dryRun(ctx, translator, input, contentType)
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(segments)
			}

			calls := 0
			for _, s := range segments {
				calls += len(s.Sent)
			}
			fmt.Fprintf(a.stdout, "Dry run: %s -> %s, %d segment(s), %d provider call(s)\n\n", cfg.Source, cfg.Target, len(segments), calls)
			for i, s := range segments {
				fmt.Fprintf(a.stdout, "%3d. %q\n", i+1, s.Text)
				if s.Stack != "" {
					fmt.Fprintf(a.stdout, "     in: %s\n", s.Stack)
				}
				for _, sent := range s.Sent {
					fmt.Fprintf(a.stdout, "     -> %q\n", sent)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&contentType, "content-type", "t", "html", "html, text or document")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the segments as JSON")
	return cmd
}

// dryRun extracts content with the translator's processor and records
// each string the translator's pipeline would hand to its provider.
func dryRun(ctx context.Context, t *tlguard.Translator, content, contentType string) ([]segment, error) {
	if content == "" || t.IsSourceLang() {
		return []segment{}, nil
	}

	proc, ok := t.Processor(contentType)
	if !ok {
		return nil, &tlguard.ProcessorError{Message: "no processor registered for content type", ContentType: contentType}
	}
	_, nodes, err := proc.Extract(content)
	if err != nil {
		return nil, err
	}

	segments := make([]segment, 0, len(nodes))
	for _, node := range nodes {
		s := segment{ID: node.ID, Stack: node.Metadata["stack"], Text: node.Text, Sent: []string{}}
		record := tlguard.TranslateFunc(func(_ context.Context, text string) (string, error) {
			if g := t.Glossary(); g != nil {
				text, _ = g.Protect(text)
			}
			s.Sent = append(s.Sent, text)
			return text, nil
		})

		if node.NodeType == tlguard.NodePlainText {
			_, err = record(ctx, node.Text)
		} else {
			_, err = tlguard.TranslateRun(ctx, node.Text, record, t.EmojiMode())
		}
		if err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}
	return segments, nil
}
