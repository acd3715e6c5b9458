package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/ZaguanLabs/tlguard"
	"github.com/ZaguanLabs/tlguard/cache"
	"github.com/ZaguanLabs/tlguard/config"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Export or import the translation cache",
		Long: `Move cached translations between backends or machines as JSON. Only the
redis and sqlite backends outlive the process.`,
	}
	cmd.AddCommand(newCacheExportCmd(a), newCacheImportCmd(a))
	return cmd
}

func newCacheExportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every cached translation as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			c, closeCache, err := openBackend(cmd, cfg)
			if err != nil {
				return err
			}
			defer closeWithLog(ctx, closeCache)

			metadata := map[string]string{
				"backend": cfg.Cache.Backend,
				"source":  cfg.Source,
				"target":  cfg.Target,
			}
			exporter := cache.NewExporter(c)

			var n int
			if output == "" || output == stdoutPath {
				n, err = exporter.Export(ctx, a.stdout, metadata)
			} else {
				n, err = exporter.ExportToFile(ctx, output, metadata)
			}
			if err != nil {
				return err
			}
			if !a.quiet {
				pterm.Success.WithWriter(a.stderr).Printfln("exported %d entries", n)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file (default stdout)")
	return cmd
}

func newCacheImportCmd(a *app) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a JSON export into the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if input == "" {
				return errors.New("--input is required")
			}
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			c, closeCache, err := openBackend(cmd, cfg)
			if err != nil {
				return err
			}
			defer closeWithLog(ctx, closeCache)

			res, err := cache.NewImporter(c).ImportFromFile(ctx, input)
			if err != nil {
				return err
			}
			if !a.quiet {
				pterm.Success.WithWriter(a.stderr).Printfln("imported %d entries (format %s)", res.Imported, res.Version)
				if res.Failed > 0 {
					pterm.Warning.WithWriter(a.stderr).Printfln("%d entries could not be stored", res.Failed)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "export file to load")
	return cmd
}

// openBackend opens the configured cache and refuses the "none" backend.
func openBackend(cmd *cobra.Command, cfg *config.Config) (cache.Lister, func() error, error) {
	c, closeCache, err := openCache(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	if c == nil {
		return nil, nil, &tlguard.ConfigError{Field: "cache.backend", Message: "a cache backend is required"}
	}
	return c, closeCache, nil
}
