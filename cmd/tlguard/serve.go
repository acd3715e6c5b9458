package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/tlguard/catalog"
	"github.com/ZaguanLabs/tlguard/server"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the translator over HTTP",
		Long: `Serve POST /api/translate for fragments, POST /api/records for record
arrays and GET /api/health. Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Server.Listen = listen
			}

			ctx := cmd.Context()
			translator, closeCache, err := buildTranslator(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeWithLog(ctx, closeCache)

			srv := server.New(translator, *zerolog.Ctx(ctx), server.Options{
				AllowedOrigins: cfg.Server.AllowedOrigins,
				MaxBodyBytes:   cfg.Server.MaxBodyBytes,
				Workers:        cfg.Workers,
				Records: catalog.Options{
					TargetLang:   cfg.Target,
					TargetName:   cfg.TargetName,
					SetSourceID:  cfg.Records.SetSourceID,
					NullID:       cfg.Records.NullID,
					SlugFromName: cfg.Records.SlugFromName,
				},
			})
			return srv.ListenAndServe(ctx, cfg.Server.Listen)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default :8080)")
	return cmd
}
