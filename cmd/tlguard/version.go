package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/tlguard"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(a.stdout, "%s %s\n", tlguard.Name, tlguard.FullVersion())
			if tlguard.GitCommit != "unknown" && tlguard.GitCommit != "" {
				fmt.Fprintf(a.stdout, "  commit:  %s\n", tlguard.GitCommit)
			}
			if tlguard.BuildDate != "unknown" && tlguard.BuildDate != "" {
				fmt.Fprintf(a.stdout, "  built:   %s\n", tlguard.BuildDate)
			}
		},
	}
}
