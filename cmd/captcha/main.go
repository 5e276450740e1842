package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "v0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &loadOptions{}
	root := &cobra.Command{
		Use:           "captcha",
		Short:         "Image captcha engine, verification service and dataset generator",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", "", "Config directory (default $CONFIG_PATH or ./configs)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Dotenv file loaded before the config")

	root.AddCommand(
		newServeCmd(opts),
		newRenderCmd(opts),
		newDatasetCmd(opts),
		newProfilesCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "captcha %s\n", version)
			},
		},
	)
	return root
}
