package main

import (
	"context"
	"filmsync/internal/di"
	"filmsync/internal/models"
	"filmsync/internal/report"
	"filmsync/internal/structures"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func newRootCmd() *cobra.Command {
	flags := &structures.CliFlags{}

	rootCmd := &cobra.Command{
		Use:           "filmsync",
		Short:         "Streaming catalog mirror",
		Long:          "filmsync fetches the per-country film catalog, keeps a merged snapshot and serves it over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&flags.ConfigPath, "config", "./config.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&flags.DebugMode, "debug", false, "Enable debug logging to the console")

	rootCmd.AddCommand(newSyncCmd(flags), newServeCmd(flags), newVersionCmd())
	return rootCmd
}

func newSyncCmd(flags *structures.CliFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization and exit",
		Long: `Fetch every configured country, merge the results, compare them with the
stored snapshot and persist the new one.

Exit codes: 0 catalog changed, 1 no changes, 2 run failed.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := di.InitSync(flags)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "filmsync: %s\n", err)
				os.Exit(models.ExitFailed)
			}
			code := app.Run(ctx, cmd.OutOrStdout())
			stop()
			os.Exit(code)
		},
	}
	cmd.Flags().StringVarP(&flags.Output, "output", "o", report.FormatAuto, "Report format: auto, table or json")
	return cmd
}

func newServeCmd(flags *structures.CliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the stored snapshot over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := di.InitApp(flags)
			if err != nil {
				return err
			}
			return app.Run(ctx)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "filmsync %s (%s %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
