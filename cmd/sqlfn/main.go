package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	env := &environment{}
	err := rootCmd(env).ExecuteContext(ctx)
	stop()

	if serr := env.shutdown(context.Background()); serr != nil {
		fmt.Fprintln(os.Stderr, serr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd(env *environment) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sqlfn",
		Short:         "sqlfn - PostgreSQL console and query runner",
		Long:          "Run queries, bulk loads and an interactive console against PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return env.setup(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&env.configDir, "config-dir", "", "Configuration directory (default $SQLFN_CONFIG_DIR or ~/.sqlfn)")
	rootCmd.PersistentFlags().StringVar(&env.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVarP(&env.profile, "profile", "p", "", "Saved connection profile")
	rootCmd.PersistentFlags().StringVar(&env.dsn, "dsn", "", "PostgreSQL connection string (overrides --profile)")
	rootCmd.PersistentFlags().DurationVar(&env.timeout, "timeout", 0, "Statement timeout (default from preferences)")
	rootCmd.PersistentFlags().StringVar(&env.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	rootCmd.PersistentFlags().StringVar(&env.otlpEndpoint, "otlp-endpoint", "", "Export traces to this OTLP/HTTP endpoint")
	rootCmd.PersistentFlags().BoolVar(&env.otlpInsecure, "otlp-insecure", false, "Use plain HTTP for the OTLP exporter")

	rootCmd.AddCommand(
		consoleCmd(env),
		queryCmd(env),
		execCmd(env),
		loadCmd(env),
		profilesCmd(env),
	)
	return rootCmd
}
