package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/joacominatel/sqlfn/internal/app"
	"github.com/joacominatel/sqlfn/internal/logging"
	"github.com/joacominatel/sqlfn/internal/tui"
)

func consoleCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Open the interactive console",
		Long:  "Open the interactive console. Without --dsn or --profile it starts on the saved connections list.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn, err := env.connectionString(true)
			if err != nil {
				return err
			}

			logFile, err := openLogFile(env.configDir)
			if err != nil {
				return err
			}
			defer logFile.Close()
			logging.SetOutput(logFile)
			defer logging.SetOutput(os.Stderr)

			service := app.NewService(env.base)
			model := tui.NewModel(service, env.cfg, env.configDir, dsn)
			p := tea.NewProgram(model,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)

			_, runErr := p.Run()
			if err := service.Disconnect(context.WithoutCancel(cmd.Context())); err != nil {
				logging.Logger().Warn("disconnect failed", slog.Any("error", err))
			}
			if runErr != nil {
				return fmt.Errorf("console: %w", runErr)
			}
			return nil
		},
	}
}

// openLogFile appends log records to sqlfn.log under dir while the console
// owns the terminal.
func openLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "sqlfn.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
