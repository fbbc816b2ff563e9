package main

import (
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vstore/internal/errors"
	"github.com/vango-dev/vstore/internal/tui"
)

func watchCmd(flags *globalFlags) *cobra.Command {
	var (
		url   string
		theme string
	)

	cmd := &cobra.Command{
		Use:   "watch [store]",
		Short: "Follow attached stores in a terminal UI",
		Long: `Watch connects to a devtools stream and shows every attached store with
its latest state and action. The optional argument preselects a store.

Examples:
  vstore watch
  vstore watch workspace
  vstore watch --url=ws://10.0.0.5:7777/devtools/ws`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if url == "" {
				url = cfg.StreamURL()
			}
			opts := tui.Options{StreamURL: url, ThemeName: theme}
			if len(args) == 1 {
				opts.Store = args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = tui.Run(ctx, opts)
			if stderrors.Is(err, tea.ErrProgramKilled) {
				return errors.New("X002").Wrap(err)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Devtools stream URL (default from config)")
	cmd.Flags().StringVar(&theme, "theme", "Nightfox", "Color theme: Nightfox or Slate")

	return cmd
}
