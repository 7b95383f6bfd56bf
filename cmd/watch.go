package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitbind/internal/buildinfo"
	"github.com/thiagokokada/gitbind/internal/config"
	"github.com/thiagokokada/gitbind/internal/git"
)

func (a *app) watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Print repository state transitions until interrupted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			w, err := git.WatchState(path, a.cfg.Watch.Debounce)
			if err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			defer func() {
				err = errors.Join(err, w.Close())
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			slog.Info("watching repository state",
				slog.String("path", path),
				slog.Duration("debounce", a.cfg.Watch.Debounce),
			)
			fmt.Fprintf(a.stdout, "state: %s\n", w.Current())
			for {
				select {
				case <-ctx.Done():
					return nil
				case change, ok := <-w.Changes():
					if !ok {
						return nil
					}
					fmt.Fprintf(a.stdout, "state: %s -> %s\n", change.From, change.To)
				}
			}
		},
	}
	cmd.Flags().Duration("debounce", git.DefaultWatchDelay, "quiet period before the state is re-read")
	a.bind(config.KeyWatchDebounce, cmd.Flags().Lookup("debounce"))
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			fmt.Fprintln(a.stdout, buildinfo.Read())
			return nil
		},
	}
}
