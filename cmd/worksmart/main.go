package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"worksmart/internal/bootstrap"
	"worksmart/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var homeDir string

	root := &cobra.Command{
		Use:           "worksmart",
		Short:         "Work session tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&homeDir, "home", "", "data directory (defaults to $WORKSMART_HOME or $XDG_DATA_HOME/worksmart)")

	root.AddCommand(newTUICmd(&homeDir))
	root.AddCommand(newSessionCmd(&homeDir))
	root.AddCommand(newTrackerCmd(&homeDir))
	root.AddCommand(newCapsulesCmd(&homeDir))
	root.AddCommand(newDaemonCmd(&homeDir))
	root.AddCommand(newPrefsCmd(&homeDir))
	root.AddCommand(newCameraCmd(&homeDir))
	return root
}

// withApp builds the application for one command and releases it afterwards.
func withApp(ctx context.Context, homeDir string, fn func(*bootstrap.App) error) error {
	cfg, err := config.Load(homeDir)
	if err != nil {
		return err
	}
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	runErr := fn(app)
	if closeErr := app.Close(context.WithoutCancel(ctx)); closeErr != nil {
		app.Logger.Warn("release resources", "error", closeErr)
	}
	return runErr
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTUICmd(homeDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the timecard terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()
			return withApp(ctx, *homeDir, func(app *bootstrap.App) error {
				return bootstrap.RunTUI(ctx, app)
			})
		},
	}
}

func newSessionCmd(homeDir *string) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Work session lifecycle"}

	session.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start a session in the running daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *homeDir, func(app *bootstrap.App) error {
				out, err := app.DaemonCLI.StartSession(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session running: %s since %s\n", out.ID, out.StartedAt.Format(time.RFC3339))
				return nil
			})
		},
	})

	var mode string
	stop := &cobra.Command{
		Use:   "stop [--mode immediate|after_current]",
		Short: "Stop the daemon's session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *homeDir, func(app *bootstrap.App) error {
				out, err := app.DaemonCLI.StopSession(cmd.Context(), mode)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session %s stopping (%s)\n", out.ID, mode)
				return nil
			})
		},
	}
	stop.Flags().StringVar(&mode, "mode", "immediate", "immediate cancels the current capsule; after_current lets it finish")
	session.AddCommand(stop)

	session.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the daemon's session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *homeDir, func(app *bootstrap.App) error {
				out, err := app.DaemonCLI.Session(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	})

	session.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Record a session in the foreground until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()
			return withApp(ctx, *homeDir, func(app *bootstrap.App) error {
				if err := app.DaemonCLI.EnsureStopped(ctx); err != nil {
					return fmt.Errorf("session run: %w (use session start instead)", err)
				}
				pumpCtx, stopPump := context.WithCancel(ctx)
				defer stopPump()
				go func() {
					if err := app.Input.Run(pumpCtx); err != nil && pumpCtx.Err() == nil {
						app.Logger.Warn("input pump stopped", "error", err)
					}
				}()
				out, err := app.SessionCLI.Run(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session %s ended after %s\n", out.ID, out.EndedAt.Sub(out.StartedAt).Truncate(time.Second))
				return nil
			})
		},
	})

	var tail int
	events := &cobra.Command{
		Use:   "events",
		Short: "Show recent session events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *homeDir, func(app *bootstrap.App) error {
				items, err := app.SessionCLI.Events(cmd.Context(), tail)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no events")
					return nil
				}
				for _, e := range items {
					line := fmt.Sprintf("%s\t%s\tsession=%s", e.OccurredAt.Format(time.RFC3339), e.Kind, e.SessionID)
					if e.CapsuleID != "" {
						line += " capsule=" + e.CapsuleID
					}
					if e.Reason != "" {
						line += " reason=" + e.Reason
					}
					if e.ElapsedSeconds > 0 {
						line += fmt.Sprintf(" elapsed=%ds", e.ElapsedSeconds)
					}
					if e.Error != "" {
						line += fmt.Sprintf(" error=%q", e.Error)
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	}
	events.Flags().IntVar(&tail, "tail", 50, "number of events from the end")
	session.AddCommand(events)
	return session
}

func newTrackerCmd(homeDir *string) *cobra.Command {
	tracker := &cobra.Command{Use: "tracker", Short: "Tracked time per day"}

	tracker.AddCommand(&cobra.Command{
		Use:   "today",
		Short: "Show time tracked today",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *homeDir, func(app *bootstrap.App) error {
				out, err := app.DaemonCLI.Today(cmd.Context())
				if err != nil {
					// Without a daemon the file on disk is still authoritative.
					out, err = app.TrackerCLI.Today(cmd.Context())
					if err != nil {
						return err
					}
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", out.Day, time.Duration(out.Seconds)*time.Second)
				return nil
			})
		},
	})

	tracker.AddCommand(&cobra.Command{
		Use:   "history",
		Short: "Show tracked time per day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *homeDir, func(app *bootstrap.App) error {
				days, err := app.TrackerCLI.History(cmd.Context())
				if err != nil {
					return err
				}
				if len(days) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no tracked time")
					return nil
				}
				for _, d := range days {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", d.Day, time.Duration(d.Seconds)*time.Second)
				}
				return nil
			})
		},
	})

	tracker.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Drop every day except today",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *homeDir, func(app *bootstrap.App) error {
				// The daemon cleans up on start and owns the file while it runs.
				if err := app.DaemonCLI.EnsureStopped(cmd.Context()); err != nil {
					return fmt.Errorf("tracker cleanup: %w", err)
				}
				out, err := app.TrackerCLI.CleanUp(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "kept %s, removed %d days\n", out.Today, out.Removed)
				return nil
			})
		},
	})
	return tracker
}

func newCapsulesCmd(homeDir *string) *cobra.Command {
	capsules := &cobra.Command{Use: "capsules", Short: "Recorded time capsules"}

	var day string
	list := &cobra.Command{
		Use:   "list [--day YYYY-MM-DD]",
		Short: "List capsules started on a UTC day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			when := time.Now().UTC()
			if strings.TrimSpace(day) != "" {
				parsed, err := time.Parse(time.DateOnly, day)
				if err != nil {
					return fmt.Errorf("--day must be YYYY-MM-DD: %w", err)
				}
				when = parsed
			}
			return withApp(cmd.Context(), *homeDir, func(app *bootstrap.App) error {
				items, err := app.CapsuleCLI.List(cmd.Context(), when)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no capsules")
					return nil
				}
				for _, c := range items {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\tclicks=%d keys=%d windows=%d media=%d\t%s\n",
						c.ID, c.EndedAt.Sub(c.StartedAt).Truncate(time.Second), c.EndReason,
						c.Clicks, c.Keystrokes, c.Windows, c.Media, c.StoragePath)
				}
				return nil
			})
		},
	}
	list.Flags().StringVar(&day, "day", "", "UTC day, defaults to today")
	capsules.AddCommand(list)
	return capsules
}

func newDaemonCmd(homeDir *string) *cobra.Command {
	daemon := &cobra.Command{Use: "daemon", Short: "Manage the background tracker"}

	run := func(_ *cobra.Command, _ []string) error {
		ctx, stop := signalContext()
		defer stop()
		return withApp(ctx, *homeDir, func(app *bootstrap.App) error {
			return app.DaemonCLI.Run(ctx)
		})
	}
	daemon.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		RunE:  run,
	})
	daemon.AddCommand(&cobra.Command{
		Use:    "__run",
		Hidden: true,
		RunE:   run,
	})

	daemon.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the background",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *homeDir, func(app *bootstrap.App) error {
				if err := app.DaemonCLI.Start(cmd.Context()); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "daemon started")
				return nil
			})
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon, flushing any running session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *homeDir, func(app *bootstrap.App) error {
				if err := app.DaemonCLI.Stop(cmd.Context()); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "daemon stopped")
				return nil
			})
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *homeDir, func(app *bootstrap.App) error {
				status, err := app.DaemonCLI.Status(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "running=%t pid=%d socket=%s log=%s\n", status.Running, status.PID, status.SocketPath, status.LogPath)
				if status.Running && !status.StartedAt.IsZero() {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "since=%s provider=%s\n", status.StartedAt.Format(time.RFC3339), status.Provider)
				}
				if status.Reachable {
					st := status.Status
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "provider=%s session=%s running=%t today=%s %s\n",
						st.Provider, st.SessionID, st.SessionRunning, st.Day, time.Duration(st.TodaySeconds)*time.Second)
				}
				return nil
			})
		},
	})
	return daemon
}

func newPrefsCmd(homeDir *string) *cobra.Command {
	prefs := &cobra.Command{Use: "prefs", Short: "User preferences"}

	prefs.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show preferences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *homeDir, func(app *bootstrap.App) error {
				settings, err := app.PrefsCLI.Show(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), settings)
			})
		},
	})
	prefs.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *homeDir, func(app *bootstrap.App) error {
				settings, err := app.PrefsCLI.Set(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), settings)
			})
		},
	})
	return prefs
}

func newCameraCmd(homeDir *string) *cobra.Command {
	camera := &cobra.Command{Use: "camera", Short: "Webcam devices"}

	camera.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List webcam devices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *homeDir, func(app *bootstrap.App) error {
				devices, err := app.CameraCLI.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(devices) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no devices")
					return nil
				}
				for _, d := range devices {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", d.ID, d.Name)
				}
				return nil
			})
		},
	})
	camera.AddCommand(&cobra.Command{
		Use:   "select <device-id>",
		Short: "Use a webcam device for snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *homeDir, func(app *bootstrap.App) error {
				device, err := app.CameraCLI.Select(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "selected %s (%s)\n", device.ID, device.Name)
				return nil
			})
		},
	})
	return camera
}
