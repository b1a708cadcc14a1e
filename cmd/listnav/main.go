package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gitune/twitter-list-scroller/internal/config"
	"github.com/gitune/twitter-list-scroller/internal/marker"
	"github.com/gitune/twitter-list-scroller/internal/post"
	"github.com/gitune/twitter-list-scroller/internal/restore"
	"github.com/gitune/twitter-list-scroller/internal/session"
	"github.com/gitune/twitter-list-scroller/internal/sim"
	"github.com/gitune/twitter-list-scroller/internal/storage"
	"github.com/gitune/twitter-list-scroller/internal/tui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "listnav",
		Short:         "Keeps your place in list timelines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newMarkersCmd())
	return root
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func openRepository(ctx context.Context, cfg config.Config) (*storage.Repository, error) {
	repo, err := storage.NewRepository(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := repo.Init(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("storage schema: %w", err)
	}
	if err := repo.CheckWritable(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("storage write check failed, verify %s is writable: %w", cfg.DBPath, err)
	}
	return repo, nil
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the demo timeline with read-position tracking",
		RunE: func(*cobra.Command, []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg.Logging.Level)

			initCtx, initCancel := context.WithTimeout(context.Background(), 15*time.Second)
			repo, err := openRepository(initCtx, cfg)
			initCancel()
			if err != nil {
				return err
			}
			defer repo.Close()

			labels := post.Labels{Promoted: cfg.Labels.Promoted, Repost: cfg.Labels.Repost}
			store := marker.NewStore(repo.Scoped(storage.ScopeSynced), log)
			surf := demoSurface()
			restoreLastTab(repo, surf)

			restorer := restore.New(surf, labels, restore.Config{
				RetryInterval: cfg.Restore.RetryInterval.Std(),
				MaxRetries:    cfg.Restore.MaxRetries,
				TopOffset:     cfg.Restore.TopOffset,
				HighlightFor:  cfg.Restore.Highlight.Std(),
			}, log)
			engine := session.New(surf, store, restorer, labels, cfg.ExcludedTabs, session.Config{
				Threshold:     cfg.Track.VisibleRatio,
				SaveDelay:     cfg.Track.SaveDebounce.Std(),
				MutationDelay: cfg.Track.MutationDebounce.Std(),
				NavDelay:      cfg.Track.NavDebounce.Std(),
				ReadyInterval: cfg.Ready.Interval.Std(),
				ReadyAttempts: cfg.Ready.MaxAttempts,
				SaveTimeout:   cfg.Track.SaveTimeout.Std(),
			}, log)

			runCtx, stop := context.WithCancel(context.Background())
			defer stop()
			done := make(chan struct{})
			go func() {
				defer close(done)
				_ = engine.Run(runCtx)
			}()

			clearAll := func(ctx context.Context) error {
				return repo.ClearAll(ctx)
			}
			model := tui.NewModel(surf, labels, engine.Status, clearAll)
			program := tea.NewProgram(model, tea.WithAltScreen())
			_, runErr := program.Run()

			stop()
			<-done
			saveLastTab(repo, surf)
			return runErr
		},
	}
}

const lastTabKey = "ui.last-tab"

// restoreLastTab reopens the tab that was active when the previous run
// ended. A stale or missing value leaves the default tab.
func restoreLastTab(repo *storage.Repository, surf *sim.Surface) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	tab, ok, err := repo.Get(ctx, storage.ScopeLocal, lastTabKey)
	if err != nil || !ok {
		return
	}
	for _, label := range surf.Tabs() {
		if label == tab {
			surf.ActivateTab(tab)
			return
		}
	}
}

func saveLastTab(repo *storage.Repository, surf *sim.Surface) {
	tab, ok := surf.ActiveTab()
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = repo.Set(ctx, storage.ScopeLocal, lastTabKey, tab)
}

func newMarkersCmd() *cobra.Command {
	markers := &cobra.Command{Use: "markers", Short: "Inspect saved read positions"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List every saved read position",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRepository(func(ctx context.Context, repo *storage.Repository) error {
				entries, err := repo.List(ctx, storage.ScopeSynced, marker.KeyPrefix())
				if err != nil {
					return err
				}
				shown := 0
				for _, entry := range entries {
					name, ok := marker.ListFromKey(entry.Key)
					if !ok {
						continue
					}
					ts, id := marker.Decode(entry.Value)
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", name, formatTimestamp(ts), formatPostID(id))
					shown++
				}
				if shown == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no saved read positions")
				}
				return nil
			})
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <list>",
		Short: "Show the saved read position for one list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(func(ctx context.Context, repo *storage.Repository) error {
				store := marker.NewStore(repo.Scoped(storage.ScopeSynced), slog.Default())
				m, err := store.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if m == nil {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "no saved position for %q\n", args[0])
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "list:      %s\n", m.List)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "post:      %s\n", formatPostID(m.PostID))
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "timestamp: %s\n", formatTimestamp(m.Timestamp))
				return nil
			})
		},
	}

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all saved read positions and local data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes && !confirm(cmd, "Delete all saved read positions?") {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}
			return withRepository(func(ctx context.Context, repo *storage.Repository) error {
				if err := repo.ClearAll(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "cleared")
				return nil
			})
		},
	}
	clearCmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")

	markers.AddCommand(listCmd, showCmd, clearCmd)
	return markers
}

func withRepository(fn func(context.Context, *storage.Repository) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()
	return fn(ctx, repo)
}

func confirm(cmd *cobra.Command, prompt string) bool {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (y/N): ", prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func formatTimestamp(ts *time.Time) string {
	if ts == nil {
		return "-"
	}
	return ts.UTC().Format(time.RFC3339)
}

func formatPostID(id string) string {
	if id == "" {
		return "-"
	}
	return id
}

// demoSurface builds a small fixed timeline so saved positions line up
// across runs.
func demoSurface() *sim.Surface {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	surf := sim.New(600)
	surf.AddList("Gophers", demoFeed(base, 7100, 24, "rob", "dmitri", "filippo"))
	surf.AddList("Infra", demoFeed(base.Add(-30*time.Minute), 8200, 18, "kelsey", "mitchell", "jess"))
	surf.AddList("For you", demoFeed(base.Add(-5*time.Minute), 9300, 12, "algorithm"))
	surf.SetReady(true)
	return surf
}

func demoFeed(base time.Time, firstID, count int, authors ...string) *sim.Feed {
	posts := make([]*sim.Post, 0, count)
	for i := 0; i < count; i++ {
		id := strconv.Itoa(firstID - i)
		opts := []sim.Option{
			sim.WithAuthor(authors[i%len(authors)]),
			sim.WithText(fmt.Sprintf("Update %d from %s.", count-i, authors[i%len(authors)])),
		}
		if i%7 == 5 {
			opts = append(opts, sim.Promoted())
		}
		if i%5 == 3 {
			opts = append(opts, sim.Repost())
		}
		posts = append(posts, sim.NewPost(id, base.Add(-time.Duration(i)*10*time.Minute), opts...))
	}
	return sim.NewFeed(6, 6, posts...)
}
