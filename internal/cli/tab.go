package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/trustbrowser/internal/cache"
	"github.com/ppiankov/trustbrowser/internal/model"
	"github.com/ppiankov/trustbrowser/internal/pipeline"
	"github.com/ppiankov/trustbrowser/internal/session"
)

var (
	tabProfile string
	tabID      string
	tabJSON    bool
	tabTimeout time.Duration
)

var tabCmd = &cobra.Command{
	Use:   "tab",
	Short: "Work with persistent browser tabs",
	Long: `Tabs keep their search state and history between invocations, stored
under the session directory (default ~/.trustbrowser/sessions).

Tab and history ids may be abbreviated to any unique prefix. Commands that
act on a tab use the active tab unless --tab is given.

Example:
  trustbrowser tab search who discovered penicillin
  trustbrowser tab new
  trustbrowser tab history
  trustbrowser tab select 3f2a`,
}

// withSession runs fn with a session manager backed by the layered cache
func withSession(fn func(ctx context.Context, m *session.Manager, s *pipeline.Services) error) error {
	return withServices(tabTimeout, func(ctx context.Context, cfg *model.Config, s *pipeline.Services) error {
		store := cache.NewLayeredCache(time.Hour, cfg.Session.Dir, cfg.Session.TTL)
		m := session.NewManager(s.Pipeline, cfg.Session,
			session.WithStore(store, tabProfile),
			session.WithLogger(logger.Named("session")))
		return fn(ctx, m, s)
	})
}

var tabListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open tabs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, m *session.Manager, s *pipeline.Services) error {
			tabs := m.Tabs()
			if tabJSON {
				return printJSON(os.Stdout, tabs)
			}
			active := m.Active().ID
			for _, t := range tabs {
				marker := " "
				if t.ID == active {
					marker = "*"
				}
				fmt.Printf("%s %s  %-12s %s\n", marker, shortID(t.ID), t.Phase, t.Title)
			}
			return nil
		})
	},
}

var tabNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Open a blank tab and activate it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, m *session.Manager, s *pipeline.Services) error {
			tab, err := m.NewTab()
			if err != nil {
				return err
			}
			fmt.Printf("✓ Opened tab %s\n", shortID(tab.ID))
			return nil
		})
	},
}

var tabCloseCmd = &cobra.Command{
	Use:   "close [tab-id]",
	Short: "Close a tab (closing the last tab resets it)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, m *session.Manager, s *pipeline.Services) error {
			id, err := targetTab(m, args)
			if err != nil {
				return err
			}
			if err := m.CloseTab(id); err != nil {
				return err
			}
			fmt.Printf("✓ Closed tab %s\n", shortID(id))
			return nil
		})
	},
}

var tabActivateCmd = &cobra.Command{
	Use:   "activate <tab-id>",
	Short: "Make a tab the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, m *session.Manager, s *pipeline.Services) error {
			id, err := targetTab(m, args)
			if err != nil {
				return err
			}
			return m.Activate(id)
		})
	},
}

var tabSearchCmd = &cobra.Command{
	Use:   "search <query or address>",
	Short: "Submit input from a tab's address bar",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, m *session.Manager, s *pipeline.Services) error {
			id, err := targetTab(m, nil)
			if err != nil {
				return err
			}
			tab, err := m.Search(ctx, id, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printTab(tab, s)
		})
	},
}

var tabHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a tab's history, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, m *session.Manager, s *pipeline.Services) error {
			id, err := targetTab(m, nil)
			if err != nil {
				return err
			}
			history, err := m.History(id)
			if err != nil {
				return err
			}
			if tabJSON {
				return printJSON(os.Stdout, history)
			}
			for _, h := range history {
				fmt.Printf("%s  %s  %-12s %s\n", shortID(h.ID), h.Timestamp.Format("2006-01-02 15:04"), h.Phase, h.Title)
			}
			return nil
		})
	},
}

var tabSelectCmd = &cobra.Command{
	Use:   "select <history-id>",
	Short: "Revisit a history item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, m *session.Manager, s *pipeline.Services) error {
			id, err := targetTab(m, nil)
			if err != nil {
				return err
			}
			history, err := m.History(id)
			if err != nil {
				return err
			}
			ids := make([]string, len(history))
			for i, h := range history {
				ids[i] = h.ID
			}
			itemID, err := matchPrefix(ids, args[0], session.ErrHistoryNotFound)
			if err != nil {
				return err
			}
			tab, err := m.SelectHistory(ctx, id, itemID)
			if err != nil {
				return err
			}
			return printTab(tab, s)
		})
	},
}

var tabLeaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Switch a tab to the leaderboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, m *session.Manager, s *pipeline.Services) error {
			id, err := targetTab(m, nil)
			if err != nil {
				return err
			}
			tab, err := m.ShowLeaderboard(id)
			if err != nil {
				return err
			}
			return printTab(tab, s)
		})
	},
}

var tabResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Close every tab and start over",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, m *session.Manager, s *pipeline.Services) error {
			if err := m.Reset(); err != nil {
				return err
			}
			fmt.Println("✓ Session reset")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(tabCmd)
	tabCmd.AddCommand(tabListCmd, tabNewCmd, tabCloseCmd, tabActivateCmd,
		tabSearchCmd, tabHistoryCmd, tabSelectCmd, tabLeaderboardCmd, tabResetCmd)

	tabCmd.PersistentFlags().StringVar(&tabProfile, "profile", "default", "session profile name")
	tabCmd.PersistentFlags().StringVar(&tabID, "tab", "", "tab id or prefix (default: active tab)")
	tabCmd.PersistentFlags().BoolVar(&tabJSON, "json", false, "print JSON")
	tabCmd.PersistentFlags().DurationVar(&tabTimeout, "timeout", time.Minute, "overall timeout")
}

// targetTab resolves the tab named by args, --tab, or the active tab
func targetTab(m *session.Manager, args []string) (string, error) {
	ref := tabID
	if len(args) > 0 {
		ref = args[0]
	}
	if ref == "" {
		return m.Active().ID, nil
	}
	tabs := m.Tabs()
	ids := make([]string, len(tabs))
	for i, t := range tabs {
		ids[i] = t.ID
	}
	return matchPrefix(ids, ref, session.ErrTabNotFound)
}

func matchPrefix(ids []string, prefix string, notFound error) (string, error) {
	var match string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			if match != "" {
				return "", fmt.Errorf("%q is ambiguous", prefix)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("%s: %w", prefix, notFound)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printTab(tab model.Tab, s *pipeline.Services) error {
	if tabJSON {
		return printJSON(os.Stdout, tab)
	}

	fmt.Printf("[%s] %s\n\n", shortID(tab.ID), tab.Title)
	switch tab.Phase {
	case model.PhaseBrowserView:
		fmt.Printf("→ %s\n", tab.Search.URL)
	case model.PhaseResponse:
		printResult(os.Stdout, pipeline.Result{Answer: tab.Search.Answer, Truth: tab.Search.Truth})
	case model.PhaseLeaderboard:
		ctx, cancel := context.WithTimeout(context.Background(), tabTimeout)
		defer cancel()
		printLeaderboard(s.Graph.Leaderboard(ctx))
	default:
		fmt.Println("(empty tab)")
	}
	return nil
}
