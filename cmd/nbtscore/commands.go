package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/nbtscore/internal/browse"
	"github.com/verte-zerg/nbtscore/internal/config"
	"github.com/verte-zerg/nbtscore/internal/logger"
	"github.com/verte-zerg/nbtscore/internal/model"
	"github.com/verte-zerg/nbtscore/internal/nbt"
	"github.com/verte-zerg/nbtscore/internal/publish"
	"github.com/verte-zerg/nbtscore/internal/scoreboard"
	"github.com/verte-zerg/nbtscore/internal/stats"
	"github.com/verte-zerg/nbtscore/internal/store"
)

const defaultTopLimit = 10

var (
	showColor bool

	topLimit int

	historyDB        string
	historyPlayer    string
	historyObjective string
	historySince     string
	historyLast      int
)

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <input>",
		Short: "Print the scoreboard as a table",
		Args:  cobra.ExactArgs(1),
		RunE:  runShowCmd,
	}
	cmd.Flags().BoolVar(&showColor, "color", false, "force coloured output")
	return cmd
}

func runShowCmd(cmd *cobra.Command, args []string) error {
	st, err := decodeInput(args[0])
	if err != nil {
		return err
	}
	return stats.RenderTable(cmd.OutOrStdout(), st, stats.TableOptions{ForceColor: showColor})
}

func newTopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "top <input> <objective>",
		Short: "Rank players by one objective",
		Args:  cobra.ExactArgs(2),
		RunE:  runTopCmd,
	}
	cmd.Flags().IntVarP(&topLimit, "limit", "n", defaultTopLimit, "number of players to show (0 for all)")
	return cmd
}

func runTopCmd(cmd *cobra.Command, args []string) error {
	if topLimit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}
	st, err := decodeInput(args[0])
	if err != nil {
		return err
	}
	ranked, err := stats.TopPlayers(st, args[1], topLimit)
	if err != nil {
		return err
	}
	obj, _ := st.Objective(args[1])
	return stats.RenderTop(cmd.OutOrStdout(), obj, ranked)
}

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <input>",
		Short: "Browse the scoreboard interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  runBrowseCmd,
	}
}

func runBrowseCmd(cmd *cobra.Command, args []string) error {
	st, err := decodeInput(args[0])
	if err != nil {
		return err
	}
	m := browse.NewModel(filepath.Base(args[0]), st)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run browser: %w", err)
	}
	return nil
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <input>",
		Short: "Pretty-print the raw tag tree",
		Args:  cobra.ExactArgs(1),
		RunE:  runDumpCmd,
	}
}

func runDumpCmd(cmd *cobra.Command, args []string) error {
	name, root, err := nbt.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), nbt.Pretty(name, root))
	return err
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show persisted snapshots and score history",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyDB, "db", "", "database URL (default: $XDG_DATA_HOME/nbtscore/nbtscore.db)")
	cmd.Flags().StringVar(&historyPlayer, "player", "", "player filter")
	cmd.Flags().StringVar(&historyObjective, "objective", "", "objective filter")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to the last N observations")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	applyStringConfig(cmd, "db", &historyDB, settings.Database.URL)
	if historyDB == "" {
		historyDB = config.DefaultDBPath()
	}
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	var since *time.Time
	if historySince != "" {
		parsed, err := parseSince(historySince)
		if err != nil {
			return err
		}
		since = &parsed
	}

	ctx := cmd.Context()
	db, err := store.Open(historyDB)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Named("store").Warn(ctx, "failed to close db", logger.Error(cerr))
		}
	}()

	cfg := model.HistoryConfig{
		Player:    historyPlayer,
		Objective: historyObjective,
		Since:     since,
		Last:      historyLast,
	}
	if cfg.Player == "" && cfg.Objective == "" && cfg.Since == nil && cfg.Last == 0 {
		snaps, err := db.Snapshots(ctx)
		if err != nil {
			return fmt.Errorf("failed to list snapshots: %w", err)
		}
		return stats.RenderSnapshots(cmd.OutOrStdout(), snaps)
	}
	obs, err := db.History(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	return stats.RenderHistory(cmd.OutOrStdout(), obs)
}

func parseSince(value string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since value: %w", err)
	}
	return parsed, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		// A broken config file must still be editable.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE:              runConfigCmd,
	}
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		logErrf(cmd.ErrOrStderr(), "created %s\n", path)
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	editorCmd := exec.CommandContext(cmd.Context(), parts[0], append(parts[1:], path)...)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# nbtscore configuration
# Uncomment a value to enable it. Environment variables override the file and
# CLI flags override both.

[export]
# force = false                          # Overwrite existing CSV files

[database]
# url = %q  # history default; NBTSCORE_DB_URL

[publish]
# redis-url = "redis://localhost:6379/0"   # Announce persisted snapshots; NBTSCORE_REDIS_URL
# stream = %q          # NBTSCORE_STREAM

[log]
# level = %q                            # debug, info, warn, error; NBTSCORE_LOG_LEVEL
`,
		config.DefaultDBPath(),
		publish.DefaultStream,
		defaultLogLevel,
	)
}

func decodeInput(path string) (*model.Stats, error) {
	st, err := scoreboard.DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return st, nil
}
