// Package main provides the CLI entrypoint for nbtscore.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/nbtscore/internal/config"
	"github.com/verte-zerg/nbtscore/internal/logger"
	"github.com/verte-zerg/nbtscore/internal/model"
	"github.com/verte-zerg/nbtscore/internal/publish"
	"github.com/verte-zerg/nbtscore/internal/stats"
	"github.com/verte-zerg/nbtscore/internal/store"
)

const (
	defaultLogLevel = "info"
	stdoutPath      = "-"
)

var (
	configPath string
	logLevel   string

	exportOutput    string
	exportSQLURL    string
	exportTimestamp string
	exportForce     bool
	publishRedisURL string
	publishStream   string

	// settings is the config file with environment overrides applied.
	settings config.FileConfig
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "nbtscore <input>",
		Short:             "Convert Minecraft scoreboard data to CSV or a database",
		Args:              cobra.ExactArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: loadSettings,
		RunE:              runExportCmd,
	}
	settings = config.FileConfig{}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/nbtscore/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level: debug, info, warn, error")

	rootCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "CSV output file, - for stdout (default: input with .csv extension)")
	rootCmd.Flags().StringVarP(&exportSQLURL, "sql-url", "s", "", "persist the snapshot to this database URL instead of writing CSV")
	rootCmd.Flags().StringVarP(&exportTimestamp, "timestamp", "t", "", "snapshot time in RFC 3339 (default: now; requires --sql-url)")
	rootCmd.Flags().BoolVar(&exportForce, "force", false, "overwrite an existing CSV file")
	rootCmd.Flags().StringVar(&publishRedisURL, "redis-url", "", "announce persisted snapshots on this Redis server")
	rootCmd.Flags().StringVar(&publishStream, "stream", publish.DefaultStream, "Redis stream for snapshot announcements")
	rootCmd.MarkFlagsMutuallyExclusive("output", "sql-url")

	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newTopCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newDumpCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func loadSettings(cmd *cobra.Command, _ []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	envCfg, err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}
	settings = envCfg.Overlay(fileCfg)

	applyStringConfig(cmd, "log-level", &logLevel, settings.Log.Level)
	logger.Init(cmd.ErrOrStderr())
	if err := logger.SetLevelString(logLevel); err != nil {
		return err
	}
	logger.Named("config").Debug(cmd.Context(), "settings loaded", logger.String("path", path))
	return nil
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	applyBoolConfig(cmd, "force", &exportForce, settings.Export.Force)
	applyStringConfig(cmd, "redis-url", &publishRedisURL, settings.Publish.RedisURL)
	applyStringConfig(cmd, "stream", &publishStream, settings.Publish.Stream)

	if cmd.Flags().Changed("timestamp") && exportSQLURL == "" {
		return errors.New("--timestamp requires --sql-url")
	}
	var ts time.Time
	if exportTimestamp != "" {
		parsed, err := parseTimestamp(exportTimestamp)
		if err != nil {
			return err
		}
		ts = parsed
	}

	input := args[0]
	st, err := decodeInput(input)
	if err != nil {
		return err
	}
	log := logger.Named("export")
	log.Debug(cmd.Context(), "decoded scoreboard",
		logger.String("input", input),
		logger.Int("objectives", st.ObjectiveCount()),
		logger.Int("scores", st.ScoreCount()),
	)

	if exportSQLURL != "" {
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		return persistSnapshot(cmd, st, exportSQLURL, ts)
	}
	return exportCSV(cmd, st, resolveOutputPath(input, exportOutput), exportForce)
}

func exportCSV(cmd *cobra.Command, st *model.Stats, path string, force bool) (err error) {
	if path == stdoutPath {
		return stats.WriteCSV(cmd.OutOrStdout(), st)
	}
	file, err := createOutput(path, force)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
		if err != nil {
			if rerr := os.Remove(path); rerr != nil {
				// Best-effort cleanup of a partial file.
				_ = rerr
			}
		}
	}()
	if err = stats.WriteCSV(file, st); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Converted nbt to csv and saved it as %s\n", path)
	return err
}

func createOutput(path string, force bool) (*os.File, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	return file, nil
}

func persistSnapshot(cmd *cobra.Command, st *model.Stats, url string, ts time.Time) error {
	ctx := cmd.Context()
	log := logger.Named("store")
	db, err := store.Open(url)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Warn(ctx, "failed to close db", logger.Error(cerr))
		}
	}()

	started := time.Now()
	if err := db.SaveSnapshot(ctx, st, ts); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	log.Info(ctx, "snapshot persisted",
		logger.String("dialect", db.Dialect().String()),
		logger.String("timestamp", ts.Format(time.RFC3339)),
		logger.Int("observations", st.ScoreCount()),
		logger.Duration("elapsed", time.Since(started)),
	)
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Saved %d scores at %s\n", st.ScoreCount(), ts.Format(time.RFC3339)); err != nil {
		return err
	}

	if publishRedisURL != "" {
		announceSnapshot(ctx, st, ts)
	}
	return nil
}

// announceSnapshot never fails the command: the snapshot is already committed.
func announceSnapshot(ctx context.Context, st *model.Stats, ts time.Time) {
	log := logger.Named("publish")
	p, err := publish.New(ctx, publishRedisURL, publishStream)
	if err != nil {
		log.Warn(ctx, "snapshot announcement skipped", logger.Error(err))
		return
	}
	defer func() {
		if cerr := p.Close(); cerr != nil {
			log.Warn(ctx, "failed to close redis client", logger.Error(cerr))
		}
	}()
	id, err := p.Announce(ctx, publish.Summarize(st, ts))
	if err != nil {
		log.Warn(ctx, "snapshot announcement failed", logger.Error(err))
		return
	}
	log.Info(ctx, "snapshot announced", logger.String("stream", p.Stream()), logger.String("id", id))
}

// resolveOutputPath returns output when set, otherwise input with its
// extension replaced by .csv.
func resolveOutputPath(input, output string) string {
	if output != "" {
		return output
	}
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".csv"
}

func parseTimestamp(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --timestamp value: %w", err)
	}
	return parsed.UTC(), nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
