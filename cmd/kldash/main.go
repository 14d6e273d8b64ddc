// kldash: KNOWLEARN workforce console
//
// A terminal dashboard and staffing simulator for HR and vendor managers.
// It also serves the simulator over HTTP and runs it from the command line.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/knowlearn/kldash/internal/config"
	"github.com/knowlearn/kldash/internal/database"
	"github.com/knowlearn/kldash/internal/database/seed"
	"github.com/knowlearn/kldash/internal/tui"
	"github.com/knowlearn/kldash/internal/util"
)

// Build information (set via ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// cli holds the state shared by every command.
type cli struct {
	configPath string
	debug      bool

	cfg     *config.Config
	logFile *os.File
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Force exit if shutdown stalls after a signal
	go func() {
		<-ctx.Done()
		time.AfterFunc(10*time.Second, func() {
			slog.Error("forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	root, c := newRootCmd()
	if err := execute(ctx, root, c); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// execute runs the command line and closes the log file whether or not the
// command succeeds.
func execute(ctx context.Context, root *cobra.Command, c *cli) error {
	defer c.closeLog()
	return root.ExecuteContext(ctx)
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}

	root := &cobra.Command{
		Use:   "kldash",
		Short: "Workforce console and staffing simulator",
		Long: `kldash shows the talent pool, partner vendors and project portfolio
in a terminal dashboard, and simulates how a staffing requirement is split
between internal and external developers.

Run without a subcommand to start the interactive console.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return c.setup(cmd)
		},
		RunE: c.runConsole,
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to configuration file")
	root.PersistentFlags().BoolVar(&c.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newSimulateCmd(c),
		newSeedCmd(c),
		newMigrateCmd(c),
		newServeCmd(c),
		newVersionCmd(),
	)
	return root, c
}

// setup loads the configuration and installs the logger.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, cfgPath, err := config.Load(c.configPath, true)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	c.cfg = cfg

	logLevel := slog.LevelInfo
	if c.debug {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.Logging.Level {
		case config.LogLevelDebug:
			logLevel = slog.LevelDebug
		case config.LogLevelWarn:
			logLevel = slog.LevelWarn
		case config.LogLevelError:
			logLevel = slog.LevelError
		}
	}

	logPath, err := config.EnsureLogDir(cfg)
	if err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	var logHandler slog.Handler
	if logPath != "" {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		c.logFile = logFile

		logHandler = slog.NewJSONHandler(logFile, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		logHandler = slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: logLevel,
		})
	}
	slog.SetDefault(slog.New(logHandler))

	slog.Info("kldash starting",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cfgPath,
		"command", cmd.Name(),
	)
	return nil
}

func (c *cli) closeLog() {
	if c.logFile == nil {
		return
	}
	if err := c.logFile.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "closing log file:", err)
	}
	c.logFile = nil
}

// openStore recovers and opens the configured database without touching
// its schema.
func (c *cli) openStore(ctx context.Context) (*database.DB, error) {
	dbPath, err := config.EnsureDataDir(c.cfg)
	if err != nil {
		return nil, fmt.Errorf("ensuring data directory: %w", err)
	}

	backupDir, err := config.BackupDir(c.cfg)
	if err != nil {
		slog.Warn("failed to create backup directory", "error", err)
		backupDir = ""
	}

	report, err := database.Recover(ctx, dbPath, backupDir)
	if err != nil {
		return nil, fmt.Errorf("database recovery failed: %w", err)
	}
	if report.Outcome == database.RecoveryRestored {
		slog.Warn("database restored from backup", "backup", report.BackupUsed)
	}
	if report.NeedsReseed() {
		slog.Warn("damaged database moved aside; fixtures will be regenerated",
			"moved_to", report.MovedTo,
			"problem", report.Problem,
		)
	}

	db, err := database.Open(dbPath, backupDir)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// openDB opens and migrates the database, and seeds it when it holds no
// data.
func (c *cli) openDB(ctx context.Context) (*database.DB, error) {
	db, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}

	result, err := database.Migrate(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if len(result.Applied) > 0 {
		slog.Info("applied migrations",
			"count", len(result.Applied),
			"to_version", result.TargetVersion,
		)
	}

	empty, err := seed.IsEmpty(ctx, db.DB)
	if err != nil {
		db.Close()
		return nil, err
	}
	if empty {
		if _, err := seed.NewGenerator(db.DB, c.seedConfig()).Generate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("generating seed data: %w", err)
		}
	}
	return db, nil
}

func (c *cli) seedConfig() seed.Config {
	return seed.Config{
		Seed:     c.cfg.Data.Seed,
		People:   c.cfg.Data.People,
		Projects: c.cfg.Data.Projects,
		Partners: c.cfg.Data.Partners,
	}
}

func closeDB(db *database.DB) {
	slog.Info("closing database")
	if err := db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// runConsole starts the interactive TUI.
func (c *cli) runConsole(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	db, err := c.openDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB(db)

	tui.Version = Version
	tui.BuildTime = BuildTime

	slog.Info("starting TUI", "company", c.cfg.Company.Name)
	if err := tui.Run(ctx, db, c.cfg, util.SystemClock{}); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	slog.Info("kldash shutdown complete")
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) error {
	_, err := fmt.Fprintf(w, "kldash version %s (built %s)\n", Version, BuildTime)
	return err
}
