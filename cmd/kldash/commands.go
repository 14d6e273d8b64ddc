package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/knowlearn/kldash/internal/api"
	"github.com/knowlearn/kldash/internal/assistant"
	"github.com/knowlearn/kldash/internal/database"
	"github.com/knowlearn/kldash/internal/database/seed"
	"github.com/knowlearn/kldash/internal/repository"
	"github.com/knowlearn/kldash/internal/services/dashboard"
	"github.com/knowlearn/kldash/internal/services/partners"
	"github.com/knowlearn/kldash/internal/services/planning"
	"github.com/knowlearn/kldash/internal/services/portfolio"
	"github.com/knowlearn/kldash/internal/services/workforce"
	"github.com/knowlearn/kldash/internal/simulation"
	"github.com/knowlearn/kldash/internal/util"
)

// services bundles the domain services built over one database.
type services struct {
	workforce *workforce.Service
	partners  *partners.Service
	portfolio *portfolio.Service
	planning  *planning.Service
	dashboard *dashboard.Service
}

func (c *cli) newServices(db *database.DB) (*services, error) {
	defaults, err := c.cfg.Simulation.Input()
	if err != nil {
		return nil, fmt.Errorf("simulation defaults: %w", err)
	}

	clock := util.SystemClock{}
	s := &services{
		workforce: workforce.NewService(db.DB),
		partners:  partners.NewService(db.DB),
		portfolio: portfolio.NewService(db.DB),
	}
	s.planning = planning.NewService(repository.NewProjectRepository(db.DB), s.workforce, planning.Config{
		Clock:       clock,
		HistorySize: c.cfg.Simulation.HistorySize,
		Defaults:    defaults,
	})
	s.dashboard = dashboard.NewService(s.workforce, s.portfolio, s.partners, clock)
	return s, nil
}

// simulateFlags holds the overrides given to the simulate command.
type simulateFlags struct {
	available    float64
	required     float64
	costInternal float64
	costExternal float64
	limit        float64
	strategy     string
	project      string
	format       string
}

func newSimulateCmd(c *cli) *cobra.Command {
	var f simulateFlags

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one staffing simulation and print the result",
		Long: `Runs the allocation simulator once. Inputs start from the configured
defaults; any flag given overrides its field. With --project the required
person-months and internal bench come from that project and the talent pool.

Examples:
  kldash simulate --strategy Conservative --required 200
  kldash simulate --project PRJ3 --format text`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSimulate(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.Float64Var(&f.available, "available", 0, "available internal person-months")
	fl.Float64Var(&f.required, "required", 0, "required person-months")
	fl.Float64Var(&f.costInternal, "cost-internal", 0, "internal unit cost per person-month, in 10,000 KRW")
	fl.Float64Var(&f.costExternal, "cost-external", 0, "external unit cost per person-month, in 10,000 KRW")
	fl.Float64Var(&f.limit, "limit", 0, "outsourcing limit in percent")
	fl.StringVar(&f.strategy, "strategy", "", "Conservative, Neutral or Aggressive")
	fl.StringVar(&f.project, "project", "", "prefill the scenario from a project ID")
	fl.StringVar(&f.format, "format", "json", "output format: json or text")
	return cmd
}

func (c *cli) runSimulate(cmd *cobra.Command, f simulateFlags) error {
	if f.format != "json" && f.format != "text" {
		return fmt.Errorf("unknown format %q: use json or text", f.format)
	}
	ctx := cmd.Context()

	in, err := c.cfg.Simulation.Input()
	if err != nil {
		return fmt.Errorf("simulation defaults: %w", err)
	}
	planner := planning.NewService(nil, nil, planning.Config{Defaults: in})

	if f.project != "" {
		db, err := c.openDB(ctx)
		if err != nil {
			return err
		}
		defer closeDB(db)

		svc, err := c.newServices(db)
		if err != nil {
			return err
		}
		planner = svc.planning
		if in, err = planner.Suggest(ctx, f.project); err != nil {
			return err
		}
	}

	fl := cmd.Flags()
	overrides := []struct {
		name string
		dest *float64
		val  float64
	}{
		{"available", &in.AvailableInternalMM, f.available},
		{"required", &in.RequiredMM, f.required},
		{"cost-internal", &in.UnitCostInternal, f.costInternal},
		{"cost-external", &in.UnitCostExternal, f.costExternal},
		{"limit", &in.OutsourceLimitPercent, f.limit},
	}
	for _, o := range overrides {
		if fl.Changed(o.name) {
			*o.dest = o.val
		}
	}
	if fl.Changed("strategy") {
		if in.Strategy, err = simulation.ParseStrategy(f.strategy); err != nil {
			return err
		}
	}

	run, err := planner.Run(ctx, in)
	if err != nil {
		return err
	}

	if f.format == "text" {
		return writeRunText(cmd.OutOrStdout(), run)
	}
	return planner.Export(run).Encode(cmd.OutOrStdout())
}

// writeRunText prints a run as an aligned summary.
func writeRunText(out io.Writer, run planning.Run) error {
	in, res := run.Input, run.Result
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Simulation\t%s\n", run.ID)
	fmt.Fprintf(w, "Strategy\t%s (%s)\n", in.Strategy, res.PolicyName)
	fmt.Fprintf(w, "Allocated\t%s MM internal, %s MM external\n", num(res.AllocatedInternalMM), num(res.AllocatedExternalMM))
	fmt.Fprintf(w, "Total cost\t%s\n", simulation.FormatKRW(res.TotalCost))
	fmt.Fprintf(w, "Fulfillment\t%d%% of %s MM\n", res.FulfillmentPercent, num(in.RequiredMM))
	fmt.Fprintf(w, "Risk index\t%d (%s)\n", res.RiskIndex, simulation.RiskLevel(res.RiskIndex))
	fmt.Fprintf(w, "Bottleneck\t%s\n", res.Bottleneck)
	if res.LimitExceeded {
		fmt.Fprintf(w, "Warning\texternal share exceeds the %s%% outsourcing limit\n", num(in.OutsourceLimitPercent))
	}
	return w.Flush()
}

func newSeedCmd(c *cli) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate the fixture dataset",
		Long: `Fills the database with the generated talent pool, projects and partners.
An existing dataset is kept unless --force is given, which backs the
database up and then clears it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if _, err := database.Migrate(ctx, db); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}

			empty, err := seed.IsEmpty(ctx, db.DB)
			if err != nil {
				return err
			}
			if !empty {
				if !force {
					slog.Warn("database already contains data, skipping seed generation")
					fmt.Fprintln(cmd.OutOrStdout(), "Database already seeded; use --force to regenerate.")
					return nil
				}
				if !db.IsMemory() {
					backupPath, err := db.Backup(ctx)
					if err != nil {
						return fmt.Errorf("backing up before reseed: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Backed up existing data to %s.\n", backupPath)
				}
				if err := seed.Reset(ctx, db.DB); err != nil {
					return err
				}
			}

			ds, err := seed.NewGenerator(db.DB, c.seedConfig()).Generate(ctx)
			if err != nil {
				return fmt.Errorf("generating seed data: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d people, %d projects, %d partners.\n",
				len(ds.People), len(ds.Projects), len(ds.Partners))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "clear existing data and regenerate")
	return cmd
}

func newMigrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	withMigrator := func(cmd *cobra.Command, fn func(ctx context.Context, db *database.DB, m *database.Migrator) error) error {
		ctx := cmd.Context()
		db, err := c.openStore(ctx)
		if err != nil {
			return err
		}
		defer closeDB(db)

		m, err := database.NewMigrator(db)
		if err != nil {
			return fmt.Errorf("creating migrator: %w", err)
		}
		return fn(ctx, db, m)
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, db *database.DB, m *database.Migrator) error {
				result, err := m.MigrateUp(ctx)
				if err != nil {
					return fmt.Errorf("running migrations: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s); schema at version %d.\n",
					len(result.Applied), result.TargetVersion)
				return nil
			})
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last applied migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, db *database.DB, m *database.Migrator) error {
				result, err := m.MigrateDown(ctx)
				if err != nil {
					return fmt.Errorf("rolling back: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rolled back migration %03d; schema at version %d.\n",
					result.Applied[0].Version, result.TargetVersion)
				return nil
			})
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, db *database.DB, m *database.Migrator) error {
				migrations, err := m.Status(ctx)
				if err != nil {
					return err
				}
				if err := writeMigrationStatus(cmd.OutOrStdout(), migrations); err != nil {
					return err
				}
				stats, err := db.GetStats(ctx)
				if err != nil {
					return fmt.Errorf("reading database stats: %w", err)
				}
				return writeDatabaseStats(cmd.OutOrStdout(), stats)
			})
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

func writeMigrationStatus(out io.Writer, migrations []database.Migration) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tDESCRIPTION\tAPPLIED")
	for _, m := range migrations {
		applied := "pending"
		if m.Applied {
			applied = util.FormatDateTime(m.AppliedAt)
		}
		fmt.Fprintf(w, "%03d\t%s\t%s\n", m.Version, strings.ReplaceAll(m.Description, "_", " "), applied)
	}
	return w.Flush()
}

func writeDatabaseStats(out io.Writer, stats *database.Stats) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "\nDatabase\t%s\n", stats.Path)
	fmt.Fprintf(w, "Size\t%d pages of %d bytes\n", stats.PageCount, stats.PageSize)
	fmt.Fprintf(w, "Journal\t%s\n", stats.JournalMode)
	for _, table := range []string{"people", "projects", "partners"} {
		if n, ok := stats.RowCounts[table]; ok {
			fmt.Fprintf(w, "Rows (%s)\t%d\n", table, n)
		}
	}
	return w.Flush()
}

func newServeCmd(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulator and console data over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			read, write, err := c.cfg.Server.Timeouts()
			if err != nil {
				return fmt.Errorf("server config: %w", err)
			}
			if addr == "" {
				addr = c.cfg.Server.Addr
			}

			db, err := c.openDB(ctx)
			if err != nil {
				return err
			}
			defer closeDB(db)

			svc, err := c.newServices(db)
			if err != nil {
				return err
			}

			srv := api.NewServer(api.Deps{
				Planner:   svc.planning,
				People:    svc.workforce,
				Partners:  svc.partners,
				Dashboard: svc.dashboard,
				Assistant: assistant.Default(),
				Health:    db,
			})
			return srv.ListenAndServe(ctx, api.Config{
				Addr:         addr,
				ReadTimeout:  read,
				WriteTimeout: write,
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr)")
	return cmd
}
