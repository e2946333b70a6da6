package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"financecalc/internal/amqp"
	"financecalc/internal/config"
	"financecalc/internal/log"
	"financecalc/internal/policy"
	"financecalc/internal/storage"
)

func (app *App) newPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect and manage the income tax policy",
	}
	cmd.AddCommand(
		app.newPolicyShowCmd(),
		app.newPolicyImportCmd(),
		app.newPolicyListCmd(),
		app.newPolicyMigrateCmd(),
	)
	return cmd
}

func (app *App) newPolicyShowCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the policy the configured backend serves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := policy.Format(format)
			switch f {
			case policy.FormatYAML, policy.FormatTOML, policy.FormatJSON:
			default:
				return fmt.Errorf("unsupported format %q: must be yaml, toml or json", format)
			}

			cfg, logger, err := app.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			provider, cleanup, err := loadPolicy(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			p := provider.Current()
			data, err := policy.Marshal(p, f)
			if err != nil {
				return err
			}

			info := color.New(color.FgGreen).SprintFunc()
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s (%s) from %s backend, fingerprint %s\n",
				info("Active policy:"), p.Name, p.FiscalYear, cfg.TaxPolicyBackend, p.Fingerprint())
			_, err = cmd.OutOrStdout().Write(data)
			if err == nil && len(data) > 0 && data[len(data)-1] != '\n' {
				_, err = fmt.Fprintln(cmd.OutOrStdout())
			}
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml, toml, json")
	return cmd
}

func (app *App) newPolicyImportCmd() *cobra.Command {
	var noBroadcast bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Store a YAML, TOML or JSON policy in SQLite and activate it",
		Long: `Validate a policy file, store it in the SQLite database at SQLITE_DB_PATH
and make it the active policy. When AMQP_URL is set, a reload broadcast is
published so running servers with the sqlite backend pick it up at once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := app.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			p, err := policy.LoadFile(args[0])
			if err != nil {
				return err
			}

			repo, err := storage.NewPolicyRepository(cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			id, err := repo.Save(cmd.Context(), p)
			if err != nil {
				return fmt.Errorf("save policy: %w", err)
			}

			ok := color.New(color.FgGreen, color.Bold).SprintFunc()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s) stored as #%d in %s\n",
				ok("Imported"), p.Name, p.FiscalYear, id, cfg.SQLiteDBPath)

			if cfg.AMQPURL == "" || noBroadcast {
				return nil
			}
			msg := amqp.NewPolicyReloadMessage(p.Name, p.FiscalYear, p.Fingerprint(), "cli")
			if err := broadcastReload(cmd.Context(), cfg, logger, msg); err != nil {
				// the policy is stored; servers still pick it up on their refresh schedule
				warn := color.New(color.FgYellow).SprintFunc()
				fmt.Fprintf(cmd.ErrOrStderr(), "%s reload broadcast failed: %v\n", warn("Warning:"), err)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reload broadcast sent on exchange %s\n", cfg.AMQPExchange)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noBroadcast, "no-broadcast", false, "Skip the AMQP reload broadcast")
	return cmd
}

func broadcastReload(ctx context.Context, cfg *config.Config, logger *log.Logger, msg *amqp.PolicyReloadMessage) error {
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return client.PublishPolicyReload(ctx, msg)
}

func (app *App) newPolicyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the policies stored in SQLite, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := app.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			repo, err := storage.NewPolicyRepository(cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			policies, err := repo.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(policies) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored policies")
				return nil
			}

			active := color.New(color.FgGreen, color.Bold).SprintFunc()
			for _, s := range policies {
				marker := " "
				if s.Active {
					marker = active("*")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s #%-4d %-24s %-8s %s\n", marker, s.ID, s.Name, s.FiscalYear, s.CreatedAt)
			}
			return nil
		},
	}
}

func (app *App) newPolicyMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := app.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(cfg.SQLiteDBPath), 0755); err != nil {
				return fmt.Errorf("create db directory: %w", err)
			}
			status, err := storage.RunMigrations(cfg.SQLiteDBPath)
			if err != nil {
				logger.Error("Migration failed",
					log.FieldOperation, log.OpMigrate,
					log.FieldErrorType, log.ErrorTypeDatabase,
					log.FieldError, err.Error())
				return err
			}

			state := "already up to date"
			if status.Applied {
				state = "migrated"
			}
			if status.Dirty {
				state = color.New(color.FgRed).Sprint("dirty")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d, %s\n", cfg.SQLiteDBPath, status.Version, state)
			return nil
		},
	}
}
