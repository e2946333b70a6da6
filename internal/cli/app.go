package cli

import (
	"context"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"financecalc/internal/config"
	"financecalc/internal/log"
)

// App is the financecalc command-line application.
type App struct {
	rootCmd *cobra.Command
	version string

	envFile   string
	logLevel  string
	logFormat string
	noColor   bool
}

// NewApp creates the command tree.
func NewApp(version string) *App {
	app := &App{version: version}

	rootCmd := &cobra.Command{
		Use:   "financecalc",
		Short: "FinanceCalc API server and calculator CLI",
		Long: `FinanceCalc serves stateless personal-finance calculators over HTTP
(compound interest, loan payoff, retirement, inflation, SIP, EMI,
India income tax, GST and debt payoff) and runs the same calculators
from the command line.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if app.noColor {
				color.NoColor = true
			}
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "FinanceCalc version: %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&app.envFile, "env-file", "", "Path to a .env file (default: ./.env when present)")
	rootCmd.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "Override LOG_LEVEL: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&app.logFormat, "log-format", "", "Override LOG_FORMAT: text, json")
	rootCmd.PersistentFlags().BoolVar(&app.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		app.newServeCmd(),
		app.newCalcCmd(),
		app.newPolicyCmd(),
	)

	app.rootCmd = rootCmd
	return app
}

// Execute runs the CLI application.
func (app *App) Execute() error {
	return app.rootCmd.Execute()
}

// ExecuteContext runs the CLI application with ctx as the command context.
func (app *App) ExecuteContext(ctx context.Context) error {
	return app.rootCmd.ExecuteContext(ctx)
}

// SetArgs overrides os.Args, for tests.
func (app *App) SetArgs(args []string) {
	app.rootCmd.SetArgs(args)
}

// SetOutput redirects command output and diagnostics.
func (app *App) SetOutput(out, errOut io.Writer) {
	app.rootCmd.SetOut(out)
	app.rootCmd.SetErr(errOut)
}

// setup loads configuration and builds the logger for a command. Logs go to
// logOut so that command output on stdout stays machine readable.
func (app *App) setup(logOut io.Writer) (*config.Config, *log.Logger, error) {
	if err := LoadEnvFile(app.envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := LoadAndValidateConfig(func(cfg *config.Config) {
		if app.logLevel != "" {
			cfg.LogLevel = app.logLevel
		}
		if app.logFormat != "" {
			cfg.LogFormat = app.logFormat
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, SetupLogger(cfg, logOut), nil
}
