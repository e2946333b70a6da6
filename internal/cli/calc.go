package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"financecalc/internal/export"
	"financecalc/internal/finance"
)

// calcEnvelope mirrors the HTTP response body.
type calcEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type calcOptions struct {
	input  string
	file   string
	format string
	output string
}

func (app *App) newCalcCmd() *cobra.Command {
	var opts calcOptions
	cmd := &cobra.Command{
		Use:   "calc <calculator>",
		Short: "Run a calculator offline and print the result",
		Long: `Run one of the calculators without starting the server. The input is
the same JSON object the HTTP API accepts, for example:

  financecalc calc compound-interest --input '{"principal":1000,"rate":5,"years":3}'
  financecalc calc loan-payoff --file loan.json --format csv -o schedule.csv

Calculators: ` + strings.Join(finance.Names(), ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: finance.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runCalc(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Calculator input as a JSON object")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read the JSON input from a file (- for stdin)")
	cmd.Flags().StringVar(&opts.format, "format", "json", "Output format: json, table, csv, pdf")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write output to a file instead of stdout")
	cmd.MarkFlagsMutuallyExclusive("input", "file")
	return cmd
}

func (app *App) runCalc(cmd *cobra.Command, name string, opts calcOptions) error {
	if !finance.Has(name) {
		return fmt.Errorf("unknown calculator %q (available: %s)", name, strings.Join(finance.Names(), ", "))
	}
	format := strings.ToLower(opts.format)
	switch format {
	case "json", "table", "csv", "pdf":
	default:
		return fmt.Errorf("unsupported format %q: must be json, table, csv or pdf", opts.format)
	}

	raw, err := readCalcInput(cmd.InOrStdin(), opts)
	if err != nil {
		return err
	}

	cfg, logger, err := app.setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	engine, cleanup, err := offlineEngine(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	out := cmd.OutOrStdout()
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	result, calcErr := calculate(engine, name, raw)
	if calcErr != nil {
		if format == "json" {
			if err := writeEnvelope(out, calcEnvelope{Success: false, Error: calcErr.Error()}); err != nil {
				return err
			}
		}
		return calcErr
	}

	switch format {
	case "json":
		return writeEnvelope(out, calcEnvelope{Success: true, Data: result})
	case "table":
		tab, ok := result.(finance.Tabular)
		if !ok {
			return fmt.Errorf("%s has no breakdown table, use --format json", name)
		}
		return writeTable(out, tab.Table())
	default:
		tab, ok := result.(finance.Tabular)
		if !ok {
			return fmt.Errorf("%s has no breakdown table to export", name)
		}
		f, err := export.ParseFormat(format)
		if err != nil {
			return err
		}
		return export.Write(out, f, tab.Table())
	}
}

func readCalcInput(stdin io.Reader, opts calcOptions) ([]byte, error) {
	switch {
	case opts.input != "":
		return []byte(opts.input), nil
	case opts.file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	case opts.file != "":
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return nil, fmt.Errorf("read input file: %w", err)
		}
		return data, nil
	default:
		return nil, nil
	}
}

func calculate(engine *finance.Engine, name string, raw []byte) (any, error) {
	in, err := finance.DecodeInput(raw)
	if err != nil {
		return nil, err
	}
	return engine.Calculate(name, in)
}

func writeEnvelope(w io.Writer, env calcEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// writeTable prints a result for a terminal: title, headline values, then
// the breakdown in aligned columns.
func writeTable(w io.Writer, t finance.Table) error {
	title := color.New(color.FgBlue, color.Bold).SprintFunc()
	label := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintln(w, title(t.Title))
	for _, s := range t.Summary {
		fmt.Fprintf(w, "  %s %s\n", label(s.Label+":"), s.Value)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t")+"\t")
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	return tw.Flush()
}
