package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"financecalc/internal/config"
	"financecalc/internal/log"
)

// isolateEnv pins the settings the commands read so the host environment
// cannot leak in.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TAX_POLICY_BACKEND", "embedded")
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "data", "financecalc.db"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("POLICY_REFRESH_SCHEDULE", "")
	t.Setenv("STATIC_DIR", "")
	t.Setenv("LOG_FORMAT", "text")
	return dir
}

func runApp(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	app := NewApp("test")
	var out, errOut bytes.Buffer
	app.SetOutput(&out, &errOut)
	app.rootCmd.SetIn(strings.NewReader(stdin))
	app.SetArgs(append([]string{"--no-color"}, args...))
	err = app.Execute()
	return out.String(), errOut.String(), err
}

func decodeEnvelope(t *testing.T, data string) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, data)
	}
	return env
}

func TestCalcJSON(t *testing.T) {
	isolateEnv(t)

	out, _, err := runApp(t, "", "calc", "compound-interest", "--input", `{"principal":1000,"rate":5,"years":3}`)
	if err != nil {
		t.Fatalf("calc error = %v", err)
	}
	env := decodeEnvelope(t, out)
	if env["success"] != true {
		t.Fatalf("success = %v, want true", env["success"])
	}
	data := env["data"].(map[string]any)
	if got := data["finalBalance"]; got != 1161.47 {
		t.Errorf("finalBalance = %v, want 1161.47", got)
	}
	if got := len(data["breakdown"].([]any)); got != 3 {
		t.Errorf("breakdown rows = %d, want 3", got)
	}
}

func TestCalcReadsStdin(t *testing.T) {
	isolateEnv(t)

	out, _, err := runApp(t, `{"amount":1000,"rate":18,"inclusive":false}`, "calc", "gst", "--file", "-")
	if err != nil {
		t.Fatalf("calc error = %v", err)
	}
	data := decodeEnvelope(t, out)["data"].(map[string]any)
	if got := data["totalAmount"]; got != 1180.0 {
		t.Errorf("totalAmount = %v, want 1180", got)
	}
}

func TestCalcValidationError(t *testing.T) {
	isolateEnv(t)

	out, _, err := runApp(t, "", "calc", "compound-interest", "--input", `{"principal":"abc"}`)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	env := decodeEnvelope(t, out)
	if env["success"] != false {
		t.Errorf("success = %v, want false", env["success"])
	}
	if msg, _ := env["error"].(string); msg != err.Error() {
		t.Errorf("envelope error = %q, returned error = %q", msg, err.Error())
	}
}

func TestCalcRejectsBadArguments(t *testing.T) {
	isolateEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown calculator", []string{"calc", "mortgage"}, "unknown calculator"},
		{"unknown format", []string{"calc", "emi", "--format", "xml"}, "unsupported format"},
		{"no breakdown table", []string{"calc", "gst", "--format", "table", "--input", `{"amount":100,"rate":5}`}, "no breakdown table"},
		{"no export for debt", []string{"calc", "debt-payoff", "--format", "csv", "--input", `{"debts":[{"name":"card","balance":1000,"rate":20,"minPayment":50}]}`}, "no breakdown table"},
		{"input and file together", []string{"calc", "emi", "--input", "{}", "--file", "x.json"}, "none of the others"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runApp(t, "", tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestCalcTable(t *testing.T) {
	isolateEnv(t)

	out, _, err := runApp(t, "", "calc", "inflation", "--format", "table",
		"--input", `{"currentValue":100000,"years":2,"inflationRate":6}`)
	if err != nil {
		t.Fatalf("calc error = %v", err)
	}
	for _, want := range []string{"Inflation", "Future Equivalent:", "112360.00", "Year"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestCalcCSVToFile(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "loan.csv")

	out, _, err := runApp(t, "", "calc", "loan-payoff", "--format", "csv", "-o", path,
		"--input", `{"amount":1000,"rate":12,"payment":500}`)
	if err != nil {
		t.Fatalf("calc error = %v", err)
	}
	if out != "" {
		t.Errorf("stdout = %q, want empty when writing to a file", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("records = %d, want header + 3 months", len(records))
	}
	if records[0][0] != "Month" || records[3][4] != "0.00" {
		t.Errorf("unexpected CSV:\n%s", data)
	}
}

func TestInvalidLogFormatFlag(t *testing.T) {
	isolateEnv(t)

	_, _, err := runApp(t, "", "--log-format", "xml", "calc", "emi")
	if err == nil || !strings.Contains(err.Error(), "invalid log format") {
		t.Errorf("error = %v, want log format validation failure", err)
	}
}

func TestEnvFileFlag(t *testing.T) {
	dir := isolateEnv(t)

	_, _, err := runApp(t, "", "--env-file", filepath.Join(dir, "missing.env"), "policy", "show")
	if err == nil || !strings.Contains(err.Error(), "load env file") {
		t.Errorf("error = %v, want a missing env file failure", err)
	}

	envFile := filepath.Join(dir, "local.env")
	if err := os.WriteFile(envFile, []byte("LOG_FORMAT=text\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runApp(t, "", "--env-file", envFile, "policy", "show"); err != nil {
		t.Errorf("policy show with env file error = %v", err)
	}
}

func TestPolicyShow(t *testing.T) {
	isolateEnv(t)

	out, errOut, err := runApp(t, "", "policy", "show", "--format", "json")
	if err != nil {
		t.Fatalf("policy show error = %v", err)
	}
	var p map[string]any
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		t.Fatalf("policy show output is not JSON: %v\n%s", err, out)
	}
	if p["name"] != "india-new-regime" {
		t.Errorf("name = %v", p["name"])
	}
	if !strings.Contains(errOut, "fingerprint") {
		t.Errorf("stderr missing fingerprint line: %s", errOut)
	}

	if _, _, err := runApp(t, "", "policy", "show", "--format", "ini"); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}

const testPolicyYAML = `name: test-regime
fiscal_year: "2025-26"
standard_deduction: 75000
rebate_threshold: 1200000
cess_rate: 4
slabs:
  - upper_bound: 400000
    rate: 0
  - upper_bound: 800000
    rate: 5
  - rate: 30
`

func TestPolicyImportActivatesInSQLite(t *testing.T) {
	dir := isolateEnv(t)
	file := filepath.Join(dir, "policy.yaml")
	if err := os.WriteFile(file, []byte(testPolicyYAML), 0644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runApp(t, "", "policy", "import", file)
	if err != nil {
		t.Fatalf("policy import error = %v", err)
	}
	if !strings.Contains(out, "Imported test-regime (2025-26)") {
		t.Errorf("import output = %q", out)
	}

	out, _, err = runApp(t, "", "policy", "list")
	if err != nil {
		t.Fatalf("policy list error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("list lines = %d, want seeded + imported:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "*") || !strings.Contains(lines[0], "test-regime") {
		t.Errorf("newest policy should be active: %q", lines[0])
	}

	t.Setenv("TAX_POLICY_BACKEND", "sqlite")
	out, _, err = runApp(t, "", "calc", "india-tax", "--input", `{"annualIncome":1000000}`)
	if err != nil {
		t.Fatalf("calc error = %v", err)
	}
	data := decodeEnvelope(t, out)["data"].(map[string]any)
	if data["regime"] != "test-regime" {
		t.Errorf("regime = %v, want the imported policy", data["regime"])
	}
}

func TestPolicyImportRejectsInvalidFile(t *testing.T) {
	dir := isolateEnv(t)
	file := filepath.Join(dir, "policy.yaml")
	if err := os.WriteFile(file, []byte("name: broken\nslabs: []\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runApp(t, "", "policy", "import", file); err == nil {
		t.Error("expected invalid policy to be rejected")
	}
}

func TestPolicyMigrate(t *testing.T) {
	isolateEnv(t)

	out, _, err := runApp(t, "", "policy", "migrate")
	if err != nil {
		t.Fatalf("policy migrate error = %v", err)
	}
	if !strings.Contains(out, "migrated") {
		t.Errorf("first migrate output = %q", out)
	}

	out, _, err = runApp(t, "", "policy", "migrate")
	if err != nil {
		t.Fatalf("second migrate error = %v", err)
	}
	if !strings.Contains(out, "already up to date") {
		t.Errorf("second migrate output = %q", out)
	}
}

func TestRunServerStopsOnCancel(t *testing.T) {
	isolateEnv(t)
	cfg := config.Load()
	cfg.Port = "0"
	cfg.ShutdownTimeout = 5 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServer(ctx, cfg, log.Discard()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runServer() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("runServer did not stop after cancel")
	}
}

func TestRunServerFailsOnBadPolicyFile(t *testing.T) {
	dir := isolateEnv(t)
	cfg := config.Load()
	cfg.Port = "0"
	cfg.TaxPolicyBackend = "file"
	cfg.TaxPolicyFile = filepath.Join(dir, "missing.yaml")

	if err := runServer(context.Background(), cfg, log.Discard()); err == nil {
		t.Error("expected startup to fail without a policy file")
	}
}
