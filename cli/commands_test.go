package cli

import (
	"bytes"
	"encoding/json"
	stdErrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"
)

const brokerLedger = `
options:
  booking_method: FIFO
directives:
  - date: 2024-01-01
    commodity: USD
  - date: 2024-01-01
    commodity: HOOL
  - date: 2024-01-01
    open: Assets:Broker
  - date: 2024-01-01
    open: Assets:Cash
    currencies: [USD]
  - date: 2024-01-01
    open: Equity:Opening-Balances
  - date: 2024-01-02
    txn: Deposit
    postings:
      - account: Assets:Cash
        units: 10000.00 USD
      - account: Equity:Opening-Balances
  - date: 2024-01-03
    txn: Buy shares
    postings:
      - account: Assets:Broker
        units: 10 HOOL
        cost: 518.73 USD
      - account: Assets:Cash
`

const unknownAccountLedger = `
directives:
  - date: 2024-01-01
    commodity: USD
  - date: 2024-01-01
    open: Assets:Cash
  - date: 2024-01-02
    txn: Lunch
    postings:
      - account: Expenses:Food
        units: 12.50 USD
      - account: Assets:Cash
`

// runCLI parses and runs args in a fresh temporary working directory.
func runCLI(t *testing.T, files map[string]string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{"BEANLEDGER_STORE", "BEANLEDGER_DB", "BEANLEDGER_LOG_LEVEL", "BEANLEDGER_DOCUMENT_ROOT"} {
		t.Setenv(key, "")
		assert.NoError(t, os.Unsetenv(key))
	}
	t.Setenv("BEANLEDGER_LOG_LEVEL", "off")

	for name, content := range files {
		assert.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	return runIn(t, args...)
}

// runIn runs args in the current working directory.
func runIn(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var cli struct {
		Commands
	}
	var stdout, stderr bytes.Buffer
	parser, err := kong.New(&cli,
		kong.Name("beanledger"),
		kong.Writers(&stdout, &stderr),
		kong.Exit(func(int) {}),
		kong.Bind(&cli.Globals),
	)
	assert.NoError(t, err)

	ctx, err := parser.Parse(args)
	if err != nil {
		return stdout.String(), stderr.String(), err
	}
	err = ctx.Run()
	return stdout.String(), stderr.String(), err
}

func exitCode(err error) int {
	var cmdErr *CommandError
	if stdErrors.As(err, &cmdErr) {
		return cmdErr.ExitCode()
	}
	return -1
}

func TestCheckCmd(t *testing.T) {
	t.Run("Passes", func(t *testing.T) {
		_, stderr, err := runCLI(t, map[string]string{"main.yaml": brokerLedger}, "check", "main.yaml")
		assert.NoError(t, err)
		assert.Contains(t, stderr, "✓ Check passed (8 directives)")
	})

	t.Run("ReportsLedgerErrors", func(t *testing.T) {
		_, stderr, err := runCLI(t, map[string]string{"main.yaml": unknownAccountLedger}, "check", "main.yaml")
		assert.Error(t, err)
		assert.Equal(t, 1, exitCode(err))
		assert.Contains(t, stderr, "Invalid reference to unknown account 'Expenses:Food'")
		assert.Contains(t, stderr, "txn: Lunch")
		assert.Contains(t, stderr, "1 ledger error(s) found")
	})

	t.Run("JSONOutput", func(t *testing.T) {
		stdout, _, err := runCLI(t, map[string]string{"main.yaml": unknownAccountLedger}, "check", "--format", "json", "main.yaml")
		assert.Equal(t, 1, exitCode(err))

		var errs []struct {
			Type     string            `json:"type"`
			Message  string            `json:"message"`
			Details  map[string]string `json:"details"`
			Position struct {
				Line int `json:"line"`
			} `json:"position"`
		}
		assert.NoError(t, json.Unmarshal([]byte(stdout), &errs))
		assert.Equal(t, 1, len(errs))
		assert.Equal(t, "AccountDoesNotExist", errs[0].Type)
		assert.Equal(t, "Expenses:Food", errs[0].Details["account_name"])
		assert.Equal(t, 7, errs[0].Position.Line)
	})

	t.Run("JSONOutputWithoutErrors", func(t *testing.T) {
		stdout, _, err := runCLI(t, map[string]string{"main.yaml": brokerLedger}, "check", "--format=json", "main.yaml")
		assert.NoError(t, err)
		assert.Equal(t, "[]\n", stdout)
	})

	t.Run("ParseError", func(t *testing.T) {
		_, stderr, err := runCLI(t, map[string]string{"main.yaml": "directives:\n  - date: 2024-01-01\n    open: Savings\n"}, "check", "main.yaml")
		assert.Equal(t, 1, exitCode(err))
		assert.Contains(t, stderr, "parse error")
		assert.Contains(t, stderr, "open: Savings")
	})

	t.Run("FollowsIncludes", func(t *testing.T) {
		files := map[string]string{
			"accounts.yaml": "directives:\n  - date: 2024-01-01\n    open: Expenses:Food\n",
			"main.yaml":     "include:\n  - accounts.yaml\n" + unknownAccountLedger,
		}
		_, stderr, err := runCLI(t, files, "check", "main.yaml")
		assert.NoError(t, err)
		assert.Contains(t, stderr, "Check passed")
	})

	t.Run("Telemetry", func(t *testing.T) {
		_, stderr, err := runCLI(t, map[string]string{"main.yaml": brokerLedger}, "--telemetry", "check", "main.yaml")
		assert.NoError(t, err)
		assert.Contains(t, stderr, "check main.yaml")
		assert.Contains(t, stderr, "loader.load main.yaml")
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, _, err := runCLI(t, nil, "check", "missing.yaml")
		assert.Error(t, err)
	})
}

func TestCheckCmd_PersistentStores(t *testing.T) {
	for _, store := range []string{"sqlite", "bolt"} {
		t.Run(store, func(t *testing.T) {
			_, stderr, err := runCLI(t, map[string]string{"main.yaml": brokerLedger}, "check", "--store", store, "--db", "ledger.db", "main.yaml")
			assert.NoError(t, err)
			assert.Contains(t, stderr, "Check passed")

			_, err = os.Stat("ledger.db")
			assert.NoError(t, err)

			// A second run replaces the database when forced.
			_, stderr, err = runIn(t, "check", "--store", store, "--db", "ledger.db", "--force", "main.yaml")
			assert.NoError(t, err)
			assert.Contains(t, stderr, "Check passed")

			if isTerminal() {
				t.Skip("stdin is a terminal")
			}
			_, _, err = runIn(t, "check", "--store", store, "--db", "ledger.db", "main.yaml")
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "already exists")
		})
	}
}

func TestCheckCmd_WatchRerunReplacesDatabase(t *testing.T) {
	for _, store := range []string{"sqlite", "bolt"} {
		t.Run(store, func(t *testing.T) {
			_, _, err := runCLI(t, map[string]string{"main.yaml": brokerLedger}, "check", "--store", store, "--db", "ledger.db", "main.yaml")
			assert.NoError(t, err)

			globals := &Globals{Store: store, DB: "ledger.db"}
			cmd := &CheckCmd{File: FileOrStdin{Filename: "main.yaml"}, Format: "text"}
			for range 2 {
				var stdout, stderr bytes.Buffer
				files, err := cmd.check(rerunGlobals(globals), &stdout, &stderr)
				assert.NoError(t, err)
				assert.Equal(t, 1, len(files))
				assert.Contains(t, stderr.String(), "Check passed")
			}
			assert.False(t, globals.Force)
		})
	}
}

func TestLotsCmd(t *testing.T) {
	stdout, _, err := runCLI(t, map[string]string{"main.yaml": brokerLedger}, "lots", "main.yaml")
	assert.NoError(t, err)
	assert.Contains(t, stdout, "Account")
	assert.Contains(t, stdout, "Assets:Broker")
	assert.Contains(t, stdout, "HOOL")
	assert.Contains(t, stdout, "$518.73")
	assert.Contains(t, stdout, "-10000")

	t.Run("AccountFilter", func(t *testing.T) {
		stdout, _, err := runIn(t, "lots", "--account", "Assets:Cash", "main.yaml")
		assert.NoError(t, err)
		assert.NotContains(t, stdout, "HOOL")
		assert.Contains(t, stdout, "4812.7")
	})
}

func TestAccountsCmd(t *testing.T) {
	stdout, _, err := runCLI(t, map[string]string{"main.yaml": brokerLedger}, "accounts", "main.yaml")
	assert.NoError(t, err)
	assert.Contains(t, stdout, "Assets:Broker")
	assert.Contains(t, stdout, "10 HOOL")
	assert.Contains(t, stdout, "$4,812.70")
	assert.Contains(t, stdout, "-$10,000.00")
	assert.Contains(t, stdout, "2024-01-01")
}

func TestDoctorCmd(t *testing.T) {
	t.Run("Dump", func(t *testing.T) {
		stdout, _, err := runCLI(t, map[string]string{"main.yaml": brokerLedger}, "doctor", "dump", "main.yaml")
		assert.NoError(t, err)
		assert.Contains(t, stdout, "option ")
		assert.Contains(t, stdout, "transaction ")
		assert.Contains(t, stdout, `Narration: "Buy shares"`)
		assert.Contains(t, stdout, `Narration: "Deposit"`)
		assert.NotContains(t, stdout, "Cost: nil")
	})

	t.Run("Config", func(t *testing.T) {
		stdout, _, err := runCLI(t, nil, "doctor", "config", "--store", "bolt")
		assert.NoError(t, err)
		assert.Contains(t, stdout, `Store: "bolt"`)
		assert.Contains(t, stdout, `LogLevel: "off"`)
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		_, _, err := runCLI(t, nil, "doctor", "config", "--store", "postgres")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), `unknown store "postgres"`)
	})
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		number   string
		currency string
		want     string
	}{
		{"1234.5", "USD", "$1,234.50"},
		{"-10", "USD", "-$10.00"},
		{"518.73", "EUR", "€518.73"},
		{"0.125", "USD", "0.125 USD"},
		{"10", "HOOL", "10 HOOL"},
	}

	for _, tt := range tests {
		t.Run(tt.number+" "+tt.currency, func(t *testing.T) {
			assert.Equal(t, tt.want, formatAmount(decimal.RequireFromString(tt.number), tt.currency))
		})
	}
}

func TestTable(t *testing.T) {
	tb := &table{columns: []column{{header: "Name"}, {header: "Units", right: true}, {header: "Note"}}}
	tb.add("Assets:Cash", "5", "ok")
	tb.add("Assets:Ünïcode", "100", "")

	var buf bytes.Buffer
	assert.NoError(t, tb.write(&buf, nil))
	assert.Equal(t, ""+
		"Name            Units  Note\n"+
		"Assets:Cash         5  ok\n"+
		"Assets:Ünïcode    100  \n", buf.String())
}
