package cli

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands. Empty values fall
// back to the environment configuration.
type Globals struct {
	Telemetry   bool   `help:"Show timing telemetry for operations."`
	EnvFile     string `help:"Load configuration from this .env file." name:"env-file" type:"path"`
	Store       string `help:"Ledger store backend (memory, sqlite or bolt)."`
	DB          string `help:"Database path for the sqlite and bolt stores." type:"path"`
	LogLevel    string `help:"Log level (debug, info, warn, error or off)."`
	Concurrency int    `help:"Number of price quotes fetched concurrently."`
	Force       bool   `help:"Overwrite an existing database without asking."`
}

type Commands struct {
	Globals

	Check    CheckCmd    `cmd:"" help:"Load a ledger file and report ledger errors."`
	Lots     LotsCmd     `cmd:"" help:"List the lots held by each account."`
	Accounts AccountsCmd `cmd:"" help:"List accounts and their balances."`
	Doctor   DoctorCmd   `cmd:"" help:"Doctor utilities for debugging ledger files."`
}
