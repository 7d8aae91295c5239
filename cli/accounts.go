package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/beanledger/ledger"
	"github.com/robinvdvleuten/beanledger/output"
)

type AccountsCmd struct {
	File   FileOrStdin `help:"Ledger input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Closed bool        `help:"Include closed accounts."`
}

func (cmd *AccountsCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	s, runCtx, err := globals.openSession("accounts", &cmd.File)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	defer s.reportTelemetry(ctx.Stderr)

	if _, err := s.process(runCtx, &cmd.File); err != nil {
		return err
	}

	accounts, err := s.ledger.Accounts(runCtx)
	if err != nil {
		return err
	}

	styles := output.NewStyles(ctx.Stdout)
	t := &table{columns: []column{
		{header: "Account", style: styles.Account},
		{header: "Status"},
		{header: "Opened", style: styles.Dim},
		{header: "Closed", style: styles.Dim},
		{header: "Balance", style: styles.Amount},
	}}

	for _, account := range accounts {
		if account.Status == ledger.AccountClose && !cmd.Closed {
			continue
		}
		lots, err := s.ledger.Lots(runCtx, account.Name)
		if err != nil {
			return err
		}
		t.add(account.Name, string(account.Status), account.OpenDate.String(), account.CloseDate.String(), balances(lots))
	}

	if len(t.rows) == 0 {
		printInfof(ctx.Stderr, "No accounts found")
		return nil
	}

	if err := t.write(ctx.Stdout, styles.Keyword); err != nil {
		return fmt.Errorf("failed to write accounts: %w", err)
	}
	return nil
}

// balances sums lot rows per commodity, in commodity order.
func balances(lots []ledger.LotRow) string {
	totals := make(map[string]decimal.Decimal)
	for _, lot := range lots {
		totals[lot.Commodity] = totals[lot.Commodity].Add(lot.Amount)
	}

	commodities := make([]string, 0, len(totals))
	for commodity, total := range totals {
		if !total.IsZero() {
			commodities = append(commodities, commodity)
		}
	}
	slices.Sort(commodities)

	parts := make([]string, len(commodities))
	for i, commodity := range commodities {
		parts[i] = formatAmount(totals[commodity], commodity)
	}
	return strings.Join(parts, ", ")
}
