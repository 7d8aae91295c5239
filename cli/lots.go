package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/beanledger/output"
)

type LotsCmd struct {
	File    FileOrStdin `help:"Ledger input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Account string      `help:"Only list lots of this account." short:"a"`
}

func (cmd *LotsCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	s, runCtx, err := globals.openSession("lots", &cmd.File)
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
		{header: "Commodity"},
		{header: "Units", right: true, style: styles.Amount},
		{header: "Cost", right: true, style: styles.Dim},
	}}

	for _, account := range accounts {
		if cmd.Account != "" && account.Name != cmd.Account {
			continue
		}
		lots, err := s.ledger.Lots(runCtx, account.Name)
		if err != nil {
			return err
		}
		for _, lot := range lots {
			if lot.Amount.IsZero() {
				continue
			}
			cost := ""
			if lot.Price != nil {
				cost = formatAmount(lot.Price.Number, lot.Price.Currency)
			}
			t.add(lot.Account, lot.Commodity, lot.Amount.String(), cost)
		}
	}

	if len(t.rows) == 0 {
		printInfof(ctx.Stderr, "No lots found")
		return nil
	}

	if err := t.write(ctx.Stdout, styles.Keyword); err != nil {
		return fmt.Errorf("failed to write lots: %w", err)
	}
	return nil
}
