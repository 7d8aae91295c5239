package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/beanledger/ast"
)

type balanceDirective struct {
	d *ast.Balance
}

func (b *balanceDirective) Validate(ctx context.Context, l *Ledger, span ast.Position) (bool, error) {
	exists, err := checkAccount(ctx, l, string(b.d.Account), span)
	if err != nil {
		return false, err
	}
	if err := checkCommodityDefined(ctx, l, b.d.Amount.Currency, span); err != nil {
		return false, err
	}
	if b.d.Pad == "" || b.d.Pad == b.d.Account {
		return exists, nil
	}

	padExists, err := checkAccount(ctx, l, string(b.d.Pad), span)
	if err != nil {
		return false, err
	}
	return exists && padExists, nil
}

func (b *balanceDirective) Process(ctx context.Context, l *Ledger, span ast.Position) error {
	account := string(b.d.Account)
	target := b.d.Amount
	current, err := l.Balance(ctx, account, target.Currency)
	if err != nil {
		return err
	}

	if b.d.Pad != "" {
		diff := target.Number.Sub(current)
		if diff.IsZero() {
			return nil
		}
		if err := l.padLotAdd(ctx, account, ast.NewAmount(diff, target.Currency)); err != nil {
			return err
		}
		return l.padLotAdd(ctx, string(b.d.Pad), ast.NewAmount(diff.Neg(), target.Currency))
	}

	tolerance := l.tolerance.InferTolerance([]decimal.Decimal{target.Number}, target.Currency)
	if withinTolerance(current, target.Number, tolerance) {
		return nil
	}
	return l.recordError(ctx, AccountBalanceCheckError, span, map[string]string{
		ContextAccountName: account,
		"target":           target.String(),
		"current":          ast.NewAmount(current, target.Currency).String(),
		"distance":         ast.NewAmount(current.Sub(target.Number), target.Currency).String(),
	})
}

// padLotAdd books a padding amount with the account's own booking method.
func (l *Ledger) padLotAdd(ctx context.Context, account string, amount ast.Amount) error {
	record, err := l.store.Account(ctx, account)
	if err != nil {
		return err
	}
	info, ok := lotInfoForBooking(l.bookingFor(record))
	if !ok {
		info = FIFO{}
	}
	return lotAdd(ctx, l.store, account, amount, info)
}
