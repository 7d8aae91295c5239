package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/beanledger/ast"
)

type transactionDirective struct {
	d *ast.Transaction

	// amounts holds the units applied per posting, with the implicit posting
	// filled in by Validate. A nil entry is skipped.
	amounts []*ast.Amount
}

func (t *transactionDirective) Validate(ctx context.Context, l *Ledger, span ast.Position) (bool, error) {
	proceed := true

	seenAccounts := make(map[ast.Account]bool, len(t.d.Postings))
	for _, p := range t.d.Postings {
		if seenAccounts[p.Account] {
			continue
		}
		seenAccounts[p.Account] = true

		exists, err := checkAccount(ctx, l, string(p.Account), span)
		if err != nil {
			return false, err
		}
		if !exists {
			proceed = false
		}
	}

	seenCurrencies := make(map[string]bool)
	for _, currency := range postingCurrencies(t.d.Postings) {
		if seenCurrencies[currency] {
			continue
		}
		seenCurrencies[currency] = true

		if err := checkCommodityDefined(ctx, l, currency, span); err != nil {
			return false, err
		}
	}

	inferred, err := t.inferAmounts(ctx, l, span)
	if err != nil {
		return false, err
	}
	return proceed && inferred, nil
}

// inferAmounts fills t.amounts, inferring the units of the single posting
// without an amount from the residual of the others. Without an implicit
// posting it records UnbalancedTransaction for a residual outside tolerance.
func (t *transactionDirective) inferAmounts(ctx context.Context, l *Ledger, span ast.Position) (bool, error) {
	residuals := getResidualMap()
	defer putResidualMap(residuals)
	weights := make(map[string][]decimal.Decimal)

	t.amounts = make([]*ast.Amount, len(t.d.Postings))
	implicit := -1
	for i, p := range t.d.Postings {
		if p.Units == nil {
			if implicit >= 0 {
				return false, l.recordError(ctx, TransactionHasMultipleImplicitPosting, span, nil)
			}
			implicit = i
			continue
		}
		units := *p.Units
		t.amounts[i] = &units

		w := p.Weight()
		residuals[w.Currency] = residuals[w.Currency].Add(w.Number)
		if p.Cost == nil && p.Price == nil {
			weights[w.Currency] = append(weights[w.Currency], w.Number)
		}
	}

	var unbalanced []string
	for _, currency := range sortedKeys(residuals) {
		residual := residuals[currency]
		if implicit < 0 && !withinTolerance(residual, decimal.Zero, l.tolerance.InferTolerance(weights[currency], currency)) {
			unbalanced = append(unbalanced, ast.NewAmount(residual, currency).String())
		}
	}

	if implicit < 0 {
		if len(unbalanced) > 0 {
			err := l.recordError(ctx, UnbalancedTransaction, span, map[string]string{
				"residual": strings.Join(unbalanced, ", "),
			})
			if err != nil {
				return false, err
			}
		}
		return true, nil
	}

	var nonZero []string
	for _, currency := range sortedKeys(residuals) {
		if !residuals[currency].IsZero() {
			nonZero = append(nonZero, currency)
		}
	}
	switch len(nonZero) {
	case 0:
		// Nothing to balance; the implicit posting stays empty.
	case 1:
		amount := ast.NewAmount(residuals[nonZero[0]].Neg(), nonZero[0])
		t.amounts[implicit] = &amount
	default:
		parts := make([]string, 0, len(nonZero))
		for _, currency := range nonZero {
			parts = append(parts, ast.NewAmount(residuals[currency], currency).String())
		}
		return false, l.recordError(ctx, TransactionCannotInferTradeAmount, span, map[string]string{
			"residual": strings.Join(parts, ", "),
		})
	}
	return true, nil
}

func (t *transactionDirective) Process(ctx context.Context, l *Ledger, span ast.Position) error {
	// Resolve every policy first so a FILO posting aborts before any lot moves.
	infos := make([]LotInfo, len(t.d.Postings))
	for i, p := range t.d.Postings {
		if t.amounts[i] == nil {
			continue
		}
		account, err := l.store.Account(ctx, string(p.Account))
		if err != nil {
			return err
		}
		infos[i] = lotInfoForPosting(p, l.bookingFor(account))
		if _, ok := infos[i].(FILO); ok {
			return fmt.Errorf("%s %s: %w", p.Account, t.amounts[i], ErrFILONotImplemented)
		}
	}

	for i, p := range t.d.Postings {
		if t.amounts[i] == nil {
			continue
		}
		if err := lotAdd(ctx, l.store, string(p.Account), *t.amounts[i], infos[i]); err != nil {
			return err
		}
	}
	return nil
}

// postingCurrencies lists the currencies referenced by the units, cost and
// price of every posting, in order of appearance.
func postingCurrencies(postings []*ast.Posting) []string {
	var currencies []string
	for _, p := range postings {
		for _, a := range []*ast.Amount{p.Units, p.Cost, p.Price} {
			if a != nil {
				currencies = append(currencies, a.Currency)
			}
		}
	}
	return currencies
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
