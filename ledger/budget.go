package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/beanledger/ast"
)

const contextBudgetName = "budget_name"

// openBudget loads a budget and records BudgetDoesNotExist or BudgetClosed when
// it cannot be used. It returns nil in that case.
func openBudget(ctx context.Context, l *Ledger, name string, span ast.Position) (*BudgetRecord, error) {
	budget, err := l.store.Budget(ctx, name)
	if err != nil {
		return nil, err
	}
	if budget == nil {
		return nil, l.recordError(ctx, BudgetDoesNotExist, span, map[string]string{contextBudgetName: name})
	}
	if budget.Closed {
		return nil, l.recordError(ctx, BudgetClosed, span, map[string]string{contextBudgetName: name})
	}
	return budget, nil
}

type budgetDirective struct {
	d *ast.Budget
}

func (b *budgetDirective) Validate(ctx context.Context, l *Ledger, span ast.Position) (bool, error) {
	existing, err := l.store.Budget(ctx, b.d.Name)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, l.recordError(ctx, DefineDuplicatedBudget, span, map[string]string{contextBudgetName: b.d.Name})
	}
	if err := checkCommodityDefined(ctx, l, b.d.Commodity, span); err != nil {
		return false, err
	}
	return true, nil
}

func (b *budgetDirective) Process(ctx context.Context, l *Ledger, span ast.Position) error {
	return l.store.InsertBudget(ctx, BudgetRecord{
		Name:      b.d.Name,
		Commodity: b.d.Commodity,
		Date:      b.d.Date,
		Assigned:  decimal.Zero,
	})
}

type budgetAddDirective struct {
	d      *ast.BudgetAdd
	budget *BudgetRecord
}

func (b *budgetAddDirective) Validate(ctx context.Context, l *Ledger, span ast.Position) (bool, error) {
	budget, err := openBudget(ctx, l, b.d.Name, span)
	if err != nil || budget == nil {
		return false, err
	}
	if err := checkCommodityDefined(ctx, l, b.d.Amount.Currency, span); err != nil {
		return false, err
	}
	b.budget = budget
	return true, nil
}

func (b *budgetAddDirective) Process(ctx context.Context, l *Ledger, span ast.Position) error {
	b.budget.Assigned = b.budget.Assigned.Add(b.d.Amount.Number)
	return l.store.UpdateBudget(ctx, *b.budget)
}

type budgetTransferDirective struct {
	d        *ast.BudgetTransfer
	from, to *BudgetRecord
}

func (b *budgetTransferDirective) Validate(ctx context.Context, l *Ledger, span ast.Position) (bool, error) {
	from, err := openBudget(ctx, l, b.d.From, span)
	if err != nil {
		return false, err
	}
	to, err := openBudget(ctx, l, b.d.To, span)
	if err != nil {
		return false, err
	}
	if err := checkCommodityDefined(ctx, l, b.d.Amount.Currency, span); err != nil {
		return false, err
	}
	if from == nil || to == nil {
		return false, nil
	}
	b.from, b.to = from, to
	return true, nil
}

func (b *budgetTransferDirective) Process(ctx context.Context, l *Ledger, span ast.Position) error {
	b.from.Assigned = b.from.Assigned.Sub(b.d.Amount.Number)
	if err := l.store.UpdateBudget(ctx, *b.from); err != nil {
		return err
	}
	b.to.Assigned = b.to.Assigned.Add(b.d.Amount.Number)
	return l.store.UpdateBudget(ctx, *b.to)
}

type budgetCloseDirective struct {
	d      *ast.BudgetClose
	budget *BudgetRecord
}

func (b *budgetCloseDirective) Validate(ctx context.Context, l *Ledger, span ast.Position) (bool, error) {
	budget, err := openBudget(ctx, l, b.d.Name, span)
	if err != nil || budget == nil {
		return false, err
	}
	b.budget = budget
	return true, nil
}

func (b *budgetCloseDirective) Process(ctx context.Context, l *Ledger, span ast.Position) error {
	b.budget.Closed = true
	return l.store.UpdateBudget(ctx, *b.budget)
}
