package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/beanledger/ast"
)

type priceDirective struct {
	d *ast.Price
}

// needsQuote reports whether the amount has to be fetched from the source.
func (p *priceDirective) needsQuote(l *Ledger) bool {
	if p.d.Amount != nil || p.d.Source == "" || l.quoter == nil {
		return false
	}
	_, resolved := l.quotes[p.d]
	return !resolved
}

func (p *priceDirective) fetch(ctx context.Context, l *Ledger) (decimal.Decimal, error) {
	if p.d.Currency == "" {
		return decimal.Zero, fmt.Errorf("price of %s from %s has no currency", p.d.Commodity, p.d.Source)
	}
	n, err := l.quoter.Quote(ctx, p.d.Source, p.d.Path)
	if err != nil {
		return decimal.Zero, fmt.Errorf("quote %s: %w", p.d.Commodity, err)
	}
	return n, nil
}

func (p *priceDirective) PreProcess(ctx context.Context, l *Ledger) error {
	if !p.needsQuote(l) {
		return nil
	}
	n, err := p.fetch(ctx, l)
	if err != nil {
		return err
	}
	l.quotes[p.d] = ast.NewAmount(n, p.d.Currency)
	return nil
}

// PreProcessAsync fetches the quote without holding the ledger lock and only
// takes it to store the result.
func (p *priceDirective) PreProcessAsync(ctx context.Context, l *Ledger) error {
	var needed bool
	_ = l.mutate(func() error {
		needed = p.needsQuote(l)
		return nil
	})
	if !needed {
		return nil
	}

	n, err := p.fetch(ctx, l)
	if err != nil {
		return err
	}
	return l.mutate(func() error {
		l.quotes[p.d] = ast.NewAmount(n, p.d.Currency)
		return nil
	})
}

// amount returns the declared amount or the fetched quote.
func (p *priceDirective) amount(l *Ledger) *ast.Amount {
	if p.d.Amount != nil {
		return p.d.Amount
	}
	if quote, ok := l.quotes[p.d]; ok {
		return &quote
	}
	return nil
}

func (p *priceDirective) Validate(ctx context.Context, l *Ledger, span ast.Position) (bool, error) {
	if err := checkCommodityDefined(ctx, l, p.d.Commodity, span); err != nil {
		return false, err
	}
	amount := p.amount(l)
	if amount == nil {
		return false, l.recordError(ctx, PriceMissingAmount, span, map[string]string{ContextCommodityName: p.d.Commodity})
	}
	if err := checkCommodityDefined(ctx, l, amount.Currency, span); err != nil {
		return false, err
	}
	return true, nil
}

func (p *priceDirective) Process(ctx context.Context, l *Ledger, span ast.Position) error {
	return l.store.InsertPrice(ctx, PriceRecord{
		Date:      p.d.Date,
		Commodity: p.d.Commodity,
		Amount:    *p.amount(l),
	})
}
