package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/robinvdvleuten/beanledger/ast"
	"github.com/robinvdvleuten/beanledger/telemetry"
)

// DirectiveProcess is the contract every directive variant implements.
//
// Validate inspects the current state and reports whether Process should run.
// It may record ledger errors but must not change accounts, lots or balances;
// recording an error does not by itself reject the directive. Process applies
// the directive and runs exactly once per accepted directive.
type DirectiveProcess interface {
	Validate(ctx context.Context, l *Ledger, span ast.Position) (bool, error)
	Process(ctx context.Context, l *Ledger, span ast.Position) error
}

// PreProcessor is implemented by variants that need to run before the main
// pass. PreProcess may mutate the ledger directly; callers serialize it.
type PreProcessor interface {
	PreProcess(ctx context.Context, l *Ledger) error
}

// AsyncPreProcessor is implemented by variants whose pre-processing blocks on
// I/O. PreProcessAsync may run concurrently with other hooks and must route its
// ledger changes through l.mutate.
type AsyncPreProcessor interface {
	PreProcessAsync(ctx context.Context, l *Ledger) error
}

// alwaysValid provides the default Validate, which always proceeds.
type alwaysValid struct{}

func (alwaysValid) Validate(ctx context.Context, l *Ledger, span ast.Position) (bool, error) {
	return true, nil
}

// processorFor returns the variant handling d.
func processorFor(d ast.Directive) (DirectiveProcess, error) {
	switch d := d.(type) {
	case *ast.Open:
		return &openDirective{d: d}, nil
	case *ast.Close:
		return &closeDirective{d: d}, nil
	case *ast.Commodity:
		return &commodityDirective{d: d}, nil
	case *ast.Transaction:
		return &transactionDirective{d: d}, nil
	case *ast.Balance:
		return &balanceDirective{d: d}, nil
	case *ast.Price:
		return &priceDirective{d: d}, nil
	case *ast.Document:
		return &documentDirective{d: d}, nil
	case *ast.Budget:
		return &budgetDirective{d: d}, nil
	case *ast.BudgetAdd:
		return &budgetAddDirective{d: d}, nil
	case *ast.BudgetTransfer:
		return &budgetTransferDirective{d: d}, nil
	case *ast.BudgetClose:
		return &budgetCloseDirective{d: d}, nil
	case *ast.Option:
		return &optionDirective{d: d}, nil
	case *ast.Plugin:
		return &pluginDirective{d: d}, nil
	}
	return nil, fmt.Errorf("%T: %w", d, ErrUnknownDirective)
}

// Handle validates d and processes it when validation lets it proceed. A
// rejected directive is not an error.
func (l *Ledger) Handle(ctx context.Context, d ast.Directive) error {
	p, err := processorFor(d)
	if err != nil {
		return err
	}
	return handle(ctx, l, p, d.Position())
}

func handle(ctx context.Context, l *Ledger, p DirectiveProcess, span ast.Position) error {
	ok, err := p.Validate(ctx, l, span)
	if err != nil {
		return err
	}
	if !ok {
		l.logger.Warn("directive rejected", zap.Stringer("position", span), zap.String("directive", fmt.Sprintf("%T", p)))
		return nil
	}
	l.logger.Debug("processing directive", zap.Stringer("position", span), zap.String("directive", fmt.Sprintf("%T", p)))
	return p.Process(ctx, l, span)
}

// PreProcess runs the synchronous pre-processing hook of every directive in
// order.
func (l *Ledger) PreProcess(ctx context.Context, directives []ast.Directive) error {
	for _, d := range directives {
		p, err := processorFor(d)
		if err != nil {
			return err
		}
		pp, ok := p.(PreProcessor)
		if !ok {
			continue
		}
		if err := l.mutate(func() error { return pp.PreProcess(ctx, l) }); err != nil {
			return fmt.Errorf("%s: pre-process %s: %w", d.Position(), d.Kind(), err)
		}
	}
	return nil
}

// PreProcessConcurrently runs the pre-processing hooks, starting one goroutine
// per variant that implements AsyncPreProcessor, bounded by WithConcurrency.
// The remaining hooks run inline in directive order. The first failure cancels
// the others.
func (l *Ledger) PreProcessConcurrently(ctx context.Context, directives []ast.Directive) error {
	g, gctx := errgroup.WithContext(ctx)
	if l.concurrency > 0 {
		g.SetLimit(l.concurrency)
	}

	for _, d := range directives {
		p, err := processorFor(d)
		if err != nil {
			_ = g.Wait()
			return err
		}

		if _, ok := p.(AsyncPreProcessor); ok {
			g.Go(func() error {
				timer := telemetry.StartTimer(gctx, fmt.Sprintf("ledger.preprocess %s", d.Kind()))
				defer timer.End()
				if err := preProcessAsync(gctx, l, p); err != nil {
					return fmt.Errorf("%s: pre-process %s: %w", d.Position(), d.Kind(), err)
				}
				return nil
			})
			continue
		}

		if err := preProcessAsync(gctx, l, p); err != nil {
			_ = g.Wait()
			return fmt.Errorf("%s: pre-process %s: %w", d.Position(), d.Kind(), err)
		}
	}
	return g.Wait()
}

// preProcessAsync invokes the asynchronous hook of p, defaulting to its
// synchronous hook run under the ledger lock.
func preProcessAsync(ctx context.Context, l *Ledger, p DirectiveProcess) error {
	if ap, ok := p.(AsyncPreProcessor); ok {
		return ap.PreProcessAsync(ctx, l)
	}
	if pp, ok := p.(PreProcessor); ok {
		return l.mutate(func() error { return pp.PreProcess(ctx, l) })
	}
	return nil
}
