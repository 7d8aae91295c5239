// Package ledger derives ledger state from an ordered stream of directives.
//
// Every directive passes through the same pipeline: an optional pre-processing
// hook runs over the whole stream first, then each directive is validated
// against the current state and, when validation lets it proceed, processed.
// Business-rule violations (unknown accounts, undefined commodities, failed
// balance assertions) are recorded as ledger errors in the store and never stop
// the run. Store failures and structural problems are returned as Go errors and
// abort it.
//
// Inventory is tracked as lot rows keyed by (account, commodity, cost). Postings
// with an explicit cost update that exact lot; postings without one are matched
// FIFO against the rows already held.
//
// Example usage:
//
//	result, err := loader.New().Load(ctx, "main.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	l := ledger.New(ledger.NewMemoryStore())
//	if err := l.Process(ctx, result.Directives); err != nil {
//	    log.Fatal(err)
//	}
//
//	errs, _ := l.Errors(ctx)
//	for _, e := range errs {
//	    fmt.Println(e)
//	}
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/robinvdvleuten/beanledger/ast"
	"github.com/robinvdvleuten/beanledger/telemetry"
)

// Quoter fetches a price quote from a remote source. Path selects the number
// inside the response.
type Quoter interface {
	Quote(ctx context.Context, source, path string) (decimal.Decimal, error)
}

// PluginFunc is a processing plugin run during pre-processing. It receives the
// store directly; the ledger serializes plugin runs with all other mutations.
type PluginFunc func(ctx context.Context, store Store, config string) error

// Ledger applies directives to a Store.
type Ledger struct {
	mu sync.Mutex

	store        Store
	logger       *zap.Logger
	quoter       Quoter
	plugins      map[string]PluginFunc
	documentRoot string
	concurrency  int

	booking   string
	tolerance *ToleranceConfig
	quotes    map[*ast.Price]ast.Amount
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithQuoter sets the client used to resolve prices declared without an amount.
func WithQuoter(quoter Quoter) Option {
	return func(l *Ledger) {
		l.quoter = quoter
	}
}

// WithPlugin registers a plugin under the module name used by plugin directives.
func WithPlugin(name string, fn PluginFunc) Option {
	return func(l *Ledger) {
		l.plugins[name] = fn
	}
}

// WithDocumentRoot enables existence checks for document paths relative to root.
func WithDocumentRoot(root string) Option {
	return func(l *Ledger) {
		l.documentRoot = root
	}
}

// WithConcurrency sets how many pre-processing hooks may run at once. Values
// above one switch Process to concurrent pre-processing.
func WithConcurrency(n int) Option {
	return func(l *Ledger) {
		l.concurrency = n
	}
}

// New creates a ledger on top of store.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:       store,
		logger:      zap.NewNop(),
		plugins:     map[string]PluginFunc{"auto_commodities": AutoCommodities},
		concurrency: 1,
		booking:     BookingFIFO,
		tolerance:   NewToleranceConfig(),
		quotes:      make(map[*ast.Price]ast.Amount),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Store returns the underlying store.
func (l *Ledger) Store() Store {
	return l.store
}

// Process runs the pre-processing pass over all directives and then handles
// them one by one in order. Directives must already be sorted chronologically.
//
// The returned error is an operational failure. Ledger errors are read back
// with Errors.
func (l *Ledger) Process(ctx context.Context, directives []ast.Directive) error {
	timer := telemetry.StartTimer(ctx, "ledger.preprocess")
	var err error
	if l.concurrency > 1 {
		err = l.PreProcessConcurrently(ctx, directives)
	} else {
		err = l.PreProcess(ctx, directives)
	}
	timer.End()
	if err != nil {
		return err
	}

	timer = telemetry.StartTimer(ctx, "ledger.process")
	defer timer.End()

	for _, d := range directives {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := l.Handle(ctx, d); err != nil {
			return fmt.Errorf("%s: %s: %w", d.Position(), d.Kind(), err)
		}
		timer.Count(1)
	}
	return nil
}

// Errors returns the recorded ledger errors.
func (l *Ledger) Errors(ctx context.Context) ([]*Error, error) {
	return l.store.Errors(ctx)
}

// Accounts returns all accounts ordered by name.
func (l *Ledger) Accounts(ctx context.Context) ([]AccountRecord, error) {
	return l.store.ListAccounts(ctx)
}

// Lots returns the lot rows of an account.
func (l *Ledger) Lots(ctx context.Context, account string) ([]LotRow, error) {
	return l.store.AccountLots(ctx, account)
}

// Balance sums the lot rows of an account in one currency.
func (l *Ledger) Balance(ctx context.Context, account, currency string) (decimal.Decimal, error) {
	lots, err := l.store.AccountLots(ctx, account)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, lot := range lots {
		if lot.Commodity == currency {
			total = total.Add(lot.Amount)
		}
	}
	return total, nil
}

// mutate runs fn while holding the ledger lock. Pre-processing hooks that run
// concurrently funnel every state change through it.
func (l *Ledger) mutate(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn()
}

// recordError appends a ledger error to the store.
func (l *Ledger) recordError(ctx context.Context, kind ErrorKind, span ast.Position, fields map[string]string) error {
	l.logger.Debug("ledger error",
		zap.String("kind", string(kind)),
		zap.Stringer("position", span),
		zap.Any("context", fields))
	return l.store.NewError(ctx, kind, span, fields)
}

// bookingFor returns the booking method for an account, falling back to the
// ledger-wide booking_method option.
func (l *Ledger) bookingFor(account *AccountRecord) string {
	if account != nil && account.Booking != "" {
		return account.Booking
	}
	return l.booking
}
