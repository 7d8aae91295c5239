package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/beanledger/ast"
)

var errStoreDown = errors.New("store down")

// failingStore fails every ExistsAccount call.
type failingStore struct {
	*MemoryStore
}

func (failingStore) ExistsAccount(ctx context.Context, name string) (bool, error) {
	return false, errStoreDown
}

func amt(s string) *ast.Amount {
	a := ast.MustParseAmount(s)
	return &a
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pos(line int) ast.Position {
	return ast.Position{Filename: "test.yaml", Line: line, Column: 3}
}

// newTestLedger returns a ledger with Assets:Broker and Assets:Cash open and
// STOCK and USD declared.
func newTestLedger(t *testing.T, opts ...Option) (*Ledger, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	l := New(store, opts...)
	ctx := context.Background()
	assert.NoError(t, l.Process(ctx, []ast.Directive{
		&ast.Commodity{Date: ast.MustDate("2024-01-01"), Currency: "STOCK"},
		&ast.Commodity{Date: ast.MustDate("2024-01-01"), Currency: "USD"},
		&ast.Open{Date: ast.MustDate("2024-01-01"), Account: "Assets:Broker"},
		&ast.Open{Date: ast.MustDate("2024-01-01"), Account: "Assets:Cash"},
	}))
	return l, store
}

func errorKinds(t *testing.T, l *Ledger) []ErrorKind {
	t.Helper()
	errs, err := l.Errors(context.Background())
	assert.NoError(t, err)
	kinds := make([]ErrorKind, 0, len(errs))
	for _, e := range errs {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}
