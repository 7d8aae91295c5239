package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/beanledger/ast"
	"github.com/robinvdvleuten/beanledger/ledger"
	"github.com/robinvdvleuten/beanledger/ledger/storetest"
	"github.com/robinvdvleuten/beanledger/store/sqlite"
)

func newStore(t *testing.T) ledger.Store {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	assert.NoError(t, err)
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, newStore)
}

func TestStore_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "ledger.db")
	s, err := sqlite.New(path)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	assert.Equal(t, path, s.Path())
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	s, err := sqlite.New(path)
	assert.NoError(t, err)
	price := ast.MustParseAmount("100.00 USD")
	err = s.InsertAccountLot(ctx, "Assets:Broker", "STOCK", &price, decimal.RequireFromString("10"))
	assert.NoError(t, err)
	assert.NoError(t, s.Close())

	s, err = sqlite.New(path)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	lot, err := s.AccountLot(ctx, "Assets:Broker", "STOCK", &price)
	assert.NoError(t, err)
	assert.NotZero(t, lot)
	assert.Equal(t, "10", lot.Amount.String())
	assert.Equal(t, "100 USD", lot.Price.String())
}
