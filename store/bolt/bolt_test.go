package bolt_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/beanledger/ast"
	"github.com/robinvdvleuten/beanledger/ledger"
	"github.com/robinvdvleuten/beanledger/ledger/storetest"
	"github.com/robinvdvleuten/beanledger/store/bolt"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ledger.Store {
		s, err := bolt.New(filepath.Join(t.TempDir(), "ledger.bolt"))
		assert.NoError(t, err)
		return s
	})
}

func TestStore_LotsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.bolt")

	s, err := bolt.New(path)
	assert.NoError(t, err)
	assert.NoError(t, s.InsertAccountLot(ctx, "Assets:Cash", "USD", nil, decimal.RequireFromString("25")))
	price := ast.MustParseAmount("10 USD")
	assert.NoError(t, s.InsertAccountLot(ctx, "Assets:Broker", "STOCK", &price, decimal.RequireFromString("3")))
	assert.NoError(t, s.Close())

	s, err = bolt.New(path)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	assert.Equal(t, path, s.Path())

	lot, err := s.AccountLot(ctx, "Assets:Broker", "STOCK", nil)
	assert.NoError(t, err)
	assert.Equal(t, "10 USD", lot.Price.String())
	assert.Equal(t, "3", lot.Amount.String())

	lots, err := s.AccountLots(ctx, "Assets:Cash")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(lots))
	assert.Zero(t, lots[0].Price)
}
