package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/beanledger/ast"
)

func TestLotAdd_SpecificLot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	post := func(units string, cost string) {
		t.Helper()
		c := amt(cost)
		assert.NoError(t, lotAdd(ctx, store, "Assets:Broker", *amt(units), SpecificLot{Currency: c.Currency, Number: c.Number}))
	}

	post("10 STOCK", "100 USD")
	lot, err := store.AccountLot(ctx, "Assets:Broker", "STOCK", amt("100 USD"))
	assert.NoError(t, err)
	assert.True(t, lot.Amount.Equal(dec("10")))

	post("5 STOCK", "100 USD")
	lot, err = store.AccountLot(ctx, "Assets:Broker", "STOCK", amt("100 USD"))
	assert.NoError(t, err)
	assert.True(t, lot.Amount.Equal(dec("15")))

	post("3 STOCK", "110 USD")
	lot, err = store.AccountLot(ctx, "Assets:Broker", "STOCK", amt("110 USD"))
	assert.NoError(t, err)
	assert.True(t, lot.Amount.Equal(dec("3")))

	lots, err := store.AccountLots(ctx, "Assets:Broker")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(lots))
}

func TestLotAdd_SpecificLotNegative(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	info := SpecificLot{Currency: "USD", Number: dec("100")}

	assert.NoError(t, lotAdd(ctx, store, "Assets:Broker", *amt("10 STOCK"), info))
	assert.NoError(t, lotAdd(ctx, store, "Assets:Broker", *amt("-12 STOCK"), info))

	lot, err := store.AccountLot(ctx, "Assets:Broker", "STOCK", amt("100 USD"))
	assert.NoError(t, err)
	assert.True(t, lot.Amount.Equal(dec("-2")))
}

func TestLotAdd_FIFO(t *testing.T) {
	ctx := context.Background()

	t.Run("creates default row", func(t *testing.T) {
		store := NewMemoryStore()
		assert.NoError(t, lotAdd(ctx, store, "Assets:Cash", *amt("7.25 USD"), FIFO{}))

		lots, err := store.AccountLots(ctx, "Assets:Cash")
		assert.NoError(t, err)
		assert.Equal(t, 1, len(lots))
		assert.Zero(t, lots[0].Price)
		assert.True(t, lots[0].Amount.Equal(dec("7.25")))
	})

	t.Run("accumulates into default row", func(t *testing.T) {
		store := NewMemoryStore()
		assert.NoError(t, lotAdd(ctx, store, "Assets:Cash", *amt("7.25 USD"), FIFO{}))
		assert.NoError(t, lotAdd(ctx, store, "Assets:Cash", *amt("-2.25 USD"), FIFO{}))

		lots, err := store.AccountLots(ctx, "Assets:Cash")
		assert.NoError(t, err)
		assert.Equal(t, 1, len(lots))
		assert.True(t, lots[0].Amount.Equal(dec("5")))
	})

	t.Run("joins existing priced row", func(t *testing.T) {
		store := NewMemoryStore()
		assert.NoError(t, lotAdd(ctx, store, "Assets:Broker", *amt("10 STOCK"), SpecificLot{Currency: "USD", Number: dec("100")}))
		assert.NoError(t, lotAdd(ctx, store, "Assets:Broker", *amt("-4 STOCK"), FIFO{}))

		lots, err := store.AccountLots(ctx, "Assets:Broker")
		assert.NoError(t, err)
		assert.Equal(t, 1, len(lots))
		assert.True(t, lots[0].Price.Equal(*amt("100 USD")))
		assert.True(t, lots[0].Amount.Equal(dec("6")))
	})

	t.Run("prefers earliest priced row", func(t *testing.T) {
		store := NewMemoryStore()
		assert.NoError(t, lotAdd(ctx, store, "Assets:Broker", *amt("10 STOCK"), SpecificLot{Currency: "USD", Number: dec("100")}))
		assert.NoError(t, lotAdd(ctx, store, "Assets:Broker", *amt("5 STOCK"), SpecificLot{Currency: "USD", Number: dec("90")}))
		assert.NoError(t, lotAdd(ctx, store, "Assets:Broker", *amt("1 STOCK"), FIFO{}))

		lot, err := store.AccountLot(ctx, "Assets:Broker", "STOCK", amt("100 USD"))
		assert.NoError(t, err)
		assert.True(t, lot.Amount.Equal(dec("11")))
		lot, err = store.AccountLot(ctx, "Assets:Broker", "STOCK", amt("90 USD"))
		assert.NoError(t, err)
		assert.True(t, lot.Amount.Equal(dec("5")))
	})
}

func TestLotAdd_FILO(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := lotAdd(ctx, store, "Assets:Broker", *amt("1 STOCK"), FILO{})
	assert.True(t, errors.Is(err, ErrFILONotImplemented))

	lots, err := store.AccountLots(ctx, "Assets:Broker")
	assert.NoError(t, err)
	assert.Equal(t, 0, len(lots))
}

func TestLotInfoForBooking(t *testing.T) {
	tests := []struct {
		booking string
		want    LotInfo
		ok      bool
	}{
		{"", FIFO{}, true},
		{"FIFO", FIFO{}, true},
		{"fifo", FIFO{}, true},
		{"STRICT", FIFO{}, true},
		{"NONE", FIFO{}, true},
		{"AVERAGE", FIFO{}, true},
		{"FILO", FILO{}, true},
		{"LIFO", FILO{}, true},
		{"HIFO", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.booking, func(t *testing.T) {
			got, ok := lotInfoForBooking(tt.booking)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLotInfoForPosting(t *testing.T) {
	units := amt("10 STOCK")

	withCost := &ast.Posting{Account: "Assets:Broker", Units: units, Cost: amt("100 USD")}
	assert.Equal(t, LotInfo(SpecificLot{Currency: "USD", Number: dec("100")}), lotInfoForPosting(withCost, "FILO"))

	plain := &ast.Posting{Account: "Assets:Broker", Units: units}
	assert.Equal(t, LotInfo(FIFO{}), lotInfoForPosting(plain, "FIFO"))
	assert.Equal(t, LotInfo(FILO{}), lotInfoForPosting(plain, "LIFO"))

	// A price only converts the weight; it does not select a lot.
	priced := &ast.Posting{Account: "Assets:Broker", Units: units, Price: amt("105 USD")}
	assert.Equal(t, LotInfo(FIFO{}), lotInfoForPosting(priced, ""))
}
