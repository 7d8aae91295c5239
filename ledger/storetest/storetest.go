// Package storetest provides a conformance suite run against every
// ledger.Store implementation.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/beanledger/ast"
	"github.com/robinvdvleuten/beanledger/ledger"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) ledger.Store

// Run runs the conformance suite.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, ctx context.Context, s ledger.Store)
	}{
		{"Accounts", testAccounts},
		{"Commodities", testCommodities},
		{"SpecificLots", testSpecificLots},
		{"PricelessLookup", testPricelessLookup},
		{"PricelessLookupPerHolding", testPricelessLookupPerHolding},
		{"DuplicateLot", testDuplicateLot},
		{"Budgets", testBudgets},
		{"Options", testOptions},
		{"RecordsAppend", testRecordsAppend},
		{"Errors", testErrors},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { assert.NoError(t, s.Close()) })
			tt.fn(t, context.Background(), s)
		})
	}
}

func amount(s string) *ast.Amount {
	a := ast.MustParseAmount(s)
	return &a
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testAccounts(t *testing.T, ctx context.Context, s ledger.Store) {
	exists, err := s.ExistsAccount(ctx, "Assets:Broker")
	assert.NoError(t, err)
	assert.False(t, exists)

	account, err := s.Account(ctx, "Assets:Broker")
	assert.NoError(t, err)
	assert.Zero(t, account)

	assert.NoError(t, s.InsertAccount(ctx, ledger.AccountRecord{
		Name:       "Assets:Broker",
		Status:     ledger.AccountOpen,
		OpenDate:   ast.MustDate("2024-01-01"),
		Currencies: []string{"STOCK", "USD"},
		Booking:    "FIFO",
	}))
	assert.NoError(t, s.InsertAccount(ctx, ledger.AccountRecord{
		Name:     "Assets:Cash",
		Status:   ledger.AccountOpen,
		OpenDate: ast.MustDate("2024-01-01"),
	}))

	exists, err = s.ExistsAccount(ctx, "Assets:Broker")
	assert.NoError(t, err)
	assert.True(t, exists)

	assert.NoError(t, s.CloseAccount(ctx, "Assets:Broker", ast.MustDate("2024-06-30")))
	account, err = s.Account(ctx, "Assets:Broker")
	assert.NoError(t, err)
	assert.Equal(t, ledger.AccountClose, account.Status)
	assert.Equal(t, "2024-06-30", account.CloseDate.String())
	assert.Equal(t, "2024-01-01", account.OpenDate.String())
	assert.Equal(t, []string{"STOCK", "USD"}, account.Currencies)
	assert.Equal(t, "FIFO", account.Booking)

	// Reopening replaces the record.
	assert.NoError(t, s.InsertAccount(ctx, ledger.AccountRecord{
		Name:     "Assets:Broker",
		Status:   ledger.AccountOpen,
		OpenDate: ast.MustDate("2024-07-01"),
	}))
	account, err = s.Account(ctx, "Assets:Broker")
	assert.NoError(t, err)
	assert.Equal(t, ledger.AccountOpen, account.Status)

	accounts, err := s.ListAccounts(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(accounts))
	assert.Equal(t, "Assets:Broker", accounts[0].Name)
	assert.Equal(t, "Assets:Cash", accounts[1].Name)
}

func testCommodities(t *testing.T, ctx context.Context, s ledger.Store) {
	exists, err := s.ExistsCommodity(ctx, "USD")
	assert.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, s.InsertCommodity(ctx, ledger.CommodityRecord{Name: "USD", Date: ast.MustDate("2024-01-01"), Precision: 2}))

	exists, err = s.ExistsCommodity(ctx, "USD")
	assert.NoError(t, err)
	assert.True(t, exists)
}

func testSpecificLots(t *testing.T, ctx context.Context, s ledger.Store) {
	price := amount("100 USD")

	lot, err := s.AccountLot(ctx, "Assets:Broker", "STOCK", price)
	assert.NoError(t, err)
	assert.Zero(t, lot)

	assert.NoError(t, s.InsertAccountLot(ctx, "Assets:Broker", "STOCK", price, dec("10")))
	assert.NoError(t, s.UpdateAccountLot(ctx, "Assets:Broker", "STOCK", amount("100.00 USD"), dec("15")))

	lot, err = s.AccountLot(ctx, "Assets:Broker", "STOCK", price)
	assert.NoError(t, err)
	assert.True(t, lot.Amount.Equal(dec("15")))
	assert.True(t, lot.Price.Equal(*price))
	assert.Equal(t, "Assets:Broker", lot.Account)
	assert.Equal(t, "STOCK", lot.Commodity)

	other, err := s.AccountLot(ctx, "Assets:Broker", "STOCK", amount("110 USD"))
	assert.NoError(t, err)
	assert.Zero(t, other)
}

func testPricelessLookup(t *testing.T, ctx context.Context, s ledger.Store) {
	assert.NoError(t, s.InsertAccountLot(ctx, "Assets:Cash", "USD", nil, dec("50")))

	lot, err := s.AccountLot(ctx, "Assets:Cash", "USD", nil)
	assert.NoError(t, err)
	assert.Zero(t, lot.Price)
	assert.True(t, lot.Amount.Equal(dec("50")))

	// Priced rows win over the default row, earliest inserted first.
	assert.NoError(t, s.InsertAccountLot(ctx, "Assets:Broker", "STOCK", nil, dec("1")))
	assert.NoError(t, s.InsertAccountLot(ctx, "Assets:Broker", "STOCK", amount("100 USD"), dec("10")))
	assert.NoError(t, s.InsertAccountLot(ctx, "Assets:Broker", "STOCK", amount("90 USD"), dec("5")))

	lot, err = s.AccountLot(ctx, "Assets:Broker", "STOCK", nil)
	assert.NoError(t, err)
	assert.True(t, lot.Price.Equal(*amount("100 USD")))
	assert.True(t, lot.Amount.Equal(dec("10")))

	lots, err := s.AccountLots(ctx, "Assets:Broker")
	assert.NoError(t, err)
	assert.Equal(t, 3, len(lots))
	assert.Zero(t, lots[0].Price)
	assert.True(t, lots[2].Price.Equal(*amount("90 USD")))

	missing, err := s.AccountLot(ctx, "Assets:Broker", "BOND", nil)
	assert.NoError(t, err)
	assert.Zero(t, missing)
}

func testPricelessLookupPerHolding(t *testing.T, ctx context.Context, s ledger.Store) {
	inserts := []struct {
		account, commodity string
		price              *ast.Amount
	}{
		{"Assets:A", "STOCK", nil},
		{"Assets:B", "STOCK", amount("7 USD")},
		{"Assets:A", "BOND", amount("3 USD")},
		{"Assets:A", "STOCK", amount("12 USD")},
		{"Assets:B", "STOCK", amount("8 USD")},
		{"Assets:A", "STOCK", amount("11 USD")},
	}
	for _, in := range inserts {
		assert.NoError(t, s.InsertAccountLot(ctx, in.account, in.commodity, in.price, dec("1")))
	}
	assert.NoError(t, s.UpdateAccountLot(ctx, "Assets:A", "STOCK", amount("12 USD"), dec("4")))

	tests := []struct {
		account, commodity string
		price              string
		amount             string
	}{
		{"Assets:A", "STOCK", "12 USD", "4"},
		{"Assets:B", "STOCK", "7 USD", "1"},
		{"Assets:A", "BOND", "3 USD", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.account+"/"+tt.commodity, func(t *testing.T) {
			lot, err := s.AccountLot(ctx, tt.account, tt.commodity, nil)
			assert.NoError(t, err)
			assert.True(t, lot.Price.Equal(*amount(tt.price)))
			assert.True(t, lot.Amount.Equal(dec(tt.amount)))
			assert.Equal(t, tt.account, lot.Account)
		})
	}
}

func testDuplicateLot(t *testing.T, ctx context.Context, s ledger.Store) {
	assert.NoError(t, s.InsertAccountLot(ctx, "Assets:Broker", "STOCK", amount("100 USD"), dec("10")))
	err := s.InsertAccountLot(ctx, "Assets:Broker", "STOCK", amount("100.0 USD"), dec("1"))
	assert.True(t, errors.Is(err, ledger.ErrDuplicateLot))

	assert.NoError(t, s.InsertAccountLot(ctx, "Assets:Broker", "STOCK", nil, dec("1")))
	err = s.InsertAccountLot(ctx, "Assets:Broker", "STOCK", nil, dec("1"))
	assert.True(t, errors.Is(err, ledger.ErrDuplicateLot))

	lots, err := s.AccountLots(ctx, "Assets:Broker")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(lots))
}

func testBudgets(t *testing.T, ctx context.Context, s ledger.Store) {
	budget, err := s.Budget(ctx, "Groceries")
	assert.NoError(t, err)
	assert.Zero(t, budget)

	assert.NoError(t, s.InsertBudget(ctx, ledger.BudgetRecord{Name: "Groceries", Commodity: "USD", Date: ast.MustDate("2024-01-01"), Assigned: decimal.Zero}))
	assert.NoError(t, s.UpdateBudget(ctx, ledger.BudgetRecord{Name: "Groceries", Commodity: "USD", Date: ast.MustDate("2024-01-01"), Assigned: dec("250.50"), Closed: true}))

	budget, err = s.Budget(ctx, "Groceries")
	assert.NoError(t, err)
	assert.Equal(t, "USD", budget.Commodity)
	assert.True(t, budget.Assigned.Equal(dec("250.5")))
	assert.True(t, budget.Closed)
}

func testOptions(t *testing.T, ctx context.Context, s ledger.Store) {
	_, ok, err := s.Option(ctx, "booking_method")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.SetOption(ctx, "booking_method", "FIFO"))
	assert.NoError(t, s.SetOption(ctx, "booking_method", "STRICT"))

	value, ok, err := s.Option(ctx, "booking_method")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "STRICT", value)
}

func testRecordsAppend(t *testing.T, ctx context.Context, s ledger.Store) {
	assert.NoError(t, s.InsertPrice(ctx, ledger.PriceRecord{Date: ast.MustDate("2024-01-02"), Commodity: "STOCK", Amount: *amount("101 USD")}))
	assert.NoError(t, s.InsertDocument(ctx, ledger.DocumentRecord{Date: ast.MustDate("2024-01-02"), Account: "Assets:Cash", Path: "statement.pdf"}))
	assert.NoError(t, s.InsertPlugin(ctx, ledger.PluginRecord{Module: "auto_commodities", Config: "USD"}))
}

func testErrors(t *testing.T, ctx context.Context, s ledger.Store) {
	errs, err := s.Errors(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(errs))

	span := ast.Position{Filename: "main.yaml", Line: 4, Column: 3}
	assert.NoError(t, s.NewError(ctx, ledger.AccountDoesNotExist, span, map[string]string{ledger.ContextAccountName: "Assets:Unknown"}))
	assert.NoError(t, s.NewError(ctx, ledger.TransactionHasMultipleImplicitPosting, ast.Position{Line: 9, Column: 1}, nil))

	errs, err = s.Errors(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(errs))
	assert.Equal(t, ledger.AccountDoesNotExist, errs[0].Kind)
	assert.Equal(t, span, errs[0].Span)
	assert.Equal(t, "Assets:Unknown", errs[0].Context[ledger.ContextAccountName])
	assert.Equal(t, ledger.TransactionHasMultipleImplicitPosting, errs[1].Kind)
	assert.Equal(t, 9, errs[1].Span.Line)
}
