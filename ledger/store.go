package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/beanledger/ast"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountOpen  AccountStatus = "Open"
	AccountClose AccountStatus = "Close"
)

// AccountRecord is the stored state of an account. Accounts are never deleted;
// closing only flips Status.
type AccountRecord struct {
	Name       string
	Status     AccountStatus
	OpenDate   *ast.Date
	CloseDate  *ast.Date
	Currencies []string
	Booking    string
}

// CommodityRecord is a declared commodity.
type CommodityRecord struct {
	Name      string
	Date      *ast.Date
	Precision int32
	Metadata  ast.Metadata
}

// LotRow is the inventory of one commodity in one account at one cost. A nil
// Price marks the default bucket holding units without a tracked cost.
type LotRow struct {
	Account   string
	Commodity string
	Price     *ast.Amount
	Amount    decimal.Decimal
}

// PriceRecord is a recorded commodity price.
type PriceRecord struct {
	Date      *ast.Date
	Commodity string
	Amount    ast.Amount
}

// DocumentRecord links a file to an account.
type DocumentRecord struct {
	Date    *ast.Date
	Account string
	Path    string
}

// BudgetRecord is the state of an envelope budget.
type BudgetRecord struct {
	Name      string
	Commodity string
	Date      *ast.Date
	Assigned  decimal.Decimal
	Closed    bool
}

// PluginRecord is a plugin that ran during pre-processing.
type PluginRecord struct {
	Module string
	Config string
}

// Store holds the ledger state. Every method may fail with a store-level error,
// which the ledger returns to its caller unchanged instead of recording it as a
// ledger error.
//
// Lookups of missing records return a nil record and a nil error.
type Store interface {
	ExistsAccount(ctx context.Context, name string) (bool, error)
	Account(ctx context.Context, name string) (*AccountRecord, error)
	// InsertAccount creates the account or replaces an existing record (reopen).
	InsertAccount(ctx context.Context, account AccountRecord) error
	CloseAccount(ctx context.Context, name string, date *ast.Date) error
	// ListAccounts returns all accounts ordered by name.
	ListAccounts(ctx context.Context) ([]AccountRecord, error)

	ExistsCommodity(ctx context.Context, name string) (bool, error)
	InsertCommodity(ctx context.Context, commodity CommodityRecord) error

	// AccountLot returns the row keyed by (account, commodity, price). With a nil
	// price it returns the earliest inserted priced row for the pair if one
	// exists, else the default row.
	AccountLot(ctx context.Context, account, commodity string, price *ast.Amount) (*LotRow, error)
	// InsertAccountLot creates a row and returns ErrDuplicateLot if the key exists.
	InsertAccountLot(ctx context.Context, account, commodity string, price *ast.Amount, amount decimal.Decimal) error
	// UpdateAccountLot sets the amount of an existing row.
	UpdateAccountLot(ctx context.Context, account, commodity string, price *ast.Amount, amount decimal.Decimal) error
	// AccountLots returns the rows of an account in insertion order.
	AccountLots(ctx context.Context, account string) ([]LotRow, error)

	InsertPrice(ctx context.Context, price PriceRecord) error
	InsertDocument(ctx context.Context, document DocumentRecord) error

	Budget(ctx context.Context, name string) (*BudgetRecord, error)
	InsertBudget(ctx context.Context, budget BudgetRecord) error
	UpdateBudget(ctx context.Context, budget BudgetRecord) error

	SetOption(ctx context.Context, key, value string) error
	Option(ctx context.Context, key string) (string, bool, error)
	InsertPlugin(ctx context.Context, plugin PluginRecord) error

	// NewError appends a ledger error to the error log.
	NewError(ctx context.Context, kind ErrorKind, span ast.Position, context map[string]string) error
	// Errors returns the error log in insertion order.
	Errors(ctx context.Context) ([]*Error, error)

	Close() error
}

// LotKey returns the normalised key of a lot price: the number without trailing
// zeros and the currency, or two empty strings for the default bucket. Stores use
// it so that 100 USD and 100.00 USD address the same row.
func LotKey(price *ast.Amount) (number, currency string) {
	if price == nil {
		return "", ""
	}
	return price.Number.String(), price.Currency
}

// PriceFromKey rebuilds a lot price from its normalised key.
func PriceFromKey(number, currency string) (*ast.Amount, error) {
	if number == "" && currency == "" {
		return nil, nil
	}
	n, err := decimal.NewFromString(number)
	if err != nil {
		return nil, err
	}
	return &ast.Amount{Number: n, Currency: currency}, nil
}
