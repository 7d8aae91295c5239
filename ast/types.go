package ast

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Amount represents a numerical value with its associated currency or commodity symbol.
// The number is an exact decimal so that accumulating balances never drifts the way
// floating-point arithmetic would.
type Amount struct {
	Number   decimal.Decimal
	Currency string
}

// NewAmount creates an amount from a decimal number and a currency.
func NewAmount(number decimal.Decimal, currency string) Amount {
	return Amount{Number: number, Currency: currency}
}

// ParseAmount parses an amount written as "<number> <currency>", e.g. "-12.50 USD".
func ParseAmount(s string) (Amount, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Amount{}, fmt.Errorf("invalid amount %q: expected \"<number> <currency>\"", s)
	}

	number, err := decimal.NewFromString(fields[0])
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount value %q: %w", fields[0], err)
	}

	if !isValidCurrency(fields[1]) {
		return Amount{}, fmt.Errorf("invalid currency %q", fields[1])
	}

	return Amount{Number: number, Currency: fields[1]}, nil
}

// MustParseAmount parses an amount and panics on error.
// Use only in tests or when you're certain the amount is valid.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns the amount increased by n, keeping the currency.
func (a Amount) Add(n decimal.Decimal) Amount {
	return Amount{Number: a.Number.Add(n), Currency: a.Currency}
}

// Neg returns the negated amount.
func (a Amount) Neg() Amount {
	return Amount{Number: a.Number.Neg(), Currency: a.Currency}
}

// IsZero reports whether the number is zero.
func (a Amount) IsZero() bool {
	return a.Number.IsZero()
}

// Equal compares number and currency. 100 USD equals 100.00 USD.
func (a Amount) Equal(b Amount) bool {
	return a.Currency == b.Currency && a.Number.Equal(b.Number)
}

func (a Amount) String() string {
	return a.Number.String() + " " + a.Currency
}

// currencyRegex follows the beancount commodity syntax.
var currencyRegex = regexp.MustCompile(`^[A-Z][A-Z0-9'._-]{0,22}[A-Z0-9]?$`)

func isValidCurrency(s string) bool {
	return currencyRegex.MatchString(s)
}

// Account represents an account name consisting of at least two colon-separated
// segments. The first segment must be one of the five account categories:
// Assets, Liabilities, Equity, Income, or Expenses.
//
// Example accounts:
//
//	Assets:US:BofA:Checking
//	Liabilities:CreditCard:CapitalOne
//	Income:US:Acme:Salary
//	Expenses:Home:Rent
type Account string

// ParseAccount validates an account name.
func ParseAccount(s string) (Account, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return "", fmt.Errorf("account must have at least two segments: %s", s)
	}

	switch parts[0] {
	case "Assets", "Liabilities", "Equity", "Income", "Expenses":
	default:
		return "", fmt.Errorf(`unexpected account type "%s"`, parts[0])
	}

	for i := 1; i < len(parts); i++ {
		if !accountSegmentRegex.MatchString(parts[i]) {
			return "", fmt.Errorf("invalid account segment at position %d: %s", i, parts[i])
		}
	}

	return Account(s), nil
}

// accountSegmentRegex validates account segments (after first).
var accountSegmentRegex = regexp.MustCompile(`^[A-Z0-9][A-Za-z0-9-]*$`)

// Date represents a calendar date in ISO 8601 format (YYYY-MM-DD).
type Date struct {
	time.Time
}

// NewDate parses a YYYY-MM-DD date.
func NewDate(s string) (*Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %s", s)
	}
	return &Date{Time: t}, nil
}

// MustDate parses a date and panics on error.
func MustDate(s string) *Date {
	d, err := NewDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero returns true if the Date is nil or represents the zero time.
func (d *Date) IsZero() bool {
	if d == nil {
		return true
	}
	return d.Time.IsZero()
}

func (d *Date) String() string {
	if d == nil {
		return ""
	}
	return d.Format("2006-01-02")
}

// Metadata holds the key/value pairs attached to a directive or posting.
type Metadata map[string]string

// Get returns the value for key and whether it was present. Safe on nil maps.
func (m Metadata) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}
