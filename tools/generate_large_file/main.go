// Large Ledger File Generator
//
// This tool generates a large YAML ledger for performance testing and profiling.
// It creates realistic transactions with lots, prices, balances and budgets to
// stress-test the loader and the ledger.
//
// Usage:
//
//	go run main.go > large.yaml
//	go run main.go 20000000 > large.yaml  # Specify target size in bytes
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	defaultTargetSize = 10 * 1024 * 1024 // 10MB
	openDate          = "2020-01-01"
)

var (
	cashAccounts = []string{
		"Assets:Bank:Checking",
		"Assets:Bank:Savings",
		"Liabilities:CreditCard:Visa",
		"Liabilities:CreditCard:Amex",
	}

	expenseAccounts = []string{
		"Expenses:Food:Groceries",
		"Expenses:Food:Restaurant",
		"Expenses:Housing:Rent",
		"Expenses:Housing:Utilities",
		"Expenses:Transport:Gas",
		"Expenses:Shopping:Clothing",
		"Expenses:Entertainment:Movies",
		"Expenses:Healthcare:Medical",
	}

	payees = []string{
		"Whole Foods", "Safeway", "Trader Joe's", "Costco",
		"Shell Gas", "Chevron", "BART", "Uber",
		"Landlord", "PG&E", "Comcast", "AT&T",
		"Amazon", "Target", "Best Buy", "Netflix",
	}

	narrations = []string{
		"Grocery shopping", "Fuel purchase", "Rent payment",
		"Online purchase", "Restaurant dinner", "Coffee",
		"Monthly subscription", "Medical appointment",
	}

	tags      = []string{"personal", "business", "vacation", "reimbursable"}
	stocks    = []string{"AAPL", "MSFT", "GOOGL", "VTI", "VXUS"}
	envelopes = []string{"Groceries", "Dining", "Transport", "Fun"}
)

// entry is one directive in the generated file. Empty fields are omitted.
type entry struct {
	Date       string            `yaml:"date"`
	Open       string            `yaml:"open,omitempty"`
	Commodity  string            `yaml:"commodity,omitempty"`
	Txn        *string           `yaml:"txn,omitempty"`
	Balance    string            `yaml:"balance,omitempty"`
	Price      string            `yaml:"price,omitempty"`
	Budget     string            `yaml:"budget,omitempty"`
	BudgetAdd  string            `yaml:"budget-add,omitempty"`
	Currencies []string          `yaml:"currencies,omitempty"`
	Payee      string            `yaml:"payee,omitempty"`
	Tags       []string          `yaml:"tags,omitempty"`
	Postings   []posting         `yaml:"postings,omitempty"`
	Amount     string            `yaml:"amount,omitempty"`
	Pad        string            `yaml:"pad,omitempty"`
	Currency   string            `yaml:"currency,omitempty"`
	Meta       map[string]string `yaml:"meta,omitempty"`
}

type posting struct {
	Account string `yaml:"account"`
	Units   string `yaml:"units,omitempty"`
	Cost    string `yaml:"cost,omitempty"`
	Price   string `yaml:"price,omitempty"`
}

// generator tracks holdings so sells never exceed what was bought.
type generator struct {
	w        *bufio.Writer
	written  int
	txns     int
	holdings map[string]int64
}

func main() {
	targetSize := defaultTargetSize
	if len(os.Args) > 1 {
		if size, err := strconv.Atoi(os.Args[1]); err == nil {
			targetSize = size
		}
	}

	g := &generator{w: bufio.NewWriter(os.Stdout), holdings: make(map[string]int64)}
	if err := g.run(targetSize); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "\nGenerated %d bytes with %d transactions\n", g.written, g.txns)
}

func (g *generator) run(targetSize int) error {
	g.printf("# Large ledger for performance testing\n")
	g.printf("# Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	g.printf("options:\n  booking_method: FIFO\n  operating_currency: USD\n\n")
	g.printf("directives:\n")

	if err := g.header(); err != nil {
		return err
	}

	currentDate := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	for g.written < targetSize {
		date := currentDate.Format("2006-01-02")

		var e entry
		switch rand.Intn(10) {
		case 0, 1, 2, 3: // 40% - Spending
			e = spending(date)
			g.txns++
		case 4, 5: // 20% - Buy shares at cost
			e = g.buy(date)
			g.txns++
		case 6: // 10% - Sell shares from existing lots
			e = g.sell(date)
			g.txns++
		case 7: // 10% - Padded balance assertion
			e = balance(date)
		case 8: // 10% - Price directive
			e = price(date)
		case 9: // 10% - Budget assignment
			e = entry{Date: date, BudgetAdd: pick(envelopes), Amount: randAmount(50, 300) + " USD"}
		}

		if err := g.emit(e); err != nil {
			return err
		}

		// Advance date by 0-2 days
		currentDate = currentDate.AddDate(0, 0, rand.Intn(3))
	}

	return g.w.Flush()
}

func (g *generator) header() error {
	for _, c := range append([]string{"USD"}, stocks...) {
		if err := g.emit(entry{Date: openDate, Commodity: c}); err != nil {
			return err
		}
	}

	accounts := append(append([]string{"Equity:Opening-Balances", "Income:Salary"}, cashAccounts...), expenseAccounts...)
	for _, account := range accounts {
		if err := g.emit(entry{Date: openDate, Open: account}); err != nil {
			return err
		}
	}
	for _, stock := range stocks {
		e := entry{Date: openDate, Open: "Assets:Brokerage:" + stock, Currencies: []string{stock}}
		if err := g.emit(e); err != nil {
			return err
		}
	}
	if err := g.emit(entry{Date: openDate, Open: "Assets:Brokerage:Cash", Currencies: []string{"USD"}}); err != nil {
		return err
	}
	for _, envelope := range envelopes {
		if err := g.emit(entry{Date: openDate, Budget: envelope, Currency: "USD"}); err != nil {
			return err
		}
	}
	return nil
}

// emit writes a single directive as an item of the directives sequence.
func (g *generator) emit(e entry) error {
	data, err := yaml.Marshal([]entry{e})
	if err != nil {
		return err
	}
	n, err := g.w.Write(data)
	g.written += n
	return err
}

func (g *generator) printf(format string, args ...any) {
	n, _ := fmt.Fprintf(g.w, format, args...)
	g.written += n
}

func spending(date string) entry {
	narration := pick(narrations)
	amount := randAmount(10, 500)

	e := entry{
		Date:  date,
		Txn:   &narration,
		Payee: pick(payees),
		Postings: []posting{
			{Account: pick(expenseAccounts), Units: amount + " USD"},
			{Account: pick(cashAccounts)},
		},
	}
	if rand.Intn(3) == 0 {
		e.Tags = []string{pick(tags)}
		e.Meta = map[string]string{"invoice": fmt.Sprintf("INV-%d", rand.Intn(10000))}
	}
	return e
}

func (g *generator) buy(date string) entry {
	stock := pick(stocks)
	shares := int64(rand.Intn(50) + 1)
	cost := randAmount(50, 500)
	total := decimal.RequireFromString(cost).Mul(decimal.NewFromInt(shares))
	g.holdings[stock] += shares

	narration := "Buy " + stock
	return entry{
		Date: date,
		Txn:  &narration,
		Postings: []posting{
			{Account: "Assets:Brokerage:" + stock, Units: fmt.Sprintf("%d %s", shares, stock), Cost: cost + " USD"},
			{Account: "Assets:Brokerage:Cash", Units: total.Neg().StringFixed(2) + " USD"},
		},
	}
}

func (g *generator) sell(date string) entry {
	stock := pick(stocks)
	if g.holdings[stock] == 0 {
		return g.buy(date)
	}
	shares := rand.Int63n(g.holdings[stock]) + 1
	g.holdings[stock] -= shares

	narration := "Sell " + stock
	return entry{
		Date: date,
		Txn:  &narration,
		Postings: []posting{
			{Account: "Assets:Brokerage:" + stock, Units: fmt.Sprintf("-%d %s", shares, stock), Price: randAmount(50, 500) + " USD"},
			{Account: "Assets:Brokerage:Cash"},
		},
	}
}

func balance(date string) entry {
	return entry{
		Date:    date,
		Balance: pick(cashAccounts[:2]),
		Amount:  randAmount(1000, 50000) + " USD",
		Pad:     "Equity:Opening-Balances",
	}
}

func price(date string) entry {
	return entry{Date: date, Price: pick(stocks), Amount: randAmount(50, 500) + " USD"}
}

// Helper functions

func pick(values []string) string {
	return values[rand.Intn(len(values))]
}

func randAmount(min, max float64) string {
	return decimal.NewFromFloat(min + rand.Float64()*(max-min)).StringFixed(2)
}
