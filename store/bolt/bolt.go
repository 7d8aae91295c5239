// Package bolt implements ledger.Store on a bbolt key/value file.
//
// Records are stored as JSON. Append-only collections (lots, prices, documents,
// plugins, errors) are keyed by the bucket sequence so iteration follows
// insertion order; lots are additionally indexed by their normalised key.
package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"go.etcd.io/bbolt"

	"github.com/robinvdvleuten/beanledger/ast"
	"github.com/robinvdvleuten/beanledger/ledger"
)

// Bucket names.
const (
	bucketAccounts    = "accounts"
	bucketCommodities = "commodities"
	bucketLots        = "lots"
	bucketLotIndex    = "lot_index"
	bucketFirstPriced = "lot_first_priced"
	bucketPrices      = "prices"
	bucketDocuments   = "documents"
	bucketBudgets     = "budgets"
	bucketOptions     = "options"
	bucketPlugins     = "plugins"
	bucketErrors      = "errors"
)

var buckets = []string{
	bucketAccounts, bucketCommodities, bucketLots, bucketLotIndex, bucketFirstPriced, bucketPrices,
	bucketDocuments, bucketBudgets, bucketOptions, bucketPlugins, bucketErrors,
}

// Store is a ledger.Store backed by bbolt.
type Store struct {
	db *bbolt.DB
}

var _ ledger.Store = (*Store)(nil)

// New opens (or creates) the database at path and initializes the buckets.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

func (s *Store) Close() error {
	return s.db.Close()
}

type accountValue struct {
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	OpenDate   string   `json:"open_date,omitempty"`
	CloseDate  string   `json:"close_date,omitempty"`
	Currencies []string `json:"currencies,omitempty"`
	Booking    string   `json:"booking,omitempty"`
}

type commodityValue struct {
	Name      string            `json:"name"`
	Date      string            `json:"date,omitempty"`
	Precision int32             `json:"precision"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type lotValue struct {
	Account       string          `json:"account"`
	Commodity     string          `json:"commodity"`
	PriceNumber   string          `json:"price_number,omitempty"`
	PriceCurrency string          `json:"price_currency,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
}

type priceValue struct {
	Date      string          `json:"date"`
	Commodity string          `json:"commodity"`
	Number    decimal.Decimal `json:"number"`
	Currency  string          `json:"currency"`
}

type documentValue struct {
	Date    string `json:"date"`
	Account string `json:"account"`
	Path    string `json:"path"`
}

type budgetValue struct {
	Name      string          `json:"name"`
	Commodity string          `json:"commodity"`
	Date      string          `json:"date,omitempty"`
	Assigned  decimal.Decimal `json:"assigned"`
	Closed    bool            `json:"closed"`
}

type pluginValue struct {
	Module string `json:"module"`
	Config string `json:"config,omitempty"`
}

type errorValue struct {
	Kind     string            `json:"kind"`
	Filename string            `json:"filename,omitempty"`
	Line     int               `json:"line"`
	Column   int               `json:"column"`
	Context  map[string]string `json:"context,omitempty"`
}

// itob returns an 8-byte big endian representation of v.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func lotIndexKey(account, commodity string, price *ast.Amount) []byte {
	number, currency := ledger.LotKey(price)
	return []byte(account + "\x00" + commodity + "\x00" + number + "\x00" + currency)
}

func formatDate(d *ast.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func parseDate(s string) (*ast.Date, error) {
	if s == "" {
		return nil, nil
	}
	return ast.NewDate(s)
}

func put(b *bbolt.Bucket, key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return b.Put(key, data)
}

// appendValue stores value under the next sequence number of the bucket.
func (s *Store) appendValue(bucket string, value any) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return put(b, itob(seq), value)
	})
}

func (s *Store) ExistsAccount(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket([]byte(bucketAccounts)).Get([]byte(name)) != nil
		return nil
	})
	return exists, err
}

func (v accountValue) record() (*ledger.AccountRecord, error) {
	account := &ledger.AccountRecord{
		Name:       v.Name,
		Status:     ledger.AccountStatus(v.Status),
		Currencies: v.Currencies,
		Booking:    v.Booking,
	}
	var err error
	if account.OpenDate, err = parseDate(v.OpenDate); err != nil {
		return nil, err
	}
	if account.CloseDate, err = parseDate(v.CloseDate); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Store) Account(ctx context.Context, name string) (*ledger.AccountRecord, error) {
	var account *ledger.AccountRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketAccounts)).Get([]byte(name))
		if data == nil {
			return nil
		}
		var v accountValue
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("failed to unmarshal account: %w", err)
		}
		var err error
		account, err = v.record()
		return err
	})
	return account, err
}

func (s *Store) InsertAccount(ctx context.Context, account ledger.AccountRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return put(tx.Bucket([]byte(bucketAccounts)), []byte(account.Name), accountValue{
			Name:       account.Name,
			Status:     string(account.Status),
			OpenDate:   formatDate(account.OpenDate),
			CloseDate:  formatDate(account.CloseDate),
			Currencies: account.Currencies,
			Booking:    account.Booking,
		})
	})
}

func (s *Store) CloseAccount(ctx context.Context, name string, date *ast.Date) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketAccounts))
		data := b.Get([]byte(name))
		if data == nil {
			return fmt.Errorf("close account %s: account does not exist", name)
		}
		var v accountValue
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("failed to unmarshal account: %w", err)
		}
		v.Status = string(ledger.AccountClose)
		v.CloseDate = formatDate(date)
		return put(b, []byte(name), v)
	})
}

func (s *Store) ListAccounts(ctx context.Context) ([]ledger.AccountRecord, error) {
	var accounts []ledger.AccountRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		// Keys iterate in byte order, which is name order.
		return tx.Bucket([]byte(bucketAccounts)).ForEach(func(k, data []byte) error {
			var v accountValue
			if err := json.Unmarshal(data, &v); err != nil {
				return fmt.Errorf("failed to unmarshal account: %w", err)
			}
			account, err := v.record()
			if err != nil {
				return err
			}
			accounts = append(accounts, *account)
			return nil
		})
	})
	return accounts, err
}

func (s *Store) ExistsCommodity(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket([]byte(bucketCommodities)).Get([]byte(name)) != nil
		return nil
	})
	return exists, err
}

func (s *Store) InsertCommodity(ctx context.Context, commodity ledger.CommodityRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return put(tx.Bucket([]byte(bucketCommodities)), []byte(commodity.Name), commodityValue{
			Name:      commodity.Name,
			Date:      formatDate(commodity.Date),
			Precision: commodity.Precision,
			Metadata:  commodity.Metadata,
		})
	})
}

func decodeLot(data []byte) (*ledger.LotRow, error) {
	var v lotValue
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lot: %w", err)
	}
	price, err := ledger.PriceFromKey(v.PriceNumber, v.PriceCurrency)
	if err != nil {
		return nil, fmt.Errorf("invalid lot price %q: %w", v.PriceNumber, err)
	}
	return &ledger.LotRow{Account: v.Account, Commodity: v.Commodity, Price: price, Amount: v.Amount}, nil
}

// holdingKey is account\x00commodity.
func holdingKey(account, commodity string) []byte {
	return []byte(account + "\x00" + commodity)
}

// lookupLot returns the sequence key and row of the lot with the given key.
func lookupLot(tx *bbolt.Tx, account, commodity string, price *ast.Amount) ([]byte, *ledger.LotRow, error) {
	seq := tx.Bucket([]byte(bucketLotIndex)).Get(lotIndexKey(account, commodity, price))
	if seq == nil {
		return nil, nil, nil
	}
	data := tx.Bucket([]byte(bucketLots)).Get(seq)
	if data == nil {
		return nil, nil, fmt.Errorf("lot index points to missing lot %x", seq)
	}
	lot, err := decodeLot(data)
	return bytes.Clone(seq), lot, err
}

func (s *Store) AccountLot(ctx context.Context, account, commodity string, price *ast.Amount) (*ledger.LotRow, error) {
	var lot *ledger.LotRow
	err := s.db.View(func(tx *bbolt.Tx) error {
		if price == nil {
			if seq := tx.Bucket([]byte(bucketFirstPriced)).Get(holdingKey(account, commodity)); seq != nil {
				data := tx.Bucket([]byte(bucketLots)).Get(seq)
				if data == nil {
					return fmt.Errorf("lot index points to missing lot %x", seq)
				}
				var err error
				lot, err = decodeLot(data)
				return err
			}
		}

		var err error
		_, lot, err = lookupLot(tx, account, commodity, price)
		return err
	})
	return lot, err
}

func (s *Store) InsertAccountLot(ctx context.Context, account, commodity string, price *ast.Amount, amount decimal.Decimal) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		index := tx.Bucket([]byte(bucketLotIndex))
		key := lotIndexKey(account, commodity, price)
		if index.Get(key) != nil {
			number, currency := ledger.LotKey(price)
			return fmt.Errorf("%s %s %s %s: %w", account, commodity, number, currency, ledger.ErrDuplicateLot)
		}

		lots := tx.Bucket([]byte(bucketLots))
		seq, err := lots.NextSequence()
		if err != nil {
			return err
		}
		number, currency := ledger.LotKey(price)
		err = put(lots, itob(seq), lotValue{
			Account:       account,
			Commodity:     commodity,
			PriceNumber:   number,
			PriceCurrency: currency,
			Amount:        amount,
		})
		if err != nil {
			return err
		}
		if price != nil {
			first := tx.Bucket([]byte(bucketFirstPriced))
			if first.Get(holdingKey(account, commodity)) == nil {
				if err := first.Put(holdingKey(account, commodity), itob(seq)); err != nil {
					return err
				}
			}
		}
		return index.Put(key, itob(seq))
	})
}

func (s *Store) UpdateAccountLot(ctx context.Context, account, commodity string, price *ast.Amount, amount decimal.Decimal) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		seq, lot, err := lookupLot(tx, account, commodity, price)
		if err != nil {
			return err
		}
		number, currency := ledger.LotKey(price)
		if lot == nil {
			return fmt.Errorf("update lot %s %s %s %s: lot does not exist", account, commodity, number, currency)
		}
		return put(tx.Bucket([]byte(bucketLots)), seq, lotValue{
			Account:       account,
			Commodity:     commodity,
			PriceNumber:   number,
			PriceCurrency: currency,
			Amount:        amount,
		})
	})
}

func (s *Store) AccountLots(ctx context.Context, account string) ([]ledger.LotRow, error) {
	var lots []ledger.LotRow
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketLots)).ForEach(func(k, data []byte) error {
			lot, err := decodeLot(data)
			if err != nil {
				return err
			}
			if lot.Account == account {
				lots = append(lots, *lot)
			}
			return nil
		})
	})
	return lots, err
}

func (s *Store) InsertPrice(ctx context.Context, price ledger.PriceRecord) error {
	return s.appendValue(bucketPrices, priceValue{
		Date:      formatDate(price.Date),
		Commodity: price.Commodity,
		Number:    price.Amount.Number,
		Currency:  price.Amount.Currency,
	})
}

func (s *Store) InsertDocument(ctx context.Context, document ledger.DocumentRecord) error {
	return s.appendValue(bucketDocuments, documentValue{
		Date:    formatDate(document.Date),
		Account: document.Account,
		Path:    document.Path,
	})
}

func (s *Store) Budget(ctx context.Context, name string) (*ledger.BudgetRecord, error) {
	var budget *ledger.BudgetRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketBudgets)).Get([]byte(name))
		if data == nil {
			return nil
		}
		var v budgetValue
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("failed to unmarshal budget: %w", err)
		}
		date, err := parseDate(v.Date)
		if err != nil {
			return err
		}
		budget = &ledger.BudgetRecord{
			Name:      v.Name,
			Commodity: v.Commodity,
			Date:      date,
			Assigned:  v.Assigned,
			Closed:    v.Closed,
		}
		return nil
	})
	return budget, err
}

func budgetToValue(budget ledger.BudgetRecord) budgetValue {
	return budgetValue{
		Name:      budget.Name,
		Commodity: budget.Commodity,
		Date:      formatDate(budget.Date),
		Assigned:  budget.Assigned,
		Closed:    budget.Closed,
	}
}

func (s *Store) InsertBudget(ctx context.Context, budget ledger.BudgetRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketBudgets))
		if b.Get([]byte(budget.Name)) != nil {
			return fmt.Errorf("insert budget %s: budget already exists", budget.Name)
		}
		return put(b, []byte(budget.Name), budgetToValue(budget))
	})
}

func (s *Store) UpdateBudget(ctx context.Context, budget ledger.BudgetRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketBudgets))
		if b.Get([]byte(budget.Name)) == nil {
			return fmt.Errorf("update budget %s: budget does not exist", budget.Name)
		}
		return put(b, []byte(budget.Name), budgetToValue(budget))
	})
}

func (s *Store) SetOption(ctx context.Context, key, value string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketOptions)).Put([]byte(key), []byte(value))
	})
}

func (s *Store) Option(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketOptions)).Get([]byte(key))
		if data != nil {
			value, ok = string(data), true
		}
		return nil
	})
	return value, ok, err
}

func (s *Store) InsertPlugin(ctx context.Context, plugin ledger.PluginRecord) error {
	return s.appendValue(bucketPlugins, pluginValue{Module: plugin.Module, Config: plugin.Config})
}

func (s *Store) NewError(ctx context.Context, kind ledger.ErrorKind, span ast.Position, context map[string]string) error {
	return s.appendValue(bucketErrors, errorValue{
		Kind:     string(kind),
		Filename: span.Filename,
		Line:     span.Line,
		Column:   span.Column,
		Context:  context,
	})
}

func (s *Store) Errors(ctx context.Context) ([]*ledger.Error, error) {
	errs := []*ledger.Error{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketErrors)).ForEach(func(k, data []byte) error {
			var v errorValue
			if err := json.Unmarshal(data, &v); err != nil {
				return fmt.Errorf("failed to unmarshal error: %w", err)
			}
			span := ast.Position{Filename: v.Filename, Line: v.Line, Column: v.Column}
			errs = append(errs, ledger.NewError(ledger.ErrorKind(v.Kind), span, v.Context))
			return nil
		})
	})
	return errs, err
}
