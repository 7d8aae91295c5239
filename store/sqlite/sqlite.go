// Package sqlite implements ledger.Store on a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/beanledger/ast"
	"github.com/robinvdvleuten/beanledger/ledger"
)

const dateLayout = "2006-01-02"

// Store is a ledger.Store backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var _ ledger.Store = (*Store)(nil)

// New opens (or creates) the database at path and initializes the schema.
// WAL mode is enabled; the ledger is the single writer so one connection is kept.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	return s.db.Close()
}

// transaction executes fn within a transaction, rolling back when fn fails.
func (s *Store) transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
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

func (s *Store) ExistsAccount(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE name = ?`, name).Scan(&n)
	return n > 0, err
}

func (s *Store) Account(ctx context.Context, name string) (*ledger.AccountRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, status, open_date, close_date, currencies, booking FROM accounts WHERE name = ?`, name)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return account, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*ledger.AccountRecord, error) {
	var (
		account             ledger.AccountRecord
		status              string
		openDate, closeDate string
		currencies, booking string
	)
	if err := row.Scan(&account.Name, &status, &openDate, &closeDate, &currencies, &booking); err != nil {
		return nil, err
	}
	account.Status = ledger.AccountStatus(status)
	account.Booking = booking
	if currencies != "" {
		account.Currencies = strings.Split(currencies, ",")
	}

	var err error
	if account.OpenDate, err = parseDate(openDate); err != nil {
		return nil, err
	}
	if account.CloseDate, err = parseDate(closeDate); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Store) InsertAccount(ctx context.Context, account ledger.AccountRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (name, status, open_date, close_date, currencies, booking)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			status = excluded.status,
			open_date = excluded.open_date,
			close_date = excluded.close_date,
			currencies = excluded.currencies,
			booking = excluded.booking`,
		account.Name, string(account.Status), formatDate(account.OpenDate), formatDate(account.CloseDate),
		strings.Join(account.Currencies, ","), account.Booking)
	return err
}

func (s *Store) CloseAccount(ctx context.Context, name string, date *ast.Date) error {
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET status = ?, close_date = ? WHERE name = ?`,
		string(ledger.AccountClose), formatDate(date), name)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("close account %s: account does not exist", name)
	}
	return nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]ledger.AccountRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, status, open_date, close_date, currencies, booking FROM accounts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []ledger.AccountRecord
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

func (s *Store) ExistsCommodity(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM commodities WHERE name = ?`, name).Scan(&n)
	return n > 0, err
}

func (s *Store) InsertCommodity(ctx context.Context, commodity ledger.CommodityRecord) error {
	metadata, err := json.Marshal(commodity.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO commodities (name, date, precision, metadata) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			date = excluded.date,
			precision = excluded.precision,
			metadata = excluded.metadata`,
		commodity.Name, formatDate(commodity.Date), commodity.Precision, string(metadata))
	return err
}

func scanLot(row scanner) (*ledger.LotRow, error) {
	var (
		lot                   ledger.LotRow
		number, currency, amt string
	)
	if err := row.Scan(&lot.Account, &lot.Commodity, &number, &currency, &amt); err != nil {
		return nil, err
	}
	price, err := ledger.PriceFromKey(number, currency)
	if err != nil {
		return nil, fmt.Errorf("invalid lot price %q: %w", number, err)
	}
	lot.Price = price
	if lot.Amount, err = decimal.NewFromString(amt); err != nil {
		return nil, fmt.Errorf("invalid lot amount %q: %w", amt, err)
	}
	return &lot, nil
}

func (s *Store) AccountLot(ctx context.Context, account, commodity string, price *ast.Amount) (*ledger.LotRow, error) {
	var row *sql.Row
	if price == nil {
		// Priced rows sort first (price_currency = '' is 0 for them), then by insertion.
		row = s.db.QueryRowContext(ctx, `
			SELECT account, commodity, price_number, price_currency, amount FROM account_lots
			WHERE account = ? AND commodity = ?
			ORDER BY price_currency = '', id
			LIMIT 1`, account, commodity)
	} else {
		number, currency := ledger.LotKey(price)
		row = s.db.QueryRowContext(ctx, `
			SELECT account, commodity, price_number, price_currency, amount FROM account_lots
			WHERE account = ? AND commodity = ? AND price_number = ? AND price_currency = ?`,
			account, commodity, number, currency)
	}

	lot, err := scanLot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return lot, err
}

func (s *Store) InsertAccountLot(ctx context.Context, account, commodity string, price *ast.Amount, amount decimal.Decimal) error {
	number, currency := ledger.LotKey(price)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO account_lots (account, commodity, price_number, price_currency, amount)
		VALUES (?, ?, ?, ?, ?)`, account, commodity, number, currency, amount.String())

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%s %s %s %s: %w", account, commodity, number, currency, ledger.ErrDuplicateLot)
	}
	return err
}

func (s *Store) UpdateAccountLot(ctx context.Context, account, commodity string, price *ast.Amount, amount decimal.Decimal) error {
	number, currency := ledger.LotKey(price)
	res, err := s.db.ExecContext(ctx, `
		UPDATE account_lots SET amount = ?
		WHERE account = ? AND commodity = ? AND price_number = ? AND price_currency = ?`,
		amount.String(), account, commodity, number, currency)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("update lot %s %s %s %s: lot does not exist", account, commodity, number, currency)
	}
	return nil
}

func (s *Store) AccountLots(ctx context.Context, account string) ([]ledger.LotRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account, commodity, price_number, price_currency, amount FROM account_lots
		WHERE account = ? ORDER BY id`, account)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []ledger.LotRow
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, *lot)
	}
	return lots, rows.Err()
}

func (s *Store) InsertPrice(ctx context.Context, price ledger.PriceRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO prices (date, commodity, number, currency) VALUES (?, ?, ?, ?)`,
		formatDate(price.Date), price.Commodity, price.Amount.Number.String(), price.Amount.Currency)
	return err
}

func (s *Store) InsertDocument(ctx context.Context, document ledger.DocumentRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO documents (date, account, path) VALUES (?, ?, ?)`,
		formatDate(document.Date), document.Account, document.Path)
	return err
}

func (s *Store) Budget(ctx context.Context, name string) (*ledger.BudgetRecord, error) {
	var (
		budget         ledger.BudgetRecord
		date, assigned string
	)
	err := s.db.QueryRowContext(ctx, `SELECT name, commodity, date, assigned, closed FROM budgets WHERE name = ?`, name).
		Scan(&budget.Name, &budget.Commodity, &date, &assigned, &budget.Closed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if budget.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	if budget.Assigned, err = decimal.NewFromString(assigned); err != nil {
		return nil, fmt.Errorf("invalid budget amount %q: %w", assigned, err)
	}
	return &budget, nil
}

func (s *Store) InsertBudget(ctx context.Context, budget ledger.BudgetRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO budgets (name, commodity, date, assigned, closed) VALUES (?, ?, ?, ?, ?)`,
		budget.Name, budget.Commodity, formatDate(budget.Date), budget.Assigned.String(), budget.Closed)
	return err
}

func (s *Store) UpdateBudget(ctx context.Context, budget ledger.BudgetRecord) error {
	res, err := s.db.ExecContext(ctx, `UPDATE budgets SET commodity = ?, assigned = ?, closed = ? WHERE name = ?`,
		budget.Commodity, budget.Assigned.String(), budget.Closed, budget.Name)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("update budget %s: budget does not exist", budget.Name)
	}
	return nil
}

func (s *Store) SetOption(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO options (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (s *Store) Option(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM options WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) InsertPlugin(ctx context.Context, plugin ledger.PluginRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO plugins (module, config) VALUES (?, ?)`, plugin.Module, plugin.Config)
	return err
}

func (s *Store) NewError(ctx context.Context, kind ledger.ErrorKind, span ast.Position, context map[string]string) error {
	data, err := json.Marshal(context)
	if err != nil {
		return err
	}
	return s.transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO ledger_errors (kind, filename, line, col, context) VALUES (?, ?, ?, ?, ?)`,
			string(kind), span.Filename, span.Line, span.Column, string(data))
		return err
	})
}

func (s *Store) Errors(ctx context.Context) ([]*ledger.Error, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, filename, line, col, context FROM ledger_errors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	errs := []*ledger.Error{}
	for rows.Next() {
		var (
			kind, data string
			span       ast.Position
			fields     map[string]string
		)
		if err := rows.Scan(&kind, &span.Filename, &span.Line, &span.Column, &data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &fields); err != nil {
			return nil, fmt.Errorf("invalid error context: %w", err)
		}
		errs = append(errs, ledger.NewError(ledger.ErrorKind(kind), span, fields))
	}
	return errs, rows.Err()
}
