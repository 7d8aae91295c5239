package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/beanledger/ast"
)

type holding struct {
	account, commodity string
}

type lotIndex struct {
	account, commodity, number, currency string
}

func newLotIndex(account, commodity string, price *ast.Amount) lotIndex {
	number, currency := LotKey(price)
	return lotIndex{account: account, commodity: commodity, number: number, currency: currency}
}

// MemoryStore is a Store kept entirely in memory.
type MemoryStore struct {
	mu sync.RWMutex

	accounts    map[string]AccountRecord
	commodities map[string]CommodityRecord
	lots        []*LotRow
	lotsByKey   map[lotIndex]*LotRow
	firstPriced map[holding]*LotRow
	prices      []PriceRecord
	documents   []DocumentRecord
	budgets     map[string]BudgetRecord
	options     map[string]string
	plugins     []PluginRecord
	errors      []*Error
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:    make(map[string]AccountRecord),
		commodities: make(map[string]CommodityRecord),
		lotsByKey:   make(map[lotIndex]*LotRow),
		firstPriced: make(map[holding]*LotRow),
		budgets:     make(map[string]BudgetRecord),
		options:     make(map[string]string),
	}
}

func (s *MemoryStore) ExistsAccount(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.accounts[name]
	return ok, nil
}

func (s *MemoryStore) Account(ctx context.Context, name string) (*AccountRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[name]
	if !ok {
		return nil, nil
	}
	return &account, nil
}

func (s *MemoryStore) InsertAccount(ctx context.Context, account AccountRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.Name] = account
	return nil
}

func (s *MemoryStore) CloseAccount(ctx context.Context, name string, date *ast.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[name]
	if !ok {
		return fmt.Errorf("close account %s: account does not exist", name)
	}
	account.Status = AccountClose
	account.CloseDate = date
	s.accounts[name] = account
	return nil
}

func (s *MemoryStore) ListAccounts(ctx context.Context) ([]AccountRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := make([]AccountRecord, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	return accounts, nil
}

func (s *MemoryStore) ExistsCommodity(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.commodities[name]
	return ok, nil
}

func (s *MemoryStore) InsertCommodity(ctx context.Context, commodity CommodityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commodities[commodity.Name] = commodity
	return nil
}

func (s *MemoryStore) AccountLot(ctx context.Context, account, commodity string, price *ast.Amount) (*LotRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if price != nil {
		if row, ok := s.lotsByKey[newLotIndex(account, commodity, price)]; ok {
			lot := *row
			return &lot, nil
		}
		return nil, nil
	}

	if row, ok := s.firstPriced[holding{account, commodity}]; ok {
		lot := *row
		return &lot, nil
	}
	if row, ok := s.lotsByKey[newLotIndex(account, commodity, nil)]; ok {
		lot := *row
		return &lot, nil
	}
	return nil, nil
}

func (s *MemoryStore) InsertAccountLot(ctx context.Context, account, commodity string, price *ast.Amount, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := newLotIndex(account, commodity, price)
	if _, ok := s.lotsByKey[key]; ok {
		return fmt.Errorf("%s %s %s: %w", account, commodity, formatLotPrice(price), ErrDuplicateLot)
	}

	row := &LotRow{Account: account, Commodity: commodity, Amount: amount}
	if price != nil {
		p := *price
		row.Price = &p
	}
	s.lots = append(s.lots, row)
	s.lotsByKey[key] = row
	if price != nil {
		if _, ok := s.firstPriced[holding{account, commodity}]; !ok {
			s.firstPriced[holding{account, commodity}] = row
		}
	}
	return nil
}

func (s *MemoryStore) UpdateAccountLot(ctx context.Context, account, commodity string, price *ast.Amount, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.lotsByKey[newLotIndex(account, commodity, price)]
	if !ok {
		return fmt.Errorf("update lot %s %s %s: lot does not exist", account, commodity, formatLotPrice(price))
	}
	row.Amount = amount
	return nil
}

func (s *MemoryStore) AccountLots(ctx context.Context, account string) ([]LotRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lots []LotRow
	for _, row := range s.lots {
		if row.Account == account {
			lots = append(lots, *row)
		}
	}
	return lots, nil
}

func (s *MemoryStore) InsertPrice(ctx context.Context, price PriceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices = append(s.prices, price)
	return nil
}

func (s *MemoryStore) InsertDocument(ctx context.Context, document DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = append(s.documents, document)
	return nil
}

func (s *MemoryStore) Budget(ctx context.Context, name string) (*BudgetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	budget, ok := s.budgets[name]
	if !ok {
		return nil, nil
	}
	return &budget, nil
}

func (s *MemoryStore) InsertBudget(ctx context.Context, budget BudgetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[budget.Name]; ok {
		return fmt.Errorf("insert budget %s: budget already exists", budget.Name)
	}
	s.budgets[budget.Name] = budget
	return nil
}

func (s *MemoryStore) UpdateBudget(ctx context.Context, budget BudgetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[budget.Name]; !ok {
		return fmt.Errorf("update budget %s: budget does not exist", budget.Name)
	}
	s.budgets[budget.Name] = budget
	return nil
}

func (s *MemoryStore) SetOption(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options[key] = value
	return nil
}

func (s *MemoryStore) Option(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.options[key]
	return value, ok, nil
}

func (s *MemoryStore) InsertPlugin(ctx context.Context, plugin PluginRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plugins = append(s.plugins, plugin)
	return nil
}

func (s *MemoryStore) NewError(ctx context.Context, kind ErrorKind, span ast.Position, context map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, NewError(kind, span, context))
	return nil
}

func (s *MemoryStore) Errors(ctx context.Context) ([]*Error, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	errs := make([]*Error, len(s.errors))
	copy(errs, s.errors)
	return errs, nil
}

// Prices returns the recorded prices in insertion order.
func (s *MemoryStore) Prices() []PriceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PriceRecord(nil), s.prices...)
}

// Documents returns the recorded documents in insertion order.
func (s *MemoryStore) Documents() []DocumentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]DocumentRecord(nil), s.documents...)
}

// Plugins returns the recorded plugins in insertion order.
func (s *MemoryStore) Plugins() []PluginRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PluginRecord(nil), s.plugins...)
}

func (s *MemoryStore) Close() error { return nil }

func formatLotPrice(price *ast.Amount) string {
	if price == nil {
		return "{}"
	}
	return "{" + price.String() + "}"
}
