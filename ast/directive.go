package ast

// DirectiveKind names the kind of a directive.
type DirectiveKind string

const (
	KindOpen           DirectiveKind = "open"
	KindClose          DirectiveKind = "close"
	KindCommodity      DirectiveKind = "commodity"
	KindTransaction    DirectiveKind = "transaction"
	KindBalance        DirectiveKind = "balance"
	KindPrice          DirectiveKind = "price"
	KindDocument       DirectiveKind = "document"
	KindBudget         DirectiveKind = "budget"
	KindBudgetAdd      DirectiveKind = "budget-add"
	KindBudgetTransfer DirectiveKind = "budget-transfer"
	KindBudgetClose    DirectiveKind = "budget-close"
	KindOption         DirectiveKind = "option"
	KindPlugin         DirectiveKind = "plugin"
)

// Open declares the opening of an account at a specific date. You can optionally
// constrain which currencies the account may hold and pick the booking method used to
// match postings against its lots (FIFO by default, FILO/LIFO is recognised but not
// implemented).
//
// Example:
//
//	directives:
//	  - date: 2014-05-01
//	    open: Assets:Investments:Brokerage
//	    currencies: [USD, HOOL]
//	    booking: FIFO
type Open struct {
	Pos        Position
	Date       *Date
	Account    Account
	Currencies []string
	Booking    string
	Meta       Metadata
}

var _ Directive = &Open{}

func (o *Open) Position() Position  { return o.Pos }
func (o *Open) Kind() DirectiveKind { return KindOpen }
func (o *Open) date() *Date         { return o.Date }

// Close declares the closing of an account. Closing only flips the account status;
// the account and its lots are kept.
//
// Example:
//
//	directives:
//	  - date: 2015-09-23
//	    close: Assets:US:BofA:Checking
type Close struct {
	Pos     Position
	Date    *Date
	Account Account
	Meta    Metadata
}

var _ Directive = &Close{}

func (c *Close) Position() Position  { return c.Pos }
func (c *Close) Kind() DirectiveKind { return KindClose }
func (c *Close) date() *Date         { return c.Date }

// Commodity declares a commodity or currency. Every amount a posting references must
// use a declared commodity.
//
// Example:
//
//	directives:
//	  - date: 2014-01-01
//	    commodity: USD
//	    meta:
//	      precision: "2"
type Commodity struct {
	Pos      Position
	Date     *Date
	Currency string
	Meta     Metadata
}

var _ Directive = &Commodity{}

func (c *Commodity) Position() Position  { return c.Pos }
func (c *Commodity) Kind() DirectiveKind { return KindCommodity }
func (c *Commodity) date() *Date         { return c.Date }

// Transaction records a movement between accounts. At most one posting may leave its
// units empty; they are inferred from the residual of the others.
//
// Example:
//
//	directives:
//	  - date: 2014-05-05
//	    txn: Buy shares
//	    postings:
//	      - account: Assets:Broker
//	        units: 10 HOOL
//	        cost: 518.73 USD
//	      - account: Assets:Cash
type Transaction struct {
	Pos       Position
	Date      *Date
	Flag      string
	Payee     string
	Narration string
	Tags      []string
	Links     []string
	Postings  []*Posting
	Meta      Metadata
}

var _ Directive = &Transaction{}

func (t *Transaction) Position() Position  { return t.Pos }
func (t *Transaction) Kind() DirectiveKind { return KindTransaction }
func (t *Transaction) date() *Date         { return t.Date }

// Posting is a single leg of a transaction. Cost is the per-unit acquisition cost that
// identifies the lot; Price is a per-unit conversion price that only affects the weight.
type Posting struct {
	Account Account
	Units   *Amount
	Cost    *Amount
	Price   *Amount
	Meta    Metadata
}

// Weight returns the amount this posting contributes to the transaction balance.
func (p *Posting) Weight() Amount {
	switch {
	case p.Cost != nil:
		return NewAmount(p.Units.Number.Mul(p.Cost.Number), p.Cost.Currency)
	case p.Price != nil:
		return NewAmount(p.Units.Number.Mul(p.Price.Number), p.Price.Currency)
	default:
		return *p.Units
	}
}

// Balance asserts that an account holds a specific amount of a currency. When Pad is
// set, the difference is moved from the pad account instead of being reported.
//
// Example:
//
//	directives:
//	  - date: 2014-08-09
//	    balance: Assets:US:BofA:Checking
//	    amount: 562.00 USD
//	    pad: Equity:Opening-Balances
type Balance struct {
	Pos     Position
	Date    *Date
	Account Account
	Amount  Amount
	Pad     Account
	Meta    Metadata
}

var _ Directive = &Balance{}

func (b *Balance) Position() Position  { return b.Pos }
func (b *Balance) Kind() DirectiveKind { return KindBalance }
func (b *Balance) date() *Date         { return b.Date }

// Price records the price of a commodity. Amount may be left empty when Source
// names a JSON endpoint; the quote is then fetched during pre-processing and Path
// (a JSONPath expression) selects the number from the response.
//
// Example:
//
//	directives:
//	  - date: 2024-01-02
//	    price: HOOL
//	    amount: 579.18 USD
//
//	  - date: 2024-01-03
//	    price: HOOL
//	    currency: USD
//	    source: https://quotes.example.com/HOOL
//	    path: $.last
type Price struct {
	Pos       Position
	Date      *Date
	Commodity string
	Amount    *Amount
	Currency  string
	Source    string
	Path      string
	Meta      Metadata
}

var _ Directive = &Price{}

func (p *Price) Position() Position  { return p.Pos }
func (p *Price) Kind() DirectiveKind { return KindPrice }
func (p *Price) date() *Date         { return p.Date }

// Document links an external file to an account.
//
// Example:
//
//	directives:
//	  - date: 2014-07-09
//	    document: Assets:US:BofA:Checking
//	    path: statements/2014-07.pdf
type Document struct {
	Pos     Position
	Date    *Date
	Account Account
	Path    string
	Meta    Metadata
}

var _ Directive = &Document{}

func (d *Document) Position() Position  { return d.Pos }
func (d *Document) Kind() DirectiveKind { return KindDocument }
func (d *Document) date() *Date         { return d.Date }

// Budget defines an envelope budget in a single commodity.
//
// Example:
//
//	directives:
//	  - date: 2024-01-01
//	    budget: Groceries
//	    currency: USD
type Budget struct {
	Pos       Position
	Date      *Date
	Name      string
	Commodity string
	Meta      Metadata
}

var _ Directive = &Budget{}

func (b *Budget) Position() Position  { return b.Pos }
func (b *Budget) Kind() DirectiveKind { return KindBudget }
func (b *Budget) date() *Date         { return b.Date }

// BudgetAdd assigns an amount to a budget.
type BudgetAdd struct {
	Pos    Position
	Date   *Date
	Name   string
	Amount Amount
}

var _ Directive = &BudgetAdd{}

func (b *BudgetAdd) Position() Position  { return b.Pos }
func (b *BudgetAdd) Kind() DirectiveKind { return KindBudgetAdd }
func (b *BudgetAdd) date() *Date         { return b.Date }

// BudgetTransfer moves an assigned amount from one budget to another.
type BudgetTransfer struct {
	Pos    Position
	Date   *Date
	From   string
	To     string
	Amount Amount
}

var _ Directive = &BudgetTransfer{}

func (b *BudgetTransfer) Position() Position  { return b.Pos }
func (b *BudgetTransfer) Kind() DirectiveKind { return KindBudgetTransfer }
func (b *BudgetTransfer) date() *Date         { return b.Date }

// BudgetClose closes a budget; later additions and transfers are rejected.
type BudgetClose struct {
	Pos  Position
	Date *Date
	Name string
}

var _ Directive = &BudgetClose{}

func (b *BudgetClose) Position() Position  { return b.Pos }
func (b *BudgetClose) Kind() DirectiveKind { return KindBudgetClose }
func (b *BudgetClose) date() *Date         { return b.Date }

// Option sets a configuration parameter for the whole ledger.
//
// Example:
//
//	options:
//	  booking_method: FIFO
//	  operating_currency: USD
type Option struct {
	Pos   Position
	Key   string
	Value string
}

var _ Directive = &Option{}

func (o *Option) Position() Position  { return o.Pos }
func (o *Option) Kind() DirectiveKind { return KindOption }
func (o *Option) date() *Date         { return nil }

// Plugin runs a registered processing plugin before the directives are applied. An
// optional configuration string is passed through to the plugin.
//
// Example:
//
//	plugins:
//	  - module: auto_commodities
//	    config: USD,EUR
type Plugin struct {
	Pos    Position
	Module string
	Config string
}

var _ Directive = &Plugin{}

func (p *Plugin) Position() Position  { return p.Pos }
func (p *Plugin) Kind() DirectiveKind { return KindPlugin }
func (p *Plugin) date() *Date         { return nil }
