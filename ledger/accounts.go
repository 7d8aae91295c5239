package ledger

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robinvdvleuten/beanledger/ast"
)

type openDirective struct {
	d *ast.Open
}

func (o *openDirective) Validate(ctx context.Context, l *Ledger, span ast.Position) (bool, error) {
	name := string(o.d.Account)
	if o.d.Booking != "" {
		if _, ok := lotInfoForBooking(o.d.Booking); !ok {
			return false, l.recordError(ctx, UnsupportedBookingMethod, span, map[string]string{
				ContextAccountName: name,
				"booking":          o.d.Booking,
			})
		}
	}

	account, err := l.store.Account(ctx, name)
	if err != nil {
		return false, err
	}
	if account != nil && account.Status == AccountOpen {
		return false, l.recordError(ctx, AccountAlreadyOpened, span, map[string]string{ContextAccountName: name})
	}
	return true, nil
}

func (o *openDirective) Process(ctx context.Context, l *Ledger, span ast.Position) error {
	err := l.store.InsertAccount(ctx, AccountRecord{
		Name:       string(o.d.Account),
		Status:     AccountOpen,
		OpenDate:   o.d.Date,
		Currencies: o.d.Currencies,
		Booking:    strings.ToUpper(o.d.Booking),
	})
	if err != nil {
		return err
	}
	for _, currency := range o.d.Currencies {
		if err := checkCommodityDefined(ctx, l, currency, span); err != nil {
			return err
		}
	}
	return nil
}

type closeDirective struct {
	d *ast.Close
}

func (c *closeDirective) Validate(ctx context.Context, l *Ledger, span ast.Position) (bool, error) {
	return checkAccount(ctx, l, string(c.d.Account), span)
}

func (c *closeDirective) Process(ctx context.Context, l *Ledger, span ast.Position) error {
	name := string(c.d.Account)
	lots, err := l.store.AccountLots(ctx, name)
	if err != nil {
		return err
	}
	if !inventoryIsZero(lots) {
		if err := l.recordError(ctx, CloseNonZeroAccount, span, map[string]string{ContextAccountName: name}); err != nil {
			return err
		}
	}
	return l.store.CloseAccount(ctx, name, c.d.Date)
}

// inventoryIsZero reports whether the lots of an account sum to zero in every
// commodity.
func inventoryIsZero(lots []LotRow) bool {
	sums := getResidualMap()
	defer putResidualMap(sums)
	for _, lot := range lots {
		sums[lot.Commodity] = sums[lot.Commodity].Add(lot.Amount)
	}
	for _, sum := range sums {
		if !sum.IsZero() {
			return false
		}
	}
	return true
}

type commodityDirective struct {
	alwaysValid
	d *ast.Commodity
}

func (c *commodityDirective) Process(ctx context.Context, l *Ledger, span ast.Position) error {
	record := CommodityRecord{
		Name:     c.d.Currency,
		Date:     c.d.Date,
		Metadata: c.d.Meta,
	}
	if v, ok := c.d.Meta.Get("precision"); ok {
		if precision, err := strconv.ParseInt(v, 10, 32); err == nil && precision >= 0 {
			record.Precision = int32(precision)
		}
	}
	return l.store.InsertCommodity(ctx, record)
}

type documentDirective struct {
	d *ast.Document
}

func (doc *documentDirective) Validate(ctx context.Context, l *Ledger, span ast.Position) (bool, error) {
	return checkAccount(ctx, l, string(doc.d.Account), span)
}

func (doc *documentDirective) Process(ctx context.Context, l *Ledger, span ast.Position) error {
	if l.documentRoot != "" {
		path := doc.d.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(l.documentRoot, path)
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			err := l.recordError(ctx, DocumentFileNotFound, span, map[string]string{
				ContextAccountName: string(doc.d.Account),
				"path":             doc.d.Path,
			})
			if err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	return l.store.InsertDocument(ctx, DocumentRecord{
		Date:    doc.d.Date,
		Account: string(doc.d.Account),
		Path:    doc.d.Path,
	})
}
