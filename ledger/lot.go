package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/beanledger/ast"
)

// LotInfo selects how a posting is matched against the lots of an account.
// Implementations are SpecificLot, FIFO and FILO.
type LotInfo interface {
	isLotInfo()
}

// SpecificLot matches the lot acquired at exactly Number Currency per unit.
type SpecificLot struct {
	Currency string
	Number   decimal.Decimal
}

// FIFO adds to the lot already held for the commodity: the earliest priced row
// if there is one, else the default row.
type FIFO struct{}

// FILO is recognised but not implemented; matching with it fails.
type FILO struct{}

func (SpecificLot) isLotInfo() {}
func (FIFO) isLotInfo()        {}
func (FILO) isLotInfo()        {}

func (s SpecificLot) String() string { return "{" + s.Number.String() + " " + s.Currency + "}" }
func (FIFO) String() string          { return "FIFO" }
func (FILO) String() string          { return "FILO" }

// Booking methods accepted on open directives and the booking_method option.
const (
	BookingFIFO    = "FIFO"
	BookingFILO    = "FILO"
	BookingLIFO    = "LIFO"
	BookingStrict  = "STRICT"
	BookingNone    = "NONE"
	BookingAverage = "AVERAGE"
)

// lotInfoForBooking maps a booking method to the matching policy.
func lotInfoForBooking(booking string) (LotInfo, bool) {
	switch strings.ToUpper(booking) {
	case "", BookingFIFO, BookingStrict, BookingNone, BookingAverage:
		return FIFO{}, true
	case BookingFILO, BookingLIFO:
		return FILO{}, true
	}
	return nil, false
}

// lotInfoForPosting picks the matching policy for a posting: its cost when
// present, else the booking method of the account.
func lotInfoForPosting(p *ast.Posting, booking string) LotInfo {
	if p.Cost != nil {
		return SpecificLot{Currency: p.Cost.Currency, Number: p.Cost.Number}
	}
	info, ok := lotInfoForBooking(booking)
	if !ok {
		return FIFO{}
	}
	return info
}

// lotAdd adds amount to the inventory of account. Exactly one lot row is
// inserted or updated; store failures are returned unchanged.
func lotAdd(ctx context.Context, store Store, account string, amount ast.Amount, info LotInfo) error {
	switch info := info.(type) {
	case SpecificLot:
		price := &ast.Amount{Number: info.Number, Currency: info.Currency}
		lot, err := store.AccountLot(ctx, account, amount.Currency, price)
		if err != nil {
			return err
		}
		if lot != nil {
			return store.UpdateAccountLot(ctx, account, amount.Currency, price, lot.Amount.Add(amount.Number))
		}
		return store.InsertAccountLot(ctx, account, amount.Currency, price, amount.Number)

	case FIFO:
		lot, err := store.AccountLot(ctx, account, amount.Currency, nil)
		if err != nil {
			return err
		}
		if lot != nil {
			// A priced row keeps its cost basis and absorbs the new units.
			return store.UpdateAccountLot(ctx, account, amount.Currency, lot.Price, lot.Amount.Add(amount.Number))
		}
		return store.InsertAccountLot(ctx, account, amount.Currency, nil, amount.Number)

	case FILO:
		return fmt.Errorf("%s %s: %w", account, amount, ErrFILONotImplemented)
	}
	return fmt.Errorf("unknown lot info %T", info)
}
