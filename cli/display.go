package cli

import (
	"io"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"
)

// formatAmount renders a number in a currency. ISO currencies are shown with
// their symbol and grouping when the number fits the currency's minor unit;
// everything else falls back to "<number> <currency>".
func formatAmount(number decimal.Decimal, currency string) string {
	if c := money.GetCurrency(currency); c != nil {
		if minor := number.Shift(int32(c.Fraction)); minor.IsInteger() {
			return money.New(minor.IntPart(), currency).Display()
		}
	}
	return number.String() + " " + currency
}

// column describes one table column and how its cells are styled.
type column struct {
	header string
	right  bool
	style  func(string) string
}

// table writes rows aligned on display width. Cells are padded before styling
// so escape sequences never affect alignment.
type table struct {
	columns []column
	rows    [][]string
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) write(w io.Writer, header func(string) string) error {
	widths := make([]int, len(t.columns))
	for i, c := range t.columns {
		widths[i] = runewidth.StringWidth(c.header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	var buf strings.Builder
	line := func(cells []string, style func(i int) func(string) string) {
		for i, cell := range cells {
			if i > 0 {
				buf.WriteString("  ")
			}
			padded := runewidth.FillRight(cell, widths[i])
			if t.columns[i].right {
				padded = runewidth.FillLeft(cell, widths[i])
			}
			if i == len(cells)-1 && !t.columns[i].right {
				padded = cell
			}
			if fn := style(i); fn != nil {
				padded = fn(padded)
			}
			buf.WriteString(padded)
		}
		buf.WriteByte('\n')
	}

	headers := make([]string, len(t.columns))
	for i, c := range t.columns {
		headers[i] = c.header
	}
	line(headers, func(int) func(string) string { return header })
	for _, row := range t.rows {
		line(row, func(i int) func(string) string { return t.columns[i].style })
	}

	_, err := io.WriteString(w, buf.String())
	return err
}
