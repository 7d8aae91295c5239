package ast

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func TestSortDirectives(t *testing.T) {
	txn := &Transaction{Date: MustDate("2024-01-02"), Narration: "buy"}
	closeAcc := &Close{Date: MustDate("2024-01-02"), Account: "Assets:Cash"}
	open := &Open{Date: MustDate("2024-01-02"), Account: "Assets:Cash"}
	balance := &Balance{Date: MustDate("2024-01-02"), Account: "Assets:Cash"}
	earlier := &Commodity{Date: MustDate("2024-01-01"), Currency: "USD"}
	option := &Option{Key: "booking_method", Value: "FIFO"}

	ds := Directives{txn, closeAcc, open, balance, earlier, option}
	SortDirectives(ds)

	assert.Equal(t, Directives{option, earlier, open, txn, balance, closeAcc}, ds)
}

func TestSortDirectives_CommodityBeforeOpen(t *testing.T) {
	closeAcc := &Close{Date: MustDate("2024-01-01"), Account: "Assets:Cash"}
	open := &Open{Date: MustDate("2024-01-01"), Account: "Assets:Cash", Currencies: []string{"USD"}}
	usd := &Commodity{Date: MustDate("2024-01-01"), Currency: "USD"}

	ds := Directives{closeAcc, open, usd}
	SortDirectives(ds)

	assert.Equal(t, Directives{usd, open, closeAcc}, ds)
}

func TestSortDirectives_Stable(t *testing.T) {
	first := &Transaction{Date: MustDate("2024-01-02"), Narration: "first"}
	second := &Transaction{Date: MustDate("2024-01-02"), Narration: "second"}
	third := &Transaction{Date: MustDate("2024-01-01"), Narration: "third"}

	ds := Directives{first, second, third}
	SortDirectives(ds)

	assert.Equal(t, Directives{third, first, second}, ds)
}

func TestDateOf(t *testing.T) {
	assert.Equal(t, "2024-03-01", DateOf(&Open{Date: MustDate("2024-03-01")}).String())
	assert.True(t, DateOf(&Plugin{Module: "x"}).IsZero())
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		number   string
		currency string
		wantErr  bool
	}{
		{"10 STOCK", "10", "STOCK", false},
		{"-12.50 USD", "-12.5", "USD", false},
		{"  3.000   EUR ", "3", "EUR", false},
		{"10", "", "", true},
		{"ten USD", "", "", true},
		{"10 usd", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.True(t, got.Number.Equal(decimal.RequireFromString(tt.number)))
			assert.Equal(t, tt.currency, got.Currency)
		})
	}
}

func TestAmount_Arithmetic(t *testing.T) {
	a := MustParseAmount("0.1 USD")
	for i := 0; i < 9; i++ {
		a = a.Add(decimal.RequireFromString("0.1"))
	}
	assert.Equal(t, "1 USD", a.String())
	assert.True(t, a.Equal(MustParseAmount("1.00 USD")))
	assert.False(t, a.Equal(MustParseAmount("1 EUR")))
	assert.Equal(t, "-1 USD", a.Neg().String())
	assert.False(t, a.IsZero())
}

func TestPosting_Weight(t *testing.T) {
	units := MustParseAmount("10 HOOL")
	cost := MustParseAmount("100 USD")
	price := MustParseAmount("110 USD")

	tests := []struct {
		name    string
		posting Posting
		want    string
	}{
		{"units only", Posting{Units: &units}, "10 HOOL"},
		{"with cost", Posting{Units: &units, Cost: &cost}, "1000 USD"},
		{"with price", Posting{Units: &units, Price: &price}, "1100 USD"},
		{"cost wins over price", Posting{Units: &units, Cost: &cost, Price: &price}, "1000 USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.posting.Weight().String())
		})
	}
}

func TestParseAccount(t *testing.T) {
	_, err := ParseAccount("Assets:Broker")
	assert.NoError(t, err)

	_, err = ParseAccount("Assets")
	assert.Error(t, err)

	_, err = ParseAccount("Savings:Broker")
	assert.Error(t, err)

	_, err = ParseAccount("Assets:broker")
	assert.Error(t, err)
}

func TestNewDate(t *testing.T) {
	d, err := NewDate("2024-02-29")
	assert.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())

	_, err = NewDate("2023-02-29")
	assert.Error(t, err)

	var nilDate *Date
	assert.True(t, nilDate.IsZero())
	assert.Equal(t, "", nilDate.String())
}
