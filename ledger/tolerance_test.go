package ledger

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func TestInferTolerance(t *testing.T) {
	tests := []struct {
		name    string
		amounts []string
		want    string
	}{
		{"two decimals", []string{"12.50", "-12.00"}, "0.005"},
		{"most precise wins", []string{"12.5", "-0.125"}, "0.0005"},
		{"integers use default", []string{"12", "-12"}, "0.005"},
		{"zeros are skipped", []string{"0.0000", "1.5"}, "0.05"},
		{"no amounts", nil, "0.005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amounts := make([]decimal.Decimal, 0, len(tt.amounts))
			for _, a := range tt.amounts {
				amounts = append(amounts, dec(a))
			}
			got := NewToleranceConfig().InferTolerance(amounts, "USD")
			assert.True(t, got.Equal(dec(tt.want)), "got %s", got)
		})
	}
}

func TestToleranceConfig_Options(t *testing.T) {
	c := NewToleranceConfig()

	assert.NoError(t, c.SetDefaults("*:0.01, JPY:1"))
	assert.True(t, c.Default("JPY").Equal(dec("1")))
	assert.True(t, c.Default("USD").Equal(dec("0.01")))

	assert.NoError(t, c.SetMultiplier("0.6"))
	assert.True(t, c.InferTolerance([]decimal.Decimal{dec("1.00")}, "USD").Equal(dec("0.006")))

	assert.Error(t, c.SetDefaults("USD"))
	assert.Error(t, c.SetDefaults("USD:abc"))
	assert.Error(t, c.SetDefaults("USD:-1"))
	assert.Error(t, c.SetMultiplier("0"))
	assert.Error(t, c.SetMultiplier("x"))
}

func TestWithinTolerance(t *testing.T) {
	assert.True(t, withinTolerance(dec("100.004"), dec("100"), dec("0.005")))
	assert.True(t, withinTolerance(dec("99.995"), dec("100"), dec("0.005")))
	assert.False(t, withinTolerance(dec("100.006"), dec("100"), dec("0.005")))
}
