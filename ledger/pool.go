package ledger

import (
	"sync"

	"github.com/shopspring/decimal"
)

// residualMapPool provides maps for per-currency residual sums. A typical
// transaction touches two to four currencies.
var residualMapPool = sync.Pool{
	New: func() any {
		return make(map[string]decimal.Decimal, 4)
	},
}

func getResidualMap() map[string]decimal.Decimal {
	return residualMapPool.Get().(map[string]decimal.Decimal)
}

func putResidualMap(m map[string]decimal.Decimal) {
	clear(m)
	residualMapPool.Put(m)
}
