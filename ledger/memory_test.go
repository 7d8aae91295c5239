package ledger_test

import (
	"testing"

	"github.com/robinvdvleuten/beanledger/ledger"
	"github.com/robinvdvleuten/beanledger/ledger/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ledger.Store {
		return ledger.NewMemoryStore()
	})
}
