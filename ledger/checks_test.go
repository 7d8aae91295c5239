package ledger

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/beanledger/ast"
)

func TestCheckAccountExists(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	assert.NoError(t, checkAccountExists(ctx, l, "Assets:Broker", pos(1)))
	assert.Equal(t, []ErrorKind{}, errorKinds(t, l))

	assert.NoError(t, checkAccountExists(ctx, l, "Assets:Unknown", pos(2)))
	errs, err := l.Errors(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(errs))
	assert.Equal(t, AccountDoesNotExist, errs[0].Kind)
	assert.Equal(t, pos(2), errs[0].Span)
	assert.Equal(t, map[string]string{ContextAccountName: "Assets:Unknown"}, errs[0].Context)

	exists, err := l.store.ExistsAccount(ctx, "Assets:Unknown")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestCheckAccountClosed(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLedger(t)

	assert.NoError(t, checkAccountClosed(ctx, l, "Assets:Broker", pos(1)))
	// Missing accounts are reported by checkAccountExists only.
	assert.NoError(t, checkAccountClosed(ctx, l, "Assets:Unknown", pos(1)))
	assert.Equal(t, []ErrorKind{}, errorKinds(t, l))

	assert.NoError(t, store.CloseAccount(ctx, "Assets:Broker", ast.MustDate("2024-02-01")))
	assert.NoError(t, checkAccountClosed(ctx, l, "Assets:Broker", pos(3)))
	assert.Equal(t, []ErrorKind{AccountClosed}, errorKinds(t, l))
}

func TestCheckCommodityDefined(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	assert.NoError(t, checkCommodityDefined(ctx, l, "USD", pos(1)))
	assert.NoError(t, checkCommodityDefined(ctx, l, "EUR", pos(2)))

	errs, err := l.Errors(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(errs))
	assert.Equal(t, CommodityDoesNotDefine, errs[0].Kind)
	assert.Equal(t, "EUR", errs[0].Context[ContextCommodityName])
}

func TestChecksPropagateStoreFailures(t *testing.T) {
	ctx := context.Background()
	l := New(failingStore{NewMemoryStore()})

	err := checkAccountExists(ctx, l, "Assets:Broker", pos(1))
	assert.IsError(t, err, errStoreDown)
	assert.Equal(t, []ErrorKind{}, errorKinds(t, l))
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "with filename",
			err:  NewError(AccountDoesNotExist, ast.Position{Filename: "main.yaml", Line: 12, Column: 3}, map[string]string{ContextAccountName: "Assets:Unknown"}),
			want: "main.yaml:12: Invalid reference to unknown account 'Assets:Unknown'",
		},
		{
			name: "without filename",
			err:  NewError(CommodityDoesNotDefine, ast.Position{Line: 4, Column: 1}, map[string]string{ContextCommodityName: "EUR"}),
			want: "line 4: Commodity EUR is not defined",
		},
		{
			name: "without position",
			err: NewError(AccountBalanceCheckError, ast.Position{}, map[string]string{
				ContextAccountName: "Assets:Cash",
				"target":           "100 USD",
				"current":          "90 USD",
				"distance":         "-10 USD",
			}),
			want: "Balance failed for 'Assets:Cash': expected 100 USD != accumulated 90 USD (-10 USD too much)",
		},
		{
			name: "unknown kind",
			err:  NewError(ErrorKind("Custom"), ast.Position{}, map[string]string{"b": "2", "a": "1"}),
			want: "Custom (a=1, b=2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
