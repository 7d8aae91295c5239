package ledger

import (
	"context"

	"github.com/robinvdvleuten/beanledger/ast"
)

// checkAccountExists records AccountDoesNotExist when the account is unknown.
// Only store failures are returned.
func checkAccountExists(ctx context.Context, l *Ledger, name string, span ast.Position) error {
	exists, err := l.store.ExistsAccount(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return l.recordError(ctx, AccountDoesNotExist, span, map[string]string{ContextAccountName: name})
	}
	return nil
}

// checkAccountClosed records AccountClosed for an existing account with Close
// status. A missing account is left to checkAccountExists.
func checkAccountClosed(ctx context.Context, l *Ledger, name string, span ast.Position) error {
	account, err := l.store.Account(ctx, name)
	if err != nil {
		return err
	}
	if account != nil && account.Status == AccountClose {
		return l.recordError(ctx, AccountClosed, span, map[string]string{ContextAccountName: name})
	}
	return nil
}

// checkCommodityDefined records CommodityDoesNotDefine when the commodity was
// never declared.
func checkCommodityDefined(ctx context.Context, l *Ledger, name string, span ast.Position) error {
	exists, err := l.store.ExistsCommodity(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return l.recordError(ctx, CommodityDoesNotDefine, span, map[string]string{ContextCommodityName: name})
	}
	return nil
}

// checkAccount runs the existence and closed checks and reports whether the
// account exists.
func checkAccount(ctx context.Context, l *Ledger, name string, span ast.Position) (bool, error) {
	if err := checkAccountExists(ctx, l, name, span); err != nil {
		return false, err
	}
	if err := checkAccountClosed(ctx, l, name, span); err != nil {
		return false, err
	}
	return l.store.ExistsAccount(ctx, name)
}
