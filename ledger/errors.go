package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/robinvdvleuten/beanledger/ast"
)

// Operational failures. These abort a run and are never recorded as ledger errors.
var (
	// ErrFILONotImplemented is returned when a posting resolves to FILO matching.
	ErrFILONotImplemented = errors.New("FILO lot matching is not implemented")
	// ErrPluginNotFound is returned when a plugin directive names an unregistered plugin.
	ErrPluginNotFound = errors.New("plugin not found")
	// ErrDuplicateLot is returned by stores when a lot row with the same key exists.
	ErrDuplicateLot = errors.New("lot already exists")
	// ErrUnknownDirective is returned for directive types the pipeline cannot dispatch.
	ErrUnknownDirective = errors.New("unknown directive")
)

// ErrorKind classifies a ledger error.
type ErrorKind string

const (
	UnbalancedTransaction                 ErrorKind = "UnbalancedTransaction"
	TransactionHasMultipleImplicitPosting ErrorKind = "TransactionHasMultipleImplicitPosting"
	TransactionCannotInferTradeAmount     ErrorKind = "TransactionCannotInferTradeAmount"
	AccountBalanceCheckError              ErrorKind = "AccountBalanceCheckError"
	AccountDoesNotExist                   ErrorKind = "AccountDoesNotExist"
	AccountClosed                         ErrorKind = "AccountClosed"
	AccountAlreadyOpened                  ErrorKind = "AccountAlreadyOpened"
	CommodityDoesNotDefine                ErrorKind = "CommodityDoesNotDefine"
	CloseNonZeroAccount                   ErrorKind = "CloseNonZeroAccount"
	UnsupportedBookingMethod              ErrorKind = "UnsupportedBookingMethod"
	PriceMissingAmount                    ErrorKind = "PriceMissingAmount"
	DocumentFileNotFound                  ErrorKind = "DocumentFileNotFound"
	BudgetDoesNotExist                    ErrorKind = "BudgetDoesNotExist"
	DefineDuplicatedBudget                ErrorKind = "DefineDuplicatedBudget"
	BudgetClosed                          ErrorKind = "BudgetClosed"
	InvalidOptionValue                    ErrorKind = "InvalidOptionValue"
)

// Context keys used by the consistency checks.
const (
	ContextAccountName   = "account_name"
	ContextCommodityName = "commodity_name"
)

// Error is a business-rule violation detected while processing a directive. It is
// recorded in the store error log; processing continues after it.
type Error struct {
	Kind    ErrorKind
	Span    ast.Position
	Context map[string]string
}

// NewError creates a ledger error.
func NewError(kind ErrorKind, span ast.Position, context map[string]string) *Error {
	return &Error{Kind: kind, Span: span, Context: context}
}

// Error returns a bean-check style message with a filename:line prefix.
func (e *Error) Error() string {
	msg := e.Message()
	if e.Span.IsZero() {
		return msg
	}
	location := fmt.Sprintf("%s:%d", e.Span.Filename, e.Span.Line)
	if e.Span.Filename == "" {
		location = fmt.Sprintf("line %d", e.Span.Line)
	}
	return location + ": " + msg
}

func (e *Error) GetPosition() ast.Position {
	return e.Span
}

// Message describes the error without its location.
func (e *Error) Message() string {
	c := e.Context
	switch e.Kind {
	case AccountDoesNotExist:
		return fmt.Sprintf("Invalid reference to unknown account '%s'", c[ContextAccountName])
	case AccountClosed:
		return fmt.Sprintf("Account %s is closed", c[ContextAccountName])
	case AccountAlreadyOpened:
		return fmt.Sprintf("Account %s is already open", c[ContextAccountName])
	case CommodityDoesNotDefine:
		return fmt.Sprintf("Commodity %s is not defined", c[ContextCommodityName])
	case CloseNonZeroAccount:
		return fmt.Sprintf("Cannot close account %s with a non-zero balance", c[ContextAccountName])
	case UnsupportedBookingMethod:
		return fmt.Sprintf("Unsupported booking method %q for account %s", c["booking"], c[ContextAccountName])
	case UnbalancedTransaction:
		return fmt.Sprintf("Transaction does not balance: (%s)", c["residual"])
	case TransactionHasMultipleImplicitPosting:
		return "Transaction has more than one posting without an amount"
	case TransactionCannotInferTradeAmount:
		return fmt.Sprintf("Cannot infer the missing amount from a residual in several currencies: (%s)", c["residual"])
	case AccountBalanceCheckError:
		return fmt.Sprintf("Balance failed for '%s': expected %s != accumulated %s (%s too much)",
			c[ContextAccountName], c["target"], c["current"], c["distance"])
	case PriceMissingAmount:
		return fmt.Sprintf("Price of %s has no amount", c[ContextCommodityName])
	case DocumentFileNotFound:
		return fmt.Sprintf("Document file %s does not exist", c["path"])
	case BudgetDoesNotExist:
		return fmt.Sprintf("Budget %s does not exist", c["budget_name"])
	case DefineDuplicatedBudget:
		return fmt.Sprintf("Budget %s is already defined", c["budget_name"])
	case BudgetClosed:
		return fmt.Sprintf("Budget %s is closed", c["budget_name"])
	case InvalidOptionValue:
		return fmt.Sprintf("Invalid value %q for option %s", c["value"], c["key"])
	}
	return string(e.Kind) + formatContext(c)
}

func formatContext(c map[string]string) string {
	if len(c) == 0 {
		return ""
	}
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf strings.Builder
	buf.WriteString(" (")
	for i, k := range keys {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(c[k])
	}
	buf.WriteByte(')')
	return buf.String()
}
