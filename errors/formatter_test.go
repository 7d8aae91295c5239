package errors

import (
	stderrors "errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/beanledger/ast"
	"github.com/robinvdvleuten/beanledger/ledger"
	"github.com/robinvdvleuten/beanledger/loader"
)

func accountError(line int) *ledger.Error {
	return ledger.NewError(ledger.AccountDoesNotExist,
		ast.Position{Filename: "main.yaml", Line: line, Column: 5},
		map[string]string{ledger.ContextAccountName: "Assets:Unknown"})
}

func TestTextFormatter_Format(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "ledger error",
			err:  accountError(42),
			want: "main.yaml:42: Invalid reference to unknown account 'Assets:Unknown'",
		},
		{
			name: "parse error",
			err:  &loader.ParseError{Pos: ast.Position{Filename: "main.yaml", Line: 3}, Message: "directive has no kind"},
			want: "main.yaml:3: directive has no kind",
		},
		{
			name: "plain error",
			err:  stderrors.New("store unavailable"),
			want: "store unavailable",
		},
	}

	tf := NewTextFormatter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tf.Format(tt.err))
		})
	}
}

func TestTextFormatter_FormatWithSource(t *testing.T) {
	source := []byte(`directives:
  - date: 2024-01-01
    open: Assets:Cash
  - date: 2024-01-02
    close: Assets:Unknown
  - date: 2024-01-03
    close: Assets:Cash
`)
	tf := NewTextFormatter(WithSource("main.yaml", source))

	expected := "main.yaml:4: Invalid reference to unknown account 'Assets:Unknown'\n\n" +
		"     - date: 2024-01-01\n" +
		"       open: Assets:Cash\n" +
		"     - date: 2024-01-02\n" +
		"       ^\n" +
		"       close: Assets:Unknown\n"
	assert.Equal(t, expected, tf.Format(accountError(4)))

	// Errors in other files keep the plain form.
	other := ledger.NewError(ledger.AccountClosed, ast.Position{Filename: "other.yaml", Line: 2}, map[string]string{ledger.ContextAccountName: "Assets:Cash"})
	assert.Equal(t, "other.yaml:2: Account Assets:Cash is closed", tf.Format(other))
}

func TestTextFormatter_FormatAll(t *testing.T) {
	tf := NewTextFormatter()
	assert.Equal(t, "", tf.FormatAll(nil))

	output := tf.FormatAll([]error{accountError(1), accountError(2)})
	assert.Equal(t,
		"main.yaml:1: Invalid reference to unknown account 'Assets:Unknown'\n\n"+
			"main.yaml:2: Invalid reference to unknown account 'Assets:Unknown'",
		output)
}

func TestJSONFormatter_Format(t *testing.T) {
	jf := NewJSONFormatter()

	assert.Equal(t,
		`{"type":"AccountDoesNotExist","message":"Invalid reference to unknown account 'Assets:Unknown'","position":{"filename":"main.yaml","line":7,"column":5},"details":{"account_name":"Assets:Unknown"}}`,
		jf.Format(accountError(7)))

	assert.Equal(t,
		`{"type":"ParseError","message":"boom","position":{"filename":"a.yaml","line":1,"column":1}}`,
		jf.Format(&loader.ParseError{Pos: ast.Position{Filename: "a.yaml", Line: 1, Column: 1}, Message: "boom"}))

	assert.Equal(t,
		`{"type":"*errors.errorString","message":"plain"}`,
		jf.Format(stderrors.New("plain")))
}

func TestJSONFormatter_FormatAllToSlice(t *testing.T) {
	jf := NewJSONFormatter()
	errs := Ledger([]*ledger.Error{
		accountError(1),
		ledger.NewError(ledger.TransactionHasMultipleImplicitPosting, ast.Position{}, nil),
	})

	result := jf.FormatAllToSlice(errs)
	assert.Equal(t, 2, len(result))
	assert.Equal(t, "AccountDoesNotExist", result[0].Type)
	assert.Equal(t, 1, result[0].Position.Line)
	assert.Equal(t, "TransactionHasMultipleImplicitPosting", result[1].Type)
	assert.Zero(t, result[1].Position)
	assert.Zero(t, result[1].Details)

	assert.Equal(t, "[]", jf.FormatAll(nil))
}
