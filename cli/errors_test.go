package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/beanledger/ast"
	"github.com/robinvdvleuten/beanledger/ledger"
	"github.com/robinvdvleuten/beanledger/loader"
)

const rendererSource = `directives:
  - date: 2024-01-01
    open: Assets:Cash
  - date: 2024-01-02
    txn: Lunch
    postings:
      - account: Expenses:Food
        units: 12.50 USD`

func TestErrorRenderer_RenderWithSourceContext(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewErrorRenderer(&buf, map[string][]byte{"main.yaml": []byte(rendererSource)})

	err := ledger.NewError(ledger.AccountDoesNotExist, ast.Position{Filename: "main.yaml", Line: 4, Column: 5},
		map[string]string{ledger.ContextAccountName: "Expenses:Food"})

	assert.Equal(t, ""+
		"main.yaml:4: Invalid reference to unknown account 'Expenses:Food'\n"+
		"\n"+
		"     - date: 2024-01-01\n"+
		"       open: Assets:Cash\n"+
		"     - date: 2024-01-02\n"+
		"       ^\n"+
		"       txn: Lunch\n", renderer.Render(err))
}

func TestErrorRenderer_RenderParseError(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewErrorRenderer(&buf, map[string][]byte{"main.yaml": []byte(rendererSource)})

	err := &loader.ParseError{Pos: ast.Position{Filename: "main.yaml", Line: 8, Column: 16}, Message: "invalid amount"}
	output := renderer.Render(err)

	assert.Contains(t, output, "main.yaml:8: invalid amount")
	assert.Contains(t, output, "units: 12.50 USD")
	assert.Contains(t, output, "^")
}

func TestErrorRenderer_RenderWithoutSourceContext(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewErrorRenderer(&buf, nil)

	t.Run("UnknownFile", func(t *testing.T) {
		err := ledger.NewError(ledger.AccountClosed, ast.Position{Filename: "other.yaml", Line: 2},
			map[string]string{ledger.ContextAccountName: "Assets:Cash"})
		assert.Equal(t, "other.yaml:2: Account Assets:Cash is closed", renderer.Render(err))
	})

	t.Run("PlainError", func(t *testing.T) {
		assert.Equal(t, "boom", renderer.Render(errors.New("boom")))
	})
}

func TestErrorRenderer_RenderWithSourceContext_BoundsChecking(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewErrorRenderer(&buf, map[string][]byte{"short.yaml": []byte("directives:\n")})

	err := ledger.NewError(ledger.TransactionHasMultipleImplicitPosting, ast.Position{Filename: "short.yaml", Line: 40, Column: 3}, nil)
	output := renderer.Render(err)
	assert.Contains(t, output, "short.yaml:40: Transaction has more than one posting without an amount")
}

func TestErrorRenderer_RenderAll(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewErrorRenderer(&buf, nil)

	assert.Equal(t, "", renderer.RenderAll(nil))
	assert.Equal(t, "first\n\nsecond", renderer.RenderAll([]error{errors.New("first"), errors.New("second")}))
}
