package loader

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/beanledger/ast"
)

// rawDocument is the top level of a ledger file.
type rawDocument struct {
	Include    []string    `yaml:"include"`
	Options    yaml.Node   `yaml:"options"`
	Plugins    []yaml.Node `yaml:"plugins"`
	Directives []yaml.Node `yaml:"directives"`
}

type rawPlugin struct {
	Module string `yaml:"module"`
	Config string `yaml:"config"`
}

// rawDirective holds the union of all directive fields. Which directive it is
// follows from the single kind key present in the mapping.
type rawDirective struct {
	Date string            `yaml:"date"`
	Meta map[string]string `yaml:"meta"`

	Open           string `yaml:"open"`
	Close          string `yaml:"close"`
	Commodity      string `yaml:"commodity"`
	Txn            string `yaml:"txn"`
	Balance        string `yaml:"balance"`
	Price          string `yaml:"price"`
	Document       string `yaml:"document"`
	Budget         string `yaml:"budget"`
	BudgetAdd      string `yaml:"budget-add"`
	BudgetTransfer string `yaml:"budget-transfer"`
	BudgetClose    string `yaml:"budget-close"`

	Currencies []string    `yaml:"currencies"`
	Booking    string      `yaml:"booking"`
	Flag       string      `yaml:"flag"`
	Payee      string      `yaml:"payee"`
	Tags       []string    `yaml:"tags"`
	Links      []string    `yaml:"links"`
	Postings   []yaml.Node `yaml:"postings"`
	Amount     string      `yaml:"amount"`
	Pad        string      `yaml:"pad"`
	Currency   string      `yaml:"currency"`
	Source     string      `yaml:"source"`
	Path       string      `yaml:"path"`
	To         string      `yaml:"to"`
}

type rawPosting struct {
	Account string            `yaml:"account"`
	Units   string            `yaml:"units"`
	Cost    string            `yaml:"cost"`
	Price   string            `yaml:"price"`
	Meta    map[string]string `yaml:"meta"`
}

var kindKeys = map[string]bool{
	"open": true, "close": true, "commodity": true, "txn": true, "balance": true,
	"price": true, "document": true, "budget": true, "budget-add": true,
	"budget-transfer": true, "budget-close": true,
}

type document struct {
	Include    []string
	directives ast.Directives
}

// decode parses one ledger file. Directives come back in file order.
func decode(filename string, data []byte) (*document, error) {
	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, newYAMLError(filename, err)
	}

	doc := &document{Include: raw.Include}

	if raw.Options.Kind != 0 {
		if raw.Options.Kind != yaml.MappingNode {
			return nil, nodeError(filename, &raw.Options, "options must be a mapping")
		}
		for i := 0; i+1 < len(raw.Options.Content); i += 2 {
			key, value := raw.Options.Content[i], raw.Options.Content[i+1]
			if value.Kind != yaml.ScalarNode {
				return nil, nodeError(filename, value, "option %q must be a scalar", key.Value)
			}
			doc.directives = append(doc.directives, &ast.Option{
				Pos:   position(filename, key),
				Key:   key.Value,
				Value: value.Value,
			})
		}
	}

	for i := range raw.Plugins {
		node := &raw.Plugins[i]
		var p rawPlugin
		if err := node.Decode(&p); err != nil {
			return nil, wrapNodeError(filename, node, err)
		}
		if p.Module == "" {
			return nil, nodeError(filename, node, "plugin is missing a module")
		}
		doc.directives = append(doc.directives, &ast.Plugin{
			Pos:    position(filename, node),
			Module: p.Module,
			Config: p.Config,
		})
	}

	for i := range raw.Directives {
		d, err := decodeDirective(filename, &raw.Directives[i])
		if err != nil {
			return nil, err
		}
		doc.directives = append(doc.directives, d)
	}

	return doc, nil
}

func directiveKind(filename string, node *yaml.Node) (string, error) {
	if node.Kind != yaml.MappingNode {
		return "", nodeError(filename, node, "directive must be a mapping")
	}

	var kinds []string
	for i := 0; i < len(node.Content); i += 2 {
		if key := node.Content[i].Value; kindKeys[key] {
			kinds = append(kinds, key)
		}
	}
	switch len(kinds) {
	case 0:
		return "", nodeError(filename, node, "directive has no kind")
	case 1:
		return kinds[0], nil
	default:
		return "", nodeError(filename, node, "directive has multiple kinds: %s", strings.Join(kinds, ", "))
	}
}

func decodeDirective(filename string, node *yaml.Node) (ast.Directive, error) {
	kind, err := directiveKind(filename, node)
	if err != nil {
		return nil, err
	}

	var raw rawDirective
	if err := node.Decode(&raw); err != nil {
		return nil, wrapNodeError(filename, node, err)
	}

	pos := position(filename, node)
	if raw.Date == "" {
		return nil, nodeError(filename, node, "%s directive is missing a date", kind)
	}
	date, err := ast.NewDate(raw.Date)
	if err != nil {
		return nil, wrapNodeError(filename, node, err)
	}

	fail := func(err error) (ast.Directive, error) {
		return nil, wrapNodeError(filename, node, err)
	}

	switch kind {
	case "open":
		account, err := ast.ParseAccount(raw.Open)
		if err != nil {
			return fail(err)
		}
		return &ast.Open{Pos: pos, Date: date, Account: account, Currencies: raw.Currencies, Booking: raw.Booking, Meta: raw.Meta}, nil

	case "close":
		account, err := ast.ParseAccount(raw.Close)
		if err != nil {
			return fail(err)
		}
		return &ast.Close{Pos: pos, Date: date, Account: account, Meta: raw.Meta}, nil

	case "commodity":
		if raw.Commodity == "" {
			return nil, nodeError(filename, node, "commodity directive is missing a currency")
		}
		return &ast.Commodity{Pos: pos, Date: date, Currency: raw.Commodity, Meta: raw.Meta}, nil

	case "txn":
		txn := &ast.Transaction{
			Pos:       pos,
			Date:      date,
			Flag:      raw.Flag,
			Payee:     raw.Payee,
			Narration: raw.Txn,
			Tags:      raw.Tags,
			Links:     raw.Links,
			Meta:      raw.Meta,
		}
		if txn.Flag == "" {
			txn.Flag = "*"
		}
		for i := range raw.Postings {
			posting, err := decodePosting(filename, &raw.Postings[i])
			if err != nil {
				return nil, err
			}
			txn.Postings = append(txn.Postings, posting)
		}
		return txn, nil

	case "balance":
		account, err := ast.ParseAccount(raw.Balance)
		if err != nil {
			return fail(err)
		}
		amount, err := ast.ParseAmount(raw.Amount)
		if err != nil {
			return fail(err)
		}
		balance := &ast.Balance{Pos: pos, Date: date, Account: account, Amount: amount, Meta: raw.Meta}
		if raw.Pad != "" {
			if balance.Pad, err = ast.ParseAccount(raw.Pad); err != nil {
				return fail(err)
			}
		}
		return balance, nil

	case "price":
		amount, err := parseOptionalAmount(raw.Amount)
		if err != nil {
			return fail(err)
		}
		if amount == nil && raw.Source == "" {
			return nil, nodeError(filename, node, "price directive needs an amount or a source")
		}
		return &ast.Price{
			Pos:       pos,
			Date:      date,
			Commodity: raw.Price,
			Amount:    amount,
			Currency:  raw.Currency,
			Source:    raw.Source,
			Path:      raw.Path,
			Meta:      raw.Meta,
		}, nil

	case "document":
		account, err := ast.ParseAccount(raw.Document)
		if err != nil {
			return fail(err)
		}
		return &ast.Document{Pos: pos, Date: date, Account: account, Path: raw.Path, Meta: raw.Meta}, nil

	case "budget":
		return &ast.Budget{Pos: pos, Date: date, Name: raw.Budget, Commodity: raw.Currency, Meta: raw.Meta}, nil

	case "budget-add":
		amount, err := ast.ParseAmount(raw.Amount)
		if err != nil {
			return fail(err)
		}
		return &ast.BudgetAdd{Pos: pos, Date: date, Name: raw.BudgetAdd, Amount: amount}, nil

	case "budget-transfer":
		amount, err := ast.ParseAmount(raw.Amount)
		if err != nil {
			return fail(err)
		}
		if raw.To == "" {
			return nil, nodeError(filename, node, "budget transfer is missing a target budget")
		}
		return &ast.BudgetTransfer{Pos: pos, Date: date, From: raw.BudgetTransfer, To: raw.To, Amount: amount}, nil

	case "budget-close":
		return &ast.BudgetClose{Pos: pos, Date: date, Name: raw.BudgetClose}, nil
	}

	return nil, fmt.Errorf("unhandled directive kind %q", kind)
}

func decodePosting(filename string, node *yaml.Node) (*ast.Posting, error) {
	var raw rawPosting
	if err := node.Decode(&raw); err != nil {
		return nil, wrapNodeError(filename, node, err)
	}

	account, err := ast.ParseAccount(raw.Account)
	if err != nil {
		return nil, wrapNodeError(filename, node, err)
	}
	posting := &ast.Posting{Account: account, Meta: raw.Meta}

	for _, field := range []struct {
		value string
		dst   **ast.Amount
	}{
		{raw.Units, &posting.Units},
		{raw.Cost, &posting.Cost},
		{raw.Price, &posting.Price},
	} {
		if *field.dst, err = parseOptionalAmount(field.value); err != nil {
			return nil, wrapNodeError(filename, node, err)
		}
	}

	if posting.Units == nil && (posting.Cost != nil || posting.Price != nil) {
		return nil, nodeError(filename, node, "posting with a cost or price needs units")
	}
	return posting, nil
}

// parseOptionalAmount parses an amount, returning nil for an empty string.
func parseOptionalAmount(s string) (*ast.Amount, error) {
	if s == "" {
		return nil, nil
	}
	amount, err := ast.ParseAmount(s)
	if err != nil {
		return nil, err
	}
	return &amount, nil
}
