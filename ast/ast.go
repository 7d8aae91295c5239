// Package ast declares the directive types that make up a ledger.
//
// A ledger is an ordered stream of directives: account lifecycle (open, close),
// commodity declarations, transactions, balance assertions, prices, documents,
// budgets, options and plugins. The stream is produced by the loader package or
// constructed programmatically, and consumed by the ledger package.
package ast

import (
	"golang.org/x/exp/slices"
)

// Directive is the interface implemented by all directive types.
type Directive interface {
	Position() Position
	Kind() DirectiveKind

	date() *Date
}

// DateOf returns the date of a directive, or nil for undated directives (options
// and plugins).
func DateOf(d Directive) *Date {
	return d.date()
}

// Directives is a slice of Directive that implements sort.Interface.
type Directives []Directive

func (d Directives) Len() int           { return len(d) }
func (d Directives) Swap(i, j int)      { d[i], d[j] = d[j], d[i] }
func (d Directives) Less(i, j int) bool { return compareDirectives(d[i], d[j]) < 0 }

// compareDirectives compares two directives by their date, then by type priority.
// Undated directives (options, plugins) sort before everything else.
func compareDirectives(a, b Directive) int {
	ad, bd := a.date(), b.date()
	switch {
	case ad.IsZero() && bd.IsZero():
		return 0
	case ad.IsZero():
		return -1
	case bd.IsZero():
		return 1
	case ad.Before(bd.Time):
		return -1
	case ad.After(bd.Time):
		return 1
	}

	aPriority := directiveTypePriority(a)
	bPriority := directiveTypePriority(b)
	if aPriority < bPriority {
		return -1
	} else if aPriority > bPriority {
		return 1
	}

	return 0
}

// directiveTypePriority returns the processing priority for a directive type.
// Lower numbers are processed first. A commodity must exist before an open constrains
// an account to it; Close comes last so postings dated on the closing day still apply.
func directiveTypePriority(d Directive) int {
	switch d.(type) {
	case *Commodity:
		return 0
	case *Open:
		return 1
	case *Close:
		return 3
	default:
		return 2
	}
}

// isSorted checks if directives are already sorted.
func isSorted(d Directives) bool {
	for i := 1; i < len(d); i++ {
		if d.Less(i, i-1) {
			return false
		}
	}
	return true
}

// SortDirectives sorts directives chronologically. The sort is stable so directives
// of equal date and priority keep their input order.
func SortDirectives(d Directives) {
	if isSorted(d) {
		return
	}

	slices.SortStableFunc(d, compareDirectives)
}
