package loader

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/beanledger/ast"
)

// ParseError is returned when a ledger file cannot be decoded. It carries the
// position of the offending node so it can be rendered like a ledger error.
type ParseError struct {
	Pos        ast.Position
	Message    string
	Underlying error
}

func (e *ParseError) Error() string {
	location := fmt.Sprintf("%s:%d", e.Pos.Filename, e.Pos.Line)
	if e.Pos.Filename == "" {
		location = fmt.Sprintf("line %d", e.Pos.Line)
	}

	return fmt.Sprintf("%s: %s", location, e.Message)
}

// GetPosition returns the position of the error.
func (e *ParseError) GetPosition() ast.Position {
	return e.Pos
}

func (e *ParseError) Unwrap() error {
	return e.Underlying
}

var yamlLineRegex = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

// newYAMLError wraps an error returned by the YAML decoder.
func newYAMLError(filename string, err error) *ParseError {
	pos := ast.Position{Filename: filename, Line: 1, Column: 1}
	message := err.Error()

	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		message = typeErr.Errors[0]
	}
	if m := yamlLineRegex.FindStringSubmatch(message); m != nil {
		pos.Line, _ = strconv.Atoi(m[1])
		message = m[2]
	}

	return &ParseError{Pos: pos, Message: message, Underlying: err}
}

// nodeError reports an error at the position of node.
func nodeError(filename string, node *yaml.Node, format string, args ...any) *ParseError {
	return &ParseError{
		Pos:     position(filename, node),
		Message: fmt.Sprintf(format, args...),
	}
}

// wrapNodeError reports err at the position of node.
func wrapNodeError(filename string, node *yaml.Node, err error) *ParseError {
	return &ParseError{
		Pos:        position(filename, node),
		Message:    err.Error(),
		Underlying: err,
	}
}

func position(filename string, node *yaml.Node) ast.Position {
	return ast.Position{Filename: filename, Line: node.Line, Column: node.Column}
}
