package cli

import (
	"io"
	"strings"

	"github.com/robinvdvleuten/beanledger/ast"
	"github.com/robinvdvleuten/beanledger/output"
)

// ErrorRenderer renders errors with terminal styling and source context.
type ErrorRenderer struct {
	styles  *output.Styles
	sources map[string][]byte
}

// NewErrorRenderer creates a renderer for w. Sources maps filenames to their
// content and is used to show the lines around an error.
func NewErrorRenderer(w io.Writer, sources map[string][]byte) *ErrorRenderer {
	return &ErrorRenderer{styles: output.NewStyles(w), sources: sources}
}

// Render formats a single error with styling and context.
func (r *ErrorRenderer) Render(err error) string {
	if e, ok := err.(interface {
		GetPosition() ast.Position
		Error() string
	}); ok {
		pos := e.GetPosition()
		if source, ok := r.sources[pos.Filename]; ok && pos.Line > 0 {
			return r.renderWithSourceContext(pos, e.Error(), source)
		}
		return r.styles.Error(e.Error())
	}

	return err.Error()
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf strings.Builder
	for i, err := range errs {
		buf.WriteString(strings.TrimRight(r.Render(err), "\n"))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

func (r *ErrorRenderer) renderWithSourceContext(pos ast.Position, message string, sourceContent []byte) string {
	var buf strings.Builder

	buf.WriteString(r.styles.Error(message))
	buf.WriteString("\n\n")

	sourceLines := strings.Split(string(sourceContent), "\n")

	startLine := max(pos.Line-3, 0)
	endLine := min(pos.Line, len(sourceLines)-1)

	for i := startLine; i <= endLine; i++ {
		buf.WriteString("   ")
		buf.WriteString(r.styles.Dim(sourceLines[i]))
		buf.WriteByte('\n')

		if i == pos.Line-1 && pos.Column > 0 {
			buf.WriteString("   ")
			buf.WriteString(strings.Repeat(" ", pos.Column-1))
			buf.WriteString(r.styles.Error("^"))
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}
