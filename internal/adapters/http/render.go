package httpadapter

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/PabloGalante/chatrelay/internal/domain"
	"github.com/PabloGalante/chatrelay/internal/observability"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy   = bluemonday.UGCPolicy()
)

// renderMarkdown turns model output into sanitized HTML. On a conversion
// error the escaped plain text is returned instead.
func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		observability.Logger().Warn("markdown conversion failed", "error", err)
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes()))
}

// renderTurn renders assistant turns as markdown; user text is shown
// verbatim, so it is only escaped.
func renderTurn(t domain.Turn) template.HTML {
	if t.Role == domain.RoleAssistant {
		return renderMarkdown(t.Content)
	}
	return template.HTML("<p>" + template.HTMLEscapeString(t.Content) + "</p>")
}
