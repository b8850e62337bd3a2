// Package markdown turns run reports written in markdown into standalone HTML
// documents suitable as mail bodies.
package markdown

import (
	"bytes"
	"fmt"
	"html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// documentTemplate declares the charset explicitly; some mail clients assume
// latin-1 for bare fragments.
const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`

// ReportRenderer converts report markdown (headings and count tables) into
// sanitized HTML. Catalog names end up in reports verbatim, hence the
// sanitizing pass.
type ReportRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewReportRenderer() *ReportRenderer {
	policy := bluemonday.UGCPolicy()
	// Column alignment survives only as an inline style.
	policy.AllowStyles("text-align").OnElements("td", "th")

	return &ReportRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
		policy: policy,
	}
}

// Fragment returns the sanitized HTML of body, without a document around it.
func (r *ReportRenderer) Fragment(body string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("failed to convert report markdown: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}

// Render returns body as a complete HTML document titled title.
func (r *ReportRenderer) Render(title, body string) (string, error) {
	fragment, err := r.Fragment(body)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(documentTemplate, html.EscapeString(title), fragment), nil
}
