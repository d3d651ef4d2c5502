package reportstats

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// MarkdownRenderer converts raw page HTML into a human-readable Markdown
// rendition, stored alongside raw_backups/ so a project's scraped pages
// remain inspectable without a browser.
type MarkdownRenderer struct {
	conv *converter.Converter
}

// NewMarkdownRenderer builds a reusable, goroutine-safe renderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(
					table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
				),
			),
		),
	}
}

// Render converts html to Markdown, resolving relative links against
// domain so the output is self-contained.
func (r *MarkdownRenderer) Render(html, domain string) (string, error) {
	return r.conv.ConvertString(html, converter.WithDomain(domain))
}
