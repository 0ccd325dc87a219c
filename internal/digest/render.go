package digest

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/L235/MWRecentChangesReport/internal/models"
)

// Meta carries the report-wide values the renderer needs
type Meta struct {
	Title   string // short wiki name shown in headers, e.g. "wiki"
	Domain  string // full wiki host, used in the subject line
	BaseURL string // link root, e.g. "https://wiki.example.org"
	Window  models.Window
}

// Subject builds the fixed subject line for the covered window
func Subject(meta Meta) string {
	return fmt.Sprintf("Weekly %s report: %s", meta.Domain, meta.Window.DateRange())
}

// Render produces the HTML digest for the grouped changes. An empty group
// list yields the zero Report (Report.Empty() == true) and the caller is
// expected to skip dispatch. All page titles, user names and edit comments
// are untrusted and only reach the document through the escaping builder.
func Render(groups []models.ChangeGroup, meta Meta) models.Report {
	if len(groups) == 0 {
		return models.Report{}
	}

	var h htmlBuilder

	h.raw("<h1>")
	h.text(fmt.Sprintf("Weekly %s report: %s", meta.Title, meta.Window.DateRange()))
	h.raw("</h1>\n")
	h.raw("<p>")
	h.text(fmt.Sprintf("Here are the recent changes on %s for %s:", meta.Title, meta.Window.DateRange()))
	h.raw("</p>\n")

	for _, g := range groups {
		h.raw("<h2>")
		h.link(pageURL(meta.BaseURL, g.Title), g.Title)
		h.raw("</h2>\n<ul>\n")
		for _, c := range g.Changes {
			h.raw("<li>[")
			h.link(diffURL(meta.BaseURL, c.RevID, c.OldRevID), "diff")
			h.raw("] [")
			h.text(c.Timestamp.Format("Jan 02 15:04"))
			h.raw("] ")
			h.link(userURL(meta.BaseURL, c.User), c.User)
			h.raw(" ('")
			h.text(c.Comment)
			h.raw("')")
			if c.HasSizes {
				h.raw(" (")
				h.text(fmt.Sprintf("%+d", c.SizeDelta))
				h.raw(")")
			}
			h.raw("</li>\n")
		}
		h.raw("</ul>\n")
	}

	return models.Report{
		Subject: Subject(meta),
		HTML:    h.String(),
	}
}

// pageURL builds the canonical article link; MediaWiki titles use
// underscores for spaces
func pageURL(base, title string) string {
	return base + "/wiki/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

// userURL links to the editor's user page
func userURL(base, user string) string {
	return base + "/wiki/User:" + url.PathEscape(strings.ReplaceAll(user, " ", "_"))
}

// diffURL links to the revision diff view
func diffURL(base string, revID, oldRevID int64) string {
	return fmt.Sprintf("%s/w/index.php?diff=%d&oldid=%d", base, revID, oldRevID)
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// htmlBuilder accumulates an HTML document. Markup enters through raw,
// which only ever receives literals; anything dynamic goes through text
// or link and is escaped on the way in.
type htmlBuilder struct {
	b strings.Builder
}

func (h *htmlBuilder) raw(markup string) {
	h.b.WriteString(markup)
}

func (h *htmlBuilder) text(s string) {
	h.b.WriteString(htmlEscaper.Replace(s))
}

func (h *htmlBuilder) link(href, text string) {
	h.b.WriteString(`<a href='`)
	h.b.WriteString(htmlEscaper.Replace(href))
	h.b.WriteString(`'>`)
	h.b.WriteString(htmlEscaper.Replace(text))
	h.b.WriteString(`</a>`)
}

func (h *htmlBuilder) String() string {
	return h.b.String()
}
