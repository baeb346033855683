// Package views renders the server-side HTML pages.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html templates/mail/*.html
var files embed.FS

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.Format("Jan 2, 2006") },
	"when":  func(t time.Time) string { return t.Format("Mon Jan 2, 15:04") },
	"upload": func(p string) string {
		if p == "" {
			return ""
		}
		return "/" + strings.TrimPrefix(p, "/")
	},
}

var (
	pages = map[string]*template.Template{}
	mails = template.Must(template.New("mail").Funcs(funcs).ParseFS(files, "templates/mail/*.html"))
)

func init() {
	for _, name := range []string{"shop", "product", "hub", "community"} {
		pages[name] = template.Must(template.New("layout.html").Funcs(funcs).
			ParseFS(files, "templates/layout.html", "templates/"+name+".html"))
	}
}

// Page is the data every page receives.
type Page struct {
	Title     string
	LoggedIn  bool
	Name      string
	CSRFToken string
	Notice    string // one-time flash message
	Data      any
}

// Render executes the named page inside the layout.
func Render(name string, p Page) ([]byte, error) {
	t, ok := pages[name]
	if !ok {
		return nil, fmt.Errorf("views: unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("views: render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// RenderMail executes a standalone email template such as
// "order_receipt.html".
func RenderMail(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := mails.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("views: render mail %s: %w", name, err)
	}
	return buf.String(), nil
}
