// Package export renders a campaign, with its personas, assets and ad copy,
// as a printable HTML plan.
package export

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/okian/estatecamp/internal/domain/model"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

const (
	dateLayout  = "2 Jan 2006"
	clockLayout = "15:04:05 MST"
)

// Renderer renders campaign plans. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
	tag  language.Tag
	loc  *time.Location
	now  func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLanguage sets the locale used for number formatting.
func WithLanguage(tag language.Tag) Option {
	return func(r *Renderer) { r.tag = tag }
}

// WithLocation sets the time zone dates are printed in.
func WithLocation(loc *time.Location) Option {
	return func(r *Renderer) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithClock overrides the footer timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRenderer parses the embedded templates.
func NewRenderer(opts ...Option) (*Renderer, error) {
	r := &Renderer{tag: language.English, loc: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}

	tmpl, err := template.New("plan.html.tmpl").Funcs(template.FuncMap{
		"money": r.Money,
		"date":  func(t time.Time) string { return t.In(r.loc).Format(dateLayout) },
		"clock": func(t time.Time) string { return t.In(r.loc).Format(clockLayout) },
		"upper": strings.ToUpper,
		"inc":   func(i int) int { return i + 1 },
	}).ParseFS(templatesFS, "templates/plan.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse export templates: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

// Money formats an amount in ringgit with grouping, e.g. "RM 1,500,000".
func (r *Renderer) Money(amount float64) string {
	p := message.NewPrinter(r.tag)
	return p.Sprintf("RM %v", number.Decimal(amount, number.MaxFractionDigits(2)))
}

type planData struct {
	Campaign    model.Campaign
	GeneratedAt time.Time
}

// RenderHTML writes the plan for c. Personas must already be loaded on c.
func (r *Renderer) RenderHTML(w io.Writer, c model.Campaign) error {
	if err := r.tmpl.Execute(w, planData{Campaign: c, GeneratedAt: r.now()}); err != nil {
		return fmt.Errorf("render campaign plan: %w", err)
	}
	return nil
}
