// Package compose renders submissions into the HTML body of the notification.
package compose

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"time"
	_ "time/tzdata"

	"github.com/antqd/emailsender/internal/email"
	"github.com/antqd/emailsender/internal/module"
	"github.com/antqd/emailsender/internal/submission"
)

// Placeholder stands in for a missing name or email.
const Placeholder = "-"

// dateLayout matches toLocaleString("it-IT").
const dateLayout = "2/1/2006, 15:04:05"

//go:embed message.html.tmpl
var messageTemplate string

var tmpl = template.Must(template.New("message").Parse(messageTemplate))

// Row is one "Label: value" line.
type Row struct {
	Label string
	Value string
}

// Section is a titled block of rows. An empty Title renders rows only.
type Section struct {
	Title string
	Rows  []Row
}

type page struct {
	Title    string
	Sections []Section
	Date     string
}

// Composer renders messages, stamping them with the time of the call.
type Composer struct {
	now func() time.Time
	loc *time.Location
}

// New creates a Composer. A nil now uses time.Now.
func New(now func() time.Time) *Composer {
	if now == nil {
		now = time.Now
	}
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		loc = time.Local
	}
	return &Composer{now: now, loc: loc}
}

// Compose renders f with the layout its form calls for.
func (c *Composer) Compose(d module.Descriptor, f submission.Form, atts []email.Attachment) (string, error) {
	title := d.Subject(f.SubmitterName())

	switch s := f.(type) {
	case *submission.Standard:
		return c.Render(title, StandardSections(s, d.ExtraFields))
	case *submission.Contract:
		return c.Render(title, ContractSections(s, atts))
	default:
		return "", fmt.Errorf("%w: %T", submission.ErrUnknownForm, f)
	}
}

// Render lays out sections under title, dropping empty sections.
func (c *Composer) Render(title string, sections []Section) (string, error) {
	kept := make([]Section, 0, len(sections))
	for _, s := range sections {
		if len(s.Rows) > 0 {
			kept = append(kept, s)
		}
	}

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, page{
		Title:    title,
		Sections: kept,
		Date:     c.now().In(c.loc).Format(dateLayout),
	})
	if err != nil {
		return "", fmt.Errorf("render message: %w", err)
	}
	return buf.String(), nil
}

// rows builds rows from label/value pairs, skipping empty values.
func rows(pairs ...string) []Row {
	out := make([]Row, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			out = append(out, Row{Label: pairs[i], Value: pairs[i+1]})
		}
	}
	return out
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}
